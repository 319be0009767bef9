// Package geo resolves Google Maps share links into coordinates.
package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

var ErrNoCoordinates = errors.New("coordinates not found in maps link")

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Resolver interface {
	Resolve(ctx context.Context, mapsLink string) (Coordinates, error)
}

var coordPattern = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)

// HTTPResolver follows the short-link redirect chain and reads the
// "@lat,lng" segment from the final URL, falling back to the page body.
type HTTPResolver struct {
	client *http.Client
}

func NewHTTPResolver(client *http.Client) *HTTPResolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPResolver{client: client}
}

func (r *HTTPResolver) Resolve(ctx context.Context, mapsLink string) (Coordinates, error) {
	if c, err := Extract(mapsLink); err == nil {
		return c, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mapsLink, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("follow maps link: %w", err)
	}
	defer resp.Body.Close()

	if c, err := Extract(resp.Request.URL.String()); err == nil {
		return c, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Coordinates{}, fmt.Errorf("read maps page: %w", err)
	}
	return Extract(string(body))
}

// Extract returns the first "@lat,lng" pair in s.
func Extract(s string) (Coordinates, error) {
	m := coordPattern.FindStringSubmatch(s)
	if m == nil {
		return Coordinates{}, ErrNoCoordinates
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Coordinates{}, ErrNoCoordinates
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Coordinates{}, ErrNoCoordinates
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Coordinates{}, ErrNoCoordinates
	}

	return Coordinates{Latitude: lat, Longitude: lng}, nil
}
