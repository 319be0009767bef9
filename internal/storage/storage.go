// Package storage uploads gym images to object storage and returns their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	maxImageDimension = 1600
	webpQuality       = 80
	maxUploadBytes    = 5 << 20
)

var (
	ErrNotConfigured = errors.New("image storage is not configured")
	ErrTooLarge      = errors.New("image exceeds 5MB")
	ErrUnsupported   = errors.New("unsupported image format")
)

type ImageStore interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error)
}

// objectPutter is the subset of *oss.Bucket used here.
type objectPutter interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
}

type OSSStore struct {
	bucket        objectPutter
	publicBaseURL string
	now           func() time.Time
}

func NewOSSStore(endpoint, accessKey, secretKey, bucketName, publicBaseURL string) (*OSSStore, error) {
	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", bucketName, err)
	}

	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.%s", bucketName, strings.TrimPrefix(endpoint, "https://"))
	}

	return newOSSStore(bucket, publicBaseURL), nil
}

func newOSSStore(bucket objectPutter, publicBaseURL string) *OSSStore {
	return &OSSStore{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Upload re-encodes the image as WebP and stores it under folder.
func (s *OSSStore) Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxUploadBytes {
		return "", ErrTooLarge
	}

	encoded, err := ToWebP(data, maxImageDimension, webpQuality)
	if err != nil {
		return "", err
	}

	key := objectKey(folder, filename, s.now())
	err = s.bucket.PutObject(key, bytes.NewReader(encoded),
		oss.WithContext(ctx),
		oss.ContentType("image/webp"),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.publicBaseURL + "/" + key, nil
}

// ToWebP decodes a JPEG, PNG or WebP image, shrinks it to fit within
// maxDim x maxDim and encodes it as lossy WebP.
func ToWebP(data []byte, maxDim int, quality float32) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]+`)

func objectKey(folder, filename string, now time.Time) string {
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s/%s-%s-%s.webp", strings.Trim(folder, "/"), now.Format("20060102"), uuid.New().String(), base)
}

// Unconfigured rejects every upload. It stands in when no OSS credentials are set.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrNotConfigured
}
