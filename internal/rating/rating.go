// Package rating maintains a gym's running average over its rated bookings.
package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	Min = 1
	Max = 5
)

var ErrGymNotFound = errors.New("gym not found for rating update")

// Aggregate mirrors gyms.average_rating and gyms.total_ratings.
type Aggregate struct {
	Average float64 `db:"average_rating" json:"average_rating"`
	Total   int     `db:"total_ratings" json:"total_ratings"`
}

func Valid(r int) bool {
	return r >= Min && r <= Max
}

// Add folds a first-time rating into the mean.
func (a Aggregate) Add(r int) Aggregate {
	return Aggregate{
		Average: (a.Average*float64(a.Total) + float64(r)) / float64(a.Total+1),
		Total:   a.Total + 1,
	}
}

// Update replaces a previously counted rating. Total is unchanged.
func (a Aggregate) Update(old, r int) Aggregate {
	if a.Total == 0 {
		return a
	}
	return Aggregate{
		Average: (a.Average*float64(a.Total) - float64(old) + float64(r)) / float64(a.Total),
		Total:   a.Total,
	}
}

type Repository interface {
	Add(ctx context.Context, exec sqlx.ExecerContext, gymID, r int) error
	Update(ctx context.Context, exec sqlx.ExecerContext, gymID, old, r int) error
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

// Add and Update evaluate the aggregate formulas inside a single UPDATE so the
// read and write of the gym row cannot interleave with another rater.
func (r *repository) Add(ctx context.Context, exec sqlx.ExecerContext, gymID, rating int) error {
	query := `
		UPDATE gyms
		SET average_rating = (average_rating * total_ratings + $2) / (total_ratings + 1),
		    total_ratings = total_ratings + 1,
		    updated_at = NOW()
		WHERE id = $1
	`
	return execOne(ctx, exec, query, gymID, rating)
}

func (r *repository) Update(ctx context.Context, exec sqlx.ExecerContext, gymID, old, rating int) error {
	query := `
		UPDATE gyms
		SET average_rating = CASE
		        WHEN total_ratings = 0 THEN average_rating
		        ELSE (average_rating * total_ratings - $2 + $3) / total_ratings
		    END,
		    updated_at = NOW()
		WHERE id = $1
	`
	return execOne(ctx, exec, query, gymID, old, rating)
}

func execOne(ctx context.Context, exec sqlx.ExecerContext, query string, args ...interface{}) error {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update gym rating: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrGymNotFound
	}
	return nil
}
