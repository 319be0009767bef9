package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pesto-students/backend-repo-titans/internal/db"
	"github.com/pesto-students/backend-repo-titans/internal/rating"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrOverlap         = errors.New("customer already has an overlapping booking")
	ErrNotCancellable  = errors.New("booking is no longer open")
	ErrRatingConflict  = errors.New("rating changed concurrently")
)

const bookingColumns = `
	id, user_id, gym_id, booking_date, from_time, to_time, total_price_cents, status,
	rating, extension_id, has_active_extension, created_at, updated_at`

const detailsQuery = `
	SELECT b.id, b.user_id, b.gym_id, b.booking_date, b.from_time, b.to_time,
	       b.total_price_cents, b.status, b.rating, b.extension_id, b.has_active_extension,
	       b.created_at, b.updated_at, g.gym_name, g.city AS gym_city
	FROM bookings b
	JOIN gyms g ON g.id = b.gym_id`

type repository struct {
	db      *sqlx.DB
	ratings rating.Repository
}

func NewRepository(db *sqlx.DB, ratings rating.Repository) Repository {
	return &repository{db: db, ratings: ratings}
}

// lockKey identifies a (customer, day) pair for pg_advisory_xact_lock.
func lockKey(b *Booking) (int, int) {
	return b.UserID, int(b.Date.Unix() / 86400)
}

func (r *repository) Create(ctx context.Context, b *Booking) (*Booking, error) {
	var created Booking
	day := b.Date.Format("2006-01-02")

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		user, dayKey := lockKey(b)
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, user, dayKey); err != nil {
			return fmt.Errorf("lock customer day: %w", err)
		}

		overlap, err := db.Exists(ctx, tx, `
			SELECT EXISTS(
				SELECT 1 FROM bookings
				WHERE user_id = $1
				  AND booking_date = $2
				  AND status <> 'cancelled'
				  AND from_time <= $4
				  AND to_time >= $3
			)`, b.UserID, day, b.From, b.To)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if overlap {
			return ErrOverlap
		}

		return tx.GetContext(ctx, &created, `
			INSERT INTO bookings (user_id, gym_id, booking_date, from_time, to_time, total_price_cents, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'scheduled')
			RETURNING `+bookingColumns,
			b.UserID, b.GymID, day, b.From, b.To, b.TotalPriceCents)
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) GetDetails(ctx context.Context, id int) (*Details, error) {
	var d Details
	err := r.db.GetContext(ctx, &d, detailsQuery+` WHERE b.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Details, error) {
	var bookings []Details
	err := r.db.SelectContext(ctx, &bookings,
		detailsQuery+` WHERE b.user_id = $1 ORDER BY b.booking_date DESC, b.from_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// Cancel only succeeds while the booking is open, so a concurrent sweep or
// cancellation surfaces as ErrNotCancellable. A pending extension dies with it.
func (r *repository) Cancel(ctx context.Context, id int) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE bookings
			SET status = 'cancelled', has_active_extension = FALSE, updated_at = NOW()
			WHERE id = $1 AND status IN ('scheduled', 'pending')
		`, id)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotCancellable
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE extensions SET status = 'cancelled', updated_at = NOW()
			WHERE booking_id = $1 AND status = 'pending'
		`, id)
		return err
	})
}

func (r *repository) Rate(ctx context.Context, b *Booking, value int) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var (
			result sql.Result
			err    error
		)
		if b.Rating == nil {
			result, err = tx.ExecContext(ctx, `
				UPDATE bookings SET rating = $2, updated_at = NOW()
				WHERE id = $1 AND rating IS NULL
			`, b.ID, value)
		} else {
			result, err = tx.ExecContext(ctx, `
				UPDATE bookings SET rating = $3, updated_at = NOW()
				WHERE id = $1 AND rating = $2
			`, b.ID, *b.Rating, value)
		}
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrRatingConflict
		}

		if b.Rating == nil {
			return r.ratings.Add(ctx, tx, b.GymID, value)
		}
		return r.ratings.Update(ctx, tx, b.GymID, *b.Rating, value)
	})
}
