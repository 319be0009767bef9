package extension

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pesto-students/backend-repo-titans/internal/booking"
	"github.com/pesto-students/backend-repo-titans/internal/db"
)

var (
	ErrExtensionNotFound = errors.New("extension not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingClosed     = errors.New("booking is no longer open")
	ErrAlreadyExtended   = errors.New("booking already has an extension")
	ErrNotPending        = errors.New("extension already resolved")
)

const extensionColumns = `id, booking_id, duration_minutes, status, owner_id, created_at, updated_at`

const targetQuery = `
	SELECT b.id, b.user_id, b.gym_id, b.booking_date, b.from_time, b.to_time, b.status,
	       b.extension_id, g.gym_name, g.owner_id AS gym_owner_id, g.price_cents AS gym_price_cents
	FROM bookings b
	JOIN gyms g ON g.id = b.gym_id
	WHERE b.id = $1`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetTarget(ctx context.Context, bookingID int) (*Target, error) {
	var t Target
	err := r.db.GetContext(ctx, &t, targetQuery, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Extension, error) {
	var e Extension
	err := r.db.GetContext(ctx, &e, `SELECT `+extensionColumns+` FROM extensions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExtensionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// lockBooking takes the row lock that serializes extension writes against
// cancellation and the sweeps.
func lockBooking(ctx context.Context, tx *sqlx.Tx, bookingID int) (booking.Status, *int, error) {
	var row struct {
		Status      booking.Status `db:"status"`
		ExtensionID *int           `db:"extension_id"`
	}
	err := tx.GetContext(ctx, &row, `SELECT status, extension_id FROM bookings WHERE id = $1 FOR UPDATE`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrBookingNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("lock booking: %w", err)
	}
	return row.Status, row.ExtensionID, nil
}

func (r *repository) Create(ctx context.Context, t *Target, durationMinutes int) (*Extension, error) {
	var created Extension

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		status, extID, err := lockBooking(ctx, tx, t.BookingID)
		if err != nil {
			return err
		}
		if !status.Open() {
			return ErrBookingClosed
		}
		if extID != nil {
			return ErrAlreadyExtended
		}

		err = tx.GetContext(ctx, &created, `
			INSERT INTO extensions (booking_id, duration_minutes, status, owner_id)
			VALUES ($1, $2, 'pending', $3)
			RETURNING `+extensionColumns,
			t.BookingID, durationMinutes, t.GymOwnerID)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyExtended
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE bookings SET extension_id = $2, has_active_extension = TRUE, updated_at = NOW()
			WHERE id = $1
		`, t.BookingID, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) Approve(ctx context.Context, e *Extension) (*Approval, error) {
	var out Approval

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		status, _, err := lockBooking(ctx, tx, e.BookingID)
		if err != nil {
			return err
		}
		if status.Terminal() {
			return ErrBookingClosed
		}

		if err := resolve(ctx, tx, e.ID, StatusApproved); err != nil {
			return err
		}

		var hourly int64
		err = tx.GetContext(ctx, &hourly, `
			SELECT g.price_cents FROM gyms g JOIN bookings b ON b.gym_id = g.id WHERE b.id = $1
		`, e.BookingID)
		if err != nil {
			return fmt.Errorf("load gym price: %w", err)
		}
		out.PriceCents = Price(e.DurationMinutes, hourly)

		return tx.GetContext(ctx, &out, `
			UPDATE bookings
			SET total_price_cents = total_price_cents + $2,
			    extension_id = $3,
			    has_active_extension = FALSE,
			    status = CASE WHEN status = 'scheduled' THEN 'pending' ELSE status END,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING total_price_cents, status
		`, e.BookingID, out.PriceCents, e.ID)
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *repository) Decline(ctx context.Context, e *Extension) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := resolve(ctx, tx, e.ID, StatusCancelled); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE bookings SET has_active_extension = FALSE, updated_at = NOW() WHERE id = $1
		`, e.BookingID)
		return err
	})
}

// resolve moves a pending extension to status; ErrNotPending if it was already resolved.
func resolve(ctx context.Context, tx *sqlx.Tx, id int, status Status) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE extensions SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, string(status))
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *repository) ListOwnerPending(ctx context.Context, ownerID int) ([]Pending, error) {
	var pending []Pending
	err := r.db.SelectContext(ctx, &pending, `
		SELECT e.id, e.booking_id, e.duration_minutes, e.status, e.owner_id, e.created_at, e.updated_at,
		       b.booking_date, b.from_time, b.to_time,
		       u.full_name AS customer_name, u.phone_number AS customer_phone
		FROM extensions e
		JOIN bookings b ON b.id = e.booking_id
		JOIN users u ON u.id = b.user_id
		WHERE e.owner_id = $1 AND e.status = 'pending'
		ORDER BY b.booking_date DESC, e.id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	return pending, nil
}
