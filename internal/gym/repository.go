package gym

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pesto-students/backend-repo-titans/internal/schedule"
)

var ErrGymNotFound = errors.New("gym not found")

const gymColumns = `
	id, owner_id, gym_name, address_line_1, address_line_2, city, state, pincode,
	latitude, longitude, description, images, facilities, gst_number, price_cents,
	total_occupancy, schedule, average_rating, total_ratings, status,
	req_creation_date, created_at, updated_at`

// prefixed qualifies every column in a comma separated list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, g *Gym) (*Gym, error) {
	query := `
		INSERT INTO gyms (
			owner_id, gym_name, address_line_1, address_line_2, city, state, pincode,
			latitude, longitude, description, images, facilities, gst_number,
			price_cents, total_occupancy, schedule, status
		) VALUES (
			:owner_id, :gym_name, :address_line_1, :address_line_2, :city, :state, :pincode,
			:latitude, :longitude, :description, :images, :facilities, :gst_number,
			:price_cents, :total_occupancy, :schedule, :status
		)
		RETURNING ` + gymColumns

	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, g)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("insert gym returned no row")
	}

	var created Gym
	if err := rows.StructScan(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Gym, error) {
	return r.getOne(ctx, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id)
}

func (r *repository) GetByOwner(ctx context.Context, ownerID int) (*Gym, error) {
	return r.getOne(ctx, `SELECT `+gymColumns+` FROM gyms WHERE owner_id = $1`, ownerID)
}

func (r *repository) getOne(ctx context.Context, query string, arg int) (*Gym, error) {
	var g Gym
	err := r.db.GetContext(ctx, &g, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGymNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) OwnerHasGym(ctx context.Context, ownerID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM gyms WHERE owner_id = $1)`, ownerID)
	return exists, err
}

func (r *repository) Update(ctx context.Context, g *Gym) (*Gym, error) {
	query := `
		UPDATE gyms SET
			gym_name = :gym_name,
			address_line_1 = :address_line_1,
			address_line_2 = :address_line_2,
			city = :city,
			state = :state,
			pincode = :pincode,
			latitude = :latitude,
			longitude = :longitude,
			description = :description,
			images = :images,
			facilities = :facilities,
			gst_number = :gst_number,
			price_cents = :price_cents,
			total_occupancy = :total_occupancy,
			status = :status,
			updated_at = NOW()
		WHERE id = :id
		RETURNING ` + gymColumns

	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, g)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrGymNotFound
	}

	var updated Gym
	if err := rows.StructScan(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) UpdateSchedule(ctx context.Context, gymID int, s schedule.Schedule) error {
	return r.execOne(ctx, `UPDATE gyms SET schedule = $2, updated_at = NOW() WHERE id = $1`, gymID, s)
}

func (r *repository) SetStatus(ctx context.Context, gymID int, status Status) error {
	return r.execOne(ctx, `UPDATE gyms SET status = $2, updated_at = NOW() WHERE id = $1`, gymID, status)
}

func (r *repository) execOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
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

func (r *repository) ListPending(ctx context.Context, search string, limit, offset int) ([]PendingGym, int, error) {
	where := `g.status = 'inactive' AND ($1 = '' OR g.gym_name ILIKE '%' || $1 || '%' OR u.full_name ILIKE '%' || $1 || '%')`

	var total int
	countQuery := `SELECT COUNT(*) FROM gyms g JOIN users u ON u.id = g.owner_id WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, search); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, u.full_name AS owner_name, u.email AS owner_email, u.phone_number AS owner_phone
		FROM gyms g
		JOIN users u ON u.id = g.owner_id
		WHERE %s
		ORDER BY g.req_creation_date ASC
		LIMIT $2 OFFSET $3
	`, prefixed("g", gymColumns), where)

	var gyms []PendingGym
	if err := r.db.SelectContext(ctx, &gyms, query, search, limit, offset); err != nil {
		return nil, 0, err
	}
	return gyms, total, nil
}

var sortColumns = map[string]string{
	"price":  "price_cents",
	"rating": "average_rating",
}

func (r *repository) Search(ctx context.Context, q SearchQuery, limit, offset int) ([]Gym, int, error) {
	where := `status = 'active' AND ($1 = '' OR city ILIKE $1)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM gyms WHERE `+where, q.City); err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC"
	if col, ok := sortColumns[q.SortBy]; ok {
		dir := "ASC"
		if q.Order == "desc" {
			dir = "DESC"
		}
		orderBy = col + " " + dir + ", id ASC"
	}

	query := `SELECT ` + gymColumns + ` FROM gyms WHERE ` + where + ` ORDER BY ` + orderBy + ` LIMIT $2 OFFSET $3`

	var gyms []Gym
	if err := r.db.SelectContext(ctx, &gyms, query, q.City, limit, offset); err != nil {
		return nil, 0, err
	}
	return gyms, total, nil
}

func (r *repository) UpcomingBookings(ctx context.Context, gymID int, from time.Time) ([]UpcomingBooking, error) {
	query := `
		SELECT b.id AS booking_id, b.booking_date, b.from_time, b.to_time, b.status,
		       u.full_name AS customer_name, u.phone_number AS customer_phone
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		WHERE b.gym_id = $1
		  AND b.booking_date >= $2::date
		  AND b.status <> 'cancelled'
		ORDER BY b.booking_date ASC, b.from_time ASC, b.to_time ASC
	`

	var bookings []UpcomingBooking
	if err := r.db.SelectContext(ctx, &bookings, query, gymID, from.Format("2006-01-02")); err != nil {
		return nil, err
	}
	return bookings, nil
}

// PeriodStats aggregates non-cancelled bookings with booking_date in [from, to].
func (r *repository) PeriodStats(ctx context.Context, gymID int, from, to time.Time) (*PeriodStats, error) {
	query := `
		SELECT
		  COUNT(*) AS bookings,
		  COALESCE(SUM(total_price_cents), 0) AS revenue_cents,
		  COALESCE(SUM(
		    (SPLIT_PART(to_time, ':', 1)::int * 60 + SPLIT_PART(to_time, ':', 2)::int) -
		    (SPLIT_PART(from_time, ':', 1)::int * 60 + SPLIT_PART(from_time, ':', 2)::int)
		  ), 0) / 60.0 AS hours
		FROM bookings
		WHERE gym_id = $1
		  AND booking_date BETWEEN $2::date AND $3::date
		  AND status <> 'cancelled'
	`

	var stats PeriodStats
	if err := r.db.GetContext(ctx, &stats, query, gymID, from.Format("2006-01-02"), to.Format("2006-01-02")); err != nil {
		return nil, err
	}
	return &stats, nil
}
