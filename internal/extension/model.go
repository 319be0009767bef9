package extension

import (
	"math"
	"time"

	"github.com/pesto-students/backend-repo-titans/internal/booking"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

// Decision reports whether s is an outcome an owner may choose.
func (s Status) Decision() bool {
	return s == StatusApproved || s == StatusCancelled
}

type Extension struct {
	ID              int       `db:"id" json:"id"`
	BookingID       int       `db:"booking_id" json:"booking_id"`
	DurationMinutes int       `db:"duration_minutes" json:"duration"`
	Status          Status    `db:"status" json:"status" example:"pending"`
	OwnerID         int       `db:"owner_id" json:"owner_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Target is the booking an extension is requested against, with the gym
// fields needed to route and price it.
type Target struct {
	BookingID     int            `db:"id"`
	UserID        int            `db:"user_id"`
	GymID         int            `db:"gym_id"`
	Date          time.Time      `db:"booking_date"`
	From          string         `db:"from_time"`
	To            string         `db:"to_time"`
	Status        booking.Status `db:"status"`
	ExtensionID   *int           `db:"extension_id"`
	GymName       string         `db:"gym_name"`
	GymOwnerID    int            `db:"gym_owner_id"`
	GymPriceCents int64          `db:"gym_price_cents"`
}

// Approval is the booking state after an approved extension was applied.
type Approval struct {
	PriceCents      int64          `db:"-"`
	TotalPriceCents int64          `db:"total_price_cents"`
	BookingStatus   booking.Status `db:"status"`
}

// Pending is an unresolved extension as shown on the owner dashboard.
type Pending struct {
	Extension
	Date          time.Time `db:"booking_date" json:"-"`
	DisplayDate   string    `db:"-" json:"date" example:"10/03/2025"`
	From          string    `db:"from_time" json:"from"`
	To            string    `db:"to_time" json:"to"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	CustomerPhone string    `db:"customer_phone" json:"customer_phone"`
}

type RequestExtensionInput struct {
	BookingID       int `json:"booking_id" binding:"required,gt=0" example:"12"`
	DurationMinutes int `json:"duration" example:"30"`
}

type RespondRequest struct {
	ExtensionID int    `json:"extension_id" binding:"required,gt=0" example:"4"`
	Status      Status `json:"status" example:"approved"`
}

type Resolution struct {
	Extension      *Extension     `json:"extension"`
	BookingStatus  booking.Status `json:"booking_status,omitempty"`
	ExtensionPrice string         `json:"extension_price,omitempty" example:"300.00"`
	TotalPrice     string         `json:"total_price,omitempty" example:"550.00"`
}

// Price is the cost of durationMinutes at hourlyCents, rounded to the cent.
func Price(durationMinutes int, hourlyCents int64) int64 {
	return int64(math.Round(float64(durationMinutes) * float64(hourlyCents) / 60))
}
