package booking

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Open reports whether the booking can still be cancelled or extended.
func (s Status) Open() bool {
	return s == StatusScheduled || s == StatusPending
}

const DateLayout = "02/01/2006"

type Booking struct {
	ID                 int       `db:"id" json:"id"`
	UserID             int       `db:"user_id" json:"user_id"`
	GymID              int       `db:"gym_id" json:"gym_id"`
	Date               time.Time `db:"booking_date" json:"-"`
	DisplayDate        string    `db:"-" json:"date" example:"10/03/2025"`
	From               string    `db:"from_time" json:"from" example:"06:30"`
	To                 string    `db:"to_time" json:"to" example:"07:15"`
	TotalPriceCents    int64     `db:"total_price_cents" json:"total_price_cents" example:"25000"`
	TotalPrice         string    `db:"-" json:"total_price" example:"250.00"`
	Status             Status    `db:"status" json:"status" example:"scheduled"`
	Rating             *int      `db:"rating" json:"rating,omitempty"`
	ExtensionID        *int      `db:"extension_id" json:"extension_id,omitempty"`
	HasActiveExtension bool      `db:"has_active_extension" json:"has_active_extension"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// present fills the caller-facing date and price strings.
func (b *Booking) present() {
	b.DisplayDate = b.Date.Format(DateLayout)
	b.TotalPrice = FormatPrice(b.TotalPriceCents)
}

// Details is a booking joined with its gym.
type Details struct {
	Booking
	GymName string `db:"gym_name" json:"gym_name"`
	GymCity string `db:"gym_city" json:"gym_city"`
}

type CreateBookingRequest struct {
	GymID      int         `json:"gym_id" example:"3"`
	Date       string      `json:"date" example:"10/03/2025"`
	From       string      `json:"from" example:"06:30"`
	To         string      `json:"to" example:"07:15"`
	TotalPrice json.Number `json:"total_price" swaggertype:"string" example:"250.00"`
}

type CancelRequest struct {
	BookingID int `json:"booking_id" binding:"required,gt=0" example:"12"`
}

type RateRequest struct {
	BookingID int `json:"booking_id" binding:"required,gt=0" example:"12"`
	Rating    int `json:"rating" example:"5"`
}

// FormatPrice renders cents as a two decimal amount.
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
