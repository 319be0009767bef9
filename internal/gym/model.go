package gym

import (
	"time"

	"github.com/lib/pq"
	"github.com/pesto-students/backend-repo-titans/internal/schedule"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRejected Status = "rejected"
)

type Gym struct {
	ID              int               `db:"id" json:"id"`
	OwnerID         int               `db:"owner_id" json:"owner_id"`
	Name            string            `db:"gym_name" json:"gym_name"`
	AddressLine1    string            `db:"address_line_1" json:"address_line_1"`
	AddressLine2    string            `db:"address_line_2" json:"address_line_2,omitempty"`
	City            string            `db:"city" json:"city"`
	State           string            `db:"state" json:"state"`
	Pincode         int               `db:"pincode" json:"pincode"`
	Latitude        float64           `db:"latitude" json:"latitude"`
	Longitude       float64           `db:"longitude" json:"longitude"`
	Description     string            `db:"description" json:"description"`
	Images          pq.StringArray    `db:"images" json:"images" swaggertype:"array,string"`
	Facilities      pq.StringArray    `db:"facilities" json:"facilities" swaggertype:"array,string"`
	GSTNumber       string            `db:"gst_number" json:"gst_number,omitempty"`
	PriceCents      int64             `db:"price_cents" json:"price_cents"`
	TotalOccupancy  int               `db:"total_occupancy" json:"total_occupancy"`
	Schedule        schedule.Schedule `db:"schedule" json:"schedule"`
	AverageRating   float64           `db:"average_rating" json:"average_rating"`
	TotalRatings    int               `db:"total_ratings" json:"total_ratings"`
	Status          Status            `db:"status" json:"status"`
	ReqCreationDate time.Time         `db:"req_creation_date" json:"req_creation_date"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

func (g *Gym) IsActive() bool {
	return g.Status == StatusActive
}

// GymForm is the multipart onboarding and update payload.
type GymForm struct {
	Name           string   `form:"gym_name" validate:"required,min=2,max=120"`
	AddressLine1   string   `form:"address_line_1" validate:"required,max=200"`
	AddressLine2   string   `form:"address_line_2" validate:"max=200"`
	Pincode        int      `form:"pincode" validate:"required,gte=100000,lte=999999"`
	MapsLink       string   `form:"maps_link" validate:"omitempty,url"`
	Description    string   `form:"description" validate:"max=2000"`
	Facilities     []string `form:"facilities" validate:"dive,max=60"`
	GSTNumber      string   `form:"gst_number" validate:"omitempty,len=15,alphanum"`
	Price          float64  `form:"price" validate:"gte=0"`
	TotalOccupancy int      `form:"total_occupancy" validate:"gte=0"`
	OwnerName      string   `form:"owner_name" validate:"omitempty,min=2,max=100"`
	OwnerPhone     string   `form:"owner_phone" validate:"omitempty,numeric,len=10"`
	OwnerUPI       string   `form:"owner_upi" validate:"omitempty,max=100"`
}

type Image struct {
	Filename string
	Data     []byte
}

type UpdateScheduleRequest struct {
	Frequency schedule.Frequency             `json:"frequency" binding:"required" example:"weekly"`
	Slots     map[string][]schedule.Interval `json:"slots" binding:"required"`
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

type RespondRequest struct {
	Decision Decision `json:"decision" binding:"required,oneof=approve reject" example:"approve"`
	Reason   string   `json:"reason" binding:"max=2000" example:"Photos are blurry. GST number missing."`
}

type PendingGym struct {
	Gym
	OwnerName  string `db:"owner_name" json:"owner_name"`
	OwnerEmail string `db:"owner_email" json:"owner_email"`
	OwnerPhone string `db:"owner_phone" json:"owner_phone"`
}

type ListQuery struct {
	Search string `form:"search" binding:"max=100"`
	Page   int    `form:"page" binding:"omitempty,gte=1"`
	Limit  int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

type SearchQuery struct {
	City   string `form:"city" binding:"max=100"`
	SortBy string `form:"sort_by" binding:"omitempty,oneof=price rating"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
	Page   int    `form:"page" binding:"omitempty,gte=1"`
	Limit  int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

const (
	defaultPage  = 1
	defaultLimit = 10
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

type UpcomingBooking struct {
	BookingID     int       `db:"booking_id" json:"booking_id"`
	Date          time.Time `db:"booking_date" json:"-"`
	DisplayDate   string    `db:"-" json:"date" example:"10/03/2025"`
	From          string    `db:"from_time" json:"from"`
	To            string    `db:"to_time" json:"to"`
	Status        string    `db:"status" json:"status"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	CustomerPhone string    `db:"customer_phone" json:"customer_phone"`
}

type PeriodStats struct {
	Bookings     int     `db:"bookings" json:"bookings"`
	RevenueCents int64   `db:"revenue_cents" json:"revenue_cents"`
	Hours        float64 `db:"hours" json:"hours"`
}

type OwnerStats struct {
	CurrentWeek   PeriodStats `json:"current_week"`
	PreviousWeek  PeriodStats `json:"previous_week"`
	AverageRating float64     `json:"average_rating"`
	TotalRatings  int         `json:"total_ratings"`
}
