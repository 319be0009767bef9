package booking

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pesto-students/backend-repo-titans/internal/apperr"
	"github.com/pesto-students/backend-repo-titans/internal/auth"
	"github.com/pesto-students/backend-repo-titans/internal/clock"
	"github.com/pesto-students/backend-repo-titans/internal/email"
	"github.com/pesto-students/backend-repo-titans/internal/gym"
	"github.com/pesto-students/backend-repo-titans/internal/logger"
	"github.com/pesto-students/backend-repo-titans/internal/metrics"
	"github.com/pesto-students/backend-repo-titans/internal/rating"
	"github.com/pesto-students/backend-repo-titans/internal/schedule"
	"github.com/pesto-students/backend-repo-titans/internal/user"
)

// CancelCutoff is how long before the start a booking stops being cancellable.
const CancelCutoff = 30 * time.Minute

type Service interface {
	CreateBooking(ctx context.Context, p auth.Principal, req CreateBookingRequest) (*Booking, error)
	CancelBooking(ctx context.Context, p auth.Principal, bookingID int) (*Booking, error)
	RateBooking(ctx context.Context, p auth.Principal, bookingID, value int) (*Booking, error)
	ListMyBookings(ctx context.Context, p auth.Principal) ([]Details, error)
	GetBooking(ctx context.Context, p auth.Principal, bookingID int) (*Details, error)
}

type Gyms interface {
	GetByID(ctx context.Context, id int) (*gym.Gym, error)
}

type Users interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

type service struct {
	repo   Repository
	gyms   Gyms
	users  Users
	mailer email.Sender
	clock  clock.Clock
	loc    *time.Location
}

func NewService(repo Repository, gyms Gyms, users Users, mailer email.Sender, clk clock.Clock, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:   repo,
		gyms:   gyms,
		users:  users,
		mailer: mailer,
		clock:  clk,
		loc:    loc,
	}
}

// CreateBooking checks its preconditions in a fixed order and reports the first one that fails.
func (s *service) CreateBooking(ctx context.Context, p auth.Principal, req CreateBookingRequest) (*Booking, error) {
	if !p.Is(auth.RoleCustomer) {
		return nil, apperr.Forbidden("only customers can book a session")
	}

	customer, err := s.users.FindByID(ctx, p.ID)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}
	if customer == nil || !customer.HasContactDetails() {
		return nil, apperr.Validation("profile", "add your name and phone number to your profile before booking")
	}

	priceText := strings.TrimSpace(req.TotalPrice.String())
	switch {
	case req.GymID <= 0:
		return nil, apperr.Validation("gym_id", "gym_id is required")
	case strings.TrimSpace(req.Date) == "":
		return nil, apperr.Validation("date", "date is required")
	case strings.TrimSpace(req.From) == "":
		return nil, apperr.Validation("from", "from is required")
	case strings.TrimSpace(req.To) == "":
		return nil, apperr.Validation("to", "to is required")
	case priceText == "":
		return nil, apperr.Validation("total_price", "total_price is required")
	}

	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(req.Date), s.loc)
	if err != nil {
		return nil, apperr.Validation("date", "date must be in DD/MM/YYYY format")
	}

	fromMin, err := schedule.ParseClock(req.From)
	if err != nil {
		return nil, apperr.Validation("from", "from must be in HH:MM format")
	}
	toMin, err := schedule.ParseClock(req.To)
	if err != nil {
		return nil, apperr.Validation("to", "to must be in HH:MM format")
	}

	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return nil, apperr.Validation("total_price", "total_price must be a non-negative number")
	}

	start, _ := clock.At(date, req.From, s.loc)
	if start.Before(s.clock.Now()) {
		return nil, apperr.Temporal("booking_in_past", "you can't book a session in the past")
	}

	if toMin <= fromMin {
		return nil, apperr.Validation("to", "to must be after from")
	}

	g, err := s.gyms.GetByID(ctx, req.GymID)
	if errors.Is(err, gym.ErrGymNotFound) {
		return nil, apperr.NotFound("gym not found")
	}
	if err != nil {
		return nil, err
	}
	if !g.IsActive() {
		return nil, apperr.Conflict("gym_inactive", "gym is not accepting bookings")
	}

	if !schedule.IsSlotAvailable(g.Schedule, date, req.From, req.To) {
		return nil, apperr.Conflict("slot_unavailable", "no available slot for the given time")
	}

	b, err := s.repo.Create(ctx, &Booking{
		UserID:          p.ID,
		GymID:           g.ID,
		Date:            date,
		From:            req.From,
		To:              req.To,
		TotalPriceCents: int64(math.Round(price * 100)),
		Status:          StatusScheduled,
	})
	if errors.Is(err, ErrOverlap) {
		return nil, apperr.Conflict("overlap", "you have an existing booking that overlaps")
	}
	if err != nil {
		return nil, apperr.Internal("create booking", err)
	}
	b.present()

	metrics.RecordBooking(string(StatusScheduled))
	logger.Info("booking created", "booking_id", b.ID, "user_id", p.ID, "gym_id", g.ID, "date", b.DisplayDate)

	s.notify(ctx, customer, email.TemplateBookingConfirmed, map[string]any{
		"name":       customer.FullName,
		"gym":        g.Name,
		"date":       b.DisplayDate,
		"from":       b.From,
		"to":         b.To,
		"price":      b.TotalPrice,
		"booking_id": b.ID,
	})

	return b, nil
}

func (s *service) CancelBooking(ctx context.Context, p auth.Principal, bookingID int) (*Booking, error) {
	if !p.Is(auth.RoleCustomer) {
		return nil, apperr.Forbidden("only customers can cancel bookings")
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if errors.Is(err, ErrBookingNotFound) {
		return nil, apperr.NotFound("booking not found")
	}
	if err != nil {
		return nil, err
	}
	if b.UserID != p.ID {
		return nil, apperr.Forbidden("you can only cancel your own bookings")
	}
	if b.Status.Terminal() {
		return nil, apperr.Conflict("not_cancellable", "booking is already "+string(b.Status))
	}

	start, err := clock.At(b.Date, b.From, s.loc)
	if err != nil {
		return nil, apperr.Internal("stored booking time is malformed", err)
	}
	now := s.clock.Now()
	if start.Before(now) {
		return nil, apperr.Temporal("booking_started", "past bookings cannot be cancelled")
	}
	if !now.Before(start.Add(-CancelCutoff)) {
		return nil, apperr.Temporal("cancellation_cutoff", "bookings can only be cancelled more than 30 minutes before the start")
	}

	if err := s.repo.Cancel(ctx, b.ID); err != nil {
		if errors.Is(err, ErrNotCancellable) {
			return nil, apperr.Conflict("not_cancellable", "booking is no longer open")
		}
		return nil, apperr.Internal("cancel booking", err)
	}

	b.Status = StatusCancelled
	b.HasActiveExtension = false
	b.present()

	metrics.RecordBookingCancellation()
	logger.Info("booking cancelled", "booking_id", b.ID, "user_id", p.ID)

	if customer, err := s.users.FindByID(ctx, p.ID); err == nil {
		gymName := ""
		if g, err := s.gyms.GetByID(ctx, b.GymID); err == nil {
			gymName = g.Name
		}
		s.notify(ctx, customer, email.TemplateBookingCancelled, map[string]any{
			"name": customer.FullName,
			"gym":  gymName,
			"date": b.DisplayDate,
			"from": b.From,
			"to":   b.To,
		})
	}

	return b, nil
}

// RateBooking sets or replaces the customer's rating. Rating is allowed in any status.
func (s *service) RateBooking(ctx context.Context, p auth.Principal, bookingID, value int) (*Booking, error) {
	if !p.Is(auth.RoleCustomer) {
		return nil, apperr.Forbidden("only customers can rate bookings")
	}
	if !rating.Valid(value) {
		return nil, apperr.Validation("rating", "rating must be between 1 and 5")
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if errors.Is(err, ErrBookingNotFound) || (err == nil && b.UserID != p.ID) {
		return nil, apperr.NotFound("booking not found")
	}
	if err != nil {
		return nil, err
	}

	kind := "first"
	if b.Rating != nil {
		kind = "update"
	}

	if err := s.repo.Rate(ctx, b, value); err != nil {
		if errors.Is(err, ErrRatingConflict) {
			return nil, apperr.Conflict("rating_conflict", "booking rating was changed by another request")
		}
		return nil, apperr.Internal("rate booking", err)
	}

	b.Rating = &value
	b.present()

	metrics.RecordRating(kind)
	logger.Info("booking rated", "booking_id", b.ID, "gym_id", b.GymID, "rating", value, "kind", kind)

	return b, nil
}

func (s *service) ListMyBookings(ctx context.Context, p auth.Principal) ([]Details, error) {
	bookings, err := s.repo.ListByUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []Details{}
	}
	for i := range bookings {
		bookings[i].present()
	}
	return bookings, nil
}

func (s *service) GetBooking(ctx context.Context, p auth.Principal, bookingID int) (*Details, error) {
	d, err := s.repo.GetDetails(ctx, bookingID)
	if errors.Is(err, ErrBookingNotFound) || (err == nil && d.UserID != p.ID && !p.Is(auth.RoleAdmin)) {
		return nil, apperr.NotFound("booking not found")
	}
	if err != nil {
		return nil, err
	}
	d.present()
	return d, nil
}

func (s *service) notify(ctx context.Context, to *user.User, template string, params map[string]any) {
	if err := s.mailer.SendTemplate(ctx, to.Email, template, params); err != nil {
		logger.Warn("booking email not queued", "user_id", to.ID, "template", template, "error", err)
	}
}
