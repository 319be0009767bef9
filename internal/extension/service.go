package extension

import (
	"context"
	"errors"

	"github.com/pesto-students/backend-repo-titans/internal/apperr"
	"github.com/pesto-students/backend-repo-titans/internal/auth"
	"github.com/pesto-students/backend-repo-titans/internal/booking"
	"github.com/pesto-students/backend-repo-titans/internal/email"
	"github.com/pesto-students/backend-repo-titans/internal/logger"
	"github.com/pesto-students/backend-repo-titans/internal/metrics"
	"github.com/pesto-students/backend-repo-titans/internal/user"
)

type Service interface {
	RequestExtension(ctx context.Context, p auth.Principal, in RequestExtensionInput) (*Extension, error)
	RespondToExtension(ctx context.Context, p auth.Principal, extensionID int, decision Status) (*Resolution, error)
	ListOwnerPendingExtensions(ctx context.Context, p auth.Principal) ([]Pending, error)
}

type Users interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

type service struct {
	repo   Repository
	users  Users
	mailer email.Sender
}

func NewService(repo Repository, users Users, mailer email.Sender) Service {
	return &service{repo: repo, users: users, mailer: mailer}
}

func (s *service) RequestExtension(ctx context.Context, p auth.Principal, in RequestExtensionInput) (*Extension, error) {
	if !p.Is(auth.RoleCustomer) {
		return nil, apperr.Forbidden("only customers can request an extension")
	}
	if in.DurationMinutes <= 0 {
		return nil, apperr.Validation("duration", "duration must be a positive number of minutes")
	}

	t, err := s.repo.GetTarget(ctx, in.BookingID)
	if errors.Is(err, ErrBookingNotFound) {
		return nil, apperr.NotFound("booking not found")
	}
	if err != nil {
		return nil, err
	}
	if !t.Status.Open() {
		return nil, apperr.Conflict("booking_closed", "booking is already "+string(t.Status))
	}
	if t.UserID != p.ID {
		return nil, apperr.Forbidden("you can only extend your own bookings")
	}
	if t.ExtensionID != nil {
		return nil, apperr.Conflict("extension_exists", "an extension has already been requested for this booking")
	}

	e, err := s.repo.Create(ctx, t, in.DurationMinutes)
	switch {
	case errors.Is(err, ErrAlreadyExtended):
		return nil, apperr.Conflict("extension_exists", "an extension has already been requested for this booking")
	case errors.Is(err, ErrBookingClosed), errors.Is(err, ErrBookingNotFound):
		return nil, apperr.Conflict("booking_closed", "booking is no longer open")
	case err != nil:
		return nil, apperr.Internal("create extension", err)
	}

	metrics.RecordExtension(string(StatusPending))
	logger.Info("extension requested", "extension_id", e.ID, "booking_id", t.BookingID, "owner_id", e.OwnerID, "duration", e.DurationMinutes)

	owner, err := s.users.FindByID(ctx, t.GymOwnerID)
	if err == nil {
		customerName := ""
		if c, err := s.users.FindByID(ctx, p.ID); err == nil {
			customerName = c.FullName
		}
		s.notify(ctx, owner, email.TemplateExtensionRequested, map[string]any{
			"name":     owner.FullName,
			"customer": customerName,
			"gym":      t.GymName,
			"date":     t.Date.Format(booking.DateLayout),
			"from":     t.From,
			"to":       t.To,
			"duration": e.DurationMinutes,
		})
	}

	return e, nil
}

func (s *service) RespondToExtension(ctx context.Context, p auth.Principal, extensionID int, decision Status) (*Resolution, error) {
	if !p.Is(auth.RoleOwner) {
		return nil, apperr.Forbidden("only gym owners can respond to extensions")
	}
	if !decision.Decision() {
		return nil, apperr.Validation("status", "status must be approved or cancelled")
	}

	e, err := s.repo.GetByID(ctx, extensionID)
	if errors.Is(err, ErrExtensionNotFound) {
		return nil, apperr.NotFound("extension not found")
	}
	if err != nil {
		return nil, err
	}
	if e.OwnerID != p.ID {
		return nil, apperr.Forbidden("this extension belongs to another gym")
	}
	if e.Status != StatusPending {
		return nil, apperr.Conflict("not_pending", "extension is already "+string(e.Status))
	}

	res := &Resolution{Extension: e}
	if decision == StatusApproved {
		a, err := s.repo.Approve(ctx, e)
		if err != nil {
			return nil, respondErr(err)
		}
		res.BookingStatus = a.BookingStatus
		res.ExtensionPrice = booking.FormatPrice(a.PriceCents)
		res.TotalPrice = booking.FormatPrice(a.TotalPriceCents)
	} else if err := s.repo.Decline(ctx, e); err != nil {
		return nil, respondErr(err)
	}
	e.Status = decision

	metrics.RecordExtension(string(decision))
	logger.Info("extension resolved", "extension_id", e.ID, "booking_id", e.BookingID, "decision", decision)

	s.notifyCustomer(ctx, e, res)

	return res, nil
}

func respondErr(err error) error {
	switch {
	case errors.Is(err, ErrNotPending):
		return apperr.Conflict("not_pending", "extension was resolved by another request")
	case errors.Is(err, ErrBookingClosed):
		return apperr.Conflict("booking_closed", "booking was cancelled or completed")
	case errors.Is(err, ErrBookingNotFound):
		return apperr.NotFound("booking not found")
	default:
		return apperr.Internal("resolve extension", err)
	}
}

func (s *service) notifyCustomer(ctx context.Context, e *Extension, res *Resolution) {
	t, err := s.repo.GetTarget(ctx, e.BookingID)
	if err != nil {
		logger.Warn("extension email skipped", "extension_id", e.ID, "error", err)
		return
	}
	customer, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		logger.Warn("extension email skipped", "extension_id", e.ID, "error", err)
		return
	}
	s.notify(ctx, customer, email.TemplateExtensionResponded, map[string]any{
		"name":     customer.FullName,
		"gym":      t.GymName,
		"date":     t.Date.Format(booking.DateLayout),
		"duration": e.DurationMinutes,
		"decision": string(e.Status),
		"price":    res.TotalPrice,
	})
}

func (s *service) ListOwnerPendingExtensions(ctx context.Context, p auth.Principal) ([]Pending, error) {
	if !p.Is(auth.RoleOwner) {
		return nil, apperr.Forbidden("only gym owners can view extension requests")
	}

	pending, err := s.repo.ListOwnerPending(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		pending = []Pending{}
	}
	for i := range pending {
		pending[i].DisplayDate = pending[i].Date.Format(booking.DateLayout)
	}
	return pending, nil
}

func (s *service) notify(ctx context.Context, to *user.User, template string, params map[string]any) {
	if err := s.mailer.SendTemplate(ctx, to.Email, template, params); err != nil {
		logger.Warn("extension email not queued", "user_id", to.ID, "template", template, "error", err)
	}
}

