package gym

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pesto-students/backend-repo-titans/internal/api"
	"github.com/pesto-students/backend-repo-titans/internal/apperr"
	"github.com/pesto-students/backend-repo-titans/internal/auth"
	"github.com/pesto-students/backend-repo-titans/internal/clock"
	"github.com/pesto-students/backend-repo-titans/internal/email"
	"github.com/pesto-students/backend-repo-titans/internal/geo"
	"github.com/pesto-students/backend-repo-titans/internal/logger"
	"github.com/pesto-students/backend-repo-titans/internal/pincode"
	"github.com/pesto-students/backend-repo-titans/internal/schedule"
	"github.com/pesto-students/backend-repo-titans/internal/storage"
	"github.com/pesto-students/backend-repo-titans/internal/user"
)

const maxImages = 10

// InvalidScheduleError carries the per-day slot errors of a rejected schedule update.
type InvalidScheduleError struct {
	Days []schedule.DayErrors
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("schedule has invalid slots on %d day(s)", len(e.Days))
}

// Owners is the part of the user store the gym flows need.
type Owners interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
	UpdateProfile(ctx context.Context, id int, req user.UpdateProfileRequest) (*user.User, error)
}

type Service interface {
	Onboard(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error)
	UpdateGym(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error)
	Resubmit(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error)
	UpdateSchedule(ctx context.Context, p auth.Principal, req UpdateScheduleRequest) (*Gym, error)
	ListPending(ctx context.Context, p auth.Principal, q ListQuery) (*api.Page[PendingGym], error)
	Respond(ctx context.Context, p auth.Principal, gymID int, req RespondRequest) (*Gym, error)
	Search(ctx context.Context, q SearchQuery) (*api.Page[Gym], error)
	GetGym(ctx context.Context, id int) (*Gym, error)
	UpcomingBookings(ctx context.Context, p auth.Principal) ([]UpcomingBooking, error)
	OwnerStats(ctx context.Context, p auth.Principal) (*OwnerStats, error)
}

type Deps struct {
	Repo     Repository
	Owners   Owners
	Pincodes pincode.Lookup
	Geo      geo.Resolver
	Images   storage.ImageStore
	Mailer   email.Sender
	Clock    clock.Clock
	Location *time.Location
}

type service struct {
	repo     Repository
	owners   Owners
	pincodes pincode.Lookup
	geo      geo.Resolver
	images   storage.ImageStore
	mailer   email.Sender
	clock    clock.Clock
	loc      *time.Location
}

func NewService(d Deps) Service {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &service{
		repo:     d.Repo,
		owners:   d.Owners,
		pincodes: d.Pincodes,
		geo:      d.Geo,
		images:   d.Images,
		mailer:   d.Mailer,
		clock:    d.Clock,
		loc:      d.Location,
	}
}

func requireOwner(p auth.Principal) error {
	if !p.Is(auth.RoleOwner) {
		return apperr.Forbidden("only gym owners can manage a gym")
	}
	return nil
}

func requireAdmin(p auth.Principal) error {
	if !p.Is(auth.RoleAdmin) {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

// Onboard registers the owner's gym. It starts inactive until an admin approves it.
func (s *service) Onboard(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error) {
	if err := requireOwner(p); err != nil {
		return nil, err
	}

	exists, err := s.repo.OwnerHasGym(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("gym_exists", "you have already registered a gym")
	}

	g := &Gym{
		OwnerID:  p.ID,
		Status:   StatusInactive,
		Schedule: schedule.Schedule{Frequency: schedule.FrequencyWeekly, Slots: map[string][]schedule.Interval{}},
	}
	if err := s.applyForm(ctx, p, g, form, images); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("create gym: %w", err)
	}

	logger.Info("gym onboarded", "gym_id", created.ID, "owner_id", p.ID)
	s.notifyOwner(ctx, p.ID, email.TemplateGymOnboardingQueued, created, nil)

	return created, nil
}

func (s *service) UpdateGym(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error) {
	return s.update(ctx, p, form, images, false)
}

// Resubmit updates the gym and sends it back to the review queue.
func (s *service) Resubmit(ctx context.Context, p auth.Principal, form GymForm, images []Image) (*Gym, error) {
	return s.update(ctx, p, form, images, true)
}

func (s *service) update(ctx context.Context, p auth.Principal, form GymForm, images []Image, resubmit bool) (*Gym, error) {
	if err := requireOwner(p); err != nil {
		return nil, err
	}

	g, err := s.ownGym(ctx, p)
	if err != nil {
		return nil, err
	}

	if resubmit {
		if g.IsActive() {
			return nil, apperr.Conflict("gym_active", "gym is already approved")
		}
		g.Status = StatusInactive
	}

	if err := s.applyForm(ctx, p, g, form, images); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("update gym: %w", err)
	}

	if resubmit {
		logger.Info("gym resubmitted", "gym_id", updated.ID)
		s.notifyOwner(ctx, p.ID, email.TemplateGymOnboardingQueued, updated, nil)
	}
	return updated, nil
}

// applyForm copies the form onto g, resolving the pincode and maps link and
// uploading new images. Nothing is persisted here.
func (s *service) applyForm(ctx context.Context, p auth.Principal, g *Gym, form GymForm, images []Image) error {
	if len(g.Images)+len(images) > maxImages {
		return apperr.Validation("images", fmt.Sprintf("a gym can have at most %d images", maxImages))
	}

	place, err := s.pincodes.Find(ctx, form.Pincode)
	if errors.Is(err, pincode.ErrNotFound) {
		return apperr.Validation("pincode", "unknown pincode")
	}
	if err != nil {
		return err
	}

	if form.MapsLink != "" {
		coords, err := s.geo.Resolve(ctx, form.MapsLink)
		if err != nil {
			logger.Warn("maps link not resolved", "owner_id", p.ID, "error", err)
			return apperr.Validation("maps_link", "could not read coordinates from the maps link")
		}
		g.Latitude = coords.Latitude
		g.Longitude = coords.Longitude
	}

	folder := fmt.Sprintf("gyms/%d", p.ID)
	for _, img := range images {
		url, err := s.images.Upload(ctx, folder, img.Filename, bytes.NewReader(img.Data))
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			return apperr.Validation("images", img.Filename+" is larger than 5MB")
		case errors.Is(err, storage.ErrUnsupported):
			return apperr.Validation("images", img.Filename+" is not a JPEG, PNG or WebP image")
		case err != nil:
			return apperr.Internal("image upload failed", err)
		}
		g.Images = append(g.Images, url)
	}

	g.Name = strings.TrimSpace(form.Name)
	g.AddressLine1 = strings.TrimSpace(form.AddressLine1)
	g.AddressLine2 = strings.TrimSpace(form.AddressLine2)
	g.Pincode = place.Pincode
	g.City = place.City
	g.State = place.State
	g.Description = form.Description
	g.Facilities = form.Facilities
	g.GSTNumber = form.GSTNumber
	g.PriceCents = toCents(form.Price)
	g.TotalOccupancy = form.TotalOccupancy

	return s.updateOwnerProfile(ctx, p.ID, form)
}

func (s *service) updateOwnerProfile(ctx context.Context, ownerID int, form GymForm) error {
	var req user.UpdateProfileRequest
	if form.OwnerName != "" {
		req.FullName = &form.OwnerName
	}
	if form.OwnerPhone != "" {
		req.PhoneNumber = &form.OwnerPhone
	}
	if form.OwnerUPI != "" {
		req.UPIID = &form.OwnerUPI
	}
	if req.FullName == nil && req.PhoneNumber == nil && req.UPIID == nil {
		return nil
	}

	if _, err := s.owners.UpdateProfile(ctx, ownerID, req); err != nil {
		return fmt.Errorf("update owner profile: %w", err)
	}
	return nil
}

func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// UpdateSchedule validates every weekday before touching the stored schedule.
// Weekdays not named in the request keep their existing slots.
func (s *service) UpdateSchedule(ctx context.Context, p auth.Principal, req UpdateScheduleRequest) (*Gym, error) {
	if err := requireOwner(p); err != nil {
		return nil, err
	}
	if !req.Frequency.Valid() {
		return nil, apperr.Validation("frequency", "frequency must be weekly or monthly")
	}

	normalized, dayErrs := schedule.ValidateWeek(req.Slots)
	if len(dayErrs) > 0 {
		return nil, &apperr.Error{
			Kind:    apperr.KindValidation,
			Code:    "invalid_slots",
			Field:   "slots",
			Message: "schedule has invalid slots",
			Err:     &InvalidScheduleError{Days: dayErrs},
		}
	}

	g, err := s.ownGym(ctx, p)
	if err != nil {
		return nil, err
	}

	merged := g.Schedule.Merge(req.Frequency, normalized)
	if err := s.repo.UpdateSchedule(ctx, g.ID, merged); err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	g.Schedule = merged
	logger.Info("gym schedule updated", "gym_id", g.ID, "days", len(normalized))
	return g, nil
}

func (s *service) ListPending(ctx context.Context, p auth.Principal, q ListQuery) (*api.Page[PendingGym], error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	page, limit := normalizePage(q.Page, q.Limit)
	gyms, total, err := s.repo.ListPending(ctx, strings.TrimSpace(q.Search), limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if gyms == nil {
		gyms = []PendingGym{}
	}

	return &api.Page[PendingGym]{Items: gyms, Total: total, Page: page, Limit: limit}, nil
}

// Respond records an admin decision on a gym awaiting review.
func (s *service) Respond(ctx context.Context, p auth.Principal, gymID int, req RespondRequest) (*Gym, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var status Status
	switch req.Decision {
	case DecisionApprove:
		status = StatusActive
	case DecisionReject:
		status = StatusRejected
		if len(splitReasons(req.Reason)) == 0 {
			return nil, apperr.Validation("reason", "a reason is required when rejecting a gym")
		}
	default:
		return nil, apperr.Validation("decision", "decision must be approve or reject")
	}

	g, err := s.repo.GetByID(ctx, gymID)
	if errors.Is(err, ErrGymNotFound) {
		return nil, apperr.NotFound("gym not found")
	}
	if err != nil {
		return nil, err
	}
	if g.Status != StatusInactive {
		return nil, apperr.Conflict("not_pending", "gym is not awaiting review")
	}

	if err := s.repo.SetStatus(ctx, gymID, status); err != nil {
		return nil, fmt.Errorf("set gym status: %w", err)
	}
	g.Status = status

	logger.Info("gym reviewed", "gym_id", gymID, "decision", string(req.Decision), "admin_id", p.ID)
	if status == StatusActive {
		s.notifyOwner(ctx, g.OwnerID, email.TemplateGymApproved, g, nil)
	} else {
		s.notifyOwner(ctx, g.OwnerID, email.TemplateGymNeedsResubmit, g, map[string]any{"reasons": splitReasons(req.Reason)})
	}

	return g, nil
}

// splitReasons turns free text into one reason per sentence.
func splitReasons(reason string) []string {
	var out []string
	for _, part := range strings.Split(reason, ".") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *service) Search(ctx context.Context, q SearchQuery) (*api.Page[Gym], error) {
	page, limit := normalizePage(q.Page, q.Limit)
	q.City = strings.TrimSpace(q.City)

	gyms, total, err := s.repo.Search(ctx, q, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if gyms == nil {
		gyms = []Gym{}
	}

	return &api.Page[Gym]{Items: gyms, Total: total, Page: page, Limit: limit}, nil
}

// GetGym returns an approved gym. Gyms under review are reported as missing.
func (s *service) GetGym(ctx context.Context, id int) (*Gym, error) {
	g, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrGymNotFound) || (err == nil && !g.IsActive()) {
		return nil, apperr.NotFound("gym not found")
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *service) UpcomingBookings(ctx context.Context, p auth.Principal) ([]UpcomingBooking, error) {
	if err := requireOwner(p); err != nil {
		return nil, err
	}

	g, err := s.ownGym(ctx, p)
	if err != nil {
		return nil, err
	}

	today, _ := clock.Wall(s.clock.Now(), s.loc)
	bookings, err := s.repo.UpcomingBookings(ctx, g.ID, today)
	if err != nil {
		return nil, err
	}

	if bookings == nil {
		bookings = []UpcomingBooking{}
	}
	for i := range bookings {
		bookings[i].DisplayDate = bookings[i].Date.Format("02/01/2006")
	}
	return bookings, nil
}

// OwnerStats compares the current Monday-to-Sunday week with the one before it.
func (s *service) OwnerStats(ctx context.Context, p auth.Principal) (*OwnerStats, error) {
	if err := requireOwner(p); err != nil {
		return nil, err
	}

	g, err := s.ownGym(ctx, p)
	if err != nil {
		return nil, err
	}

	today, _ := clock.Wall(s.clock.Now(), s.loc)
	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))

	current, err := s.repo.PeriodStats(ctx, g.ID, monday, monday.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}
	previous, err := s.repo.PeriodStats(ctx, g.ID, monday.AddDate(0, 0, -7), monday.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	return &OwnerStats{
		CurrentWeek:   *current,
		PreviousWeek:  *previous,
		AverageRating: g.AverageRating,
		TotalRatings:  g.TotalRatings,
	}, nil
}

func (s *service) ownGym(ctx context.Context, p auth.Principal) (*Gym, error) {
	g, err := s.repo.GetByOwner(ctx, p.ID)
	if errors.Is(err, ErrGymNotFound) {
		return nil, apperr.NotFound("you have not registered a gym")
	}
	return g, err
}

func (s *service) notifyOwner(ctx context.Context, ownerID int, template string, g *Gym, extra map[string]any) {
	owner, err := s.owners.FindByID(ctx, ownerID)
	if err != nil {
		logger.Warn("gym owner not loaded for email", "owner_id", ownerID, "error", err)
		return
	}

	params := map[string]any{"name": owner.FullName, "gym": g.Name}
	for k, v := range extra {
		params[k] = v
	}
	if err := s.mailer.SendTemplate(ctx, owner.Email, template, params); err != nil {
		logger.Warn("gym email not queued", "gym_id", g.ID, "template", template, "error", err)
	}
}
