package gym

import (
	"context"
	"time"

	"github.com/pesto-students/backend-repo-titans/internal/schedule"
)

type Repository interface {
	Create(ctx context.Context, g *Gym) (*Gym, error)
	GetByID(ctx context.Context, id int) (*Gym, error)
	GetByOwner(ctx context.Context, ownerID int) (*Gym, error)
	OwnerHasGym(ctx context.Context, ownerID int) (bool, error)
	Update(ctx context.Context, g *Gym) (*Gym, error)
	UpdateSchedule(ctx context.Context, gymID int, s schedule.Schedule) error
	SetStatus(ctx context.Context, gymID int, status Status) error
	ListPending(ctx context.Context, search string, limit, offset int) ([]PendingGym, int, error)
	Search(ctx context.Context, q SearchQuery, limit, offset int) ([]Gym, int, error)
	UpcomingBookings(ctx context.Context, gymID int, from time.Time) ([]UpcomingBooking, error)
	PeriodStats(ctx context.Context, gymID int, from, to time.Time) (*PeriodStats, error)
}
