package extension

import "context"

type Repository interface {
	GetTarget(ctx context.Context, bookingID int) (*Target, error)
	GetByID(ctx context.Context, id int) (*Extension, error)
	// Create inserts a pending extension and links it to the booking while
	// holding the booking row lock.
	Create(ctx context.Context, t *Target, durationMinutes int) (*Extension, error)
	// Approve re-checks the booking is still open, then charges the extension
	// and marks it approved in one transaction.
	Approve(ctx context.Context, e *Extension) (*Approval, error)
	Decline(ctx context.Context, e *Extension) error
	ListOwnerPending(ctx context.Context, ownerID int) ([]Pending, error)
}
