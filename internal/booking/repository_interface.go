package booking

import "context"

type Repository interface {
	// Create inserts a scheduled booking unless the customer already holds a
	// non-cancelled booking on that date touching [From, To].
	Create(ctx context.Context, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	GetDetails(ctx context.Context, id int) (*Details, error)
	ListByUser(ctx context.Context, userID int) ([]Details, error)
	Cancel(ctx context.Context, id int) error
	// Rate stores rating and folds it into the gym aggregate in one transaction.
	Rate(ctx context.Context, b *Booking, rating int) error
}
