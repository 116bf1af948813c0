package payment

import (
	"context"
	"time"
)

// Filter narrows List by creation time, half-open: [From, To).
type Filter struct {
	From time.Time
	To   time.Time
}

type Repository interface {
	// Create persists a new payment and assigns its numeric id.
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id int64) (*Payment, error)
	// FindByOrderID returns the order's payments newest-created-first.
	FindByOrderID(ctx context.Context, orderID int64) ([]*Payment, error)
	Update(ctx context.Context, p *Payment) error
	// List returns matching payments newest-created-first.
	List(ctx context.Context, f Filter) ([]*Payment, error)
}
