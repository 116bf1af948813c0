package order

import (
	"context"
	"time"
)

// Filter narrows List results. Zero values mean "no constraint"; the time
// window is half-open: [From, To).
type Filter struct {
	Status     Status
	CustomerID string
	From       time.Time
	To         time.Time
}

type Repository interface {
	// Create persists a new order and assigns its numeric id.
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	Update(ctx context.Context, o *Order) error
	// List returns matching orders newest-created-first.
	List(ctx context.Context, f Filter) ([]*Order, error)
}
