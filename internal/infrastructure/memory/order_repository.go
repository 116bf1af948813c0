package memory

import (
	"context"
	"sort"
	"strings"

	domain "github.com/Karthik36929/oms-v6/internal/domain/order"
)

type OrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

var _ domain.Repository = (*OrderRepository)(nil)

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	o.ID = r.store.nextOrderID
	r.store.nextOrderID++
	r.store.orders[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	o, ok := r.store.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, exists := r.store.orders[o.ID]; !exists {
		return domain.ErrNotFound
	}
	r.store.orders[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	orders := make([]*domain.Order, 0, len(r.store.orders))
	for _, o := range r.store.orders {
		if f.Status != "" && !strings.EqualFold(string(o.Status), string(f.Status)) {
			continue
		}
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !o.CreatedAt.Before(f.To) {
			continue
		}
		orders = append(orders, o.Clone())
	}
	// Newest first; ids break ties for orders created in the same instant.
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
