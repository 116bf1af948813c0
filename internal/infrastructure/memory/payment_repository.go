package memory

import (
	"context"
	"sort"

	domain "github.com/Karthik36929/oms-v6/internal/domain/payment"
)

type PaymentRepository struct {
	store *Store
}

func NewPaymentRepository(store *Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

var _ domain.Repository = (*PaymentRepository)(nil)

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	p.ID = r.store.nextPaymentID
	r.store.nextPaymentID++
	r.store.payments[p.ID] = p.Clone()
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	p, ok := r.store.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	payments := make([]*domain.Payment, 0)
	for _, p := range r.store.payments {
		if p.OrderID == orderID {
			payments = append(payments, p.Clone())
		}
	}
	sortNewestFirst(payments)
	return payments, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, exists := r.store.payments[p.ID]; !exists {
		return domain.ErrNotFound
	}
	r.store.payments[p.ID] = p.Clone()
	return nil
}

func (r *PaymentRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Payment, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	payments := make([]*domain.Payment, 0, len(r.store.payments))
	for _, p := range r.store.payments {
		if !f.From.IsZero() && p.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !p.CreatedAt.Before(f.To) {
			continue
		}
		payments = append(payments, p.Clone())
	}
	sortNewestFirst(payments)
	return payments, nil
}

func sortNewestFirst(payments []*domain.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].ID > payments[j].ID
		}
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
}
