package memory

import (
	"context"
	"sync"

	dominv "github.com/Karthik36929/oms-v6/internal/domain/inventory"
	domorder "github.com/Karthik36929/oms-v6/internal/domain/order"
	dompay "github.com/Karthik36929/oms-v6/internal/domain/payment"
	"github.com/Karthik36929/oms-v6/internal/domain/storage"
)

// Store is the in-memory backing for all three entity repositories plus the
// transaction scope they share. A transaction takes the store-wide write
// lock and marks the context so repository calls inside it skip their own
// locking; that single lock is what serializes concurrent workflows on the
// same SKU, order or payment.
type Store struct {
	mu            sync.RWMutex
	nextOrderID   int64
	nextPaymentID int64
	items         map[string]*dominv.Item
	orders        map[int64]*domorder.Order
	payments      map[int64]*dompay.Payment
}

func NewStore() *Store {
	return &Store{
		nextOrderID:   1,
		nextPaymentID: 1,
		items:         make(map[string]*dominv.Item),
		orders:        make(map[int64]*domorder.Order),
		payments:      make(map[int64]*dompay.Payment),
	}
}

var _ storage.TxManager = (*Store)(nil)

type txKey struct{}

// WithinTx runs fn under the store-wide write lock. Nested calls join the
// enclosing scope through the context marker, so workflow operations can
// compose (order cancel drives the ledger release inside its own scope).
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTx(ctx context.Context) bool {
	v, ok := ctx.Value(txKey{}).(bool)
	return ok && v
}

func (s *Store) rlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.RLock()
	}
}

func (s *Store) runlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.RUnlock()
	}
}

func (s *Store) wlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Unlock()
	}
}
