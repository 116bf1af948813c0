package memory

import (
	"context"
	"sort"

	domain "github.com/Karthik36929/oms-v6/internal/domain/inventory"
)

type InventoryRepository struct {
	store *Store
}

func NewInventoryRepository(store *Store) *InventoryRepository {
	return &InventoryRepository{store: store}
}

var _ domain.Repository = (*InventoryRepository)(nil)

func (r *InventoryRepository) Create(ctx context.Context, item *domain.Item) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, exists := r.store.items[item.SKU]; exists {
		return domain.ErrAlreadyExists
	}
	r.store.items[item.SKU] = item.Clone()
	return nil
}

func (r *InventoryRepository) FindBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	item, ok := r.store.items[sku]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *InventoryRepository) Update(ctx context.Context, item *domain.Item) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)

	if _, exists := r.store.items[item.SKU]; !exists {
		return domain.ErrNotFound
	}
	r.store.items[item.SKU] = item.Clone()
	return nil
}

func (r *InventoryRepository) List(ctx context.Context) ([]*domain.Item, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)

	items := make([]*domain.Item, 0, len(r.store.items))
	for _, item := range r.store.items {
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SKU < items[j].SKU
	})
	return items, nil
}
