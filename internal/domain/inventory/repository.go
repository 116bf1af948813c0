package inventory

import "context"

type Repository interface {
	Create(ctx context.Context, item *Item) error
	FindBySKU(ctx context.Context, sku string) (*Item, error)
	Update(ctx context.Context, item *Item) error
	// List returns all items ordered by SKU ascending.
	List(ctx context.Context) ([]*Item, error)
}
