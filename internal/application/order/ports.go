package order

import (
	"context"

	dominv "github.com/Karthik36929/oms-v6/internal/domain/inventory"
)

// InventoryLedger is the slice of the inventory service the order workflow
// drives: reserve on create, release on cancel.
type InventoryLedger interface {
	Reserve(ctx context.Context, sku string, quantity int) (*dominv.Item, error)
	Release(ctx context.Context, sku string, quantity int) (*dominv.Item, error)
}
