package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("inventory: item not found")
	ErrAlreadyExists     = errors.New("inventory: item already exists")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrValidation        = errors.New("inventory: validation failed")
)

// Item is the per-SKU stock ledger entry. The available and reserved
// counters never go negative, and reserve/release move units between them
// so their sum is conserved across a reserve/release pair.
type Item struct {
	SKU               string
	Name              string
	QuantityAvailable int
	QuantityReserved  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewItem(sku, name string, initialQuantity int) (*Item, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if initialQuantity < 0 {
		initialQuantity = 0
	}
	now := time.Now().UTC()
	return &Item{
		SKU:               sku,
		Name:              name,
		QuantityAvailable: initialQuantity,
		QuantityReserved:  0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Reserve moves quantity units from available to reserved.
func (i *Item) Reserve(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	if i.QuantityAvailable < quantity {
		return fmt.Errorf("%w: sku %s has %d available, requested %d",
			ErrInsufficientStock, i.SKU, i.QuantityAvailable, quantity)
	}
	i.QuantityAvailable -= quantity
	i.QuantityReserved += quantity
	i.touch()
	return nil
}

// Release returns quantity units from reserved to available. Reserved is
// clamped at zero so a release larger than the recorded reservation cannot
// drive it negative.
func (i *Item) Release(quantity int) {
	if quantity <= 0 {
		return
	}
	i.QuantityReserved -= quantity
	if i.QuantityReserved < 0 {
		i.QuantityReserved = 0
	}
	i.QuantityAvailable += quantity
	i.touch()
}

// Adjust applies a manual correction to the available quantity, independent
// of the reservation flow.
func (i *Item) Adjust(delta int) error {
	next := i.QuantityAvailable + delta
	if next < 0 {
		return fmt.Errorf("%w: sku %s has %d available, delta %d",
			ErrInsufficientStock, i.SKU, i.QuantityAvailable, delta)
	}
	i.QuantityAvailable = next
	i.touch()
	return nil
}

func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

func (i *Item) touch() {
	i.UpdatedAt = time.Now().UTC()
}
