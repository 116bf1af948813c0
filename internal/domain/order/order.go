package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound   = errors.New("order: not found")
	ErrValidation = errors.New("order: validation failed")
)

// Status is deliberately an open string type: the force-set endpoint accepts
// any value, so the constants below name the transitions the workflows drive,
// not a closed state machine.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

type Order struct {
	ID         int64
	CustomerID string
	SKU        string
	Quantity   int
	Amount     decimal.Decimal
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(customerID, sku string, quantity int, amount decimal.Decimal) (*Order, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customerId is required", ErrValidation)
	}
	if strings.TrimSpace(sku) == "" {
		return nil, fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must be zero or greater", ErrValidation)
	}
	now := time.Now().UTC()
	return &Order{
		CustomerID: customerID,
		SKU:        sku,
		Quantity:   quantity,
		Amount:     amount,
		Status:     StatusCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// SetStatus overwrites the status unconditionally. Transition validity is
// not checked here; cancellation and payment capture go through the order
// workflow, which owns the checks that matter.
func (o *Order) SetStatus(status Status) {
	o.Status = status
	o.touch()
}

func (o *Order) Cancelled() bool {
	return strings.EqualFold(string(o.Status), string(StatusCancelled))
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
