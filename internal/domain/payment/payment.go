package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("payment: not found")
	ErrValidation   = errors.New("payment: validation failed")
	ErrInvalidState = errors.New("payment: invalid state")
)

type Status string

const (
	StatusAuthorized Status = "AUTHORIZED"
	StatusCaptured   Status = "CAPTURED"
	StatusRefunded   Status = "REFUNDED"
	StatusCancelled  Status = "CANCELLED"
)

// Payment records one authorization attempt against an order. An order may
// accumulate several payments over time; read paths order them newest-first.
type Payment struct {
	ID                int64
	OrderID           int64
	Amount            decimal.Decimal
	Currency          string
	Provider          string
	ExternalReference string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func New(orderID int64, amount decimal.Decimal, currency, provider, externalReference string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		OrderID:           orderID,
		Amount:            amount,
		Currency:          currency,
		Provider:          provider,
		ExternalReference: externalReference,
		Status:            StatusAuthorized,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Capture transitions AUTHORIZED -> CAPTURED.
func (p *Payment) Capture() error {
	if p.Status != StatusAuthorized {
		return fmt.Errorf("%w: payment %d is %s, expected %s",
			ErrInvalidState, p.ID, p.Status, StatusAuthorized)
	}
	p.Status = StatusCaptured
	p.touch()
	return nil
}

// Refund transitions CAPTURED -> REFUNDED.
func (p *Payment) Refund() error {
	if p.Status != StatusCaptured {
		return fmt.Errorf("%w: payment %d is %s, expected %s",
			ErrInvalidState, p.ID, p.Status, StatusCaptured)
	}
	p.Status = StatusRefunded
	p.touch()
	return nil
}

// CancelIfPending cancels a payment that has not been captured or refunded.
// It reports whether the payment was mutated, so cancellation cascades can
// leave settled payments untouched.
func (p *Payment) CancelIfPending() bool {
	if p.Status == StatusCaptured || p.Status == StatusRefunded {
		return false
	}
	p.Status = StatusCancelled
	p.touch()
	return true
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now().UTC()
}
