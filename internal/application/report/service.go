package report

import (
	"context"
	"time"

	dominv "github.com/Karthik36929/oms-v6/internal/domain/inventory"
	domorder "github.com/Karthik36929/oms-v6/internal/domain/order"
	dompay "github.com/Karthik36929/oms-v6/internal/domain/payment"
	"github.com/shopspring/decimal"
)

const defaultWindowDays = 30

// Service is the read-side aggregation over orders, payments and inventory.
// It holds no invariants of its own.
type Service struct {
	orders    domorder.Repository
	payments  dompay.Repository
	inventory dominv.Repository
}

func NewService(orders domorder.Repository, payments dompay.Repository, inventory dominv.Repository) *Service {
	return &Service{orders: orders, payments: payments, inventory: inventory}
}

type SalesReport struct {
	From          time.Time
	To            time.Time
	OrderCount    int
	TotalQuantity int
	TotalAmount   decimal.Decimal
	QuantityBySKU map[string]int
	AmountBySKU   map[string]decimal.Decimal
}

// Sales aggregates orders created in the [from, to] date window. Dates are
// "2006-01-02" strings; unparseable or empty bounds fall back to the last
// 30 days and tomorrow respectively.
func (s *Service) Sales(ctx context.Context, from, to string) (*SalesReport, error) {
	fromAt, toAt := parseWindow(from, to)
	orders, err := s.orders.List(ctx, domorder.Filter{From: fromAt, To: toAt})
	if err != nil {
		return nil, err
	}

	r := &SalesReport{
		From:          fromAt,
		To:            toAt,
		OrderCount:    len(orders),
		TotalAmount:   decimal.Zero,
		QuantityBySKU: make(map[string]int),
		AmountBySKU:   make(map[string]decimal.Decimal),
	}
	for _, o := range orders {
		r.TotalQuantity += o.Quantity
		r.TotalAmount = r.TotalAmount.Add(o.Amount)
		r.QuantityBySKU[o.SKU] += o.Quantity
		prev, ok := r.AmountBySKU[o.SKU]
		if !ok {
			prev = decimal.Zero
		}
		r.AmountBySKU[o.SKU] = prev.Add(o.Amount)
	}
	return r, nil
}

type LowStockReport struct {
	Threshold int
	Items     []*dominv.Item
}

func (s *Service) LowStock(ctx context.Context, threshold int) (*LowStockReport, error) {
	if threshold < 0 {
		threshold = 0
	}
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, err
	}
	r := &LowStockReport{Threshold: threshold}
	for _, item := range items {
		if item.QuantityAvailable <= threshold {
			r.Items = append(r.Items, item)
		}
	}
	return r, nil
}

type PaymentSummary struct {
	From            time.Time
	To              time.Time
	PaymentCount    int
	CountByStatus   map[string]int
	TotalAuthorized decimal.Decimal
	TotalCaptured   decimal.Decimal
	TotalRefunded   decimal.Decimal
}

func (s *Service) PaymentSummary(ctx context.Context, from, to string) (*PaymentSummary, error) {
	fromAt, toAt := parseWindow(from, to)
	payments, err := s.payments.List(ctx, dompay.Filter{From: fromAt, To: toAt})
	if err != nil {
		return nil, err
	}

	r := &PaymentSummary{
		From:            fromAt,
		To:              toAt,
		PaymentCount:    len(payments),
		CountByStatus:   make(map[string]int),
		TotalAuthorized: decimal.Zero,
		TotalCaptured:   decimal.Zero,
		TotalRefunded:   decimal.Zero,
	}
	for _, p := range payments {
		r.CountByStatus[string(p.Status)]++
		switch p.Status {
		case dompay.StatusAuthorized:
			r.TotalAuthorized = r.TotalAuthorized.Add(p.Amount)
		case dompay.StatusCaptured:
			r.TotalCaptured = r.TotalCaptured.Add(p.Amount)
		case dompay.StatusRefunded:
			r.TotalRefunded = r.TotalRefunded.Add(p.Amount)
		}
	}
	return r, nil
}

func parseWindow(from, to string) (time.Time, time.Time) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	fromAt := today.AddDate(0, 0, -defaultWindowDays)
	if from != "" {
		if d, err := time.Parse("2006-01-02", from); err == nil {
			fromAt = d
		}
	}

	toAt := today.AddDate(0, 0, 1)
	if to != "" {
		if d, err := time.Parse("2006-01-02", to); err == nil {
			toAt = d.AddDate(0, 0, 1)
		}
	}
	return fromAt, toAt
}
