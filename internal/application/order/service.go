package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domgw "github.com/Karthik36929/oms-v6/internal/domain/gateway"
	dominv "github.com/Karthik36929/oms-v6/internal/domain/inventory"
	domain "github.com/Karthik36929/oms-v6/internal/domain/order"
	dompay "github.com/Karthik36929/oms-v6/internal/domain/payment"
	"github.com/Karthik36929/oms-v6/internal/domain/storage"
	"github.com/Karthik36929/oms-v6/internal/pkg/logging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("oms/application/order")

// Service owns the order lifecycle. It orchestrates the inventory ledger
// (reserve on create, release on cancel) and cascades cancellation into the
// order's pending payments.
type Service struct {
	orders   domain.Repository
	payments dompay.Repository
	ledger   InventoryLedger
	gw       domgw.Gateway
	tx       storage.TxManager
}

func NewService(orders domain.Repository, payments dompay.Repository, ledger InventoryLedger, gw domgw.Gateway, tx storage.TxManager) *Service {
	return &Service{orders: orders, payments: payments, ledger: ledger, gw: gw, tx: tx}
}

type CreateOrderInput struct {
	CustomerID string
	SKU        string
	Quantity   int
	Amount     decimal.Decimal
}

type CreateOrderResult struct {
	Order            *domain.Order
	ReservedQuantity int
	// Quote and QuoteError carry the best-effort shipping quote outcome.
	// A failed quote never rolls back the reservation or the order.
	Quote      *domgw.Quote
	QuoteError string
}

func (s *Service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	ctx, span := tracer.Start(ctx, "order.create",
		trace.WithAttributes(
			attribute.String("order.customer_id", input.CustomerID),
			attribute.String("order.sku", input.SKU),
			attribute.Int("order.quantity", input.Quantity),
		),
	)
	defer span.End()
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	entity, err := domain.New(input.CustomerID, input.SKU, input.Quantity, input.Amount)
	if err != nil {
		return nil, spanErr(span, err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.Reserve(ctx, entity.SKU, entity.Quantity); err != nil {
			return err
		}
		return s.orders.Create(ctx, entity)
	})
	if err != nil {
		logger.Warn("order_create_failed",
			zap.String("sku", input.SKU),
			zap.Error(err),
		)
		return nil, spanErr(span, err)
	}

	result := &CreateOrderResult{Order: entity, ReservedQuantity: entity.Quantity}

	quote, quoteErr := s.gw.Quote(ctx, entity.CustomerID, entity.SKU, entity.Quantity)
	if quoteErr != nil {
		result.QuoteError = quoteErr.Error()
		logger.Warn("shipping_quote_failed",
			zap.Int64("order_id", entity.ID),
			zap.Error(quoteErr),
		)
	} else {
		result.Quote = quote
	}

	span.SetAttributes(attribute.Int64("order.id", entity.ID))
	logger.Info("order_created",
		zap.Int64("order_id", entity.ID),
		zap.String("sku", entity.SKU),
		zap.Int("quantity", entity.Quantity),
		zap.String("status", string(entity.Status)),
	)
	return result, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return o, nil
}

// List returns orders newest-created-first, filtered by any non-empty
// combination of status and customer id.
func (s *Service) List(ctx context.Context, status, customerID string) ([]*domain.Order, error) {
	return s.orders.List(ctx, domain.Filter{
		Status:     domain.Status(status),
		CustomerID: customerID,
	})
}

type StatusChange struct {
	Order     *domain.Order
	OldStatus domain.Status
}

// UpdateStatus force-sets the order status to any non-empty string. There is
// no transition check, including out of terminal states; this is the
// operational escape hatch.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*StatusChange, error) {
	if strings.TrimSpace(status) == "" {
		return nil, fmt.Errorf("%w: status is required", domain.ErrValidation)
	}

	ctx, span := tracer.Start(ctx, "order.update_status",
		trace.WithAttributes(
			attribute.Int64("order.id", id),
			attribute.String("order.new_status", status),
		),
	)
	defer span.End()

	var change *StatusChange
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		old := o.Status
		o.SetStatus(domain.Status(status))
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		change = &StatusChange{Order: o, OldStatus: old}
		return nil
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	logging.FromContext(ctx).Info("order_status_updated",
		zap.Int64("order_id", id),
		zap.String("old_status", string(change.OldStatus)),
		zap.String("new_status", status),
	)
	return change, nil
}

type CancelResult struct {
	Order             *domain.Order
	AlreadyCancelled  bool
	ReleasedQuantity  int
	CancelledPayments []int64
}

// Cancel releases the order's reservation, cancels its pending payments and
// marks the order CANCELLED, all within one transaction scope. Cancelling an
// already-cancelled order is a no-op success. A PAID order's captured
// payments stay captured; refunds are requested independently.
func (s *Service) Cancel(ctx context.Context, id int64) (*CancelResult, error) {
	ctx, span := tracer.Start(ctx, "order.cancel",
		trace.WithAttributes(attribute.Int64("order.id", id)),
	)
	defer span.End()
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	var result *CancelResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		if o.Cancelled() {
			result = &CancelResult{Order: o, AlreadyCancelled: true}
			return nil
		}

		res := &CancelResult{}

		// The release is best effort: a SKU missing from the ledger must
		// not block the cancellation.
		if _, err := s.ledger.Release(ctx, o.SKU, o.Quantity); err != nil {
			if !errors.Is(err, dominv.ErrNotFound) {
				return err
			}
			logger.Warn("inventory_release_skipped",
				zap.Int64("order_id", o.ID),
				zap.String("sku", o.SKU),
			)
		} else {
			res.ReleasedQuantity = o.Quantity
		}

		payments, err := s.payments.FindByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		for _, p := range payments {
			if p.CancelIfPending() {
				if err := s.payments.Update(ctx, p); err != nil {
					return err
				}
				res.CancelledPayments = append(res.CancelledPayments, p.ID)
			}
		}

		o.SetStatus(domain.StatusCancelled)
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		res.Order = o
		result = res
		return nil
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	if result.AlreadyCancelled {
		logger.Info("order_already_cancelled", zap.Int64("order_id", id))
	} else {
		logger.Info("order_cancelled",
			zap.Int64("order_id", id),
			zap.Int("released_quantity", result.ReleasedQuantity),
			zap.Int64s("cancelled_payments", result.CancelledPayments),
		)
	}
	return result, nil
}

// MarkPaid advances an order to PAID after a successful capture. An order
// cancelled in the meantime is left untouched. This is the single sanctioned
// cross-component write into order status.
func (s *Service) MarkPaid(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		if o.Cancelled() {
			return nil
		}
		o.SetStatus(domain.StatusPaid)
		return s.orders.Update(ctx, o)
	})
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
