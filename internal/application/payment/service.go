package payment

import (
	"context"
	"errors"
	"fmt"

	domgw "github.com/Karthik36929/oms-v6/internal/domain/gateway"
	domorder "github.com/Karthik36929/oms-v6/internal/domain/order"
	domain "github.com/Karthik36929/oms-v6/internal/domain/payment"
	"github.com/Karthik36929/oms-v6/internal/domain/storage"
	"github.com/Karthik36929/oms-v6/internal/pkg/logging"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("oms/application/payment")

const defaultProvider = "EXTERNAL_SIM"

// Service owns the payment lifecycle: authorize -> capture -> refund, with
// cancellation reachable only through the order workflow's cascade. Gateway
// calls happen outside the transaction scope; state is revalidated inside it
// before any mutation, so concurrent transitions on the same payment resolve
// to one winner.
type Service struct {
	payments domain.Repository
	orders   domorder.Repository
	advancer OrderAdvancer
	gw       domgw.Gateway
	tx       storage.TxManager
}

func NewService(payments domain.Repository, orders domorder.Repository, advancer OrderAdvancer, gw domgw.Gateway, tx storage.TxManager) *Service {
	return &Service{payments: payments, orders: orders, advancer: advancer, gw: gw, tx: tx}
}

type CreateInput struct {
	OrderID  int64
	Amount   decimal.Decimal
	Currency string
}

// Create authorizes a payment against an order. A non-positive amount falls
// back to the order's recorded amount. The authorization reference is issued
// locally; provider trouble only becomes observable on capture/refund.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Payment, error) {
	if input.OrderID <= 0 {
		return nil, fmt.Errorf("%w: orderId is required", domain.ErrValidation)
	}

	ctx, span := tracer.Start(ctx, "payment.create",
		trace.WithAttributes(attribute.Int64("payment.order_id", input.OrderID)),
	)
	defer span.End()
	logger := logging.FromContext(ctx).With(zap.String("component", "payment_service"))

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("%w: id %d", domorder.ErrNotFound, input.OrderID))
	}
	if order.Cancelled() {
		return nil, spanErr(span, fmt.Errorf("%w: order %d is cancelled", domain.ErrInvalidState, order.ID))
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	amount := input.Amount
	if !amount.IsPositive() {
		amount = order.Amount
	}

	ref, err := s.gw.Authorize(ctx, order.ID, amount, currency)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("%w: authorize order %d: %v", domgw.ErrUnavailable, order.ID, err))
	}

	entity := domain.New(order.ID, amount, currency, defaultProvider, ref)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The order may have been cancelled between the status check and
		// the authorization call.
		o, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("%w: id %d", domorder.ErrNotFound, order.ID)
		}
		if o.Cancelled() {
			return fmt.Errorf("%w: order %d is cancelled", domain.ErrInvalidState, o.ID)
		}
		return s.payments.Create(ctx, entity)
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	span.SetAttributes(attribute.Int64("payment.id", entity.ID))
	logger.Info("payment_authorized",
		zap.Int64("payment_id", entity.ID),
		zap.Int64("order_id", entity.OrderID),
		zap.String("amount", entity.Amount.String()),
		zap.String("external_reference", entity.ExternalReference),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

// Capture converts an authorized payment into a charge. A gateway rejection
// or timeout leaves the payment AUTHORIZED and the order untouched. On
// success the owning order is advanced to PAID through the order workflow,
// in the same transaction as the payment transition.
func (s *Service) Capture(ctx context.Context, id int64) (*domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "payment.capture",
		trace.WithAttributes(attribute.Int64("payment.id", id)),
	)
	defer span.End()
	logger := logging.FromContext(ctx).With(zap.String("component", "payment_service"))

	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("%w: id %d", domain.ErrNotFound, id))
	}
	if p.Status != domain.StatusAuthorized {
		return nil, spanErr(span, fmt.Errorf("%w: payment %d is %s, expected %s",
			domain.ErrInvalidState, p.ID, p.Status, domain.StatusAuthorized))
	}

	ok, gwErr := s.gw.Capture(ctx, p.ExternalReference)
	if gwErr != nil || !ok {
		logger.Warn("payment_capture_rejected",
			zap.Int64("payment_id", p.ID),
			zap.Error(gwErr),
		)
		return nil, spanErr(span, fmt.Errorf("%w: capture payment %d", domgw.ErrUnavailable, p.ID))
	}

	var captured *domain.Payment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Revalidate under the transaction scope: of two concurrent
		// captures, the loser fails here with an invalid-state error.
		cur, err := s.payments.FindByID(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, p.ID)
		}
		if err := cur.Capture(); err != nil {
			return err
		}
		if err := s.payments.Update(ctx, cur); err != nil {
			return err
		}
		if err := s.advancer.MarkPaid(ctx, cur.OrderID); err != nil {
			return err
		}
		captured = cur
		return nil
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	logger.Info("payment_captured",
		zap.Int64("payment_id", captured.ID),
		zap.Int64("order_id", captured.OrderID),
	)
	return captured, nil
}

type RefundResult struct {
	Payment *domain.Payment
	// Amount is the refunded amount after the fallback to the payment's
	// original amount.
	Amount decimal.Decimal
}

// Refund reverses a captured payment. A gateway rejection or timeout leaves
// the payment CAPTURED. Refunds never alter order status or inventory.
func (s *Service) Refund(ctx context.Context, id int64, amount decimal.Decimal) (*RefundResult, error) {
	ctx, span := tracer.Start(ctx, "payment.refund",
		trace.WithAttributes(attribute.Int64("payment.id", id)),
	)
	defer span.End()
	logger := logging.FromContext(ctx).With(zap.String("component", "payment_service"))

	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("%w: id %d", domain.ErrNotFound, id))
	}
	if p.Status != domain.StatusCaptured {
		return nil, spanErr(span, fmt.Errorf("%w: payment %d is %s, expected %s",
			domain.ErrInvalidState, p.ID, p.Status, domain.StatusCaptured))
	}

	refundAmount := amount
	if !refundAmount.IsPositive() {
		refundAmount = p.Amount
	}

	ok, gwErr := s.gw.Refund(ctx, p.ExternalReference, refundAmount)
	if gwErr != nil || !ok {
		logger.Warn("payment_refund_rejected",
			zap.Int64("payment_id", p.ID),
			zap.Error(gwErr),
		)
		return nil, spanErr(span, fmt.Errorf("%w: refund payment %d", domgw.ErrUnavailable, p.ID))
	}

	var refunded *domain.Payment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cur, err := s.payments.FindByID(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("%w: id %d", domain.ErrNotFound, p.ID)
		}
		if err := cur.Refund(); err != nil {
			return err
		}
		if err := s.payments.Update(ctx, cur); err != nil {
			return err
		}
		refunded = cur
		return nil
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	logger.Info("payment_refunded",
		zap.Int64("payment_id", refunded.ID),
		zap.String("amount", refundAmount.String()),
	)
	return &RefundResult{Payment: refunded, Amount: refundAmount}, nil
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
