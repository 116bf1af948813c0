package inventory

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Karthik36929/oms-v6/internal/domain/inventory"
	"github.com/Karthik36929/oms-v6/internal/domain/storage"
	"github.com/Karthik36929/oms-v6/internal/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("oms/application/inventory")

// Service is the inventory ledger. It owns the per-SKU stock counters and is
// the only writer of them; the order workflow drives Reserve/Release through
// it rather than touching the repository directly.
type Service struct {
	repo domain.Repository
	tx   storage.TxManager
}

func NewService(repo domain.Repository, tx storage.TxManager) *Service {
	return &Service{repo: repo, tx: tx}
}

func (s *Service) Provision(ctx context.Context, sku, name string, initialQuantity int) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "inventory.provision",
		trace.WithAttributes(attribute.String("inventory.sku", sku)),
	)
	defer span.End()
	logger := logging.FromContext(ctx).With(zap.String("component", "inventory_service"))

	item, err := domain.NewItem(sku, name, initialQuantity)
	if err != nil {
		return nil, spanErr(span, err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, findErr := s.repo.FindBySKU(ctx, item.SKU)
		if findErr == nil {
			return fmt.Errorf("%w: sku %s", domain.ErrAlreadyExists, item.SKU)
		}
		if !errors.Is(findErr, domain.ErrNotFound) {
			return findErr
		}
		return s.repo.Create(ctx, item)
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	logger.Info("inventory_item_provisioned",
		zap.String("sku", item.SKU),
		zap.Int("quantity_available", item.QuantityAvailable),
	)
	return item, nil
}

func (s *Service) Get(ctx context.Context, sku string) (*domain.Item, error) {
	item, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: sku %s", domain.ErrNotFound, sku)
		}
		return nil, err
	}
	return item, nil
}

// Reserve atomically moves quantity units from available to reserved for the
// given SKU. The check and the move happen under the same transaction scope,
// so two concurrent reservations can never both win the last units.
func (s *Service) Reserve(ctx context.Context, sku string, quantity int) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "inventory.reserve",
		trace.WithAttributes(
			attribute.String("inventory.sku", sku),
			attribute.Int("inventory.quantity", quantity),
		),
	)
	defer span.End()

	item, err := s.mutate(ctx, sku, func(item *domain.Item) error {
		return item.Reserve(quantity)
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	logging.FromContext(ctx).Info("inventory_reserved",
		zap.String("sku", sku),
		zap.Int("quantity", quantity),
		zap.Int("quantity_available", item.QuantityAvailable),
		zap.Int("quantity_reserved", item.QuantityReserved),
	)
	return item, nil
}

// Release moves quantity units from reserved back to available.
func (s *Service) Release(ctx context.Context, sku string, quantity int) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "inventory.release",
		trace.WithAttributes(
			attribute.String("inventory.sku", sku),
			attribute.Int("inventory.quantity", quantity),
		),
	)
	defer span.End()

	item, err := s.mutate(ctx, sku, func(item *domain.Item) error {
		item.Release(quantity)
		return nil
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	logging.FromContext(ctx).Info("inventory_released",
		zap.String("sku", sku),
		zap.Int("quantity", quantity),
		zap.Int("quantity_available", item.QuantityAvailable),
		zap.Int("quantity_reserved", item.QuantityReserved),
	)
	return item, nil
}

// Adjust applies a manual stock correction to the available quantity.
func (s *Service) Adjust(ctx context.Context, sku string, delta int) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "inventory.adjust",
		trace.WithAttributes(
			attribute.String("inventory.sku", sku),
			attribute.Int("inventory.delta", delta),
		),
	)
	defer span.End()

	item, err := s.mutate(ctx, sku, func(item *domain.Item) error {
		return item.Adjust(delta)
	})
	if err != nil {
		return nil, spanErr(span, err)
	}

	logging.FromContext(ctx).Info("inventory_adjusted",
		zap.String("sku", sku),
		zap.Int("delta", delta),
		zap.Int("quantity_available", item.QuantityAvailable),
	)
	return item, nil
}

type ListResult struct {
	Items     []*domain.Item
	LowStock  []*domain.Item
	Threshold int
}

// List returns all items ordered by SKU ascending together with the subset
// at or below the low-stock threshold (clamped at zero).
func (s *Service) List(ctx context.Context, lowStockThreshold int) (*ListResult, error) {
	if lowStockThreshold < 0 {
		lowStockThreshold = 0
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	result := &ListResult{Items: items, Threshold: lowStockThreshold}
	for _, item := range items {
		if item.QuantityAvailable <= lowStockThreshold {
			result.LowStock = append(result.LowStock, item)
		}
	}
	return result, nil
}

func (s *Service) mutate(ctx context.Context, sku string, fn func(item *domain.Item) error) (*domain.Item, error) {
	var updated *domain.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.repo.FindBySKU(ctx, sku)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: sku %s", domain.ErrNotFound, sku)
			}
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
