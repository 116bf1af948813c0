package order

import (
	"context"
	"fmt"
	"testing"

	appinventory "github.com/Karthik36929/oms-v6/internal/application/inventory"
	domgw "github.com/Karthik36929/oms-v6/internal/domain/gateway"
	dominv "github.com/Karthik36929/oms-v6/internal/domain/inventory"
	domain "github.com/Karthik36929/oms-v6/internal/domain/order"
	dompay "github.com/Karthik36929/oms-v6/internal/domain/payment"
	"github.com/Karthik36929/oms-v6/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	quoteErr error
}

func (g *stubGateway) Quote(ctx context.Context, customerID, sku string, quantity int) (*domgw.Quote, error) {
	if g.quoteErr != nil {
		return nil, g.quoteErr
	}
	return &domgw.Quote{Provider: "stub", Currency: "USD", Amount: decimal.New(599, -2)}, nil
}

func (g *stubGateway) Authorize(ctx context.Context, orderID int64, amount decimal.Decimal, currency string) (string, error) {
	return fmt.Sprintf("AUTH-%d-1", orderID), nil
}

func (g *stubGateway) Capture(ctx context.Context, externalReference string) (bool, error) {
	return true, nil
}

func (g *stubGateway) Refund(ctx context.Context, externalReference string, amount decimal.Decimal) (bool, error) {
	return true, nil
}

type fixture struct {
	store     *memory.Store
	inventory *appinventory.Service
	payments  *memory.PaymentRepository
	orders    *Service
	gw        *stubGateway
}

func newFixture() *fixture {
	store := memory.NewStore()
	inventoryRepo := memory.NewInventoryRepository(store)
	orderRepo := memory.NewOrderRepository(store)
	paymentRepo := memory.NewPaymentRepository(store)
	gw := &stubGateway{}

	inventoryService := appinventory.NewService(inventoryRepo, store)
	return &fixture{
		store:     store,
		inventory: inventoryService,
		payments:  paymentRepo,
		orders:    NewService(orderRepo, paymentRepo, inventoryService, gw, store),
		gw:        gw,
	}
}

func (f *fixture) provision(t *testing.T, sku string, quantity int) {
	t.Helper()
	_, err := f.inventory.Provision(context.Background(), sku, sku, quantity)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, sku string) (available, reserved int) {
	t.Helper()
	item, err := f.inventory.Get(context.Background(), sku)
	require.NoError(t, err)
	return item.QuantityAvailable, item.QuantityReserved
}

func TestCreateReservesStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)

	result, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   3,
		Amount:     decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, result.Order.Status)
	assert.Equal(t, 3, result.ReservedQuantity)
	require.NotNil(t, result.Quote)
	assert.Equal(t, "stub", result.Quote.Provider)
	assert.Empty(t, result.QuoteError)

	available, reserved := f.stock(t, "SKU-1")
	assert.Equal(t, 7, available)
	assert.Equal(t, 3, reserved)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)

	_, err := f.orders.Create(ctx, CreateOrderInput{
		SKU:      "SKU-1",
		Quantity: 1,
		Amount:   decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   0,
		Amount:     decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	available, reserved := f.stock(t, "SKU-1")
	assert.Equal(t, 10, available)
	assert.Equal(t, 0, reserved)
}

func TestCreateUnknownSKU(t *testing.T) {
	f := newFixture()

	_, err := f.orders.Create(context.Background(), CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-MISSING",
		Quantity:   1,
		Amount:     decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, dominv.ErrNotFound)
}

func TestCreateInsufficientStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 2)

	_, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   3,
		Amount:     decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)

	// Nothing was persisted.
	orders, err := f.orders.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateQuoteFailureIsBestEffort(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)
	f.gw.quoteErr = fmt.Errorf("%w: boom", domgw.ErrUnavailable)

	result, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   2,
		Amount:     decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Nil(t, result.Quote)
	assert.NotEmpty(t, result.QuoteError)

	// The order and the reservation survive a failed quote.
	available, reserved := f.stock(t, "SKU-1")
	assert.Equal(t, 8, available)
	assert.Equal(t, 2, reserved)
}

func TestCancelReleasesStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)

	created, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   3,
		Amount:     decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	result, err := f.orders.Cancel(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCancelled)
	assert.Equal(t, domain.StatusCancelled, result.Order.Status)
	assert.Equal(t, 3, result.ReleasedQuantity)

	available, reserved := f.stock(t, "SKU-1")
	assert.Equal(t, 10, available)
	assert.Equal(t, 0, reserved)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)

	created, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   3,
		Amount:     decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = f.orders.Cancel(ctx, created.Order.ID)
	require.NoError(t, err)

	again, err := f.orders.Cancel(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCancelled)
	assert.Equal(t, 0, again.ReleasedQuantity)

	// The second cancel must not double-release.
	available, reserved := f.stock(t, "SKU-1")
	assert.Equal(t, 10, available)
	assert.Equal(t, 0, reserved)
}

func TestCancelCascadesPendingPayments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)

	created, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   1,
		Amount:     decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	pending := dompay.New(created.Order.ID, decimal.NewFromInt(100), "USD", "EXTERNAL_SIM", "AUTH-1")
	require.NoError(t, f.payments.Create(ctx, pending))

	settled := dompay.New(created.Order.ID, decimal.NewFromInt(100), "USD", "EXTERNAL_SIM", "AUTH-2")
	require.NoError(t, settled.Capture())
	require.NoError(t, f.payments.Create(ctx, settled))

	result, err := f.orders.Cancel(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{pending.ID}, result.CancelledPayments)

	got, err := f.payments.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusCancelled, got.Status)

	got, err = f.payments.FindByID(ctx, settled.ID)
	require.NoError(t, err)
	assert.Equal(t, dompay.StatusCaptured, got.Status)
}

func TestCancelToleratesMissingLedgerEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// An order whose SKU never made it into the ledger.
	o, err := domain.New("cust-1", "SKU-GHOST", 2, decimal.NewFromInt(10))
	require.NoError(t, err)
	orderRepo := memory.NewOrderRepository(f.store)
	require.NoError(t, orderRepo.Create(ctx, o))

	result, err := f.orders.Cancel(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, result.Order.Status)
	assert.Equal(t, 0, result.ReleasedQuantity)
}

func TestCancelUnknownOrder(t *testing.T) {
	f := newFixture()

	_, err := f.orders.Cancel(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)

	created, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   1,
		Amount:     decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	// Any free-text status is accepted.
	change, err := f.orders.UpdateStatus(ctx, created.Order.ID, "SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, change.OldStatus)
	assert.Equal(t, domain.Status("SHIPPED"), change.Order.Status)

	_, err = f.orders.UpdateStatus(ctx, created.Order.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.orders.UpdateStatus(ctx, 42, "SHIPPED")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)

	first, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   1,
		Amount:     decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	second, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-2",
		SKU:        "SKU-1",
		Quantity:   1,
		Amount:     decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	all, err := f.orders.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first.
	assert.Equal(t, second.Order.ID, all[0].ID)
	assert.Equal(t, first.Order.ID, all[1].ID)

	byCustomer, err := f.orders.List(ctx, "", "cust-2")
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, second.Order.ID, byCustomer[0].ID)

	_, err = f.orders.Cancel(ctx, first.Order.ID)
	require.NoError(t, err)

	// Status filtering is case-insensitive.
	cancelled, err := f.orders.List(ctx, "cancelled", "")
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.Order.ID, cancelled[0].ID)
}

func TestMarkPaidSkipsCancelledOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.provision(t, "SKU-1", 10)

	created, err := f.orders.Create(ctx, CreateOrderInput{
		CustomerID: "cust-1",
		SKU:        "SKU-1",
		Quantity:   1,
		Amount:     decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = f.orders.Cancel(ctx, created.Order.ID)
	require.NoError(t, err)

	require.NoError(t, f.orders.MarkPaid(ctx, created.Order.ID))

	got, err := f.orders.Get(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
}
