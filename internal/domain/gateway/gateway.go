package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnavailable reports a failed or timed-out call to the external provider.
var ErrUnavailable = errors.New("gateway: external call failed")

type Quote struct {
	Provider string
	Currency string
	Amount   decimal.Decimal
}

// Gateway is the outbound port to the third-party payment/shipping provider.
// Quote is best effort and its errors are tolerated by callers; Authorize
// always yields a reference; Capture and Refund report provider acceptance.
type Gateway interface {
	Quote(ctx context.Context, customerID, sku string, quantity int) (*Quote, error)
	Authorize(ctx context.Context, orderID int64, amount decimal.Decimal, currency string) (string, error)
	Capture(ctx context.Context, externalReference string) (bool, error)
	Refund(ctx context.Context, externalReference string, amount decimal.Decimal) (bool, error)
}
