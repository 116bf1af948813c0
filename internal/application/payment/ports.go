package payment

import "context"

// OrderAdvancer is the order workflow's mutation path for the one sanctioned
// cross-component write: advancing an order to PAID after a capture.
type OrderAdvancer interface {
	MarkPaid(ctx context.Context, orderID int64) error
}
