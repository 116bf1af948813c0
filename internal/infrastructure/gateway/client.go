package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/Karthik36929/oms-v6/internal/domain/gateway"
	"github.com/Karthik36929/oms-v6/internal/pkg/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://httpbin.org"
	DefaultTimeout = 2 * time.Second

	providerName = "httpbin"
)

// Client talks to the simulated third-party provider: every call is a JSON
// POST to the echo endpoint with a bounded timeout. Authorization references
// are issued locally, so Authorize never fails; Capture and Refund succeed
// iff the round-trip does, and a timeout counts as a rejection.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ domain.Gateway = (*Client)(nil)

func (c *Client) Quote(ctx context.Context, customerID, sku string, quantity int) (*domain.Quote, error) {
	err := c.post(ctx, map[string]any{
		"customerId":  customerID,
		"sku":         sku,
		"quantity":    quantity,
		"requestedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: shipping quote: %v", domain.ErrUnavailable, err)
	}
	return &domain.Quote{
		Provider: providerName,
		Currency: "USD",
		Amount:   decimal.New(599, -2),
	}, nil
}

func (c *Client) Authorize(ctx context.Context, orderID int64, amount decimal.Decimal, currency string) (string, error) {
	err := c.post(ctx, map[string]any{
		"orderId":     orderID,
		"amount":      amount.String(),
		"currency":    currency,
		"action":      "AUTHORIZE",
		"requestedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// The reference is issued locally either way; a failed echo only
		// shows up on the later capture/refund calls.
		logging.FromContext(ctx).Warn("gateway_authorize_echo_failed", zap.Error(err))
	}
	return fmt.Sprintf("AUTH-%d-%d", orderID, time.Now().UnixMilli()), nil
}

func (c *Client) Capture(ctx context.Context, externalReference string) (bool, error) {
	err := c.post(ctx, map[string]any{
		"externalReference": externalReference,
		"action":            "CAPTURE",
		"requestedAt":       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("%w: capture: %v", domain.ErrUnavailable, err)
	}
	return true, nil
}

func (c *Client) Refund(ctx context.Context, externalReference string, amount decimal.Decimal) (bool, error) {
	err := c.post(ctx, map[string]any{
		"externalReference": externalReference,
		"amount":            amount.String(),
		"action":            "REFUND",
		"requestedAt":       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("%w: refund: %v", domain.ErrUnavailable, err)
	}
	return true, nil
}

func (c *Client) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/post", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
