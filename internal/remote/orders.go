package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"storefront/internal/model"
)

// ListOrders returns the user's order history.
func (c *Client) ListOrders(ctx context.Context, token string) ([]model.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "orders", nil, token, nil, &raw); err != nil {
		return nil, err
	}
	return decodeOrders(raw)
}

// GetOrder returns one order.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*model.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "orders/"+url.PathEscape(orderID), nil, token, nil, &raw); err != nil {
		return nil, err
	}
	order, err := decodeOrder(raw)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder submits an order.
func (c *Client) CreateOrder(ctx context.Context, token string, order model.Order) (*model.OrderPlacement, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "orders", nil, token, order, &raw); err != nil {
		return nil, err
	}
	placement, err := decodePlacement(raw)
	if err != nil {
		return nil, err
	}
	return &placement, nil
}

// CancelOrder asks the service to cancel an order.
func (c *Client) CancelOrder(ctx context.Context, token, orderID string) (*model.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPatch, "orders/"+url.PathEscape(orderID)+"/cancel", nil, token, nil, &raw); err != nil {
		return nil, err
	}
	order, err := decodeOrder(raw)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus sets an order's status. Admin only.
func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID string, status model.OrderStatus) (*model.Order, error) {
	var raw json.RawMessage
	body := struct {
		Status model.OrderStatus `json:"status"`
	}{Status: status}
	if err := c.do(ctx, http.MethodPatch, "orders/"+url.PathEscape(orderID)+"/status", nil, token, body, &raw); err != nil {
		return nil, err
	}
	order, err := decodeOrder(raw)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPayment submits a gateway receipt for server-side signature verification.
// A nil error means the service accepted the payment.
func (c *Client) VerifyPayment(ctx context.Context, token string, receipt model.PaymentReceipt) error {
	return c.do(ctx, http.MethodPost, "orders/verify-payment", nil, token, receipt, nil)
}
