package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the payment option chosen at checkout.
type PaymentMethod string

const (
	PaymentGateway        PaymentMethod = "razorpay"
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentUPI            PaymentMethod = "upi"
)

// Valid reports whether m is one of the presented payment options.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentGateway, PaymentCashOnDelivery, PaymentUPI:
		return true
	}
	return false
}

// OrderStatus is owned by the remote service after an order is created.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in status s can still be cancelled by its owner.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderProcessing
}

// DefaultCountry is the only shipping country the store delivers to.
const DefaultCountry = "India"

// ShippingInfo is the delivery address captured in the first checkout step.
type ShippingInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Country  string `json:"country"`
}

// OrderItem is a line of an order.
type OrderItem struct {
	Product  string          `json:"product"`
	Quantity int             `json:"quantity"`
	Size     *string         `json:"size,omitempty"`
	Price    decimal.Decimal `json:"price"`
}

// Order is the payload submitted at checkout and the record returned by the remote service.
type Order struct {
	ID              string          `json:"_id,omitempty"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingInfo    `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status,omitempty"`
	CreatedAt       *time.Time      `json:"createdAt,omitempty"`
}

// OrderPlacement is the remote service's answer to an order creation.
type OrderPlacement struct {
	Order          Order  `json:"order"`
	GatewayOrderID string `json:"razorpayOrderId,omitempty"`
}

// PaymentReceipt is the signed receipt the payment gateway hands back to the client.
type PaymentReceipt struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}
