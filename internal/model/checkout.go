package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerStatus is the phase a checkout reached, as recorded in the checkout ledger.
type LedgerStatus string

const (
	// LedgerPlaced is a cash-on-delivery order; it has no payment phase.
	LedgerPlaced LedgerStatus = "placed"
	// LedgerPendingPayment is phase one of a gateway payment: order created, payment unverified.
	LedgerPendingPayment LedgerStatus = "pending_payment"
	// LedgerPaymentVerified is phase two: the store service verified the gateway signature.
	LedgerPaymentVerified LedgerStatus = "payment_verified"
	// LedgerVerificationFailed means the store service rejected the receipt.
	LedgerVerificationFailed LedgerStatus = "verification_failed"
)

// CheckoutRecord is one row of the checkout ledger.
type CheckoutRecord struct {
	ID             uuid.UUID       `json:"id"`
	UserID         string          `json:"userId"`
	RemoteOrderID  string          `json:"remoteOrderId"`
	GatewayOrderID string          `json:"gatewayOrderId,omitempty"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Shipping       decimal.Decimal `json:"shipping"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	Status         LedgerStatus    `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
