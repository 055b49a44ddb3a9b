// Package checkout drives the shipping, payment and review wizard and the two-phase order
// placement behind it.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Step of the checkout wizard.
type Step string

const (
	StepShipping        Step = "shipping"
	StepPayment         Step = "payment"
	StepReview          Step = "review"
	StepAwaitingPayment Step = "awaiting_payment"
	StepConfirmed       Step = "confirmed"
)

const (
	genericOrderFailure = "Failed to place order. Please try again."
	paymentDescription  = "Order Payment"
)

// ErrClosed is returned once the controller has been reset at logout.
var ErrClosed = errors.New("checkout session has ended")

// Remote is the part of the store service checkout talks to.
type Remote interface {
	CreateOrder(ctx context.Context, token string, order model.Order) (*model.OrderPlacement, error)
	VerifyPayment(ctx context.Context, token string, receipt model.PaymentReceipt) error
}

// Cart is the session's cart as checkout sees it.
type Cart interface {
	Hydrate(ctx context.Context) error
	Confirmed() []model.CartLine
	Pending() []string
	ForgetLocal()
}

// Ledger records each checkout phase.
type Ledger interface {
	Create(ctx context.Context, record *model.CheckoutRecord) error
	UpdateStatus(ctx context.Context, userID, gatewayOrderID string, status model.LedgerStatus) error
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.CheckoutRecord, error)
}

// Deliverability reports whether the store ships to a pincode.
type Deliverability interface {
	Serviceable(pincode string) bool
}

// Customer is the signed-in user checking out.
type Customer struct {
	Token  string
	UserID string
	Name   string
	Email  string
}

// Settings are the public payment gateway parameters.
type Settings struct {
	KeyID        string
	Currency     string
	MerchantName string
}

// Prefill is the customer data handed to the payment widget.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// PaymentIntent is everything the gateway widget needs to collect a payment.
type PaymentIntent struct {
	Key            string  `json:"key"`
	GatewayOrderID string  `json:"orderId"`
	Amount         int64   `json:"amount"`
	Currency       string  `json:"currency"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Prefill        Prefill `json:"prefill"`
}

// Snapshot is the wizard state presented to a UI.
type Snapshot struct {
	Step          Step                 `json:"step"`
	Lines         []model.CartLine     `json:"lines"`
	Shipping      model.ShippingInfo   `json:"shipping"`
	PaymentMethod model.PaymentMethod  `json:"paymentMethod,omitempty"`
	Breakdown     model.PriceBreakdown `json:"breakdown"`
	Error         string               `json:"error,omitempty"`
	Order         *model.Order         `json:"order,omitempty"`
	Payment       *PaymentIntent       `json:"payment,omitempty"`
}

// SubmitError reports a failed order placement. The wizard stays on review.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Controller is one session's checkout wizard. It is safe for concurrent use.
type Controller struct {
	customer Customer
	remote   Remote
	cart     Cart
	ledger   Ledger
	delivery Deliverability
	settings Settings
	logger   zerolog.Logger

	mu         sync.Mutex
	step       Step
	shipping   model.ShippingInfo
	method     model.PaymentMethod
	lines      []model.CartLine
	lastErr    string
	order      *model.Order
	intent     *PaymentIntent
	submitting bool
	closed     bool
}

// NewController creates a checkout controller. ledger and delivery may be nil.
func NewController(customer Customer, remote Remote, cart Cart, ledger Ledger, delivery Deliverability, settings Settings, logger zerolog.Logger) *Controller {
	return &Controller{
		customer: customer,
		remote:   remote,
		cart:     cart,
		ledger:   ledger,
		delivery: delivery,
		settings: settings,
		logger:   logger.With().Str("component", "checkout").Logger(),
		step:     StepShipping,
		shipping: model.ShippingInfo{Country: model.DefaultCountry},
	}
}

// Begin enters the wizard. It needs an identity and a non-empty cart; shipping details already
// entered in this session are kept, otherwise name and email are prefilled from the profile.
func (c *Controller) Begin(ctx context.Context) (Snapshot, error) {
	if c.customer.Token == "" {
		return Snapshot{}, model.ErrAuthRequired
	}

	if err := c.cart.Hydrate(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to load cart for checkout")
	}
	lines, pending := c.cart.Confirmed(), c.cart.Pending()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, ErrClosed
	}
	if c.submitting {
		return Snapshot{}, model.ErrIllegalTransition
	}
	if len(pending) > 0 {
		return Snapshot{}, model.ErrLinePending
	}
	if len(lines) == 0 {
		return Snapshot{}, model.ErrEmptyCart
	}

	if c.step == StepConfirmed {
		c.shipping = model.ShippingInfo{Country: model.DefaultCountry}
		c.method = ""
	}
	if c.shipping.FullName == "" {
		c.shipping.FullName = c.customer.Name
	}
	if c.shipping.Email == "" {
		c.shipping.Email = c.customer.Email
	}

	c.step = StepShipping
	c.lines = lines
	c.lastErr = ""
	c.order = nil
	c.intent = nil

	return c.snapshotLocked(), nil
}

// SetShipping replaces the shipping details. Only allowed on the shipping step.
func (c *Controller) SetShipping(info model.ShippingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StepShipping); err != nil {
		return err
	}
	c.shipping = Normalize(info)
	return nil
}

// SubmitShipping validates the shipping details and advances to payment.
func (c *Controller) SubmitShipping() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StepShipping); err != nil {
		return Snapshot{}, err
	}

	if err := ValidateShipping(c.shipping); err != nil {
		c.lastErr = err.Error()
		return c.snapshotLocked(), err
	}
	if c.delivery != nil && !c.delivery.Serviceable(c.shipping.Pincode) {
		c.lastErr = model.ErrUndeliverablePincode.Message
		return c.snapshotLocked(), model.ErrUndeliverablePincode
	}

	c.lastErr = ""
	c.step = StepPayment
	return c.snapshotLocked(), nil
}

// ChoosePayment selects the payment method and advances to review.
func (c *Controller) ChoosePayment(method model.PaymentMethod) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StepPayment); err != nil {
		return Snapshot{}, err
	}

	switch method {
	case model.PaymentUPI:
		return c.snapshotLocked(), model.ErrPaymentUnavailable
	case model.PaymentGateway, model.PaymentCashOnDelivery:
	default:
		err := model.NewValidationError("Please select a payment method")
		c.lastErr = err.Message
		return c.snapshotLocked(), err
	}

	if len(c.cart.Pending()) > 0 {
		return c.snapshotLocked(), model.ErrLinePending
	}

	c.method = method
	c.lastErr = ""
	c.lines = c.cart.Confirmed()
	c.step = StepReview
	return c.snapshotLocked(), nil
}

// EditShipping goes back to the shipping step from payment or review.
func (c *Controller) EditShipping() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StepPayment, StepReview); err != nil {
		return Snapshot{}, err
	}
	c.step = StepShipping
	c.lastErr = ""
	return c.snapshotLocked(), nil
}

// EditPayment goes back to the payment step from review.
func (c *Controller) EditPayment() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StepReview); err != nil {
		return Snapshot{}, err
	}
	c.step = StepPayment
	c.lastErr = ""
	return c.snapshotLocked(), nil
}

// Review returns the frozen order summary. Only available on the review step.
func (c *Controller) Review() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StepReview); err != nil {
		return Snapshot{}, err
	}
	return c.snapshotLocked(), nil
}

// State returns the wizard state at any step.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SubmitOrder places the reviewed order. Cash on delivery confirms immediately; a gateway payment
// moves to awaiting_payment and returns the intent the payment widget needs.
func (c *Controller) SubmitOrder(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if err := c.expectLocked(StepReview); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	if c.submitting {
		c.mu.Unlock()
		return Snapshot{}, model.ErrIllegalTransition
	}
	if len(c.lines) == 0 {
		c.mu.Unlock()
		return Snapshot{}, model.ErrEmptyCart
	}
	order := buildOrder(c.lines, c.shipping, c.method)
	c.submitting = true
	c.lastErr = ""
	c.mu.Unlock()

	placement, err := c.remote.CreateOrder(ctx, c.customer.Token, order)

	c.mu.Lock()
	c.submitting = false
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	if err != nil {
		msg := remote.Message(err, genericOrderFailure)
		c.lastErr = msg
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Warn().Err(err).Str("payment_method", string(order.PaymentMethod)).Msg("order placement failed")
		return snap, &SubmitError{Message: msg, Err: err}
	}

	placed := placement.Order
	if placed.ID == "" {
		placed.ID = placement.GatewayOrderID
	}
	c.order = &placed

	record := &model.CheckoutRecord{
		ID:            uuid.New(),
		UserID:        c.customer.UserID,
		RemoteOrderID: placed.ID,
		PaymentMethod: order.PaymentMethod,
		Subtotal:      order.Subtotal,
		Shipping:      order.Shipping,
		Tax:           order.Tax,
		Total:         order.TotalAmount,
	}

	if order.PaymentMethod == model.PaymentCashOnDelivery {
		c.step = StepConfirmed
		record.Status = model.LedgerPlaced
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.cart.ForgetLocal()
		c.record(ctx, record)
		c.logger.Info().Str("order_id", placed.ID).Msg("cash on delivery order placed")
		return snap, nil
	}

	c.intent = &PaymentIntent{
		Key:            c.settings.KeyID,
		GatewayOrderID: placement.GatewayOrderID,
		Amount:         pricing.MinorUnits(order.TotalAmount),
		Currency:       c.settings.Currency,
		Name:           c.settings.MerchantName,
		Description:    paymentDescription,
		Prefill: Prefill{
			Name:    c.shipping.FullName,
			Email:   c.shipping.Email,
			Contact: c.shipping.Phone,
		},
	}
	c.step = StepAwaitingPayment
	record.GatewayOrderID = placement.GatewayOrderID
	record.Status = model.LedgerPendingPayment
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.record(ctx, record)
	c.logger.Info().
		Str("order_id", placed.ID).
		Str("gateway_order_id", placement.GatewayOrderID).
		Msg("awaiting gateway payment")
	return snap, nil
}

// ConfirmPayment is phase two of a gateway payment. The receipt is only trusted once the store
// service has verified its signature; a rejected receipt returns the wizard to review.
func (c *Controller) ConfirmPayment(ctx context.Context, receipt model.PaymentReceipt) (Snapshot, error) {
	c.mu.Lock()
	if err := c.expectLocked(StepAwaitingPayment); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	if c.submitting {
		c.mu.Unlock()
		return Snapshot{}, model.ErrIllegalTransition
	}
	if receipt.GatewayOrderID == "" || receipt.GatewayPaymentID == "" || receipt.Signature == "" {
		c.mu.Unlock()
		return Snapshot{}, model.NewValidationError("Payment receipt is incomplete")
	}
	if c.intent == nil || receipt.GatewayOrderID != c.intent.GatewayOrderID {
		c.mu.Unlock()
		return Snapshot{}, model.NewValidationError("Payment does not belong to this order")
	}
	c.submitting = true
	c.mu.Unlock()

	err := c.checkLedger(ctx, receipt.GatewayOrderID)
	rejected := err != nil
	if err == nil {
		err = c.remote.VerifyPayment(ctx, c.customer.Token, receipt)
	}

	c.mu.Lock()
	c.submitting = false
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrClosed
	}

	if err != nil {
		c.step = StepReview
		c.intent = nil
		c.lastErr = model.ErrVerificationFailed.Message
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.logger.Warn().Err(err).Str("gateway_order_id", receipt.GatewayOrderID).Msg("payment verification failed")
		if !rejected {
			c.updateLedger(ctx, receipt.GatewayOrderID, model.LedgerVerificationFailed)
		}
		return snap, fmt.Errorf("%w: %v", model.ErrVerificationFailed, err)
	}

	c.step = StepConfirmed
	c.lastErr = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.cart.ForgetLocal()
	c.updateLedger(ctx, receipt.GatewayOrderID, model.LedgerPaymentVerified)
	c.logger.Info().Str("gateway_order_id", receipt.GatewayOrderID).Msg("payment verified")
	return snap, nil
}

// AbandonPayment returns from awaiting_payment to review when the payment widget is dismissed.
func (c *Controller) AbandonPayment() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.expectLocked(StepAwaitingPayment); err != nil {
		return Snapshot{}, err
	}
	if c.submitting {
		return Snapshot{}, model.ErrIllegalTransition
	}
	c.step = StepReview
	c.intent = nil
	return c.snapshotLocked(), nil
}

// Reset ends the controller at logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.step = StepShipping
	c.shipping = model.ShippingInfo{Country: model.DefaultCountry}
	c.method = ""
	c.lines = nil
	c.order = nil
	c.intent = nil
	c.lastErr = ""
}

func (c *Controller) expectLocked(allowed ...Step) error {
	if c.closed {
		return ErrClosed
	}
	for _, s := range allowed {
		if c.step == s {
			return nil
		}
	}
	return model.ErrIllegalTransition
}

// checkLedger refuses receipts for gateway orders the ledger knows belong to someone else or
// that were already settled. A missing or unreachable ledger does not block verification.
func (c *Controller) checkLedger(ctx context.Context, gatewayOrderID string) error {
	if c.ledger == nil {
		return nil
	}
	rec, err := c.ledger.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			c.logger.Warn().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("checkout ledger lookup failed")
		}
		return nil
	}
	if rec.UserID != c.customer.UserID {
		return errors.New("gateway order belongs to another user")
	}
	if rec.Status != model.LedgerPendingPayment {
		return fmt.Errorf("gateway order already %s", rec.Status)
	}
	return nil
}

func (c *Controller) record(ctx context.Context, record *model.CheckoutRecord) {
	if c.ledger == nil {
		return
	}
	if err := c.ledger.Create(ctx, record); err != nil {
		c.logger.Error().Err(err).Str("order_id", record.RemoteOrderID).Msg("failed to write checkout ledger")
	}
}

func (c *Controller) updateLedger(ctx context.Context, gatewayOrderID string, status model.LedgerStatus) {
	if c.ledger == nil {
		return
	}
	if err := c.ledger.UpdateStatus(ctx, c.customer.UserID, gatewayOrderID, status); err != nil {
		c.logger.Error().Err(err).
			Str("gateway_order_id", gatewayOrderID).
			Str("status", string(status)).
			Msg("failed to update checkout ledger")
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Step:          c.step,
		Lines:         model.CloneLines(c.lines),
		Shipping:      c.shipping,
		PaymentMethod: c.method,
		Breakdown:     pricing.Compute(c.lines),
		Error:         c.lastErr,
	}
	if c.order != nil {
		order := *c.order
		snap.Order = &order
	}
	if c.intent != nil {
		intent := *c.intent
		snap.Payment = &intent
	}
	return snap
}

func buildOrder(lines []model.CartLine, shipping model.ShippingInfo, method model.PaymentMethod) model.Order {
	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, model.OrderItem{
			Product:  line.Product.ID,
			Quantity: line.Quantity,
			Size:     line.Size,
			Price:    line.Product.Price,
		})
	}
	breakdown := pricing.Compute(lines)

	return model.Order{
		Items:           items,
		ShippingAddress: shipping,
		PaymentMethod:   method,
		Subtotal:        breakdown.Subtotal,
		Shipping:        breakdown.Shipping,
		Tax:             breakdown.Tax,
		TotalAmount:     breakdown.Total,
	}
}
