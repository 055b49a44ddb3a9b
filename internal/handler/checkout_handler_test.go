package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validShippingBody = `{"fullName":"Asha Verma","email":"asha@example.in","phone":"9876543210",` +
	`"address":"12 MG Road","city":"Bengaluru","state":"Karnataka","pincode":"560001"}`

// MockHistory is a mock implementation of History.
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) ListByUser(ctx context.Context, userID string, limit int) ([]model.CheckoutRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CheckoutRecord), args.Error(1)
}

type checkoutCall struct {
	method  string
	target  string
	body    string
	params  map[string]string
	handler func(*CheckoutHandler) http.HandlerFunc
}

func call(t *testing.T, h *CheckoutHandler, ws *session.Workspace, c checkoutCall) (*httptest.ResponseRecorder, checkout.Snapshot) {
	t.Helper()
	w := httptest.NewRecorder()
	c.handler(h)(w, request(c.method, c.target, c.body, ws, c.params))

	var snap checkout.Snapshot
	if w.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	}
	return w, snap
}

var (
	begin    = checkoutCall{method: http.MethodPost, target: "/api/checkout/begin", handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Begin }}
	shipping = checkoutCall{method: http.MethodPut, target: "/api/checkout/shipping", body: validShippingBody, handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Shipping }}
	submit   = checkoutCall{method: http.MethodPost, target: "/api/checkout/submit", handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Submit }}
)

func payWith(method model.PaymentMethod) checkoutCall {
	return checkoutCall{
		method:  http.MethodPut,
		target:  "/api/checkout/payment",
		body:    `{"method":"` + string(method) + `"}`,
		handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Payment },
	}
}

func TestCheckoutHandler_CashOnDeliveryFlow(t *testing.T) {
	r := seededRemote()
	r.placement = model.OrderPlacement{Order: model.Order{ID: "o1", Status: model.OrderPending}}
	ws := newWorkspace(t, r)
	h := NewCheckoutHandler(nil, zerolog.Nop())

	w, snap := call(t, h, ws, begin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StepShipping, snap.Step)
	assert.Equal(t, "Asha", snap.Shipping.FullName)

	w, snap = call(t, h, ws, shipping)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StepPayment, snap.Step)

	w, snap = call(t, h, ws, payWith(model.PaymentCashOnDelivery))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StepReview, snap.Step)

	w, snap = call(t, h, ws, submit)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StepConfirmed, snap.Step)
	require.NotNil(t, snap.Order)
	assert.Equal(t, "o1", snap.Order.ID)
	assert.Empty(t, ws.Cart.Lines())
}

func TestCheckoutHandler_GatewayFlow(t *testing.T) {
	r := seededRemote()
	r.placement = model.OrderPlacement{Order: model.Order{ID: "o2"}, GatewayOrderID: "order_G1"}
	ws := newWorkspace(t, r)
	h := NewCheckoutHandler(nil, zerolog.Nop())

	for _, c := range []checkoutCall{begin, shipping, payWith(model.PaymentGateway)} {
		w, _ := call(t, h, ws, c)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, snap := call(t, h, ws, submit)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StepAwaitingPayment, snap.Step)
	require.NotNil(t, snap.Payment)
	assert.Equal(t, "order_G1", snap.Payment.GatewayOrderID)
	assert.Equal(t, int64(118000), snap.Payment.Amount)
	assert.Equal(t, "rzp_test", snap.Payment.Key)

	verify := func(orderID string) checkoutCall {
		return checkoutCall{
			method:  http.MethodPost,
			target:  "/api/checkout/payment/verify",
			body:    `{"razorpay_order_id":"` + orderID + `","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`,
			handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Verify },
		}
	}

	w, _ = call(t, h, ws, verify("order_other"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, checkout.StepAwaitingPayment, ws.Checkout.State().Step)

	w, snap = call(t, h, ws, verify("order_G1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StepConfirmed, snap.Step)
}

func TestCheckoutHandler_VerificationFailureReturnsToReview(t *testing.T) {
	r := seededRemote()
	r.placement = model.OrderPlacement{Order: model.Order{ID: "o2"}, GatewayOrderID: "order_G1"}
	r.verifyErr = errors.New("signature mismatch")
	ws := newWorkspace(t, r)
	h := NewCheckoutHandler(nil, zerolog.Nop())

	for _, c := range []checkoutCall{begin, shipping, payWith(model.PaymentGateway), submit} {
		w, _ := call(t, h, ws, c)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, _ := call(t, h, ws, checkoutCall{
		method:  http.MethodPost,
		target:  "/api/checkout/payment/verify",
		body:    `{"razorpay_order_id":"order_G1","razorpay_payment_id":"pay_1","razorpay_signature":"forged"}`,
		handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Verify },
	})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, model.ErrCodeVerificationFailed, decodeError(t, w).Error)
	assert.Equal(t, checkout.StepReview, ws.Checkout.State().Step)
	assert.Len(t, ws.Cart.Lines(), 1)
}

func TestCheckoutHandler_Guards(t *testing.T) {
	tests := []struct {
		name           string
		remote         *fakeRemote
		steps          []checkoutCall
		final          checkoutCall
		expectedStatus int
		expectCode     string
	}{
		{
			name:           "Begin with empty cart",
			remote:         &fakeRemote{},
			final:          begin,
			expectedStatus: http.StatusBadRequest,
			expectCode:     model.ErrCodeEmptyCart,
		},
		{
			name:           "Payment before shipping",
			remote:         seededRemote(),
			steps:          []checkoutCall{begin},
			final:          payWith(model.PaymentCashOnDelivery),
			expectedStatus: http.StatusConflict,
			expectCode:     model.ErrCodeIllegalTransition,
		},
		{
			name:   "Invalid shipping",
			remote: seededRemote(),
			steps:  []checkoutCall{begin},
			final: checkoutCall{
				method:  http.MethodPut,
				target:  "/api/checkout/shipping",
				body:    `{"fullName":"Asha","email":"asha@example.in","phone":"123"}`,
				handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Shipping },
			},
			expectedStatus: http.StatusBadRequest,
			expectCode:     model.ErrCodeValidation,
		},
		{
			name:           "UPI not available",
			remote:         seededRemote(),
			steps:          []checkoutCall{begin, shipping},
			final:          payWith(model.PaymentUPI),
			expectedStatus: http.StatusUnprocessableEntity,
			expectCode:     model.ErrCodePaymentUnavailable,
		},
		{
			name:   "Unknown edit step",
			remote: seededRemote(),
			steps:  []checkoutCall{begin, shipping},
			final: checkoutCall{
				method:  http.MethodPost,
				target:  "/api/checkout/edit/review",
				params:  map[string]string{"step": "review"},
				handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Edit },
			},
			expectedStatus: http.StatusNotFound,
			expectCode:     model.ErrCodeNotFound,
		},
		{
			name:   "Order placement rejected",
			remote: &fakeRemote{cart: seededRemote().cart, orderErr: errors.New("503 from store")},
			steps:  []checkoutCall{begin, shipping, payWith(model.PaymentCashOnDelivery)},
			final:  submit,
			expectedStatus: http.StatusBadGateway,
			expectCode:     model.ErrCodeUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newWorkspace(t, tt.remote)
			h := NewCheckoutHandler(nil, zerolog.Nop())
			for _, c := range tt.steps {
				w, _ := call(t, h, ws, c)
				require.Equal(t, http.StatusOK, w.Code)
			}

			w, _ := call(t, h, ws, tt.final)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectCode, decodeError(t, w).Error)
		})
	}
}

func TestCheckoutHandler_EditShippingGoesBack(t *testing.T) {
	ws := newWorkspace(t, seededRemote())
	h := NewCheckoutHandler(nil, zerolog.Nop())
	for _, c := range []checkoutCall{begin, shipping, payWith(model.PaymentCashOnDelivery)} {
		w, _ := call(t, h, ws, c)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, snap := call(t, h, ws, checkoutCall{
		method:  http.MethodPost,
		target:  "/api/checkout/edit/shipping",
		params:  map[string]string{"step": "shipping"},
		handler: func(h *CheckoutHandler) http.HandlerFunc { return h.Edit },
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, checkout.StepShipping, snap.Step)
	assert.Equal(t, "560001", snap.Shipping.Pincode)
	assert.Equal(t, model.PaymentCashOnDelivery, snap.PaymentMethod)
}

func TestCheckoutHandler_History(t *testing.T) {
	records := []model.CheckoutRecord{{UserID: "u1", RemoteOrderID: "o1", Status: model.LedgerPlaced}}

	tests := []struct {
		name           string
		query          string
		history        bool
		limit          int
		expectedStatus int
		expectCount    int
	}{
		{name: "No ledger configured", expectedStatus: http.StatusOK},
		{name: "Default limit", history: true, limit: defaultHistoryLimit, expectedStatus: http.StatusOK, expectCount: 1},
		{name: "Limit is capped", query: "?limit=500", history: true, limit: maxHistoryLimit, expectedStatus: http.StatusOK, expectCount: 1},
		{name: "Invalid limit", query: "?limit=0", history: true, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newWorkspace(t, seededRemote())
			var h *CheckoutHandler
			history := new(MockHistory)
			if tt.history {
				if tt.limit > 0 {
					history.On("ListByUser", mock.Anything, "u1", tt.limit).Return(records, nil)
				}
				h = NewCheckoutHandler(history, zerolog.Nop())
			} else {
				h = NewCheckoutHandler(nil, zerolog.Nop())
			}

			w := httptest.NewRecorder()
			h.History(w, request(http.MethodGet, "/api/checkout/history"+tt.query, "", ws, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got []model.CheckoutRecord
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.Len(t, got, tt.expectCount)
			}
			history.AssertExpectations(t)
		})
	}
}
