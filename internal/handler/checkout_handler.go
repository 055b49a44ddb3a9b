package handler

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/checkout"
	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// History lists a user's recorded checkouts.
type History interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]model.CheckoutRecord, error)
}

// CheckoutHandler exposes the session's checkout wizard.
type CheckoutHandler struct {
	history History
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler. history may be nil when no ledger is
// configured.
func NewCheckoutHandler(history History, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		history: history,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

type paymentRequest struct {
	Method model.PaymentMethod `json:"method"`
}

// State handles GET /api/checkout.
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(c *checkout.Controller) (checkout.Snapshot, error) {
		return c.State(), nil
	})
}

// Begin handles POST /api/checkout/begin.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(c *checkout.Controller) (checkout.Snapshot, error) {
		return c.Begin(r.Context())
	})
}

// Shipping handles PUT /api/checkout/shipping.
func (h *CheckoutHandler) Shipping(w http.ResponseWriter, r *http.Request) {
	var info model.ShippingInfo
	if err := decode(r, &info); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.step(w, r, func(c *checkout.Controller) (checkout.Snapshot, error) {
		if err := c.SetShipping(info); err != nil {
			return checkout.Snapshot{}, err
		}
		return c.SubmitShipping()
	})
}

// Payment handles PUT /api/checkout/payment.
func (h *CheckoutHandler) Payment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.step(w, r, func(c *checkout.Controller) (checkout.Snapshot, error) {
		return c.ChoosePayment(req.Method)
	})
}

// Edit handles POST /api/checkout/edit/{step}.
func (h *CheckoutHandler) Edit(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(c *checkout.Controller) (checkout.Snapshot, error) {
		switch checkout.Step(chi.URLParam(r, "step")) {
		case checkout.StepShipping:
			return c.EditShipping()
		case checkout.StepPayment:
			return c.EditPayment()
		default:
			return checkout.Snapshot{}, model.ErrNotFound
		}
	})
}

// Submit handles POST /api/checkout/submit.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(c *checkout.Controller) (checkout.Snapshot, error) {
		return c.SubmitOrder(r.Context())
	})
}

// Verify handles POST /api/checkout/payment/verify.
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var receipt model.PaymentReceipt
	if err := decode(r, &receipt); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.step(w, r, func(c *checkout.Controller) (checkout.Snapshot, error) {
		return c.ConfirmPayment(r.Context(), receipt)
	})
}

// Abandon handles POST /api/checkout/payment/abandon.
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, func(c *checkout.Controller) (checkout.Snapshot, error) {
		return c.AbandonPayment()
	})
}

// History handles GET /api/checkout/history?limit=N.
func (h *CheckoutHandler) History(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if h.history == nil {
		writeJSON(w, http.StatusOK, []model.CheckoutRecord{})
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, model.NewValidationError("invalid limit parameter"), h.logger)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.ListByUser(r.Context(), ws.Identity.UserID, limit)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *CheckoutHandler) step(w http.ResponseWriter, r *http.Request, fn func(*checkout.Controller) (checkout.Snapshot, error)) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	snap, err := fn(ws.Checkout)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
