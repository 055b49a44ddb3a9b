package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles order history requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// List handles GET /api/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.List(r.Context(), ws.Identity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.Get(r.Context(), ws.Identity, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Cancel handles PATCH /api/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.Cancel(r.Context(), ws.Identity, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), ws.Identity, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
