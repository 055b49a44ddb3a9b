package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/remote"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const loadCartFailed = "Failed to load cart"

// CartHandler exposes the session's cart engine.
type CartHandler struct {
	catalog service.CatalogService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(catalog service.CatalogService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		catalog: catalog,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

type addLineRequest struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Size      *string `json:"size"`
}

// cartResponse carries a failed load as a passive message next to the (empty) cart.
type cartResponse struct {
	model.CartView
	Error string `json:"error,omitempty"`
}

type updateLineRequest struct {
	Quantity int `json:"quantity"`
}

// Get handles GET /api/cart. The cart is loaded from the store on first use.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	resp := cartResponse{}
	if err := ws.Cart.EnsureHydrated(r.Context()); err != nil {
		if errors.Is(err, cart.ErrClosed) {
			writeError(w, r, err, h.logger)
			return
		}
		resp.Error = remote.Message(err, loadCartFailed)
	}
	resp.CartView = ws.Cart.View()
	writeJSON(w, http.StatusOK, resp)
}

// AddLine handles POST /api/cart/lines.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req addLineRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.ProductID == "" {
		writeError(w, r, model.NewValidationError("productId is required"), h.logger)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.catalog.Purchasable(r.Context(), req.ProductID, req.Size)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := ws.Cart.AddLine(r.Context(), *product, req.Quantity, req.Size); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ws.Cart.View())
}

// UpdateLine handles PATCH /api/cart/lines/{lineID}.
func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req updateLineRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := ws.Cart.UpdateQuantity(r.Context(), chi.URLParam(r, "lineID"), req.Quantity); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ws.Cart.View())
}

// RemoveLine handles DELETE /api/cart/lines/{lineID}.
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := ws.Cart.RemoveLine(r.Context(), chi.URLParam(r, "lineID")); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ws.Cart.View())
}

// Clear handles DELETE /api/cart?confirm=true. Without confirmation nothing is removed.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := ws.Cart.ClearCart(r.Context(), func(string) bool { return confirmed }); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ws.Cart.View())
}
