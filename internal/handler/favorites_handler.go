package handler

import (
	"errors"
	"net/http"

	"storefront/internal/favorites"
	"storefront/internal/model"
	"storefront/internal/remote"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// FavoritesHandler exposes the session's favorites engine.
type FavoritesHandler struct {
	catalog service.CatalogService
	logger  zerolog.Logger
}

// NewFavoritesHandler creates a new favorites handler.
func NewFavoritesHandler(catalog service.CatalogService, logger zerolog.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		catalog: catalog,
		logger:  logger.With().Str("handler", "favorites").Logger(),
	}
}

type favoritesResponse struct {
	Items []model.Product `json:"items"`
	Error string          `json:"error,omitempty"`
}

type toggleResponse struct {
	Favorited bool            `json:"favorited"`
	Items     []model.Product `json:"items"`
}

// List handles GET /api/favorites.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	resp := favoritesResponse{}
	if err := ws.Favorites.EnsureHydrated(r.Context()); err != nil {
		if errors.Is(err, favorites.ErrClosed) {
			writeError(w, r, err, h.logger)
			return
		}
		resp.Error = remote.Message(err, "Failed to load favorites")
	}
	resp.Items = ws.Favorites.Items()
	writeJSON(w, http.StatusOK, resp)
}

// Toggle handles POST /api/favorites/{productID}/toggle.
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	productID := chi.URLParam(r, "productID")
	product := &model.Product{ID: productID}
	if !ws.Favorites.Contains(productID) {
		// Adding needs the full product for the optimistic entry.
		if product, err = h.catalog.Get(r.Context(), productID); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
	}

	favorited, err := ws.Favorites.Toggle(r.Context(), *product)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{Favorited: favorited, Items: ws.Favorites.Items()})
}

// MoveToCart handles POST /api/favorites/move-to-cart.
func (h *FavoritesHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := ws.Favorites.EnsureHydrated(r.Context()); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := ws.Favorites.MoveAllToCart(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
