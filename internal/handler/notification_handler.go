package handler

import (
	"net/http"

	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// NotificationHandler exposes the session's notification feed.
type NotificationHandler struct {
	logger zerolog.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{logger: logger.With().Str("handler", "notification").Logger()}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, ws.Feed.Active())
}

// Dismiss handles DELETE /api/notifications/{id}.
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if !ws.Feed.Dismiss(chi.URLParam(r, "id")) {
		writeError(w, r, model.ErrNotFound, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
