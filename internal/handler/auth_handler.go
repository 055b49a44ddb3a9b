package handler

import (
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler handles sign-in and sign-out.
type AuthHandler struct {
	service    service.AuthService
	sessionTTL time.Duration
	logger     zerolog.Logger
}

// NewAuthHandler creates a new auth handler. sessionTTL bounds the session cookie.
func NewAuthHandler(service service.AuthService, sessionTTL time.Duration, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:    service,
		sessionTTL: sessionTTL,
		logger:     logger.With().Str("handler", "auth").Logger(),
	}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decode(r, &creds); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	signedIn, err := h.service.Login(r.Context(), creds)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.respond(w, http.StatusOK, signedIn)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := decode(r, &reg); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	signedIn, err := h.service.Register(r.Context(), reg)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.respond(w, http.StatusCreated, signedIn)
}

// Google handles POST /api/auth/google.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	signedIn, err := h.service.GoogleLogin(r.Context(), req.Credential)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.respond(w, http.StatusOK, signedIn)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.SessionID(r)); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) respond(w http.ResponseWriter, status int, signedIn *service.SignedIn) {
	if signedIn.SessionID != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    signedIn.SessionID,
			Path:     "/",
			MaxAge:   int(h.sessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	writeJSON(w, status, signedIn)
}
