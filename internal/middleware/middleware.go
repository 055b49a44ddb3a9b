package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/requestid"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// SessionCookie is the cookie carrying the session id for browser clients.
const SessionCookie = "sid"

// LoginPath is where clients are sent when their session is missing or expired.
const LoginPath = "/login"

// Resolver looks up the workspace of a session id.
type Resolver interface {
	Resolve(ctx context.Context, sessionID string) (*session.Workspace, error)
}

// CORS adds CORS headers for the allowed origins. "*" allows any origin.
func CORS(allowed []string) func(http.Handler) http.Handler {
	anyOrigin := false
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			anyOrigin = true
		}
		origins[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case anyOrigin:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && origins[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestid.Header)
			w.Header().Set("Access-Control-Expose-Headers", requestid.Header)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CorrelationID reuses the inbound X-Correlation-Id or generates one, echoes it on the response
// and stores it in the request context for outbound calls.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestid.Header))
		if id == "" {
			id = requestid.New()
		}
		w.Header().Set(requestid.Header, id)
		next.ServeHTTP(w, r.WithContext(requestid.With(r.Context(), id)))
	})
}

// SessionAuth resolves the session of the request and stores its workspace in the context.
// The session id is read from a Bearer token or the sid cookie.
func SessionAuth(resolver Resolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := resolver.Resolve(r.Context(), SessionID(r))
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), ws)))
			case errors.Is(err, model.ErrAuthRequired), errors.Is(err, model.ErrSessionNotFound):
				var de *model.DomainError
				errors.As(err, &de)
				logger.Debug().Str("path", r.URL.Path).Str("code", de.Code).Msg("session rejected")
				reject(w, r, http.StatusUnauthorized, de.Code, de.Message, LoginPath)
			default:
				logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to resolve session")
				reject(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", "")
			}
		})
	}
}

// SessionID extracts the session id from the Authorization header or the session cookie.
func SessionID(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Logging logs HTTP requests with timing information.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			event := logger.Info()
			if rw.statusCode >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("correlation_id", requestid.From(r.Context())).
				Msg("http request")
		})
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Interface("panic", err).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")

					reject(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", "")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, status int, code, message, redirect string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error:         code,
		Message:       message,
		Redirect:      redirect,
		CorrelationID: requestid.From(r.Context()),
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
