// Package handler exposes the storefront engines over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/favorites"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/remote"
	"storefront/internal/requestid"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to a status and a JSON error body.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status, body := classify(err)
	body.CorrelationID = requestid.From(r.Context())

	event := logger.Debug()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Str("code", body.Error).Str("path", r.URL.Path).Msg("handler error")

	writeJSON(w, status, body)
}

// classify picks the HTTP status and body for err. Errors that carry a message meant for the
// user keep it; unknown errors are reported as internal.
func classify(err error) (int, model.ErrorResponse) {
	var (
		submitErr   *checkout.SubmitError
		mutationErr *cart.MutationError
		toggleErr   *favorites.ToggleError
		authErr     *service.AuthError
		domainErr   *model.DomainError
		apiErr      *remote.APIError
	)

	switch {
	case errors.As(err, &submitErr):
		return upstream(err, submitErr.Message)
	case errors.As(err, &mutationErr):
		return upstream(err, mutationErr.Message)
	case errors.As(err, &toggleErr):
		return upstream(err, toggleErr.Message)
	case errors.As(err, &authErr):
		status, body := upstream(err, authErr.Message)
		if errors.Is(err, remote.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		// already on the login form
		body.Redirect = ""
		return status, body
	case errors.As(err, &domainErr):
		status := domainStatus(domainErr.Code)
		body := model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message}
		if status == http.StatusUnauthorized {
			body.Redirect = middleware.LoginPath
		}
		return status, body
	case errors.Is(err, cart.ErrClosed), errors.Is(err, favorites.ErrClosed), errors.Is(err, checkout.ErrClosed):
		return http.StatusUnauthorized, model.ErrorResponse{
			Error:    model.ErrCodeSessionNotFound,
			Message:  model.ErrSessionNotFound.Message,
			Redirect: middleware.LoginPath,
		}
	case errors.As(err, &apiErr), errors.Is(err, remote.ErrUnavailable):
		return upstream(err, remote.Message(err, "The store is unavailable right now. Please try again."))
	default:
		return http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		}
	}
}

// upstream reports a failed store service call. Client errors keep the store's status.
func upstream(err error, message string) (int, model.ErrorResponse) {
	body := model.ErrorResponse{Error: model.ErrCodeUpstream, Message: message}
	if errors.Is(err, remote.ErrUnauthorized) {
		body.Redirect = middleware.LoginPath
	}

	var apiErr *remote.APIError
	switch {
	case errors.Is(err, remote.ErrUnavailable):
		return http.StatusServiceUnavailable, body
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status, body
	default:
		return http.StatusBadGateway, body
	}
}

func domainStatus(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON, model.ErrCodeValidation, model.ErrCodeInvalidQuantity,
		model.ErrCodeNotConfirmed, model.ErrCodeEmptyCart, model.ErrCodeUndeliverablePincode:
		return http.StatusBadRequest
	case model.ErrCodeAuthRequired, model.ErrCodeSessionNotFound:
		return http.StatusUnauthorized
	case model.ErrCodeVerificationFailed:
		return http.StatusPaymentRequired
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNotFound, model.ErrCodeLineNotFound:
		return http.StatusNotFound
	case model.ErrCodeLinePending, model.ErrCodeIllegalTransition, model.ErrCodeNotCancellable, model.ErrCodeSoldOut:
		return http.StatusConflict
	case model.ErrCodePaymentUnavailable:
		return http.StatusUnprocessableEntity
	case model.ErrCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Invalid request body")
	}
	return nil
}

// workspace returns the session workspace SessionAuth stored in the request.
func workspace(r *http.Request) (*session.Workspace, error) {
	ws, ok := session.FromContext(r.Context())
	if !ok {
		return nil, model.ErrAuthRequired
	}
	return ws, nil
}
