// Package requestid carries the correlation id of an inbound request to outbound calls.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header used to propagate correlation ids.
const Header = "X-Correlation-Id"

type ctxKey struct{}

// With returns a copy of ctx carrying id.
func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From returns the correlation id stored in ctx, or "".
func From(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// New generates a fresh correlation id.
func New() string {
	return uuid.NewString()
}
