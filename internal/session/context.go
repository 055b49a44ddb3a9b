package session

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying ws.
func NewContext(ctx context.Context, ws *Workspace) context.Context {
	return context.WithValue(ctx, ctxKey{}, ws)
}

// FromContext returns the workspace stored in ctx.
func FromContext(ctx context.Context) (*Workspace, bool) {
	ws, ok := ctx.Value(ctxKey{}).(*Workspace)
	return ws, ok && ws != nil
}
