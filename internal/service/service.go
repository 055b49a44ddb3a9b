// Package service holds the request-scoped operations of the storefront that do not keep
// per-session state: catalogue reads, order history and authentication.
package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/session"
)

// CatalogService reads the product catalogue.
type CatalogService interface {
	// List returns one catalogue page. Pages start at 1.
	List(ctx context.Context, page int) (model.ProductPage, error)

	// Get returns a single product, or model.ErrNotFound.
	Get(ctx context.Context, id string) (*model.Product, error)

	// Search runs a free-text search. A blank query returns no results without calling the store.
	Search(ctx context.Context, query string) ([]model.Product, error)

	// Suggest returns the first results of a search together with the total match count.
	Suggest(ctx context.Context, query string) (model.Suggestions, error)

	// Purchasable returns the product if it can be added to a cart in size.
	Purchasable(ctx context.Context, id string, size *string) (*model.Product, error)
}

// OrderService reads and changes the signed-in user's orders.
type OrderService interface {
	List(ctx context.Context, identity session.Identity) ([]model.Order, error)
	Get(ctx context.Context, identity session.Identity, id string) (*model.Order, error)

	// Cancel cancels an order that is still pending or processing.
	Cancel(ctx context.Context, identity session.Identity, id string) (*model.Order, error)

	// UpdateStatus sets an order's status. Admins only.
	UpdateStatus(ctx context.Context, identity session.Identity, id string, status model.OrderStatus) (*model.Order, error)
}

// SignedIn is the answer to a successful login. SessionID is empty when the store service
// created an account without signing it in.
type SignedIn struct {
	SessionID string        `json:"sessionId,omitempty"`
	User      model.Account `json:"user"`
}

// AuthService signs users in and out.
type AuthService interface {
	Login(ctx context.Context, creds model.Credentials) (*SignedIn, error)
	Register(ctx context.Context, reg model.Registration) (*SignedIn, error)
	GoogleLogin(ctx context.Context, credential string) (*SignedIn, error)
	Logout(ctx context.Context, sessionID string) error
}
