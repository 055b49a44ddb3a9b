// Package favorites keeps a session's favorites set in step with the store service.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/remote"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// MoveSize is the size used when favorites are moved to the cart in bulk.
const MoveSize = "M"

// ErrClosed is returned once the engine has been reset at logout.
var ErrClosed = errors.New("favorites session has ended")

// Remote is the part of the store service the favorites engine talks to.
type Remote interface {
	GetProfile(ctx context.Context, token string) (*model.Profile, error)
	AddFavorite(ctx context.Context, token, productID string) ([]model.Product, error)
	RemoveFavorite(ctx context.Context, token, productID string) ([]model.Product, error)
}

// CartAdder adds lines to the session's cart without posting per-line notifications.
type CartAdder interface {
	AddLineQuietly(ctx context.Context, product model.Product, quantity int, size *string) error
}

// Outcome is the result of moving one favorite to the cart.
type Outcome struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Added     bool   `json:"added"`
	Message   string `json:"message,omitempty"`
}

// BatchResult summarises MoveAllToCart. Succeeded + Failed always equals len(Outcomes).
type BatchResult struct {
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Engine owns one session's favorites. It is safe for concurrent use.
type Engine struct {
	token  string
	remote Remote
	cart   CartAdder
	feed   *notify.Feed
	logger zerolog.Logger
	group  singleflight.Group

	mu         sync.Mutex
	items      []model.Product
	pending    map[string]bool
	gen        uint64
	closed     bool
	hydrated   bool
	hydrateErr error
}

// New creates a favorites engine for the user holding token.
func New(token string, remote Remote, cart CartAdder, feed *notify.Feed, logger zerolog.Logger) *Engine {
	return &Engine{
		token:   token,
		remote:  remote,
		cart:    cart,
		feed:    feed,
		logger:  logger.With().Str("component", "favorites").Logger(),
		items:   []model.Product{},
		pending: make(map[string]bool),
	}
}

// Hydrate replaces the favorites with the server's. On failure the set degrades to empty.
func (e *Engine) Hydrate(ctx context.Context) error {
	if e.token == "" {
		return model.ErrAuthRequired
	}

	_, err, _ := e.group.Do("hydrate", func() (interface{}, error) {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return nil, ErrClosed
		}
		gen := e.gen
		e.mu.Unlock()

		profile, err := e.remote.GetProfile(ctx, e.token)

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || gen != e.gen {
			return nil, ErrClosed
		}

		e.hydrated = true
		if err != nil {
			e.logger.Error().Err(err).Msg("failed to load favorites")
			e.items = []model.Product{}
			e.hydrateErr = err
			return nil, err
		}
		e.items = cloneProducts(profile.Favorites)
		e.hydrateErr = nil
		return nil, nil
	})
	return err
}

// EnsureHydrated hydrates the favorites once per session.
func (e *Engine) EnsureHydrated(ctx context.Context) error {
	e.mu.Lock()
	hydrated, closed, herr := e.hydrated, e.closed, e.hydrateErr
	e.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if hydrated {
		return herr
	}
	return e.Hydrate(ctx)
}

// Items returns the favorites in server order.
func (e *Engine) Items() []model.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneProducts(e.items)
}

// Contains reports whether productID is a favorite.
func (e *Engine) Contains(productID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return indexOf(e.items, productID) >= 0
}

// Toggle flips membership of product. It reports whether the product is a favorite afterwards.
func (e *Engine) Toggle(ctx context.Context, product model.Product) (bool, error) {
	if e.token == "" {
		return false, model.ErrAuthRequired
	}
	if product.ID == "" {
		return false, model.NewValidationError("Product is required")
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false, ErrClosed
	}
	if e.pending[product.ID] {
		e.mu.Unlock()
		return false, model.ErrLinePending
	}

	snapshot := cloneProducts(e.items)
	gen := e.gen
	idx := indexOf(e.items, product.ID)
	adding := idx < 0
	name := product.Name
	if adding {
		e.items = append(e.items, product)
	} else {
		if name == "" {
			name = e.items[idx].Name
		}
		e.items = append(e.items[:idx:idx], e.items[idx+1:]...)
	}
	e.pending[product.ID] = true
	e.mu.Unlock()

	var (
		server []model.Product
		err    error
	)
	if adding {
		server, err = e.remote.AddFavorite(ctx, e.token, product.ID)
	} else {
		server, err = e.remote.RemoveFavorite(ctx, e.token, product.ID)
	}

	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return false, ErrClosed
	}
	delete(e.pending, product.ID)
	if err != nil {
		e.items = restore(e.items, snapshot, product.ID)
		e.mu.Unlock()

		fallback := "Failed to update wishlist"
		if !adding {
			fallback = "Failed to remove from favorites"
		}
		msg := remote.Message(err, fallback)
		e.logger.Warn().Err(err).Str("product_id", product.ID).Bool("adding", adding).Msg("favorite toggle rolled back")
		e.feed.Error(msg)
		return !adding, &ToggleError{ProductID: product.ID, Message: msg, Err: err}
	}
	if server != nil {
		e.items = mergeServer(server, e.items, e.pending)
	}
	e.mu.Unlock()

	if adding {
		e.feed.Success(fmt.Sprintf("%s added to favorites", displayName(name)))
	} else {
		e.feed.Success(fmt.Sprintf("%s removed from favorites", displayName(name)))
	}
	return adding, nil
}

// MoveAllToCart adds every current favorite to the cart, one at a time, in size MoveSize.
// A failed item never stops the batch and the favorites themselves are left untouched.
func (e *Engine) MoveAllToCart(ctx context.Context) (BatchResult, error) {
	if e.token == "" {
		return BatchResult{}, model.ErrAuthRequired
	}

	items := e.Items()
	result := BatchResult{Outcomes: make([]Outcome, 0, len(items))}
	if len(items) == 0 {
		return result, nil
	}

	for _, product := range items {
		size := MoveSize
		outcome := Outcome{ProductID: product.ID, Name: product.Name}

		if err := e.cart.AddLineQuietly(ctx, product, 1, &size); err != nil {
			outcome.Message = remote.Message(err, err.Error())
			result.Failed++
			e.logger.Warn().Err(err).Str("product_id", product.ID).Msg("failed to move favorite to cart")
		} else {
			outcome.Added = true
			result.Succeeded++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if result.Succeeded > 0 {
		e.feed.Success(fmt.Sprintf("%d item(s) added to cart!", result.Succeeded))
	}
	if result.Failed > 0 {
		e.feed.Error(fmt.Sprintf("Failed to add %d item(s) to cart", result.Failed))
	}
	return result, nil
}

// Reset ends the engine at logout.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.gen++
	e.items = []model.Product{}
	e.pending = make(map[string]bool)
}

// ToggleError reports a toggle that was rolled back.
type ToggleError struct {
	ProductID string
	Message   string
	Err       error
}

func (e *ToggleError) Error() string {
	return e.Message
}

func (e *ToggleError) Unwrap() error {
	return e.Err
}

// restore puts productID back to its membership in snapshot, leaving other products as they are.
func restore(current, snapshot []model.Product, productID string) []model.Product {
	idx := indexOf(snapshot, productID)
	out := make([]model.Product, 0, len(current)+1)
	for _, p := range current {
		if p.ID != productID {
			out = append(out, p)
		}
	}
	if idx < 0 {
		return out
	}
	product := snapshot[idx]
	at := min(idx, len(out))
	return slices.Insert(out, at, product)
}

// mergeServer adopts the server list but keeps the optimistic membership of toggles still in flight.
func mergeServer(server, local []model.Product, pending map[string]bool) []model.Product {
	out := make([]model.Product, 0, len(server))
	for _, p := range server {
		if pending[p.ID] && indexOf(local, p.ID) < 0 {
			continue
		}
		out = append(out, p)
	}
	for _, p := range local {
		if pending[p.ID] && indexOf(out, p.ID) < 0 {
			out = append(out, p)
		}
	}
	return out
}

func indexOf(items []model.Product, productID string) int {
	for i, p := range items {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

func cloneProducts(items []model.Product) []model.Product {
	out := make([]model.Product, len(items))
	copy(out, items)
	return out
}

func displayName(name string) string {
	if name == "" {
		return "Item"
	}
	return name
}
