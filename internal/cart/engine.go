// Package cart keeps a session's visible cart consistent with the store service under
// optimistic, concurrently dispatched mutations.
//
// The visible cart is the last cart confirmed by the server with the overlay of every
// in-flight mutation re-applied in dispatch order. A successful mutation adopts the cart the
// server returns; a failed one drops its overlay, which restores the cart to what it was just
// before the mutation was applied.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/pricing"
	"storefront/internal/remote"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ClearPrompt is the question put to the user before the cart is emptied.
const ClearPrompt = "Are you sure you want to clear your cart?"

// provisionalPrefix marks line ids the server has not assigned yet.
const provisionalPrefix = "pending-"

// ErrClosed is returned once the engine has been reset at logout.
var ErrClosed = errors.New("cart session has ended")

// Remote is the part of the store service the cart talks to.
type Remote interface {
	GetProfile(ctx context.Context, token string) (*model.Profile, error)
	AddCartItem(ctx context.Context, token, productID string, quantity int, size *string) ([]model.CartLine, error)
	UpdateCartItem(ctx context.Context, token, lineID string, quantity int) ([]model.CartLine, error)
	RemoveCartItem(ctx context.Context, token, lineID string) ([]model.CartLine, error)
	ClearCart(ctx context.Context, token string) ([]model.CartLine, error)
}

// Confirm asks the user a yes/no question.
type Confirm func(prompt string) bool

// MutationError reports a mutation that reached the server and was rolled back.
type MutationError struct {
	Kind    Kind
	LineID  string
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	return e.Message
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a callback for every mutation state transition.
func WithObserver(fn func(Transition)) Option {
	return func(e *Engine) { e.observe = fn }
}

// WithIDGenerator replaces the generator of provisional line ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// Engine owns one session's cart. It is safe for concurrent use.
type Engine struct {
	token   string
	remote  Remote
	feed    *notify.Feed
	logger  zerolog.Logger
	observe func(Transition)
	newID   func() string
	group   singleflight.Group

	mu         sync.Mutex
	confirmed  []model.CartLine
	inflight   []*mutation
	busyLines  map[string]*mutation
	busyKeys   map[string]*mutation
	clearing   *mutation
	seq        uint64
	gen        uint64
	closed     bool
	hydrated   bool
	hydrateErr error
}

// New creates an engine for the user holding token. An empty token means no identity.
func New(token string, remote Remote, feed *notify.Feed, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		token:     token,
		remote:    remote,
		feed:      feed,
		logger:    logger.With().Str("component", "cart").Logger(),
		newID:     uuid.NewString,
		confirmed: []model.CartLine{},
		busyLines: make(map[string]*mutation),
		busyKeys:  make(map[string]*mutation),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hydrate replaces the confirmed cart with the server's. Concurrent calls share one request.
// On failure the cart degrades to empty and the error is returned for a passive banner.
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
			e.logger.Error().Err(err).Msg("failed to load cart")
			e.confirmed = []model.CartLine{}
			e.hydrateErr = err
			return nil, err
		}

		e.adoptLocked(profile.Cart)
		e.hydrateErr = nil
		e.logger.Debug().Int("lines", len(e.confirmed)).Msg("cart hydrated")
		return nil, nil
	})
	return err
}

// EnsureHydrated hydrates the cart once per session.
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

// AddLine adds quantity units of product in size, merging into a matching line.
func (e *Engine) AddLine(ctx context.Context, product model.Product, quantity int, size *string) error {
	return e.add(ctx, product, quantity, size, true)
}

// AddLineQuietly is AddLine without user notifications, for batch callers that post their own summary.
func (e *Engine) AddLineQuietly(ctx context.Context, product model.Product, quantity int, size *string) error {
	return e.add(ctx, product, quantity, size, false)
}

func (e *Engine) add(ctx context.Context, product model.Product, quantity int, size *string, announce bool) error {
	if e.token == "" {
		return model.ErrAuthRequired
	}
	if product.ID == "" {
		return model.NewValidationError("Product is required")
	}
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	key := model.LineKey(product.ID, size)

	e.mu.Lock()
	if err := e.admitLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if _, busy := e.busyKeys[key]; busy {
		e.mu.Unlock()
		return model.ErrLinePending
	}

	lineID := ""
	for _, line := range e.visibleLocked() {
		if line.MatchKey() == key {
			lineID = line.ID
			break
		}
	}
	if lineID != "" {
		if _, busy := e.busyLines[lineID]; busy {
			e.mu.Unlock()
			return model.ErrLinePending
		}
	} else {
		lineID = provisionalPrefix + e.newID()
	}

	m := &mutation{
		kind:     KindAdd,
		lineID:   lineID,
		key:      key,
		product:  product,
		quantity: quantity,
		size:     size,
		base:     keyQuantity(e.confirmed, key),
	}
	t := e.dispatchLocked(m)
	e.mu.Unlock()
	e.emit(t)

	server, err := e.remote.AddCartItem(ctx, e.token, product.ID, quantity, size)
	if err := e.settle(m, server, err, "Failed to add to cart", announce); err != nil {
		return err
	}

	if announce {
		e.feed.Success(fmt.Sprintf("%s added to cart!", displayName(product.Name)))
	}
	return nil
}

// UpdateQuantity sets a line's quantity. A quantity below one removes the line.
func (e *Engine) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity < 1 {
		return e.RemoveLine(ctx, lineID)
	}
	if e.token == "" {
		return model.ErrAuthRequired
	}

	e.mu.Lock()
	line, err := e.targetLocked(lineID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if line.Quantity == quantity {
		e.mu.Unlock()
		return nil
	}

	m := &mutation{kind: KindUpdate, lineID: lineID, quantity: quantity, product: line.Product}
	t := e.dispatchLocked(m)
	e.mu.Unlock()
	e.emit(t)

	server, err := e.remote.UpdateCartItem(ctx, e.token, lineID, quantity)
	return e.settle(m, server, err, "Failed to update quantity. Please try again.", true)
}

// RemoveLine deletes a line.
func (e *Engine) RemoveLine(ctx context.Context, lineID string) error {
	if e.token == "" {
		return model.ErrAuthRequired
	}

	e.mu.Lock()
	line, err := e.targetLocked(lineID)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	m := &mutation{kind: KindRemove, lineID: lineID, product: line.Product}
	t := e.dispatchLocked(m)
	e.mu.Unlock()
	e.emit(t)

	server, err := e.remote.RemoveCartItem(ctx, e.token, lineID)
	if err := e.settle(m, server, err, "Failed to remove item. Please try again.", true); err != nil {
		return err
	}

	e.feed.Success(fmt.Sprintf("%s removed from cart", displayName(line.Product.Name)))
	return nil
}

// ClearCart empties the cart after confirm approves ClearPrompt.
func (e *Engine) ClearCart(ctx context.Context, confirm Confirm) error {
	if e.token == "" {
		return model.ErrAuthRequired
	}
	if confirm == nil || !confirm(ClearPrompt) {
		return model.ErrNotConfirmed
	}

	e.mu.Lock()
	if err := e.admitLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if len(e.inflight) > 0 {
		e.mu.Unlock()
		return model.ErrLinePending
	}
	if len(e.confirmed) == 0 {
		e.mu.Unlock()
		return nil
	}

	m := &mutation{kind: KindClear}
	t := e.dispatchLocked(m)
	e.clearing = m
	e.mu.Unlock()
	e.emit(t)

	server, err := e.remote.ClearCart(ctx, e.token)
	if err := e.settle(m, server, err, "Failed to clear cart. Please try again.", true); err != nil {
		return err
	}

	e.feed.Success("Cart cleared successfully")
	return nil
}

// Lines returns a copy of the visible cart.
func (e *Engine) Lines() []model.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visibleLocked()
}

// Confirmed returns a copy of the cart as last confirmed by the server, without pending overlays.
func (e *Engine) Confirmed() []model.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.CloneLines(e.confirmed)
}

// Breakdown derives the price breakdown of the visible cart.
func (e *Engine) Breakdown() model.PriceBreakdown {
	return pricing.Compute(e.Lines())
}

// Pending returns the ids of lines with an outstanding mutation, in dispatch order.
func (e *Engine) Pending() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingLocked()
}

// View returns the visible cart, its breakdown and the pending line ids from one consistent read.
func (e *Engine) View() model.CartView {
	e.mu.Lock()
	lines := e.visibleLocked()
	pending := e.pendingLocked()
	e.mu.Unlock()

	return model.CartView{
		Lines:     lines,
		Breakdown: pricing.Compute(lines),
		Pending:   pending,
	}
}

// HydrateError returns the error of the last hydration, if it failed.
func (e *Engine) HydrateError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hydrateErr
}

// ForgetLocal drops the locally cached cart after an order was placed. The next read
// re-hydrates from the server.
func (e *Engine) ForgetLocal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmed = []model.CartLine{}
	e.hydrated = false
	e.hydrateErr = nil
}

// Reset ends the engine at logout. Responses to mutations still in flight are discarded.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.gen++
	e.confirmed = []model.CartLine{}
	e.inflight = nil
	e.busyLines = make(map[string]*mutation)
	e.busyKeys = make(map[string]*mutation)
	e.clearing = nil
}

func (e *Engine) admitLocked() error {
	if e.closed {
		return ErrClosed
	}
	if e.clearing != nil {
		return model.ErrLinePending
	}
	return nil
}

// targetLocked resolves an existing, idle line for update or removal.
func (e *Engine) targetLocked(lineID string) (model.CartLine, error) {
	if err := e.admitLocked(); err != nil {
		return model.CartLine{}, err
	}
	if _, busy := e.busyLines[lineID]; busy {
		return model.CartLine{}, model.ErrLinePending
	}
	for _, line := range e.visibleLocked() {
		if line.ID == lineID {
			return line, nil
		}
	}
	return model.CartLine{}, model.ErrLineNotFound
}

func (e *Engine) dispatchLocked(m *mutation) Transition {
	e.seq++
	m.seq = e.seq
	m.gen = e.gen
	m.snapshot = e.visibleLocked()

	e.inflight = append(e.inflight, m)
	if m.lineID != "" {
		e.busyLines[m.lineID] = m
	}
	if m.key != "" {
		e.busyKeys[m.key] = m
	}
	return m.transition(StatePending)
}

// settle reconciles or rolls back m. It returns a *MutationError on rollback.
func (e *Engine) settle(m *mutation, server []model.CartLine, callErr error, fallback string, announce bool) error {
	e.mu.Lock()
	if e.closed || m.gen != e.gen {
		t := m.transition(StateDiscarded)
		e.mu.Unlock()
		e.emit(t)
		e.logger.Debug().Str("kind", string(m.kind)).Msg("discarding late cart response")
		return ErrClosed
	}

	e.releaseLocked(m)

	var t Transition
	if callErr == nil {
		e.adoptLocked(server)
		t = m.transition(StateReconciled)
	} else {
		t = m.transition(StateRolledBack)
	}
	e.mu.Unlock()
	e.emit(t)

	if callErr == nil {
		return nil
	}

	msg := remote.Message(callErr, fallback)
	e.logger.Warn().
		Err(callErr).
		Str("kind", string(m.kind)).
		Str("line_id", m.lineID).
		Msg("cart mutation rolled back")
	if announce {
		e.feed.Error(msg)
	}

	return &MutationError{Kind: m.kind, LineID: m.lineID, Message: msg, Err: callErr}
}

func (e *Engine) releaseLocked(m *mutation) {
	for i, other := range e.inflight {
		if other == m {
			e.inflight = append(e.inflight[:i], e.inflight[i+1:]...)
			break
		}
	}
	if e.busyLines[m.lineID] == m {
		delete(e.busyLines, m.lineID)
	}
	if m.absorbed != "" && e.busyLines[m.absorbed] == m {
		delete(e.busyLines, m.absorbed)
	}
	if e.busyKeys[m.key] == m {
		delete(e.busyKeys, m.key)
	}
	if e.clearing == m {
		e.clearing = nil
	}
}

func (e *Engine) visibleLocked() []model.CartLine {
	lines := model.CloneLines(e.confirmed)
	for _, m := range e.inflight {
		lines = m.apply(lines)
	}
	return lines
}

func (e *Engine) pendingLocked() []string {
	pending := []string{}
	for _, m := range e.inflight {
		if m.kind == KindClear {
			for _, line := range m.snapshot {
				pending = append(pending, line.ID)
			}
			continue
		}
		pending = append(pending, m.pendingID())
	}
	return pending
}

// adoptLocked takes server as the confirmed cart. In-flight adds the server cart already
// reflects stop being replayed, and their server line stays busy until they settle.
func (e *Engine) adoptLocked(server []model.CartLine) {
	e.confirmed = adopt(server)
	for _, m := range e.inflight {
		if m.absorb(e.confirmed) {
			e.busyLines[m.absorbed] = m
		}
	}
}

func (e *Engine) emit(t Transition) {
	if e.observe != nil {
		e.observe(t)
	}
}

// adopt takes the server cart as the new confirmed state, holding the quantity floor.
func adopt(server []model.CartLine) []model.CartLine {
	lines := model.CloneLines(server)
	for i := range lines {
		if lines[i].Quantity < 1 {
			lines[i].Quantity = 1
		}
	}
	return lines
}

func displayName(name string) string {
	if name == "" {
		return "Item"
	}
	return name
}
