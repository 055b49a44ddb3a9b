package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/favorites"
	"storefront/internal/model"
	"storefront/internal/notify"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Remote is everything a workspace needs from the store service.
type Remote interface {
	cart.Remote
	favorites.Remote
	checkout.Remote
}

// Workspace is the client state of one signed-in session.
type Workspace struct {
	ID        string
	Identity  Identity
	Feed      *notify.Feed
	Cart      *cart.Engine
	Favorites *favorites.Engine
	Checkout  *checkout.Controller

	lastSeen time.Time
}

func (w *Workspace) close() {
	w.Checkout.Reset()
	w.Favorites.Reset()
	w.Cart.Reset()
	w.Feed.Clear()
}

// Settings configures a Manager.
type Settings struct {
	TTL     time.Duration
	Payment checkout.Settings
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLedger records checkouts in ledger.
func WithLedger(ledger checkout.Ledger) ManagerOption {
	return func(m *Manager) { m.ledger = ledger }
}

// WithDeliverability restricts checkout to serviceable pincodes.
func WithDeliverability(d checkout.Deliverability) ManagerOption {
	return func(m *Manager) { m.delivery = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithFeedOptions is applied to every workspace's notification feed.
func WithFeedOptions(opts ...notify.Option) ManagerOption {
	return func(m *Manager) { m.feedOpts = opts }
}

// Manager maps session ids to workspaces. Identities live in the Store; workspaces are built
// lazily in memory, so a restarted process rebuilds them from the store service on first use.
type Manager struct {
	store    Store
	remote   Remote
	ledger   checkout.Ledger
	delivery checkout.Deliverability
	settings Settings
	logger   zerolog.Logger
	now      func() time.Time
	feedOpts []notify.Option

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewManager creates a session manager.
func NewManager(store Store, remote Remote, settings Settings, logger zerolog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		remote:     remote,
		settings:   settings,
		logger:     logger.With().Str("component", "session").Logger(),
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session for identity and returns its workspace with the cart and favorites
// loaded. A failed load is logged and retried on next use.
func (m *Manager) Start(ctx context.Context, identity Identity) (*Workspace, error) {
	if identity.Token == "" {
		return nil, model.ErrAuthRequired
	}
	now := m.now()
	if identity.Expired(now) {
		return nil, model.ErrSessionNotFound
	}

	id := uuid.NewString()
	if err := m.store.Save(ctx, id, identity, identity.TTL(now, m.settings.TTL)); err != nil {
		return nil, fmt.Errorf("save session failed: %w", err)
	}

	ws := m.build(id, identity)
	m.mu.Lock()
	m.workspaces[id] = ws
	m.mu.Unlock()

	if err := ws.Cart.Hydrate(ctx); err != nil {
		m.logger.Warn().Err(err).Str("user_id", identity.UserID).Msg("initial cart load failed")
	}
	if err := ws.Favorites.Hydrate(ctx); err != nil {
		m.logger.Warn().Err(err).Str("user_id", identity.UserID).Msg("initial favorites load failed")
	}

	m.logger.Info().Str("user_id", identity.UserID).Msg("session started")
	return ws, nil
}

// Resolve returns the workspace for sessionID, rebuilding it from the store if this process has
// not seen the session yet.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (*Workspace, error) {
	if sessionID == "" {
		return nil, model.ErrAuthRequired
	}
	now := m.now()

	m.mu.Lock()
	ws, ok := m.workspaces[sessionID]
	if ok {
		if ws.Identity.Expired(now) {
			delete(m.workspaces, sessionID)
			m.mu.Unlock()
			ws.close()
			m.forget(ctx, sessionID)
			return nil, model.ErrSessionNotFound
		}
		ws.lastSeen = now
		m.mu.Unlock()
		return ws, nil
	}
	m.mu.Unlock()

	identity, err := m.store.Load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session failed: %w", err)
	}
	if identity.Expired(now) {
		m.forget(ctx, sessionID)
		return nil, model.ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.workspaces[sessionID]; ok {
		existing.lastSeen = now
		return existing, nil
	}
	ws = m.build(sessionID, *identity)
	m.workspaces[sessionID] = ws
	return ws, nil
}

// End logs a session out. All in-flight work of the workspace is discarded.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	ws, ok := m.workspaces[sessionID]
	delete(m.workspaces, sessionID)
	m.mu.Unlock()

	if ok {
		ws.close()
	}
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	return nil
}

// Sweep drops in-memory workspaces whose identity expired or that were idle longer than the
// session TTL. The identity stays in the store until its own TTL passes.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var stale []*Workspace
	for id, ws := range m.workspaces {
		if ws.Identity.Expired(now) || now.Sub(ws.lastSeen) > m.settings.TTL {
			stale = append(stale, ws)
			delete(m.workspaces, id)
		}
	}
	m.mu.Unlock()

	for _, ws := range stale {
		ws.close()
	}
	if len(stale) > 0 {
		m.logger.Debug().Int("count", len(stale)).Msg("swept idle workspaces")
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Active returns how many workspaces are held in memory.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

func (m *Manager) build(id string, identity Identity) *Workspace {
	logger := m.logger.With().Str("user_id", identity.UserID).Logger()
	feed := notify.NewFeed(m.feedOpts...)
	cartEngine := cart.New(identity.Token, m.remote, feed, logger)
	favEngine := favorites.New(identity.Token, m.remote, cartEngine, feed, logger)
	controller := checkout.NewController(checkout.Customer{
		Token:  identity.Token,
		UserID: identity.UserID,
		Name:   identity.Name,
		Email:  identity.Email,
	}, m.remote, cartEngine, m.ledger, m.delivery, m.settings.Payment, logger)

	return &Workspace{
		ID:        id,
		Identity:  identity,
		Feed:      feed,
		Cart:      cartEngine,
		Favorites: favEngine,
		Checkout:  controller,
		lastSeen:  m.now(),
	}
}

func (m *Manager) forget(ctx context.Context, sessionID string) {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		m.logger.Warn().Err(err).Msg("failed to delete expired session")
	}
}
