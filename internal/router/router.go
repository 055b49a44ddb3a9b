package router

import (
	"encoding/json"
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Favorites    *handler.FavoritesHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	Notification *handler.NotificationHandler
}

// Sessions resolves session ids and reports how many workspaces are live.
type Sessions interface {
	middleware.Resolver
	Active() int
}

// New creates the HTTP router with all routes and middleware configured.
func New(h Handlers, sessions Sessions, allowOrigins []string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS(allowOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "healthy",
			"sessions": sessions.Active(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/register", h.Auth.Register)
			r.Post("/google", h.Auth.Google)
			r.Post("/logout", h.Auth.Logout)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.List)
			r.Get("/search", h.Product.Search)
			r.Get("/suggest", h.Product.Suggest)
			r.Get("/{id}", h.Product.Get)
		})

		// Everything below belongs to a signed-in session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(sessions, logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.Get)
				r.Delete("/", h.Cart.Clear)
				r.Post("/lines", h.Cart.AddLine)
				r.Patch("/lines/{lineID}", h.Cart.UpdateLine)
				r.Delete("/lines/{lineID}", h.Cart.RemoveLine)
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", h.Favorites.List)
				r.Post("/move-to-cart", h.Favorites.MoveToCart)
				r.Post("/{productID}/toggle", h.Favorites.Toggle)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.Checkout.State)
				r.Get("/history", h.Checkout.History)
				r.Post("/begin", h.Checkout.Begin)
				r.Put("/shipping", h.Checkout.Shipping)
				r.Put("/payment", h.Checkout.Payment)
				r.Post("/edit/{step}", h.Checkout.Edit)
				r.Post("/submit", h.Checkout.Submit)
				r.Post("/payment/verify", h.Checkout.Verify)
				r.Post("/payment/abandon", h.Checkout.Abandon)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Order.List)
				r.Get("/{id}", h.Order.Get)
				r.Patch("/{id}/cancel", h.Order.Cancel)
				r.Patch("/{id}/status", h.Order.UpdateStatus)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Delete("/{id}", h.Notification.Dismiss)
			})
		})
	})

	return r
}
