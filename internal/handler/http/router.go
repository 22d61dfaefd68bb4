// Package http wires the storefront's HTTP surface: cart mirror, catalog,
// invoices, and the ambient product slideshow stream.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BadarHossain1/harris-vale-storefront/internal/backend"
	"github.com/BadarHossain1/harris-vale-storefront/internal/cart"
	"github.com/BadarHossain1/harris-vale-storefront/internal/catalog"
	"github.com/BadarHossain1/harris-vale-storefront/internal/event"
	"github.com/BadarHossain1/harris-vale-storefront/internal/identity"
	"github.com/BadarHossain1/harris-vale-storefront/internal/invoice"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/health"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/middleware"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	CartManager    *cart.Manager
	CartStore      *backend.CartStore
	Catalog        *catalog.Service
	Invoices       *invoice.Service
	Events         *event.Producer
	Health         *health.Handler
	Logger         *slog.Logger
	JWTSecret      string
	AllowedOrigins []string
	RateRPS        int
	RateBurst      int
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 60 * time.Second

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))

	corsCfg := middleware.DefaultCORSConfig()
	if len(deps.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = deps.AllowedOrigins
	}
	r.Use(middleware.CORS(corsCfg))

	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(deps.CartManager, deps.CartStore, deps.Events, deps.Logger)
	catalogHandler := NewCatalogHandler(deps.Catalog, deps.Logger)
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Logger)
	slideshowHandler := NewSlideshowHandler(deps.Catalog, deps.Logger)

	r.Route("/api/storefront", func(r chi.Router) {
		// The resolver must precede the request logger so actor_id lands in
		// the request-scoped log attributes.
		r.Use(identity.Resolver(deps.JWTSecret, deps.Logger))
		r.Use(middleware.RequestLogger(deps.Logger))
		r.Use(ContentTypeJSON)

		// The slideshow streams until the client disconnects, so it lives
		// outside the request timeout that wraps every other route.
		r.Get("/products/{id}/slideshow", slideshowHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(timeout))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)

			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/categories/{id}", catalogHandler.GetCategory)
			r.Put("/categories/{id}", catalogHandler.UpdateCategory)

			r.Route("/cart", func(r chi.Router) {
				// Mutations are rate limited per client IP; reads are not.
				limited := r.With(middleware.RateLimit(deps.RateRPS, deps.RateBurst, deps.Logger))

				r.Get("/", cartHandler.GetCart)
				limited.Delete("/", cartHandler.ClearCart)
				limited.Post("/items", cartHandler.AddItem)
				limited.Patch("/items/{lineId}", cartHandler.ChangeQuantity)
				limited.Delete("/items/{lineId}", cartHandler.RemoveItem)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/{orderId}/download", invoiceHandler.Download)
				r.Get("/{orderId}/preview", invoiceHandler.Preview)
				r.Post("/bulk", invoiceHandler.Bulk)
			})
		})
	})

	return r
}
