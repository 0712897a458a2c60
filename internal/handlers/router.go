package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/heritage-handlooms/checkout-api/internal/config"
	"github.com/heritage-handlooms/checkout-api/internal/metrics"
	"github.com/heritage-handlooms/checkout-api/internal/middleware"
)

// Routes bundles the handlers mounted by NewRouter
type Routes struct {
	Health   *HealthHandler
	Products *ProductHandler
	Coupons  *CouponHandler
	Orders   *OrderHandler
	Carts    *CartHandler
	Admin    *AdminCouponHandler
}

// NewRouter builds the HTTP API. m may be nil, in which case /metrics is not served.
func NewRouter(routes Routes, auth config.AuthConfig, m *metrics.Metrics, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	if m != nil {
		r.Use(m.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", routes.Health.ServeHTTP)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/product", routes.Products.ListProducts)
		r.Get("/product/{productId}", routes.Products.GetProduct)

		r.Get("/coupon/{couponCode}", routes.Coupons.ValidateCoupon)

		r.Post("/quote", routes.Orders.Quote)
		r.Post("/order", routes.Orders.CreateOrder)
		r.Get("/order/{orderId}", routes.Orders.GetOrder)

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", routes.Carts.CreateCart)
			r.Route("/{cartId}", func(r chi.Router) {
				r.Get("/", routes.Carts.GetCart)
				r.Post("/items", routes.Carts.AddItem)
				r.Put("/items/{productId}", routes.Carts.SetQuantity)
				r.Delete("/items/{productId}", routes.Carts.RemoveItem)
				r.Post("/coupon", routes.Carts.ApplyCoupon)
				r.Delete("/coupon", routes.Carts.RemoveCoupon)
				r.Post("/checkout", routes.Carts.Checkout)
			})
		})

		r.Route("/admin/coupons", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(auth))
			r.Get("/", routes.Admin.List)
			r.Post("/", routes.Admin.Create)
			r.Get("/stats", routes.Admin.Stats)
			r.Post("/generate-code", routes.Admin.GenerateCode)
			r.Get("/{couponId}", routes.Admin.Get)
			r.Put("/{couponId}", routes.Admin.Update)
			r.Delete("/{couponId}", routes.Admin.Delete)
			r.Post("/{couponId}/toggle", routes.Admin.Toggle)
		})
	})

	return r
}
