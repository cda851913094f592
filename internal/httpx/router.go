package httpx

import (
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// NewRouter wires all handlers behind the shared middleware chain.
func NewRouter(userSvc user.Service, productSvc product.Service, orderSvc order.Service) *chi.Mux {
	r := chi.NewRouter()

	limiter := middleware.NewRateLimiter(rate.Limit(10), 20)

	r.Use(chimw.RealIP)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.Authenticate)
	r.Use(limiter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	(&UserHandler{Service: userSvc}).Register(r)
	(&ProductHandler{Service: productSvc}).Register(r)
	(&OrderHandler{Service: orderSvc}).Register(r)

	return r
}
