package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	accesscontroller "github.com/moaz267/furniture/internal/access/controller"
	"github.com/moaz267/furniture/internal/access/guard"
	authcontroller "github.com/moaz267/furniture/internal/auth/controller"
	cartcontroller "github.com/moaz267/furniture/internal/cart/controller"
	checkoutcontroller "github.com/moaz267/furniture/internal/checkout/controller"
	contactcontroller "github.com/moaz267/furniture/internal/contact/controller"
	"github.com/moaz267/furniture/internal/i18n"
	"github.com/moaz267/furniture/internal/infrastructure/httpjson"
	ordercontroller "github.com/moaz267/furniture/internal/order/controller"
	productcontroller "github.com/moaz267/furniture/internal/product/controller"
	"github.com/moaz267/furniture/internal/session"
)

// Guard authenticates admin requests and gates them by capability.
type Guard interface {
	Middleware(next http.Handler) http.Handler
	Require(capability guard.Capability) func(http.Handler) http.Handler
}

// BlobRoutes serves stored objects outside the API prefix.
type BlobRoutes interface {
	Routes(r chi.Router)
}

type Handlers struct {
	Catalog       *productcontroller.CatalogController
	AdminProducts *productcontroller.AdminProductController
	Cart          *cartcontroller.CartController
	Checkout      *checkoutcontroller.CheckoutController
	Orders        *ordercontroller.AdminOrderController
	Contact       *contactcontroller.ContactController
	Auth          *authcontroller.AuthController
	Access        *accesscontroller.AccessController
	Blobs         BlobRoutes
	Guard         Guard
	SecureCookies bool
}

func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	})

	if h.Blobs != nil {
		h.Blobs.Routes(r)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(i18n.Middleware)

		h.Catalog.Routes(api)
		api.Post("/contact", h.Contact.Submit)

		api.Group(func(shopper chi.Router) {
			shopper.Use(session.Middleware(h.SecureCookies))
			shopper.Route("/cart", h.Cart.Routes)
			shopper.Route("/checkout", h.Checkout.Routes)
			shopper.Route("/auth", h.Auth.Routes)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(h.Guard.Middleware)
			h.Access.Routes(admin, h.Guard)
			h.Orders.Routes(admin, h.Guard)
			h.AdminProducts.Routes(admin, h.Guard)
			h.Contact.AdminRoutes(admin, h.Guard)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
