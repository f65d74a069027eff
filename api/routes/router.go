package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/swayaa-dev/storefront-backend/api/controllers"
	"github.com/swayaa-dev/storefront-backend/api/middleware"
	"github.com/swayaa-dev/storefront-backend/internal/auth"
	cartsvc "github.com/swayaa-dev/storefront-backend/internal/cart"
	checkoutsvc "github.com/swayaa-dev/storefront-backend/internal/checkout"
	"github.com/swayaa-dev/storefront-backend/internal/contact"
	"github.com/swayaa-dev/storefront-backend/internal/orders"
	product "github.com/swayaa-dev/storefront-backend/internal/products"
	"github.com/swayaa-dev/storefront-backend/internal/users"
	"github.com/swayaa-dev/storefront-backend/pkg/auth/session"
	"github.com/swayaa-dev/storefront-backend/pkg/config"
	"github.com/swayaa-dev/storefront-backend/pkg/db"
	"github.com/swayaa-dev/storefront-backend/pkg/logger"
	"github.com/swayaa-dev/storefront-backend/pkg/redis"
)

// Deps bundles everything the router needs. cmd/api builds one of these
// after wiring the services.
type Deps struct {
	Cfg          *config.Config
	Logg         *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Sessions     session.AccessSessionChecker
	AuthService  auth.Service
	UsersService users.Service
	Products     product.Service
	Cart         cartsvc.Service
	Checkout     checkoutsvc.Service
	Orders       orders.Service
	Contact      contact.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Cfg
	logg := d.Logg

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, d.Redis, logg),
			middleware.Idempotency(d.Redis, logg),
		).Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, d.Sessions, logg)).Post("/logout", controllers.AuthLogout(d.AuthService, logg))
	})

	// Catalog browsing is public.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(d.Products, logg))
		r.Get("/search", controllers.ProductsSearch(d.Products, logg))
		r.Get("/{productID}", controllers.ProductGet(d.Products, logg))
	})

	r.Post("/api/v1/contact", controllers.ContactSubmit(d.Contact, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UsersMe(d.UsersService, logg))
			r.Patch("/me", controllers.UsersUpdateMe(d.UsersService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(d.Cart, logg))
			r.Post("/items", controllers.CartAddItem(d.Cart, logg))
			r.Patch("/items/{itemID}", controllers.CartUpdateItem(d.Cart, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(d.Cart, logg))
			r.Delete("/", controllers.CartClear(d.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(d.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(d.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(d.Orders, logg))
		})
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(d.Products, logg))
			r.Patch("/{productID}", controllers.AdminProductUpdate(d.Products, logg))
			r.Delete("/{productID}", controllers.AdminProductDelete(d.Products, logg))
		})
		r.Patch("/orders/{orderID}/status", controllers.AdminOrderUpdateStatus(d.Orders, logg))
	})

	return r
}
