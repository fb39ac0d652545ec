package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/mealdash-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/mealdash-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/mealdash-backend/api/controllers/orders"
	schedulecontrollers "github.com/angelmondragon/mealdash-backend/api/controllers/schedules"
	walletcontrollers "github.com/angelmondragon/mealdash-backend/api/controllers/wallets"
	"github.com/angelmondragon/mealdash-backend/api/middleware"
	"github.com/angelmondragon/mealdash-backend/internal/cart"
	"github.com/angelmondragon/mealdash-backend/internal/notifications"
	"github.com/angelmondragon/mealdash-backend/internal/orders"
	"github.com/angelmondragon/mealdash-backend/internal/pricing"
	"github.com/angelmondragon/mealdash-backend/internal/schedules"
	"github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/mealdash-backend/pkg/redis"
)

// Params carries everything the API router wires into handlers.
type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	Gatherer      prometheus.Gatherer
	HTTPMetrics   *metrics.HTTPMetrics
	Dependencies  []controllers.Dependency
	Idempotency   pkgredis.IdempotencyStore
	RateLimiter   pkgredis.RateLimiter
	Cart          cart.Service
	Pricing       pricing.Service
	Orders        orders.Service
	Schedules     schedules.Service
	Wallets       wallets.Service
	Notifications notifications.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	idempotent := middleware.Idempotency(p.Idempotency, middleware.DefaultIdempotencyTTL, logg)
	critical := middleware.Idempotency(p.Idempotency, middleware.CriticalIdempotencyTTL, logg)
	checkoutLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutLimit),
		p.RateLimiter,
		logg,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Dependencies...))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleUser))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(p.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(p.Cart, logg))
				r.Get("/delivery-quote", cartcontrollers.DeliveryQuote(p.Pricing, logg))
				r.Post("/items", cartcontrollers.CartAddItem(p.Cart, logg))
				r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(p.Cart, logg))
				r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(p.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(checkoutLimit, critical).Post("/", ordercontrollers.Checkout(p.Orders, logg))
				r.Get("/", ordercontrollers.List(p.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(p.Orders, logg))
				r.Get("/{orderId}/schedules", schedulecontrollers.ForOrder(p.Orders, p.Schedules, logg))
				r.With(critical).Post("/{orderId}/cancel", ordercontrollers.Cancel(p.Orders, logg))
			})
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleVendor))
			r.Get("/schedules", schedulecontrollers.ListForVendor(p.Schedules, logg))
			r.With(idempotent).Post("/schedules/{scheduleId}/status", schedulecontrollers.UpdateAsVendor(p.Schedules, logg))
			r.Get("/orders", ordercontrollers.VendorList(p.Orders, logg))
			r.Get("/wallet", walletcontrollers.Mine(p.Wallets, enums.WalletOwnerVendor, logg))
		})

		r.Route("/partner", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleDeliveryPartner))
			r.Get("/schedules", schedulecontrollers.ListForPartner(p.Schedules, logg))
			r.With(idempotent).Post("/schedules/{scheduleId}/status", schedulecontrollers.UpdateAsPartner(p.Schedules, logg))
			r.Get("/wallet", walletcontrollers.Mine(p.Wallets, enums.WalletOwnerDeliveryPartner, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

		r.With(idempotent).Post("/schedules/{scheduleId}/status", schedulecontrollers.UpdateAsAdmin(p.Schedules, logg))
		r.With(idempotent).Post("/schedules/{scheduleId}/assign", schedulecontrollers.AssignPartner(p.Schedules, logg))
		r.Get("/wallets/{walletId}", walletcontrollers.AdminGet(p.Wallets, logg))
		r.With(critical).Post("/wallets/{walletId}/debit", walletcontrollers.AdminDebit(p.Wallets, logg))
	})

	return r
}
