package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mealdash-backend/api/controllers"
	"github.com/angelmondragon/mealdash-backend/api/routes"
	"github.com/angelmondragon/mealdash-backend/internal/cart"
	"github.com/angelmondragon/mealdash-backend/internal/notifications"
	"github.com/angelmondragon/mealdash-backend/internal/orders"
	"github.com/angelmondragon/mealdash-backend/internal/pricing"
	"github.com/angelmondragon/mealdash-backend/internal/schedules"
	"github.com/angelmondragon/mealdash-backend/internal/settlement"
	"github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/db"
	"github.com/angelmondragon/mealdash-backend/pkg/instance"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/maps"
	"github.com/angelmondragon/mealdash-backend/pkg/metrics"
	"github.com/angelmondragon/mealdash-backend/pkg/migrate"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
	"github.com/angelmondragon/mealdash-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	params, err := buildRouterParams(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}
	params.Idempotency = redisClient
	params.RateLimiter = redisClient
	params.Dependencies = []controllers.Dependency{
		{Name: "database", Ping: dbClient.Ping},
		{Name: "redis", Ping: redisClient.Ping},
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func buildRouterParams(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (routes.Params, error) {
	conn := dbClient.DB()
	reg := prometheus.DefaultRegisterer
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	cartSvc, err := cart.NewService(cart.NewRepository(conn), dbClient, logg)
	if err != nil {
		return routes.Params{}, err
	}

	walletSvc, err := wallets.NewService(wallets.NewRepository(conn), dbClient, outboxSvc, logg)
	if err != nil {
		return routes.Params{}, err
	}
	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		Repository: settlement.NewRepository(conn),
		Wallets:    walletSvc,
		Outbox:     outboxSvc,
		Metrics:    metrics.NewSettlementMetrics(reg),
		Logger:     logg,
	})
	if err != nil {
		return routes.Params{}, err
	}

	scheduleRepo := schedules.NewRepository(conn)
	scheduleSvc, err := schedules.NewService(schedules.ServiceParams{
		Repository: scheduleRepo,
		TxRunner:   dbClient,
		Outbox:     outboxSvc,
		Settlement: settlementSvc,
		Logger:     logg,
	})
	if err != nil {
		return routes.Params{}, err
	}
	generator, err := schedules.NewGenerator(scheduleRepo)
	if err != nil {
		return routes.Params{}, err
	}

	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(conn),
		TxRunner:   dbClient,
		Outbox:     outboxSvc,
		Generator:  generator,
		Logger:     logg,
	})
	if err != nil {
		return routes.Params{}, err
	}

	fallback, err := decimal.NewFromString(cfg.Pricing.FallbackBaseCharge)
	if err != nil {
		return routes.Params{}, err
	}
	pricingParams := pricing.ServiceParams{DB: conn, FallbackBaseCharge: fallback, Logger: logg}
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey,
			maps.WithBaseURL(cfg.GoogleMaps.BaseURL),
			maps.WithTimeout(cfg.GoogleMaps.Timeout),
		)
		if err != nil {
			return routes.Params{}, err
		}
		pricingParams.Distance = mapsClient
	} else {
		logg.Warn(context.Background(), "google maps api key not set; delivery quotes use the fallback charge")
	}
	pricingSvc, err := pricing.NewService(pricingParams)
	if err != nil {
		return routes.Params{}, err
	}

	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Params{}, err
	}

	return routes.Params{
		Config:        cfg,
		Logger:        logg,
		Gatherer:      prometheus.DefaultGatherer,
		HTTPMetrics:   metrics.NewHTTPMetrics(reg),
		Cart:          cartSvc,
		Pricing:       pricingSvc,
		Orders:        orderSvc,
		Schedules:     scheduleSvc,
		Wallets:       walletSvc,
		Notifications: notificationSvc,
	}, nil
}
