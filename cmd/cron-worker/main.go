package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/mealdash-backend/internal/cron"
	"github.com/angelmondragon/mealdash-backend/internal/notifications"
	"github.com/angelmondragon/mealdash-backend/internal/schedules"
	"github.com/angelmondragon/mealdash-backend/internal/settlement"
	"github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/db"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/metrics"
	"github.com/angelmondragon/mealdash-backend/pkg/migrate"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
	"github.com/angelmondragon/mealdash-backend/pkg/redis"
)

const lockNameFormat = "cron-worker:%s"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("job", "", "run the named job once and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	registry, err := buildRegistry(cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockName(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"lock_key":    lock.Key(),
	})

	if *only != "" {
		if err := service.RunJob(ctx, *only); err != nil {
			logg.Error(ctx, "cron job failed", err)
			os.Exit(1)
		}
		return
	}

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	go func() {
		if err := metrics.Serve(ctx, metrics.ListenAddr(cfg.App.Port), prometheus.DefaultGatherer, logg); err != nil {
			logg.Error(ctx, "metrics listener failed", err)
		}
	}()

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (*cron.Registry, error) {
	conn := dbClient.DB()
	outboxRepo := outbox.NewRepository(conn)
	outboxSvc := outbox.NewService(outboxRepo, logg)

	walletSvc, err := wallets.NewService(wallets.NewRepository(conn), dbClient, outboxSvc, logg)
	if err != nil {
		return nil, err
	}
	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		Repository: settlement.NewRepository(conn),
		Wallets:    walletSvc,
		Outbox:     outboxSvc,
		Metrics:    metrics.NewSettlementMetrics(prometheus.DefaultRegisterer),
		Logger:     logg,
	})
	if err != nil {
		return nil, err
	}
	scheduleSvc, err := schedules.NewService(schedules.ServiceParams{
		Repository: schedules.NewRepository(conn),
		TxRunner:   dbClient,
		Outbox:     outboxSvc,
		Settlement: settlementSvc,
		Logger:     logg,
	})
	if err != nil {
		return nil, err
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	missed, err := cron.NewMissedSchedulesJob(cron.MissedSchedulesJobParams{
		Logger:    logg,
		Schedules: scheduleSvc,
		GraceDays: cfg.Cron.MissedGraceDays,
	})
	if err != nil {
		return nil, err
	}
	reconcile, err := cron.NewWalletReconcileJob(cron.WalletReconcileJobParams{
		Logger:  logg,
		Wallets: walletSvc,
		Metrics: metrics.NewWalletMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outboxRepo,
		Retention:   cfg.Cron.OutboxRetentionDays,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	cleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:        logg,
		Notifications: notificationSvc,
		Retention:     cfg.Cron.NotificationTTLDays,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(missed, reconcile, retention, cleanup)
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockNameFormat, env)
}
