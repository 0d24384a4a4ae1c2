package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/stockpilot/stockpilot/internal/app"
	"github.com/stockpilot/stockpilot/internal/inventory"
	"github.com/stockpilot/stockpilot/internal/observability"
	"github.com/stockpilot/stockpilot/internal/platform/cache"
	"github.com/stockpilot/stockpilot/internal/platform/db"
	"github.com/stockpilot/stockpilot/internal/replenish"
	"github.com/stockpilot/stockpilot/internal/shared"
	"github.com/stockpilot/stockpilot/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	location, err := cfg.Location()
	if err != nil {
		logger.Error("resolve scheduler timezone", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	inventoryRepo := inventory.NewRepository(pool)
	replenishRepo := replenish.NewRepository(pool)

	notifier := replenish.NewMailNotifier(jobClient, cfg.Recipients())
	locks := replenish.NewRedisLockManager(redisClient)

	var replenishService *replenish.Service
	policyProvider := inventory.PolicyProvider(policyProviderFunc(func(ctx context.Context, sku string) (inventory.PolicyView, error) {
		return replenishService.View(ctx, sku)
	}))
	inventoryService := inventory.NewService(inventoryRepo, policyProvider, logger, cfg.ForecastHorizon)
	replenishService = replenish.NewService(replenishRepo, replenishRepo, inventoryRepo, inventoryService, notifier, auditLogger, locks, logger)

	scheduler := replenish.NewScheduler(replenishRepo, replenishService, logger, metrics, location, cfg.ScanConcurrency)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Location:  location,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReplenishScan, Handler: scheduler.HandleScan},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "* * * * *", Task: jobs.NewReplenishScanTask(), Options: []asynq.Option{asynq.MaxRetry(0)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// policyProviderFunc adapts a closure to inventory.PolicyProvider so the
// mutually-referencing inventory and replenish services can be wired.
type policyProviderFunc func(ctx context.Context, sku string) (inventory.PolicyView, error)

func (f policyProviderFunc) View(ctx context.Context, sku string) (inventory.PolicyView, error) {
	return f(ctx, sku)
}
