package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"b2b_marketplace_backend/internal/adapters/directory"
	"b2b_marketplace_backend/internal/adapters/orders"
	"b2b_marketplace_backend/internal/email"
	"b2b_marketplace_backend/internal/events"
	"b2b_marketplace_backend/internal/notification"
	"b2b_marketplace_backend/internal/quotes"
	"b2b_marketplace_backend/internal/quotes/service"
	"b2b_marketplace_backend/internal/scheduler"
	"b2b_marketplace_backend/platform/config"
	"b2b_marketplace_backend/platform/db"
	"b2b_marketplace_backend/platform/logger"
	"b2b_marketplace_backend/platform/redisclient"
	"b2b_marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Email is the only delivery channel from this process; SSE clients are
	// connected to the API.
	if cfg.GetEmailEnabled() && cfg.GetDirectoryServiceURL() != "" {
		sender, err := email.NewSender(cfg)
		if err != nil {
			log.Error("failed to initialize email sender", "error", err)
			panic("failed to initialize email sender: " + err.Error())
		}
		redisClient, err := redisclient.New(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer func() { _ = redisClient.Close() }()

		contacts := directory.New(
			directory.NewClient(cfg.GetDirectoryServiceURL(), cfg.GetServiceToken(), log),
			directory.NewRedisCache(redisClient), cfg.GetDirectoryCacheTTL(), log)
		notificationModule := notification.New(nil, log)
		notificationModule.SetEmail(sender, contacts, cfg.GetAppBaseURL())
		notificationModule.RegisterHandlers(eventBus)
	}

	// Worker-side quote wiring (no HTTP handlers required).
	orderClient := orders.New(cfg.GetOrdersServiceURL(), cfg.GetServiceToken(), log)
	quotesModule := quotes.NewModule(pool, orderClient, eventBus, validator.New(), log, service.SettingsFromConfig(cfg))

	reminders, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = reminders.Close() }()
	quotesModule.Service().SetReminderScheduler(reminders)

	worker, err := scheduler.NewWorker(cfg, quotesModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
