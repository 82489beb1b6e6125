package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"b2b_marketplace_backend/internal/adapters/directory"
	"b2b_marketplace_backend/internal/adapters/orders"
	"b2b_marketplace_backend/internal/adapters/storage"
	"b2b_marketplace_backend/internal/email"
	"b2b_marketplace_backend/internal/events"
	apphttp "b2b_marketplace_backend/internal/http"
	"b2b_marketplace_backend/internal/http/router"
	"b2b_marketplace_backend/internal/notification"
	"b2b_marketplace_backend/internal/notification/sse"
	"b2b_marketplace_backend/internal/quotes"
	"b2b_marketplace_backend/internal/quotes/service"
	"b2b_marketplace_backend/internal/scheduler"
	"b2b_marketplace_backend/migrations"
	"b2b_marketplace_backend/platform/config"
	"b2b_marketplace_backend/platform/db"
	"b2b_marketplace_backend/platform/lock"
	"b2b_marketplace_backend/platform/logger"
	"b2b_marketplace_backend/platform/redisclient"
	"b2b_marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout    = 10 * time.Second
	conversionLockKeys = "b2b:lock:"
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, store storage.ObjectStore, bucket string) {
	if err := withRetry(ctx, log, "ensure "+bucket+" bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// ========================================================================
	// Collaborators
	// ========================================================================

	if cfg.GetOrdersServiceURL() == "" {
		log.Warn("ORDERS_SERVICE_URL not configured; quote conversion will fail")
	}
	orderClient := orders.New(cfg.GetOrdersServiceURL(), cfg.GetServiceToken(), log)

	// ========================================================================
	// Domain Modules
	// ========================================================================

	quotesModule := quotes.NewModule(pool, orderClient, eventBus, val, log, service.SettingsFromConfig(cfg))
	quoteSvc := quotesModule.Service()

	if redisClient != nil {
		quoteSvc.SetConversionLocker(lock.NewRedisLocker(redisClient, conversionLockKeys))
	} else {
		log.Warn("REDIS_URL not configured; conversion lock is process-local")
	}

	partyDirectory := newDirectory(cfg, redisClient, log)
	if partyDirectory != nil {
		quoteSvc.SetPartyDirectory(partyDirectory)
	} else {
		log.Warn("DIRECTORY_SERVICE_URL not configured; party snapshots come from the caller only")
	}

	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage", "error", err)
			panic("failed to initialize storage: " + err.Error())
		}
		bucket := cfg.GetMinioBucketQuoteAttachments()
		ensureBucket(ctx, log, store, bucket)
		quoteSvc.SetAttachmentPresigner(storage.NewAttachmentPresigner(store, bucket))
	} else {
		log.Warn("MINIO_ENDPOINT not configured; attachment uploads disabled")
	}

	reminderClient, closeReminders := initReminderScheduler(cfg, log)
	if reminderClient != nil {
		quoteSvc.SetReminderScheduler(reminderClient)
		defer closeReminders()
	}

	hub := sse.New(log)
	notificationModule := notification.New(hub, log)
	notificationModule.RegisterHandlers(eventBus)
	initEmail(cfg, notificationModule, partyDirectory, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			quotesModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hub.Close()
		err := srv.Shutdown(shutdownCtx)
		eventBus.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newDirectory(cfg config.CollaboratorConfig, redisClient *redis.Client, log *logger.Logger) *directory.Directory {
	if cfg.GetDirectoryServiceURL() == "" {
		return nil
	}
	var cache directory.Cache = directory.NoopCache{}
	if redisClient != nil {
		cache = directory.NewRedisCache(redisClient)
	}
	source := directory.NewClient(cfg.GetDirectoryServiceURL(), cfg.GetServiceToken(), log)
	return directory.New(source, cache, cfg.GetDirectoryCacheTTL(), log)
}

func initEmail(cfg *config.Config, notificationModule *notification.Module, contacts *directory.Directory, log *logger.Logger) {
	if !cfg.GetEmailEnabled() {
		log.Info("email disabled; quote updates are delivered over SSE only")
		return
	}
	if contacts == nil {
		log.Warn("email enabled without DIRECTORY_SERVICE_URL; no recipients can be resolved")
		return
	}
	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}
	notificationModule.SetEmail(sender, contacts, cfg.GetAppBaseURL())
}

func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; running without shared cache")
		return nil
	}

	var client *redis.Client
	if err := withRetry(ctx, log, "redis connection", 3, time.Second, func() error {
		c, err := redisclient.New(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		return nil
	}
	return client
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; validity reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
