package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rideshare_backend/internal/access"
	"rideshare_backend/internal/adapters/storage"
	"rideshare_backend/internal/email"
	"rideshare_backend/internal/events"
	apphttp "rideshare_backend/internal/http"
	"rideshare_backend/internal/http/router"
	"rideshare_backend/internal/lookup"
	"rideshare_backend/internal/notification"
	"rideshare_backend/internal/scheduler"
	"rideshare_backend/internal/vehicles"
	"rideshare_backend/migrations"
	"rideshare_backend/platform/config"
	"rideshare_backend/platform/db"
	"rideshare_backend/platform/logger"
	"rideshare_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

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

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	rdb := initRedis(ctx, cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	storageSvc := initStorage(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(email.NewSender(cfg, log), cfg, log)
	notificationModule.RegisterHandlers(eventBus)
	defer notificationModule.Stream().Close()
	if reviewEmails := initReviewEmailScheduler(cfg, log); reviewEmails != nil {
		defer func() { _ = reviewEmails.Close() }()
		notificationModule.SetReviewEmailScheduler(reviewEmails)
	}

	accessModule := access.NewModule(pool, eventBus, val, log)
	bootstrapAdmin(ctx, cfg, accessModule, log)

	lookupModule := lookup.NewModule(cfg, rdb, log)
	vehiclesModule := vehicles.NewModule(pool, storageSvc, cfg.GetMinioBucketVehicleDocuments(), eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Roles:  accessModule.Service(),
		Modules: []apphttp.Module{
			accessModule,
			lookupModule,
			vehiclesModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		notificationModule.Stream().Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}

	log.Info("server stopped")
}

// initRedis connects the lookup cache. Without REDIS_URL suggestions are
// served uncached.
func initRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Info("redis not configured, lookup cache disabled")
		return nil
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid redis url", "error", err)
		panic("invalid redis url: " + err.Error())
	}
	if cfg.GetRedisTLSInsecure() && opt.TLSConfig != nil {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	rdb := redis.NewClient(opt)
	if err := withRetry(ctx, log, "redis connection", 5, time.Second, func() error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		log.Warn("redis unreachable, lookup cache disabled", "error", err)
		_ = rdb.Close()
		return nil
	}
	log.Info("redis connection established")
	return rdb
}

// initStorage returns nil when MinIO is not configured; document uploads then
// answer 503 while the rest of the API keeps working.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.StorageService {
	if !cfg.IsMinIOEnabled() {
		log.Info("object storage not configured, vehicle documents disabled")
		return nil
	}
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "vehicle-documents", cfg.GetMinioBucketVehicleDocuments())
	log.Info("storage service initialized", "vehicleDocumentsBucket", cfg.GetMinioBucketVehicleDocuments())
	return storageSvc
}

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func initReviewEmailScheduler(cfg *config.Config, log *logger.Logger) *scheduler.Client {
	if cfg.GetRedisURL() == "" {
		log.Info("job queue not configured, review emails are sent inline")
		return nil
	}
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Warn("failed to initialize job queue, review emails are sent inline", "error", err)
		return nil
	}
	return client
}

func bootstrapAdmin(ctx context.Context, cfg *config.Config, accessModule *access.Module, log *logger.Logger) {
	raw := cfg.GetBootstrapAdminID()
	if raw == "" {
		return
	}
	if err := accessModule.Service().Bootstrap(ctx, uuid.MustParse(raw)); err != nil {
		log.Error("failed to bootstrap administrator", "error", err)
		panic("failed to bootstrap administrator: " + err.Error())
	}
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
