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

	"discounter/internal/config"
	"discounter/internal/database"
	"discounter/internal/handler"
	"discounter/internal/model"
	"discounter/internal/notify"
	"discounter/internal/repository"
	"discounter/internal/router"
	"discounter/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("backend", cfg.Storage.Backend).Msg("starting discounter server")

	campaigns, vouchers, closeStorage, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	notifier, closeNotifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	now := func() time.Time { return time.Now().UTC() }

	discountService := service.NewDiscountService(campaigns, vouchers, notifier, logger)
	discountHandler := handler.NewDiscountHandler(discountService, now, logger)
	mux := router.New(discountHandler, now, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newStorage builds the campaign and voucher repositories for the configured
// backend. The returned func releases any connections.
func newStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (
	repository.Repository[model.Campaign],
	repository.Repository[model.Voucher],
	func(),
	error,
) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repository.NewCampaignRepository(pool, logger),
			repository.NewVoucherRepository(pool, logger),
			pool.Close,
			nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis connection established")

		lockTTL := repository.WithLockTTL(cfg.Redis.LockTTL)
		closeClient := func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close redis client")
			}
		}
		return repository.NewRedis[model.Campaign](client, "campaigns", logger, lockTTL),
			repository.NewRedis[model.Voucher](client, "vouchers", logger, lockTTL),
			closeClient,
			nil

	default:
		logger.Warn().Msg("using volatile in-memory storage")
		return repository.NewMemory[model.Campaign](),
			repository.NewMemory[model.Voucher](),
			func() {},
			nil
	}
}

// newNotifier wires the issued-voucher notification chain: S3 when enabled,
// falling back to the log, plus an optional local journal.
func newNotifier(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (notify.Notifier, func(), error) {
	logNotifier := notify.NewLogNotifier(logger)

	var primary notify.Notifier
	if cfg.S3.Enabled {
		s3Notifier, err := notify.NewS3Notifier(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 notifier, falling back to log notifier only")
		} else {
			primary = s3Notifier
		}
	} else {
		logger.Info().Msg("S3 voucher drop disabled")
	}
	notifier := notify.NewFallbackNotifier(primary, logNotifier, logger)

	if cfg.Notify.File == "" {
		return notifier, func() {}, nil
	}

	journal, err := notify.NewFileNotifier(cfg.Notify.File, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize voucher journal: %w", err)
	}
	closeJournal := func() {
		if err := journal.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close voucher journal")
		}
	}
	return notify.Multi(journal, notifier), closeJournal, nil
}
