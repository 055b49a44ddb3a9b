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

	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/delivery"
	"storefront/internal/handler"
	"storefront/internal/remote"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/session"

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
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := remote.NewClient(remote.Options{
		BaseURL:         cfg.Upstream.BaseURL,
		Timeout:         cfg.Upstream.Timeout,
		BreakerFailures: cfg.Upstream.BreakerFailures,
		BreakerCooldown: cfg.Upstream.BreakerCooldown,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create store client: %w", err)
	}

	store, closeStore, err := newSessionStore(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var opts []session.ManagerOption
	var history handler.History

	if cfg.Database.Enabled {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		ledger := repository.NewLedgerRepository(pool, logger)
		opts = append(opts, session.WithLedger(ledger))
		history = ledger
	} else {
		logger.Info().Msg("checkout ledger disabled")
	}

	if cfg.Delivery.Enabled {
		dir, err := newDeliveryDirectory(ctx, cfg.Delivery, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize delivery directory: %w", err)
		}
		opts = append(opts, session.WithDeliverability(dir))
		if cfg.Delivery.ReloadInterval > 0 {
			go dir.Run(ctx, cfg.Delivery.ReloadInterval)
		}
	} else {
		logger.Info().Msg("delivery checks disabled, every valid pincode is serviceable")
	}

	manager := session.NewManager(store, client, session.Settings{
		TTL: cfg.Session.TTL,
		Payment: checkout.Settings{
			KeyID:        cfg.Payment.GatewayKeyID,
			Currency:     cfg.Payment.Currency,
			MerchantName: cfg.Payment.MerchantName,
		},
	}, logger, opts...)
	go manager.Run(ctx, cfg.Session.SweepInterval)

	catalogService := service.NewCatalogService(client, logger)
	orderService := service.NewOrderService(client, logger)
	authService := service.NewAuthService(client, manager, logger)

	mux := router.New(router.Handlers{
		Auth:         handler.NewAuthHandler(authService, cfg.Session.TTL, logger),
		Product:      handler.NewProductHandler(catalogService, logger),
		Cart:         handler.NewCartHandler(catalogService, logger),
		Favorites:    handler.NewFavoritesHandler(catalogService, logger),
		Checkout:     handler.NewCheckoutHandler(history, logger),
		Order:        handler.NewOrderHandler(orderService, logger),
		Notification: handler.NewNotificationHandler(logger),
	}, manager, cfg.Server.CORSAllowOrigins, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Upstream.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("upstream", cfg.Upstream.BaseURL).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

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

		logger.Info().Int("sessions", manager.Active()).Msg("server shutdown completed")
	}

	return nil
}

// newSessionStore returns the Redis store when configured, otherwise an in-process store.
func newSessionStore(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (session.Store, func(), error) {
	if !cfg.Enabled {
		logger.Info().Msg("using in-memory session store (redis disabled)")
		return session.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("using redis session store")
	return session.NewRedisStore(client), func() { _ = client.Close() }, nil
}

// newDeliveryDirectory loads the serviceable pincode lists from S3 with a local fallback, or
// from local disk only.
func newDeliveryDirectory(ctx context.Context, cfg config.DeliveryConfig, logger zerolog.Logger) (*delivery.Directory, error) {
	fileLoader := delivery.NewFileLoader(logger)
	loader := fileLoader

	if cfg.S3Enabled {
		s3Loader, err := delivery.NewS3Loader(ctx, cfg.S3Bucket, cfg.S3Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			loader = delivery.NewFallbackLoader(s3Loader, fileLoader, cfg.S3Prefix, logger)
		}
	} else {
		logger.Info().Msg("using local file system for pincode files (S3 disabled)")
	}

	return delivery.NewDirectory(ctx, cfg.Files, loader, logger)
}
