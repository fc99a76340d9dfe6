package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kiosk-pos/internal/cache"
	"kiosk-pos/internal/config"
	"kiosk-pos/internal/database"
	"kiosk-pos/internal/handler"
	"kiosk-pos/internal/inventory"
	"kiosk-pos/internal/metrics"
	"kiosk-pos/internal/repository"
	"kiosk-pos/internal/router"
	"kiosk-pos/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// A missing .env is normal outside local development
	if loadErr := godotenv.Load(); loadErr != nil && !errors.Is(loadErr, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", loadErr)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting kiosk-pos API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Metrics
	var (
		registry       *prometheus.Registry
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	orderMetrics := metrics.NewOrderMetrics(registerer(registry))
	httpMetrics := metrics.NewHTTPMetrics(registerer(registry))

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	opts := []service.Option{service.WithMetrics(orderMetrics)}

	// Pickup-code lookup cache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			err = multierr.Append(err, rdb.Close())
		}()

		if pingErr := rdb.Ping(ctx).Err(); pingErr != nil {
			logger.Warn().Err(pingErr).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, lookups will fall through to postgres")
		}
		opts = append(opts, service.WithCache(cache.NewRedisOrderCache(rdb, cfg.Redis.TTL)))
		logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("pickup-code cache enabled")
	}

	// Initialize services
	guard := inventory.NewGuard(productRepo, logger)
	orderService := service.NewOrderService(
		orderRepo,
		guard,
		service.OrderServiceConfig{
			MaxCodeAttempts:    cfg.Orders.MaxCodeAttempts,
			EnforceTransitions: cfg.Orders.EnforceTransitions,
		},
		logger,
		opts...,
	)

	// Initialize router
	mux := router.New(router.Config{
		Orders:         handler.NewOrderHandler(orderService, logger),
		Health:         handler.NewHealthHandler(pool),
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: metricsHandler,
		Logger:         logger,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			return multierr.Combine(
				fmt.Errorf("server shutdown failed: %w", err),
				server.Close(),
			)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// registerer avoids handing a typed-nil registry to the metrics package,
// which treats a nil interface as "metrics disabled".
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}
