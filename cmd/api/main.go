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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/midlandoil/storefront/api/routes"
	"github.com/midlandoil/storefront/internal/catalog"
	"github.com/midlandoil/storefront/internal/checkout"
	"github.com/midlandoil/storefront/pkg/config"
	"github.com/midlandoil/storefront/pkg/db"
	"github.com/midlandoil/storefront/pkg/instance"
	"github.com/midlandoil/storefront/pkg/logger"
	"github.com/midlandoil/storefront/pkg/metrics"
	"github.com/midlandoil/storefront/pkg/migrate"
	"github.com/midlandoil/storefront/pkg/redis"
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

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	var dbClient *db.Client
	if cfg.DB.Configured() {
		dbClient, err = db.New(bootCtx, cfg.DB, logg)
		if err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		defer func() {
			err = multierr.Append(err, dbClient.Close())
		}()
		if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
			return fmt.Errorf("dev migrations: %w", err)
		}
	} else {
		logg.Warn(bootCtx, "no database configured; orders will be refused and products cannot be resolved")
	}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(bootCtx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(bootCtx, "no redis configured; idempotency and rate limits are disabled")
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	catalogSvc, err := catalog.NewService(contentSource(dbClient))
	if err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}

	sink, err := orderSink(dbClient, logg)
	if err != nil {
		return fmt.Errorf("order sink: %w", err)
	}

	checkoutSvc, err := checkout.NewService(catalogSvc, sessionStore(cfg, redisClient), sink, logg, checkout.Options{
		SubmitTimeout: cfg.Checkout.SubmitTimeout,
		Metrics:       metrics.NewCheckoutMetrics(promRegistry),
	})
	if err != nil {
		return fmt.Errorf("checkout service: %w", err)
	}

	params := routes.Params{
		Config:   cfg,
		Logger:   logg,
		Redis:    redisClient,
		Catalog:  catalogSvc,
		Checkout: checkoutSvc,
		Metrics:  promRegistry,
	}
	if dbClient != nil {
		params.DB = dbClient
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(bootCtx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"session_store": cfg.Checkout.Store(cfg.Redis),
		"database":      dbClient != nil,
		"instance":      instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(bootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-sigCtx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(bootCtx, shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
