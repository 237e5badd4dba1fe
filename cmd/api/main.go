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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/venuepos/api/routes"
	"github.com/angelmondragon/venuepos/internal/checkout"
	"github.com/angelmondragon/venuepos/internal/members"
	"github.com/angelmondragon/venuepos/internal/pricing"
	"github.com/angelmondragon/venuepos/internal/products"
	"github.com/angelmondragon/venuepos/internal/register"
	"github.com/angelmondragon/venuepos/internal/sales"
	"github.com/angelmondragon/venuepos/pkg/config"
	"github.com/angelmondragon/venuepos/pkg/db"
	"github.com/angelmondragon/venuepos/pkg/logger"
	"github.com/angelmondragon/venuepos/pkg/metrics"
	"github.com/angelmondragon/venuepos/pkg/migrate"
	"github.com/angelmondragon/venuepos/pkg/redis"
)

const shutdownTimeout = 20 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	readiness := map[string]db.Pinger{"db": dbClient}

	// Redis is optional: without it sale numbers come from the clock and the
	// checkout guard only protects this instance.
	var (
		counter checkout.NumberAllocator
		guard   register.Guard = register.NewLocalGuard()
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness["redis"] = redisClient

		counter = checkout.NewCounterAllocator(redisClient, cfg.Checkout.SaleNumberPrefix)
		redisGuard, err := register.NewRedisGuard(redisClient, cfg.Checkout.GuardTTL)
		if err != nil {
			logg.Error(ctx, "failed to create checkout guard", err)
			os.Exit(1)
		}
		guard = redisGuard
	} else {
		logg.Warn(ctx, "redis not configured, using clock sale numbers and in-process checkout guard")
	}
	numbers := checkout.NewFallbackAllocator(counter, checkout.NewClockAllocator(cfg.Checkout.SaleNumberPrefix), logg)

	location, err := cfg.Checkout.BusinessLocation()
	if err != nil {
		logg.Error(ctx, "failed to resolve business timezone", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := pricing.NewEngine(cfg.Pricing.TaxRate)
	productRepo := products.NewRepository(dbClient.DB())
	catalog, err := products.NewService(productRepo, cfg.Pricing.LowStockThreshold)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	resolver, err := members.NewResolver(members.NewRepository(dbClient.DB()), cfg.Members.SearchLimit, cfg.Members.SearchMinChars)
	if err != nil {
		logg.Error(ctx, "failed to create member resolver", err)
		os.Exit(1)
	}

	orchestrator, err := checkout.NewOrchestrator(sales.NewRepository(dbClient.DB()), productRepo, numbers, checkout.Options{
		Engine:   engine,
		Location: location,
		Timeout:  cfg.Checkout.Timeout,
		Logger:   logg,
		Metrics:  metrics.NewCheckoutMetrics(registry),
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout orchestrator", err)
		os.Exit(1)
	}

	registers, err := register.NewService(engine, catalog, resolver, orchestrator, guard, logg)
	if err != nil {
		logg.Error(ctx, "failed to create register service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": dbClient.Driver(),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, readiness, registry, catalog, registers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}
