package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heritage-handlooms/checkout-api/internal/config"
	"github.com/heritage-handlooms/checkout-api/internal/coupon"
	"github.com/heritage-handlooms/checkout-api/internal/handlers"
	"github.com/heritage-handlooms/checkout-api/internal/metrics"
	"github.com/heritage-handlooms/checkout-api/internal/repository"
	"github.com/heritage-handlooms/checkout-api/internal/service"
	"github.com/heritage-handlooms/checkout-api/pkg/db"
	"github.com/heritage-handlooms/checkout-api/pkg/logger"
)

const version = "1.0.0"

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting checkout api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"coupon_store", cfg.Coupon.Store,
		"log_level", cfg.LogLevel,
	)

	ctx := context.Background()

	store, checks, closeStore, err := openCouponStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open coupon store", "store", cfg.Coupon.Store, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	registry := coupon.NewRegistry(store)
	if err := seedCoupons(ctx, registry, cfg.Coupon.SeedFiles, log); err != nil {
		log.Error("failed to load coupon data", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	// Initialize repositories
	productRepo := repository.NewInMemoryProductRepository()
	orderRepo := repository.NewInMemoryOrderRepository()
	cartRepo := repository.NewInMemoryCartRepository()

	// Initialize services
	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(productRepo, orderRepo, coupon.NewValidator(store, m), cfg.Pricing, log).
		WithRecorder(m)
	cartService := service.NewCartService(cartRepo, productRepo, orderService, log)

	routes := handlers.Routes{
		Health:   handlers.NewHealthHandler(log, version, checks),
		Products: handlers.NewProductHandler(productService, log),
		Coupons:  handlers.NewCouponHandler(orderService, log),
		Orders:   handlers.NewOrderHandler(orderService, log),
		Carts:    handlers.NewCartHandler(cartService, log),
		Admin:    handlers.NewAdminCouponHandler(registry, log),
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handlers.NewRouter(routes, cfg.Auth, m, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server stopped gracefully")
}

// openCouponStore connects the configured coupon backend. The returned checks
// feed the health endpoint and close releases the connection.
func openCouponStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (coupon.Store, map[string]handlers.Checker, func(), error) {
	switch cfg.Coupon.Store {
	case config.StorePostgres:
		conn, err := db.NewPostgresConnection(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		store := coupon.NewPostgresStore(conn)
		if err := store.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		log.Info("connected to postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.DBName)
		return store, map[string]handlers.Checker{"postgres": pingDB(conn)}, func() { conn.Close() }, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info("connected to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		check := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return coupon.NewRedisStore(client), map[string]handlers.Checker{"redis": check}, func() { client.Close() }, nil
	}

	return coupon.NewMemoryStore(0), nil, func() {}, nil
}

func pingDB(conn *sql.DB) handlers.Checker {
	return func(ctx context.Context) error { return conn.PingContext(ctx) }
}

// seedCoupons loads the registry files and inserts any codes the store does not have yet
func seedCoupons(ctx context.Context, registry *coupon.Registry, sources []string, log *slog.Logger) error {
	if len(sources) == 0 {
		log.Info("no coupon seed files configured")
		return nil
	}

	log.Info("loading coupon data...", "sources", sources)
	records, err := coupon.LoadFiles(ctx, sources)
	if err != nil {
		return err
	}

	created, err := coupon.Seed(ctx, registry, records)
	if err != nil {
		return err
	}
	log.Info("coupon data loaded successfully",
		"records", len(records),
		"created", created,
	)
	return nil
}
