// Package main is the entry point for the backoffice API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"backoffice/internal/domain/auth"
	"backoffice/internal/domain/cart"
	"backoffice/internal/domain/company"
	"backoffice/internal/domain/connection"
	"backoffice/internal/domain/refund"
	"backoffice/internal/domain/scope"
	"backoffice/internal/domain/vendor"
	"backoffice/internal/domain/vendorproduct"
	"backoffice/internal/infrastructure/gateway"
	v1 "backoffice/internal/infrastructure/http/v1"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/internal/infrastructure/storage/postgres/catalog_repo"
	"backoffice/internal/infrastructure/storage/postgres/refund_repo"
	redisstore "backoffice/internal/infrastructure/storage/redis"
	"backoffice/pkg/logger"
	"backoffice/pkg/vendorcode"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting backoffice server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to ping redis", "error", err)
	}
	defer rdb.Close()
	log.Info("redis connection established")

	// --- Repositories ---
	codes := vendorcode.New()

	clientRepo := catalog_repo.NewClientRepo(txManager)
	companyRepo := catalog_repo.NewCompanyRepo(txManager)
	siteRepo := catalog_repo.NewSiteRepo(txManager)
	vendorRepo := catalog_repo.NewVendorRepo(txManager, codes)
	vendorCompanyRepo := catalog_repo.NewVendorCompanyRepo(txManager, codes)
	vendorProductRepo := catalog_repo.NewVendorProductRepo(txManager)
	connectionRepo := catalog_repo.NewConnectionRepo(txManager)
	widgetRepo := catalog_repo.NewWidgetRepo(txManager)
	refundRepo := refund_repo.NewRefundRepo(txManager)
	settingsRepo := refund_repo.NewSettingsRepo(txManager)
	orderRepo := refund_repo.NewOrderRepo(txManager)
	sequenceCodes := catalog_repo.NewSequenceCodes(txManager)

	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit store", "error", err)
	}

	// --- Scope ---
	resolver := scope.NewResolver(clientRepo)
	hierarchy := scope.NewHierarchy(resolver, companyRepo)

	// --- Settlement ---
	settlementClient := gateway.NewSettlementClient(
		getEnv("SETTLEMENT_URL", "http://localhost:9090"),
		getEnv("SETTLEMENT_API_KEY", ""),
		getEnv("SETTLEMENT_CALLBACK_URL", "http://localhost:8080/api/v1/settlements/callback"),
	)
	var settler refund.Settler
	if getEnv("SETTLEMENT_MODE", "outbox") == "sync" {
		settler = gateway.NewSyncSettler(settlementClient)
	} else {
		settler = gateway.NewOutboxSettler(postgres.NewOutboxPublisher(txManager))
	}

	// --- Refund rules ---
	evaluator, err := refund.NewEvaluator()
	if err != nil {
		log.Fatalw("failed to initialize rule evaluator", "error", err)
	}

	// --- Services ---
	companyService := company.NewService(
		companyRepo, siteRepo, clientRepo, resolver, sequenceCodes, txManager, auditStore,
	)
	vendorService := vendor.NewService(
		vendorRepo, vendorCompanyRepo, resolver, codes, txManager, auditStore,
	)
	connectionService := connection.NewService(
		connectionRepo, vendorCompanyRepo, hierarchy, resolver, auditStore,
	)
	productService := vendorproduct.NewService(
		vendorProductRepo, vendorCompanyRepo, resolver, auditStore,
	)
	refundService := refund.NewService(
		refundRepo, settingsRepo, orderRepo, evaluator, hierarchy, resolver, settler, auditStore,
	)
	cartService := cart.NewService(
		redisstore.NewCartStore(rdb),
		catalog_repo.NewStorefrontCatalog(vendorProductRepo),
		cart.DefaultTTL,
	)
	widgetService := cart.NewWidgetService(widgetRepo, redisstore.NewProofCounter(rdb), siteRepo, hierarchy)

	// --- JWT ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))

	// --- Idempotency ---
	var idempotencyStore *postgres.IdempotencyStore
	if getEnv("IDEMPOTENCY_ENABLED", "true") == "true" {
		ttl := time.Duration(getEnvInt("IDEMPOTENCY_TTL_MINUTES", 1440)) * time.Minute
		idempotencyStore = postgres.NewIdempotencyStore(txManager, ttl)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Redis:          rdb,
		Logger:         log,
		TokenValidator: jwtService,

		SettlementCallbackToken: getEnv("SETTLEMENT_CALLBACK_TOKEN", ""),
		Idempotency:             idempotencyStore,
		Companies:               companyService,
		Vendors:                 vendorService,
		Connections:             connectionService,
		Products:                productService,
		Refunds:                 refundService,
		Carts:                   cartService,
		Widgets:                 widgetService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
