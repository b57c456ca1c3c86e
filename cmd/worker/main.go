// Package main is the entry point for the backoffice background worker.
// It relays outbox messages: settlement requests to the processor and
// housekeeping for everything else.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"backoffice/internal/infrastructure/gateway"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/internal/infrastructure/storage/postgres/refund_repo"
	"backoffice/pkg/logger"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting backoffice worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	refundRepo := refund_repo.NewRefundRepo(txManager)

	settlementClient := gateway.NewSettlementClient(
		getEnv("SETTLEMENT_URL", "http://localhost:9090"),
		getEnv("SETTLEMENT_API_KEY", ""),
		getEnv("SETTLEMENT_CALLBACK_URL", "http://localhost:8080/api/v1/settlements/callback"),
	)

	dispatcher := gateway.NewEventDispatcher(refundRepo, settlementClient)
	relay := postgres.NewOutboxRelay(pool.Pool, getEnvInt("OUTBOX_BATCH_SIZE", 100), dispatcher)

	idempotencyTTL := time.Duration(getEnvInt("IDEMPOTENCY_TTL_MINUTES", 1440)) * time.Minute

	worker := &Worker{
		relay:       relay,
		idempotency: postgres.NewIdempotencyStore(txManager, idempotencyTTL),
		log:         log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker polls the outbox and hands batches to the dispatcher.
type Worker struct {
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	log         *logger.Logger
}

// Run processes outbox batches until the context is cancelled. Exhausted
// messages move to the dead-letter state on an hourly sweep, which also
// drops expired idempotency keys.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	sweepTicker := time.NewTicker(1 * time.Hour)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			processed, err := w.relay.ProcessBatch(ctx)
			if err != nil {
				w.log.Errorw("outbox batch failed", "error", err)
				continue
			}
			if processed > 0 {
				w.log.Debugw("processed outbox batch", "count", processed)
			}

		case <-sweepTicker.C:
			moved, err := w.relay.MoveToDLQ(ctx)
			if err != nil {
				w.log.Errorw("dead-letter sweep failed", "error", err)
			} else if moved > 0 {
				w.log.Warnw("moved exhausted outbox messages to dead letter", "count", moved)
			}

			cleaned, err := w.idempotency.CleanupExpired(ctx)
			if err != nil {
				w.log.Errorw("idempotency cleanup failed", "error", err)
			} else if cleaned > 0 {
				w.log.Infow("cleaned up idempotency keys", "count", cleaned)
			}
		}
	}
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
