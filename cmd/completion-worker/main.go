package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/tennis-court-reservations/internal/adapters/postgres"
	"github.com/robertarktes/tennis-court-reservations/internal/booking"
	"github.com/robertarktes/tennis-court-reservations/internal/config"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
	"github.com/robertarktes/tennis-court-reservations/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := postgres.NewRepository(pool, logger)

	svc := booking.NewService(repo, repo, cfg.BookingRules(), logger, nil)
	worker := NewCompletionWorker(svc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, time.Minute)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown completion worker")
}

// CompletionWorker periodically moves booked reservations whose window
// has passed to COMPLETED.
type CompletionWorker struct {
	svc    *booking.Service
	logger observability.Logger
}

func NewCompletionWorker(svc *booking.Service, logger observability.Logger) *CompletionWorker {
	return &CompletionWorker{svc: svc, logger: logger}
}

func (w *CompletionWorker) Run(ctx context.Context, interval time.Duration) {
	w.logger.Info("Completion worker started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.completeWithRetry(ctx); err != nil {
				w.logger.Error("failed to complete due reservations: ", err)
			}
		}
	}
}

func (w *CompletionWorker) completeWithRetry(ctx context.Context) error {
	maxRetries := 3
	var err error
	for i := 0; i < maxRetries; i++ {
		var n int
		n, err = w.svc.CompleteDue(ctx)
		if err == nil {
			if n > 0 {
				w.logger.WithField("completed", n).Info("completed due reservations")
			}
			return nil
		}
		if !errors.Is(err, domain.ErrSerializationFailure) {
			return err
		}
		backoff := time.Duration(1<<i) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
