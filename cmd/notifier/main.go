package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/config"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/notify"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store/postgres"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("notifier")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	worker := notify.NewWorker(store, nil, notify.Config{
		Interval:    cfg.NotifyInterval,
		BatchSize:   cfg.BatchSize,
		MaxAttempts: cfg.NotifyMaxAttempts,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	log.Printf("notifier polling every %s", cfg.NotifyInterval)
	worker.Run(ctx)
}
