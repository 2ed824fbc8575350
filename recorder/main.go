package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/imkonsowa/food-recs/config"
	"github.com/imkonsowa/food-recs/events"
	"github.com/imkonsowa/food-recs/history"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal(err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nc, err := events.Connect(cfg.Nats)
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	store, err := history.NewStore(cfg.Postgres.ConnStr())
	if err != nil {
		log.Fatal(err)
	}

	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	handler := NewHandler(store)

	slog.Info("Starting recorder", "workers", cfg.Recorder.Workers, "queueSize", cfg.Recorder.QueueSize,
		"subject", cfg.Nats.RecommendationsSubject)

	pool := NewWorkerPool(ctx, cfg.Recorder.Workers, cfg.Recorder.QueueSize, handler.HandleRecommendationMessage)

	worker := errgroup.Group{}
	errChan := make(chan error, 1)

	worker.Go(func() error {
		return nc.Subscribe(ctx, func(m *nats.Msg) {
			pool.Submit(ctx, m)
		})
	})

	go func() {
		errChan <- worker.Wait()
	}()

	// Wait for a signal to shutdown
	select {
	case <-shutdown:
		slog.Info("Shutting down")
		cancel()
		<-errChan
	case err := <-errChan:
		slog.Info("Shutting down due to error", "error", err)
		cancel()
	}

	pool.Stop()
}
