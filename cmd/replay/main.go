// Command replay republishes recorded recommendations onto the JetStream
// subject, for seeding a new consumer.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"time"

	"github.com/imkonsowa/food-recs/config"
	"github.com/imkonsowa/food-recs/events"
	"github.com/imkonsowa/food-recs/history"
)

func main() {
	since := flag.Duration("since", 24*time.Hour, "replay recommendations served within this window")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	store, err := history.NewStore(cfg.Postgres.ConnStr())
	if err != nil {
		log.Fatal("failed to connect to postgres:", err)
	}

	nc, err := events.Connect(cfg.Nats)
	if err != nil {
		log.Fatal("failed to connect to nats:", err)
	}
	defer nc.Close()

	rows, err := store.Since(ctx, time.Now().Add(-*since))
	if err != nil {
		log.Fatal(err)
	}
	slog.Info("found recorded recommendations", "count", len(rows), "since", *since)

	published := 0
	for _, row := range rows {
		evt := history.ToEvent(row)
		if err := nc.Publish(evt); err != nil {
			slog.Error("failed to publish recommendation", "id", evt.ID, "err", err)
			continue
		}
		published++
	}

	flushCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := nc.Flush(flushCtx); err != nil {
		slog.Error("publishes still pending", "err", err)
	}

	slog.Info("replay complete", "published", published, "total", len(rows))
}
