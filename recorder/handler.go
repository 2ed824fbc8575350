package main

import (
	"context"
	"log/slog"

	"github.com/imkonsowa/food-recs/events"
)

type recordStore interface {
	Record(ctx context.Context, evt events.RecommendationEvent) error
}

type Handler struct {
	store recordStore
}

func NewHandler(store recordStore) *Handler {
	return &Handler{store: store}
}

// HandleRecommendationMessage stores one served recommendation. Messages that
// do not decode are dropped since redelivery cannot fix them.
func (h *Handler) HandleRecommendationMessage(ctx context.Context, msg []byte) error {
	evt, err := events.Unmarshal(msg)
	if err != nil {
		slog.Error("dropping undecodable recommendation event", "error", err, "size", len(msg))
		return nil
	}

	if err := h.store.Record(ctx, evt); err != nil {
		return err
	}

	slog.Info("recorded recommendation", "id", evt.ID, "records", len(evt.Records))

	return nil
}
