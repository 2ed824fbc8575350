package main

import (
	"context"
	"errors"
	"testing"

	"github.com/imkonsowa/food-recs/events"
	"github.com/imkonsowa/food-recs/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	recorded []events.RecommendationEvent
	err      error
}

func (f *fakeStore) Record(_ context.Context, evt events.RecommendationEvent) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, evt)
	return nil
}

func TestHandleRecommendationMessage(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler(store)

	evt := events.NewRecommendationEvent(
		models.RecommendationRequest{Location: "1,2", MaxDistance: 1, Cuisine: "Thai"},
		models.Coordinate{Lat: 1, Lng: 2},
		[]models.Candidate{{Name: "Thai A"}},
		[]models.RecommendationRecord{{Name: "Thai A", Dish: "Pad Thai", Calories: "700", Price: "12"}},
	)
	data, err := evt.Marshal()
	require.NoError(t, err)

	require.NoError(t, h.HandleRecommendationMessage(context.Background(), data))
	require.Len(t, store.recorded, 1)
	assert.Equal(t, evt.ID, store.recorded[0].ID)
}

func TestHandleRecommendationMessageUndecodable(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler(store)

	assert.NoError(t, h.HandleRecommendationMessage(context.Background(), []byte("garbage")))
	assert.Empty(t, store.recorded)
}

func TestHandleRecommendationMessageStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	h := NewHandler(store)

	data, err := events.RecommendationEvent{ID: "x"}.Marshal()
	require.NoError(t, err)

	assert.Error(t, h.HandleRecommendationMessage(context.Background(), data))
}
