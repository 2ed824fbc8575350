package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/imkonsowa/food-recs/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecommendationEvent(t *testing.T) {
	req := models.RecommendationRequest{Location: "37.4,-122.1", MaxDistance: 2, Cuisine: "Mexican", Cals: 600, Budget: 12}
	coord := models.Coordinate{Lat: 37.4, Lng: -122.1}
	cands := []models.Candidate{{Name: "Taco A"}, {Name: "Burrito B"}}
	records := []models.RecommendationRecord{
		{Name: "Taco A", Dish: "Tacos", Calories: "400", Price: "8"},
		{Name: "Burrito B", Dish: "Bowl", Calories: "500", Price: "10"},
	}

	evt := NewRecommendationEvent(req, coord, cands, records)

	_, err := uuid.Parse(evt.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Taco A", "Burrito B"}, evt.Candidates)
	assert.Equal(t, "Mexican", evt.Cuisine)
	assert.False(t, evt.CreatedAt.IsZero())

	data, err := evt.Marshal()
	require.NoError(t, err)
	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, evt.ID, back.ID)
	assert.Equal(t, records, back.Records)
	assert.Equal(t, coord, back.Coordinate)
	assert.True(t, evt.CreatedAt.Equal(back.CreatedAt))
}

func TestUnmarshalInvalid(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	assert.Error(t, err)
}

func TestConsumerName(t *testing.T) {
	assert.Equal(t, "recs-served-consumer", ConsumerName("recs.served"))
}
