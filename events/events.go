// Package events carries served recommendations over NATS JetStream.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/imkonsowa/food-recs/models"
)

type RecommendationEvent struct {
	ID         string                        `json:"id"`
	Location   string                        `json:"location"`
	Coordinate models.Coordinate             `json:"coordinate"`
	Cuisine    string                        `json:"cuisine"`
	Cals       int                           `json:"cals"`
	Budget     float64                       `json:"budget"`
	Candidates []string                      `json:"candidates"`
	Records    []models.RecommendationRecord `json:"records"`
	CreatedAt  time.Time                     `json:"created_at"`
}

func NewRecommendationEvent(
	req models.RecommendationRequest,
	coord models.Coordinate,
	candidates []models.Candidate,
	records []models.RecommendationRecord,
) RecommendationEvent {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	return RecommendationEvent{
		ID:         uuid.New().String(),
		Location:   req.Location,
		Coordinate: coord,
		Cuisine:    req.Cuisine,
		Cals:       req.Cals,
		Budget:     req.Budget,
		Candidates: names,
		Records:    records,
		CreatedAt:  time.Now().UTC(),
	}
}

func (e RecommendationEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func Unmarshal(data []byte) (RecommendationEvent, error) {
	var e RecommendationEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
