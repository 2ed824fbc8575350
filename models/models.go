package models

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Coordinate is a WGS84 point. It is stored as a PostGIS geometry.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}

func (c *Coordinate) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case string:
		var err error
		data, err = hex.DecodeString(v)
		if err != nil {
			return err
		}
	case []byte:
		data = v
	default:
		return fmt.Errorf("expected string or []byte, got %T", value)
	}

	t, err := ewkb.Unmarshal(data)
	if err != nil {
		return err
	}

	if point, ok := t.(*geom.Point); ok {
		c.Lng = point.X()
		c.Lat = point.Y()

		return nil
	}

	return fmt.Errorf("expected Point, got %T", t)
}

func (c Coordinate) GormDataType() string {
	return "geometry"
}

func (c Coordinate) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return clause.Expr{
		SQL:  "ST_PointFromText(?)",
		Vars: []interface{}{fmt.Sprintf("POINT(%f %f)", c.Lng, c.Lat)},
	}
}

type PlaceType string

const (
	PlaceRestaurant PlaceType = "restaurant"
	PlaceGrocery    PlaceType = "grocery_or_supermarket"
)

// SearchCriteria describes one nearby search.
type SearchCriteria struct {
	Center       Coordinate
	RadiusMeters int
	Keyword      string
	Type         PlaceType
	MaxPriceTier int
}

// Candidate is a place returned by a nearby search.
type Candidate struct {
	Name       string         `json:"name"`
	PlaceID    string         `json:"place_id"`
	Address    string         `json:"address,omitempty"`
	PriceLevel *int           `json:"price_level,omitempty"`
	Raw        map[string]any `json:"-"`
}

type RecommendationRequest struct {
	Location    string  `json:"location" binding:"required"`
	MaxDistance float64 `json:"maxDistance"` // miles
	Cuisine     string  `json:"cuisine"`
	Cals        int     `json:"cals"`
	Budget      float64 `json:"budget"`
}

// RecommendationRecord is one suggested dish. Calories and price stay text
// because the model is not guaranteed to emit numbers.
type RecommendationRecord struct {
	Name     string `json:"name"`
	Dish     string `json:"dish"`
	Calories string `json:"calories"`
	Price    string `json:"price"`
}

// Recommendation is a served /recs response kept for auditing.
type Recommendation struct {
	ID          uint64               `gorm:"primaryKey" json:"id"`
	EventID     string               `gorm:"uniqueIndex" json:"event_id"`
	Location    string               `json:"location"`
	Coordinate  Coordinate           `json:"coordinate"`
	Cuisine     string               `json:"cuisine"`
	Cals        int                  `json:"cals"`
	Budget      float64              `json:"budget"`
	Candidates  pq.StringArray       `gorm:"type:text[]" json:"candidates"`
	Items       []RecommendationItem `gorm:"foreignKey:RecommendationID" json:"items,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

func (r *Recommendation) TableName() string {
	return "recommendations"
}

type RecommendationItem struct {
	ID               uint64 `gorm:"primaryKey" json:"id"`
	RecommendationID uint64 `json:"recommendation_id"`
	Position         int    `json:"position"`
	Restaurant       string `json:"restaurant"`
	Dish             string `json:"dish"`
	Calories         string `json:"calories"`
	Price            string `json:"price"`
}

func (i *RecommendationItem) TableName() string {
	return "recommendation_items"
}
