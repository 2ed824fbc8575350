// Package history stores served recommendations in postgres.
package history

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/imkonsowa/food-recs/events"
	"github.com/imkonsowa/food-recs/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func NewStore(connStr string) (*Store, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Migrate creates the recommendation tables. The coordinate column needs the
// postgis extension.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return fmt.Errorf("failed to enable postgis: %w", err)
	}

	return s.db.WithContext(ctx).AutoMigrate(&models.Recommendation{}, &models.RecommendationItem{})
}

// FromEvent maps an event to its row, keeping record order in Position.
func FromEvent(evt events.RecommendationEvent) models.Recommendation {
	items := make([]models.RecommendationItem, len(evt.Records))
	for i, r := range evt.Records {
		items[i] = models.RecommendationItem{
			Position:   i,
			Restaurant: r.Name,
			Dish:       r.Dish,
			Calories:   r.Calories,
			Price:      r.Price,
		}
	}

	return models.Recommendation{
		EventID:    evt.ID,
		Location:   evt.Location,
		Coordinate: evt.Coordinate,
		Cuisine:    evt.Cuisine,
		Cals:       evt.Cals,
		Budget:     evt.Budget,
		Candidates: evt.Candidates,
		Items:      items,
		CreatedAt:  evt.CreatedAt,
	}
}

// Record inserts the event. A redelivered event with a known id is ignored.
func (s *Store) Record(ctx context.Context, evt events.RecommendationEvent) error {
	row := FromEvent(evt)
	items := row.Items
	row.Items = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
			Create(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to create recommendation: %w", res.Error)
		}
		if res.RowsAffected == 0 || len(items) == 0 {
			return nil
		}

		for i := range items {
			items[i].RecommendationID = row.ID
		}

		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create recommendation items: %w", err)
		}

		return nil
	})
}

// ToEvent rebuilds the event a row was recorded from.
func ToEvent(row models.Recommendation) events.RecommendationEvent {
	records := make([]models.RecommendationRecord, len(row.Items))
	for i, item := range row.Items {
		records[i] = models.RecommendationRecord{
			Name:     item.Restaurant,
			Dish:     item.Dish,
			Calories: item.Calories,
			Price:    item.Price,
		}
	}

	return events.RecommendationEvent{
		ID:         row.EventID,
		Location:   row.Location,
		Coordinate: row.Coordinate,
		Cuisine:    row.Cuisine,
		Cals:       row.Cals,
		Budget:     row.Budget,
		Candidates: row.Candidates,
		Records:    records,
		CreatedAt:  row.CreatedAt,
	}
}

// Since lists recommendations created at or after since, oldest first, with
// their items in response order.
func (s *Store) Since(ctx context.Context, since time.Time) ([]models.Recommendation, error) {
	var rows []models.Recommendation

	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("created_at >= ?", since).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	return rows, nil
}
