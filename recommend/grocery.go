package recommend

import (
	"context"
	"sort"
	"strings"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/models"
)

const dishCount = 5

type GroceryRequest struct {
	Center       models.Coordinate
	RadiusMeters int
	MaxPriceTier int
	Cuisine      string
	Budget       float64
}

type Store struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PriceLevel int    `json:"price_level"`
}

type GroceryResult struct {
	Store  Store    `json:"store"`
	Dishes []string `json:"dishes"`
}

// CheapestGrocery returns the grocery store with the lowest price level in
// range. Stores without a price level rank after every tier allowed.
func (s *Service) CheapestGrocery(ctx context.Context, req GroceryRequest) (models.Candidate, error) {
	if req.RadiusMeters <= 0 {
		return models.Candidate{}, apperrors.New(apperrors.CodeInvalidRequest, "radius must be positive")
	}

	stores, err := s.places.SearchPlaces(ctx, models.SearchCriteria{
		Center:       req.Center,
		RadiusMeters: req.RadiusMeters,
		Type:         models.PlaceGrocery,
		MaxPriceTier: req.MaxPriceTier,
	})
	if err != nil {
		return models.Candidate{}, err
	}
	if len(stores) == 0 {
		return models.Candidate{}, apperrors.New(apperrors.CodeNotFound, "no grocery stores found within given parameters")
	}

	level := func(c models.Candidate) int {
		if c.PriceLevel == nil {
			return req.MaxPriceTier + 1
		}
		return *c.PriceLevel
	}
	sort.SliceStable(stores, func(i, j int) bool {
		return level(stores[i]) < level(stores[j])
	})

	return stores[0], nil
}

func (s *Service) Groceries(ctx context.Context, req GroceryRequest) (*GroceryResult, error) {
	store, err := s.CheapestGrocery(ctx, req)
	if err != nil {
		return nil, err
	}

	dishes, err := s.Dishes(ctx, req.Cuisine, store, req.Budget)
	if err != nil {
		return nil, err
	}

	result := &GroceryResult{
		Store:  Store{Name: store.Name, Address: store.Address},
		Dishes: dishes,
	}
	if store.PriceLevel != nil {
		result.Store.PriceLevel = *store.PriceLevel
	}

	return result, nil
}

// Dishes asks for recipe names of cuisine buildable at store within budget.
func (s *Service) Dishes(ctx context.Context, cuisine string, store models.Candidate, budget float64) ([]string, error) {
	text, err := s.generator.Generate(ctx, BuildDishesPrompt(cuisine, store, budget))
	if err != nil {
		return nil, err
	}

	return ParseList(text), nil
}

func (s *Service) Recipe(ctx context.Context, dish string, store models.Candidate, budget float64) (string, error) {
	if strings.TrimSpace(dish) == "" {
		return "", apperrors.New(apperrors.CodeInvalidRequest, "dish is required")
	}

	text, err := s.generator.Generate(ctx, BuildRecipePrompt(dish, store, budget))
	if err != nil {
		return "", err
	}

	return StripFences(text), nil
}
