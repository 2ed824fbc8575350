package recommend

import (
	"context"
	"log/slog"
	"strings"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/generator"
	"github.com/imkonsowa/food-recs/maps"
	"github.com/imkonsowa/food-recs/models"
)

// MaxCandidates bounds how many restaurants go into one prompt.
const MaxCandidates = 3

type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinate, error)
}

type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, criteria models.SearchCriteria) ([]models.Candidate, error)
}

type Stage string

const (
	StageReceived       Stage = "received"
	StageGeocoding      Stage = "geocoding"
	StageSearching      Stage = "searching"
	StagePromptBuilding Stage = "prompt_building"
	StageGenerating     Stage = "generating"
	StageParsing        Stage = "parsing"
	StageResponding     Stage = "responding"
)

type Result struct {
	Coordinate models.Coordinate
	Candidates []models.Candidate
	Records    []models.RecommendationRecord
}

type Service struct {
	geocoder     Geocoder
	places       PlaceSearcher
	generator    generator.Generator
	policy       Policy
	maxPriceTier int
}

type Option func(*Service)

func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithMaxPriceTier(tier int) Option {
	return func(s *Service) { s.maxPriceTier = tier }
}

func NewService(geo Geocoder, places PlaceSearcher, gen generator.Generator, opts ...Option) *Service {
	s := &Service{
		geocoder:     geo,
		places:       places,
		generator:    gen,
		policy:       Lenient,
		maxPriceTier: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Recommend(ctx context.Context, req models.RecommendationRequest) (*Result, error) {
	return s.RecommendWithProgress(ctx, req, nil)
}

// RecommendWithProgress runs geocode, search, prompt, generate and parse in
// order, calling progress as each stage starts. No candidates is a successful
// empty result and skips generation.
func (s *Service) RecommendWithProgress(
	ctx context.Context,
	req models.RecommendationRequest,
	progress func(Stage),
) (*Result, error) {
	report := func(stage Stage) {
		if progress != nil {
			progress(stage)
		}
	}

	report(StageReceived)

	if strings.TrimSpace(req.Location) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "location is required")
	}
	if req.MaxDistance <= 0 {
		return nil, apperrors.NewWithContext(apperrors.CodeInvalidRequest,
			"maxDistance must be positive", map[string]any{"maxDistance": req.MaxDistance})
	}

	coord, err := s.resolveLocation(ctx, req.Location, report)
	if err != nil {
		return nil, err
	}

	report(StageSearching)
	candidates, err := s.places.SearchPlaces(ctx, models.SearchCriteria{
		Center:       coord,
		RadiusMeters: maps.RadiusMeters(req.MaxDistance),
		Keyword:      strings.TrimSpace(strings.TrimSpace(req.Cuisine) + " restaurants"),
		Type:         models.PlaceRestaurant,
		MaxPriceTier: s.maxPriceTier,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Coordinate: coord, Records: []models.RecommendationRecord{}}
	if len(candidates) == 0 {
		slog.Info("no restaurants found", "cuisine", req.Cuisine, "coordinate", coord.String())
		report(StageResponding)
		return result, nil
	}

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	result.Candidates = candidates

	report(StagePromptBuilding)
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	prompt := BuildRecommendationPrompt(names, req.Cals, req.Budget)

	report(StageGenerating)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	report(StageParsing)
	records, err := s.policy.Parse(text, len(candidates))
	if err != nil {
		slog.Warn("rejected model output", "policy", s.policy, "error", err)
		return nil, err
	}
	result.Records = records

	report(StageResponding)
	return result, nil
}

func (s *Service) resolveLocation(ctx context.Context, location string, report func(Stage)) (models.Coordinate, error) {
	if !maps.NeedsGeocoding(location) {
		return maps.ParseLatLng(location)
	}

	report(StageGeocoding)
	return s.geocoder.Geocode(ctx, location)
}

// SuggestForRestaurant returns a single free-text healthy order for one
// restaurant.
func (s *Service) SuggestForRestaurant(ctx context.Context, restaurant, cals, budget string) ([]string, error) {
	if strings.TrimSpace(restaurant) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "restaurant is required")
	}

	text, err := s.generator.Generate(ctx, BuildSuggestionPrompt(restaurant, cals, budget))
	if err != nil {
		return nil, err
	}

	return []string{StripFences(text)}, nil
}
