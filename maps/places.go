package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/models"
)

// SearchPlaces runs a nearby search. Results keep the provider's order; an
// empty result set is not an error.
func (c *Client) SearchPlaces(ctx context.Context, criteria models.SearchCriteria) ([]models.Candidate, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", criteria.Center.Lat, criteria.Center.Lng))
	params.Set("radius", strconv.Itoa(criteria.RadiusMeters))
	params.Set("type", string(criteria.Type))
	params.Set("maxprice", strconv.Itoa(criteria.MaxPriceTier))
	if criteria.Keyword != "" {
		params.Set("keyword", criteria.Keyword)
	}

	var resp placesResponse
	if err := c.get(ctx, "places", nearbySearchPath, params, &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "", "OK", "ZERO_RESULTS":
	default:
		return nil, apperrors.Upstream("places", fmt.Errorf("status %s: %s", resp.Status, resp.ErrorMessage))
	}

	candidates := make([]models.Candidate, 0, len(resp.Results))
	for _, raw := range resp.Results {
		var place placeResult
		if err := json.Unmarshal(raw, &place); err != nil {
			slog.Warn("skipping undecodable place", "error", err)
			continue
		}

		var meta map[string]any
		_ = json.Unmarshal(raw, &meta)

		candidates = append(candidates, models.Candidate{
			Name:       place.Name,
			PlaceID:    place.PlaceID,
			Address:    place.Vicinity,
			PriceLevel: place.PriceLevel,
			Raw:        meta,
		})
	}

	slog.Debug("places search", "keyword", criteria.Keyword, "type", criteria.Type, "results", len(candidates))

	return candidates, nil
}
