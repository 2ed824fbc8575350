package maps

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/models"
)

// NeedsGeocoding reports whether location is a free-text address rather than
// a "lat,lng" pair.
func NeedsGeocoding(location string) bool {
	return strings.IndexFunc(location, unicode.IsLetter) >= 0
}

// ParseLatLng parses "lat,lng", tolerating surrounding whitespace and
// parentheses.
func ParseLatLng(location string) (models.Coordinate, error) {
	trimmed := strings.Trim(strings.TrimSpace(location), "()[]")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 2 {
		return models.Coordinate{}, apperrors.NewWithContext(apperrors.CodeInvalidRequest,
			"location must be an address or \"lat,lng\"", map[string]any{"location": location})
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Coordinate{}, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid latitude", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Coordinate{}, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid longitude", err)
	}

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return models.Coordinate{}, apperrors.NewWithContext(apperrors.CodeInvalidRequest,
			"coordinate out of range", map[string]any{"lat": lat, "lng": lng})
	}

	return models.Coordinate{Lat: lat, Lng: lng}, nil
}

// Geocode resolves address to the coordinate of the first geocoder result.
// A non-OK provider status is a GEOCODE error carrying that status.
func (c *Client) Geocode(ctx context.Context, address string) (models.Coordinate, error) {
	params := url.Values{}
	params.Set("address", address)

	var resp geocodeResponse
	if err := c.get(ctx, "geocode", geocodePath, params, &resp); err != nil {
		return models.Coordinate{}, err
	}

	if resp.Status != "OK" {
		return models.Coordinate{}, apperrors.NewWithContext(apperrors.CodeGeocode,
			"geocode error: "+resp.Status, map[string]any{"status": resp.Status, "address": address})
	}
	if len(resp.Results) == 0 {
		return models.Coordinate{}, apperrors.NewWithContext(apperrors.CodeGeocode,
			"geocode error: ZERO_RESULTS", map[string]any{"status": "ZERO_RESULTS", "address": address})
	}

	loc := resp.Results[0].Geometry.Location
	return models.Coordinate{Lat: loc.Lat, Lng: loc.Lng}, nil
}
