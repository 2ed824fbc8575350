// Package maps talks to the Google Maps geocoding and places web services.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/config"
	"github.com/imkonsowa/food-recs/metrics"
)

const (
	geocodePath      = "/maps/api/geocode/json"
	nearbySearchPath = "/maps/api/place/nearbysearch/json"

	// MetersPerMile is the coarse conversion used for search radii.
	MetersPerMile = 1609
)

type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg config.Maps) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RadiusMeters converts a distance in miles to a search radius.
func RadiusMeters(miles float64) int {
	return int(miles * MetersPerMile)
}

func (c *Client) get(ctx context.Context, service, path string, params url.Values, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(service, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to build "+service+" request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the request url carries the api key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return apperrors.Upstream(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return apperrors.Upstream(service, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Upstream(service, fmt.Errorf("failed to decode response: %w", err))
	}

	return nil
}
