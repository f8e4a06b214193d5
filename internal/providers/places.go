package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/woo-consulting/apimeter/internal/domain/budget"
)

const (
	defaultPlacesBaseURL = "https://maps.googleapis.com"
	placesEndpoint       = "places_search"
	// Flat estimate per text-search request, overridable in config.
	defaultPlacesCostPerRequest = 0.002
)

// PlacesConfig configures the places-search wrapper.
type PlacesConfig struct {
	APIKey         string
	BaseURL        string
	CostPerRequest float64
}

// Place is one text-search result.
type Place struct {
	Name    string  `json:"name"`
	Address string  `json:"formatted_address"`
	Rating  float64 `json:"rating"`
}

// Places is the governed wrapper around the places-search provider.
type Places struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	cost       float64
	gov        Governor
	logger     *zap.Logger
}

// NewPlaces creates the wrapper.
func NewPlaces(cfg PlacesConfig, gov Governor, logger *zap.Logger) *Places {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPlacesBaseURL
	}
	cost := cfg.CostPerRequest
	if cost == 0 {
		cost = defaultPlacesCostPerRequest
	}
	return &Places{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		cost:       cost,
		gov:        gov,
		logger:     logger,
	}
}

// Search runs a text search, records the flat per-request cost, and returns
// the results — or budget.ErrExceeded when the provider is over budget.
func (p *Places) Search(ctx context.Context, query string) ([]Place, error) {
	u := fmt.Sprintf("%s/maps/api/place/textsearch/json?query=%s&key=%s",
		p.baseURL, url.QueryEscape(query), url.QueryEscape(p.apiKey))

	var body struct {
		Results []Place `json:"results"`
		Status  string  `json:"status"`
	}
	if err := p.getJSON(ctx, u, &body); err != nil {
		p.gov.RecordCall(ctx, ProviderPlaces, placesEndpoint, 0, 0)
		p.logger.Error("Places search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	_, decision := p.gov.RecordAndEvaluate(ctx, ProviderPlaces, placesEndpoint, 0, p.cost)
	if decision.Blocked() {
		return nil, budget.ErrExceeded
	}
	return body.Results, nil
}

func (p *Places) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("places request: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode places response: %w", err)
	}
	return nil
}
