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
	defaultWeatherBaseURL = "https://api.openweathermap.org"
	weatherEndpoint       = "weather_data"
	// Flat estimate per current-weather request, overridable in config.
	defaultWeatherCostPerRequest = 0.0005
)

// WeatherConfig configures the weather wrapper.
type WeatherConfig struct {
	APIKey         string
	BaseURL        string
	CostPerRequest float64
}

// Weather is the governed wrapper around the weather provider.
type Weather struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	cost       float64
	gov        Governor
	logger     *zap.Logger
}

// Conditions is the current-weather result.
type Conditions struct {
	City        string
	TempF       float64
	Description string
}

// NewWeather creates the wrapper.
func NewWeather(cfg WeatherConfig, gov Governor, logger *zap.Logger) *Weather {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultWeatherBaseURL
	}
	cost := cfg.CostPerRequest
	if cost == 0 {
		cost = defaultWeatherCostPerRequest
	}
	return &Weather{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		cost:       cost,
		gov:        gov,
		logger:     logger,
	}
}

// Current fetches the current weather for a city, records the flat
// per-request cost, and returns the conditions — or budget.ErrExceeded when
// the provider is over budget.
func (w *Weather) Current(ctx context.Context, city string) (Conditions, error) {
	u := fmt.Sprintf("%s/data/2.5/weather?q=%s&appid=%s&units=imperial",
		w.baseURL, url.QueryEscape(city), url.QueryEscape(w.apiKey))

	var body struct {
		Name string `json:"name"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := w.getJSON(ctx, u, &body); err != nil {
		w.gov.RecordCall(ctx, ProviderWeather, weatherEndpoint, 0, 0)
		w.logger.Error("Weather lookup failed", zap.Error(err))
		return Conditions{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	_, decision := w.gov.RecordAndEvaluate(ctx, ProviderWeather, weatherEndpoint, 0, w.cost)
	if decision.Blocked() {
		return Conditions{}, budget.ErrExceeded
	}

	cond := Conditions{City: body.Name, TempF: body.Main.Temp}
	if len(body.Weather) > 0 {
		cond.Description = body.Weather[0].Description
	}
	return cond, nil
}

func (w *Weather) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather request: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode weather response: %w", err)
	}
	return nil
}
