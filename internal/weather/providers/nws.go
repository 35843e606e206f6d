package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

const (
	DefaultNWSBaseURL   = "https://api.weather.gov"
	DefaultNWSUserAgent = "coast-to-coast/1.0 (contact: you@example.com)"

	acceptHeader = "application/geo+json, application/json"
)

// NWSProvider implements weather.Provider for the National Weather Service API.
type NWSProvider struct {
	name      string
	baseURL   string
	userAgent string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker // nil: no breaker
}

// NewNWSProvider creates a provider. userAgent identifies the deployment to
// NWS and must include a contact address; it is sent on every request.
func NewNWSProvider(client *http.Client, baseURL, userAgent string, backoff BackoffConfig) *NWSProvider {
	if baseURL == "" {
		baseURL = DefaultNWSBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultNWSUserAgent
	}

	return &NWSProvider{
		name:      "nws",
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
	}
}

// WithCircuitBreaker puts every call of p behind a circuit breaker shared by
// all of p's callers. Only long-lived background callers should use one; the
// stateless proxy path keeps each invocation independent.
func (p *NWSProvider) WithCircuitBreaker(name string) *NWSProvider {
	p.circuit = newCircuitBreaker(name)
	return p
}

func (p *NWSProvider) Name() string {
	return p.name
}

func (p *NWSProvider) newRequest(u string) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", acceptHeader)
	return req, nil
}

// Points looks up the forecast locators for a coordinate.
func (p *NWSProvider) Points(ctx context.Context, coord weather.Coordinate) (weather.GridReference, error) {
	u := fmt.Sprintf("%s/points/%s,%s", p.baseURL,
		strings.TrimSpace(coord.Latitude), strings.TrimSpace(coord.Longitude))

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, weather.StagePoints, func() (*http.Request, error) {
		return p.newRequest(u)
	})
	if err != nil {
		return weather.GridReference{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Forecast       string `json:"forecast"`
			ForecastHourly string `json:"forecastHourly"`
		} `json:"properties"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.GridReference{}, weather.Unexpected(weather.StagePoints, err)
	}

	return weather.GridReference{
		ForecastURL:       payload.Properties.Forecast,
		ForecastHourlyURL: payload.Properties.ForecastHourly,
	}, nil
}

// Forecast fetches one forecast resource (daily or hourly).
func (p *NWSProvider) Forecast(ctx context.Context, stage weather.Stage, u string) (weather.ForecastDocument, error) {
	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, stage, func() (*http.Request, error) {
		return p.newRequest(u)
	})
	if err != nil {
		return weather.ForecastDocument{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Updated *string           `json:"updated"`
			Periods []json.RawMessage `json:"periods"`
		} `json:"properties"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ForecastDocument{}, weather.Unexpected(stage, err)
	}

	return weather.ForecastDocument{
		Updated: payload.Properties.Updated,
		Periods: payload.Properties.Periods,
	}, nil
}
