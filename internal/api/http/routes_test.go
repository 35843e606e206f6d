package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/coast-to-coast/internal/store"
	"github.com/i474232898/coast-to-coast/internal/weather"
	"github.com/i474232898/coast-to-coast/internal/weather/nwstest"
	"github.com/i474232898/coast-to-coast/internal/weather/providers"
)

var testCities = []weather.City{
	{Key: "HER", Label: "New York", TimeZone: "America/New_York", Lat: 40.725, Lon: -73.985},
	{Key: "ME", Label: "Los Angeles", TimeZone: "America/Los_Angeles", Lat: 34.02665, Lon: -118.47381},
}

func newTestApp(t *testing.T, cfg nwstest.Config) (*fiber.App, *nwstest.Server) {
	t.Helper()
	return newTestAppWith(t, cfg, Options{})
}

func newTestAppWith(t *testing.T, cfg nwstest.Config, opts Options) (*fiber.App, *nwstest.Server) {
	t.Helper()

	srv := nwstest.New(cfg)
	t.Cleanup(srv.Close)

	client := &http.Client{Timeout: 5 * time.Second}
	p := providers.NewNWSProvider(client, srv.URL, "coast-to-coast-test/1.0 (contact: test@example.com)", providers.BackoffConfig{})
	svc := weather.NewService(store.NewMemoryStore(5*time.Minute), p, testCities)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc, opts)
	return app, srv
}

func doGet(t *testing.T, app *fiber.App, target string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("expected JSON body, got %q: %v", raw, err)
	}
	return resp, body
}

// TestForecastMissingCoordinates verifies that a missing lat or lon is a 400
// and never reaches the upstream.
func TestForecastMissingCoordinates(t *testing.T) {
	app, srv := newTestApp(t, nwstest.Config{})

	for _, target := range []string{
		"/api/v1/weather?lat=40.725",
		"/api/v1/weather?lon=-73.985",
		"/api/v1/weather",
		"/.netlify/functions/weather?lat=&lon=-73.985",
	} {
		resp, body := doGet(t, app, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
		if body["error"] != "Missing lat/lon" {
			t.Fatalf("%s: unexpected error body %v", target, body)
		}
	}

	if srv.Total() != 0 {
		t.Fatalf("expected zero outbound calls, got %d", srv.Total())
	}
}

func TestForecastInvalidCoordinates(t *testing.T) {
	app, srv := newTestApp(t, nwstest.Config{})

	resp, body := doGet(t, app, "/api/v1/weather?lat=north&lon=-73.985")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if body["error"] != "Invalid lat/lon" {
		t.Fatalf("unexpected error body %v", body)
	}
	if srv.Total() != 0 {
		t.Fatalf("expected zero outbound calls, got %d", srv.Total())
	}
}

func TestForecastSuccess(t *testing.T) {
	app, _ := newTestApp(t, nwstest.Config{})

	resp, body := doGet(t, app, "/.netlify/functions/weather?lat=40.725&lon=-73.985")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %v", http.StatusOK, resp.StatusCode, body)
	}
	if got := resp.Header.Get(fiber.HeaderCacheControl); got != "public, max-age=300" {
		t.Fatalf("unexpected Cache-Control %q", got)
	}
	if body["updated"] != "2024-02-14T10:00:00Z" {
		t.Fatalf("unexpected updated %v", body["updated"])
	}

	daily, _ := body["dailyPeriods"].([]any)
	hourly, _ := body["hourlyPeriods"].([]any)
	if len(daily) != 4 || len(hourly) != 3 {
		t.Fatalf("expected 4 daily and 3 hourly periods, got %d and %d", len(daily), len(hourly))
	}
	first, _ := daily[0].(map[string]any)
	if first["name"] != "Today" || first["shortForecast"] != "Light Rain" {
		t.Fatalf("unexpected first daily period %v", first)
	}
}

func TestForecastUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		cfg        nwstest.Config
		wantCode   int
		wantError  string
		wantStatus float64
	}{
		{
			name:       "points not found",
			cfg:        nwstest.Config{PointsStatus: http.StatusNotFound},
			wantCode:   http.StatusBadGateway,
			wantError:  "points failed",
			wantStatus: 404,
		},
		{
			name:      "missing forecast urls",
			cfg:       nwstest.Config{OmitForecastURL: true},
			wantCode:  http.StatusBadGateway,
			wantError: "Missing forecast urls",
		},
		{
			name:       "daily unavailable",
			cfg:        nwstest.Config{ForecastStatus: http.StatusInternalServerError},
			wantCode:   http.StatusBadGateway,
			wantError:  "forecast failed",
			wantStatus: 500,
		},
		{
			name:       "hourly unavailable",
			cfg:        nwstest.Config{HourlyStatus: http.StatusServiceUnavailable},
			wantCode:   http.StatusBadGateway,
			wantError:  "hourly failed",
			wantStatus: 503,
		},
		{
			name: "both unavailable",
			cfg: nwstest.Config{
				ForecastStatus: http.StatusServiceUnavailable,
				HourlyStatus:   http.StatusBadGateway,
			},
			wantCode:   http.StatusBadGateway,
			wantError:  "forecast failed",
			wantStatus: 503,
		},
		{
			name:     "malformed body",
			cfg:      nwstest.Config{Daily: "not json"},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, tt.cfg)

			resp, body := doGet(t, app, "/api/v1/weather?lat=40.725&lon=-73.985")
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %v", tt.wantCode, resp.StatusCode, body)
			}
			if resp.Header.Get(fiber.HeaderCacheControl) != "" {
				t.Fatal("expected no cache directive on errors")
			}
			msg, _ := body["error"].(string)
			if msg == "" || (tt.wantError != "" && msg != tt.wantError) {
				t.Fatalf("expected error %q, got %v", tt.wantError, body["error"])
			}
			if tt.wantStatus != 0 && body["status"] != tt.wantStatus {
				t.Fatalf("expected upstream status %v, got %v", tt.wantStatus, body["status"])
			}
			if tt.wantStatus == 0 {
				if _, ok := body["status"]; ok {
					t.Fatalf("expected no status field, got %v", body["status"])
				}
			}
		})
	}
}

func TestCities(t *testing.T) {
	app, _ := newTestApp(t, nwstest.Config{})

	resp, body := doGet(t, app, "/api/v1/cities")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	cities, _ := body["cities"].([]any)
	if len(cities) != 2 {
		t.Fatalf("expected 2 cities, got %v", body)
	}
}

func TestDashboard(t *testing.T) {
	app, srv := newTestApp(t, nwstest.Config{})

	resp, body := doGet(t, app, "/api/v1/dashboard?city=ME")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %v", http.StatusOK, resp.StatusCode, body)
	}

	city, _ := body["city"].(map[string]any)
	other, _ := body["other"].(map[string]any)
	if city["key"] != "ME" || other["key"] != "HER" {
		t.Fatalf("unexpected cities %v / %v", city, other)
	}
	hero, _ := body["hero"].(map[string]any)
	if hero["temperature"] != float64(38) || hero["condition"] != "rain" {
		t.Fatalf("unexpected hero %v", hero)
	}
	daily, _ := body["daily"].([]any)
	if len(daily) != 2 {
		t.Fatalf("expected 2 days, got %d", len(daily))
	}
	comparison, _ := body["comparison"].(map[string]any)
	if comparison["mood"] != "Shared rain." || comparison["verdict"] != "same" {
		t.Fatalf("unexpected comparison %v", comparison)
	}

	// One points lookup per city; the second request is served from the cache.
	if srv.Hits(nwstest.Points) != 2 {
		t.Fatalf("expected 2 points lookups, got %d", srv.Hits(nwstest.Points))
	}
	doGet(t, app, "/api/v1/dashboard?city=HER")
	if srv.Hits(nwstest.Points) != 2 {
		t.Fatalf("expected cached dashboard, got %d points lookups", srv.Hits(nwstest.Points))
	}
}

func TestDashboardUnknownCity(t *testing.T) {
	app, srv := newTestApp(t, nwstest.Config{})

	for _, target := range []string{"/api/v1/dashboard?city=SF", "/api/v1/dashboard?city=no%20such"} {
		resp, body := doGet(t, app, target)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d: %v", target, http.StatusBadRequest, resp.StatusCode, body)
		}
	}
	if srv.Total() != 0 {
		t.Fatalf("expected zero outbound calls, got %d", srv.Total())
	}
}

func TestDashboardUpstreamFailure(t *testing.T) {
	app, _ := newTestApp(t, nwstest.Config{PointsStatus: http.StatusServiceUnavailable})

	resp, body := doGet(t, app, "/api/v1/dashboard")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d: %v", http.StatusBadGateway, resp.StatusCode, body)
	}
	if body["error"] != "points failed" || body["status"] != float64(503) {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestForecastRequestDeadline(t *testing.T) {
	app, _ := newTestAppWith(t, nwstest.Config{Delay: 2 * time.Second}, Options{RequestTimeout: 50 * time.Millisecond})

	start := time.Now()
	resp, body := doGet(t, app, "/api/v1/weather?lat=40.725&lon=-73.985")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected the request deadline to abandon the upstream call, took %s", elapsed)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d: %v", http.StatusInternalServerError, resp.StatusCode, body)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "deadline exceeded") {
		t.Fatalf("expected deadline error, got %v", body["error"])
	}
}
