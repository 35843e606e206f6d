// Package nwstest provides a fake National Weather Service API for tests.
package nwstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

// Stage names the resource a request hit.
const (
	Points   = "points"
	Forecast = "forecast"
	Hourly   = "hourly"
)

const (
	forecastPath = "/gridpoints/TST/10,20/forecast"
	hourlyPath   = "/gridpoints/TST/10,20/forecast/hourly"
)

// DailyBody is a daily forecast with an updated timestamp and two day/night pairs.
const DailyBody = `{
  "properties": {
    "updated": "2024-02-14T10:00:00Z",
    "periods": [
      {"number": 1, "name": "Today", "startTime": "2024-02-14T06:00:00-05:00", "endTime": "2024-02-14T18:00:00-05:00",
       "isDaytime": true, "temperature": 41, "temperatureUnit": "F", "windSpeed": "5 to 10 mph", "windDirection": "NW",
       "icon": "https://api.weather.gov/icons/land/day/rain?size=medium", "shortForecast": "Light Rain", "detailedForecast": "Rain likely."},
      {"number": 2, "name": "Tonight", "startTime": "2024-02-14T18:00:00-05:00", "endTime": "2024-02-15T06:00:00-05:00",
       "isDaytime": false, "temperature": 30, "temperatureUnit": "F", "windSpeed": "5 mph", "windDirection": "N",
       "shortForecast": "Mostly Cloudy"},
      {"number": 3, "name": "Thursday", "startTime": "2024-02-15T06:00:00-05:00", "endTime": "2024-02-15T18:00:00-05:00",
       "isDaytime": true, "temperature": 45, "temperatureUnit": "F", "windSpeed": "10 mph", "windDirection": "W",
       "shortForecast": "Sunny"},
      {"number": 4, "name": "Thursday Night", "startTime": "2024-02-15T18:00:00-05:00", "endTime": "2024-02-16T06:00:00-05:00",
       "isDaytime": false, "temperature": 33, "temperatureUnit": "F", "windSpeed": "5 mph", "windDirection": "W",
       "shortForecast": "Clear"}
    ]
  }
}`

// HourlyBody is an hourly forecast without an updated timestamp.
const HourlyBody = `{
  "properties": {
    "periods": [
      {"number": 1, "startTime": "2024-02-14T10:00:00-05:00", "endTime": "2024-02-14T11:00:00-05:00", "isDaytime": true,
       "temperature": 38, "temperatureUnit": "F", "windSpeed": "12 mph", "windDirection": "NW",
       "probabilityOfPrecipitation": {"unitCode": "wmoUnit:percent", "value": 70},
       "relativeHumidity": {"unitCode": "wmoUnit:percent", "value": 88},
       "shortForecast": "Light Rain"},
      {"number": 2, "startTime": "2024-02-14T11:00:00-05:00", "endTime": "2024-02-14T12:00:00-05:00", "isDaytime": true,
       "temperature": 39, "temperatureUnit": "F", "windSpeed": "10 mph", "windDirection": "NW",
       "probabilityOfPrecipitation": {"unitCode": "wmoUnit:percent", "value": 60},
       "shortForecast": "Light Rain"},
      {"number": 3, "startTime": "2024-02-14T12:00:00-05:00", "endTime": "2024-02-14T13:00:00-05:00", "isDaytime": true,
       "temperature": 40, "temperatureUnit": "F", "windSpeed": "8 mph", "windDirection": "W",
       "probabilityOfPrecipitation": {"unitCode": "wmoUnit:percent", "value": null},
       "shortForecast": "Cloudy"}
    ]
  }
}`

// Config shapes the fake's responses. Zero statuses mean 200.
type Config struct {
	PointsStatus   int
	ForecastStatus int
	HourlyStatus   int

	OmitForecastURL bool
	OmitHourlyURL   bool

	// PointsStatusFor overrides PointsStatus for one "lat,lon" path segment.
	PointsStatusFor map[string]int

	// Delay holds every response until it elapses or the client goes away.
	Delay time.Duration

	// Raw bodies; empty means DailyBody / HourlyBody.
	Daily  string
	Hourly string
}

// Server is a spy NWS upstream that records every request it serves.
type Server struct {
	*httptest.Server

	cfg Config

	mu      sync.Mutex
	hits    map[string]int
	headers []http.Header
}

// New starts a fake NWS server.
func New(cfg Config) *Server {
	if cfg.Daily == "" {
		cfg.Daily = DailyBody
	}
	if cfg.Hourly == "" {
		cfg.Hourly = HourlyBody
	}

	s := &Server{cfg: cfg, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) record(stage string, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[stage]++
	s.headers = append(s.headers, r.Header.Clone())
}

// Hits returns how many requests a stage received.
func (s *Server) Hits(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[stage]
}

// Total returns the number of requests served.
func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

// Headers returns the request headers seen so far, in arrival order.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Delay > 0 {
		select {
		case <-time.After(s.cfg.Delay):
		case <-r.Context().Done():
			return
		}
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/points/"):
		s.record(Points, r)
		status := s.cfg.PointsStatus
		if st, ok := s.cfg.PointsStatusFor[strings.TrimPrefix(r.URL.Path, "/points/")]; ok {
			status = st
		}
		s.serve(w, status, s.pointsBody())
	case r.URL.Path == hourlyPath:
		s.record(Hourly, r)
		s.serve(w, s.cfg.HourlyStatus, s.cfg.Hourly)
	case r.URL.Path == forecastPath:
		s.record(Forecast, r)
		s.serve(w, s.cfg.ForecastStatus, s.cfg.Daily)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) serve(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/geo+json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"title": "error", "status": %d}`, status)
		return
	}
	fmt.Fprint(w, body)
}

func (s *Server) pointsBody() string {
	props := map[string]string{}
	if !s.cfg.OmitForecastURL {
		props["forecast"] = s.URL + forecastPath
	}
	if !s.cfg.OmitHourlyURL {
		props["forecastHourly"] = s.URL + hourlyPath
	}
	b, _ := json.Marshal(map[string]any{"properties": props})
	return string(b)
}

// ForecastBody renders a forecast document with the given periods.
func ForecastBody(updated *string, periods []weather.ForecastPeriod) string {
	props := map[string]any{"periods": periods}
	if updated != nil {
		props["updated"] = *updated
	}
	b, _ := json.Marshal(map[string]any{"properties": props})
	return string(b)
}
