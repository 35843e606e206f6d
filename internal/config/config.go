package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

// DefaultCities are the two dashboard cities shipped with the app.
const DefaultCities = "HER|New York|America/New_York|40.725|-73.985;" +
	"ME|Los Angeles|America/Los_Angeles|34.02665|-118.47381"

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// NWS endpoint and the identifying User-Agent sent on every outbound call.
	NWSBaseURL   string `validate:"required,url"`
	NWSUserAgent string `validate:"required"`

	// HTTPTimeout bounds each outbound request.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// Bounded retries for 429/5xx upstream responses; 0 disables them.
	UpstreamMaxRetries    int           `validate:"gte=0,lte=5"`
	UpstreamRetryInterval time.Duration `validate:"gt=0"`

	// RequestTimeout bounds a whole inbound request, outbound calls included.
	RequestTimeout time.Duration `validate:"gtefield=HTTPTimeout"`

	// RefreshInterval controls how often the dashboard cities are refreshed.
	RefreshInterval time.Duration `validate:"gte=1m"`

	// CityCacheMaxAge is how long a refreshed city snapshot stays usable. It
	// must cover at least one refresh interval so a failed refresh leaves the
	// previous snapshot in place.
	CityCacheMaxAge time.Duration `validate:"gtefield=RefreshInterval"`

	Cities []weather.City `validate:"min=1,max=2,dive"`

	// GeocoderAPIKey enables geocoding of cities configured without coordinates.
	GeocoderAPIKey string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.NWSBaseURL = getenvDefault("NWS_BASE_URL", "https://api.weather.gov")
	cfg.NWSUserAgent = getenvDefault("NWS_USER_AGENT", "coast-to-coast/1.0 (contact: you@example.com)")
	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 0)
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "8s"); err != nil {
		return nil, err
	}
	if cfg.UpstreamRetryInterval, err = getenvDuration("UPSTREAM_RETRY_INTERVAL", "500ms"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", "20s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	// Default to two refresh intervals so one failed refresh is tolerated.
	if cfg.CityCacheMaxAge, err = getenvDuration("CITY_CACHE_MAX_AGE", (2 * cfg.RefreshInterval).String()); err != nil {
		return nil, err
	}

	cities, err := ParseCities(getenvDefault("DASHBOARD_CITIES", DefaultCities))
	if err != nil {
		return nil, err
	}
	cfg.Cities = cities

	return cfg, nil
}

// Validate checks the loaded values. Call it after coordinates have been
// filled in for every city.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ParseCities parses "KEY|Label|TZ|lat|lon" entries separated by ";".
// lat and lon may be left empty to be geocoded later.
func ParseCities(s string) ([]weather.City, error) {
	var cities []weather.City
	seen := make(map[string]bool)

	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) != 3 && len(parts) != 5 {
			return nil, fmt.Errorf("invalid city entry %q: want KEY|Label|TZ[|lat|lon]", entry)
		}

		c := weather.City{
			Key:      strings.TrimSpace(parts[0]),
			Label:    strings.TrimSpace(parts[1]),
			TimeZone: strings.TrimSpace(parts[2]),
		}
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return nil, fmt.Errorf("invalid time zone for city %s: %w", c.Key, err)
		}
		if len(parts) == 5 && (strings.TrimSpace(parts[3]) != "" || strings.TrimSpace(parts[4]) != "") {
			lat, lon, err := weather.Coordinate{Latitude: parts[3], Longitude: parts[4]}.Float()
			if err != nil {
				return nil, fmt.Errorf("invalid coordinates for city %s: %w", c.Key, err)
			}
			c.Lat, c.Lon = lat, lon
		}
		if seen[c.Key] {
			return nil, fmt.Errorf("duplicate city key %q", c.Key)
		}
		seen[c.Key] = true
		cities = append(cities, c)
	}

	if len(cities) == 0 {
		return nil, fmt.Errorf("no dashboard cities configured")
	}
	return cities, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
