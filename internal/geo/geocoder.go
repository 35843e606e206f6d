package geo

import (
	"errors"
	"fmt"
	"log"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

var errNoAPIKey = errors.New("geocoder api key is not configured")

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(city, state, country string) (lat, lon float64, err error)
}

// GoogleGeocoder uses the Google Maps geocoding API through kelvins/geocoder.
type GoogleGeocoder struct {
	apiKey string
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

func (g *GoogleGeocoder) Geocode(city, state, country string) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, errNoAPIKey
	}
	// The library keys requests off a package-level variable.
	geocoder.ApiKey = g.apiKey

	loc, err := geocoder.Geocoding(geocoder.Address{
		City:    city,
		State:   state,
		Country: country,
	})
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}

// FillCoordinates geocodes every city that has no coordinates yet. Cities
// with coordinates are left alone. The label is used as the place name.
func FillCoordinates(g Geocoder, cities []weather.City) ([]weather.City, error) {
	out := make([]weather.City, len(cities))
	copy(out, cities)

	for i := range out {
		if out[i].Lat != 0 || out[i].Lon != 0 {
			continue
		}
		if g == nil {
			return nil, fmt.Errorf("city %s has no coordinates and no geocoder is configured", out[i].Key)
		}
		lat, lon, err := g.Geocode(out[i].Label, "", "United States")
		if err != nil {
			return nil, fmt.Errorf("geocode %s: %w", out[i].Label, err)
		}
		log.Printf("INFO: geocoded %s to %f,%f", out[i].Label, lat, lon)
		out[i].Lat, out[i].Lon = lat, lon
	}
	return out, nil
}
