package weather

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionThunder Condition = "thunder"
	ConditionFog     Condition = "fog"
)

// Coordinate is a caller-supplied latitude/longitude pair in decimal degrees.
// Values are kept as the caller sent them so the points lookup uses them verbatim.
type Coordinate struct {
	Latitude  string `json:"lat"`
	Longitude string `json:"lon"`
}

// Key returns a canonical string key for logging and indexing.
func (c Coordinate) Key() string {
	return c.Latitude + "," + c.Longitude
}

// Validate reports an InvalidRequest error when either component is missing
// or is not a finite decimal degree value in range.
func (c Coordinate) Validate() error {
	if strings.TrimSpace(c.Latitude) == "" || strings.TrimSpace(c.Longitude) == "" {
		return &Error{Kind: ErrInvalidRequest, Message: "Missing lat/lon"}
	}
	if _, _, err := c.Float(); err != nil {
		return &Error{Kind: ErrInvalidRequest, Message: "Invalid lat/lon", Err: err}
	}
	return nil
}

// Float parses both components.
func (c Coordinate) Float() (lat, lon float64, err error) {
	lat, err = parseDegrees(c.Latitude, 90)
	if err != nil {
		return 0, 0, err
	}
	lon, err = parseDegrees(c.Longitude, 180)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseDegrees(s string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// CoordinateOf builds a Coordinate from numeric degrees.
func CoordinateOf(lat, lon float64) Coordinate {
	return Coordinate{
		Latitude:  strconv.FormatFloat(lat, 'f', -1, 64),
		Longitude: strconv.FormatFloat(lon, 'f', -1, 64),
	}
}

// GridReference holds the forecast locators resolved from a points lookup.
// It lives for a single aggregation call.
type GridReference struct {
	ForecastURL       string
	ForecastHourlyURL string
}

// QuantitativeValue is an NWS measurement; Value is nil when the provider has no reading.
type QuantitativeValue struct {
	UnitCode string   `json:"unitCode,omitempty"`
	Value    *float64 `json:"value"`
}

// ForecastPeriod is the typed reading of one NWS period, daily or hourly.
// It backs the derived dashboard values; the proxy envelope carries the
// upstream period objects untouched.
type ForecastPeriod struct {
	Number                     int                `json:"number"`
	Name                       string             `json:"name"`
	StartTime                  time.Time          `json:"startTime"`
	EndTime                    time.Time          `json:"endTime"`
	IsDaytime                  bool               `json:"isDaytime"`
	Temperature                *float64           `json:"temperature"`
	TemperatureUnit            string             `json:"temperatureUnit"`
	TemperatureTrend           *string            `json:"temperatureTrend"`
	ProbabilityOfPrecipitation *QuantitativeValue `json:"probabilityOfPrecipitation,omitempty"`
	Dewpoint                   *QuantitativeValue `json:"dewpoint,omitempty"`
	RelativeHumidity           *QuantitativeValue `json:"relativeHumidity,omitempty"`
	SkyCover                   *QuantitativeValue `json:"skyCover,omitempty"`
	WindSpeed                  string             `json:"windSpeed"`
	WindDirection              string             `json:"windDirection"`
	Icon                       string             `json:"icon"`
	ShortForecast              string             `json:"shortForecast"`
	DetailedForecast           string             `json:"detailedForecast"`
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// UnmarshalJSON reads timestamps leniently: one that matches no known layout
// is left zero instead of rejecting the period.
func (p *ForecastPeriod) UnmarshalJSON(b []byte) error {
	type plain ForecastPeriod
	aux := struct {
		*plain
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.StartTime = parseTimestamp(aux.StartTime)
	p.EndTime = parseTimestamp(aux.EndTime)
	return nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DecodePeriods reads raw upstream periods into their typed form. Periods
// that are not objects of the expected shape are skipped.
func DecodePeriods(raw []json.RawMessage) []ForecastPeriod {
	periods := make([]ForecastPeriod, 0, len(raw))
	for _, r := range raw {
		var p ForecastPeriod
		if err := json.Unmarshal(r, &p); err != nil {
			continue
		}
		periods = append(periods, p)
	}
	return periods
}

// ForecastDocument is one forecast resource: its updated timestamp and the
// period objects exactly as the provider sent them.
type ForecastDocument struct {
	Updated *string
	Periods []json.RawMessage
}

// ForecastEnvelope is the aggregation result handed to the presentation layer.
// Periods are passed through verbatim and in upstream order.
type ForecastEnvelope struct {
	Updated       *string           `json:"updated"`
	DailyPeriods  []json.RawMessage `json:"dailyPeriods"`
	HourlyPeriods []json.RawMessage `json:"hourlyPeriods"`
}

// PeriodSet is the typed view of an envelope's daily and hourly periods.
type PeriodSet struct {
	Daily  []ForecastPeriod
	Hourly []ForecastPeriod
}

// Periods decodes the envelope for derived values.
func (e ForecastEnvelope) Periods() PeriodSet {
	return PeriodSet{
		Daily:  DecodePeriods(e.DailyPeriods),
		Hourly: DecodePeriods(e.HourlyPeriods),
	}
}

// City is one of the dashboard's fixed locations.
type City struct {
	Key      string  `json:"key" validate:"required"`
	Label    string  `json:"label" validate:"required"`
	TimeZone string  `json:"tz" validate:"required"`
	Lat      float64 `json:"lat" validate:"latitude"`
	Lon      float64 `json:"lon" validate:"longitude"`
}

// Coordinate returns the city's coordinate in points-lookup form.
func (c City) Coordinate() Coordinate {
	return CoordinateOf(c.Lat, c.Lon)
}

// Location loads the city's time zone, falling back to UTC.
func (c City) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
