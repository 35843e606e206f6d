package weather

import (
	"strings"
	"time"

	"github.com/i474232898/coast-to-coast/internal/common"
)

const (
	hourlyStripLen = 18
	dailyStripLen  = 7
)

// Hero is the headline view of a city's current weather.
type Hero struct {
	Temperature         *float64  `json:"temperature"`
	TemperatureUnit     string    `json:"temperatureUnit"`
	FeelsLike           *float64  `json:"feelsLike"`
	ShortForecast       string    `json:"shortForecast"`
	Condition           Condition `json:"condition"`
	PrecipitationChance *float64  `json:"precipitationChance"`
	RelativeHumidity    *float64  `json:"relativeHumidity"`
	SkyCover            *float64  `json:"skyCover"`
	Wind                string    `json:"wind"`
	SunTimes
}

// HourlyItem is one cell of the hourly strip.
type HourlyItem struct {
	StartTime           time.Time `json:"startTime"`
	Temperature         *float64  `json:"temperature"`
	TemperatureUnit     string    `json:"temperatureUnit"`
	FeelsLike           *float64  `json:"feelsLike"`
	PrecipitationChance *float64  `json:"precipitationChance"`
	Wind                string    `json:"wind"`
}

// DayItem pairs a daytime period with the night that follows it.
type DayItem struct {
	Weekday       string    `json:"weekday"`
	StartTime     time.Time `json:"startTime"`
	ShortForecast string    `json:"shortForecast"`
	Condition     Condition `json:"condition"`
	High          *float64  `json:"high"`
	Low           *float64  `json:"low"`
	Icon          string    `json:"icon,omitempty"`
}

// Dashboard is an immutable per-request view of the selected city against
// the other one.
type Dashboard struct {
	City       City         `json:"city"`
	Other      City         `json:"other"`
	Updated    *string      `json:"updated"`
	FetchedAt  time.Time    `json:"fetchedAt"`
	Hero       Hero         `json:"hero"`
	Hourly     []HourlyItem `json:"hourly"`
	Daily      []DayItem    `json:"daily"`
	Comparison Comparison   `json:"comparison"`
}

func firstPeriod(periods []ForecastPeriod) *ForecastPeriod {
	if len(periods) == 0 {
		return nil
	}
	return &periods[0]
}

func quantity(q *QuantitativeValue) *float64 {
	if q == nil {
		return nil
	}
	return q.Value
}

func windLine(speed, direction string) string {
	return strings.TrimSpace(strings.Join([]string{speed, direction}, " "))
}

// currentTemperature prefers the first hourly period and falls back to the
// first daily one.
func currentTemperature(v PeriodSet) (*float64, string) {
	hour0 := firstPeriod(v.Hourly)
	day0 := firstPeriod(v.Daily)
	if hour0 != nil && hour0.Temperature != nil {
		return hour0.Temperature, hour0.TemperatureUnit
	}
	if day0 != nil && day0.Temperature != nil {
		return day0.Temperature, day0.TemperatureUnit
	}
	return nil, ""
}

// currentShortForecast prefers the daily wording, which is less terse.
func currentShortForecast(v PeriodSet) string {
	var daily, hourly string
	if p := firstPeriod(v.Daily); p != nil {
		daily = p.ShortForecast
	}
	if p := firstPeriod(v.Hourly); p != nil {
		hourly = p.ShortForecast
	}
	return common.FirstNonEmpty(daily, hourly)
}

// BuildHero summarises the current conditions for a city.
func BuildHero(city City, v PeriodSet, now time.Time) Hero {
	hour0 := firstPeriod(v.Hourly)
	day0 := firstPeriod(v.Daily)

	temp, unit := currentTemperature(v)
	short := currentShortForecast(v)

	h := Hero{
		Temperature:     temp,
		TemperatureUnit: unit,
		FeelsLike:       FeelsLike(hour0),
		ShortForecast:   short,
		Condition:       ClassifyCondition(short),
		SunTimes:        SunriseSunset(city.Lat, city.Lon, now.In(city.Location())),
	}

	if hour0 != nil {
		h.PrecipitationChance = quantity(hour0.ProbabilityOfPrecipitation)
		h.RelativeHumidity = quantity(hour0.RelativeHumidity)
		h.SkyCover = quantity(hour0.SkyCover)
	}

	var speed, direction string
	if day0 != nil {
		speed, direction = day0.WindSpeed, day0.WindDirection
	}
	if hour0 != nil {
		speed = common.FirstNonEmpty(speed, hour0.WindSpeed)
		direction = common.FirstNonEmpty(direction, hour0.WindDirection)
	}
	h.Wind = windLine(speed, direction)

	return h
}

// HourlyStrip returns the next hours of the hourly forecast in upstream order.
func HourlyStrip(periods []ForecastPeriod) []HourlyItem {
	n := min(len(periods), hourlyStripLen)
	items := make([]HourlyItem, 0, n)
	for i := 0; i < n; i++ {
		p := &periods[i]
		unit := p.TemperatureUnit
		if unit == "" {
			unit = "F"
		}
		items = append(items, HourlyItem{
			StartTime:           p.StartTime,
			Temperature:         p.Temperature,
			TemperatureUnit:     unit,
			FeelsLike:           FeelsLike(p),
			PrecipitationChance: quantity(p.ProbabilityOfPrecipitation),
			Wind:                windLine(p.WindSpeed, p.WindDirection),
		})
	}
	return items
}

// DailyStrip groups alternating day/night periods into days. Each daytime
// period is paired with the period right after it when that one is a night.
// Leading night periods are skipped.
func DailyStrip(periods []ForecastPeriod, loc *time.Location) []DayItem {
	if loc == nil {
		loc = time.UTC
	}
	days := make([]DayItem, 0, dailyStripLen)
	for i := 0; i < len(periods) && len(days) < dailyStripLen; i++ {
		p := &periods[i]
		if !p.IsDaytime {
			continue
		}
		day := DayItem{
			StartTime:     p.StartTime,
			ShortForecast: p.ShortForecast,
			Condition:     ClassifyCondition(p.ShortForecast),
			High:          p.Temperature,
			Icon:          stripQuery(p.Icon),
		}
		if !p.StartTime.IsZero() {
			day.Weekday = p.StartTime.In(loc).Format("Mon")
		}
		if i+1 < len(periods) && !periods[i+1].IsDaytime {
			day.Low = periods[i+1].Temperature
		}
		days = append(days, day)
	}
	return days
}

func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

// BuildDashboard assembles the full view for the selected city. other may be
// a zero Snapshot when the other city's data is unavailable.
func BuildDashboard(city, otherCity City, selected, other Snapshot, now time.Time) Dashboard {
	env := selected.Envelope
	v := env.Periods()
	return Dashboard{
		City:       city,
		Other:      otherCity,
		Updated:    env.Updated,
		FetchedAt:  selected.FetchedAt,
		Hero:       BuildHero(city, v, now),
		Hourly:     HourlyStrip(v.Hourly),
		Daily:      DailyStrip(v.Daily, city.Location()),
		Comparison: Compare(city, otherCity, v, other.Envelope.Periods()),
	}
}
