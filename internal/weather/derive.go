package weather

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/i474232898/coast-to-coast/internal/common"
)

// NWS wind speed text looks like "7 mph" or "3 to 7 mph".
var windSpeedPattern = regexp.MustCompile(`(?i)(\d+)(?:\s*to\s*(\d+))?\s*mph`)

// WindSpeedMPH parses an NWS wind speed string. Ranges yield their midpoint.
func WindSpeedMPH(text string) (float64, bool) {
	m := windSpeedPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	a, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if m[2] == "" {
		return a, true
	}
	b, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return a, true
	}
	return (a + b) / 2, true
}

// WindChillF applies the NWS wind chill formula. Outside its valid range
// (above 50°F or wind at or below 3 mph) the air temperature is returned.
func WindChillF(tempF, mph float64) float64 {
	if tempF > 50 || mph <= 3 {
		return tempF
	}
	v := math.Pow(mph, 0.16)
	return 35.74 + 0.6215*tempF - 35.75*v + 0.4275*tempF*v
}

// HeatIndexF applies the Rothfusz regression. Below 80°F or 40% humidity the
// air temperature is returned.
func HeatIndexF(tempF, rh float64) float64 {
	if tempF < 80 || rh < 40 {
		return tempF
	}
	t, r := tempF, rh
	return -42.379 + 2.04901523*t + 10.14333127*r -
		0.22475541*t*r - 0.00683783*t*t - 0.05481717*r*r +
		0.00122874*t*t*r + 0.00085282*t*r*r - 0.00000199*t*t*r*r
}

// FeelsLike returns the apparent temperature of a period in the period's own
// unit: wind chill when cold and windy, heat index when hot, otherwise the
// plain temperature. Nil when the period has no temperature.
func FeelsLike(p *ForecastPeriod) *float64 {
	if p == nil || p.Temperature == nil {
		return nil
	}
	celsius := strings.EqualFold(p.TemperatureUnit, "C")
	t := *p.Temperature
	if celsius {
		t = t*9/5 + 32
	}

	feels := t
	mph, hasWind := WindSpeedMPH(p.WindSpeed)
	switch {
	case t <= 50 && hasWind && mph > 3:
		feels = WindChillF(t, mph)
	case t >= 80 && p.RelativeHumidity != nil && p.RelativeHumidity.Value != nil:
		feels = HeatIndexF(t, *p.RelativeHumidity.Value)
	}

	if celsius {
		feels = (feels - 32) * 5 / 9
	}
	return &feels
}

// ClassifyCondition maps a short forecast text to a condition. The checks run
// in priority order so "Rain And Snow" is snow and "Chance Showers And
// Thunderstorms" is thunder.
func ClassifyCondition(shortForecast string) Condition {
	t := strings.ToLower(shortForecast)
	switch {
	case common.HasAny(t, "snow", "sleet", "flurr"):
		return ConditionSnow
	case common.HasAny(t, "thunder"):
		return ConditionThunder
	case common.HasAny(t, "rain", "showers", "drizzle"):
		return ConditionRain
	case common.HasAny(t, "fog", "haze"):
		return ConditionFog
	case common.HasAny(t, "cloud", "overcast"):
		return ConditionCloudy
	default:
		return ConditionClear
	}
}

func isRainy(t string) bool {
	return common.HasAny(t, "rain", "showers", "drizzle", "thunder")
}

func isSnowy(t string) bool {
	return common.HasAny(t, "snow", "sleet", "flurr")
}

func isClear(t string) bool {
	return common.HasAny(t, "clear", "sunny")
}
