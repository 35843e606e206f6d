package weather

import (
	"math"
	"strings"
)

// Verdict says how the selected city's temperature relates to the other's.
type Verdict string

const (
	VerdictWarmer Verdict = "warmer"
	VerdictColder Verdict = "colder"
	VerdictSame   Verdict = "same"
)

// Comparison contrasts the selected city with the other one. Deltas are
// absolute values and nil when either side lacks data.
type Comparison struct {
	TemperatureDelta   *float64 `json:"temperatureDelta"`
	Verdict            Verdict  `json:"verdict,omitempty"`
	PrecipitationDelta *float64 `json:"precipitationDelta"`
	Mood               string   `json:"mood"`
}

// Compare builds the city-to-city comparison for selected city a against b.
func Compare(a, b City, va, vb PeriodSet) Comparison {
	var c Comparison

	aTemp, _ := currentTemperature(va)
	bTemp, _ := currentTemperature(vb)
	if aTemp != nil && bTemp != nil {
		d := *aTemp - *bTemp
		abs := math.Abs(d)
		c.TemperatureDelta = &abs
		switch {
		case d > 0:
			c.Verdict = VerdictWarmer
		case d < 0:
			c.Verdict = VerdictColder
		default:
			c.Verdict = VerdictSame
		}
	}

	var aPop, bPop *float64
	if p := firstPeriod(va.Hourly); p != nil {
		aPop = quantity(p.ProbabilityOfPrecipitation)
	}
	if p := firstPeriod(vb.Hourly); p != nil {
		bPop = quantity(p.ProbabilityOfPrecipitation)
	}
	if aPop != nil && bPop != nil {
		abs := math.Abs(*aPop - *bPop)
		c.PrecipitationDelta = &abs
	}

	c.Mood = mood(a, b,
		strings.ToLower(currentShortForecast(va)),
		strings.ToLower(currentShortForecast(vb)))
	return c
}

func mood(a, b City, aShort, bShort string) string {
	aRain, bRain := isRainy(aShort), isRainy(bShort)
	switch {
	case aRain && bRain:
		return "Shared rain."
	case isSnowy(aShort) && isSnowy(bShort):
		return "Shared snow."
	case isClear(aShort) && isClear(bShort):
		return "Clear in both cities."
	case aRain:
		return "Rain in " + a.Label + "."
	case bRain:
		return "Rain in " + b.Label + "."
	default:
		return "Two different skies."
	}
}
