package weather

import (
	"math"
	"time"
)

const zenithOfficial = 90.833

// SunTimes holds sunrise and sunset in UTC. Either is nil when the sun does
// not rise or set that day (polar day or night).
type SunTimes struct {
	Sunrise *time.Time `json:"sunrise"`
	Sunset  *time.Time `json:"sunset"`
}

// SunriseSunset approximates solar events for a coordinate on the calendar
// day of date (in date's location). Accuracy is within a few minutes. Both
// events belong to the same solar day, so sunset always follows sunrise.
func SunriseSunset(lat, lon float64, date time.Time) SunTimes {
	n := float64(date.YearDay())
	lngHour := lon / 15

	rise := solarEvent(date, lat, lngHour, n+(6-lngHour)/24, true)
	set := solarEvent(date, lat, lngHour, n+(18-lngHour)/24, false)
	return SunTimes{Sunrise: rise, Sunset: set}
}

func solarEvent(day time.Time, lat, lngHour, t float64, sunrise bool) *time.Time {
	const rad = math.Pi / 180

	m := 0.9856*t - 3.289
	l := normalizeDegrees(m + 1.916*math.Sin(m*rad) + 0.020*math.Sin(2*m*rad) + 282.634)

	ra := normalizeDegrees(math.Atan(0.91764*math.Tan(l*rad)) / rad)
	lQuadrant := math.Floor(l/90) * 90
	raQuadrant := math.Floor(ra/90) * 90
	ra = (ra + lQuadrant - raQuadrant) / 15

	sinDec := 0.39782 * math.Sin(l*rad)
	cosDec := math.Cos(math.Asin(sinDec))

	cosH := (math.Cos(zenithOfficial*rad) - sinDec*math.Sin(lat*rad)) / (cosDec * math.Cos(lat*rad))
	if cosH > 1 || cosH < -1 {
		return nil
	}

	h := math.Acos(cosH) / rad
	if sunrise {
		h = 360 - h
	}
	h /= 15

	localT := h + ra - 0.06571*t - 6.622
	ut := math.Mod(localT-lngHour, 24)
	if ut < 0 {
		ut += 24
	}

	hr := math.Floor(ut)
	mins := math.Floor((ut - hr) * 60)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	ts := midnight.Add(time.Duration(hr)*time.Hour + time.Duration(mins)*time.Minute)

	// ut is only a time of day; keep the instant within 12h of local solar noon.
	noon := midnight.Add(time.Duration((12 - lngHour) * float64(time.Hour)))
	switch {
	case ts.Sub(noon) > 12*time.Hour:
		ts = ts.Add(-24 * time.Hour)
	case noon.Sub(ts) > 12*time.Hour:
		ts = ts.Add(24 * time.Hour)
	}
	return &ts
}

func normalizeDegrees(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}
