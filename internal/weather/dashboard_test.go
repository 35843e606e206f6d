package weather

import (
	"encoding/json"
	"testing"
	"time"
)

var (
	testNewYork = City{Key: "HER", Label: "New York", TimeZone: "America/New_York", Lat: 40.725, Lon: -73.985}
	testLA      = City{Key: "ME", Label: "Los Angeles", TimeZone: "America/Los_Angeles", Lat: 34.02665, Lon: -118.47381}
)

func period(day bool, start time.Time, temp float64, short string) ForecastPeriod {
	return ForecastPeriod{
		StartTime:       start,
		EndTime:         start.Add(12 * time.Hour),
		IsDaytime:       day,
		Temperature:     floatPtr(temp),
		TemperatureUnit: "F",
		ShortForecast:   short,
	}
}

func TestDailyStripPairsDayAndNight(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	start := time.Date(2024, 2, 14, 18, 0, 0, 0, ny)

	periods := []ForecastPeriod{
		period(false, start, 30, "Mostly Cloudy"), // leading night is skipped
		period(true, start.Add(12*time.Hour), 45, "Sunny"),
		period(false, start.Add(24*time.Hour), 33, "Clear"),
		period(true, start.Add(36*time.Hour), 50, "Rain Showers"),
	}
	periods[1].Icon = "https://api.weather.gov/icons/land/day/few?size=medium"

	days := DailyStrip(periods, ny)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}

	if days[0].Weekday != "Thu" || *days[0].High != 45 || days[0].Low == nil || *days[0].Low != 33 {
		t.Fatalf("unexpected first day: %+v", days[0])
	}
	if days[0].Icon != "https://api.weather.gov/icons/land/day/few" {
		t.Fatalf("expected icon without query, got %q", days[0].Icon)
	}
	if days[1].Low != nil {
		t.Fatalf("expected no low for trailing day, got %v", *days[1].Low)
	}
	if days[1].Condition != ConditionRain {
		t.Fatalf("expected rain, got %s", days[1].Condition)
	}
}

func TestDailyStripCapsAtSevenDays(t *testing.T) {
	start := time.Date(2024, 2, 14, 6, 0, 0, 0, time.UTC)
	var periods []ForecastPeriod
	for i := 0; i < 20; i++ {
		periods = append(periods, period(i%2 == 0, start.Add(time.Duration(i)*12*time.Hour), 40, "Sunny"))
	}

	if got := len(DailyStrip(periods, nil)); got != 7 {
		t.Fatalf("expected 7 days, got %d", got)
	}
}

func TestHourlyStrip(t *testing.T) {
	start := time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC)
	var periods []ForecastPeriod
	for i := 0; i < 30; i++ {
		p := period(true, start.Add(time.Duration(i)*time.Hour), float64(30+i), "Cloudy")
		p.WindSpeed = "10 mph"
		p.WindDirection = "NW"
		periods = append(periods, p)
	}
	periods[0].TemperatureUnit = ""

	items := HourlyStrip(periods)
	if len(items) != 18 {
		t.Fatalf("expected 18 hours, got %d", len(items))
	}
	if items[0].TemperatureUnit != "F" {
		t.Fatalf("expected default unit F, got %q", items[0].TemperatureUnit)
	}
	if items[0].Wind != "10 mph NW" {
		t.Fatalf("unexpected wind line %q", items[0].Wind)
	}
	if items[0].FeelsLike == nil || *items[0].FeelsLike >= 30 {
		t.Fatalf("expected wind chill below 30, got %v", items[0].FeelsLike)
	}
	for i, it := range items {
		if !it.StartTime.Equal(periods[i].StartTime) {
			t.Fatalf("hour %d out of order", i)
		}
	}
}

func TestBuildHeroFallsBackToDaily(t *testing.T) {
	start := time.Date(2024, 2, 14, 6, 0, 0, 0, time.UTC)
	day := period(true, start, 45, "Sunny")
	day.WindSpeed = "5 to 10 mph"
	day.WindDirection = "NW"

	h := BuildHero(testNewYork, PeriodSet{Daily: []ForecastPeriod{day}}, start)

	if h.Temperature == nil || *h.Temperature != 45 || h.TemperatureUnit != "F" {
		t.Fatalf("expected daily temperature 45F, got %v %s", h.Temperature, h.TemperatureUnit)
	}
	if h.FeelsLike != nil {
		t.Fatalf("expected no feels-like without hourly data, got %v", *h.FeelsLike)
	}
	if h.Wind != "5 to 10 mph NW" || h.Condition != ConditionClear {
		t.Fatalf("unexpected hero %+v", h)
	}
	if h.Sunrise == nil || h.Sunset == nil {
		t.Fatal("expected sun times for New York")
	}
}

func TestBuildHeroPrefersHourly(t *testing.T) {
	start := time.Date(2024, 2, 14, 6, 0, 0, 0, time.UTC)
	hour := period(true, start, 38, "Light Rain")
	hour.ProbabilityOfPrecipitation = &QuantitativeValue{Value: floatPtr(70)}
	hour.RelativeHumidity = &QuantitativeValue{Value: floatPtr(88)}
	hour.WindSpeed = "12 mph"

	v := PeriodSet{
		Daily:  []ForecastPeriod{period(true, start, 41, "Rain Likely")},
		Hourly: []ForecastPeriod{hour},
	}
	h := BuildHero(testNewYork, v, start)

	if *h.Temperature != 38 {
		t.Fatalf("expected hourly temperature, got %v", *h.Temperature)
	}
	if h.ShortForecast != "Rain Likely" {
		t.Fatalf("expected daily short forecast, got %q", h.ShortForecast)
	}
	if *h.PrecipitationChance != 70 || *h.RelativeHumidity != 88 || h.SkyCover != nil {
		t.Fatalf("unexpected hourly quantities %+v", h)
	}
	if h.Wind != "12 mph" {
		t.Fatalf("expected hourly wind fallback, got %q", h.Wind)
	}
}

func envWith(temp float64, pop *float64, short string) PeriodSet {
	start := time.Date(2024, 2, 14, 6, 0, 0, 0, time.UTC)
	hour := period(true, start, temp, short)
	if pop != nil {
		hour.ProbabilityOfPrecipitation = &QuantitativeValue{Value: pop}
	}
	return PeriodSet{
		Daily:  []ForecastPeriod{period(true, start, temp, short)},
		Hourly: []ForecastPeriod{hour},
	}
}

func TestCompare(t *testing.T) {
	c := Compare(testNewYork, testLA, envWith(40, floatPtr(70), "Light Rain"), envWith(65, floatPtr(10), "Sunny"))

	if c.TemperatureDelta == nil || *c.TemperatureDelta != 25 || c.Verdict != VerdictColder {
		t.Fatalf("expected 25 degrees colder, got %+v", c)
	}
	if c.PrecipitationDelta == nil || *c.PrecipitationDelta != 60 {
		t.Fatalf("expected precip delta 60, got %v", c.PrecipitationDelta)
	}
	if c.Mood != "Rain in New York." {
		t.Fatalf("unexpected mood %q", c.Mood)
	}
}

func TestCompareMissingData(t *testing.T) {
	c := Compare(testNewYork, testLA, envWith(40, nil, "Sunny"), PeriodSet{})

	if c.TemperatureDelta != nil || c.Verdict != "" || c.PrecipitationDelta != nil {
		t.Fatalf("expected blank deltas, got %+v", c)
	}
	if c.Mood != "Two different skies." {
		t.Fatalf("unexpected mood %q", c.Mood)
	}
}

func TestCompareMood(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"Showers", "Light Rain", "Shared rain."},
		{"Snow", "Light Snow", "Shared snow."},
		{"Sunny", "Clear", "Clear in both cities."},
		{"Sunny", "Thunderstorms", "Rain in Los Angeles."},
		{"Cloudy", "Sunny", "Two different skies."},
	}

	for _, tt := range tests {
		c := Compare(testNewYork, testLA, envWith(50, nil, tt.a), envWith(50, nil, tt.b))
		if c.Mood != tt.want {
			t.Errorf("mood(%q, %q) = %q, want %q", tt.a, tt.b, c.Mood, tt.want)
		}
		if c.Verdict != VerdictSame {
			t.Errorf("expected same temperature verdict, got %s", c.Verdict)
		}
	}
}

func TestDecodePeriodsLenient(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"number": 1, "startTime": "2024-02-14T10:00-05:00", "isDaytime": true, "temperature": 40}`),
		json.RawMessage(`"not a period"`),
		json.RawMessage(`{"number": 2, "isDaytime": true, "shortForecast": "Snow"}`),
	}

	periods := DecodePeriods(raw)
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	want := time.Date(2024, 2, 14, 15, 0, 0, 0, time.UTC)
	if !periods[0].StartTime.Equal(want) {
		t.Fatalf("expected start %s, got %s", want, periods[0].StartTime)
	}
	if !periods[1].StartTime.IsZero() {
		t.Fatalf("expected zero start time, got %s", periods[1].StartTime)
	}

	days := DailyStrip(periods, nil)
	if days[0].Weekday != "Wed" || days[1].Weekday != "" {
		t.Fatalf("unexpected weekdays %q, %q", days[0].Weekday, days[1].Weekday)
	}
}
