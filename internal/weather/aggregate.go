package weather

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"
)

// Resolve validates the coordinate and performs the points lookup.
// No outbound call is made for an invalid coordinate.
func Resolve(ctx context.Context, p Provider, coord Coordinate) (GridReference, error) {
	if err := coord.Validate(); err != nil {
		return GridReference{}, err
	}

	ref, err := p.Points(ctx, coord)
	if err != nil {
		return GridReference{}, err
	}
	if ref.ForecastURL == "" || ref.ForecastHourlyURL == "" {
		return GridReference{}, &Error{
			Kind:    ErrUpstreamShapeMismatch,
			Stage:   StagePoints,
			Message: "Missing forecast urls",
		}
	}
	return ref, nil
}

// Aggregate fetches the daily and hourly forecasts concurrently and combines
// them into an envelope. No partial result is returned. When both fetches
// fail the daily failure is reported; a daily failure also abandons the
// hourly fetch, whose outcome can no longer matter.
func Aggregate(ctx context.Context, p Provider, ref GridReference) (ForecastEnvelope, error) {
	var (
		daily, hourly       ForecastDocument
		dailyErr, hourlyErr error
	)

	hourlyCtx, cancelHourly := context.WithCancel(ctx)
	defer cancelHourly()

	var g errgroup.Group
	g.Go(func() error {
		daily, dailyErr = p.Forecast(ctx, StageForecast, ref.ForecastURL)
		if dailyErr != nil {
			cancelHourly()
		}
		return dailyErr
	})
	g.Go(func() error {
		hourly, hourlyErr = p.Forecast(hourlyCtx, StageHourly, ref.ForecastHourlyURL)
		return hourlyErr
	})
	_ = g.Wait()

	if dailyErr != nil {
		return ForecastEnvelope{}, dailyErr
	}
	if hourlyErr != nil {
		return ForecastEnvelope{}, hourlyErr
	}
	return CombineForecasts(daily, hourly), nil
}

// CombineForecasts builds the envelope from two decoded documents. Missing
// period lists become empty slices; the daily updated timestamp wins over the
// hourly one.
func CombineForecasts(daily, hourly ForecastDocument) ForecastEnvelope {
	env := ForecastEnvelope{
		Updated:       daily.Updated,
		DailyPeriods:  daily.Periods,
		HourlyPeriods: hourly.Periods,
	}
	if env.Updated == nil {
		env.Updated = hourly.Updated
	}
	if env.DailyPeriods == nil {
		env.DailyPeriods = []json.RawMessage{}
	}
	if env.HourlyPeriods == nil {
		env.HourlyPeriods = []json.RawMessage{}
	}
	return env
}
