package weather

import (
	"context"
	"time"
)

// Provider abstracts the upstream forecast API (the NWS points/forecast chain).
type Provider interface {
	Name() string
	// Points resolves a coordinate to its forecast locators with one outbound call.
	Points(ctx context.Context, coord Coordinate) (GridReference, error)
	// Forecast fetches one forecast resource; stage tags any failure.
	Forecast(ctx context.Context, stage Stage, url string) (ForecastDocument, error)
}

// Store is the contract for the dashboard's per-city envelope cache.
type Store interface {
	Save(key string, snapshot Snapshot)
	Latest(key string) (Snapshot, error)
}

// Snapshot is a cached envelope together with the time it was fetched.
type Snapshot struct {
	Envelope  ForecastEnvelope
	FetchedAt time.Time
}
