package weather

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Service runs the points→forecast chain and builds dashboard views for the
// configured cities.
type Service struct {
	store    Store
	provider Provider
	// refresher serves the city cache; it may hold state across calls, such
	// as a circuit breaker, that the proxy provider must not.
	refresher Provider
	cities    []City
	now       func() time.Time
}

// NewService creates a new Service. The same provider serves the proxy and
// the city cache until WithRefreshProvider says otherwise.
func NewService(store Store, provider Provider, cities []City) *Service {
	return &Service{
		store:     store,
		provider:  provider,
		refresher: provider,
		cities:    cities,
		now:       time.Now,
	}
}

// WithRefreshProvider sets the provider used to fill the city cache.
func (s *Service) WithRefreshProvider(p Provider) *Service {
	s.refresher = p
	return s
}

// Forecast resolves the coordinate and aggregates both forecasts. It is
// stateless: the city cache is neither read nor written.
func (s *Service) Forecast(ctx context.Context, coord Coordinate) (ForecastEnvelope, error) {
	return fetch(ctx, s.provider, coord)
}

func fetch(ctx context.Context, p Provider, coord Coordinate) (ForecastEnvelope, error) {
	ref, err := Resolve(ctx, p, coord)
	if err != nil {
		return ForecastEnvelope{}, err
	}

	env, err := Aggregate(ctx, p, ref)
	if err != nil {
		return ForecastEnvelope{}, err
	}

	log.Printf("DEBUG: %s forecast for %s: %d daily, %d hourly periods",
		p.Name(), coord.Key(), len(env.DailyPeriods), len(env.HourlyPeriods))
	return env, nil
}

// Cities returns the configured dashboard cities.
func (s *Service) Cities() []City {
	return s.cities
}

// City looks up a configured city by key.
func (s *Service) City(key string) (City, bool) {
	for _, c := range s.cities {
		if c.Key == key {
			return c, true
		}
	}
	return City{}, false
}

// Refresh fetches a city's forecast and caches it. On failure the last good
// snapshot is kept.
func (s *Service) Refresh(ctx context.Context, city City) (Snapshot, error) {
	env, err := fetch(ctx, s.refresher, city.Coordinate())
	if err != nil {
		return Snapshot{}, fmt.Errorf("refresh %s: %w", city.Key, err)
	}
	snap := Snapshot{Envelope: env, FetchedAt: s.now().UTC()}
	s.store.Save(city.Key, snap)
	return snap, nil
}

// RefreshAll refreshes every configured city concurrently and returns the
// number of cities that failed.
func (s *Service) RefreshAll(ctx context.Context) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	for _, c := range s.cities {
		wg.Add(1)
		go func(c City) {
			defer wg.Done()
			if _, err := s.Refresh(ctx, c); err != nil {
				log.Printf("ERROR: %v; keeping last good snapshot if any", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(c)
	}

	wg.Wait()
	return failed
}

// snapshot returns the cached snapshot for a city, fetching it live on a miss.
func (s *Service) snapshot(ctx context.Context, city City) (Snapshot, error) {
	if snap, err := s.store.Latest(city.Key); err == nil {
		return snap, nil
	}
	return s.Refresh(ctx, city)
}

// Dashboard builds the view for the city with the given key, compared against
// the other configured city. An empty key selects the first city. A failure
// for the other city only blanks the comparison.
func (s *Service) Dashboard(ctx context.Context, key string) (Dashboard, error) {
	if len(s.cities) == 0 {
		return Dashboard{}, &Error{Kind: ErrUnexpectedFailure, Message: "no dashboard cities configured"}
	}

	city := s.cities[0]
	if key != "" {
		c, ok := s.City(key)
		if !ok {
			return Dashboard{}, &Error{Kind: ErrInvalidRequest, Message: "Unknown city"}
		}
		city = c
	}
	other := s.otherCity(city)

	var (
		wg                  sync.WaitGroup
		selected, otherSnap Snapshot
		selErr, otherErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		selected, selErr = s.snapshot(ctx, city)
	}()
	go func() {
		defer wg.Done()
		if other.Key == city.Key {
			return
		}
		otherSnap, otherErr = s.snapshot(ctx, other)
	}()
	wg.Wait()

	if selErr != nil {
		return Dashboard{}, selErr
	}
	if otherErr != nil {
		log.Printf("INFO: comparison unavailable for %s: %v", other.Key, otherErr)
	}

	return BuildDashboard(city, other, selected, otherSnap, s.now()), nil
}

// otherCity returns the first configured city that is not c, or c itself
// when it is the only one.
func (s *Service) otherCity(c City) City {
	for _, o := range s.cities {
		if o.Key != c.Key {
			return o
		}
	}
	return c
}
