package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

var (
	// ErrNotFound is returned when no fresh data is cached for a city.
	ErrNotFound = errors.New("no weather data for city")
)

// MemoryStore is a concurrency-safe in-memory cache of the latest envelope per city.
type MemoryStore struct {
	mu sync.RWMutex

	// key: city key
	data map[string]weather.Snapshot

	maxAge time.Duration // 0 = never expires
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore. Snapshots older than maxAge are
// treated as missing; maxAge <= 0 disables expiry.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]weather.Snapshot),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Save replaces the snapshot for a city.
func (s *MemoryStore) Save(key string, snapshot weather.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = snapshot
}

// Latest returns the cached snapshot for a city if it is still fresh.
func (s *MemoryStore) Latest(key string) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[key]
	if !ok {
		return weather.Snapshot{}, ErrNotFound
	}
	if s.maxAge > 0 && s.now().Sub(snap.FetchedAt) > s.maxAge {
		return weather.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

// Keys lists the cities with a cached snapshot, fresh or not.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
