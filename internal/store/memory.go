// Package store keeps recent cloud cover series in memory.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/skyplanner/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no cloud data for location")
)

// seriesHistory holds cloud series for a location, ordered by FetchedAt.
type seriesHistory struct {
	series []weather.CloudSeries
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key
	data map[string]*seriesHistory

	maxHistory int           // max series per location, <= 0 is unlimited
	maxAge     time.Duration // max age by FetchedAt, <= 0 is unlimited
	now        func() time.Time
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*seriesHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSeries appends a series for its location and enforces retention.
// Out-of-order saves are inserted by FetchedAt.
func (s *MemoryStore) SaveSeries(series weather.CloudSeries) {
	key := series.Location.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[key]
	if !ok {
		h = &seriesHistory{}
		s.data[key] = h
	}

	i := len(h.series)
	for i > 0 && h.series[i-1].FetchedAt.After(series.FetchedAt) {
		i--
	}
	h.series = append(h.series, weather.CloudSeries{})
	copy(h.series[i+1:], h.series[i:])
	h.series[i] = series

	// Enforce retention by count.
	if s.maxHistory > 0 && len(h.series) > s.maxHistory {
		h.series = h.series[len(h.series)-s.maxHistory:]
	}

	// Enforce retention by age. The newest series is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		drop := 0
		for drop < len(h.series)-1 && h.series[drop].FetchedAt.Before(cutoff) {
			drop++
		}
		h.series = h.series[drop:]
	}
}

// GetLatest returns the most recently fetched series for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.CloudSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[loc.Key()]
	if !ok || len(h.series) == 0 {
		return weather.CloudSeries{}, ErrNotFound
	}
	return h.series[len(h.series)-1], nil
}

// GetRange returns all series for a location fetched between from and to
// (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.CloudSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[loc.Key()]
	if !ok || len(h.series) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.CloudSeries
	for _, cs := range h.series {
		if !cs.FetchedAt.Before(from) && !cs.FetchedAt.After(to) {
			result = append(result, cs)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
