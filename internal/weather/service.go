package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Providers cover roughly one past day and sixteen forecast days. Lookups
// outside that horizon never fetch.
const (
	forecastBehind = 24 * time.Hour
	forecastAhead  = 16 * 24 * time.Hour
)

var (
	ErrNoProviders = errors.New("no cloud providers configured")
	ErrFetchFailed = errors.New("no successful provider readings")
)

// Service orchestrates fetching from providers and persisting cloud series.
type Service struct {
	store     Store
	providers []CloudProvider
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewService creates a new Service. Cached series younger than ttl are used
// without refetching; ttl <= 0 always fetches live.
func NewService(store Store, providers []CloudProvider, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		providers: providers,
		logger:    logger.With(zap.String("component", "weather")),
		ttl:       ttl,
		now:       time.Now,
	}
}

// FetchAndStore fetches from all providers concurrently and stores every
// successful series. It fails only when no provider succeeded.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	if len(s.providers) == 0 {
		return ErrNoProviders
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stored int
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func(p CloudProvider) {
			defer wg.Done()

			series, err := p.FetchClouds(ctx, loc)
			if err != nil {
				// Log and continue; we want partial success when possible.
				s.logger.Warn("provider fetch failed",
					zap.String("provider", p.Name()),
					zap.String("location", loc.Key()),
					zap.Error(err),
				)
				return
			}
			if series.FetchedAt.IsZero() {
				series.FetchedAt = s.now().UTC()
			}
			series.Location = loc
			s.store.SaveSeries(series)

			mu.Lock()
			stored++
			mu.Unlock()
		}(p)
	}

	wg.Wait()

	if stored == 0 {
		// Keep the last good series, if any.
		return fmt.Errorf("%w for %s", ErrFetchFailed, loc.Key())
	}
	s.logger.Debug("cloud cover stored", zap.String("location", loc.Key()), zap.Int("series", stored))
	return nil
}

// CloudCoverAt returns the forecast cloud cover at loc for the hour nearest
// to t, or nil when no data can be obtained. A fresh cached series is
// preferred; otherwise the providers are queried.
func (s *Service) CloudCoverAt(ctx context.Context, loc Location, t time.Time) *float64 {
	now := s.now()
	if t.Before(now.Add(-forecastBehind)) || t.After(now.Add(forecastAhead)) {
		return nil
	}
	if v, ok := s.cached(loc, t); ok {
		return &v
	}

	if err := s.FetchAndStore(ctx, loc); err != nil {
		s.logger.Debug("cloud cover unavailable", zap.String("location", loc.Key()), zap.Error(err))
		return nil
	}

	latest, err := s.store.GetLatest(loc)
	if err != nil {
		return nil
	}
	v, ok := latest.At(t)
	if !ok {
		return nil
	}
	return &v
}

func (s *Service) cached(loc Location, t time.Time) (float64, bool) {
	if s.ttl <= 0 {
		return 0, false
	}
	latest, err := s.store.GetLatest(loc)
	if err != nil || s.now().Sub(latest.FetchedAt) > s.ttl {
		return 0, false
	}
	return latest.At(t)
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (CloudSeries, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]CloudSeries, error) {
	return s.store.GetRange(loc, from, to)
}
