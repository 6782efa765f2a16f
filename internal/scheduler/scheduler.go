// Package scheduler keeps cloud cover for the configured sites fresh.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/skyplanner/internal/sites"
	"github.com/i474232898/skyplanner/internal/weather"
)

const (
	defaultInterval = 30 * time.Minute
	fetchTimeout    = 30 * time.Second
)

// Fetcher refreshes cloud cover for one site.
type Fetcher interface {
	FetchAndStore(ctx context.Context, loc weather.Location) error
}

// Scheduler periodically fetches cloud cover for configured sites.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	sites     []sites.Site
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler. Intervals under a minute fall back to 30m.
func New(list []sites.Site, interval time.Duration, fetcher Fetcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < time.Minute {
		interval = defaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		fetcher:   fetcher,
		sites:     list,
		interval:  interval,
		logger:    logger.With(zap.String("component", "scheduler")),
	}
}

// Start schedules the refresh job, runs it once immediately, and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.sites) == 0 {
		s.logger.Info("no sites configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("cloud refresh scheduled",
		zap.Int("sites", len(s.sites)),
		zap.Duration("interval", s.interval),
	)
	return nil
}

// RunOnce refreshes every site concurrently, each under its own timeout.
func (s *Scheduler) RunOnce() {
	start := time.Now()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, site := range s.sites {
		wg.Add(1)
		go func(site sites.Site) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
			defer cancel()

			if err := s.fetcher.FetchAndStore(ctx, site.Location); err != nil {
				s.logger.Warn("cloud refresh failed", zap.String("site", site.Name), zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(site)
	}
	wg.Wait()

	s.logger.Info("cloud refresh completed",
		zap.Int("sites", len(s.sites)),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
