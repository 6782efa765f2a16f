// Package planner scores observing conditions for a target body and searches
// future days for the best viewing windows.
package planner

import (
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/i474232898/skyplanner/internal/sky"
)

var validate = validator.New()

// SnapshotResolver produces the sky as seen by an observer at one instant.
type SnapshotResolver interface {
	Resolve(obs sky.Observer, at time.Time, refraction bool) (sky.Snapshot, error)
}

// Planner combines a SnapshotResolver with the scorer.
type Planner struct {
	resolver SnapshotResolver
	logger   *zap.Logger
	workers  int
}

// New creates a Planner. workers bounds how many days a window search scans
// concurrently; values <= 0 use GOMAXPROCS.
func New(resolver SnapshotResolver, logger *zap.Logger, workers int) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Planner{
		resolver: resolver,
		logger:   logger.With(zap.String("component", "planner")),
		workers:  workers,
	}
}

// Snapshot resolves the sky for obs at the given instant.
func (p *Planner) Snapshot(obs sky.Observer, at time.Time, refraction bool) (sky.Snapshot, error) {
	return p.resolver.Resolve(obs, at, refraction)
}

// Plan resolves a snapshot and scores target in it. An unknown target is a
// validation error.
func (p *Planner) Plan(obs sky.Observer, at time.Time, refraction bool, target sky.BodyID, cloudCoverPct *float64) (Assessment, error) {
	target, err := sky.ParseBodyID(string(target))
	if err != nil {
		return Assessment{}, err
	}
	snap, err := p.resolver.Resolve(obs, at, refraction)
	if err != nil {
		return Assessment{}, err
	}
	return Score(snap, target, cloudCoverPct)
}
