package weather

import (
	"context"
	"time"
)

// CloudProvider abstracts a cloud cover forecast source.
type CloudProvider interface {
	Name() string
	FetchClouds(ctx context.Context, loc Location) (CloudSeries, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSeries(series CloudSeries)
	GetLatest(loc Location) (CloudSeries, error)
	GetRange(loc Location, from, to time.Time) ([]CloudSeries, error)
}
