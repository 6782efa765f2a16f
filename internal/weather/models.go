package weather

import (
	"fmt"
	"math"
	"time"
)

// Location identifies a point for which cloud cover is tracked.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Key returns a canonical string key for indexing this location in stores.
// Coordinates are rounded to 0.01 degrees, well below forecast grid spacing.
func (l Location) Key() string {
	return fmt.Sprintf("%.2f:%.2f", round2(l.Lat), round2(l.Lon))
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // avoid "-0.00"
	}
	return r
}

// CloudPoint is the forecast total cloud cover for one hour.
type CloudPoint struct {
	Time          time.Time `json:"time"` // always UTC
	CloudCoverPct float64   `json:"cloudCoverPct"`
}

// CloudSeries is one provider response: hourly cloud cover for a location.
// Hours are ordered by Time ascending.
type CloudSeries struct {
	Location  Location     `json:"location"`
	Provider  string       `json:"provider"`
	FetchedAt time.Time    `json:"fetchedAt"`
	Hours     []CloudPoint `json:"hours"`
}

// At returns the cloud cover of the hour nearest to t. It reports false for
// an empty series or when t lies more than an hour outside the series.
func (s CloudSeries) At(t time.Time) (float64, bool) {
	if len(s.Hours) == 0 {
		return 0, false
	}
	first, last := s.Hours[0].Time, s.Hours[len(s.Hours)-1].Time
	if t.Before(first.Add(-time.Hour)) || t.After(last.Add(time.Hour)) {
		return 0, false
	}

	best := 0
	bestGap := absDuration(t.Sub(s.Hours[0].Time))
	for i := 1; i < len(s.Hours); i++ {
		gap := absDuration(t.Sub(s.Hours[i].Time))
		if gap < bestGap {
			best, bestGap = i, gap
		}
	}
	return s.Hours[best].CloudCoverPct, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
