package planner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/skyplanner/internal/sky"
)

// Window search tuning. These constants determine the output.
const (
	sampleInterval = 20 * time.Minute
	samplesPerDay  = int(24 * time.Hour / sampleInterval)
	minWindowScore = 0.3
)

// WindowQuery describes a future-window search.
type WindowQuery struct {
	Observer      sky.Observer
	Start         time.Time
	Target        sky.BodyID `validate:"required"`
	DaysAhead     int        `validate:"min=1,max=365"`
	MaxWindows    int        `validate:"min=1,max=10"`
	Refraction    bool
	CloudCoverPct *float64 `validate:"omitempty,gte=0,lte=100"`
}

// Window is the best viewing time found on one day.
type Window struct {
	Time           time.Time      `json:"datetime"`
	LocalTime      string         `json:"localTime"`
	DateRange      string         `json:"dateRange"`
	Score          float64        `json:"score"`
	Metrics        Metrics        `json:"metrics"`
	Recommendation Recommendation `json:"recommendation"`
}

// SearchPeriod echoes the searched range.
type SearchPeriod struct {
	StartDate time.Time `json:"startDate"`
	DaysAhead int       `json:"daysAhead"`
}

// WindowResult is the ranked outcome of a search.
type WindowResult struct {
	Target       sky.BodyID   `json:"target"`
	SearchPeriod SearchPeriod `json:"searchPeriod"`
	Windows      []Window     `json:"windows"`
	TotalFound   int          `json:"totalFound"`
	Returned     int          `json:"returned"`
}

// FindWindows scans days 1..DaysAhead after q.Start, picks the best eligible
// sample of each day, and returns the highest scoring days first.
//
// Days are scanned concurrently but every day is scanned in time order, so
// the earliest sample wins ties within a day and equal-scored days keep
// calendar order.
func (p *Planner) FindWindows(ctx context.Context, q WindowQuery) (WindowResult, error) {
	if err := validate.Struct(q); err != nil {
		return WindowResult{}, fmt.Errorf("%w: %v", sky.ErrValidation, err)
	}
	if _, err := sky.ParseBodyID(string(q.Target)); err != nil {
		return WindowResult{}, err
	}
	if err := q.Observer.Validate(); err != nil {
		return WindowResult{}, err
	}

	start := q.Start.UTC()
	perDay := make([]*Window, q.DaysAhead)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for day := 1; day <= q.DaysAhead; day++ {
		day := day // per-iteration copy; toolchain is go1.21 (pre-1.22 loopvar semantics)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			base := start.AddDate(0, 0, day)
			dayStart := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC)
			if w, ok := p.bestOfDay(q, dayStart); ok {
				perDay[day-1] = &w
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WindowResult{}, err
	}

	windows := make([]Window, 0, q.DaysAhead)
	for _, w := range perDay {
		if w != nil {
			windows = append(windows, *w)
		}
	}
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Score > windows[j].Score
	})

	total := len(windows)
	if len(windows) > q.MaxWindows {
		windows = windows[:q.MaxWindows]
	}

	p.logger.Debug("window search finished",
		zap.String("target", string(q.Target)),
		zap.Int("daysAhead", q.DaysAhead),
		zap.Int("totalFound", total),
	)

	return WindowResult{
		Target: q.Target,
		SearchPeriod: SearchPeriod{
			StartDate: start,
			DaysAhead: q.DaysAhead,
		},
		Windows:    windows,
		TotalFound: total,
		Returned:   len(windows),
	}, nil
}

// bestOfDay samples one UTC day and returns its best eligible window, if any
// clears the minimum score.
func (p *Planner) bestOfDay(q WindowQuery, dayStart time.Time) (Window, bool) {
	var (
		best  Window
		found bool
	)

	for i := 0; i < samplesPerDay; i++ {
		at := dayStart.Add(time.Duration(i) * sampleInterval)

		a, err := p.Plan(q.Observer, at, q.Refraction, q.Target, q.CloudCoverPct)
		if err != nil {
			p.logger.Debug("skipping sample",
				zap.Time("at", at),
				zap.String("target", string(q.Target)),
				zap.Error(err),
			)
			continue
		}

		// Same conditions as the scorer's gate, checked on the raw metrics.
		if !(a.Metrics.TargetAltitudeDeg > 0 && a.Metrics.SunAltitudeDeg < -6) {
			continue
		}

		if !found || a.Recommendation.Score > best.Score {
			best = Window{
				Time:           at,
				LocalTime:      LocalTimeLabel(at, q.Observer.Longitude),
				DateRange:      at.Format("Jan 02, 2006"),
				Score:          a.Recommendation.Score,
				Metrics:        a.Metrics,
				Recommendation: a.Recommendation,
			}
			found = true
		}
	}

	if !found || best.Score <= minWindowScore {
		return Window{}, false
	}
	return best, true
}

// LocalTimeLabel renders t shifted by longitude/15 hours. This is a display
// approximation only: no daylight saving time and no political time zones.
func LocalTimeLabel(t time.Time, longitude float64) string {
	offset := time.Duration(longitude / 15 * float64(time.Hour))
	local := t.UTC().Add(offset)

	mins := int(math.Round(offset.Minutes()))
	sign := '+'
	if mins < 0 {
		sign = '-'
		mins = -mins
	}
	return fmt.Sprintf("%s (approx. UTC%c%02d:%02d)", local.Format("2006-01-02 15:04"), sign, mins/60, mins%60)
}
