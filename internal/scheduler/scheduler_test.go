package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/skyplanner/internal/sites"
	"github.com/i474232898/skyplanner/internal/weather"
)

type recordingFetcher struct {
	mu   sync.Mutex
	seen []string
	fail string
}

func (f *recordingFetcher) FetchAndStore(ctx context.Context, loc weather.Location) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, loc.Key())
	if loc.Key() == f.fail {
		return errors.New("upstream down")
	}
	return nil
}

func (f *recordingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

var testSites = []sites.Site{
	{Name: "a", Location: weather.Location{Lat: 10, Lon: 20}},
	{Name: "b", Location: weather.Location{Lat: -33.86, Lon: 151.21}},
	{Name: "c", Location: weather.Location{Lat: 51.5, Lon: 0}},
}

func TestRunOnceFetchesEverySite(t *testing.T) {
	f := &recordingFetcher{fail: testSites[1].Location.Key()}
	New(testSites, time.Hour, f, zap.NewNop()).RunOnce()

	assert.ElementsMatch(t, []string{"10.00:20.00", "-33.86:151.21", "51.50:0.00"}, f.seen)
}

func TestStartWithoutSitesIsNoop(t *testing.T) {
	f := &recordingFetcher{}
	s := New(nil, time.Hour, f, nil)
	require.NoError(t, s.Start())
	s.Stop()
	assert.Zero(t, f.count())
}

func TestStartRunsImmediately(t *testing.T) {
	f := &recordingFetcher{}
	s := New(testSites, time.Hour, f, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return f.count() == len(testSites) }, 5*time.Second, 10*time.Millisecond)
}

func TestNewDefaultsShortInterval(t *testing.T) {
	s := New(testSites, time.Second, &recordingFetcher{}, nil)
	assert.Equal(t, defaultInterval, s.interval)
}
