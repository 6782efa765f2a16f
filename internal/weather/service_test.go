package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	loc = Location{Lat: 37.7749, Lon: -122.4194}
	t0  = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
)

type fakeProvider struct {
	name  string
	calls atomic.Int32
	err   error
	pct   float64
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchClouds(_ context.Context, l Location) (CloudSeries, error) {
	f.calls.Add(1)
	if f.err != nil {
		return CloudSeries{}, f.err
	}
	hours := make([]CloudPoint, 48)
	for i := range hours {
		hours[i] = CloudPoint{Time: t0.Add(time.Duration(i) * time.Hour), CloudCoverPct: f.pct + float64(i)}
	}
	return CloudSeries{Location: l, Provider: f.name, Hours: hours}, nil
}

type sliceStore struct {
	mu     sync.Mutex
	series []CloudSeries
}

func (s *sliceStore) SaveSeries(cs CloudSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = append(s.series, cs)
}

func (s *sliceStore) GetLatest(l Location) (CloudSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.series) - 1; i >= 0; i-- {
		if s.series[i].Location.Key() == l.Key() {
			return s.series[i], nil
		}
	}
	return CloudSeries{}, errors.New("not found")
}

func (s *sliceStore) GetRange(l Location, _, _ time.Time) ([]CloudSeries, error) {
	latest, err := s.GetLatest(l)
	if err != nil {
		return nil, err
	}
	return []CloudSeries{latest}, nil
}

func newTestService(ttl time.Duration, providers ...CloudProvider) (*Service, *sliceStore) {
	st := &sliceStore{}
	svc := NewService(st, providers, ttl, zap.NewNop())
	svc.now = func() time.Time { return t0.Add(3 * time.Hour) }
	return svc, st
}

func TestFetchAndStoreKeepsPartialSuccess(t *testing.T) {
	good := &fakeProvider{name: "good", pct: 10}
	bad := &fakeProvider{name: "bad", err: errors.New("boom")}
	svc, st := newTestService(time.Hour, good, bad)

	require.NoError(t, svc.FetchAndStore(context.Background(), loc))
	require.Len(t, st.series, 1)
	assert.Equal(t, "good", st.series[0].Provider)
	assert.Equal(t, t0.Add(3*time.Hour), st.series[0].FetchedAt)
}

func TestFetchAndStoreFailures(t *testing.T) {
	svc, _ := newTestService(time.Hour)
	assert.ErrorIs(t, svc.FetchAndStore(context.Background(), loc), ErrNoProviders)

	svc, st := newTestService(time.Hour, &fakeProvider{name: "bad", err: errors.New("boom")})
	assert.ErrorIs(t, svc.FetchAndStore(context.Background(), loc), ErrFetchFailed)
	assert.Empty(t, st.series)
}

func TestCloudCoverAtUsesFreshCache(t *testing.T) {
	p := &fakeProvider{name: "p", pct: 10}
	svc, _ := newTestService(time.Hour, p)
	at := t0.Add(5*time.Hour + 10*time.Minute)

	v := svc.CloudCoverAt(context.Background(), loc, at)
	require.NotNil(t, v)
	assert.Equal(t, 15.0, *v)

	v = svc.CloudCoverAt(context.Background(), loc, at.Add(time.Hour))
	require.NotNil(t, v)
	assert.Equal(t, 16.0, *v)
	assert.EqualValues(t, 1, p.calls.Load(), "second lookup is served from the store")
}

func TestCloudCoverAtRefetchesStaleCache(t *testing.T) {
	p := &fakeProvider{name: "p", pct: 10}
	svc, _ := newTestService(time.Hour, p)
	require.NoError(t, svc.FetchAndStore(context.Background(), loc))

	svc.now = func() time.Time { return t0.Add(5 * time.Hour) }
	require.NotNil(t, svc.CloudCoverAt(context.Background(), loc, t0))
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestCloudCoverAtToleratesFailures(t *testing.T) {
	svc, _ := newTestService(time.Hour, &fakeProvider{name: "bad", err: errors.New("boom")})
	assert.Nil(t, svc.CloudCoverAt(context.Background(), loc, t0))

	svc, _ = newTestService(0, &fakeProvider{name: "p"})
	assert.Nil(t, svc.CloudCoverAt(context.Background(), loc, t0.AddDate(0, 1, 0)), "outside forecast range")
}

func TestCloudCoverAtSkipsFetchOutsideForecastHorizon(t *testing.T) {
	p := &fakeProvider{name: "p", pct: 10}
	svc, st := newTestService(time.Hour, p)
	now := svc.now()

	for _, at := range []time.Time{
		now.Add(-25 * time.Hour),
		now.AddDate(0, 0, 17),
		now.AddDate(-1, 0, 0),
	} {
		assert.Nil(t, svc.CloudCoverAt(context.Background(), loc, at), "at %s", at)
	}
	assert.Zero(t, p.calls.Load())
	assert.Empty(t, st.series)

	require.NotNil(t, svc.CloudCoverAt(context.Background(), loc, now.Add(-2*time.Hour)))
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestCloudSeriesAtNearestHour(t *testing.T) {
	s := CloudSeries{Hours: []CloudPoint{
		{Time: t0, CloudCoverPct: 10},
		{Time: t0.Add(time.Hour), CloudCoverPct: 20},
		{Time: t0.Add(2 * time.Hour), CloudCoverPct: 30},
	}}

	cases := []struct {
		at   time.Time
		want float64
		ok   bool
	}{
		{t0.Add(-30 * time.Minute), 10, true},
		{t0.Add(29 * time.Minute), 10, true},
		{t0.Add(31 * time.Minute), 20, true},
		{t0.Add(2*time.Hour + 59*time.Minute), 30, true},
		{t0.Add(-2 * time.Hour), 0, false},
		{t0.Add(4 * time.Hour), 0, false},
	}
	for _, tc := range cases {
		got, ok := s.At(tc.at)
		assert.Equal(t, tc.ok, ok, "at %s", tc.at)
		assert.Equal(t, tc.want, got, "at %s", tc.at)
	}

	_, ok := CloudSeries{}.At(t0)
	assert.False(t, ok)
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "37.77:-122.42", loc.Key())
	assert.Equal(t, "0.00:0.00", Location{Lat: -0.001, Lon: 0.004}.Key())
}
