package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, handler http.HandlerFunc, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--api", srv.URL))
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/plan", r.URL.Path)
		assert.Equal(t, "jupiter", q.Get("target"))
		assert.Equal(t, "2024-03-10T04:00:00Z", q.Get("datetime"))
		assert.Equal(t, "20", q.Get("cloudCoverPct"))
		_, _ = w.Write([]byte(`{
			"observer": {"latitude": 37.7749, "longitude": -122.4194, "elevationM": 0, "datetime": "2024-03-10T04:00:00Z"},
			"target": "jupiter",
			"metrics": {"targetAltitudeDeg": 42, "sunAltitudeDeg": -30, "moonTargetSeparationDeg": 90, "cloudCoverPct": 20},
			"recommendation": {"ok": true, "score": 0.95, "criteria": {"alt": 1, "sun": 1, "moon": 1, "clouds": 0.8}}
		}`))
	}, "plan", "--lat", "37.7749", "--lon", "-122.4194", "--target", "jupiter", "--datetime", "2024-03-10T04:00:00Z", "--clouds", "20")

	require.NoError(t, err)
	assert.Contains(t, out, "Good window for Jupiter")
	assert.Contains(t, out, "cloud cover:      20%")
}

func TestPlanCommandOmitsCloudsByDefault(t *testing.T) {
	_, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("cloudCoverPct"))
		_, _ = w.Write([]byte(`{"target":"saturn","metrics":{},"recommendation":{"score":0}}`))
	}, "plan", "--lat", "1", "--lon", "2")
	require.NoError(t, err)
}

func TestWindowsCommandJSON(t *testing.T) {
	out, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/windows", r.URL.Path)
		assert.Equal(t, "10", q.Get("daysAhead"))
		assert.Equal(t, "2", q.Get("maxWindows"))
		_, _ = w.Write([]byte(`{"target":"saturn","searchPeriod":{"startDate":"2024-03-10T04:00:00Z","daysAhead":10},"windows":[],"totalFound":0,"returned":0}`))
	}, "windows", "--lat", "1", "--lon", "2", "--days", "10", "--max", "2", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"totalFound": 0`)
}

func TestCommandReportsAPIErrors(t *testing.T) {
	_, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"code":"BadRequest","message":"validation error: unknown target body \"pluto\""}`))
	}, "plan", "--lat", "1", "--lon", "2", "--target", "pluto")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "BadRequest")
}

func TestCommandRequiresObserver(t *testing.T) {
	_, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, "sky", "--lat", "1")
	assert.Error(t, err)
}

func TestCommandRejectsBadDatetime(t *testing.T) {
	_, err := run(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, "sky", "--lat", "1", "--lon", "2", "--datetime", "tomorrow")
	assert.Error(t, err)
}
