package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skyplanner/internal/weather"
)

func TestOpenMeteoFetchClouds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "37.7749", q.Get("latitude"))
		assert.Equal(t, "-122.4194", q.Get("longitude"))
		assert.Equal(t, "cloud_cover", q.Get("hourly"))
		assert.Equal(t, "UTC", q.Get("timezone"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"latitude": 37.78,
			"longitude": -122.42,
			"hourly": {
				"time": ["2024-03-10T00:00", "2024-03-10T01:00", "2024-03-10T02:00"],
				"cloud_cover": [12, null, 87.5]
			}
		}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, nil)
	fetched := time.Date(2024, 3, 10, 1, 5, 0, 0, time.UTC)
	p.now = func() time.Time { return fetched }

	loc := weather.Location{Lat: 37.7749, Lon: -122.4194}
	series, err := p.FetchClouds(context.Background(), loc)
	require.NoError(t, err)

	assert.Equal(t, "openmeteo", series.Provider)
	assert.Equal(t, loc, series.Location)
	assert.Equal(t, fetched, series.FetchedAt)
	require.Len(t, series.Hours, 2, "null values are skipped")
	assert.Equal(t, time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC), series.Hours[1].Time)
	assert.Equal(t, 87.5, series.Hours[1].CloudCoverPct)

	v, ok := series.At(time.Date(2024, 3, 10, 0, 20, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 12.0, v)
}

func TestOpenMeteoRejectsMalformedPayloads(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"hourly":{"time":["2024-03-10T00:00"],"cloud_cover":[]}}`,
		`{"hourly":{"time":["yesterday"],"cloud_cover":[5]}}`,
		`{"hourly":{"time":["2024-03-10T00:00"],"cloud_cover":[null]}}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		p := NewOpenMeteoProvider(srv.Client(), srv.URL, nil)
		_, err := p.FetchClouds(context.Background(), weather.Location{Lat: 1, Lon: 2})
		assert.Error(t, err, body)
		srv.Close()
	}
}

func TestOpenMeteoClientErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Latitude must be in range"}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL, nil)
	_, err := p.FetchClouds(context.Background(), weather.Location{Lat: 1, Lon: 2})
	assert.Error(t, err)
}
