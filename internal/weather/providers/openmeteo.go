// Package providers implements weather.CloudProvider for external services.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/skyplanner/internal/httpx"
	"github.com/i474232898/skyplanner/internal/weather"
)

// DefaultOpenMeteoURL is the public forecast endpoint; it needs no API key.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoProvider implements weather.CloudProvider for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *httpx.Client
	now     func() time.Time
}

var _ weather.CloudProvider = (*OpenMeteoProvider)(nil)

// NewOpenMeteoProvider creates a provider. An empty baseURL selects
// DefaultOpenMeteoURL.
func NewOpenMeteoProvider(client *http.Client, baseURL string, logger *zap.Logger) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client: httpx.New("openmeteo", httpx.HTTPClientConfig{
			Client:  client,
			Backoff: httpx.DefaultBackoff,
		}, logger),
		now: time.Now,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchClouds returns hourly total cloud cover from yesterday through the
// forecast horizon, in UTC.
func (p *OpenMeteoProvider) FetchClouds(ctx context.Context, loc weather.Location) (weather.CloudSeries, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
		values.Set("hourly", "cloud_cover")
		values.Set("timezone", "UTC")
		values.Set("past_days", "1")
		values.Set("forecast_days", "16")

		return http.NewRequest(http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := p.client.Do(ctx, buildRequest)
	if err != nil {
		return weather.CloudSeries{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly struct {
			Time       []string   `json:"time"`
			CloudCover []*float64 `json:"cloud_cover"`
		} `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CloudSeries{}, fmt.Errorf("decode openmeteo response: %w", err)
	}

	if len(payload.Hourly.Time) != len(payload.Hourly.CloudCover) {
		return weather.CloudSeries{}, fmt.Errorf("openmeteo: %d times but %d cloud values",
			len(payload.Hourly.Time), len(payload.Hourly.CloudCover))
	}

	hours := make([]weather.CloudPoint, 0, len(payload.Hourly.Time))
	for i, raw := range payload.Hourly.Time {
		v := payload.Hourly.CloudCover[i]
		if v == nil {
			continue
		}
		ts, err := time.ParseInLocation(openMeteoTimeLayout, raw, time.UTC)
		if err != nil {
			return weather.CloudSeries{}, fmt.Errorf("openmeteo: bad time %q: %w", raw, err)
		}
		hours = append(hours, weather.CloudPoint{Time: ts, CloudCoverPct: *v})
	}
	if len(hours) == 0 {
		return weather.CloudSeries{}, fmt.Errorf("openmeteo: no hourly cloud cover for %s", loc.Key())
	}

	return weather.CloudSeries{
		Location:  loc,
		Provider:  p.name,
		FetchedAt: p.now().UTC(),
		Hours:     hours,
	}, nil
}
