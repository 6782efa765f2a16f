// Package client is a Go client for the skyplanner HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/skyplanner/internal/api/http"
	"github.com/i474232898/skyplanner/internal/httpx"
	"github.com/i474232898/skyplanner/internal/planner"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Query carries the request parameters. Zero-valued optional fields are not
// sent, so the server defaults apply.
type Query struct {
	Lat, Lon      float64
	Elev          float64
	Time          time.Time
	NoRefraction  bool
	Target        string
	CloudCoverPct *float64
	DaysAhead     int
	MaxWindows    int
}

func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	if q.Elev != 0 {
		v.Set("elev", strconv.FormatFloat(q.Elev, 'f', -1, 64))
	}
	if !q.Time.IsZero() {
		v.Set("datetime", q.Time.UTC().Format(time.RFC3339))
	}
	if q.NoRefraction {
		v.Set("refraction", "false")
	}
	if q.Target != "" {
		v.Set("target", q.Target)
	}
	if q.CloudCoverPct != nil {
		v.Set("cloudCoverPct", strconv.FormatFloat(*q.CloudCoverPct, 'f', -1, 64))
	}
	if q.DaysAhead != 0 {
		v.Set("daysAhead", strconv.Itoa(q.DaysAhead))
	}
	if q.MaxWindows != 0 {
		v.Set("maxWindows", strconv.Itoa(q.MaxWindows))
	}
	return v
}

// Client talks to one skyplanner server.
type Client struct {
	baseURL string
	http    *httpx.Client
}

// New creates a Client for the server at baseURL (e.g. http://127.0.0.1:8080).
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: httpx.New("skyplanner", httpx.HTTPClientConfig{
			Client:  httpClient,
			Backoff: httpx.DefaultBackoff,
		}, logger),
	}
}

// Sky fetches the positions of every configured body.
func (c *Client) Sky(ctx context.Context, q Query) (httpapi.SkyResponse, error) {
	var out httpapi.SkyResponse
	err := c.get(ctx, "/api/sky", q, &out)
	return out, err
}

// Plan fetches the assessment of q.Target.
func (c *Client) Plan(ctx context.Context, q Query) (httpapi.PlanResponse, error) {
	var out httpapi.PlanResponse
	err := c.get(ctx, "/api/plan", q, &out)
	return out, err
}

// Windows searches for the best upcoming windows for q.Target.
func (c *Client) Windows(ctx context.Context, q Query) (planner.WindowResult, error) {
	var out planner.WindowResult
	err := c.get(ctx, "/api/windows", q, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, q Query, out any) error {
	target := c.baseURL + path + "?" + q.values().Encode()

	resp, err := c.http.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) {
			return decodeAPIError(se)
		}
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(se *httpx.StatusError) error {
	var body httpapi.ErrorResponse
	if err := json.Unmarshal(se.Body, &body); err != nil || body.Code == "" {
		return &APIError{Status: se.Code, Code: http.StatusText(se.Code), Message: strings.TrimSpace(string(se.Body))}
	}
	return &APIError{Status: se.Code, Code: body.Code, Message: body.Message}
}
