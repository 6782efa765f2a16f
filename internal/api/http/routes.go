// Package httpapi exposes the sky, planning and cloud cover endpoints over
// Fiber.
package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/skyplanner/internal/planner"
	"github.com/i474232898/skyplanner/internal/sites"
	"github.com/i474232898/skyplanner/internal/sky"
	"github.com/i474232898/skyplanner/internal/weather"
)

const (
	defaultDaysAhead  = 60
	defaultMaxWindows = 3

	// cloudLookupTimeout bounds the weather lookup made by /api/plan.
	cloudLookupTimeout = 6 * time.Second
)

// CloudService is the part of weather.Service the API needs.
type CloudService interface {
	CloudCoverAt(ctx context.Context, loc weather.Location, t time.Time) *float64
	GetLatest(loc weather.Location) (weather.CloudSeries, error)
	GetRange(loc weather.Location, from, to time.Time) ([]weather.CloudSeries, error)
}

// Dependencies are the services the routes are served from. Clouds may be
// nil, in which case /api/plan scores without weather and the cloud routes
// report no data.
type Dependencies struct {
	Planner *planner.Planner
	Clouds  CloudService
	Sites   []sites.Site
	Now     func() time.Time
}

// ObserverEcho repeats the resolved observer and instant in responses.
type ObserverEcho struct {
	sky.Observer
	Time time.Time `json:"datetime"`
}

// Meta describes how a snapshot was computed.
type Meta struct {
	Engine     string `json:"engine"`
	Refraction bool   `json:"refraction"`
}

// SkyResponse is the body of GET /api/sky.
type SkyResponse struct {
	Observer ObserverEcho       `json:"observer"`
	Bodies   []sky.BodyPosition `json:"bodies"`
	Daylight sky.Daylight       `json:"daylight"`
	Meta     Meta               `json:"meta"`
}

// PlanResponse is the body of GET /api/plan.
type PlanResponse struct {
	Observer ObserverEcho `json:"observer"`
	planner.Assessment
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &handlers{deps: deps}

	app.Get("/health", h.health)

	api := app.Group("/api")
	api.Get("/sky", h.sky)
	api.Get("/plan", h.plan)
	api.Get("/windows", h.windows)
	api.Get("/clouds", h.clouds)
	api.Get("/clouds/history", h.cloudHistory)
	api.Get("/sites", h.sites)
}

type handlers struct {
	deps Dependencies
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "skyplanner",
	})
}

func (h *handlers) sky(c *fiber.Ctx) error {
	q, err := parseObserverQuery(c, h.deps.Now(), h.deps.Sites)
	if err != nil {
		return err
	}

	snap, err := h.deps.Planner.Snapshot(q.observer(), q.Time, q.Refraction)
	if err != nil {
		return err
	}

	return c.JSON(SkyResponse{
		Observer: ObserverEcho{Observer: snap.Observer, Time: snap.Time},
		Bodies:   snap.Bodies,
		Daylight: sky.DaylightOn(snap.Observer, snap.Time),
		Meta:     Meta{Engine: snap.Engine, Refraction: snap.Refraction},
	})
}

func (h *handlers) plan(c *fiber.Ctx) error {
	q, err := parseObserverQuery(c, h.deps.Now(), h.deps.Sites)
	if err != nil {
		return err
	}
	tq, err := parseTargetQuery(c)
	if err != nil {
		return err
	}

	obs := q.observer()
	clouds := tq.CloudCoverPct
	if clouds == nil && h.deps.Clouds != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), cloudLookupTimeout)
		clouds = h.deps.Clouds.CloudCoverAt(ctx, weather.Location{Lat: obs.Latitude, Lon: obs.Longitude}, q.Time)
		cancel()
	}

	a, err := h.deps.Planner.Plan(obs, q.Time, q.Refraction, tq.Target, clouds)
	if err != nil {
		return err
	}

	return c.JSON(PlanResponse{
		Observer:   ObserverEcho{Observer: obs, Time: q.Time},
		Assessment: a,
	})
}

func (h *handlers) windows(c *fiber.Ctx) error {
	q, err := parseObserverQuery(c, h.deps.Now(), h.deps.Sites)
	if err != nil {
		return err
	}
	tq, err := parseTargetQuery(c)
	if err != nil {
		return err
	}
	days, err := intParam(c, "daysAhead", defaultDaysAhead)
	if err != nil {
		return err
	}
	maxWindows, err := intParam(c, "maxWindows", defaultMaxWindows)
	if err != nil {
		return err
	}

	res, err := h.deps.Planner.FindWindows(c.UserContext(), planner.WindowQuery{
		Observer:      q.observer(),
		Start:         q.Time,
		Target:        tq.Target,
		DaysAhead:     days,
		MaxWindows:    maxWindows,
		Refraction:    q.Refraction,
		CloudCoverPct: tq.CloudCoverPct,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) clouds(c *fiber.Ctx) error {
	q, err := parseLocationQuery(c, h.deps.Sites)
	if err != nil {
		return err
	}
	if h.deps.Clouds == nil {
		return fiber.NewError(fiber.StatusNotFound, "cloud cover is not configured")
	}

	series, err := h.deps.Clouds.GetLatest(q.toLocation())
	if err != nil {
		return err
	}
	return c.JSON(series)
}

func (h *handlers) cloudHistory(c *fiber.Ctx) error {
	var req historyQuery
	if err := req.bind(c, h.deps.Sites); err != nil {
		return err
	}
	if h.deps.Clouds == nil {
		return fiber.NewError(fiber.StatusNotFound, "cloud cover is not configured")
	}

	loc := req.Location.toLocation()
	series, err := h.deps.Clouds.GetRange(loc, req.From, req.To)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"location": loc,
		"from":     req.From,
		"to":       req.To,
		"series":   series,
	})
}

func (h *handlers) sites(c *fiber.Ctx) error {
	list := h.deps.Sites
	if list == nil {
		list = []sites.Site{}
	}
	return c.JSON(fiber.Map{"sites": list})
}
