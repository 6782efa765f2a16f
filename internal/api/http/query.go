package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/skyplanner/internal/sites"
	"github.com/i474232898/skyplanner/internal/sky"
	"github.com/i474232898/skyplanner/internal/weather"
)

var validate = validator.New()

// observerQuery holds the parameters shared by the sky, plan and windows
// endpoints.
type observerQuery struct {
	Lat        *float64 `validate:"required"`
	Lon        *float64 `validate:"required"`
	Elev       float64
	Time       time.Time
	Refraction bool
}

func (q observerQuery) observer() sky.Observer {
	return sky.Observer{Latitude: *q.Lat, Longitude: *q.Lon, Elevation: q.Elev}
}

func parseObserverQuery(c *fiber.Ctx, now time.Time, list []sites.Site) (observerQuery, error) {
	q := observerQuery{Time: now.UTC(), Refraction: true}

	var err error
	if q.Lat, q.Lon, err = coordinates(c, list); err != nil {
		return q, err
	}
	if elev, err := optionalFloat(c, "elev"); err != nil {
		return q, err
	} else if elev != nil {
		q.Elev = *elev
	}
	if s := c.Query("datetime"); s != "" {
		if q.Time, err = parseTime(s); err != nil {
			return q, err
		}
	}
	if s := c.Query("refraction"); s != "" {
		if q.Refraction, err = strconv.ParseBool(s); err != nil {
			return q, fmt.Errorf("%w: refraction must be true or false", sky.ErrValidation)
		}
	}

	if err := validate.Struct(q); err != nil {
		return q, fmt.Errorf("%w: lat and lon are required", sky.ErrValidation)
	}
	if err := q.observer().Validate(); err != nil {
		return q, err
	}
	return q, nil
}

// targetQuery adds the scoring parameters of /api/plan and /api/windows.
type targetQuery struct {
	Target        sky.BodyID
	CloudCoverPct *float64 `validate:"omitempty,gte=0,lte=100"`
}

func parseTargetQuery(c *fiber.Ctx) (targetQuery, error) {
	var q targetQuery

	target, err := sky.ParseBodyID(c.Query("target", string(sky.Saturn)))
	if err != nil {
		return q, err
	}
	q.Target = target

	if q.CloudCoverPct, err = optionalFloat(c, "cloudCoverPct"); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, fmt.Errorf("%w: cloudCoverPct must be between 0 and 100", sky.ErrValidation)
	}
	return q, nil
}

// locationQuery identifies a cloud cover location.
type locationQuery struct {
	Lat *float64 `validate:"required,gte=-90,lte=90"`
	Lon *float64 `validate:"required,gte=-180,lte=180"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{Lat: *l.Lat, Lon: *l.Lon}
}

func parseLocationQuery(c *fiber.Ctx, list []sites.Site) (locationQuery, error) {
	var q locationQuery

	var err error
	if q.Lat, q.Lon, err = coordinates(c, list); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, fmt.Errorf("%w: %v", sky.ErrValidation, err)
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx, list []sites.Site) error {
	loc, err := parseLocationQuery(c, list)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return fmt.Errorf("%w: from and to query parameters are required", sky.ErrValidation)
	}

	if h.From, err = parseTime(fromStr); err != nil {
		return err
	}
	if h.To, err = parseTime(toStr); err != nil {
		return err
	}

	if err := validate.Struct(h); err != nil {
		return fmt.Errorf("%w: to must not be before from", sky.ErrValidation)
	}
	return nil
}

// coordinates reads lat/lon, or takes them from the configured site named by
// the site parameter. The two forms are mutually exclusive.
func coordinates(c *fiber.Ctx, list []sites.Site) (lat, lon *float64, err error) {
	name := strings.TrimSpace(c.Query("site"))
	if name == "" {
		if lat, err = optionalFloat(c, "lat"); err != nil {
			return nil, nil, err
		}
		if lon, err = optionalFloat(c, "lon"); err != nil {
			return nil, nil, err
		}
		return lat, lon, nil
	}

	if c.Query("lat") != "" || c.Query("lon") != "" {
		return nil, nil, fmt.Errorf("%w: use either site or lat/lon", sky.ErrValidation)
	}
	site, err := sites.Find(list, name)
	if err != nil {
		return nil, nil, err
	}
	return &site.Location.Lat, &site.Location.Lon, nil
}

func optionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", sky.ErrValidation, key)
	}
	return &v, nil
}

func intParam(c *fiber.Ctx, key string, def int) (int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", sky.ErrValidation, key)
	}
	return v, nil
}

var errTimeFormat = errors.New("invalid datetime; use RFC3339 or unix seconds")

// parseTime accepts RFC3339 (Z or offset), a zone-less ISO timestamp taken
// as UTC, or unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %v", sky.ErrValidation, errTimeFormat)
}
