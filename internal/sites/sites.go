// Package sites loads the observing sites whose cloud cover is refreshed in
// the background.
package sites

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/kelvins/geocoder"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/skyplanner/internal/weather"
)

var validate = validator.New()

// Site is a named observing location with resolved coordinates.
type Site struct {
	Name     string           `json:"name"`
	Location weather.Location `json:"location"`
}

// entry is one item of the sites file. Coordinates win over city/country.
type entry struct {
	Name    string   `yaml:"name" validate:"required"`
	Lat     *float64 `yaml:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon     *float64 `yaml:"lon" validate:"omitempty,gte=-180,lte=180"`
	City    string   `yaml:"city"`
	Country string   `yaml:"country"`
}

type file struct {
	Sites []entry `yaml:"sites"`
}

// Geocoder resolves a city to coordinates.
type Geocoder interface {
	Geocode(city, country string) (weather.Location, error)
}

// GoogleGeocoder uses the Google Geocoding API through kelvins/geocoder.
type GoogleGeocoder struct {
	apiKey string
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

// The library keeps its API key in a package variable.
var geocoderMu sync.Mutex

func (g *GoogleGeocoder) Geocode(city, country string) (weather.Location, error) {
	geocoderMu.Lock()
	defer geocoderMu.Unlock()

	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return weather.Location{}, err
	}
	return weather.Location{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

// Load reads a YAML sites file. An empty path yields no sites. Entries
// without coordinates are geocoded when gc is non-nil and skipped otherwise.
func Load(path string, gc Geocoder, logger *zap.Logger) ([]Site, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	return Parse(raw, gc, logger)
}

// Parse is Load on an in-memory document.
func Parse(raw []byte, gc Geocoder, logger *zap.Logger) ([]Site, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}

	seen := make(map[string]bool, len(f.Sites))
	out := make([]Site, 0, len(f.Sites))
	for i, e := range f.Sites {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("site #%d: %w", i+1, err)
		}
		if (e.Lat == nil) != (e.Lon == nil) {
			return nil, fmt.Errorf("site #%d: lat and lon must be given together", i+1)
		}
		if e.Lat == nil && e.City == "" {
			return nil, fmt.Errorf("site #%d: needs lat/lon or a city", i+1)
		}
		key := strings.ToLower(e.Name)
		if seen[key] {
			return nil, fmt.Errorf("site #%d: duplicate name %q", i+1, e.Name)
		}
		seen[key] = true

		if e.Lat != nil && e.Lon != nil {
			out = append(out, Site{Name: e.Name, Location: weather.Location{Lat: *e.Lat, Lon: *e.Lon}})
			continue
		}

		if gc == nil {
			logger.Warn("skipping site without coordinates; no geocoder configured", zap.String("site", e.Name))
			continue
		}
		loc, err := gc.Geocode(e.City, e.Country)
		if err != nil {
			logger.Warn("skipping site; geocoding failed", zap.String("site", e.Name), zap.Error(err))
			continue
		}
		if err := validate.Struct(loc); err != nil {
			logger.Warn("skipping site; geocoder returned invalid coordinates", zap.String("site", e.Name), zap.Error(err))
			continue
		}
		out = append(out, Site{Name: e.Name, Location: loc})
	}
	return out, nil
}

// ErrUnknownSite is returned by Find when no site has the given name.
var ErrUnknownSite = errors.New("unknown site")

// Find looks a site up by case-insensitive name.
func Find(sites []Site, name string) (Site, error) {
	for _, s := range sites {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Site{}, fmt.Errorf("%w: %q", ErrUnknownSite, name)
}
