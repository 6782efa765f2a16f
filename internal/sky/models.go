package sky

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// BodyID identifies one of the configured solar-system bodies.
type BodyID string

const (
	Sun     BodyID = "sun"
	Moon    BodyID = "moon"
	Mercury BodyID = "mercury"
	Venus   BodyID = "venus"
	Mars    BodyID = "mars"
	Jupiter BodyID = "jupiter"
	Saturn  BodyID = "saturn"
	Uranus  BodyID = "uranus"
)

var configuredBodies = []BodyID{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus}

// Bodies returns the configured bodies in snapshot order.
func Bodies() []BodyID {
	out := make([]BodyID, len(configuredBodies))
	copy(out, configuredBodies)
	return out
}

// Name returns the human label for the body ("saturn" -> "Saturn").
func (b BodyID) Name() string {
	if b == "" {
		return ""
	}
	return strings.ToUpper(string(b[:1])) + string(b[1:])
}

// ParseBodyID normalizes s and checks it against the configured body set.
func ParseBodyID(s string) (BodyID, error) {
	id := BodyID(strings.ToLower(strings.TrimSpace(s)))
	for _, b := range configuredBodies {
		if b == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: unknown target body %q", ErrValidation, s)
}

// Observer is a location on the Earth's surface.
// Longitude is east-positive.
type Observer struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Elevation float64 `json:"elevationM" validate:"gte=-500,lte=9000"`
}

// Validate checks the observer ranges.
func (o Observer) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: invalid observer: %v", ErrValidation, err)
	}
	return nil
}

// Position is the apparent topocentric position of a body at one instant.
type Position struct {
	RA         float64 `json:"ra"`  // hours, [0,24)
	Dec        float64 `json:"dec"` // degrees
	Az         float64 `json:"az"`  // degrees, [0,360), north through east
	Alt        float64 `json:"alt"` // degrees
	DistanceKm float64 `json:"distanceKm"`
}

// BodyPosition is one entry of a Snapshot.
type BodyPosition struct {
	ID   BodyID `json:"id"`
	Name string `json:"name"`
	Position
}

// Snapshot holds every configured body as seen by Observer at Time.
type Snapshot struct {
	Observer   Observer       `json:"observer"`
	Time       time.Time      `json:"datetime"` // always UTC
	Refraction bool           `json:"refraction"`
	Engine     string         `json:"engine"`
	Bodies     []BodyPosition `json:"bodies"`
}

// Body returns the entry for id, if present.
func (s Snapshot) Body(id BodyID) (BodyPosition, bool) {
	for _, b := range s.Bodies {
		if b.ID == id {
			return b, true
		}
	}
	return BodyPosition{}, false
}
