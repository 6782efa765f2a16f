package sky

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// astronomicalTwilightDeg is the solar elevation at which the sky is fully dark.
const astronomicalTwilightDeg = -18.0

// Daylight holds the solar events of one UTC calendar date. Events that do
// not occur (polar day or night) are nil.
type Daylight struct {
	Sunrise          *time.Time `json:"sunrise,omitempty"`
	Sunset           *time.Time `json:"sunset,omitempty"`
	AstronomicalDawn *time.Time `json:"astronomicalDawn,omitempty"`
	AstronomicalDusk *time.Time `json:"astronomicalDusk,omitempty"`
}

// DaylightOn computes the solar events for obs on the UTC date of day.
func DaylightOn(obs Observer, day time.Time) Daylight {
	day = day.UTC()
	y, m, d := day.Date()

	rise, set := sunrise.SunriseSunset(obs.Latitude, obs.Longitude, y, m, d)
	dawn, dusk := sunrise.TimeOfElevation(obs.Latitude, obs.Longitude, astronomicalTwilightDeg, y, m, d)

	return Daylight{
		Sunrise:          nonZero(rise),
		Sunset:           nonZero(set),
		AstronomicalDawn: nonZero(dawn),
		AstronomicalDusk: nonZero(dusk),
	}
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}
