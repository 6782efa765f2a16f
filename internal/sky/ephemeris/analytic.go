// Package ephemeris provides an analytic, low-precision ephemeris for the Sun,
// the Moon and the planets Mercury through Uranus.
//
// Planet positions come from mean Keplerian elements, the Moon from the
// largest terms of the Meeus lunar theory. Positions are apparent (light-time
// and annual aberration applied) and topocentric. Right ascension and
// declination are reported in the J2000 frame; altitude and azimuth use the
// mean equator and equinox of date. Accuracy is of the order of arcminutes,
// ample for planning observations.
package ephemeris

import (
	"fmt"
	"time"

	"github.com/i474232898/skyplanner/internal/sky"
)

// Engine is the identifier reported in snapshot metadata.
const Engine = "analytic-kepler-meeus"

var (
	coverageStart = time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	coverageEnd   = time.Date(2150, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Analytic implements sky.Ephemeris. It holds no mutable state and is safe
// for concurrent use.
type Analytic struct {
	planets map[sky.BodyID]elements
}

// Load builds the element tables. It is called once at startup and the
// returned handle is injected into the resolver.
func Load() *Analytic {
	return &Analytic{
		planets: map[sky.BodyID]elements{
			sky.Mercury: mercuryElements,
			sky.Venus:   venusElements,
			sky.Mars:    marsElements,
			sky.Jupiter: jupiterElements,
			sky.Saturn:  saturnElements,
			sky.Uranus:  uranusElements,
		},
	}
}

// Name returns the engine identifier.
func (a *Analytic) Name() string {
	return Engine
}

// Apparent returns the apparent topocentric position of id.
func (a *Analytic) Apparent(id sky.BodyID, obs sky.Observer, at time.Time, refraction bool) (sky.Position, error) {
	at = at.UTC()
	if at.Before(coverageStart) || !at.Before(coverageEnd) {
		return sky.Position{}, fmt.Errorf("%w: %s is outside ephemeris coverage %d-%d",
			sky.ErrInternal, at.Format(time.RFC3339), coverageStart.Year(), coverageEnd.Year())
	}

	T := ttCenturies(at)
	precess := precessionMatrix(T)

	var geoDate vec3
	switch id {
	case sky.Moon:
		geoDate = moonGeocentric(T)
	case sky.Sun:
		geoDate = a.fromJ2000(precess, a.sunGeocentric(T))
	default:
		el, ok := a.planets[id]
		if !ok {
			return sky.Position{}, fmt.Errorf("%w: no ephemeris data for body %q", sky.ErrInternal, id)
		}
		geoDate = a.fromJ2000(precess, a.planetGeocentric(el, T))
	}

	lst := localSiderealDeg(at, obs.Longitude)
	topo := geoDate.sub(observerVector(obs.Latitude, obs.Elevation, lst))

	alt, az := horizontal(topo, obs.Latitude, lst)
	if refraction {
		alt = refract(alt)
	}
	ra, dec := raDec(precess.transpose().mul(topo))

	return sky.Position{
		RA:         ra,
		Dec:        dec,
		Az:         az,
		Alt:        alt,
		DistanceKm: topo.norm(),
	}, nil
}

// planetGeocentric returns the light-time corrected, aberrated geocentric
// ecliptic J2000 position of a planet in AU.
func (a *Analytic) planetGeocentric(el elements, T float64) vec3 {
	earth := earthElements.heliocentric(T)

	var geo vec3
	tau := 0.0 // light time, days
	for i := 0; i < 3; i++ {
		geo = el.heliocentric(T - tau/daysPerCentury).sub(earth)
		tau = geo.norm() / cAUPerDay
	}
	return aberrate(geo, earthVelocity(T))
}

// sunGeocentric returns the aberrated geocentric ecliptic J2000 position of
// the Sun in AU. The Sun is taken as fixed at the heliocentric origin, so
// light time does not move it.
func (a *Analytic) sunGeocentric(T float64) vec3 {
	geo := earthElements.heliocentric(T).scale(-1)
	return aberrate(geo, earthVelocity(T))
}

// fromJ2000 converts an ecliptic J2000 vector in AU to the equatorial frame
// of date in km.
func (a *Analytic) fromJ2000(precess mat3, eclAU vec3) vec3 {
	return precess.mul(eclipticToEquatorial(eclAU, obliquityJ2000).scale(auKm))
}

// earthVelocity returns the Earth's heliocentric velocity in AU/day by
// central difference.
func earthVelocity(T float64) vec3 {
	const halfDay = 0.5 / daysPerCentury
	ahead := earthElements.heliocentric(T + halfDay)
	behind := earthElements.heliocentric(T - halfDay)
	return ahead.sub(behind)
}
