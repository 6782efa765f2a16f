package ephemeris

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skyplanner/internal/sky"
)

func separation(a, b sky.Position) float64 {
	ra1, ra2 := deg2rad(a.RA*15), deg2rad(b.RA*15)
	d1, d2 := deg2rad(a.Dec), deg2rad(b.Dec)
	c := math.Sin(d1)*math.Sin(d2) + math.Cos(d1)*math.Cos(d2)*math.Cos(ra1-ra2)
	return rad2deg(math.Acos(clamp(c, -1, 1)))
}

func apparent(t *testing.T, eph *Analytic, id sky.BodyID, obs sky.Observer, at time.Time) sky.Position {
	t.Helper()
	pos, err := eph.Apparent(id, obs, at, false)
	require.NoError(t, err)
	return pos
}

func TestJulianDateAndSiderealTime(t *testing.T) {
	epoch := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.InDelta(t, j2000, julianDate(epoch), 1e-9)
	assert.InDelta(t, 280.46061837, localSiderealDeg(epoch, 0), 1e-6)
	assert.InDelta(t, normalize360(280.46061837-122.4194), localSiderealDeg(epoch, -122.4194), 1e-6)
}

func TestApparentStaysInRange(t *testing.T) {
	eph := Load()
	observers := []sky.Observer{
		{Latitude: 37.7749, Longitude: -122.4194, Elevation: 16},
		{Latitude: -33.86, Longitude: 151.21},
		{Latitude: 89.9, Longitude: 0, Elevation: 2800},
		{Latitude: -90, Longitude: -180, Elevation: -500},
	}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, obs := range observers {
		for step := 0; step < 40; step++ {
			at := start.Add(time.Duration(step) * 211 * time.Hour)
			for _, id := range sky.Bodies() {
				for _, refraction := range []bool{false, true} {
					pos, err := eph.Apparent(id, obs, at, refraction)
					require.NoError(t, err)
					assert.GreaterOrEqual(t, pos.RA, 0.0)
					assert.Less(t, pos.RA, 24.0)
					assert.GreaterOrEqual(t, pos.Dec, -90.0)
					assert.LessOrEqual(t, pos.Dec, 90.0)
					assert.GreaterOrEqual(t, pos.Az, 0.0)
					assert.Less(t, pos.Az, 360.0)
					assert.GreaterOrEqual(t, pos.Alt, -90.0)
					assert.LessOrEqual(t, pos.Alt, 90.0)
					assert.Greater(t, pos.DistanceKm, 0.0)
				}
			}
		}
	}
}

func TestSunAtSolsticeAndEquinox(t *testing.T) {
	eph := Load()
	obs := sky.Observer{}

	solstice := apparent(t, eph, sky.Sun, obs, time.Date(2024, 6, 20, 20, 51, 0, 0, time.UTC))
	assert.InDelta(t, 23.44, solstice.Dec, 0.15)
	assert.InDelta(t, 6.0, solstice.RA, 0.1)
	assert.InDelta(t, auKm, solstice.DistanceKm, 0.02*auKm)

	equinox := apparent(t, eph, sky.Sun, obs, time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC))
	assert.Less(t, math.Min(equinox.RA, 24-equinox.RA), 0.1)
	// J2000 frame: precession since 2000 shifts the equinox declination by ~0.14 deg.
	assert.InDelta(t, 0.0, equinox.Dec, 0.3)
}

func TestSunNearZenithAtEquatorialNoon(t *testing.T) {
	eph := Load()
	pos := apparent(t, eph, sky.Sun, sky.Observer{}, time.Date(2024, 3, 20, 12, 7, 0, 0, time.UTC))
	assert.Greater(t, pos.Alt, 85.0)

	midnight := apparent(t, eph, sky.Sun, sky.Observer{}, time.Date(2024, 3, 20, 0, 7, 0, 0, time.UTC))
	assert.Less(t, midnight.Alt, -85.0)
}

func TestJupiterOppositesSunAtOpposition(t *testing.T) {
	eph := Load()
	at := time.Date(2023, 11, 3, 5, 0, 0, 0, time.UTC)
	sun := apparent(t, eph, sky.Sun, sky.Observer{}, at)
	jupiter := apparent(t, eph, sky.Jupiter, sky.Observer{}, at)
	assert.Greater(t, separation(sun, jupiter), 175.0)
	assert.InDelta(t, 3.97*auKm, jupiter.DistanceKm, 0.1*auKm)
}

func TestInferiorPlanetsStayNearSun(t *testing.T) {
	eph := Load()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 730; day += 5 {
		at := start.AddDate(0, 0, day)
		sun := apparent(t, eph, sky.Sun, sky.Observer{}, at)
		mercury := apparent(t, eph, sky.Mercury, sky.Observer{}, at)
		venus := apparent(t, eph, sky.Venus, sky.Observer{}, at)
		assert.Less(t, separation(sun, mercury), 28.5, "mercury at %s", at)
		assert.Less(t, separation(sun, venus), 48.0, "venus at %s", at)
	}
}

func TestMoonCoversSunDuringEclipse(t *testing.T) {
	eph := Load()
	dallas := sky.Observer{Latitude: 32.78, Longitude: -96.80, Elevation: 150}
	at := time.Date(2024, 4, 8, 18, 42, 0, 0, time.UTC)

	sun := apparent(t, eph, sky.Sun, dallas, at)
	moon := apparent(t, eph, sky.Moon, dallas, at)

	assert.Less(t, separation(sun, moon), 0.6)
	assert.Greater(t, sun.Alt, 50.0)
	assert.Greater(t, moon.DistanceKm, 350000.0)
	assert.Less(t, moon.DistanceKm, 410000.0)
}

func TestRefractionLiftsBodiesAboveHorizon(t *testing.T) {
	eph := Load()
	obs := sky.Observer{Latitude: 51.48, Longitude: 0}
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	for step := 0; step < 48; step++ {
		at := start.Add(time.Duration(step) * 30 * time.Minute)
		for _, id := range sky.Bodies() {
			geometric, err := eph.Apparent(id, obs, at, false)
			require.NoError(t, err)
			refracted, err := eph.Apparent(id, obs, at, true)
			require.NoError(t, err)

			assert.Equal(t, geometric.Az, refracted.Az)
			assert.Equal(t, geometric.RA, refracted.RA)
			if geometric.Alt >= 0 && geometric.Alt <= 80 {
				assert.Greater(t, refracted.Alt, geometric.Alt)
			}
			if geometric.Alt < -1 {
				assert.Equal(t, geometric.Alt, refracted.Alt)
			}
		}
	}
}

func TestApparentOutsideCoverage(t *testing.T) {
	eph := Load()
	_, err := eph.Apparent(sky.Mars, sky.Observer{}, time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC), false)
	assert.ErrorIs(t, err, sky.ErrInternal)

	_, err = eph.Apparent(sky.BodyID("pluto"), sky.Observer{}, time.Now(), false)
	assert.ErrorIs(t, err, sky.ErrInternal)
}

func TestSolveKepler(t *testing.T) {
	for _, e := range []float64{0, 0.0167, 0.2056, 0.9} {
		for _, M := range []float64{-3, -1, 0, 0.5, 2.5} {
			E := solveKepler(M, e)
			assert.InDelta(t, M, E-e*math.Sin(E), 1e-10)
		}
	}
}
