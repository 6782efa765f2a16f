package ephemeris

import (
	"math"
	"time"
)

const (
	j2000          = 2451545.0 // JD of J2000.0 (TT)
	daysPerCentury = 36525.0
	// deltaT is TT-UTC in seconds. A fixed value keeps the model pure; it
	// drifts by well under a second per year.
	deltaT = 69.2

	auKm      = 149597870.7
	cAUPerDay = 173.1446326846693

	// obliquityJ2000 is the mean obliquity of the ecliptic at J2000.0.
	obliquityJ2000 = 23.4392911

	wgs84RadiusKm   = 6378.137
	wgs84Flattening = 1 / 298.257223563
)

type vec3 [3]float64

func (v vec3) add(o vec3) vec3 { return vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v vec3) sub(o vec3) vec3 { return vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v vec3) scale(k float64) vec3 {
	return vec3{v[0] * k, v[1] * k, v[2] * k}
}
func (v vec3) norm() float64 { return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) }

type mat3 [3][3]float64

func (m mat3) mul(v vec3) vec3 {
	return vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

func (m mat3) transpose() mat3 {
	var t mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// normalize360 maps an angle in degrees into [0,360).
func normalize360(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// julianDate returns the Julian Date (UTC) of t.
func julianDate(t time.Time) float64 {
	return float64(t.Unix())/86400 + float64(t.Nanosecond())/86400e9 + 2440587.5
}

// ttCenturies returns Julian centuries of Terrestrial Time since J2000.0.
func ttCenturies(t time.Time) float64 {
	return (julianDate(t) + deltaT/86400 - j2000) / daysPerCentury
}

// localSiderealDeg returns mean local sidereal time in degrees for an
// east-positive longitude.
func localSiderealDeg(t time.Time, lonDeg float64) float64 {
	d := julianDate(t) - j2000
	T := d / daysPerCentury
	gmst := 280.46061837 + 360.98564736629*d + 0.000387933*T*T - T*T*T/38710000
	return normalize360(gmst + lonDeg)
}

// meanObliquity returns the mean obliquity of the ecliptic of date (degrees).
func meanObliquity(T float64) float64 {
	return obliquityJ2000 - (46.8150*T+0.00059*T*T-0.001813*T*T*T)/3600
}

// eclipticToEquatorial rotates an ecliptic vector about the x axis.
func eclipticToEquatorial(v vec3, obliquityDeg float64) vec3 {
	e := deg2rad(obliquityDeg)
	c, s := math.Cos(e), math.Sin(e)
	return vec3{v[0], v[1]*c - v[2]*s, v[1]*s + v[2]*c}
}

// precessionMatrix rotates mean equatorial J2000 vectors to the mean
// equator and equinox of date (IAU 1976 angles).
func precessionMatrix(T float64) mat3 {
	arcsec := func(x float64) float64 { return deg2rad(x / 3600) }
	zeta := arcsec(2306.2181*T + 0.30188*T*T + 0.017998*T*T*T)
	z := arcsec(2306.2181*T + 1.09468*T*T + 0.018203*T*T*T)
	theta := arcsec(2004.3109*T - 0.42665*T*T - 0.041833*T*T*T)

	cz, sz := math.Cos(zeta), math.Sin(zeta)
	cZ, sZ := math.Cos(z), math.Sin(z)
	ct, st := math.Cos(theta), math.Sin(theta)

	return mat3{
		{cz*ct*cZ - sz*sZ, -sz*ct*cZ - cz*sZ, -st * cZ},
		{cz*ct*sZ + sz*cZ, -sz*ct*sZ + cz*cZ, -st * sZ},
		{cz * st, -sz * st, ct},
	}
}

// aberrate applies annual aberration to a geocentric vector given the
// observer's velocity in AU/day. Distance is preserved.
func aberrate(v vec3, velocityAUPerDay vec3) vec3 {
	r := v.norm()
	if r == 0 {
		return v
	}
	u := v.scale(1 / r).add(velocityAUPerDay.scale(1 / cAUPerDay))
	return u.scale(r / u.norm())
}

// observerVector returns the geocentric position (km) of a WGS84 site in the
// equatorial frame of date, given local sidereal time.
func observerVector(latDeg, elevationM, lstDeg float64) vec3 {
	phi := deg2rad(latDeg)
	h := elevationM / 1000
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
	b := 1 - wgs84Flattening
	c := 1 / math.Sqrt(cosPhi*cosPhi+b*b*sinPhi*sinPhi)
	s := b * b * c

	rhoCos := (wgs84RadiusKm*c + h) * cosPhi
	rhoSin := (wgs84RadiusKm*s + h) * sinPhi
	theta := deg2rad(lstDeg)
	return vec3{rhoCos * math.Cos(theta), rhoCos * math.Sin(theta), rhoSin}
}

// raDec returns right ascension (hours, [0,24)) and declination (degrees).
func raDec(v vec3) (float64, float64) {
	r := v.norm()
	ra := normalize360(rad2deg(math.Atan2(v[1], v[0]))) / 15
	if ra >= 24 {
		ra = 0
	}
	dec := rad2deg(math.Asin(clamp(v[2]/r, -1, 1)))
	return ra, dec
}

// horizontal converts an equatorial-of-date vector to altitude and azimuth
// (degrees, azimuth north through east).
func horizontal(v vec3, latDeg, lstDeg float64) (alt, az float64) {
	raHours, decDeg := raDec(v)
	H := deg2rad(lstDeg - raHours*15)
	dec := deg2rad(decDeg)
	phi := deg2rad(latDeg)

	sinAlt := math.Sin(phi)*math.Sin(dec) + math.Cos(phi)*math.Cos(dec)*math.Cos(H)
	alt = rad2deg(math.Asin(clamp(sinAlt, -1, 1)))
	az = normalize360(rad2deg(math.Atan2(
		-math.Cos(dec)*math.Sin(H),
		math.Sin(dec)*math.Cos(phi)-math.Cos(dec)*math.Sin(phi)*math.Cos(H),
	)))
	return alt, az
}

// refract converts a geometric altitude to an apparent one for a standard
// atmosphere (Saemundsson). Below -1 degree no correction is applied.
func refract(altDeg float64) float64 {
	if altDeg < -1 || altDeg >= 90 {
		return altDeg
	}
	rArcmin := 1.02 / math.Tan(deg2rad(altDeg+10.3/(altDeg+5.11)))
	if rArcmin < 0 {
		rArcmin = 0
	}
	return math.Min(altDeg+rArcmin/60, 90)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
