package ephemeris

import "math"

// elements are mean Keplerian elements referred to the J2000 ecliptic and
// equinox, with linear rates per Julian century (JPL "Approximate Positions
// of the Planets", table 1, 1800-2050 AD).
type elements struct {
	a, e, i, meanLong, periLong, node       float64 // AU, -, deg, deg, deg, deg
	da, de, di, dMeanLong, dPeriLong, dNode float64 // per century
}

var (
	mercuryElements = elements{
		0.38709927, 0.20563593, 7.00497902, 252.25032350, 77.45779628, 48.33076593,
		0.00000037, 0.00001906, -0.00594749, 149472.67411175, 0.16047689, -0.12534081,
	}
	venusElements = elements{
		0.72333566, 0.00677672, 3.39467605, 181.97909950, 131.60246718, 76.67984255,
		0.00000390, -0.00004107, -0.00078890, 58517.81538729, 0.00268329, -0.27769418,
	}
	// Earth-Moon barycenter, used for the Earth. The ~4700 km offset is
	// below the model's accuracy for every body except the Moon, which is
	// computed geocentrically.
	earthElements = elements{
		1.00000261, 0.01671123, -0.00001531, 100.46457166, 102.93768193, 0.0,
		0.00000562, -0.00004392, -0.01294668, 35999.37244981, 0.32327364, 0.0,
	}
	marsElements = elements{
		1.52371034, 0.09339410, 1.84969142, -4.55343205, -23.94362959, 49.55953891,
		0.00001847, 0.00007882, -0.00813131, 19140.30268499, 0.44441088, -0.29257343,
	}
	jupiterElements = elements{
		5.20288700, 0.04838624, 1.30439695, 34.39644051, 14.72847983, 100.47390909,
		-0.00011607, -0.00013253, -0.00183714, 3034.74612775, 0.21252668, 0.20469106,
	}
	saturnElements = elements{
		9.53667594, 0.05386179, 2.48599187, 49.95424423, 92.59887831, 113.66242448,
		-0.00125060, -0.00050991, 0.00193609, 1222.49362201, -0.41897216, -0.28867794,
	}
	uranusElements = elements{
		19.18916464, 0.04725744, 0.77263783, 313.23810451, 170.95427630, 74.01692503,
		-0.00196176, -0.00004397, -0.00242939, 428.48202785, 0.40805281, 0.04240589,
	}
)

// heliocentric returns the heliocentric ecliptic J2000 position in AU at T
// Julian centuries (TT) from J2000.0.
func (el elements) heliocentric(T float64) vec3 {
	a := el.a + el.da*T
	e := el.e + el.de*T
	inc := deg2rad(el.i + el.di*T)
	L := el.meanLong + el.dMeanLong*T
	peri := el.periLong + el.dPeriLong*T
	node := el.node + el.dNode*T

	argPeri := deg2rad(peri - node)
	M := math.Mod(L-peri, 360)
	if M > 180 {
		M -= 360
	} else if M < -180 {
		M += 360
	}
	E := solveKepler(deg2rad(M), e)

	xp := a * (math.Cos(E) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(E)

	cw, sw := math.Cos(argPeri), math.Sin(argPeri)
	cn, sn := math.Cos(deg2rad(node)), math.Sin(deg2rad(node))
	ci, si := math.Cos(inc), math.Sin(inc)

	return vec3{
		(cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp,
		(cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp,
		(sw*si)*xp + (cw*si)*yp,
	}
}

// solveKepler solves M = E - e sin E for E (radians) by Newton iteration.
func solveKepler(M, e float64) float64 {
	E := M + e*math.Sin(M)
	for i := 0; i < 30; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}
