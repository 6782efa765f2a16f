package ephemeris

import "math"

// lunarTerm is one periodic term of the lunar longitude/distance series.
// Multipliers apply to D, M, M', F; l is in 1e-6 degrees and r in metres.
type lunarTerm struct {
	d, m, mp, f int
	l, r        float64
}

// Largest terms of Meeus, Astronomical Algorithms, table 47.A.
var lunarLongitudeDistance = []lunarTerm{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
	{2, 1, 0, 0, -6766, 30824},
	{1, 0, -1, 0, -5163, -8379},
	{1, 1, 0, 0, 4987, -16675},
	{2, -1, 1, 0, 4036, -12831},
	{2, 0, 2, 0, 3994, -10445},
}

// lunarLatitudeTerm is one periodic term of the lunar latitude series
// (table 47.B), b in 1e-6 degrees.
type lunarLatitudeTerm struct {
	d, m, mp, f int
	b           float64
}

var lunarLatitude = []lunarLatitudeTerm{
	{0, 0, 0, 1, 5128122},
	{0, 0, 1, 1, 280602},
	{0, 0, 1, -1, 277693},
	{2, 0, 0, -1, 173237},
	{2, 0, -1, 1, 55413},
	{2, 0, -1, -1, 46271},
	{2, 0, 0, 1, 32573},
	{0, 0, 2, 1, 17198},
	{2, 0, 1, -1, 9266},
	{0, 0, 2, -1, 8822},
	{2, -1, 0, -1, 8216},
	{2, 0, -2, -1, 4324},
	{2, 0, 1, 1, 4200},
}

// moonGeocentric returns the Moon's geocentric position in km, in the mean
// equatorial frame of date, at T Julian centuries (TT).
func moonGeocentric(T float64) vec3 {
	Lp := normalize360(218.3164477 + 481267.88123421*T)
	D := normalize360(297.8501921 + 445267.1114034*T)
	M := normalize360(357.5291092 + 35999.0502909*T)
	Mp := normalize360(134.9633964 + 477198.8675055*T)
	F := normalize360(93.2720950 + 483202.0175233*T)
	E := 1 - 0.002516*T - 0.0000074*T*T

	eccFactor := func(m int) float64 {
		switch m {
		case 1, -1:
			return E
		case 2, -2:
			return E * E
		default:
			return 1
		}
	}
	arg := func(d, m, mp, f int) float64 {
		return deg2rad(float64(d)*D + float64(m)*M + float64(mp)*Mp + float64(f)*F)
	}

	var sumL, sumR, sumB float64
	for _, t := range lunarLongitudeDistance {
		a := arg(t.d, t.m, t.mp, t.f)
		k := eccFactor(t.m)
		sumL += t.l * k * math.Sin(a)
		sumR += t.r * k * math.Cos(a)
	}
	for _, t := range lunarLatitude {
		sumB += t.b * eccFactor(t.m) * math.Sin(arg(t.d, t.m, t.mp, t.f))
	}

	A1 := deg2rad(119.75 + 131.849*T)
	A2 := deg2rad(53.09 + 479264.290*T)
	A3 := deg2rad(313.45 + 481266.484*T)
	LpR, FR, MpR := deg2rad(Lp), deg2rad(F), deg2rad(Mp)

	sumL += 3958*math.Sin(A1) + 1962*math.Sin(LpR-FR) + 318*math.Sin(A2)
	sumB += -2235*math.Sin(LpR) + 382*math.Sin(A3) + 175*math.Sin(A1-FR) +
		175*math.Sin(A1+FR) + 127*math.Sin(LpR-MpR) - 115*math.Sin(LpR+MpR)

	lambda := deg2rad(Lp + sumL/1e6)
	beta := deg2rad(sumB / 1e6)
	distKm := 385000.56 + sumR/1000

	ecl := vec3{
		distKm * math.Cos(beta) * math.Cos(lambda),
		distKm * math.Cos(beta) * math.Sin(lambda),
		distKm * math.Sin(beta),
	}
	return eclipticToEquatorial(ecl, meanObliquity(T))
}
