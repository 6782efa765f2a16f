package planner

import (
	"fmt"
	"math"

	"github.com/i474232898/skyplanner/internal/sky"
)

// Scoring thresholds. The recommendation thresholds are deliberately not
// the same as the hard visibility gate.
const (
	gateMinTargetAltDeg = 0.0
	gateMaxSunAltDeg    = -6.0

	okMinScore        = 0.6
	okMinTargetAltDeg = 10.0
	okMaxSunAltDeg    = -6.0

	neutralCloudScore = 0.5
)

// Metrics are the observing conditions a recommendation is derived from.
type Metrics struct {
	TargetAltitudeDeg       float64  `json:"targetAltitudeDeg"`
	SunAltitudeDeg          float64  `json:"sunAltitudeDeg"`
	MoonTargetSeparationDeg float64  `json:"moonTargetSeparationDeg"`
	CloudCoverPct           *float64 `json:"cloudCoverPct"`
}

// Criteria are the four sub-scores, each in [0,1].
type Criteria struct {
	Alt    float64 `json:"alt"`
	Sun    float64 `json:"sun"`
	Moon   float64 `json:"moon"`
	Clouds float64 `json:"clouds"`
}

// Recommendation is the scored verdict for one instant.
type Recommendation struct {
	OK       bool     `json:"ok"`
	Score    float64  `json:"score"`
	Criteria Criteria `json:"criteria"`
}

// Assessment pairs the metrics with the recommendation computed from them.
type Assessment struct {
	Target         sky.BodyID     `json:"target"`
	Metrics        Metrics        `json:"metrics"`
	Recommendation Recommendation `json:"recommendation"`
}

// Score evaluates target in snap. The snapshot must contain the target, the
// Sun and the Moon. cloudCoverPct may be nil when no weather data exists.
func Score(snap sky.Snapshot, target sky.BodyID, cloudCoverPct *float64) (Assessment, error) {
	tgt, okT := snap.Body(target)
	sun, okS := snap.Body(sky.Sun)
	moon, okM := snap.Body(sky.Moon)
	if !okT || !okS || !okM {
		return Assessment{}, fmt.Errorf("%w: required bodies not available", sky.ErrInternal)
	}

	m := Metrics{
		TargetAltitudeDeg:       tgt.Alt,
		SunAltitudeDeg:          sun.Alt,
		MoonTargetSeparationDeg: AngularSeparation(tgt.RA*15, tgt.Dec, moon.RA*15, moon.Dec),
		CloudCoverPct:           cloudCoverPct,
	}

	return Assessment{
		Target:         target,
		Metrics:        m,
		Recommendation: Evaluate(m),
	}, nil
}

// Evaluate computes the sub-scores, the blended score and the verdict.
func Evaluate(m Metrics) Recommendation {
	c := Criteria{
		Alt:    clamp01((m.TargetAltitudeDeg - 10) / 30),
		Sun:    clamp01(-m.SunAltitudeDeg / 18),
		Moon:   clamp01(m.MoonTargetSeparationDeg / 60),
		Clouds: neutralCloudScore,
	}
	if m.CloudCoverPct != nil {
		c.Clouds = clamp01(1 - *m.CloudCoverPct/100)
	}

	score := (c.Alt + c.Sun + c.Moon + c.Clouds) / 4

	// Below the horizon or brighter than civil twilight is not observable,
	// whatever the blend says.
	if m.TargetAltitudeDeg <= gateMinTargetAltDeg || m.SunAltitudeDeg >= gateMaxSunAltDeg {
		score = 0
	}

	return Recommendation{
		OK: score >= okMinScore &&
			m.TargetAltitudeDeg > okMinTargetAltDeg &&
			m.SunAltitudeDeg < okMaxSunAltDeg,
		Score:    clamp01(score),
		Criteria: c,
	}
}

// AngularSeparation returns the great-circle angle in degrees between two
// equatorial positions given in degrees.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	r1, r2 := deg2rad(ra1), deg2rad(ra2)
	d1, d2 := deg2rad(dec1), deg2rad(dec2)
	cosSep := math.Sin(d1)*math.Sin(d2) + math.Cos(d1)*math.Cos(d2)*math.Cos(r1-r2)
	cosSep = math.Max(-1, math.Min(1, cosSep))
	return math.Acos(cosSep) * 180 / math.Pi
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
