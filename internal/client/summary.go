package client

import (
	"fmt"
	"strings"

	httpapi "github.com/i474232898/skyplanner/internal/api/http"
	"github.com/i474232898/skyplanner/internal/planner"
)

// goodWindowScore is the score from which a plan is summarised as good.
const goodWindowScore = 0.75

// Verdict labels a plan score.
func Verdict(score float64) string {
	if score >= goodWindowScore {
		return "Good window"
	}
	return "Poor window"
}

// SummarizePlan renders a short human summary of a plan with its key metrics.
func SummarizePlan(p httpapi.PlanResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s at %s (score %.2f)\n",
		Verdict(p.Recommendation.Score), p.Target.Name(), p.Observer.Time.UTC().Format("2006-01-02 15:04 MST"), p.Recommendation.Score)
	writeMetrics(&b, p.Metrics)
	return b.String()
}

// SummarizeWindows renders the ranked windows of a search.
func SummarizeWindows(r planner.WindowResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d of %d windows in the next %d days\n",
		r.Target.Name(), r.Returned, r.TotalFound, r.SearchPeriod.DaysAhead)
	for i, w := range r.Windows {
		fmt.Fprintf(&b, "%d. %s  %s  score %.2f  %s\n", i+1, w.DateRange, w.LocalTime, w.Score, Verdict(w.Score))
	}
	return b.String()
}

// SummarizeSky renders one line per body.
func SummarizeSky(s httpapi.SkyResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sky at %s for %.4f, %.4f (%s)\n",
		s.Observer.Time.UTC().Format("2006-01-02 15:04 MST"), s.Observer.Latitude, s.Observer.Longitude, s.Meta.Engine)
	for _, body := range s.Bodies {
		state := "below horizon"
		if body.Alt > 0 {
			state = "up"
		}
		fmt.Fprintf(&b, "  %-8s alt %6.1f°  az %5.1f°  %s\n", body.Name, body.Alt, body.Az, state)
	}
	return b.String()
}

func writeMetrics(b *strings.Builder, m planner.Metrics) {
	fmt.Fprintf(b, "  altitude:         %.1f°\n", m.TargetAltitudeDeg)
	fmt.Fprintf(b, "  sun altitude:     %.1f°\n", m.SunAltitudeDeg)
	fmt.Fprintf(b, "  moon separation:  %.1f°\n", m.MoonTargetSeparationDeg)
	if m.CloudCoverPct != nil {
		fmt.Fprintf(b, "  cloud cover:      %.0f%%\n", *m.CloudCoverPct)
	} else {
		fmt.Fprintf(b, "  cloud cover:      unknown\n")
	}
}
