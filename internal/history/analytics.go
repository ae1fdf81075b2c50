package history

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// PresetAll disables preset filtering.
const PresetAll = "all"

// ChartWindow is the number of trailing sessions plotted in progress charts.
const ChartWindow = 10

// Metric is a family of progress series.
type Metric string

const (
	MetricScores    Metric = "scores"
	MetricPace      Metric = "pace"
	MetricFiller    Metric = "filler"
	MetricNonVerbal Metric = "nonverbal"
)

// Metrics lists every metric family in display order.
func Metrics() []Metric {
	return []Metric{MetricScores, MetricPace, MetricFiller, MetricNonVerbal}
}

// ParseMetric accepts a metric name; empty input selects scores.
func ParseMetric(value string) (Metric, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "":
		return MetricScores, nil
	case "non-verbal", "non_verbal":
		return MetricNonVerbal, nil
	}
	for _, m := range Metrics() {
		if string(m) == value {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q (expected scores, pace, filler or nonverbal)", value)
}

// Series is one plotted line within a metric family.
type Series struct {
	Key           string
	Label         string
	Unit          string
	Min           float64
	Max           float64
	LowerIsBetter bool
	value         func(Session) float64
}

// Value extracts the series value from a session. Missing data reads as 0.
func (s Series) Value(session Session) float64 {
	if s.value == nil {
		return 0
	}
	return s.value(session)
}

// SeriesFor returns the series plotted for a metric family.
func SeriesFor(metric Metric) []Series {
	switch metric {
	case MetricPace:
		return []Series{
			{Key: "wpm", Label: "WPM", Unit: " WPM", Max: 240, value: func(s Session) float64 { return deref(s.WPM) }},
		}
	case MetricFiller:
		return []Series{
			{Key: "density", Label: "Fillers/min", Unit: "/min", Max: 15, LowerIsBetter: true, value: fillerDensity},
		}
	case MetricNonVerbal:
		return []Series{
			{Key: "gesture_energy", Label: "Gesture", Unit: "/10", Max: 10, value: nonVerbalValue("gesture_energy")},
			{Key: "eye_contact_score", Label: "Eye contact", Unit: "/10", Max: 10, value: nonVerbalValue("eye_contact_score")},
			{Key: "posture_stability", Label: "Posture", Unit: "/10", Max: 10, value: nonVerbalValue("posture_stability")},
		}
	default:
		return []Series{
			{Key: "clarity", Label: "Clarity", Unit: "/10", Max: 10, value: scoreValue("clarity")},
			{Key: "confidence", Label: "Confidence", Unit: "/10", Max: 10, value: scoreValue("confidence_language")},
			{Key: "structure", Label: "Structure", Unit: "/10", Max: 10, value: scoreValue("content_structure")},
		}
	}
}

// Band is a reference value drawn across a chart.
type Band struct {
	Value float64
	Label string
}

// ReferenceBands returns the target lines for a metric family.
func ReferenceBands(metric Metric) []Band {
	switch metric {
	case MetricPace:
		return []Band{{Value: 120, Label: "120"}, {Value: 180, Label: "180"}}
	case MetricFiller:
		return []Band{{Value: 2, Label: "2"}, {Value: 5, Label: "5"}}
	default:
		return []Band{{Value: 7}}
	}
}

// FilterOptions selects sessions for analytics.
type FilterOptions struct {
	// Preset is a preset name or PresetAll/"" for every preset.
	Preset string
	// Days keeps sessions newer than now minus Days; 0 keeps everything.
	Days int
	Now  time.Time
}

// Filter returns the matching sessions ordered oldest first.
func Filter(sessions []Session, opts FilterOptions) []Session {
	preset := strings.ToLower(strings.TrimSpace(opts.Preset))
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	var cutoff time.Time
	if opts.Days > 0 {
		cutoff = now.AddDate(0, 0, -opts.Days)
	}

	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if preset != "" && preset != PresetAll && s.Preset != preset {
			continue
		}
		if !cutoff.IsZero() && s.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Window returns the trailing ChartWindow sessions of an oldest-first list.
func Window(sessions []Session) []Session {
	if len(sessions) <= ChartWindow {
		return sessions
	}
	return sessions[len(sessions)-ChartWindow:]
}

// HasNonVerbal reports whether any session carries a non-verbal score.
func HasNonVerbal(sessions []Session) bool {
	for _, s := range sessions {
		for _, key := range []string{"gesture_energy", "eye_contact_score", "posture_stability"} {
			if _, ok := numeric(s.NonVerbal[key]); ok {
				return true
			}
		}
	}
	return false
}

// Trend describes the direction of a change.
type Trend string

const (
	TrendImproved  Trend = "improved"
	TrendDeclined  Trend = "declined"
	TrendUnchanged Trend = "unchanged"
)

// Change compares the first and latest value of one series.
type Change struct {
	Series Series
	First  float64
	Latest float64
	Delta  float64
	// Percent is the rounded absolute change relative to First; nil when
	// First is zero.
	Percent *float64
	Trend   Trend
}

// Summarize compares the first and latest session of an oldest-first list for
// each series. It returns false when fewer than two sessions are available.
func Summarize(sessions []Session, series []Series) ([]Change, bool) {
	if len(sessions) < 2 {
		return nil, false
	}
	first := sessions[0]
	latest := sessions[len(sessions)-1]

	changes := make([]Change, 0, len(series))
	for _, sr := range series {
		f := sr.Value(first)
		l := sr.Value(latest)
		diff := l - f
		change := Change{Series: sr, First: f, Latest: l, Delta: diff, Trend: TrendUnchanged}
		improved := diff > 0
		declined := diff < 0
		if sr.LowerIsBetter {
			improved, declined = declined, improved
		}
		switch {
		case improved:
			change.Trend = TrendImproved
		case declined:
			change.Trend = TrendDeclined
		}
		if f != 0 {
			pct := math.Round(math.Abs(diff/f) * 100)
			change.Percent = &pct
		}
		changes = append(changes, change)
	}
	return changes, true
}

// DescribeDelta renders a change the way progress summaries show it:
// "No change", "+1.5 (25%)" or "-2.0".
func DescribeDelta(c Change) string {
	if c.Delta == 0 {
		return "No change"
	}
	sign := ""
	if c.Delta > 0 {
		sign = "+"
	}
	out := fmt.Sprintf("%s%.1f", sign, c.Delta)
	if c.Percent != nil {
		out += fmt.Sprintf(" (%.0f%%)", *c.Percent)
	}
	return out
}

func fillerDensity(s Session) float64 {
	count := 0.0
	if s.FillerCount != nil {
		count = float64(*s.FillerCount)
	}
	if s.DurationSeconds != nil && *s.DurationSeconds > 0 {
		return count / (*s.DurationSeconds / 60)
	}
	return count
}

func scoreValue(key string) func(Session) float64 {
	return func(s Session) float64 { return s.Scores[key] }
}

func nonVerbalValue(key string) func(Session) float64 {
	return func(s Session) float64 {
		v, _ := numeric(s.NonVerbal[key])
		return v
	}
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
