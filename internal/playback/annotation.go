package playback

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Annotation is a time-anchored coaching note.
type Annotation struct {
	Time    float64 `json:"time"`
	Label   string  `json:"label"`
	Message string  `json:"message"`
}

// FormatSeconds renders a position as m:ss. Negative and non-finite values
// render as 0:00.
func FormatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ParseAnnotations decodes a JSON annotation list. Malformed input yields an
// empty list rather than an error so a bad payload never blocks playback.
func ParseAnnotations(raw []byte) []Annotation {
	if len(raw) == 0 {
		return nil
	}
	var out []Annotation
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// SortedByTime returns a copy of annotations ordered by time for listing.
// Detection order is unaffected; the synchronizer keeps list order.
func SortedByTime(annotations []Annotation) []Annotation {
	out := append([]Annotation(nil), annotations...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// DisplayLabel title-cases a label for display, turning separators into
// spaces ("filler_words" becomes "Filler Words").
func DisplayLabel(label string) string {
	label = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(label))
	if label == "" {
		return "Note"
	}
	return cases.Title(language.English).String(label)
}
