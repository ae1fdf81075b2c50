package coachapi

import (
	"encoding/json"
	"strings"

	"podium/internal/playback"
)

// Preset selects the speaking context the backend scores against.
type Preset string

const (
	PresetGeneral   Preset = "general"
	PresetInterview Preset = "interview"
	PresetPitch     Preset = "pitch"
	PresetClassroom Preset = "classroom"
	PresetKeynote   Preset = "keynote"
)

// Presets lists every preset in display order.
func Presets() []Preset {
	return []Preset{PresetGeneral, PresetInterview, PresetPitch, PresetClassroom, PresetKeynote}
}

// ParsePreset normalizes a preset name. Empty input yields PresetGeneral.
func ParsePreset(value string) (Preset, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return PresetGeneral, true
	}
	for _, p := range Presets() {
		if string(p) == value {
			return p, true
		}
	}
	return "", false
}

// Metadata accompanies an upload.
type Metadata struct {
	Preset          Preset
	DurationSeconds float64
}

// Metrics holds the speech metrics inside a results payload.
type Metrics struct {
	FillerWordCount int            `json:"filler_word_count"`
	FillerWords     map[string]int `json:"filler_words"`
	WordCount       int            `json:"word_count"`
	WPM             *float64       `json:"wpm"`
	PaceLabel       string         `json:"pace_label"`
	DurationSeconds *float64       `json:"duration_seconds"`
}

// Improvement is one suggested change with supporting detail.
type Improvement struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Result is the payload of a finished analysis job. Raw keeps the exact JSON
// object the backend returned; the typed fields are views over it.
type Result struct {
	Raw          json.RawMessage       `json:"-"`
	Transcript   string                `json:"transcript"`
	Metrics      Metrics               `json:"metrics"`
	Scores       map[string]float64    `json:"scores"`
	Strengths    []string              `json:"strengths"`
	Improvements []Improvement         `json:"improvements"`
	NonVerbal    map[string]any        `json:"non_verbal"`
	Annotations  []playback.Annotation `json:"annotations"`
}

func decodeResult(raw json.RawMessage) (*Result, error) {
	result := &Result{Raw: append(json.RawMessage(nil), raw...)}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return result, nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Verdict classifies a follow-up answer.
type Verdict string

const (
	VerdictCorrect                 Verdict = "correct"
	VerdictPartiallyCorrect        Verdict = "partially_correct"
	VerdictIncorrect               Verdict = "incorrect"
	VerdictInsufficientInformation Verdict = "insufficient_information"
)

// Label returns the short display label for a verdict.
func (v Verdict) Label() string {
	switch v {
	case VerdictCorrect:
		return "Correct"
	case VerdictPartiallyCorrect:
		return "Partial"
	case VerdictIncorrect:
		return "Incorrect"
	case VerdictInsufficientInformation:
		return "Unclear"
	default:
		return string(v)
	}
}

// Evaluation is the backend's grading of a follow-up answer.
type Evaluation struct {
	IsCorrect            bool     `json:"is_correct"`
	Verdict              Verdict  `json:"verdict"`
	CorrectnessScore     float64  `json:"correctness_score"`
	Reason               string   `json:"reason"`
	MissingPoints        []string `json:"missing_points"`
	SuggestedImprovement string   `json:"suggested_improvement"`
}

// Feedback is the quick-feedback response mapped for display.
type Feedback struct {
	Summary     string
	Bullets     []string
	Annotations []playback.Annotation
	Notes       []string
	Transcript  string
}

// DefaultFeedbackSummary is used when the backend returns no summary bullets.
const DefaultFeedbackSummary = "Feedback ready."
