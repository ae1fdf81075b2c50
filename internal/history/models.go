package history

import (
	"time"

	"podium/internal/coachapi"
	"podium/internal/playback"
)

// Kind identifies which workflow produced a session.
type Kind string

const (
	KindAnalysis        Kind = "analysis"
	KindQuickFeedback   Kind = "quick_feedback"
	KindQADrill         Kind = "qa_drill"
	KindFillerChallenge Kind = "filler_challenge"
)

// Session is one stored practice attempt.
type Session struct {
	ID              string
	CreatedAt       time.Time
	Kind            Kind
	Preset          string
	WPM             *float64
	PaceLabel       string
	FillerCount     *int
	DurationSeconds *float64
	Scores          map[string]float64
	Strengths       []string
	Improvements    []coachapi.Improvement
	Transcript      string
	NonVerbal       map[string]any
	// VideoURI points at the local clip copy used for annotated replay.
	VideoURI    string
	Annotations []playback.Annotation
	// Extra holds workflow-specific details such as a drill question and its
	// evaluation.
	Extra map[string]any
}

// FromResult builds a session from a completed analysis.
func FromResult(kind Kind, preset coachapi.Preset, result *coachapi.Result) Session {
	session := Session{Kind: kind, Preset: string(preset)}
	if result == nil {
		return session
	}
	metrics := result.Metrics
	session.WPM = metrics.WPM
	session.PaceLabel = metrics.PaceLabel
	fillers := metrics.FillerWordCount
	session.FillerCount = &fillers
	session.DurationSeconds = metrics.DurationSeconds
	session.Scores = result.Scores
	session.Strengths = result.Strengths
	session.Improvements = result.Improvements
	session.Transcript = result.Transcript
	session.NonVerbal = result.NonVerbal
	session.Annotations = result.Annotations
	return session
}
