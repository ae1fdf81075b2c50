package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"podium/internal/coachapi"
	"podium/internal/history"
	"podium/internal/playback"
	"podium/internal/services"
)

type sessionView struct {
	ID              string                 `json:"id"`
	CreatedAt       string                 `json:"created_at"`
	Kind            string                 `json:"kind"`
	Preset          string                 `json:"preset"`
	WPM             *float64               `json:"wpm"`
	PaceLabel       string                 `json:"pace_label,omitempty"`
	FillerCount     *int                   `json:"filler_count"`
	DurationSeconds *float64               `json:"duration_s"`
	Scores          map[string]float64     `json:"scores,omitempty"`
	Strengths       []string               `json:"strengths,omitempty"`
	Improvements    []coachapi.Improvement `json:"improvements,omitempty"`
	Transcript      string                 `json:"transcript,omitempty"`
	NonVerbal       map[string]any         `json:"non_verbal,omitempty"`
	VideoURI        string                 `json:"video_uri,omitempty"`
	Annotations     []playback.Annotation  `json:"annotations,omitempty"`
	Extra           map[string]any         `json:"extra,omitempty"`
}

func newSessionView(s history.Session) sessionView {
	return sessionView{
		ID:              s.ID,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
		Kind:            string(s.Kind),
		Preset:          s.Preset,
		WPM:             s.WPM,
		PaceLabel:       s.PaceLabel,
		FillerCount:     s.FillerCount,
		DurationSeconds: s.DurationSeconds,
		Scores:          s.Scores,
		Strengths:       s.Strengths,
		Improvements:    s.Improvements,
		Transcript:      s.Transcript,
		NonVerbal:       s.NonVerbal,
		VideoURI:        s.VideoURI,
		Annotations:     s.Annotations,
		Extra:           s.Extra,
	}
}

// resolveSession finds a session by full ID or unique ID prefix.
func resolveSession(ctx context.Context, store *history.Store, ref string) (*history.Session, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: session id is required", services.ErrValidation)
	}
	session, err := store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}
	all, err := store.List(ctx, history.ListOptions{})
	if err != nil {
		return nil, err
	}
	var matches []history.Session
	for _, s := range all {
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no session matches %q", services.ErrNotFound, ref)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q matches %d sessions; use a longer id", services.ErrValidation, ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatOptionalFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func formatScore(scores map[string]float64, key string) string {
	v, ok := scores[key]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

// bar renders value on a fixed-width scale of [0, max].
func bar(value, max float64, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	filled := int(value / max * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("·", width-filled)
}
