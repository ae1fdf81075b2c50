package coachapi

import (
	"context"
	"encoding/json"

	"podium/internal/playback"
	"podium/internal/services"
)

type feedbackResponse struct {
	SummaryFeedback []string `json:"summary_feedback"`
	Markers         []struct {
		Second   float64 `json:"second"`
		Category string  `json:"category"`
		Message  string  `json:"message"`
	} `json:"markers"`
	Notes      []string `json:"notes"`
	Transcript string   `json:"transcript"`
}

// QuickFeedback uploads media to the synchronous /analyze endpoint and maps
// the response for display.
func (c *Client) QuickFeedback(ctx context.Context, media Media, durationSeconds float64) (*Feedback, error) {
	if media.Size == 0 {
		return nil, &services.EmptyRecordingError{Path: media.Name}
	}
	fields := map[string]string{}
	if durationSeconds > 0 {
		fields["duration_seconds"] = formatSeconds(durationSeconds)
	}
	body, err := c.upload(EnsureRequestID(ctx), "/analyze", "file", media, fields)
	if err != nil {
		return nil, err
	}
	var parsed feedbackResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrBackend, "coachapi", "feedback", "decode response", err)
	}
	return mapFeedback(parsed), nil
}

func mapFeedback(resp feedbackResponse) *Feedback {
	fb := &Feedback{
		Summary:    DefaultFeedbackSummary,
		Bullets:    resp.SummaryFeedback,
		Notes:      resp.Notes,
		Transcript: resp.Transcript,
	}
	if len(resp.SummaryFeedback) > 0 {
		fb.Summary = resp.SummaryFeedback[0]
	}
	if fb.Bullets == nil {
		fb.Bullets = []string{}
	}
	if fb.Notes == nil {
		fb.Notes = []string{}
	}
	fb.Annotations = make([]playback.Annotation, 0, len(resp.Markers))
	for _, m := range resp.Markers {
		fb.Annotations = append(fb.Annotations, playback.Annotation{Time: m.Second, Label: m.Category, Message: m.Message})
	}
	return fb
}
