package workflow

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"podium/internal/coachapi"
	"podium/internal/fileutil"
	"podium/internal/history"
	"podium/internal/logging"
	"podium/internal/notifications"
	"podium/internal/services"
)

// AnalyzeRequest describes a clip to analyze.
type AnalyzeRequest struct {
	Path   string
	Preset coachapi.Preset
	// DurationSeconds is sent as the duration hint. Zero probes the clip.
	DurationSeconds float64
}

// Analysis is the outcome of a full analysis.
type Analysis struct {
	Result *coachapi.Result
	// Session is nil when history is disabled or the save failed.
	Session    *history.Session
	ClipPath   string
	ArchiveURL string
}

// Analyze submits a clip for full analysis and records the session.
func (c *Coach) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	ctx = coachapi.EnsureRequestID(ctx)
	preset := req.Preset
	if preset == "" {
		preset = coachapi.PresetGeneral
	}

	result, media, err := c.submit(ctx, req.Path, preset, req.DurationSeconds)
	if err != nil {
		c.notifyFailure(ctx, "analysis", err)
		return nil, err
	}

	session := history.FromResult(history.KindAnalysis, preset, result)
	out := &Analysis{Result: result}
	out.ClipPath, out.ArchiveURL, out.Session = c.record(ctx, session, req.Path, media)

	payload := notifications.Payload{"preset": string(preset)}
	if wpm := result.Metrics.WPM; wpm != nil {
		payload["wpm"] = fmt.Sprintf("%.0f", *wpm)
	}
	payload["fillers"] = result.Metrics.FillerWordCount
	c.publish(ctx, notifications.EventAnalysisCompleted, payload)
	return out, nil
}

// QuickFeedback sends a clip to the synchronous feedback endpoint.
func (c *Coach) QuickFeedback(ctx context.Context, path string, durationSeconds float64) (*coachapi.Feedback, *history.Session, error) {
	ctx = coachapi.EnsureRequestID(ctx)
	media, err := clipMedia(path)
	if err != nil {
		return nil, nil, err
	}
	hint := c.durationHint(ctx, path, durationSeconds)
	fb, err := c.client.QuickFeedback(ctx, media, hint)
	if err != nil {
		c.notifyFailure(ctx, "quick feedback", err)
		return nil, nil, err
	}

	session := history.Session{
		Kind:        history.KindQuickFeedback,
		Preset:      string(coachapi.PresetGeneral),
		Strengths:   trimmed(fb.Bullets),
		Transcript:  fb.Transcript,
		Annotations: fb.Annotations,
		Extra:       map[string]any{"summary": fb.Summary, "notes": fb.Notes},
	}
	if hint > 0 {
		session.DurationSeconds = &hint
	}
	_, _, saved := c.record(ctx, session, path, media)
	return fb, saved, nil
}

// submit runs the upload-and-poll exchange for a clip on disk.
func (c *Coach) submit(ctx context.Context, path string, preset coachapi.Preset, duration float64) (*coachapi.Result, coachapi.Media, error) {
	media, err := clipMedia(path)
	if err != nil {
		return nil, coachapi.Media{}, err
	}
	meta := coachapi.Metadata{Preset: preset, DurationSeconds: c.durationHint(ctx, path, duration)}
	result, err := c.client.Submit(ctx, media, meta)
	if err != nil {
		return nil, media, err
	}
	return result, media, nil
}

// record copies the clip for replay, archives it, and saves the session.
func (c *Coach) record(ctx context.Context, session history.Session, path string, media coachapi.Media) (string, string, *history.Session) {
	session.ID = uuid.NewString()
	clipPath, err := fileutil.ImportClip(path, c.cfg.Paths.ClipsDir, session.ID[:8])
	if err != nil {
		logging.WarnWithContext(c.logger, "clip not copied for replay", "clip_import_failed",
			logging.String("clip", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check clips directory permissions"),
			logging.String(logging.FieldImpact, "replay uses the original clip path"),
		)
		if abs, absErr := filepath.Abs(path); absErr == nil {
			clipPath = abs
		} else {
			clipPath = path
		}
	}
	session.VideoURI = clipPath
	archiveURL := c.archiveClip(ctx, media, &session)
	return clipPath, archiveURL, c.save(ctx, session)
}

// clipMedia opens a clip and rejects empty files before any request.
func clipMedia(path string) (coachapi.Media, error) {
	media, err := coachapi.FileMedia(path)
	if err != nil {
		return coachapi.Media{}, services.Wrap(services.ErrValidation, "workflow", "open clip", path, err)
	}
	if media.Size == 0 {
		return coachapi.Media{}, &services.EmptyRecordingError{Path: path}
	}
	return media, nil
}
