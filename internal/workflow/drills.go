package workflow

import (
	"context"
	"time"

	"podium/internal/coachapi"
	"podium/internal/history"
	"podium/internal/notifications"
)

// FillerChallengeDuration is the duration hint sent with a filler challenge
// clip.
const FillerChallengeDuration = 60 * time.Second

// DrillAnswer is the graded answer to a follow-up question.
type DrillAnswer struct {
	Question   string
	Transcript string
	Evaluation *coachapi.Evaluation
	Session    *history.Session
}

// FillerOutcome summarizes a filler challenge attempt.
type FillerOutcome struct {
	FillerCount int
	FillerWords map[string]int
	TotalWords  int
	Success     bool
	Transcript  string
	Session     *history.Session
}

// AskQuestion fetches a practice question for a preset.
func (c *Coach) AskQuestion(ctx context.Context, preset coachapi.Preset) (string, error) {
	ctx = coachapi.EnsureRequestID(ctx)
	question, err := c.client.FollowupQuestion(ctx, coachapi.DrillSummary, preset)
	if err != nil {
		c.notifyFailure(ctx, "drill question", err)
		return "", err
	}
	return question, nil
}

// AnswerQuestion transcribes an answer clip through the analysis endpoint,
// then asks the backend to grade it against question.
func (c *Coach) AnswerQuestion(ctx context.Context, question string, preset coachapi.Preset, clipPath string) (*DrillAnswer, error) {
	ctx = coachapi.EnsureRequestID(ctx)
	if preset == "" {
		preset = coachapi.PresetGeneral
	}
	result, media, err := c.submit(ctx, clipPath, preset, 0)
	if err != nil {
		c.notifyFailure(ctx, "drill answer", err)
		return nil, err
	}
	eval, err := c.client.EvaluateAnswer(ctx, question, result.Transcript)
	if err != nil {
		c.notifyFailure(ctx, "drill evaluation", err)
		return nil, err
	}

	session := history.FromResult(history.KindQADrill, preset, result)
	session.Extra = map[string]any{
		"question":              question,
		"verdict":               string(eval.Verdict),
		"is_correct":            eval.IsCorrect,
		"correctness_score":     eval.CorrectnessScore,
		"reason":                eval.Reason,
		"missing_points":        eval.MissingPoints,
		"suggested_improvement": eval.SuggestedImprovement,
	}
	_, _, saved := c.record(ctx, session, clipPath, media)

	c.publish(ctx, notifications.EventDrillEvaluated, notifications.Payload{
		"verdict":  eval.Verdict.Label(),
		"question": question,
	})
	return &DrillAnswer{
		Question:   question,
		Transcript: result.Transcript,
		Evaluation: eval,
		Session:    saved,
	}, nil
}

// FillerChallenge analyzes a clip with the general preset and counts filler
// words. The challenge succeeds only with zero fillers.
func (c *Coach) FillerChallenge(ctx context.Context, clipPath string) (*FillerOutcome, error) {
	ctx = coachapi.EnsureRequestID(ctx)
	result, media, err := c.submit(ctx, clipPath, coachapi.PresetGeneral, FillerChallengeDuration.Seconds())
	if err != nil {
		c.notifyFailure(ctx, "filler challenge", err)
		return nil, err
	}

	metrics := result.Metrics
	words := metrics.FillerWords
	if words == nil {
		words = map[string]int{}
	}
	outcome := &FillerOutcome{
		FillerCount: metrics.FillerWordCount,
		FillerWords: words,
		TotalWords:  metrics.WordCount,
		Success:     metrics.FillerWordCount == 0,
		Transcript:  result.Transcript,
	}

	session := history.FromResult(history.KindFillerChallenge, coachapi.PresetGeneral, result)
	session.Extra = map[string]any{
		"success":      outcome.Success,
		"filler_words": words,
		"total_words":  outcome.TotalWords,
	}
	_, _, outcome.Session = c.record(ctx, session, clipPath, media)

	c.publish(ctx, notifications.EventFillerChallenge, notifications.Payload{"fillers": outcome.FillerCount})
	return outcome, nil
}
