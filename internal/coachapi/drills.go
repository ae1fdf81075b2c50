package coachapi

import (
	"context"
	"errors"
	"strings"
)

// DrillSummary is the summary sent when asking for a practice question
// outside of a full analysis.
var DrillSummary = []string{"Drill practice session"}

type followupRequest struct {
	SummaryFeedback []string `json:"summary_feedback"`
	Preset          Preset   `json:"preset"`
}

type followupResponse struct {
	Question *string `json:"question"`
}

// FollowupQuestion asks the backend for a follow-up question based on a
// feedback summary. The returned question is trimmed; an empty question is an
// error.
func (c *Client) FollowupQuestion(ctx context.Context, summary []string, preset Preset) (string, error) {
	if len(summary) == 0 {
		summary = DrillSummary
	}
	if preset == "" {
		preset = PresetGeneral
	}
	var resp followupResponse
	if err := c.postJSON(EnsureRequestID(ctx), "/followup-question", "Server", followupRequest{SummaryFeedback: summary, Preset: preset}, &resp); err != nil {
		return "", err
	}
	if resp.Question == nil || strings.TrimSpace(*resp.Question) == "" {
		return "", errors.New("backend returned no question")
	}
	return strings.TrimSpace(*resp.Question), nil
}

type evaluateRequest struct {
	Question         string `json:"question"`
	AnswerTranscript string `json:"answer_transcript"`
}

// EvaluateAnswer grades a transcribed answer to a follow-up question.
func (c *Client) EvaluateAnswer(ctx context.Context, question, transcript string) (*Evaluation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("a question is required to evaluate an answer")
	}
	var eval Evaluation
	if err := c.postJSON(EnsureRequestID(ctx), "/evaluate-followup-answer", "Eval", evaluateRequest{Question: question, AnswerTranscript: transcript}, &eval); err != nil {
		return nil, err
	}
	if eval.MissingPoints == nil {
		eval.MissingPoints = []string{}
	}
	return &eval, nil
}
