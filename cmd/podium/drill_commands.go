package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"podium/internal/coachapi"
	"podium/internal/workflow"
)

func newDrillCommand(ctx *commandContext) *cobra.Command {
	drillCmd := &cobra.Command{
		Use:   "drill",
		Short: "Practice drills",
	}
	drillCmd.AddCommand(newDrillQuestionCommand(ctx))
	drillCmd.AddCommand(newDrillAnswerCommand(ctx))
	drillCmd.AddCommand(newDrillFillerCommand(ctx))
	return drillCmd
}

func newDrillQuestionCommand(ctx *commandContext) *cobra.Command {
	var presetFlag string

	cmd := &cobra.Command{
		Use:   "question",
		Short: "Ask for a practice question",
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, err := parsePresetFlag(presetFlag)
			if err != nil {
				return err
			}
			coach, err := ctx.newCoach(false)
			if err != nil {
				return err
			}
			question, err := coach.AskQuestion(cmd.Context(), preset)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"question": question, "preset": preset})
			}
			fmt.Fprintln(cmd.OutOrStdout(), question)
			return nil
		},
	}
	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "general", "Speaking context")
	return cmd
}

func newDrillAnswerCommand(ctx *commandContext) *cobra.Command {
	var (
		question   string
		presetFlag string
		clipPath   string
		record     bool
	)

	cmd := &cobra.Command{
		Use:   "answer",
		Short: "Answer a practice question and get it graded",
		RunE: func(cmd *cobra.Command, args []string) error {
			question = strings.TrimSpace(question)
			if question == "" {
				return errors.New("--question is required")
			}
			preset, err := parsePresetFlag(presetFlag)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			coach, err := ctx.newCoach(record)
			if err != nil {
				return err
			}
			clip, err := resolveClip(cmd, ctx, coach, clipPath, record, cfg.AnswerLimit())
			if err != nil {
				return err
			}

			answer, err := coach.AnswerQuestion(cmd.Context(), question, preset, clip)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				payload := map[string]any{
					"question":   answer.Question,
					"transcript": answer.Transcript,
					"evaluation": answer.Evaluation,
				}
				if answer.Session != nil {
					payload["session_id"] = answer.Session.ID
				}
				return writeJSON(cmd, payload)
			}
			renderEvaluation(cmd, answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "Question being answered")
	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "general", "Speaking context")
	cmd.Flags().StringVar(&clipPath, "clip", "", "Answer clip to upload")
	cmd.Flags().BoolVar(&record, "record", false, "Record the answer from the camera")
	cmd.MarkFlagsMutuallyExclusive("clip", "record")
	return cmd
}

func newDrillFillerCommand(ctx *commandContext) *cobra.Command {
	var (
		clipPath string
		record   bool
	)

	cmd := &cobra.Command{
		Use:   "filler",
		Short: "Speak without filler words",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			coach, err := ctx.newCoach(record)
			if err != nil {
				return err
			}
			clip, err := resolveClip(cmd, ctx, coach, clipPath, record, cfg.FillerChallengeLimit())
			if err != nil {
				return err
			}
			outcome, err := coach.FillerChallenge(cmd.Context(), clip)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				payload := map[string]any{
					"filler_count": outcome.FillerCount,
					"filler_words": outcome.FillerWords,
					"total_words":  outcome.TotalWords,
					"success":      outcome.Success,
				}
				if outcome.Session != nil {
					payload["session_id"] = outcome.Session.ID
				}
				return writeJSON(cmd, payload)
			}

			w := cmd.OutOrStdout()
			colorize := shouldColorize(w)
			if outcome.Success {
				fmt.Fprintln(w, renderStatusLine("Filler challenge", statusOK, fmt.Sprintf("No filler words in %d words", outcome.TotalWords), colorize))
			} else {
				fmt.Fprintln(w, renderStatusLine("Filler challenge", statusWarn, fmt.Sprintf("%d filler words in %d words", outcome.FillerCount, outcome.TotalWords), colorize))
			}
			if rows := fillerRows(outcome.FillerWords); len(rows) > 0 {
				fmt.Fprintln(w, renderTable([]string{"Word", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clipPath, "clip", "", "Clip to upload")
	cmd.Flags().BoolVar(&record, "record", false, "Record from the camera")
	cmd.MarkFlagsMutuallyExclusive("clip", "record")
	return cmd
}

// resolveClip returns clipPath, or records a new clip when record is set.
func resolveClip(cmd *cobra.Command, ctx *commandContext, coach *workflow.Coach, clipPath string, record bool, limit time.Duration) (string, error) {
	if record {
		clip, err := recordClip(cmd, ctx, coach, limit, "")
		if err != nil {
			return "", err
		}
		return clip.Path, nil
	}
	clipPath = strings.TrimSpace(clipPath)
	if clipPath == "" {
		return "", errors.New("pass --clip <file> or --record")
	}
	return clipPath, nil
}

func renderEvaluation(cmd *cobra.Command, answer *workflow.DrillAnswer) {
	w := cmd.OutOrStdout()
	colorize := shouldColorize(w)
	eval := answer.Evaluation

	kind := statusWarn
	switch eval.Verdict {
	case coachapi.VerdictCorrect:
		kind = statusOK
	case coachapi.VerdictIncorrect:
		kind = statusError
	}
	fmt.Fprintln(w, renderStatusLine("Verdict", kind, fmt.Sprintf("%s (%.0f/100)", eval.Verdict.Label(), eval.CorrectnessScore), colorize))
	if eval.Reason != "" {
		fmt.Fprintf(w, "\n%s\n", eval.Reason)
	}
	if len(eval.MissingPoints) > 0 {
		writeSection(w, "Missing points", colorize)
		for _, p := range eval.MissingPoints {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
	if eval.SuggestedImprovement != "" {
		writeSection(w, "Try this", colorize)
		fmt.Fprintln(w, eval.SuggestedImprovement)
	}
	renderTranscript(w, answer.Transcript, colorize)
}
