package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"podium/internal/coachapi"
	"podium/internal/workflow"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var presetFlag string
	var duration float64

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Upload a clip for full analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, err := parsePresetFlag(presetFlag)
			if err != nil {
				return err
			}
			progress := newProgressReporter(cmd, ctx.jsonOutput())
			coach, err := ctx.newCoach(false, progress.jobProgress())
			if err != nil {
				return err
			}
			progress.Printf("Uploading %s (%s preset)...\n", args[0], preset)

			out, err := coach.Analyze(cmd.Context(), workflow.AnalyzeRequest{
				Path:            args[0],
				Preset:          preset,
				DurationSeconds: duration,
			})
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				payload := map[string]any{
					"clip_path":   out.ClipPath,
					"archive_url": out.ArchiveURL,
					"results":     json.RawMessage(out.Result.Raw),
				}
				if out.Session != nil {
					payload["session_id"] = out.Session.ID
				}
				return writeJSON(cmd, payload)
			}

			w := cmd.OutOrStdout()
			colorize := shouldColorize(w)
			renderResult(w, out.Result, colorize)
			fmt.Fprintln(w)
			if out.Session != nil {
				fmt.Fprintf(w, "Saved session %s\n", out.Session.ID)
			}
			if out.ArchiveURL != "" {
				fmt.Fprintf(w, "Archived clip: %s\n", out.ArchiveURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "general", "Speaking context (general, interview, pitch, classroom, keynote)")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Clip duration in seconds (probed with ffprobe when omitted)")
	return cmd
}

func newFeedbackCommand(ctx *commandContext) *cobra.Command {
	var duration float64

	cmd := &cobra.Command{
		Use:   "feedback <video>",
		Short: "Get quick feedback on a clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coach, err := ctx.newCoach(false)
			if err != nil {
				return err
			}
			fb, session, err := coach.QuickFeedback(cmd.Context(), args[0], duration)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				payload := map[string]any{
					"summary":     fb.Summary,
					"bullets":     fb.Bullets,
					"annotations": fb.Annotations,
					"notes":       fb.Notes,
					"transcript":  fb.Transcript,
				}
				if session != nil {
					payload["session_id"] = session.ID
				}
				return writeJSON(cmd, payload)
			}

			w := cmd.OutOrStdout()
			colorize := shouldColorize(w)
			fmt.Fprintln(w, fb.Summary)
			for _, b := range fb.Bullets[min(1, len(fb.Bullets)):] {
				fmt.Fprintf(w, "  - %s\n", b)
			}
			renderAnnotations(w, fb.Annotations, colorize)
			if len(fb.Notes) > 0 {
				writeSection(w, "Notes", colorize)
				for _, n := range fb.Notes {
					fmt.Fprintf(w, "  * %s\n", n)
				}
			}
			renderTranscript(w, fb.Transcript, colorize)
			return nil
		},
	}

	cmd.Flags().Float64Var(&duration, "duration", 0, "Clip duration in seconds (probed with ffprobe when omitted)")
	return cmd
}

func parsePresetFlag(value string) (coachapi.Preset, error) {
	preset, ok := coachapi.ParsePreset(value)
	if !ok {
		return "", fmt.Errorf("unknown preset %q (expected general, interview, pitch, classroom or keynote)", value)
	}
	return preset, nil
}
