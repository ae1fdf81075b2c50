package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"podium/internal/archive"
	"podium/internal/history"
	"podium/internal/logging"
	"podium/internal/playback"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past practice sessions",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryProgressCommand(ctx))
	historyCmd.AddCommand(newHistoryDeleteCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var (
		preset string
		kind   string
		days   int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDays(days); err != nil {
				return err
			}
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			opts := history.ListOptions{Preset: preset, Kind: history.Kind(strings.TrimSpace(kind)), Limit: limit}
			if days > 0 {
				opts.Since = time.Now().AddDate(0, 0, -days)
			}
			sessions, err := store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				views := make([]sessionView, 0, len(sessions))
				for _, s := range sessions {
					views = append(views, newSessionView(s))
				}
				return writeJSON(cmd, views)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet. Run `podium analyze <video>` to record one.")
				return nil
			}
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					shortID(s.ID),
					humanize.Time(s.CreatedAt),
					string(s.Kind),
					s.Preset,
					formatOptionalFloat(s.WPM, "%.0f"),
					formatOptionalInt(s.FillerCount),
					formatScore(s.Scores, "clarity"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "When", "Kind", "Preset", "WPM", "Fillers", "Clarity"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "all", "Filter by preset (or all)")
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind (analysis, quick_feedback, qa_drill, filler_challenge)")
	cmd.Flags().IntVar(&days, "days", 0, "Only sessions from the last 7, 30 or 90 days (0 for all)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list (0 for all)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			session, err := resolveSession(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, newSessionView(*session))
			}

			w := cmd.OutOrStdout()
			colorize := shouldColorize(w)
			facts := [][2]string{
				{"ID", session.ID},
				{"When", session.CreatedAt.Local().Format("2006-01-02 15:04") + " (" + humanize.Time(session.CreatedAt) + ")"},
				{"Kind", string(session.Kind)},
				{"Preset", session.Preset},
				{"Pace", formatOptionalFloat(session.WPM, "%.0f WPM")},
				{"Filler words", formatOptionalInt(session.FillerCount)},
			}
			if session.DurationSeconds != nil {
				facts = append(facts, [2]string{"Duration", playback.FormatSeconds(*session.DurationSeconds)})
			}
			if session.VideoURI != "" {
				facts = append(facts, [2]string{"Clip", session.VideoURI})
			}
			if q, ok := session.Extra["question"].(string); ok && q != "" {
				facts = append(facts, [2]string{"Question", q})
			}
			if v, ok := session.Extra["verdict"].(string); ok && v != "" {
				facts = append(facts, [2]string{"Verdict", v})
			}
			if u, ok := session.Extra["archive_url"].(string); ok && u != "" {
				facts = append(facts, [2]string{"Archive", u})
			}
			fmt.Fprintln(w, renderFacts(facts))

			if len(session.Scores) > 0 {
				writeSection(w, "Scores", colorize)
				fmt.Fprintln(w, renderTable([]string{"Score", "Value"}, scoreRows(session.Scores), []columnAlignment{alignLeft, alignRight}))
			}
			if len(session.Strengths) > 0 {
				writeSection(w, "Strengths", colorize)
				for _, s := range session.Strengths {
					fmt.Fprintf(w, "  + %s\n", s)
				}
			}
			if len(session.Improvements) > 0 {
				writeSection(w, "Improvements", colorize)
				for _, imp := range session.Improvements {
					fmt.Fprintf(w, "  - %s: %s\n", imp.Title, imp.Detail)
				}
			}
			renderAnnotations(w, session.Annotations, colorize)
			renderTranscript(w, session.Transcript, colorize)
			return nil
		},
	}
}

func newHistoryProgressCommand(ctx *commandContext) *cobra.Command {
	var (
		metricFlag string
		preset     string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show progress over recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := history.ParseMetric(metricFlag)
			if err != nil {
				return err
			}
			if err := validateDays(days); err != nil {
				return err
			}
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			all, err := store.List(cmd.Context(), history.ListOptions{})
			if err != nil {
				return err
			}
			sessions := history.Filter(all, history.FilterOptions{Preset: preset, Days: days})
			series := history.SeriesFor(metric)
			window := history.Window(sessions)
			changes, comparable := history.Summarize(sessions, series)

			if ctx.jsonOutput() {
				return writeJSON(cmd, progressPayload(metric, window, series, changes))
			}

			w := cmd.OutOrStdout()
			colorize := shouldColorize(w)
			if len(sessions) == 0 {
				fmt.Fprintln(w, "No sessions match these filters.")
				return nil
			}
			if metric == history.MetricNonVerbal && !history.HasNonVerbal(sessions) {
				fmt.Fprintln(w, "No non-verbal data yet. Analyze a clip with video to track gestures, eye contact and posture.")
				return nil
			}

			for _, sr := range series {
				writeSection(w, sr.Label, colorize)
				rows := make([][]string, 0, len(window))
				for _, s := range window {
					v := sr.Value(s)
					rows = append(rows, []string{
						s.CreatedAt.Local().Format("Jan 02"),
						fmt.Sprintf("%.1f", v),
						bar(v, sr.Max, 20),
					})
				}
				fmt.Fprintln(w, renderTable([]string{"Date", sr.Label, ""}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			fmt.Fprintln(w, describeBands(history.ReferenceBands(metric)))

			writeSection(w, "Summary", colorize)
			if !comparable {
				fmt.Fprintln(w, "Need at least 2 sessions to compare progress.")
				return nil
			}
			for _, c := range changes {
				kind := statusInfo
				switch c.Trend {
				case history.TrendImproved:
					kind = statusOK
				case history.TrendDeclined:
					kind = statusWarn
				}
				fmt.Fprintln(w, renderStatusLine(c.Series.Label, kind, fmt.Sprintf("%.1f → %.1f  %s", c.First, c.Latest, history.DescribeDelta(c)), colorize))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&metricFlag, "metric", "m", "scores", "Metric family (scores, pace, filler, nonverbal)")
	cmd.Flags().StringVarP(&preset, "preset", "p", history.PresetAll, "Filter by preset (or all)")
	cmd.Flags().IntVar(&days, "days", 0, "Only sessions from the last 7, 30 or 90 days (0 for all)")
	return cmd
}

func newHistoryDeleteCommand(ctx *commandContext) *cobra.Command {
	var keepClip bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			session, err := resolveSession(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			logger := ctx.loggerValue()

			if key, ok := session.Extra["archive_key"].(string); ok && key != "" {
				clipArchive, err := archive.New(cfg, logger)
				if err != nil {
					return err
				}
				if err := clipArchive.Remove(cmd.Context(), key); err != nil {
					logging.WarnWithContext(logger, "archived clip not removed", "archive_remove_failed",
						logging.String("object_key", key),
						logging.Error(err),
						logging.String(logging.FieldImpact, "object stays in the bucket"),
					)
				}
			}

			deleted, err := store.Delete(cmd.Context(), session.ID)
			if err != nil {
				return err
			}
			if !deleted {
				return errors.New("session disappeared before it could be deleted")
			}
			if !keepClip && isManagedClip(cfg.Paths.ClipsDir, session.VideoURI) {
				if err := os.Remove(session.VideoURI); err != nil && !os.IsNotExist(err) {
					logger.Debug("clip copy not removed", logging.String("clip", session.VideoURI), logging.Error(err))
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"deleted": session.ID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", session.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepClip, "keep-clip", false, "Keep the local clip copy")
	return cmd
}

// isManagedClip reports whether path lives directly in the clips directory.
func isManagedClip(clipsDir, path string) bool {
	if strings.TrimSpace(path) == "" || strings.TrimSpace(clipsDir) == "" {
		return false
	}
	dir, err := filepath.Abs(clipsDir)
	if err != nil {
		return false
	}
	return filepath.Dir(filepath.Clean(path)) == dir
}

func validateDays(days int) error {
	switch days {
	case 0, 7, 30, 90:
		return nil
	default:
		return fmt.Errorf("--days must be 0, 7, 30 or 90 (got %d)", days)
	}
}

func describeBands(bands []history.Band) string {
	parts := make([]string, 0, len(bands))
	for _, b := range bands {
		label := b.Label
		if label == "" {
			label = fmt.Sprintf("%.0f", b.Value)
		}
		parts = append(parts, label)
	}
	return "Targets: " + strings.Join(parts, ", ")
}

func progressPayload(metric history.Metric, window []history.Session, series []history.Series, changes []history.Change) map[string]any {
	points := make([]map[string]any, 0, len(window))
	for _, s := range window {
		values := map[string]float64{}
		for _, sr := range series {
			values[sr.Key] = sr.Value(s)
		}
		points = append(points, map[string]any{
			"session_id": s.ID,
			"created_at": s.CreatedAt.UTC().Format(time.RFC3339),
			"values":     values,
		})
	}
	summary := make([]map[string]any, 0, len(changes))
	for _, c := range changes {
		summary = append(summary, map[string]any{
			"series":  c.Series.Key,
			"first":   c.First,
			"latest":  c.Latest,
			"delta":   c.Delta,
			"percent": c.Percent,
			"trend":   c.Trend,
		})
	}
	return map[string]any{"metric": metric, "points": points, "summary": summary}
}
