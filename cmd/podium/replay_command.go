package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"podium/internal/playback"
)

type replayEvent struct {
	Time    float64 `json:"time"`
	Label   string  `json:"label"`
	Message string  `json:"message"`
}

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var (
		speed float64
		from  float64
	)

	cmd := &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Replay a session's annotations in real time",
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
			if len(session.Annotations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "This session has no annotations to replay.")
				return nil
			}

			w := cmd.OutOrStdout()
			colorize := shouldColorize(w)
			quiet := ctx.jsonOutput()
			var (
				mu      sync.Mutex
				events  []replayEvent
				showing *float64
			)
			display := seconds(cfg.Playback.DisplaySeconds)
			syncer := playback.NewSynchronizer(session.Annotations, playback.Options{
				Tolerance:       seconds(cfg.Playback.ToleranceSeconds),
				DisplayDuration: display,
				ResetBelow:      seconds(cfg.Playback.ResetBelowSeconds),
				OnChange: func(a *playback.Annotation) {
					mu.Lock()
					if a == nil {
						showing = nil
						mu.Unlock()
						return
					}
					// Notes near the start refire while the reset window is
					// open; print each one once while it stays on screen.
					if showing != nil && *showing == a.Time {
						mu.Unlock()
						return
					}
					at := a.Time
					showing = &at
					events = append(events, replayEvent{Time: a.Time, Label: a.Label, Message: a.Message})
					mu.Unlock()
					if quiet {
						return
					}
					fmt.Fprintln(w, renderStatusLine(playback.FormatSeconds(a.Time), statusInfo, playback.DisplayLabel(a.Label)+": "+a.Message, colorize))
				},
			})
			defer syncer.Close()

			player := playback.NewPlayer(playback.PlayerOptions{
				Duration: replayDuration(session.DurationSeconds, session.Annotations, display),
				Tick:     time.Duration(cfg.Playback.TickMillis) * time.Millisecond,
				Speed:    speed,
			}, syncer.OnPositionUpdate)
			if from > 0 {
				syncer.JumpTo(cmd.Context(), player, from)
			}

			if !quiet {
				rate := speed
				if rate <= 0 {
					rate = 1
				}
				fmt.Fprintf(w, "Replaying %d notes from %s at %.1fx\n", len(session.Annotations), playback.FormatSeconds(player.Position()), rate)
			}
			if err := player.Run(cmd.Context()); err != nil {
				return err
			}

			if quiet {
				mu.Lock()
				defer mu.Unlock()
				return writeJSON(cmd, map[string]any{"session_id": session.ID, "events": events})
			}
			fmt.Fprintln(w, "Replay finished.")
			return nil
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 1, "Playback speed multiplier")
	cmd.Flags().Float64Var(&from, "from", 0, "Start position in seconds")
	return cmd
}

// replayDuration prefers the recorded clip length and otherwise runs until
// the last note has had time to display.
func replayDuration(recorded *float64, annotations []playback.Annotation, display time.Duration) float64 {
	if recorded != nil && *recorded > 0 {
		return *recorded
	}
	last := 0.0
	for _, a := range annotations {
		if a.Time > last {
			last = a.Time
		}
	}
	return last + display.Seconds()
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
