package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"podium/internal/recording"
	"podium/internal/workflow"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var seconds int
	var outName string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a clip from the camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			coach, err := ctx.newCoach(true)
			if err != nil {
				return err
			}
			limit := time.Duration(seconds) * time.Second
			clip, err := recordClip(cmd, ctx, coach, limit, outName)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"path":             clip.Path,
					"size_bytes":       clip.Size,
					"duration_seconds": clip.Duration.Seconds(),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %s)\n", clip.Path, humanize.Bytes(uint64(clip.Size)), formatClock(clip.Duration))
			return nil
		},
	}

	cmd.Flags().IntVar(&seconds, "seconds", 0, "Stop automatically after this many seconds (0 records until Enter)")
	cmd.Flags().StringVarP(&outName, "out", "o", "", "Output file name inside the clips directory")
	return cmd
}

// recordClip captures one clip, stopping on Enter when stdin is a terminal.
func recordClip(cmd *cobra.Command, ctx *commandContext, coach *workflow.Coach, limit time.Duration, name string) (recording.Clip, error) {
	progress := newProgressReporter(cmd, ctx.jsonOutput())
	stop := make(chan struct{})
	if isatty.IsTerminal(os.Stdin.Fd()) {
		progress.Printf("Press Enter to stop recording.\n")
		go func() {
			_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
			close(stop)
		}()
	}

	clip, err := coach.Record(cmd.Context(), workflow.RecordOptions{
		Limit:  limit,
		Name:   strings.TrimSpace(name),
		Stop:   stop,
		OnTick: progress.countdown(limit),
	})
	progress.Printf("\n")
	return clip, err
}
