package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podium/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		match  string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the podium log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			out := cmd.OutOrStdout()
			emit := func(line string) {
				if match == "" || strings.Contains(line, match) {
					fmt.Fprintln(out, line)
				}
			}

			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			if len(tail) == 0 && !follow {
				fmt.Fprintf(out, "No log entries in %s\n", path)
				return nil
			}
			for _, line := range tail {
				emit(line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 0, emit)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&match, "grep", "", "Only show lines containing this text")
	return cmd
}
