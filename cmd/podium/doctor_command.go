package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"podium/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check backend, camera, and tool readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			if ctx.jsonOutput() {
				rows := make([]map[string]any, 0, len(results))
				for _, r := range results {
					rows = append(rows, map[string]any{
						"name":     r.Name,
						"passed":   r.Passed,
						"optional": r.Optional,
						"detail":   r.Detail,
					})
				}
				if err := writeJSON(cmd, rows); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				colorize := shouldColorize(w)
				for _, line := range renderSectionHeader("Readiness", colorize) {
					fmt.Fprintln(w, line)
				}
				for _, r := range results {
					fmt.Fprintln(w, resultStatusLine(r, colorize))
				}
			}

			if preflight.Failed(results) {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}
}
