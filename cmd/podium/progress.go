package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"podium/internal/coachapi"
	"podium/internal/workflow"
)

// progressReporter writes status updates to stderr so stdout stays clean for
// results and JSON.
type progressReporter struct {
	out     io.Writer
	enabled bool
}

func newProgressReporter(cmd *cobra.Command, quiet bool) *progressReporter {
	return &progressReporter{out: cmd.ErrOrStderr(), enabled: !quiet}
}

func (p *progressReporter) Printf(format string, args ...any) {
	if p == nil || !p.enabled {
		return
	}
	fmt.Fprintf(p.out, format, args...)
}

// jobProgress reports job state changes and every tenth poll.
func (p *progressReporter) jobProgress() workflow.Option {
	return workflow.WithProgress(func(job coachapi.Job) {
		switch {
		case job.State == coachapi.JobPending && job.Attempts == 0:
			p.Printf("Job %s queued; waiting for results...\n", job.ID)
		case job.State == coachapi.JobPending && job.Attempts%10 == 0:
			p.Printf("Still analyzing (poll %d)...\n", job.Attempts)
		case job.State == coachapi.JobDone:
			p.Printf("Analysis finished in %s\n", job.FinishedAt.Sub(job.SubmittedAt).Round(time.Second))
		}
	})
}

// countdown renders the recording clock on one line: time left for bounded
// recordings, elapsed time otherwise.
func (p *progressReporter) countdown(limit time.Duration) func(time.Duration) {
	return func(d time.Duration) {
		if limit > 0 {
			p.Printf("\rRecording... %s left ", formatClock(d))
			return
		}
		p.Printf("\rRecording... %s ", formatClock(d))
	}
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
