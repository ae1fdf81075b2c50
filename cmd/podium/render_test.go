package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"podium/internal/coachapi"
	"podium/internal/playback"
	"podium/internal/preflight"
	"podium/internal/workflow"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Camera", statusError, "not connected", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Camera:", "[ERROR] not connected")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Backend", statusOK, "reachable", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestResultStatusLine(t *testing.T) {
	cases := []struct {
		result preflight.Result
		want   string
	}{
		{preflight.Result{Name: "FFmpeg", Passed: true, Detail: "/usr/bin/ffmpeg"}, "[OK]"},
		{preflight.Result{Name: "FFprobe", Optional: true, Detail: "missing"}, "[WARN]"},
		{preflight.Result{Name: "Camera", Detail: "missing"}, "[ERROR]"},
	}
	for _, tc := range cases {
		if got := resultStatusLine(tc.result, false); !strings.Contains(got, tc.want) {
			t.Errorf("%s: expected %s in %q", tc.result.Name, tc.want, got)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestFillerRowsSortByCount(t *testing.T) {
	rows := fillerRows(map[string]int{"uh": 1, "um": 4, "like": 1})
	got := []string{rows[0][0], rows[1][0], rows[2][0]}
	want := []string{"um", "like", "uh"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order %v", got)
		}
	}
}

func TestBar(t *testing.T) {
	cases := map[float64]string{
		0:   "····",
		5:   "██··",
		10:  "████",
		-1:  "····",
		100: "████",
	}
	for value, want := range cases {
		if got := bar(value, 10, 4); got != want {
			t.Errorf("bar(%v) = %q, want %q", value, got, want)
		}
	}
}

func TestValidateDays(t *testing.T) {
	for _, d := range []int{0, 7, 30, 90} {
		if err := validateDays(d); err != nil {
			t.Errorf("validateDays(%d): %v", d, err)
		}
	}
	if validateDays(14) == nil {
		t.Error("expected 14 days to be rejected")
	}
}

func TestReplayDuration(t *testing.T) {
	notes := []playback.Annotation{{Time: 3}, {Time: 9}}
	if got := replayDuration(nil, notes, 2500*time.Millisecond); got != 11.5 {
		t.Fatalf("expected 11.5, got %v", got)
	}
	recorded := 20.0
	if got := replayDuration(&recorded, notes, time.Second); got != 20 {
		t.Fatalf("expected recorded duration, got %v", got)
	}
}

func TestFormatClock(t *testing.T) {
	if got := formatClock(90 * time.Second); got != "1:30" {
		t.Fatalf("expected 1:30, got %q", got)
	}
}

func TestIsManagedClip(t *testing.T) {
	dir := t.TempDir()
	if !isManagedClip(dir, dir+"/a.mp4") {
		t.Fatal("expected clip in dir to be managed")
	}
	if isManagedClip(dir, "/elsewhere/a.mp4") || isManagedClip(dir, "") {
		t.Fatal("expected outside clips to be unmanaged")
	}
}

func TestRenderEvaluationShowsScoreOutOfHundred(t *testing.T) {
	cases := []struct {
		verdict coachapi.Verdict
		score   float64
		want    string
	}{
		{coachapi.VerdictPartiallyCorrect, 75, "[WARN] Partial (75/100)"},
		{coachapi.VerdictCorrect, 100, "[OK] Correct (100/100)"},
		{coachapi.VerdictIncorrect, 12.4, "[ERROR] Incorrect (12/100)"},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&out)
		renderEvaluation(cmd, &workflow.DrillAnswer{
			Evaluation: &coachapi.Evaluation{Verdict: tc.verdict, CorrectnessScore: tc.score},
		})
		if !strings.Contains(out.String(), tc.want) {
			t.Errorf("expected %q in %q", tc.want, out.String())
		}
	}
}
