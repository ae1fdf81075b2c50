package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CheckCaptureFormats verifies that ffmpeg was built with the input devices
// recording needs (v4l2 plus the configured audio backend). It parses the
// output of `ffmpeg -devices`.
func CheckCaptureFormats(ctx context.Context, ffmpeg string, formats ...string) Status {
	status := Status{
		Name:        "FFmpeg devices",
		Command:     strings.TrimSpace(ffmpeg),
		Description: "Input devices compiled into ffmpeg",
	}
	if status.Command == "" {
		status.Command = "ffmpeg"
	}
	out, err := exec.CommandContext(ctx, status.Command, "-hide_banner", "-devices").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("list devices: %v", err)
		return status
	}
	available := parseDemuxers(out)
	var missing []string
	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}
		if !available[format] {
			missing = append(missing, format)
		}
	}
	if len(missing) > 0 {
		status.Detail = "missing input devices: " + strings.Join(missing, ", ")
		return status
	}
	status.Available = true
	return status
}

// parseDemuxers returns the device names flagged as inputs ("D") in
// `ffmpeg -devices` output.
func parseDemuxers(out []byte) map[string]bool {
	devices := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	pastHeader := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "--" {
			pastHeader = true
			continue
		}
		if !pastHeader || line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.Contains(fields[0], "D") {
			continue
		}
		for _, name := range strings.Split(fields[1], ",") {
			devices[strings.ToLower(name)] = true
		}
	}
	return devices
}
