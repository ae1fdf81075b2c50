package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the clip.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// ClipInfo summarises a recorded clip.
type ClipInfo struct {
	Duration time.Duration
	HasAudio bool
	HasVideo bool
	Width    int
	Height   int
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(output []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Probe inspects a clip and summarises it.
func Probe(ctx context.Context, binary, path string) (ClipInfo, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return ClipInfo{}, err
	}
	return result.Info(), nil
}

// Info condenses the result into a ClipInfo. Streams without a usable
// container duration fall back to the longest stream duration.
func (r Result) Info() ClipInfo {
	info := ClipInfo{
		HasAudio: r.AudioStreamCount() > 0,
		HasVideo: r.VideoStreamCount() > 0,
	}
	seconds := r.DurationSeconds()
	if math.IsNaN(seconds) || seconds <= 0 {
		seconds = 0
		for _, stream := range r.Streams {
			if v := parseFloat(stream.Duration); !math.IsNaN(v) && v > seconds {
				seconds = v
			}
		}
	}
	info.Duration = time.Duration(seconds * float64(time.Second))
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			info.Width, info.Height = stream.Width, stream.Height
			break
		}
	}
	return info
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) countStreams(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
