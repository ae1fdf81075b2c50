package recording

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"podium/internal/logging"
)

const ffmpegStopGrace = 5 * time.Second

// FFmpegDevice captures a V4L2 video node and a Pulse or ALSA audio source
// through the ffmpeg binary.
type FFmpegDevice struct {
	Binary      string
	VideoDevice string
	AudioDevice string
	AudioFormat string
	Logger      *slog.Logger
}

// Path returns the video node.
func (d *FFmpegDevice) Path() string { return d.VideoDevice }

// Open spawns ffmpeg writing to outPath. The process is not bound to ctx;
// the caller stops it through the returned stream so the container is
// finalised.
func (d *FFmpegDevice) Open(_ context.Context, outPath string) (Stream, error) {
	binary := strings.TrimSpace(d.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.Command(binary, d.args(outPath)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	stream := &ffmpegStream{
		cmd:    cmd,
		stdin:  stdin,
		done:   make(chan struct{}),
		logger: d.Logger,
	}
	cmd.Stderr = &stream.stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	go stream.wait()
	return stream, nil
}

func (d *FFmpegDevice) args(outPath string) []string {
	audioFormat := strings.TrimSpace(d.AudioFormat)
	if audioFormat == "" {
		audioFormat = "pulse"
	}
	audioDevice := strings.TrimSpace(d.AudioDevice)
	if audioDevice == "" {
		audioDevice = "default"
	}
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostats", "-y",
		"-f", "v4l2", "-i", d.VideoDevice,
		"-f", audioFormat, "-i", audioDevice,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "128k",
		outPath,
	}
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	logger *slog.Logger

	done    chan struct{}
	waitErr error
	once    sync.Once
	stopErr error
}

func (s *ffmpegStream) wait() {
	s.waitErr = s.cmd.Wait()
	close(s.done)
}

func (s *ffmpegStream) Done() <-chan struct{} { return s.done }

// Stop asks ffmpeg to quit by writing "q" to stdin and kills it if it has not
// exited within the grace period.
func (s *ffmpegStream) Stop() error {
	s.once.Do(func() {
		select {
		case <-s.done:
		default:
			_, _ = io.WriteString(s.stdin, "q\n")
			_ = s.stdin.Close()
			select {
			case <-s.done:
			case <-time.After(ffmpegStopGrace):
				if s.logger != nil {
					logging.WarnWithContext(s.logger, "ffmpeg did not exit after quit request", "ffmpeg_stop_timeout",
						logging.Duration("grace", ffmpegStopGrace),
						logging.String(logging.FieldImpact, "clip may be truncated"),
					)
				}
				_ = s.cmd.Process.Kill()
				<-s.done
			}
		}
		if s.waitErr != nil {
			detail := strings.TrimSpace(s.stderr.String())
			if detail != "" {
				s.stopErr = fmt.Errorf("ffmpeg: %w: %s", s.waitErr, detail)
			} else {
				s.stopErr = fmt.Errorf("ffmpeg: %w", s.waitErr)
			}
		}
	})
	return s.stopErr
}
