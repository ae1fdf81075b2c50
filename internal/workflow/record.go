package workflow

import (
	"context"
	"errors"
	"time"

	"podium/internal/recording"
	"podium/internal/services"
)

// RecordOptions configures a capture.
type RecordOptions struct {
	Limit time.Duration
	Name  string
	// Stop ends the recording early when closed or signalled.
	Stop <-chan struct{}
	// OnTick receives the remaining time once per Tick. With no limit it
	// receives the elapsed time instead.
	OnTick func(time.Duration)
	Tick   time.Duration
}

// Record captures one clip from the configured camera. A device watcher
// resets the recording if the camera is unplugged.
func (c *Coach) Record(ctx context.Context, opts RecordOptions) (recording.Clip, error) {
	if c.recorder == nil {
		return recording.Clip{}, services.Wrap(services.ErrConfiguration, "workflow", "record", "no capture device configured", nil)
	}
	if c.cfg.Recording.WatchDevice {
		watcher := recording.ResetOnRemove(c.recorder, c.logger)
		_ = watcher.Start(ctx)
		defer watcher.Stop()
	}

	session, err := c.recorder.Start(ctx, recording.StartOptions{Limit: opts.Limit, Name: opts.Name})
	if err != nil {
		return recording.Clip{}, err
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-session.Done():
				return
			case <-opts.Stop:
				_, _ = session.Stop()
				return
			case <-ticker.C:
				if opts.OnTick == nil {
					continue
				}
				if session.Limit() > 0 {
					opts.OnTick(session.Remaining())
				} else {
					opts.OnTick(session.Elapsed())
				}
			}
		}
	}()

	clip, err := session.Wait(ctx)
	if errors.Is(err, recording.ErrDeviceRemoved) {
		return clip, &services.CameraAccessError{Device: c.recorder.Device(), Err: err}
	}
	return clip, err
}
