package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	parsed, err := url.Parse(c.Backend.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.url must be an absolute http(s) URL, got %q", c.Backend.URL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.url must use http or https, got %q", parsed.Scheme)
	}
	return ensurePositiveMap(map[string]int{
		"backend.timeout_seconds":       c.Backend.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validatePolling() error {
	if c.Polling.IntervalSeconds <= 0 {
		return errors.New("polling.interval_seconds must be positive")
	}
	if c.Polling.MaxAttempts <= 0 {
		return errors.New("polling.max_attempts must be positive")
	}
	return nil
}

func (c *Config) validateRecording() error {
	if !strings.HasPrefix(c.Recording.Device, "/") {
		return fmt.Errorf("recording.device must be an absolute device path, got %q", c.Recording.Device)
	}
	switch c.Recording.AudioFormat {
	case "pulse", "alsa":
	default:
		return fmt.Errorf("recording.audio_format must be pulse or alsa, got %q", c.Recording.AudioFormat)
	}
	return ensurePositiveMap(map[string]int{
		"recording.answer_limit_seconds":     c.Recording.AnswerLimitSeconds,
		"recording.filler_challenge_seconds": c.Recording.FillerChallengeSeconds,
	})
}

func (c *Config) validatePlayback() error {
	if c.Playback.ToleranceSeconds <= 0 {
		return errors.New("playback.tolerance_seconds must be positive")
	}
	if c.Playback.DisplaySeconds <= 0 {
		return errors.New("playback.display_seconds must be positive")
	}
	if c.Playback.ResetBelowSeconds < 0 {
		return errors.New("playback.reset_below_seconds must be >= 0")
	}
	if c.Playback.TickMillis <= 0 {
		return errors.New("playback.tick_millis must be positive")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}
	if c.Archive.Endpoint == "" {
		return errors.New("archive.endpoint must be set when archive.enabled is true")
	}
	if strings.Contains(c.Archive.Endpoint, "://") {
		return errors.New("archive.endpoint must be host[:port] without a scheme (use archive.use_ssl)")
	}
	if c.Archive.AccessKey == "" || c.Archive.SecretKey == "" {
		return errors.New("archive.access_key and archive.secret_key must be set when archive.enabled is true (or set PODIUM_ARCHIVE_ACCESS_KEY / PODIUM_ARCHIVE_SECRET_KEY)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
