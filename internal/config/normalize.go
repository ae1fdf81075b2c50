package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeBackend()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecording()
	c.normalizeNotifications()
	c.normalizeArchive()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.URL = strings.TrimSpace(c.Backend.URL)
	if value, ok := os.LookupEnv("PODIUM_BACKEND_URL"); ok && strings.TrimSpace(value) != "" {
		c.Backend.URL = strings.TrimSpace(value)
	}
	if c.Backend.URL == "" {
		c.Backend.URL = defaultBackendURL
	}
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ClipsDir) == "" {
		c.Paths.ClipsDir = defaultClipsDir
	}
	if c.Paths.ClipsDir, err = expandPath(c.Paths.ClipsDir); err != nil {
		return fmt.Errorf("paths.clips_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRecording() {
	c.Recording.Device = strings.TrimSpace(c.Recording.Device)
	if c.Recording.Device == "" {
		c.Recording.Device = defaultDevice
	}
	c.Recording.AudioDevice = strings.TrimSpace(c.Recording.AudioDevice)
	c.Recording.AudioFormat = strings.ToLower(strings.TrimSpace(c.Recording.AudioFormat))
	if c.Recording.AudioFormat == "" {
		c.Recording.AudioFormat = defaultAudioFormat
	}
	c.Recording.FFmpegBinary = strings.TrimSpace(c.Recording.FFmpegBinary)
	c.Recording.FFprobeBinary = strings.TrimSpace(c.Recording.FFprobeBinary)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("PODIUM_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeArchive() {
	c.Archive.Endpoint = strings.TrimSpace(c.Archive.Endpoint)
	c.Archive.Bucket = strings.TrimSpace(c.Archive.Bucket)
	if c.Archive.Bucket == "" {
		c.Archive.Bucket = defaultArchiveBucket
	}
	c.Archive.Region = strings.TrimSpace(c.Archive.Region)
	if c.Archive.Region == "" {
		c.Archive.Region = defaultArchiveRegion
	}
	c.Archive.AccessKey = strings.TrimSpace(c.Archive.AccessKey)
	if c.Archive.AccessKey == "" {
		if value, ok := os.LookupEnv("PODIUM_ARCHIVE_ACCESS_KEY"); ok {
			c.Archive.AccessKey = strings.TrimSpace(value)
		}
	}
	c.Archive.SecretKey = strings.TrimSpace(c.Archive.SecretKey)
	if c.Archive.SecretKey == "" {
		if value, ok := os.LookupEnv("PODIUM_ARCHIVE_SECRET_KEY"); ok {
			c.Archive.SecretKey = strings.TrimSpace(value)
		}
	}
	if c.Archive.PresignSeconds <= 0 {
		c.Archive.PresignSeconds = defaultArchivePresignSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
