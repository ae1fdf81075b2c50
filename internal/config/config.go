package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Backend contains the analysis backend connection settings.
type Backend struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Polling controls how long podium waits for an analysis job.
type Polling struct {
	IntervalSeconds float64 `toml:"interval_seconds"`
	MaxAttempts     int     `toml:"max_attempts"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	ClipsDir string `toml:"clips_dir"`
	LogDir   string `toml:"log_dir"`
}

// Recording contains capture device configuration.
type Recording struct {
	Device                 string `toml:"device"`
	AudioDevice            string `toml:"audio_device"`
	AudioFormat            string `toml:"audio_format"`
	FFmpegBinary           string `toml:"ffmpeg_binary"`
	FFprobeBinary          string `toml:"ffprobe_binary"`
	AnswerLimitSeconds     int    `toml:"answer_limit_seconds"`
	FillerChallengeSeconds int    `toml:"filler_challenge_seconds"`
	WatchDevice            bool   `toml:"watch_device"`
}

// Playback contains annotation replay timing.
type Playback struct {
	ToleranceSeconds  float64 `toml:"tolerance_seconds"`
	DisplaySeconds    float64 `toml:"display_seconds"`
	ResetBelowSeconds float64 `toml:"reset_below_seconds"`
	TickMillis        int     `toml:"tick_millis"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Analysis       bool   `toml:"analysis"`
	Errors         bool   `toml:"errors"`
}

// Archive contains the optional S3-compatible clip archive settings.
type Archive struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	Bucket         string `toml:"bucket"`
	Region         string `toml:"region"`
	UseSSL         bool   `toml:"use_ssl"`
	PresignSeconds int    `toml:"presign_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for podium.
//
// Configuration sections by subsystem:
//   - Backend: analysis service base URL and request timeout
//   - Polling: job poll interval and attempt budget
//   - Paths: history database, clip copies, and logs
//   - Recording: capture device, ffmpeg binaries, and drill time limits
//   - Playback: annotation tolerance and display timing
//   - Notifications: ntfy push notification settings
//   - Archive: S3-compatible clip storage
//   - Logging: log format and level
type Config struct {
	Backend       Backend       `toml:"backend"`
	Polling       Polling       `toml:"polling"`
	Paths         Paths         `toml:"paths"`
	Recording     Recording     `toml:"recording"`
	Playback      Playback      `toml:"playback"`
	Notifications Notifications `toml:"notifications"`
	Archive       Archive       `toml:"archive"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podium.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, clip, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ClipsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the location of the session history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LogPath returns the location of the CLI log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "podium.log")
}

// LockDir returns the directory holding capture device lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

// PollInterval returns the wait before each job status poll.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds * float64(time.Second))
}

// BackendTimeout returns the per-request HTTP timeout.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// AnswerLimit returns the auto-stop limit for Q&A answer recordings.
func (c *Config) AnswerLimit() time.Duration {
	return time.Duration(c.Recording.AnswerLimitSeconds) * time.Second
}

// FillerChallengeLimit returns the auto-stop limit for filler challenge recordings.
func (c *Config) FillerChallengeLimit() time.Duration {
	return time.Duration(c.Recording.FillerChallengeSeconds) * time.Second
}

// FFmpegBinary returns the ffmpeg executable used for capture.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Recording.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Recording.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// PresignExpiry returns the lifetime of archive download links.
func (c *Config) PresignExpiry() time.Duration {
	return time.Duration(c.Archive.PresignSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
