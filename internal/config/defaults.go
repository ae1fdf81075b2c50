package config

const (
	defaultConfigPath             = "~/.config/podium/config.toml"
	defaultBackendURL             = "http://localhost:8000"
	defaultBackendTimeoutSeconds  = 120
	defaultPollIntervalSeconds    = 2
	defaultPollMaxAttempts        = 120
	defaultDataDir                = "~/.local/share/podium"
	defaultClipsDir               = "~/.local/share/podium/clips"
	defaultLogDir                 = "~/.local/share/podium/logs"
	defaultDevice                 = "/dev/video0"
	defaultAudioDevice            = "default"
	defaultAudioFormat            = "pulse"
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultAnswerLimitSeconds     = 90
	defaultFillerChallengeSeconds = 60
	defaultToleranceSeconds       = 0.4
	defaultDisplaySeconds         = 2.5
	defaultResetBelowSeconds      = 1.0
	defaultTickMillis             = 250
	defaultNotifyRequestTimeout   = 10
	defaultArchiveBucket          = "podium-clips"
	defaultArchiveRegion          = "us-east-1"
	defaultArchivePresignSeconds  = 7 * 24 * 60 * 60
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			URL:            defaultBackendURL,
			TimeoutSeconds: defaultBackendTimeoutSeconds,
		},
		Polling: Polling{
			IntervalSeconds: defaultPollIntervalSeconds,
			MaxAttempts:     defaultPollMaxAttempts,
		},
		Paths: Paths{
			DataDir:  defaultDataDir,
			ClipsDir: defaultClipsDir,
			LogDir:   defaultLogDir,
		},
		Recording: Recording{
			Device:                 defaultDevice,
			AudioDevice:            defaultAudioDevice,
			AudioFormat:            defaultAudioFormat,
			FFmpegBinary:           defaultFFmpegBinary,
			FFprobeBinary:          defaultFFprobeBinary,
			AnswerLimitSeconds:     defaultAnswerLimitSeconds,
			FillerChallengeSeconds: defaultFillerChallengeSeconds,
			WatchDevice:            true,
		},
		Playback: Playback{
			ToleranceSeconds:  defaultToleranceSeconds,
			DisplaySeconds:    defaultDisplaySeconds,
			ResetBelowSeconds: defaultResetBelowSeconds,
			TickMillis:        defaultTickMillis,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Analysis:       true,
			Errors:         true,
		},
		Archive: Archive{
			Bucket:         defaultArchiveBucket,
			Region:         defaultArchiveRegion,
			UseSSL:         true,
			PresignSeconds: defaultArchivePresignSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
