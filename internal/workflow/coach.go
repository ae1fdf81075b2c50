package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"podium/internal/archive"
	"podium/internal/coachapi"
	"podium/internal/config"
	"podium/internal/history"
	"podium/internal/logging"
	"podium/internal/media/ffprobe"
	"podium/internal/notifications"
	"podium/internal/recording"
)

// Archiver stores a copy of a submitted clip.
type Archiver interface {
	Upload(ctx context.Context, media coachapi.Media, sessionID string) (archive.Object, error)
}

// Prober reports the duration of a clip.
type Prober func(ctx context.Context, path string) (time.Duration, error)

// Coach coordinates the practice flows.
type Coach struct {
	cfg      *config.Config
	client   *coachapi.Client
	store    *history.Store
	archive  Archiver
	notifier notifications.Service
	recorder *recording.Recorder
	probe    Prober
	progress coachapi.ProgressFunc
	logger   *slog.Logger
}

// Option customizes a Coach.
type Option func(*Coach)

// WithClient overrides the analysis client built from config.
func WithClient(client *coachapi.Client) Option {
	return func(c *Coach) {
		if client != nil {
			c.client = client
		}
	}
}

// WithNotifier overrides the notification service built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(c *Coach) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithArchive enables clip archiving.
func WithArchive(a Archiver) Option {
	return func(c *Coach) {
		c.archive = a
	}
}

// WithRecorder sets the capture recorder used by Record.
func WithRecorder(r *recording.Recorder) Option {
	return func(c *Coach) {
		c.recorder = r
	}
}

// WithProber overrides the ffprobe duration lookup.
func WithProber(p Prober) Option {
	return func(c *Coach) {
		if p != nil {
			c.probe = p
		}
	}
}

// WithProgress observes analysis job snapshots. It only applies to the
// client built from config.
func WithProgress(fn coachapi.ProgressFunc) Option {
	return func(c *Coach) {
		c.progress = fn
	}
}

// WithLogger sets the coach logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coach) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoach constructs a coach. store may be nil, in which case sessions are
// not persisted.
func NewCoach(cfg *config.Config, store *history.Store, opts ...Option) *Coach {
	c := &Coach{
		cfg:    cfg,
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "coach")
	if c.client == nil {
		var clientOpts []coachapi.Option
		if c.progress != nil {
			clientOpts = append(clientOpts, coachapi.WithProgress(c.progress))
		}
		c.client = NewClient(cfg, c.logger, clientOpts...)
	}
	if c.notifier == nil {
		c.notifier = notifications.NewService(cfg)
	}
	if c.probe == nil {
		binary := cfg.FFprobeBinary()
		c.probe = func(ctx context.Context, path string) (time.Duration, error) {
			info, err := ffprobe.Probe(ctx, binary, path)
			if err != nil {
				return 0, err
			}
			return info.Duration, nil
		}
	}
	return c
}

// NewClient builds an analysis client from config.
func NewClient(cfg *config.Config, logger *slog.Logger, opts ...coachapi.Option) *coachapi.Client {
	base := []coachapi.Option{coachapi.WithLogger(logger)}
	return coachapi.NewClient(coachapi.Config{
		BaseURL:      cfg.Backend.URL,
		Timeout:      cfg.BackendTimeout(),
		PollInterval: cfg.PollInterval(),
		MaxAttempts:  cfg.Polling.MaxAttempts,
	}, append(base, opts...)...)
}

// NewRecorder builds an ffmpeg-backed recorder for the configured camera.
func NewRecorder(cfg *config.Config, logger *slog.Logger) *recording.Recorder {
	device := &recording.FFmpegDevice{
		Binary:      cfg.FFmpegBinary(),
		VideoDevice: cfg.Recording.Device,
		AudioDevice: cfg.Recording.AudioDevice,
		AudioFormat: cfg.Recording.AudioFormat,
		Logger:      logger,
	}
	return recording.NewRecorder(device, cfg.Paths.ClipsDir, cfg.LockDir(), recording.WithLogger(logger))
}

// Client exposes the analysis client.
func (c *Coach) Client() *coachapi.Client { return c.client }

// durationHint returns the requested hint, or the probed clip duration when
// none was given. Probe failures are logged and yield zero.
func (c *Coach) durationHint(ctx context.Context, path string, requested float64) float64 {
	if requested > 0 {
		return requested
	}
	d, err := c.probe(ctx, path)
	if err != nil {
		c.logger.Debug("clip duration unavailable",
			logging.String("clip", path),
			logging.Error(err),
		)
		return 0
	}
	return d.Seconds()
}

// save persists a session. Failures are logged; the returned session is nil
// when nothing was stored.
func (c *Coach) save(ctx context.Context, session history.Session) *history.Session {
	if c.store == nil {
		return nil
	}
	saved, err := c.store.Add(ctx, session)
	if err != nil {
		logging.WarnWithContext(c.logger, "session not saved", "history_save_failed",
			logging.String("session_id", session.ID),
			logging.String("kind", string(session.Kind)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database path and disk space"),
			logging.String(logging.FieldImpact, "session will not appear in history"),
		)
		return nil
	}
	return saved
}

// archiveClip uploads media and records the object in session.Extra.
func (c *Coach) archiveClip(ctx context.Context, media coachapi.Media, session *history.Session) string {
	if c.archive == nil {
		return ""
	}
	obj, err := c.archive.Upload(ctx, media, session.ID)
	if err != nil {
		logging.WarnWithContext(c.logger, "clip not archived", "archive_upload_failed",
			logging.String("session_id", session.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check archive endpoint and credentials"),
			logging.String(logging.FieldImpact, "clip is only available locally"),
		)
		return ""
	}
	if obj.Key == "" {
		return ""
	}
	if session.Extra == nil {
		session.Extra = map[string]any{}
	}
	session.Extra["archive_key"] = obj.Key
	session.Extra["archive_url"] = obj.URL
	return obj.URL
}

func (c *Coach) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Debug("notification skipped after cancel", logging.String("event", string(event)))
			return
		}
		c.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

// notifyFailure reports a flow error unless the user cancelled it.
func (c *Coach) notifyFailure(ctx context.Context, label string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	c.publish(context.WithoutCancel(ctx), notifications.EventAnalysisFailed, notifications.Payload{
		"context": label,
		"error":   err,
	})
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
