package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"podium/internal/logging"
	"podium/internal/services"
)

var (
	// ErrBusy reports a device already held by another session or process.
	ErrBusy = errors.New("device is already in use")
	// ErrDeviceRemoved reports a device unplugged mid-recording.
	ErrDeviceRemoved = errors.New("device was disconnected")
)

// Stream is a running capture. Stop halts every track and flushes the output
// file; Done is closed when the capture ends on its own.
type Stream interface {
	Stop() error
	Done() <-chan struct{}
}

// Device opens capture streams writing to a file.
type Device interface {
	Path() string
	Open(ctx context.Context, outPath string) (Stream, error)
}

// Timer is the subset of *time.Timer used for the auto-stop.
type Timer interface {
	Stop() bool
}

// StartOptions configures a single recording.
type StartOptions struct {
	// Limit stops the recording automatically. Zero records until Stop.
	Limit time.Duration
	// Name is the output file name inside the clips directory.
	Name string
}

// Clip describes a finished recording.
type Clip struct {
	Path     string
	Size     int64
	Duration time.Duration
}

// Recorder hands out exclusive sessions on one capture device.
type Recorder struct {
	device   Device
	clipsDir string
	lockDir  string
	logger   *slog.Logger

	afterFunc func(time.Duration, func()) Timer
	access    func(path string) error
	now       func() time.Time

	mu     sync.Mutex
	active *Session
}

// Option customises a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logging.NewComponentLogger(logger, "recorder")
		}
	}
}

// WithAfterFunc overrides the auto-stop scheduler (tests).
func WithAfterFunc(fn func(time.Duration, func()) Timer) Option {
	return func(r *Recorder) {
		if fn != nil {
			r.afterFunc = fn
		}
	}
}

// WithAccessCheck overrides the device permission probe (tests).
func WithAccessCheck(fn func(path string) error) Option {
	return func(r *Recorder) {
		r.access = fn
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder builds a recorder for device. Clips land in clipsDir; lock
// files live in lockDir.
func NewRecorder(device Device, clipsDir, lockDir string, opts ...Option) *Recorder {
	r := &Recorder{
		device:   device,
		clipsDir: clipsDir,
		lockDir:  lockDir,
		logger:   logging.NewNop(),
		afterFunc: func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		},
		access: deviceAccess,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Device returns the recorder's capture device path.
func (r *Recorder) Device() string {
	if r == nil || r.device == nil {
		return ""
	}
	return r.device.Path()
}

// Active returns the running session, if any.
func (r *Recorder) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start acquires the device and begins capturing. Acquisition failures are
// returned as *services.CameraAccessError and are never retried.
func (r *Recorder) Start(ctx context.Context, opts StartOptions) (*Session, error) {
	if r == nil || r.device == nil {
		return nil, &services.CameraAccessError{Err: errors.New("no capture device configured")}
	}
	devicePath := r.device.Path()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, &services.CameraAccessError{Device: devicePath, Err: ErrBusy}
	}

	if r.access != nil {
		if err := r.access(devicePath); err != nil {
			return nil, &services.CameraAccessError{Device: devicePath, Err: err}
		}
	}

	if err := os.MkdirAll(r.lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "recorder", "prepare lock dir", "could not create lock directory", err)
	}
	lockPath := filepath.Join(r.lockDir, lockName(devicePath))
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, &services.CameraAccessError{Device: devicePath, Err: fmt.Errorf("acquire lock: %w", err)}
	}
	if !ok {
		return nil, &services.CameraAccessError{Device: devicePath, Err: ErrBusy}
	}

	if err := os.MkdirAll(r.clipsDir, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrConfiguration, "recorder", "prepare clips dir", "could not create clips directory", err)
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "clip-" + r.now().Format("20060102-150405") + ".mkv"
	}
	outPath := filepath.Join(r.clipsDir, filepath.Base(name))

	stream, err := r.device.Open(ctx, outPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, &services.CameraAccessError{Device: devicePath, Err: err}
	}

	session := &Session{
		recorder:  r,
		stream:    stream,
		lock:      lock,
		path:      outPath,
		limit:     opts.Limit,
		startedAt: r.now(),
		done:      make(chan struct{}),
	}
	if opts.Limit > 0 {
		session.timer = r.afterFunc(opts.Limit, func() {
			r.logger.Info("recording limit reached",
				logging.String(logging.FieldEventType, "recording_auto_stop"),
				logging.Duration("limit", opts.Limit),
			)
			session.Stop()
		})
	}
	go session.watchStream()
	r.active = session

	r.logger.Info("recording started",
		logging.String(logging.FieldEventType, "recording_started"),
		logging.String("device", devicePath),
		logging.String("clip_path", outPath),
		logging.String("lock_path", lockPath),
		logging.Duration("limit", opts.Limit),
	)
	return session, nil
}

// Reset stops the active session with cause. It is a no-op when idle.
func (r *Recorder) Reset(cause error) {
	session := r.Active()
	if session == nil {
		return
	}
	session.stopWith(cause)
}

func (r *Recorder) release(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == session {
		r.active = nil
	}
}

// Session is one in-progress recording.
type Session struct {
	recorder  *Recorder
	stream    Stream
	lock      *flock.Flock
	timer     Timer
	path      string
	limit     time.Duration
	startedAt time.Time

	once    sync.Once
	done    chan struct{}
	clip    Clip
	stopErr error
}

// Path returns the output file path.
func (s *Session) Path() string { return s.path }

// Limit returns the auto-stop limit, zero when unbounded.
func (s *Session) Limit() time.Duration { return s.limit }

// Elapsed returns the time since capture started.
func (s *Session) Elapsed() time.Duration {
	return s.recorder.now().Sub(s.startedAt)
}

// Remaining returns the time left before auto-stop. It is zero for unbounded
// sessions and never negative.
func (s *Session) Remaining() time.Duration {
	if s.limit <= 0 {
		return 0
	}
	left := s.limit - s.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// Done is closed once the session has been stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Stop ends the session and returns the finished clip. It is safe to call
// from any goroutine any number of times; every caller sees the same result.
func (s *Session) Stop() (Clip, error) {
	return s.stopWith(nil)
}

// Wait blocks until the session stops on its own (auto-stop, device end) or
// ctx is cancelled. Cancellation stops the session and returns ctx.Err().
func (s *Session) Wait(ctx context.Context) (Clip, error) {
	select {
	case <-s.done:
		return s.stopWith(nil)
	case <-ctx.Done():
		clip, _ := s.stopWith(ctx.Err())
		return clip, ctx.Err()
	}
}

func (s *Session) watchStream() {
	select {
	case <-s.done:
	case <-s.stream.Done():
		s.stopWith(nil)
	}
}

func (s *Session) stopWith(cause error) (Clip, error) {
	s.once.Do(func() {
		s.clip, s.stopErr = s.release(cause)
		close(s.done)
	})
	return s.clip, s.stopErr
}

func (s *Session) release(cause error) (Clip, error) {
	r := s.recorder
	if s.timer != nil {
		s.timer.Stop()
	}
	streamErr := s.stream.Stop()
	if err := s.lock.Unlock(); err != nil {
		logging.WarnWithContext(r.logger, "failed to release device lock", "device_lock_release_failed",
			logging.Error(err),
			logging.String("lock_path", s.lock.Path()),
			logging.String(logging.FieldErrorHint, "remove the stale lock file if the device stays busy"),
		)
	}
	r.release(s)

	clip := Clip{Path: s.path, Duration: r.now().Sub(s.startedAt)}
	if info, err := os.Stat(s.path); err == nil {
		clip.Size = info.Size()
	}

	r.logger.Info("recording stopped",
		logging.String(logging.FieldEventType, "recording_stopped"),
		logging.String("clip_path", s.path),
		logging.Int64("clip_size_bytes", clip.Size),
		logging.Duration("elapsed", clip.Duration),
	)

	switch {
	case cause != nil:
		return clip, cause
	case streamErr != nil && clip.Size == 0:
		return clip, &services.CameraAccessError{Device: r.Device(), Err: streamErr}
	case clip.Size == 0:
		return clip, &services.EmptyRecordingError{Path: s.path}
	}
	if streamErr != nil {
		r.logger.Debug("capture stream exited with error after writing data", logging.Error(streamErr))
	}
	return clip, nil
}

func deviceAccess(path string) error {
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func lockName(devicePath string) string {
	cleaned := strings.Trim(filepath.Clean(devicePath), string(filepath.Separator))
	cleaned = strings.ReplaceAll(cleaned, string(filepath.Separator), "_")
	if cleaned == "" || cleaned == "." {
		cleaned = "device"
	}
	return cleaned + ".lock"
}
