package playback

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	DefaultTolerance       = 400 * time.Millisecond
	DefaultDisplayDuration = 2500 * time.Millisecond
	DefaultResetBelow      = 1 * time.Second
)

// Seeker moves a player to an absolute position.
type Seeker interface {
	Seek(ctx context.Context, seconds float64) error
}

// Timer is the subset of *time.Timer the synchronizer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, fn func()) Timer

// Options tunes a Synchronizer. Zero values fall back to the defaults.
type Options struct {
	Tolerance       time.Duration
	DisplayDuration time.Duration
	// ResetBelow is the position under which the shown set is cleared.
	// Negative disables the reset.
	ResetBelow time.Duration
	// OnChange receives the active note when one fires, and nil when it clears.
	OnChange func(*Annotation)
	// AfterFunc overrides the timer source (tests).
	AfterFunc AfterFunc
}

// Synchronizer tracks which annotations have been shown during the current
// pass and which one, if any, is active.
type Synchronizer struct {
	mu          sync.Mutex
	annotations []Annotation
	tolerance   float64
	display     time.Duration
	resetBelow  float64
	onChange    func(*Annotation)
	afterFunc   AfterFunc

	shown      map[float64]struct{}
	active     *Annotation
	current    float64
	clearTimer Timer
	generation uint64
	closed     bool
}

// NewSynchronizer builds a synchronizer over annotations, which are searched
// in list order.
func NewSynchronizer(annotations []Annotation, opts Options) *Synchronizer {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.DisplayDuration <= 0 {
		opts.DisplayDuration = DefaultDisplayDuration
	}
	if opts.ResetBelow < 0 {
		opts.ResetBelow = 0
	} else if opts.ResetBelow == 0 {
		opts.ResetBelow = DefaultResetBelow
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }
	}
	return &Synchronizer{
		annotations: append([]Annotation(nil), annotations...),
		tolerance:   opts.Tolerance.Seconds(),
		display:     opts.DisplayDuration,
		resetBelow:  opts.ResetBelow.Seconds(),
		onChange:    opts.OnChange,
		afterFunc:   opts.AfterFunc,
		shown:       make(map[float64]struct{}),
	}
}

// OnPositionUpdate handles one position report in seconds. The first
// annotation within tolerance fires if it has not been shown this pass. A
// position below the reset threshold then clears the shown set, so a note at
// the very start can fire again on the next pass.
func (s *Synchronizer) OnPositionUpdate(seconds float64) {
	s.mu.Lock()
	if s.closed || math.IsNaN(seconds) {
		s.mu.Unlock()
		return
	}
	s.current = seconds

	var fired *Annotation
	if hit := s.findHit(seconds); hit != nil {
		if _, seen := s.shown[hit.Time]; !seen {
			s.shown[hit.Time] = struct{}{}
			note := *hit
			s.active = &note
			s.scheduleClearLocked()
			fired = &note
		}
	}
	if seconds < s.resetBelow {
		s.shown = make(map[float64]struct{})
	}
	onChange := s.onChange
	s.mu.Unlock()

	if fired != nil && onChange != nil {
		onChange(fired)
	}
}

func (s *Synchronizer) findHit(t float64) *Annotation {
	for i := range s.annotations {
		if math.Abs(s.annotations[i].Time-t) < s.tolerance {
			return &s.annotations[i]
		}
	}
	return nil
}

func (s *Synchronizer) scheduleClearLocked() {
	if s.clearTimer != nil {
		s.clearTimer.Stop()
	}
	s.generation++
	gen := s.generation
	s.clearTimer = s.afterFunc(s.display, func() { s.clear(gen) })
}

func (s *Synchronizer) clear(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.generation || s.active == nil {
		s.mu.Unlock()
		return
	}
	s.active = nil
	s.clearTimer = nil
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(nil)
	}
}

// JumpTo asks the seeker to move to seconds. Seek failures are ignored and
// the shown set is left untouched; the next position update reflects wherever
// the player actually is.
func (s *Synchronizer) JumpTo(ctx context.Context, seeker Seeker, seconds float64) {
	if seeker == nil {
		return
	}
	_ = seeker.Seek(ctx, seconds)
}

// Active returns the note currently displayed, or nil.
func (s *Synchronizer) Active() *Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	note := *s.active
	return &note
}

// CurrentTime returns the last reported position.
func (s *Synchronizer) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Shown reports whether the annotation at time t has fired this pass.
func (s *Synchronizer) Shown(t float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.shown[t]
	return ok
}

// Annotations returns the annotation list in detection order.
func (s *Synchronizer) Annotations() []Annotation {
	return append([]Annotation(nil), s.annotations...)
}

// Close stops any pending clear. It is safe to call more than once.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
	s.generation++
}
