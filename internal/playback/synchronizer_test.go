package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type changeLog struct {
	mu     sync.Mutex
	events []*Annotation
}

func (l *changeLog) record(a *Annotation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, a)
}

func (l *changeLog) fired() []Annotation {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Annotation
	for _, e := range l.events {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func newTestSync(annotations []Annotation) (*Synchronizer, *fakeClock, *changeLog) {
	clock := &fakeClock{}
	log := &changeLog{}
	s := NewSynchronizer(annotations, Options{AfterFunc: clock.AfterFunc, OnChange: log.record})
	return s, clock, log
}

func TestCloseAnnotationsOnlyFirstFires(t *testing.T) {
	s, _, log := newTestSync([]Annotation{
		{Time: 5, Label: "pace", Message: "a"},
		{Time: 5.3, Label: "filler", Message: "b"},
	})
	defer s.Close()

	for _, pos := range []float64{0, 1, 2, 3, 4, 4.8, 5.0, 5.35, 6} {
		s.OnPositionUpdate(pos)
	}
	fired := log.fired()
	if len(fired) != 1 {
		t.Fatalf("expected exactly one note to fire, got %v", fired)
	}
	if fired[0].Time != 5 {
		t.Fatalf("expected the first listed note, got %+v", fired[0])
	}
	if s.Shown(5.3) {
		t.Fatal("second note should never have been selected")
	}
}

func TestActiveNoteClearsAfterDisplayDuration(t *testing.T) {
	s, clock, log := newTestSync([]Annotation{{Time: 3, Label: "eye", Message: "look up"}})
	defer s.Close()

	s.OnPositionUpdate(3.1)
	if active := s.Active(); active == nil || active.Time != 3 {
		t.Fatalf("expected note active, got %v", active)
	}
	clock.Advance(2499 * time.Millisecond)
	if s.Active() == nil {
		t.Fatal("note cleared too early")
	}
	clock.Advance(time.Millisecond)
	if s.Active() != nil {
		t.Fatal("expected note to clear after 2.5s")
	}
	if n := len(log.events); n != 2 || log.events[1] != nil {
		t.Fatalf("expected fire then clear events, got %v", log.events)
	}
}

func TestRewindBelowThresholdClearsMemory(t *testing.T) {
	s, clock, log := newTestSync([]Annotation{
		{Time: 0.3, Label: "opening", Message: "smile"},
		{Time: 10, Label: "pace", Message: "slow"},
	})
	defer s.Close()

	s.OnPositionUpdate(0.3)
	clock.Advance(3 * time.Second)
	s.OnPositionUpdate(10)
	if !s.Shown(10) {
		t.Fatal("expected note at 10 shown")
	}

	s.OnPositionUpdate(0.5)
	if s.Shown(10) || s.Shown(0.3) {
		t.Fatal("expected shown set cleared after dropping below 1s")
	}
	clock.Advance(3 * time.Second)

	s.OnPositionUpdate(0.3)
	fired := log.fired()
	count := 0
	for _, a := range fired {
		if a.Time == 0.3 {
			count++
		}
	}
	if count < 2 {
		t.Fatalf("expected note at 0.3 to fire again, fired %v", fired)
	}
}

func TestFireHappensBeforeResetBelowThreshold(t *testing.T) {
	s, _, log := newTestSync([]Annotation{{Time: 0.5, Label: "intro", Message: "hi"}})
	defer s.Close()

	s.OnPositionUpdate(0.5)
	s.OnPositionUpdate(0.6)
	if got := len(log.fired()); got != 2 {
		t.Fatalf("expected the note to refire while under the reset threshold, got %d", got)
	}
}

func TestSupersedingNoteCancelsPreviousClear(t *testing.T) {
	s, clock, _ := newTestSync([]Annotation{
		{Time: 5, Label: "a", Message: "first"},
		{Time: 6, Label: "b", Message: "second"},
	})
	defer s.Close()

	s.OnPositionUpdate(5)
	clock.Advance(1 * time.Second)
	s.OnPositionUpdate(6)
	clock.Advance(1600 * time.Millisecond)
	if active := s.Active(); active == nil || active.Time != 6 {
		t.Fatalf("first clear should not remove the second note, active=%v", active)
	}
	clock.Advance(time.Second)
	if s.Active() != nil {
		t.Fatal("expected second note cleared after its own display duration")
	}
}

func TestCurrentTimeTracksUpdates(t *testing.T) {
	s, _, _ := newTestSync(nil)
	defer s.Close()
	s.OnPositionUpdate(42.5)
	if s.CurrentTime() != 42.5 {
		t.Fatalf("unexpected current time %v", s.CurrentTime())
	}
}

type failingSeeker struct{ calls int }

func (f *failingSeeker) Seek(context.Context, float64) error {
	f.calls++
	return errors.New("not loaded")
}

func TestJumpToSwallowsErrorsAndKeepsShownSet(t *testing.T) {
	s, _, _ := newTestSync([]Annotation{{Time: 8, Label: "x", Message: "y"}})
	defer s.Close()
	s.OnPositionUpdate(8)

	seeker := &failingSeeker{}
	s.JumpTo(context.Background(), seeker, 2)
	s.JumpTo(context.Background(), nil, 2)
	if seeker.calls != 1 {
		t.Fatalf("expected one seek attempt, got %d", seeker.calls)
	}
	if !s.Shown(8) {
		t.Fatal("jump must not clear the shown set")
	}
}

func TestCloseIsIdempotentAndStopsTimer(t *testing.T) {
	s, clock, log := newTestSync([]Annotation{{Time: 2, Label: "x", Message: "y"}})
	s.OnPositionUpdate(2)
	if clock.pending() != 1 {
		t.Fatalf("expected one pending clear, got %d", clock.pending())
	}
	s.Close()
	s.Close()
	if clock.pending() != 0 {
		t.Fatal("expected pending clear stopped")
	}
	clock.Advance(5 * time.Second)
	s.OnPositionUpdate(2)
	if len(log.events) != 1 {
		t.Fatalf("expected no activity after close, got %v", log.events)
	}
}

func TestEmptyAnnotationsNeverFire(t *testing.T) {
	s, _, log := newTestSync(nil)
	defer s.Close()
	for _, pos := range []float64{0, 0.2, 5, 100} {
		s.OnPositionUpdate(pos)
	}
	if len(log.events) != 0 {
		t.Fatalf("expected no events, got %v", log.events)
	}
}
