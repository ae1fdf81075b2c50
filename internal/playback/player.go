package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSeekOutOfRange is returned when a seek target lies outside the clip.
var ErrSeekOutOfRange = errors.New("seek position out of range")

const defaultTick = 250 * time.Millisecond

// PlayerOptions configures a simulated player.
type PlayerOptions struct {
	// Duration is the clip length in seconds. Zero means unbounded.
	Duration float64
	Tick     time.Duration
	Speed    float64
	Start    float64
}

// Player simulates a video element that reports its position on a fixed
// cadence. It implements Seeker.
type Player struct {
	mu       sync.Mutex
	position float64
	duration float64
	tick     time.Duration
	speed    float64
	onStatus func(float64)
}

// NewPlayer builds a player that calls onStatus with the position after
// every tick.
func NewPlayer(opts PlayerOptions, onStatus func(seconds float64)) *Player {
	if opts.Tick <= 0 {
		opts.Tick = defaultTick
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	if opts.Start < 0 {
		opts.Start = 0
	}
	return &Player{
		position: opts.Start,
		duration: opts.Duration,
		tick:     opts.Tick,
		speed:    opts.Speed,
		onStatus: onStatus,
	}
}

// Position returns the current position in seconds.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Seek moves the playhead. Targets outside [0, duration] are rejected.
func (p *Player) Seek(ctx context.Context, seconds float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if seconds < 0 || (p.duration > 0 && seconds > p.duration) {
		return fmt.Errorf("%w: %.2fs", ErrSeekOutOfRange, seconds)
	}
	p.position = seconds
	return nil
}

// Step advances one tick and reports the new position. ended is true once the
// playhead reaches the clip duration.
func (p *Player) Step() (position float64, ended bool) {
	p.mu.Lock()
	p.position += p.tick.Seconds() * p.speed
	if p.duration > 0 && p.position >= p.duration {
		p.position = p.duration
		ended = true
	}
	position = p.position
	onStatus := p.onStatus
	p.mu.Unlock()

	if onStatus != nil {
		onStatus(position)
	}
	return position, ended
}

// Run reports the start position, then ticks until the clip ends or ctx is
// cancelled.
func (p *Player) Run(ctx context.Context) error {
	if p.onStatus != nil {
		p.onStatus(p.Position())
	}
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, ended := p.Step(); ended {
				return nil
			}
		}
	}
}
