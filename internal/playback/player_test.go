package playback

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPlayerStepAdvancesBySpeed(t *testing.T) {
	var reported []float64
	p := NewPlayer(PlayerOptions{Duration: 1, Tick: 250 * time.Millisecond, Speed: 2}, func(s float64) {
		reported = append(reported, s)
	})
	pos, ended := p.Step()
	if pos != 0.5 || ended {
		t.Fatalf("unexpected first step %v %v", pos, ended)
	}
	pos, ended = p.Step()
	if pos != 1 || !ended {
		t.Fatalf("expected clip end, got %v %v", pos, ended)
	}
	if len(reported) != 2 {
		t.Fatalf("expected status per step, got %v", reported)
	}
}

func TestPlayerSeekBounds(t *testing.T) {
	p := NewPlayer(PlayerOptions{Duration: 30}, nil)
	if err := p.Seek(context.Background(), 12); err != nil {
		t.Fatalf("Seek returned error: %v", err)
	}
	if p.Position() != 12 {
		t.Fatalf("unexpected position %v", p.Position())
	}
	if err := p.Seek(context.Background(), 31); !errors.Is(err, ErrSeekOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if err := p.Seek(context.Background(), -1); !errors.Is(err, ErrSeekOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestPlayerDrivesSynchronizer(t *testing.T) {
	clock := &fakeClock{}
	log := &changeLog{}
	syncer := NewSynchronizer([]Annotation{{Time: 0.5, Label: "open", Message: "hi"}, {Time: 2, Label: "pace", Message: "slow"}},
		Options{AfterFunc: clock.AfterFunc, OnChange: log.record, ResetBelow: -1})
	defer syncer.Close()

	p := NewPlayer(PlayerOptions{Duration: 3, Tick: time.Millisecond, Speed: 250}, syncer.OnPositionUpdate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	fired := log.fired()
	if len(fired) != 2 || fired[0].Time != 0.5 || fired[1].Time != 2 {
		t.Fatalf("unexpected fired notes %v", fired)
	}
}

func TestPlayerRunStopsOnCancel(t *testing.T) {
	p := NewPlayer(PlayerOptions{Tick: time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
