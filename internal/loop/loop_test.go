package loop

import (
	"context"
	"testing"
	"time"
)

func TestAdvanceRemainderCarries(t *testing.T) {
	a := NewAccumulator(Config{TickInterval: 10 * time.Millisecond, MaxCatchUp: 5})

	if n := a.Advance(7 * time.Millisecond); n != 0 {
		t.Fatalf("7ms fired %d ticks, want 0", n)
	}
	if n := a.Advance(7 * time.Millisecond); n != 1 {
		t.Fatalf("7+7ms fired %d ticks, want 1", n)
	}
	if got := a.Pending(); got != 4*time.Millisecond {
		t.Fatalf("pending = %v, want 4ms", got)
	}
}

func TestAdvanceMultipleTicks(t *testing.T) {
	a := NewAccumulator(Config{TickInterval: 10 * time.Millisecond, MaxCatchUp: 5})

	if n := a.Advance(35 * time.Millisecond); n != 3 {
		t.Fatalf("35ms fired %d ticks, want 3", n)
	}
	if got := a.Pending(); got != 5*time.Millisecond {
		t.Fatalf("pending = %v, want 5ms", got)
	}
}

func TestAdvanceDropsSurplusPastCatchUp(t *testing.T) {
	a := NewAccumulator(Config{TickInterval: 10 * time.Millisecond, MaxCatchUp: 5})

	if n := a.Advance(2 * time.Second); n != 5 {
		t.Fatalf("stall fired %d ticks, want cap of 5", n)
	}
	if got := a.Pending(); got != 0 {
		t.Fatalf("surplus not dropped: pending = %v", got)
	}
	// Recovery after the stall is clean.
	if n := a.Advance(10 * time.Millisecond); n != 1 {
		t.Fatalf("post-stall advance fired %d ticks, want 1", n)
	}
}

func TestAdvanceIgnoresNegativeElapsed(t *testing.T) {
	a := NewAccumulator(Config{TickInterval: 10 * time.Millisecond, MaxCatchUp: 5})
	a.Advance(7 * time.Millisecond)

	if n := a.Advance(-time.Hour); n != 0 {
		t.Fatalf("negative elapsed fired %d ticks", n)
	}
	if got := a.Pending(); got != 7*time.Millisecond {
		t.Fatalf("negative elapsed corrupted pending: %v", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a := NewAccumulator(Config{TickInterval: time.Millisecond, MaxCatchUp: 5})
	ctx, cancel := context.WithCancel(context.Background())

	fired := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx, func() {
			select {
			case fired <- struct{}{}:
			default:
			}
		})
	}()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("loop never ticked")
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on cancel")
	}
}
