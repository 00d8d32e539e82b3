package sim

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClock_StartsAtZero(t *testing.T) {
	c := NewClock(time.Millisecond, 100)
	if c.Now() != 0 {
		t.Errorf("Now() = %d, want 0", c.Now())
	}
	if c.ShouldStop() {
		t.Error("ShouldStop() on a fresh clock = true, want false")
	}
	if c.Horizon() != 100 {
		t.Errorf("Horizon() = %d, want 100", c.Horizon())
	}
}

func TestClock_Timeout_ConvertsTicksToWallTime(t *testing.T) {
	c := NewClock(50*time.Millisecond, 100)
	tests := []struct {
		ticks int64
		want  time.Duration
	}{
		{0, 0},
		{-1, 0},
		{1, 50 * time.Millisecond},
		{10, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := c.Timeout(tt.ticks); got != tt.want {
			t.Errorf("Timeout(%d) = %s, want %s", tt.ticks, got, tt.want)
		}
	}
}

func TestClock_Advance_IncrementsBeforeBarrierRelease(t *testing.T) {
	// GIVEN a sleeper parked on the next tick
	c := NewClock(time.Millisecond, 1<<30)
	woke := make(chan SimTime)
	go func() {
		_ = c.NextTick(context.Background())
		woke <- c.Now()
	}()
	time.Sleep(2 * time.Millisecond) // let the sleeper park

	// WHEN the tick fires
	c.advance()

	// THEN the woken sleeper already observes the new minute
	select {
	case now := <-woke:
		if now < 1 {
			t.Errorf("sleeper observed tick %d, want >= 1", now)
		}
	case <-time.After(time.Second):
		t.Fatal("sleeper never woke")
	}
}

func TestClock_Sleep_CountsTickBarriers(t *testing.T) {
	// GIVEN a sleeper suspending for 3 simulated minutes
	c := NewClock(time.Millisecond, 1<<30)
	done := make(chan error, 1)
	go func() { done <- c.Sleep(context.Background(), 3) }()
	time.Sleep(2 * time.Millisecond)

	// WHEN only 2 ticks fire, the sleeper stays suspended
	c.advance()
	time.Sleep(3 * time.Millisecond)
	c.advance()
	select {
	case <-done:
		t.Fatal("Sleep(3) returned after 2 ticks")
	case <-time.After(10 * time.Millisecond):
	}

	// THEN the third tick releases it
	c.advance()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Sleep = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sleep(3) never returned after 3 ticks")
	}
	if c.Now() != 3 {
		t.Errorf("Now() = %d, want 3", c.Now())
	}
}

func TestClock_Sleep_ZeroReturnsImmediately(t *testing.T) {
	c := NewClock(time.Millisecond, 1<<30)
	if err := c.Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) = %v, want nil", err)
	}
}

func TestClock_Sleep_PreemptedByStop(t *testing.T) {
	c := NewClock(time.Millisecond, 1<<30)
	done := make(chan error, 1)
	go func() { done <- c.Sleep(context.Background(), 10) }()
	time.Sleep(2 * time.Millisecond)

	c.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("Sleep = %v, want ErrStopped", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sleep did not observe the stop signal")
	}
}

func TestClock_Sleep_PreemptedByContext(t *testing.T) {
	c := NewClock(time.Millisecond, 1<<30)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Sleep(ctx, 10) }()
	time.Sleep(2 * time.Millisecond)

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Sleep = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sleep did not observe the cancellation")
	}
}

func TestClock_Run_StopsAtHorizon(t *testing.T) {
	// GIVEN a running clock with a 5-minute horizon
	c := NewClock(time.Millisecond, 5)
	go c.Run(context.Background())

	// WHEN the horizon passes
	select {
	case <-c.StopC():
	case <-time.After(2 * time.Second):
		t.Fatal("clock never raised the stop signal")
	}

	// THEN time stopped at the horizon and the signal is latched
	if c.Now() < 5 {
		t.Errorf("Now() = %d, want >= 5", c.Now())
	}
	if !c.ShouldStop() {
		t.Error("ShouldStop() = false after horizon")
	}
}

func TestClock_Run_ExitsOnContextCancel(t *testing.T) {
	c := NewClock(time.Millisecond, 1<<30)
	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(exited)
	}()

	cancel()

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit on context cancellation")
	}
	if !c.ShouldStop() {
		t.Error("context cancellation should raise the stop signal")
	}
}

func TestClock_Stop_Idempotent(t *testing.T) {
	c := NewClock(time.Millisecond, 100)
	c.Stop()
	c.Stop()
	c.Stop()
	if !c.ShouldStop() {
		t.Error("ShouldStop() = false after Stop")
	}
}

func TestClock_ManySleepersReleasedTogether(t *testing.T) {
	// GIVEN 20 sleepers parked on the same tick
	c := NewClock(time.Millisecond, 1<<30)
	const sleepers = 20
	done := make(chan error, sleepers)
	for i := 0; i < sleepers; i++ {
		go func() { done <- c.NextTick(context.Background()) }()
	}
	time.Sleep(5 * time.Millisecond)

	// WHEN one tick fires
	c.advance()

	// THEN every sleeper wakes
	for i := 0; i < sleepers; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("sleeper %d: %v", i, err)
			}
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d sleepers woke", i, sleepers)
		}
	}
}
