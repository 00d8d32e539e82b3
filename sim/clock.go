package sim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// SimTime is the simulated clock reading in minutes since park open.
type SimTime int64

// ErrStopped is returned from blocking waits preempted by the simulation
// stop signal.
var ErrStopped = errors.New("simulation stopped")

// Clock owns simulated time. One wall-clock interval equals one simulated
// minute; every interval the clock advances the counter by exactly 1 and
// releases all sleepers waiting on the current tick barrier.
//
// Actors never sleep on the wall clock directly. They call Sleep/NextTick,
// which count tick barriers, so a sleeper that suspends at tick t for n
// ticks wakes inside tick t+n regardless of wall-clock jitter.
type Clock struct {
	interval time.Duration // wall-clock duration of one simulated minute
	horizon  SimTime       // stop condition: now >= horizon

	now atomic.Int64

	mu      sync.Mutex
	barrier chan struct{} // closed on every tick, then replaced

	stopOnce sync.Once
	stopC    chan struct{}
}

// NewClock creates a stopped-at-zero clock. Run starts it ticking.
func NewClock(interval time.Duration, horizon SimTime) *Clock {
	return &Clock{
		interval: interval,
		horizon:  horizon,
		barrier:  make(chan struct{}),
		stopC:    make(chan struct{}),
	}
}

// Now returns the current simulated minute. Non-blocking, any goroutine.
func (c *Clock) Now() SimTime {
	return SimTime(c.now.Load())
}

// Interval returns the wall-clock duration of one simulated minute.
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// Horizon returns the configured stop horizon in simulated minutes.
func (c *Clock) Horizon() SimTime {
	return c.horizon
}

// Timeout converts a patience expressed in ticks into the equivalent
// wall-clock duration, for bounding queue waits.
func (c *Clock) Timeout(ticks int64) time.Duration {
	if ticks <= 0 {
		return 0
	}
	return time.Duration(ticks) * c.interval
}

// Run drives the tick loop until the horizon is reached, Stop is called,
// or ctx is cancelled. Meant to run on its own goroutine.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := c.advance()
			if now >= c.horizon {
				logrus.Infof("[tick %07d] horizon reached, raising stop signal", now)
				c.Stop()
				return
			}
		case <-c.stopC:
			return
		case <-ctx.Done():
			c.Stop()
			return
		}
	}
}

// advance bumps simulated time by one minute and releases the tick barrier.
// The counter is incremented before the barrier closes so woken sleepers
// observe the new time.
func (c *Clock) advance() SimTime {
	c.mu.Lock()
	released := c.barrier
	c.barrier = make(chan struct{})
	now := SimTime(c.now.Add(1))
	c.mu.Unlock()
	close(released)
	return now
}

// Sleep suspends the caller for n simulated minutes by counting tick
// barriers. Returns ErrStopped when the stop signal preempts the wait and
// ctx.Err() on context cancellation. Sleep(0) returns immediately.
func (c *Clock) Sleep(ctx context.Context, ticks int64) error {
	for i := int64(0); i < ticks; i++ {
		c.mu.Lock()
		barrier := c.barrier
		c.mu.Unlock()
		select {
		case <-barrier:
		case <-c.stopC:
			return ErrStopped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// NextTick suspends the caller until the next tick barrier releases.
func (c *Clock) NextTick(ctx context.Context) error {
	return c.Sleep(ctx, 1)
}

// Stop raises the process-wide stop signal. Idempotent; once raised it
// never clears.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.stopC) })
}

// ShouldStop reports whether the stop signal has been raised.
func (c *Clock) ShouldStop() bool {
	select {
	case <-c.stopC:
		return true
	default:
		return false
	}
}

// StopC returns the stop signal channel for use in select loops.
func (c *Clock) StopC() <-chan struct{} {
	return c.stopC
}
