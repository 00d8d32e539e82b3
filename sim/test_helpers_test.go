package sim

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"
)

// eventCapture collects every event the sink applies, in application order.
// The sink calls Observe from its single consumer goroutine; the mutex only
// guards mid-run peeks from the test goroutine.
type eventCapture struct {
	mu     sync.Mutex
	events []MetricEvent
}

func (c *eventCapture) Observe(ev MetricEvent) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *eventCapture) all() []MetricEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MetricEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *eventCapture) ofKind(kind EventKind) []MetricEvent {
	var out []MetricEvent
	for _, ev := range c.all() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (c *eventCapture) count(kind EventKind) int {
	return len(c.ofKind(kind))
}

// tickUntil advances the clock manually until cond holds, failing the test
// after maxTicks. The short wall pause after each advance lets machine
// goroutines observe one barrier before the next one closes.
func tickUntil(t *testing.T, c *Clock, maxTicks int, cond func() bool) {
	t.Helper()
	if cond() {
		return
	}
	for i := 0; i < maxTicks; i++ {
		c.advance()
		time.Sleep(500 * time.Microsecond)
		if cond() {
			return
		}
	}
	t.Fatalf("condition not reached within %d ticks", maxTicks)
}

// waitFor polls cond on the wall clock, for tests that drive a running park.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// awaitOutcome reads a request's reply with a wall-clock guard.
func awaitOutcome(t *testing.T, req *Request, timeout time.Duration) Outcome {
	t.Helper()
	select {
	case o := <-req.Reply:
		return o
	case <-time.After(timeout):
		t.Fatalf("no outcome for %s/%s within %s", req.VisitorID, req.Resource, timeout)
		return Outcome{}
	}
}

// scriptPolicy replays a fixed action list, then leaves. It records every
// admission rejection it observes.
type scriptPolicy struct {
	actions  []Action
	idx      int
	observed []AdmitResult
}

func (p *scriptPolicy) Name() string { return "script" }

func (p *scriptPolicy) Decide(_ SimTime, _ *VisitorRecord, _ ParkView) Action {
	if p.idx >= len(p.actions) {
		return Action{Kind: ActionLeave}
	}
	a := p.actions[p.idx]
	p.idx++
	return a
}

func (p *scriptPolicy) Observe(result AdmitResult) {
	p.observed = append(p.observed, result)
}

// faultyPolicy panics on every decision. The actor's fault boundary should
// swap it out after the first one.
type faultyPolicy struct{}

func (p *faultyPolicy) Name() string { return "faulty" }

func (p *faultyPolicy) Decide(SimTime, *VisitorRecord, ParkView) Action {
	panic("broken brain")
}

func (p *faultyPolicy) Observe(AdmitResult) {}

// stubGate scripts GroupGate answers for visitor tests.
type stubGate struct {
	size int // Size answer, fixed before the actor starts

	mu           sync.Mutex
	arrives      int
	departs      int
	departLeader bool
}

func (g *stubGate) Arrive(_ context.Context, _ string) error {
	g.mu.Lock()
	g.arrives++
	g.mu.Unlock()
	return nil
}

func (g *stubGate) Depart(_ string, leader bool) {
	g.mu.Lock()
	g.departs++
	g.departLeader = leader
	g.mu.Unlock()
}

func (g *stubGate) Size(string) int { return g.size }

func (g *stubGate) arriveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.arrives
}

func (g *stubGate) departCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.departs
}

// testRideConfig is a small, never-breaking ride that dispatches partial
// batches immediately.
func testRideConfig(name string) RideConfig {
	return RideConfig{
		Name:             name,
		Capacity:         4,
		CycleTicks:       1,
		BreakProbability: 0,
		MaintenanceTicks: 1,
		QueueCapacity:    8,
	}
}

func testFacilityConfig(name string, kind FacilityKind) FacilityConfig {
	cfg := FacilityConfig{
		Name:            name,
		Kind:            kind,
		Servers:         1,
		ServiceMinTicks: 1,
		ServiceMaxTicks: 1,
		QueueCapacity:   8,
	}
	if kind != FacilityBathroom {
		cfg.Catalog = []CatalogItem{
			{Item: "burger", Price: 8},
			{Item: "fries", Price: 4},
			{Item: "soda", Price: 3},
		}
	}
	return cfg
}

// testParkConfig runs wall ticks at 1ms with a horizon far beyond any test.
func testParkConfig(rides []RideConfig, facs []FacilityConfig) *Config {
	return &Config{
		Seed:            42,
		HorizonTicks:    1 << 20,
		TickIntervalMS:  1,
		ShutdownGraceMS: 1000,
		MetricsBuffer:   1024,
		Rides:           rides,
		Facilities:      facs,
	}
}

// rideHarness runs one ride machine against a manually advanced clock.
type rideHarness struct {
	clock *Clock
	sink  *MetricsSink
	cap   *eventCapture
	ride  *Ride
	done  chan struct{}
}

func newRideHarness(t *testing.T, cfg RideConfig, perTick bool, seed int64) *rideHarness {
	t.Helper()
	h := &rideHarness{
		clock: NewClock(time.Millisecond, 1<<30),
		cap:   &eventCapture{},
		done:  make(chan struct{}),
	}
	h.sink = NewMetricsSink(256, h.cap)
	h.sink.Start()
	ride, err := NewRide(cfg, perTick, h.clock, h.sink, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewRide: %v", err)
	}
	h.ride = ride
	return h
}

// start launches the ride loop. Requests submitted before start are already
// in the lanes when the first batch forms.
func (h *rideHarness) start() {
	go func() {
		defer close(h.done)
		h.ride.run(context.Background())
	}()
}

func (h *rideHarness) submit(t *testing.T, req *Request) {
	t.Helper()
	if out := h.ride.submit(context.Background(), req, 0); out != EnqueueOK {
		t.Fatalf("submit %s: %v", req.VisitorID, out)
	}
}

// stop raises the stop signal, waits for the loop to unwind, and returns the
// final aggregates.
func (h *rideHarness) stop(t *testing.T) *Stats {
	t.Helper()
	h.clock.Stop()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("ride loop did not stop")
	}
	h.sink.Close()
	return h.sink.Snapshot()
}

// facilityHarness mirrors rideHarness for facility machines.
type facilityHarness struct {
	clock *Clock
	sink  *MetricsSink
	cap   *eventCapture
	fac   *Facility
	done  chan struct{}
}

func newFacilityHarness(t *testing.T, cfg FacilityConfig, seed int64) *facilityHarness {
	t.Helper()
	h := &facilityHarness{
		clock: NewClock(time.Millisecond, 1<<30),
		cap:   &eventCapture{},
		done:  make(chan struct{}),
	}
	h.sink = NewMetricsSink(256, h.cap)
	h.sink.Start()
	rngs := make([]*rand.Rand, cfg.Servers)
	for i := range rngs {
		rngs[i] = rand.New(rand.NewSource(seed + int64(i)))
	}
	fac, err := NewFacility(cfg, h.clock, h.sink, rngs)
	if err != nil {
		t.Fatalf("NewFacility: %v", err)
	}
	h.fac = fac
	return h
}

func (h *facilityHarness) start() {
	go func() {
		defer close(h.done)
		h.fac.run(context.Background())
	}()
}

func (h *facilityHarness) submit(t *testing.T, req *Request) {
	t.Helper()
	if out := h.fac.submit(context.Background(), req, 0); out != EnqueueOK {
		t.Fatalf("submit %s: %v", req.VisitorID, out)
	}
}

func (h *facilityHarness) stop(t *testing.T) *Stats {
	t.Helper()
	h.clock.Stop()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("facility loop did not stop")
	}
	h.sink.Close()
	return h.sink.Snapshot()
}
