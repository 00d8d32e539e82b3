// The Park is the coordinator: it owns the clock, every resource machine,
// the metrics sink, and the visitor registry, and it is the single door
// through which visitors reach resources. Admission constraints (height,
// queue capacity) are enforced here, centrally, never inside machines.

package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ResourceStatus is one row of a park snapshot.
type ResourceStatus struct {
	Name        string
	Kind        string // "ride" or the facility kind
	State       string
	QueueLen    int
	FastLaneLen int
	Onboard     int64 // riders seated / servers busy
	Served      int64
}

// Status is a live, read-only snapshot for monitors and the final report.
type Status struct {
	Tick           SimTime
	VisitorsInPark int64
	Resources      []ResourceStatus // sorted by name
}

// RideInfo is the policy-facing view of one ride.
type RideInfo struct {
	Name        string
	MinHeightCM int
	QueueLen    int
	State       RideState
	HasFastPass bool
}

// FacilityInfo is the policy-facing view of one facility.
type FacilityInfo struct {
	Name     string
	Kind     FacilityKind
	QueueLen int
}

// ParkView is the read-only world state handed to decision policies.
type ParkView struct {
	Tick       SimTime
	Rides      []RideInfo
	Facilities []FacilityInfo
}

// RequestOpts shape one admission attempt.
type RequestOpts struct {
	PartySize     int     // seats required; 0/1 = solo
	HeightCM      int     // shortest party member
	Budget        float64 // spending-money snapshot
	FastPass      bool
	PatienceTicks int64 // how long the visitor will wait for queue capacity
}

// StopReport summarizes how the shutdown went.
type StopReport struct {
	Graceful   bool          // everything unwound within the grace period
	ForcedStop bool          // the hard context had to be cancelled
	Stragglers int64         // actor goroutines still running when Stop returned
	Elapsed    time.Duration // wall time spent in Stop
	FinalTick  SimTime
}

// resource is the park-internal face of one machine.
type resource interface {
	name() string
	minHeight() int
	maxParty() int // largest party one batch seats; 0 = unbounded
	queueLen() int
	submit(ctx context.Context, req *Request, timeout time.Duration) EnqueueOutcome
	run(ctx context.Context)
	status() ResourceStatus
}

// Park wires the whole simulation together. The resource registry is
// immutable after NewPark; Start and Stop are each called once.
type Park struct {
	cfg   *Config
	clock *Clock
	sink  *MetricsSink
	rng   *PartitionedRNG

	resources map[string]resource
	rides     []*Ride
	facs      []*Facility
	names     []string // registry keys, sorted once for deterministic snapshots

	hardCtx    context.Context
	hardCancel context.CancelFunc
	softCtx    context.Context // cancelled the moment the stop signal is raised
	softCancel context.CancelFunc

	spawnMu  sync.RWMutex
	stopping bool
	wg       sync.WaitGroup
	active   atomic.Int64 // tracked goroutines still running

	visitors atomic.Int64 // in-park gauge
	started  atomic.Bool
	stopOnce sync.Once
	report   *StopReport
}

// NewPark validates the configuration and builds every machine with its
// own RNG partition. All configuration errors surface here, before any
// goroutine starts.
func NewPark(cfg *Config) (*Park, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid park config: %w", err)
	}

	hardCtx, hardCancel := context.WithCancel(context.Background())
	softCtx, softCancel := context.WithCancel(hardCtx)
	p := &Park{
		cfg:        cfg,
		clock:      NewClock(cfg.TickInterval(), SimTime(cfg.HorizonTicks)),
		sink:       NewMetricsSink(cfg.MetricsBuffer, nil),
		rng:        NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		resources:  make(map[string]resource),
		hardCtx:    hardCtx,
		hardCancel: hardCancel,
		softCtx:    softCtx,
		softCancel: softCancel,
	}

	for _, rc := range cfg.Rides {
		ride, err := NewRide(rc, cfg.BreakdownPerTick, p.clock, p.sink, p.rng.ForSubsystem(SubsystemRide(rc.Name)))
		if err != nil {
			return nil, err
		}
		p.rides = append(p.rides, ride)
		p.resources[rc.Name] = ride
	}
	for _, fc := range cfg.Facilities {
		rngs := make([]*rand.Rand, fc.Servers)
		for i := range rngs {
			rngs[i] = p.rng.ForSubsystem(SubsystemFacilityServer(fc.Name, i))
		}
		fac, err := NewFacility(fc, p.clock, p.sink, rngs)
		if err != nil {
			return nil, err
		}
		p.facs = append(p.facs, fac)
		p.resources[fc.Name] = fac
	}

	for name := range p.resources {
		p.names = append(p.names, name)
	}
	sort.Strings(p.names)
	return p, nil
}

// Clock exposes the park clock for actors and drivers.
func (p *Park) Clock() *Clock { return p.clock }

// Sink exposes the metrics sink for actors and drivers.
func (p *Park) Sink() *MetricsSink { return p.sink }

// Seed returns the simulation key for deriving per-visitor RNG streams.
func (p *Park) Seed() SimulationKey { return p.rng.Key() }

// SetObserver attaches the event export observer. Must be called before
// Start.
func (p *Park) SetObserver(o EventObserver) {
	p.sink.SetObserver(o)
}

// Start launches the clock, the sink loop, and every resource machine.
// ctx cancellation triggers a graceful stop. Arrival generation is driven
// externally through Go and AdmitVisitor.
func (p *Park) Start(ctx context.Context) error {
	if p.started.Swap(true) {
		return fmt.Errorf("park already started")
	}
	logrus.Infof("park opening: %d rides, %d facilities, horizon %d min, seed %d",
		len(p.rides), len(p.facs), p.cfg.HorizonTicks, p.cfg.Seed)

	p.sink.Start()

	p.track(func(c context.Context) { p.clock.Run(c) })
	go func() {
		select {
		case <-ctx.Done():
			p.clock.Stop()
		case <-p.clock.StopC():
		}
		p.softCancel()
	}()
	for _, res := range p.resources {
		r := res
		p.track(func(c context.Context) { r.run(c) })
	}
	return nil
}

// Go runs fn as a tracked simulation goroutine with the park's actor
// context. Returns false once the stop signal is raised; no new actors
// join a stopping park.
func (p *Park) Go(fn func(ctx context.Context)) bool {
	p.spawnMu.RLock()
	defer p.spawnMu.RUnlock()
	if p.stopping || p.clock.ShouldStop() {
		return false
	}
	p.launch(fn)
	return true
}

// track registers a machine goroutine during Start.
func (p *Park) track(fn func(ctx context.Context)) {
	p.launch(fn)
}

func (p *Park) launch(fn func(ctx context.Context)) {
	p.wg.Add(1)
	p.active.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.active.Add(-1)
		fn(p.softCtx)
	}()
}

// RequestResource is the single admission door. It validates the target
// centrally, stamps the request, and enqueues it with the caller's
// patience. Rejections are typed results, never errors.
func (p *Park) RequestResource(ctx context.Context, visitorID, resourceID string, opts RequestOpts) AdmitResult {
	res, ok := p.resources[resourceID]
	if !ok {
		return AdmitResult{
			Code: AdmitUnknownResource, Resource: resourceID,
			Reason: fmt.Sprintf("unknown resource %q", resourceID),
		}
	}
	if min := res.minHeight(); min > 0 && opts.HeightCM < min {
		now := p.clock.Now()
		p.sink.Emit(MetricEvent{
			At: now, Kind: EventRejectedHeight, Resource: resourceID,
			Visitor: visitorID, Value: float64(opts.HeightCM),
		})
		return AdmitResult{
			Code: AdmitRejectedHeight, Resource: resourceID,
			Reason: fmt.Sprintf("height %dcm below minimum %dcm", opts.HeightCM, min),
		}
	}
	// A party wider than one batch would park at the lane head forever; the
	// door turns it away instead.
	if max := res.maxParty(); max > 0 && opts.PartySize > max {
		p.sink.Emit(MetricEvent{
			At: p.clock.Now(), Kind: EventRejectedParty, Resource: resourceID,
			Visitor: visitorID, Value: float64(opts.PartySize),
		})
		return AdmitResult{
			Code: AdmitRejectedParty, Resource: resourceID,
			Reason: fmt.Sprintf("party of %d exceeds %q capacity %d", opts.PartySize, resourceID, max),
		}
	}

	req := NewRequest(visitorID, resourceID)
	if opts.PartySize > 1 {
		req.PartySize = opts.PartySize
	}
	req.HeightCM = opts.HeightCM
	req.Budget = opts.Budget
	req.FastPass = opts.FastPass
	req.EnqueuedAt = p.clock.Now()

	switch res.submit(ctx, req, p.clock.Timeout(opts.PatienceTicks)) {
	case EnqueueOK:
		return AdmitResult{Code: AdmitQueued, Resource: resourceID, Request: req}
	case EnqueueFull:
		p.sink.Emit(MetricEvent{
			At: p.clock.Now(), Kind: EventQueueFull, Resource: resourceID, Visitor: visitorID,
		})
		return AdmitResult{
			Code: AdmitQueueFull, Resource: resourceID,
			Reason: fmt.Sprintf("queue for %q full after %d min", resourceID, opts.PatienceTicks),
		}
	default:
		return AdmitResult{Code: AdmitStopped, Resource: resourceID}
	}
}

// Await blocks until the request's outcome arrives or ctx unwinds the
// caller. The second return is false when the wait was preempted.
func (p *Park) Await(ctx context.Context, req *Request) (Outcome, bool) {
	select {
	case o := <-req.Reply:
		return o, true
	case <-ctx.Done():
		return Outcome{}, false
	}
}

// View builds the read-only world state for decision policies.
func (p *Park) View() ParkView {
	view := ParkView{Tick: p.clock.Now()}
	for _, r := range p.rides {
		view.Rides = append(view.Rides, RideInfo{
			Name:        r.cfg.Name,
			MinHeightCM: r.cfg.MinHeightCM,
			QueueLen:    r.queueLen(),
			State:       r.State(),
			HasFastPass: r.fast != nil,
		})
	}
	for _, f := range p.facs {
		view.Facilities = append(view.Facilities, FacilityInfo{
			Name:     f.cfg.Name,
			Kind:     f.cfg.Kind,
			QueueLen: f.queueLen(),
		})
	}
	return view
}

// Snapshot reports live counters without blocking any writer beyond the
// machines' atomic reads.
func (p *Park) Snapshot() Status {
	st := Status{
		Tick:           p.clock.Now(),
		VisitorsInPark: p.visitors.Load(),
	}
	for _, name := range p.names {
		st.Resources = append(st.Resources, p.resources[name].status())
	}
	return st
}

// Stats returns the sink's aggregate snapshot.
func (p *Park) Stats() *Stats {
	return p.sink.Snapshot()
}

// Stop raises the stop signal and waits for every tracked goroutine within
// the configured grace period. If the grace expires, the hard context is
// cancelled and one more grace period is granted; goroutines still running
// after that are a recorded shutdown anomaly, not a crash. Idempotent.
func (p *Park) Stop() *StopReport {
	p.stopOnce.Do(func() {
		start := time.Now()
		p.spawnMu.Lock()
		p.stopping = true
		p.spawnMu.Unlock()
		p.clock.Stop()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		report := &StopReport{Graceful: true}
		grace := p.cfg.ShutdownGrace()
		if !waitOrTimeout(done, grace) {
			report.Graceful = false
			report.ForcedStop = true
			logrus.Warnf("shutdown grace %s expired with %d goroutines running, forcing stop", grace, p.active.Load())
			p.hardCancel()
			if !waitOrTimeout(done, grace) {
				report.Stragglers = p.active.Load()
				logrus.Errorf("shutdown anomaly: %d goroutines survived forced stop", report.Stragglers)
				p.sink.Emit(MetricEvent{
					At: p.clock.Now(), Kind: EventShutdownAnomaly, Value: float64(report.Stragglers),
				})
			}
		}

		p.sink.Close()
		p.hardCancel()
		report.Elapsed = time.Since(start)
		report.FinalTick = p.clock.Now()
		logrus.Infof("park closed at tick %d (graceful=%t, %.0fms)",
			report.FinalTick, report.Graceful, float64(report.Elapsed.Milliseconds()))
		p.report = report
	})
	return p.report
}

// waitOrTimeout waits for ch up to d. A non-positive d waits forever.
func waitOrTimeout(ch <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		<-ch
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}
