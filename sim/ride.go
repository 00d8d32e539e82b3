// Implements the Ride resource machine: a cyclical
// loading -> running -> unloading loop with probabilistic breakdowns into
// maintenance. All state transitions happen on the ride's own goroutine;
// the rest of the park talks to it through its queues and reply channels.

package sim

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// RideState is the externally observable phase of a ride.
type RideState string

const (
	RideLoading     RideState = "loading"
	RideRunning     RideState = "running"
	RideUnloading   RideState = "unloading"
	RideMaintenance RideState = "maintenance"
)

// lane wraps a queue with a one-slot head stash. Channels cannot peek, so
// when the head request's party does not fit the current batch it is parked
// in pending and blocks the lane until seats free up, which is exactly the
// all-or-none FIFO rule grouped requests need.
type lane struct {
	q       *Queue[*Request]
	pending *Request
}

// next returns the head request if it fits in seatsLeft, else nil. A
// non-fitting head stays pending and keeps blocking the lane.
func (l *lane) next(seatsLeft int) *Request {
	if l.pending == nil {
		req, ok := l.q.TryDequeue()
		if !ok {
			return nil
		}
		l.pending = req
	}
	if l.pending.seats() > seatsLeft {
		return nil
	}
	req := l.pending
	l.pending = nil
	return req
}

// length includes the stashed head, so admission sees the true backlog.
func (l *lane) length() int {
	n := l.q.Len()
	if l.pending != nil {
		n++
	}
	return n
}

// drain empties the lane, stashed head first.
func (l *lane) drain() []*Request {
	var reqs []*Request
	if l.pending != nil {
		reqs = append(reqs, l.pending)
		l.pending = nil
	}
	return append(reqs, l.q.Drain()...)
}

// Ride runs one attraction. Visitors enter through the park's admission
// (which enforces the height minimum) into the regular or priority lane;
// the ride's goroutine assembles batches, runs cycles, and replies to every
// boarded or drained request exactly once.
type Ride struct {
	cfg     RideConfig
	perTick bool // breakdown drawn every running minute instead of once per cycle
	clock   *Clock
	sink    *MetricsSink
	rng     *rand.Rand // breakdown draws; touched only by the ride goroutine

	regular *lane
	fast    *lane // nil when the ride has no priority lane

	state     atomic.Value // RideState
	onboard   atomic.Int64 // riders currently seated
	completed atomic.Int64 // riders released after a finished cycle
	evacuated atomic.Int64 // riders or queued visitors unwound early
}

// NewRide builds a ride and its lanes. The rng must be dedicated to this
// ride; it is read without locking.
func NewRide(cfg RideConfig, perTick bool, clock *Clock, sink *MetricsSink, rng *rand.Rand) (*Ride, error) {
	regQ, err := NewQueue[*Request](cfg.Name, cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}
	r := &Ride{
		cfg:     cfg,
		perTick: perTick,
		clock:   clock,
		sink:    sink,
		rng:     rng,
		regular: &lane{q: regQ},
	}
	if cfg.FastPassShare > 0 {
		fastQ, err := NewQueue[*Request](cfg.Name+"_fastpass", cfg.QueueCapacity)
		if err != nil {
			return nil, err
		}
		r.fast = &lane{q: fastQ}
	}
	r.state.Store(RideLoading)
	return r, nil
}

func (r *Ride) name() string   { return r.cfg.Name }
func (r *Ride) minHeight() int { return r.cfg.MinHeightCM }
func (r *Ride) maxParty() int  { return r.cfg.Capacity }

// State returns the current phase. Safe from any goroutine.
func (r *Ride) State() RideState { return r.state.Load().(RideState) }

// Onboard returns the riders currently seated.
func (r *Ride) Onboard() int64 { return r.onboard.Load() }

// Completed returns riders released after finished cycles.
func (r *Ride) Completed() int64 { return r.completed.Load() }

// Evacuated returns riders and queued visitors unwound early.
func (r *Ride) Evacuated() int64 { return r.evacuated.Load() }

// queueLen reports the total backlog across both lanes.
func (r *Ride) queueLen() int {
	n := r.regular.length()
	if r.fast != nil {
		n += r.fast.length()
	}
	return n
}

// submit enqueues an admitted request into the matching lane. Producers
// touch only the lane channels, never the pending stash.
func (r *Ride) submit(ctx context.Context, req *Request, timeout time.Duration) EnqueueOutcome {
	if req.FastPass && r.fast != nil {
		return r.fast.q.Enqueue(ctx, req, timeout)
	}
	return r.regular.q.Enqueue(ctx, req, timeout)
}

func (r *Ride) status() ResourceStatus {
	st := ResourceStatus{
		Name:     r.cfg.Name,
		Kind:     "ride",
		State:    string(r.State()),
		QueueLen: r.regular.length(),
		Onboard:  r.onboard.Load(),
		Served:   r.completed.Load(),
	}
	if r.fast != nil {
		st.FastLaneLen = r.fast.length()
	}
	return st
}

// run is the ride's actor loop. It exits only on the stop signal (or hard
// context cancellation), after draining its lanes so no visitor stays
// blocked on a reply.
func (r *Ride) run(ctx context.Context) {
	for {
		if r.clock.ShouldStop() {
			r.shutdown(nil)
			return
		}
		r.setState(RideLoading)
		batch, err := r.load(ctx)
		if err != nil {
			r.shutdown(batch)
			return
		}
		r.setState(RideRunning)
		logrus.Debugf("[tick %07d] ride %s: running with %d riders", r.clock.Now(), r.cfg.Name, batchSeats(batch))
		broke, err := r.runCycle(ctx)
		if err != nil {
			r.shutdown(batch)
			return
		}
		if broke {
			r.setState(RideMaintenance)
			if err := r.maintain(ctx, batch); err != nil {
				r.shutdown(nil)
				return
			}
			continue
		}
		r.setState(RideUnloading)
		r.unload(batch)
	}
}

// load assembles the next batch: priority lane first up to its reserved
// share, then the regular lane, then leftover seats back to the priority
// lane. A full batch dispatches immediately; a partial batch dispatches
// when the boarding window closes; an empty ride keeps waiting tick by
// tick.
func (r *Ride) load(ctx context.Context) ([]*Request, error) {
	var batch []*Request
	seats := r.cfg.Capacity
	fastReserve := 0
	if r.fast != nil {
		fastReserve = int(math.Ceil(r.cfg.FastPassShare * float64(r.cfg.Capacity)))
	}
	fastTaken := 0
	windowLeft := r.cfg.BoardWindowTicks

	for {
		for seats > 0 {
			var req *Request
			if r.fast != nil && fastTaken < fastReserve {
				if req = r.fast.next(seats); req != nil {
					fastTaken += req.seats()
				}
			}
			if req == nil {
				req = r.regular.next(seats)
			}
			if req == nil && r.fast != nil {
				req = r.fast.next(seats)
			}
			if req == nil {
				break
			}
			r.board(req)
			batch = append(batch, req)
			seats -= req.seats()
		}
		if seats == 0 {
			return batch, nil
		}
		if len(batch) > 0 && windowLeft <= 0 {
			return batch, nil
		}
		if err := r.clock.NextTick(ctx); err != nil {
			return batch, err
		}
		if len(batch) > 0 {
			windowLeft--
		}
	}
}

// board seats one request and stamps its wait.
func (r *Ride) board(req *Request) {
	now := r.clock.Now()
	req.BoardedAt = now
	wait := int64(now - req.EnqueuedAt)
	seats := int64(req.seats())
	r.onboard.Add(seats)
	r.sink.Emit(MetricEvent{
		At: now, Kind: EventRideBoarded, Resource: r.cfg.Name,
		Visitor: req.VisitorID, Wait: wait, Value: float64(seats),
	})
}

// runCycle holds the ride in RUNNING for the configured cycle and draws the
// breakdown. In per-cycle mode one draw happens after the full cycle; in
// per-tick mode a draw happens every running minute and a hit interrupts
// the cycle on the spot.
func (r *Ride) runCycle(ctx context.Context) (bool, error) {
	if !r.perTick {
		if err := r.clock.Sleep(ctx, r.cfg.CycleTicks); err != nil {
			return false, err
		}
		return r.rng.Float64() < r.cfg.BreakProbability, nil
	}
	for i := int64(0); i < r.cfg.CycleTicks; i++ {
		if err := r.clock.NextTick(ctx); err != nil {
			return false, err
		}
		if r.rng.Float64() < r.cfg.BreakProbability {
			return true, nil
		}
	}
	return false, nil
}

// unload releases every rider of a finished cycle.
func (r *Ride) unload(batch []*Request) {
	now := r.clock.Now()
	for _, req := range batch {
		seats := int64(req.seats())
		r.onboard.Add(-seats)
		r.completed.Add(seats)
		wait := int64(req.BoardedAt - req.EnqueuedAt)
		req.resolve(Outcome{Kind: OutcomeCompleted, At: now, WaitTicks: wait})
		r.sink.Emit(MetricEvent{
			At: now, Kind: EventRideCompleted, Resource: r.cfg.Name,
			Visitor: req.VisitorID, Wait: wait, Value: float64(seats),
		})
	}
	r.sink.Emit(MetricEvent{
		At: now, Kind: EventRideCycle, Resource: r.cfg.Name, Value: float64(batchSeats(batch)),
	})
}

// maintain handles a breakdown: release the riders (completed in per-cycle
// mode, where the draw happens after the cycle finishes; evacuated in
// per-tick mode, where the breakdown interrupts mid-air), then hold the
// ride down for exactly MaintenanceTicks.
func (r *Ride) maintain(ctx context.Context, batch []*Request) error {
	now := r.clock.Now()
	logrus.Infof("[tick %07d] ride %s: breakdown, %d riders released, %d min maintenance",
		now, r.cfg.Name, batchSeats(batch), r.cfg.MaintenanceTicks)
	r.sink.Emit(MetricEvent{At: now, Kind: EventRideBreakdown, Resource: r.cfg.Name})
	if r.perTick {
		r.evacuateBatch(batch, "onboard")
	} else {
		r.unload(batch)
	}
	if err := r.clock.Sleep(ctx, r.cfg.MaintenanceTicks); err != nil {
		return err
	}
	repaired := r.clock.Now()
	logrus.Infof("[tick %07d] ride %s: repaired, loading again", repaired, r.cfg.Name)
	r.sink.Emit(MetricEvent{At: repaired, Kind: EventRideRepaired, Resource: r.cfg.Name})
	return nil
}

// evacuateBatch unwinds seated riders without a completed cycle.
func (r *Ride) evacuateBatch(batch []*Request, where string) {
	now := r.clock.Now()
	for _, req := range batch {
		seats := int64(req.seats())
		r.onboard.Add(-seats)
		r.evacuated.Add(seats)
		req.resolve(Outcome{Kind: OutcomeEvacuated, At: now})
		r.sink.Emit(MetricEvent{
			At: now, Kind: EventEvacuated, Resource: r.cfg.Name,
			Visitor: req.VisitorID, Value: float64(seats), Item: where,
		})
	}
}

// shutdown unwinds the ride at stop: evacuate any seated riders, then drain
// both lanes so every queued visitor gets a reply. Nothing is silently
// dropped.
func (r *Ride) shutdown(batch []*Request) {
	now := r.clock.Now()
	if len(batch) > 0 {
		logrus.Warnf("[tick %07d] ride %s: stopping with %d riders aboard, evacuating", now, r.cfg.Name, batchSeats(batch))
		r.evacuateBatch(batch, "onboard")
	}
	queued := r.regular.drain()
	if r.fast != nil {
		queued = append(queued, r.fast.drain()...)
	}
	for _, req := range queued {
		r.evacuated.Add(int64(req.seats()))
		req.resolve(Outcome{Kind: OutcomeEvacuated, At: now})
		r.sink.Emit(MetricEvent{
			At: now, Kind: EventEvacuated, Resource: r.cfg.Name,
			Visitor: req.VisitorID, Value: float64(req.seats()), Item: "queued",
		})
	}
	logrus.Debugf("[tick %07d] ride %s: stopped", now, r.cfg.Name)
}

func (r *Ride) setState(s RideState) {
	r.state.Store(s)
}

// batchSeats sums the seats a batch occupies.
func batchSeats(batch []*Request) int {
	total := 0
	for _, req := range batch {
		total += req.seats()
	}
	return total
}
