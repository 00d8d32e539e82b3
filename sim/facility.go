// Implements the Facility resource machine: N identical server loops
// alternating idle <-> serving over one shared queue. Food and merch
// facilities resolve a catalog purchase against the visitor's budget;
// bathrooms just take their time.

package sim

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Facility runs one multi-server service point.
type Facility struct {
	cfg   FacilityConfig
	clock *Clock
	sink  *MetricsSink
	rngs  []*rand.Rand // one stream per server, touched only by that server

	queue *Queue[*Request]

	serving atomic.Int64 // servers busy right now
	served  atomic.Int64 // completed servings
}

// NewFacility builds a facility. rngs must hold one dedicated stream per
// configured server.
func NewFacility(cfg FacilityConfig, clock *Clock, sink *MetricsSink, rngs []*rand.Rand) (*Facility, error) {
	q, err := NewQueue[*Request](cfg.Name, cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}
	return &Facility{cfg: cfg, clock: clock, sink: sink, rngs: rngs, queue: q}, nil
}

func (f *Facility) name() string   { return f.cfg.Name }
func (f *Facility) minHeight() int { return 0 }
func (f *Facility) maxParty() int  { return 0 }

// Serving returns the number of busy servers.
func (f *Facility) Serving() int64 { return f.serving.Load() }

// Served returns the number of completed servings.
func (f *Facility) Served() int64 { return f.served.Load() }

func (f *Facility) queueLen() int { return f.queue.Len() }

func (f *Facility) submit(ctx context.Context, req *Request, timeout time.Duration) EnqueueOutcome {
	return f.queue.Enqueue(ctx, req, timeout)
}

func (f *Facility) status() ResourceStatus {
	state := "idle"
	if f.serving.Load() > 0 {
		state = "serving"
	}
	return ResourceStatus{
		Name:     f.cfg.Name,
		Kind:     string(f.cfg.Kind),
		State:    state,
		QueueLen: f.queue.Len(),
		Onboard:  f.serving.Load(),
		Served:   f.served.Load(),
	}
}

// run launches the server loops and, once they have all unwound on stop,
// drains the shared queue so every waiting visitor gets a reply.
func (f *Facility) run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := range f.rngs {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			f.serve(ctx, id)
		}(i)
	}
	wg.Wait()

	now := f.clock.Now()
	for _, req := range f.queue.Drain() {
		req.resolve(Outcome{Kind: OutcomeEvacuated, At: now})
		f.sink.Emit(MetricEvent{
			At: now, Kind: EventEvacuated, Resource: f.cfg.Name,
			Visitor: req.VisitorID, Item: "queued",
		})
	}
	logrus.Debugf("[tick %07d] facility %s: stopped", now, f.cfg.Name)
}

// serve is one server loop. The dequeue wait is bounded to one tick per
// attempt so the stop signal is observed at least once per simulated
// minute even when the queue stays empty.
func (f *Facility) serve(ctx context.Context, id int) {
	rng := f.rngs[id]
	for {
		if f.clock.ShouldStop() {
			return
		}
		req, out := f.queue.Dequeue(ctx, f.clock.Interval())
		switch out {
		case DequeueStopped:
			return
		case DequeueEmpty:
			continue
		}

		f.serving.Add(1)
		req.BoardedAt = f.clock.Now()
		wait := int64(req.BoardedAt - req.EnqueuedAt)
		duration := f.cfg.ServiceMinTicks + rng.Int63n(f.cfg.ServiceMaxTicks-f.cfg.ServiceMinTicks+1)

		if err := f.clock.Sleep(ctx, duration); err != nil {
			now := f.clock.Now()
			req.resolve(Outcome{Kind: OutcomeEvacuated, At: now})
			f.sink.Emit(MetricEvent{
				At: now, Kind: EventEvacuated, Resource: f.cfg.Name,
				Visitor: req.VisitorID, Item: "in_service",
			})
			f.serving.Add(-1)
			return
		}

		outcome := f.resolvePurchase(rng, req, wait)
		req.resolve(outcome)
		f.serving.Add(-1)

		if outcome.Kind == OutcomeDeclined {
			f.sink.Emit(MetricEvent{
				At: outcome.At, Kind: EventPurchaseDeclined, Resource: f.cfg.Name,
				Visitor: req.VisitorID, Wait: wait,
			})
			continue
		}
		f.served.Add(1)
		f.sink.Emit(MetricEvent{
			At: outcome.At, Kind: EventFacilityServed, Resource: f.cfg.Name,
			Visitor: req.VisitorID, Wait: wait, Value: outcome.Cost, Item: outcome.Item,
		})
	}
}

// resolvePurchase picks a uniform random catalog item the visitor can still
// afford. Bathrooms complete unconditionally at no cost.
func (f *Facility) resolvePurchase(rng *rand.Rand, req *Request, wait int64) Outcome {
	now := f.clock.Now()
	if f.cfg.Kind == FacilityBathroom {
		return Outcome{Kind: OutcomeCompleted, At: now, WaitTicks: wait}
	}
	var affordable []CatalogItem
	for _, item := range f.cfg.Catalog {
		if item.Price <= req.Budget {
			affordable = append(affordable, item)
		}
	}
	if len(affordable) == 0 {
		return Outcome{Kind: OutcomeDeclined, At: now, WaitTicks: wait}
	}
	pick := affordable[rng.Intn(len(affordable))]
	return Outcome{Kind: OutcomeCompleted, At: now, WaitTicks: wait, Cost: pick.Price, Item: pick.Item}
}
