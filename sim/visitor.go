// The visitor actor: one goroutine per visitor running a
// decide -> request -> await loop. All subtype behavior (what a child or a
// thrill-seeker wants) lives behind the DecisionPolicy interface; the core
// only applies actions, books outcomes, and guards the fault boundary.

package sim

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"
)

// ActionKind is what a visitor decided to do next.
type ActionKind int

const (
	ActionIdle     ActionKind = iota // wander for IdleTicks
	ActionRide                       // queue for Resource
	ActionEat                        // queue for a food facility
	ActionShop                       // queue for a merch facility
	ActionBathroom                   // queue for a bathroom
	ActionLeave                      // exit the park
)

// Action is one policy decision. Resource names the target for the queueing
// kinds; Patience bounds the admission wait in ticks.
type Action struct {
	Kind      ActionKind
	Resource  string
	IdleTicks int64
	Patience  int64
}

// VisitorRecord is the visitor's identity, static attributes, and dynamic
// state. It is owned by the visitor's goroutine; policies receive it by
// pointer and may evolve the dynamic fields (Hunger, Energy, Intent).
type VisitorRecord struct {
	ID        string
	Archetype string
	HeightCM  int
	Budget    float64
	Energy    float64
	Hunger    float64
	FastPass  bool
	ArrivedAt SimTime

	GroupID        string // empty for solo visitors
	GroupSize      int
	GroupLeader    bool
	GroupMinHeight int // shortest member's height, carried by grouped requests

	Intent   string // current goal, policy-maintained
	Location string // last resource visited
}

// DecisionPolicy is the pluggable brain of a visitor. Decide is called once
// per loop iteration from the visitor's own goroutine; Observe reports
// typed admission rejections back so the policy can adapt.
type DecisionPolicy interface {
	Name() string
	Decide(now SimTime, self *VisitorRecord, view ParkView) Action
	Observe(result AdmitResult)
}

// GroupGate is the rendezvous collaborator grouped visitors coordinate
// through. Arrive blocks until every remaining member of the group is
// present, then releases them together. Depart removes the caller for good:
// a follower leaving shrinks the group, the leader leaving dissolves it, and
// either way nobody waits forever for a visitor that left. Size reports the
// remaining membership (1 or less once dissolved).
type GroupGate interface {
	Arrive(ctx context.Context, groupID string) error
	Depart(groupID string, leader bool)
	Size(groupID string) int
}

// defaultPatience bounds admission waits when a policy does not set one.
const defaultPatience = 5

// VisitorActor drives one visitor through the park.
type VisitorActor struct {
	park   *Park
	rec    *VisitorRecord
	policy DecisionPolicy
	gate   GroupGate // nil for solo visitors

	faults int
	left   bool
}

// NewVisitorActor builds an actor; gate may be nil for solo visitors.
func NewVisitorActor(park *Park, rec *VisitorRecord, policy DecisionPolicy, gate GroupGate) *VisitorActor {
	return &VisitorActor{park: park, rec: rec, policy: policy, gate: gate}
}

// AdmitVisitor registers a visitor with the park and starts its actor
// goroutine. Returns false once the park is stopping.
func (p *Park) AdmitVisitor(rec *VisitorRecord, policy DecisionPolicy, gate GroupGate) bool {
	rec.ArrivedAt = p.clock.Now()
	actor := NewVisitorActor(p, rec, policy, gate)
	p.visitors.Add(1)
	p.sink.Emit(MetricEvent{
		At: rec.ArrivedAt, Kind: EventVisitorArrived, Visitor: rec.ID, Item: rec.Archetype,
	})
	if rec.GroupLeader && rec.GroupSize > 1 {
		p.sink.Emit(MetricEvent{
			At: rec.ArrivedAt, Kind: EventGroupFormed, Resource: rec.GroupID,
			Visitor: rec.ID, Value: float64(rec.GroupSize),
		})
	}
	if !p.Go(actor.Run) {
		actor.leave("shutdown")
		return false
	}
	return true
}

// Run is the visitor's actor loop. Every iteration is guarded: a panicking
// policy is caught at this boundary, the visitor falls back to a safe
// wandering behavior, and a second fault makes it leave. One broken brain
// never takes the park down.
func (a *VisitorActor) Run(ctx context.Context) {
	defer func() {
		if !a.left {
			a.leave("shutdown")
		}
	}()
	for {
		if a.park.clock.ShouldStop() {
			return
		}
		if !a.step(ctx) {
			return
		}
	}
}

// step executes one guarded decide/apply iteration. Returns false when the
// visitor is done (left, or unwound by stop).
func (a *VisitorActor) step(ctx context.Context) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			a.faults++
			logrus.Errorf("visitor %s: policy %q fault: %v", a.rec.ID, a.policy.Name(), r)
			if a.faults > 1 {
				a.leave("fault")
				cont = false
				return
			}
			a.policy = &fallbackPolicy{}
			cont = true
		}
	}()

	action := a.policy.Decide(a.park.clock.Now(), a.rec, a.park.View())
	switch action.Kind {
	case ActionLeave:
		reason := a.rec.Intent
		if reason == "" {
			reason = "done"
		}
		a.leave(reason)
		return false
	case ActionIdle:
		ticks := action.IdleTicks
		if ticks < 1 {
			ticks = 1
		}
		return a.park.clock.Sleep(ctx, ticks) == nil
	case ActionRide:
		if a.rec.GroupID != "" && a.gate != nil {
			return a.groupRide(ctx, action)
		}
		return a.attend(ctx, action, RequestOpts{
			HeightCM:      a.rec.HeightCM,
			Budget:        a.rec.Budget,
			FastPass:      a.rec.FastPass,
			PatienceTicks: patience(action),
		})
	case ActionEat, ActionShop, ActionBathroom:
		return a.attend(ctx, action, RequestOpts{
			HeightCM:      a.rec.HeightCM,
			Budget:        a.rec.Budget,
			PatienceTicks: patience(action),
		})
	default:
		return a.park.clock.NextTick(ctx) == nil
	}
}

// attend submits one admission attempt and books its outcome.
func (a *VisitorActor) attend(ctx context.Context, action Action, opts RequestOpts) bool {
	result := a.park.RequestResource(ctx, a.rec.ID, action.Resource, opts)
	switch result.Code {
	case AdmitQueued:
		outcome, ok := a.park.Await(ctx, result.Request)
		if !ok {
			return false
		}
		a.book(action, outcome)
		return true
	case AdmitStopped:
		return false
	default:
		a.policy.Observe(result)
		return true
	}
}

// groupRide coordinates a grouped ride attempt: everyone meets at the
// gate, the leader rides the request through for the whole party, and
// everyone meets again before splitting up. The leader always returns to
// the second meeting so followers never hang on a rejected request.
func (a *VisitorActor) groupRide(ctx context.Context, action Action) bool {
	size := a.gate.Size(a.rec.GroupID)
	if size <= 1 {
		// The party broke up; ride solo from here on.
		a.rec.GroupID = ""
		return a.attend(ctx, action, RequestOpts{
			HeightCM:      a.rec.HeightCM,
			Budget:        a.rec.Budget,
			FastPass:      a.rec.FastPass,
			PatienceTicks: patience(action),
		})
	}
	if err := a.gate.Arrive(ctx, a.rec.GroupID); err != nil {
		return false
	}
	ok := true
	if a.rec.GroupLeader {
		if n := a.gate.Size(a.rec.GroupID); n > 1 && n < size {
			size = n // somebody bowed out while we gathered
		}
		ok = a.attend(ctx, action, RequestOpts{
			PartySize:     size,
			HeightCM:      a.rec.GroupMinHeight,
			Budget:        a.rec.Budget,
			FastPass:      a.rec.FastPass,
			PatienceTicks: patience(action),
		})
	}
	if err := a.gate.Arrive(ctx, a.rec.GroupID); err != nil {
		return false
	}
	return ok
}

// book applies an outcome to the visitor's record.
func (a *VisitorActor) book(action Action, outcome Outcome) {
	switch outcome.Kind {
	case OutcomeCompleted:
		a.rec.Budget -= outcome.Cost
		a.rec.Location = action.Resource
		if action.Kind == ActionEat && outcome.Cost > 0 {
			// A meal resets hunger and puts some spring back.
			a.rec.Hunger = 0
			a.rec.Energy = math.Min(1.0, a.rec.Energy+0.35)
		}
	case OutcomeDeclined:
		logrus.Debugf("visitor %s: nothing affordable at %s (budget $%.2f)", a.rec.ID, action.Resource, a.rec.Budget)
	}
}

// leave emits the visitor's exit exactly once and releases group peers.
func (a *VisitorActor) leave(reason string) {
	if a.left {
		return
	}
	a.left = true
	if a.gate != nil && a.rec.GroupID != "" {
		a.gate.Depart(a.rec.GroupID, a.rec.GroupLeader)
	}
	now := a.park.clock.Now()
	a.park.visitors.Add(-1)
	a.park.sink.Emit(MetricEvent{
		At: now, Kind: EventVisitorLeft, Visitor: a.rec.ID,
		Value: float64(now - a.rec.ArrivedAt), Item: reason,
	})
	logrus.Debugf("[tick %07d] visitor %s left (%s)", now, a.rec.ID, reason)
}

func patience(action Action) int64 {
	if action.Patience > 0 {
		return action.Patience
	}
	return defaultPatience
}

// fallbackPolicy is the safe state a visitor is re-initialized to after a
// policy fault: wander until the day ends or energy runs out.
type fallbackPolicy struct{}

func (f *fallbackPolicy) Name() string { return "fallback" }

func (f *fallbackPolicy) Decide(_ SimTime, self *VisitorRecord, _ ParkView) Action {
	self.Energy -= 0.5
	if self.Energy <= 0 {
		return Action{Kind: ActionLeave}
	}
	return Action{Kind: ActionIdle, IdleTicks: 2}
}

func (f *fallbackPolicy) Observe(AdmitResult) {}
