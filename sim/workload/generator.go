package workload

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/parksim/parksim/sim"
)

// PolicyFactory builds the decision policy for one visitor. Called once per
// admitted visitor from the generator goroutine.
type PolicyFactory func(rec *sim.VisitorRecord) (sim.DecisionPolicy, error)

// GroupCoordinator couples group registration with the gate grouped
// visitors wait on. Registration happens before any member's actor starts,
// so an Arrive can never observe an unknown group.
type GroupCoordinator interface {
	sim.GroupGate
	Register(groupID string, size int)
}

// Generator walks a precomputed arrival plan against the live clock,
// admitting each visitor on its planned tick.
type Generator struct {
	park     *sim.Park
	plan     []*PlannedVisitor
	groups   GroupCoordinator // nil admits everyone solo
	policies PolicyFactory

	admitted atomic.Int64
}

// NewGenerator wires a plan to a running park. The coordinator may be nil,
// in which case group assignments in the plan are ignored and every visitor
// roams solo.
func NewGenerator(park *sim.Park, plan []*PlannedVisitor, groups GroupCoordinator, policies PolicyFactory) *Generator {
	return &Generator{park: park, plan: plan, groups: groups, policies: policies}
}

// Admitted returns how many visitors have entered the park so far.
func (g *Generator) Admitted() int64 {
	return g.admitted.Load()
}

// Planned returns the total number of visitors in the plan.
func (g *Generator) Planned() int {
	return len(g.plan)
}

// Run releases visitors as the clock reaches their planned ticks. Several
// planned arrivals can share a tick; they are admitted in plan order.
// Returns when the plan is exhausted or the simulation stops.
func (g *Generator) Run(ctx context.Context) {
	clock := g.park.Clock()
	logrus.Infof("arrival generator: %d visitors planned", len(g.plan))

	idx := 0
	for idx < len(g.plan) {
		now := int64(clock.Now())
		for idx < len(g.plan) && g.plan[idx].ArrivalTick <= now {
			g.admit(g.plan[idx])
			idx++
		}
		if idx == len(g.plan) {
			break
		}
		if err := clock.NextTick(ctx); err != nil {
			logrus.Infof("[tick %07d] arrival generator stopped, %d of %d visitors admitted",
				now, idx, len(g.plan))
			return
		}
	}
	logrus.Infof("[tick %07d] arrival generator done, all %d visitors admitted",
		clock.Now(), len(g.plan))
}

func (g *Generator) admit(pv *PlannedVisitor) {
	rec := pv.Record()
	if g.groups == nil {
		rec.GroupID = ""
		rec.GroupSize = 1
		rec.GroupLeader = false
		rec.GroupMinHeight = 0
	}

	policy, err := g.policies(rec)
	if err != nil {
		logrus.Errorf("visitor %s: building policy: %v", rec.ID, err)
		return
	}

	var gate sim.GroupGate
	if g.groups != nil && rec.GroupID != "" {
		if rec.GroupLeader {
			g.groups.Register(rec.GroupID, rec.GroupSize)
		}
		gate = g.groups
	}

	if g.park.AdmitVisitor(rec, policy, gate) {
		g.admitted.Add(1)
	}
}
