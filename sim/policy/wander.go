package policy

import (
	"math/rand"

	"github.com/parksim/parksim/sim"
)

// Wandering strolls the park without queueing for anything: short idle
// hops until energy runs out. It is the safe state a visitor falls back to,
// and a usable policy in its own right for background crowd.
type Wandering struct {
	rng *rand.Rand
}

func NewWandering(rng *rand.Rand) *Wandering {
	return &Wandering{rng: rng}
}

func (w *Wandering) Name() string { return "wandering" }

func (w *Wandering) Decide(_ sim.SimTime, self *sim.VisitorRecord, _ sim.ParkView) sim.Action {
	self.Energy -= 0.05 + w.rng.Float64()*0.10
	if self.Energy <= 0 {
		self.Intent = "exhausted"
		return sim.Action{Kind: sim.ActionLeave}
	}
	self.Intent = "stroll"
	return sim.Action{Kind: sim.ActionIdle, IdleTicks: 1 + int64(w.rng.Intn(3))}
}

func (w *Wandering) Observe(sim.AdmitResult) {}
