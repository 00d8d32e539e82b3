// Package policy implements the visitor decision policies: the archetype
// brains (child, tourist, thrill) with their recovered tastes and pacing,
// the wandering fallback, and the ride choice strategies they draw with.
package policy

import (
	"fmt"
	"math/rand"

	"github.com/parksim/parksim/sim"
)

var validPolicies = map[string]bool{
	"child": true, "tourist": true, "thrill": true, "wandering": true,
}

// IsValidPolicy reports whether name is a known policy.
func IsValidPolicy(name string) bool {
	return validPolicies[name]
}

// New creates a decision policy by name, drawing from the given RNG stream.
// Valid names: "child", "tourist", "thrill", "wandering".
func New(name string, rng *rand.Rand) (sim.DecisionPolicy, error) {
	switch name {
	case "child":
		return newArchetype(childProfile(), rng), nil
	case "tourist":
		return newArchetype(touristProfile(), rng), nil
	case "thrill":
		return newArchetype(thrillProfile(), rng), nil
	case "wandering":
		return NewWandering(rng), nil
	default:
		return nil, fmt.Errorf("unknown policy %q; valid: child, tourist, thrill, wandering", name)
	}
}

// Factory builds per-visitor policies: the archetype names the policy and
// the visitor id derives its private RNG stream from the simulation key,
// so every visitor's decisions replay identically under the same seed.
func Factory(key sim.SimulationKey) func(rec *sim.VisitorRecord) (sim.DecisionPolicy, error) {
	return func(rec *sim.VisitorRecord) (sim.DecisionPolicy, error) {
		return New(rec.Archetype, sim.VisitorRNG(key, rec.ID))
	}
}
