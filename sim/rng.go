package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical configuration draw
// identical random sequences in every partition.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemArrivals is the RNG partition for arrival plan generation:
	// inter-arrival gaps, archetype draws, visitor attributes, group sizes.
	SubsystemArrivals = "arrivals"
)

// SubsystemRide returns the RNG partition name for a ride's breakdown draws.
func SubsystemRide(name string) string {
	return "ride_" + name
}

// SubsystemFacilityServer returns the RNG partition name for one facility
// server's service-duration draws. Each server gets its own stream so
// multi-server facilities never share a rand.Rand.
func SubsystemFacilityServer(facility string, server int) string {
	return fmt.Sprintf("facility_%s_s%d", facility, server)
}

// VisitorRNG derives an independent RNG stream for one visitor's policy
// decisions. Safe to call from any goroutine: it builds a fresh rand.Rand
// rather than touching the shared partition cache.
func VisitorRNG(key SimulationKey, visitorID string) *rand.Rand {
	return rand.New(rand.NewSource(int64(key) ^ fnv1a64(visitorID)))
}

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation: masterSeed XOR fnv1a64(subsystemName). Partitions are cached,
// so the same name always returns the same *rand.Rand.
//
// Thread-safety: NOT thread-safe. All partitions must be created from a
// single goroutine (park construction) and each handed to exactly one
// consumer goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
