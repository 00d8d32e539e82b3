package workload

import (
	"fmt"
	"math"
	"sort"
)

// PlanSpec configures arrival plan generation: how fast visitors show up,
// how many, what kinds, and in what party sizes. It is embedded in the park
// configuration file alongside the engine settings.
type PlanSpec struct {
	Rate        float64                  `yaml:"arrival_rate"`          // parties per simulated minute (λ)
	MaxVisitors int                      `yaml:"max_visitors"`          // 0 = horizon-limited only
	Mix         map[string]float64       `yaml:"visitor_mix,omitempty"` // archetype → weight
	GroupSizes  map[int]float64          `yaml:"group_sizes,omitempty"` // party size → weight
	Arrival     ArrivalSpec              `yaml:"arrival,omitempty"`
	Archetypes  map[string]ArchetypeSpec `yaml:"archetypes,omitempty"`
}

// ArrivalSpec configures the inter-arrival gap process.
type ArrivalSpec struct {
	Process string   `yaml:"process,omitempty"` // poisson (default), gamma, weibull, constant
	CV      *float64 `yaml:"cv,omitempty"`      // coefficient of variation for gamma/weibull
}

// ArchetypeSpec holds the attribute ranges one archetype draws from.
// Heights are uniform integer centimetres, budgets and energy uniform floats.
type ArchetypeSpec struct {
	HeightMinCM  int     `yaml:"height_min_cm"`
	HeightMaxCM  int     `yaml:"height_max_cm"`
	BudgetMin    float64 `yaml:"budget_min"`
	BudgetMax    float64 `yaml:"budget_max"`
	EnergyMin    float64 `yaml:"energy_min"`
	EnergyMax    float64 `yaml:"energy_max"`
	FastPassProb float64 `yaml:"fastpass_prob"`
}

// Archetype names the built-in visitor populations.
const (
	ArchetypeChild   = "child"
	ArchetypeTourist = "tourist"
	ArchetypeThrill  = "thrill"
)

var validArrivalProcesses = map[string]bool{
	"poisson": true, "gamma": true, "weibull": true, "constant": true,
}

// DefaultArchetypes returns the built-in attribute ranges: children are
// short, low-budget, high-energy; tourists carry the wallets; thrill
// seekers are tall, springy, and most likely to pay for a fastpass.
func DefaultArchetypes() map[string]ArchetypeSpec {
	return map[string]ArchetypeSpec{
		ArchetypeChild: {
			HeightMinCM: 95, HeightMaxCM: 140,
			BudgetMin: 15, BudgetMax: 40,
			EnergyMin: 0.7, EnergyMax: 1.0,
			FastPassProb: 0.05,
		},
		ArchetypeTourist: {
			HeightMinCM: 150, HeightMaxCM: 190,
			BudgetMin: 60, BudgetMax: 160,
			EnergyMin: 0.5, EnergyMax: 0.9,
			FastPassProb: 0.20,
		},
		ArchetypeThrill: {
			HeightMinCM: 155, HeightMaxCM: 195,
			BudgetMin: 30, BudgetMax: 90,
			EnergyMin: 0.8, EnergyMax: 1.0,
			FastPassProb: 0.35,
		},
	}
}

// Normalize fills zero-valued fields with defaults. Safe to call repeatedly.
func (s *PlanSpec) Normalize() {
	if s.Rate == 0 {
		s.Rate = 0.625
	}
	if s.Arrival.Process == "" {
		s.Arrival.Process = "poisson"
	}
	if len(s.Mix) == 0 {
		s.Mix = map[string]float64{
			ArchetypeChild:   0.3,
			ArchetypeTourist: 0.5,
			ArchetypeThrill:  0.2,
		}
	}
	if len(s.GroupSizes) == 0 {
		s.GroupSizes = map[int]float64{1: 0.55, 2: 0.2, 3: 0.15, 4: 0.1}
	}
	if s.Archetypes == nil {
		s.Archetypes = make(map[string]ArchetypeSpec)
	}
	// Custom archetype entries win; built-ins backfill the rest.
	for name, spec := range DefaultArchetypes() {
		if _, ok := s.Archetypes[name]; !ok {
			s.Archetypes[name] = spec
		}
	}
}

// Validate checks every field of the spec. First violation wins; the error
// message names the offending field.
func (s *PlanSpec) Validate() error {
	if err := validateFinitePositive("arrival_rate", s.Rate); err != nil {
		return err
	}
	if s.MaxVisitors < 0 {
		return fmt.Errorf("max_visitors must be non-negative, got %d", s.MaxVisitors)
	}
	if !validArrivalProcesses[s.Arrival.Process] {
		return fmt.Errorf("unknown arrival process %q; valid: poisson, gamma, weibull, constant", s.Arrival.Process)
	}
	if s.Arrival.CV != nil {
		if err := validateFinitePositive("arrival.cv", *s.Arrival.CV); err != nil {
			return err
		}
		if s.Arrival.Process == "weibull" {
			cv := *s.Arrival.CV
			if cv < 0.01 || cv > 10.4 {
				return fmt.Errorf("arrival.cv for weibull must be in [0.01, 10.4], got %f", cv)
			}
		}
	}
	if err := validateWeights("visitor_mix", s.Mix); err != nil {
		return err
	}
	for name := range s.Mix {
		if _, ok := s.Archetypes[name]; !ok {
			return fmt.Errorf("visitor_mix names archetype %q with no archetypes entry", name)
		}
	}
	total := 0.0
	for size, w := range s.GroupSizes {
		if size < 1 {
			return fmt.Errorf("group_sizes: party size must be >= 1, got %d", size)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("group_sizes[%d]: weight must be a finite non-negative number, got %f", size, w)
		}
		total += w
	}
	if len(s.GroupSizes) > 0 && total <= 0 {
		return fmt.Errorf("group_sizes: at least one weight must be positive")
	}
	for name, a := range s.Archetypes {
		if err := a.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (a *ArchetypeSpec) validate(name string) error {
	prefix := fmt.Sprintf("archetypes[%s]", name)
	if a.HeightMinCM <= 0 || a.HeightMaxCM < a.HeightMinCM {
		return fmt.Errorf("%s: height range must satisfy 0 < min <= max, got [%d, %d]", prefix, a.HeightMinCM, a.HeightMaxCM)
	}
	if a.BudgetMin < 0 || a.BudgetMax < a.BudgetMin {
		return fmt.Errorf("%s: budget range must satisfy 0 <= min <= max, got [%f, %f]", prefix, a.BudgetMin, a.BudgetMax)
	}
	if a.EnergyMin <= 0 || a.EnergyMax < a.EnergyMin || a.EnergyMax > 1.0 {
		return fmt.Errorf("%s: energy range must satisfy 0 < min <= max <= 1, got [%f, %f]", prefix, a.EnergyMin, a.EnergyMax)
	}
	if a.FastPassProb < 0 || a.FastPassProb > 1 {
		return fmt.Errorf("%s: fastpass_prob must be in [0, 1], got %f", prefix, a.FastPassProb)
	}
	return nil
}

// validateWeights checks a name→weight table: all weights finite and
// non-negative, at least one positive.
func validateWeights(field string, weights map[string]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("%s: at least one entry required", field)
	}
	total := 0.0
	for name, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("%s[%s]: weight must be a finite non-negative number, got %f", field, name, w)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("%s: at least one weight must be positive", field)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

// weightedTable is a cumulative-weight lookup over deterministically ordered
// entries. Map iteration order is random, so draws go through sorted keys.
type weightedTable[K comparable] struct {
	keys []K
	cum  []float64 // cumulative weights, cum[len-1] == total
}

func newWeightedTable[K comparable](weights map[K]float64, less func(a, b K) bool) weightedTable[K] {
	keys := make([]K, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	cum := make([]float64, len(keys))
	total := 0.0
	for i, k := range keys {
		total += weights[k]
		cum[i] = total
	}
	return weightedTable[K]{keys: keys, cum: cum}
}

// pick returns the entry whose cumulative band contains u*total, where u is
// uniform in [0,1).
func (t weightedTable[K]) pick(u float64) K {
	total := t.cum[len(t.cum)-1]
	x := u * total
	idx := sort.SearchFloat64s(t.cum, x)
	if idx >= len(t.keys) {
		idx = len(t.keys) - 1
	}
	// SearchFloat64s lands on the band boundary for exact matches; weights
	// of zero must never be picked, so skip empty bands.
	for idx < len(t.keys)-1 && t.cum[idx] == x {
		idx++
	}
	return t.keys[idx]
}
