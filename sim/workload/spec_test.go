package workload

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSpec_NormalizeFillsDefaults(t *testing.T) {
	var s PlanSpec
	s.Normalize()

	assert.Equal(t, 0.625, s.Rate)
	assert.Equal(t, "poisson", s.Arrival.Process)
	assert.Len(t, s.Mix, 3)
	assert.Equal(t, 0.5, s.Mix[ArchetypeTourist])
	assert.Equal(t, 0.55, s.GroupSizes[1])
	require.Len(t, s.Archetypes, 3)
	assert.Equal(t, 95, s.Archetypes[ArchetypeChild].HeightMinCM)
}

func TestPlanSpec_NormalizeKeepsExplicitValues(t *testing.T) {
	custom := ArchetypeSpec{
		HeightMinCM: 100, HeightMaxCM: 120,
		BudgetMin: 5, BudgetMax: 10,
		EnergyMin: 0.5, EnergyMax: 0.8,
	}
	s := PlanSpec{
		Rate:       2.0,
		Archetypes: map[string]ArchetypeSpec{ArchetypeChild: custom},
	}
	s.Normalize()

	assert.Equal(t, 2.0, s.Rate)
	// The custom child entry wins; built-ins backfill the other two.
	assert.Equal(t, custom, s.Archetypes[ArchetypeChild])
	assert.Len(t, s.Archetypes, 3)
	assert.Equal(t, 150, s.Archetypes[ArchetypeTourist].HeightMinCM)
}

func TestPlanSpec_NormalizeIdempotent(t *testing.T) {
	var a, b PlanSpec
	a.Normalize()
	b.Normalize()
	b.Normalize()
	assert.Equal(t, a, b)
}

func TestPlanSpec_ValidateAcceptsDefaults(t *testing.T) {
	var s PlanSpec
	s.Normalize()
	assert.NoError(t, s.Validate())
}

func TestPlanSpec_ValidateRejections(t *testing.T) {
	cv := func(v float64) *float64 { return &v }
	tests := []struct {
		name    string
		mutate  func(s *PlanSpec)
		wantIn  string
	}{
		{"zero rate", func(s *PlanSpec) { s.Rate = 0 }, "arrival_rate"},
		{"negative rate", func(s *PlanSpec) { s.Rate = -1 }, "arrival_rate"},
		{"nan rate", func(s *PlanSpec) { s.Rate = math.NaN() }, "arrival_rate"},
		{"negative max visitors", func(s *PlanSpec) { s.MaxVisitors = -1 }, "max_visitors"},
		{"unknown process", func(s *PlanSpec) { s.Arrival.Process = "lognormal" }, "arrival process"},
		{"nan cv", func(s *PlanSpec) { s.Arrival.CV = cv(math.NaN()) }, "arrival.cv"},
		{"weibull cv too low", func(s *PlanSpec) {
			s.Arrival.Process = "weibull"
			s.Arrival.CV = cv(0.005)
		}, "arrival.cv for weibull"},
		{"weibull cv too high", func(s *PlanSpec) {
			s.Arrival.Process = "weibull"
			s.Arrival.CV = cv(11)
		}, "arrival.cv for weibull"},
		{"empty mix", func(s *PlanSpec) { s.Mix = map[string]float64{} }, "visitor_mix"},
		{"negative mix weight", func(s *PlanSpec) { s.Mix[ArchetypeChild] = -0.5 }, "visitor_mix"},
		{"all-zero mix", func(s *PlanSpec) {
			s.Mix = map[string]float64{ArchetypeChild: 0, ArchetypeTourist: 0}
		}, "at least one weight"},
		{"mix names unknown archetype", func(s *PlanSpec) { s.Mix["alien"] = 0.5 }, "no archetypes entry"},
		{"party size zero", func(s *PlanSpec) { s.GroupSizes[0] = 0.5 }, "party size"},
		{"negative group weight", func(s *PlanSpec) { s.GroupSizes[2] = -1 }, "group_sizes[2]"},
		{"all-zero group weights", func(s *PlanSpec) {
			s.GroupSizes = map[int]float64{1: 0, 2: 0}
		}, "group_sizes"},
		{"archetype bad height", func(s *PlanSpec) {
			a := s.Archetypes[ArchetypeChild]
			a.HeightMaxCM = a.HeightMinCM - 10
			s.Archetypes[ArchetypeChild] = a
		}, "height range"},
		{"archetype negative budget", func(s *PlanSpec) {
			a := s.Archetypes[ArchetypeChild]
			a.BudgetMin = -5
			s.Archetypes[ArchetypeChild] = a
		}, "budget range"},
		{"archetype energy above one", func(s *PlanSpec) {
			a := s.Archetypes[ArchetypeChild]
			a.EnergyMax = 1.5
			s.Archetypes[ArchetypeChild] = a
		}, "energy range"},
		{"archetype fastpass prob", func(s *PlanSpec) {
			a := s.Archetypes[ArchetypeChild]
			a.FastPassProb = 1.5
			s.Archetypes[ArchetypeChild] = a
		}, "fastpass_prob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s PlanSpec
			s.Normalize()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantIn)
		})
	}
}

func TestWeightedTable_PickBands(t *testing.T) {
	table := newWeightedTable(map[string]float64{"a": 1, "b": 2}, func(x, y string) bool { return x < y })

	tests := []struct {
		u    float64
		want string
	}{
		{0.0, "a"},
		{0.32, "a"},
		{0.34, "b"},
		{0.99, "b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.pick(tt.u), "u=%f", tt.u)
	}
}

func TestWeightedTable_SkipsZeroWeightBands(t *testing.T) {
	// A zero-weight entry owns an empty band; even an exact boundary draw
	// landing on it must roll forward to the next band.
	table := newWeightedTable(map[string]float64{"empty": 0, "full": 1}, func(x, y string) bool { return x < y })
	for _, u := range []float64{0, 0.25, 0.5, 0.999} {
		assert.Equal(t, "full", table.pick(u), "u=%f", u)
	}
}

func TestWeightedTable_DeterministicOrderFromMap(t *testing.T) {
	// Map iteration order must not leak into the bands: two identical maps
	// build identical tables.
	w := map[int]float64{4: 0.1, 1: 0.55, 3: 0.15, 2: 0.2}
	ta := newWeightedTable(w, func(x, y int) bool { return x < y })
	tb := newWeightedTable(map[int]float64{1: 0.55, 2: 0.2, 3: 0.15, 4: 0.1}, func(x, y int) bool { return x < y })
	for _, u := range []float64{0, 0.1, 0.5, 0.54, 0.56, 0.74, 0.76, 0.89, 0.91, 0.99} {
		assert.Equal(t, ta.pick(u), tb.pick(u), "u=%f", u)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, ta.keys)
}
