package workload

import "sort"

// Built-in arrival presets for common park days.
// Each returns a normalized PlanSpec ready for use with BuildPlan.

// Scenarios maps preset names to builders, for the --scenario CLI flag.
// A rate <= 0 selects the preset's own default.
var Scenarios = map[string]func(rate float64) *PlanSpec{
	"quiet-weekday":   ScenarioQuietWeekday,
	"summer-saturday": ScenarioSummerSaturday,
	"tour-bus":        ScenarioTourBus,
	"thrill-night":    ScenarioThrillNight,
	"gate-drop":       ScenarioGateDrop,
}

// ScenarioNames returns the preset names in sorted order.
func ScenarioNames() []string {
	names := make([]string, 0, len(Scenarios))
	for name := range Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScenarioQuietWeekday models a slow off-season day: sparse independent
// walk-ups, mostly adults, almost everyone on their own.
func ScenarioQuietWeekday(rate float64) *PlanSpec {
	if rate <= 0 {
		rate = 0.3
	}
	s := &PlanSpec{
		Rate:    rate,
		Arrival: ArrivalSpec{Process: "poisson"},
		Mix: map[string]float64{
			ArchetypeChild:   0.20,
			ArchetypeTourist: 0.65,
			ArchetypeThrill:  0.15,
		},
		GroupSizes: map[int]float64{1: 0.6, 2: 0.3, 3: 0.07, 4: 0.03},
	}
	s.Normalize()
	return s
}

// ScenarioSummerSaturday models peak season: heavy family traffic in
// larger parties.
func ScenarioSummerSaturday(rate float64) *PlanSpec {
	if rate <= 0 {
		rate = 1.5
	}
	s := &PlanSpec{
		Rate:    rate,
		Arrival: ArrivalSpec{Process: "poisson"},
		Mix: map[string]float64{
			ArchetypeChild:   0.45,
			ArchetypeTourist: 0.35,
			ArchetypeThrill:  0.20,
		},
		GroupSizes: map[int]float64{1: 0.2, 2: 0.25, 3: 0.3, 4: 0.25},
	}
	s.Normalize()
	return s
}

// ScenarioTourBus models coach-party clumping: long lulls at the gate
// punctuated by bursts of large tourist groups (gamma arrivals, CV 3.5).
func ScenarioTourBus(rate float64) *PlanSpec {
	if rate <= 0 {
		rate = 1.0
	}
	cv := 3.5
	s := &PlanSpec{
		Rate:    rate,
		Arrival: ArrivalSpec{Process: "gamma", CV: &cv},
		Mix: map[string]float64{
			ArchetypeChild:   0.20,
			ArchetypeTourist: 0.70,
			ArchetypeThrill:  0.10,
		},
		GroupSizes: map[int]float64{2: 0.2, 3: 0.3, 4: 0.5},
	}
	s.Normalize()
	return s
}

// ScenarioThrillNight models an after-hours event: a steady drip of
// enthusiasts (weibull, CV 0.6) heading straight for the big rides.
func ScenarioThrillNight(rate float64) *PlanSpec {
	if rate <= 0 {
		rate = 0.8
	}
	cv := 0.6
	s := &PlanSpec{
		Rate:    rate,
		Arrival: ArrivalSpec{Process: "weibull", CV: &cv},
		Mix: map[string]float64{
			ArchetypeTourist: 0.25,
			ArchetypeThrill:  0.75,
		},
		GroupSizes: map[int]float64{1: 0.5, 2: 0.4, 3: 0.1},
	}
	s.Normalize()
	return s
}

// ScenarioGateDrop models rope drop at opening: the overnight queue
// releases on a fixed cadence, families front-loaded.
func ScenarioGateDrop(rate float64) *PlanSpec {
	if rate <= 0 {
		rate = 2.0
	}
	s := &PlanSpec{
		Rate:    rate,
		Arrival: ArrivalSpec{Process: "constant"},
		Mix: map[string]float64{
			ArchetypeChild:   0.40,
			ArchetypeTourist: 0.40,
			ArchetypeThrill:  0.20,
		},
		GroupSizes: map[int]float64{1: 0.25, 2: 0.25, 3: 0.25, 4: 0.25},
	}
	s.Normalize()
	return s
}
