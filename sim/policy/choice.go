package policy

import (
	"fmt"
	"math/rand"
)

// Chooser picks one ride from a candidate list. Weights are preference
// scores; implementations decide how much they matter.
type Chooser interface {
	Name() string
	Pick(rng *rand.Rand, names []string, weights []float64) string
}

// WeightedChoice draws proportionally to preference weight: a ride scoring
// 3.0 is picked three times as often as one scoring 1.0.
type WeightedChoice struct{}

func (WeightedChoice) Name() string { return "weighted" }

func (WeightedChoice) Pick(rng *rand.Rand, names []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return names[rng.Intn(len(names))]
	}
	x := rng.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return names[i]
		}
	}
	return names[len(names)-1]
}

// UniformChoice ignores preferences and picks uniformly among eligibles.
type UniformChoice struct{}

func (UniformChoice) Name() string { return "uniform" }

func (UniformChoice) Pick(rng *rand.Rand, names []string, _ []float64) string {
	return names[rng.Intn(len(names))]
}

var validChoosers = map[string]bool{"weighted": true, "uniform": true}

// NewChooser creates a ride choice strategy by name.
// Valid names: "weighted", "uniform". Empty string defaults to weighted.
func NewChooser(name string) (Chooser, error) {
	switch name {
	case "", "weighted":
		return WeightedChoice{}, nil
	case "uniform":
		return UniformChoice{}, nil
	default:
		return nil, fmt.Errorf("unknown ride chooser %q; valid: weighted, uniform", name)
	}
}
