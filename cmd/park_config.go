package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/parksim/parksim/sim"
	"github.com/parksim/parksim/sim/workload"
)

// ParkFile is the full YAML configuration: the engine settings and the
// arrival plan share one flat document.
type ParkFile struct {
	Engine   sim.Config        `yaml:",inline"`
	Arrivals workload.PlanSpec `yaml:",inline"`
}

// LoadParkFile reads and parses a park configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadParkFile(path string) (*ParkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading park config: %w", err)
	}
	var pf ParkFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&pf); err != nil {
		return nil, fmt.Errorf("parsing park config: %w", err)
	}
	return &pf, nil
}

// applyScenario swaps the file's arrival plan for a named preset, keeping
// the file's population cap. The preset's own default rate applies; an
// explicit --rate flag still overrides it afterwards.
func applyScenario(pf *ParkFile, name string) error {
	builder, ok := workload.Scenarios[name]
	if !ok {
		return fmt.Errorf("unknown scenario %q; valid: %s",
			name, strings.Join(workload.ScenarioNames(), ", "))
	}
	preset := builder(0)
	preset.MaxVisitors = pf.Arrivals.MaxVisitors
	pf.Arrivals = *preset
	return nil
}
