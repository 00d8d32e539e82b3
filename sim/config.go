package sim

import (
	"fmt"
	"time"
)

// FacilityKind selects a facility's service semantics.
type FacilityKind string

const (
	FacilityFood     FacilityKind = "food"     // catalog purchase against visitor budget
	FacilityMerch    FacilityKind = "merch"    // catalog purchase against visitor budget
	FacilityBathroom FacilityKind = "bathroom" // no catalog, no cost
)

// validFacilityKinds is the set of recognized facility kinds.
var validFacilityKinds = map[FacilityKind]bool{
	FacilityFood: true, FacilityMerch: true, FacilityBathroom: true,
}

// CatalogItem is one purchasable entry of a food or merch facility.
type CatalogItem struct {
	Item  string  `yaml:"item"`
	Price float64 `yaml:"price"`
}

// RideConfig describes one ride. All fields are validated at startup;
// violations are fatal before any goroutine runs.
type RideConfig struct {
	Name             string  `yaml:"name"`               // unique resource id
	Capacity         int     `yaml:"capacity"`           // seats per cycle (>= 1)
	CycleTicks       int64   `yaml:"cycle_ticks"`        // RUNNING duration in minutes (>= 1)
	BreakProbability float64 `yaml:"break_probability"`  // breakdown chance per draw, in [0,1]
	MaintenanceTicks int64   `yaml:"maintenance_ticks"`  // repair duration in minutes (>= 1)
	MinHeightCM      int     `yaml:"min_height_cm"`      // admission constraint; 0 = no restriction
	QueueCapacity    int     `yaml:"queue_capacity"`     // regular lane bound (>= 1)
	BoardWindowTicks int64   `yaml:"board_window_ticks"` // extra minutes LOADING may wait to top up a partial batch
	FastPassShare    float64 `yaml:"fastpass_share"`     // batch fraction reserved for the priority lane, in [0,1); 0 disables the lane
}

// FacilityConfig describes one multi-server facility.
type FacilityConfig struct {
	Name            string        `yaml:"name"`              // unique resource id
	Kind            FacilityKind  `yaml:"kind"`              // food | merch | bathroom
	Servers         int           `yaml:"servers"`           // identical server loops sharing the queue (>= 1)
	ServiceMinTicks int64         `yaml:"service_min_ticks"` // service duration lower bound in minutes (>= 1)
	ServiceMaxTicks int64         `yaml:"service_max_ticks"` // service duration upper bound (>= min)
	QueueCapacity   int           `yaml:"queue_capacity"`    // queue bound (>= 1)
	Catalog         []CatalogItem `yaml:"catalog,omitempty"` // required for food/merch, forbidden for bathroom
}

// Config is the park-engine configuration. Arrival generation has its own
// spec (workload.PlanSpec); the CLI composes both from one YAML file.
type Config struct {
	Seed             int64 `yaml:"seed"`               // master seed for all RNG partitions
	HorizonTicks     int64 `yaml:"horizon_ticks"`      // simulated minutes in the park day (>= 1)
	TickIntervalMS   int64 `yaml:"tick_interval_ms"`   // wall milliseconds per simulated minute (default 50)
	ShutdownGraceMS  int64 `yaml:"shutdown_grace_ms"`  // wall grace before a stuck shutdown is declared anomalous (default 2000)
	MetricsBuffer    int   `yaml:"metrics_buffer"`     // sink channel capacity (default 4096)
	BreakdownPerTick bool  `yaml:"breakdown_per_tick"` // draw breakdowns every RUNNING minute instead of once per cycle

	Rides      []RideConfig     `yaml:"rides"`
	Facilities []FacilityConfig `yaml:"facilities"`
}

// Normalize fills defaulted zero fields in place. Called by NewPark before
// Validate, so explicit zeros for defaulted fields are not errors.
func (c *Config) Normalize() {
	if c.TickIntervalMS == 0 {
		c.TickIntervalMS = 50
	}
	if c.ShutdownGraceMS == 0 {
		c.ShutdownGraceMS = 2000
	}
	if c.MetricsBuffer == 0 {
		c.MetricsBuffer = 4096
	}
}

// TickInterval returns the wall-clock duration of one simulated minute.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// ShutdownGrace returns the wall-clock shutdown grace period.
func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceMS) * time.Millisecond
}

// Validate checks every field of the park configuration. The first
// violation wins; messages name the offending field path.
func (c *Config) Validate() error {
	if c.HorizonTicks < 1 {
		return fmt.Errorf("horizon_ticks must be >= 1, got %d", c.HorizonTicks)
	}
	if c.TickIntervalMS < 1 {
		return fmt.Errorf("tick_interval_ms must be >= 1, got %d", c.TickIntervalMS)
	}
	if c.ShutdownGraceMS < 0 {
		return fmt.Errorf("shutdown_grace_ms must be >= 0, got %d", c.ShutdownGraceMS)
	}
	if c.MetricsBuffer < 1 {
		return fmt.Errorf("metrics_buffer must be >= 1, got %d", c.MetricsBuffer)
	}
	if len(c.Rides)+len(c.Facilities) == 0 {
		return fmt.Errorf("at least one ride or facility required")
	}
	seen := make(map[string]bool)
	for i, r := range c.Rides {
		if err := r.validate(i); err != nil {
			return err
		}
		if seen[r.Name] {
			return fmt.Errorf("rides[%d]: duplicate resource name %q", i, r.Name)
		}
		seen[r.Name] = true
	}
	for i, f := range c.Facilities {
		if err := f.validate(i); err != nil {
			return err
		}
		if seen[f.Name] {
			return fmt.Errorf("facilities[%d]: duplicate resource name %q", i, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func (r *RideConfig) validate(idx int) error {
	prefix := fmt.Sprintf("rides[%d]", idx)
	if r.Name == "" {
		return fmt.Errorf("%s: name must not be empty", prefix)
	}
	if r.Capacity < 1 {
		return fmt.Errorf("%s: capacity must be >= 1, got %d", prefix, r.Capacity)
	}
	if r.CycleTicks < 1 {
		return fmt.Errorf("%s: cycle_ticks must be >= 1, got %d", prefix, r.CycleTicks)
	}
	if r.BreakProbability < 0 || r.BreakProbability > 1 {
		return fmt.Errorf("%s: break_probability must be in [0,1], got %f", prefix, r.BreakProbability)
	}
	if r.MaintenanceTicks < 1 {
		return fmt.Errorf("%s: maintenance_ticks must be >= 1, got %d", prefix, r.MaintenanceTicks)
	}
	if r.MinHeightCM < 0 {
		return fmt.Errorf("%s: min_height_cm must be >= 0, got %d", prefix, r.MinHeightCM)
	}
	if r.QueueCapacity < 1 {
		return fmt.Errorf("%s: queue_capacity must be >= 1, got %d", prefix, r.QueueCapacity)
	}
	if r.BoardWindowTicks < 0 {
		return fmt.Errorf("%s: board_window_ticks must be >= 0, got %d", prefix, r.BoardWindowTicks)
	}
	if r.FastPassShare < 0 || r.FastPassShare >= 1 {
		return fmt.Errorf("%s: fastpass_share must be in [0,1), got %f", prefix, r.FastPassShare)
	}
	return nil
}

func (f *FacilityConfig) validate(idx int) error {
	prefix := fmt.Sprintf("facilities[%d]", idx)
	if f.Name == "" {
		return fmt.Errorf("%s: name must not be empty", prefix)
	}
	if !validFacilityKinds[f.Kind] {
		return fmt.Errorf("%s: unknown kind %q; valid: food, merch, bathroom", prefix, f.Kind)
	}
	if f.Servers < 1 {
		return fmt.Errorf("%s: servers must be >= 1, got %d", prefix, f.Servers)
	}
	if f.ServiceMinTicks < 1 {
		return fmt.Errorf("%s: service_min_ticks must be >= 1, got %d", prefix, f.ServiceMinTicks)
	}
	if f.ServiceMaxTicks < f.ServiceMinTicks {
		return fmt.Errorf("%s: service_max_ticks must be >= service_min_ticks, got %d < %d",
			prefix, f.ServiceMaxTicks, f.ServiceMinTicks)
	}
	if f.QueueCapacity < 1 {
		return fmt.Errorf("%s: queue_capacity must be >= 1, got %d", prefix, f.QueueCapacity)
	}
	switch f.Kind {
	case FacilityBathroom:
		if len(f.Catalog) > 0 {
			return fmt.Errorf("%s: bathrooms take no catalog", prefix)
		}
	default:
		if len(f.Catalog) == 0 {
			return fmt.Errorf("%s: %s facilities require a catalog", prefix, f.Kind)
		}
		for j, item := range f.Catalog {
			if item.Item == "" {
				return fmt.Errorf("%s.catalog[%d]: item must not be empty", prefix, j)
			}
			if item.Price <= 0 {
				return fmt.Errorf("%s.catalog[%d]: price must be positive, got %f", prefix, j, item.Price)
			}
		}
	}
	return nil
}
