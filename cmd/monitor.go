package cmd

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/parksim/parksim/sim"
	"github.com/parksim/parksim/sim/workload"
)

// runMonitor logs a status line every everyTicks simulated minutes while
// the day runs: population, admissions, the longest queue, and any rides
// down for maintenance. Exits when the stop signal is raised.
func runMonitor(park *sim.Park, gen *workload.Generator, everyTicks int64) {
	clock := park.Clock()
	for {
		if err := clock.Sleep(context.Background(), everyTicks); err != nil {
			return
		}
		st := park.Snapshot()

		longestName := ""
		longestLen := 0
		var down []string
		for _, rs := range st.Resources {
			if q := rs.QueueLen + rs.FastLaneLen; q > longestLen {
				longestName, longestLen = rs.Name, q
			}
			if rs.State == string(sim.RideMaintenance) {
				down = append(down, rs.Name)
			}
		}

		line := logrus.Infof
		if len(down) > 0 {
			line = logrus.Warnf
		}
		switch {
		case longestName == "" && len(down) == 0:
			line("[tick %07d] status: %d in park, %d/%d admitted",
				st.Tick, st.VisitorsInPark, gen.Admitted(), gen.Planned())
		case len(down) == 0:
			line("[tick %07d] status: %d in park, %d/%d admitted, longest queue %s (%d)",
				st.Tick, st.VisitorsInPark, gen.Admitted(), gen.Planned(), longestName, longestLen)
		default:
			line("[tick %07d] status: %d in park, %d/%d admitted, longest queue %s (%d), down: %s",
				st.Tick, st.VisitorsInPark, gen.Admitted(), gen.Planned(), longestName, longestLen,
				strings.Join(down, ", "))
		}
	}
}
