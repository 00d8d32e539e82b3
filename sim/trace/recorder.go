package trace

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parksim/parksim/sim"
)

// Recorder turns engine events into export rows. It implements the
// engine's EventObserver and runs entirely on the metrics loop goroutine:
// no locks, sequence numbers in loop order. Write errors are counted and
// logged once, never propagated into the simulation.
type Recorder struct {
	runID  string
	writer EventWriter
	seq    int64
	errs   int64
}

// NewRecorder stamps a fresh run id on every row it emits.
func NewRecorder(writer EventWriter) *Recorder {
	return &Recorder{runID: uuid.NewString(), writer: writer}
}

// RunID returns the identifier stamped on this run's rows.
func (r *Recorder) RunID() string {
	return r.runID
}

// Observe implements sim.EventObserver.
func (r *Recorder) Observe(ev sim.MetricEvent) {
	r.seq++
	row := &Row{
		RunID:    r.runID,
		Seq:      r.seq,
		Tick:     int64(ev.At),
		Kind:     string(ev.Kind),
		Resource: ev.Resource,
		Visitor:  ev.Visitor,
		Wait:     ev.Wait,
		Value:    ev.Value,
		Item:     ev.Item,
	}
	if err := r.writer.Write(row); err != nil {
		r.errs++
		if r.errs == 1 {
			logrus.Errorf("event export: %v (suppressing further write errors)", err)
		}
	}
}

// Rows returns how many rows have been emitted.
func (r *Recorder) Rows() int64 {
	return r.seq
}

// WriteErrors returns how many rows failed to write.
func (r *Recorder) WriteErrors() int64 {
	return r.errs
}

// Close closes the underlying writer. Call only after the metrics sink has
// been closed, so no more events can arrive.
func (r *Recorder) Close() error {
	return r.writer.Close()
}
