// Package trace exports the simulation's event stream as append-only rows,
// one JSON object per line. Row is pure data with no dependency on the
// engine; the Recorder bridges engine events into rows from inside the
// metrics loop, so writers never need locking of their own.
package trace

// Row is one exported event. Every simulation observation becomes exactly
// one row, stamped with the run id and a loop-order sequence number.
type Row struct {
	RunID    string  `json:"run_id"`
	Seq      int64   `json:"seq"`
	Tick     int64   `json:"tick"`
	Kind     string  `json:"kind"`
	Resource string  `json:"resource,omitempty"`
	Visitor  string  `json:"visitor,omitempty"`
	Wait     int64   `json:"wait,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Item     string  `json:"item,omitempty"`
}
