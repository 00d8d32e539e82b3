// Aggregates MetricEvents into park-day statistics. A single consumer
// goroutine owns the aggregation; producers only send on a buffered
// channel, so no aggregate state is ever shared between actors.

package sim

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"
)

// EventObserver receives every event the sink applies, in application
// order, from the sink's single consumer goroutine. Implementations need
// no locking of their own. The event export recorder is the primary
// implementation.
type EventObserver interface {
	Observe(ev MetricEvent)
}

// WaitStats summarizes queue waits for one resource, in simulated minutes.
type WaitStats struct {
	Count int64
	Avg   float64
	Max   int64
	P50   float64
	P90   float64
	P99   float64
}

// Stats is a coherent point-in-time copy of the sink's aggregates.
type Stats struct {
	EventCounts map[EventKind]int64

	VisitorsArrived int64
	VisitorsLeft    int64
	VisitorsInPark  int64 // arrived - left

	RidersByRide      map[string]int64
	CyclesByRide      map[string]int64
	BreakdownsByRide  map[string]int64
	ServedByFacility  map[string]int64
	RevenueByFacility map[string]float64
	RevenueByItem     map[string]float64
	TotalRevenue      float64

	WaitByResource map[string]WaitStats

	HeightRejections   int64
	PartyRejections    int64
	QueueFullTurnaways int64
	PurchasesDeclined  int64
	ShutdownAnomalies  int64
	DroppedAfterClose  int64
}

// MetricsSink aggregates events concurrently emitted by every actor in the
// park. Emit never shares aggregate state with the consumer; Snapshot
// copies the aggregates under a short critical section and never blocks
// producers beyond it.
//
// Lifecycle: Start launches the consumer loop; Close must be called after
// all producers have stopped (the park's stop sequence guarantees this),
// drains every buffered event, then releases the loop. Emit after Close is
// dropped and counted, never a panic.
type MetricsSink struct {
	events  chan MetricEvent
	done    chan struct{}
	exited  chan struct{}
	closed  atomic.Bool
	dropped atomic.Int64

	observer EventObserver

	mu sync.Mutex
	// aggregates below are owned by the consumer loop; mu orders loop
	// writes against Snapshot copies
	counts      map[EventKind]int64
	arrived     int64
	left        int64
	riders      map[string]int64
	cycles      map[string]int64
	breakdowns  map[string]int64
	served      map[string]int64
	revenue     map[string]float64
	itemRevenue map[string]float64
	waitSum     map[string]int64
	waitMax     map[string]int64
	waitSamples map[string][]float64
	anomalies   int64
}

// NewMetricsSink creates a sink with the given channel buffer. The
// observer may be nil; when set it sees every applied event in order.
func NewMetricsSink(buffer int, observer EventObserver) *MetricsSink {
	if buffer < 1 {
		buffer = 1
	}
	return &MetricsSink{
		events:      make(chan MetricEvent, buffer),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
		observer:    observer,
		counts:      make(map[EventKind]int64),
		riders:      make(map[string]int64),
		cycles:      make(map[string]int64),
		breakdowns:  make(map[string]int64),
		served:      make(map[string]int64),
		revenue:     make(map[string]float64),
		itemRevenue: make(map[string]float64),
		waitSum:     make(map[string]int64),
		waitMax:     make(map[string]int64),
		waitSamples: make(map[string][]float64),
	}
}

// SetObserver attaches the event tee. Not concurrency-safe; call before
// Start.
func (s *MetricsSink) SetObserver(o EventObserver) {
	s.observer = o
}

// Start launches the consumer loop.
func (s *MetricsSink) Start() {
	go s.run()
}

// Emit records one event. Safe from any goroutine; blocks only while the
// buffer is full (backpressure, no loss). After Close it drops the event
// and counts the drop.
func (s *MetricsSink) Emit(ev MetricEvent) {
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	select {
	case s.events <- ev:
	default:
		// Buffer full: re-check closed before committing to a blocking send.
		if s.closed.Load() {
			s.dropped.Add(1)
			return
		}
		s.events <- ev
	}
}

// Close drains all buffered events and stops the consumer loop. Must be
// called once, after producers have stopped.
func (s *MetricsSink) Close() {
	if s.closed.Swap(true) {
		<-s.exited
		return
	}
	close(s.done)
	<-s.exited
}

func (s *MetricsSink) run() {
	defer close(s.exited)
	for {
		select {
		case ev := <-s.events:
			s.apply(ev)
		case <-s.done:
			for {
				select {
				case ev := <-s.events:
					s.apply(ev)
				default:
					return
				}
			}
		}
	}
}

// apply folds one event into the aggregates. O(1) under the mutex.
func (s *MetricsSink) apply(ev MetricEvent) {
	s.mu.Lock()
	s.counts[ev.Kind]++
	switch ev.Kind {
	case EventVisitorArrived:
		s.arrived++
	case EventVisitorLeft:
		s.left++
	case EventRideBoarded:
		s.recordWait(ev.Resource, ev.Wait)
	case EventRideCompleted:
		// Value carries the party size, so grouped requests count each rider.
		s.riders[ev.Resource] += riderCount(ev.Value)
	case EventRideCycle:
		s.cycles[ev.Resource]++
	case EventRideBreakdown:
		s.breakdowns[ev.Resource]++
	case EventFacilityServed:
		s.served[ev.Resource]++
		s.recordWait(ev.Resource, ev.Wait)
		if ev.Value > 0 {
			s.revenue[ev.Resource] += ev.Value
			s.itemRevenue[ev.Item] += ev.Value
		}
	case EventShutdownAnomaly:
		s.anomalies++
	}
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.Observe(ev)
	}
}

// riderCount reads a party size out of an event's Value field.
func riderCount(v float64) int64 {
	if v < 1 {
		return 1
	}
	return int64(v)
}

func (s *MetricsSink) recordWait(resource string, wait int64) {
	s.waitSum[resource] += wait
	if wait > s.waitMax[resource] {
		s.waitMax[resource] = wait
	}
	s.waitSamples[resource] = append(s.waitSamples[resource], float64(wait))
}

// Snapshot returns a coherent copy of the aggregates with derived wait
// percentiles. Callable at any time, including while the park runs.
func (s *MetricsSink) Snapshot() *Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Stats{
		EventCounts:        make(map[EventKind]int64, len(s.counts)),
		VisitorsArrived:    s.arrived,
		VisitorsLeft:       s.left,
		VisitorsInPark:     s.arrived - s.left,
		RidersByRide:       make(map[string]int64, len(s.riders)),
		CyclesByRide:       make(map[string]int64, len(s.cycles)),
		BreakdownsByRide:   make(map[string]int64, len(s.breakdowns)),
		ServedByFacility:   make(map[string]int64, len(s.served)),
		RevenueByFacility:  make(map[string]float64, len(s.revenue)),
		RevenueByItem:      make(map[string]float64, len(s.itemRevenue)),
		WaitByResource:     make(map[string]WaitStats, len(s.waitSamples)),
		HeightRejections:   s.counts[EventRejectedHeight],
		PartyRejections:    s.counts[EventRejectedParty],
		QueueFullTurnaways: s.counts[EventQueueFull],
		PurchasesDeclined:  s.counts[EventPurchaseDeclined],
		ShutdownAnomalies:  s.anomalies,
		DroppedAfterClose:  s.dropped.Load(),
	}
	for k, v := range s.counts {
		st.EventCounts[k] = v
	}
	for k, v := range s.riders {
		st.RidersByRide[k] = v
	}
	for k, v := range s.cycles {
		st.CyclesByRide[k] = v
	}
	for k, v := range s.breakdowns {
		st.BreakdownsByRide[k] = v
	}
	for k, v := range s.served {
		st.ServedByFacility[k] = v
	}
	for k, v := range s.revenue {
		st.RevenueByFacility[k] = v
		st.TotalRevenue += v
	}
	for k, v := range s.itemRevenue {
		st.RevenueByItem[k] = v
	}
	for resource, samples := range s.waitSamples {
		st.WaitByResource[resource] = waitStats(samples, s.waitSum[resource], s.waitMax[resource])
	}
	return st
}

// waitStats derives summary statistics from raw wait samples. Quantiles
// use gonum's empirical estimator over a sorted copy.
func waitStats(samples []float64, sum, max int64) WaitStats {
	ws := WaitStats{Count: int64(len(samples)), Max: max}
	if len(samples) == 0 {
		return ws
	}
	ws.Avg = float64(sum) / float64(len(samples))
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	ws.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	ws.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	ws.P99 = stat.Quantile(0.99, stat.Empirical, sorted, nil)
	return ws
}

// Print displays the end-of-day report.
func (st *Stats) Print(horizon SimTime) {
	fmt.Println("=== Park Day Summary ===")
	fmt.Printf("Simulated minutes    : %d\n", horizon)
	fmt.Printf("Visitors arrived     : %d\n", st.VisitorsArrived)
	fmt.Printf("Visitors left        : %d\n", st.VisitorsLeft)
	fmt.Printf("Still in park        : %d\n", st.VisitorsInPark)
	if len(st.RidersByRide) > 0 {
		fmt.Println("--- Rides ---")
		for _, name := range sortedKeys(st.RidersByRide) {
			ws := st.WaitByResource[name]
			fmt.Printf("%-24s riders=%-6d cycles=%-5d breakdowns=%-3d avg_wait=%.1f p90_wait=%.1f\n",
				name, st.RidersByRide[name], st.CyclesByRide[name], st.BreakdownsByRide[name], ws.Avg, ws.P90)
		}
	}
	if len(st.ServedByFacility) > 0 {
		fmt.Println("--- Facilities ---")
		for _, name := range sortedKeys(st.ServedByFacility) {
			fmt.Printf("%-24s served=%-6d revenue=$%.2f\n",
				name, st.ServedByFacility[name], st.RevenueByFacility[name])
		}
	}
	fmt.Printf("Total revenue        : $%.2f\n", st.TotalRevenue)
	fmt.Printf("Height rejections    : %d\n", st.HeightRejections)
	if st.PartyRejections > 0 {
		fmt.Printf("Party-size rejections: %d\n", st.PartyRejections)
	}
	fmt.Printf("Queue-full turnaways : %d\n", st.QueueFullTurnaways)
	if st.ShutdownAnomalies > 0 {
		fmt.Printf("Shutdown anomalies   : %d\n", st.ShutdownAnomalies)
	}
}

// sortedKeys returns map keys in stable order for deterministic reports.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
