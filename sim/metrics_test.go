package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSink_AggregatesEvents(t *testing.T) {
	// GIVEN a running sink
	sink := NewMetricsSink(64, nil)
	sink.Start()

	// WHEN one park day's worth of event kinds flows through
	sink.Emit(MetricEvent{Kind: EventVisitorArrived, Visitor: "visitor_0"})
	sink.Emit(MetricEvent{Kind: EventVisitorArrived, Visitor: "visitor_1"})
	sink.Emit(MetricEvent{Kind: EventRideBoarded, Resource: "coaster", Wait: 4})
	sink.Emit(MetricEvent{Kind: EventRideCompleted, Resource: "coaster", Value: 1})
	sink.Emit(MetricEvent{Kind: EventRideCycle, Resource: "coaster"})
	sink.Emit(MetricEvent{Kind: EventRideBreakdown, Resource: "coaster"})
	sink.Emit(MetricEvent{Kind: EventVisitorLeft, Visitor: "visitor_0"})
	sink.Close()

	// THEN the snapshot reflects every event
	st := sink.Snapshot()
	assert.Equal(t, int64(2), st.VisitorsArrived)
	assert.Equal(t, int64(1), st.VisitorsLeft)
	assert.Equal(t, int64(1), st.VisitorsInPark)
	assert.Equal(t, int64(1), st.RidersByRide["coaster"])
	assert.Equal(t, int64(1), st.CyclesByRide["coaster"])
	assert.Equal(t, int64(1), st.BreakdownsByRide["coaster"])
	assert.Equal(t, int64(2), st.EventCounts[EventVisitorArrived])
}

func TestMetricsSink_GroupedRidersCountEachSeat(t *testing.T) {
	sink := NewMetricsSink(16, nil)
	sink.Start()

	// Value carries the party size on ride_completed events
	sink.Emit(MetricEvent{Kind: EventRideCompleted, Resource: "coaster", Value: 3})
	sink.Emit(MetricEvent{Kind: EventRideCompleted, Resource: "coaster", Value: 0}) // no size stamped counts as one rider
	sink.Close()

	st := sink.Snapshot()
	assert.Equal(t, int64(4), st.RidersByRide["coaster"])
}

func TestMetricsSink_WaitPercentiles(t *testing.T) {
	// GIVEN boardings with waits 1..100 minutes
	sink := NewMetricsSink(128, nil)
	sink.Start()
	for w := 1; w <= 100; w++ {
		sink.Emit(MetricEvent{Kind: EventRideBoarded, Resource: "coaster", Wait: int64(w)})
	}
	sink.Close()

	ws := sink.Snapshot().WaitByResource["coaster"]
	assert.Equal(t, int64(100), ws.Count)
	assert.Equal(t, int64(100), ws.Max)
	assert.InDelta(t, 50.5, ws.Avg, 1e-9)
	assert.Equal(t, 50.0, ws.P50)
	assert.Equal(t, 90.0, ws.P90)
	assert.Equal(t, 99.0, ws.P99)
}

func TestMetricsSink_RevenueByFacilityAndItem(t *testing.T) {
	sink := NewMetricsSink(16, nil)
	sink.Start()

	sink.Emit(MetricEvent{Kind: EventFacilityServed, Resource: "burger_stand", Wait: 2, Value: 9.5, Item: "burger"})
	sink.Emit(MetricEvent{Kind: EventFacilityServed, Resource: "burger_stand", Wait: 1, Value: 4.0, Item: "fries"})
	sink.Emit(MetricEvent{Kind: EventFacilityServed, Resource: "restroom_east", Wait: 0}) // free service, no revenue
	sink.Close()

	st := sink.Snapshot()
	assert.Equal(t, int64(2), st.ServedByFacility["burger_stand"])
	assert.Equal(t, int64(1), st.ServedByFacility["restroom_east"])
	assert.InDelta(t, 13.5, st.RevenueByFacility["burger_stand"], 1e-9)
	assert.Zero(t, st.RevenueByFacility["restroom_east"])
	assert.InDelta(t, 9.5, st.RevenueByItem["burger"], 1e-9)
	assert.InDelta(t, 4.0, st.RevenueByItem["fries"], 1e-9)
	assert.InDelta(t, 13.5, st.TotalRevenue, 1e-9)
}

func TestMetricsSink_TurnawayCounters(t *testing.T) {
	sink := NewMetricsSink(16, nil)
	sink.Start()

	sink.Emit(MetricEvent{Kind: EventRejectedHeight, Resource: "coaster", Visitor: "visitor_2"})
	sink.Emit(MetricEvent{Kind: EventQueueFull, Resource: "coaster", Visitor: "visitor_3"})
	sink.Emit(MetricEvent{Kind: EventQueueFull, Resource: "coaster", Visitor: "visitor_4"})
	sink.Emit(MetricEvent{Kind: EventPurchaseDeclined, Resource: "gift_shop", Visitor: "visitor_5"})
	sink.Close()

	st := sink.Snapshot()
	assert.Equal(t, int64(1), st.HeightRejections)
	assert.Equal(t, int64(2), st.QueueFullTurnaways)
	assert.Equal(t, int64(1), st.PurchasesDeclined)
}

func TestMetricsSink_CloseDrainsBufferedEvents(t *testing.T) {
	// GIVEN a sink whose buffer still holds unapplied events
	sink := NewMetricsSink(256, nil)
	sink.Start()
	for i := 0; i < 200; i++ {
		sink.Emit(MetricEvent{Kind: EventVisitorArrived})
	}

	// WHEN Close returns
	sink.Close()

	// THEN every buffered event was applied, none lost
	st := sink.Snapshot()
	assert.Equal(t, int64(200), st.VisitorsArrived)
	assert.Zero(t, st.DroppedAfterClose)
}

func TestMetricsSink_EmitAfterCloseDroppedAndCounted(t *testing.T) {
	sink := NewMetricsSink(16, nil)
	sink.Start()
	sink.Emit(MetricEvent{Kind: EventVisitorArrived})
	sink.Close()

	// WHEN a straggler emits after close
	sink.Emit(MetricEvent{Kind: EventVisitorArrived})
	sink.Emit(MetricEvent{Kind: EventVisitorLeft})

	// THEN the events are dropped, counted, and nothing panics
	st := sink.Snapshot()
	assert.Equal(t, int64(1), st.VisitorsArrived)
	assert.Zero(t, st.VisitorsLeft)
	assert.Equal(t, int64(2), st.DroppedAfterClose)
}

func TestMetricsSink_CloseTwiceIsSafe(t *testing.T) {
	sink := NewMetricsSink(16, nil)
	sink.Start()
	sink.Close()
	sink.Close()
}

func TestMetricsSink_ObserverSeesAppliedOrder(t *testing.T) {
	// GIVEN a sink with an event tee attached
	cap := &eventCapture{}
	sink := NewMetricsSink(64, cap)
	sink.Start()

	sink.Emit(MetricEvent{Kind: EventVisitorArrived, Visitor: "visitor_0"})
	sink.Emit(MetricEvent{Kind: EventRideBoarded, Resource: "coaster"})
	sink.Emit(MetricEvent{Kind: EventVisitorLeft, Visitor: "visitor_0"})
	sink.Close()

	// THEN the observer saw every event in application order
	got := cap.all()
	require.Len(t, got, 3)
	assert.Equal(t, EventVisitorArrived, got[0].Kind)
	assert.Equal(t, EventRideBoarded, got[1].Kind)
	assert.Equal(t, EventVisitorLeft, got[2].Kind)
}

func TestMetricsSink_ConcurrentEmitters(t *testing.T) {
	// GIVEN many producer goroutines sharing one sink
	sink := NewMetricsSink(64, nil)
	sink.Start()

	var wg sync.WaitGroup
	const producers, perProducer = 8, 250
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				sink.Emit(MetricEvent{Kind: EventVisitorArrived})
			}
		}()
	}

	// Snapshot mid-flight must not disturb the count
	_ = sink.Snapshot()

	wg.Wait()
	sink.Close()

	st := sink.Snapshot()
	assert.Equal(t, int64(producers*perProducer), st.VisitorsArrived)
}

func TestWaitStats_NoSamples(t *testing.T) {
	ws := waitStats(nil, 0, 0)

	assert.Zero(t, ws.Count)
	assert.Zero(t, ws.Avg)
	assert.Zero(t, ws.Max)
	assert.Zero(t, ws.P50)
}

func TestSortedKeys_StableOrder(t *testing.T) {
	m := map[string]int64{"teacups": 1, "coaster": 2, "log_flume": 3}

	assert.Equal(t, []string{"coaster", "log_flume", "teacups"}, sortedKeys(m))
}
