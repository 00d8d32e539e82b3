// Defines the MetricEvent emitted by every actor and machine, one per
// observable occurrence. Events are the only channel between the
// simulation and its aggregation/export side.

package sim

// EventKind names one observable occurrence in the park.
type EventKind string

const (
	EventVisitorArrived   EventKind = "visitor_arrived"   // generator admitted a visitor
	EventVisitorLeft      EventKind = "visitor_left"      // Value = minutes in park, Item = reason
	EventRideBoarded      EventKind = "ride_boarded"      // Wait = queue minutes before boarding
	EventRideCompleted    EventKind = "ride_completed"    // one per rider per finished cycle; Wait as boarded
	EventRideCycle        EventKind = "ride_cycle"        // one per cycle; Value = riders aboard
	EventRideBreakdown    EventKind = "ride_breakdown"    // RUNNING drew a breakdown
	EventRideRepaired     EventKind = "ride_repaired"     // maintenance finished, ride loading again
	EventEvacuated        EventKind = "evacuated"         // visitor unwound before service finished; Item = onboard|queued|in_service
	EventFacilityServed   EventKind = "facility_served"   // Wait = queue minutes, Value = dollars, Item = purchase
	EventPurchaseDeclined EventKind = "purchase_declined" // no catalog item within the visitor's budget
	EventRejectedHeight   EventKind = "rejected_height"   // admission refused: below the ride minimum
	EventRejectedParty    EventKind = "rejected_party"    // admission refused: party larger than one batch; Value = party size
	EventQueueFull        EventKind = "queue_full"        // admission timed out waiting for queue capacity
	EventGroupFormed      EventKind = "group_formed"      // Value = member count
	EventShutdownAnomaly  EventKind = "shutdown_anomaly"  // Value = goroutines still running after grace
)

// MetricEvent is one append-only observation. Kinds reuse the generic
// fields: Wait carries queue minutes where the kind has one, Value carries
// the kind's magnitude (dollars, riders, minutes), Item carries a catalog
// item or reason tag.
type MetricEvent struct {
	At       SimTime
	Kind     EventKind
	Resource string
	Visitor  string
	Wait     int64
	Value    float64
	Item     string
}
