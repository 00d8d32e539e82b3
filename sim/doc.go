// Package sim provides the core discrete-event engine for parksim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - clock.go: the tick barrier every goroutine sleeps on, and the stop protocol
//   - park.go: registry construction, admission, and the two-phase shutdown
//   - ride.go: the LOADING → RUNNING → UNLOADING cycle and breakdown handling
//
// # Architecture
//
// The sim package owns the engine; satellites live in sub-packages:
//   - sim/workload/: arrival plans and the generator that admits them
//   - sim/policy/: visitor decision policies (archetypes, wandering)
//   - sim/social/: the group rendezvous barrier
//   - sim/trace/: event export to JSONL
//
// Everything in the park shares one Clock. Rides and facilities run as
// goroutines that pull from bounded queues; visitors run as actors that
// submit requests through the Park and block on per-request reply
// channels. All randomness flows from a single seed through named
// PartitionedRNG streams, so a run is reproducible regardless of
// goroutine interleaving.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - DecisionPolicy: pick the visitor's next action each round
//   - GroupGate: rendezvous barrier for grouped visitors
//   - EventObserver: tap the event stream from inside the sink loop
package sim
