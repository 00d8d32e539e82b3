package sim

import "fmt"

// AdmitCode classifies the park's central admission decision for one
// request. Rejections are typed outcomes of normal operation, never errors;
// only unknown resources indicate a caller bug.
type AdmitCode int

const (
	AdmitQueued          AdmitCode = iota // request accepted into the resource's queue
	AdmitQueueFull                        // queue stayed full past the caller's patience
	AdmitRejectedHeight                   // shortest party member below the ride minimum
	AdmitRejectedParty                    // party needs more seats than one batch can hold
	AdmitUnknownResource                  // no such resource in the registry
	AdmitStopped                          // stop signal preempted the admission wait
)

func (c AdmitCode) String() string {
	switch c {
	case AdmitQueued:
		return "queued"
	case AdmitQueueFull:
		return "queue_full"
	case AdmitRejectedHeight:
		return "rejected_height"
	case AdmitRejectedParty:
		return "rejected_party"
	case AdmitUnknownResource:
		return "unknown_resource"
	case AdmitStopped:
		return "stopped"
	default:
		return fmt.Sprintf("admit_code_%d", int(c))
	}
}

// AdmitResult is the park's answer to RequestResource. Request is non-nil
// only for AdmitQueued; the visitor then awaits the request's Outcome.
type AdmitResult struct {
	Code     AdmitCode
	Resource string
	Request  *Request
	Reason   string // human-readable detail for rejections
}
