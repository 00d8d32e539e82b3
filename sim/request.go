// Defines the Request message a visitor submits to a resource, and the
// Outcome the resource sends back on the request's reply channel.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// OutcomeKind classifies how a request left its resource.
type OutcomeKind string

const (
	// OutcomeCompleted: the visitor was served (rode the ride, was served
	// by the facility).
	OutcomeCompleted OutcomeKind = "completed"
	// OutcomeEvacuated: the resource unwound at shutdown, or a queued
	// request was drained, before service finished.
	OutcomeEvacuated OutcomeKind = "evacuated"
	// OutcomeDeclined: the facility could not serve the request, e.g. no
	// catalog item fits the visitor's remaining budget.
	OutcomeDeclined OutcomeKind = "declined"
)

// Outcome is the single reply a resource sends for a request.
type Outcome struct {
	Kind      OutcomeKind
	At        SimTime // simulated minute the outcome was produced
	WaitTicks int64   // minutes between admission and service start
	Cost      float64 // dollars charged (facilities only)
	Item      string  // catalog item purchased (facilities only)
}

// Request is the immutable message a visitor submits when asking to use a
// resource. The park stamps EnqueuedAt at admission; the target resource
// sends exactly one Outcome on Reply. Reply is buffered so the resource
// never blocks on a visitor that has already unwound.
type Request struct {
	VisitorID string
	Resource  string
	PartySize int     // seats required; >1 is a grouped request, seated all-or-none
	HeightCM  int     // shortest member's height for grouped requests
	Budget    float64 // spending-money snapshot for catalog affordability
	FastPass  bool    // routes the request to the priority lane when the ride has one

	EnqueuedAt SimTime // stamped by park admission
	BoardedAt  SimTime // stamped when service starts
	Reply      chan Outcome
}

// NewRequest builds a request with a buffered reply channel. PartySize
// values below 1 are treated as a solo request.
func NewRequest(visitorID, resource string) *Request {
	return &Request{
		VisitorID: visitorID,
		Resource:  resource,
		PartySize: 1,
		Reply:     make(chan Outcome, 1),
	}
}

// seats returns the capacity this request reserves in a ride batch.
func (r *Request) seats() int {
	if r.PartySize < 1 {
		return 1
	}
	return r.PartySize
}

// resolve delivers the request's single outcome. A request is resolved
// exactly once; a second resolve is a machine bug and is dropped loudly
// rather than deadlocking the resource loop.
func (r *Request) resolve(o Outcome) {
	select {
	case r.Reply <- o:
	default:
		logrus.Errorf("request %s/%s resolved twice, dropping %s", r.VisitorID, r.Resource, o.Kind)
	}
}

func (r *Request) String() string {
	return fmt.Sprintf("Request: (Visitor: %s, Resource: %s, Party: %d, EnqueuedAt: %d)",
		r.VisitorID, r.Resource, r.seats(), r.EnqueuedAt)
}
