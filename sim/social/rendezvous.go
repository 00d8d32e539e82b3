// Package social provides the rendezvous primitive grouped visitors
// coordinate through. It is deliberately outside the engine core: the park
// knows nothing about groups beyond the PartySize on a request, and the
// gate knows nothing about rides. Visitors meet here, then act.
package social

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// group is one registered party's barrier state. gate is the current
// generation: closed to release everyone, then replaced for reuse.
type group struct {
	expected  int
	arrived   int
	gate      chan struct{}
	dissolved bool
}

// Rendezvous is a reusable barrier per group id. A group is registered once
// with its expected size; members then meet any number of times. All state
// transitions happen under one mutex, but no caller ever holds it while
// waiting.
type Rendezvous struct {
	mu     sync.Mutex
	groups map[string]*group
}

func NewRendezvous() *Rendezvous {
	return &Rendezvous{groups: make(map[string]*group)}
}

// Register creates the barrier for a group of the given size. Must run
// before any member's actor starts. Re-registering an id is ignored; sizes
// below 2 need no barrier and register nothing.
func (r *Rendezvous) Register(groupID string, size int) {
	if size < 2 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[groupID]; ok {
		logrus.Warnf("group %s already registered, keeping the first registration", groupID)
		return
	}
	r.groups[groupID] = &group{expected: size, gate: make(chan struct{})}
}

// Arrive blocks until every remaining member of the group is present, then
// all are released together. Unknown or dissolved groups pass straight
// through. Returns ctx.Err() when the wait is cancelled; a cancelled member
// is uncounted so the rest can still meet.
func (r *Rendezvous) Arrive(ctx context.Context, groupID string) error {
	r.mu.Lock()
	g, ok := r.groups[groupID]
	if !ok || g.dissolved {
		r.mu.Unlock()
		return nil
	}
	g.arrived++
	if g.arrived >= g.expected {
		r.releaseLocked(g)
		r.mu.Unlock()
		return nil
	}
	gate := g.gate
	r.mu.Unlock()

	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		defer r.mu.Unlock()
		select {
		case <-gate:
			// Released while we were being cancelled; count it as met.
			return nil
		default:
		}
		if g.gate == gate {
			g.arrived--
		}
		return ctx.Err()
	}
}

// Depart removes a member for good. A follower leaving shrinks the group;
// the leader leaving dissolves it, since a leaderless party cannot act
// together. Either way anyone currently waiting is released.
func (r *Rendezvous) Depart(groupID string, leader bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok || g.dissolved {
		return
	}
	g.expected--
	if leader || g.expected <= 1 {
		g.dissolved = true
	}
	if g.dissolved || g.arrived >= g.expected {
		r.releaseLocked(g)
	}
	if g.dissolved {
		delete(r.groups, groupID)
	}
}

// Size reports the remaining membership of a group; 1 for unknown or
// dissolved groups, so callers can fall back to acting solo.
func (r *Rendezvous) Size(groupID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok || g.dissolved {
		return 1
	}
	return g.expected
}

// Groups reports how many live groups are registered.
func (r *Rendezvous) Groups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

// releaseLocked opens the current generation and arms the next one.
// Callers hold r.mu.
func (r *Rendezvous) releaseLocked(g *group) {
	close(g.gate)
	g.gate = make(chan struct{})
	g.arrived = 0
}
