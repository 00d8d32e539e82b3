package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksim/parksim/sim"
)

func newTestArchetype(t *testing.T, name string, seed int64) *Archetype {
	t.Helper()
	p, err := New(name, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	arch, ok := p.(*Archetype)
	require.True(t, ok, "%s should be an archetype", name)
	return arch
}

func TestArchetype_ExhaustionAlwaysLeaves(t *testing.T) {
	a := newTestArchetype(t, "tourist", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 170, Budget: 100, Energy: 0.1}

	// The per-round drain is at least 0.2, so 0.1 never survives a decision.
	action := a.Decide(0, rec, sim.ParkView{})
	assert.Equal(t, sim.ActionLeave, action.Kind)
	assert.Equal(t, "exhausted", rec.Intent)
}

func TestArchetype_BathroomUrgencyFollowsSchedule(t *testing.T) {
	// GIVEN a child (bathroom every 90 min) in a park with one restroom
	a := newTestArchetype(t, "child", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 100, Budget: 100, Energy: 50}
	view := sim.ParkView{Facilities: []sim.FacilityInfo{
		{Name: "restroom", Kind: sim.FacilityBathroom},
	}}

	// WHEN the day starts, nothing is urgent yet
	first := a.Decide(0, rec, view)
	assert.NotEqual(t, sim.ActionBathroom, first.Kind)

	early := a.Decide(89, rec, view)
	assert.NotEqual(t, sim.ActionBathroom, early.Kind)

	// THEN the urge fires right on schedule
	due := a.Decide(90, rec, view)
	assert.Equal(t, sim.ActionBathroom, due.Kind)
	assert.Equal(t, "restroom", due.Resource)
	assert.Equal(t, int64(3), due.Patience)
	assert.Equal(t, "bathroom", rec.Intent)
}

func TestArchetype_InterruptedBathroomRearmsUrgency(t *testing.T) {
	a := newTestArchetype(t, "child", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 100, Budget: 100, Energy: 50}
	view := sim.ParkView{Facilities: []sim.FacilityInfo{
		{Name: "restroom", Kind: sim.FacilityBathroom},
	}}

	a.Decide(0, rec, view)
	require.Equal(t, sim.ActionBathroom, a.Decide(90, rec, view).Kind)

	// WHEN the restroom queue was full, the need does not go away
	a.Observe(sim.AdmitResult{Code: sim.AdmitQueueFull, Resource: "restroom"})

	retry := a.Decide(91, rec, view)
	assert.Equal(t, sim.ActionBathroom, retry.Kind)
}

func TestArchetype_HungerSendsToShortestFoodQueue(t *testing.T) {
	// GIVEN a hungry tourist and two food stands with different lines
	a := newTestArchetype(t, "tourist", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 170, Budget: 50, Energy: 50, Hunger: 1.5}
	view := sim.ParkView{Facilities: []sim.FacilityInfo{
		{Name: "grill", Kind: sim.FacilityFood, QueueLen: 5},
		{Name: "stand", Kind: sim.FacilityFood, QueueLen: 1},
	}}

	action := a.Decide(0, rec, view)
	assert.Equal(t, sim.ActionEat, action.Kind)
	assert.Equal(t, "stand", action.Resource)
	assert.Equal(t, int64(6), action.Patience)
	assert.Equal(t, "eat", rec.Intent)
}

func TestArchetype_StarvingAndBrokeLeaves(t *testing.T) {
	a := newTestArchetype(t, "tourist", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 170, Budget: 1, Energy: 50, Hunger: 2.5}
	view := sim.ParkView{Facilities: []sim.FacilityInfo{
		{Name: "grill", Kind: sim.FacilityFood},
	}}

	action := a.Decide(0, rec, view)
	assert.Equal(t, sim.ActionLeave, action.Kind)
	assert.Equal(t, "broke", rec.Intent)
}

func TestArchetype_BrokeButNotStarvingKeepsRiding(t *testing.T) {
	// Hunger lands in [1.3, 1.8] after the round bump: past the threshold
	// but short of starving, with no money for food.
	a := newTestArchetype(t, "tourist", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 170, Budget: 1, Energy: 50, Hunger: 1.0}
	view := sim.ParkView{
		Rides:      []sim.RideInfo{{Name: "carousel"}},
		Facilities: []sim.FacilityInfo{{Name: "grill", Kind: sim.FacilityFood}},
	}

	action := a.Decide(0, rec, view)
	assert.Equal(t, sim.ActionRide, action.Kind)
	assert.Equal(t, "carousel", action.Resource)
}

func TestArchetype_HeightBarFiltersCandidates(t *testing.T) {
	// GIVEN a 100cm child facing three rides with rising height bars
	a := newTestArchetype(t, "child", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 100, Budget: 5, Energy: 50}
	view := sim.ParkView{Rides: []sim.RideInfo{
		{Name: "kiddie", MinHeightCM: 0},
		{Name: "medium", MinHeightCM: 110},
		{Name: "big", MinHeightCM: 140},
	}}

	// THEN only the barless ride is ever chosen
	for i := 0; i < 20; i++ {
		action := a.Decide(sim.SimTime(i), rec, view)
		if action.Kind == sim.ActionRide {
			assert.Equal(t, "kiddie", action.Resource)
		}
	}
}

func TestArchetype_RejectionsBarRidesForGood(t *testing.T) {
	a := newTestArchetype(t, "thrill", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 150, Budget: 5, Energy: 100}
	view := sim.ParkView{Rides: []sim.RideInfo{
		{Name: "kiddie"},
		{Name: "big", MinHeightCM: 140},
	}}

	// WHEN the door turned the visitor away once per ride
	a.Observe(sim.AdmitResult{Code: sim.AdmitRejectedHeight, Resource: "big"})
	a.Observe(sim.AdmitResult{Code: sim.AdmitRejectedParty, Resource: "kiddie"})

	// THEN neither ride is attempted again, ever
	for i := 0; i < 30; i++ {
		action := a.Decide(sim.SimTime(i), rec, view)
		assert.NotEqual(t, sim.ActionRide, action.Kind, "round %d picked %s", i, action.Resource)
	}
}

func TestArchetype_QueueFullCooldownExpires(t *testing.T) {
	// GIVEN a thrill-seeker turned away from a full coaster queue at tick 10
	a := newTestArchetype(t, "thrill", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 170, Budget: 5, Energy: 200}
	view := sim.ParkView{Rides: []sim.RideInfo{{Name: "coaster", MinHeightCM: 140}}}

	require.Equal(t, sim.ActionRide, a.Decide(10, rec, view).Kind)
	a.Observe(sim.AdmitResult{Code: sim.AdmitQueueFull, Resource: "coaster"})

	// THEN the ride sits out the cooldown and comes back afterwards
	assert.NotEqual(t, sim.ActionRide, a.Decide(11, rec, view).Kind)
	assert.NotEqual(t, sim.ActionRide, a.Decide(24, rec, view).Kind)
	assert.Equal(t, sim.ActionRide, a.Decide(25, rec, view).Kind)
}

func TestArchetype_MaintenanceDampensButKeepsQueueOpen(t *testing.T) {
	a := newTestArchetype(t, "thrill", 1)
	rec := &sim.VisitorRecord{ID: "v1", HeightCM: 170, Budget: 5, Energy: 50}
	view := sim.ParkView{Rides: []sim.RideInfo{
		{Name: "coaster", MinHeightCM: 140, State: sim.RideMaintenance},
	}}

	// A broken ride is less appealing, never off limits.
	action := a.Decide(0, rec, view)
	assert.Equal(t, sim.ActionRide, action.Kind)
	assert.Equal(t, "coaster", action.Resource)
}

func TestArchetype_GroupMeasuresShortestMember(t *testing.T) {
	// GIVEN a tall leader towing a 100cm member
	a := newTestArchetype(t, "thrill", 1)
	rec := &sim.VisitorRecord{
		ID: "v1", HeightCM: 180, Budget: 5, Energy: 50,
		GroupID: "g1", GroupMinHeight: 100,
	}
	view := sim.ParkView{Rides: []sim.RideInfo{{Name: "big", MinHeightCM: 140}}}

	// THEN the party never even queues for what the shortest cannot ride
	action := a.Decide(0, rec, view)
	assert.NotEqual(t, sim.ActionRide, action.Kind)

	// Alone, the same visitor goes straight for it.
	solo := newTestArchetype(t, "thrill", 1)
	soloRec := &sim.VisitorRecord{ID: "v2", HeightCM: 180, Budget: 5, Energy: 50}
	assert.Equal(t, sim.ActionRide, solo.Decide(0, soloRec, view).Kind)
}

func TestArchetype_LongQueuesLowerTheOdds(t *testing.T) {
	// Two identical rides, one with a monster line. The child archetype
	// draws weighted, and the damping turns 200 people into 21:1 odds.
	a := newTestArchetype(t, "child", 9)
	view := sim.ParkView{Rides: []sim.RideInfo{
		{Name: "short_line", QueueLen: 0},
		{Name: "long_line", QueueLen: 200},
	}}

	shortPicks, ridePicks := 0, 0
	for i := 0; i < 400; i++ {
		rec := &sim.VisitorRecord{ID: "v1", HeightCM: 100, Budget: 5, Energy: 50}
		action := a.Decide(sim.SimTime(i), rec, view)
		if action.Kind != sim.ActionRide {
			continue
		}
		ridePicks++
		if action.Resource == "short_line" {
			shortPicks++
		}
	}
	require.Greater(t, ridePicks, 100)
	assert.Greater(t, float64(shortPicks)/float64(ridePicks), 0.8)
}
