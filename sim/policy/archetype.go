package policy

import (
	"math/rand"

	"github.com/parksim/parksim/sim"
)

// Spending floors the policies reason with. The cheapest catalog items set
// the scale: a visitor who cannot afford water is broke.
const (
	cheapestMeal   = 2.0 // bottled water
	minMerchBudget = 10.0
	starvingHunger = 2.0 // leave rather than queue hungry and broke
	queueCooldown  = 15  // ticks to avoid a ride after a queue-full turnaway
)

// profile captures one archetype's tastes and pacing. The ridePref score
// feeds the chooser; zero removes a ride from consideration entirely.
type profile struct {
	name            string
	patience        int64   // admission-wait tolerance in ticks
	bathroomEvery   int64   // ticks between bathroom stops
	merchImpulse    float64 // per-round probability of a souvenir urge
	hungerThreshold float64 // eat once hunger climbs past this
	chooser         Chooser
	ridePref        func(info sim.RideInfo) float64
}

func childProfile() profile {
	return profile{
		name:            "child",
		patience:        3,
		bathroomEvery:   90,
		merchImpulse:    0.10,
		hungerThreshold: 1.0,
		chooser:         WeightedChoice{},
		ridePref: func(info sim.RideInfo) float64 {
			// Gentle rides first; anything with a height bar is scary.
			switch {
			case info.MinHeightCM == 0:
				return 3.0
			case info.MinHeightCM <= 110:
				return 2.0
			default:
				return 0.6
			}
		},
	}
}

func touristProfile() profile {
	return profile{
		name:            "tourist",
		patience:        6,
		bathroomEvery:   180,
		merchImpulse:    0.30,
		hungerThreshold: 1.2,
		chooser:         UniformChoice{},
		ridePref: func(info sim.RideInfo) float64 {
			if info.MinHeightCM == 0 {
				return 1.5 // the postcard rides
			}
			return 1.0
		},
	}
}

func thrillProfile() profile {
	return profile{
		name:            "thrill",
		patience:        10,
		bathroomEvery:   240,
		merchImpulse:    0.025,
		hungerThreshold: 1.5,
		chooser:         WeightedChoice{},
		ridePref: func(info sim.RideInfo) float64 {
			// The height bar is a decent intensity proxy.
			return 0.5 + float64(info.MinHeightCM)/60.0
		},
	}
}

// Archetype is the standard visitor brain: a priority ladder over needs
// (energy, bathroom, hunger, souvenirs) with rides filling the rest of the
// day. All draws come from the visitor's own RNG stream, so one visitor's
// day replays identically under the same seed.
type Archetype struct {
	prof profile
	rng  *rand.Rand

	started      bool
	lastNow      sim.SimTime
	lastBathroom sim.SimTime
	wantBathroom bool
	avoidUntil   map[string]sim.SimTime // queue-full cooldowns
	barred       map[string]bool        // height-rejected rides, permanent
}

func newArchetype(prof profile, rng *rand.Rand) *Archetype {
	return &Archetype{
		prof:       prof,
		rng:        rng,
		avoidUntil: make(map[string]sim.SimTime),
		barred:     make(map[string]bool),
	}
}

func (a *Archetype) Name() string { return a.prof.name }

// Decide runs one round of the priority ladder, advancing the visitor's
// hunger and energy bookkeeping first.
func (a *Archetype) Decide(now sim.SimTime, self *sim.VisitorRecord, view sim.ParkView) sim.Action {
	if !a.started {
		a.started = true
		a.lastBathroom = now
	}
	a.lastNow = now
	a.wantBathroom = false

	self.Hunger += 0.3 + a.rng.Float64()*0.5
	self.Energy -= 0.2 + a.rng.Float64()*0.3

	if self.Energy <= 0 {
		self.Intent = "exhausted"
		return sim.Action{Kind: sim.ActionLeave}
	}

	if now-a.lastBathroom >= sim.SimTime(a.prof.bathroomEvery) {
		if name := nearestFacility(view, sim.FacilityBathroom); name != "" {
			a.lastBathroom = now
			a.wantBathroom = true
			self.Intent = "bathroom"
			return sim.Action{Kind: sim.ActionBathroom, Resource: name, Patience: a.prof.patience}
		}
	}

	if self.Hunger >= a.prof.hungerThreshold {
		if self.Budget < cheapestMeal {
			if self.Hunger >= starvingHunger {
				self.Intent = "broke"
				return sim.Action{Kind: sim.ActionLeave}
			}
		} else if name := nearestFacility(view, sim.FacilityFood); name != "" {
			self.Intent = "eat"
			return sim.Action{Kind: sim.ActionEat, Resource: name, Patience: a.prof.patience}
		}
	}

	if self.Budget >= minMerchBudget && a.rng.Float64() < a.prof.merchImpulse {
		if name := nearestFacility(view, sim.FacilityMerch); name != "" {
			self.Intent = "shop"
			return sim.Action{Kind: sim.ActionShop, Resource: name, Patience: a.prof.patience}
		}
	}

	if name := a.pickRide(now, self, view); name != "" {
		self.Intent = "ride"
		return sim.Action{Kind: sim.ActionRide, Resource: name, Patience: a.prof.patience}
	}

	self.Intent = "stroll"
	return sim.Action{Kind: sim.ActionIdle, IdleTicks: 1 + int64(a.rng.Intn(3))}
}

// pickRide scores the eligible rides and hands the list to the chooser.
// Grouped visitors measure against the shortest member so the whole party
// clears the height bar together.
func (a *Archetype) pickRide(now sim.SimTime, self *sim.VisitorRecord, view sim.ParkView) string {
	height := self.HeightCM
	if self.GroupID != "" && self.GroupMinHeight > 0 && self.GroupMinHeight < height {
		height = self.GroupMinHeight
	}

	var names []string
	var weights []float64
	for _, info := range view.Rides {
		if a.barred[info.Name] || info.MinHeightCM > height {
			continue
		}
		if until, ok := a.avoidUntil[info.Name]; ok && now < until {
			continue
		}
		w := a.prof.ridePref(info)
		if info.State == sim.RideMaintenance {
			w *= 0.25 // the queue stays open, but who lines up at a closed gate
		}
		w /= 1.0 + float64(info.QueueLen)/10.0
		if w <= 0 {
			continue
		}
		names = append(names, info.Name)
		weights = append(weights, w)
	}
	if len(names) == 0 {
		return ""
	}
	return a.prof.chooser.Pick(a.rng, names, weights)
}

// Observe reacts to typed admission rejections: a height or party-size
// rejection bars the ride for good, a full queue earns a cooldown, and an
// interrupted bathroom attempt re-arms the urgency.
func (a *Archetype) Observe(result sim.AdmitResult) {
	switch result.Code {
	case sim.AdmitRejectedHeight, sim.AdmitRejectedParty:
		a.barred[result.Resource] = true
	case sim.AdmitQueueFull:
		a.avoidUntil[result.Resource] = a.lastNow + queueCooldown
	}
	if a.wantBathroom {
		a.lastBathroom = a.lastNow - sim.SimTime(a.prof.bathroomEvery)
		a.wantBathroom = false
	}
}

// nearestFacility picks the shortest queue of the given kind; ties go to
// the first in view order.
func nearestFacility(view sim.ParkView, kind sim.FacilityKind) string {
	best := ""
	bestLen := 0
	for _, f := range view.Facilities {
		if f.Kind != kind {
			continue
		}
		if best == "" || f.QueueLen < bestLen {
			best = f.Name
			bestLen = f.QueueLen
		}
	}
	return best
}
