package cmd

import (
	"github.com/parksim/parksim/sim"
	"github.com/parksim/parksim/sim/workload"
)

// DefaultParkFile returns the built-in park: nine rides spanning the gentle
// to white-knuckle range, five food stops, three merch stands, and five
// bathrooms. Used when no --config file is given; examples/park.yaml
// mirrors it.
func DefaultParkFile() *ParkFile {
	return &ParkFile{
		Engine: sim.Config{
			Seed:         42,
			HorizonTicks: 480, // a 9-to-5 park day in simulated minutes
			Rides:        defaultRides(),
			Facilities:   defaultFacilities(),
		},
		Arrivals: workload.PlanSpec{
			Rate:        0.625,
			MaxVisitors: 300,
		},
	}
}

func defaultRides() []sim.RideConfig {
	return []sim.RideConfig{
		{Name: "roller_coaster", Capacity: 24, CycleTicks: 5, BreakProbability: 0.03,
			MaintenanceTicks: 15, MinHeightCM: 140, QueueCapacity: 40, BoardWindowTicks: 2, FastPassShare: 0.25},
		{Name: "drop_tower", Capacity: 16, CycleTicks: 4, BreakProbability: 0.04,
			MaintenanceTicks: 12, MinHeightCM: 145, QueueCapacity: 30, BoardWindowTicks: 2, FastPassShare: 0.25},
		{Name: "ferris_wheel", Capacity: 32, CycleTicks: 8, BreakProbability: 0.01,
			MaintenanceTicks: 10, MinHeightCM: 0, QueueCapacity: 50, BoardWindowTicks: 3},
		{Name: "haunted_house", Capacity: 20, CycleTicks: 6, BreakProbability: 0.02,
			MaintenanceTicks: 8, MinHeightCM: 140, QueueCapacity: 35, BoardWindowTicks: 2, FastPassShare: 0.2},
		{Name: "teacups", Capacity: 16, CycleTicks: 4, BreakProbability: 0.02,
			MaintenanceTicks: 6, MinHeightCM: 100, QueueCapacity: 25, BoardWindowTicks: 2},
		{Name: "bumper_cars", Capacity: 20, CycleTicks: 5, BreakProbability: 0.03,
			MaintenanceTicks: 7, MinHeightCM: 110, QueueCapacity: 30, BoardWindowTicks: 2},
		{Name: "splash_mountain", Capacity: 28, CycleTicks: 7, BreakProbability: 0.03,
			MaintenanceTicks: 14, MinHeightCM: 120, QueueCapacity: 45, BoardWindowTicks: 2, FastPassShare: 0.25},
		{Name: "space_simulator", Capacity: 12, CycleTicks: 6, BreakProbability: 0.05,
			MaintenanceTicks: 20, MinHeightCM: 120, QueueCapacity: 25, BoardWindowTicks: 4, FastPassShare: 0.3},
		{Name: "carousel", Capacity: 24, CycleTicks: 5, BreakProbability: 0.01,
			MaintenanceTicks: 5, MinHeightCM: 0, QueueCapacity: 30, BoardWindowTicks: 2},
	}
}

func defaultFacilities() []sim.FacilityConfig {
	return []sim.FacilityConfig{
		{Name: "food_court_grill", Kind: sim.FacilityFood, Servers: 3,
			ServiceMinTicks: 2, ServiceMaxTicks: 5, QueueCapacity: 20,
			Catalog: []sim.CatalogItem{
				{Item: "burger", Price: 8}, {Item: "fries", Price: 4}, {Item: "soda", Price: 3},
			}},
		{Name: "hot_dog_cart", Kind: sim.FacilityFood, Servers: 1,
			ServiceMinTicks: 1, ServiceMaxTicks: 3, QueueCapacity: 10,
			Catalog: []sim.CatalogItem{
				{Item: "hot_dog", Price: 5}, {Item: "soda", Price: 3}, {Item: "water", Price: 2},
			}},
		{Name: "pizza_stand", Kind: sim.FacilityFood, Servers: 2,
			ServiceMinTicks: 2, ServiceMaxTicks: 4, QueueCapacity: 15,
			Catalog: []sim.CatalogItem{
				{Item: "pizza_slice", Price: 6}, {Item: "soda", Price: 3}, {Item: "water", Price: 2},
			}},
		{Name: "snack_shack", Kind: sim.FacilityFood, Servers: 2,
			ServiceMinTicks: 1, ServiceMaxTicks: 3, QueueCapacity: 12,
			Catalog: []sim.CatalogItem{
				{Item: "nachos", Price: 7}, {Item: "fries", Price: 4}, {Item: "soda", Price: 3},
			}},
		{Name: "ice_cream_cart", Kind: sim.FacilityFood, Servers: 1,
			ServiceMinTicks: 1, ServiceMaxTicks: 2, QueueCapacity: 10,
			Catalog: []sim.CatalogItem{
				{Item: "ice_cream", Price: 4}, {Item: "water", Price: 2},
			}},

		{Name: "gift_emporium", Kind: sim.FacilityMerch, Servers: 2,
			ServiceMinTicks: 2, ServiceMaxTicks: 6, QueueCapacity: 12,
			Catalog: []sim.CatalogItem{
				{Item: "hoodie", Price: 30}, {Item: "t_shirt", Price: 20}, {Item: "poster", Price: 10},
			}},
		{Name: "hat_stand", Kind: sim.FacilityMerch, Servers: 1,
			ServiceMinTicks: 1, ServiceMaxTicks: 3, QueueCapacity: 8,
			Catalog: []sim.CatalogItem{
				{Item: "hat", Price: 15}, {Item: "keychain", Price: 7}, {Item: "sticker", Price: 5},
			}},
		{Name: "souvenir_kiosk", Kind: sim.FacilityMerch, Servers: 1,
			ServiceMinTicks: 1, ServiceMaxTicks: 4, QueueCapacity: 10,
			Catalog: []sim.CatalogItem{
				{Item: "t_shirt", Price: 20}, {Item: "poster", Price: 10},
				{Item: "keychain", Price: 7}, {Item: "sticker", Price: 5},
			}},

		{Name: "bathroom_north", Kind: sim.FacilityBathroom, Servers: 6,
			ServiceMinTicks: 1, ServiceMaxTicks: 3, QueueCapacity: 30},
		{Name: "bathroom_south", Kind: sim.FacilityBathroom, Servers: 6,
			ServiceMinTicks: 1, ServiceMaxTicks: 3, QueueCapacity: 30},
		{Name: "bathroom_east", Kind: sim.FacilityBathroom, Servers: 4,
			ServiceMinTicks: 1, ServiceMaxTicks: 3, QueueCapacity: 20},
		{Name: "bathroom_west", Kind: sim.FacilityBathroom, Servers: 4,
			ServiceMinTicks: 1, ServiceMaxTicks: 3, QueueCapacity: 20},
		{Name: "bathroom_central", Kind: sim.FacilityBathroom, Servers: 8,
			ServiceMinTicks: 1, ServiceMaxTicks: 3, QueueCapacity: 40},
	}
}
