package npc

import (
	"fmt"
	"math/rand/v2"
)

var firstNames = []string{
	"Aiko", "Anders", "Brennan", "Cassia", "Dmitri", "Elena", "Farouk",
	"Greta", "Hector", "Imani", "Joaquin", "Katya", "Lars", "Mireille",
	"Nadia", "Oskar", "Priya", "Quentin", "Rosa", "Sanjay", "Talia",
	"Ulrich", "Valentina", "Wen", "Xiomara", "Yusuf", "Zora", "Callum",
	"Delphine", "Emeka", "Freya", "Gideon", "Harlan", "Ingrid", "Jonas",
}

var lastNames = []string{
	"Abara", "Bishop", "Castellanos", "Dietrich", "Eriksen", "Fontaine",
	"Guerrero", "Halvorsen", "Ishikawa", "Jansen", "Kowalski", "Lindqvist",
	"Moreau", "Nakamura", "Okafor", "Petrov", "Quintana", "Reyes",
	"Sorensen", "Takahashi", "Ueda", "Vasquez", "Winters", "Yamada",
	"Zielinski", "Ashford", "Brandt", "Calloway", "Duarte", "Engel",
}

var callsignPrefixes = []string{
	"Drifter", "Vector", "Halo", "Comet", "Rogue", "Ember", "Static",
	"Specter", "Lancer", "Nomad", "Pulse", "Raven", "Cinder", "Echo",
	"Marauder", "Zenith", "Warden", "Onyx", "Falcon", "Tempest",
}

var shipNames = []string{
	"Second Chance", "Long Haul", "Rust Bucket", "Dawn Treader",
	"Empty Pockets", "Iron Promise", "Quiet Debt", "Last Light",
	"Slow Burn", "Distant Shore", "Broken Compass", "Fair Wind",
	"Stubborn Mule", "Dust Runner", "Patient Wolf", "Cold Comfort",
}

var shipTypes = []string{
	"light freighter", "heavy hauler", "courier skiff", "salvage rig",
	"patrol cutter", "mining barge", "passenger shuttle", "scout frigate",
}

var personalities = []string{
	"gruff but fair", "chatty", "suspicious of strangers", "easygoing",
	"meticulous", "superstitious", "world-weary", "ambitious",
	"quietly religious", "terminally bored", "cheerfully cynical",
}

// occupationsByTypeTier maps location type to wealth-tier occupation
// pools. Tier 0 is poor (wealth 1-3), 1 is middling (4-7), 2 is rich
// (8-10).
var occupationsByTypeTier = map[string][3][]string{
	"colony": {
		{"scrap sorter", "hydroponics hand", "dust miner", "dock sweeper"},
		{"terraform tech", "granary clerk", "habitat engineer", "surveyor"},
		{"colonial administrator", "estate manager", "trade negotiator"},
	},
	"space_station": {
		{"cargo loader", "recycler tech", "vent cleaner", "bar runner"},
		{"docking controller", "customs officer", "shop steward", "mechanic"},
		{"stationmaster", "commodities broker", "fleet liaison"},
	},
	"outpost": {
		{"fuel jockey", "claim watcher", "relay minder"},
		{"prospector", "supply clerk", "beacon tech"},
		{"outpost commander", "survey chief"},
	},
	"gate": {
		{"decon scrubber", "maintenance hand"},
		{"gate technician", "traffic controller"},
		{"gate supervisor"},
	},
}

var tradeSpecialties = []string{
	"salvaged electronics", "rare isotopes", "medical supplies",
	"ship parts", "preserved foods", "textiles", "water filtration",
}

// AlignmentFor computes an NPC's alignment from its surroundings.
// Black market locations breed bandits and wealthy ones loyalists; in
// between, the local reputation average tips the scales, defaulting to
// a 15/70/15 mix.
func AlignmentFor(rng *rand.Rand, hasBlackMarket bool, wealth int, repAverage float64, hasReputation bool) Alignment {
	if hasBlackMarket {
		return AlignmentBandit
	}
	if wealth >= 8 {
		return AlignmentLoyal
	}
	if hasReputation {
		if repAverage > 30 {
			return AlignmentLoyal
		}
		if repAverage < -30 {
			return AlignmentBandit
		}
	}
	switch roll := rng.Float64(); {
	case roll < 0.15:
		return AlignmentLoyal
	case roll < 0.85:
		return AlignmentNeutral
	default:
		return AlignmentBandit
	}
}

// WealthTier buckets a wealth level for occupation tables.
func WealthTier(wealth int) int {
	switch {
	case wealth <= 3:
		return 0
	case wealth <= 7:
		return 1
	default:
		return 2
	}
}

// RandomName produces a full name.
func RandomName(rng *rand.Rand) string {
	return firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
}

// RandomCallsign produces a callsign candidate; uniqueness is enforced
// by the store's unique index, callers retry on conflict.
func RandomCallsign(rng *rand.Rand) string {
	return fmt.Sprintf("%s-%d", callsignPrefixes[rng.IntN(len(callsignPrefixes))], rng.IntN(90)+10)
}

// RandomOccupation picks an occupation for a location type and wealth.
func RandomOccupation(rng *rand.Rand, locationType string, wealth int) string {
	pools, ok := occupationsByTypeTier[locationType]
	if !ok {
		pools = occupationsByTypeTier["outpost"]
	}
	pool := pools[WealthTier(wealth)]
	return pool[rng.IntN(len(pool))]
}

// RandomPersonality picks a personality descriptor.
func RandomPersonality(rng *rand.Rand) string {
	return personalities[rng.IntN(len(personalities))]
}

// RandomTradeSpecialty occasionally assigns a trade specialty.
func RandomTradeSpecialty(rng *rand.Rand) *string {
	if rng.Float64() > 0.3 {
		return nil
	}
	s := tradeSpecialties[rng.IntN(len(tradeSpecialties))]
	return &s
}

// RandomShipName picks a ship name.
func RandomShipName(rng *rand.Rand) string {
	return shipNames[rng.IntN(len(shipNames))]
}

// RandomShipType picks a ship class.
func RandomShipType(rng *rand.Rand) string {
	return shipTypes[rng.IntN(len(shipTypes))]
}
