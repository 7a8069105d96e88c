package gen

import (
	"fmt"
	"math/rand/v2"
)

var colonyNames = []string{
	"New Eden", "Haven's Rest", "Terra Nova", "Arcadia", "Meridian",
	"Kepler's Hope", "Sanctuary", "Clearwater", "Red Plains", "Solace",
	"Hearthstone", "Providence", "Greenfall", "Alexandria", "Concordia",
	"Elysium Fields", "Harvest Moon", "New Kyoto", "Freehold", "Virtue",
	"Cascade", "Ironwood", "Last Landing", "Promise", "Windward",
	"New Odessa", "Bright Harbor", "Dustbowl", "Amber Valley", "Foothold",
}

var stationNames = []string{
	"Crossroads Station", "Waypoint Alpha", "The Spindle", "Anchor Point",
	"Meridian Hub", "Vantage Platform", "Traders' Rest", "The Lattice",
	"Kelso Exchange", "High Dock", "Beacon Station", "The Carousel",
	"Stellar Junction", "Port Authority", "Drydock Seven", "The Bazaar",
	"Transit Ring", "Copernicus Station", "The Flotilla", "Nexus Point",
	"Gallows Reach", "The Turnstile", "Harbor Station", "Deepwell Platform",
}

var outpostNames = []string{
	"Frontier Post", "Edgewatch", "Lonely Rock", "Survey Point", "Dead Drop",
	"The Claim", "Far Signal", "Rimward Watch", "Dustoff Point", "Cold Vigil",
	"Relay Delta", "Prospector's End", "Quiet Corner", "Threshold",
	"Last Beacon", "Shale Camp", "The Perch", "Gravel Point", "Still Water",
	"Barren Hold",
}

var systemNames = []string{
	"Altair", "Barnard", "Cygnus", "Deneb", "Epsilon Eridani", "Fomalhaut",
	"Gliese", "Hydrae", "Izar", "Janus", "Kruger", "Lalande", "Mizar",
	"Novaya", "Oberon", "Procyon", "Quasar Reach", "Rigel", "Sirius",
	"Tau Ceti", "Umbra", "Vega", "Wolf", "Xanthe", "Ysera", "Zeta Reticuli",
	"Auriga", "Bellatrix", "Capella", "Draconis", "Electra", "Fornax",
	"Grus", "Helios", "Indus", "Juno", "Keid", "Luyten", "Merak", "Norma",
	"Ophiuchi", "Pavonis", "Ross", "Sargas", "Talitha", "Ursae", "Volans",
	"Wezen", "Xi Bootis", "Yildun", "Zosma",
}

// namePool hands out unique names, falling back to numbered suffixes
// when a pool runs dry.
type namePool struct {
	remaining []string
	prefix    string
	overflow  int
	rng       *rand.Rand
}

func newNamePool(rng *rand.Rand, names []string, prefix string) *namePool {
	shuffled := make([]string, len(names))
	copy(shuffled, names)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &namePool{remaining: shuffled, prefix: prefix, rng: rng}
}

func (p *namePool) next() string {
	if len(p.remaining) > 0 {
		name := p.remaining[len(p.remaining)-1]
		p.remaining = p.remaining[:len(p.remaining)-1]
		return name
	}
	p.overflow++
	return fmt.Sprintf("%s %d", p.prefix, p.overflow)
}

var gateSuffixes = []string{"Gate", "Gate Beta", "Gate Gamma", "Gate Delta"}

var blackMarketItems = [][2]string{
	{"Forged Transit Papers", "documents"},
	{"Military-Grade Stims", "medical"},
	{"Unregistered Pistol", "weapon"},
	{"Scrambled Transponder", "ship_mod"},
	{"Stolen Cargo Manifest", "documents"},
	{"Combat Knife", "weapon"},
	{"Black-Label Whiskey", "contraband"},
	{"Encrypted Datachip", "data"},
}

var jobTemplates = []struct {
	title       string
	description string
	danger      int
	karma       int
}{
	{"Cargo Escort", "Accompany a freight run and keep the manifest honest.", 2, 2},
	{"Supply Delivery", "Haul a crate of essentials to a nearby settlement.", 1, 1},
	{"Patrol Sweep", "Fly the local approach lanes and report anything odd.", 2, 2},
	{"Salvage Survey", "Chart a debris field and tag anything worth cutting.", 3, 0},
	{"Medical Courier", "Cold-chain pharmaceuticals, no delays, no questions.", 2, 3},
	{"Station Maintenance", "A dozen work orders the regular crew never gets to.", 1, 1},
	{"Passenger Transport", "Take a paying customer where they need to go.", 1, 1},
	{"Debt Collection", "Someone owes money. Remind them.", 3, -2},
	{"Discreet Delivery", "A sealed package, a quiet dock, cash on arrival.", 3, -3},
}

var subLocationsByType = map[string][]struct {
	name    string
	subType string
}{
	"colony": {
		{"The Dusty Mug", "bar"},
		{"Central Market", "market"},
		{"Administration Office", "admin"},
		{"Colonial Clinic", "medbay"},
	},
	"space_station": {
		{"Docking Bay", "dock"},
		{"The Promenade", "market"},
		{"Observation Lounge", "bar"},
		{"Engineering Deck", "engineering"},
	},
	"outpost": {
		{"Comm Tower", "comms"},
		{"Storage Depot", "storage"},
		{"Mess Hall", "bar"},
	},
	"gate": {
		{"Control Room", "control"},
		{"Maintenance Bay", "engineering"},
	},
}
