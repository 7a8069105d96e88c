package activity

// Radio chatter templates. Fill order: first name, callsign, ship
// name, location name, system name.
var radioTemplates = []string{
	"This is %[2]s, docked at %[4]s. Fuel prices out here in %[5]s are highway robbery, over.",
	"%[1]s here on the %[3]s. Anyone else getting static on the %[5]s relay band?",
	"%[2]s broadcasting from %[4]s. Corridor out was rough today, watch your hulls.",
	"Open channel from the %[3]s: looking for cargo headed out of %[4]s, fair rates.",
	"%[2]s checking in. %[4]s still standing, drinks still watered down. Out.",
	"This is %[1]s aboard the %[3]s. If anyone's inbound to %[5]s, the approach beacon is drifting again.",
	"%[2]s here. Heard a gate went dark two systems over. Anybody confirm?",
	"The %[3]s is laid over at %[4]s for repairs. Send good news, we're short on it.",
}

// Local action templates, filled with the NPC's first name.
var actionTemplates = []string{
	"%s is haggling loudly over a crate of spare parts.",
	"%s nurses a drink in the corner, watching the door.",
	"%s is running diagnostics on a battered thruster assembly.",
	"%s posts a handwritten note on the docking board.",
	"%s argues with a customs clerk about manifest codes.",
	"%s shares a rumor about corridor weather with anyone who will listen.",
}

// Causes attached to random deaths at quiet locations.
var deathCauses = []string{
	"a docking accident",
	"a suit breach during a routine hull walk",
	"an old debt that finally caught up",
	"a reactor coolant leak",
	"a bar fight that went too far",
	"causes the local authority declined to specify",
}

// backgroundEvent couples a narration template with its lethality.
type backgroundEvent struct {
	name        string
	template    string // filled with callsign, ship name
	deathChance float64
}

var backgroundEvents = []backgroundEvent{
	{"equipment malfunction", "%s reports the %s is running on backup systems after a primary bus failure.", 0.05},
	{"pirate encounter", "%s broadcasting mayday: the %s is being shadowed by an unregistered vessel.", 0.15},
	{"navigation error", "%s admits the %s overshot its transit window and is recomputing.", 0.05},
	{"medical emergency", "%s requests medical guidance: crew member down aboard the %s.", 0.10},
	{"asteroid field", "%s is threading the %s through an uncharted debris field.", 0.10},
	{"spontaneous explosion", "%s's last transmission cut off mid-word. The %s is not answering hails.", 0.15},
	{"solar storm", "%s riding out a radiation squall; the %s has gone dark to protect its electronics.", 0.08},
}
