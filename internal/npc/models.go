package npc

type Alignment string

const (
	AlignmentLoyal   Alignment = "loyal"
	AlignmentNeutral Alignment = "neutral"
	AlignmentBandit  Alignment = "bandit"
)

// StaticNPC is bound to a single location.
type StaticNPC struct {
	ID             int64     `json:"id"`
	LocationID     int64     `json:"location_id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Occupation     string    `json:"occupation"`
	Personality    string    `json:"personality"`
	TradeSpecialty *string   `json:"trade_specialty,omitempty"`
	Alignment      Alignment `json:"alignment"`
	HP             int       `json:"hp"`
	MaxHP          int       `json:"max_hp"`
	CombatRating   int       `json:"combat_rating"`
	Credits        int       `json:"credits"`
	CreatedAt      float64   `json:"created_at"`
}

// DynamicNPC roams the galaxy by ship.
type DynamicNPC struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Callsign            string    `json:"callsign"`
	Age                 int       `json:"age"`
	ShipName            string    `json:"ship_name"`
	ShipType            string    `json:"ship_type"`
	CurrentLocation     *int64    `json:"current_location,omitempty"`
	DestinationLocation *int64    `json:"destination_location,omitempty"`
	TravelStartTime     *float64  `json:"travel_start_time,omitempty"`
	TravelDuration      *int      `json:"travel_duration,omitempty"`
	Credits             int       `json:"credits"`
	Alignment           Alignment `json:"alignment"`
	HP                  int       `json:"hp"`
	MaxHP               int       `json:"max_hp"`
	CombatRating        int       `json:"combat_rating"`
	ShipHull            int       `json:"ship_hull"`
	MaxShipHull         int       `json:"max_ship_hull"`
	IsAlive             bool      `json:"is_alive"`
	LastRadioMessage    *float64  `json:"last_radio_message,omitempty"`
	LastLocationAction  *float64  `json:"last_location_action,omitempty"`
	CreatedAt           float64   `json:"created_at"`
}

// NPCJob is a small work listing posted by a static NPC.
type NPCJob struct {
	ID          int64   `json:"id"`
	NPCID       int64   `json:"npc_id"`
	LocationID  int64   `json:"location_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Reward      int     `json:"reward"`
	ExpiresAt   float64 `json:"expires_at"`
	IsTaken     bool    `json:"is_taken"`
}

// IsTraveling reports whether the NPC is mid-corridor.
func (n *DynamicNPC) IsTraveling() bool {
	return n.TravelStartTime != nil && n.DestinationLocation != nil
}

// FirstName returns the given name portion for radio chatter.
func (n *DynamicNPC) FirstName() string {
	for i := 0; i < len(n.Name); i++ {
		if n.Name[i] == ' ' {
			return n.Name[:i]
		}
	}
	return n.Name
}
