package galaxy

type LocationType string

const (
	LocationTypeColony  LocationType = "colony"
	LocationTypeStation LocationType = "space_station"
	LocationTypeOutpost LocationType = "outpost"
	LocationTypeGate    LocationType = "gate"
)

type Faction string

const (
	FactionLoyalist    Faction = "loyalist"
	FactionOutlaw      Faction = "outlaw"
	FactionNeutral     Faction = "neutral"
	FactionIndependent Faction = "independent"
)

type GateStatus string

const (
	GateStatusActive GateStatus = "active"
	GateStatusUnused GateStatus = "unused"
	GateStatusMoved  GateStatus = "moved"
)

// ServiceFlags are the facilities a location offers.
type ServiceFlags struct {
	Jobs        bool `json:"jobs"`
	Shops       bool `json:"shops"`
	Medical     bool `json:"medical"`
	Repairs     bool `json:"repairs"`
	Fuel        bool `json:"fuel"`
	Upgrades    bool `json:"upgrades"`
	BlackMarket bool `json:"black_market"`
	Shipyard    bool `json:"shipyard"`
}

// Location is a node in the galaxy: colony, station, outpost or gate.
type Location struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	Type             LocationType `json:"location_type"`
	Faction          Faction      `json:"faction"`
	Wealth           int          `json:"wealth_level"`
	Population       int          `json:"population"`
	X                float64      `json:"x_coord"`
	Y                float64      `json:"y_coord"`
	SystemName       string       `json:"system_name"`
	EstablishedDate  *int64       `json:"established_date,omitempty"` // in-game unix
	Description      string       `json:"description"`
	Services         ServiceFlags `json:"services"`
	IsDerelict       bool         `json:"is_derelict"`
	GateStatus       *GateStatus  `json:"gate_status,omitempty"`
	ParentLocationID *int64       `json:"parent_location_id,omitempty"`
	CreatedAt        float64      `json:"created_at"`
}

// IsMajor reports whether the location is a primary destination rather
// than a transit gate.
func (l *Location) IsMajor() bool {
	return l.Type != LocationTypeGate
}

// Corridor is one direction of a traversable link. Every logical route
// is stored as two rows, one per direction.
type Corridor struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Origin      int64    `json:"origin_location"`
	Destination int64    `json:"destination_location"`
	TravelTime  int      `json:"travel_time"` // seconds
	FuelCost    int      `json:"fuel_cost"`
	Danger      int      `json:"danger_level"`
	IsActive    bool     `json:"is_active"`
	HasGate     bool     `json:"has_gate"`
	IsGenerated bool     `json:"is_generated"` // emergency corridor created by repair
	LastShift   *float64 `json:"last_shift,omitempty"`
	CreatedAt   float64  `json:"created_at"`
}

// SubLocation is a persistent interior area of a location.
type SubLocation struct {
	ID               int64  `json:"id"`
	ParentLocationID int64  `json:"parent_location_id"`
	Name             string `json:"name"`
	SubType          string `json:"sub_type"`
	Description      string `json:"description"`
	IsActive         bool   `json:"is_active"`
}

// Repeater extends radio range from a location.
type Repeater struct {
	ID            int64  `json:"id"`
	LocationID    int64  `json:"location_id"`
	RepeaterType  string `json:"repeater_type"`
	ReceiveRange  int    `json:"receive_range"`
	TransmitRange int    `json:"transmit_range"`
	IsActive      bool   `json:"is_active"`
}

// Job is a posted work offer at a location.
type Job struct {
	ID                    int64   `json:"id"`
	LocationID            int64   `json:"location_id"`
	Title                 string  `json:"title"`
	Description           string  `json:"description"`
	Reward                int     `json:"reward"`
	Danger                int     `json:"danger_level"`
	DurationMinutes       int     `json:"duration_minutes"`
	ExpiresAt             float64 `json:"expires_at"`
	DestinationLocationID *int64  `json:"destination_location_id,omitempty"`
	IsTaken               bool    `json:"is_taken"`
	KarmaChange           int     `json:"karma_change"`
}

// ConnectivityReport is the result of analyzing the active corridor
// graph.
type ConnectivityReport struct {
	TotalLocations    int      `json:"total_locations"`
	ActiveCorridors   int      `json:"active_corridors"`
	DormantCorridors  int      `json:"dormant_corridors"`
	Components        [][]int64 `json:"components"`
	IsolatedLocations []int64  `json:"isolated_locations"`
	Recommendations   []string `json:"recommendations"`
}
