package player

// Character is a player-controlled pilot.
type Character struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	Name            string  `json:"name"`
	Callsign        string  `json:"callsign"`
	CurrentLocation *int64  `json:"current_location,omitempty"`
	HP              int     `json:"hp"`
	MaxHP           int     `json:"max_hp"`
	Credits         int     `json:"credits"`
	IsLoggedIn      bool    `json:"is_logged_in"`
	IsAlive         bool    `json:"is_alive"`
	CurrentShipID   *int64  `json:"current_ship_id,omitempty"`
	CreatedAt       float64 `json:"created_at"`
}

// Ship belongs to a character.
type Ship struct {
	ID               int64  `json:"id"`
	OwnerCharacterID int64  `json:"owner_character_id"`
	Name             string `json:"name"`
	ShipType         string `json:"ship_type"`
	Hull             int    `json:"hull"`
	MaxHull          int    `json:"max_hull"`
	Fuel             int    `json:"fuel"`
	MaxFuel          int    `json:"max_fuel"`
}

// Travel session status values.
const (
	SessionTraveling        = "traveling"
	SessionCompleted        = "completed"
	SessionFailedExit       = "failed_exit"
	SessionCorridorCollapse = "corridor_collapse"
)

// TravelSession represents a character in transit through a corridor.
type TravelSession struct {
	ID                  int64   `json:"id"`
	UserID              int64   `json:"user_id"`
	CorridorID          int64   `json:"corridor_id"`
	OriginLocation      int64   `json:"origin_location"`
	DestinationLocation int64   `json:"destination_location"`
	StartTime           float64 `json:"start_time"`
	Duration            int     `json:"duration"`
	Status              string  `json:"status"`
	CreatedAt           float64 `json:"created_at"`
}
