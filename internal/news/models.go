package news

// News types drive embed styling on delivery.
const (
	TypeCorridorShift     = "corridor_shift"
	TypeCorridorCollapse  = "corridor_collapse"
	TypeMajorEvent        = "major_event"
	TypeObituary          = "obituary"
	TypePirateActivity    = "pirate_activity"
	TypeEconomicNews      = "economic_news"
	TypeAdminAnnouncement = "admin_announcement"
	TypeFluffNews         = "fluff_news"
)

// Embed accent colors per news type.
var typeColors = map[string]int{
	TypeCorridorShift:     0xE67E22,
	TypeCorridorCollapse:  0xC0392B,
	TypeMajorEvent:        0x9B59B6,
	TypeObituary:          0x34495E,
	TypePirateActivity:    0xE74C3C,
	TypeEconomicNews:      0xF1C40F,
	TypeAdminAnnouncement: 0x3498DB,
	TypeFluffNews:         0x95A5A6,
}

const defaultColor = 0x7F8C8D

// Entry is one queued news item awaiting its light-lag delivery.
type Entry struct {
	ID                int64    `json:"id"`
	GuildID           int64    `json:"guild_id"`
	NewsType          string   `json:"news_type"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	LocationID        *int64   `json:"location_id,omitempty"`
	ScheduledDelivery float64  `json:"scheduled_delivery"`
	DelayHours        float64  `json:"delay_hours"`
	EventData         *string  `json:"event_data,omitempty"`
	IsDelivered       bool     `json:"is_delivered"`
	CreatedAt         float64  `json:"created_at"`
	DeliveredAt       *float64 `json:"delivered_at,omitempty"`
}

// Color returns the embed accent for the entry's type.
func (e *Entry) Color() int {
	if c, ok := typeColors[e.NewsType]; ok {
		return c
	}
	return defaultColor
}
