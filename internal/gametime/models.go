package gametime

import "time"

// GalaxyInfo is the single authoritative row mapping real time to
// in-game time.
type GalaxyInfo struct {
	Name              string  `json:"name"`
	StartDate         int64   `json:"start_date"` // in-game unix seconds
	TimeScale         float64 `json:"time_scale"`
	RealStart         float64 `json:"real_start"` // real unix seconds
	CreatedAt         float64 `json:"created_at"`
	IsPaused          bool    `json:"is_paused"`
	IsManuallyPaused  bool    `json:"is_manually_paused"`
	PausedAt          *float64 `json:"paused_at,omitempty"`
	CurrentIngameTime *int64   `json:"current_ingame_time,omitempty"`
	LastShiftCheck    *float64 `json:"last_shift_check,omitempty"`
	CurrentShift      *string  `json:"current_shift,omitempty"`
}

// Shift is the in-game part of day.
type Shift string

const (
	ShiftMorning Shift = "morning" // [06:00, 12:00)
	ShiftDay     Shift = "day"     // [12:00, 18:00)
	ShiftEvening Shift = "evening" // [18:00, 24:00)
	ShiftNight   Shift = "night"   // [00:00, 06:00)
)

// ShiftOf maps an in-game instant to its shift of day.
func ShiftOf(t time.Time) Shift {
	switch hour := t.UTC().Hour(); {
	case hour >= 6 && hour < 12:
		return ShiftMorning
	case hour >= 12 && hour < 18:
		return ShiftDay
	case hour >= 18:
		return ShiftEvening
	default:
		return ShiftNight
	}
}

// FormatISST renders an in-game instant as an Inter-Solar Standard
// Time string: "DD-MM-YYYY at HH:MM ISST".
func FormatISST(t time.Time) string {
	return t.UTC().Format("02-01-2006 at 15:04") + " ISST"
}

// ParseStartDate parses a DD-MM-YYYY galaxy start date and enforces
// the 2700-2799 window.
func ParseStartDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation("02-01-2006", raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() < 2700 || t.Year() > 2799 {
		return time.Time{}, errYearOutOfRange
	}
	return t, nil
}
