package status

import (
	"testing"
	"time"

	"corridors-server/internal/gametime"
)

func TestRoundToHalfHour(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2751-03-14T15:09:00Z", "2751-03-14T15:00:00Z"},
		{"2751-03-14T15:16:00Z", "2751-03-14T15:30:00Z"},
		{"2751-03-14T15:45:00Z", "2751-03-14T16:00:00Z"},
		{"2751-03-14T23:52:00Z", "2751-03-15T00:00:00Z"},
	}
	for _, tc := range cases {
		in, _ := time.Parse(time.RFC3339, tc.in)
		want, _ := time.Parse(time.RFC3339, tc.want)
		if got := roundToHalfHour(in); !got.Equal(want) {
			t.Errorf("roundToHalfHour(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestEveryShiftHasAGreeting(t *testing.T) {
	shifts := []gametime.Shift{
		gametime.ShiftMorning, gametime.ShiftDay,
		gametime.ShiftEvening, gametime.ShiftNight,
	}
	for _, shift := range shifts {
		if shiftGreetings[shift] == "" {
			t.Errorf("shift %s has no greeting", shift)
		}
	}
}
