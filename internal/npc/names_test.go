package npc

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestAlignmentForDeterministicBranches(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))

	if got := AlignmentFor(rng, true, 9, 50, true); got != AlignmentBandit {
		t.Errorf("black market alignment = %s, want bandit", got)
	}
	if got := AlignmentFor(rng, false, 8, -50, true); got != AlignmentLoyal {
		t.Errorf("wealthy alignment = %s, want loyal", got)
	}
	if got := AlignmentFor(rng, false, 5, 31, true); got != AlignmentLoyal {
		t.Errorf("well-regarded alignment = %s, want loyal", got)
	}
	if got := AlignmentFor(rng, false, 5, -31, true); got != AlignmentBandit {
		t.Errorf("ill-regarded alignment = %s, want bandit", got)
	}
}

func TestAlignmentForRandomMix(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	counts := map[Alignment]int{}
	for i := 0; i < 5000; i++ {
		counts[AlignmentFor(rng, false, 5, 0, false)]++
	}
	// 15/70/15 split: neutral dominates, both tails present.
	if counts[AlignmentNeutral] < counts[AlignmentLoyal] || counts[AlignmentNeutral] < counts[AlignmentBandit] {
		t.Fatalf("alignment mix skewed: %v", counts)
	}
	if counts[AlignmentLoyal] == 0 || counts[AlignmentBandit] == 0 {
		t.Fatalf("alignment tail missing: %v", counts)
	}
}

func TestRandomCallsignFormat(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	for i := 0; i < 100; i++ {
		callsign := RandomCallsign(rng)
		prefix, number, ok := strings.Cut(callsign, "-")
		if !ok || prefix == "" {
			t.Fatalf("callsign %q missing prefix-number shape", callsign)
		}
		if len(number) != 2 || number[0] < '1' {
			t.Fatalf("callsign %q number outside 10-99", callsign)
		}
	}
}

func TestWealthTier(t *testing.T) {
	cases := []struct{ wealth, tier int }{
		{1, 0}, {3, 0}, {4, 1}, {7, 1}, {8, 2}, {10, 2},
	}
	for _, tc := range cases {
		if got := WealthTier(tc.wealth); got != tc.tier {
			t.Errorf("WealthTier(%d) = %d, want %d", tc.wealth, got, tc.tier)
		}
	}
}

func TestRandomOccupationUnknownTypeFallsBack(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	occupation := RandomOccupation(rng, "derelict", 5)
	found := false
	for _, candidate := range occupationsByTypeTier["outpost"][1] {
		if occupation == candidate {
			found = true
		}
	}
	if !found {
		t.Fatalf("occupation %q not drawn from the outpost pool", occupation)
	}
}
