package gametime

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"corridors-server/internal/shared/database"
)

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()

	db, err := database.OpenSQLitePath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	repo := NewRepository(db, slog.Default())
	return NewService(repo, nil, slog.Default()), repo
}

func seedGalaxy(t *testing.T, svc *Service, repo *Repository, start time.Time, scale float64, realStart float64) {
	t.Helper()
	info := &GalaxyInfo{
		Name:      "Test Space",
		StartDate: start.Unix(),
		TimeScale: scale,
		RealStart: realStart,
		CreatedAt: realStart,
	}
	if err := repo.Replace(context.Background(), info); err != nil {
		t.Fatalf("replace galaxy info: %v", err)
	}
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestCurrentScalesElapsedRealTime(t *testing.T) {
	svc, repo := newTestService(t)

	start := time.Date(2751, 1, 1, 0, 0, 0, 0, time.UTC)
	realStart := 1_000_000.0
	seedGalaxy(t, svc, repo, start, 4.0, realStart)

	// 600 real seconds at 4x should read 2400 in-game seconds.
	svc.nowFunc = func() time.Time { return time.Unix(1_000_600, 0) }

	current, err := svc.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	want := start.Add(2400 * time.Second)
	if !current.Equal(want) {
		t.Fatalf("current = %v, want %v", current, want)
	}
}

func TestPauseFreezesAndResumeContinues(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	start := time.Date(2751, 6, 1, 0, 0, 0, 0, time.UTC)
	seedGalaxy(t, svc, repo, start, 4.0, 1_000_000)

	svc.nowFunc = func() time.Time { return time.Unix(1_000_100, 0) }
	if err := svc.Pause(ctx, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	frozen, err := svc.Current()
	if err != nil {
		t.Fatalf("current while paused: %v", err)
	}

	// Real time moves on; the in-game clock must not.
	svc.nowFunc = func() time.Time { return time.Unix(1_050_000, 0) }
	still, err := svc.Current()
	if err != nil {
		t.Fatalf("current while paused: %v", err)
	}
	if !still.Equal(frozen) {
		t.Fatalf("paused clock moved from %v to %v", frozen, still)
	}

	if err := svc.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	svc.nowFunc = func() time.Time { return time.Unix(1_050_100, 0) }
	resumed, err := svc.Current()
	if err != nil {
		t.Fatalf("current after resume: %v", err)
	}
	want := frozen.Add(400 * time.Second) // 100 real seconds at 4x
	if !resumed.Equal(want) {
		t.Fatalf("after resume = %v, want %v", resumed, want)
	}
}

func TestAutoResumeRespectsManualPause(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seedGalaxy(t, svc, repo, time.Date(2751, 1, 1, 0, 0, 0, 0, time.UTC), 4.0, 1_000_000)

	if err := svc.Pause(ctx, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := svc.AutoResume(ctx); err != nil {
		t.Fatalf("auto resume: %v", err)
	}
	info, err := svc.Info()
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !info.IsPaused {
		t.Fatal("auto resume lifted a manual pause")
	}

	if err := svc.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	info, _ = svc.Info()
	if info.IsPaused || info.IsManuallyPaused {
		t.Fatalf("resume left pause flags set: %+v", info)
	}
}

func TestSetScaleDoesNotJump(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	start := time.Date(2751, 1, 1, 0, 0, 0, 0, time.UTC)
	seedGalaxy(t, svc, repo, start, 4.0, 1_000_000)

	svc.nowFunc = func() time.Time { return time.Unix(1_001_000, 0) }
	before, _ := svc.Current()

	if err := svc.SetScale(ctx, 10.0); err != nil {
		t.Fatalf("set scale: %v", err)
	}
	after, _ := svc.Current()

	if delta := after.Sub(before); delta < 0 || delta > time.Second {
		t.Fatalf("scale change jumped the clock by %v", delta)
	}

	// From the anchor on, the new scale applies.
	svc.nowFunc = func() time.Time { return time.Unix(1_001_100, 0) }
	later, _ := svc.Current()
	if advanced := later.Sub(after); advanced != 1000*time.Second {
		t.Fatalf("advanced %v at 10x over 100 real seconds, want 1000s", advanced)
	}
}

func TestSetCurrentRejectsPreStartInstants(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	start := time.Date(2751, 1, 1, 0, 0, 0, 0, time.UTC)
	seedGalaxy(t, svc, repo, start, 4.0, 1_000_000)

	if err := svc.SetCurrent(ctx, start.Add(-time.Hour)); err == nil {
		t.Fatal("expected rejection of pre-start instant")
	}

	target := start.AddDate(0, 3, 0)
	svc.nowFunc = func() time.Time { return time.Unix(2_000_000, 0) }
	if err := svc.SetCurrent(ctx, target); err != nil {
		t.Fatalf("set current: %v", err)
	}
	svc.nowFunc = func() time.Time { return time.Unix(2_000_050, 0) }
	current, _ := svc.Current()
	if want := target.Add(200 * time.Second); !current.Equal(want) {
		t.Fatalf("current = %v, want %v", current, want)
	}
}

func TestRecordShiftRoundTrip(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seedGalaxy(t, svc, repo, time.Date(2751, 1, 1, 0, 0, 0, 0, time.UTC), 4.0, 1_000_000)

	if _, ok := svc.StoredShift(); ok {
		t.Fatal("fresh galaxy should have no stored shift")
	}
	if err := svc.RecordShift(ctx, ShiftEvening); err != nil {
		t.Fatalf("record shift: %v", err)
	}

	if err := svc.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	stored, ok := svc.StoredShift()
	if !ok || stored != ShiftEvening {
		t.Fatalf("stored shift = %q, %v; want evening", stored, ok)
	}
}

func TestShiftOfBoundaries(t *testing.T) {
	cases := []struct {
		hour int
		want Shift
	}{
		{0, ShiftNight},
		{5, ShiftNight},
		{6, ShiftMorning},
		{11, ShiftMorning},
		{12, ShiftDay},
		{17, ShiftDay},
		{18, ShiftEvening},
		{23, ShiftEvening},
	}
	for _, tc := range cases {
		at := time.Date(2751, 1, 1, tc.hour, 0, 0, 0, time.UTC)
		if got := ShiftOf(at); got != tc.want {
			t.Errorf("ShiftOf(hour %d) = %q, want %q", tc.hour, got, tc.want)
		}
	}
}

func TestFormatISST(t *testing.T) {
	at := time.Date(2751, 3, 14, 15, 9, 26, 0, time.UTC)
	if got := FormatISST(at); got != "14-03-2751 at 15:09 ISST" {
		t.Fatalf("FormatISST = %q", got)
	}
}

func TestParseStartDate(t *testing.T) {
	if _, err := ParseStartDate("01-01-2751"); err != nil {
		t.Fatalf("valid date rejected: %v", err)
	}
	if _, err := ParseStartDate("01-01-2024"); err == nil {
		t.Fatal("year outside 2700-2799 accepted")
	}
	if _, err := ParseStartDate("2751-01-01"); err == nil {
		t.Fatal("wrong format accepted")
	}
}
