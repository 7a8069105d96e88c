package gen

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTuningMissingFileUsesDefaults(t *testing.T) {
	tuning, err := LoadTuning(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if *tuning != *DefaultTuning() {
		t.Fatalf("missing file changed defaults: %+v", tuning)
	}
}

func TestLoadTuningAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldgen.yaml")
	content := "colony_fraction: 0.6\nchunk_size: 30\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}

	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	if tuning.ColonyFraction != 0.6 {
		t.Fatalf("colony_fraction = %v, want 0.6", tuning.ColonyFraction)
	}
	if tuning.ChunkSize != 30 {
		t.Fatalf("chunk_size = %d, want 30", tuning.ChunkSize)
	}
	// Untouched knobs keep their defaults.
	if tuning.StationFraction != DefaultTuning().StationFraction {
		t.Fatalf("station_fraction drifted to %v", tuning.StationFraction)
	}
}

func TestLoadTuningRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("colony_fraction: ["), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}
