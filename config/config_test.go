package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}

	if cfg.Screen.Width != 1280 || cfg.Screen.Height != 720 {
		t.Errorf("screen = %dx%d, want 1280x720", cfg.Screen.Width, cfg.Screen.Height)
	}
	if cfg.Water.MaxDepthFeet != 80 {
		t.Errorf("max depth = %g, want 80", cfg.Water.MaxDepthFeet)
	}
	if cfg.Ecosystem.FeedingThreshold != 10 {
		t.Errorf("feeding threshold = %d, want 10", cfg.Ecosystem.FeedingThreshold)
	}
	if cfg.Derived.ScreenW != 1280 {
		t.Errorf("derived width = %g, want 1280", cfg.Derived.ScreenW)
	}
	if len(cfg.Species.Predators) == 0 || len(cfg.Species.Baitfish) == 0 {
		t.Fatal("defaults must carry a species table")
	}
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("water:\n  max_depth_feet: 45\necosystem:\n  feeding_threshold: 20\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading override: %v", err)
	}

	if cfg.Water.MaxDepthFeet != 45 {
		t.Errorf("override depth = %g, want 45", cfg.Water.MaxDepthFeet)
	}
	if cfg.Ecosystem.FeedingThreshold != 20 {
		t.Errorf("override threshold = %d, want 20", cfg.Ecosystem.FeedingThreshold)
	}
	// Untouched fields keep the defaults.
	if cfg.Water.TemperatureF != 52 {
		t.Errorf("default temperature lost, got %g", cfg.Water.TemperatureF)
	}
	if len(cfg.Species.Predators) == 0 {
		t.Error("default species table lost")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero screen", "screen:\n  width: 0\n"},
		{"negative depth", "water:\n  max_depth_feet: -3\n"},
		{"empty temp range", "water:\n  temp_range_min_f: 60\n  temp_range_max_f: 50\n"},
		{"inverted wolfpack range", "ecosystem:\n  wolfpack_min: 15\n  wolfpack_max: 10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reloading snapshot: %v", err)
	}
	if again.Water.MaxDepthFeet != cfg.Water.MaxDepthFeet {
		t.Errorf("round trip lost max depth: %g != %g", again.Water.MaxDepthFeet, cfg.Water.MaxDepthFeet)
	}
}
