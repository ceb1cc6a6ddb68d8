package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Segment.Gap != 20*time.Minute {
		t.Errorf("Segment.Gap = %v, want 20m", cfg.Segment.Gap)
	}
	if cfg.Segment.SlotGap != 2*time.Minute {
		t.Errorf("Segment.SlotGap = %v, want 2m", cfg.Segment.SlotGap)
	}
	if cfg.Scope.Server != "dan5.red, 25565" {
		t.Errorf("Scope.Server = %q", cfg.Scope.Server)
	}
	if len(cfg.Scope.Zones) != 2 {
		t.Errorf("Scope.Zones = %v", cfg.Scope.Zones)
	}
	if len(cfg.Bar.LadderTiers) != 4 || cfg.Bar.LadderTiers[3] != 800000 {
		t.Errorf("Bar.LadderTiers = %v", cfg.Bar.LadderTiers)
	}
	if len(cfg.Slot.FreeBands) != 2 || cfg.Slot.FreeBands[1].Min != 100000 {
		t.Errorf("Slot.FreeBands = %+v", cfg.Slot.FreeBands)
	}
	since, ok := cfg.Bar.Override.SinceTime()
	if !ok || since.Format("2006-01-02") != "2025-04-05" {
		t.Errorf("Override.SinceTime() = %v, %v", since, ok)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casinolog.yaml")
	body := "segment:\n  gap: 30m\nscope:\n  zones: [lounge]\nbar:\n  ladder_genre: Ladder\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Segment.Gap != 30*time.Minute {
		t.Errorf("Segment.Gap = %v, want 30m", cfg.Segment.Gap)
	}
	if cfg.Segment.SlotGap != 2*time.Minute {
		t.Errorf("Segment.SlotGap = %v, want default 2m", cfg.Segment.SlotGap)
	}
	if len(cfg.Scope.Zones) != 1 || cfg.Scope.Zones[0] != "lounge" {
		t.Errorf("Scope.Zones = %v", cfg.Scope.Zones)
	}
	if cfg.Bar.LadderGenre != "Ladder" {
		t.Errorf("Bar.LadderGenre = %q", cfg.Bar.LadderGenre)
	}
	if cfg.Bar.Override.Item == "" {
		t.Error("expected override default to survive a partial bar section")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CASINOLOG_SEGMENT__SLOT_GAP", "90s")
	t.Setenv("CASINOLOG_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Segment.SlotGap != 90*time.Second {
		t.Errorf("Segment.SlotGap = %v, want 90s", cfg.Segment.SlotGap)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Bar.LadderTiers = []int{200, 100}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for decreasing ladder tiers")
	}

	cfg = Default()
	cfg.Slot.FreeBands = []FreeBand{{Machine: "x", Min: 10, Max: 1}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for inverted free band")
	}
}

func TestLoadExpandsHomeInDB(t *testing.T) {
	t.Setenv("CASINOLOG_DB", "~/runs/casino.db")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB != filepath.Join(userHome(), "runs", "casino.db") {
		t.Errorf("DB = %q", cfg.DB)
	}
}
