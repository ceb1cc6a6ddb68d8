package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides. A double underscore
// separates nesting levels: CASINOLOG_SEGMENT__GAP=30m.
const EnvPrefix = "CASINOLOG_"

type Config struct {
	LogLevel string        `koanf:"log_level"`
	DB       string        `koanf:"db"`
	Catalog  CatalogConfig `koanf:"catalog"`
	Scope    ScopeConfig   `koanf:"scope"`
	Segment  SegmentConfig `koanf:"segment"`
	Bar      BarConfig     `koanf:"bar"`
	Slot     SlotConfig    `koanf:"slot"`
}

// CatalogConfig points at the bar and slot catalog files.
type CatalogConfig struct {
	Bar  string `koanf:"bar"`
	Slot string `koanf:"slot"`
}

// ScopeConfig decides which chat lines count as casino activity.
type ScopeConfig struct {
	Server string   `koanf:"server"` // "host, port" as printed on the Connecting line
	Thread string   `koanf:"thread"`
	Zones  []string `koanf:"zones"` // substrings of casino-adjacent warp names
}

type SegmentConfig struct {
	Gap     time.Duration `koanf:"gap"`      // bar, changer, ptop inactivity threshold
	SlotGap time.Duration `koanf:"slot_gap"` // slot inactivity threshold
}

type BarConfig struct {
	Override     OverrideConfig `koanf:"override"`
	LadderGenre  string         `koanf:"ladder_genre"`
	LadderTiers  []int          `koanf:"ladder_tiers"`
	ChargeWindow time.Duration  `koanf:"charge_window"`
	SingleShot   []string       `koanf:"single_shot"`
	Continuation []string       `koanf:"continuation"`
}

// OverrideConfig reassigns Item's payout to Replacement from Since onwards
// whenever Item was not bought within Window before the payout.
type OverrideConfig struct {
	Item        string        `koanf:"item"`
	Replacement string        `koanf:"replacement"`
	Since       string        `koanf:"since"` // YYYY-MM-DD
	Window      time.Duration `koanf:"window"`
}

// SinceTime parses Since. An empty or malformed date disables the rule.
func (o OverrideConfig) SinceTime() (time.Time, bool) {
	if o.Since == "" || o.Item == "" || o.Replacement == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", o.Since)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type SlotConfig struct {
	FreeSpinRoles []string   `koanf:"free_spin_roles"`
	FreeBands     []FreeBand `koanf:"free_bands"`
}

// FreeBand names the free-spin machine whose payouts fall in [Min, Max].
type FreeBand struct {
	Machine string `koanf:"machine"`
	Min     int    `koanf:"min"`
	Max     int    `koanf:"max"`
}

// defaults are applied for every key the file and environment leave unset.
var defaults = map[string]any{
	"log_level":                "info",
	"db":                       filepath.Join(userHome(), ".casinolog", "casinolog.db"),
	"catalog.bar":              "barInfo.ini",
	"catalog.slot":             "slotInfo.ini",
	"scope.server":             "dan5.red, 25565",
	"scope.thread":             "Render thread/INFO",
	"scope.zones":              []string{"casino", "devil"},
	"segment.gap":              "20m",
	"segment.slot_gap":         "2m",
	"bar.override.item":        "スライムウィスキー",
	"bar.override.replacement": "店長特製ブルームーン",
	"bar.override.since":       "2025-04-05",
	"bar.override.window":      "5m",
	"bar.ladder_genre":         "Dan5",
	"bar.ladder_tiers":         []int{100000, 200000, 400000, 800000},
	"bar.charge_window":        "10m",
	"bar.single_shot":          []string{"店長特製コンクラーヴェ", "店長特製ブルームーン"},
	"bar.continuation":         []string{"無限水源ソーダ", "一万搾り", "川崎 50年(ショット)", "喝采 磨き 二割三分"},
	"slot.free_spin_roles":     []string{},
	"slot.free_bands": []map[string]any{
		{"machine": "free-low", "min": 1, "max": 99999},
		{"machine": "free-high", "min": 100000, "max": 50000000},
	},
}

// Load reads the YAML file at path (a missing file is not an error), then
// CASINOLOG_ environment overrides, then fills defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	for key, v := range defaults {
		if !k.Exists(key) {
			k.Set(key, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DB = expandHome(cfg.DB)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	k := koanf.New(".")
	for key, v := range defaults {
		k.Set(key, v)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		panic(fmt.Sprintf("decode default config: %v", err))
	}
	return &cfg
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Segment.Gap <= 0 || c.Segment.SlotGap <= 0 {
		return fmt.Errorf("segment gaps must be positive")
	}
	for _, b := range c.Slot.FreeBands {
		if b.Machine == "" || b.Min > b.Max {
			return fmt.Errorf("invalid free band %+v", b)
		}
	}
	for i := 1; i < len(c.Bar.LadderTiers); i++ {
		if c.Bar.LadderTiers[i] <= c.Bar.LadderTiers[i-1] {
			return fmt.Errorf("ladder tiers must be strictly increasing")
		}
	}
	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(userHome(), rest)
	}
	return p
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
