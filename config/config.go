// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Water      WaterConfig      `yaml:"water"`
	Ecosystem  EcosystemConfig  `yaml:"ecosystem"`
	Population PopulationConfig `yaml:"population"`
	Spawning   SpawningConfig   `yaml:"spawning"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Schooling  SchoolingConfig  `yaml:"schooling"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Species    SpeciesConfig    `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds the simulated viewport dimensions in pixels.
// The core never draws; these bound spawn placement and depth conversion.
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// WaterConfig holds environment defaults. The host may override these
// at runtime through the simulation's environment setters.
type WaterConfig struct {
	MaxDepthFeet    float64 `yaml:"max_depth_feet"`
	TemperatureF    float64 `yaml:"temperature_f"`
	TempRangeMinF   float64 `yaml:"temp_range_min_f"` // Normalization floor for thermal depth bias
	TempRangeMaxF   float64 `yaml:"temp_range_max_f"` // Normalization ceiling
	BottomReservePx float64 `yaml:"bottom_reserve_px"`
}

// EcosystemConfig holds regime-controller parameters.
type EcosystemConfig struct {
	CheckIntervalMs       float64 `yaml:"check_interval_ms"`       // Controller evaluation cadence
	FeedingThreshold      int     `yaml:"feeding_threshold"`       // Baitfish count for RECOVERING -> FEEDING
	RecoveryBaitThreshold int     `yaml:"recovery_bait_threshold"` // Baitfish count for the recovery-observation timer
	RecoveryMaxPredators  int     `yaml:"recovery_max_predators"`  // Predator ceiling while observing recovery
	BaitGoneGraceMs       float64 `yaml:"bait_gone_grace_ms"`      // Zero-bait grace before the predator purge
	ObservationPeriodMs   float64 `yaml:"observation_period_ms"`   // Recovery-observation duration
	WolfpackChance        float64 `yaml:"wolfpack_chance"`         // Probability of WOLFPACK over TRICKLE
	WolfpackMin           int     `yaml:"wolfpack_min"`            // Burst size lower bound
	WolfpackMax           int     `yaml:"wolfpack_max"`            // Burst size upper bound
}

// PopulationConfig holds population ceilings and gating.
type PopulationConfig struct {
	MaxPredators        int `yaml:"max_predators"`
	MinBaitForPredators int `yaml:"min_bait_for_predators"`
	MaxSchools          int `yaml:"max_schools"`
	MaxSchoolsRecovery  int `yaml:"max_schools_recovery"` // Raised ceiling while RECOVERING
	MaxZooplankton      int `yaml:"max_zooplankton"`
	CrayfishTarget      int `yaml:"crayfish_target"`
}

// SpawningConfig holds spawn scheduling and placement parameters.
type SpawningConfig struct {
	PredatorIntervalMs    float64 `yaml:"predator_interval_ms"`
	SchoolIntervalMs      float64 `yaml:"school_interval_ms"`
	ZooplanktonIntervalMs float64 `yaml:"zooplankton_interval_ms"`
	CrayfishIntervalMs    float64 `yaml:"crayfish_interval_ms"`

	ScoutChance float64 `yaml:"scout_chance"` // Low-probability predator roll while RECOVERING
	ScoutCap    int     `yaml:"scout_cap"`    // Max live predators while RECOVERING

	ReferenceOffsetMin float64 `yaml:"reference_offset_min"` // Horizontal spawn offset from the player point
	ReferenceOffsetMax float64 `yaml:"reference_offset_max"`
	SchoolSpawnMargin  float64 `yaml:"school_spawn_margin"` // Off-screen distance for school entry

	DepthClampMinFeet    float64 `yaml:"depth_clamp_min_feet"`
	DepthClampMarginFeet float64 `yaml:"depth_clamp_margin_feet"` // Reserve above the bottom

	ZooplanktonBatchMin int     `yaml:"zooplankton_batch_min"`
	ZooplanktonBatchMax int     `yaml:"zooplankton_batch_max"`
	ZooplanktonDeepBias float64 `yaml:"zooplankton_deep_bias"` // Probability of bottom tier over mid tier

	RareDeepSpeciesID string  `yaml:"rare_deep_species_id"` // Override species when deep water is available
	RareDeepChance    float64 `yaml:"rare_deep_chance"`
	RareDeepMinFeet   float64 `yaml:"rare_deep_min_feet"`

	EmergencySpeciesID string  `yaml:"emergency_species_id"`
	EmergencyHealth    float64 `yaml:"emergency_health"`
}

// BehaviorConfig holds fish-AI parameters.
type BehaviorConfig struct {
	DecisionCooldownMs   float64 `yaml:"decision_cooldown_ms"`
	FrenzyCooldownMs     float64 `yaml:"frenzy_cooldown_ms"` // Shortened decision cooldown under frenzy
	InterestDwellMs      float64 `yaml:"interest_dwell_ms"`  // INTERESTED -> CHASING dwell
	FleeCooldownMs       float64 `yaml:"flee_cooldown_ms"`   // FLEEING -> IDLE
	FeedDurationMs       float64 `yaml:"feed_duration_ms"`   // FEEDING dwell before returning to IDLE
	StrikeProbability    float64 `yaml:"strike_probability"`
	MaxStrikeAttempts    int     `yaml:"max_strike_attempts"`
	FrenzyStrikeAttempts int     `yaml:"frenzy_strike_attempts"`
	FrenzyTicks          int     `yaml:"frenzy_ticks"`
	FrenzyRadiusFactor   float64 `yaml:"frenzy_radius_factor"` // Propagation radius = factor * detection range
	EmergencyFrenzyRange float64 `yaml:"emergency_frenzy_range"`
	HungerRatePerSec     float64 `yaml:"hunger_rate_per_sec"`
	HungerPerBaitfish    float64 `yaml:"hunger_per_baitfish"`
	FeedBiteSize         int     `yaml:"feed_bite_size"` // Baitfish consumed per FEEDING arrival
	ChaseSpeed           float64 `yaml:"chase_speed"`    // px/s
	CruiseSpeed          float64 `yaml:"cruise_speed"`
	FleeSpeed            float64 `yaml:"flee_speed"`
}

// SchoolingConfig holds boids parameters for baitfish schools.
type SchoolingConfig struct {
	NeighborRadius   float64 `yaml:"neighbor_radius"`
	SeparationRadius float64 `yaml:"separation_radius"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
	WanderWeight     float64 `yaml:"wander_weight"`
	MaxSpeed         float64 `yaml:"max_speed"`
	DriftSpeed       float64 `yaml:"drift_speed"` // Baseline horizontal drift across the screen
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindowSec      float64 `yaml:"stats_window_sec"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
}

// SpeciesConfig holds the species table consumed by the catalog.
type SpeciesConfig struct {
	Predators []SpeciesEntry `yaml:"predators"`
	Baitfish  []SpeciesEntry `yaml:"baitfish"`
}

// SpeciesEntry describes one species. Full validation happens when the
// catalog is built; a malformed entry is fatal at startup.
type SpeciesEntry struct {
	ID               string             `yaml:"id"`
	Weight           float64            `yaml:"weight"`
	DepthMinFeet     float64            `yaml:"depth_min_feet"`
	DepthMaxFeet     float64            `yaml:"depth_max_feet"`
	MinWaterDepthFt  float64            `yaml:"min_water_depth_feet"`
	Aggressiveness   float64            `yaml:"aggressiveness"`
	SchoolSizeMin    int                `yaml:"school_size_min"`
	SchoolSizeMax    int                `yaml:"school_size_max"`
	SchoolingDensity string             `yaml:"schooling_density"`  // none | loose | tight
	BottomDweller    bool               `yaml:"bottom_dweller"`     // Forced into the deepest tier
	ThermalDepthBias float64            `yaml:"thermal_depth_bias"` // 0..1, warmer water pushes spawn deeper
	DetectionRange   float64            `yaml:"detection_range"`
	StrikeDistance   float64            `yaml:"strike_distance"`
	SizeClassWeights map[string]float64 `yaml:"size_class_weights"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW float64
	ScreenH float64
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW = float64(c.Screen.Width)
	c.Derived.ScreenH = float64(c.Screen.Height)
}

// validate rejects configurations the simulation must not run with.
func (c *Config) validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("config: screen dimensions must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.Water.MaxDepthFeet <= 0 {
		return fmt.Errorf("config: water.max_depth_feet must be positive, got %g", c.Water.MaxDepthFeet)
	}
	if c.Water.TempRangeMaxF <= c.Water.TempRangeMinF {
		return fmt.Errorf("config: water temperature range [%g, %g] is empty", c.Water.TempRangeMinF, c.Water.TempRangeMaxF)
	}
	if c.Ecosystem.WolfpackMax < c.Ecosystem.WolfpackMin {
		return fmt.Errorf("config: wolfpack_max (%d) below wolfpack_min (%d)", c.Ecosystem.WolfpackMax, c.Ecosystem.WolfpackMin)
	}
	if len(c.Species.Predators) == 0 {
		return fmt.Errorf("config: species.predators is empty")
	}
	if len(c.Species.Baitfish) == 0 {
		return fmt.Errorf("config: species.baitfish is empty")
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
