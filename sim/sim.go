// Package sim wires the ecosystem subsystems into a single-threaded
// simulation the host drives one tick at a time. The host owns rendering,
// input, and catch resolution; the simulation owns everything that swims.
package sim

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/lornedev/stillwater/components"
	"github.com/lornedev/stillwater/config"
	"github.com/lornedev/stillwater/species"
	"github.com/lornedev/stillwater/systems"
	"github.com/lornedev/stillwater/telemetry"
)

// gridCellSize is the spatial grid resolution in pixels. Frenzy propagation
// radii are a few hundred pixels, so coarse cells keep the scan cheap.
const gridCellSize = 96.0

// offscreenCullMargin is how far past the canvas edge an entity may drift
// before it is despawned.
const offscreenCullMargin = 2.0 // multiplier on school_spawn_margin

// Hooks are optional host callbacks fired synchronously during Tick.
// Any field may be nil.
type Hooks struct {
	OnAgentSpawned    func(id uint32, kind string)
	OnAgentRemoved    func(id uint32, reason string)
	OnFrenzyTriggered func(sourceID uint32, affected []uint32)
	OnRegimeChanged   func(oldRegime, newRegime string)
}

// School tracks one baitfish school's membership and centroid. Members are
// removed as predators feed; the school is destroyed when the last member
// is eaten.
type School struct {
	ID         uint32
	SpeciesIdx uint8
	Members    []ecs.Entity
	CentroidX  float64
	CentroidY  float64
	DriftX     float64 // travel direction across the screen, -1 or +1
}

// Simulation holds the complete ecosystem state.
type Simulation struct {
	cfg     *config.Config
	catalog *species.Catalog
	world   *ecs.World
	rng     *rand.Rand

	fishMapper *ecs.Map3[components.Position, components.Velocity, components.Fish]
	fishFilter *ecs.Filter3[components.Position, components.Velocity, components.Fish]
	baitMapper *ecs.Map3[components.Position, components.Velocity, components.Baitfish]
	baitFilter *ecs.Filter3[components.Position, components.Velocity, components.Baitfish]
	zooMapper  *ecs.Map2[components.Position, components.Zooplankton]
	zooFilter  *ecs.Filter2[components.Position, components.Zooplankton]
	crayMapper *ecs.Map2[components.Position, components.Crayfish]
	crayFilter *ecs.Filter2[components.Position, components.Crayfish]

	// Individual component mappers for lookups
	posMap  *ecs.Map1[components.Position]
	velMap  *ecs.Map1[components.Velocity]
	fishMap *ecs.Map1[components.Fish]
	baitMap *ecs.Map1[components.Baitfish]

	// Subsystems
	converter  *systems.DepthConverter
	limiter    *systems.PopulationLimiter
	controller *systems.EcosystemController
	spawner    *systems.Spawner
	behavior   *systems.FishBehavior
	schooling  *systems.Schooling
	grid       *systems.SpatialGrid

	collector *telemetry.Collector
	hooks     Hooks

	// School registry. schoolOrder keeps iteration deterministic.
	schools     map[uint32]*School
	schoolOrder []uint32

	// Environment, adjustable by the host between ticks.
	waterTempF float64
	canvasW    float64
	canvasH    float64
	focalX     float64
	focalY     float64
	hasFocal   bool
	refX       float64
	hasRef     bool

	// Population counts, maintained incrementally.
	numPredators   int
	numBaitfish    int
	numZooplankton int
	numCrayfish    int

	// Spawn scheduling accumulators (ms of simulated time).
	ecoAccumMs    float64
	predAccumMs   float64
	schoolAccumMs float64
	zooAccumMs    float64
	crayAccumMs   float64

	tick      int64
	simTimeMs float64
	nextID    uint32
	nextSchID uint32

	// Scratch buffers reused across ticks.
	fishScratch     []ecs.Entity
	neighborScratch []systems.Neighbor
	schoolScratch   []systems.SchoolTarget
	memberScratch   []systems.SchoolMember
}

// New creates a simulation from validated configuration. The catalog must
// have been built from the same config.
func New(cfg *config.Config, catalog *species.Catalog, seed int64) *Simulation {
	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(seed))

	s := &Simulation{
		cfg:     cfg,
		catalog: catalog,
		world:   world,
		rng:     rng,

		fishMapper: ecs.NewMap3[components.Position, components.Velocity, components.Fish](world),
		fishFilter: ecs.NewFilter3[components.Position, components.Velocity, components.Fish](world),
		baitMapper: ecs.NewMap3[components.Position, components.Velocity, components.Baitfish](world),
		baitFilter: ecs.NewFilter3[components.Position, components.Velocity, components.Baitfish](world),
		zooMapper:  ecs.NewMap2[components.Position, components.Zooplankton](world),
		zooFilter:  ecs.NewFilter2[components.Position, components.Zooplankton](world),
		crayMapper: ecs.NewMap2[components.Position, components.Crayfish](world),
		crayFilter: ecs.NewFilter2[components.Position, components.Crayfish](world),

		posMap:  ecs.NewMap1[components.Position](world),
		velMap:  ecs.NewMap1[components.Velocity](world),
		fishMap: ecs.NewMap1[components.Fish](world),
		baitMap: ecs.NewMap1[components.Baitfish](world),

		schools:    make(map[uint32]*School),
		waterTempF: cfg.Water.TemperatureF,
		canvasW:    cfg.Derived.ScreenW,
		canvasH:    cfg.Derived.ScreenH,
		nextID:     1,
		nextSchID:  1,
	}

	s.converter = systems.NewDepthConverter(s.canvasH, cfg.Water.MaxDepthFeet, cfg.Water.BottomReservePx)
	s.limiter = systems.NewPopulationLimiter(systems.Limits{
		MaxPredators:        cfg.Population.MaxPredators,
		MinBaitForPredators: cfg.Population.MinBaitForPredators,
		MaxSchools:          cfg.Population.MaxSchools,
		MaxSchoolsRecovery:  cfg.Population.MaxSchoolsRecovery,
		MaxZooplankton:      cfg.Population.MaxZooplankton,
		CrayfishTarget:      cfg.Population.CrayfishTarget,
	})
	s.controller = systems.NewEcosystemController(ecosystemConfig(cfg))
	s.spawner = systems.NewSpawner(cfg, catalog, rng)
	s.behavior = systems.NewFishBehavior(&cfg.Behavior, rng)
	s.schooling = systems.NewSchooling(&cfg.Schooling)
	s.grid = systems.NewSpatialGrid(s.canvasW, s.canvasH, gridCellSize)
	s.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindowSec)

	return s
}

// ecosystemConfig converts ms-denominated thresholds into controller ticks.
func ecosystemConfig(cfg *config.Config) systems.EcosystemConfig {
	interval := cfg.Ecosystem.CheckIntervalMs
	if interval < 1 {
		interval = 1
	}
	return systems.EcosystemConfig{
		FeedingThreshold:      cfg.Ecosystem.FeedingThreshold,
		RecoveryBaitThreshold: cfg.Ecosystem.RecoveryBaitThreshold,
		RecoveryMaxPredators:  cfg.Ecosystem.RecoveryMaxPredators,
		BaitGoneGraceTicks:    int(cfg.Ecosystem.BaitGoneGraceMs / interval),
		ObservationTicks:      int(cfg.Ecosystem.ObservationPeriodMs / interval),
		WolfpackChance:        cfg.Ecosystem.WolfpackChance,
		WolfpackMin:           cfg.Ecosystem.WolfpackMin,
		WolfpackMax:           cfg.Ecosystem.WolfpackMax,
	}
}

// SetHooks installs host callbacks. Pass the zero value to clear.
func (s *Simulation) SetHooks(h Hooks) { s.hooks = h }

// Collector exposes the telemetry collector for host-driven stats flushes.
func (s *Simulation) Collector() *telemetry.Collector { return s.collector }

// SetWaterTemperature updates the water temperature used by thermal depth
// placement. Takes effect on subsequent spawns.
func (s *Simulation) SetWaterTemperature(tempF float64) { s.waterTempF = tempF }

// SetMaxDepth updates the lake's maximum depth in feet. Values <= 0 are
// ignored. Existing entities keep their pixel positions; only the feet
// mapping changes.
func (s *Simulation) SetMaxDepth(feet float64) {
	if feet <= 0 {
		return
	}
	s.converter.Resize(s.canvasH, feet)
}

// SetCanvasSize updates the simulated viewport. The depth scale and spatial
// grid are rebuilt to match.
func (s *Simulation) SetCanvasSize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	s.canvasW = w
	s.canvasH = h
	s.converter.Resize(h, 0)
	s.grid = systems.NewSpatialGrid(w, h, gridCellSize)
}

// SetFocalPoint sets the point of player interest (the lure). Fish AI
// targets it when no school out-competes it.
func (s *Simulation) SetFocalPoint(x, y float64) {
	s.focalX = x
	s.focalY = s.converter.ClampToWater(y)
	s.hasFocal = true
}

// ClearFocalPoint removes the focal point. Interested fish lose the target
// on their next decision.
func (s *Simulation) ClearFocalPoint() { s.hasFocal = false }

// SetReferencePoint sets the horizontal anchor spawns cluster around
// (typically the player's boat).
func (s *Simulation) SetReferencePoint(x float64) {
	s.refX = x
	s.hasRef = true
}

// ClearReferencePoint removes the spawn anchor; spawns spread across the
// full canvas again.
func (s *Simulation) ClearReferencePoint() { s.hasRef = false }

// TickCount returns the number of ticks advanced so far.
func (s *Simulation) TickCount() int64 { return s.tick }

// SimTimeSec returns accumulated simulated time in seconds.
func (s *Simulation) SimTimeSec() float64 { return s.simTimeMs / 1000 }

// EcosystemState returns a copy of the regime controller's state.
func (s *Simulation) EcosystemState() systems.EcosystemState { return s.controller.State() }

// PredatorCount returns the number of live predators.
func (s *Simulation) PredatorCount() int { return s.numPredators }

// BaitfishCount returns the number of live baitfish across all schools.
func (s *Simulation) BaitfishCount() int { return s.numBaitfish }

// SchoolCount returns the number of live schools.
func (s *Simulation) SchoolCount() int { return len(s.schoolOrder) }

// ZooplanktonCount returns the number of live zooplankton.
func (s *Simulation) ZooplanktonCount() int { return s.numZooplankton }

// CrayfishCount returns the number of live crayfish.
func (s *Simulation) CrayfishCount() int { return s.numCrayfish }

// spawnContext assembles the environment view handed to the spawner.
func (s *Simulation) spawnContext() systems.SpawnContext {
	return systems.SpawnContext{
		WaterTempF:       s.waterTempF,
		ActualMaxDepthFt: s.converter.MaxDepthFeet(),
		CanvasW:          s.canvasW,
		ReferenceX:       s.refX,
		HasReference:     s.hasRef,
	}
}

func (s *Simulation) fireSpawned(id uint32, kind string) {
	if s.hooks.OnAgentSpawned != nil {
		s.hooks.OnAgentSpawned(id, kind)
	}
}

func (s *Simulation) fireRemoved(id uint32, reason string) {
	if s.hooks.OnAgentRemoved != nil {
		s.hooks.OnAgentRemoved(id, reason)
	}
}
