package sim

import (
	"errors"
	"testing"

	"github.com/lornedev/stillwater/components"
	"github.com/lornedev/stillwater/config"
	"github.com/lornedev/stillwater/species"
	"github.com/lornedev/stillwater/systems"
)

func newTestSim(t *testing.T, seed int64) (*Simulation, *config.Config) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	catalog, err := species.Build(cfg)
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return New(cfg, catalog, seed), cfg
}

func testSchoolPlan(s *Simulation, size int) *systems.SchoolPlan {
	return &systems.SchoolPlan{
		Species:  s.catalog.BaitfishAt(0),
		Size:     size,
		X:        600,
		DepthFt:  30,
		HeadingX: 1,
	}
}

func TestSimulation_EmergencyPredator(t *testing.T) {
	s, cfg := newTestSim(t, 1)

	id := s.SpawnEmergencyPredator()
	if s.PredatorCount() != 1 {
		t.Fatalf("predators = %d, want 1", s.PredatorCount())
	}

	views := s.ListPredators()
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	v := views[0]
	if v.ID != id || !v.Emergency {
		t.Errorf("view = %+v, want emergency with id %d", v, id)
	}
	if v.Hunger != 100 {
		t.Errorf("hunger = %g, want 100", v.Hunger)
	}
	if v.Health != cfg.Spawning.EmergencyHealth {
		t.Errorf("health = %g, want %g", v.Health, cfg.Spawning.EmergencyHealth)
	}
}

func TestSimulation_CatchAttempt(t *testing.T) {
	s, _ := newTestSim(t, 1)

	if _, err := s.CatchAttempt(999); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("unknown id: err = %v, want ErrUnknownAgent", err)
	}

	id := s.SpawnEmergencyPredator()

	// Not striking: the attempt fails and spooks the fish.
	caught, err := s.CatchAttempt(id)
	if err != nil {
		t.Fatal(err)
	}
	if caught {
		t.Error("catch landed on a non-striking fish")
	}
	if v := s.ListPredators()[0]; v.State != "fleeing" {
		t.Errorf("spooked fish state = %s, want fleeing", v.State)
	}
}

func TestSimulation_CatchDuringStrikeRemovesFish(t *testing.T) {
	s, _ := newTestSim(t, 1)
	id := s.SpawnEmergencyPredator()

	// Force the fish mid-strike.
	query := s.fishFilter.Query()
	for query.Next() {
		_, _, fish := query.Get()
		fish.State = components.StateStriking
	}

	caught, err := s.CatchAttempt(id)
	if err != nil {
		t.Fatal(err)
	}
	if !caught {
		t.Fatal("strike-state catch should land")
	}
	if s.PredatorCount() != 0 {
		t.Errorf("predators = %d after catch, want 0", s.PredatorCount())
	}
}

func TestSimulation_SchoolConsumption(t *testing.T) {
	s, _ := newTestSim(t, 1)
	schoolID := s.spawnSchool(testSchoolPlan(s, 5))

	if s.BaitfishCount() != 5 || s.SchoolCount() != 1 {
		t.Fatalf("setup: %d baitfish in %d schools", s.BaitfishCount(), s.SchoolCount())
	}

	if eaten := s.consumeFromSchool(schoolID, 2); eaten != 2 {
		t.Errorf("eaten = %d, want 2", eaten)
	}
	if s.BaitfishCount() != 3 {
		t.Errorf("baitfish = %d, want 3", s.BaitfishCount())
	}

	// Eating past the remaining members destroys the school.
	if eaten := s.consumeFromSchool(schoolID, 10); eaten != 3 {
		t.Errorf("eaten = %d, want 3", eaten)
	}
	if s.SchoolCount() != 0 || s.BaitfishCount() != 0 {
		t.Errorf("school not destroyed: %d schools, %d baitfish", s.SchoolCount(), s.BaitfishCount())
	}
}

func TestSimulation_RegimeChangeHook(t *testing.T) {
	s, cfg := newTestSim(t, 1)

	var oldR, newR string
	s.SetHooks(Hooks{OnRegimeChanged: func(o, n string) { oldR, newR = o, n }})

	// Enough baitfish to cross the feeding threshold on the next evaluation.
	s.spawnSchool(testSchoolPlan(s, cfg.Ecosystem.FeedingThreshold+5))
	s.Tick(cfg.Ecosystem.CheckIntervalMs)

	if oldR != "recovering" || newR != "feeding" {
		t.Errorf("regime hook = %q -> %q, want recovering -> feeding", oldR, newR)
	}
}

func TestSimulation_SpawnHooks(t *testing.T) {
	s, _ := newTestSim(t, 1)

	spawned := map[string]int{}
	removed := map[string]int{}
	s.SetHooks(Hooks{
		OnAgentSpawned: func(id uint32, kind string) { spawned[kind]++ },
		OnAgentRemoved: func(id uint32, reason string) { removed[reason]++ },
	})

	id := s.SpawnEmergencyPredator()
	if spawned["emergency_predator"] != 1 {
		t.Errorf("spawn hook fired %d times", spawned["emergency_predator"])
	}

	query := s.fishFilter.Query()
	for query.Next() {
		_, _, fish := query.Get()
		fish.State = components.StateStriking
	}
	if _, err := s.CatchAttempt(id); err != nil {
		t.Fatal(err)
	}
	if removed[RemoveCaught] != 1 {
		t.Errorf("removal hook fired %d times for catch", removed[RemoveCaught])
	}
}

func TestSimulation_PopulationCeilingsHold(t *testing.T) {
	s, cfg := newTestSim(t, 42)

	// Several minutes of simulated time at a coarse step.
	for i := 0; i < 3000; i++ {
		s.Tick(100)

		if s.ZooplanktonCount() > cfg.Population.MaxZooplankton {
			t.Fatalf("tick %d: zooplankton %d over ceiling %d", i, s.ZooplanktonCount(), cfg.Population.MaxZooplankton)
		}
		if s.CrayfishCount() > cfg.Population.CrayfishTarget {
			t.Fatalf("tick %d: crayfish %d over target %d", i, s.CrayfishCount(), cfg.Population.CrayfishTarget)
		}
		if s.SchoolCount() > cfg.Population.MaxSchoolsRecovery {
			t.Fatalf("tick %d: schools %d over raised ceiling %d", i, s.SchoolCount(), cfg.Population.MaxSchoolsRecovery)
		}
	}

	// Snapshot counts agree with the incremental counters.
	if got := len(s.ListPredators()); got != s.PredatorCount() {
		t.Errorf("predator views %d != count %d", got, s.PredatorCount())
	}
	if got := len(s.ListSchools()); got != s.SchoolCount() {
		t.Errorf("school views %d != count %d", got, s.SchoolCount())
	}
	if got := len(s.ListZooplankton()); got != s.ZooplanktonCount() {
		t.Errorf("zooplankton views %d != count %d", got, s.ZooplanktonCount())
	}
	if got := len(s.ListCrayfish()); got != s.CrayfishCount() {
		t.Errorf("crayfish views %d != count %d", got, s.CrayfishCount())
	}
}

func TestSimulation_OffscreenSchoolCulled(t *testing.T) {
	s, _ := newTestSim(t, 1)

	plan := testSchoolPlan(s, 4)
	plan.X = -5000
	s.spawnSchool(plan)

	s.Tick(16)
	if s.SchoolCount() != 0 || s.BaitfishCount() != 0 {
		t.Errorf("far-offscreen school survived: %d schools, %d baitfish", s.SchoolCount(), s.BaitfishCount())
	}
}

func TestSimulation_Reset(t *testing.T) {
	s, _ := newTestSim(t, 7)

	s.SpawnEmergencyPredator()
	s.spawnSchool(testSchoolPlan(s, 8))
	for i := 0; i < 100; i++ {
		s.Tick(100)
	}

	s.Reset()

	if s.PredatorCount() != 0 || s.BaitfishCount() != 0 || s.SchoolCount() != 0 ||
		s.ZooplanktonCount() != 0 || s.CrayfishCount() != 0 {
		t.Errorf("populations survived reset: pred=%d bait=%d schools=%d zoo=%d cray=%d",
			s.PredatorCount(), s.BaitfishCount(), s.SchoolCount(), s.ZooplanktonCount(), s.CrayfishCount())
	}
	if s.TickCount() != 0 || s.SimTimeSec() != 0 {
		t.Errorf("clock survived reset: tick=%d time=%g", s.TickCount(), s.SimTimeSec())
	}
	if st := s.EcosystemState(); st.Regime != systems.RegimeRecovering || st.SpawnMode != systems.SpawnNone {
		t.Errorf("controller survived reset: %+v", st)
	}
	if len(s.ListPredators()) != 0 || len(s.ListSchools()) != 0 {
		t.Error("views nonempty after reset")
	}

	// The simulation keeps working after a reset.
	for i := 0; i < 50; i++ {
		s.Tick(100)
	}
}

func TestSimulation_FlushStats(t *testing.T) {
	s, _ := newTestSim(t, 1)
	s.SpawnEmergencyPredator()
	s.spawnSchool(testSchoolPlan(s, 6))

	stats := s.FlushStats()
	if stats.Predators != 1 || stats.Baitfish != 6 || stats.Schools != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.EmergencySpawns != 1 {
		t.Errorf("emergency spawns = %d, want 1", stats.EmergencySpawns)
	}
	if stats.Regime != "recovering" {
		t.Errorf("regime = %s, want recovering", stats.Regime)
	}
	if stats.HungerMean != 100 {
		t.Errorf("hunger mean = %g, want 100 (single starving fish)", stats.HungerMean)
	}
}
