package systems

import (
	"math/rand"
	"testing"

	"github.com/lornedev/stillwater/config"
	"github.com/lornedev/stillwater/species"
)

func testSpawner(t *testing.T, seed int64) (*Spawner, *config.Config) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	catalog, err := species.Build(cfg)
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return NewSpawner(cfg, catalog, rand.New(rand.NewSource(seed))), cfg
}

func testCtx() SpawnContext {
	return SpawnContext{
		WaterTempF:       52,
		ActualMaxDepthFt: 80,
		CanvasW:          1280,
	}
}

func testLimiter(cfg *config.Config) *PopulationLimiter {
	return NewPopulationLimiter(Limits{
		MaxPredators:        cfg.Population.MaxPredators,
		MinBaitForPredators: cfg.Population.MinBaitForPredators,
		MaxSchools:          cfg.Population.MaxSchools,
		MaxSchoolsRecovery:  cfg.Population.MaxSchoolsRecovery,
		MaxZooplankton:      cfg.Population.MaxZooplankton,
		CrayfishTarget:      cfg.Population.CrayfishTarget,
	})
}

func TestSpawner_ScoutGating(t *testing.T) {
	sp, cfg := testSpawner(t, 1)
	lim := testLimiter(cfg)
	st := EcosystemState{Regime: RegimeRecovering}

	// At the scout cap: never spawns regardless of the roll.
	for i := 0; i < 50; i++ {
		if plan := sp.TrySpawnPredator(st, lim, cfg.Spawning.ScoutCap, 50, testCtx()); plan != nil {
			t.Fatal("scout spawned at the cap")
		}
	}

	// Below the cap the scout roll eventually lands.
	cfg.Spawning.ScoutChance = 1.0
	if plan := sp.TrySpawnPredator(st, lim, 0, 50, testCtx()); plan == nil {
		t.Fatal("guaranteed scout roll refused")
	}
}

func TestSpawner_FeedingModeGating(t *testing.T) {
	sp, cfg := testSpawner(t, 1)
	lim := testLimiter(cfg)

	// FEEDING without a spawn mode (or after WOLFPACK burst): no organic spawns.
	for _, mode := range []SpawnMode{SpawnNone, SpawnWolfpack} {
		st := EcosystemState{Regime: RegimeFeeding, SpawnMode: mode}
		if plan := sp.TrySpawnPredator(st, lim, 0, 50, testCtx()); plan != nil {
			t.Errorf("mode %v admitted an organic spawn", mode)
		}
	}

	st := EcosystemState{Regime: RegimeFeeding, SpawnMode: SpawnTrickle}
	if plan := sp.TrySpawnPredator(st, lim, 0, 50, testCtx()); plan == nil {
		t.Error("TRICKLE with limiter headroom refused a spawn")
	}

	// Limiter still applies under TRICKLE.
	if plan := sp.TrySpawnPredator(st, lim, cfg.Population.MaxPredators, 50, testCtx()); plan != nil {
		t.Error("TRICKLE spawned past the predator ceiling")
	}
}

func TestSpawner_ShallowWaterRefusal(t *testing.T) {
	sp, cfg := testSpawner(t, 1)
	lim := testLimiter(cfg)
	st := EcosystemState{Regime: RegimeFeeding, SpawnMode: SpawnTrickle}

	ctx := testCtx()
	ctx.ActualMaxDepthFt = 5 // shallower than any species' minimum

	for i := 0; i < 50; i++ {
		if plan := sp.TrySpawnPredator(st, lim, 0, 50, ctx); plan != nil {
			t.Fatalf("species %s spawned in 5 ft of water", plan.Species.ID)
		}
	}
}

func TestSpawner_DepthClamping(t *testing.T) {
	sp, cfg := testSpawner(t, 3)
	lim := testLimiter(cfg)
	st := EcosystemState{Regime: RegimeFeeding, SpawnMode: SpawnTrickle}
	ctx := testCtx()

	lo := cfg.Spawning.DepthClampMinFeet
	hi := ctx.ActualMaxDepthFt - cfg.Spawning.DepthClampMarginFeet

	for i := 0; i < 200; i++ {
		plan := sp.TrySpawnPredator(st, lim, 0, 50, ctx)
		if plan == nil {
			continue
		}
		if plan.DepthFt < lo || plan.DepthFt > hi {
			t.Fatalf("depth %g outside clamp [%g, %g]", plan.DepthFt, lo, hi)
		}
	}
}

func TestSpawner_WarmWaterPushesThermalSpeciesDeeper(t *testing.T) {
	sp, cfg := testSpawner(t, 5)
	catalog, _ := species.Build(cfg)
	trout, err := catalog.Get("lake_trout")
	if err != nil {
		t.Fatal(err)
	}

	cold := testCtx()
	cold.WaterTempF = cfg.Water.TempRangeMinF
	warm := testCtx()
	warm.WaterTempF = cfg.Water.TempRangeMaxF

	samples := 500
	var coldSum, warmSum float64
	for i := 0; i < samples; i++ {
		coldSum += sp.rollPredatorDepth(trout, cold)
		warmSum += sp.rollPredatorDepth(trout, warm)
	}
	if warmSum/float64(samples) <= coldSum/float64(samples) {
		t.Errorf("warm water mean depth %.1f not deeper than cold %.1f",
			warmSum/float64(samples), coldSum/float64(samples))
	}
}

func TestSpawner_ReferencePointPlacement(t *testing.T) {
	sp, cfg := testSpawner(t, 9)
	ctx := testCtx()
	ctx.HasReference = true
	ctx.ReferenceX = 640

	for i := 0; i < 100; i++ {
		x, heading := sp.rollHorizontal(ctx)
		offset := x - ctx.ReferenceX
		if offset < 0 {
			offset = -offset
		}
		if offset < cfg.Spawning.ReferenceOffsetMin || offset > cfg.Spawning.ReferenceOffsetMax {
			t.Fatalf("offset %g outside [%g, %g]", offset, cfg.Spawning.ReferenceOffsetMin, cfg.Spawning.ReferenceOffsetMax)
		}
		// Always faces the reference.
		if x > ctx.ReferenceX && heading != -1 {
			t.Fatal("spawn right of reference should face left")
		}
		if x < ctx.ReferenceX && heading != 1 {
			t.Fatal("spawn left of reference should face right")
		}
	}
}

func TestSpawner_SchoolSpawn(t *testing.T) {
	sp, cfg := testSpawner(t, 2)
	lim := testLimiter(cfg)
	st := EcosystemState{Regime: RegimeFeeding}

	plan := sp.TrySpawnBaitfishSchool(st, lim, 0, testCtx())
	if plan == nil {
		t.Fatal("school refused with headroom")
	}
	if plan.Size < plan.Species.SchoolSizeMin || plan.Size > plan.Species.SchoolSizeMax {
		t.Errorf("school size %d outside species range [%d, %d]",
			plan.Size, plan.Species.SchoolSizeMin, plan.Species.SchoolSizeMax)
	}
	// Schools enter from off-screen.
	if plan.X >= 0 && plan.X <= testCtx().CanvasW {
		t.Errorf("school spawned on-screen at x=%g", plan.X)
	}
	if plan.HeadingX != 1 && plan.HeadingX != -1 {
		t.Errorf("heading %g not a unit direction", plan.HeadingX)
	}

	// At the ceiling: refused.
	if p := sp.TrySpawnBaitfishSchool(st, lim, cfg.Population.MaxSchools, testCtx()); p != nil {
		t.Error("school spawned past the ceiling")
	}
}

func TestSpawner_EmergencyPredator(t *testing.T) {
	sp, cfg := testSpawner(t, 4)

	plan := sp.SpawnEmergencyPredator(testCtx())
	if plan.Species.ID != cfg.Spawning.EmergencySpeciesID {
		t.Errorf("species = %s, want %s", plan.Species.ID, cfg.Spawning.EmergencySpeciesID)
	}
	if plan.Hunger != 100 {
		t.Errorf("hunger = %g, want 100", plan.Hunger)
	}
	if plan.Health != cfg.Spawning.EmergencyHealth {
		t.Errorf("health = %g, want %g", plan.Health, cfg.Spawning.EmergencyHealth)
	}
	if !plan.Emergency {
		t.Error("plan not flagged emergency")
	}
}

func TestSpawner_ZooplanktonCeiling(t *testing.T) {
	sp, cfg := testSpawner(t, 6)
	lim := testLimiter(cfg)

	if plans := sp.TrySpawnZooplankton(lim, cfg.Population.MaxZooplankton, testCtx()); plans != nil {
		t.Error("zooplankton batch spawned at the ceiling")
	}

	plans := sp.TrySpawnZooplankton(lim, 0, testCtx())
	if len(plans) < cfg.Spawning.ZooplanktonBatchMin || len(plans) > cfg.Spawning.ZooplanktonBatchMax {
		t.Errorf("batch size %d outside [%d, %d]",
			len(plans), cfg.Spawning.ZooplanktonBatchMin, cfg.Spawning.ZooplanktonBatchMax)
	}
}

func TestSpawner_CrayfishTopUp(t *testing.T) {
	sp, cfg := testSpawner(t, 8)
	lim := testLimiter(cfg)

	plans := sp.TrySpawnCrayfish(lim, 2, testCtx())
	if len(plans) != cfg.Population.CrayfishTarget-2 {
		t.Errorf("top-up planned %d, want %d", len(plans), cfg.Population.CrayfishTarget-2)
	}
	if plans2 := sp.TrySpawnCrayfish(lim, cfg.Population.CrayfishTarget, testCtx()); plans2 != nil {
		t.Error("crayfish planned at target population")
	}
}
