package systems

import (
	"math/rand"

	"github.com/lornedev/stillwater/config"
	"github.com/lornedev/stillwater/species"
)

// SpawnContext carries the environment readings a spawn decision needs.
// The host updates these between ticks; the engine never reaches past them.
type SpawnContext struct {
	WaterTempF       float64
	ActualMaxDepthFt float64
	CanvasW          float64
	ReferenceX       float64
	HasReference     bool
}

// FishPlan describes a predator to be registered by the caller.
type FishPlan struct {
	Species   *species.Descriptor
	SizeClass species.SizeClass
	X         float64
	DepthFt   float64
	HeadingX  float64 // -1 or +1, initial swim direction
	Hunger    float64
	Health    float64
	Emergency bool
}

// SchoolPlan describes a baitfish school to be registered by the caller.
type SchoolPlan struct {
	Species *species.Descriptor
	Size    int
	X       float64
	DepthFt float64
	// HeadingX points into the visible area; schools always spawn
	// off-screen and swim into view.
	HeadingX float64
}

// PointPlan describes a zooplankton or crayfish placement.
type PointPlan struct {
	X       float64
	DepthFt float64
}

// Spawner decides whether, what, and where to spawn. It produces plans; the
// simulation owns entity registration, so a refused spawn has no side
// effects at all.
type Spawner struct {
	cfg     *config.Config
	catalog *species.Catalog
	rng     *rand.Rand
}

// NewSpawner creates a spawning engine.
func NewSpawner(cfg *config.Config, catalog *species.Catalog, rng *rand.Rand) *Spawner {
	return &Spawner{cfg: cfg, catalog: catalog, rng: rng}
}

// TrySpawnPredator plans one organic predator spawn, or returns nil when the
// regime, spawn mode, limiter, or water depth refuses it.
func (s *Spawner) TrySpawnPredator(st EcosystemState, lim *PopulationLimiter, predators, baitfish int, ctx SpawnContext) *FishPlan {
	sp := &s.cfg.Spawning

	switch st.Regime {
	case RegimeRecovering:
		// Only a capped handful of low-probability scouts while the bait
		// population rebuilds.
		if predators >= sp.ScoutCap {
			return nil
		}
		if s.rng.Float64() >= sp.ScoutChance {
			return nil
		}
	case RegimeFeeding:
		// WOLFPACK already burst; only TRICKLE admits organic spawns.
		if st.SpawnMode != SpawnTrickle {
			return nil
		}
		if !lim.CanSpawnPredator(predators, baitfish) {
			return nil
		}
	}

	desc := s.catalog.SelectPredator(s.rng)
	if desc == nil {
		return nil
	}
	return s.planPredator(desc, desc.RollSizeClass(s.rng), ctx)
}

// planPredator resolves depth and position for a predator of the given
// species, refusing only when the water is too shallow for the species.
func (s *Spawner) planPredator(desc *species.Descriptor, size species.SizeClass, ctx SpawnContext) *FishPlan {
	if ctx.ActualMaxDepthFt < desc.MinWaterDepthFt {
		return nil
	}

	depth := s.rollPredatorDepth(desc, ctx)
	x, heading := s.rollHorizontal(ctx)

	return &FishPlan{
		Species:   desc,
		SizeClass: size,
		X:         x,
		DepthFt:   depth,
		HeadingX:  heading,
		Hunger:    40 + s.rng.Float64()*30,
		Health:    100,
	}
}

// rollPredatorDepth picks a depth inside the species preference band.
// Warm water pushes thermally sensitive species toward the deep end of
// their range; the result is clamped into the usable water column.
func (s *Spawner) rollPredatorDepth(desc *species.Descriptor, ctx SpawnContext) float64 {
	w := &s.cfg.Water
	tempNorm := (ctx.WaterTempF - w.TempRangeMinF) / (w.TempRangeMaxF - w.TempRangeMinF)
	tempNorm = clamp(tempNorm, 0, 1)

	lo := desc.DepthMinFeet
	hi := desc.DepthMaxFeet
	// Raise the floor of the band as the water warms.
	lo += desc.ThermalDepthBias * tempNorm * (hi - lo) * 0.5

	depth := lo + s.rng.Float64()*(hi-lo)
	return s.clampDepth(depth, ctx)
}

// rollHorizontal picks a spawn X and initial heading. With a reference
// point the fish spawns a configured offset to either side and faces it;
// otherwise it lands anywhere across the visible bounds.
func (s *Spawner) rollHorizontal(ctx SpawnContext) (x, heading float64) {
	sp := &s.cfg.Spawning
	if !ctx.HasReference {
		x = s.rng.Float64() * ctx.CanvasW
		heading = 1
		if s.rng.Float64() < 0.5 {
			heading = -1
		}
		return x, heading
	}

	offset := sp.ReferenceOffsetMin + s.rng.Float64()*(sp.ReferenceOffsetMax-sp.ReferenceOffsetMin)
	if s.rng.Float64() < 0.5 {
		offset = -offset
	}
	x = ctx.ReferenceX + offset
	heading = 1
	if x > ctx.ReferenceX {
		heading = -1
	}
	return x, heading
}

func (s *Spawner) clampDepth(depth float64, ctx SpawnContext) float64 {
	sp := &s.cfg.Spawning
	lo := sp.DepthClampMinFeet
	hi := ctx.ActualMaxDepthFt - sp.DepthClampMarginFeet
	if hi < lo {
		hi = lo
	}
	return clamp(depth, lo, hi)
}

// TrySpawnBaitfishSchool plans one school spawn, or nil on refusal.
func (s *Spawner) TrySpawnBaitfishSchool(st EcosystemState, lim *PopulationLimiter, schools int, ctx SpawnContext) *SchoolPlan {
	if !lim.CanSpawnBaitfishSchool(schools, st.Regime == RegimeRecovering) {
		return nil
	}

	desc := s.catalog.SelectBaitfish(s.rng)
	if desc == nil {
		return nil
	}
	desc = s.maybeRareDeepOverride(desc, ctx)

	if ctx.ActualMaxDepthFt < desc.MinWaterDepthFt {
		return nil
	}

	x, heading := s.rollOffscreenX(ctx)
	return &SchoolPlan{
		Species:  desc,
		Size:     s.rollSchoolSize(desc),
		X:        x,
		DepthFt:  s.rollSchoolDepth(desc, ctx),
		HeadingX: heading,
	}
}

// maybeRareDeepOverride swaps the most common baitfish roll for the rare
// deep-water species when the lake is deep enough.
func (s *Spawner) maybeRareDeepOverride(desc *species.Descriptor, ctx SpawnContext) *species.Descriptor {
	sp := &s.cfg.Spawning
	if sp.RareDeepSpeciesID == "" || ctx.ActualMaxDepthFt < sp.RareDeepMinFeet {
		return desc
	}
	if desc != s.primaryBaitfish() {
		return desc
	}
	if s.rng.Float64() >= sp.RareDeepChance {
		return desc
	}
	rare, err := s.catalog.Get(sp.RareDeepSpeciesID)
	if err != nil {
		return desc
	}
	return rare
}

// primaryBaitfish returns the highest-weight baitfish species.
func (s *Spawner) primaryBaitfish() *species.Descriptor {
	var best *species.Descriptor
	for _, d := range s.catalog.Baitfish() {
		if best == nil || d.Weight > best.Weight {
			best = d
		}
	}
	return best
}

// rollSchoolSize picks a school size by tier: 60% small, 30% medium, 10%
// large aggregation, each tier a sub-range of the species' configured range.
func (s *Spawner) rollSchoolSize(desc *species.Descriptor) int {
	lo := float64(desc.SchoolSizeMin)
	hi := float64(desc.SchoolSizeMax)
	span := hi - lo

	roll := s.rng.Float64()
	var tlo, thi float64
	switch {
	case roll < 0.6:
		tlo, thi = lo, lo+span/3
	case roll < 0.9:
		tlo, thi = lo+span/3, lo+2*span/3
	default:
		tlo, thi = lo+2*span/3, hi
	}

	size := int(tlo + s.rng.Float64()*(thi-tlo))
	if size < desc.SchoolSizeMin {
		size = desc.SchoolSizeMin
	}
	return size
}

// rollSchoolDepth picks a depth in the species band; bottom dwellers are
// forced into the deepest third of theirs.
func (s *Spawner) rollSchoolDepth(desc *species.Descriptor, ctx SpawnContext) float64 {
	lo := desc.DepthMinFeet
	hi := desc.DepthMaxFeet
	if desc.BottomDweller {
		lo = hi - (hi-lo)/3
	}
	depth := lo + s.rng.Float64()*(hi-lo)
	return s.clampDepth(depth, ctx)
}

// rollOffscreenX picks a side off the visible area and the heading that
// carries the school back into view.
func (s *Spawner) rollOffscreenX(ctx SpawnContext) (x, heading float64) {
	margin := s.cfg.Spawning.SchoolSpawnMargin
	if s.rng.Float64() < 0.5 {
		return -margin, 1
	}
	return ctx.CanvasW + margin, -1
}

// SpawnWolfpackPredator plans one predator of a wolfpack burst. The burst is
// a scripted event and bypasses the limiter; only water too shallow for the
// rolled species refuses it.
func (s *Spawner) SpawnWolfpackPredator(ctx SpawnContext) *FishPlan {
	desc := s.catalog.SelectPredator(s.rng)
	if desc == nil {
		return nil
	}
	return s.planPredator(desc, desc.RollSizeClass(s.rng), ctx)
}

// SpawnEmergencyPredator plans a scripted predator guaranteed to engage the
// player: hungry, weak, mid-column, heading for the reference point. It
// bypasses the limiter entirely.
func (s *Spawner) SpawnEmergencyPredator(ctx SpawnContext) FishPlan {
	sp := &s.cfg.Spawning
	desc, err := s.catalog.Get(sp.EmergencySpeciesID)
	if err != nil {
		// Catalog validation guarantees at least one predator.
		desc = s.catalog.Predator(0)
	}

	x, heading := s.rollHorizontal(ctx)
	return FishPlan{
		Species:   desc,
		SizeClass: species.SizeMedium,
		X:         x,
		DepthFt:   s.clampDepth(ctx.ActualMaxDepthFt/2, ctx),
		HeadingX:  heading,
		Hunger:    100,
		Health:    sp.EmergencyHealth,
		Emergency: true,
	}
}

// TrySpawnZooplankton plans a small batch biased toward the bottom tier.
// Returns nil when the batch would exceed the population ceiling.
func (s *Spawner) TrySpawnZooplankton(lim *PopulationLimiter, current int, ctx SpawnContext) []PointPlan {
	sp := &s.cfg.Spawning
	batch := sp.ZooplanktonBatchMin
	if span := sp.ZooplanktonBatchMax - sp.ZooplanktonBatchMin; span > 0 {
		batch += s.rng.Intn(span + 1)
	}
	if !lim.CanSpawnZooplankton(current, batch) {
		return nil
	}

	plans := make([]PointPlan, 0, batch)
	maxD := ctx.ActualMaxDepthFt
	for i := 0; i < batch; i++ {
		var lo, hi float64
		if s.rng.Float64() < sp.ZooplanktonDeepBias {
			lo, hi = maxD*2/3, maxD
		} else {
			lo, hi = maxD/3, maxD*2/3
		}
		plans = append(plans, PointPlan{
			X:       s.rng.Float64() * ctx.CanvasW,
			DepthFt: s.clampDepth(lo+s.rng.Float64()*(hi-lo), ctx),
		})
	}
	return plans
}

// TrySpawnCrayfish plans bottom placements topping the population up to its
// fixed target.
func (s *Spawner) TrySpawnCrayfish(lim *PopulationLimiter, current int, ctx SpawnContext) []PointPlan {
	deficit := lim.CrayfishDeficit(current)
	if deficit == 0 {
		return nil
	}

	plans := make([]PointPlan, 0, deficit)
	for i := 0; i < deficit; i++ {
		plans = append(plans, PointPlan{
			X:       s.rng.Float64() * ctx.CanvasW,
			DepthFt: s.clampDepth(ctx.ActualMaxDepthFt, ctx),
		})
	}
	return plans
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
