package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/lornedev/stillwater/components"
	"github.com/lornedev/stillwater/species"
	"github.com/lornedev/stillwater/systems"
)

// ErrUnknownAgent is returned by CatchAttempt for IDs with no live fish.
var ErrUnknownAgent = errors.New("unknown agent")

// Removal reasons reported through OnAgentRemoved.
const (
	RemoveCaught    = "caught"
	RemoveDied      = "died"
	RemoveEaten     = "eaten"
	RemovePurged    = "purged"
	RemoveOffscreen = "offscreen"
	RemoveReset     = "reset"
)

// registerFish creates a predator entity from a spawn plan and returns its ID.
func (s *Simulation) registerFish(plan *systems.FishPlan, kind string) uint32 {
	id := s.nextID
	s.nextID++

	bcfg := &s.cfg.Behavior
	pos := components.Position{X: plan.X, Y: s.converter.DepthToY(plan.DepthFt)}
	vel := components.Velocity{X: plan.HeadingX * bcfg.CruiseSpeed}

	idx := s.catalog.PredatorIndex(plan.Species.ID)
	if idx < 0 {
		idx = 0
	}
	fish := components.Fish{
		ID:                 id,
		SpeciesIdx:         uint8(idx),
		SizeClass:          plan.SizeClass,
		Hunger:             plan.Hunger,
		Health:             plan.Health,
		State:              components.StateIdle,
		DetectionRange:     plan.Species.DetectionRange,
		StrikeDistance:     plan.Species.StrikeDistance,
		Aggression:         plan.Species.Aggressiveness,
		MaxStrikeAttempts:  bcfg.MaxStrikeAttempts,
		// Jitter the first decision so a burst doesn't evaluate in lockstep.
		DecisionCooldownMs: s.rng.Float64() * bcfg.DecisionCooldownMs,
		IsEmergency:        plan.Emergency,
		CreatedAtTick:      s.tick,
	}

	s.fishMapper.NewEntity(&pos, &vel, &fish)
	s.numPredators++
	s.fireSpawned(id, kind)
	return id
}

// spawnSchool creates a school and its member entities from a spawn plan.
func (s *Simulation) spawnSchool(plan *systems.SchoolPlan) uint32 {
	schoolID := s.nextSchID
	s.nextSchID++

	idx := s.catalog.BaitfishIndex(plan.Species.ID)
	if idx < 0 {
		idx = 0
	}

	scatter := scatterRadius(plan.Species.Density)
	cy := s.converter.DepthToY(plan.DepthFt)

	sch := &School{
		ID:         schoolID,
		SpeciesIdx: uint8(idx),
		Members:    make([]ecs.Entity, 0, plan.Size),
		CentroidX:  plan.X,
		CentroidY:  cy,
		DriftX:     plan.HeadingX,
	}

	for i := 0; i < plan.Size; i++ {
		id := s.nextID
		s.nextID++

		angle := s.rng.Float64() * 2 * math.Pi
		r := s.rng.Float64() * scatter
		pos := components.Position{
			X: plan.X + math.Cos(angle)*r,
			Y: s.converter.ClampToWater(cy + math.Sin(angle)*r),
		}
		vel := components.Velocity{X: plan.HeadingX * s.cfg.Schooling.DriftSpeed}
		bait := components.Baitfish{
			ID:          id,
			SpeciesIdx:  uint8(idx),
			SchoolID:    schoolID,
			WanderPhase: s.rng.Float64() * 2 * math.Pi,
		}
		e := s.baitMapper.NewEntity(&pos, &vel, &bait)
		sch.Members = append(sch.Members, e)
		s.numBaitfish++
	}

	s.schools[schoolID] = sch
	s.schoolOrder = append(s.schoolOrder, schoolID)
	s.fireSpawned(schoolID, "school")
	return schoolID
}

// scatterRadius maps schooling density to initial placement spread in px.
func scatterRadius(d species.Density) float64 {
	switch d {
	case species.DensityTight:
		return 24
	case species.DensityLoose:
		return 48
	}
	return 64
}

func (s *Simulation) spawnZooplankton(plans []systems.PointPlan) {
	for _, p := range plans {
		id := s.nextID
		s.nextID++
		pos := components.Position{X: p.X, Y: s.converter.DepthToY(p.DepthFt)}
		zoo := components.Zooplankton{ID: id, DriftPhase: s.rng.Float64() * 2 * math.Pi}
		s.zooMapper.NewEntity(&pos, &zoo)
		s.numZooplankton++
		s.fireSpawned(id, "zooplankton")
	}
}

func (s *Simulation) spawnCrayfish(plans []systems.PointPlan) {
	for _, p := range plans {
		id := s.nextID
		s.nextID++
		heading := 1.0
		if s.rng.Float64() < 0.5 {
			heading = -1
		}
		pos := components.Position{X: p.X, Y: s.converter.WaterFloorY()}
		cray := components.Crayfish{
			ID:       id,
			Heading:  heading,
			WanderMs: 2000 + s.rng.Float64()*4000,
		}
		s.crayMapper.NewEntity(&pos, &cray)
		s.numCrayfish++
		s.fireSpawned(id, "crayfish")
	}
}

// SpawnEmergencyPredator injects the scripted engagement predator. It
// bypasses the limiter and the regime gate entirely; the host calls this
// when the player has gone too long without action.
func (s *Simulation) SpawnEmergencyPredator() uint32 {
	plan := s.spawner.SpawnEmergencyPredator(s.spawnContext())
	id := s.registerFish(&plan, "emergency_predator")
	s.collector.RecordEmergencySpawn()
	slog.Info("emergency_predator_spawned", "id", id, "species", plan.Species.ID)
	return id
}

// removeFish despawns one predator entity.
func (s *Simulation) removeFish(e ecs.Entity, reason string) {
	fish := s.fishMap.Get(e)
	if fish == nil {
		return
	}
	id := fish.ID
	s.fishMapper.Remove(e)
	s.numPredators--
	s.fireRemoved(id, reason)
}

// destroySchool removes a school and any surviving members.
func (s *Simulation) destroySchool(schoolID uint32, reason string) {
	sch, ok := s.schools[schoolID]
	if !ok {
		return
	}
	for _, e := range sch.Members {
		bait := s.baitMap.Get(e)
		if bait == nil {
			continue
		}
		id := bait.ID
		s.baitMapper.Remove(e)
		s.numBaitfish--
		s.fireRemoved(id, reason)
	}
	delete(s.schools, schoolID)
	for i, id := range s.schoolOrder {
		if id == schoolID {
			s.schoolOrder = append(s.schoolOrder[:i], s.schoolOrder[i+1:]...)
			break
		}
	}
	s.fireRemoved(schoolID, reason)
}

// consumeFromSchool removes up to bites members from a school and returns
// how many were eaten. An emptied school is destroyed.
func (s *Simulation) consumeFromSchool(schoolID uint32, bites int) int {
	sch, ok := s.schools[schoolID]
	if !ok {
		return 0
	}

	eaten := 0
	for eaten < bites && len(sch.Members) > 0 {
		// Eat from the tail; membership order carries no meaning.
		e := sch.Members[len(sch.Members)-1]
		sch.Members = sch.Members[:len(sch.Members)-1]

		bait := s.baitMap.Get(e)
		if bait == nil {
			continue
		}
		id := bait.ID
		s.baitMapper.Remove(e)
		s.numBaitfish--
		s.fireRemoved(id, RemoveEaten)
		eaten++
	}

	if len(sch.Members) == 0 {
		s.destroySchool(schoolID, RemoveEaten)
		s.collector.RecordSchoolDestroyed()
	}
	return eaten
}

// purgePredators removes every live predator. Fired by the ecosystem
// controller once per depletion cycle.
func (s *Simulation) purgePredators() int {
	var doomed []ecs.Entity
	query := s.fishFilter.Query()
	for query.Next() {
		doomed = append(doomed, query.Entity())
	}
	for _, e := range doomed {
		s.removeFish(e, RemovePurged)
	}
	return len(doomed)
}

// CatchAttempt resolves a host catch on the given predator. The catch lands
// only if the fish is mid-strike; any other state spooks it into fleeing.
// Returns ErrUnknownAgent when no live fish has that ID.
func (s *Simulation) CatchAttempt(id uint32) (bool, error) {
	var target ecs.Entity
	found := false

	query := s.fishFilter.Query()
	for query.Next() {
		_, _, fish := query.Get()
		if fish.ID == id {
			target = query.Entity()
			found = true
		}
	}
	if !found {
		return false, fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}

	fish := s.fishMap.Get(target)
	if fish.State == components.StateStriking {
		s.removeFish(target, RemoveCaught)
		s.collector.RecordCatchAttempt(true)
		return true, nil
	}

	s.behavior.ForceFlee(fish)
	s.collector.RecordCatchAttempt(false)
	return false, nil
}

// Reset returns the simulation to its initial empty state. Entity removal,
// school teardown, controller state, and timers are all replaced in one
// pass so no partial state can survive.
func (s *Simulation) Reset() {
	var doomed []ecs.Entity
	fq := s.fishFilter.Query()
	for fq.Next() {
		doomed = append(doomed, fq.Entity())
	}
	bq := s.baitFilter.Query()
	for bq.Next() {
		doomed = append(doomed, bq.Entity())
	}
	zq := s.zooFilter.Query()
	for zq.Next() {
		doomed = append(doomed, zq.Entity())
	}
	cq := s.crayFilter.Query()
	for cq.Next() {
		doomed = append(doomed, cq.Entity())
	}
	for _, e := range doomed {
		s.world.RemoveEntity(e)
	}

	s.schools = make(map[uint32]*School)
	s.schoolOrder = s.schoolOrder[:0]
	s.numPredators = 0
	s.numBaitfish = 0
	s.numZooplankton = 0
	s.numCrayfish = 0

	s.controller.Reset()
	s.collector.Reset()

	s.ecoAccumMs = 0
	s.predAccumMs = 0
	s.schoolAccumMs = 0
	s.zooAccumMs = 0
	s.crayAccumMs = 0
	s.tick = 0
	s.simTimeMs = 0
	s.nextID = 1
	s.nextSchID = 1

	slog.Info("simulation_reset")
}
