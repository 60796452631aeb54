package sim

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/lornedev/stillwater/components"
	"github.com/lornedev/stillwater/systems"
)

// Tick advances the whole simulation by deltaMs of simulated time. Order
// matters: the regime controller runs first so spawn gating sees this
// tick's decision, then spawning, then movement and AI, then removals.
func (s *Simulation) Tick(deltaMs float64) {
	if deltaMs <= 0 {
		return
	}
	s.tick++
	s.simTimeMs += deltaMs
	s.collector.Advance(deltaMs)

	s.runEcosystem(deltaMs)
	s.runSpawning(deltaMs)
	s.rebuildGrid()
	s.snapshotSchools()
	s.updatePredators(deltaMs)
	s.updateSchools(deltaMs)
	s.updateDrifters(deltaMs)
	s.cullEntities()
}

// runEcosystem evaluates the regime controller on its fixed cadence and
// applies any decisions synchronously.
func (s *Simulation) runEcosystem(deltaMs float64) {
	interval := s.cfg.Ecosystem.CheckIntervalMs
	if interval < 1 {
		interval = 1
	}

	s.ecoAccumMs += deltaMs
	for s.ecoAccumMs >= interval {
		s.ecoAccumMs -= interval

		d := s.controller.Evaluate(s.numBaitfish, s.numPredators, s.rng)

		if d.RegimeChanged {
			slog.Info("regime_changed",
				"old", d.OldRegime.String(),
				"new", d.NewRegime.String(),
				"baitfish", s.numBaitfish,
				"predators", s.numPredators,
			)
			if s.hooks.OnRegimeChanged != nil {
				s.hooks.OnRegimeChanged(d.OldRegime.String(), d.NewRegime.String())
			}
		}

		if d.PurgePredators {
			n := s.purgePredators()
			s.collector.RecordPurge(n)
			slog.Info("predators_purged", "count", n)
		}

		if d.BurstSpawn > 0 {
			ctx := s.spawnContext()
			spawned := 0
			for i := 0; i < d.BurstSpawn; i++ {
				plan := s.spawner.SpawnWolfpackPredator(ctx)
				if plan == nil {
					continue
				}
				s.registerFish(plan, "predator")
				s.collector.RecordWolfpackSpawn()
				spawned++
			}
			slog.Info("wolfpack_burst", "requested", d.BurstSpawn, "spawned", spawned)
		}
	}
}

// runSpawning drives the per-kind spawn timers.
func (s *Simulation) runSpawning(deltaMs float64) {
	ctx := s.spawnContext()
	st := s.controller.State()
	sp := &s.cfg.Spawning

	s.predAccumMs += deltaMs
	for sp.PredatorIntervalMs > 0 && s.predAccumMs >= sp.PredatorIntervalMs {
		s.predAccumMs -= sp.PredatorIntervalMs
		plan := s.spawner.TrySpawnPredator(st, s.limiter, s.numPredators, s.numBaitfish, ctx)
		if plan == nil {
			continue
		}
		s.registerFish(plan, "predator")
		if st.Regime == systems.RegimeRecovering {
			s.collector.RecordScoutSpawn()
		} else {
			s.collector.RecordPredatorSpawn()
		}
	}

	s.schoolAccumMs += deltaMs
	for sp.SchoolIntervalMs > 0 && s.schoolAccumMs >= sp.SchoolIntervalMs {
		s.schoolAccumMs -= sp.SchoolIntervalMs
		plan := s.spawner.TrySpawnBaitfishSchool(st, s.limiter, len(s.schoolOrder), ctx)
		if plan == nil {
			continue
		}
		s.spawnSchool(plan)
		s.collector.RecordSchoolSpawn()
	}

	s.zooAccumMs += deltaMs
	for sp.ZooplanktonIntervalMs > 0 && s.zooAccumMs >= sp.ZooplanktonIntervalMs {
		s.zooAccumMs -= sp.ZooplanktonIntervalMs
		s.spawnZooplankton(s.spawner.TrySpawnZooplankton(s.limiter, s.numZooplankton, ctx))
	}

	s.crayAccumMs += deltaMs
	for sp.CrayfishIntervalMs > 0 && s.crayAccumMs >= sp.CrayfishIntervalMs {
		s.crayAccumMs -= sp.CrayfishIntervalMs
		s.spawnCrayfish(s.spawner.TrySpawnCrayfish(s.limiter, s.numCrayfish, ctx))
	}
}

// rebuildGrid reindexes predators for this tick's frenzy queries.
func (s *Simulation) rebuildGrid() {
	s.grid.Clear()
	query := s.fishFilter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		s.grid.Insert(query.Entity(), pos.X, pos.Y)
	}
}

// snapshotSchools captures centroids into the per-tick target list handed
// to the fish AI. Order follows school creation, so AI retargeting is
// deterministic under a fixed seed.
func (s *Simulation) snapshotSchools() {
	s.schoolScratch = s.schoolScratch[:0]
	for _, id := range s.schoolOrder {
		sch := s.schools[id]
		s.schoolScratch = append(s.schoolScratch, systems.SchoolTarget{
			ID: sch.ID,
			X:  sch.CentroidX,
			Y:  sch.CentroidY,
		})
	}
}

// updatePredators runs the fish AI. Entities are collected first; feeding
// removes baitfish entities, which must not happen inside an open query.
func (s *Simulation) updatePredators(deltaMs float64) {
	s.fishScratch = s.fishScratch[:0]
	query := s.fishFilter.Query()
	for query.Next() {
		s.fishScratch = append(s.fishScratch, query.Entity())
	}

	in := systems.BehaviorInput{
		FocalX:   s.focalX,
		FocalY:   s.focalY,
		HasFocal: s.hasFocal,
		Schools:  s.schoolScratch,
		DeltaMs:  deltaMs,
		FloorY:   s.converter.WaterFloorY(),
	}

	for _, e := range s.fishScratch {
		fish := s.fishMap.Get(e)
		if fish == nil {
			continue
		}
		pos := s.posMap.Get(e)
		vel := s.velMap.Get(e)

		// Scripted predators run a distinct charge until their frenzy fires,
		// then drop into the normal state machine.
		if fish.IsEmergency && !fish.HasTriggeredFrenzy {
			if s.behavior.UpdateEmergency(fish, pos, vel, &in) {
				fish.HasTriggeredFrenzy = true
				s.triggerFrenzy(e, fish, pos)
			}
			continue
		}

		ev := s.behavior.Update(fish, pos, vel, &in)

		// A starving fish wastes away; removal happens in the cull pass.
		if fish.Hunger >= 100 {
			fish.Health -= 2 * deltaMs / 1000
		}

		if ev.Struck {
			s.collector.RecordStrike()
			s.triggerFrenzy(e, fish, pos)
		}
		if ev.StrikeFailed {
			s.collector.RecordStrikeAttempt()
		}
		if ev.FeedOnSchool != 0 {
			eaten := s.consumeFromSchool(ev.FeedOnSchool, s.cfg.Behavior.FeedBiteSize)
			if eaten > 0 {
				fish.Hunger -= float64(eaten) * s.cfg.Behavior.HungerPerBaitfish
				if fish.Hunger < 0 {
					fish.Hunger = 0
				}
				s.collector.RecordBaitfishConsumed(eaten)
			}
		}
	}
}

// triggerFrenzy broadcasts a frenzy from one fish to every predator within
// the propagation radius. An already frenzied source does not re-broadcast.
func (s *Simulation) triggerFrenzy(src ecs.Entity, fish *components.Fish, pos *components.Position) {
	if fish.Frenzy.Active {
		return
	}

	radius := s.cfg.Behavior.FrenzyRadiusFactor * fish.DetectionRange
	s.neighborScratch = s.grid.QueryRadiusInto(s.neighborScratch[:0], pos.X, pos.Y, radius, src, s.posMap)

	candidates := make([]systems.FrenzyCandidate, 0, len(s.neighborScratch))
	for _, n := range s.neighborScratch {
		nf := s.fishMap.Get(n.E)
		if nf == nil {
			continue
		}
		candidates = append(candidates, systems.FrenzyCandidate{Fish: nf, DistSq: n.DistSq})
	}

	affected := s.behavior.PropagateFrenzy(fish, candidates)

	// The source frenzies too.
	fish.Frenzy = components.Frenzy{
		Active:         true,
		RemainingTicks: s.cfg.Behavior.FrenzyTicks,
		Intensity:      1.0,
	}
	fish.MaxStrikeAttempts = s.cfg.Behavior.FrenzyStrikeAttempts

	s.collector.RecordFrenzy(len(affected))
	slog.Info("frenzy_triggered", "source", fish.ID, "affected", len(affected))
	if s.hooks.OnFrenzyTriggered != nil {
		s.hooks.OnFrenzyTriggered(fish.ID, affected)
	}
}

// updateSchools runs the flocking update per school and refreshes centroids.
func (s *Simulation) updateSchools(deltaMs float64) {
	floorY := s.converter.WaterFloorY()

	for _, id := range s.schoolOrder {
		sch := s.schools[id]

		s.memberScratch = s.memberScratch[:0]
		for _, e := range sch.Members {
			pos := s.posMap.Get(e)
			if pos == nil {
				continue
			}
			s.memberScratch = append(s.memberScratch, systems.SchoolMember{
				Pos:  pos,
				Vel:  s.velMap.Get(e),
				Bait: s.baitMap.Get(e),
			})
		}
		if len(s.memberScratch) == 0 {
			continue
		}

		s.schooling.Update(s.memberScratch, sch.DriftX, deltaMs, floorY)

		var sx, sy float64
		for i := range s.memberScratch {
			sx += s.memberScratch[i].Pos.X
			sy += s.memberScratch[i].Pos.Y
		}
		n := float64(len(s.memberScratch))
		sch.CentroidX = sx / n
		sch.CentroidY = sy / n
	}
}

// updateDrifters moves zooplankton and crayfish. Neither has AI; they
// exist as ambient food and bottom texture.
func (s *Simulation) updateDrifters(deltaMs float64) {
	dt := deltaMs / 1000
	floorY := s.converter.WaterFloorY()

	zq := s.zooFilter.Query()
	for zq.Next() {
		pos, zoo := zq.Get()
		zoo.DriftPhase += dt * 0.6
		pos.X += math.Sin(zoo.DriftPhase) * 4 * dt
		pos.Y += math.Cos(zoo.DriftPhase*0.7) * 2.5 * dt
		pos.Y = s.converter.ClampToWater(pos.Y)
	}

	cq := s.crayFilter.Query()
	for cq.Next() {
		pos, cray := cq.Get()
		cray.WanderMs -= deltaMs
		if cray.WanderMs <= 0 {
			if s.rng.Float64() < 0.5 {
				cray.Heading = -cray.Heading
			}
			cray.WanderMs = 2000 + s.rng.Float64()*4000
		}
		pos.X += cray.Heading * 12 * dt
		if pos.X < 0 {
			pos.X = 0
			cray.Heading = 1
		}
		if pos.X > s.canvasW {
			pos.X = s.canvasW
			cray.Heading = -1
		}
		pos.Y = floorY
	}
}

// cullEntities removes dead and far-offscreen predators and schools that
// have drifted out of play.
func (s *Simulation) cullEntities() {
	margin := s.cfg.Spawning.SchoolSpawnMargin * offscreenCullMargin

	type doomed struct {
		e      ecs.Entity
		reason string
	}
	var toRemove []doomed

	query := s.fishFilter.Query()
	for query.Next() {
		pos, _, fish := query.Get()
		switch {
		case fish.Health <= 0:
			toRemove = append(toRemove, doomed{query.Entity(), RemoveDied})
		case pos.X < -margin || pos.X > s.canvasW+margin:
			toRemove = append(toRemove, doomed{query.Entity(), RemoveOffscreen})
		}
	}
	for _, d := range toRemove {
		s.removeFish(d.e, d.reason)
	}

	var goneSchools []uint32
	for _, id := range s.schoolOrder {
		sch := s.schools[id]
		if sch.CentroidX < -margin || sch.CentroidX > s.canvasW+margin {
			goneSchools = append(goneSchools, id)
		}
	}
	for _, id := range goneSchools {
		s.destroySchool(id, RemoveOffscreen)
	}
}
