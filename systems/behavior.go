package systems

import (
	"math"
	"math/rand"

	"github.com/lornedev/stillwater/components"
	"github.com/lornedev/stillwater/config"
)

// strikeWindowMs is how long a fish holds STRIKING waiting for the host to
// resolve the catch before it spooks off.
const strikeWindowMs = 800

// SchoolTarget is a school's centroid as seen by the AI this frame.
type SchoolTarget struct {
	ID   uint32
	X, Y float64
}

// BehaviorInput carries the per-frame world view for one fish update.
type BehaviorInput struct {
	FocalX, FocalY float64
	HasFocal       bool
	Schools        []SchoolTarget
	DeltaMs        float64
	FloorY         float64
}

// BehaviorEvent reports state-machine side effects the simulation must
// apply: a landed strike entry or an arrival at a school to feed on.
type BehaviorEvent struct {
	Struck       bool   // fish entered STRIKING this frame
	StrikeFailed bool   // a strike roll failed, consuming an attempt
	FeedOnSchool uint32 // nonzero: consume members of this school
}

// FishBehavior drives the per-predator state machine. Decisions run on a
// cooldown timer rather than every frame; frenzy shortens the cooldown so
// frenzied fish escalate almost immediately.
type FishBehavior struct {
	cfg *config.BehaviorConfig
	rng *rand.Rand
}

// NewFishBehavior creates the state machine driver.
func NewFishBehavior(cfg *config.BehaviorConfig, rng *rand.Rand) *FishBehavior {
	return &FishBehavior{cfg: cfg, rng: rng}
}

// Update advances one fish by one frame: hunger drift, frenzy decay,
// cooldown-gated decisions, and movement.
func (b *FishBehavior) Update(f *components.Fish, pos *components.Position, vel *components.Velocity, in *BehaviorInput) BehaviorEvent {
	dt := in.DeltaMs
	f.StateMs += dt

	f.Hunger = clamp(f.Hunger+b.cfg.HungerRatePerSec*dt/1000, 0, 100)

	b.decayFrenzy(f)
	b.refreshTarget(f, in)

	var ev BehaviorEvent
	f.DecisionCooldownMs -= dt
	if f.DecisionCooldownMs <= 0 {
		ev = b.decide(f, pos, in)
		if f.Frenzy.Active {
			f.DecisionCooldownMs = b.cfg.FrenzyCooldownMs
		} else {
			f.DecisionCooldownMs = b.cfg.DecisionCooldownMs
		}
	}

	b.move(f, pos, vel, in)
	return ev
}

// decayFrenzy ticks the frenzy countdown; expiry restores the baseline
// strike-attempt cap.
func (b *FishBehavior) decayFrenzy(f *components.Fish) {
	if !f.Frenzy.Active {
		return
	}
	f.Frenzy.RemainingTicks--
	if f.Frenzy.RemainingTicks <= 0 {
		f.Frenzy = components.Frenzy{}
		f.MaxStrikeAttempts = b.cfg.MaxStrikeAttempts
	}
}

// refreshTarget updates the cached target position. A dead school's last
// known centroid is kept until the next decision retargets; the school
// itself is never dereferenced.
func (b *FishBehavior) refreshTarget(f *components.Fish, in *BehaviorInput) {
	if f.TargetSchool != 0 {
		for i := range in.Schools {
			if in.Schools[i].ID == f.TargetSchool {
				f.TargetX = in.Schools[i].X
				f.TargetY = in.Schools[i].Y
				return
			}
		}
		return
	}
	if in.HasFocal {
		f.TargetX = in.FocalX
		f.TargetY = in.FocalY
	}
}

// decide runs one state-machine evaluation.
func (b *FishBehavior) decide(f *components.Fish, pos *components.Position, in *BehaviorInput) BehaviorEvent {
	var ev BehaviorEvent

	focalDist := math.Inf(1)
	if in.HasFocal {
		focalDist = dist(pos.X, pos.Y, in.FocalX, in.FocalY)
	}
	school, schoolDist := nearestSchool(pos, in.Schools)

	switch f.State {
	case components.StateIdle:
		// Schools out-compete the lure when they are the nearer target.
		if school != nil && schoolDist < f.DetectionRange && schoolDist < focalDist {
			b.targetSchool(f, school)
			break
		}
		if in.HasFocal && focalDist < f.DetectionRange {
			p := f.Aggression
			if f.Frenzy.Active {
				p = clamp(p+f.Frenzy.Intensity*0.3, 0, 1)
			}
			if b.rng.Float64() < p {
				b.enterState(f, components.StateInterested)
			}
		}

	case components.StateInterested:
		if school != nil && schoolDist < f.DetectionRange && schoolDist < focalDist {
			b.targetSchool(f, school)
			break
		}
		if !in.HasFocal || focalDist > f.DetectionRange*1.2 {
			b.enterState(f, components.StateIdle)
			break
		}
		if f.StateMs >= b.cfg.InterestDwellMs {
			f.StrikeAttempts = 0
			b.enterState(f, components.StateChasing)
		}

	case components.StateChasing:
		if school != nil && schoolDist < f.DetectionRange && schoolDist < focalDist {
			b.targetSchool(f, school)
			break
		}
		if !in.HasFocal || focalDist > f.DetectionRange*1.5 {
			b.enterState(f, components.StateIdle)
			break
		}
		if focalDist < f.StrikeDistance {
			if b.rng.Float64() < b.cfg.StrikeProbability {
				b.enterState(f, components.StateStriking)
				ev.Struck = true
				break
			}
			ev.StrikeFailed = true
			f.StrikeAttempts++
			if f.StrikeAttempts >= f.MaxStrikeAttempts {
				b.enterState(f, components.StateFleeing)
			}
		}

	case components.StateStriking:
		// The host resolves the catch; an unanswered strike spooks the fish.
		if f.StateMs >= strikeWindowMs {
			b.enterState(f, components.StateFleeing)
		}

	case components.StateFleeing:
		if f.StateMs >= b.cfg.FleeCooldownMs {
			b.enterState(f, components.StateIdle)
		}

	case components.StateHuntingBaitfish:
		alive := schoolByID(in.Schools, f.TargetSchool)
		if alive == nil {
			// Target school was eaten out or despawned; retarget or go idle.
			if school != nil && schoolDist < f.DetectionRange {
				b.targetSchool(f, school)
			} else {
				f.TargetSchool = 0
				b.enterState(f, components.StateIdle)
			}
			break
		}
		arrive := f.StrikeDistance
		if arrive < 12 {
			arrive = 12
		}
		if dist(pos.X, pos.Y, alive.X, alive.Y) < arrive {
			b.enterState(f, components.StateFeeding)
			ev.FeedOnSchool = alive.ID
		}

	case components.StateFeeding:
		if f.StateMs >= b.cfg.FeedDurationMs {
			f.TargetSchool = 0
			b.enterState(f, components.StateIdle)
		}
	}

	return ev
}

func (b *FishBehavior) targetSchool(f *components.Fish, s *SchoolTarget) {
	f.TargetSchool = s.ID
	f.TargetX = s.X
	f.TargetY = s.Y
	b.enterState(f, components.StateHuntingBaitfish)
}

func (b *FishBehavior) enterState(f *components.Fish, s components.BehaviorState) {
	f.State = s
	f.StateMs = 0
}

// ForceFlee pushes a fish into FLEEING from any state (player action,
// exhausted strikes resolved externally).
func (b *FishBehavior) ForceFlee(f *components.Fish) {
	b.enterState(f, components.StateFleeing)
}

// move applies state-dependent motion and clamps the fish into the water
// column.
func (b *FishBehavior) move(f *components.Fish, pos *components.Position, vel *components.Velocity, in *BehaviorInput) {
	dt := in.DeltaMs / 1000

	switch f.State {
	case components.StateIdle:
		// Hold course at cruise speed, bleeding off any vertical motion.
		speed := math.Hypot(vel.X, vel.Y)
		if speed > 1 {
			scale := b.cfg.CruiseSpeed / speed
			vel.X *= scale
			vel.Y *= scale * 0.5
		}

	case components.StateInterested:
		b.steerToward(f, pos, vel, b.cfg.CruiseSpeed*0.6)

	case components.StateChasing, components.StateHuntingBaitfish:
		speed := b.cfg.ChaseSpeed
		if f.Frenzy.Active {
			speed *= 1 + 0.3*f.Frenzy.Intensity
		}
		b.steerToward(f, pos, vel, speed)

	case components.StateStriking:
		b.steerToward(f, pos, vel, b.cfg.ChaseSpeed*1.8)

	case components.StateFleeing:
		dx := pos.X - f.TargetX
		dy := pos.Y - f.TargetY
		d := math.Hypot(dx, dy)
		if d > 1 {
			vel.X = dx / d * b.cfg.FleeSpeed
			vel.Y = dy / d * b.cfg.FleeSpeed
		}

	case components.StateFeeding:
		vel.X *= 0.9
		vel.Y *= 0.9
	}

	pos.X += vel.X * dt
	pos.Y += vel.Y * dt

	if pos.Y < 0 {
		pos.Y = 0
		vel.Y = 0
	}
	if pos.Y > in.FloorY {
		pos.Y = in.FloorY
		vel.Y = 0
	}
}

func (b *FishBehavior) steerToward(f *components.Fish, pos *components.Position, vel *components.Velocity, speed float64) {
	dx := f.TargetX - pos.X
	dy := f.TargetY - pos.Y
	d := math.Hypot(dx, dy)
	if d < 1 {
		vel.X *= 0.8
		vel.Y *= 0.8
		return
	}
	vel.X = dx / d * speed
	vel.Y = dy / d * speed
}

// FrenzyCandidate pairs a fish with its squared distance to the frenzy
// source, as produced by a spatial query.
type FrenzyCandidate struct {
	Fish   *components.Fish
	DistSq float64
}

// PropagateFrenzy is the direct-mutation broadcast: every live predator
// within FrenzyRadiusFactor × the source's detection range is flipped into
// an active frenzy, visible on its very next decision. Returns the
// affected fish IDs. The source itself is not a candidate.
func (b *FishBehavior) PropagateFrenzy(src *components.Fish, candidates []FrenzyCandidate) []uint32 {
	radius := b.cfg.FrenzyRadiusFactor * src.DetectionRange
	radiusSq := radius * radius

	var affected []uint32
	for _, c := range candidates {
		if c.DistSq > radiusSq {
			continue
		}
		f := c.Fish
		f.Frenzy = components.Frenzy{
			Active:         true,
			RemainingTicks: b.cfg.FrenzyTicks,
			Intensity:      1.0,
		}
		f.MaxStrikeAttempts = b.cfg.FrenzyStrikeAttempts
		f.StrikeAttempts = 0
		if f.State == components.StateIdle {
			b.enterState(f, components.StateInterested)
			f.DecisionCooldownMs = b.cfg.FrenzyCooldownMs
		}
		affected = append(affected, f.ID)
	}
	return affected
}

// UpdateEmergency drives a scripted emergency predator until it triggers
// its frenzy, after which the caller switches it to the normal AI. The
// fish locks onto the nearest surviving school and charges; returns true
// when it has closed on the focal point and the frenzy should fire.
func (b *FishBehavior) UpdateEmergency(f *components.Fish, pos *components.Position, vel *components.Velocity, in *BehaviorInput) bool {
	dt := in.DeltaMs
	f.StateMs += dt
	b.decayFrenzy(f)

	// Retarget if the current school is gone.
	if schoolByID(in.Schools, f.TargetSchool) == nil {
		if s, _ := nearestSchool(pos, in.Schools); s != nil {
			f.TargetSchool = s.ID
		} else {
			f.TargetSchool = 0
		}
	}
	if s := schoolByID(in.Schools, f.TargetSchool); s != nil {
		f.TargetX = s.X
		f.TargetY = s.Y
	} else if in.HasFocal {
		f.TargetX = in.FocalX
		f.TargetY = in.FocalY
	}
	f.State = components.StateChasing

	b.steerToward(f, pos, vel, b.cfg.ChaseSpeed)
	pos.X += vel.X * dt / 1000
	pos.Y += vel.Y * dt / 1000
	if pos.Y < 0 {
		pos.Y = 0
	}
	if pos.Y > in.FloorY {
		pos.Y = in.FloorY
	}

	if in.HasFocal && !f.HasTriggeredFrenzy {
		if dist(pos.X, pos.Y, in.FocalX, in.FocalY) < b.cfg.EmergencyFrenzyRange*f.DetectionRange {
			return true
		}
	}
	return false
}

func nearestSchool(pos *components.Position, schools []SchoolTarget) (*SchoolTarget, float64) {
	var best *SchoolTarget
	bestDist := math.Inf(1)
	for i := range schools {
		d := dist(pos.X, pos.Y, schools[i].X, schools[i].Y)
		if d < bestDist {
			best = &schools[i]
			bestDist = d
		}
	}
	return best, bestDist
}

func schoolByID(schools []SchoolTarget, id uint32) *SchoolTarget {
	if id == 0 {
		return nil
	}
	for i := range schools {
		if schools[i].ID == id {
			return &schools[i]
		}
	}
	return nil
}

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
