// Package components defines ECS components for the simulation.
package components

import "github.com/lornedev/stillwater/species"

// Position represents an entity's world position in pixels.
// Y is vertical screen space; depth in feet is derived through the
// depth converter.
type Position struct {
	X, Y float64
}

// Velocity represents an entity's velocity in pixels per second.
type Velocity struct {
	X, Y float64
}

// BehaviorState is the per-predator AI state.
type BehaviorState uint8

const (
	StateIdle BehaviorState = iota
	StateInterested
	StateChasing
	StateStriking
	StateFleeing
	StateHuntingBaitfish
	StateFeeding
)

func (s BehaviorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInterested:
		return "interested"
	case StateChasing:
		return "chasing"
	case StateStriking:
		return "striking"
	case StateFleeing:
		return "fleeing"
	case StateHuntingBaitfish:
		return "hunting_baitfish"
	case StateFeeding:
		return "feeding"
	}
	return "unknown"
}

// Frenzy is a temporary aggressiveness boost propagated between predators.
type Frenzy struct {
	Active         bool
	RemainingTicks int
	Intensity      float64 // 0-1
}

// Fish holds predator-specific state.
type Fish struct {
	ID         uint32
	SpeciesIdx uint8 // index into the catalog's predator list
	SizeClass  species.SizeClass

	Hunger float64 // 0-100, rises over time, drops on feeding
	Health float64 // 0-100, removal at <= 0

	State   BehaviorState
	StateMs float64 // time in current state

	// Species-derived AI parameters, copied at spawn so a fish never
	// chases the catalog at decision time.
	DetectionRange float64
	StrikeDistance float64
	Aggression     float64

	DecisionCooldownMs float64
	StrikeAttempts     int
	MaxStrikeAttempts  int

	Frenzy Frenzy

	// Current target. TargetSchool == 0 means the focal point (or nothing).
	TargetSchool uint32
	TargetX      float64
	TargetY      float64

	IsEmergency        bool
	HasTriggeredFrenzy bool
	CreatedAtTick      int64
}

// Baitfish marks a school member. The owning school tracks membership;
// a baitfish never outlives its school.
type Baitfish struct {
	ID         uint32
	SpeciesIdx uint8 // index into the catalog's baitfish list
	SchoolID   uint32

	// Wander phase for the boids drift term.
	WanderPhase float64
}

// Zooplankton is a passive drifting food particle.
type Zooplankton struct {
	ID         uint32
	DriftPhase float64
}

// Crayfish is a bottom-dwelling walker.
type Crayfish struct {
	ID       uint32
	Heading  float64 // -1 or +1, walk direction along the bottom
	WanderMs float64 // time until next direction roll
}
