package systems

import "math/rand"

// Regime is the ecosystem's coarse state, driven by baitfish abundance.
type Regime uint8

const (
	RegimeRecovering Regime = iota
	RegimeFeeding
)

func (r Regime) String() string {
	if r == RegimeFeeding {
		return "feeding"
	}
	return "recovering"
}

// SpawnMode is the sub-behavior while FEEDING: gradual predator trickle or
// a one-shot wolfpack burst.
type SpawnMode uint8

const (
	SpawnNone SpawnMode = iota
	SpawnTrickle
	SpawnWolfpack
)

func (m SpawnMode) String() string {
	switch m {
	case SpawnTrickle:
		return "trickle"
	case SpawnWolfpack:
		return "wolfpack"
	}
	return "none"
}

// EcosystemState is the controller's full mutable state. Reset replaces it
// wholesale so a failed teardown can never leave partial timers behind.
type EcosystemState struct {
	Regime                      Regime
	SpawnMode                   SpawnMode
	TicksSinceBaitDepleted      int
	TicksObservingRecovery      int
	LastBaitfishCount           int
	PredatorsDespawnedThisCycle bool
}

// EcosystemConfig holds the controller thresholds. Durations are expressed
// in controller ticks (one tick per Evaluate call).
type EcosystemConfig struct {
	FeedingThreshold      int // baitfish count for RECOVERING -> FEEDING
	RecoveryBaitThreshold int // baitfish count feeding the recovery-observation timer
	RecoveryMaxPredators  int // predator ceiling for the observation timer
	BaitGoneGraceTicks    int // zero-bait ticks tolerated before the predator purge
	ObservationTicks      int // recovery-observation ticks before a spawn mode is chosen
	WolfpackChance        float64
	WolfpackMin           int
	WolfpackMax           int
}

// Decision is the side-effect bundle produced by one controller evaluation.
// The simulation applies it synchronously in the same tick.
type Decision struct {
	RegimeChanged bool
	OldRegime     Regime
	NewRegime     Regime

	// PurgePredators requests removal of every live predator. Fired at most
	// once per depletion cycle.
	PurgePredators bool

	// BurstSpawn is the number of predators to spawn immediately for a
	// wolfpack. The burst bypasses the limiter; it is a scripted event, not
	// organic growth.
	BurstSpawn int
}

// EcosystemController observes aggregate population counts on a fixed
// cadence and drives the RECOVERING/FEEDING cycle with two-timescale
// hysteresis: fast depletion detection, slow recovery observation. A naive
// threshold controller would flap every tick as individual fish are eaten.
type EcosystemController struct {
	cfg   EcosystemConfig
	state EcosystemState
}

// NewEcosystemController creates a controller in the RECOVERING regime.
func NewEcosystemController(cfg EcosystemConfig) *EcosystemController {
	return &EcosystemController{cfg: cfg, state: EcosystemState{Regime: RegimeRecovering}}
}

// State returns a copy of the controller state.
func (c *EcosystemController) State() EcosystemState { return c.state }

// Reset atomically reinitializes the controller to its starting state.
func (c *EcosystemController) Reset() {
	c.state = EcosystemState{Regime: RegimeRecovering}
}

// Evaluate advances the controller by one tick given current aggregate
// counts. The returned Decision must be applied before the next Evaluate.
func (c *EcosystemController) Evaluate(baitfish, predators int, rng *rand.Rand) Decision {
	var d Decision
	st := &c.state

	// Depletion tracking runs independent of regime.
	if baitfish == 0 {
		st.TicksSinceBaitDepleted++
		if st.TicksSinceBaitDepleted > c.cfg.BaitGoneGraceTicks && !st.PredatorsDespawnedThisCycle {
			d.PurgePredators = true
			st.PredatorsDespawnedThisCycle = true
		}
	} else {
		st.TicksSinceBaitDepleted = 0
		st.PredatorsDespawnedThisCycle = false
	}

	// Regime transition on the feeding threshold. Dropping back to
	// RECOVERING always clears the spawn mode.
	old := st.Regime
	if baitfish >= c.cfg.FeedingThreshold {
		st.Regime = RegimeFeeding
	} else {
		st.Regime = RegimeRecovering
		st.SpawnMode = SpawnNone
	}
	if st.Regime != old {
		d.RegimeChanged = true
		d.OldRegime = old
		d.NewRegime = st.Regime
	}

	// Recovery observation: bait is back in force and predators are scarce.
	if baitfish >= c.cfg.RecoveryBaitThreshold && predators <= c.cfg.RecoveryMaxPredators {
		st.TicksObservingRecovery++
	} else {
		st.TicksObservingRecovery = 0
	}

	if st.TicksObservingRecovery > c.cfg.ObservationTicks && st.SpawnMode == SpawnNone {
		if rng.Float64() < c.cfg.WolfpackChance {
			st.SpawnMode = SpawnWolfpack
			span := c.cfg.WolfpackMax - c.cfg.WolfpackMin
			d.BurstSpawn = c.cfg.WolfpackMin
			if span > 0 {
				d.BurstSpawn += rng.Intn(span + 1)
			}
		} else {
			st.SpawnMode = SpawnTrickle
			st.LastBaitfishCount = baitfish
		}
		st.TicksObservingRecovery = 0
	}

	// Trickle terminates the first tick the bait population turns downward:
	// predators are now net-consuming, stop adding more.
	if st.SpawnMode == SpawnTrickle && baitfish < st.LastBaitfishCount {
		st.SpawnMode = SpawnNone
	}
	st.LastBaitfishCount = baitfish

	return d
}
