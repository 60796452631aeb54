package telemetry

// Collector accumulates simulation events within time windows and produces
// WindowStats. Window boundaries follow accumulated simulation time, so the
// cadence is stable under a variable frame rate.
type Collector struct {
	windowDurationMs float64
	elapsedMs        float64
	windowStartTick  int64

	// Event counters for current window
	predatorSpawns     int
	scoutSpawns        int
	wolfpackSpawns     int
	emergencySpawns    int
	schoolSpawns       int
	strikesAttempted   int
	strikes            int
	catchAttempts      int
	catches            int
	baitfishConsumed   int
	schoolsDestroyed   int
	frenziesTriggered  int
	frenzyFishAffected int
	predatorsPurged    int
}

// NewCollector creates a stats collector with the given window duration in
// simulation seconds.
func NewCollector(windowDurationSec float64) *Collector {
	ms := windowDurationSec * 1000
	if ms < 1 {
		ms = 1
	}
	return &Collector{windowDurationMs: ms}
}

// Advance accumulates simulated time toward the current window boundary.
func (c *Collector) Advance(deltaMs float64) {
	c.elapsedMs += deltaMs
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush() bool {
	return c.elapsedMs >= c.windowDurationMs
}

// RecordPredatorSpawn records an organic predator spawn.
func (c *Collector) RecordPredatorSpawn() { c.predatorSpawns++ }

// RecordScoutSpawn records a scout spawn during recovery.
func (c *Collector) RecordScoutSpawn() { c.scoutSpawns++ }

// RecordWolfpackSpawn records one predator from a wolfpack burst.
func (c *Collector) RecordWolfpackSpawn() { c.wolfpackSpawns++ }

// RecordEmergencySpawn records a scripted emergency predator spawn.
func (c *Collector) RecordEmergencySpawn() { c.emergencySpawns++ }

// RecordSchoolSpawn records a baitfish school spawn.
func (c *Collector) RecordSchoolSpawn() { c.schoolSpawns++ }

// RecordStrikeAttempt records a failed strike roll.
func (c *Collector) RecordStrikeAttempt() { c.strikesAttempted++ }

// RecordStrike records a fish entering STRIKING.
func (c *Collector) RecordStrike() {
	c.strikesAttempted++
	c.strikes++
}

// RecordCatchAttempt records a host catch resolution, successful or not.
func (c *Collector) RecordCatchAttempt(success bool) {
	c.catchAttempts++
	if success {
		c.catches++
	}
}

// RecordBaitfishConsumed records n baitfish eaten by predators.
func (c *Collector) RecordBaitfishConsumed(n int) { c.baitfishConsumed += n }

// RecordSchoolDestroyed records a school eaten down to zero members.
func (c *Collector) RecordSchoolDestroyed() { c.schoolsDestroyed++ }

// RecordFrenzy records a frenzy trigger and how many fish it reached.
func (c *Collector) RecordFrenzy(affected int) {
	c.frenziesTriggered++
	c.frenzyFishAffected += affected
}

// RecordPurge records n predators removed by the ecosystem purge.
func (c *Collector) RecordPurge(n int) { c.predatorsPurged += n }

// Snapshot holds the population counts and regime supplied at flush time.
type Snapshot struct {
	Predators   int
	Baitfish    int
	Schools     int
	Zooplankton int
	Crayfish    int
	Regime      string
	SpawnMode   string
	Hungers     []float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, simTimeSec float64, snap Snapshot) WindowStats {
	var strikeRate float64
	if c.strikesAttempted > 0 {
		strikeRate = float64(c.strikes) / float64(c.strikesAttempted)
	}

	mean, std, p50 := ComputeHungerStats(snap.Hungers)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTimeSec,

		Predators:   snap.Predators,
		Baitfish:    snap.Baitfish,
		Schools:     snap.Schools,
		Zooplankton: snap.Zooplankton,
		Crayfish:    snap.Crayfish,

		Regime:    snap.Regime,
		SpawnMode: snap.SpawnMode,

		PredatorSpawns:     c.predatorSpawns,
		ScoutSpawns:        c.scoutSpawns,
		WolfpackSpawns:     c.wolfpackSpawns,
		EmergencySpawns:    c.emergencySpawns,
		SchoolSpawns:       c.schoolSpawns,
		StrikesAttempted:   c.strikesAttempted,
		Strikes:            c.strikes,
		CatchAttempts:      c.catchAttempts,
		Catches:            c.catches,
		BaitfishConsumed:   c.baitfishConsumed,
		SchoolsDestroyed:   c.schoolsDestroyed,
		FrenziesTriggered:  c.frenziesTriggered,
		FrenzyFishAffected: c.frenzyFishAffected,
		PredatorsPurged:    c.predatorsPurged,

		StrikeRate: strikeRate,
		HungerMean: mean,
		HungerStd:  std,
		HungerP50:  p50,
	}

	c.windowStartTick = currentTick
	c.elapsedMs = 0
	c.predatorSpawns = 0
	c.scoutSpawns = 0
	c.wolfpackSpawns = 0
	c.emergencySpawns = 0
	c.schoolSpawns = 0
	c.strikesAttempted = 0
	c.strikes = 0
	c.catchAttempts = 0
	c.catches = 0
	c.baitfishConsumed = 0
	c.schoolsDestroyed = 0
	c.frenziesTriggered = 0
	c.frenzyFishAffected = 0
	c.predatorsPurged = 0

	return stats
}

// Reset discards the current window entirely.
func (c *Collector) Reset() {
	_ = c.Flush(0, 0, Snapshot{})
	c.windowStartTick = 0
}
