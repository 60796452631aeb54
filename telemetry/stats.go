// Package telemetry provides windowed ecosystem stats, CSV output, and
// bookmark detection for notable simulation moments.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Predators   int `csv:"predators"`
	Baitfish    int `csv:"baitfish"`
	Schools     int `csv:"schools"`
	Zooplankton int `csv:"zooplankton"`
	Crayfish    int `csv:"crayfish"`

	// Regime at window end
	Regime    string `csv:"regime"`
	SpawnMode string `csv:"spawn_mode"`

	// Events during window
	PredatorSpawns     int `csv:"predator_spawns"`
	ScoutSpawns        int `csv:"scout_spawns"`
	WolfpackSpawns     int `csv:"wolfpack_spawns"`
	EmergencySpawns    int `csv:"emergency_spawns"`
	SchoolSpawns       int `csv:"school_spawns"`
	StrikesAttempted   int `csv:"strikes_attempted"`
	Strikes            int `csv:"strikes"`
	CatchAttempts      int `csv:"catch_attempts"`
	Catches            int `csv:"catches"`
	BaitfishConsumed   int `csv:"baitfish_consumed"`
	SchoolsDestroyed   int `csv:"schools_destroyed"`
	FrenziesTriggered  int `csv:"frenzies_triggered"`
	FrenzyFishAffected int `csv:"frenzy_fish_affected"`
	PredatorsPurged    int `csv:"predators_purged"`

	StrikeRate float64 `csv:"strike_rate"`

	// Predator hunger distribution (sampled at window end)
	HungerMean float64 `csv:"hunger_mean"`
	HungerStd  float64 `csv:"hunger_std"`
	HungerP50  float64 `csv:"hunger_p50"`
}

// ComputeHungerStats calculates mean, standard deviation, and median of
// the predator hunger distribution.
func ComputeHungerStats(values []float64) (mean, std, p50 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = math.Sqrt(stat.Variance(values, nil))
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return mean, std, p50
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"predators", s.Predators,
		"baitfish", s.Baitfish,
		"schools", s.Schools,
		"zooplankton", s.Zooplankton,
		"crayfish", s.Crayfish,
		"regime", s.Regime,
		"spawn_mode", s.SpawnMode,
		"predator_spawns", s.PredatorSpawns,
		"scout_spawns", s.ScoutSpawns,
		"wolfpack_spawns", s.WolfpackSpawns,
		"emergency_spawns", s.EmergencySpawns,
		"school_spawns", s.SchoolSpawns,
		"strikes_attempted", s.StrikesAttempted,
		"strikes", s.Strikes,
		"catch_attempts", s.CatchAttempts,
		"catches", s.Catches,
		"baitfish_consumed", s.BaitfishConsumed,
		"schools_destroyed", s.SchoolsDestroyed,
		"frenzies_triggered", s.FrenziesTriggered,
		"frenzy_fish_affected", s.FrenzyFishAffected,
		"predators_purged", s.PredatorsPurged,
		"strike_rate", s.StrikeRate,
		"hunger_mean", s.HungerMean,
		"hunger_std", s.HungerStd,
		"hunger_p50", s.HungerP50,
	)
}
