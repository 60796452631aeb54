package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/lornedev/stillwater/config"
	"github.com/lornedev/stillwater/sim"
	"github.com/lornedev/stillwater/species"
	"github.com/lornedev/stillwater/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	tickMs := flag.Float64("tick-ms", 33.0, "Simulated milliseconds per tick")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindowSec = *statsWindow
	}

	catalog, err := species.Build(cfg)
	if err != nil {
		slog.Error("failed to build species catalog", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to initialize output", "error", err)
		os.Exit(1)
	}
	defer output.Close()

	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	s := sim.New(cfg, catalog, rngSeed)
	detector := telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"tick_ms", *tickMs,
		"max_ticks", *maxTicks,
		"stats_window", cfg.Telemetry.StatsWindowSec,
		"output_dir", output.Dir(),
	)

	for {
		s.Tick(*tickMs)

		if s.Collector().ShouldFlush() {
			stats := s.FlushStats()
			if *logStats {
				stats.LogStats()
			}
			if err := output.WriteTelemetry(stats); err != nil {
				slog.Error("telemetry write failed", "error", err)
			}
			for _, b := range detector.Check(stats) {
				b.LogBookmark()
				if err := output.WriteBookmark(b); err != nil {
					slog.Error("bookmark write failed", "error", err)
				}
			}
		}

		if *maxTicks > 0 && s.TickCount() >= *maxTicks {
			break
		}
	}

	slog.Info("simulation finished",
		"ticks", s.TickCount(),
		"sim_time_sec", s.SimTimeSec(),
		"predators", s.PredatorCount(),
		"baitfish", s.BaitfishCount(),
	)
}
