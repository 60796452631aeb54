package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkBaitCrash       BookmarkType = "bait_crash"
	BookmarkPredatorPurge   BookmarkType = "predator_purge"
	BookmarkWolfpackBurst   BookmarkType = "wolfpack_burst"
	BookmarkFrenzyCascade   BookmarkType = "frenzy_cascade"
	BookmarkStableEcosystem BookmarkType = "stable_ecosystem"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentBaitPeak     int // peak baitfish count in recent history
	stableWindowsCount int // consecutive windows with stable populations
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Event-driven bookmarks trigger on the first window too.
	if b := bd.checkWolfpackBurst(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkPredatorPurge(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFrenzyCascade(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Bait crash: dropped >50% from recent peak
		if b := bd.checkBaitCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable ecosystem: both populations present with low variance over 5+ windows
		if b := bd.checkStableEcosystem(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Baitfish > bd.recentBaitPeak {
		bd.recentBaitPeak = stats.Baitfish
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkWolfpackBurst(stats WindowStats) *Bookmark {
	if stats.WolfpackSpawns == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkWolfpackBurst,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Wolfpack burst spawned %d predators", stats.WolfpackSpawns),
	}
}

func (bd *BookmarkDetector) checkPredatorPurge(stats WindowStats) *Bookmark {
	if stats.PredatorsPurged == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkPredatorPurge,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Purged %d predators after bait depletion", stats.PredatorsPurged),
	}
}

func (bd *BookmarkDetector) checkFrenzyCascade(stats WindowStats) *Bookmark {
	if stats.FrenziesTriggered == 0 || stats.FrenzyFishAffected < 3 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFrenzyCascade,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d frenzies spread to %d fish", stats.FrenziesTriggered, stats.FrenzyFishAffected),
	}
}

func (bd *BookmarkDetector) checkBaitCrash(stats WindowStats) *Bookmark {
	if bd.recentBaitPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Baitfish)/float64(bd.recentBaitPeak)
	if dropPercent > 0.50 && stats.Baitfish < bd.recentBaitPeak-15 {
		// Reset peak after crash
		oldPeak := bd.recentBaitPeak
		bd.recentBaitPeak = stats.Baitfish

		return &Bookmark{
			Type:        BookmarkBaitCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Baitfish crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Baitfish),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	// Need both populations present
	if stats.Baitfish < 20 || stats.Predators < 2 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Check variance in recent windows
	var baitSum, predSum float64
	for _, h := range history[len(history)-4:] {
		baitSum += float64(h.Baitfish)
		predSum += float64(h.Predators)
	}
	baitMean := baitSum / 4
	predMean := predSum / 4

	var baitVar, predVar float64
	for _, h := range history[len(history)-4:] {
		baitDiff := float64(h.Baitfish) - baitMean
		predDiff := float64(h.Predators) - predMean
		baitVar += baitDiff * baitDiff
		predVar += predDiff * predDiff
	}
	baitVar /= 4
	predVar /= 4

	baitCV := 0.0
	if baitMean > 0 {
		baitCV = baitVar / (baitMean * baitMean)
	}
	predCV := 0.0
	if predMean > 0 {
		predCV = predVar / (predMean * predMean)
	}

	if baitCV < 0.04 && predCV < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable ecosystem with %d baitfish, %d predators over 5+ windows", stats.Baitfish, stats.Predators),
		}
	}

	return nil
}
