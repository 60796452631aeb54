package species

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/lornedev/stillwater/config"
)

func defaultCatalog(t *testing.T) (*Catalog, *config.Config) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	c, err := Build(cfg)
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return c, cfg
}

func TestCatalog_BuildFromDefaults(t *testing.T) {
	c, cfg := defaultCatalog(t)

	if got, want := len(c.Predators()), len(cfg.Species.Predators); got != want {
		t.Errorf("predators = %d, want %d", got, want)
	}
	if got, want := len(c.Baitfish()), len(cfg.Species.Baitfish); got != want {
		t.Errorf("baitfish = %d, want %d", got, want)
	}

	d, err := c.Get("lake_trout")
	if err != nil {
		t.Fatalf("Get(lake_trout): %v", err)
	}
	if d.Class != ClassPredator {
		t.Errorf("lake_trout class = %v, want predator", d.Class)
	}
}

func TestCatalog_GetUnknown(t *testing.T) {
	c, _ := defaultCatalog(t)

	_, err := c.Get("coelacanth")
	if !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("err = %v, want ErrUnknownSpecies", err)
	}
}

func TestCatalog_ValidationFailures(t *testing.T) {
	base := func() *config.Config {
		cfg, err := config.Load("")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty id", func(c *config.Config) { c.Species.Predators[0].ID = "" }},
		{"empty depth range", func(c *config.Config) {
			c.Species.Predators[0].DepthMinFeet = 50
			c.Species.Predators[0].DepthMaxFeet = 50
		}},
		{"zero min water depth", func(c *config.Config) { c.Species.Predators[0].MinWaterDepthFt = 0 }},
		{"aggressiveness out of range", func(c *config.Config) { c.Species.Predators[0].Aggressiveness = 1.5 }},
		{"bad school size range", func(c *config.Config) {
			c.Species.Baitfish[0].SchoolSizeMin = 10
			c.Species.Baitfish[0].SchoolSizeMax = 5
		}},
		{"zero size class weights", func(c *config.Config) {
			c.Species.Predators[0].SizeClassWeights = map[string]float64{}
		}},
		{"duplicate id", func(c *config.Config) {
			c.Species.Baitfish[0].ID = c.Species.Predators[0].ID
		}},
		{"bad density", func(c *config.Config) { c.Species.Baitfish[0].SchoolingDensity = "swarm" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if _, err := Build(cfg); err == nil {
				t.Error("expected build error")
			}
		})
	}
}

func TestSelectWeighted(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	if got := SelectWeighted(rng, []float64{0, 0, 0}); got != -1 {
		t.Errorf("all-zero weights = %d, want -1", got)
	}
	if got := SelectWeighted(rng, nil); got != -1 {
		t.Errorf("empty weights = %d, want -1", got)
	}

	// Zero-weight entries are never selected.
	counts := make([]int, 3)
	for i := 0; i < 1000; i++ {
		idx := SelectWeighted(rng, []float64{0.5, 0, 0.5})
		counts[idx]++
	}
	if counts[1] != 0 {
		t.Errorf("zero-weight entry selected %d times", counts[1])
	}
	if counts[0] == 0 || counts[2] == 0 {
		t.Errorf("positive entries never selected: %v", counts)
	}
}

func TestSelectWeighted_Distribution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	weights := []float64{0.8, 0.2}

	counts := make([]int, 2)
	for i := 0; i < 10000; i++ {
		counts[SelectWeighted(rng, weights)]++
	}
	// Loose sanity bound, not a statistical test.
	if counts[0] < 7000 || counts[0] > 9000 {
		t.Errorf("0.8-weight entry selected %d/10000 times", counts[0])
	}
}

func TestDescriptor_RollSizeClass(t *testing.T) {
	c, _ := defaultCatalog(t)
	rng := rand.New(rand.NewSource(3))

	d, err := c.Get("lake_trout")
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[SizeClass]int)
	for i := 0; i < 2000; i++ {
		seen[d.RollSizeClass(rng)]++
	}
	// All four classes have positive weight in the defaults.
	for _, sc := range []SizeClass{SizeSmall, SizeMedium, SizeLarge, SizeTrophy} {
		if seen[sc] == 0 {
			t.Errorf("size class %v never rolled", sc)
		}
	}
	if seen[SizeTrophy] >= seen[SizeMedium] {
		t.Errorf("trophy (%d) should be rarer than medium (%d)", seen[SizeTrophy], seen[SizeMedium])
	}
}
