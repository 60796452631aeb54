// Package species holds the immutable species catalog consumed by spawning
// and fish AI. Descriptors are built from configuration at startup and
// validated there; the simulation never runs with an incomplete catalog.
package species

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/lornedev/stillwater/config"
)

// ErrUnknownSpecies is returned by Get for ids not present in the catalog.
var ErrUnknownSpecies = errors.New("unknown species")

// Class separates predators from baitfish.
type Class uint8

const (
	ClassPredator Class = iota
	ClassBaitfish
)

// Density describes how tightly a species schools.
type Density uint8

const (
	DensityNone Density = iota
	DensityLoose
	DensityTight
)

// SizeClass buckets individual fish by size.
type SizeClass uint8

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
	SizeTrophy
)

func (s SizeClass) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	case SizeTrophy:
		return "trophy"
	}
	return "unknown"
}

// Descriptor is the immutable per-species record.
type Descriptor struct {
	ID               string
	Class            Class
	Weight           float64
	DepthMinFeet     float64
	DepthMaxFeet     float64
	MinWaterDepthFt  float64
	Aggressiveness   float64
	SchoolSizeMin    int
	SchoolSizeMax    int
	Density          Density
	BottomDweller    bool
	ThermalDepthBias float64
	DetectionRange   float64
	StrikeDistance   float64

	// Indexed by SizeClass. Zero for baitfish (size classes are a
	// predator concept).
	SizeClassWeights [4]float64
}

// Catalog provides lookup and weighted selection over species descriptors.
type Catalog struct {
	byID      map[string]*Descriptor
	predators []*Descriptor
	baitfish  []*Descriptor
}

// Build constructs and validates a catalog from configuration.
// Any malformed descriptor is fatal: the error describes the first problem found.
func Build(cfg *config.Config) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Descriptor)}

	for i := range cfg.Species.Predators {
		d, err := buildDescriptor(&cfg.Species.Predators[i], ClassPredator)
		if err != nil {
			return nil, err
		}
		if err := c.add(d); err != nil {
			return nil, err
		}
		c.predators = append(c.predators, d)
	}
	for i := range cfg.Species.Baitfish {
		d, err := buildDescriptor(&cfg.Species.Baitfish[i], ClassBaitfish)
		if err != nil {
			return nil, err
		}
		if err := c.add(d); err != nil {
			return nil, err
		}
		c.baitfish = append(c.baitfish, d)
	}

	return c, nil
}

func (c *Catalog) add(d *Descriptor) error {
	if _, dup := c.byID[d.ID]; dup {
		return fmt.Errorf("species %q: duplicate id", d.ID)
	}
	c.byID[d.ID] = d
	return nil
}

func buildDescriptor(e *config.SpeciesEntry, class Class) (*Descriptor, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("species entry with empty id")
	}
	if e.DepthMinFeet >= e.DepthMaxFeet {
		return nil, fmt.Errorf("species %q: depth range [%g, %g] is empty", e.ID, e.DepthMinFeet, e.DepthMaxFeet)
	}
	if e.MinWaterDepthFt <= 0 {
		return nil, fmt.Errorf("species %q: min_water_depth_feet must be positive, got %g", e.ID, e.MinWaterDepthFt)
	}
	if e.Aggressiveness < 0 || e.Aggressiveness > 1 {
		return nil, fmt.Errorf("species %q: aggressiveness %g outside [0, 1]", e.ID, e.Aggressiveness)
	}

	density, err := parseDensity(e.SchoolingDensity)
	if err != nil {
		return nil, fmt.Errorf("species %q: %w", e.ID, err)
	}

	d := &Descriptor{
		ID:               e.ID,
		Class:            class,
		Weight:           e.Weight,
		DepthMinFeet:     e.DepthMinFeet,
		DepthMaxFeet:     e.DepthMaxFeet,
		MinWaterDepthFt:  e.MinWaterDepthFt,
		Aggressiveness:   e.Aggressiveness,
		SchoolSizeMin:    e.SchoolSizeMin,
		SchoolSizeMax:    e.SchoolSizeMax,
		Density:          density,
		BottomDweller:    e.BottomDweller,
		ThermalDepthBias: e.ThermalDepthBias,
		DetectionRange:   e.DetectionRange,
		StrikeDistance:   e.StrikeDistance,
	}

	if class == ClassBaitfish {
		if e.SchoolSizeMin <= 0 || e.SchoolSizeMax < e.SchoolSizeMin {
			return nil, fmt.Errorf("species %q: school size range [%d, %d] invalid", e.ID, e.SchoolSizeMin, e.SchoolSizeMax)
		}
		return d, nil
	}

	// Predators need a size-class distribution.
	names := [4]string{"small", "medium", "large", "trophy"}
	var total float64
	for i, name := range names {
		w := e.SizeClassWeights[name]
		if w < 0 {
			return nil, fmt.Errorf("species %q: negative size class weight for %s", e.ID, name)
		}
		d.SizeClassWeights[i] = w
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("species %q: size class weights sum to zero", e.ID)
	}
	return d, nil
}

func parseDensity(s string) (Density, error) {
	switch s {
	case "", "none":
		return DensityNone, nil
	case "loose":
		return DensityLoose, nil
	case "tight":
		return DensityTight, nil
	}
	return DensityNone, fmt.Errorf("schooling_density %q not one of none|loose|tight", s)
}

// Get returns the descriptor for the given id.
func (c *Catalog) Get(id string) (*Descriptor, error) {
	d, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, id)
	}
	return d, nil
}

// Predators returns the predator descriptors in config order.
func (c *Catalog) Predators() []*Descriptor { return c.predators }

// Baitfish returns the baitfish descriptors in config order.
func (c *Catalog) Baitfish() []*Descriptor { return c.baitfish }

// Predator returns the predator descriptor at index i.
func (c *Catalog) Predator(i int) *Descriptor { return c.predators[i] }

// BaitfishAt returns the baitfish descriptor at index i.
func (c *Catalog) BaitfishAt(i int) *Descriptor { return c.baitfish[i] }

// PredatorIndex returns the index of a predator descriptor, or -1.
func (c *Catalog) PredatorIndex(id string) int {
	for i, d := range c.predators {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// BaitfishIndex returns the index of a baitfish descriptor, or -1.
func (c *Catalog) BaitfishIndex(id string) int {
	for i, d := range c.baitfish {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// SelectWeighted picks an index from weights using a cumulative roll against
// a single [0, 1) draw. Entries with zero weight are never selected.
// Returns -1 if all weights are zero.
func SelectWeighted(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	roll := rng.Float64() * total
	var cum float64
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		last = i
		if roll < cum {
			return i
		}
	}
	// Floating-point leftovers land on the final positive entry.
	return last
}

// SelectPredator rolls a predator species by configured weight.
func (c *Catalog) SelectPredator(rng *rand.Rand) *Descriptor {
	weights := make([]float64, len(c.predators))
	for i, d := range c.predators {
		weights[i] = d.Weight
	}
	idx := SelectWeighted(rng, weights)
	if idx < 0 {
		return nil
	}
	return c.predators[idx]
}

// SelectBaitfish rolls a baitfish species by configured weight.
func (c *Catalog) SelectBaitfish(rng *rand.Rand) *Descriptor {
	weights := make([]float64, len(c.baitfish))
	for i, d := range c.baitfish {
		weights[i] = d.Weight
	}
	idx := SelectWeighted(rng, weights)
	if idx < 0 {
		return nil
	}
	return c.baitfish[idx]
}

// RollSizeClass rolls a size class from the descriptor's weights.
func (d *Descriptor) RollSizeClass(rng *rand.Rand) SizeClass {
	idx := SelectWeighted(rng, d.SizeClassWeights[:])
	if idx < 0 {
		return SizeMedium
	}
	return SizeClass(idx)
}
