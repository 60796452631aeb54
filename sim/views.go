package sim

import (
	"github.com/lornedev/stillwater/species"
	"github.com/lornedev/stillwater/telemetry"
)

// PredatorView is a read-only snapshot of one predator for the host.
type PredatorView struct {
	ID        uint32
	SpeciesID string
	SizeClass species.SizeClass
	X, Y      float64
	DepthFt   float64
	State     string
	Hunger    float64
	Health    float64
	Frenzied  bool
	Emergency bool
}

// SchoolView is a read-only snapshot of one school.
type SchoolView struct {
	ID        uint32
	SpeciesID string
	Members   int
	X, Y      float64
	DepthFt   float64
}

// PointView is a read-only snapshot of a zooplankton or crayfish.
type PointView struct {
	ID      uint32
	X, Y    float64
	DepthFt float64
}

// ListPredators returns snapshots of all live predators.
func (s *Simulation) ListPredators() []PredatorView {
	out := make([]PredatorView, 0, s.numPredators)
	query := s.fishFilter.Query()
	for query.Next() {
		pos, _, fish := query.Get()
		out = append(out, PredatorView{
			ID:        fish.ID,
			SpeciesID: s.catalog.Predator(int(fish.SpeciesIdx)).ID,
			SizeClass: fish.SizeClass,
			X:         pos.X,
			Y:         pos.Y,
			DepthFt:   s.converter.YToDepth(pos.Y),
			State:     fish.State.String(),
			Hunger:    fish.Hunger,
			Health:    fish.Health,
			Frenzied:  fish.Frenzy.Active,
			Emergency: fish.IsEmergency,
		})
	}
	return out
}

// ListSchools returns snapshots of all live schools in creation order.
func (s *Simulation) ListSchools() []SchoolView {
	out := make([]SchoolView, 0, len(s.schoolOrder))
	for _, id := range s.schoolOrder {
		sch := s.schools[id]
		out = append(out, SchoolView{
			ID:        sch.ID,
			SpeciesID: s.catalog.BaitfishAt(int(sch.SpeciesIdx)).ID,
			Members:   len(sch.Members),
			X:         sch.CentroidX,
			Y:         sch.CentroidY,
			DepthFt:   s.converter.YToDepth(sch.CentroidY),
		})
	}
	return out
}

// ListZooplankton returns snapshots of all live zooplankton.
func (s *Simulation) ListZooplankton() []PointView {
	out := make([]PointView, 0, s.numZooplankton)
	query := s.zooFilter.Query()
	for query.Next() {
		pos, zoo := query.Get()
		out = append(out, PointView{ID: zoo.ID, X: pos.X, Y: pos.Y, DepthFt: s.converter.YToDepth(pos.Y)})
	}
	return out
}

// ListCrayfish returns snapshots of all live crayfish.
func (s *Simulation) ListCrayfish() []PointView {
	out := make([]PointView, 0, s.numCrayfish)
	query := s.crayFilter.Query()
	for query.Next() {
		pos, cray := query.Get()
		out = append(out, PointView{ID: cray.ID, X: pos.X, Y: pos.Y, DepthFt: s.converter.YToDepth(pos.Y)})
	}
	return out
}

// FlushStats closes the current stats window and returns it. The host calls
// this when Collector().ShouldFlush() reports a completed window.
func (s *Simulation) FlushStats() telemetry.WindowStats {
	hungers := make([]float64, 0, s.numPredators)
	query := s.fishFilter.Query()
	for query.Next() {
		_, _, fish := query.Get()
		hungers = append(hungers, fish.Hunger)
	}

	st := s.controller.State()
	snap := telemetry.Snapshot{
		Predators:   s.numPredators,
		Baitfish:    s.numBaitfish,
		Schools:     len(s.schoolOrder),
		Zooplankton: s.numZooplankton,
		Crayfish:    s.numCrayfish,
		Regime:      st.Regime.String(),
		SpawnMode:   st.SpawnMode.String(),
		Hungers:     hungers,
	}
	return s.collector.Flush(s.tick, s.SimTimeSec(), snap)
}
