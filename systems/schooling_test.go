package systems

import (
	"math"
	"testing"

	"github.com/lornedev/stillwater/components"
	"github.com/lornedev/stillwater/config"
)

func testSchooling(t *testing.T) *Schooling {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return NewSchooling(&cfg.Schooling)
}

func makeMembers(coords [][2]float64) []SchoolMember {
	members := make([]SchoolMember, len(coords))
	for i, c := range coords {
		members[i] = SchoolMember{
			Pos:  &components.Position{X: c[0], Y: c[1]},
			Vel:  &components.Velocity{},
			Bait: &components.Baitfish{ID: uint32(i + 1), WanderPhase: float64(i)},
		}
	}
	return members
}

func spread(members []SchoolMember) float64 {
	var cx, cy float64
	for i := range members {
		cx += members[i].Pos.X
		cy += members[i].Pos.Y
	}
	n := float64(len(members))
	cx /= n
	cy /= n

	var sum float64
	for i := range members {
		sum += math.Hypot(members[i].Pos.X-cx, members[i].Pos.Y-cy)
	}
	return sum / n
}

func TestSchooling_CohesionPullsMembersTogether(t *testing.T) {
	s := testSchooling(t)

	// Members inside the neighbor radius but outside separation range.
	members := makeMembers([][2]float64{
		{300, 300}, {340, 300}, {300, 340}, {340, 340},
	})
	before := spread(members)

	for i := 0; i < 120; i++ {
		s.Update(members, 0, 16, 680)
	}

	if after := spread(members); after >= before {
		t.Errorf("spread grew from %.1f to %.1f, cohesion should shrink it", before, after)
	}
}

func TestSchooling_SeparationPreventsCollapse(t *testing.T) {
	s := testSchooling(t)

	// Two members on top of each other.
	members := makeMembers([][2]float64{
		{300, 300}, {302, 300},
	})

	for i := 0; i < 120; i++ {
		s.Update(members, 0, 16, 680)
	}

	d := math.Hypot(members[0].Pos.X-members[1].Pos.X, members[0].Pos.Y-members[1].Pos.Y)
	if d < 4 {
		t.Errorf("members still overlapping after separation, dist %.2f", d)
	}
}

func TestSchooling_SpeedClamp(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	s := NewSchooling(&cfg.Schooling)

	members := makeMembers([][2]float64{{300, 300}, {320, 300}})
	members[0].Vel.X = 500
	members[0].Vel.Y = 500

	s.Update(members, 1, 16, 680)

	speed := math.Hypot(members[0].Vel.X, members[0].Vel.Y)
	if speed > cfg.Schooling.MaxSpeed+1e-9 {
		t.Errorf("speed %.1f exceeds max %.1f", speed, cfg.Schooling.MaxSpeed)
	}
}

func TestSchooling_StaysInWaterColumn(t *testing.T) {
	s := testSchooling(t)

	members := makeMembers([][2]float64{{300, 2}, {320, 678}})
	members[0].Vel.Y = -200
	members[1].Vel.Y = 200

	for i := 0; i < 60; i++ {
		s.Update(members, 0, 16, 680)
	}

	for i := range members {
		y := members[i].Pos.Y
		if y < 0 || y > 680 {
			t.Errorf("member %d at y=%.1f outside [0, 680]", i, y)
		}
	}
}

func TestSchooling_DriftCarriesSchoolAcross(t *testing.T) {
	s := testSchooling(t)

	members := makeMembers([][2]float64{
		{300, 300}, {330, 300}, {315, 330},
	})
	startX := spreadX(members)

	for i := 0; i < 200; i++ {
		s.Update(members, 1, 16, 680)
	}

	if endX := spreadX(members); endX <= startX {
		t.Errorf("drift +1 should move the school right: %.1f -> %.1f", startX, endX)
	}
}

func spreadX(members []SchoolMember) float64 {
	var sum float64
	for i := range members {
		sum += members[i].Pos.X
	}
	return sum / float64(len(members))
}
