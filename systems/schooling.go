package systems

import (
	"math"

	"github.com/lornedev/stillwater/components"
	"github.com/lornedev/stillwater/config"
)

// SchoolMember is one baitfish as seen by the flocking update.
type SchoolMember struct {
	Pos  *components.Position
	Vel  *components.Velocity
	Bait *components.Baitfish
}

// Schooling applies the classic boids rules to a school's members:
// cohesion toward local neighbors, separation from crowding, alignment
// with neighbor headings, plus a mild wander so schools drift rather
// than freeze.
type Schooling struct {
	cfg *config.SchoolingConfig
}

// NewSchooling creates the flocking driver.
func NewSchooling(cfg *config.SchoolingConfig) *Schooling {
	return &Schooling{cfg: cfg}
}

// Update advances every member of one school by one frame. driftX biases
// the whole school across the screen in its travel direction. Members are
// clamped into the water column.
func (s *Schooling) Update(members []SchoolMember, driftX, deltaMs, floorY float64) {
	dt := deltaMs / 1000
	nr := s.cfg.NeighborRadius
	nrSq := nr * nr
	sepSq := s.cfg.SeparationRadius * s.cfg.SeparationRadius

	for i := range members {
		m := &members[i]

		var cohX, cohY, sepX, sepY, aliX, aliY float64
		neighbors := 0

		for j := range members {
			if j == i {
				continue
			}
			o := &members[j]
			dx := o.Pos.X - m.Pos.X
			dy := o.Pos.Y - m.Pos.Y
			dSq := dx*dx + dy*dy
			if dSq > nrSq {
				continue
			}
			neighbors++
			cohX += o.Pos.X
			cohY += o.Pos.Y
			aliX += o.Vel.X
			aliY += o.Vel.Y
			if dSq < sepSq && dSq > 0 {
				d := math.Sqrt(dSq)
				sepX -= dx / d
				sepY -= dy / d
			}
		}

		var steerX, steerY float64
		if neighbors > 0 {
			n := float64(neighbors)
			steerX += (cohX/n - m.Pos.X) * s.cfg.CohesionWeight
			steerY += (cohY/n - m.Pos.Y) * s.cfg.CohesionWeight
			steerX += sepX * s.cfg.SeparationWeight * s.cfg.MaxSpeed
			steerY += sepY * s.cfg.SeparationWeight * s.cfg.MaxSpeed
			steerX += (aliX/n - m.Vel.X) * s.cfg.AlignmentWeight
			steerY += (aliY/n - m.Vel.Y) * s.cfg.AlignmentWeight
		}

		// Wander: a slow phase oscillation unique to each member.
		m.Bait.WanderPhase += dt * 1.7
		steerX += math.Cos(m.Bait.WanderPhase) * s.cfg.WanderWeight * s.cfg.MaxSpeed
		steerY += math.Sin(m.Bait.WanderPhase*0.8) * s.cfg.WanderWeight * s.cfg.MaxSpeed

		// Travel drift keeps the school crossing the screen.
		steerX += driftX * s.cfg.DriftSpeed

		m.Vel.X += steerX * dt
		m.Vel.Y += steerY * dt

		speed := math.Hypot(m.Vel.X, m.Vel.Y)
		if speed > s.cfg.MaxSpeed {
			scale := s.cfg.MaxSpeed / speed
			m.Vel.X *= scale
			m.Vel.Y *= scale
		}

		m.Pos.X += m.Vel.X * dt
		m.Pos.Y += m.Vel.Y * dt

		if m.Pos.Y < 0 {
			m.Pos.Y = 0
			m.Vel.Y = -m.Vel.Y * 0.5
		}
		if m.Pos.Y > floorY {
			m.Pos.Y = floorY
			m.Vel.Y = -m.Vel.Y * 0.5
		}
	}
}
