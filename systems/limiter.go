package systems

// Limits holds the injected population ceilings. The limiter itself carries
// no policy constants.
type Limits struct {
	MaxPredators        int
	MinBaitForPredators int
	MaxSchools          int
	MaxSchoolsRecovery  int
	MaxZooplankton      int
	CrayfishTarget      int
}

// PopulationLimiter enforces population ceilings. Pure predicates, no side
// effects; a false return is a spawn refusal, not an error.
type PopulationLimiter struct {
	limits Limits
}

// NewPopulationLimiter creates a limiter with the given ceilings.
func NewPopulationLimiter(l Limits) *PopulationLimiter {
	return &PopulationLimiter{limits: l}
}

// Limits returns the configured ceilings.
func (p *PopulationLimiter) Limits() Limits { return p.limits }

// CanSpawnPredator reports whether another predator may spawn: below the
// predator ceiling and enough baitfish present to sustain it.
func (p *PopulationLimiter) CanSpawnPredator(predators, baitfish int) bool {
	return predators < p.limits.MaxPredators && baitfish >= p.limits.MinBaitForPredators
}

// CanSpawnBaitfishSchool reports whether another school may spawn. The
// ceiling is raised while the ecosystem recovers to accelerate rebound.
func (p *PopulationLimiter) CanSpawnBaitfishSchool(schools int, recovering bool) bool {
	limit := p.limits.MaxSchools
	if recovering {
		limit = p.limits.MaxSchoolsRecovery
	}
	return schools < limit
}

// CanSpawnZooplankton reports whether a batch of the given size fits under
// the zooplankton ceiling.
func (p *PopulationLimiter) CanSpawnZooplankton(current, batch int) bool {
	return current+batch <= p.limits.MaxZooplankton
}

// CrayfishDeficit returns how many crayfish are missing from the target
// population, or 0 when topped up.
func (p *PopulationLimiter) CrayfishDeficit(current int) int {
	if current >= p.limits.CrayfishTarget {
		return 0
	}
	return p.limits.CrayfishTarget - current
}
