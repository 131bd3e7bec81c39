package analysis

import (
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
)

const (
	EarthRadiusKm = 6371.0

	// AtmosphereKm is added to the Earth radius when testing for impact.
	AtmosphereKm = 100.0

	// CloseApproachKm flags a pass worth reporting.
	CloseApproachKm = 50000.0
)

// EarthPosition is the fixed heliocentric position used for encounters.
var EarthPosition = dynamo.Vec3{1.496e8, 0, 0}

// Approach describes the closest sampled point of a trajectory to Earth.
type Approach struct {
	SimulationIndex int
	Index           int
	TimeDays        float64
	DistanceKm      float64
	Point           dynamo.Vec3
	Close           bool
	Impact          bool
}

// FindCloseApproach scans the sampled points for the minimum Earth distance.
// The scan is point-wise: passes between samples are not interpolated.
func FindCloseApproach(s dynamo.TrajectorySample) Approach {
	best := Approach{
		SimulationIndex: s.SimulationIndex,
		Index:           -1,
		DistanceKm:      math.Inf(1),
	}

	i := 0
	for t, p := range s.Points() {
		d := p.Sub(EarthPosition).Norm()
		if d < best.DistanceKm {
			best.Index, best.TimeDays, best.DistanceKm, best.Point = i, t, d, p
		}
		i++
	}

	best.Close = best.DistanceKm < CloseApproachKm
	best.Impact = best.DistanceKm <= EarthRadiusKm+AtmosphereKm
	return best
}

// CorridorApproaches evaluates every trajectory in corridor order.
func CorridorApproaches(c *dynamo.HazardCorridor) []Approach {
	out := make([]Approach, len(c.Trajectories))
	for i, s := range c.Trajectories {
		out[i] = FindCloseApproach(s)
	}
	return out
}

// ImpactFraction is the share of returned samples that hit Earth.
func ImpactFraction(c *dynamo.HazardCorridor) float64 {
	if len(c.Trajectories) == 0 {
		return 0
	}
	hits := 0
	for _, a := range CorridorApproaches(c) {
		if a.Impact {
			hits++
		}
	}
	return float64(hits) / float64(len(c.Trajectories))
}
