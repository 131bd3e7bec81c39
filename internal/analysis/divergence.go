package analysis

import (
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
)

// DivergenceRate estimates the exponential growth rate (1/day) of the
// separation between two trajectories on the same time grid:
//
//	λ ≈ mean over t of ln(|δr(t)| / |δr(0)|) / t
//
// It returns 0 when the paths start at the same point or never separate.
func DivergenceRate(ref, alt dynamo.TrajectorySample) float64 {
	n := min(ref.Len(), alt.Len())
	if n < 2 {
		return 0
	}

	d0 := alt.Positions[0].Sub(ref.Positions[0]).Norm()
	if d0 == 0 {
		return 0
	}

	sumRate := 0.0
	count := 0
	for i := 1; i < n; i++ {
		t := ref.Times[i]
		if t <= 0 {
			continue
		}
		sep := alt.Positions[i].Sub(ref.Positions[i]).Norm()
		if sep > 0 {
			sumRate += math.Log(sep/d0) / t
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return sumRate / float64(count)
}

// CorridorDivergence returns the divergence rate of every perturbed sample
// against the nominal, keyed by simulation index.
func CorridorDivergence(c *dynamo.HazardCorridor) map[int]float64 {
	nominal, ok := c.Nominal()
	if !ok {
		return nil
	}
	out := make(map[int]float64, len(c.Trajectories)-1)
	for _, s := range c.Trajectories[1:] {
		out[s.SimulationIndex] = DivergenceRate(nominal, s)
	}
	return out
}
