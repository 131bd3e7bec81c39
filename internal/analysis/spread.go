package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
)

var (
	ErrNoNominal       = errors.New("analysis: corridor has no nominal trajectory")
	ErrLengthMismatch  = errors.New("analysis: trajectories have different lengths")
	ErrEmptyTrajectory = errors.New("analysis: trajectory has no points")
)

// Spread returns, for every time step, the largest distance (km) of any
// corridor sample from the nominal position at that step.
func Spread(c *dynamo.HazardCorridor) ([]float64, error) {
	nominal, ok := c.Nominal()
	if !ok {
		return nil, ErrNoNominal
	}

	out := make([]float64, nominal.Len())
	for _, s := range c.Trajectories[1:] {
		if s.Len() != nominal.Len() {
			return nil, ErrLengthMismatch
		}
		for i, p := range s.Positions {
			out[i] = math.Max(out[i], p.Sub(nominal.Positions[i]).Norm())
		}
	}
	return out, nil
}

// MaxSpread is the widest point of the corridor.
func MaxSpread(c *dynamo.HazardCorridor) (float64, error) {
	spread, err := Spread(c)
	if err != nil {
		return 0, err
	}
	m := 0.0
	for _, v := range spread {
		m = math.Max(m, v)
	}
	return m, nil
}

// SeparationSummary is the distance between two trajectories sampled on the
// same time grid.
type SeparationSummary struct {
	FinalKm float64
	MaxKm   float64
	Series  []float64
}

// Separation compares a reference and an alternative path point by point,
// typically the nominal trajectory and its deflected counterpart.
func Separation(ref, alt dynamo.TrajectorySample) (SeparationSummary, error) {
	if ref.Len() == 0 {
		return SeparationSummary{}, ErrEmptyTrajectory
	}
	if ref.Len() != alt.Len() {
		return SeparationSummary{}, ErrLengthMismatch
	}

	sum := SeparationSummary{Series: make([]float64, ref.Len())}
	for i := range ref.Positions {
		d := alt.Positions[i].Sub(ref.Positions[i]).Norm()
		sum.Series[i] = d
		sum.MaxKm = math.Max(sum.MaxKm, d)
	}
	sum.FinalKm = sum.Series[len(sum.Series)-1]
	return sum, nil
}

// DistanceSeries is |p - target| in km for every point.
func DistanceSeries(s dynamo.TrajectorySample, target dynamo.Vec3) []float64 {
	out := make([]float64, s.Len())
	for i, p := range s.Positions {
		out[i] = p.Sub(target).Norm()
	}
	return out
}
