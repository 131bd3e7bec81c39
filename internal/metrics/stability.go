package metrics

import (
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
)

// RadiusStability is the fraction of points whose heliocentric distance stays
// within a relative band around the first point's distance.
type RadiusStability struct {
	name       string
	threshold  float64
	r0         float64
	violations int
	samples    int
}

func NewRadiusStability(threshold float64) *RadiusStability {
	return &RadiusStability{
		name:      "radius_stability",
		threshold: threshold,
	}
}

func (s *RadiusStability) Name() string {
	return s.name
}

func (s *RadiusStability) Observe(x dynamo.StateVector) {
	r := x.R.Norm()
	if s.samples == 0 {
		s.r0 = r
	}
	s.samples++
	if s.r0 > 0 && math.Abs(r-s.r0)/s.r0 > s.threshold {
		s.violations++
	}
}

func (s *RadiusStability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *RadiusStability) Reset() {
	s.r0 = 0
	s.violations = 0
	s.samples = 0
}
