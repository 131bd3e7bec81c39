package metrics

import (
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
)

// Metric accumulates a scalar over the points of a trajectory.
type Metric interface {
	Name() string
	Observe(s dynamo.StateVector)
	Value() float64
	Reset()
}

// SpecificEnergy is v^2/2 - mu/r in km^2/s^2.
func SpecificEnergy(s dynamo.StateVector, mu float64) float64 {
	return s.V.Dot(s.V)/2 - mu/s.R.Norm()
}

// EnergyDrift tracks the largest relative change in specific orbital energy
// from the first observed point. A two-body solution keeps it near zero.
type EnergyDrift struct {
	name     string
	mu       float64
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(mu float64) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		mu:   mu,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s dynamo.StateVector) {
	energy := SpecificEnergy(s, e.mu)

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift tracks the largest relative change of the specific angular
// momentum vector r x v.
type MomentumDrift struct {
	name     string
	initial  dynamo.Vec3
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(s dynamo.StateVector) {
	h := s.R.Cross(s.V)
	if m.samples == 0 {
		m.initial = h
	}
	m.samples++

	if n := m.initial.Norm(); n != 0 {
		m.maxDrift = math.Max(m.maxDrift, h.Sub(m.initial).Norm()/n)
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = dynamo.Vec3{}
	m.maxDrift = 0
	m.samples = 0
}

// Evaluate resets each metric, feeds it every point of the sample and
// returns the values keyed by metric name.
func Evaluate(sample dynamo.TrajectorySample, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i := range sample.Positions {
			m.Observe(sample.StateAt(i))
		}
		out[m.Name()] = m.Value()
	}
	return out
}

// Invariants is the standard metric set for a heliocentric trajectory.
func Invariants(mu float64) []Metric {
	return []Metric{
		NewEnergyDrift(mu),
		NewMomentumDrift(),
		NewRadiusStability(0.5),
		NewMeanSpeed(),
	}
}
