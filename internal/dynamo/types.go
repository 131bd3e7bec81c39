package dynamo

import (
	"errors"
	"fmt"
	"iter"
	"math"
)

// SecondsPerDay converts day offsets into the km/s velocity convention.
const SecondsPerDay = 86400.0

type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }

func (v Vec3) Scale(f float64) Vec3 { return Vec3{v[0] * f, v[1] * f, v[2] * f} }

func (v Vec3) Dot(o Vec3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// StateVector is a position (km) and velocity (km/s) at an epoch offset in days.
// Construct it with NewStateVector so the finiteness invariant holds.
type StateVector struct {
	R     Vec3
	V     Vec3
	Epoch float64
}

// NewStateVector validates raw [x,y,z,vx,vy,vz] components.
func NewStateVector(raw []float64, epoch float64) (StateVector, error) {
	if len(raw) != 6 {
		return StateVector{}, fmt.Errorf("%w: expected 6 components, got %d", ErrInvalidStateVector, len(raw))
	}
	for i, c := range raw {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return StateVector{}, &ValidationError{Field: fmt.Sprintf("component[%d]", i), Value: c, Wrapped: ErrInvalidStateVector}
		}
	}
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return StateVector{}, &ValidationError{Field: "epoch", Value: epoch, Wrapped: ErrInvalidStateVector}
	}
	return StateVector{
		R:     Vec3{raw[0], raw[1], raw[2]},
		V:     Vec3{raw[3], raw[4], raw[5]},
		Epoch: epoch,
	}, nil
}

// Validate checks finiteness and a non-zero position.
func (s StateVector) Validate() error {
	if !s.R.IsValid() || !s.V.IsValid() {
		return fmt.Errorf("%w: non-finite component", ErrInvalidStateVector)
	}
	if s.R.Norm() == 0 {
		return fmt.Errorf("%w: zero position magnitude", ErrInvalidStateVector)
	}
	return nil
}

func (s StateVector) Slice() []float64 {
	return []float64{s.R[0], s.R[1], s.R[2], s.V[0], s.V[1], s.V[2]}
}

// WithVelocity returns a copy with the velocity replaced.
func (s StateVector) WithVelocity(v Vec3) StateVector {
	return StateVector{R: s.R, V: v, Epoch: s.Epoch}
}

// Perturb returns a copy with dr added to the position and dv to the velocity.
func (s StateVector) Perturb(dr, dv Vec3) StateVector {
	return StateVector{R: s.R.Add(dr), V: s.V.Add(dv), Epoch: s.Epoch}
}

// TrajectorySample is an ordered sequence of positions indexed by day offset
// from the epoch of the state vector it was propagated from.
type TrajectorySample struct {
	SimulationIndex int
	Times           []float64
	Positions       []Vec3
	Velocities      []Vec3
	Degraded        bool
}

func (t TrajectorySample) Len() int { return len(t.Positions) }

// Points iterates (dayOffset, position) pairs. Each call starts over.
func (t TrajectorySample) Points() iter.Seq2[float64, Vec3] {
	return func(yield func(float64, Vec3) bool) {
		for i, p := range t.Positions {
			if !yield(t.Times[i], p) {
				return
			}
		}
	}
}

// PositionTriples flattens positions into [x,y,z] km triples.
func (t TrajectorySample) PositionTriples() [][3]float64 {
	out := make([][3]float64, len(t.Positions))
	for i, p := range t.Positions {
		out[i] = p
	}
	return out
}

// StateAt rebuilds the full state vector at point i.
func (t TrajectorySample) StateAt(i int) StateVector {
	return StateVector{R: t.Positions[i], V: t.Velocities[i], Epoch: t.Times[i]}
}

// HazardCorridor is an ordered bundle of trajectories; the sample with
// SimulationIndex 0 is the unperturbed nominal path.
type HazardCorridor struct {
	Trajectories []TrajectorySample
	Requested    int
	Cancelled    bool
	Failures     []SampleFailure
}

// Nominal returns the unperturbed trajectory if it is present.
func (c *HazardCorridor) Nominal() (TrajectorySample, bool) {
	if len(c.Trajectories) > 0 && c.Trajectories[0].SimulationIndex == 0 {
		return c.Trajectories[0], true
	}
	return TrajectorySample{}, false
}

// Partial reports whether any non-nominal sample was dropped.
func (c *HazardCorridor) Partial() bool { return len(c.Failures) > 0 }

// Warnings joins dropped-sample failures under ErrPartialCorridorResult.
// It returns nil for a clean corridor.
func (c *HazardCorridor) Warnings() error {
	if len(c.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(c.Failures)+1)
	errs = append(errs, ErrPartialCorridorResult)
	for _, f := range c.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Degraded counts samples that fell back to linear extrapolation.
func (c *HazardCorridor) Degraded() int {
	n := 0
	for _, t := range c.Trajectories {
		if t.Degraded {
			n++
		}
	}
	return n
}

type DeflectionParameters struct {
	DeltaV          float64 // m/s
	InterceptorMass float64 // kg
	AsteroidMass    float64 // kg
	LeadTimeDays    float64
}

// Validate enforces mass, lead time and delta-v invariants.
func (p DeflectionParameters) Validate() error {
	if !(p.AsteroidMass > 0) || math.IsInf(p.AsteroidMass, 0) {
		return &ValidationError{Field: "asteroid_mass_kg", Value: p.AsteroidMass, Wrapped: ErrInvalidMass}
	}
	if !(p.InterceptorMass >= 0) || math.IsInf(p.InterceptorMass, 0) {
		return &ValidationError{Field: "interceptor_mass_kg", Value: p.InterceptorMass, Wrapped: ErrInvalidMass}
	}
	if !(p.LeadTimeDays > 0) || math.IsInf(p.LeadTimeDays, 0) {
		return &ValidationError{Field: "lead_time_days", Value: p.LeadTimeDays, Wrapped: ErrInvalidLeadTime}
	}
	if !(p.DeltaV >= 0) || math.IsInf(p.DeltaV, 0) {
		return &ValidationError{Field: "delta_v_ms", Value: p.DeltaV, Wrapped: ErrInvalidDeltaV}
	}
	return nil
}

type DeflectionResult struct {
	EffectiveDeltaV float64 // m/s
	Perturbed       StateVector
	Trajectory      TrajectorySample
}
