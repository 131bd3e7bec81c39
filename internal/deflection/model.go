// Package deflection models a kinetic-impactor velocity change and its effect
// on an asteroid's trajectory.
package deflection

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
)

const (
	// BetaFactor is the momentum-enhancement multiplier measured by DART.
	BetaFactor = 3.6

	// CouplingEfficiency is the fraction of impactor momentum delivered.
	CouplingEfficiency = 0.85

	// RequiredDvScale (m·day/s) and ReferenceMass (kg) calibrate the
	// required delta-v heuristic. They are reproduced as given.
	RequiredDvScale = 12.86
	ReferenceMass   = 2.7e10

	MinRequiredDv = 1e-4 // m/s
	MaxRequiredDv = 1e-1 // m/s
)

// Propagator advances the deflected state.
type Propagator interface {
	Propagate(ctx context.Context, sv dynamo.StateVector, durationDays float64, numPoints int) (dynamo.TrajectorySample, error)
}

type Model struct {
	prop   Propagator
	logger *slog.Logger
}

func NewModel(prop Propagator, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Model{prop: prop, logger: logger}
}

// EffectiveDeltaV returns dv · β · (mInterceptor · η / mAsteroid) in m/s.
func EffectiveDeltaV(p dynamo.DeflectionParameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p.DeltaV * BetaFactor * (p.InterceptorMass * CouplingEfficiency / p.AsteroidMass), nil
}

// RequiredDeltaV estimates the velocity change (m/s) needed for a body of
// the given mass with ltiDays of warning, clamped to [1e-4, 1e-1].
func RequiredDeltaV(asteroidMass, ltiDays float64) (float64, error) {
	if !(asteroidMass > 0) || math.IsInf(asteroidMass, 0) {
		return 0, &dynamo.ValidationError{Field: "asteroid_mass_kg", Value: asteroidMass, Wrapped: dynamo.ErrInvalidMass}
	}
	if !(ltiDays > 0) || math.IsInf(ltiDays, 0) {
		return 0, &dynamo.ValidationError{Field: "lead_time_days", Value: ltiDays, Wrapped: dynamo.ErrInvalidLeadTime}
	}
	dv := RequiredDvScale / ltiDays * math.Sqrt(ReferenceMass/asteroidMass)
	return math.Max(MinRequiredDv, math.Min(MaxRequiredDv, dv)), nil
}

// RetrogradeDirection is the unit vector opposite to v.
func RetrogradeDirection(v dynamo.Vec3) (dynamo.Vec3, error) {
	n := v.Norm()
	if n == 0 {
		return dynamo.Vec3{}, dynamo.ErrUndefinedDeflectionDirection
	}
	return v.Scale(-1 / n), nil
}

// Perturb applies the effective delta-v as an instantaneous retrograde
// impulse at the state's epoch.
func Perturb(sv dynamo.StateVector, p dynamo.DeflectionParameters) (dynamo.StateVector, float64, error) {
	if err := sv.Validate(); err != nil {
		return dynamo.StateVector{}, 0, err
	}
	eff, err := EffectiveDeltaV(p)
	if err != nil {
		return dynamo.StateVector{}, 0, err
	}
	dir, err := RetrogradeDirection(sv.V)
	if err != nil {
		return dynamo.StateVector{}, 0, err
	}
	// m/s -> km/s
	return sv.WithVelocity(sv.V.Add(dir.Scale(eff / 1000))), eff, nil
}

// Apply perturbs sv and propagates the deflected state over the same horizon
// a hazard corridor would use.
func (m *Model) Apply(ctx context.Context, sv dynamo.StateVector, p dynamo.DeflectionParameters, durationDays float64, numPoints int) (*dynamo.DeflectionResult, error) {
	perturbed, eff, err := Perturb(sv, p)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("deflection applied",
		"component", "deflection",
		"effective_dv_ms", eff,
		"lead_time_days", p.LeadTimeDays,
	)

	traj, err := m.prop.Propagate(ctx, perturbed, durationDays, numPoints)
	if err != nil {
		return nil, fmt.Errorf("propagate deflected state: %w", err)
	}

	return &dynamo.DeflectionResult{
		EffectiveDeltaV: eff,
		Perturbed:       perturbed,
		Trajectory:      traj,
	}, nil
}
