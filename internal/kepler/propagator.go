package kepler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/neodefense/internal/dynamo"
)

// DegradedEccentricity is the eccentricity at and above which the elliptic
// solver is not trusted and the propagator falls back to linear extrapolation.
const DegradedEccentricity = 0.98

// Observer is notified once per completed propagation.
type Observer interface {
	ObservePropagation(degraded bool, elapsed time.Duration)
}

// Propagator advances a state vector along its two-body orbit.
// It holds configuration only and is safe for concurrent use.
type Propagator struct {
	mu        float64
	tol       float64
	maxIter   int
	degradedE float64
	logger    *slog.Logger
	observer  Observer
}

type Option func(*Propagator)

// WithMu overrides the central body's gravitational parameter (km^3/s^2).
func WithMu(mu float64) Option {
	return func(p *Propagator) { p.mu = mu }
}

// WithSolver overrides the Kepler solver tolerance and iteration budget.
func WithSolver(tol float64, maxIter int) Option {
	return func(p *Propagator) {
		p.tol = tol
		p.maxIter = maxIter
	}
}

func WithObserver(o Observer) Option {
	return func(p *Propagator) { p.observer = o }
}

func NewPropagator(logger *slog.Logger, opts ...Option) *Propagator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Propagator{
		mu:        MuSun,
		tol:       defaultTolerance,
		maxIter:   defaultMaxIterations,
		degradedE: DegradedEccentricity,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Propagator) Mu() float64 { return p.mu }

// Propagate returns numPoints positions evenly spaced over [0, durationDays].
// Point 0 is the input position. Near-parabolic or unbound orbits and solver
// non-convergence fall back to linear extrapolation and mark the sample
// Degraded instead of failing.
func (p *Propagator) Propagate(ctx context.Context, sv dynamo.StateVector, durationDays float64, numPoints int) (dynamo.TrajectorySample, error) {
	if err := sv.Validate(); err != nil {
		return dynamo.TrajectorySample{}, err
	}
	if !(durationDays > 0) || math.IsInf(durationDays, 0) {
		return dynamo.TrajectorySample{}, &dynamo.ValidationError{Field: "duration_days", Value: durationDays, Wrapped: dynamo.ErrInvalidHorizon}
	}
	if numPoints < 2 {
		return dynamo.TrajectorySample{}, &dynamo.ValidationError{Field: "num_points", Value: float64(numPoints), Wrapped: dynamo.ErrInvalidHorizon}
	}

	start := time.Now()

	sample := dynamo.TrajectorySample{
		Times:      make([]float64, numPoints),
		Positions:  make([]dynamo.Vec3, numPoints),
		Velocities: make([]dynamo.Vec3, numPoints),
	}
	step := durationDays / float64(numPoints-1)
	for i := range sample.Times {
		sample.Times[i] = float64(i) * step
	}
	sample.Times[numPoints-1] = durationDays
	sample.Positions[0] = sv.R
	sample.Velocities[0] = sv.V

	el, err := FromState(sv, p.mu)
	switch {
	case errors.Is(err, ErrRectilinear):
		p.logger.Warn("rectilinear orbit, using linear extrapolation",
			"component", "kepler",
			"error", err,
		)
		linearFill(&sample, 1)
	case err != nil:
		return dynamo.TrajectorySample{}, err
	case !el.IsElliptic() || el.Eccentricity >= p.degradedE:
		p.logger.Warn("near-parabolic orbit, using linear extrapolation",
			"component", "kepler",
			"eccentricity", el.Eccentricity,
			"semi_major_axis_km", el.SemiMajorAxis,
		)
		linearFill(&sample, 1)
	default:
		for i := 1; i < numPoints; i++ {
			if err := ctx.Err(); err != nil {
				return dynamo.TrajectorySample{}, fmt.Errorf("%w: %w", dynamo.ErrCancelledComputation, err)
			}

			r, v, err := el.stateAt(sample.Times[i], p.tol, p.maxIter)
			if err != nil {
				p.logger.Warn("kepler solver fallback",
					"component", "kepler",
					"point", i,
					"t_days", sample.Times[i],
					"error", err,
				)
				linearFill(&sample, i)
				break
			}
			sample.Positions[i] = r
			sample.Velocities[i] = v
		}
	}

	for i := range sample.Positions {
		if !sample.Positions[i].IsValid() || !sample.Velocities[i].IsValid() {
			return dynamo.TrajectorySample{}, fmt.Errorf("%w: point %d at t=%.4f d", dynamo.ErrPropagationFailed, i, sample.Times[i])
		}
	}

	if p.observer != nil {
		p.observer.ObservePropagation(sample.Degraded, time.Since(start))
	}

	return sample, nil
}

// linearFill extrapolates points from..end along the velocity of point from-1.
func linearFill(s *dynamo.TrajectorySample, from int) {
	s.Degraded = true
	k := from - 1
	r0, v0, t0 := s.Positions[k], s.Velocities[k], s.Times[k]
	for j := from; j < len(s.Positions); j++ {
		dt := (s.Times[j] - t0) * dynamo.SecondsPerDay
		s.Positions[j] = r0.Add(v0.Scale(dt))
		s.Velocities[j] = v0
	}
}
