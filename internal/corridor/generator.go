// Package corridor builds Monte Carlo hazard corridors: a nominal trajectory
// plus a bundle of trajectories propagated from Gaussian-perturbed copies of
// the same initial state.
//
// All noise is drawn sequentially from the configured NormalSource before any
// sample is propagated, so a fixed seed reproduces the corridor bit for bit
// no matter how the worker pool schedules the propagations.
package corridor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/neodefense/internal/dynamo"
)

const (
	DefaultSimulations      = 8
	DefaultPositionSigmaKm  = 150.0
	DefaultVelocitySigmaKmS = 0.025
	DefaultDurationDays     = 365.0
	DefaultNumPoints        = 50
)

// Propagator is the single-trajectory engine each sample is run through.
type Propagator interface {
	Propagate(ctx context.Context, sv dynamo.StateVector, durationDays float64, numPoints int) (dynamo.TrajectorySample, error)
}

// Observer is notified once per Generate call that got past validation.
type Observer interface {
	ObserveCorridor(requested, completed, dropped int, cancelled bool, elapsed time.Duration)
}

// Options configures a single corridor run.
type Options struct {
	Simulations      int
	PositionSigmaKm  float64
	VelocitySigmaKmS float64
	DurationDays     float64
	NumPoints        int

	// Seed makes the run reproducible. Source, when set, takes precedence.
	// With neither, a time-seeded source is used.
	Seed   *int64
	Source NormalSource

	// Workers bounds concurrent propagations; <= 0 means runtime.NumCPU().
	Workers int
}

func DefaultOptions() Options {
	return Options{
		Simulations:      DefaultSimulations,
		PositionSigmaKm:  DefaultPositionSigmaKm,
		VelocitySigmaKmS: DefaultVelocitySigmaKmS,
		DurationDays:     DefaultDurationDays,
		NumPoints:        DefaultNumPoints,
	}
}

func (o Options) validate() error {
	if o.Simulations < 1 {
		return &dynamo.ValidationError{Field: "simulations", Value: float64(o.Simulations), Wrapped: dynamo.ErrInvalidHorizon}
	}
	if !(o.DurationDays > 0) || math.IsInf(o.DurationDays, 0) {
		return &dynamo.ValidationError{Field: "duration_days", Value: o.DurationDays, Wrapped: dynamo.ErrInvalidHorizon}
	}
	if o.NumPoints < 2 {
		return &dynamo.ValidationError{Field: "num_points", Value: float64(o.NumPoints), Wrapped: dynamo.ErrInvalidHorizon}
	}
	if !(o.PositionSigmaKm >= 0) || math.IsInf(o.PositionSigmaKm, 0) {
		return &dynamo.ValidationError{Field: "position_sigma_km", Value: o.PositionSigmaKm, Wrapped: dynamo.ErrInvalidStateVector}
	}
	if !(o.VelocitySigmaKmS >= 0) || math.IsInf(o.VelocitySigmaKmS, 0) {
		return &dynamo.ValidationError{Field: "velocity_sigma_kms", Value: o.VelocitySigmaKmS, Wrapped: dynamo.ErrInvalidStateVector}
	}
	return nil
}

func (o Options) source() NormalSource {
	switch {
	case o.Source != nil:
		return o.Source
	case o.Seed != nil:
		return NewSeededSource(*o.Seed)
	default:
		return newEntropySource()
	}
}

// Generator runs corridor samples through a Propagator.
// It holds no per-run state and is safe for concurrent use.
type Generator struct {
	prop     Propagator
	logger   *slog.Logger
	observer Observer
}

func NewGenerator(prop Propagator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{prop: prop, logger: logger}
}

// WithObserver returns a copy of g that reports run outcomes to o.
func (g *Generator) WithObserver(o Observer) *Generator {
	cp := *g
	cp.observer = o
	return &cp
}

// Perturbations draws the initial states for a corridor: index 0 is sv
// unchanged, every other index adds three position then three velocity
// variates scaled by the configured sigmas.
func Perturbations(sv dynamo.StateVector, n int, posSigma, velSigma float64, src NormalSource) []dynamo.StateVector {
	starts := make([]dynamo.StateVector, n)
	if n == 0 {
		return starts
	}
	starts[0] = sv
	for i := 1; i < n; i++ {
		var dr, dv dynamo.Vec3
		for k := range dr {
			dr[k] = src.NormFloat64() * posSigma
		}
		for k := range dv {
			dv[k] = src.NormFloat64() * velSigma
		}
		starts[i] = sv.Perturb(dr, dv)
	}
	return starts
}

// Generate propagates the nominal state and opts.Simulations-1 perturbed
// copies. Failed perturbed samples are dropped and recorded in Failures; a
// failed nominal sample fails the call with ErrCorridorGenerationFailed.
// If ctx is cancelled the samples completed so far are returned with
// Cancelled set and a nil error.
func (g *Generator) Generate(ctx context.Context, sv dynamo.StateVector, opts Options) (*dynamo.HazardCorridor, error) {
	if err := sv.Validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	n := opts.Simulations
	starts := Perturbations(sv, n, opts.PositionSigmaKm, opts.VelocitySigmaKmS, opts.source())

	slots := make([]dynamo.TrajectorySample, n)
	done := make([]bool, n)
	errs := make([]error, n)

	err := dynamo.ForEachIndex(ctx, n, opts.Workers, func(ctx context.Context, idx int) error {
		sample, err := g.prop.Propagate(ctx, starts[idx], opts.DurationDays, opts.NumPoints)
		if err != nil {
			if errors.Is(err, dynamo.ErrCancelledComputation) {
				return nil
			}
			errs[idx] = err
			if idx == 0 {
				return err
			}
			return nil
		}
		sample.SimulationIndex = idx
		slots[idx] = sample
		done[idx] = true
		return nil
	})
	if err != nil {
		g.logger.Error("nominal trajectory failed",
			"component", "corridor",
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", dynamo.ErrCorridorGenerationFailed, err)
	}

	out := &dynamo.HazardCorridor{
		Trajectories: make([]dynamo.TrajectorySample, 0, n),
		Requested:    n,
		Cancelled:    ctx.Err() != nil,
	}
	for i := range n {
		switch {
		case done[i]:
			out.Trajectories = append(out.Trajectories, slots[i])
		case errs[i] != nil:
			g.logger.Warn("corridor sample dropped",
				"component", "corridor",
				"simulation", i,
				"error", errs[i],
			)
			out.Failures = append(out.Failures, dynamo.SampleFailure{Index: i, Wrapped: errs[i]})
		}
	}

	if out.Cancelled {
		g.logger.Info("corridor cancelled",
			"component", "corridor",
			"completed", len(out.Trajectories),
			"requested", n,
		)
	}

	if g.observer != nil {
		g.observer.ObserveCorridor(n, len(out.Trajectories), len(out.Failures), out.Cancelled, time.Since(start))
	}

	return out, nil
}
