// Package trajectory is the façade the rest of the system calls: it converts
// boundary units, validates input once and delegates to the propagator, the
// corridor generator and the deflection model.
package trajectory

import (
	"context"
	"log/slog"

	"github.com/san-kum/neodefense/internal/corridor"
	"github.com/san-kum/neodefense/internal/deflection"
	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/kepler"
)

// Settings are fixed for the life of a Service.
type Settings struct {
	Simulations      int
	PositionSigmaKm  float64
	VelocitySigmaKmS float64
	DurationDays     float64
	NumPoints        int
	Workers          int

	// Seed pins every corridor to the same noise. Nil draws fresh entropy
	// per call.
	Seed *int64

	// Mu, SolverTolerance and SolverMaxIterations tune the propagator; zero
	// values keep the defaults.
	Mu                  float64
	SolverTolerance     float64
	SolverMaxIterations int
}

func DefaultSettings() Settings {
	o := corridor.DefaultOptions()
	return Settings{
		Simulations:      o.Simulations,
		PositionSigmaKm:  o.PositionSigmaKm,
		VelocitySigmaKmS: o.VelocitySigmaKmS,
		DurationDays:     o.DurationDays,
		NumPoints:        o.NumPoints,
	}
}

// Observer receives both propagation and corridor outcomes.
type Observer interface {
	kepler.Observer
	corridor.Observer
}

type Option func(*options)

type options struct {
	observer Observer
}

func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// Service is stateless apart from its read-only Settings and is safe for
// concurrent use without coordination.
type Service struct {
	settings  Settings
	prop      *kepler.Propagator
	generator *corridor.Generator
	model     *deflection.Model
	logger    *slog.Logger
}

func NewService(settings Settings, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// callers keep no handle on the seed we read from
	if settings.Seed != nil {
		seed := *settings.Seed
		settings.Seed = &seed
	}

	var propOpts []kepler.Option
	if settings.Mu > 0 {
		propOpts = append(propOpts, kepler.WithMu(settings.Mu))
	}
	if settings.SolverTolerance > 0 && settings.SolverMaxIterations > 0 {
		propOpts = append(propOpts, kepler.WithSolver(settings.SolverTolerance, settings.SolverMaxIterations))
	}
	if o.observer != nil {
		propOpts = append(propOpts, kepler.WithObserver(o.observer))
	}
	prop := kepler.NewPropagator(logger, propOpts...)

	gen := corridor.NewGenerator(prop, logger)
	if o.observer != nil {
		gen = gen.WithObserver(o.observer)
	}

	return &Service{
		settings:  settings,
		prop:      prop,
		generator: gen,
		model:     deflection.NewModel(prop, logger),
		logger:    logger,
	}
}

// Settings returns a copy of the service configuration.
func (s *Service) Settings() Settings {
	out := s.settings
	if out.Seed != nil {
		seed := *out.Seed
		out.Seed = &seed
	}
	return out
}

func (s *Service) Mu() float64 { return s.prop.Mu() }

// CorridorOptions are the generator options implied by the settings.
func (s *Service) CorridorOptions() corridor.Options {
	return corridor.Options{
		Simulations:      s.settings.Simulations,
		PositionSigmaKm:  s.settings.PositionSigmaKm,
		VelocitySigmaKmS: s.settings.VelocitySigmaKmS,
		DurationDays:     s.settings.DurationDays,
		NumPoints:        s.settings.NumPoints,
		Seed:             s.settings.Seed,
		Workers:          s.settings.Workers,
	}
}

// ComputeHazardCorridor runs the configured Monte Carlo corridor.
// Dropped samples are reported through HazardCorridor.Warnings, not err.
func (s *Service) ComputeHazardCorridor(ctx context.Context, sv dynamo.StateVector) (*dynamo.HazardCorridor, error) {
	return s.GenerateCorridor(ctx, sv, s.CorridorOptions())
}

// GenerateCorridor runs a corridor with caller-supplied options.
func (s *Service) GenerateCorridor(ctx context.Context, sv dynamo.StateVector, opts corridor.Options) (*dynamo.HazardCorridor, error) {
	if err := sv.Validate(); err != nil {
		return nil, err
	}
	c, err := s.generator.Generate(ctx, sv, opts)
	if err != nil {
		return nil, err
	}
	if w := c.Warnings(); w != nil {
		s.logger.Warn("hazard corridor returned with warnings",
			"component", "trajectory",
			"returned", len(c.Trajectories),
			"requested", c.Requested,
			"error", w,
		)
	}
	return c, nil
}

// Propagate returns the nominal trajectory over the configured horizon.
func (s *Service) Propagate(ctx context.Context, sv dynamo.StateVector) (dynamo.TrajectorySample, error) {
	return s.prop.Propagate(ctx, sv, s.settings.DurationDays, s.settings.NumPoints)
}

// Deflect applies the deflection and propagates the result over the same
// horizon as the hazard corridor.
func (s *Service) Deflect(ctx context.Context, sv dynamo.StateVector, p dynamo.DeflectionParameters) (*dynamo.DeflectionResult, error) {
	if err := sv.Validate(); err != nil {
		return nil, err
	}
	return s.model.Apply(ctx, sv, p, s.settings.DurationDays, s.settings.NumPoints)
}

// ComputeSafeTrajectory returns only the post-deflection path.
func (s *Service) ComputeSafeTrajectory(ctx context.Context, sv dynamo.StateVector, p dynamo.DeflectionParameters) (dynamo.TrajectorySample, error) {
	res, err := s.Deflect(ctx, sv, p)
	if err != nil {
		return dynamo.TrajectorySample{}, err
	}
	return res.Trajectory, nil
}

func (s *Service) RequiredDeltaV(asteroidMass, ltiDays float64) (float64, error) {
	return deflection.RequiredDeltaV(asteroidMass, ltiDays)
}

func (s *Service) EffectiveDeltaV(p dynamo.DeflectionParameters) (float64, error) {
	return deflection.EffectiveDeltaV(p)
}
