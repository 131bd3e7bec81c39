package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/neodefense/internal/analysis"
	"github.com/san-kum/neodefense/internal/config"
	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/massmodel"
	"github.com/san-kum/neodefense/internal/optim"
	"github.com/san-kum/neodefense/internal/trajectory"
	"gopkg.in/yaml.v3"
)

// Batch is a scripted sequence of scenarios sharing one interceptor.
type Batch struct {
	Name            string            `yaml:"name"`
	Description     string            `yaml:"description"`
	DeltaV          float64           `yaml:"delta_v_ms"`
	InterceptorMass float64           `yaml:"interceptor_mass_kg"`
	Scenarios       []config.Scenario `yaml:"scenarios"`
}

// LoadBatch loads a batch from a YAML file
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(batch.Scenarios) == 0 {
		return nil, fmt.Errorf("%s: no scenarios", path)
	}
	if batch.InterceptorMass == 0 {
		batch.InterceptorMass = config.DefaultInterceptorMass
	}

	return &batch, nil
}

// ScenarioResult is everything computed for one scenario.
type ScenarioResult struct {
	Name           string
	State          dynamo.StateVector
	Params         dynamo.DeflectionParameters
	RequiredDeltaV float64
	Corridor       *dynamo.HazardCorridor
	Approach       analysis.Approach
	ImpactFraction float64
	MaxSpreadKm    float64
	Deflection     *dynamo.DeflectionResult
	MissDistanceKm float64
}

// Runner drives the trajectory service over scenarios and sweeps.
type Runner struct {
	svc    *trajectory.Service
	masses *massmodel.Estimator
	logger *slog.Logger
}

// NewRunner builds a runner. masses may be nil when every scenario carries
// an explicit asteroid mass.
func NewRunner(svc *trajectory.Service, masses *massmodel.Estimator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{svc: svc, masses: masses, logger: logger}
}

// Resolve turns a scenario into a validated state and asteroid mass.
func (r *Runner) Resolve(s *config.Scenario) (dynamo.StateVector, float64, error) {
	sv, err := trajectory.FromKilometers(s.State)
	if err != nil {
		return dynamo.StateVector{}, 0, err
	}

	if s.AsteroidMass != 0 {
		return sv, s.AsteroidMass, nil
	}
	if r.masses == nil {
		return dynamo.StateVector{}, 0, &dynamo.ValidationError{Field: "asteroid_mass_kg", Value: 0, Wrapped: dynamo.ErrInvalidMass}
	}
	m, err := r.masses.Mass(s.DiameterM, s.SpectralType)
	if err != nil {
		return dynamo.StateVector{}, 0, err
	}
	return sv, m, nil
}

func leadTime(s *config.Scenario) float64 {
	if s.LeadTimeDays == 0 {
		return config.DefaultLeadTimeDays
	}
	return s.LeadTimeDays
}

// RunScenario runs the hazard corridor and a deflection for one scenario.
// A dv of zero uses the heuristic required delta-v.
func (r *Runner) RunScenario(ctx context.Context, s *config.Scenario, dv, interceptorMass float64) (*ScenarioResult, error) {
	sv, mass, err := r.Resolve(s)
	if err != nil {
		return nil, err
	}
	lti := leadTime(s)

	required, err := r.svc.RequiredDeltaV(mass, lti)
	if err != nil {
		return nil, err
	}
	if dv == 0 {
		dv = required
	}

	c, err := r.svc.ComputeHazardCorridor(ctx, sv)
	if err != nil {
		return nil, fmt.Errorf("corridor: %w", err)
	}

	res := &ScenarioResult{
		Name:           s.Name,
		State:          sv,
		RequiredDeltaV: required,
		Corridor:       c,
		ImpactFraction: analysis.ImpactFraction(c),
		Params: dynamo.DeflectionParameters{
			DeltaV:          dv,
			InterceptorMass: interceptorMass,
			AsteroidMass:    mass,
			LeadTimeDays:    lti,
		},
	}
	if c.Cancelled {
		return res, ctx.Err()
	}

	nominal, _ := c.Nominal()
	res.Approach = analysis.FindCloseApproach(nominal)
	if spread, err := analysis.MaxSpread(c); err == nil {
		res.MaxSpreadKm = spread
	}

	res.Deflection, err = r.svc.Deflect(ctx, sv, res.Params)
	if err != nil {
		return res, fmt.Errorf("deflect: %w", err)
	}
	sep, err := analysis.Separation(nominal, res.Deflection.Trajectory)
	if err != nil {
		return res, err
	}
	res.MissDistanceKm = sep.FinalKm

	return res, nil
}

// RunBatch executes all scenarios in order and stops at the first failure,
// returning what completed before it.
func (r *Runner) RunBatch(ctx context.Context, b *Batch) ([]ScenarioResult, error) {
	results := make([]ScenarioResult, 0, len(b.Scenarios))

	for i := range b.Scenarios {
		s := &b.Scenarios[i]
		r.logger.Info("running scenario",
			"component", "automation",
			"step", i+1,
			"of", len(b.Scenarios),
			"scenario", s.Name,
		)

		res, err := r.RunScenario(ctx, s, b.DeltaV, b.InterceptorMass)
		if err != nil {
			return results, fmt.Errorf("scenario %d (%s): %w", i+1, s.Name, err)
		}
		results = append(results, *res)
	}

	return results, nil
}

// Sweep deflects one scenario across a range of impactor delta-v values.
type Sweep struct {
	Scenario        *config.Scenario
	InterceptorMass float64
	DvMin           float64
	DvMax           float64
	NumSteps        int
}

// SweepResult is one point of a sweep.
type SweepResult struct {
	DeltaV            float64
	EffectiveDeltaV   float64
	MissDistanceKm    float64
	MaxSeparationKm   float64
	ClosestApproachKm float64
}

// RunSweep deflects the scenario once per delta-v step and measures how far
// the deflected path ends up from the undeflected one.
func (r *Runner) RunSweep(ctx context.Context, sw Sweep) ([]SweepResult, error) {
	if sw.Scenario == nil {
		return nil, fmt.Errorf("sweep: no scenario")
	}
	if sw.NumSteps < 1 {
		return nil, &dynamo.ValidationError{Field: "steps", Value: float64(sw.NumSteps), Wrapped: dynamo.ErrInvalidHorizon}
	}
	if !(sw.DvMin >= 0) || sw.DvMax < sw.DvMin {
		return nil, &dynamo.ValidationError{Field: "dv_min", Value: sw.DvMin, Wrapped: dynamo.ErrInvalidDeltaV}
	}

	sv, mass, err := r.Resolve(sw.Scenario)
	if err != nil {
		return nil, err
	}
	nominal, err := r.svc.Propagate(ctx, sv)
	if err != nil {
		return nil, err
	}

	dvStep := 0.0
	if sw.NumSteps > 1 {
		dvStep = (sw.DvMax - sw.DvMin) / float64(sw.NumSteps-1)
	}

	results := make([]SweepResult, sw.NumSteps)
	err = dynamo.ForEachIndex(ctx, sw.NumSteps, r.svc.Settings().Workers, func(ctx context.Context, i int) error {
		p := dynamo.DeflectionParameters{
			DeltaV:          sw.DvMin + float64(i)*dvStep,
			InterceptorMass: sw.InterceptorMass,
			AsteroidMass:    mass,
			LeadTimeDays:    leadTime(sw.Scenario),
		}
		res, err := r.svc.Deflect(ctx, sv, p)
		if err != nil {
			return fmt.Errorf("sweep dv=%g: %w", p.DeltaV, err)
		}
		sep, err := analysis.Separation(nominal, res.Trajectory)
		if err != nil {
			return err
		}
		results[i] = SweepResult{
			DeltaV:            p.DeltaV,
			EffectiveDeltaV:   res.EffectiveDeltaV,
			MissDistanceKm:    sep.FinalKm,
			MaxSeparationKm:   sep.MaxKm,
			ClosestApproachKm: analysis.FindCloseApproach(res.Trajectory).DistanceKm,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.logger.Info("sweep complete",
		"component", "automation",
		"scenario", sw.Scenario.Name,
		"steps", sw.NumSteps,
	)
	return results, nil
}

// Plan is the outcome of a minimum delta-v search.
type Plan struct {
	DeltaV         float64
	RequiredDeltaV float64
	MissDistanceKm float64
	Evaluations    int
}

// PlanDeflection finds the smallest impactor delta-v in [0, dvMax] that moves
// the scenario's end point at least targetKm from the undeflected path.
func (r *Runner) PlanDeflection(ctx context.Context, s *config.Scenario, interceptorMass, targetKm, dvMax float64) (*Plan, error) {
	sv, mass, err := r.Resolve(s)
	if err != nil {
		return nil, err
	}
	lti := leadTime(s)
	required, err := r.svc.RequiredDeltaV(mass, lti)
	if err != nil {
		return nil, err
	}
	nominal, err := r.svc.Propagate(ctx, sv)
	if err != nil {
		return nil, err
	}

	miss := func(ctx context.Context, dv float64) (float64, error) {
		res, err := r.svc.Deflect(ctx, sv, dynamo.DeflectionParameters{
			DeltaV:          dv,
			InterceptorMass: interceptorMass,
			AsteroidMass:    mass,
			LeadTimeDays:    lti,
		})
		if err != nil {
			return 0, err
		}
		sep, err := analysis.Separation(nominal, res.Trajectory)
		if err != nil {
			return 0, err
		}
		return sep.FinalKm, nil
	}

	found, err := optim.DefaultSearch(dvMax).MinDeltaV(ctx, miss, targetKm)
	plan := &Plan{
		DeltaV:         found.DeltaV,
		RequiredDeltaV: required,
		MissDistanceKm: found.MissKm,
		Evaluations:    found.Evaluations,
	}
	if err != nil {
		return plan, err
	}

	r.logger.Info("plan complete",
		"component", "automation",
		"scenario", s.Name,
		"dv_ms", plan.DeltaV,
		"miss_km", plan.MissDistanceKm,
		"evaluations", plan.Evaluations,
	)
	return plan, nil
}
