package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/san-kum/neodefense/internal/automation"
	"github.com/san-kum/neodefense/internal/config"
	"github.com/san-kum/neodefense/internal/deflection"
	"github.com/san-kum/neodefense/internal/massmodel"
	"github.com/san-kum/neodefense/internal/trajectory"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	seed       int64
	sims       int
	days       float64
	points     int
	workers    int

	// target selection
	stateFlag    string
	stateAU      bool
	asteroidMass float64
	diameter     float64
	spectralType string
	leadTime     float64

	deltaV          float64
	interceptorMass float64
	dvMin           float64
	dvMax           float64
	steps           int
	targetMissKm    float64
	addr            string

	jsonOut string
	csvOut  string
	plot    bool
	save    bool
)

const (
	plotWidth  = 70
	plotHeight = 15
)

// main registers the neodefense commands and runs the root command with a
// context cancelled on SIGINT or SIGTERM. It exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "neodefense",
		Short:        "asteroid trajectory, hazard corridor and deflection engine",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".neodefense", "data directory for saved runs")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level, overrides the config (debug, info, warn, error)")
	pf.Int64Var(&seed, "seed", 0, "random seed for corridor noise")
	pf.IntVar(&sims, "sims", config.DefaultSimulations, "corridor samples including the nominal")
	pf.Float64Var(&days, "days", config.DefaultDurationDays, "propagation horizon in days")
	pf.IntVar(&points, "points", config.DefaultNumPoints, "points per trajectory")
	pf.IntVar(&workers, "workers", 0, "propagation workers (0 = one per CPU)")

	corridorCmd := &cobra.Command{
		Use:   "corridor [preset]",
		Short: "run a Monte Carlo hazard corridor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCorridor,
	}
	addTargetFlags(corridorCmd)
	addOutputFlags(corridorCmd)
	corridorCmd.Flags().BoolVar(&save, "save", false, "archive the run under the data directory")

	deflectCmd := &cobra.Command{
		Use:   "deflect [preset]",
		Short: "apply a kinetic impactor and propagate the safe trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDeflect,
	}
	addTargetFlags(deflectCmd)
	addOutputFlags(deflectCmd)
	deflectCmd.Flags().Float64Var(&deltaV, "dv", 0, "impactor delta-v in m/s (0 = required delta-v)")
	deflectCmd.Flags().Float64Var(&interceptorMass, "interceptor", config.DefaultInterceptorMass, "interceptor mass in kg")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a hazard corridor with a live progress view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addTargetFlags(liveCmd)

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved corridor runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved corridor run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "divergence, periodicity and node analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scenario or batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "deflect across a range of impactor delta-v",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addTargetFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&dvMin, "dv-min", 0, "lowest delta-v in m/s")
	sweepCmd.Flags().Float64Var(&dvMax, "dv-max", 1, "highest delta-v in m/s")
	sweepCmd.Flags().IntVar(&steps, "steps", 11, "number of delta-v steps")
	sweepCmd.Flags().Float64Var(&interceptorMass, "interceptor", config.DefaultInterceptorMass, "interceptor mass in kg")
	sweepCmd.Flags().BoolVar(&plot, "plot", false, "plot miss distance against delta-v")

	planCmd := &cobra.Command{
		Use:   "plan [preset]",
		Short: "find the smallest delta-v that reaches a miss distance",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlan,
	}
	addTargetFlags(planCmd)
	planCmd.Flags().Float64Var(&targetMissKm, "miss-km", 10000, "target miss distance in km")
	planCmd.Flags().Float64Var(&dvMax, "dv-max", 1, "highest delta-v to consider in m/s")
	planCmd.Flags().Float64Var(&interceptorMass, "interceptor", config.DefaultInterceptorMass, "interceptor mass in kg")

	massCmd := &cobra.Command{
		Use:   "mass",
		Short: "estimate asteroid mass from diameter and spectral type",
		Args:  cobra.NoArgs,
		RunE:  estimateMass,
	}
	massCmd.Flags().Float64Var(&diameter, "diameter", 0, "diameter in metres")
	massCmd.Flags().StringVar(&spectralType, "type", "S", "spectral type")
	massCmd.Flags().Float64Var(&leadTime, "lead-time", config.DefaultLeadTimeDays, "lead time in days for the required delta-v")
	massCmd.MarkFlagRequired("diameter")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the trajectory API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	rootCmd.AddCommand(corridorCmd, deflectCmd, liveCmd, runsCmd, plotCmd, analyzeCmd, presetsCmd, scenarioCmd, sweepCmd, planCmd, massCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addTargetFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&stateFlag, "state", "", "state vector x,y,z,vx,vy,vz instead of a preset")
	f.BoolVar(&stateAU, "au", false, "--state is in AU and AU/day")
	f.Float64Var(&asteroidMass, "mass", 0, "asteroid mass in kg (0 = estimate)")
	f.Float64Var(&diameter, "diameter", 0, "asteroid diameter in metres")
	f.StringVar(&spectralType, "type", "", "asteroid spectral type")
	f.Float64Var(&leadTime, "lead-time", 0, "lead time in days")
}

func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&jsonOut, "json", "", "write the result as JSON to this file")
	f.StringVar(&csvOut, "csv", "", "write trajectories as CSV to this file")
	f.BoolVar(&plot, "plot", false, "plot in the terminal")
}

// env is everything a command needs once flags, config and environment have
// been merged.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    *trajectory.Service
	masses *massmodel.Estimator
	runner *automation.Runner
}

func setup(cmd *cobra.Command, opts ...trajectory.Option) (*env, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	var level slog.LevelVar
	if l, err := config.ParseLevel(cfg.LogLevel); err == nil {
		level.Set(l)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
	cfg.ApplyEnv(logger)

	flags := cmd.Flags()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("seed") {
		cfg.Seed = &seed
	}
	if flags.Changed("sims") {
		cfg.Corridor.Simulations = sims
	}
	if flags.Changed("days") {
		cfg.Corridor.DurationDays = days
	}
	if flags.Changed("points") {
		cfg.Corridor.NumPoints = points
	}
	if flags.Changed("workers") {
		cfg.Corridor.Workers = workers
	}
	if flags.Changed("dv") {
		cfg.Deflection.DeltaV = deltaV
	}
	if flags.Changed("interceptor") {
		cfg.Deflection.InterceptorMass = interceptorMass
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l, _ := config.ParseLevel(cfg.LogLevel)
	level.Set(l)

	settings := trajectory.Settings{
		Simulations:         cfg.Corridor.Simulations,
		PositionSigmaKm:     cfg.Corridor.PositionSigmaKm,
		VelocitySigmaKmS:    cfg.Corridor.VelocitySigmaKmS,
		DurationDays:        cfg.Corridor.DurationDays,
		NumPoints:           cfg.Corridor.NumPoints,
		Workers:             cfg.Corridor.Workers,
		Seed:                cfg.Seed,
		Mu:                  cfg.Propagator.Mu,
		SolverTolerance:     cfg.Propagator.Tolerance,
		SolverMaxIterations: cfg.Propagator.MaxIterations,
	}
	svc := trajectory.NewService(settings, logger, opts...)

	masses, err := massmodel.NewEstimator(cfg.MassCacheSize, logger)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		svc:    svc,
		masses: masses,
		runner: automation.NewRunner(svc, masses, logger),
	}, nil
}

// target picks the scenario named by args, or the --state vector when given.
// Flags that were set override the preset's physical properties.
func (e *env) target(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	var s config.Scenario
	switch {
	case stateFlag != "":
		raw, err := parseState(stateFlag)
		if err != nil {
			return nil, err
		}
		if stateAU {
			sv, err := trajectory.FromEphemerisAU(raw)
			if err != nil {
				return nil, err
			}
			raw = sv.Slice()
		}
		s = config.Scenario{Name: "custom", State: raw, SpectralType: "S"}
	default:
		name := "earth_like"
		if len(args) > 0 {
			name = args[0]
		}
		p := config.GetPreset(name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		s = *p
	}

	flags := cmd.Flags()
	if flags.Changed("mass") {
		s.AsteroidMass = asteroidMass
	}
	if flags.Changed("diameter") {
		s.DiameterM = diameter
		if !flags.Changed("mass") {
			s.AsteroidMass = 0
		}
	}
	if flags.Changed("type") {
		s.SpectralType = spectralType
		if !flags.Changed("mass") {
			s.AsteroidMass = 0
		}
	}
	if flags.Changed("lead-time") {
		s.LeadTimeDays = leadTime
	}
	if s.LeadTimeDays == 0 {
		s.LeadTimeDays = e.cfg.Deflection.LeadTimeDays
	}
	if s.AsteroidMass == 0 && s.DiameterM == 0 {
		s.AsteroidMass = deflection.ReferenceMass
	}
	return &s, nil
}

func parseState(v string) ([]float64, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 6 {
		return nil, fmt.Errorf("--state needs 6 comma-separated values, got %d", len(parts))
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("--state component %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}
