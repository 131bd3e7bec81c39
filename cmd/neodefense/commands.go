package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/neodefense/internal/analysis"
	"github.com/san-kum/neodefense/internal/api"
	"github.com/san-kum/neodefense/internal/automation"
	"github.com/san-kum/neodefense/internal/config"
	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/export"
	"github.com/san-kum/neodefense/internal/massmodel"
	"github.com/san-kum/neodefense/internal/metrics"
	"github.com/san-kum/neodefense/internal/optim"
	"github.com/san-kum/neodefense/internal/storage"
	"github.com/san-kum/neodefense/internal/trajectory"
	"github.com/san-kum/neodefense/internal/tui"
	"github.com/san-kum/neodefense/internal/viz"
	"github.com/spf13/cobra"
)

func runCorridor(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	s, err := e.target(cmd, args)
	if err != nil {
		return err
	}
	sv, err := trajectory.FromKilometers(s.State)
	if err != nil {
		return err
	}

	fmt.Printf("running %d-sample corridor for %s...\n", e.cfg.Corridor.Simulations, s.Name)
	start := time.Now()

	c, err := e.svc.ComputeHazardCorridor(cmd.Context(), sv)
	if err != nil {
		return err
	}
	if w := c.Warnings(); w != nil {
		e.logger.Warn("partial corridor", "dropped", len(c.Failures), "error", w)
	}

	fmt.Println(viz.CorridorSummary(s.Name, c))
	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	if plot {
		fmt.Println(viz.DistancePlot(c, plotWidth, plotHeight))
	}

	if jsonOut != "" {
		doc := export.NewCorridorDoc(sv, c, e.cfg.Seed)
		doc.Metrics = export.CorridorMetrics(c, e.svc.Mu())
		if err := export.ExportJSON(jsonOut, doc); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonOut)
	}
	if csvOut != "" {
		if err := export.ExportCorridorCSV(csvOut, c); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvOut)
	}
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(s.Name, sv, c, e.cfg.Seed, e.cfg.Corridor.DurationDays, export.CorridorMetrics(c, e.svc.Mu()))
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if c.Cancelled {
		return fmt.Errorf("cancelled after %d of %d samples", len(c.Trajectories), c.Requested)
	}
	return nil
}

func runDeflect(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	s, err := e.target(cmd, args)
	if err != nil {
		return err
	}
	sv, mass, err := e.runner.Resolve(s)
	if err != nil {
		return err
	}

	required, err := e.svc.RequiredDeltaV(mass, s.LeadTimeDays)
	if err != nil {
		return err
	}
	p := dynamo.DeflectionParameters{
		DeltaV:          e.cfg.Deflection.DeltaV,
		InterceptorMass: e.cfg.Deflection.InterceptorMass,
		AsteroidMass:    mass,
		LeadTimeDays:    s.LeadTimeDays,
	}
	if p.DeltaV == 0 {
		p.DeltaV = required
	}

	ctx := cmd.Context()
	res, err := e.svc.Deflect(ctx, sv, p)
	if err != nil {
		return err
	}
	nominal, err := e.svc.Propagate(ctx, sv)
	if err != nil {
		return err
	}
	sep, err := analysis.Separation(nominal, res.Trajectory)
	if err != nil {
		return err
	}

	fmt.Println(viz.DeflectionSummary(p, res, required, &sep))
	if plot {
		fmt.Println(viz.SeparationPlot(sep, plotWidth, plotHeight))
	}

	if jsonOut != "" {
		doc := export.NewDeflectionDoc(sv, p, res)
		doc.Metrics = export.DeflectionMetrics(res, &nominal, e.svc.Mu())
		if err := export.ExportJSON(jsonOut, doc); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonOut)
	}
	if csvOut != "" {
		file, err := os.Create(csvOut)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := export.WriteTrajectoryCSV(file, res.Trajectory); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvOut)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	// keep log lines from tearing the live view
	if logLevel == "" {
		logLevel = "error"
	}

	var p *tea.Program
	tracker := tui.NewTracker(func(m tea.Msg) { p.Send(m) })

	e, err := setup(cmd, trajectory.WithObserver(tracker))
	if err != nil {
		return err
	}
	s, err := e.target(cmd, args)
	if err != nil {
		return err
	}
	sv, err := trajectory.FromKilometers(s.State)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	run := tui.RunCorridor(func() (*dynamo.HazardCorridor, error) {
		return e.svc.ComputeHazardCorridor(ctx, sv)
	})
	p = tea.NewProgram(tui.NewModel(s.Name, e.cfg.Corridor.Simulations, run, cancel))

	final, err := p.Run()
	if err != nil {
		return err
	}
	m, ok := final.(tui.Model)
	if !ok || !m.Finished() {
		return nil
	}
	c, err := m.Result()
	if err != nil {
		return err
	}
	if c.Cancelled {
		return fmt.Errorf("cancelled after %d of %d samples", len(c.Trajectories), c.Requested)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCENARIO\tTIME\tSAMPLES\tIMPACT\tSPREAD (km)")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%.0f%%\t%.0f\n",
			r.ID, r.Scenario, r.Timestamp.Format(time.DateTime),
			r.Returned, r.Requested, r.Metrics["impact_fraction"]*100, r.Metrics["max_spread_km"])
	}
	return tw.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	c, err := st.LoadCorridor(meta.ID)
	if err != nil {
		return err
	}

	fmt.Println(viz.CorridorSummary(meta.Scenario, c))
	fmt.Println(viz.DistancePlot(c, plotWidth, plotHeight))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	c, err := st.LoadCorridor(meta.ID)
	if err != nil {
		return err
	}
	nominal, ok := c.Nominal()
	if !ok {
		return analysis.ErrNoNominal
	}

	fmt.Println(viz.Title.Render("analysis") + " " + meta.ID)
	dist := analysis.DistanceSeries(nominal, analysis.EarthPosition)
	fmt.Printf("earth distance   %s\n", viz.Sparkline(dist, 40))
	if spread, err := analysis.Spread(c); err == nil {
		fmt.Printf("corridor spread  %s\n", viz.Sparkline(spread, 40))
	}

	if nominal.Len() > 1 {
		step := nominal.Times[1] - nominal.Times[0]
		if p := analysis.DominantPeriod(dist, step); p > 0 {
			fmt.Printf("dominant period: %.1f days\n", p)
		}
	}

	rates := analysis.CorridorDivergence(c)
	if len(rates) > 0 {
		fmt.Println("\ndivergence (1/day):")
		for _, idx := range slices.Sorted(maps.Keys(rates)) {
			fmt.Printf("  sample %-4d %.3e\n", idx, rates[idx])
		}
	}

	nodes := analysis.AscendingNodes(nominal)
	if len(nodes) > 0 {
		fmt.Println("\nascending nodes:")
		for _, n := range nodes {
			fmt.Printf("  t=%7.1f d  x=%.3e y=%.3e km\n", n.TimeDays, n.Point[0], n.Point[1])
		}
	}

	fmt.Println(viz.Separator(plotWidth))
	fmt.Print(analysis.ProjectionToASCII(c, plotWidth, 2*plotHeight))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Print(viz.PresetTable(config.ListPresets(), func(name string) string {
		return config.GetPreset(name).Description
	}))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	path := args[0]
	batch, err := automation.LoadBatch(path)
	if err != nil {
		s, serr := config.LoadScenario(path)
		if serr != nil {
			return fmt.Errorf("load %s: %w", path, errors.Join(err, serr))
		}
		batch = &automation.Batch{
			Name:            s.Name,
			DeltaV:          e.cfg.Deflection.DeltaV,
			InterceptorMass: e.cfg.Deflection.InterceptorMass,
			Scenarios:       []config.Scenario{*s},
		}
	}

	fmt.Printf("running %s (%d scenarios)...\n", batch.Name, len(batch.Scenarios))
	results, runErr := e.runner.RunBatch(cmd.Context(), batch)

	for _, r := range results {
		fmt.Println(viz.CorridorSummary(r.Name, r.Corridor))
		fmt.Println(viz.DeflectionSummary(r.Params, r.Deflection, r.RequiredDeltaV, nil))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tVERDICT\tCLOSEST (km)\tIMPACT\tREQUIRED DV (m/s)\tMISS (km)")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.0f%%\t%.4f\t%.1f\n",
			r.Name, viz.Verdict(r.Approach), r.Approach.DistanceKm,
			r.ImpactFraction*100, r.RequiredDeltaV, r.MissDistanceKm)
	}
	tw.Flush()

	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	s, err := e.target(cmd, args)
	if err != nil {
		return err
	}

	results, err := e.runner.RunSweep(cmd.Context(), automation.Sweep{
		Scenario:        s,
		InterceptorMass: e.cfg.Deflection.InterceptorMass,
		DvMin:           dvMin,
		DvMax:           dvMax,
		NumSteps:        steps,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DV (m/s)\tEFFECTIVE (m/s)\tMISS (km)\tMAX SEP (km)\tCLOSEST (km)")
	miss := make([]float64, len(results))
	for i, r := range results {
		fmt.Fprintf(tw, "%.4f\t%.6f\t%.1f\t%.1f\t%.0f\n",
			r.DeltaV, r.EffectiveDeltaV, r.MissDistanceKm, r.MaxSeparationKm, r.ClosestApproachKm)
		miss[i] = r.MissDistanceKm
	}
	tw.Flush()

	if plot {
		fmt.Println(viz.SweepPlot(miss, dvMin, dvMax, plotWidth, plotHeight))
	}
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	s, err := e.target(cmd, args)
	if err != nil {
		return err
	}

	plan, err := e.runner.PlanDeflection(cmd.Context(), s, e.cfg.Deflection.InterceptorMass, targetMissKm, dvMax)
	if errors.Is(err, optim.ErrUnreachable) {
		fmt.Printf("%s: %.0f km is out of reach below %g m/s (best %.1f km at %.4f m/s)\n",
			s.Name, targetMissKm, dvMax, plan.MissDistanceKm, plan.DeltaV)
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("scenario:      %s\n", s.Name)
	fmt.Printf("target miss:   %.0f km\n", targetMissKm)
	fmt.Printf("delta-v:       %.4f m/s (%d evaluations)\n", plan.DeltaV, plan.Evaluations)
	fmt.Printf("miss distance: %.1f km\n", plan.MissDistanceKm)
	fmt.Printf("heuristic dv:  %.4f m/s\n", plan.RequiredDeltaV)
	return nil
}

func estimateMass(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	mass, err := e.masses.Mass(diameter, spectralType)
	if err != nil {
		return err
	}
	required, err := e.svc.RequiredDeltaV(mass, leadTime)
	if err != nil {
		return err
	}

	fmt.Printf("diameter:      %.0f m\n", diameter)
	fmt.Printf("density:       %.0f kg/m^3 (%s)\n", massmodel.Density(spectralType), spectralType)
	fmt.Printf("mass:          %.3e kg\n", mass)
	fmt.Printf("required dv:   %.4f m/s at %.0f days\n", required, leadTime)
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	rec := metrics.NewRecorder()
	e, err := setup(cmd, trajectory.WithObserver(rec))
	if err != nil {
		return err
	}

	srv := api.NewServer(e.cfg.Server.Addr, e.logger, api.Deps{
		Engine:   e.svc,
		Masses:   e.masses,
		Recorder: rec,
		Defaults: e.cfg.Deflection,
	})

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("server starting", "addr", e.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-cmd.Context().Done():
	case err := <-errCh:
		e.logger.Error("server error", "error", err)
		return err
	}

	e.logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
