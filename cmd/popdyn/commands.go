package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/popdyn/internal/analysis"
	"github.com/san-kum/popdyn/internal/automation"
	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/export"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/integrators"
	"github.com/san-kum/popdyn/internal/server"
	"github.com/san-kum/popdyn/internal/viz"
	"github.com/san-kum/popdyn/internal/weather"
)

func modelArg(args []string, fallback string) string {
	if len(args) > 0 {
		return strings.ToLower(args[0])
	}
	return fallback
}

// compute runs the effective config through the registry. Failures still
// print the idle placeholder so the axes remain visible.
func compute(cfg *config.Config) error {
	registry := experiment.NewRegistry(cfg.Solver.NewSolver)
	req := experiment.FromConfig(cfg)

	start := time.Now()
	view := registry.Execute(context.Background(), req)
	elapsed := time.Since(start)

	if view.Failed() {
		if format == "plot" {
			fmt.Println(viz.Chart(view, width, height))
		}
		return fmt.Errorf("%s: %s", view.Kind, view.Message)
	}
	if cfg.Description != "" && format == "plot" {
		fmt.Println(viz.Subtle.Render(cfg.Description))
	}
	if err := emit(view, solverName(cfg)); err != nil {
		return err
	}
	if format == "plot" {
		fmt.Println(viz.Subtle.Render(fmt.Sprintf("computed in %v", elapsed.Round(time.Microsecond))))
	}
	return nil
}

// solverName is what produced the data: only epidemics are integrated.
func solverName(cfg *config.Config) string {
	switch cfg.Model {
	case "sir", "seir":
		return cfg.Solver.Method
	case "exponential", "logistic":
		return "closed-form"
	}
	return ""
}

func runGrowth(cmd *cobra.Command, args []string) error {
	model := modelArg(args, "logistic")
	if model != "exponential" && model != "logistic" {
		return fmt.Errorf("unknown growth model %q (want exponential or logistic)", model)
	}
	cfg, err := loadConfig(cmd, model)
	if err != nil {
		return err
	}
	return compute(cfg)
}

func epidemicConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	kind, err := epidemic.ParseKind(modelArg(args, "sir"))
	if err != nil {
		return nil, err
	}
	return loadConfig(cmd, string(kind))
}

func runEpidemic(cmd *cobra.Command, args []string) error {
	cfg, err := epidemicConfig(cmd, args)
	if err != nil {
		return err
	}
	return compute(cfg)
}

func runField(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "field")
	if err != nil {
		return err
	}
	if len(probe) > 0 {
		return runProbe(cfg)
	}
	if trajSeeds <= 0 {
		return compute(cfg)
	}

	sample, err := field.Evaluate(cfg.Field)
	if err != nil {
		return err
	}
	sys, err := field.Parse(cfg.Field.DX, cfg.Field.DY)
	if err != nil {
		return err
	}

	bound := analysis.Symmetric(cfg.Field.RangeX, cfg.Field.RangeY)
	paths, err := analysis.Portrait(context.Background(), sys,
		func() dynamo.Integrator { return integrators.NewRK4() },
		analysis.GridSeeds(bound, trajSeeds), trajDt, trajLength, bound)
	if err != nil {
		return err
	}

	if strings.HasSuffix(strings.ToLower(outPath), ".svg") {
		svg := export.FieldSVG(sample, paths, export.DefaultWidth, export.DefaultHeight)
		if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}
	fmt.Print(viz.FieldChart(sample, paths, width, height))
	return nil
}

// runProbe follows one orbit of the field from --probe.
func runProbe(cfg *config.Config) error {
	if len(probe) != 2 {
		return fmt.Errorf("--probe wants x,y")
	}
	sys, err := field.Parse(cfg.Field.DX, cfg.Field.DY)
	if err != nil {
		return err
	}
	x0 := dynamo.State{probe[0], probe[1]}
	bound := analysis.Symmetric(cfg.Field.RangeX, cfg.Field.RangeY)
	ctx := context.Background()

	path, err := analysis.Trajectory(ctx, sys, integrators.NewRK4(), x0, trajDt, trajLength, bound)
	if err != nil {
		return err
	}
	if len(path) == 0 {
		return fmt.Errorf("probe (%g, %g) is outside the field range", probe[0], probe[1])
	}
	lam, err := analysis.LyapunovExponent(ctx, sys, integrators.NewRK4(), x0, trajDt, trajLength, 1e-8)
	if err != nil {
		return err
	}

	xs := make([]float64, len(path))
	for i, p := range path {
		xs[i] = p.X
	}
	period := analysis.DominantPeriod(xs, trajDt)

	fmt.Printf("dx/dt = %s\ndy/dt = %s\n\n", cfg.Field.DX, cfg.Field.DY)
	fmt.Printf("  start      (%g, %g)\n", probe[0], probe[1])
	fmt.Printf("  steps      %d (of %d)\n", len(path)-1, int(math.Ceil(trajLength/trajDt)))
	if period > 0 {
		fmt.Printf("  period     %s\n", viz.FormatValue(period))
	} else {
		fmt.Printf("  period     none\n")
	}
	fmt.Printf("  lyapunov   %s\n", viz.FormatValue(lam))
	fmt.Printf("  x(t)       %s\n", viz.SparklineChart(xs, width))
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := epidemicConfig(cmd, args)
	if err != nil {
		return err
	}
	methods := args[1:]
	if len(methods) == 0 {
		methods = integrators.Methods()
	}
	p := cfg.EpidemicParams()

	fmt.Printf("comparing solvers for %s (N=%g, beta=%g, gamma=%g, t_max=%g)\n\n", p.Kind, p.N, p.Beta, p.Gamma, p.TMax)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPEAK\tPEAK_T\tFINAL\tDRIFT\tSTEPS\tREJECTED\tTIME_MS")
	for _, name := range methods {
		solver, err := integrators.NewSolver(name, cfg.Solver.Options())
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		start := time.Now()
		out, err := epidemic.Solve(context.Background(), p, solver)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}

		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.4f\t%.2e\t%d\t%d\t%.2f\n",
			name,
			out.Metrics["peak_infected"],
			out.Metrics["peak_time"],
			out.Metrics["final_size"],
			out.Metrics["conservation_drift"],
			out.Steps,
			out.Rejected,
			float64(elapsed.Microseconds())/1000)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := epidemicConfig(cmd, args)
	if err != nil {
		return err
	}

	newSolver := func() dynamo.Solver {
		s, err := cfg.Solver.NewSolver()
		if err != nil {
			return nil
		}
		return s
	}
	points, err := analysis.Sweep(context.Background(), cfg.EpidemicParams(), sweepParam, sweepMin, sweepMax, sweepSteps, newSolver)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return writeJSONStdout(points)
	case "plot":
		fmt.Println(viz.SweepChart(points, metric, width, height))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	sep := "\t"
	if format == "csv" {
		sep = ","
	}
	fmt.Fprintln(w, strings.Join([]string{strings.ToUpper(sweepParam), "PEAK", "PEAK_T", "FINAL", "R0"}, sep))
	for _, pt := range points {
		fmt.Fprintln(w, strings.Join([]string{
			strconv.FormatFloat(pt.Value, 'g', 6, 64),
			strconv.FormatFloat(pt.PeakInfected, 'f', 2, 64),
			strconv.FormatFloat(pt.PeakTime, 'f', 2, 64),
			strconv.FormatFloat(pt.FinalSize, 'f', 4, 64),
			strconv.FormatFloat(pt.BasicReproduction, 'f', 3, 64),
		}, sep))
	}
	return w.Flush()
}

// parseGrid reads repeated "name=min:max:steps" flags.
func parseGrid(entries []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(entries))
	for _, entry := range entries {
		name, rng, ok := strings.Cut(entry, "=")
		parts := strings.Split(rng, ":")
		if !ok || len(parts) != 3 {
			return nil, fmt.Errorf("bad grid %q (want name=min:max:steps)", entry)
		}
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return nil, fmt.Errorf("bad grid %q (want name=min:max:steps)", entry)
		}
		out[strings.TrimSpace(name)] = dynamo.Linspace(lo, hi, n)
	}
	return out, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := epidemicConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	g, err := parseGrid(grid)
	if err != nil {
		return err
	}
	solver, err := cfg.Solver.NewSolver()
	if err != nil {
		return err
	}

	best, value, err := analysis.GridSearch(context.Background(), cfg.EpidemicParams(), g, metric, solver)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(best))
	for name := range best {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("best %s: %s\n", metric, viz.FormatValue(value))
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best[name])
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := config.Models
	if len(args) > 0 {
		models = []string{args[0]}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPRESET\tDESCRIPTION")
	found := false
	for _, m := range models {
		for _, name := range config.ListPresets(m) {
			found = true
			fmt.Fprintf(w, "%s\t%s\t%s\n", m, name, config.Presets[m][name].Description)
		}
	}
	if !found {
		fmt.Printf("no presets for model: %s\n", strings.Join(models, ", "))
		return nil
	}
	return w.Flush()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, newLogger(cfg.Server.LogLevel)).ListenAndServe(ctx)
}

func runWeather(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return err
	}
	client := weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timeout)
	ctx := context.Background()

	var (
		label    string
		forecast *weather.Forecast
	)
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		label = fmt.Sprintf("%.4f, %.4f", latitude, longitude)
		forecast, err = client.Hourly(ctx, latitude, longitude)
	} else {
		var c weather.City
		c, forecast, err = client.City(ctx, modelArg(args, cfg.Weather.City))
		label = c.Name
	}
	if err != nil {
		return err
	}

	if format == "json" {
		return writeJSONStdout(forecast)
	}

	fmt.Printf("%s (%s)\n", viz.GradientTitle.Render(label), forecast.Timezone)
	fmt.Printf("temperature %s\n", viz.SparklineChart(forecast.Temperature, 24))
	fmt.Printf("humidity    %s\n\n", viz.SparklineChart(forecast.Humidity, 24))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTEMP_C\tHUMIDITY_%")
	for i, t := range forecast.Times {
		fmt.Fprintf(w, "%s\t%.1f\t%.0f\n", t.Format("15:04"), forecast.Temperature[i], forecast.Humidity[i])
	}
	return w.Flush()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "popdyn.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Server.LogLevel)
	registry := experiment.NewRegistry(cfg.Solver.NewSolver)
	results, err := automation.RunScenario(context.Background(), sc, registry, filepath.Dir(args[0]), logger)
	if err != nil {
		return err
	}

	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODEL\tSTATE\tRESULT")
	failed := 0
	for _, r := range results {
		summary := r.SavedTo
		if r.View.Failed() {
			failed++
			summary = fmt.Sprintf("%s: %s", r.View.Kind, r.View.Message)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Step, r.View.Model, r.View.State, summary)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := epidemicConfig(cmd, args)
	if err != nil {
		return err
	}

	mc := automation.MonteCarloConfig{
		Base:   cfg.EpidemicParams(),
		Spread: spread,
		Trials: trials,
		Seed:   seed,
	}
	newSolver := func() dynamo.Solver {
		s, err := cfg.Solver.NewSolver()
		if err != nil {
			return nil
		}
		return s
	}
	results, err := automation.RunMonteCarlo(context.Background(), mc, newSolver)
	if err != nil {
		return err
	}
	stats := automation.MonteCarloStats(results)

	if format == "json" {
		return writeJSONStdout(map[string]any{"trials": results, "summary": stats})
	}

	fmt.Printf("%d trials, beta and gamma within ±%g%%\n\n", len(results), spread*100)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMEDIAN\tMAX")
	for _, name := range []string{"peak_infected", "peak_time", "final_size"} {
		s := stats[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", name,
			viz.FormatValue(s.Mean), viz.FormatValue(s.StdDev), viz.FormatValue(s.Min),
			viz.FormatValue(s.Median), viz.FormatValue(s.Max))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	peaks := make([]float64, len(results))
	for i, r := range results {
		peaks[i] = r.PeakInfected
	}
	fmt.Printf("\npeaks %s\n", viz.SparklineChart(peaks, min(len(peaks), width)))
	return nil
}
