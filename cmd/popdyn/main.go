package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/popdyn/internal/tui"
)

var (
	configFile string
	preset     string
	format     string
	outPath    string
	logLevel   string
	method     string
	width      int
	height     int

	// growth
	p0      float64
	rate    float64
	capK    float64
	tMax    float64
	samples int

	// epidemic
	popN    float64
	beta    float64
	gamma   float64
	sigma   float64
	i0      float64
	e0      float64
	r0      float64
	contact float64
	removal float64

	// field
	dxExpr     string
	dyExpr     string
	rangeX     float64
	rangeY     float64
	mesh       int
	trajSeeds  int
	trajDt     float64
	trajLength float64
	probe      []float64

	// sweep and search
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	metric     string
	grid       []string

	// monte carlo
	trials int
	spread float64
	seed   int64

	// serve and weather
	addr      string
	latitude  float64
	longitude float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "popdyn",
		Short:         "population dynamics lab: growth, epidemics, phase planes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, "")
			if err != nil {
				return err
			}
			return tui.RunInteractive(cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&format, "format", "plot", "output format: plot, table, csv or json")
	pf.StringVar(&outPath, "out", "", "write the result to a .csv, .json, .svg or .png file")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&method, "method", "", "solver: rk45, rk4 or euler")
	pf.IntVar(&width, "width", 80, "plot width")
	pf.IntVar(&height, "height", 20, "plot height")

	growthCmd := &cobra.Command{
		Use:       "growth [exponential|logistic]",
		Short:     "closed-form population growth",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"exponential", "logistic"},
		RunE:      runGrowth,
	}
	addGrowthFlags(growthCmd)

	epidemicCmd := &cobra.Command{
		Use:       "epidemic [sir|seir]",
		Short:     "solve a compartmental model",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"sir", "seir"},
		RunE:      runEpidemic,
	}
	addEpidemicFlags(epidemicCmd)

	fieldCmd := &cobra.Command{
		Use:   "field",
		Short: "sample a planar vector field",
		Args:  cobra.NoArgs,
		RunE:  runField,
	}
	addFieldFlags(fieldCmd)
	fieldCmd.Flags().IntVar(&trajSeeds, "trajectories", 0, "overlay n x n trajectories")
	fieldCmd.Flags().Float64Var(&trajDt, "traj-dt", 0.01, "trajectory timestep")
	fieldCmd.Flags().Float64Var(&trajLength, "traj-time", 5, "trajectory duration")
	fieldCmd.Flags().Float64SliceVar(&probe, "probe", nil, "x,y: report the orbit period and Lyapunov exponent from this point")

	compareCmd := &cobra.Command{
		Use:   "compare [sir|seir] [method1] [method2] ...",
		Short: "compare solvers on the same epidemic",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCompare,
	}
	addEpidemicFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [sir|seir]",
		Short: "sweep one epidemic parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addEpidemicFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "beta", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "sweep start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.0, "sweep end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")
	sweepCmd.Flags().StringVar(&metric, "metric", "peak_infected", "metric to plot")

	searchCmd := &cobra.Command{
		Use:   "search [sir|seir]",
		Short: "grid search epidemic parameters minimizing a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSearch,
	}
	addEpidemicFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&grid, "grid", nil, "param=min:max:steps (repeatable)")
	searchCmd.Flags().StringVar(&metric, "metric", "peak_infected", "metric to minimize")

	scenarioCmd := &cobra.Command{
		Use:   "scenario <file.yaml>",
		Short: "run a scripted batch of experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [sir|seir]",
		Short: "randomize beta and gamma and summarize the outcomes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addEpidemicFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&spread, "spread", 0.1, "relative perturbation of beta and gamma")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal dashboard",
		Args:  cobra.NoArgs,
		RunE:  rootCmd.RunE,
	}

	weatherCmd := &cobra.Command{
		Use:   "weather [city]",
		Short: "hourly forecast from Open-Meteo",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWeather,
	}
	weatherCmd.Flags().Float64Var(&latitude, "lat", 0, "latitude (with --lon, instead of a city)")
	weatherCmd.Flags().Float64Var(&longitude, "lon", 0, "longitude")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(growthCmd, epidemicCmd, fieldCmd, compareCmd, sweepCmd, searchCmd,
		scenarioCmd, monteCarloCmd, presetsCmd, serveCmd, tuiCmd, weatherCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addGrowthFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&p0, "p0", 100, "initial population")
	f.Float64Var(&rate, "r", 0.03, "growth rate")
	f.Float64Var(&capK, "k", 1000, "carrying capacity (logistic)")
	f.Float64Var(&tMax, "t-max", 100, "time horizon")
	f.IntVar(&samples, "samples", 100, "number of samples")
}

func addEpidemicFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&popN, "n", 1000, "population size")
	f.Float64Var(&beta, "beta", 0.3, "transmission rate")
	f.Float64Var(&gamma, "gamma", 0.1, "recovery rate")
	f.Float64Var(&sigma, "sigma", 0.2, "incubation rate (seir)")
	f.Float64Var(&i0, "i0", 1, "initial infected")
	f.Float64Var(&e0, "e0", 0, "initial exposed (seir)")
	f.Float64Var(&r0, "r0", 0, "initial recovered")
	f.Float64Var(&tMax, "t-max", 100, "time horizon")
	f.IntVar(&samples, "samples", 500, "number of samples")
	f.Float64Var(&contact, "b", 0, "per-contact rate; with --k sets beta = b*N")
	f.Float64Var(&removal, "k", 0, "removal rate for the mass-action form (gamma = k)")
}

func addFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&dxExpr, "dx", "-y", "dx/dt expression")
	f.StringVar(&dyExpr, "dy", "x", "dy/dt expression")
	f.Float64Var(&rangeX, "range-x", 3, "x half-range")
	f.Float64Var(&rangeY, "range-y", 3, "y half-range")
	f.IntVar(&mesh, "mesh", 20, "grid points per axis")
}
