package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/epidemic"
)

// loadConfig builds the effective config for model: defaults, then the
// preset, then the config file, then any flag set on the command line.
func loadConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		m := model
		if m == "" {
			m = cfg.Model
		}
		p := config.GetPreset(m, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", preset, m, config.ListPresets(m))
		}
		cfg = p
	}

	if configFile != "" {
		if err := config.LoadInto(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if model != "" {
		cfg.Model = model
	}
	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	set := func(name string, dst *float64, v float64) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst = v
		}
	}
	setInt := func(name string, dst *int, v int) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst = v
		}
	}
	setStr := func(name string, dst *string, v string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst = v
		}
	}

	setStr("method", &cfg.Solver.Method, method)
	setStr("log-level", &cfg.Server.LogLevel, logLevel)
	setStr("addr", &cfg.Server.Addr, addr)

	switch cfg.Model {
	case "exponential", "logistic":
		set("p0", &cfg.Growth.P0, p0)
		set("r", &cfg.Growth.R, rate)
		set("k", &cfg.Growth.K, capK)
		set("t-max", &cfg.Growth.TMax, tMax)
		setInt("samples", &cfg.Growth.Samples, samples)
	case "sir", "seir":
		cfg.Epidemic.Kind = epidemic.Kind(cfg.Model)
		set("n", &cfg.Epidemic.N, popN)
		set("beta", &cfg.Epidemic.Beta, beta)
		set("gamma", &cfg.Epidemic.Gamma, gamma)
		set("sigma", &cfg.Epidemic.Sigma, sigma)
		set("i0", &cfg.Epidemic.I0, i0)
		set("e0", &cfg.Epidemic.E0, e0)
		set("r0", &cfg.Epidemic.R0, r0)
		set("t-max", &cfg.Epidemic.TMax, tMax)
		setInt("samples", &cfg.Epidemic.Samples, samples)
		if flags.Lookup("b") != nil && flags.Changed("b") {
			k := cfg.Epidemic.Gamma
			if flags.Changed("k") {
				k = removal
			}
			cfg.Epidemic.Beta, cfg.Epidemic.Gamma = epidemic.FromMassAction(cfg.Epidemic.N, contact, k)
		} else if flags.Lookup("k") != nil && flags.Changed("k") {
			cfg.Epidemic.Gamma = removal
		}
	case "field":
		setStr("dx", &cfg.Field.DX, dxExpr)
		setStr("dy", &cfg.Field.DY, dyExpr)
		set("range-x", &cfg.Field.RangeX, rangeX)
		set("range-y", &cfg.Field.RangeY, rangeY)
		setInt("mesh", &cfg.Field.Mesh, mesh)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
