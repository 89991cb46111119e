package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/popdyn/internal/config"
)

// param is one editable field of the config. Exactly one accessor is set.
type param struct {
	name  string
	num   func(*config.Config) *float64
	count func(*config.Config) *int
	text  func(*config.Config) *string
	step  float64
}

func (p param) isExpr() bool { return p.text != nil }

func (p param) format(c *config.Config) string {
	switch {
	case p.num != nil:
		return strconv.FormatFloat(*p.num(c), 'g', 6, 64)
	case p.count != nil:
		return strconv.Itoa(*p.count(c))
	default:
		return *p.text(c)
	}
}

// set parses raw into the field. Expressions are stored verbatim and only
// checked when the panel computes.
func (p param) set(c *config.Config, raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case p.num != nil:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", p.name, raw)
		}
		*p.num(c) = v
	case p.count != nil:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", p.name, raw)
		}
		*p.count(c) = v
	default:
		*p.text(c) = raw
	}
	return nil
}

// nudge moves a numeric field by dir steps; expressions are left alone.
func (p param) nudge(c *config.Config, dir float64) {
	switch {
	case p.num != nil:
		v := p.num(c)
		*v += dir * p.step
	case p.count != nil:
		v := p.count(c)
		*v += int(dir)
	}
}

func num(name string, step float64, f func(*config.Config) *float64) param {
	return param{name: name, num: f, step: step}
}

func count(name string, f func(*config.Config) *int) param {
	return param{name: name, count: f, step: 1}
}

var (
	growthCommon = []param{
		num("p0", 10, func(c *config.Config) *float64 { return &c.Growth.P0 }),
		num("r", 0.01, func(c *config.Config) *float64 { return &c.Growth.R }),
	}
	growthTail = []param{
		num("t_max", 10, func(c *config.Config) *float64 { return &c.Growth.TMax }),
		count("samples", func(c *config.Config) *int { return &c.Growth.Samples }),
	}
	epidemicHead = []param{
		num("n", 100, func(c *config.Config) *float64 { return &c.Epidemic.N }),
		num("beta", 0.01, func(c *config.Config) *float64 { return &c.Epidemic.Beta }),
		num("gamma", 0.01, func(c *config.Config) *float64 { return &c.Epidemic.Gamma }),
	}
	epidemicTail = []param{
		num("i0", 1, func(c *config.Config) *float64 { return &c.Epidemic.I0 }),
		num("r0", 1, func(c *config.Config) *float64 { return &c.Epidemic.R0 }),
		num("t_max", 10, func(c *config.Config) *float64 { return &c.Epidemic.TMax }),
	}
)

func concat(parts ...[]param) []param {
	var out []param
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var modelParams = map[string][]param{
	"exponential": concat(growthCommon, growthTail),
	"logistic": concat(growthCommon, []param{
		num("k", 50, func(c *config.Config) *float64 { return &c.Growth.K }),
	}, growthTail),
	"sir": concat(epidemicHead, epidemicTail),
	"seir": concat(epidemicHead, []param{
		num("sigma", 0.01, func(c *config.Config) *float64 { return &c.Epidemic.Sigma }),
		num("e0", 1, func(c *config.Config) *float64 { return &c.Epidemic.E0 }),
	}, epidemicTail),
	"field": {
		{name: "dx/dt", text: func(c *config.Config) *string { return &c.Field.DX }},
		{name: "dy/dt", text: func(c *config.Config) *string { return &c.Field.DY }},
		num("range_x", 0.5, func(c *config.Config) *float64 { return &c.Field.RangeX }),
		num("range_y", 0.5, func(c *config.Config) *float64 { return &c.Field.RangeY }),
		count("mesh", func(c *config.Config) *int { return &c.Field.Mesh }),
	},
}

var modelInfo = map[string]string{
	"exponential": "P0·e^(rt)",
	"logistic":    "growth towards K",
	"sir":         "susceptible, infected, recovered",
	"seir":        "SIR with an exposed stage",
	"field":       "phase plane of dx/dt, dy/dt",
}

// applyPreset copies the preset's model section into c.
func applyPreset(c *config.Config, model, name string) bool {
	p, ok := config.Presets[model][name]
	if !ok {
		return false
	}
	switch {
	case p.Growth != nil:
		c.Growth = *p.Growth
	case p.Epidemic != nil:
		c.Epidemic = *p.Epidemic
	case p.Field != nil:
		c.Field = *p.Field
	}
	c.Description = p.Description
	return true
}
