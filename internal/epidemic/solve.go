package epidemic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/integrators"
	"github.com/san-kum/popdyn/internal/metrics"
)

type Kind string

const (
	KindSIR  Kind = "sir"
	KindSEIR Kind = "seir"
)

// DefaultSamples is the size of the uniform evaluation grid.
const (
	DefaultSamples = 500
	MaxSamples     = 100000
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSIR:
		return KindSIR, nil
	case KindSEIR:
		return KindSEIR, nil
	}
	return "", fmt.Errorf("unknown compartmental model %q (want sir or seir): %w", s, dynamo.ErrInvalidParameter)
}

// Params describes one compartmental run. R0 is the initial recovered count,
// not the reproduction number.
type Params struct {
	Kind    Kind    `json:"kind" yaml:"kind"`
	N       float64 `json:"n" yaml:"n"`
	Beta    float64 `json:"beta" yaml:"beta"`
	Gamma   float64 `json:"gamma" yaml:"gamma"`
	Sigma   float64 `json:"sigma,omitempty" yaml:"sigma"`
	I0      float64 `json:"i0" yaml:"i0"`
	E0      float64 `json:"e0,omitempty" yaml:"e0"`
	R0      float64 `json:"r0,omitempty" yaml:"r0"`
	TMax    float64 `json:"t_max" yaml:"t_max"`
	Samples int     `json:"samples,omitempty" yaml:"samples"`
}

func (p Params) samples() int {
	if p.Samples == 0 {
		return DefaultSamples
	}
	return p.Samples
}

// S0 is the initial susceptible count.
func (p Params) S0() float64 {
	return p.N - p.I0 - p.E0 - p.R0
}

// BasicReproduction returns β/γ, or +Inf when nobody recovers.
func (p Params) BasicReproduction() float64 {
	if p.Gamma == 0 {
		return math.Inf(1)
	}
	return p.Beta / p.Gamma
}

// Validate rejects every out-of-domain input before integration starts.
func (p Params) Validate() error {
	if p.Kind != KindSIR && p.Kind != KindSEIR {
		return fmt.Errorf("unknown compartmental model %q: %w", p.Kind, dynamo.ErrInvalidParameter)
	}

	values := []struct {
		name  string
		value float64
	}{
		{"N", p.N}, {"beta", p.Beta}, {"gamma", p.Gamma}, {"sigma", p.Sigma},
		{"I0", p.I0}, {"E0", p.E0}, {"R0", p.R0}, {"t_max", p.TMax},
	}
	for _, v := range values {
		if !dynamo.IsFinite(v.value) {
			return dynamo.InvalidParam(v.name, v.value, "must be a finite number")
		}
	}

	switch {
	case p.N <= 0:
		return dynamo.InvalidParam("N", p.N, "population must be positive")
	case p.Beta < 0:
		return dynamo.InvalidParam("beta", p.Beta, "rate must be non-negative")
	case p.Gamma < 0:
		return dynamo.InvalidParam("gamma", p.Gamma, "rate must be non-negative")
	case p.Sigma < 0:
		return dynamo.InvalidParam("sigma", p.Sigma, "rate must be non-negative")
	case p.Kind == KindSEIR && p.Sigma == 0:
		return dynamo.InvalidParam("sigma", p.Sigma, "SEIR needs a positive incubation rate")
	case p.I0 < 0:
		return dynamo.InvalidParam("I0", p.I0, "initial count must be non-negative")
	case p.E0 < 0:
		return dynamo.InvalidParam("E0", p.E0, "initial count must be non-negative")
	case p.R0 < 0:
		return dynamo.InvalidParam("R0", p.R0, "initial count must be non-negative")
	case p.I0+p.E0+p.R0 > p.N:
		return dynamo.InvalidParam("I0", p.I0, fmt.Sprintf("initial compartments exceed N=%g", p.N))
	case p.TMax <= 0:
		return dynamo.InvalidParam("t_max", p.TMax, "time horizon must be positive")
	case p.samples() < 2 || p.samples() > MaxSamples:
		return dynamo.InvalidParam("samples", float64(p.Samples), fmt.Sprintf("need between 2 and %d samples", MaxSamples))
	}
	return nil
}

// Model builds the ODE system and its initial state.
func (p Params) Model() (dynamo.System, dynamo.State) {
	if p.Kind == KindSEIR {
		return NewSEIR(p.N, p.Beta, p.Gamma, p.Sigma), dynamo.State{p.S0(), p.E0, p.I0, p.R0}
	}
	return NewSIR(p.N, p.Beta, p.Gamma), dynamo.State{p.S0(), p.I0, p.R0}
}

// Outcome is one solved run: a series per compartment on a shared grid.
type Outcome struct {
	Kind         Kind                     `json:"kind"`
	Times        []float64                `json:"times"`
	Names        []string                 `json:"names"`
	Compartments map[string]dynamo.Series `json:"compartments"`
	Metrics      map[string]float64       `json:"metrics"`
	Solver       string                   `json:"solver"`
	Steps        int                      `json:"steps"`
	Rejected     int                      `json:"rejected"`
}

// Total sums every compartment at each sample.
func (o *Outcome) Total() []float64 {
	total := make([]float64, len(o.Times))
	for _, name := range o.Names {
		for k, v := range o.Compartments[name].Values {
			total[k] += v
		}
	}
	return total
}

// Solve integrates p over [0, t_max] and samples it on a uniform grid. A nil
// solver uses RK45 with its default tolerances.
func Solve(ctx context.Context, p Params, solver dynamo.Solver) (*Outcome, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if solver == nil {
		solver = integrators.NewRK45()
	}

	dyn, x0 := p.Model()
	tEval := dynamo.Linspace(0, p.TMax, p.samples())

	res, err := solver.Solve(ctx, dyn, x0, tEval)
	if err != nil {
		return nil, fmt.Errorf("solve %s with %s: %w", p.Kind, solver.Name(), err)
	}

	infected := 1
	if p.Kind == KindSEIR {
		infected = 2
	}
	removed := dyn.StateDim() - 1

	res.Observe(
		metrics.NewPeak("peak_infected", infected),
		metrics.NewPeakTime("peak_time", infected),
		metrics.NewFraction("final_size", removed, p.N),
		metrics.NewConservationDrift(dyn.(dynamo.Conserved)),
	)
	if p.Gamma > 0 {
		res.Metrics["basic_reproduction"] = p.BasicReproduction()
	}

	names := dyn.(dynamo.Labeled).Labels()
	out := &Outcome{
		Kind:         p.Kind,
		Times:        res.Times,
		Names:        names,
		Compartments: make(map[string]dynamo.Series, len(names)),
		Metrics:      res.Metrics,
		Solver:       solver.Name(),
		Steps:        res.StepsTaken,
		Rejected:     res.Rejected,
	}
	for i, name := range names {
		out.Compartments[name] = res.Component(i)
	}
	return out, nil
}

// Tunable lists the parameter names accepted by With.
var Tunable = []string{"n", "beta", "gamma", "sigma", "i0", "e0", "r0", "t_max"}

// With returns a copy of p with one named parameter replaced.
func (p Params) With(name string, value float64) (Params, error) {
	switch strings.ToLower(name) {
	case "n":
		p.N = value
	case "beta":
		p.Beta = value
	case "gamma":
		p.Gamma = value
	case "sigma":
		p.Sigma = value
	case "i0":
		p.I0 = value
	case "e0":
		p.E0 = value
	case "r0":
		p.R0 = value
	case "t_max", "tmax":
		p.TMax = value
	default:
		return p, dynamo.InvalidParam(name, value, "unknown parameter (want one of "+strings.Join(Tunable, ", ")+")")
	}
	return p, nil
}
