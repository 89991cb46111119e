// Package growth evaluates closed-form population models.
//
// Two models are supported:
//
//	exponential: P(t) = P0 · e^(r·t)
//	logistic:    P(t) = K / (1 + ((K − P0)/P0) · e^(−r·t))
//
// Both are pure functions of [Params]; no integration is involved.
package growth

import (
	"fmt"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

type Kind string

const (
	Exponential Kind = "exponential"
	Logistic    Kind = "logistic"
)

const (
	DefaultSamples = 100
	MaxSamples     = 100000
)

// ParseKind maps a model name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case Exponential, Logistic:
		return Kind(name), nil
	}
	return "", fmt.Errorf("unknown growth model %q (want exponential or logistic): %w", name, dynamo.ErrInvalidParameter)
}

type Params struct {
	P0      float64 `json:"p0" yaml:"p0"`
	R       float64 `json:"r" yaml:"r"`
	K       float64 `json:"k,omitempty" yaml:"k"`
	TMax    float64 `json:"t_max" yaml:"t_max"`
	Samples int     `json:"samples,omitempty" yaml:"samples"`
}

func (p Params) samples() int {
	if p.Samples == 0 {
		return DefaultSamples
	}
	return p.Samples
}

// Validate checks p against the domain of kind.
func (p Params) Validate(kind Kind) error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"p0", p.P0}, {"r", p.R}, {"t_max", p.TMax}} {
		if !dynamo.IsFinite(f.v) {
			return dynamo.InvalidParam(f.name, f.v, "must be a finite number")
		}
	}

	switch kind {
	case Exponential:
	case Logistic:
		if !dynamo.IsFinite(p.K) || p.K <= 0 {
			return dynamo.InvalidParam("k", p.K, "carrying capacity must be positive")
		}
	default:
		return fmt.Errorf("unknown growth model %q: %w", kind, dynamo.ErrInvalidParameter)
	}

	if p.P0 == 0 && kind == Logistic {
		return dynamo.InvalidParam("p0", p.P0, "logistic model divides by the initial population")
	}
	if p.P0 <= 0 {
		return dynamo.InvalidParam("p0", p.P0, "initial population must be positive")
	}
	if p.TMax < 0 {
		return dynamo.InvalidParam("t_max", p.TMax, "horizon must not be negative")
	}
	if n := p.samples(); n < 2 || n > MaxSamples {
		return dynamo.InvalidParam("samples", float64(n), fmt.Sprintf("sample count must be between 2 and %d", MaxSamples))
	}
	if kind == Logistic {
		if t, ok := p.blowUpTime(); ok && p.TMax >= t {
			return dynamo.InvalidParam("t_max", p.TMax, fmt.Sprintf("logistic decay from above K diverges at t=%.4g", t))
		}
	}
	return nil
}

// blowUpTime is where the logistic denominator reaches zero. It only exists
// for a decaying rate starting above the carrying capacity.
func (p Params) blowUpTime() (float64, bool) {
	if p.R >= 0 || p.P0 <= p.K {
		return 0, false
	}
	return math.Log(p.P0/(p.P0-p.K)) / -p.R, true
}

// Value evaluates the model at a single time. Value(kind, p, 0) is exactly P0.
func Value(kind Kind, p Params, t float64) float64 {
	if t == 0 {
		return p.P0
	}
	switch kind {
	case Logistic:
		if p.K == p.P0 {
			return p.K
		}
		return p.K / (1 + ((p.K-p.P0)/p.P0)*math.Exp(-p.R*t))
	default:
		return p.P0 * math.Exp(p.R*t)
	}
}

// Evaluate samples the model at Samples evenly spaced times in [0, TMax].
func Evaluate(kind Kind, p Params) (dynamo.Series, error) {
	if err := p.Validate(kind); err != nil {
		return dynamo.Series{}, err
	}

	times := dynamo.Linspace(0, p.TMax, p.samples())
	s := dynamo.Series{Times: times, Values: make([]float64, len(times))}
	for i, t := range times {
		s.Values[i] = Value(kind, p, t)
	}

	if !s.IsFinite() {
		return dynamo.Series{}, dynamo.InvalidParam("r", p.R, "population overflows within the horizon")
	}
	return s, nil
}
