package dynamo

import (
	"context"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Sum adds every component; compartment totals are conserved by the
// epidemic systems.
func (s State) Sum() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Conserved is implemented by systems with a quantity that must stay
// constant along every trajectory.
type Conserved interface {
	Invariant(x State) float64
}

// Labeled names each state component, in order.
type Labeled interface {
	Labels() []string
}

type Integrator interface {
	Step(dyn System, x State, t, dt float64) State
}

// Solver integrates dyn from x0 at tEval[0] and returns the state at every
// point of tEval. tEval must be non-decreasing.
type Solver interface {
	Name() string
	Solve(ctx context.Context, dyn System, x0 State, tEval []float64) (*Result, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Result struct {
	States     []State
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Rejected   int
}

// Component extracts the i-th state component as a series.
func (r *Result) Component(i int) Series {
	s := Series{Times: r.Times, Values: make([]float64, len(r.States))}
	for k, x := range r.States {
		if i < len(x) {
			s.Values[k] = x[i]
		}
	}
	return s
}

// Observe feeds every sampled state into the metrics and stores their values.
func (r *Result) Observe(metrics ...Metric) {
	if r.Metrics == nil {
		r.Metrics = make(map[string]float64, len(metrics))
	}
	for _, m := range metrics {
		m.Reset()
		for k, x := range r.States {
			m.Observe(x, r.Times[k])
		}
		r.Metrics[m.Name()] = m.Value()
	}
}
