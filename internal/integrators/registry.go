package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Options tune the solver built by NewSolver. Zero fields keep defaults.
type Options struct {
	AbsTol   float64
	RelTol   float64
	MaxSteps int
	Substeps int
}

var solvers = map[string]func(Options) dynamo.Solver{
	"rk45": func(o Options) dynamo.Solver {
		r := NewRK45()
		if o.AbsTol > 0 {
			r.AbsTol = o.AbsTol
		}
		if o.RelTol > 0 {
			r.RelTol = o.RelTol
		}
		if o.MaxSteps > 0 {
			r.MaxSteps = o.MaxSteps
		}
		return r
	},
	"rk4": func(o Options) dynamo.Solver {
		return NewFixed("rk4", NewRK4(), o.Substeps)
	},
	"euler": func(o Options) dynamo.Solver {
		return NewFixed("euler", NewEuler(), o.Substeps)
	},
}

// NewSolver builds a fresh solver by method name.
func NewSolver(method string, opts Options) (dynamo.Solver, error) {
	fn, ok := solvers[method]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", method)
	}
	return fn(opts), nil
}

func Methods() []string {
	names := make([]string, 0, len(solvers))
	for name := range solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
