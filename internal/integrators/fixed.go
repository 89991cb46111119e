package integrators

import (
	"context"
	"fmt"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Fixed turns a fixed-step Integrator into a Solver by taking Substeps equal
// steps between consecutive evaluation times.
type Fixed struct {
	name     string
	stepper  dynamo.Integrator
	Substeps int
}

func NewFixed(name string, stepper dynamo.Integrator, substeps int) *Fixed {
	if substeps < 1 {
		substeps = 1
	}
	return &Fixed{name: name, stepper: stepper, Substeps: substeps}
}

func (f *Fixed) Name() string { return f.name }

func (f *Fixed) Solve(ctx context.Context, dyn dynamo.System, x0 dynamo.State, tEval []float64) (*dynamo.Result, error) {
	if err := checkInputs(dyn, x0, tEval); err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		States:  make([]dynamo.State, 0, len(tEval)),
		Times:   append([]float64(nil), tEval...),
		Metrics: make(map[string]float64),
	}

	x := x0.Clone()
	result.States = append(result.States, x.Clone())

	for k := 1; k < len(tEval); k++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t := tEval[k-1]
		dt := (tEval[k] - t) / float64(f.Substeps)
		for s := 0; s < f.Substeps; s++ {
			x = f.stepper.Step(dyn, x, t, dt)
			t += dt
			result.StepsTaken++
		}

		if !x.IsValid() {
			return nil, &dynamo.IntegrationError{Step: result.StepsTaken, Time: tEval[k], Wrapped: dynamo.ErrInvalidState}
		}
		result.States = append(result.States, x.Clone())
	}

	return result, nil
}

func checkInputs(dyn dynamo.System, x0 dynamo.State, tEval []float64) error {
	if len(tEval) == 0 {
		return dynamo.InvalidParam("samples", 0, "at least one evaluation time is required")
	}
	if len(x0) != dyn.StateDim() {
		return fmt.Errorf("state has %d components, system expects %d: %w", len(x0), dyn.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if !x0.IsValid() {
		return dynamo.ErrInvalidState
	}
	for i := 1; i < len(tEval); i++ {
		if tEval[i] < tEval[i-1] {
			return dynamo.InvalidParam("t_eval", tEval[i], "evaluation times must be non-decreasing")
		}
	}
	return nil
}
