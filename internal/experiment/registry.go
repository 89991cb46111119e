package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/growth"
	"github.com/san-kum/popdyn/internal/integrators"
)

type runFunc func(ctx context.Context, req Request) (*View, error)

// Registry maps model names to the computations behind them.
type Registry struct {
	models    map[string]runFunc
	newSolver func() (dynamo.Solver, error)
}

// NewRegistry wires every model. newSolver builds the ODE solver for each
// compartmental run; nil uses RK45 with default tolerances.
func NewRegistry(newSolver func() (dynamo.Solver, error)) *Registry {
	if newSolver == nil {
		newSolver = func() (dynamo.Solver, error) { return integrators.NewRK45(), nil }
	}
	r := &Registry{
		models:    make(map[string]runFunc),
		newSolver: newSolver,
	}

	r.models["exponential"] = func(_ context.Context, req Request) (*View, error) {
		return runGrowth(growth.Exponential, req)
	}
	r.models["logistic"] = func(_ context.Context, req Request) (*View, error) {
		return runGrowth(growth.Logistic, req)
	}
	r.models["sir"] = func(ctx context.Context, req Request) (*View, error) {
		return r.runEpidemic(ctx, epidemic.KindSIR, req)
	}
	r.models["seir"] = func(ctx context.Context, req Request) (*View, error) {
		return r.runEpidemic(ctx, epidemic.KindSEIR, req)
	}
	r.models["field"] = func(_ context.Context, req Request) (*View, error) {
		return runField(req)
	}

	return r
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run computes req and returns the computed view, or the error as is.
func (r *Registry) Run(ctx context.Context, req Request) (*View, error) {
	fn, ok := r.models[req.Model]
	if !ok {
		return nil, fmt.Errorf("unknown model %q: %w", req.Model, dynamo.ErrInvalidParameter)
	}
	return fn(ctx, req)
}

// Execute is Run with every failure, panics included, turned into the idle
// placeholder carrying a message. It always returns a renderable view.
func (r *Registry) Execute(ctx context.Context, req Request) (view *View) {
	defer func() {
		if rec := recover(); rec != nil {
			view = Placeholder(req)
			view.Kind = KindInternal
			view.Message = fmt.Sprintf("internal error: %v", rec)
		}
	}()

	view, err := r.Run(ctx, req)
	if err != nil {
		view = Placeholder(req)
		view.Kind = Classify(err)
		view.Message = err.Error()
	}
	return view
}

func missing(section string) error {
	return fmt.Errorf("request has no %s parameters: %w", section, dynamo.ErrInvalidParameter)
}

func runGrowth(kind growth.Kind, req Request) (*View, error) {
	if req.Growth == nil {
		return nil, missing("growth")
	}
	p := *req.Growth

	series, err := growth.Evaluate(kind, p)
	if err != nil {
		return nil, err
	}
	summary, err := growth.Summarize(kind, p)
	if err != nil {
		return nil, err
	}

	v := Placeholder(req)
	v.State = Computed
	v.Lines = []Line{{Name: "P", Series: series}}
	_, hi := series.Bounds()
	v.Axes.YMax = positiveOr(hi, v.Axes.YMax)
	v.Metrics = map[string]float64{"final": summary.Final}
	if summary.DoublingTime > 0 {
		v.Metrics["doubling_time"] = summary.DoublingTime
	}
	if summary.HalfLife > 0 {
		v.Metrics["half_life"] = summary.HalfLife
	}
	if summary.HasInflection {
		v.Metrics["inflection_time"] = summary.InflectionTime
		v.Metrics["inflection_value"] = summary.InflectionValue
	}
	return v, nil
}

func (r *Registry) runEpidemic(ctx context.Context, kind epidemic.Kind, req Request) (*View, error) {
	if req.Epidemic == nil {
		return nil, missing("epidemic")
	}
	p := *req.Epidemic
	p.Kind = kind

	solver, err := r.newSolver()
	if err != nil {
		return nil, err
	}
	out, err := epidemic.Solve(ctx, p, solver)
	if err != nil {
		return nil, err
	}

	v := Placeholder(req)
	v.State = Computed
	v.Metrics = out.Metrics
	for _, name := range out.Names {
		v.Lines = append(v.Lines, Line{Name: name, Series: out.Compartments[name]})
	}
	return v, nil
}

func runField(req Request) (*View, error) {
	if req.Field == nil {
		return nil, missing("field")
	}
	sample, err := field.Evaluate(*req.Field)
	if err != nil {
		return nil, err
	}

	v := Placeholder(req)
	v.State = Computed
	v.Field = sample
	return v, nil
}
