package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/epidemic"
)

// SweepPoint is the outcome of one run in a parameter sweep.
type SweepPoint struct {
	Value             float64 `json:"value"`
	PeakInfected      float64 `json:"peak_infected"`
	PeakTime          float64 `json:"peak_time"`
	FinalSize         float64 `json:"final_size"`
	BasicReproduction float64 `json:"basic_reproduction"`
}

// Sweep solves base once for each of steps evenly spaced values of param in
// [min, max]. Runs are independent and evaluated in parallel, each worker
// with its own solver from newSolver (nil means default RK45). The first
// failing run aborts the sweep.
func Sweep(
	ctx context.Context,
	base epidemic.Params,
	param string,
	min, max float64,
	steps int,
	newSolver func() dynamo.Solver,
) ([]SweepPoint, error) {
	if steps < 2 {
		return nil, dynamo.InvalidParam("steps", float64(steps), "a sweep needs at least 2 steps")
	}
	if _, err := base.With(param, min); err != nil {
		return nil, err
	}

	values := dynamo.Linspace(min, max, steps)
	points := make([]SweepPoint, steps)
	errs := make([]error, steps)

	dynamo.ParallelFor(steps, 2, func(start, end int) {
		var solver dynamo.Solver
		if newSolver != nil {
			solver = newSolver()
		}
		for i := start; i < end; i++ {
			p, _ := base.With(param, values[i])
			out, err := epidemic.Solve(ctx, p, solver)
			if err != nil {
				errs[i] = fmt.Errorf("%s=%g: %w", param, values[i], err)
				continue
			}
			points[i] = SweepPoint{
				Value:             values[i],
				PeakInfected:      out.Metrics["peak_infected"],
				PeakTime:          out.Metrics["peak_time"],
				FinalSize:         out.Metrics["final_size"],
				BasicReproduction: p.BasicReproduction(),
			}
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return points, nil
}

// GridSearch evaluates every combination of the given parameter values and
// returns the combination with the smallest value of metric. Failing
// combinations are skipped; an error is returned only if none succeeds.
func GridSearch(
	ctx context.Context,
	base epidemic.Params,
	grid map[string][]float64,
	metric string,
	solver dynamo.Solver,
) (map[string]float64, float64, error) {
	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)

	best := math.Inf(1)
	var bestParams map[string]float64
	var lastErr error

	var search func(depth int, p epidemic.Params, current map[string]float64) error
	search = func(depth int, p epidemic.Params, current map[string]float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if depth == len(names) {
			out, err := epidemic.Solve(ctx, p, solver)
			if err != nil {
				lastErr = err
				return nil
			}
			val, ok := out.Metrics[metric]
			if !ok {
				return fmt.Errorf("unknown metric %q", metric)
			}
			if val < best {
				best = val
				bestParams = make(map[string]float64, len(current))
				for k, v := range current {
					bestParams[k] = v
				}
			}
			return nil
		}

		name := names[depth]
		for _, v := range grid[name] {
			next, err := p.With(name, v)
			if err != nil {
				return err
			}
			current[name] = v
			if err := search(depth+1, next, current); err != nil {
				return err
			}
		}
		return nil
	}

	if err := search(0, base, make(map[string]float64, len(names))); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("empty search grid: %w", dynamo.ErrInvalidParameter)
		}
		return nil, 0, lastErr
	}
	return bestParams, best, nil
}
