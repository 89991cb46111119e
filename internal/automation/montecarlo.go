package automation

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/epidemic"
)

// MonteCarloConfig perturbs beta and gamma of Base by up to ±Spread
// (relative) on each trial. A zero Seed draws one from the clock.
type MonteCarloConfig struct {
	Base   epidemic.Params
	Spread float64
	Trials int
	Seed   int64
}

type MonteCarloResult struct {
	Trial        int     `json:"trial"`
	Beta         float64 `json:"beta"`
	Gamma        float64 `json:"gamma"`
	PeakInfected float64 `json:"peak_infected"`
	PeakTime     float64 `json:"peak_time"`
	FinalSize    float64 `json:"final_size"`
}

// Summary describes the distribution of one metric across trials.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// RunMonteCarlo solves every trial in parallel. Each worker gets its own
// solver from newSolver (nil means RK45). Parameters are drawn up front so a
// seed reproduces the same trials regardless of scheduling.
func RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig, newSolver func() dynamo.Solver) ([]MonteCarloResult, error) {
	if cfg.Trials < 1 {
		return nil, dynamo.InvalidParam("trials", float64(cfg.Trials), "need at least one trial")
	}
	if cfg.Spread < 0 || cfg.Spread >= 1 {
		return nil, dynamo.InvalidParam("spread", cfg.Spread, "relative spread must be in [0, 1)")
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	results := make([]MonteCarloResult, cfg.Trials)
	for i := range results {
		results[i] = MonteCarloResult{
			Trial: i,
			Beta:  cfg.Base.Beta * (1 + (rng.Float64()*2-1)*cfg.Spread),
			Gamma: cfg.Base.Gamma * (1 + (rng.Float64()*2-1)*cfg.Spread),
		}
	}

	errs := make([]error, cfg.Trials)
	dynamo.ParallelFor(cfg.Trials, 2, func(start, end int) {
		var solver dynamo.Solver
		if newSolver != nil {
			solver = newSolver()
		}
		for i := start; i < end; i++ {
			p := cfg.Base
			p.Beta, p.Gamma = results[i].Beta, results[i].Gamma
			out, err := epidemic.Solve(ctx, p, solver)
			if err != nil {
				errs[i] = err
				continue
			}
			results[i].PeakInfected = out.Metrics["peak_infected"]
			results[i].PeakTime = out.Metrics["peak_time"]
			results[i].FinalSize = out.Metrics["final_size"]
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// MonteCarloStats summarizes peak_infected, peak_time and final_size.
func MonteCarloStats(results []MonteCarloResult) map[string]Summary {
	pick := map[string]func(MonteCarloResult) float64{
		"peak_infected": func(r MonteCarloResult) float64 { return r.PeakInfected },
		"peak_time":     func(r MonteCarloResult) float64 { return r.PeakTime },
		"final_size":    func(r MonteCarloResult) float64 { return r.FinalSize },
	}
	out := make(map[string]Summary, len(pick))
	for name, f := range pick {
		values := make([]float64, len(results))
		for i, r := range results {
			values[i] = f(r)
		}
		out[name] = summarize(values)
	}
	return out
}

func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	variance := 0.0
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	return Summary{
		Mean:   mean,
		StdDev: math.Sqrt(variance / float64(len(sorted))),
		Min:    sorted[0],
		Median: median,
		Max:    sorted[len(sorted)-1],
	}
}
