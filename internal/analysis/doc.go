// Package analysis provides tools built on top of single model runs.
//
//   - [Trajectory]: a phase-plane path through a direction field
//   - [Portrait]: trajectories from many seeds, integrated in parallel
//   - [Sweep]: epidemic outcome as one rate is varied
//   - [GridSearch]: the parameter combination minimizing an outcome metric
//   - [LyapunovExponent] and [DominantPeriod]: how a single orbit behaves
//
// # Sweeps
//
// A sweep over β shows where an outbreak takes off:
//
//	points, err := analysis.Sweep(ctx, base, "beta", 0.05, 0.5, 20, nil)
//	for _, p := range points {
//	    fmt.Println(p.Value, p.PeakInfected)
//	}
package analysis
