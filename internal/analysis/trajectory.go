package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// MaxTrajectorySteps caps duration/dt for one path.
const MaxTrajectorySteps = 1000000

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the rectangle a trajectory may move in.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Symmetric returns the box [-rx, rx] x [-ry, ry].
func Symmetric(rx, ry float64) Bounds {
	return Bounds{MinX: -rx, MaxX: rx, MinY: -ry, MaxY: ry}
}

func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Trajectory integrates a planar system from x0 with a fixed step and
// records the path. It stops at duration, when the path leaves bound or when
// the state stops being finite. The seed is the first point.
func Trajectory(
	ctx context.Context,
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	bound Bounds,
) ([]Point, error) {
	if dyn.StateDim() != 2 || len(x0) != 2 {
		return nil, dynamo.ErrDimensionMismatch
	}
	if dt <= 0 || duration < 0 {
		return nil, dynamo.InvalidParam("dt", dt, "step and duration must be positive")
	}

	start := Point{X: x0[0], Y: x0[1]}
	if !bound.Contains(start) {
		return nil, nil
	}

	n := math.Ceil(duration / dt)
	if !dynamo.IsFinite(n) || n > MaxTrajectorySteps {
		return nil, dynamo.InvalidParam("dt", dt, fmt.Sprintf("duration/dt exceeds %d steps", MaxTrajectorySteps))
	}
	steps := int(n)
	path := make([]Point, 0, steps+1)
	path = append(path, start)

	x := x0.Clone()
	t := 0.0
	for k := 0; k < steps; k++ {
		if k%256 == 0 {
			if err := ctx.Err(); err != nil {
				return path, err
			}
		}

		x = integ.Step(dyn, x, t, dt)
		t += dt
		if !x.IsValid() {
			break
		}

		p := Point{X: x[0], Y: x[1]}
		if !bound.Contains(p) {
			break
		}
		path = append(path, p)
	}

	return path, nil
}

// Portrait integrates one trajectory per seed, in parallel. Steppers may keep
// scratch state, so each worker gets its own from newInteg. Seeds outside
// bound produce empty paths.
func Portrait(
	ctx context.Context,
	dyn dynamo.System,
	newInteg func() dynamo.Integrator,
	seeds []Point,
	dt, duration float64,
	bound Bounds,
) ([][]Point, error) {
	paths := make([][]Point, len(seeds))
	errs := make([]error, len(seeds))

	dynamo.ParallelFor(len(seeds), 4, func(start, end int) {
		integ := newInteg()
		for i := start; i < end; i++ {
			x0 := dynamo.State{seeds[i].X, seeds[i].Y}
			paths[i], errs[i] = Trajectory(ctx, dyn, integ, x0, dt, duration, bound)
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// GridSeeds spreads n x n seeds evenly inside bound, away from its edges.
func GridSeeds(bound Bounds, n int) []Point {
	if n <= 0 {
		return nil
	}
	seeds := make([]Point, 0, n*n)
	dx := (bound.MaxX - bound.MinX) / float64(n)
	dy := (bound.MaxY - bound.MinY) / float64(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			seeds = append(seeds, Point{
				X: bound.MinX + (float64(j)+0.5)*dx,
				Y: bound.MinY + (float64(i)+0.5)*dy,
			})
		}
	}
	return seeds
}
