// Package field samples a planar direction field defined by two formulas.
package field

import (
	"fmt"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/expr"
)

const (
	MinMesh = 2
	MaxMesh = 200

	// Epsilon is added to every magnitude before normalizing.
	Epsilon = 1e-9

	// segmentFill is the share of a grid cell each segment spans.
	segmentFill = 0.4
)

// Request is one field evaluation: dx/dt and dy/dt over
// [-RangeX, RangeX] x [-RangeY, RangeY] on a Mesh x Mesh grid.
type Request struct {
	DX     string  `json:"dx" yaml:"dx"`
	DY     string  `json:"dy" yaml:"dy"`
	RangeX float64 `json:"range_x" yaml:"range_x"`
	RangeY float64 `json:"range_y" yaml:"range_y"`
	Mesh   int     `json:"mesh" yaml:"mesh"`
}

func (r Request) Validate() error {
	switch {
	case !dynamo.IsFinite(r.RangeX) || r.RangeX <= 0:
		return dynamo.InvalidParam("range_x", r.RangeX, "half-width must be a positive finite number")
	case !dynamo.IsFinite(r.RangeY) || r.RangeY <= 0:
		return dynamo.InvalidParam("range_y", r.RangeY, "half-width must be a positive finite number")
	case r.Mesh < MinMesh || r.Mesh > MaxMesh:
		return dynamo.InvalidParam("mesh", float64(r.Mesh), fmt.Sprintf("grid resolution must be between %d and %d", MinMesh, MaxMesh))
	}
	return nil
}

// SegmentLength is the drawn length of every direction segment. It follows
// the x cell width only, also for non-square domains.
func (r Request) SegmentLength() float64 {
	return (r.RangeX * 2 / float64(r.Mesh)) * segmentFill
}

// Sample holds the evaluated grid in row-major order: index i*Mesh+j is
// row i (y) and column j (x).
type Sample struct {
	Mesh          int       `json:"mesh"`
	RangeX        float64   `json:"range_x"`
	RangeY        float64   `json:"range_y"`
	SegmentLength float64   `json:"segment_length"`
	X             []float64 `json:"x"`
	Y             []float64 `json:"y"`
	U             []float64 `json:"u"`
	V             []float64 `json:"v"`
	Magnitude     []float64 `json:"magnitude"`
}

func (s *Sample) Len() int { return len(s.X) }

// Segment returns the start and end of the i-th direction segment.
func (s *Sample) Segment(i int) (x0, y0, x1, y1 float64) {
	x0, y0 = s.X[i], s.Y[i]
	return x0, y0, x0 + s.U[i]*s.SegmentLength, y0 + s.V[i]*s.SegmentLength
}

// Grid builds the row-major coordinate arrays of an n x n mesh.
func Grid(rangeX, rangeY float64, n int) (xs, ys []float64) {
	xv := dynamo.Linspace(-rangeX, rangeX, n)
	yv := dynamo.Linspace(-rangeY, rangeY, n)
	xs = make([]float64, n*n)
	ys = make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			xs[i*n+j] = xv[j]
			ys[i*n+j] = yv[i]
		}
	}
	return xs, ys
}

// Compile parses both formulas, labelling errors with the equation they
// came from.
func Compile(dx, dy string) (*expr.Program, *expr.Program, error) {
	px, err := expr.Parse(dx)
	if err != nil {
		return nil, nil, fmt.Errorf("dx/dt: %w", err)
	}
	py, err := expr.Parse(dy)
	if err != nil {
		return nil, nil, fmt.Errorf("dy/dt: %w", err)
	}
	return px, py, nil
}

// Evaluate samples the field described by r.
func Evaluate(r Request) (*Sample, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	px, py, err := Compile(r.DX, r.DY)
	if err != nil {
		return nil, err
	}

	xs, ys := Grid(r.RangeX, r.RangeY, r.Mesh)
	vars := map[string][]float64{"x": xs, "y": ys}

	u, err := px.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("dx/dt: %w", err)
	}
	v, err := py.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("dy/dt: %w", err)
	}
	if err := checkFinite("dx/dt", px, u, xs, ys); err != nil {
		return nil, err
	}
	if err := checkFinite("dy/dt", py, v, xs, ys); err != nil {
		return nil, err
	}

	mag := make([]float64, len(u))
	for i := range u {
		mag[i] = math.Hypot(u[i], v[i])
		norm := mag[i] + Epsilon
		u[i] /= norm
		v[i] /= norm
	}

	return &Sample{
		Mesh:          r.Mesh,
		RangeX:        r.RangeX,
		RangeY:        r.RangeY,
		SegmentLength: r.SegmentLength(),
		X:             xs,
		Y:             ys,
		U:             u,
		V:             v,
		Magnitude:     mag,
	}, nil
}

func checkFinite(label string, p *expr.Program, values, xs, ys []float64) error {
	for i, v := range values {
		if !dynamo.IsFinite(v) {
			err := &expr.Error{
				Input: p.Source(),
				Pos:   -1,
				Msg:   fmt.Sprintf("non-finite value %v at (x=%.4g, y=%.4g)", v, xs[i], ys[i]),
			}
			return fmt.Errorf("%s: %w", label, err)
		}
	}
	return nil
}
