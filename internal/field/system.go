package field

import (
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/expr"
)

// System treats a pair of formulas as the autonomous ODE
// dx/dt = DX(x, y), dy/dt = DY(x, y).
type System struct {
	DX *expr.Program
	DY *expr.Program
}

func NewSystem(dx, dy *expr.Program) *System {
	return &System{DX: dx, DY: dy}
}

// Parse compiles both formulas into a System.
func Parse(dx, dy string) (*System, error) {
	px, py, err := Compile(dx, dy)
	if err != nil {
		return nil, err
	}
	return NewSystem(px, py), nil
}

func (s *System) StateDim() int    { return 2 }
func (s *System) Labels() []string { return []string{"x", "y"} }

func (s *System) Derive(x dynamo.State, _ float64) dynamo.State {
	return dynamo.State{s.DX.At(x[0], x[1]), s.DY.At(x[0], x[1])}
}
