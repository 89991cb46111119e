package expr

import (
	"math"
	"sort"
	"strconv"
)

// Node is one vertex of a parsed formula.
type Node interface {
	String() string
	eval(env *env) []float64
}

// Num is a literal or a named constant.
type Num struct{ Value float64 }

// Var is one of the plane coordinates.
type Var struct{ Name string }

// Unary is a sign applied to an operand.
type Unary struct {
	Op byte
	X  Node
}

// Binary is an arithmetic operator; '^' is exponentiation.
type Binary struct {
	Op   byte
	L, R Node
}

// Call applies an allow-listed function.
type Call struct {
	Fn  string
	Arg Node
}

var functions = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"exp":   math.Exp,
	"log":   math.Log,
	"log10": math.Log10,
	"sqrt":  math.Sqrt,
	"abs":   math.Abs,
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

var variables = map[string]bool{"x": true, "y": true}

// Functions lists the callable function names.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type env struct {
	n    int
	vars map[string][]float64
}

func (e *env) fill(v float64) []float64 {
	out := make([]float64, e.n)
	for i := range out {
		out[i] = v
	}
	return out
}

func (n *Num) String() string        { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n *Num) eval(e *env) []float64 { return e.fill(n.Value) }

func (v *Var) String() string { return v.Name }
func (v *Var) eval(e *env) []float64 {
	out := make([]float64, e.n)
	copy(out, e.vars[v.Name])
	return out
}

func (u *Unary) String() string { return "(" + string(u.Op) + u.X.String() + ")" }
func (u *Unary) eval(e *env) []float64 {
	out := u.X.eval(e)
	if u.Op == '-' {
		for i := range out {
			out[i] = -out[i]
		}
	}
	return out
}

func (b *Binary) String() string {
	return "(" + b.L.String() + " " + string(b.Op) + " " + b.R.String() + ")"
}

func (b *Binary) eval(e *env) []float64 {
	l, r := b.L.eval(e), b.R.eval(e)
	switch b.Op {
	case '+':
		for i := range l {
			l[i] += r[i]
		}
	case '-':
		for i := range l {
			l[i] -= r[i]
		}
	case '*':
		for i := range l {
			l[i] *= r[i]
		}
	case '/':
		for i := range l {
			l[i] /= r[i]
		}
	case '^':
		for i := range l {
			l[i] = math.Pow(l[i], r[i])
		}
	}
	return l
}

func (c *Call) String() string { return c.Fn + "(" + c.Arg.String() + ")" }
func (c *Call) eval(e *env) []float64 {
	fn := functions[c.Fn]
	out := c.Arg.eval(e)
	for i := range out {
		out[i] = fn(out[i])
	}
	return out
}
