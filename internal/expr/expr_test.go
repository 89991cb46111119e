package expr

import (
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/san-kum/popdyn/internal/dynamo"
)

func TestParse_Evaluates(t *testing.T) {
	tests := []struct {
		src  string
		x, y float64
		want float64
	}{
		{"-y", 1, 2, -2},
		{"x", 3, 0, 3},
		{"1 + 2 * 3", 0, 0, 7},
		{"(1 + 2) * 3", 0, 0, 9},
		{"2 ^ 3 ^ 2", 0, 0, 512},
		{"2 ** 3", 0, 0, 8},
		{"-x^2", 3, 0, -9},
		{"2^-1", 0, 0, 0.5},
		{"x - y - 1", 5, 2, 2},
		{"x / y / 2", 8, 2, 2},
		{"sin(pi / 2)", 0, 0, 1},
		{"np.sin(x) + np.cos(y)", 0, 0, 1},
		{"exp(1) - e", 0, 0, 0},
		{"log(e^2)", 0, 0, 2},
		{"log10(1000)", 0, 0, 3},
		{"sqrt(abs(-16))", 0, 0, 4},
		{"x*(1 - x)", 0.5, 0, 0.25},
		{"1.5e2 + .5", 0, 0, 150.5},
		{"x - x*y", 2, 3, -4},
		{"np.pi", 0, 0, math.Pi},
		{"tanh(0) + cosh(0) + sinh(0) + atan(0) + asin(0) + acos(1) + tan(0)", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.src, err)
			}
			if got := p.At(tt.x, tt.y); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("At(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"__import__('os')", "not allowed"},
		{"os.system('ls')", "not allowed"},
		{"eval(x)", "not allowed"},
		{"z + 1", "not allowed"},
		{"x; y", "not allowed"},
		{"x[0]", "not allowed"},
		{"lambda: 1", "not allowed"},
		{"", "empty"},
		{"x +", "end of input"},
		{"(x + y", "expected"},
		{"x y", "unexpected"},
		{"2x", "unexpected"},
		{"sin", "must be called"},
		{"sin()", "one argument"},
		{"sin(x, y)", "one argument"},
		{strings.Repeat("(", MaxDepth+1) + "x" + strings.Repeat(")", MaxDepth+1), "nesting"},
		{strings.Repeat("-", MaxDepth+1) + "x", "nesting"},
		{strings.Repeat("x+", MaxLength) + "x", "longer"},
	}

	for _, tt := range tests {
		name := tt.src
		if len(name) > 20 {
			name = name[:20]
		}
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatalf("expected error for %q", tt.src)
			}
			if !errors.Is(err, dynamo.ErrExpression) {
				t.Errorf("error %v does not wrap ErrExpression", err)
			}
			var eerr *Error
			if !errors.As(err, &eerr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if !strings.Contains(eerr.Msg, tt.want) {
				t.Errorf("message %q does not contain %q", eerr.Msg, tt.want)
			}
		})
	}
}

func TestParse_LongInputKeepsRunes(t *testing.T) {
	// 31 ASCII bytes then a two-byte rune straddling the 32 byte cut
	src := strings.Repeat("x", 31) + "é" + strings.Repeat("y", MaxLength)
	_, err := Parse(src)
	var eerr *Error
	if !errors.As(err, &eerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !utf8.ValidString(eerr.Input) {
		t.Errorf("Input %q is not valid UTF-8", eerr.Input)
	}
	if eerr.Input != strings.Repeat("x", 31)+"..." {
		t.Errorf("Input = %q", eerr.Input)
	}
	if got := truncate("short", 32); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
}

func TestError_Position(t *testing.T) {
	_, err := Parse("x + __import__('os')")
	var eerr *Error
	if !errors.As(err, &eerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if eerr.Pos != 4 {
		t.Errorf("Pos = %d, want 4", eerr.Pos)
	}
	if !strings.Contains(err.Error(), "position 4") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestProgram_EvalVectorized(t *testing.T) {
	p := MustParse("x*x + y")
	xs := []float64{0, 1, 2, 3}
	ys := []float64{1, 1, 1, 1}

	got, err := p.Eval(map[string][]float64{"x": xs, "y": ys})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 5, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Eval[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if xs[2] != 2 {
		t.Error("Eval must not modify its inputs")
	}
}

func TestProgram_EvalBroadcastsConstants(t *testing.T) {
	got, err := MustParse("2 * pi").Eval(map[string][]float64{"x": make([]float64, 5)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 || got[4] != 2*math.Pi {
		t.Errorf("Eval = %v", got)
	}

	single, err := MustParse("1").Eval(nil)
	if err != nil || len(single) != 1 {
		t.Errorf("Eval(nil) = %v, %v", single, err)
	}
}

func TestProgram_EvalErrors(t *testing.T) {
	p := MustParse("x + y")
	if _, err := p.Eval(map[string][]float64{"x": {1}}); !errors.Is(err, dynamo.ErrExpression) {
		t.Errorf("expected unbound variable error, got %v", err)
	}
	if _, err := p.Eval(map[string][]float64{"x": {1, 2}, "y": {1}}); !errors.Is(err, dynamo.ErrExpression) {
		t.Errorf("expected length mismatch error, got %v", err)
	}
}

func TestProgram_Metadata(t *testing.T) {
	p := MustParse("np.sin(y) - x")
	if got := p.Vars(); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Vars = %v", got)
	}
	if p.Source() != "np.sin(y) - x" {
		t.Errorf("Source = %q", p.Source())
	}
	if p.String() != "(sin(y) - x)" {
		t.Errorf("String = %q", p.String())
	}
	if len(Functions()) != 14 {
		t.Errorf("Functions = %v", Functions())
	}
}

func TestProgram_NonFiniteIsReported(t *testing.T) {
	if v := MustParse("1 / x").At(0, 0); !math.IsInf(v, 1) {
		t.Errorf("1/0 = %v, want +Inf", v)
	}
	if v := MustParse("sqrt(x)").At(-1, 0); !math.IsNaN(v) {
		t.Errorf("sqrt(-1) = %v, want NaN", v)
	}
}
