package viz

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/popdyn/internal/analysis"
	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
)

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	if c.Lit() != 0 {
		t.Fatalf("new canvas has %d lit pixels", c.Lit())
	}
	c.DrawLine(0, 0, 19, 0)
	if c.Lit() != 20 {
		t.Errorf("horizontal line lit %d pixels, want 20", c.Lit())
	}
	c.Set(-1, 3)
	c.Set(100, 100)
	if c.Lit() != 20 {
		t.Error("out of range pixels must be ignored")
	}
	c.Clear()
	if c.Lit() != 0 {
		t.Error("Clear left pixels lit")
	}
}

func TestViewport_Pixel(t *testing.T) {
	c := NewCanvas(10, 5)
	vp := NewViewport(c, -1, 1, -1, 1)

	if x, y := vp.Pixel(-1, 1); x != 0 || y != 0 {
		t.Errorf("top-left = (%d,%d), want (0,0)", x, y)
	}
	if x, y := vp.Pixel(1, -1); x != 19 || y != 19 {
		t.Errorf("bottom-right = (%d,%d), want (19,19)", x, y)
	}

	vp.Line(0, 0, math.NaN(), 1)
	if c.Lit() != 0 {
		t.Error("non-finite line should be skipped")
	}
}

func TestFieldChart(t *testing.T) {
	s, err := field.Evaluate(field.Request{DX: "-y", DY: "x", RangeX: 3, RangeY: 3, Mesh: 10})
	if err != nil {
		t.Fatal(err)
	}
	path := [][]analysis.Point{{{X: 1, Y: 0}, {X: 0, Y: 1}}}
	out := FieldChart(s, path, 40, 20)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 21 {
		t.Fatalf("expected 20 canvas rows plus a caption, got %d", len(lines))
	}
	if !strings.Contains(out, "mesh 10") {
		t.Error("caption should mention the mesh")
	}
}

func TestChart_Computed(t *testing.T) {
	reg := experiment.NewRegistry(nil)
	v := reg.Execute(context.Background(), experiment.Request{
		Model:    "sir",
		Epidemic: &epidemic.Params{N: 1000, Beta: 0.3, Gamma: 0.1, I0: 1, TMax: 160},
	})
	if v.Failed() {
		t.Fatal(v.Message)
	}

	out := Chart(v, 60, 12)
	for _, name := range []string{"S", "I", "R"} {
		if !strings.Contains(out, name) {
			t.Errorf("legend missing %s", name)
		}
	}
	if !strings.Contains(Metrics(v), "peak_infected") {
		t.Error("metrics block missing peak_infected")
	}
}

func TestChart_FailedShowsMessage(t *testing.T) {
	reg := experiment.NewRegistry(nil)
	v := reg.Execute(context.Background(), experiment.Request{
		Model:    "sir",
		Epidemic: &epidemic.Params{N: -5, Beta: 0.3, Gamma: 0.1, TMax: 10},
	})
	if !v.Failed() {
		t.Fatal("expected failure")
	}
	out := Chart(v, 40, 8)
	if !strings.Contains(out, string(experiment.KindInvalidParameter)) {
		t.Errorf("chart caption should carry the failure kind:\n%s", out)
	}
	if Metrics(v) != "" {
		t.Error("failed view should have no metrics")
	}
}

func TestChart_IdleField(t *testing.T) {
	v := experiment.Placeholder(experiment.Request{Model: "field"})
	out := Chart(v, 20, 10)
	if !strings.Contains(out, "not computed") {
		t.Errorf("idle field should say it is not computed:\n%s", out)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0000"},
		{3.14159, "3.1416"},
		{0.0001, "1.000e-04"},
		{2.5e7, "2.500e+07"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 5); got != "─────" {
		t.Errorf("empty sparkline = %q", got)
	}
	out := SparklineChart([]float64{1, 2, 3, 4}, 4)
	if !strings.Contains(out, "█") || !strings.Contains(out, "▁") {
		t.Errorf("sparkline should span low to high: %q", out)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != "cyberpunk" {
		t.Error("unknown theme should fall back to cyberpunk")
	}
	th := Themes[0]
	for range Themes {
		th = NextTheme(th)
	}
	if th.Name != Themes[0].Name {
		t.Errorf("cycling through all themes should wrap, got %s", th.Name)
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("ThemeNames length mismatch")
	}
}

func TestParseHex(t *testing.T) {
	if r, g, b := parseHex("#ff8000"); r != 255 || g != 128 || b != 0 {
		t.Errorf("parseHex = %d,%d,%d", r, g, b)
	}
	if r, _, _ := parseHex("bogus"); r != 255 {
		t.Error("invalid hex should fall back to white")
	}
}
