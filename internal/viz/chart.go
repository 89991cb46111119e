package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/popdyn/internal/analysis"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
)

var lineColors = map[string]asciigraph.AnsiColor{
	"S": asciigraph.Blue,
	"E": asciigraph.Goldenrod,
	"I": asciigraph.Red,
	"R": asciigraph.Green,
	"P": asciigraph.DarkCyan,
}

// Chart renders any view at roughly width x height characters.
func Chart(v *experiment.View, width, height int) string {
	switch {
	case v.Field != nil:
		return FieldChart(v.Field, nil, width, height)
	case len(v.Lines) > 0:
		return LineChart(v, width, height)
	case v.Model == "field":
		return emptyField(v, width, height)
	}
	return EmptyChart(v, width, height)
}

// LineChart plots every line of v on shared axes.
func LineChart(v *experiment.View, width, height int) string {
	data := make([][]float64, 0, len(v.Lines))
	colors := make([]asciigraph.AnsiColor, 0, len(v.Lines))
	legends := make([]string, 0, len(v.Lines))
	for _, l := range v.Lines {
		data = append(data, l.Values)
		c, ok := lineColors[l.Name]
		if !ok {
			c = asciigraph.Default
		}
		colors = append(colors, c)
		legends = append(legends, l.Name)
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(v.Axes.YMin),
		asciigraph.UpperBound(v.Axes.YMax),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption(caption(v)),
	)
}

// EmptyChart draws the axes of an idle view with a flat baseline.
func EmptyChart(v *experiment.View, width, height int) string {
	return asciigraph.Plot([]float64{v.Axes.YMin, v.Axes.YMin},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(v.Axes.YMin),
		asciigraph.UpperBound(v.Axes.YMax),
		asciigraph.Caption(caption(v)),
	)
}

func emptyField(v *experiment.View, width, height int) string {
	c := NewCanvas(width, height)
	NewViewport(c, v.Axes.XMin, v.Axes.XMax, v.Axes.YMin, v.Axes.YMax).Axes()
	return c.String() + caption(v) + "\n"
}

// FieldChart draws one segment per grid point plus optional trajectories.
func FieldChart(s *field.Sample, paths [][]analysis.Point, width, height int) string {
	c := NewCanvas(width, height)
	vp := NewViewport(c, -s.RangeX, s.RangeX, -s.RangeY, s.RangeY)
	vp.Axes()

	for i := 0; i < s.Len(); i++ {
		x0, y0, x1, y1 := s.Segment(i)
		vp.Line(x0, y0, x1, y1)
		vp.Dot(x1, y1)
	}
	for _, path := range paths {
		for k := 1; k < len(path); k++ {
			vp.Line(path[k-1].X, path[k-1].Y, path[k].X, path[k].Y)
		}
	}

	return c.String() + Subtle.Render(fmt.Sprintf("x ∈ [%g, %g]  y ∈ [%g, %g]  mesh %d", -s.RangeX, s.RangeX, -s.RangeY, s.RangeY, s.Mesh)) + "\n"
}

func caption(v *experiment.View) string {
	if v.Failed() {
		return fmt.Sprintf("%s: %s", v.Kind, v.Message)
	}
	if v.State == experiment.Idle {
		return v.Model + " (not computed)"
	}
	return fmt.Sprintf("%s  %s vs %s", v.Model, v.Axes.YLabel, v.Axes.XLabel)
}

// Metrics renders a view's metrics as aligned label/value pairs.
func Metrics(v *experiment.View) string {
	if len(v.Metrics) == 0 {
		return ""
	}
	names := make([]string, 0, len(v.Metrics))
	width := 0
	for name := range v.Metrics {
		names = append(names, name)
		width = max(width, len(name))
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(MetricLabel.Render(fmt.Sprintf("%-*s", width, name)))
		b.WriteString("  ")
		b.WriteString(MetricValue.Render(FormatValue(v.Metrics[name])))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatValue prints v compactly: plain decimals for moderate magnitudes,
// exponent form otherwise.
func FormatValue(v float64) string {
	a := math.Abs(v)
	if a != 0 && (a < 1e-3 || a >= 1e6) {
		return fmt.Sprintf("%.3e", v)
	}
	return fmt.Sprintf("%.4f", v)
}

// SweepChart plots one sweep metric against the swept value.
func SweepChart(points []analysis.SweepPoint, metric string, width, height int) string {
	ys := make([]float64, len(points))
	for i, p := range points {
		switch metric {
		case "peak_time":
			ys[i] = p.PeakTime
		case "final_size":
			ys[i] = p.FinalSize
		default:
			ys[i] = p.PeakInfected
		}
	}
	if len(ys) == 0 {
		return ""
	}
	return asciigraph.Plot(ys,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s over [%g, %g]", metric, points[0].Value, points[len(points)-1].Value)),
	)
}
