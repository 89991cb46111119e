package export

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/popdyn/internal/experiment"
)

// WritePNG renders the lines of v as a PNG chart. Field views are not
// supported; use [WriteSVG] for those.
func WritePNG(w io.Writer, v *experiment.View, width, height int) error {
	if v.Field != nil {
		return fmt.Errorf("png export supports series views only, use svg for %q", v.Model)
	}
	if len(v.Lines) == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, v.Model)
	}

	series := make([]chart.Series, 0, len(v.Lines))
	for _, l := range v.Lines {
		hex, ok := lineStroke[l.Name]
		if !ok {
			hex = "#000000"
		}
		series = append(series, chart.ContinuousSeries{
			Name:    l.Name,
			XValues: l.Times,
			YValues: l.Values,
			Style:   chart.Style{StrokeColor: drawing.ColorFromHex(hex[1:]), StrokeWidth: 2.0},
		})
	}

	xr := nonEmptyRange(v.Axes.XMin, v.Axes.XMax)
	yr := nonEmptyRange(v.Axes.YMin, v.Axes.YMax)

	graph := chart.Chart{
		Title:  v.Model,
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:  v.Axes.XLabel,
			Style: chart.Style{FontSize: 10.0},
			Range: xr,
		},
		YAxis: chart.YAxis{
			Name:  v.Axes.YLabel,
			Style: chart.Style{FontSize: 10.0},
			Range: yr,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s chart: %w", v.Model, err)
	}
	return nil
}

// nonEmptyRange widens a degenerate axis; go-chart rejects zero-width ranges.
func nonEmptyRange(lo, hi float64) *chart.ContinuousRange {
	if hi <= lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
