package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/popdyn/internal/analysis"
	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/viz"
)

var lineStroke = map[string]string{
	"S": "#3b82f6",
	"E": "#eab308",
	"I": "#ef4444",
	"R": "#22c55e",
	"P": "#06b6d4",
}

func svgHeader(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// frame maps plane coordinates onto an SVG of the given pixel size.
type frame struct {
	minX, maxX, minY, maxY float64
	width, height          float64
}

func (f frame) point(x, y float64) (float64, float64) {
	px := (x - f.minX) / (f.maxX - f.minX) * f.width
	py := f.height - (y-f.minY)/(f.maxY-f.minY)*f.height
	return px, py
}

func (f frame) path(xs, ys []float64) string {
	var sb strings.Builder
	pen := false
	for i := range xs {
		if !dynamo.IsFinite(xs[i]) || !dynamo.IsFinite(ys[i]) {
			pen = false
			continue
		}
		px, py := f.point(xs[i], ys[i])
		if !pen {
			fmt.Fprintf(&sb, "M%.1f,%.1f", px, py)
			pen = true
			continue
		}
		fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
	}
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := int(float64(canvas.Width) * scale * 2)
	height := int(float64(canvas.Height) * scale * 4)

	var sb strings.Builder
	svgHeader(&sb, width, height)
	sb.WriteString("<g fill=\"#00ff00\">\n")

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// FieldSVG draws every field segment, colored by the raw magnitude, plus
// optional trajectories.
func FieldSVG(s *field.Sample, paths [][]analysis.Point, width, height int) string {
	f := frame{
		minX: -s.RangeX, maxX: s.RangeX,
		minY: -s.RangeY, maxY: s.RangeY,
		width: float64(width), height: float64(height),
	}

	var sb strings.Builder
	svgHeader(&sb, width, height)

	ax0, ay0 := f.point(-s.RangeX, 0)
	ax1, ay1 := f.point(s.RangeX, 0)
	bx0, by0 := f.point(0, -s.RangeY)
	bx1, by1 := f.point(0, s.RangeY)
	fmt.Fprintf(&sb, "<g stroke=\"#444466\" stroke-width=\"1\">\n<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/>\n<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/>\n</g>\n",
		ax0, ay0, ax1, ay1, bx0, by0, bx1, by1)

	hi := 0.0
	for _, m := range s.Magnitude {
		hi = math.Max(hi, m)
	}

	sb.WriteString("<g stroke-width=\"1.5\" stroke-linecap=\"round\">\n")
	for i := 0; i < s.Len(); i++ {
		x0, y0, x1, y1 := s.Segment(i)
		px0, py0 := f.point(x0, y0)
		px1, py1 := f.point(x1, y1)
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"%s\"/>\n",
			px0, py0, px1, py1, magnitudeColor(s.Magnitude[i], hi))
	}
	sb.WriteString("</g>\n")

	for _, p := range paths {
		xs := make([]float64, len(p))
		ys := make([]float64, len(p))
		for i, pt := range p {
			xs[i], ys[i] = pt.X, pt.Y
		}
		fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"#ff00ff\" stroke-width=\"1\" d=\"%s\"/>\n", f.path(xs, ys))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// magnitudeColor blends from blue (weak) to yellow (strong).
func magnitudeColor(m, hi float64) string {
	t := 0.0
	if hi > 0 {
		t = m / hi
	}
	r := int(59 + t*(250-59))
	g := int(130 + t*(204-130))
	b := int(246 + t*(21-246))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// SeriesSVG draws every line of v as a polyline inside v's axes.
func SeriesSVG(v *experiment.View, width, height int) (string, error) {
	if len(v.Lines) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoData, v.Model)
	}

	f := frame{
		minX: v.Axes.XMin, maxX: v.Axes.XMax,
		minY: v.Axes.YMin, maxY: v.Axes.YMax,
		width: float64(width), height: float64(height),
	}
	if f.maxX <= f.minX {
		f.maxX = f.minX + 1
	}
	if f.maxY <= f.minY {
		f.maxY = f.minY + 1
	}

	var sb strings.Builder
	svgHeader(&sb, width, height)
	for i, l := range v.Lines {
		stroke, ok := lineStroke[l.Name]
		if !ok {
			stroke = "#ffffff"
		}
		fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"%s\"/>\n", stroke, f.path(l.Times, l.Values))
		fmt.Fprintf(&sb, "<text x=\"%d\" y=\"%d\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n",
			width-40, 16*(i+1), stroke, l.Name)
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}

// WriteSVG writes the SVG rendering of v: the field for field views, the
// lines otherwise.
func WriteSVG(w io.Writer, v *experiment.View, width, height int) error {
	var out string
	switch {
	case v.Field != nil:
		out = FieldSVG(v.Field, nil, width, height)
	default:
		var err error
		if out, err = SeriesSVG(v, width, height); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, out)
	return err
}
