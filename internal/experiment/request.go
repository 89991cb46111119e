package experiment

import (
	"math"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/growth"
)

// Request selects a model and carries the parameters for it. Only the
// section matching Model is read.
type Request struct {
	Model    string           `json:"model"`
	Growth   *growth.Params   `json:"growth,omitempty"`
	Epidemic *epidemic.Params `json:"epidemic,omitempty"`
	Field    *field.Request   `json:"field,omitempty"`
}

// FromConfig builds the request for the config's selected model.
func FromConfig(cfg *config.Config) Request {
	req := Request{Model: cfg.Model}
	switch cfg.Model {
	case "exponential", "logistic":
		g := cfg.Growth
		req.Growth = &g
	case "sir", "seir":
		p := cfg.EpidemicParams()
		p.Kind = epidemic.Kind(cfg.Model)
		req.Epidemic = &p
	case "field":
		f := cfg.Field
		req.Field = &f
	}
	return req
}

// Placeholder is the idle, axes-only view for req. It never fails: missing
// or broken parameters fall back to unit axes.
func Placeholder(req Request) *View {
	v := &View{Model: req.Model, State: Idle}

	switch req.Model {
	case "exponential", "logistic":
		v.Axes = Axes{XLabel: "t", YLabel: "P(t)", XMax: 1, YMax: 1}
		if g := req.Growth; g != nil {
			v.Axes.XMax = positiveOr(g.TMax, 1)
			v.Axes.YMax = positiveOr(math.Max(g.P0, g.K), 1)
		}
	case "sir", "seir":
		v.Axes = Axes{XLabel: "t", YLabel: "population", XMax: 1, YMax: 1}
		if p := req.Epidemic; p != nil {
			v.Axes.XMax = positiveOr(p.TMax, 1)
			v.Axes.YMax = positiveOr(p.N, 1)
		}
	case "field":
		rx, ry := 1.0, 1.0
		if f := req.Field; f != nil {
			rx, ry = positiveOr(f.RangeX, 1), positiveOr(f.RangeY, 1)
		}
		v.Axes = Axes{XLabel: "x", YLabel: "y", XMin: -rx, XMax: rx, YMin: -ry, YMax: ry}
	default:
		v.Axes = Axes{XMax: 1, YMax: 1}
	}
	return v
}

func positiveOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}
