package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/popdyn/internal/experiment"
)

// Document is the JSON shape of an exported view.
type Document struct {
	Model   string               `json:"model"`
	Solver  string               `json:"solver,omitempty"`
	Axes    experiment.Axes      `json:"axes"`
	Times   []float64            `json:"times,omitempty"`
	Series  map[string][]float64 `json:"series,omitempty"`
	Field   *FieldData           `json:"field,omitempty"`
	Metrics map[string]float64   `json:"metrics,omitempty"`
}

type FieldData struct {
	Mesh          int       `json:"mesh"`
	SegmentLength float64   `json:"segment_length"`
	X             []float64 `json:"x"`
	Y             []float64 `json:"y"`
	U             []float64 `json:"u"`
	V             []float64 `json:"v"`
	Magnitude     []float64 `json:"magnitude"`
}

// NewDocument flattens v. All lines share the time grid of the first one.
func NewDocument(v *experiment.View, solver string) Document {
	doc := Document{
		Model:   v.Model,
		Solver:  solver,
		Axes:    v.Axes,
		Metrics: v.Metrics,
	}
	if len(v.Lines) > 0 {
		doc.Times = v.Lines[0].Times
		doc.Series = make(map[string][]float64, len(v.Lines))
		for _, l := range v.Lines {
			doc.Series[l.Name] = l.Values
		}
	}
	if s := v.Field; s != nil {
		doc.Field = &FieldData{
			Mesh:          s.Mesh,
			SegmentLength: s.SegmentLength,
			X:             s.X,
			Y:             s.Y,
			U:             s.U,
			V:             s.V,
			Magnitude:     s.Magnitude,
		}
	}
	return doc
}

func WriteJSON(w io.Writer, v *experiment.View, solver string) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(v, solver))
}
