package experiment

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/field"
)

// State is the lifecycle of a view: idle views only carry axes, computed
// views carry data.
type State int

const (
	Idle State = iota
	Computed
)

func (s State) String() string {
	if s == Computed {
		return "computed"
	}
	return "idle"
}

func (s State) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// MessageKind classifies why a request produced no data.
type MessageKind string

const (
	KindNone               MessageKind = ""
	KindInvalidParameter   MessageKind = "invalid_parameter"
	KindExpression         MessageKind = "expression_error"
	KindIntegrationFailure MessageKind = "integration_failure"
	KindInternal           MessageKind = "internal"
)

// Classify maps an error onto the message kind shown to the user.
func Classify(err error) MessageKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, dynamo.ErrExpression):
		return KindExpression
	case errors.Is(err, dynamo.ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, dynamo.ErrIntegration), errors.Is(err, context.DeadlineExceeded):
		return KindIntegrationFailure
	}
	return KindInternal
}

type Axes struct {
	XLabel string  `json:"x_label"`
	YLabel string  `json:"y_label"`
	XMin   float64 `json:"x_min"`
	XMax   float64 `json:"x_max"`
	YMin   float64 `json:"y_min"`
	YMax   float64 `json:"y_max"`
}

// Line is one named curve of a chart.
type Line struct {
	Name string `json:"name"`
	dynamo.Series
}

// View is everything a renderer needs for one chart.
type View struct {
	Model   string             `json:"model"`
	State   State              `json:"state"`
	Axes    Axes               `json:"axes"`
	Lines   []Line             `json:"lines,omitempty"`
	Field   *field.Sample      `json:"field,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Kind    MessageKind        `json:"kind,omitempty"`
	Message string             `json:"message,omitempty"`
}

// Failed reports whether the view carries an error message.
func (v *View) Failed() bool { return v.Kind != KindNone }

// Line returns the curve with the given name.
func (v *View) Line(name string) (Line, bool) {
	for _, l := range v.Lines {
		if l.Name == name {
			return l, true
		}
	}
	return Line{}, false
}
