package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/experiment"
)

// ErrNoData is returned when an idle or failed view is exported.
var ErrNoData = errors.New("export: view has no data")

// WriteCSV writes one row per sample: t plus one column per line for series
// views, x,y,u,v,magnitude for field views.
func WriteCSV(w io.Writer, v *experiment.View) error {
	cw := csv.NewWriter(w)

	switch {
	case v.Field != nil:
		s := v.Field
		if err := cw.Write([]string{"x", "y", "u", "v", "magnitude"}); err != nil {
			return err
		}
		for i := 0; i < s.Len(); i++ {
			row := formatRow(s.X[i], s.Y[i], s.U[i], s.V[i], s.Magnitude[i])
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	case len(v.Lines) > 0:
		header := []string{"t"}
		for _, l := range v.Lines {
			header = append(header, l.Name)
		}
		if err := cw.Write(header); err != nil {
			return err
		}

		times := v.Lines[0].Times
		for i, t := range times {
			vals := []float64{t}
			for _, l := range v.Lines {
				if l.Len() != len(times) {
					return fmt.Errorf("line %s has %d samples, want %d: %w", l.Name, l.Len(), len(times), dynamo.ErrDimensionMismatch)
				}
				vals = append(vals, l.Values[i])
			}
			if err := cw.Write(formatRow(vals...)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrNoData, v.Model)
	}

	cw.Flush()
	return cw.Error()
}

func formatRow(vals ...float64) []string {
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return row
}
