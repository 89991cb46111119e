package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/export"
	"github.com/san-kum/popdyn/internal/viz"
)

// tableRows caps how many samples the table format prints.
const tableRows = 20

// emit prints v in the selected format and writes --out if set.
func emit(v *experiment.View, solver string) error {
	if outPath != "" {
		if err := export.File(outPath, v, solver); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
	}

	switch format {
	case "plot":
		fmt.Println(viz.Chart(v, width, height))
		fmt.Print(viz.Metrics(v))
	case "table":
		return writeTable(v)
	case "csv":
		return export.WriteCSV(os.Stdout, v)
	case "json":
		return export.WriteJSON(os.Stdout, v, solver)
	default:
		return fmt.Errorf("unknown format %q (want plot, table, csv or json)", format)
	}
	return nil
}

func writeTable(v *experiment.View) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if len(v.Lines) > 0 {
		fmt.Fprint(w, "T")
		for _, l := range v.Lines {
			fmt.Fprintf(w, "\t%s", l.Name)
		}
		fmt.Fprintln(w)

		n := v.Lines[0].Len()
		stride := max(n/tableRows, 1)
		for i := 0; i < n; i += stride {
			fmt.Fprintf(w, "%.2f", v.Lines[0].Times[i])
			for _, l := range v.Lines {
				fmt.Fprintf(w, "\t%.3f", l.Values[i])
			}
			fmt.Fprintln(w)
		}
	}

	if s := v.Field; s != nil {
		fmt.Fprintln(w, "X\tY\tU\tV\tMAGNITUDE")
		stride := max(s.Len()/tableRows, 1)
		for i := 0; i < s.Len(); i += stride {
			fmt.Fprintf(w, "%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n", s.X[i], s.Y[i], s.U[i], s.V[i], s.Magnitude[i])
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	if m := viz.Metrics(v); m != "" {
		fmt.Println()
		fmt.Print(m)
	}
	return nil
}

func writeJSONStdout(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
