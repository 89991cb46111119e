package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/growth"
	"github.com/san-kum/popdyn/internal/viz"
)

func computed(t *testing.T, req experiment.Request) *experiment.View {
	t.Helper()
	v, err := experiment.NewRegistry(nil).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run %s: %v", req.Model, err)
	}
	return v
}

func sirView(t *testing.T) *experiment.View {
	return computed(t, experiment.Request{
		Model:    "sir",
		Epidemic: &epidemic.Params{N: 1000, Beta: 0.3, Gamma: 0.1, I0: 1, TMax: 160, Samples: 50},
	})
}

func fieldView(t *testing.T) *experiment.View {
	return computed(t, experiment.Request{
		Model: "field",
		Field: &field.Request{DX: "-y", DY: "x", RangeX: 3, RangeY: 3, Mesh: 5},
	})
}

func TestWriteCSV_Series(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sirView(t)); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 51 {
		t.Fatalf("expected header plus 50 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "t,S,I,R" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "0" || rows[1][1] != "999" || rows[1][2] != "1" {
		t.Errorf("first row = %v", rows[1])
	}
}

func TestWriteCSV_Field(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, fieldView(t)); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 26 {
		t.Fatalf("expected header plus 25 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "x,y,u,v,magnitude" {
		t.Errorf("header = %v", rows[0])
	}
}

func TestWriteCSV_IdleView(t *testing.T) {
	v := experiment.Placeholder(experiment.Request{Model: "sir"})
	err := WriteCSV(&bytes.Buffer{}, v)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sirView(t), "rk45"); err != nil {
		t.Fatal(err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Model != "sir" || doc.Solver != "rk45" {
		t.Errorf("model/solver = %s/%s", doc.Model, doc.Solver)
	}
	if len(doc.Times) != 50 || len(doc.Series["I"]) != 50 {
		t.Errorf("unexpected lengths: times=%d I=%d", len(doc.Times), len(doc.Series["I"]))
	}
	if _, ok := doc.Metrics["peak_infected"]; !ok {
		t.Error("metrics missing peak_infected")
	}
}

func TestFieldSVG(t *testing.T) {
	v := fieldView(t)
	var buf bytes.Buffer
	if err := WriteSVG(&buf, v, 300, 300); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>") {
		t.Error("not a complete svg document")
	}
	// two axes plus one segment per grid point
	if n := strings.Count(out, "<line "); n != 2+25 {
		t.Errorf("expected 27 lines, got %d", n)
	}
}

func TestSeriesSVG(t *testing.T) {
	out, err := SeriesSVG(sirView(t), 400, 200)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "<path "); n != 3 {
		t.Errorf("expected 3 paths, got %d", n)
	}
	if _, err := SeriesSVG(experiment.Placeholder(experiment.Request{Model: "sir"}), 10, 10); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(7, 7)
	out := CanvasToSVG(c, 2)
	if n := strings.Count(out, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should render nothing")
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, sirView(t), 320, 200); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("size = %dx%d", b.Dx(), b.Dy())
	}

	if err := WritePNG(&bytes.Buffer{}, fieldView(t), 100, 100); err == nil {
		t.Error("expected field png to be rejected")
	}
}

func TestWritePNG_FlatSeries(t *testing.T) {
	v := computed(t, experiment.Request{
		Model:  "logistic",
		Growth: &growth.Params{P0: 500, R: 0.1, K: 500, TMax: 10, Samples: 20},
	})
	if err := WritePNG(&bytes.Buffer{}, v, 200, 120); err != nil {
		t.Errorf("constant series should still render: %v", err)
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	v := sirView(t)

	for _, ext := range Formats {
		path := filepath.Join(dir, "out."+ext)
		if err := File(path, v, "rk45"); err != nil {
			t.Fatalf("%s: %v", ext, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s: empty or missing file", ext)
		}
	}

	if err := File(filepath.Join(dir, "out.txt"), v, ""); err == nil {
		t.Error("expected unsupported format error")
	}
}
