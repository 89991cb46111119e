package automation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
	"github.com/san-kum/popdyn/internal/epidemic"
	"github.com/san-kum/popdyn/internal/experiment"
)

const scenarioYAML = `
name: outbreak study
steps:
  - name: baseline
    model: sir
    params:
      beta: 0.3
      gamma: 0.1
    save_as: baseline.csv
  - model: logistic
    params:
      p0: 10
      k: 500
  - name: broken
    model: sir
    params:
      n: -5
  - name: spiral
    model: field
    field:
      dx: "-y - 0.1*x"
      dy: "x"
      range_x: 2
      range_y: 2
      mesh: 6
`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadAndRunScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "outbreak study" || len(sc.Steps) != 4 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(nil), dir, discard())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	if results[0].View.State != experiment.Computed {
		t.Errorf("baseline state = %v", results[0].View.State)
	}
	if results[0].SavedTo != filepath.Join(dir, "baseline.csv") {
		t.Errorf("SavedTo = %q", results[0].SavedTo)
	}
	if _, err := os.Stat(results[0].SavedTo); err != nil {
		t.Errorf("export missing: %v", err)
	}

	if results[1].Step != "2:logistic" {
		t.Errorf("default label = %q", results[1].Step)
	}

	if results[2].View.Kind != experiment.KindInvalidParameter {
		t.Errorf("broken step kind = %q", results[2].View.Kind)
	}
	if results[3].View.Field == nil || results[3].View.Field.Mesh != 6 {
		t.Error("field step should carry a 6x6 sample")
	}
}

func TestScenarioStepErrors(t *testing.T) {
	tests := []struct {
		name string
		step ScenarioStep
	}{
		{"unknown preset", ScenarioStep{Model: "sir", Preset: "nope"}},
		{"unknown epidemic param", ScenarioStep{Model: "sir", Params: map[string]float64{"delta": 1}}},
		{"unknown growth param", ScenarioStep{Model: "logistic", Params: map[string]float64{"beta": 1}}},
		{"field with params", ScenarioStep{Model: "field", Params: map[string]float64{"mesh": 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.step.Request(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("name: empty\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func baseSIR() epidemic.Params {
	return epidemic.Params{Kind: epidemic.KindSIR, N: 1000, Beta: 0.3, Gamma: 0.1, I0: 1, TMax: 160, Samples: 100}
}

func TestRunMonteCarloReproducible(t *testing.T) {
	cfg := MonteCarloConfig{Base: baseSIR(), Spread: 0.2, Trials: 8, Seed: 42}

	a, err := RunMonteCarlo(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	b, err := RunMonteCarlo(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("trial %d differs: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].Beta < 0.24 || a[i].Beta > 0.36 {
			t.Errorf("beta %v outside ±20%%", a[i].Beta)
		}
		if a[i].PeakInfected <= 0 || a[i].FinalSize <= 0 || a[i].FinalSize > 1 {
			t.Errorf("implausible trial %+v", a[i])
		}
	}
}

func TestRunMonteCarloZeroSpread(t *testing.T) {
	results, err := RunMonteCarlo(context.Background(), MonteCarloConfig{Base: baseSIR(), Trials: 4, Seed: 1}, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	stats := MonteCarloStats(results)
	peak := stats["peak_infected"]
	if peak.StdDev > 1e-9 || peak.Min != peak.Max {
		t.Errorf("zero spread should give identical trials, got %+v", peak)
	}
}

func TestRunMonteCarloInvalid(t *testing.T) {
	tests := []MonteCarloConfig{
		{Base: baseSIR(), Trials: 0},
		{Base: baseSIR(), Trials: 3, Spread: 1.5},
		{Base: epidemic.Params{Kind: epidemic.KindSIR, N: -1}, Trials: 3},
	}
	for _, cfg := range tests {
		if _, err := RunMonteCarlo(context.Background(), cfg, nil); !errors.Is(err, dynamo.ErrInvalidParameter) {
			t.Errorf("RunMonteCarlo(%+v) = %v, want ErrInvalidParameter", cfg, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := summarize([]float64{4, 1, 3, 2})
	if s.Mean != 2.5 || s.Median != 2.5 || s.Min != 1 || s.Max != 4 {
		t.Errorf("summary = %+v", s)
	}
	if (summarize(nil) != Summary{}) {
		t.Error("empty input should give a zero summary")
	}
}
