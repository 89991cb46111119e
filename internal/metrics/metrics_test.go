package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
)

type sumInvariant struct{}

func (sumInvariant) Invariant(x dynamo.State) float64 { return x.Sum() }

func TestConservationDrift(t *testing.T) {
	m := NewConservationDrift(sumInvariant{})

	m.Observe(dynamo.State{990, 10, 0}, 0)
	m.Observe(dynamo.State{900, 80, 20}, 1)
	if m.Value() != 0 {
		t.Errorf("expected zero drift, got %g", m.Value())
	}

	m.Observe(dynamo.State{900, 80, 21}, 2)
	if math.Abs(m.Value()-1e-3) > 1e-12 {
		t.Errorf("expected drift 1e-3, got %g", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestPeak(t *testing.T) {
	m := NewPeak("peak_infected", 1)
	pt := NewPeakTime("peak_time", 1)

	states := []dynamo.State{{10, 1}, {8, 3}, {5, 6}, {3, 6}, {2, 4}}
	for i, x := range states {
		m.Observe(x, float64(i))
		pt.Observe(x, float64(i))
	}

	if m.Value() != 6 {
		t.Errorf("peak = %v, want 6", m.Value())
	}
	if m.Time() != 2 || pt.Value() != 2 {
		t.Errorf("peak time = %v/%v, want earliest tie 2", m.Time(), pt.Value())
	}
	if pt.Name() != "peak_time" {
		t.Errorf("Name() = %q", pt.Name())
	}

	m.Reset()
	if !math.IsNaN(m.Value()) {
		t.Error("expected NaN before any observation")
	}
}

func TestFraction(t *testing.T) {
	m := NewFraction("final_size", 2, 1000)
	m.Observe(dynamo.State{999, 1, 0}, 0)
	m.Observe(dynamo.State{100, 5, 895}, 100)

	if math.Abs(m.Value()-0.895) > 1e-12 {
		t.Errorf("fraction = %v, want 0.895", m.Value())
	}

	if NewFraction("x", 0, 0).Value() != 0 {
		t.Error("zero total should report zero")
	}
}
