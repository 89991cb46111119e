package growth

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/popdyn/internal/dynamo"
)

func TestExponential(t *testing.T) {
	p := Params{P0: 100, R: 0.03, TMax: 100, Samples: 11}

	s, err := Evaluate(Exponential, p)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if s.Len() != 11 {
		t.Fatalf("expected 11 samples, got %d", s.Len())
	}
	if s.Values[0] != p.P0 {
		t.Errorf("value(0) = %v, want exactly %v", s.Values[0], p.P0)
	}

	for i, tm := range s.Times {
		ratio := s.Values[i] / s.Values[0]
		want := math.Exp(p.R * tm)
		if math.Abs(ratio-want) > 1e-12*want {
			t.Errorf("t=%.1f: ratio %v, want %v", tm, ratio, want)
		}
	}
}

func TestLogistic(t *testing.T) {
	p := Params{P0: 200, R: 0.04, K: 750, TMax: 500}

	s, err := Evaluate(Logistic, p)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if s.Len() != DefaultSamples {
		t.Errorf("expected default %d samples, got %d", DefaultSamples, s.Len())
	}
	if s.Values[0] != p.P0 {
		t.Errorf("value(0) = %v, want exactly %v", s.Values[0], p.P0)
	}

	for i := 1; i < s.Len(); i++ {
		if s.Values[i] < s.Values[i-1] {
			t.Fatalf("not monotonic at %d: %v < %v", i, s.Values[i], s.Values[i-1])
		}
		if s.Values[i] > p.K {
			t.Fatalf("overshoot at %d: %v > K", i, s.Values[i])
		}
	}

	last := s.Values[s.Len()-1]
	if math.Abs(last-p.K) > 1e-3*p.K {
		t.Errorf("value(t_max) = %v, want close to K=%v", last, p.K)
	}
}

func TestLogistic_ConstantAtCapacity(t *testing.T) {
	p := Params{P0: 750, R: 0.04, K: 750, TMax: 100}

	s, err := Evaluate(Logistic, p)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	for i, v := range s.Values {
		if v != p.K {
			t.Fatalf("sample %d = %v, want constant %v", i, v, p.K)
		}
	}
}

func TestLogistic_DecayFromAbove(t *testing.T) {
	p := Params{P0: 1000, R: 0.1, K: 750, TMax: 200}

	s, err := Evaluate(Logistic, p)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < s.Len(); i++ {
		if s.Values[i] > s.Values[i-1] || s.Values[i] < p.K {
			t.Fatalf("sample %d = %v should decrease toward K", i, s.Values[i])
		}
	}
}

func TestInvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		p    Params
	}{
		{"logistic zero p0", Logistic, Params{P0: 0, R: 0.04, K: 750, TMax: 100}},
		{"exponential zero p0", Exponential, Params{P0: 0, R: 0.04, TMax: 100}},
		{"negative p0", Exponential, Params{P0: -5, R: 0.04, TMax: 100}},
		{"zero capacity", Logistic, Params{P0: 10, R: 0.04, K: 0, TMax: 100}},
		{"negative horizon", Exponential, Params{P0: 10, R: 0.04, TMax: -1}},
		{"nan rate", Exponential, Params{P0: 10, R: math.NaN(), TMax: 10}},
		{"inf horizon", Logistic, Params{P0: 10, R: 0.1, K: 100, TMax: math.Inf(1)}},
		{"one sample", Exponential, Params{P0: 10, R: 0.1, TMax: 10, Samples: 1}},
		{"too many samples", Exponential, Params{P0: 10, R: 0.1, TMax: 10, Samples: 1 << 40}},
		{"logistic decay crosses pole", Logistic, Params{P0: 1000, R: -0.1, K: 750, TMax: 100, Samples: 11}},
		{"overflow", Exponential, Params{P0: 10, R: 50, TMax: 100}},
		{"unknown kind", Kind("gompertz"), Params{P0: 10, R: 0.1, TMax: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Evaluate(tt.kind, tt.p)
			if !errors.Is(err, dynamo.ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			if s.Len() != 0 {
				t.Errorf("expected empty series on error, got %d samples", s.Len())
			}
		})
	}
}

func TestLogisticZeroP0_NamesParameter(t *testing.T) {
	_, err := Evaluate(Logistic, Params{P0: 0, R: 0.04, K: 750, TMax: 100})

	var perr *dynamo.ParameterError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParameterError, got %T", err)
	}
	if perr.Name != "p0" {
		t.Errorf("expected parameter p0, got %s", perr.Name)
	}
}

func TestZeroHorizon(t *testing.T) {
	s, err := Evaluate(Exponential, Params{P0: 5, R: 1, TMax: 0, Samples: 4})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range s.Values {
		if v != 5 {
			t.Errorf("zero horizon should repeat P0, got %v", v)
		}
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(Exponential, Params{P0: 100, R: math.Ln2, TMax: 3})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.DoublingTime-1) > 1e-12 {
		t.Errorf("doubling time = %v, want 1", s.DoublingTime)
	}
	if math.Abs(s.Final-800) > 1e-9 {
		t.Errorf("final = %v, want 800", s.Final)
	}

	s, _ = Summarize(Exponential, Params{P0: 100, R: -math.Ln2, TMax: 1})
	if math.Abs(s.HalfLife-1) > 1e-12 {
		t.Errorf("half life = %v, want 1", s.HalfLife)
	}

	p := Params{P0: 200, R: 0.04, K: 750, TMax: 100}
	s, _ = Summarize(Logistic, p)
	if !s.HasInflection {
		t.Fatal("expected an inflection point")
	}
	if got := Value(Logistic, p, s.InflectionTime); math.Abs(got-p.K/2) > 1e-9 {
		t.Errorf("P(inflection) = %v, want K/2", got)
	}

	s, _ = Summarize(Logistic, Params{P0: 500, R: 0.04, K: 750, TMax: 100})
	if s.HasInflection {
		t.Error("P0 above K/2 has no inflection ahead")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("logistic"); err != nil || k != Logistic {
		t.Errorf("ParseKind(logistic) = %v, %v", k, err)
	}
	if _, err := ParseKind("gompertz"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestLogisticDecayBeforePole(t *testing.T) {
	// the pole is at ln(4)/0.1 ≈ 13.86
	s, err := Evaluate(Logistic, Params{P0: 1000, R: -0.1, K: 750, TMax: 10, Samples: 11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < s.Len(); i++ {
		if s.Values[i] <= s.Values[i-1] || s.Values[i] <= 0 {
			t.Fatalf("values not increasing and positive at %d: %v", i, s.Values)
		}
	}
}
