package dynamo

import (
	"math"
)

// Series is an ordered sequence of (time, value) samples.
type Series struct {
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
}

func (s Series) Len() int { return len(s.Values) }

// Bounds returns the smallest and largest value.
func (s Series) Bounds() (lo, hi float64) {
	if len(s.Values) == 0 {
		return 0, 0
	}
	lo, hi = s.Values[0], s.Values[0]
	for _, v := range s.Values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// ArgMax returns the index of the largest value, or -1 for an empty series.
func (s Series) ArgMax() int {
	if len(s.Values) == 0 {
		return -1
	}
	best := 0
	for i, v := range s.Values {
		if v > s.Values[best] {
			best = i
		}
	}
	return best
}

// IsFinite reports whether every value is a finite number.
func (s Series) IsFinite() bool {
	return State(s.Values).IsValid()
}

// Linspace returns n evenly spaced samples over [start, stop], endpoints
// included. The last sample is exactly stop.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
