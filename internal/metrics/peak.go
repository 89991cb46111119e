package metrics

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Peak records the largest value of one state component and when it
// happened. Ties keep the earliest time.
type Peak struct {
	name  string
	index int
	value float64
	time  float64
	seen  bool
}

func NewPeak(name string, index int) *Peak {
	return &Peak{name: name, index: index}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, t float64) {
	if p.index >= len(x) {
		return
	}
	if !p.seen || x[p.index] > p.value {
		p.value, p.time, p.seen = x[p.index], t, true
	}
}

func (p *Peak) Value() float64 {
	if !p.seen {
		return math.NaN()
	}
	return p.value
}

// Time returns when the peak was observed.
func (p *Peak) Time() float64 { return p.time }

func (p *Peak) Reset() {
	p.value, p.time, p.seen = 0, 0, false
}

// PeakTime exposes a Peak's time as its own metric.
type PeakTime struct {
	name string
	*Peak
}

func NewPeakTime(name string, index int) *PeakTime {
	return &PeakTime{name: name, Peak: NewPeak(name, index)}
}

func (p *PeakTime) Name() string { return p.name }

func (p *PeakTime) Value() float64 { return p.Peak.Time() }

// Fraction reports the last observed value of one component divided by a
// fixed total, e.g. the share of the population ever removed.
type Fraction struct {
	name  string
	index int
	total float64
	last  float64
}

func NewFraction(name string, index int, total float64) *Fraction {
	return &Fraction{name: name, index: index, total: total}
}

func (f *Fraction) Name() string { return f.name }

func (f *Fraction) Observe(x dynamo.State, t float64) {
	if f.index < len(x) {
		f.last = x[f.index]
	}
}

func (f *Fraction) Value() float64 {
	if f.total == 0 {
		return 0
	}
	return f.last / f.total
}

func (f *Fraction) Reset() { f.last = 0 }
