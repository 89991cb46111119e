package metrics

import (
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// ConservationDrift tracks the largest relative deviation of a system's
// invariant from its first observed value.
type ConservationDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
	dyn      dynamo.Conserved
}

func NewConservationDrift(dyn dynamo.Conserved) *ConservationDrift {
	return &ConservationDrift{
		name: "conservation_drift",
		dyn:  dyn,
	}
}

func (c *ConservationDrift) Name() string { return c.name }

func (c *ConservationDrift) Observe(x dynamo.State, t float64) {
	inv := c.dyn.Invariant(x)

	if c.samples == 0 {
		c.initial = inv
	}
	c.samples++

	if c.initial != 0 {
		drift := math.Abs(inv-c.initial) / math.Abs(c.initial)
		c.maxDrift = math.Max(c.maxDrift, drift)
	}
}

func (c *ConservationDrift) Value() float64 {
	return c.maxDrift
}

func (c *ConservationDrift) Reset() {
	c.initial = 0
	c.maxDrift = 0
	c.samples = 0
}
