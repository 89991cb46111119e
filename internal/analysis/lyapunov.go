package analysis

import (
	"context"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent from x0 by
// following a neighbour displaced by perturbation along the first axis and
// renormalizing the separation every step. Positive values mean nearby
// paths diverge.
func LyapunovExponent(
	ctx context.Context,
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	perturbation float64,
) (float64, error) {
	if len(x0) != dyn.StateDim() {
		return 0, dynamo.ErrDimensionMismatch
	}
	if dt <= 0 || duration <= 0 {
		return 0, dynamo.InvalidParam("dt", dt, "step and duration must be positive")
	}
	if perturbation <= 0 {
		return 0, dynamo.InvalidParam("perturbation", perturbation, "must be positive")
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += perturbation
	d0 := perturbation

	steps := int(math.Ceil(duration / dt))
	sumLog := 0.0
	t := 0.0
	for k := 0; k < steps; k++ {
		if k%256 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}

		x = integ.Step(dyn, x, t, dt)
		xp = integ.Step(dyn, xp, t, dt)
		t += dt
		if !x.IsValid() || !xp.IsValid() {
			return 0, &dynamo.IntegrationError{Step: k, Time: t, Wrapped: dynamo.ErrInvalidState}
		}

		sep := xp.Sub(x).Norm()
		if sep == 0 {
			xp = x.Clone()
			xp[0] += d0
			continue
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
	}

	return sumLog / t, nil
}
