package integrators

import (
	"context"
	"math"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

const (
	DefaultAbsTol   = 1e-6
	DefaultRelTol   = 1e-3
	DefaultMaxSteps = 100000

	// error exponent for a 4th order embedded estimate
	errExponent = -1.0 / 5.0
)

// RK45 is an adaptive Dormand-Prince 5(4) solver. Accepted steps are joined
// by cubic Hermite interpolation so any evaluation grid can be sampled.
type RK45 struct {
	AbsTol   float64
	RelTol   float64
	MaxSteps int
	MaxStep  float64

	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		AbsTol:   DefaultAbsTol,
		RelTol:   DefaultRelTol,
		MaxSteps: DefaultMaxSteps,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Name() string { return "rk45" }

// Step takes one unchecked Dormand-Prince step of size dt.
func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _, _ := r.attempt(dyn, x, dyn.Derive(x, t), t, dt)
	return xNew
}

// StepAdaptive takes one step of size dt and returns the new state, the
// scaled error norm (accept when <= 1) and the suggested next step.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, float64, float64) {
	xNew, _, errNorm := r.attempt(dyn, x, dyn.Derive(x, t), t, dt)
	return xNew, errNorm, dt * r.scaleFor(errNorm)
}

func (r *RK45) attempt(dyn dynamo.System, x, k1 dynamo.State, t, dt float64) (dynamo.State, dynamo.State, float64) {
	n := len(x)

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2 := dyn.Derive(x2, t+a2*dt)

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := dyn.Derive(x3, t+a3*dt)

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := dyn.Derive(x4, t+a4*dt)

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := dyn.Derive(x5, t+a5*dt)

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := dyn.Derive(x6, t+dt)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := dyn.Derive(xNew, t+dt)

	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := r.AbsTol + r.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		sum += (errEst / scale) * (errEst / scale)
	}
	errNorm := 0.0
	if n > 0 {
		errNorm = math.Sqrt(sum / float64(n))
	}

	return xNew, k7, errNorm
}

func (r *RK45) scaleFor(errNorm float64) float64 {
	switch {
	case math.IsNaN(errNorm) || math.IsInf(errNorm, 0):
		return r.minScale
	case errNorm == 0:
		return r.maxScale
	case errNorm > 1:
		return math.Max(r.minScale, r.safety*math.Pow(errNorm, errExponent))
	default:
		return math.Min(r.maxScale, r.safety*math.Pow(errNorm, errExponent))
	}
}

func (r *RK45) Solve(ctx context.Context, dyn dynamo.System, x0 dynamo.State, tEval []float64) (*dynamo.Result, error) {
	if err := checkInputs(dyn, x0, tEval); err != nil {
		return nil, err
	}
	if r.AbsTol <= 0 || r.RelTol <= 0 {
		return nil, dynamo.InvalidParam("tolerance", math.Min(r.AbsTol, r.RelTol), "tolerances must be positive")
	}

	t0, tf := tEval[0], tEval[len(tEval)-1]
	result := &dynamo.Result{
		States:  make([]dynamo.State, len(tEval)),
		Times:   append([]float64(nil), tEval...),
		Metrics: make(map[string]float64),
	}

	x := x0.Clone()
	t := t0
	idx := 0
	for idx < len(tEval) && tEval[idx] <= t0 {
		result.States[idx] = x.Clone()
		idx++
	}

	k1 := dyn.Derive(x, t)
	h := r.initialStep(dyn, x, k1, t, tf)
	maxSteps := r.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	for t < tf {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if result.StepsTaken+result.Rejected >= maxSteps {
			return nil, &dynamo.IntegrationError{Step: result.StepsTaken, Time: t, Wrapped: dynamo.ErrMaxSteps}
		}

		if r.MaxStep > 0 && h > r.MaxStep {
			h = r.MaxStep
		}
		minStep := 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
		if h < minStep {
			return nil, &dynamo.IntegrationError{Step: result.StepsTaken, Time: t, Wrapped: dynamo.ErrStepTooSmall}
		}

		last := false
		if t+h >= tf {
			h = tf - t
			last = true
		}

		xNew, k7, errNorm := r.attempt(dyn, x, k1, t, h)
		if errNorm > 1 || math.IsNaN(errNorm) || !xNew.IsValid() {
			h *= r.scaleFor(errNorm)
			result.Rejected++
			continue
		}

		tNew := t + h
		if last {
			tNew = tf
		}
		for idx < len(tEval) && tEval[idx] <= tNew {
			result.States[idx] = hermite(t, x, k1, tNew, xNew, k7, tEval[idx])
			idx++
		}

		result.StepsTaken++
		t, x, k1 = tNew, xNew, k7
		h *= r.scaleFor(errNorm)
	}

	for ; idx < len(tEval); idx++ {
		result.States[idx] = x.Clone()
	}

	return result, nil
}

// initialStep follows Hairer, Norsett and Wanner's starting step heuristic.
func (r *RK45) initialStep(dyn dynamo.System, x, f0 dynamo.State, t, tf float64) float64 {
	span := tf - t
	if span <= 0 {
		return 0
	}

	n := len(x)
	if n == 0 {
		return span
	}
	scale := make([]float64, n)
	for i := range x {
		scale[i] = r.AbsTol + math.Abs(x[i])*r.RelTol
	}

	d0 := rms(x, scale)
	d1 := rms(f0, scale)
	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)

	x1 := make(dynamo.State, n)
	for i := range x {
		x1[i] = x[i] + h0*f0[i]
	}
	f1 := dyn.Derive(x1, t+h0)
	diff := f1.Sub(f0)
	d2 := rms(diff, scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5.0)
	}

	return math.Min(math.Min(100*h0, h1), span)
}

func rms(v dynamo.State, scale []float64) float64 {
	sum := 0.0
	for i := range v {
		q := v[i] / scale[i]
		sum += q * q
	}
	return math.Sqrt(sum / float64(len(v)))
}

// hermite evaluates the cubic through (t0, x0, f0) and (t1, x1, f1) at tau.
func hermite(t0 float64, x0, f0 dynamo.State, t1 float64, x1, f1 dynamo.State, tau float64) dynamo.State {
	h := t1 - t0
	if h == 0 {
		return x1.Clone()
	}
	th := (tau - t0) / h
	th2 := th * th
	th3 := th2 * th

	h00 := 2*th3 - 3*th2 + 1
	h10 := th3 - 2*th2 + th
	h01 := -2*th3 + 3*th2
	h11 := th3 - th2

	out := make(dynamo.State, len(x0))
	for i := range x0 {
		out[i] = h00*x0[i] + h10*h*f0[i] + h01*x1[i] + h11*h*f1[i]
	}
	return out
}
