// Package dynamo provides core simulation primitives for population models.
//
// The package defines the fundamental interfaces and types shared by the
// closed-form, compartmental and vector-field components:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical stepper
//   - [Solver]: integrates a system and samples it on a time grid
//   - [Series]: ordered (time, value) samples for one quantity
//   - [Metric]: observes sampled states and reports one number
//
// # Example
//
//	sys := epidemic.NewSIR(1000, 0.3, 0.1)
//	solver := integrators.NewRK45()
//	res, err := solver.Solve(ctx, sys, x0, dynamo.Linspace(0, 100, 500))
//
// # Errors
//
// Every failure is classified by one of [ErrInvalidParameter],
// [ErrExpression] or [ErrIntegration]; use [errors.Is] to tell them apart.
//
// # Thread Safety
//
// Systems and solvers hold no state between calls and may be shared.
// Fixed-step integrators keep scratch buffers and must not be.
package dynamo
