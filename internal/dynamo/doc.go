// Package dynamo provides the core vocabulary shared by the ODE filter packages.
//
// The package defines the fundamental interfaces and types for probabilistic
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector representing a point in solution space
//   - [System]: interface for vector fields (dy/dt = f(t, y))
//   - [SeriesSystem]: a System that can also be evaluated on Taylor series,
//     which enables exact initialization and exact Jacobians
//   - [IVP]: an initial value problem descriptor
//   - [Grid]: the fixed time grid every solve runs on
//
// # Example
//
//	sys := dynamo.Func(func(t float64, y dynamo.State) dynamo.State {
//		return dynamo.State{-y[0]}
//	})
//	ivp := &dynamo.IVP{System: sys, T0: 0, TMax: 1, Y0: dynamo.State{1}}
//
// # Thread Safety
//
// Vector fields passed to the solvers must be pure. Solvers evaluate them
// from several goroutines when per-point work has no data dependency.
package dynamo
