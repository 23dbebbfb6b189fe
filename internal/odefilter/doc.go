// Package odefilter solves ordinary differential equation initial value
// problems by Gaussian state estimation.
//
// The unknown solution and its first q derivatives are modelled jointly by a
// q-times integrated Wiener process prior. At every grid point the filter
// conditions on the algebraic constraint
//
//	E1·x - f(t, E0·x) = 0
//
// which holds exactly for the true solution, so the posterior mean tracks
// the solution while the posterior covariance quantifies the numerical
// error. All estimation happens in Nordsieck-preconditioned coordinates;
// E0 and E1 map those back to the solution and its first derivative.
//
// Three methods are available: a single extended Kalman filter pass, a
// filter followed by a Rauch–Tung–Striebel smoother, and iterated smoothing,
// which repeats the filter-smoother while relinearising at the previous
// iterate until a fixed budget is spent or successive iterates agree.
//
// Solve and SolveIVP run a complete solve. Iterator exposes the refinement
// loop to callers that want to drive it themselves.
package odefilter
