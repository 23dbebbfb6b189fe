// Package reference provides classical Runge–Kutta integrators that serve
// as baselines for the probabilistic solver: a fixed-step RK4 and an
// adaptive Dormand–Prince RK45 that reports its solution on a requested
// time grid. Compare and InvariantDrift measure a solution against a
// reference or against a first integral.
package reference
