// Package smoother implements square-root Gaussian filtering and smoothing
// for state-space models with a linear transition and a nonlinear
// observation:
//
//	x_{k+1} = A·x_k + b + QL·w_k
//	y_k     = h(t_k, x_k) + c + RL·v_k
//
// The observation is linearised at every step, either at the predicted
// belief (classic extended filtering) or at a supplied nominal trajectory
// (iterated smoothing). All covariances are propagated as square-root
// factors through QR triangularisation, so zero observation noise is
// handled without forming an explicit inverse of a singular covariance.
//
// # Parallel mode
//
// With a nominal trajectory, the linearisations of all steps are mutually
// independent and are computed concurrently. The recursions themselves stay
// sequential; callers only rely on the complete trajectory being returned
// by each call.
package smoother
