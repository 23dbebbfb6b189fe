// Package problems provides standard initial value problems for testing and
// benchmarking the solver.
//
// Every problem implements [dynamo.SeriesSystem], so the solver can
// initialise it exactly by Taylor mode and use exact Jacobians:
//
//   - [Logistic]: y' = r·y·(1 - y), closed-form solution available
//   - [LotkaVolterra]: predator-prey cycles
//   - [VanDerPol]: relaxation oscillator, stiff for large μ
//   - [FitzHughNagumo]: excitable neuron model
//   - [ExpDecay]: y' = -k·y, closed-form solution available
//   - [Lorenz]: butterfly attractor
//   - [Rossler]: single-scroll chaotic attractor
//   - [Duffing]: forced double-well oscillator
//   - [Pendulum]: damped nonlinear pendulum
//
// Parameters are adjusted at runtime through GetParams and SetParam:
//
//	p := problems.NewVanDerPol()
//	if err := p.SetParam("mu", 100); err != nil {
//	    return err
//	}
//	ivp := problems.IVP(p)
package problems
