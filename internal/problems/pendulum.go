package problems

import (
	"math"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/taylor"
)

// Pendulum is a damped rigid pendulum. State: [theta, omega].
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.1,
		Gravity: 9.81,
	}
}

func (p *Pendulum) Name() string {
	return "pendulum"
}

func (p *Pendulum) StateDim() int {
	return 2
}

func (p *Pendulum) Derive(_ float64, x dynamo.State) dynamo.State {
	theta, omega := x[0], x[1]
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta)) / (p.Mass * p.Length * p.Length)
	return dynamo.State{omega, alpha}
}

func (p *Pendulum) DeriveSeries(_ taylor.Series, x []taylor.Series) []taylor.Series {
	theta, omega := x[0], x[1]
	inertia := p.Mass * p.Length * p.Length
	alpha := taylor.Add(
		taylor.Scale(omega, -p.Damping/inertia),
		taylor.Scale(taylor.Sin(theta), -p.Mass*p.Gravity*p.Length/inertia),
	)
	return []taylor.Series{omega.Clone(), alpha}
}

func (p *Pendulum) DefaultState() dynamo.State { return dynamo.State{math.Pi / 4, 0} }
func (p *Pendulum) TSpan() (float64, float64)  { return 0, 10 }

// Energy returns kinetic plus potential energy.
func (p *Pendulum) Energy(x dynamo.State) float64 {
	v := p.Length * x[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
	return ke + pe
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return unknownParam(p, name)
	}
	return nil
}
