package problems

import (
	"fmt"
	"sort"

	"github.com/san-kum/odefilter/internal/dynamo"
)

// Problem is a named vector field with default initial value, time span and
// tunable parameters.
type Problem interface {
	dynamo.SeriesSystem
	Name() string
	StateDim() int
	DefaultState() dynamo.State
	TSpan() (t0, tmax float64)
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// IVP builds the default initial value problem of p.
func IVP(p Problem) *dynamo.IVP {
	t0, tmax := p.TSpan()
	return &dynamo.IVP{System: p, T0: t0, TMax: tmax, Y0: p.DefaultState()}
}

func unknownParam(p Problem, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", dynamo.ErrParameterBounds, p.Name(), name)
}

var registry = map[string]func() Problem{
	"logistic":       func() Problem { return NewLogistic() },
	"lotkavolterra":  func() Problem { return NewLotkaVolterra() },
	"vanderpol":      func() Problem { return NewVanDerPol() },
	"fitzhughnagumo": func() Problem { return NewFitzHughNagumo() },
	"expdecay":       func() Problem { return NewExpDecay() },
	"lorenz":         func() Problem { return NewLorenz() },
	"pendulum":       func() Problem { return NewPendulum() },
	"rossler":        func() Problem { return NewRossler() },
	"duffing":        func() Problem { return NewDuffing() },
}

// Get returns a fresh instance of the named problem.
func Get(name string) (Problem, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(), nil
}

// List returns the registered problem names in sorted order.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
