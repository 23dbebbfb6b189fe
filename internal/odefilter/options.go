package odefilter

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/odefilter/internal/dynamo"
	"github.com/san-kum/odefilter/internal/smoother"
	"go.uber.org/zap"
)

// InitMode selects how the initial belief over the solution derivatives is
// obtained.
type InitMode int

const (
	// InitAuto uses Taylor mode when the system supports series evaluation
	// and the uncertain initializer otherwise.
	InitAuto InitMode = iota
	InitTaylor
	InitUncertain
)

func (m InitMode) String() string {
	switch m {
	case InitAuto:
		return "auto"
	case InitTaylor:
		return "taylor"
	case InitUncertain:
		return "uncertain"
	default:
		return fmt.Sprintf("InitMode(%d)", int(m))
	}
}

func ParseInitMode(s string) (InitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return InitAuto, nil
	case "taylor":
		return InitTaylor, nil
	case "uncertain":
		return InitUncertain, nil
	default:
		return 0, fmt.Errorf("%w: init mode %q", dynamo.ErrUnsupportedMethod, s)
	}
}

// ParseLinearization maps "extended" and "cubature" to their linearizers.
func ParseLinearization(s string) (smoother.Linearizer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "extended", "taylor":
		return smoother.Extended{}, nil
	case "cubature", "slr":
		return smoother.Cubature{}, nil
	default:
		return nil, fmt.Errorf("%w: linearization %q", dynamo.ErrUnsupportedMethod, s)
	}
}

// Options configures a solve.
type Options struct {
	Order     int
	Dt        float64
	Diffusion float64
	Method    Method

	Init         InitMode
	InitVariance float64

	// Linearization defaults to smoother.Extended.
	Linearization smoother.Linearizer
	Parallel      bool

	// ObservationNoise is the standard deviation of the constraint noise.
	// Zero enforces the ODE exactly at every grid point.
	ObservationNoise float64

	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Order:         3,
		Dt:            1e-2,
		Diffusion:     0.1,
		Method:        Filtering{},
		Init:          InitAuto,
		InitVariance:  1,
		Linearization: smoother.Extended{},
		Logger:        zap.NewNop(),
	}
}

func (o *Options) withDefaults() {
	if o.Method == nil {
		o.Method = Filtering{}
	}
	if o.Linearization == nil {
		o.Linearization = smoother.Extended{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func (o Options) validate() error {
	if o.Order < 1 {
		return fmt.Errorf("%w: order must be at least 1, got %d", dynamo.ErrParameterBounds, o.Order)
	}
	if !(o.Dt > 0) || math.IsInf(o.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, o.Dt)
	}
	if !(o.Diffusion > 0) || math.IsInf(o.Diffusion, 0) {
		return fmt.Errorf("%w: diffusion must be positive, got %g", dynamo.ErrParameterBounds, o.Diffusion)
	}
	if o.ObservationNoise < 0 || math.IsNaN(o.ObservationNoise) {
		return fmt.Errorf("%w: observation noise must be non-negative, got %g", dynamo.ErrParameterBounds, o.ObservationNoise)
	}
	if o.Init == InitUncertain && (o.InitVariance < 0 || math.IsNaN(o.InitVariance)) {
		return fmt.Errorf("%w: init variance must be non-negative, got %g", dynamo.ErrParameterBounds, o.InitVariance)
	}
	return validateMethod(o.Method)
}
