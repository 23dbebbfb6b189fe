package odefilter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/odefilter/internal/dynamo"
)

// DefaultTolerance is the mean squared difference between successive
// iterates below which AutoConvergence stops.
const DefaultTolerance = 1e-6

// Method is one of Filtering, Smoothing or IteratedSmoothing.
type Method interface {
	fmt.Stringer
	isMethod()
}

// Filtering is a single extended Kalman filter pass.
type Filtering struct{}

// Smoothing is a single filter pass followed by a smoother pass.
type Smoothing struct{}

// IteratedSmoothing repeats the filter-smoother, each time linearising at
// the previous result, until Convergence says stop.
type IteratedSmoothing struct {
	Convergence Convergence
}

func (Filtering) isMethod()         {}
func (Smoothing) isMethod()         {}
func (IteratedSmoothing) isMethod() {}

func (Filtering) String() string { return "ekf" }
func (Smoothing) String() string { return "eks" }

func (m IteratedSmoothing) String() string {
	if m.Convergence == nil {
		return "ieks"
	}
	return "ieks(" + m.Convergence.String() + ")"
}

// Convergence is one of FixedIterations or AutoConvergence.
type Convergence interface {
	fmt.Stringer
	isConvergence()
}

// FixedIterations runs exactly N filter-smoother passes.
type FixedIterations struct {
	N int
}

// AutoConvergence stops once the mean squared difference between
// successive iterates drops to Tol. MaxIter caps the number of passes; zero
// means no cap, in which case a problem that never settles never returns.
type AutoConvergence struct {
	Tol     float64
	MaxIter int
}

func (FixedIterations) isConvergence() {}
func (AutoConvergence) isConvergence() {}

func (c FixedIterations) String() string { return strconv.Itoa(c.N) }

func (c AutoConvergence) String() string {
	if c.MaxIter > 0 {
		return fmt.Sprintf("auto,tol=%g,max=%d", c.tol(), c.MaxIter)
	}
	return fmt.Sprintf("auto,tol=%g", c.tol())
}

func (c AutoConvergence) tol() float64 {
	if c.Tol <= 0 {
		return DefaultTolerance
	}
	return c.Tol
}

// ParseMethod maps a method tag (ekf, eks, ieks) and an iteration budget
// ("auto" or a positive integer, used by ieks only) to a Method.
func ParseMethod(tag, nIter string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "ekf":
		return Filtering{}, nil
	case "eks":
		return Smoothing{}, nil
	case "ieks":
		conv, err := ParseConvergence(nIter)
		if err != nil {
			return nil, err
		}
		return IteratedSmoothing{Convergence: conv}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want ekf, eks or ieks)", dynamo.ErrUnsupportedMethod, tag)
	}
}

// ParseConvergence maps "auto" (or "") to AutoConvergence with the default
// tolerance and a positive integer to FixedIterations.
func ParseConvergence(nIter string) (Convergence, error) {
	s := strings.ToLower(strings.TrimSpace(nIter))
	if s == "" || s == "auto" {
		return AutoConvergence{Tol: DefaultTolerance}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: iteration budget %q is neither \"auto\" nor an integer", dynamo.ErrParameterBounds, nIter)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: iteration budget must be at least 1, got %d", dynamo.ErrParameterBounds, n)
	}
	return FixedIterations{N: n}, nil
}

func validateMethod(m Method) error {
	switch m := m.(type) {
	case Filtering, Smoothing:
		return nil
	case IteratedSmoothing:
		switch c := m.Convergence.(type) {
		case FixedIterations:
			if c.N < 1 {
				return fmt.Errorf("%w: iteration budget must be at least 1, got %d", dynamo.ErrParameterBounds, c.N)
			}
		case AutoConvergence:
			if c.Tol < 0 || c.MaxIter < 0 {
				return fmt.Errorf("%w: tolerance and max iterations must be non-negative", dynamo.ErrParameterBounds)
			}
		case nil:
			return fmt.Errorf("%w: iterated smoothing without a convergence policy", dynamo.ErrPrecondition)
		default:
			return fmt.Errorf("%w: convergence %T", dynamo.ErrUnsupportedMethod, c)
		}
		return nil
	case nil:
		return fmt.Errorf("%w: no method", dynamo.ErrUnsupportedMethod)
	default:
		return fmt.Errorf("%w: %T", dynamo.ErrUnsupportedMethod, m)
	}
}

// singlePass reports whether m runs the engine exactly once.
func singlePass(m Method) bool {
	_, iterated := m.(IteratedSmoothing)
	return !iterated
}
