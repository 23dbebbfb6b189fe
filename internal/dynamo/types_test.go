package dynamo

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/san-kum/odefilter/internal/taylor"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_CloneSub(t *testing.T) {
	a := State{1, 2, 3}
	c := a.Clone()
	c[0] = 10
	if a[0] != 1 {
		t.Error("Clone shares storage")
	}

	diff := State{4, 5, 6}.Sub(a)
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}
}

func TestGrid(t *testing.T) {
	tests := []struct {
		name       string
		t0, tmax   float64
		dt         float64
		wantLen    int
		wantLast   float64
		wantFailed bool
	}{
		{"logistic", 0, 10, 0.01, 1001, 10, false},
		{"exact multiple", 0, 1, 0.25, 5, 1, false},
		{"overshoot", 0, 1, 0.3, 5, 1.2, false},
		{"offset start", 2, 3, 0.5, 3, 3, false},
		{"single step", 0, 0.1, 1, 2, 1, false},
		{"zero dt", 0, 1, 0, 0, 0, true},
		{"negative dt", 0, 1, -0.1, 0, 0, true},
		{"empty span", 1, 1, 0.1, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, err := Grid(tt.t0, tt.tmax, tt.dt)
			if tt.wantFailed {
				if !errors.Is(err, ErrParameterBounds) {
					t.Fatalf("expected ErrParameterBounds, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(times) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(times), tt.wantLen)
			}
			if times[0] != tt.t0 {
				t.Errorf("first = %v, want %v", times[0], tt.t0)
			}
			if math.Abs(times[len(times)-1]-tt.wantLast) > 1e-12 {
				t.Errorf("last = %v, want %v", times[len(times)-1], tt.wantLast)
			}
		})
	}
}

func TestIVPValidate(t *testing.T) {
	f := Func(func(_ float64, y State) State { return y })
	tests := []struct {
		name string
		ivp  IVP
		want error
	}{
		{"ok", IVP{System: f, TMax: 1, Y0: State{1}}, nil},
		{"no system", IVP{TMax: 1, Y0: State{1}}, ErrPrecondition},
		{"empty y0", IVP{System: f, TMax: 1}, ErrDimensionMismatch},
		{"nan y0", IVP{System: f, TMax: 1, Y0: State{math.NaN()}}, ErrInvalidState},
		{"backwards", IVP{System: f, T0: 1, TMax: 0, Y0: State{1}}, ErrParameterBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ivp.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSeriesField(t *testing.T) {
	plain := Func(func(_ float64, y State) State { return y })
	if SeriesField(plain) != nil {
		t.Error("plain Func should have no series field")
	}

	called := false
	sf := SeriesFunc{
		F: plain,
		Series: func(_ taylor.Series, y []taylor.Series) []taylor.Series {
			called = true
			return y
		},
	}
	field := SeriesField(sf)
	if field == nil {
		t.Fatal("SeriesFunc should expose its series field")
	}
	field(nil, nil)
	if !called {
		t.Error("series field not forwarded")
	}
	if got := sf.Derive(0, State{2}); got[0] != 2 {
		t.Errorf("Derive = %v", got)
	}
}

func TestSolveError(t *testing.T) {
	err := fmt.Errorf("solve: %w", &SolveError{Step: 3, Time: 0.3, Wrapped: ErrSingular})

	if !errors.Is(err, ErrSingular) {
		t.Error("SolveError does not unwrap to its cause")
	}
	var se *SolveError
	if !errors.As(err, &se) || se.Step != 3 {
		t.Fatalf("errors.As failed: %v", err)
	}
	want := "step 3 (t=0.3000): " + ErrSingular.Error()
	if se.Error() != want {
		t.Errorf("Error() = %q, want %q", se.Error(), want)
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1000} {
		hits := make([]int32, n)
		var calls atomic.Int32
		ParallelFor(n, 16, func(start, end int) {
			calls.Add(1)
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
		if calls.Load() < 1 {
			t.Errorf("n=%d: fn never called", n)
		}
	}
}
