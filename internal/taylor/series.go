// Package taylor implements truncated Taylor series arithmetic and a
// Taylor-mode engine that computes the leading derivatives of an ODE
// solution at its initial point.
//
// A Series s of length n stands for s[0] + s[1]τ + ... + s[n-1]τ^(n-1).
// Every operation returns a new series with the length of its first
// operand; missing coefficients of a shorter second operand read as zero.
package taylor

import "math"

type Series []float64

// Field is a vector field evaluated on Taylor series, f(t(τ), y(τ)).
type Field func(t Series, y []Series) []Series

// Const returns the series of the constant c.
func Const(c float64, n int) Series {
	s := make(Series, n)
	if n > 0 {
		s[0] = c
	}
	return s
}

// Variable returns the series of x0 + τ.
func Variable(x0 float64, n int) Series {
	s := Const(x0, n)
	if n > 1 {
		s[1] = 1
	}
	return s
}

func (s Series) Value() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

func (s Series) Clone() Series {
	c := make(Series, len(s))
	copy(c, s)
	return c
}

func coef(s Series, k int) float64 {
	if k < len(s) {
		return s[k]
	}
	return 0
}

func Add(a, b Series) Series {
	r := make(Series, len(a))
	for k := range r {
		r[k] = a[k] + coef(b, k)
	}
	return r
}

func Sub(a, b Series) Series {
	r := make(Series, len(a))
	for k := range r {
		r[k] = a[k] - coef(b, k)
	}
	return r
}

func Neg(a Series) Series {
	return Scale(a, -1)
}

func Scale(a Series, c float64) Series {
	r := make(Series, len(a))
	for k := range r {
		r[k] = c * a[k]
	}
	return r
}

// Shift returns a + c.
func Shift(a Series, c float64) Series {
	r := a.Clone()
	if len(r) > 0 {
		r[0] += c
	}
	return r
}

// Mul is the Cauchy product truncated to len(a).
func Mul(a, b Series) Series {
	r := make(Series, len(a))
	for k := range r {
		sum := 0.0
		for j := 0; j <= k; j++ {
			sum += a[j] * coef(b, k-j)
		}
		r[k] = sum
	}
	return r
}

func Square(a Series) Series {
	return Mul(a, a)
}

// PowInt returns a^n for n >= 0.
func PowInt(a Series, n int) Series {
	result := Const(1, len(a))
	base := a.Clone()
	for n > 0 {
		if n&1 == 1 {
			result = Mul(result, base)
		}
		base = Mul(base, base)
		n >>= 1
	}
	return result
}

// Div returns a / b. b[0] must be nonzero.
func Div(a, b Series) Series {
	r := make(Series, len(a))
	b0 := coef(b, 0)
	for k := range r {
		sum := a[k]
		for j := 1; j <= k; j++ {
			sum -= coef(b, j) * r[k-j]
		}
		r[k] = sum / b0
	}
	return r
}

func Exp(a Series) Series {
	r := make(Series, len(a))
	if len(r) == 0 {
		return r
	}
	r[0] = math.Exp(a[0])
	for k := 1; k < len(r); k++ {
		sum := 0.0
		for j := 1; j <= k; j++ {
			sum += float64(j) * a[j] * r[k-j]
		}
		r[k] = sum / float64(k)
	}
	return r
}

// Log returns the natural logarithm; a[0] must be positive.
func Log(a Series) Series {
	r := make(Series, len(a))
	if len(r) == 0 {
		return r
	}
	r[0] = math.Log(a[0])
	for k := 1; k < len(r); k++ {
		sum := 0.0
		for j := 1; j < k; j++ {
			sum += float64(j) * r[j] * a[k-j]
		}
		r[k] = (a[k] - sum/float64(k)) / a[0]
	}
	return r
}

// Sqrt returns the principal square root; a[0] must be positive.
func Sqrt(a Series) Series {
	r := make(Series, len(a))
	if len(r) == 0 {
		return r
	}
	r[0] = math.Sqrt(a[0])
	for k := 1; k < len(r); k++ {
		sum := 0.0
		for j := 1; j < k; j++ {
			sum += r[j] * r[k-j]
		}
		r[k] = (a[k] - sum) / (2 * r[0])
	}
	return r
}

// SinCos returns sin(a) and cos(a) computed by their coupled recurrence.
func SinCos(a Series) (Series, Series) {
	s := make(Series, len(a))
	c := make(Series, len(a))
	if len(a) == 0 {
		return s, c
	}
	s[0], c[0] = math.Sincos(a[0])
	for k := 1; k < len(a); k++ {
		ss, cs := 0.0, 0.0
		for j := 1; j <= k; j++ {
			ja := float64(j) * a[j]
			ss += ja * c[k-j]
			cs += ja * s[k-j]
		}
		s[k] = ss / float64(k)
		c[k] = -cs / float64(k)
	}
	return s, c
}

func Sin(a Series) Series {
	s, _ := SinCos(a)
	return s
}

func Cos(a Series) Series {
	_, c := SinCos(a)
	return c
}
