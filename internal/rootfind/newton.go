// Package rootfind solves scalar equations f(x) = 0 by Newton-Raphson.
package rootfind

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultTolerance is the residual bound |f(x)| at which iteration stops.
	DefaultTolerance = 1e-10
	// DefaultMaxIterations bounds the number of Newton steps.
	DefaultMaxIterations = 100
)

// ErrZeroDerivative is returned when f'(x) vanishes or is not finite, so no
// Newton step can be taken.
var ErrZeroDerivative = errors.New("rootfind: derivative is zero or not finite")

// Options controls Newton iteration. Zero fields select the defaults.
type Options struct {
	Tolerance     float64
	MaxIterations int
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

// Result is a converged root.
type Result struct {
	Root       float64
	Iterations int // Newton steps taken; 0 when x0 already satisfied the tolerance
	Residual   float64
}

// ConvergenceError reports that the residual was still above tolerance after
// the iteration cap.
type ConvergenceError struct {
	Iterations int
	Last       float64
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("rootfind: no convergence after %d iterations (x=%g, residual=%g)",
		e.Iterations, e.Last, e.Residual)
}

// Newton iterates x ← x − f(x)/f'(x) from x0 while |f(x)| exceeds the
// tolerance. It fails with *ConvergenceError once opts.MaxIterations steps
// have been taken, or with ErrZeroDerivative if a step cannot be computed.
func Newton(f, df func(float64) float64, x0 float64, opts Options) (Result, error) {
	opts = opts.withDefaults()

	x := x0
	fx := f(x)
	for n := 0; ; n++ {
		if math.IsNaN(fx) {
			return Result{}, fmt.Errorf("rootfind: f(%g) is NaN", x)
		}
		if math.Abs(fx) <= opts.Tolerance {
			return Result{Root: x, Iterations: n, Residual: fx}, nil
		}
		if n == opts.MaxIterations {
			return Result{}, &ConvergenceError{Iterations: n, Last: x, Residual: fx}
		}
		d := df(x)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return Result{}, fmt.Errorf("%w at x=%g", ErrZeroDerivative, x)
		}
		x -= fx / d
		fx = f(x)
	}
}

// ErrNotBracketed is returned by Bracketed when f has the same sign at both
// ends of the interval.
var ErrNotBracketed = errors.New("rootfind: root is not bracketed")

// Bracketed finds a root of f inside [lo, hi], where f(lo) and f(hi) have
// opposite signs. Each iteration takes a Newton step and falls back to
// bisection when the step leaves the current bracket or f'(x) is unusable,
// so it converges wherever f is continuous. It fails with *ConvergenceError
// once opts.MaxIterations steps have been taken.
func Bracketed(f, df func(float64) float64, lo, hi float64, opts Options) (Result, error) {
	opts = opts.withDefaults()

	flo, fhi := f(lo), f(hi)
	switch {
	case math.IsNaN(flo) || math.IsNaN(fhi):
		return Result{}, fmt.Errorf("rootfind: f is NaN on [%g, %g]", lo, hi)
	case math.Abs(flo) <= opts.Tolerance:
		return Result{Root: lo, Residual: flo}, nil
	case math.Abs(fhi) <= opts.Tolerance:
		return Result{Root: hi, Residual: fhi}, nil
	case (flo < 0) == (fhi < 0):
		return Result{}, fmt.Errorf("%w: f(%g)=%g, f(%g)=%g", ErrNotBracketed, lo, flo, hi, fhi)
	}
	// neg and pos track the ends where f is negative and positive.
	neg, pos := lo, hi
	if flo > 0 {
		neg, pos = hi, lo
	}

	x := neg + (pos-neg)/2
	fx := f(x)
	for n := 0; ; n++ {
		if math.IsNaN(fx) {
			return Result{}, fmt.Errorf("rootfind: f(%g) is NaN", x)
		}
		if math.Abs(fx) <= opts.Tolerance {
			return Result{Root: x, Iterations: n, Residual: fx}, nil
		}
		if n == opts.MaxIterations {
			return Result{}, &ConvergenceError{Iterations: n, Last: x, Residual: fx}
		}
		if fx < 0 {
			neg = x
		} else {
			pos = x
		}

		next := neg + (pos-neg)/2
		if d := df(x); d != 0 && !math.IsNaN(d) && !math.IsInf(d, 0) {
			if step := x - fx/d; step > min(neg, pos) && step < max(neg, pos) {
				next = step
			}
		}
		x = next
		fx = f(x)
	}
}
