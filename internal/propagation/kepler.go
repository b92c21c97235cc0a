package propagation

import (
	"errors"
	"math"

	"github.com/kreyysyy/orbit/internal/rootfind"
)

const deg = math.Pi / 180

// SolveKepler solves E − e·sin E = M for the eccentric anomaly E, with E and
// M in degrees. A circular orbit returns M unchanged without iterating.
//
// The first pass is Newton-Raphson from E = 0 with the slope 1 − e·cos E,
// which omits the degree factor of the true derivative. It converges on
// near-circular orbits but stalls or oscillates on eccentric ones, so when
// it exhausts the iteration cap the root is taken from a safeguarded solve
// with the exact slope, bracketed by M ± e·180/π. The *ConvergenceError of
// the first pass is returned only if that solve fails too.
func SolveKepler(m, e float64, opts rootfind.Options) (rootfind.Result, error) {
	if e == 0 {
		return rootfind.Result{Root: m}, nil
	}
	f := func(E float64) float64 { return E - e*math.Sin(E*deg) - m }
	df := func(E float64) float64 { return 1 - e*math.Cos(E*deg) }

	res, err := rootfind.Newton(f, df, 0, opts)
	var ce *rootfind.ConvergenceError
	if !errors.As(err, &ce) {
		return res, err
	}

	exact := func(E float64) float64 { return 1 - e*math.Cos(E*deg)*deg }
	span := e / deg
	safe, serr := rootfind.Bracketed(f, exact, m-span, m+span, opts)
	if serr != nil {
		return rootfind.Result{}, err
	}
	safe.Iterations += ce.Iterations
	return safe, nil
}
