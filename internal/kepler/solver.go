package kepler

import (
	"fmt"
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
)

const (
	defaultTolerance     = 1e-8
	defaultMaxIterations = 50
)

// SolveKepler solves M = E - e·sin(E) for the eccentric anomaly with
// Newton-Raphson. It returns the iteration count used.
func SolveKepler(M, e float64) (float64, int, error) {
	return solveKepler(M, e, defaultTolerance, defaultMaxIterations)
}

func solveKepler(M, e, tol float64, maxIter int) (float64, int, error) {
	M = wrap(M)

	E := M
	if e >= 0.8 {
		E = math.Pi
	}

	for i := 1; i <= maxIter; i++ {
		sE, cE := math.Sincos(E)
		f := E - e*sE - M
		fp := 1 - e*cE
		dE := f / fp
		E -= dE
		if math.Abs(dE) < tol {
			return E, i, nil
		}
	}

	return E, maxIter, fmt.Errorf("%w: M=%.6f e=%.6f after %d iterations", dynamo.ErrConvergenceFailure, M, e, maxIter)
}

func trueFromEccentric(E, e float64) float64 {
	sh, ch := math.Sincos(E / 2)
	return wrap(2 * math.Atan2(math.Sqrt(1+e)*sh, math.Sqrt(1-e)*ch))
}

func eccentricFromTrue(nu, e float64) float64 {
	sh, ch := math.Sincos(nu / 2)
	return 2 * math.Atan2(math.Sqrt(1-e)*sh, math.Sqrt(1+e)*ch)
}
