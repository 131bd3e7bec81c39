// Package optim searches impactor delta-v for the smallest push that moves a
// trajectory a target distance.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnreachable  = errors.New("optim: target not reachable within range")
	ErrInvalidRange = errors.New("optim: invalid search range")
)

// Objective maps an impactor delta-v (m/s) to a miss distance (km).
type Objective func(ctx context.Context, dv float64) (float64, error)

// Search brackets the target on a coarse grid over [Lo, Hi] and then
// bisects the bracket down to Tolerance.
type Search struct {
	Lo, Hi    float64
	GridSteps int
	Tolerance float64
	MaxIter   int
}

func DefaultSearch(hi float64) Search {
	return Search{Lo: 0, Hi: hi, GridSteps: 8, Tolerance: 1e-4, MaxIter: 40}
}

type Result struct {
	DeltaV      float64
	MissKm      float64
	Evaluations int
}

// MinDeltaV returns the smallest grid-bracketed delta-v whose miss distance
// reaches targetKm. The result always satisfies MissKm >= targetKm. When no
// grid point reaches the target the error wraps ErrUnreachable and the
// result holds the best point seen.
func (s Search) MinDeltaV(ctx context.Context, f Objective, targetKm float64) (Result, error) {
	if !(s.Lo >= 0) || !(s.Hi > s.Lo) || math.IsInf(s.Hi, 0) {
		return Result{}, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, s.Lo, s.Hi)
	}
	if !(targetKm > 0) {
		return Result{}, fmt.Errorf("%w: target %g km", ErrInvalidRange, targetKm)
	}
	if s.GridSteps < 1 {
		s.GridSteps = 8
	}
	if !(s.Tolerance > 0) {
		s.Tolerance = 1e-4
	}
	if s.MaxIter < 1 {
		s.MaxIter = 40
	}

	var res Result
	eval := func(dv float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		res.Evaluations++
		return f(ctx, dv)
	}

	best := Result{MissKm: math.Inf(-1)}
	step := (s.Hi - s.Lo) / float64(s.GridSteps)
	lo, hi := s.Lo, math.NaN()
	hiMiss := 0.0
	for i := 0; i <= s.GridSteps; i++ {
		dv := s.Lo + float64(i)*step
		miss, err := eval(dv)
		if err != nil {
			return res, err
		}
		if miss > best.MissKm {
			best.DeltaV, best.MissKm = dv, miss
		}
		if miss >= targetKm {
			if i == 0 {
				res.DeltaV, res.MissKm = dv, miss
				return res, nil
			}
			hi, hiMiss = dv, miss
			break
		}
		lo = dv
	}
	if math.IsNaN(hi) {
		best.Evaluations = res.Evaluations
		return best, fmt.Errorf("%w: best %.1f km at %g m/s, want %.1f km", ErrUnreachable, best.MissKm, best.DeltaV, targetKm)
	}

	for iter := 0; iter < s.MaxIter && hi-lo > s.Tolerance; iter++ {
		mid := lo + (hi-lo)/2
		miss, err := eval(mid)
		if err != nil {
			return res, err
		}
		if miss >= targetKm {
			hi, hiMiss = mid, miss
		} else {
			lo = mid
		}
	}

	res.DeltaV, res.MissKm = hi, hiMiss
	return res, nil
}
