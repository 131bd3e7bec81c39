package optim

import (
	"context"
	"errors"
	"math"
	"testing"
)

func linear(kmPerMs float64) Objective {
	return func(_ context.Context, dv float64) (float64, error) {
		return kmPerMs * dv, nil
	}
}

func TestMinDeltaV(t *testing.T) {
	tests := []struct {
		name     string
		search   Search
		targetKm float64
		wantDv   float64
	}{
		{"interior", DefaultSearch(1), 250, 0.25},
		{"off grid", DefaultSearch(1), 333, 0.333},
		{"at lower bound", Search{Lo: 0.5, Hi: 1, GridSteps: 4, Tolerance: 1e-5}, 100, 0.5},
		{"at upper bound", DefaultSearch(1), 1000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.search.MinDeltaV(context.Background(), linear(1000), tt.targetKm)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.MissKm < tt.targetKm {
				t.Errorf("miss %v below target %v", res.MissKm, tt.targetKm)
			}
			tol := tt.search.Tolerance
			if tol == 0 {
				tol = 1e-4
			}
			if math.Abs(res.DeltaV-tt.wantDv) > tol {
				t.Errorf("dv = %v, want %v ± %v", res.DeltaV, tt.wantDv, tol)
			}
		})
	}
}

func TestMinDeltaV_Unreachable(t *testing.T) {
	res, err := DefaultSearch(1).MinDeltaV(context.Background(), linear(1000), 5000)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("error = %v, want ErrUnreachable", err)
	}
	if res.DeltaV != 1 || res.MissKm != 1000 {
		t.Errorf("best = %+v, want dv 1 miss 1000", res)
	}
	if res.Evaluations != 9 {
		t.Errorf("evaluations = %d, want 9", res.Evaluations)
	}
}

func TestMinDeltaV_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		search Search
		target float64
	}{
		{"negative lo", Search{Lo: -1, Hi: 1}, 10},
		{"empty range", Search{Lo: 1, Hi: 1}, 10},
		{"nan hi", Search{Lo: 0, Hi: math.NaN()}, 10},
		{"zero target", DefaultSearch(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.search.MinDeltaV(context.Background(), linear(1), tt.target)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("error = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestMinDeltaV_ObjectiveErrorAndCancel(t *testing.T) {
	boom := errors.New("boom")
	failing := func(context.Context, float64) (float64, error) { return 0, boom }
	if _, err := DefaultSearch(1).MinDeltaV(context.Background(), failing, 10); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := DefaultSearch(1).MinDeltaV(ctx, linear(1000), 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if res.Evaluations != 0 {
		t.Errorf("evaluations = %d after cancel", res.Evaluations)
	}
}
