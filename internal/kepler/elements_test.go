package kepler

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/neodefense/internal/dynamo"
)

func TestFromState_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  []float64
	}{
		{"earth-like", []float64{1.496e8, 0, 0, 0, 29.78, 0}},
		{"inclined eccentric", []float64{1.2e8, 4e7, -1e7, -8, 31, 3}},
		{"retrograde", []float64{1.5e8, 2e7, 1e6, 3, -28, 1.5}},
		{"equatorial eccentric", []float64{1.1e8, -3e7, 0, 10, 33, 0}},
		{"circular inclined", []float64{1.496e8, 0, 0, 0, 29.785 * math.Cos(0.3), 29.785 * math.Sin(0.3)}},
		{"highly eccentric", []float64{5e7, 0, 0, 0, 68, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv := mustState(t, tt.raw...)
			el, err := FromState(sv, MuSun)
			if err != nil {
				t.Fatalf("FromState failed: %v", err)
			}
			r, v, err := el.StateAt(0)
			if err != nil {
				t.Fatalf("StateAt failed: %v", err)
			}
			if re := r.Sub(sv.R).Norm() / sv.R.Norm(); re > 1e-6 {
				t.Errorf("position relative error %e", re)
			}
			if re := v.Sub(sv.V).Norm() / sv.V.Norm(); re > 1e-6 {
				t.Errorf("velocity relative error %e", re)
			}
		})
	}
}

func TestFromState_EarthLikePeriod(t *testing.T) {
	el, err := FromState(mustState(t, 1.496e8, 0, 0, 0, 29.78, 0), MuSun)
	if err != nil {
		t.Fatalf("FromState failed: %v", err)
	}
	if el.Eccentricity > 0.01 {
		t.Errorf("expected near-circular orbit, e=%v", el.Eccentricity)
	}
	if p := el.Period(); math.Abs(p-365) > 3 {
		t.Errorf("period = %.2f d, want ~365", p)
	}
	if el.Inclination != 0 || el.RAAN != 0 {
		t.Errorf("equatorial orbit should have i=0 and RAAN=0, got %v %v", el.Inclination, el.RAAN)
	}
}

func TestFromState_Retrograde(t *testing.T) {
	el, err := FromState(mustState(t, 1.5e8, 0, 0, 0, -29, 0.5), MuSun)
	if err != nil {
		t.Fatalf("FromState failed: %v", err)
	}
	if el.Inclination <= math.Pi/2 {
		t.Errorf("retrograde orbit should have i > 90 deg, got %v rad", el.Inclination)
	}
}

func TestFromState_Rectilinear(t *testing.T) {
	_, err := FromState(mustState(t, 1.496e8, 0, 0, 7, 0, 0), MuSun)
	if !errors.Is(err, ErrRectilinear) {
		t.Errorf("expected ErrRectilinear, got %v", err)
	}
}

func TestFromElements(t *testing.T) {
	el := Elements{
		SemiMajorAxis: 1.8e8,
		Eccentricity:  0.2,
		Inclination:   0.1,
		RAAN:          1.2,
		ArgPeriapsis:  0.7,
		TrueAnomaly:   2.0,
		Mu:            MuSun,
	}
	sv, err := FromElements(el, 3)
	if err != nil {
		t.Fatalf("FromElements failed: %v", err)
	}
	if sv.Epoch != 3 {
		t.Errorf("epoch = %v, want 3", sv.Epoch)
	}

	back, err := FromState(sv, MuSun)
	if err != nil {
		t.Fatalf("FromState failed: %v", err)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"a", back.SemiMajorAxis, el.SemiMajorAxis},
		{"e", back.Eccentricity, el.Eccentricity},
		{"i", back.Inclination, el.Inclination},
		{"raan", back.RAAN, el.RAAN},
		{"argp", back.ArgPeriapsis, el.ArgPeriapsis},
		{"nu", back.TrueAnomaly, el.TrueAnomaly},
	}
	for _, c := range checks {
		if relErr(c.got, c.want) > 1e-6 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if _, err := FromElements(Elements{SemiMajorAxis: -1e8, Eccentricity: 1.5, Mu: MuSun}, 0); !errors.Is(err, ErrNotElliptic) {
		t.Errorf("expected ErrNotElliptic, got %v", err)
	}
}

func TestSolveKepler_Converges(t *testing.T) {
	for _, e := range []float64{0, 0.1, 0.3, 0.5, 0.7, 0.8, 0.9, 0.95, 0.97} {
		for _, M := range []float64{0, 0.01, 0.5, 1, 2, math.Pi, 4, 6.2} {
			E, iters, err := SolveKepler(M, e)
			if err != nil {
				t.Fatalf("e=%v M=%v: %v", e, M, err)
			}
			if iters > defaultMaxIterations {
				t.Errorf("e=%v M=%v: %d iterations", e, M, iters)
			}
			if res := E - e*math.Sin(E) - wrap(M); math.Abs(res) > 1e-8 {
				t.Errorf("e=%v M=%v: residual %e", e, M, res)
			}
		}
	}
}

func TestSolveKepler_Budget(t *testing.T) {
	_, _, err := solveKepler(2.5, 0.9, 1e-300, 2)
	if !errors.Is(err, dynamo.ErrConvergenceFailure) {
		t.Errorf("expected ErrConvergenceFailure, got %v", err)
	}
}
