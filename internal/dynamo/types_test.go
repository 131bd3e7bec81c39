package dynamo

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestNewStateVector(t *testing.T) {
	tests := []struct {
		name  string
		raw   []float64
		valid bool
	}{
		{"earth-like", []float64{1.496e8, 0, 0, 0, 29.78, 0}, true},
		{"zeros", []float64{0, 0, 0, 0, 0, 0}, true},
		{"too short", []float64{1, 2, 3}, false},
		{"too long", []float64{1, 2, 3, 4, 5, 6, 7}, false},
		{"empty", nil, false},
		{"with NaN", []float64{1, math.NaN(), 0, 0, 0, 0}, false},
		{"with +Inf", []float64{1, 0, 0, math.Inf(1), 0, 0}, false},
		{"with -Inf", []float64{1, 0, 0, 0, 0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStateVector(tt.raw, 0)
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidStateVector) {
				t.Errorf("expected ErrInvalidStateVector, got %v", err)
			}
		})
	}
}

func TestStateVector_Validate(t *testing.T) {
	sv, _ := NewStateVector([]float64{0, 0, 0, 1, 0, 0}, 0)
	if err := sv.Validate(); !errors.Is(err, ErrInvalidStateVector) {
		t.Errorf("zero position should be rejected, got %v", err)
	}

	sv, _ = NewStateVector([]float64{1, 0, 0, 0, 0, 0}, 0)
	if err := sv.Validate(); err != nil {
		t.Errorf("zero velocity is a valid state, got %v", err)
	}
}

func TestStateVector_SliceRoundTrip(t *testing.T) {
	raw := []float64{1, 2, 3, 4, 5, 6}
	sv, err := NewStateVector(raw, 12.5)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	got := sv.Slice()
	for i := range raw {
		if got[i] != raw[i] {
			t.Errorf("component %d = %v, want %v", i, got[i], raw[i])
		}
	}
	if sv.Epoch != 12.5 {
		t.Errorf("epoch = %v, want 12.5", sv.Epoch)
	}

	p := sv.Perturb(Vec3{1, 1, 1}, Vec3{-1, -1, -1})
	if sv.R[0] != 1 || p.R[0] != 2 || p.V[2] != 5 {
		t.Errorf("Perturb must not mutate the receiver: %v -> %v", sv, p)
	}
}

func TestVec3_Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if sum := a.Add(b); sum != (Vec3{5, 7, 9}) {
		t.Errorf("Add failed: got %v", sum)
	}
	if diff := b.Sub(a); diff != (Vec3{3, 3, 3}) {
		t.Errorf("Sub failed: got %v", diff)
	}
	if scaled := a.Scale(2); scaled != (Vec3{2, 4, 6}) {
		t.Errorf("Scale failed: got %v", scaled)
	}
	if dot := a.Dot(b); dot != 32 {
		t.Errorf("Dot = %v, want 32", dot)
	}
	if c := (Vec3{1, 0, 0}).Cross(Vec3{0, 1, 0}); c != (Vec3{0, 0, 1}) {
		t.Errorf("Cross = %v, want z", c)
	}
	if n := (Vec3{3, 4, 0}).Norm(); math.Abs(n-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", n)
	}
}

func TestTrajectorySample_PointsRestartable(t *testing.T) {
	s := TrajectorySample{
		Times:      []float64{0, 1, 2},
		Positions:  []Vec3{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
		Velocities: []Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
	}

	for pass := 0; pass < 2; pass++ {
		n := 0
		for tm, p := range s.Points() {
			if tm != float64(n) || p[0] != float64(n+1) {
				t.Errorf("pass %d point %d: got (%v, %v)", pass, n, tm, p)
			}
			n++
		}
		if n != 3 {
			t.Errorf("pass %d yielded %d points, want 3", pass, n)
		}
	}

	if got := s.PositionTriples(); len(got) != 3 || got[2][0] != 3 {
		t.Errorf("PositionTriples = %v", got)
	}
}

func TestHazardCorridor_Warnings(t *testing.T) {
	c := &HazardCorridor{
		Trajectories: []TrajectorySample{{SimulationIndex: 0}, {SimulationIndex: 2}},
		Requested:    3,
	}
	if c.Warnings() != nil || c.Partial() {
		t.Fatal("clean corridor should have no warnings")
	}
	if _, ok := c.Nominal(); !ok {
		t.Error("nominal should be present")
	}

	c.Failures = append(c.Failures, SampleFailure{Index: 1, Wrapped: ErrPropagationFailed})
	err := c.Warnings()
	if !errors.Is(err, ErrPartialCorridorResult) {
		t.Errorf("expected ErrPartialCorridorResult, got %v", err)
	}
	if !errors.Is(err, ErrPropagationFailed) {
		t.Errorf("expected wrapped ErrPropagationFailed, got %v", err)
	}
}

func TestDeflectionParameters_Validate(t *testing.T) {
	base := DeflectionParameters{DeltaV: 0.005, InterceptorMass: 500, AsteroidMass: 3.98e11, LeadTimeDays: 700}

	tests := []struct {
		name   string
		mutate func(p *DeflectionParameters)
		want   error
	}{
		{"valid", func(p *DeflectionParameters) {}, nil},
		{"zero asteroid mass", func(p *DeflectionParameters) { p.AsteroidMass = 0 }, ErrInvalidMass},
		{"NaN asteroid mass", func(p *DeflectionParameters) { p.AsteroidMass = math.NaN() }, ErrInvalidMass},
		{"negative interceptor", func(p *DeflectionParameters) { p.InterceptorMass = -1 }, ErrInvalidMass},
		{"negative lead time", func(p *DeflectionParameters) { p.LeadTimeDays = -5 }, ErrInvalidLeadTime},
		{"zero lead time", func(p *DeflectionParameters) { p.LeadTimeDays = 0 }, ErrInvalidLeadTime},
		{"negative dv", func(p *DeflectionParameters) { p.DeltaV = -0.1 }, ErrInvalidDeltaV},
		{"zero dv", func(p *DeflectionParameters) { p.DeltaV = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := p.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestForEachIndex_SlotsByIndex(t *testing.T) {
	const n = 32
	slots := make([]int, n)
	var calls atomic.Int32

	err := ForEachIndex(context.Background(), n, 4, func(ctx context.Context, idx int) error {
		calls.Add(1)
		slots[idx] = idx * idx
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != n {
		t.Errorf("expected %d calls, got %d", n, calls.Load())
	}
	for i, v := range slots {
		if v != i*i {
			t.Errorf("slot %d = %d, want %d", i, v, i*i)
		}
	}
}

func TestForEachIndex_CancelledStopsLaunching(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	_ = ForEachIndex(ctx, 100, 1, func(ctx context.Context, idx int) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	})

	if got := calls.Load(); got >= 100 {
		t.Errorf("expected launching to stop after cancel, got %d calls", got)
	}
}

func TestSampleFailure_Error(t *testing.T) {
	err := SampleFailure{Index: 4, Wrapped: ErrPropagationFailed}
	expected := "sample 4: dynamo: propagation produced non-finite state"
	if err.Error() != expected {
		t.Errorf("SampleFailure.Error() = %q, want %q", err.Error(), expected)
	}
}
