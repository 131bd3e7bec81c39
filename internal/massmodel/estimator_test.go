package massmodel

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/neodefense/internal/dynamo"
)

func TestDensity(t *testing.T) {
	tests := []struct {
		class string
		want  float64
	}{
		{"C", 1380},
		{"S", 2720},
		{"M", 5320},
		{"s", 2720},
		{"Sq", 2720},
		{" Ch ", 1380},
		{"X", 2000},
		{"", 2000},
	}

	for _, tt := range tests {
		if got := Density(tt.class); got != tt.want {
			t.Errorf("Density(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestEstimator_Mass(t *testing.T) {
	est, err := NewEstimator(4, nil)
	if err != nil {
		t.Fatalf("new estimator: %v", err)
	}

	got, err := est.Mass(370, "S")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 2720 * 4.0 / 3.0 * math.Pi * math.Pow(185, 3)
	if math.Abs(got-want)/want > 1e-12 {
		t.Errorf("Mass(370, S) = %e, want %e", got, want)
	}

	again, _ := est.Mass(370, "s")
	if again != got || est.Len() != 1 {
		t.Errorf("expected cache hit, len=%d", est.Len())
	}

	for _, d := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		if _, err := est.Mass(d, "C"); !errors.Is(err, dynamo.ErrInvalidMass) {
			t.Errorf("diameter %v: expected ErrInvalidMass, got %v", d, err)
		}
	}
}

func TestEstimator_EvictsLeastRecentlyUsed(t *testing.T) {
	est, err := NewEstimator(2, nil)
	if err != nil {
		t.Fatalf("new estimator: %v", err)
	}

	est.Mass(100, "C")
	est.Mass(200, "C")
	est.Mass(100, "C") // refresh 100
	est.Mass(300, "C") // evicts 200

	if est.Len() != 2 {
		t.Errorf("cache size = %d, want 2", est.Len())
	}
	if !est.Cached(100, "C") || !est.Cached(300, "C") {
		t.Error("recently used entries should be cached")
	}
	if est.Cached(200, "C") {
		t.Error("least recently used entry should be evicted")
	}

	est.Purge()
	if est.Len() != 0 {
		t.Errorf("purge left %d entries", est.Len())
	}
}

func TestNewEstimator_DefaultSize(t *testing.T) {
	est, err := NewEstimator(0, nil)
	if err != nil {
		t.Fatalf("new estimator: %v", err)
	}
	for i := 1; i <= DefaultCacheSize+10; i++ {
		est.Mass(float64(i), "M")
	}
	if est.Len() != DefaultCacheSize {
		t.Errorf("cache size = %d, want %d", est.Len(), DefaultCacheSize)
	}
}
