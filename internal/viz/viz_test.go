package viz

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/san-kum/neodefense/internal/analysis"
	"github.com/san-kum/neodefense/internal/dynamo"
)

func pass(idx int, offsetKm float64, n int) dynamo.TrajectorySample {
	s := dynamo.TrajectorySample{SimulationIndex: idx}
	for i := range n {
		t := float64(i)
		s.Times = append(s.Times, t)
		s.Positions = append(s.Positions, analysis.EarthPosition.Add(dynamo.Vec3{0, (t - float64(n/2)) * 1e5, offsetKm}))
		s.Velocities = append(s.Velocities, dynamo.Vec3{0, 1, 0})
	}
	return s
}

func TestCorridorSummary(t *testing.T) {
	tests := []struct {
		name   string
		offset float64
		want   string
	}{
		{"impact", 1000, "IMPACT"},
		{"close", 30000, "CLOSE"},
		{"clear", 5e6, "CLEAR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &dynamo.HazardCorridor{
				Requested:    3,
				Trajectories: []dynamo.TrajectorySample{pass(0, tt.offset, 11), pass(1, tt.offset+10, 11)},
				Failures:     []dynamo.SampleFailure{{Index: 2, Wrapped: dynamo.ErrPropagationFailed}},
			}
			out := CorridorSummary("test", c)
			for _, s := range []string{tt.want, "2/3", "sample 2", "max spread"} {
				if !strings.Contains(out, s) {
					t.Errorf("summary missing %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestCorridorSummary_NoNominal(t *testing.T) {
	c := &dynamo.HazardCorridor{Requested: 4, Cancelled: true}
	out := CorridorSummary("empty", c)
	if !strings.Contains(out, "cancelled") || !strings.Contains(out, "not available") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestDeflectionSummary(t *testing.T) {
	p := dynamo.DeflectionParameters{DeltaV: 0.5, InterceptorMass: 500, AsteroidMass: 1e5, LeadTimeDays: 700}
	res := &dynamo.DeflectionResult{EffectiveDeltaV: 0.00765, Trajectory: pass(0, 2e5, 5)}
	sep := &analysis.SeparationSummary{FinalKm: 1234.5, MaxKm: 1234.5}

	out := DeflectionSummary(p, res, 0.018, sep)
	for _, s := range []string{"0.00765", "CLEAR", "1234.5 km", "700 days"} {
		if !strings.Contains(out, s) {
			t.Errorf("summary missing %q:\n%s", s, out)
		}
	}
	if strings.Contains(DeflectionSummary(p, res, 0.018, nil), "miss distance") {
		t.Error("miss distance shown without a separation")
	}
}

func TestDistancePlot(t *testing.T) {
	c := &dynamo.HazardCorridor{}
	for i := range 8 {
		c.Trajectories = append(c.Trajectories, pass(i, float64(i)*1e4, 20))
	}
	out := DistancePlot(c, 40, 8)
	if !strings.Contains(out, "6 of 8 samples") {
		t.Errorf("caption missing sample count:\n%s", out)
	}
	if DistancePlot(&dynamo.HazardCorridor{}, 40, 8) != "" {
		t.Error("empty corridor should render nothing")
	}
}

func TestSeparationAndSweepPlots(t *testing.T) {
	if SeparationPlot(analysis.SeparationSummary{}, 40, 5) != "" {
		t.Error("empty separation should render nothing")
	}
	if out := SeparationPlot(analysis.SeparationSummary{Series: []float64{0, 1, 4, 9}}, 40, 5); !strings.Contains(out, "separation") {
		t.Errorf("unexpected plot:\n%s", out)
	}
	if out := SweepPlot([]float64{0, 10, 20}, 0, 1, 40, 5); !strings.Contains(out, "miss distance") {
		t.Errorf("unexpected plot:\n%s", out)
	}
}

func TestProgressBar(t *testing.T) {
	for _, p := range []float64{-1, 0, 0.5, 1, 2} {
		bar := ProgressBar(p, 20)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 20 {
			t.Errorf("ProgressBar(%v) has %d cells, want 20", p, n)
		}
	}
}

func TestSparkline(t *testing.T) {
	out := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8)
	if !strings.Contains(out, "▁") || !strings.Contains(out, "█") {
		t.Errorf("sparkline missing extremes: %q", out)
	}
	if got := utf8.RuneCountInString(Sparkline(nil, 5)); got != 5 {
		t.Errorf("empty sparkline width %d, want 5", got)
	}
}
