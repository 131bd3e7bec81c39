package export

import (
	"github.com/san-kum/neodefense/internal/analysis"
	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/metrics"
)

// CorridorMetrics combines encounter statistics with the nominal
// trajectory's orbital invariants. Nil when there is no nominal.
func CorridorMetrics(c *dynamo.HazardCorridor, mu float64) map[string]float64 {
	nominal, ok := c.Nominal()
	if !ok {
		return nil
	}
	m := metrics.Evaluate(nominal, metrics.Invariants(mu)...)
	m["impact_fraction"] = analysis.ImpactFraction(c)
	m["nominal_closest_approach_km"] = analysis.FindCloseApproach(nominal).DistanceKm
	if spread, err := analysis.MaxSpread(c); err == nil {
		m["max_spread_km"] = spread
	}
	maxRate := 0.0
	for _, r := range analysis.CorridorDivergence(c) {
		maxRate = max(maxRate, r)
	}
	m["max_divergence_per_day"] = maxRate
	if nominal.Len() > 1 {
		step := nominal.Times[1] - nominal.Times[0]
		m["earth_distance_period_days"] = analysis.DominantPeriod(analysis.DistanceSeries(nominal, analysis.EarthPosition), step)
	}
	return m
}

// DeflectionMetrics describes the safe trajectory. nominal may be nil, in
// which case the separation entries are left out.
func DeflectionMetrics(res *dynamo.DeflectionResult, nominal *dynamo.TrajectorySample, mu float64) map[string]float64 {
	m := metrics.Evaluate(res.Trajectory, metrics.Invariants(mu)...)
	m["closest_approach_km"] = analysis.FindCloseApproach(res.Trajectory).DistanceKm
	if nominal != nil {
		if sep, err := analysis.Separation(*nominal, res.Trajectory); err == nil {
			m["miss_distance_km"] = sep.FinalKm
			m["max_separation_km"] = sep.MaxKm
		}
	}
	return m
}
