// Package analysis derives mission-level quantities from propagated
// trajectories and hazard corridors.
//
//   - [FindCloseApproach]: minimum distance to Earth, close approach and impact flags
//   - [Spread]: per-step dispersion of a corridor around its nominal path
//   - [Separation]: miss distance between a nominal and a deflected path
//   - [DivergenceRate]: exponential growth rate of the separation between two paths
//   - [DominantPeriod]: strongest periodicity of a distance series
//   - [ProjectionToASCII]: ecliptic-plane plot of a corridor
//
// Earth is modelled as a fixed point at 1 AU on the +x axis, matching the
// frame the presets are expressed in.
//
//	c, _ := svc.ComputeHazardCorridor(ctx, sv)
//	for _, a := range analysis.CorridorApproaches(c) {
//	    if a.Impact {
//	        // sample a.SimulationIndex hits Earth at a.TimeDays
//	    }
//	}
package analysis
