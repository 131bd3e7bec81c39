// Package dynamo provides the core value types shared by the orbit engine.
//
// The package defines the data model passed between the propagator, the
// corridor generator and the deflection model:
//
//   - [StateVector]: position (km) and velocity (km/s) at an epoch
//   - [TrajectorySample]: ordered positions indexed by day offset
//   - [HazardCorridor]: ordered bundle of samples, index 0 is nominal
//   - [DeflectionParameters] and [DeflectionResult]
//
// It also holds the engine's error kinds and [ForEachIndex], the bounded
// fan-out used for embarrassingly parallel work.
//
// # Example
//
//	sv, err := dynamo.NewStateVector([]float64{1.496e8, 0, 0, 0, 29.78, 0}, 0)
//	if err != nil {
//	    return err
//	}
//	sample, err := kepler.NewPropagator(nil).Propagate(ctx, sv, 365, 50)
//
// # Thread Safety
//
// Every type here is a value object owned by the caller that receives it.
// Nothing in the package keeps state between calls.
package dynamo
