package trajectory

import (
	"fmt"
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/kepler"
)

const (
	// AU in km (IAU 2012).
	AU = 1.495978707e8

	deg = math.Pi / 180
)

// FromKilometers validates a raw [x,y,z,vx,vy,vz] vector already in km and km/s.
func FromKilometers(raw []float64) (dynamo.StateVector, error) {
	sv, err := dynamo.NewStateVector(raw, 0)
	if err != nil {
		return dynamo.StateVector{}, err
	}
	if err := sv.Validate(); err != nil {
		return dynamo.StateVector{}, err
	}
	return sv, nil
}

// FromEphemerisAU converts an ephemeris vector in AU and AU/day.
func FromEphemerisAU(raw []float64) (dynamo.StateVector, error) {
	if len(raw) != 6 {
		return dynamo.StateVector{}, fmt.Errorf("%w: expected 6 components, got %d", dynamo.ErrInvalidStateVector, len(raw))
	}
	const velScale = AU / dynamo.SecondsPerDay
	return FromKilometers([]float64{
		raw[0] * AU, raw[1] * AU, raw[2] * AU,
		raw[3] * velScale, raw[4] * velScale, raw[5] * velScale,
	})
}

// ElementsInput is a heliocentric osculating element set as published by
// ephemeris services. Angles are degrees.
type ElementsInput struct {
	SemiMajorAxisAU float64 `json:"a_au" yaml:"a_au"`
	Eccentricity    float64 `json:"e" yaml:"e"`
	InclinationDeg  float64 `json:"i_deg" yaml:"i_deg"`
	NodeDeg         float64 `json:"node_deg" yaml:"node_deg"`
	PeriapsisDeg    float64 `json:"peri_deg" yaml:"peri_deg"`
	TrueAnomalyDeg  float64 `json:"nu_deg" yaml:"nu_deg"`
}

// FromOrbitalElements converts an elliptic element set to a state vector
// using the Sun's gravitational parameter.
func FromOrbitalElements(in ElementsInput) (dynamo.StateVector, error) {
	vals := []float64{in.SemiMajorAxisAU, in.Eccentricity, in.InclinationDeg, in.NodeDeg, in.PeriapsisDeg, in.TrueAnomalyDeg}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.StateVector{}, fmt.Errorf("%w: non-finite orbital element", dynamo.ErrInvalidStateVector)
		}
	}
	if !(in.SemiMajorAxisAU > 0) {
		return dynamo.StateVector{}, &dynamo.ValidationError{Field: "a_au", Value: in.SemiMajorAxisAU, Wrapped: dynamo.ErrInvalidStateVector}
	}
	if in.Eccentricity < 0 || in.Eccentricity >= 1 {
		return dynamo.StateVector{}, &dynamo.ValidationError{Field: "e", Value: in.Eccentricity, Wrapped: dynamo.ErrInvalidStateVector}
	}

	el := kepler.Elements{
		SemiMajorAxis: in.SemiMajorAxisAU * AU,
		Eccentricity:  in.Eccentricity,
		Inclination:   in.InclinationDeg * deg,
		RAAN:          in.NodeDeg * deg,
		ArgPeriapsis:  in.PeriapsisDeg * deg,
		TrueAnomaly:   in.TrueAnomalyDeg * deg,
		Mu:            kepler.MuSun,
	}
	sv, err := kepler.FromElements(el, 0)
	if err != nil {
		return dynamo.StateVector{}, fmt.Errorf("%w: %w", dynamo.ErrInvalidStateVector, err)
	}
	return sv, nil
}
