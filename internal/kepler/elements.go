// Package kepler converts state vectors to two-body orbital elements and
// advances them in time by solving Kepler's equation.
package kepler

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/neodefense/internal/dynamo"
)

const (
	// MuSun is the Sun's gravitational parameter in km^3/s^2.
	MuSun = 1.32712440018e11

	twoPi = 2 * math.Pi

	// below this ratio the node line or the periapsis is undefined
	singularEps = 1e-11
)

var (
	// ErrRectilinear indicates zero angular momentum (velocity parallel to position).
	ErrRectilinear = errors.New("kepler: rectilinear orbit has no orbital plane")

	// ErrNotElliptic indicates an element set that cannot be evaluated with the elliptic solver.
	ErrNotElliptic = errors.New("kepler: orbit is not elliptic")
)

// Elements is the classical element set of a two-body orbit. Angles are radians.
//
// For equatorial orbits the node is fixed on the +x axis (RAAN = 0) and for
// circular orbits the periapsis is fixed on the node line (ArgPeriapsis = 0),
// so the true anomaly stays measured in the same in-plane basis and
// StateAt(0) reproduces the source state.
type Elements struct {
	SemiMajorAxis float64 // km, negative for hyperbolic orbits
	Eccentricity  float64
	Inclination   float64
	RAAN          float64
	ArgPeriapsis  float64
	TrueAnomaly   float64
	Mu            float64
}

// FromState derives orbital elements from a position/velocity pair.
func FromState(sv dynamo.StateVector, mu float64) (Elements, error) {
	if err := sv.Validate(); err != nil {
		return Elements{}, err
	}
	if !(mu > 0) {
		return Elements{}, fmt.Errorf("kepler: gravitational parameter must be positive, got %g", mu)
	}

	r, v := sv.R, sv.V
	rm, vm := r.Norm(), v.Norm()

	h := r.Cross(v)
	hm := h.Norm()
	if hm <= singularEps*rm*math.Max(vm, 1e-300) {
		return Elements{}, ErrRectilinear
	}

	energy := vm*vm/2 - mu/rm
	a := math.Inf(1)
	if energy != 0 {
		a = -mu / (2 * energy)
	}

	ev := r.Scale(vm*vm - mu/rm).Sub(v.Scale(r.Dot(v))).Scale(1 / mu)
	e := ev.Norm()

	hHat := h.Scale(1 / hm)
	inc := math.Acos(clamp(hHat[2], -1, 1))

	node := dynamo.Vec3{-h[1], h[0], 0}
	nm := node.Norm()

	raan := 0.0
	nHat := dynamo.Vec3{1, 0, 0}
	if nm > singularEps*hm {
		raan = wrap(math.Atan2(node[1], node[0]))
		nHat = node.Scale(1 / nm)
	}
	mHat := hHat.Cross(nHat)

	argp := 0.0
	if e > singularEps {
		argp = wrap(math.Atan2(ev.Dot(mHat), ev.Dot(nHat)))
	}

	sw, cw := math.Sincos(argp)
	pHat := nHat.Scale(cw).Add(mHat.Scale(sw))
	qHat := hHat.Cross(pHat)
	nu := wrap(math.Atan2(r.Dot(qHat), r.Dot(pHat)))

	return Elements{
		SemiMajorAxis: a,
		Eccentricity:  e,
		Inclination:   inc,
		RAAN:          raan,
		ArgPeriapsis:  argp,
		TrueAnomaly:   nu,
		Mu:            mu,
	}, nil
}

func (el Elements) IsElliptic() bool {
	return el.Eccentricity < 1 && el.SemiMajorAxis > 0 && !math.IsInf(el.SemiMajorAxis, 0)
}

// MeanMotion in rad/s.
func (el Elements) MeanMotion() float64 {
	a := el.SemiMajorAxis
	return math.Sqrt(el.Mu / (a * a * a))
}

// Period in days.
func (el Elements) Period() float64 {
	return twoPi / el.MeanMotion() / dynamo.SecondsPerDay
}

// MeanAnomaly at epoch.
func (el Elements) MeanAnomaly() float64 {
	E := eccentricFromTrue(el.TrueAnomaly, el.Eccentricity)
	return E - el.Eccentricity*math.Sin(E)
}

// StateAt evaluates the orbit dtDays after its epoch. A solver that does not
// converge returns an error wrapping dynamo.ErrConvergenceFailure.
func (el Elements) StateAt(dtDays float64) (dynamo.Vec3, dynamo.Vec3, error) {
	return el.stateAt(dtDays, defaultTolerance, defaultMaxIterations)
}

func (el Elements) stateAt(dtDays, tol float64, maxIter int) (dynamo.Vec3, dynamo.Vec3, error) {
	if !el.IsElliptic() {
		return dynamo.Vec3{}, dynamo.Vec3{}, ErrNotElliptic
	}

	nu := el.TrueAnomaly
	if dtDays != 0 {
		M := el.MeanAnomaly() + el.MeanMotion()*dtDays*dynamo.SecondsPerDay
		E, _, err := solveKepler(M, el.Eccentricity, tol, maxIter)
		if err != nil {
			return dynamo.Vec3{}, dynamo.Vec3{}, err
		}
		nu = trueFromEccentric(E, el.Eccentricity)
	}

	r, v := el.perifocal(nu)
	return el.rotate(r), el.rotate(v), nil
}

// perifocal returns position and velocity in the orbital plane at true anomaly nu.
func (el Elements) perifocal(nu float64) (dynamo.Vec3, dynamo.Vec3) {
	e := el.Eccentricity
	p := el.SemiMajorAxis * (1 - e*e)
	sn, cn := math.Sincos(nu)
	radius := p / (1 + e*cn)
	vScale := math.Sqrt(el.Mu / p)
	return dynamo.Vec3{radius * cn, radius * sn, 0}, dynamo.Vec3{-vScale * sn, vScale * (e + cn), 0}
}

// rotate applies R3(RAAN)·R1(i)·R3(argp) to a perifocal vector.
func (el Elements) rotate(v dynamo.Vec3) dynamo.Vec3 {
	sO, cO := math.Sincos(el.RAAN)
	si, ci := math.Sincos(el.Inclination)
	sw, cw := math.Sincos(el.ArgPeriapsis)

	r11 := cO*cw - sO*sw*ci
	r12 := -cO*sw - sO*cw*ci
	r21 := sO*cw + cO*sw*ci
	r22 := -sO*sw + cO*cw*ci
	r31 := sw * si
	r32 := cw * si

	return dynamo.Vec3{
		r11*v[0] + r12*v[1],
		r21*v[0] + r22*v[1],
		r31*v[0] + r32*v[1],
	}
}

// FromElements builds the state at true anomaly el.TrueAnomaly.
func FromElements(el Elements, epoch float64) (dynamo.StateVector, error) {
	r, v, err := el.StateAt(0)
	if err != nil {
		return dynamo.StateVector{}, err
	}
	return dynamo.NewStateVector([]float64{r[0], r[1], r[2], v[0], v[1], v[2]}, epoch)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// wrap maps an angle into [0, 2π).
func wrap(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}
