// Package massmodel estimates asteroid mass from diameter and spectral type.
//
// Estimates are memoized in a bounded LRU cache owned by the Estimator, so
// repeated lookups for the same body during a session are free and memory
// stays capped.
package massmodel

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/san-kum/neodefense/internal/dynamo"
)

const DefaultCacheSize = 256

// Bulk densities in kg/m^3.
var densities = map[string]float64{
	"C": 1380,
	"S": 2720,
	"M": 5320,
}

const defaultDensity = 2000.0

// Density returns the bulk density for a spectral class. Unknown classes use
// the generic rocky density.
func Density(spectralType string) float64 {
	if d, ok := densities[normalize(spectralType)]; ok {
		return d
	}
	return defaultDensity
}

func normalize(spectralType string) string {
	s := strings.ToUpper(strings.TrimSpace(spectralType))
	if s == "" {
		return s
	}
	// "Sq", "Ch", "Xk" and friends share the density of their complex.
	return s[:1]
}

type key struct {
	diameter float64
	class    string
}

// Estimator computes sphere-volume masses and caches them.
// Safe for concurrent use.
type Estimator struct {
	cache  *lru.Cache[key, float64]
	logger *slog.Logger
}

func NewEstimator(size int, logger *slog.Logger) (*Estimator, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cache, err := lru.New[key, float64](size)
	if err != nil {
		return nil, fmt.Errorf("mass cache: %w", err)
	}
	return &Estimator{cache: cache, logger: logger}, nil
}

// Mass returns the mass in kg of a sphere of diameterM metres.
func (e *Estimator) Mass(diameterM float64, spectralType string) (float64, error) {
	if !(diameterM > 0) || math.IsInf(diameterM, 0) {
		return 0, &dynamo.ValidationError{Field: "diameter_m", Value: diameterM, Wrapped: dynamo.ErrInvalidMass}
	}

	k := key{diameter: diameterM, class: normalize(spectralType)}
	if m, ok := e.cache.Get(k); ok {
		return m, nil
	}

	r := diameterM / 2
	m := Density(spectralType) * 4.0 / 3.0 * math.Pi * r * r * r
	e.cache.Add(k, m)

	e.logger.Debug("mass estimated",
		"component", "massmodel",
		"diameter_m", diameterM,
		"spectral_type", k.class,
		"mass_kg", m,
	)
	return m, nil
}

// Len is the number of cached estimates.
func (e *Estimator) Len() int { return e.cache.Len() }

// Cached reports whether an estimate is held without touching its recency.
func (e *Estimator) Cached(diameterM float64, spectralType string) bool {
	return e.cache.Contains(key{diameter: diameterM, class: normalize(spectralType)})
}

func (e *Estimator) Purge() { e.cache.Purge() }
