package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is a named asteroid with everything needed to run a corridor and
// a deflection against it. State is [x,y,z,vx,vy,vz] in km and km/s.
type Scenario struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description"`
	State        []float64 `yaml:"state_vector"`
	DiameterM    float64   `yaml:"diameter_m"`
	SpectralType string    `yaml:"spectral_type"`
	// AsteroidMass overrides the diameter/spectral estimate when non-zero.
	AsteroidMass float64 `yaml:"asteroid_mass_kg,omitempty"`
	LeadTimeDays float64 `yaml:"lead_time_days"`
}

// Heliocentric ecliptic states near perihelion.
var Presets = map[string]*Scenario{
	"earth_like": {
		Name:         "earth_like",
		Description:  "near-circular 1 AU orbit",
		State:        []float64{1.496e8, 0, 0, 0, 29.78, 0},
		DiameterM:    370,
		SpectralType: "S",
		AsteroidMass: 3.98e11,
		LeadTimeDays: DefaultLeadTimeDays,
	},
	"apophis": {
		Name:         "apophis",
		Description:  "Aten-class, a=0.92 AU e=0.19 i=3.3 deg",
		State:        []float64{1.116e8, 0, 0, 0, 37.58, 2.17},
		DiameterM:    370,
		SpectralType: "Sq",
		AsteroidMass: 6.1e10,
		LeadTimeDays: 1800,
	},
	"bennu": {
		Name:         "bennu",
		Description:  "Apollo-class, a=1.13 AU e=0.20 i=6.0 deg",
		State:        []float64{1.341e8, 0, 0, 0, 34.34, 3.61},
		DiameterM:    490,
		SpectralType: "B",
		AsteroidMass: 7.33e10,
		LeadTimeDays: 3650,
	},
	"didymos": {
		Name:         "didymos",
		Description:  "DART target system, a=1.64 AU e=0.38",
		State:        []float64{1.517e8, 0, 0, 0, 36.14, 1.97},
		DiameterM:    780,
		SpectralType: "S",
		LeadTimeDays: 365,
	},
	"short_warning": {
		Name:         "short_warning",
		Description:  "small C-type with 60 days of warning",
		State:        []float64{1.42e8, 2.1e7, 3e5, -4.2, 30.1, 0.4},
		DiameterM:    140,
		SpectralType: "C",
		LeadTimeDays: 60,
	},
}

func GetPreset(name string) *Scenario {
	s, ok := Presets[name]
	if !ok {
		return nil
	}
	return s
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LoadScenario reads a single scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(s.State) != 6 {
		return nil, fmt.Errorf("%s: state_vector needs 6 components, got %d", path, len(s.State))
	}
	return &s, nil
}
