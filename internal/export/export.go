// Package export encodes corridors and deflection results as JSON documents
// and CSV tables.
package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/neodefense/internal/dynamo"
)

type TrajectoryDoc struct {
	SimulationIndex int          `json:"simulation_index"`
	Degraded        bool         `json:"degraded"`
	Times           []float64    `json:"times_days"`
	Positions       [][3]float64 `json:"positions_km"`
}

type CorridorDoc struct {
	InitialState []float64          `json:"initial_state_vector"`
	Seed         *int64             `json:"seed,omitempty"`
	Requested    int                `json:"requested"`
	Returned     int                `json:"returned"`
	Cancelled    bool               `json:"cancelled"`
	Warnings     []string           `json:"warnings,omitempty"`
	Trajectories []TrajectoryDoc    `json:"hazard_corridor"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

type DeflectionDoc struct {
	InitialState    []float64          `json:"initial_state_vector"`
	DeltaV          float64            `json:"required_dv_ms"`
	InterceptorMass float64            `json:"interceptor_mass_kg"`
	AsteroidMass    float64            `json:"asteroid_mass_kg"`
	LeadTimeDays    float64            `json:"lead_time_days"`
	EffectiveDeltaV float64            `json:"effective_dv_ms"`
	DeflectedState  []float64          `json:"deflected_state_vector"`
	Trajectory      TrajectoryDoc      `json:"safe_trajectory"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

func NewTrajectoryDoc(s dynamo.TrajectorySample) TrajectoryDoc {
	return TrajectoryDoc{
		SimulationIndex: s.SimulationIndex,
		Degraded:        s.Degraded,
		Times:           s.Times,
		Positions:       s.PositionTriples(),
	}
}

func NewCorridorDoc(sv dynamo.StateVector, c *dynamo.HazardCorridor, seed *int64) CorridorDoc {
	doc := CorridorDoc{
		InitialState: sv.Slice(),
		Seed:         seed,
		Requested:    c.Requested,
		Returned:     len(c.Trajectories),
		Cancelled:    c.Cancelled,
		Trajectories: make([]TrajectoryDoc, len(c.Trajectories)),
	}
	for i, s := range c.Trajectories {
		doc.Trajectories[i] = NewTrajectoryDoc(s)
	}
	for _, f := range c.Failures {
		doc.Warnings = append(doc.Warnings, f.Error())
	}
	return doc
}

func NewDeflectionDoc(sv dynamo.StateVector, p dynamo.DeflectionParameters, res *dynamo.DeflectionResult) DeflectionDoc {
	return DeflectionDoc{
		InitialState:    sv.Slice(),
		DeltaV:          p.DeltaV,
		InterceptorMass: p.InterceptorMass,
		AsteroidMass:    p.AsteroidMass,
		LeadTimeDays:    p.LeadTimeDays,
		EffectiveDeltaV: res.EffectiveDeltaV,
		DeflectedState:  res.Perturbed.Slice(),
		Trajectory:      NewTrajectoryDoc(res.Trajectory),
	}
}

// WriteJSON encodes v with two-space indentation.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// ExportJSON writes v to path, creating or truncating the file.
func ExportJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, v)
}
