package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/san-kum/neodefense/internal/config"
	"github.com/san-kum/neodefense/internal/deflection"
	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/export"
	"github.com/san-kum/neodefense/internal/massmodel"
	"github.com/san-kum/neodefense/internal/trajectory"
)

const (
	maxBodyBytes   = 1 << 20
	MaxSimulations = 512

	// MaxDeltaV bounds the impactor delta-v accepted over HTTP, in m/s.
	MaxDeltaV = 1.0
)

// stateInput names the asteroid. The first of Preset, Elements and
// InitialState that is set wins.
type stateInput struct {
	InitialState []float64                 `json:"initial_state_vector"`
	Units        string                    `json:"units,omitempty"`
	Elements     *trajectory.ElementsInput `json:"elements,omitempty"`
	Preset       string                    `json:"preset,omitempty"`
}

func (in stateInput) resolve() (dynamo.StateVector, *config.Scenario, error) {
	switch {
	case in.Preset != "":
		s := config.GetPreset(in.Preset)
		if s == nil {
			return dynamo.StateVector{}, nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrInvalidStateVector, in.Preset)
		}
		sv, err := trajectory.FromKilometers(s.State)
		return sv, s, err
	case in.Elements != nil:
		sv, err := trajectory.FromOrbitalElements(*in.Elements)
		return sv, nil, err
	case in.InitialState == nil:
		return dynamo.StateVector{}, nil, fmt.Errorf("%w: missing required parameter: initial_state_vector", dynamo.ErrInvalidStateVector)
	}

	switch strings.ToLower(in.Units) {
	case "", "km":
		sv, err := trajectory.FromKilometers(in.InitialState)
		return sv, nil, err
	case "au":
		sv, err := trajectory.FromEphemerisAU(in.InitialState)
		return sv, nil, err
	default:
		return dynamo.StateVector{}, nil, fmt.Errorf("%w: unknown units %q", dynamo.ErrInvalidStateVector, in.Units)
	}
}

type corridorRequest struct {
	stateInput
	Simulations int    `json:"simulations,omitempty"`
	Seed        *int64 `json:"seed,omitempty"`
}

type deflectRequest struct {
	stateInput
	DeltaV          *float64 `json:"required_dv_ms"`
	AsteroidMass    *float64 `json:"asteroid_mass_kg"`
	InterceptorMass *float64 `json:"interceptor_mass_kg"`
	LeadTimeDays    *float64 `json:"lead_time_days"`
}

func corridorHandler(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req corridorRequest
		if !decode(w, r, &req) {
			return
		}
		sv, _, err := req.resolve()
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		opts := deps.Engine.CorridorOptions()
		if req.Simulations != 0 {
			if req.Simulations < 1 || req.Simulations > MaxSimulations {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":           fmt.Sprintf("simulations must be between 1 and %d", MaxSimulations),
					"max_simulations": MaxSimulations,
				})
				return
			}
			opts.Simulations = req.Simulations
		}
		if req.Seed != nil {
			opts.Seed = req.Seed
		}

		c, err := deps.Engine.GenerateCorridor(r.Context(), sv, opts)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		doc := export.NewCorridorDoc(sv, c, opts.Seed)
		doc.Metrics = export.CorridorMetrics(c, deps.Engine.Mu())
		writeJSON(w, http.StatusOK, doc)
	}
}

func deflectHandler(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deflectRequest
		if !decode(w, r, &req) {
			return
		}
		sv, preset, err := req.resolve()
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		if req.DeltaV == nil {
			writeError(w, http.StatusBadRequest, "missing required parameter: required_dv_ms")
			return
		}
		if dv := *req.DeltaV; math.IsNaN(dv) || dv < 0 || dv > MaxDeltaV {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("delta-v out of range (0-%g m/s)", MaxDeltaV))
			return
		}

		p := dynamo.DeflectionParameters{
			DeltaV:          *req.DeltaV,
			InterceptorMass: deps.Defaults.InterceptorMass,
			AsteroidMass:    deflection.ReferenceMass,
			LeadTimeDays:    deps.Defaults.LeadTimeDays,
		}
		if preset != nil {
			if preset.LeadTimeDays > 0 {
				p.LeadTimeDays = preset.LeadTimeDays
			}
			if m, err := presetMass(preset, deps.Masses); err == nil {
				p.AsteroidMass = m
			}
		}
		if req.AsteroidMass != nil {
			p.AsteroidMass = *req.AsteroidMass
		}
		if req.InterceptorMass != nil {
			p.InterceptorMass = *req.InterceptorMass
		}
		if req.LeadTimeDays != nil {
			p.LeadTimeDays = *req.LeadTimeDays
		}

		res, err := deps.Engine.Deflect(r.Context(), sv, p)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		doc := export.NewDeflectionDoc(sv, p, res)
		var nominal *dynamo.TrajectorySample
		if s, err := deps.Engine.Propagate(r.Context(), sv); err == nil {
			nominal = &s
		}
		doc.Metrics = export.DeflectionMetrics(res, nominal, deps.Engine.Mu())
		writeJSON(w, http.StatusOK, doc)
	}
}

func presetMass(s *config.Scenario, masses *massmodel.Estimator) (float64, error) {
	if s.AsteroidMass > 0 {
		return s.AsteroidMass, nil
	}
	if masses == nil {
		return 0, dynamo.ErrInvalidMass
	}
	return masses.Mass(s.DiameterM, s.SpectralType)
}

func requiredDvHandler(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mass, err := floatParam(r, "asteroid_mass_kg", math.NaN())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lti, err := floatParam(r, "lead_time_days", deps.Defaults.LeadTimeDays)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		dv, err := deps.Engine.RequiredDeltaV(mass, lti)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{
			"required_dv_ms":   dv,
			"asteroid_mass_kg": mass,
			"lead_time_days":   lti,
		})
	}
}

func massHandler(logger *slog.Logger, masses *massmodel.Estimator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := floatParam(r, "diameter_m", math.NaN())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		class := r.URL.Query().Get("spectral_type")

		m, err := masses.Mass(d, class)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"asteroid_mass_kg": m,
			"density_kg_m3":    massmodel.Density(class),
			"diameter_m":       d,
			"spectral_type":    class,
		})
	}
}

type presetDoc struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	State        []float64 `json:"initial_state_vector"`
	DiameterM    float64   `json:"diameter_m"`
	SpectralType string    `json:"spectral_type"`
	AsteroidMass float64   `json:"asteroid_mass_kg,omitempty"`
	LeadTimeDays float64   `json:"lead_time_days"`
}

func newPresetDoc(s *config.Scenario) presetDoc {
	return presetDoc{
		Name:         s.Name,
		Description:  s.Description,
		State:        s.State,
		DiameterM:    s.DiameterM,
		SpectralType: s.SpectralType,
		AsteroidMass: s.AsteroidMass,
		LeadTimeDays: s.LeadTimeDays,
	}
}

func presetsHandler(w http.ResponseWriter, r *http.Request) {
	names := config.ListPresets()
	out := make([]presetDoc, 0, len(names))
	for _, name := range names {
		out = append(out, newPresetDoc(config.GetPreset(name)))
	}
	writeJSON(w, http.StatusOK, out)
}

func presetHandler(w http.ResponseWriter, r *http.Request) {
	s := config.GetPreset(r.PathValue("name"))
	if s == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown preset %q", r.PathValue("name")))
		return
	}
	writeJSON(w, http.StatusOK, newPresetDoc(s))
}

// floatParam reads a query parameter. A NaN fallback makes it required.
func floatParam(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if math.IsNaN(fallback) {
			return 0, fmt.Errorf("missing required parameter: %s", name)
		}
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "request must be a JSON object: "+err.Error())
		return false
	}
	return true
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dynamo.ErrCorridorGenerationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dynamo.ErrInvalidStateVector),
		errors.Is(err, dynamo.ErrInvalidMass),
		errors.Is(err, dynamo.ErrInvalidLeadTime),
		errors.Is(err, dynamo.ErrInvalidDeltaV),
		errors.Is(err, dynamo.ErrInvalidHorizon),
		errors.Is(err, dynamo.ErrUndefinedDeflectionDirection):
		return http.StatusBadRequest
	case errors.Is(err, dynamo.ErrCancelledComputation), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "component", "api", "error", err)
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
