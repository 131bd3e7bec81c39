// Package storage archives corridor runs on disk so they can be listed and
// re-plotted later. Each run is a directory holding metadata.json and
// corridor.csv.
package storage

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/san-kum/neodefense/internal/dynamo"
	"github.com/san-kum/neodefense/internal/export"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Scenario     string             `json:"scenario"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         *int64             `json:"seed,omitempty"`
	InitialState []float64          `json:"initial_state_vector"`
	DurationDays float64            `json:"duration_days"`
	Requested    int                `json:"requested"`
	Returned     int                `json:"returned"`
	Cancelled    bool               `json:"cancelled"`
	Warnings     []string           `json:"warnings,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes the corridor under a new run ID and returns it.
func (s *Store) Save(scenario string, sv dynamo.StateVector, c *dynamo.HazardCorridor, seed *int64, durationDays float64, metrics map[string]float64) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", scenario, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Scenario:     scenario,
		Timestamp:    now,
		Seed:         seed,
		InitialState: sv.Slice(),
		DurationDays: durationDays,
		Requested:    c.Requested,
		Returned:     len(c.Trajectories),
		Cancelled:    c.Cancelled,
		Metrics:      metrics,
	}
	for _, f := range c.Failures {
		meta.Warnings = append(meta.Warnings, f.Error())
	}

	if err := export.ExportJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := export.ExportCorridorCSV(filepath.Join(runDir, "corridor.csv"), c); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return cmp.Or(a.Timestamp.Compare(b.Timestamp), strings.Compare(a.ID, b.ID))
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path, err := s.runFile(runID, "metadata.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}

	return &meta, nil
}

// LoadCorridor reads the trajectories back. Requested, Cancelled and the
// dropped-sample count come from the metadata, not the table.
func (s *Store) LoadCorridor(runID string) (*dynamo.HazardCorridor, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	path, err := s.runFile(runID, "corridor.csv")
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	c, err := export.ReadCorridorCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	c.Requested = meta.Requested
	c.Cancelled = meta.Cancelled
	return c, nil
}

func (s *Store) runFile(runID, name string) (string, error) {
	if runID == "" || runID != filepath.Base(runID) || strings.HasPrefix(runID, ".") {
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return filepath.Join(s.baseDir, runID, name), nil
}
