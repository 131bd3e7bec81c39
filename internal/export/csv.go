package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/neodefense/internal/dynamo"
)

var trajectoryHeader = []string{"simulation", "t_days", "x_km", "y_km", "z_km", "vx_kms", "vy_kms", "vz_kms", "degraded"}

// WriteCorridorCSV writes one row per point of every trajectory, in
// simulation index order.
func WriteCorridorCSV(w io.Writer, c *dynamo.HazardCorridor) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trajectoryHeader); err != nil {
		return err
	}
	for _, s := range c.Trajectories {
		if err := writeRows(cw, s); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteTrajectoryCSV(w io.Writer, s dynamo.TrajectorySample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(trajectoryHeader); err != nil {
		return err
	}
	if err := writeRows(cw, s); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeRows(cw *csv.Writer, s dynamo.TrajectorySample) error {
	idx := strconv.Itoa(s.SimulationIndex)
	degraded := strconv.FormatBool(s.Degraded)
	for i := range s.Positions {
		p, v := s.Positions[i], s.Velocities[i]
		row := []string{
			idx,
			strconv.FormatFloat(s.Times[i], 'f', 6, 64),
			strconv.FormatFloat(p[0], 'f', 3, 64),
			strconv.FormatFloat(p[1], 'f', 3, 64),
			strconv.FormatFloat(p[2], 'f', 3, 64),
			strconv.FormatFloat(v[0], 'f', 9, 64),
			strconv.FormatFloat(v[1], 'f', 9, 64),
			strconv.FormatFloat(v[2], 'f', 9, 64),
			degraded,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// ExportCorridorCSV writes the corridor table to path.
func ExportCorridorCSV(path string, c *dynamo.HazardCorridor) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCorridorCSV(file, c)
}

// ReadCorridorCSV parses a table written by WriteCorridorCSV. Rows for one
// simulation must be contiguous. Requested is set to the number of samples
// read.
func ReadCorridorCSV(r io.Reader) (*dynamo.HazardCorridor, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(trajectoryHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("export: empty corridor table")
	}

	c := &dynamo.HazardCorridor{}
	var cur *dynamo.TrajectorySample
	for line, rec := range records[1:] {
		var vals [7]float64
		for j := range vals {
			if vals[j], err = strconv.ParseFloat(rec[j+1], 64); err != nil {
				return nil, fmt.Errorf("export: row %d: %w", line+2, err)
			}
		}
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("export: row %d: %w", line+2, err)
		}
		degraded, err := strconv.ParseBool(rec[8])
		if err != nil {
			return nil, fmt.Errorf("export: row %d: %w", line+2, err)
		}

		if cur == nil || cur.SimulationIndex != idx {
			c.Trajectories = append(c.Trajectories, dynamo.TrajectorySample{SimulationIndex: idx, Degraded: degraded})
			cur = &c.Trajectories[len(c.Trajectories)-1]
		}
		cur.Times = append(cur.Times, vals[0])
		cur.Positions = append(cur.Positions, dynamo.Vec3{vals[1], vals[2], vals[3]})
		cur.Velocities = append(cur.Velocities, dynamo.Vec3{vals[4], vals[5], vals[6]})
	}
	c.Requested = len(c.Trajectories)
	return c, nil
}
