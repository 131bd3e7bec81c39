package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/neodefense/internal/dynamo"
)

// NodeCrossing is an ascending pass through the ecliptic plane (z = 0).
type NodeCrossing struct {
	TimeDays float64
	Point    dynamo.Vec3
}

// AscendingNodes records linearly interpolated crossings of z from negative
// to non-negative.
func AscendingNodes(s dynamo.TrajectorySample) []NodeCrossing {
	var out []NodeCrossing
	for i := 1; i < s.Len(); i++ {
		prev, curr := s.Positions[i-1], s.Positions[i]
		if !(prev[2] < 0 && curr[2] >= 0) {
			continue
		}
		frac := -prev[2] / (curr[2] - prev[2])
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		out = append(out, NodeCrossing{
			TimeDays: s.Times[i-1] + frac*(s.Times[i]-s.Times[i-1]),
			Point:    prev.Add(curr.Sub(prev).Scale(frac)),
		})
	}
	return out
}

// ProjectionToASCII draws the corridor in the ecliptic x-y plane. The
// nominal path is drawn with '•', perturbed paths with '·', the Sun with
// 'o' and Earth with 'E'.
func ProjectionToASCII(c *dynamo.HazardCorridor, width, height int) string {
	if c == nil || len(c.Trajectories) == 0 || width < 2 || height < 2 {
		return ""
	}

	// Bounds include the Sun and Earth so both markers land on the canvas.
	minX, maxX := math.Min(0, EarthPosition[0]), math.Max(0, EarthPosition[0])
	minY, maxY := math.Min(0, EarthPosition[1]), math.Max(0, EarthPosition[1])
	for _, s := range c.Trajectories {
		for _, p := range s.Positions {
			minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
			minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	maxX += rangeX * 0.05
	minY -= rangeY * 0.05
	maxY += rangeY * 0.05
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	plot := func(x, y float64, r rune) {
		col := int((x - minX) / rangeX * float64(width-1))
		row := height - 1 - int((y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = r
		}
	}

	// perturbed first so the nominal path stays visible on top
	for i := len(c.Trajectories) - 1; i >= 0; i-- {
		s := c.Trajectories[i]
		mark := '·'
		if s.SimulationIndex == 0 {
			mark = '•'
		}
		for _, p := range s.Positions {
			plot(p[0], p[1], mark)
		}
	}
	plot(0, 0, 'o')
	plot(EarthPosition[0], EarthPosition[1], 'E')

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
