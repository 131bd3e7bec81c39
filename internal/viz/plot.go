package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/neodefense/internal/analysis"
	"github.com/san-kum/neodefense/internal/dynamo"
)

// MaxPlotSeries caps how many corridor samples are overlaid on one plot.
const MaxPlotSeries = 6

// DistancePlot charts distance to Earth in Mkm for the nominal trajectory
// and up to MaxPlotSeries-1 perturbed samples.
func DistancePlot(c *dynamo.HazardCorridor, width, height int) string {
	if len(c.Trajectories) == 0 {
		return ""
	}

	n := min(len(c.Trajectories), MaxPlotSeries)
	series := make([][]float64, 0, n)
	for _, s := range c.Trajectories[:n] {
		if s.Len() == 0 {
			continue
		}
		d := analysis.DistanceSeries(s, analysis.EarthPosition)
		for i := range d {
			d[i] /= 1e6
		}
		series = append(series, d)
	}
	if len(series) == 0 {
		return ""
	}

	colors := []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Green, asciigraph.Blue, asciigraph.Red}
	days := c.Trajectories[0].Times[c.Trajectories[0].Len()-1]

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors[:len(series)]...),
		asciigraph.Caption(fmt.Sprintf("distance to Earth (Mkm) over %.0f days, %d of %d samples", days, len(series), len(c.Trajectories))),
	)
}

// SeparationPlot charts the km separation between an original and a
// deflected trajectory.
func SeparationPlot(sep analysis.SeparationSummary, width, height int) string {
	if len(sep.Series) == 0 {
		return ""
	}
	return asciigraph.Plot(sep.Series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("deflected vs original separation (km)"),
	)
}

// SweepPlot charts miss distance against the swept delta-v values.
func SweepPlot(missKm []float64, dvMin, dvMax float64, width, height int) string {
	if len(missKm) == 0 {
		return ""
	}
	return asciigraph.Plot(missKm,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("miss distance (km) for dv %.3g..%.3g m/s", dvMin, dvMax)),
	)
}
