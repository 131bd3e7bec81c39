package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/neodefense/internal/analysis"
	"github.com/san-kum/neodefense/internal/dynamo"
)

// Verdict labels an approach as IMPACT, CLOSE or CLEAR, styled by risk.
func Verdict(a analysis.Approach) string {
	switch {
	case a.Impact:
		return Impact.Render("IMPACT")
	case a.Close:
		return Close.Render("CLOSE")
	}
	return Clear.Render("CLEAR")
}

func km(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.3f Mkm", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1f km", v)
	}
	return fmt.Sprintf("%.3f km", v)
}

// CorridorSummary renders a panel describing a finished corridor run.
func CorridorSummary(name string, c *dynamo.HazardCorridor) string {
	var lines []string
	lines = append(lines, HeaderStyle.Render("hazard corridor · "+name))

	lines = append(lines,
		row("samples", fmt.Sprintf("%d/%d", len(c.Trajectories), c.Requested)),
		row("dropped", fmt.Sprintf("%d", len(c.Failures))),
		row("degraded", fmt.Sprintf("%d", c.Degraded())),
	)
	if c.Cancelled {
		lines = append(lines, Close.Render("cancelled before completion"))
	}

	if nominal, ok := c.Nominal(); ok {
		a := analysis.FindCloseApproach(nominal)
		lines = append(lines,
			"",
			row("nominal closest approach", km(a.DistanceKm))+"  "+Verdict(a),
			row("at", fmt.Sprintf("day %.1f", a.TimeDays)),
		)
		if spread, err := analysis.MaxSpread(c); err == nil {
			lines = append(lines, row("max spread", km(spread)))
		}
		lines = append(lines, row("impact fraction", fmt.Sprintf("%.1f%%", 100*analysis.ImpactFraction(c))))
	} else {
		lines = append(lines, Subtle.Render("nominal trajectory not available"))
	}

	for _, f := range c.Failures {
		lines = append(lines, Impact.Render("! ")+Subtle.Render(f.Error()))
	}

	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// DeflectionSummary renders the applied deflection and, when sep is non-nil,
// how far the deflected path ends up from the original.
func DeflectionSummary(p dynamo.DeflectionParameters, res *dynamo.DeflectionResult, required float64, sep *analysis.SeparationSummary) string {
	lines := []string{
		HeaderStyle.Render("kinetic impactor"),
		row("impactor dv", fmt.Sprintf("%.4g m/s", p.DeltaV)),
		row("heuristic dv", fmt.Sprintf("%.4g m/s", required)),
		row("interceptor", fmt.Sprintf("%.0f kg", p.InterceptorMass)),
		row("asteroid", fmt.Sprintf("%.3g kg", p.AsteroidMass)),
		row("lead time", fmt.Sprintf("%.0f days", p.LeadTimeDays)),
		row("effective dv", fmt.Sprintf("%.4g m/s", res.EffectiveDeltaV)),
	}

	a := analysis.FindCloseApproach(res.Trajectory)
	lines = append(lines, row("deflected closest approach", km(a.DistanceKm))+"  "+Verdict(a))

	if sep != nil {
		lines = append(lines,
			row("miss distance", km(sep.FinalKm)),
			row("max separation", km(sep.MaxKm)),
		)
	}
	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// PresetTable lists named scenarios one per line.
func PresetTable(names []string, describe func(string) string) string {
	var b strings.Builder
	b.WriteString(Title.Render("presets") + "\n")
	for _, n := range names {
		fmt.Fprintf(&b, "  %-16s %s\n", n, Subtle.Render(describe(n)))
	}
	return b.String()
}
