// Package viz renders corridors and deflections for the terminal.
//
// Summaries are lipgloss panels; time series go through asciigraph:
//
//   - [CorridorSummary]: corridor outcome, close approach and dispersion
//   - [DeflectionSummary]: applied and effective delta-v and miss distance
//   - [DistancePlot]: distance to Earth for the nominal and a few samples
//   - [SeparationPlot]: how far a deflected path drifts from the original
//
// Output is plain text when stdout is not a terminal, so it is safe to pipe.
package viz
