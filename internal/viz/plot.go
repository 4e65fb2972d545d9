package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// PlotSeries draws series as an asciigraph line chart. Non-finite samples
// are dropped; an empty series gives an empty string.
func PlotSeries(series []float64, caption string, width, height int) string {
	finite := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return ""
	}
	return asciigraph.Plot(finite,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.Precision(2))
}

// Log10 maps relative drifts onto a log scale so values spanning many
// decades stay readable. Zero maps to floor.
func Log10(series []float64, floor float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		if v <= 0 {
			out[i] = floor
			continue
		}
		out[i] = math.Max(math.Log10(v), floor)
	}
	return out
}
