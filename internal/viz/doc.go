// Package viz renders ensembles in the terminal.
//
// [LiveModel] is a Bubble Tea program that steps an ensemble leap by leap and
// draws an orthographic projection of the bodies on a Braille [Canvas].
// [PlotSeries] draws a one-off asciigraph chart, used for energy drift and
// other per-leap series. [WriteTrajectorySVG] draws stored states as paths.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial ensemble
//	T     - Cycle color themes
//	C     - Toggle trails
//	X/Y   - Rotate the view
//	+/-   - Zoom
//	?     - Show help overlay
package viz
