// Package physics provides Newtonian point-mass gravity.
//
// The force evaluation is layered:
//
//   - [Acceleration]: pull of one source on one body
//   - [AccelerationOn]: pull of every other body on one body
//   - [Field]: [AccelerationOn] for every body, spread over goroutines
//
// The package also computes conserved quantities used to judge a run:
//
//	e := scenario.SunEarthMoon()
//	before := physics.Energy(e)
//	// ... advance e ...
//	drift := math.Abs(physics.Energy(e)-before) / math.Abs(before)
//
// Nothing here validates input; see package kernel for checked entry points.
package physics
