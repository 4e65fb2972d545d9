// Package dynamo provides the shared primitives of the gravitational kernel.
//
// The package defines the types every other package speaks in:
//
//   - [Ensemble]: parallel mass/position/velocity slices indexed by body
//   - [Config]: step duration, steps per leap, leap count, worker count
//   - [Observer] and [Metric]: hooks called between leaps
//   - [ParallelFor]: fork-join helper used by the acceleration batch
//
// Vectors are [r3.Vec] values from gonum, three consecutive float64s,
// which is also the layout used for packed buffers at the kernel boundary.
//
// # Thread Safety
//
// An Ensemble is plain data. It may be read from many goroutines as long as
// nobody writes to it during that time.
package dynamo
