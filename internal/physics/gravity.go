package physics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
)

// G is the Newtonian gravitational constant in m^3 kg^-1 s^-2.
const G = 6.67430e-11

// Acceleration returns the acceleration imparted on a body by a source of
// mass m at displacement d (pointing from the accelerated body to the
// source): d * G*m / |d|^3.
//
// A zero displacement is not special-cased; the result is then Inf or NaN
// and it is up to the stepper to notice.
func Acceleration(d r3.Vec, m float64) r3.Vec {
	dist := r3.Norm(d)
	return r3.Scale(G*m/(dist*dist*dist), d)
}

// AccelerationOn sums the pull of every other body on body i. Self-pairs are
// skipped by index, not by distance, and sources are visited in ascending
// index order.
func AccelerationOn(masses []float64, positions []r3.Vec, i int) r3.Vec {
	var a r3.Vec
	pi := positions[i]
	for j := range masses {
		if j == i {
			continue
		}
		a = r3.Add(a, Acceleration(r3.Sub(positions[j], pi), masses[j]))
	}
	return a
}

// Field computes the acceleration of every body in an ensemble. Slots are
// independent, so they are spread over Workers goroutines; each slot is
// still produced by AccelerationOn, so the output does not depend on the
// worker count.
type Field struct {
	Workers  int
	MinChunk int
}

func NewField(workers int) *Field {
	return &Field{Workers: workers, MinChunk: dynamo.DefaultMinChunk}
}

// Compute overwrites out[i] with AccelerationOn(masses, positions, i) for
// every i. masses and positions must not be written while Compute runs.
func (f *Field) Compute(masses []float64, positions []r3.Vec, out []r3.Vec) {
	n := len(masses)
	dynamo.ParallelFor(n, f.Workers, f.MinChunk, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = AccelerationOn(masses, positions, i)
		}
	})
}
