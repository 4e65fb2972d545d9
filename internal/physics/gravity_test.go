package physics_test

import (
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/physics"
)

var _ = Describe("Acceleration", func() {
	It("matches the Sun's pull on the Earth", func() {
		a := physics.Acceleration(earthPosition, sunMass)
		Expect(a).To(BeRelativelyCloseTo(r3.Vec{X: 5.9301e-3}, 1e-3))
	})

	It("follows d*G*m/|d|^3 for an arbitrary displacement", func() {
		d := r3.Vec{X: 3, Y: -4, Z: 12}
		m := 7.5e9
		dist := 13.0
		want := r3.Vec{
			X: d.X * physics.G * m / (dist * dist * dist),
			Y: d.Y * physics.G * m / (dist * dist * dist),
			Z: d.Z * physics.G * m / (dist * dist * dist),
		}
		Expect(physics.Acceleration(d, m)).To(BeRelativelyCloseTo(want, 1e-12))
	})

	It("does not special-case zero displacement", func() {
		a := physics.Acceleration(r3.Vec{}, 1)
		Expect(math.IsNaN(a.X) || math.IsInf(a.X, 0)).To(BeTrue())
	})
})

var _ = Describe("AccelerationOn", func() {
	It("sums the Sun and the Moon on the Earth", func() {
		a := physics.AccelerationOn(threeMasses, threePositions, 1)
		Expect(a).To(BeRelativelyCloseTo(r3.Vec{X: -5.9301e-3, Y: 3.3188e-5}, 1e-3))
	})

	It("skips self by index even when another body is coincident", func() {
		masses := []float64{1, 1, 1}
		positions := []r3.Vec{{}, {}, {X: 1}}
		a := physics.AccelerationOn(masses, positions, 2)
		Expect(math.IsNaN(a.X)).To(BeFalse())

		a = physics.AccelerationOn(masses, positions, 0)
		Expect(math.IsNaN(a.X) || math.IsInf(a.X, 0)).To(BeTrue())
	})

	It("returns zero for a lone body", func() {
		Expect(physics.AccelerationOn([]float64{5}, []r3.Vec{{X: 1}}, 0)).To(Equal(r3.Vec{}))
	})
})

var _ = Describe("Field", func() {
	It("reproduces the Sun/Earth/Moon reference accelerations", func() {
		out := make([]r3.Vec, 3)
		physics.NewField(2).Compute(threeMasses, threePositions, out)

		Expect(out[0]).To(BeRelativelyCloseTo(r3.Vec{X: 1.8030e-8, Y: 5.6303e-13}, 1e-3))
		Expect(out[1]).To(BeRelativelyCloseTo(r3.Vec{X: -5.9301e-3, Y: 3.3188e-5}, 1e-3))
		Expect(out[2]).To(BeRelativelyCloseTo(r3.Vec{X: -5.9301e-3, Y: -2.7129e-3}, 1e-3))
	})

	It("agrees exactly with the single-body path", func() {
		masses, positions := randomCloud(97, 11)
		out := make([]r3.Vec, len(masses))
		physics.NewField(4).Compute(masses, positions, out)

		for i := range masses {
			Expect(out[i]).To(Equal(physics.AccelerationOn(masses, positions, i)), "slot %d", i)
		}
	})

	It("is bit-identical across worker counts", func() {
		masses, positions := randomCloud(257, 3)
		reference := make([]r3.Vec, len(masses))
		(&physics.Field{Workers: 1, MinChunk: 1}).Compute(masses, positions, reference)

		for _, workers := range []int{2, 3, 8, 32, 0} {
			out := make([]r3.Vec, len(masses))
			(&physics.Field{Workers: workers, MinChunk: 1}).Compute(masses, positions, out)
			Expect(out).To(Equal(reference), "workers=%d", workers)
		}
	})

	It("overwrites stale output", func() {
		out := []r3.Vec{{X: 42}, {X: 42}, {X: 42}}
		physics.NewField(1).Compute(threeMasses, threePositions, out)
		Expect(out[0].X).NotTo(Equal(42.0))
	})
})

func randomCloud(n int, seed uint64) ([]float64, []r3.Vec) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	masses := make([]float64, n)
	positions := make([]r3.Vec, n)
	for i := range masses {
		masses[i] = 1e20 + rng.Float64()*1e24
		positions[i] = r3.Vec{
			X: (rng.Float64() - 0.5) * 1e12,
			Y: (rng.Float64() - 0.5) * 1e12,
			Z: (rng.Float64() - 0.5) * 1e12,
		}
	}
	return masses, positions
}
