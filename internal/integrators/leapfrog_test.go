package integrators_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/integrators"
	"github.com/san-kum/gravkern/internal/physics"
)

// headOn returns two massless bodies approaching each other at unit speed so
// that, with dt = 1, they coincide exactly after k steps.
func headOn(k int) ([]float64, []r3.Vec, []r3.Vec) {
	masses := []float64{0, 0}
	positions := []r3.Vec{{X: 0}, {X: float64(2 * k)}}
	velocities := []r3.Vec{{X: 1}, {X: -1}}
	return masses, positions, velocities
}

var _ = Describe("Leapfrog", func() {
	var lf *integrators.Leapfrog

	BeforeEach(func() {
		lf = integrators.NewLeapfrog(2)
	})

	Describe("TryStep", func() {
		It("drifts with the kicked velocity", func() {
			masses := []float64{5e24, 7e22}
			pCur := []r3.Vec{{X: 1e3, Y: -2e3}, {X: 4e7, Y: 3e7, Z: 1e6}}
			vCur := []r3.Vec{{X: 10, Y: 20, Z: -5}, {X: -300, Z: 8}}
			pNext := make([]r3.Vec, 2)
			vNext := make([]r3.Vec, 2)
			dt := 30.0

			Expect(lf.TryStep(dt, masses, pCur, vCur, pNext, vNext)).To(BeTrue())

			for i := range masses {
				a := physics.AccelerationOn(masses, pCur, i)
				v := r3.Add(vCur[i], r3.Scale(dt, a))
				p := r3.Add(pCur[i], r3.Scale(dt, v))
				classical := r3.Add(pCur[i], r3.Scale(dt, vCur[i]))

				Expect(vNext[i]).To(BeRelativelyCloseTo(v, 1e-12))
				Expect(pNext[i]).To(BeRelativelyCloseTo(p, 1e-12))
				Expect(r3.Norm(r3.Sub(pNext[i], classical))).To(BeNumerically(">", 0))
			}
		})

		It("never writes its inputs", func() {
			masses, pCur, vCur := sunEarthMoon()
			pBefore := append([]r3.Vec(nil), pCur...)
			vBefore := append([]r3.Vec(nil), vCur...)

			pNext := make([]r3.Vec, 3)
			vNext := make([]r3.Vec, 3)
			Expect(lf.TryStep(16, masses, pCur, vCur, pNext, vNext)).To(BeTrue())
			Expect(pCur).To(Equal(pBefore))
			Expect(vCur).To(Equal(vBefore))
		})

		It("stops at the first non-finite body", func() {
			masses := []float64{1, 1, 1}
			pCur := []r3.Vec{{}, {}, {X: 10}}
			vCur := make([]r3.Vec, 3)
			sentinel := r3.Vec{X: 42, Y: 42, Z: 42}
			pNext := []r3.Vec{sentinel, sentinel, sentinel}
			vNext := []r3.Vec{sentinel, sentinel, sentinel}

			Expect(lf.TryStep(1, masses, pCur, vCur, pNext, vNext)).To(BeFalse())
			Expect(pNext[2]).To(Equal(sentinel))
			Expect(vNext[2]).To(Equal(sentinel))
		})
	})

	Describe("TryLeap", func() {
		It("matches the Sun/Earth/Moon reference after five steps", func() {
			masses, positions, velocities := sunEarthMoon()

			n := lf.TryLeap(5, 16, masses, positions, velocities)
			Expect(n).To(Equal(5))

			expectedPositions := []r3.Vec{
				{X: 6.924e-05, Y: 2.456e-09},
				{X: 1.496e11, Y: 2.382e06},
				{X: 1.496e11, Y: 3.868e08},
			}
			expectedVelocities := []r3.Vec{
				{X: 1.442e-06, Y: 5.423e-11},
				{X: -4.744e-01, Y: 2.978e04},
				{X: -1.022e03, Y: 2.978e04},
			}
			for i := range masses {
				Expect(positions[i]).To(BeRelativelyCloseTo(expectedPositions[i], 1e-3), "position %d", i)
				Expect(velocities[i]).To(BeRelativelyCloseTo(expectedVelocities[i], 1e-3), "velocity %d", i)
			}
		})

		It("leaves coincident bodies untouched and reports zero steps", func() {
			masses := []float64{1, 1}
			positions := make([]r3.Vec, 2)
			velocities := make([]r3.Vec, 2)

			stats := lf.TryLeapStats(3, 1, masses, positions, velocities)
			Expect(stats.Completed).To(Equal(0))
			Expect(stats.Phase).To(Equal(integrators.Halted))
			Expect(stats.EarlyExit()).To(BeTrue())
			Expect(positions).To(Equal([]r3.Vec{{}, {}}))
			Expect(velocities).To(Equal([]r3.Vec{{}, {}}))
		})

		DescribeTable("reconciles the caller's buffers with the last good step",
			func(k int) {
				masses, positions, velocities := headOn(k)

				n := lf.TryLeap(k+3, 1, masses, positions, velocities)
				Expect(n).To(Equal(k))

				fk := float64(k)
				Expect(positions).To(Equal([]r3.Vec{{X: fk}, {X: fk}}))
				Expect(velocities).To(Equal([]r3.Vec{{X: 1}, {X: -1}}))
			},
			Entry("fails on step 1", 1),
			Entry("fails on step 2", 2),
			Entry("fails on step 3", 3),
			Entry("fails on step 4", 4),
			Entry("fails on step 7", 7),
		)

		It("completes every requested step when nothing diverges", func() {
			masses, positions, velocities := headOn(10)
			stats := lf.TryLeapStats(4, 1, masses, positions, velocities)
			Expect(stats).To(Equal(integrators.LeapStats{Requested: 4, Completed: 4, Phase: integrators.Running}))
			Expect(positions).To(Equal([]r3.Vec{{X: 4}, {X: 16}}))
		})

		It("does nothing for zero requested steps", func() {
			masses, positions, velocities := sunEarthMoon()
			_, before, _ := sunEarthMoon()
			Expect(lf.TryLeap(0, 16, masses, positions, velocities)).To(Equal(0))
			Expect(positions).To(Equal(before))
		})

		It("gives the same result split across leaps", func() {
			masses, p1, v1 := sunEarthMoon()
			_, p2, v2 := sunEarthMoon()

			Expect(lf.TryLeap(2, 16, masses, p1, v1)).To(Equal(2))
			Expect(lf.TryLeap(3, 16, masses, p1, v1)).To(Equal(3))
			Expect(integrators.NewLeapfrog(1).TryLeap(5, 16, masses, p2, v2)).To(Equal(5))

			Expect(p1).To(Equal(p2))
			Expect(v1).To(Equal(v2))
		})

		It("reuses one stepper across ensemble sizes", func() {
			masses, positions, velocities := sunEarthMoon()
			Expect(lf.TryLeap(1, 16, masses, positions, velocities)).To(Equal(1))

			m2, p2, v2 := headOn(5)
			Expect(lf.TryLeap(2, 1, m2, p2, v2)).To(Equal(2))
		})
	})

	It("names its phases", func() {
		Expect(integrators.Running.String()).To(Equal("running"))
		Expect(integrators.Halted.String()).To(Equal("halted"))
	})
})
