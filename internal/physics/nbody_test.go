package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/physics"
)

func binary() *dynamo.Ensemble {
	e := dynamo.NewEnsemble(2)
	e.Masses[0], e.Masses[1] = 3, 1
	e.Positions[0] = r3.Vec{X: -1}
	e.Positions[1] = r3.Vec{X: 3}
	e.Velocities[0] = r3.Vec{Y: 2}
	e.Velocities[1] = r3.Vec{Y: -2}
	return e
}

var _ = Describe("conserved quantities", func() {
	It("computes kinetic and potential energy", func() {
		e := binary()
		Expect(physics.KineticEnergy(e)).To(BeNumerically("~", 0.5*3*4+0.5*1*4, 1e-12))
		Expect(physics.PotentialEnergy(e)).To(BeNumerically("~", -physics.G*3/4, 1e-24))
		Expect(physics.Energy(e)).To(Equal(physics.KineticEnergy(e) + physics.PotentialEnergy(e)))
	})

	It("computes momentum and angular momentum", func() {
		e := binary()
		Expect(physics.Momentum(e)).To(Equal(r3.Vec{Y: 4}))
		// (-1,0,0)x(0,2,0)*3 + (3,0,0)x(0,-2,0)*1 = (0,0,-6) + (0,0,-6)
		Expect(physics.AngularMomentum(e)).To(Equal(r3.Vec{Z: -12}))
	})

	It("moves into the centre-of-mass frame", func() {
		e := binary()
		Expect(physics.CenterOfMass(e)).To(Equal(r3.Vec{}))

		e.Positions[1].X = 7
		physics.ZeroLeverArm(e)
		physics.ZeroMomentum(e)

		c := physics.CenterOfMass(e)
		Expect(r3.Norm(c)).To(BeNumerically("<", 1e-12))
		Expect(r3.Norm(physics.Momentum(e))).To(BeNumerically("<", 1e-12))
	})

	It("leaves massless ensembles alone", func() {
		e := dynamo.NewEnsemble(2)
		e.Velocities[0] = r3.Vec{X: 1}
		physics.ZeroMomentum(e)
		physics.ZeroLeverArm(e)
		Expect(e.Velocities[0]).To(Equal(r3.Vec{X: 1}))
	})

	It("reports the minimum separation", func() {
		e := binary()
		Expect(physics.MinSeparation(e)).To(Equal(4.0))
		Expect(math.IsInf(physics.MinSeparation(dynamo.NewEnsemble(1)), 1)).To(BeTrue())
	})
})
