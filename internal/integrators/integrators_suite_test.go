package integrators_test

import (
	"fmt"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestIntegrators(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integrators Suite")
}

const (
	sunMass             = 1.9885e30
	earthMass           = 5.9724e24
	moonMass            = 7.3476e22
	sunEarthDistance    = 1.4960e11
	earthMoonDistance   = 3.84399e8
	earthOrbitSunSpeed  = 2.978e4
	moonOrbitEarthSpeed = 1.022e3
)

func sunEarthMoon() ([]float64, []r3.Vec, []r3.Vec) {
	masses := []float64{sunMass, earthMass, moonMass}
	positions := []r3.Vec{
		{},
		{X: sunEarthDistance},
		{X: sunEarthDistance, Y: earthMoonDistance},
	}
	velocities := []r3.Vec{
		{},
		{Y: earthOrbitSunSpeed},
		{X: -moonOrbitEarthSpeed, Y: earthOrbitSunSpeed},
	}
	return masses, positions, velocities
}

func relativeEq(want, got, rel float64) bool {
	if want == got {
		return true
	}
	return math.Abs(want-got) <= rel*math.Max(math.Abs(want), math.Abs(got))
}

func BeRelativelyCloseTo(want r3.Vec, rel float64) types.GomegaMatcher {
	return WithTransform(func(got r3.Vec) error {
		if relativeEq(want.X, got.X, rel) && relativeEq(want.Y, got.Y, rel) && relativeEq(want.Z, got.Z, rel) {
			return nil
		}
		return fmt.Errorf("%v differs from %v by more than %g relative", got, want, rel)
	}, Succeed())
}
