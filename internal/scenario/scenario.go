package scenario

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/physics"
)

// Reference values, SI units.
const (
	SunMass   = 1.9885e30
	EarthMass = 5.9724e24
	MoonMass  = 7.3476e22

	EarthOrbitSunDistance  = 1.4960e11
	EarthOrbitSunSpeed     = 2.978e4
	MoonOrbitEarthDistance = 3.84399e8
	MoonOrbitEarthSpeed    = 1.022e3

	SecondsPerYear = 31556925
)

// Params configures the generators. Fields a generator does not use are
// ignored.
type Params struct {
	Bodies       int
	Radius       float64
	TotalMass    float64
	MaxSpeed     float64
	Seed         int64
	ZeroMomentum bool
}

func DefaultParams() Params {
	return Params{
		Bodies:    60,
		Radius:    EarthOrbitSunDistance,
		TotalMass: SunMass,
		MaxSpeed:  0,
		Seed:      1,
	}
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x5eed))
}

// SunEarthMoon places the Sun at the origin, the Earth on +x and the Moon on
// +y from the Earth, each moving counter-clockwise. The orbits are not
// corrected for the pull of the smaller bodies on the larger ones.
func SunEarthMoon() *dynamo.Ensemble {
	e := dynamo.NewEnsemble(3)
	e.Names = []string{"Sun", "Earth", "Moon"}
	e.Masses = []float64{SunMass, EarthMass, MoonMass}
	e.Positions = []r3.Vec{
		{},
		{X: EarthOrbitSunDistance},
		{X: EarthOrbitSunDistance, Y: MoonOrbitEarthDistance},
	}
	e.Velocities = []r3.Vec{
		{},
		{Y: EarthOrbitSunSpeed},
		{X: -MoonOrbitEarthSpeed, Y: EarthOrbitSunSpeed},
	}
	return e
}

// RandomPointInBall draws a point uniformly from a ball of the given radius
// by rejection sampling the enclosing cube.
func RandomPointInBall(rng *rand.Rand, radius float64) r3.Vec {
	for {
		v := r3.Vec{
			X: (rng.Float64()*2 - 1) * radius,
			Y: (rng.Float64()*2 - 1) * radius,
			Z: (rng.Float64()*2 - 1) * radius,
		}
		if r3.Norm(v) <= radius {
			return v
		}
	}
}

// TwoBodies splits TotalMass randomly between two resting bodies placed at
// random in a ball of Radius. With ZeroMomentum set the pair is recentred on
// its centre of mass; its momentum is already zero.
func TwoBodies(p Params) (*dynamo.Ensemble, error) {
	if !(p.Radius > 0) {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", dynamo.ErrParameterBounds, p.Radius)
	}
	rng := newRand(p.Seed)
	e := dynamo.NewEnsemble(2)
	fraction := rng.Float64()
	e.Masses[0] = p.TotalMass * fraction
	e.Masses[1] = p.TotalMass * (1 - fraction)
	for i := range e.Positions {
		e.Positions[i] = RandomPointInBall(rng, p.Radius)
	}
	if p.ZeroMomentum {
		physics.ZeroLeverArm(e)
	}
	return e, nil
}

// Ball spreads Bodies identical bodies uniformly through a ball of Radius
// with random velocities of at most MaxSpeed, then moves to the
// centre-of-mass rest frame.
func Ball(p Params) (*dynamo.Ensemble, error) {
	if p.Bodies < 1 {
		return nil, fmt.Errorf("%w: bodies must be at least 1, got %d", dynamo.ErrParameterBounds, p.Bodies)
	}
	if !(p.Radius > 0) {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", dynamo.ErrParameterBounds, p.Radius)
	}
	rng := newRand(p.Seed)
	e := dynamo.NewEnsemble(p.Bodies)
	m := p.TotalMass / float64(p.Bodies)
	for i := range e.Masses {
		e.Masses[i] = m
		e.Positions[i] = RandomPointInBall(rng, p.Radius)
		if p.MaxSpeed > 0 {
			e.Velocities[i] = RandomPointInBall(rng, p.MaxSpeed)
		}
	}
	physics.ZeroMomentum(e)
	return e, nil
}

// Line lays Bodies identical bodies along +x, 2*Radius apart, at rest.
func Line(p Params) (*dynamo.Ensemble, error) {
	if p.Bodies < 1 {
		return nil, fmt.Errorf("%w: bodies must be at least 1, got %d", dynamo.ErrParameterBounds, p.Bodies)
	}
	if !(p.Radius > 0) {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", dynamo.ErrParameterBounds, p.Radius)
	}
	e := dynamo.NewEnsemble(p.Bodies)
	m := p.TotalMass / float64(p.Bodies)
	for i := range e.Masses {
		e.Masses[i] = m
		e.Positions[i] = r3.Vec{X: float64(2*i+1) * p.Radius}
	}
	return e, nil
}

// MoonRing breaks the Moon into Bodies-1 equal fragments scattered at random
// angles on its orbit around a resting Earth, each moving tangentially at
// the Moon's orbital speed, then moves to the zero-momentum frame. The Earth
// is the last body.
func MoonRing(p Params) (*dynamo.Ensemble, error) {
	if p.Bodies < 2 {
		return nil, fmt.Errorf("%w: bodies must be at least 2, got %d", dynamo.ErrParameterBounds, p.Bodies)
	}
	rng := newRand(p.Seed)
	fragments := p.Bodies - 1
	e := dynamo.NewEnsemble(p.Bodies)
	m := MoonMass / float64(fragments)
	for i := 0; i < fragments; i++ {
		sin, cos := math.Sincos(rng.Float64() * 2 * math.Pi)
		e.Masses[i] = m
		e.Positions[i] = r3.Vec{X: MoonOrbitEarthDistance * cos, Y: MoonOrbitEarthDistance * sin}
		e.Velocities[i] = r3.Vec{X: -MoonOrbitEarthSpeed * sin, Y: MoonOrbitEarthSpeed * cos}
	}
	e.Names[fragments] = "Earth"
	e.Masses[fragments] = EarthMass
	physics.ZeroMomentum(e)
	return e, nil
}

// Coincident stacks Bodies unit masses at the origin. Every step over it
// breaks down, which makes it useful for exercising the halt path.
func Coincident(p Params) (*dynamo.Ensemble, error) {
	n := p.Bodies
	if n < 2 {
		n = 2
	}
	e := dynamo.NewEnsemble(n)
	for i := range e.Masses {
		e.Masses[i] = 1
	}
	return e, nil
}
