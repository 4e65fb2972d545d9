package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
)

// Energy returns kinetic plus gravitational potential energy. Coincident
// pairs make it infinite.
func Energy(e *dynamo.Ensemble) float64 {
	return KineticEnergy(e) + PotentialEnergy(e)
}

func KineticEnergy(e *dynamo.Ensemble) float64 {
	ke := 0.0
	for i, m := range e.Masses {
		ke += 0.5 * m * r3.Norm2(e.Velocities[i])
	}
	return ke
}

func PotentialEnergy(e *dynamo.Ensemble) float64 {
	n := e.Len()
	pe := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := r3.Norm(r3.Sub(e.Positions[j], e.Positions[i]))
			pe -= G * e.Masses[i] * e.Masses[j] / r
		}
	}
	return pe
}

func TotalMass(e *dynamo.Ensemble) float64 {
	m := 0.0
	for _, mi := range e.Masses {
		m += mi
	}
	return m
}

// Momentum returns the total linear momentum.
func Momentum(e *dynamo.Ensemble) r3.Vec {
	var p r3.Vec
	for i, m := range e.Masses {
		p = r3.Add(p, r3.Scale(m, e.Velocities[i]))
	}
	return p
}

// AngularMomentum returns the total angular momentum about the origin.
func AngularMomentum(e *dynamo.Ensemble) r3.Vec {
	var l r3.Vec
	for i, m := range e.Masses {
		l = r3.Add(l, r3.Scale(m, r3.Cross(e.Positions[i], e.Velocities[i])))
	}
	return l
}

// CenterOfMass returns the mass-weighted mean position.
func CenterOfMass(e *dynamo.Ensemble) r3.Vec {
	var lever r3.Vec
	for i, m := range e.Masses {
		lever = r3.Add(lever, r3.Scale(m, e.Positions[i]))
	}
	return r3.Scale(1/TotalMass(e), lever)
}

// ZeroMomentum shifts every velocity so the centre of mass is at rest.
func ZeroMomentum(e *dynamo.Ensemble) {
	total := TotalMass(e)
	if total == 0 {
		return
	}
	v := r3.Scale(1/total, Momentum(e))
	for i := range e.Velocities {
		e.Velocities[i] = r3.Sub(e.Velocities[i], v)
	}
}

// ZeroLeverArm shifts every position so the centre of mass is at the origin.
func ZeroLeverArm(e *dynamo.Ensemble) {
	if TotalMass(e) == 0 {
		return
	}
	c := CenterOfMass(e)
	for i := range e.Positions {
		e.Positions[i] = r3.Sub(e.Positions[i], c)
	}
}

// MinSeparation returns the smallest pairwise distance, or +Inf for fewer
// than two bodies.
func MinSeparation(e *dynamo.Ensemble) float64 {
	n := e.Len()
	minDist := math.Inf(1)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := r3.Norm(r3.Sub(e.Positions[j], e.Positions[i]))
			if d < minDist {
				minDist = d
			}
		}
	}
	return minDist
}
