package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/physics"
)

// EnergyDrift tracks the largest relative departure of the total energy from
// its value at the first observation.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
	series   []float64
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(ens *dynamo.Ensemble, t float64) {
	energy := physics.Energy(ens)
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return
	}

	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	drift := math.Abs(energy - e.initial)
	if e.initial != 0 {
		drift /= math.Abs(e.initial)
	}
	e.series = append(e.series, drift)
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Series returns the drift recorded at every observation.
func (e *EnergyDrift) Series() []float64 { return e.series }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
	e.series = nil
}

// MomentumDrift tracks the largest change in total linear momentum, scaled
// by the sum of |m v| at the first observation. An ensemble at rest is
// measured in absolute units.
type MomentumDrift struct {
	name     string
	initial  r3.Vec
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(ens *dynamo.Ensemble, t float64) {
	p := physics.Momentum(ens)
	if !dynamo.IsFinite(p) {
		return
	}

	if m.samples == 0 {
		m.initial = p
		m.scale = 0
		for i, mass := range ens.Masses {
			m.scale += math.Abs(mass) * r3.Norm(ens.Velocities[i])
		}
	}
	m.samples++

	drift := r3.Norm(r3.Sub(p, m.initial))
	if m.scale > 0 {
		drift /= m.scale
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r3.Vec{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}
