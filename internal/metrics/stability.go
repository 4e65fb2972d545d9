package metrics

import (
	"math"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/physics"
)

// Separation records the closest approach between any two bodies. Close
// encounters are where the leapfrog step loses accuracy and eventually
// breaks down.
type Separation struct {
	name    string
	min     float64
	samples int
}

func NewSeparation() *Separation {
	return &Separation{name: "min_separation", min: math.Inf(1)}
}

func (s *Separation) Name() string { return s.name }

func (s *Separation) Observe(ens *dynamo.Ensemble, t float64) {
	d := physics.MinSeparation(ens)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return
	}
	s.samples++
	s.min = math.Min(s.min, d)
}

// Value is 0 until a pair has been observed.
func (s *Separation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.min
}

func (s *Separation) Reset() {
	s.min = math.Inf(1)
	s.samples = 0
}

// Default returns the metrics every run collects.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyDrift(),
		NewMomentumDrift(),
		NewSeparation(),
	}
}
