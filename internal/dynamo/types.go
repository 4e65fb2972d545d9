package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// IsFinite reports whether every component of v is neither NaN nor Inf.
func IsFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Ensemble is a fixed set of point masses identified by slot index.
type Ensemble struct {
	Names      []string
	Masses     []float64
	Positions  []r3.Vec
	Velocities []r3.Vec
}

// NewEnsemble allocates an ensemble of n bodies at rest at the origin.
func NewEnsemble(n int) *Ensemble {
	return &Ensemble{
		Names:      make([]string, n),
		Masses:     make([]float64, n),
		Positions:  make([]r3.Vec, n),
		Velocities: make([]r3.Vec, n),
	}
}

func (e *Ensemble) Len() int { return len(e.Masses) }

// Validate checks the parallel slices agree in length. Names may be empty.
func (e *Ensemble) Validate() error {
	n := len(e.Masses)
	if n == 0 {
		return ErrEmpty
	}
	if len(e.Positions) != n || len(e.Velocities) != n {
		return fmt.Errorf("%w: masses=%d positions=%d velocities=%d",
			ErrLengthMismatch, n, len(e.Positions), len(e.Velocities))
	}
	if len(e.Names) != 0 && len(e.Names) != n {
		return fmt.Errorf("%w: masses=%d names=%d", ErrLengthMismatch, n, len(e.Names))
	}
	return nil
}

func (e *Ensemble) Clone() *Ensemble {
	c := &Ensemble{
		Names:      append([]string(nil), e.Names...),
		Masses:     append([]float64(nil), e.Masses...),
		Positions:  append([]r3.Vec(nil), e.Positions...),
		Velocities: append([]r3.Vec(nil), e.Velocities...),
	}
	return c
}

// IsFinite reports whether every position and velocity is finite.
func (e *Ensemble) IsFinite() bool {
	for i := range e.Positions {
		if !IsFinite(e.Positions[i]) || !IsFinite(e.Velocities[i]) {
			return false
		}
	}
	return true
}

// Name returns the display name of body i, falling back to "b<i>".
func (e *Ensemble) Name(i int) string {
	if i < len(e.Names) && e.Names[i] != "" {
		return e.Names[i]
	}
	return fmt.Sprintf("b%d", i)
}

// Observer is notified after every leap with the committed state.
type Observer interface {
	OnLeap(e *Ensemble, leap int, t float64)
}

// Metric accumulates a scalar over the leaps of one run.
type Metric interface {
	Name() string
	Observe(e *Ensemble, t float64)
	Value() float64
	Reset()
}

// Config controls how a host loop drives the kernel.
type Config struct {
	Dt           float64
	StepsPerLeap int
	Leaps        int
	Workers      int
}

func DefaultConfig() Config {
	return Config{
		Dt:           60,
		StepsPerLeap: 100,
		Leaps:        100,
		Workers:      0,
	}
}

// Duration is the simulated time covered when every step succeeds.
func (c Config) Duration() float64 {
	return c.Dt * float64(c.StepsPerLeap) * float64(c.Leaps)
}
