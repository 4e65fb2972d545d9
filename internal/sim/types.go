package sim

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
)

// Stepper advances an ensemble in place. *kernel.Kernel satisfies it.
type Stepper interface {
	TryLeap(requested int, dt float64, masses []float64, positions, velocities []r3.Vec) (int, error)
}

// Recorder receives the outcome of every leap. *telemetry.Collector
// satisfies it.
type Recorder interface {
	ObserveLeap(n, requested, completed int, elapsed time.Duration)
}

// Snapshot is the committed state after a leap. Leap 0 is the initial state.
type Snapshot struct {
	Leap       int
	Time       float64
	Positions  []r3.Vec
	Velocities []r3.Vec
}

type Result struct {
	Names       []string
	Masses      []float64
	Snapshots   []Snapshot
	StepsTaken  int
	Halted      bool
	Errors      []error
	Metrics     map[string]float64
	EnergyDrift float64
}

// Final returns the last recorded snapshot, or nil if there is none.
func (r *Result) Final() *Snapshot {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return &r.Snapshots[len(r.Snapshots)-1]
}

// Times lists the simulated time of every snapshot.
func (r *Result) Times() []float64 {
	ts := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		ts[i] = s.Time
	}
	return ts
}

// Progress is what RunWithCallback reports after each leap. Steps and Time
// are cumulative over the run.
type Progress struct {
	Ensemble *dynamo.Ensemble
	Leap     int
	Steps    int
	Time     float64
	Halted   bool
}
