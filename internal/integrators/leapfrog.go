package integrators

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/physics"
)

// Phase is the runner's state while working through a leap.
type Phase int

const (
	Running Phase = iota
	Halted
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// LeapStats describes how a leap ended.
type LeapStats struct {
	Requested int
	Completed int
	Phase     Phase
}

// EarlyExit reports whether numeric breakdown cut the leap short.
func (s LeapStats) EarlyExit() bool { return s.Completed < s.Requested }

// Leapfrog advances an ensemble with symplectic (semi-implicit) Euler:
// velocities are kicked first and the new velocities drift the positions.
//
// A Leapfrog owns scratch buffers sized to the last ensemble it saw and must
// not be shared between goroutines.
type Leapfrog struct {
	field      *physics.Field
	positions  []r3.Vec
	velocities []r3.Vec
	acc        []r3.Vec
}

func NewLeapfrog(workers int) *Leapfrog {
	return &Leapfrog{field: physics.NewField(workers)}
}

func (l *Leapfrog) ensureScratch(n int) {
	if len(l.acc) != n {
		l.positions = make([]r3.Vec, n)
		l.velocities = make([]r3.Vec, n)
		l.acc = make([]r3.Vec, n)
	}
}

func (l *Leapfrog) resetScratch() {
	clear(l.positions)
	clear(l.velocities)
	clear(l.acc)
}

// TryStep computes one step from (pCur, vCur) into (pNext, vNext).
//
// It returns false as soon as a body's acceleration, velocity or position is
// non-finite; bodies after it are not processed and pNext/vNext then hold a
// partial generation that callers must discard. pCur and vCur are never
// written.
func (l *Leapfrog) TryStep(dt float64, masses []float64, pCur, vCur, pNext, vNext []r3.Vec) bool {
	l.ensureScratch(len(masses))
	l.field.Compute(masses, pCur, l.acc)

	for i := range masses {
		a := l.acc[i]
		v := r3.Add(vCur[i], r3.Scale(dt, a))
		p := r3.Add(pCur[i], r3.Scale(dt, v))
		if !dynamo.IsFinite(a) || !dynamo.IsFinite(v) || !dynamo.IsFinite(p) {
			return false
		}
		pNext[i] = p
		vNext[i] = v
	}
	return true
}

// TryLeap performs up to requested steps of duration dt on the caller's
// positions and velocities and returns how many succeeded.
//
// Steps alternate between the caller's slices and the stepper's scratch pair.
// When a step fails the leap halts, and the caller's slices are left holding
// the last generation that completed, so a failed step is never visible.
func (l *Leapfrog) TryLeap(requested int, dt float64, masses []float64, positions, velocities []r3.Vec) int {
	return l.TryLeapStats(requested, dt, masses, positions, velocities).Completed
}

func (l *Leapfrog) TryLeapStats(requested int, dt float64, masses []float64, positions, velocities []r3.Vec) LeapStats {
	stats := LeapStats{Requested: requested, Completed: requested, Phase: Running}
	if requested <= 0 {
		stats.Completed = 0
		return stats
	}

	l.ensureScratch(len(masses))
	defer l.resetScratch()

	for step := 0; step < requested; step++ {
		var ok bool
		if step%2 == 0 {
			ok = l.TryStep(dt, masses, positions, velocities, l.positions, l.velocities)
		} else {
			ok = l.TryStep(dt, masses, l.positions, l.velocities, positions, velocities)
		}
		if !ok {
			stats.Completed = step
			stats.Phase = Halted
			break
		}
	}

	// An odd count means the latest good generation sits in scratch.
	if stats.Completed%2 == 1 {
		copy(positions, l.positions)
		copy(velocities, l.velocities)
	}

	return stats
}
