package kernel

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/integrators"
	"github.com/san-kum/gravkern/internal/physics"
)

// DefaultSupportedSizes are the ensemble sizes accepted when no other set is
// configured.
var DefaultSupportedSizes = []int{3, 60, 2048}

// MassPolicy decides what the boundary does with masses <= 0.
type MassPolicy int

const (
	// MassRejectNonPositive fails the call with ErrNonPositiveMass.
	MassRejectNonPositive MassPolicy = iota
	// MassPassThrough hands the masses to the core unchanged.
	MassPassThrough
)

type Option func(*Kernel)

// WithSupportedSizes restricts the accepted ensemble sizes. Calling it with
// no sizes accepts any N >= 1.
func WithSupportedSizes(sizes ...int) Option {
	return func(k *Kernel) { k.sizes = slices.Clone(sizes) }
}

func WithWorkers(n int) Option {
	return func(k *Kernel) { k.workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) { k.log = l }
}

func WithMassPolicy(p MassPolicy) Option {
	return func(k *Kernel) { k.massPolicy = p }
}

// Kernel is the checked entry point into the gravity core. It validates
// every call and then hands owned slices to the unchecked physics and
// integrators packages.
//
// A Kernel is safe for concurrent use. Calls for the same ensemble size are
// serialised because they share one stepper.
type Kernel struct {
	sizes      []int
	workers    int
	massPolicy MassPolicy
	log        *slog.Logger

	mu       sync.Mutex
	steppers map[int]*stepper
}

type stepper struct {
	mu sync.Mutex
	lf *integrators.Leapfrog
}

func New(opts ...Option) *Kernel {
	k := &Kernel{
		sizes:    slices.Clone(DefaultSupportedSizes),
		log:      slog.Default(),
		steppers: make(map[int]*stepper),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// SupportedSizes returns the accepted ensemble sizes, or nil if any size is
// accepted.
func (k *Kernel) SupportedSizes() []int {
	if len(k.sizes) == 0 {
		return nil
	}
	return slices.Clone(k.sizes)
}

// stepperFor returns the stepper dedicated to ensembles of n bodies.
func (k *Kernel) stepperFor(n int) *stepper {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.steppers[n]
	if !ok {
		s = &stepper{lf: integrators.NewLeapfrog(k.workers)}
		k.steppers[n] = s
	}
	return s
}

func (k *Kernel) checkSize(n int) error {
	if n == 0 {
		return dynamo.ErrEmpty
	}
	if len(k.sizes) > 0 && !slices.Contains(k.sizes, n) {
		return fmt.Errorf("%w: %d (supported: %v)", dynamo.ErrUnsupportedSize, n, k.sizes)
	}
	return nil
}

func (k *Kernel) checkMasses(masses []float64) error {
	if k.massPolicy == MassPassThrough {
		return nil
	}
	for i, m := range masses {
		if !(m > 0) {
			return fmt.Errorf("%w: masses[%d]=%g", dynamo.ErrNonPositiveMass, i, m)
		}
	}
	return nil
}

// length names one slice argument for checkLengths.
type length struct {
	name string
	n    int
}

// checkLengths reports the first slice, in argument order, whose length
// differs from n.
func (k *Kernel) checkLengths(n int, lengths ...length) error {
	for _, l := range lengths {
		if l.n != n {
			return fmt.Errorf("%w: masses=%d %s=%d", dynamo.ErrLengthMismatch, n, l.name, l.n)
		}
	}
	return nil
}

func (k *Kernel) reject(op string, err error) error {
	k.log.Warn("kernel call rejected", "op", op, "error", err)
	return err
}

// AccelerationOneOnOne is the pairwise law. It has no preconditions.
func (k *Kernel) AccelerationOneOnOne(d r3.Vec, m float64) r3.Vec {
	return physics.Acceleration(d, m)
}

// AccelerationManyOnOne returns the acceleration of body index due to every
// other body.
func (k *Kernel) AccelerationManyOnOne(masses []float64, positions []r3.Vec, index int) (r3.Vec, error) {
	n := len(masses)
	if err := k.checkSize(n); err != nil {
		return r3.Vec{}, k.reject("many_on_one", err)
	}
	if err := k.checkLengths(n, length{"positions", len(positions)}); err != nil {
		return r3.Vec{}, k.reject("many_on_one", err)
	}
	if index < 0 || index >= n {
		return r3.Vec{}, k.reject("many_on_one", fmt.Errorf("%w: %d not in [0,%d)", dynamo.ErrIndexOutOfRange, index, n))
	}
	if err := k.checkMasses(masses); err != nil {
		return r3.Vec{}, k.reject("many_on_one", err)
	}
	return physics.AccelerationOn(masses, positions, index), nil
}

// AccelerationManyOnMany fully overwrites out with the acceleration of every
// body.
func (k *Kernel) AccelerationManyOnMany(masses []float64, positions, out []r3.Vec) error {
	n := len(masses)
	if err := k.checkSize(n); err != nil {
		return k.reject("many_on_many", err)
	}
	if err := k.checkLengths(n, length{"positions", len(positions)}, length{"accelerations", len(out)}); err != nil {
		return k.reject("many_on_many", err)
	}
	if err := k.checkMasses(masses); err != nil {
		return k.reject("many_on_many", err)
	}
	physics.NewField(k.workers).Compute(masses, positions, out)
	return nil
}

// TryLeap advances positions and velocities in place by up to requested
// steps of dt and returns how many steps completed. A count below requested
// means numeric breakdown; the slices then hold the last good state. The
// error is non-nil only for contract violations, in which case nothing was
// touched.
func (k *Kernel) TryLeap(requested int, dt float64, masses []float64, positions, velocities []r3.Vec) (int, error) {
	n := len(masses)
	if err := k.checkSize(n); err != nil {
		return 0, k.reject("try_leap", err)
	}
	if err := k.checkLengths(n, length{"positions", len(positions)}, length{"velocities", len(velocities)}); err != nil {
		return 0, k.reject("try_leap", err)
	}
	if requested < 0 {
		return 0, k.reject("try_leap", fmt.Errorf("%w: %d", dynamo.ErrNegativeSteps, requested))
	}
	if err := k.checkMasses(masses); err != nil {
		return 0, k.reject("try_leap", err)
	}

	s := k.stepperFor(n)
	s.mu.Lock()
	stats := s.lf.TryLeapStats(requested, dt, masses, positions, velocities)
	s.mu.Unlock()

	if stats.EarlyExit() {
		k.log.Debug("leap halted early",
			"bodies", n,
			"requested", stats.Requested,
			"completed", stats.Completed,
			"dt", dt)
	}
	return stats.Completed, nil
}

// TryLeapFlat is TryLeap over packed buffers of 3N float64s (x, y, z per
// body), the layout a foreign caller hands over.
func (k *Kernel) TryLeapFlat(requested int, dt float64, masses, positions, velocities []float64) (int, error) {
	n := len(masses)
	if len(positions) != 3*n || len(velocities) != 3*n {
		return 0, k.reject("try_leap_flat", fmt.Errorf("%w: masses=%d positions=%d velocities=%d (want %d scalars)",
			dynamo.ErrLengthMismatch, n, len(positions), len(velocities), 3*n))
	}
	p := Unpack(positions)
	v := Unpack(velocities)
	done, err := k.TryLeap(requested, dt, masses, p, v)
	if err != nil {
		return 0, err
	}
	Pack(positions, p)
	Pack(velocities, v)
	return done, nil
}

// Unpack converts a packed x,y,z buffer into vectors. Trailing scalars that
// do not make a whole vector are ignored.
func Unpack(flat []float64) []r3.Vec {
	vs := make([]r3.Vec, len(flat)/3)
	for i := range vs {
		vs[i] = r3.Vec{X: flat[3*i], Y: flat[3*i+1], Z: flat[3*i+2]}
	}
	return vs
}

// Pack writes vectors into a packed x,y,z buffer of at least 3*len(vs).
func Pack(dst []float64, vs []r3.Vec) {
	for i, v := range vs {
		dst[3*i], dst[3*i+1], dst[3*i+2] = v.X, v.Y, v.Z
	}
}
