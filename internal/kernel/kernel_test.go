package kernel

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/physics"
)

func quietKernel(opts ...Option) *Kernel {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(opts...)
}

func sunEarthMoon() ([]float64, []r3.Vec, []r3.Vec) {
	masses := []float64{1.9885e30, 5.9724e24, 7.3476e22}
	positions := []r3.Vec{{}, {X: 1.4960e11}, {X: 1.4960e11, Y: 3.84399e8}}
	velocities := []r3.Vec{{}, {Y: 2.978e4}, {X: -1.022e3, Y: 2.978e4}}
	return masses, positions, velocities
}

func relClose(want, got, rel float64) bool {
	return math.Abs(want-got) <= rel*math.Abs(want)
}

func TestNew_Defaults(t *testing.T) {
	k := quietKernel()
	if got := k.SupportedSizes(); !slices.Equal(got, []int{3, 60, 2048}) {
		t.Errorf("default sizes = %v", got)
	}

	k = quietKernel(WithSupportedSizes())
	if got := k.SupportedSizes(); got != nil {
		t.Errorf("expected no size restriction, got %v", got)
	}
}

func TestTryLeap_Success(t *testing.T) {
	k := quietKernel()
	masses, positions, velocities := sunEarthMoon()

	done, err := k.TryLeap(5, 16, masses, positions, velocities)
	if err != nil {
		t.Fatalf("leap failed: %v", err)
	}
	if done != 5 {
		t.Errorf("expected 5 steps, got %d", done)
	}
	if !relClose(2.382e06, positions[1].Y, 1e-3) {
		t.Errorf("earth y = %g, want about 2.382e6", positions[1].Y)
	}
}

func TestTryLeap_Breakdown(t *testing.T) {
	k := quietKernel(WithSupportedSizes(2))
	masses := []float64{1, 1}
	positions := make([]r3.Vec, 2)
	velocities := make([]r3.Vec, 2)

	done, err := k.TryLeap(3, 1, masses, positions, velocities)
	if err != nil {
		t.Fatalf("breakdown is not a contract violation: %v", err)
	}
	if done != 0 {
		t.Errorf("expected 0 steps, got %d", done)
	}
	zero := []r3.Vec{{}, {}}
	if !slices.Equal(positions, zero) || !slices.Equal(velocities, zero) {
		t.Errorf("state changed: %v %v", positions, velocities)
	}
}

func TestTryLeap_ContractViolations(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		requested  int
		masses     []float64
		positions  []r3.Vec
		velocities []r3.Vec
		want       error
	}{
		{"unsupported size", nil, 1, []float64{1, 1}, make([]r3.Vec, 2), make([]r3.Vec, 2), dynamo.ErrUnsupportedSize},
		{"empty", []Option{WithSupportedSizes()}, 1, nil, nil, nil, dynamo.ErrEmpty},
		{"short positions", nil, 1, []float64{1, 1, 1}, make([]r3.Vec, 2), make([]r3.Vec, 3), dynamo.ErrLengthMismatch},
		{"long velocities", nil, 1, []float64{1, 1, 1}, make([]r3.Vec, 3), make([]r3.Vec, 4), dynamo.ErrLengthMismatch},
		{"negative steps", nil, -1, []float64{1, 1, 1}, make([]r3.Vec, 3), make([]r3.Vec, 3), dynamo.ErrNegativeSteps},
		{"zero mass", nil, 1, []float64{1, 0, 1}, make([]r3.Vec, 3), make([]r3.Vec, 3), dynamo.ErrNonPositiveMass},
		{"NaN mass", nil, 1, []float64{1, math.NaN(), 1}, make([]r3.Vec, 3), make([]r3.Vec, 3), dynamo.ErrNonPositiveMass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := quietKernel(tt.opts...)
			done, err := k.TryLeap(tt.requested, 1, tt.masses, tt.positions, tt.velocities)
			if !errors.Is(err, tt.want) || !errors.Is(err, dynamo.ErrContractViolation) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if done != 0 {
				t.Errorf("expected 0 steps, got %d", done)
			}
		})
	}
}

func TestTryLeap_MassPassThrough(t *testing.T) {
	k := quietKernel(WithSupportedSizes(), WithMassPolicy(MassPassThrough))
	masses := []float64{0, 0}
	positions := []r3.Vec{{X: 0}, {X: 10}}
	velocities := []r3.Vec{{X: 1}, {X: -1}}

	done, err := k.TryLeap(8, 1, masses, positions, velocities)
	if err != nil {
		t.Fatalf("massless bodies should pass through: %v", err)
	}
	if done != 5 {
		t.Errorf("expected 5 steps, got %d", done)
	}
	if !slices.Equal(positions, []r3.Vec{{X: 5}, {X: 5}}) {
		t.Errorf("positions = %v", positions)
	}
}

func TestAccelerationManyOnOne(t *testing.T) {
	k := quietKernel()
	masses, positions, _ := sunEarthMoon()

	a, err := k.AccelerationManyOnOne(masses, positions, 1)
	if err != nil {
		t.Fatalf("many on one failed: %v", err)
	}
	if want := physics.AccelerationOn(masses, positions, 1); a != want {
		t.Errorf("got %v, want %v", a, want)
	}

	tests := []struct {
		name      string
		positions []r3.Vec
		index     int
		want      error
	}{
		{"index past end", positions, 3, dynamo.ErrIndexOutOfRange},
		{"negative index", positions, -1, dynamo.ErrIndexOutOfRange},
		{"short positions", positions[:2], 0, dynamo.ErrLengthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := k.AccelerationManyOnOne(masses, tt.positions, tt.index); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAccelerationManyOnMany(t *testing.T) {
	k := quietKernel(WithWorkers(3))
	masses, positions, _ := sunEarthMoon()

	out := make([]r3.Vec, 3)
	if err := k.AccelerationManyOnMany(masses, positions, out); err != nil {
		t.Fatalf("many on many failed: %v", err)
	}
	for i := range masses {
		if want := physics.AccelerationOn(masses, positions, i); out[i] != want {
			t.Errorf("body %d: got %v, want %v", i, out[i], want)
		}
	}

	err := k.AccelerationManyOnMany(masses, positions, make([]r3.Vec, 2))
	if !errors.Is(err, dynamo.ErrLengthMismatch) {
		t.Errorf("expected length mismatch, got %v", err)
	}
}

func TestAccelerationOneOnOne(t *testing.T) {
	k := quietKernel()
	a := k.AccelerationOneOnOne(r3.Vec{X: 1.4960e11}, 1.9885e30)
	if !relClose(5.9301e-3, a.X, 1e-3) {
		t.Errorf("sun on earth = %g, want about 5.9301e-3", a.X)
	}
}

func TestTryLeapFlat(t *testing.T) {
	k := quietKernel()
	masses, positions, velocities := sunEarthMoon()

	flatP := make([]float64, 9)
	flatV := make([]float64, 9)
	Pack(flatP, positions)
	Pack(flatV, velocities)

	done, err := k.TryLeapFlat(5, 16, masses, flatP, flatV)
	if err != nil || done != 5 {
		t.Fatalf("flat leap: done=%d err=%v", done, err)
	}

	if _, err := k.TryLeap(5, 16, masses, positions, velocities); err != nil {
		t.Fatalf("leap failed: %v", err)
	}
	if !slices.Equal(positions, Unpack(flatP)) || !slices.Equal(velocities, Unpack(flatV)) {
		t.Error("flat and vector leaps disagree")
	}

	_, err = k.TryLeapFlat(1, 16, masses, flatP[:8], flatV)
	if !errors.Is(err, dynamo.ErrLengthMismatch) {
		t.Errorf("expected length mismatch, got %v", err)
	}
}

func TestPackUnpack(t *testing.T) {
	flat := []float64{1, 2, 3, 4, 5, 6, 7}
	vs := Unpack(flat)
	if len(vs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vs))
	}
	if vs[1] != (r3.Vec{X: 4, Y: 5, Z: 6}) {
		t.Errorf("vs[1] = %v", vs[1])
	}

	out := make([]float64, 6)
	Pack(out, vs)
	if !slices.Equal(out, flat[:6]) {
		t.Errorf("packed %v", out)
	}
}

func TestTryLeap_LengthErrorNamesFirstMismatch(t *testing.T) {
	k := quietKernel()
	masses := []float64{1, 1, 1}

	for i := 0; i < 20; i++ {
		_, err := k.TryLeap(1, 1, masses, make([]r3.Vec, 2), make([]r3.Vec, 4))
		if !errors.Is(err, dynamo.ErrLengthMismatch) {
			t.Fatalf("expected length mismatch, got %v", err)
		}
		if !strings.Contains(err.Error(), "positions=2") {
			t.Fatalf("expected the positions slice to be named, got %q", err)
		}
	}

	err := k.AccelerationManyOnMany(masses, make([]r3.Vec, 1), make([]r3.Vec, 5))
	if err == nil || !strings.Contains(err.Error(), "positions=1") {
		t.Errorf("expected the positions slice to be named, got %v", err)
	}
}

func TestTryLeap_ConcurrentSizes(t *testing.T) {
	k := quietKernel(WithSupportedSizes())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				masses, positions, velocities := sunEarthMoon()
				if _, err := k.TryLeap(3, 16, masses, positions, velocities); err != nil {
					errs <- err
				}
				return
			}
			masses := []float64{1, 1}
			positions := []r3.Vec{{X: -1}, {X: 1}}
			velocities := make([]r3.Vec, 2)
			if _, err := k.TryLeap(3, 1, masses, positions, velocities); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
