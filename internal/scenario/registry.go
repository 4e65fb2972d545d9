package scenario

import (
	"fmt"
	"sort"

	"github.com/san-kum/gravkern/internal/dynamo"
)

// Generator builds the initial ensemble of a scenario.
type Generator func(Params) (*dynamo.Ensemble, error)

type entry struct {
	gen  Generator
	size int // 0 when the size follows Params.Bodies
}

type Registry struct {
	generators map[string]entry
}

func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]entry)}

	r.RegisterFixed("sun-earth-moon", 3, func(Params) (*dynamo.Ensemble, error) { return SunEarthMoon(), nil })
	r.RegisterFixed("two-bodies", 2, TwoBodies)
	r.Register("ball", Ball)
	r.Register("line", Line)
	r.Register("coincident", Coincident)
	r.Register("moon-ring", MoonRing)

	return r
}

func (r *Registry) Register(name string, g Generator) {
	r.generators[name] = entry{gen: g}
}

// RegisterFixed registers a generator that always builds n bodies.
func (r *Registry) RegisterFixed(name string, n int, g Generator) {
	r.generators[name] = entry{gen: g, size: n}
}

// FixedSize reports the ensemble size the named scenario always builds, if
// it does not depend on the parameters.
func (r *Registry) FixedSize(name string) (int, bool) {
	e, ok := r.generators[name]
	return e.size, ok && e.size > 0
}

// Build generates the named scenario and validates the result.
func (r *Registry) Build(name string, p Params) (*dynamo.Ensemble, error) {
	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s (available: %v)", name, r.List())
	}
	e, err := g.gen(p)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return e, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
