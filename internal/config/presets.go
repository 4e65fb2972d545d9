package config

import "sort"

var Presets = map[string]*Config{
	"sun-earth-moon": {
		Scenario: "sun-earth-moon", Dt: 60, StepsPerLeap: 60, Leaps: 24 * 30,
	},
	"sun-earth-moon-coarse": {
		Scenario: "sun-earth-moon", Dt: 3600, StepsPerLeap: 24, Leaps: 365,
	},
	"cluster": {
		Scenario: "ball", Dt: 3600, StepsPerLeap: 24, Leaps: 100,
		SupportedSizes: []int{60},
		Params:         ScenarioConfig{Bodies: 60, Radius: 1.4960e11, TotalMass: 1.9885e30, MaxSpeed: 1e3, Seed: 1},
	},
	"binary": {
		Scenario: "two-bodies", Dt: 3600, StepsPerLeap: 24, Leaps: 200,
		SupportedSizes: []int{2},
		Params:         ScenarioConfig{Radius: 1.4960e11, TotalMass: 1.9885e30, Seed: 1, ZeroMomentum: true},
	},
	"line": {
		Scenario: "line", Dt: 60, StepsPerLeap: 10, Leaps: 50,
		Params: ScenarioConfig{Bodies: 3, Radius: 6.371e6, TotalMass: 3 * 5.9724e24},
	},
	"collapse": {
		Scenario: "coincident", Dt: 1, StepsPerLeap: 3, Leaps: 1,
		AllowAnyMass: true,
		Params:       ScenarioConfig{Bodies: 3},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.SupportedSizes = append([]int(nil), p.SupportedSizes...)
	if cfg.Output == (OutputConfig{}) {
		cfg.Output = DefaultConfig().Output
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
