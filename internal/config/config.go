package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravkern/internal/dynamo"
	"github.com/san-kum/gravkern/internal/scenario"
)

const (
	DefaultScenario     = "sun-earth-moon"
	DefaultDt           = 60.0
	DefaultStepsPerLeap = 60
	DefaultLeaps        = 200
	DefaultBodies       = 60
	DefaultSeed         = 1
)

type Config struct {
	Scenario       string         `yaml:"scenario" validate:"required"`
	Dt             float64        `yaml:"dt" validate:"gt=0"`
	StepsPerLeap   int            `yaml:"steps_per_leap" validate:"gte=1"`
	Leaps          int            `yaml:"leaps" validate:"gte=1"`
	Workers        int            `yaml:"workers" validate:"gte=0"`
	SupportedSizes []int          `yaml:"supported_sizes,omitempty" validate:"dive,gte=1"`
	AllowAnyMass   bool           `yaml:"allow_any_mass"`
	Params         ScenarioConfig `yaml:"params"`
	Output         OutputConfig   `yaml:"output"`
}

type ScenarioConfig struct {
	Bodies       int     `yaml:"bodies" validate:"gte=0"`
	Radius       float64 `yaml:"radius" validate:"gte=0"`
	TotalMass    float64 `yaml:"total_mass"`
	MaxSpeed     float64 `yaml:"max_speed" validate:"gte=0"`
	Seed         int64   `yaml:"seed"`
	ZeroMomentum bool    `yaml:"zero_momentum"`
}

type OutputConfig struct {
	DataDir     string `yaml:"data_dir"`
	Save        bool   `yaml:"save"`
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func DefaultConfig() *Config {
	p := scenario.DefaultParams()
	return &Config{
		Scenario:     DefaultScenario,
		Dt:           DefaultDt,
		StepsPerLeap: DefaultStepsPerLeap,
		Leaps:        DefaultLeaps,
		Params: ScenarioConfig{
			Bodies:    DefaultBodies,
			Radius:    p.Radius,
			TotalMass: p.TotalMass,
			Seed:      DefaultSeed,
		},
		Output: OutputConfig{
			DataDir: ".gravkern",
			Save:    true,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks field bounds. Failures wrap dynamo.ErrParameterBounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}
	return nil
}

// Run returns the part of the config that drives the leap loop.
func (c *Config) Run() dynamo.Config {
	return dynamo.Config{
		Dt:           c.Dt,
		StepsPerLeap: c.StepsPerLeap,
		Leaps:        c.Leaps,
		Workers:      c.Workers,
	}
}

func (c *Config) ScenarioParams() scenario.Params {
	return scenario.Params{
		Bodies:       c.Params.Bodies,
		Radius:       c.Params.Radius,
		TotalMass:    c.Params.TotalMass,
		MaxSpeed:     c.Params.MaxSpeed,
		Seed:         c.Params.Seed,
		ZeroMomentum: c.Params.ZeroMomentum,
	}
}
