package config

import (
	"fmt"
	"os"

	"spin-market/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Lattice LatticeConfig `yaml:"lattice"`
	Model   ModelConfig   `yaml:"model"`
	Run     RunConfig     `yaml:"run"`
}

type LatticeConfig struct {
	Size             int      `yaml:"size"`
	NeutralFraction  float64  `yaml:"neutral_fraction"`
	Placement        string   `yaml:"placement"`
	InitDownFraction *float64 `yaml:"init_down_fraction"`
}

type ModelConfig struct {
	NeighborCoupling   float64 `yaml:"neighbor_coupling"`
	GlobalCoupling     float64 `yaml:"global_coupling"`
	InverseTemperature float64 `yaml:"inverse_temperature"`
	FieldPolicy        string  `yaml:"field_policy"`
}

type RunConfig struct {
	Sweeps int          `yaml:"sweeps"`
	Seed   int64        `yaml:"seed"`
	Crash  *CrashConfig `yaml:"crash"`
}

type CrashConfig struct {
	Sweep  int `yaml:"sweep"`
	Agents int `yaml:"agents"`
}

// Load reads a YAML file, fills unset fields from the canonical defaults and
// validates the result by constructing model.Params.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes raw YAML bytes into a validated configuration.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDefaults overlays the canonical parameters onto unset fields.
// GlobalCoupling and NeutralFraction legitimately take the value 0, so they
// are left alone; couplings that must be positive default when zero.
// InitDownFraction is a pointer so that an explicit 0 (all-up start) can be
// told apart from "unset".
func (c *Config) ApplyDefaults() {
	def := model.DefaultParams()
	if c.Lattice.Size == 0 {
		c.Lattice.Size = def.L
	}
	if c.Lattice.Placement == "" {
		c.Lattice.Placement = string(def.Placement)
	}
	if c.Lattice.InitDownFraction == nil {
		v := def.InitDownFraction
		c.Lattice.InitDownFraction = &v
	}
	if c.Model.NeighborCoupling == 0 {
		c.Model.NeighborCoupling = def.NeighborCoupling
	}
	if c.Model.InverseTemperature == 0 {
		c.Model.InverseTemperature = def.Beta
	}
	if c.Model.FieldPolicy == "" {
		c.Model.FieldPolicy = string(def.FieldPolicy)
	}
	if c.Run.Sweeps == 0 {
		c.Run.Sweeps = def.Sweeps
	}
	if c.Run.Seed == 0 {
		c.Run.Seed = def.Seed
	}
}

// Validate checks the configuration by building the parameter record.
func (c *Config) Validate() error {
	if _, err := c.ToParams(); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	return nil
}

// ToParams converts the file shape into the engine's parameter record.
func (c Config) ToParams() (model.Params, error) {
	initDown := model.DefaultParams().InitDownFraction
	if c.Lattice.InitDownFraction != nil {
		initDown = *c.Lattice.InitDownFraction
	}
	p := model.Params{
		L:                c.Lattice.Size,
		NeighborCoupling: c.Model.NeighborCoupling,
		GlobalCoupling:   c.Model.GlobalCoupling,
		Beta:             c.Model.InverseTemperature,
		NeutralFraction:  c.Lattice.NeutralFraction,
		InitDownFraction: initDown,
		Placement:        model.Placement(c.Lattice.Placement),
		FieldPolicy:      model.FieldPolicy(c.Model.FieldPolicy),
		Sweeps:           c.Run.Sweeps,
		Seed:             c.Run.Seed,
	}
	if p.Placement == model.PlacementClustered {
		p.Placement = model.PlacementTopLeft
	}
	if c.Run.Crash != nil {
		p.Crash = &model.CrashSpec{Sweep: c.Run.Crash.Sweep, Agents: c.Run.Crash.Agents}
	}
	if err := p.Validate(); err != nil {
		return model.Params{}, err
	}
	return p, nil
}
