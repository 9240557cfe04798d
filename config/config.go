// Package config defines the run configuration: device geometry and
// materials, mesh resolution, and loop parameters. Values load from a TOML
// file over documented defaults and may be overridden by CLI flags.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/faldah/schroedinger-poisson/driver"
	"github.com/faldah/schroedinger-poisson/mesh"
)

// Device describes the layered quantum-well structure: two identical
// barriers around a central well. Lengths in Å, energies in eV.
type Device struct {
	WellWidth      float64 `toml:"well_width"`
	BarrierWidth   float64 `toml:"barrier_width"`
	BarrierOffset  float64 `toml:"barrier_offset"`
	WellMass       float64 `toml:"well_mass"`
	BarrierMass    float64 `toml:"barrier_mass"`
	WellEpsilon    float64 `toml:"well_epsilon"`
	BarrierEpsilon float64 `toml:"barrier_epsilon"`
	ContactLeft    float64 `toml:"contact_left"`
	ContactRight   float64 `toml:"contact_right"`
	Coupling       float64 `toml:"coupling"`     // Poisson source coupling; 0 selects the default
	TotalCharge    float64 `toml:"total_charge"` // density normalization; 0 uses the occupation sum
}

// Mesh controls the discretization resolution.
type Mesh struct {
	Cells int `toml:"cells"` // cells per side of the square domain
	Order int `toml:"order"` // Lagrange polynomial order
}

// Solver controls the self-consistent loop.
type Solver struct {
	MaxIterations int     `toml:"max_iterations"`
	Tolerance     float64 `toml:"tolerance"`
	NumStates     int     `toml:"num_states"`
	Temperature   float64 `toml:"temperature"` // kT [eV]
	Mixing        float64 `toml:"mixing"`
}

// Output controls result persistence.
type Output struct {
	Dir   string `toml:"dir"`
	Plots bool   `toml:"plots"`
}

// Config is the full run configuration.
type Config struct {
	Device Device `toml:"device"`
	Mesh   Mesh   `toml:"mesh"`
	Solver Solver `toml:"solver"`
	Output Output `toml:"output"`
}

// Default returns the AlGaAs/GaAs quantum-well defaults: an 80 Å well with
// 0.23 eV barriers of 250 Å on a 20x20-cell square domain.
func Default() Config {
	return Config{
		Device: Device{
			WellWidth:      80,
			BarrierWidth:   250,
			BarrierOffset:  0.23,
			WellMass:       0.067,
			BarrierMass:    0.096,
			WellEpsilon:    12.9,
			BarrierEpsilon: 12.0,
		},
		Mesh: Mesh{
			Cells: 20,
			Order: 1,
		},
		Solver: Solver{
			MaxIterations: 10,
			Tolerance:     1e-4,
			NumStates:     8,
			Temperature:   0,
			Mixing:        0.6,
		},
		Output: Output{
			Dir: "results",
		},
	}
}

// Load decodes a TOML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks parameters not covered by the geometry checks in mesh or
// by driver.New.
func (c Config) Validate() error {
	d := c.Device
	if d.WellWidth <= 0 || d.BarrierWidth <= 0 {
		return fmt.Errorf("config: well width %g and barrier width %g must be positive", d.WellWidth, d.BarrierWidth)
	}
	if c.Mesh.Cells < 1 {
		return fmt.Errorf("config: mesh cells %d must be at least 1", c.Mesh.Cells)
	}
	if c.Mesh.Order < 1 || c.Mesh.Order > 3 {
		return fmt.Errorf("config: mesh order %d must be 1..3", c.Mesh.Order)
	}
	return nil
}

// Layers expands the device description into the barrier/well/barrier layer
// stack tiling [0, DomainSize()].
func (c Config) Layers() []mesh.Layer {
	d := c.Device
	b, w := d.BarrierWidth, d.WellWidth
	return []mesh.Layer{
		{X0: 0, X1: b, BandOffset: d.BarrierOffset, Mass: d.BarrierMass, Epsilon: d.BarrierEpsilon},
		{X0: b, X1: b + w, BandOffset: 0, Mass: d.WellMass, Epsilon: d.WellEpsilon},
		{X0: b + w, X1: 2*b + w, BandOffset: d.BarrierOffset, Mass: d.BarrierMass, Epsilon: d.BarrierEpsilon},
	}
}

// DomainSize returns the side length of the square domain [Å].
func (c Config) DomainSize() float64 {
	return 2*c.Device.BarrierWidth + c.Device.WellWidth
}

// Discretize builds the shared discretization for this configuration.
func (c Config) Discretize() (*mesh.Discretization, error) {
	l := c.DomainSize()
	grid, err := mesh.NewGrid(l, l, c.Mesh.Cells, c.Mesh.Cells, c.Layers())
	if err != nil {
		return nil, err
	}
	return mesh.NewDiscretization(grid, c.Mesh.Order)
}

// DriverConfig assembles the loop parameters for the given Fermi level.
func (c Config) DriverConfig(fermiLevel float64) driver.Config {
	return driver.Config{
		FermiLevel:    fermiLevel,
		Temperature:   c.Solver.Temperature,
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
		NumStates:     c.Solver.NumStates,
		Mixing:        c.Solver.Mixing,
		TotalCharge:   c.Device.TotalCharge,
		Coupling:      c.Device.Coupling,
		ContactLeft:   c.Device.ContactLeft,
		ContactRight:  c.Device.ContactRight,
	}
}
