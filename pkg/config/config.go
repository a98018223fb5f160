// Package config loads display preferences from a TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/chazu/facet/pkg/eval"
)

// Config holds user preferences for scene generation.
type Config struct {
	Display Display `toml:"display"`
}

// Display tunes how geometry outputs are rendered.
type Display struct {
	// Mode is "mesh" or "pointcloud".
	Mode           string  `toml:"mode"`
	SamplesPerUnit float64 `toml:"samples_per_unit"`
	MeshCells      int     `toml:"mesh_cells"`
	// SkipImplicit disables the per-sample pass entirely.
	SkipImplicit bool `toml:"skip_implicit"`
	// Lightweight makes scene requests default to the cheap shell pass,
	// for high-frequency interactive refresh.
	Lightweight bool `toml:"lightweight"`
}

// Default returns the built-in preferences: mesh display at the standard
// sampling density.
func Default() *Config {
	return &Config{
		Display: Display{
			Mode:           "mesh",
			SamplesPerUnit: eval.SamplesPerUnit,
			MeshCells:      eval.DefaultMeshCells,
		},
	}
}

// Load reads a TOML preferences file. A missing file is not an error: the
// defaults are returned. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes preferences from TOML text, applying the same defaults as
// Load.
func Parse(text string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) check() error {
	switch c.Display.Mode {
	case "mesh", "pointcloud":
	default:
		return fmt.Errorf("config: display mode must be \"mesh\" or \"pointcloud\", got %q", c.Display.Mode)
	}
	if c.Display.SamplesPerUnit <= 0 {
		return fmt.Errorf("config: samples_per_unit must be positive, got %v", c.Display.SamplesPerUnit)
	}
	if c.Display.MeshCells <= 0 {
		return fmt.Errorf("config: mesh_cells must be positive, got %d", c.Display.MeshCells)
	}
	return nil
}

// Options translates the preferences into evaluator display options.
func (c *Config) Options() eval.DisplayOptions {
	mode := eval.ModeMesh
	if c.Display.Mode == "pointcloud" {
		mode = eval.ModePointCloud
	}
	return eval.DisplayOptions{
		Mode:           mode,
		SamplesPerUnit: c.Display.SamplesPerUnit,
		MeshCells:      c.Display.MeshCells,
		SkipImplicit:   c.Display.SkipImplicit,
	}
}
