package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/facet/pkg/eval"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	opts := cfg.Options()
	if opts.Mode != eval.ModeMesh {
		t.Errorf("default mode = %v, want mesh", opts.Mode)
	}
	if opts.SamplesPerUnit != eval.SamplesPerUnit {
		t.Errorf("samples per unit = %v", opts.SamplesPerUnit)
	}
	if opts.MeshCells != eval.DefaultMeshCells {
		t.Errorf("mesh cells = %v", opts.MeshCells)
	}
	if opts.SkipImplicit || cfg.Display.Lightweight {
		t.Error("implicit evaluation disabled by default")
	}
}

func TestParseOverridesAndKeepsRest(t *testing.T) {
	cfg, err := Parse(`
[display]
mode = "pointcloud"
samples_per_unit = 8.0
`)
	if err != nil {
		t.Fatal(err)
	}
	opts := cfg.Options()
	if opts.Mode != eval.ModePointCloud {
		t.Errorf("mode = %v, want pointcloud", opts.Mode)
	}
	if opts.SamplesPerUnit != 8.0 {
		t.Errorf("samples per unit = %v, want 8", opts.SamplesPerUnit)
	}
	if opts.MeshCells != eval.DefaultMeshCells {
		t.Errorf("mesh cells lost its default: %v", opts.MeshCells)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	for _, text := range []string{
		"[display]\nmode = \"wireframe\"\n",
		"[display]\nmode = \"mesh\"\nsamples_per_unit = -1.0\n",
		"[display]\nmode = \"mesh\"\nmesh_cells = 0\n",
	} {
		if _, err := Parse(text); err == nil {
			t.Errorf("accepted invalid config:\n%s", text)
		}
	}
}

func TestLoadMissingFileIsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Display.Mode != "mesh" {
		t.Errorf("mode = %q, want mesh", cfg.Display.Mode)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facet.toml")
	if err := os.WriteFile(path, []byte("[display]\nlightweight = true\nskip_implicit = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Display.Lightweight || !cfg.Options().SkipImplicit {
		t.Error("file values not applied")
	}
}
