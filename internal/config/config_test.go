package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arborgen/internal/domain"
	"arborgen/internal/meshstore"
	"arborgen/internal/species"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if got := len(cfg.Species); got != len(species.Presets()) {
		t.Fatalf("len(Species) = %d, want %d", got, len(species.Presets()))
	}
}

func TestDefaultSpeciesMatchPresets(t *testing.T) {
	cfg := Default()
	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog() returned error: %v", err)
	}
	for _, want := range species.Presets() {
		got, err := catalog.Lookup(want.Name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", want.Name, err)
		}
		if got.Fingerprint() != want.Fingerprint() {
			t.Errorf("%s fingerprint = %s, want %s", want.Name, got.Fingerprint(), want.Fingerprint())
		}
	}
}

func TestValidateRejectsInvalidConfigurations(t *testing.T) {
	tests := map[string]func(*Config){
		"negative workers":       func(c *Config) { c.Generation.Workers = -1 },
		"iterations too high":    func(c *Config) { c.Generation.MaxIterations = 13 },
		"zero max symbols":       func(c *Config) { c.Generation.MaxSymbols = 0 },
		"two radial segments":    func(c *Config) { c.Generation.RadialSegments = 2 },
		"zero weld tolerance":    func(c *Config) { c.Generation.WeldTolerance = 0 },
		"no species":             func(c *Config) { c.Species = nil },
		"multi-symbol rule key":  func(c *Config) { c.Species[0].Rules["FF"] = []RuleConfig{{Successor: "F"}} },
		"leaf symbol is command": func(c *Config) { c.Species[0].LeafSymbols = "[" },
		"missing axiom":          func(c *Config) { c.Species[0].Axiom = "" },
		"bad leaf policy":        func(c *Config) { c.Species[0].LeafPolicy = "everywhere" },
		"duplicate species":      func(c *Config) { c.Species[1].Name = c.Species[0].Name },
		"zero spacing":           func(c *Config) { c.Forest.MinSpacing = 0 },
		"zero width":             func(c *Config) { c.Forest.Width = 0 },
		"empty mix":              func(c *Config) { c.Forest.Mix = nil },
		"zero mix weights":       func(c *Config) { c.Forest.Mix = map[string]float64{"oak": 0} },
		"unknown mix species":    func(c *Config) { c.Forest.Mix = map[string]float64{"baobab": 1} },
		"bad terrain octaves":    func(c *Config) { c.Terrain.Octaves = 0 },
		"unknown cache backend":  func(c *Config) { c.Cache.Backend = "s3" },
		"disk without path": func(c *Config) {
			c.Cache.Backend = meshstore.BackendDisk
			c.Cache.Path = ""
		},
		"redis without addr": func(c *Config) {
			c.Cache.Backend = meshstore.BackendRedis
			c.Cache.RedisAddr = ""
		},
		"empty listen":    func(c *Config) { c.Server.Listen = "" },
		"bad log level":   func(c *Config) { c.Log.Level = "loud" },
		"bad log format":  func(c *Config) { c.Log.Format = "xml" },
		"negative ttl":    func(c *Config) { c.Cache.TTL = -time.Second },
		"negative slope":  func(c *Config) { c.Forest.MaxSlope = -1 },
		"negative rounds": func(c *Config) { c.Forest.CandidateRounds = -1 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidateIgnoresTerrainWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Terrain.Enabled = false
	cfg.Terrain.Octaves = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	field, err := cfg.TerrainField()
	if err != nil || field != nil {
		t.Fatalf("TerrainField() = %v, %v; want nil, nil", field, err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("Server.Listen = %q, want :8080", cfg.Server.Listen)
	}
}

func TestLoadReadsYAMLOverDefaults(t *testing.T) {
	path := writeFile(t, "arborgen.yaml", `
generation:
  workers: 3
species:
  - name: fern
    axiom: X
    rules:
      X:
        - successor: "F[+X]F[-X]+X"
          weight: 2
        - successor: "F[-X]F[+X]-X"
          weight: 1
      F:
        - successor: FF
    iterations: 3
    angle: 22.5
    step: 0.5
    radius: 0.05
    radius_taper: 0.7
    leaf_symbols: X
    leaf_policy: markers
    leaf_frequency: 1
    leaf_size: 0.2
    scale_min: 1
    scale_max: 1
forest:
  width: 20
  depth: 10
  mix:
    fern: 1
cache:
  backend: disk
  path: /tmp/meshes.log
  ttl: 90s
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Generation.Workers != 3 {
		t.Errorf("Generation.Workers = %d, want 3", cfg.Generation.Workers)
	}
	if cfg.Generation.RadialSegments != 8 {
		t.Errorf("Generation.RadialSegments = %d, want default 8", cfg.Generation.RadialSegments)
	}
	if len(cfg.Species) != 1 || cfg.Species[0].Name != "fern" {
		t.Fatalf("Species = %+v, want only fern", cfg.Species)
	}
	if len(cfg.Forest.Mix) != 1 {
		t.Errorf("Forest.Mix = %v, want only fern", cfg.Forest.Mix)
	}
	if cfg.Forest.MinSpacing != 3 {
		t.Errorf("Forest.MinSpacing = %v, want default 3", cfg.Forest.MinSpacing)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog() returned error: %v", err)
	}
	fern, err := catalog.Lookup("fern")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := fern.Grammar.Rules['X']; len(got) != 2 || got[0].Weight != 2 {
		t.Errorf("fern X rules = %+v", got)
	}
	tree, err := fern.Grow(7)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if len(tree.Leaves) == 0 {
		t.Errorf("fern grew no leaves")
	}

	opts := cfg.StoreOptions()
	if opts.Backend != meshstore.BackendDisk || opts.Path != "/tmp/meshes.log" {
		t.Errorf("StoreOptions() = %+v", opts)
	}
}

func TestOmittedLeafFrequencyKeepsEveryLeaf(t *testing.T) {
	path := writeFile(t, "arborgen.yaml", `
species:
  - name: shrub
    axiom: F
    rules:
      F:
        - successor: "F[+F]F[-F]F"
    iterations: 2
    angle: 25
    step: 1
    radius: 0.1
    radius_taper: 0.75
    leaf_policy: segments
    leaf_depth: 1
    leaf_every: 1
    leaf_size: 0.3
    scale_min: 1
    scale_max: 1
  - name: bare
    axiom: F
    rules:
      F:
        - successor: "F[+F]F[-F]F"
    iterations: 2
    angle: 25
    step: 1
    radius: 0.1
    radius_taper: 0.75
    leaf_policy: segments
    leaf_depth: 1
    leaf_every: 1
    leaf_frequency: 0
    leaf_size: 0.3
    scale_min: 1
    scale_max: 1
forest:
  mix:
    shrub: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog() returned error: %v", err)
	}

	shrub, _ := catalog.Lookup("shrub")
	if shrub.Turtle.LeafFrequency != 1 {
		t.Fatalf("shrub LeafFrequency = %v, want 1", shrub.Turtle.LeafFrequency)
	}
	tree, err := shrub.Grow(1)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if len(tree.Leaves) == 0 {
		t.Errorf("shrub grew no leaves")
	}

	bare, _ := catalog.Lookup("bare")
	if bare.Turtle.LeafFrequency != 0 {
		t.Fatalf("bare LeafFrequency = %v, want explicit 0", bare.Turtle.LeafFrequency)
	}
}

func TestLoadReadsTOML(t *testing.T) {
	path := writeFile(t, "arborgen.toml", `
[forest]
width = 30
depth = 40
min_spacing = 2.5
seed = 9

[forest.mix]
oak = 2
pine = 1

[server]
listen = "127.0.0.1:9000"
shutdown_timeout = "2s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:9000" {
		t.Errorf("Server.Listen = %q", cfg.Server.Listen)
	}
	if cfg.Server.ShutdownTimeout != 2*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 2s", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Species) != len(species.Presets()) {
		t.Errorf("len(Species) = %d, want presets kept", len(cfg.Species))
	}

	req := cfg.ForestRequest(nil)
	if req.Bounds.Width() != 30 || req.Bounds.Depth() != 40 {
		t.Errorf("ForestRequest bounds = %+v", req.Bounds)
	}
	if req.Seed != 9 || req.MinSpacing != 2.5 {
		t.Errorf("ForestRequest = %+v", req)
	}
	if len(req.Mix) != 2 || req.Mix["oak"] != 2 {
		t.Errorf("ForestRequest mix = %v", req.Mix)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "arborgen.yaml", "forest:\n  widht: 10\n")
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load() = nil, want error")
	}
	if !strings.Contains(err.Error(), "widht") {
		t.Fatalf("Load() = %v, want mention of widht", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, "arborgen.yaml", "forest:\n  min_spacing: -1\n")
	if _, err := Load(path); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("Load() = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadPropagatesReadErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path.yaml"); err == nil {
		t.Fatalf("Load() = nil, want error")
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "arborgen.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() returned error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	want := Default()
	if len(cfg.Species) != len(want.Species) {
		t.Fatalf("len(Species) = %d, want %d", len(cfg.Species), len(want.Species))
	}
	if cfg.Server.ShutdownTimeout != want.Server.ShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.Server.ShutdownTimeout, want.Server.ShutdownTimeout)
	}
	for i := range want.Species {
		if cfg.Species[i].Axiom != want.Species[i].Axiom {
			t.Errorf("species[%d].axiom = %q, want %q", i, cfg.Species[i].Axiom, want.Species[i].Axiom)
		}
	}
}
