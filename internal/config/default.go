package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"arborgen/internal/geometry"
	"arborgen/internal/lsystem"
	"arborgen/internal/species"
	"arborgen/internal/terrain"
)

// Default returns a configuration that grows the built-in species and
// composes a mixed forest on noise terrain without any config file.
func Default() Config {
	geo := geometry.DefaultOptions()
	presets := species.Presets()
	speciesCfg := make([]SpeciesConfig, 0, len(presets))
	for _, t := range presets {
		speciesCfg = append(speciesCfg, SpeciesFromTemplate(t))
	}
	ter := terrain.DefaultConfig()

	return Config{
		Generation: GenerationConfig{
			Workers:        0,
			MaxIterations:  lsystem.MaxIterations,
			MaxSymbols:     lsystem.DefaultMaxLength,
			RadialSegments: geo.RadialSegments,
			WeldTolerance:  float64(geo.WeldTolerance),
		},
		Species: speciesCfg,
		Forest: ForestConfig{
			Width:           50,
			Depth:           50,
			TargetDensity:   0.02,
			MinSpacing:      3,
			Seed:            1,
			MaxSlope:        35,
			CandidateRounds: 4,
			Variants:        0,
			Mix: map[string]float64{
				"pine":   1,
				"oak":    1,
				"bush":   1,
				"willow": 0.5,
				"palm":   0.5,
			},
		},
		Terrain: TerrainConfig{
			Enabled:     true,
			Seed:        ter.Seed,
			Frequency:   ter.Frequency,
			Amplitude:   ter.Amplitude,
			Octaves:     ter.Octaves,
			Persistence: ter.Persistence,
			Lacunarity:  ter.Lacunarity,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			Path:      "./data/meshes.log",
			RedisAddr: "127.0.0.1:6379",
			Prefix:    "arborgen:mesh:",
		},
		Server: ServerConfig{
			Listen:          ":8080",
			Metrics:         true,
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefault writes the default configuration to the provided path.
func WriteDefault(path string) error {
	cfg := Default()

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}
