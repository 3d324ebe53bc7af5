package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Species    []SpeciesConfig  `yaml:"species"`
	Forest     ForestConfig     `yaml:"forest"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

type GenerationConfig struct {
	Workers        int     `yaml:"workers"`
	MaxIterations  int     `yaml:"max_iterations"`
	MaxSymbols     int     `yaml:"max_symbols"`
	RadialSegments int     `yaml:"radial_segments"`
	WeldTolerance  float64 `yaml:"weld_tolerance"`
}

type RuleConfig struct {
	Successor string  `yaml:"successor"`
	Weight    float64 `yaml:"weight,omitempty"`
}

type SpeciesConfig struct {
	Name          string                  `yaml:"name"`
	Axiom         string                  `yaml:"axiom"`
	Rules         map[string][]RuleConfig `yaml:"rules"`
	Iterations    int                     `yaml:"iterations"`
	Seed          int64                   `yaml:"seed,omitempty"`
	Angle         float64                 `yaml:"angle"`
	Step          float64                 `yaml:"step"`
	Radius        float64                 `yaml:"radius"`
	RadiusTaper   float64                 `yaml:"radius_taper"`
	BranchRoll    float64                 `yaml:"branch_roll,omitempty"`
	SegmentTaper  float64                 `yaml:"segment_taper,omitempty"`
	LengthScale   float64                 `yaml:"length_scale,omitempty"`
	Jitter        float64                 `yaml:"jitter,omitempty"`
	LeafSymbols   string                  `yaml:"leaf_symbols,omitempty"`
	LeafPolicy    string                  `yaml:"leaf_policy"`
	LeafDepth     int                     `yaml:"leaf_depth,omitempty"`
	LeafEvery     int                     `yaml:"leaf_every,omitempty"`
	LeafFrequency *float64                `yaml:"leaf_frequency,omitempty"`
	LeafSize      float64                 `yaml:"leaf_size"`
	LeafShrink    float64                 `yaml:"leaf_shrink,omitempty"`
	Variation     float64                 `yaml:"variation,omitempty"`
	ScaleMin      float64                 `yaml:"scale_min"`
	ScaleMax      float64                 `yaml:"scale_max"`
}

type ForestConfig struct {
	Width           float64            `yaml:"width"`
	Depth           float64            `yaml:"depth"`
	TargetDensity   float64            `yaml:"target_density"`
	MinSpacing      float64            `yaml:"min_spacing"`
	Seed            int64              `yaml:"seed"`
	MaxSlope        float64            `yaml:"max_slope"`
	CandidateRounds int                `yaml:"candidate_rounds"`
	Variants        int                `yaml:"variants"`
	Mix             map[string]float64 `yaml:"mix"`
}

type TerrainConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Seed        int64   `yaml:"seed"`
	Frequency   float64 `yaml:"frequency"`
	Amplitude   float64 `yaml:"amplitude"`
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	Path          string        `yaml:"path"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password,omitempty"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	Metrics         bool          `yaml:"metrics"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML or TOML file over Default and validates the result. An
// empty path returns the validated defaults. A species list or forest mix in
// the file replaces the default one instead of merging with it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if _, ok := raw["species"]; ok {
		cfg.Species = nil
	}
	if forest, ok := raw["forest"].(map[string]any); ok {
		if _, ok := forest["mix"]; ok {
			cfg.Forest.Mix = nil
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      &cfg,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("build config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
