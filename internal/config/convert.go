package config

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"arborgen/internal/domain"
	"arborgen/internal/forest"
	"arborgen/internal/generator"
	"arborgen/internal/geometry"
	"arborgen/internal/lsystem"
	"arborgen/internal/meshstore"
	"arborgen/internal/species"
	"arborgen/internal/terrain"
	"arborgen/internal/turtle"
)

// SpeciesFromTemplate is the inverse of Template for the fields a config
// file can express.
func SpeciesFromTemplate(t species.Template) SpeciesConfig {
	rules := make(map[string][]RuleConfig, len(t.Grammar.Rules))
	for sym, rs := range t.Grammar.Rules {
		out := make([]RuleConfig, 0, len(rs))
		for _, r := range rs {
			out = append(out, RuleConfig{Successor: r.Successor, Weight: r.Weight})
		}
		rules[string(sym)] = out
	}

	var leafSymbols []rune
	for sym, cmd := range t.Turtle.Alphabet {
		if cmd == turtle.CommandLeaf && sym != 'L' {
			leafSymbols = append(leafSymbols, sym)
		}
	}
	sort.Slice(leafSymbols, func(i, j int) bool { return leafSymbols[i] < leafSymbols[j] })

	freq := float64(t.Turtle.LeafFrequency)
	return SpeciesConfig{
		Name:          t.Name,
		Axiom:         t.Grammar.Axiom,
		Rules:         rules,
		Iterations:    t.Grammar.Iterations,
		Seed:          t.Grammar.Seed,
		Angle:         float64(t.Turtle.Angle),
		Step:          float64(t.Turtle.Step),
		Radius:        float64(t.Turtle.Radius),
		RadiusTaper:   float64(t.Turtle.RadiusTaper),
		BranchRoll:    float64(t.Turtle.BranchRoll),
		SegmentTaper:  float64(t.Turtle.SegmentTaper),
		LengthScale:   float64(t.Turtle.LengthScale),
		Jitter:        float64(t.Turtle.Jitter),
		LeafSymbols:   string(leafSymbols),
		LeafPolicy:    string(t.Turtle.LeafPolicy),
		LeafDepth:     t.Turtle.LeafDepth,
		LeafEvery:     t.Turtle.LeafEvery,
		LeafFrequency: &freq,
		LeafSize:      float64(t.Geometry.LeafSize),
		LeafShrink:    float64(t.Geometry.LeafShrink),
		Variation:     t.Variation,
		ScaleMin:      t.ScaleMin,
		ScaleMax:      t.ScaleMax,
	}
}

// Template builds a species template. gen supplies the tessellation
// settings shared by every species.
func (s SpeciesConfig) Template(gen GenerationConfig) (species.Template, error) {
	rules := make(map[rune][]lsystem.Rule, len(s.Rules))
	for key, rs := range s.Rules {
		sym, size := utf8.DecodeRuneInString(key)
		if size == 0 || size != len(key) {
			return species.Template{}, domain.Invalid(fmt.Sprintf("rules key %q", key), "must be a single symbol")
		}
		out := make([]lsystem.Rule, 0, len(rs))
		for _, r := range rs {
			out = append(out, lsystem.Rule{Successor: r.Successor, Weight: r.Weight})
		}
		rules[sym] = out
	}

	// An omitted leaf_frequency keeps every leaf.
	freq := 1.0
	if s.LeafFrequency != nil {
		freq = *s.LeafFrequency
	}

	alphabet := turtle.DefaultAlphabet()
	for _, sym := range s.LeafSymbols {
		alphabet = alphabet.With(sym, turtle.CommandLeaf)
	}

	return species.Template{
		Name: s.Name,
		Grammar: lsystem.Grammar{
			Axiom:      s.Axiom,
			Rules:      rules,
			Iterations: s.Iterations,
			Seed:       s.Seed,
		},
		Turtle: turtle.Config{
			Step:          float32(s.Step),
			Angle:         float32(s.Angle),
			Radius:        float32(s.Radius),
			RadiusTaper:   float32(s.RadiusTaper),
			SegmentTaper:  float32(s.SegmentTaper),
			LengthScale:   float32(s.LengthScale),
			Jitter:        float32(s.Jitter),
			BranchRoll:    float32(s.BranchRoll),
			Alphabet:      alphabet,
			LeafPolicy:    turtle.LeafPolicy(s.LeafPolicy),
			LeafDepth:     s.LeafDepth,
			LeafEvery:     s.LeafEvery,
			LeafFrequency: float32(freq),
		},
		Geometry: geometry.Options{
			RadialSegments: gen.RadialSegments,
			WeldTolerance:  float32(gen.WeldTolerance),
			LeafSize:       float32(s.LeafSize),
			LeafShrink:     float32(s.LeafShrink),
		},
		Variation: s.Variation,
		ScaleMin:  s.ScaleMin,
		ScaleMax:  s.ScaleMax,
	}, nil
}

// Catalog builds and validates every configured species.
func (c *Config) Catalog() (*species.Catalog, error) {
	templates := make([]species.Template, 0, len(c.Species))
	for i, s := range c.Species {
		t, err := s.Template(c.Generation)
		if err != nil {
			return nil, fmt.Errorf("species[%d].%w", i, err)
		}
		templates = append(templates, t)
	}
	return species.NewCatalog(templates...)
}

// TerrainField returns the configured heightfield, or nil when terrain is
// disabled.
func (c *Config) TerrainField() (*terrain.Field, error) {
	if !c.Terrain.Enabled {
		return nil, nil
	}
	return terrain.NewField(terrain.Config{
		Seed:        c.Terrain.Seed,
		Frequency:   c.Terrain.Frequency,
		Amplitude:   c.Terrain.Amplitude,
		Octaves:     c.Terrain.Octaves,
		Persistence: c.Terrain.Persistence,
		Lacunarity:  c.Terrain.Lacunarity,
	})
}

// ForestRequest converts the forest section. height may be nil for flat
// ground.
func (c *Config) ForestRequest(height forest.HeightFunc) generator.ForestRequest {
	mix := make(map[string]float64, len(c.Forest.Mix))
	for k, v := range c.Forest.Mix {
		mix[k] = v
	}
	return generator.ForestRequest{
		Bounds:          forest.Rect(c.Forest.Width, c.Forest.Depth),
		TargetDensity:   c.Forest.TargetDensity,
		MinSpacing:      c.Forest.MinSpacing,
		Mix:             mix,
		Seed:            c.Forest.Seed,
		MaxSlope:        c.Forest.MaxSlope,
		CandidateRounds: c.Forest.CandidateRounds,
		Variants:        c.Forest.Variants,
		Height:          height,
	}
}

// StoreOptions converts the cache section.
func (c *Config) StoreOptions() meshstore.Options {
	return meshstore.Options{
		Backend:       c.Cache.Backend,
		Path:          c.Cache.Path,
		RedisAddr:     c.Cache.RedisAddr,
		RedisPassword: c.Cache.RedisPassword,
		RedisDB:       c.Cache.RedisDB,
		Prefix:        c.Cache.Prefix,
		TTL:           c.Cache.TTL,
	}
}

// GeneratorOptions converts the generation section.
func (c *Config) GeneratorOptions() []generator.Option {
	return []generator.Option{
		generator.WithWorkers(c.Generation.Workers),
		generator.WithLimits(c.Generation.MaxIterations, c.Generation.MaxSymbols),
	}
}
