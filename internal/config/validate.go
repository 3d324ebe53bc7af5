package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"arborgen/internal/domain"
	"arborgen/internal/lsystem"
	"arborgen/internal/meshstore"
)

// Validate checks the whole configuration. Species templates are checked
// in full by building the catalog.
func (c *Config) Validate() error {
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if len(c.Species) == 0 {
		return domain.Invalid("species", "cannot be empty")
	}
	for i, s := range c.Species {
		for key := range s.Rules {
			if utf8.RuneCountInString(key) != 1 {
				return domain.Invalid(fmt.Sprintf("species[%d].rules key %q", i, key), "must be a single symbol")
			}
		}
		if s.LeafSymbols != "" && strings.ContainsAny(s.LeafSymbols, "Ff+-&^\\/|[]") {
			return domain.Invalid(fmt.Sprintf("species[%d].leaf_symbols", i), "cannot reuse a turtle command symbol")
		}
	}
	catalog, err := c.Catalog()
	if err != nil {
		return err
	}

	if err := c.validateForest(); err != nil {
		return err
	}
	for name := range c.Forest.Mix {
		if _, err := catalog.Lookup(name); err != nil {
			return domain.Invalid(fmt.Sprintf("forest.mix.%s", name), "names an unknown species")
		}
	}

	if c.Terrain.Enabled {
		if _, err := c.TerrainField(); err != nil {
			return err
		}
	}

	if err := c.validateCache(); err != nil {
		return err
	}
	if c.Server.Listen == "" {
		return domain.Invalid("server.listen", "must be set")
	}
	if c.Server.ShutdownTimeout < 0 {
		return domain.Invalid("server.shutdown_timeout", "cannot be negative")
	}
	return c.validateLog()
}

func (c *Config) validateGeneration() error {
	g := c.Generation
	switch {
	case g.Workers < 0:
		return domain.Invalid("generation.workers", "cannot be negative")
	case g.MaxIterations < 1 || g.MaxIterations > lsystem.MaxIterations:
		return domain.Invalid("generation.max_iterations", fmt.Sprintf("must be within [1,%d]", lsystem.MaxIterations))
	case g.MaxSymbols < 1:
		return domain.Invalid("generation.max_symbols", "must be positive")
	case g.RadialSegments < 3:
		return domain.Invalid("generation.radial_segments", "must be >= 3")
	case g.RadialSegments > 64:
		return domain.Invalid("generation.radial_segments", "must be <= 64")
	case g.WeldTolerance <= 0:
		return domain.Invalid("generation.weld_tolerance", "must be positive")
	}
	return nil
}

func (c *Config) validateForest() error {
	f := c.Forest
	switch {
	case f.Width <= 0 || f.Depth <= 0:
		return domain.Invalid("forest", "width and depth must be positive")
	case f.MinSpacing <= 0:
		return domain.Invalid("forest.min_spacing", "must be positive")
	case f.TargetDensity < 0:
		return domain.Invalid("forest.target_density", "cannot be negative")
	case f.MaxSlope < 0:
		return domain.Invalid("forest.max_slope", "cannot be negative")
	case f.CandidateRounds < 0:
		return domain.Invalid("forest.candidate_rounds", "cannot be negative")
	case f.Variants < 0:
		return domain.Invalid("forest.variants", "cannot be negative")
	case len(f.Mix) == 0:
		return domain.Invalid("forest.mix", "cannot be empty")
	}
	var total float64
	for name, w := range f.Mix {
		if w < 0 {
			return domain.Invalid(fmt.Sprintf("forest.mix.%s", name), "cannot be negative")
		}
		total += w
	}
	if total <= 0 {
		return domain.Invalid("forest.mix", "weights must sum to a positive value")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case meshstore.BackendNone, meshstore.BackendMemory:
	case meshstore.BackendDisk:
		if c.Cache.Path == "" {
			return domain.Invalid("cache.path", "must be set for the disk backend")
		}
	case meshstore.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return domain.Invalid("cache.redis_addr", "must be set for the redis backend")
		}
	default:
		return domain.Invalid("cache.backend", "must be one of none, memory, disk, redis")
	}
	if c.Cache.TTL < 0 {
		return domain.Invalid("cache.ttl", "cannot be negative")
	}
	return nil
}

func (c *Config) validateLog() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return domain.Invalid("log.level", "must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return domain.Invalid("log.format", "must be text or json")
	}
	return nil
}
