// Package terrain supplies ground heights for forest placement.
package terrain

import (
	"math"

	"arborgen/internal/domain"
)

// Config shapes the fractal value-noise heightfield.
type Config struct {
	Seed        int64
	Frequency   float64
	Amplitude   float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
}

// DefaultConfig returns gentle rolling ground.
func DefaultConfig() Config {
	return Config{
		Frequency:   0.05,
		Amplitude:   4,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
	}
}

// Validate checks the noise parameters.
func (c Config) Validate() error {
	switch {
	case c.Frequency <= 0:
		return domain.Invalid("terrain.frequency", "must be positive")
	case c.Amplitude < 0:
		return domain.Invalid("terrain.amplitude", "cannot be negative")
	case c.Octaves < 1:
		return domain.Invalid("terrain.octaves", "must be >= 1")
	case c.Octaves > 12:
		return domain.Invalid("terrain.octaves", "must be <= 12")
	case c.Persistence <= 0 || c.Persistence > 1:
		return domain.Invalid("terrain.persistence", "must be within (0,1]")
	case c.Lacunarity < 1:
		return domain.Invalid("terrain.lacunarity", "must be >= 1")
	}
	return nil
}

// Field is a deterministic heightfield. It holds no mutable state and is
// safe for concurrent use.
type Field struct {
	cfg Config
}

// NewField validates cfg and returns a Field.
func NewField(cfg Config) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Field{cfg: cfg}, nil
}

// slopeStep is the finite-difference distance used for slope estimates.
const slopeStep = 0.5

// HeightAt returns the ground height at (x, z) and the slope there in
// degrees.
func (f *Field) HeightAt(x, z float64) (float64, float64) {
	y := f.height(x, z)
	dx := (f.height(x+slopeStep, z) - f.height(x-slopeStep, z)) / (2 * slopeStep)
	dz := (f.height(x, z+slopeStep) - f.height(x, z-slopeStep)) / (2 * slopeStep)
	slope := math.Atan(math.Hypot(dx, dz)) * 180 / math.Pi
	return y, slope
}

func (f *Field) height(x, z float64) float64 {
	return f.fractal(x, z) * f.cfg.Amplitude
}

func (f *Field) fractal(x, z float64) float64 {
	frequency := f.cfg.Frequency
	amplitude := 1.0
	sum := 0.0
	norm := 0.0

	for octave := 0; octave < f.cfg.Octaves; octave++ {
		sum += f.value(x*frequency, z*frequency, octave) * amplitude
		norm += amplitude
		amplitude *= f.cfg.Persistence
		frequency *= f.cfg.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// value interpolates lattice values with a smoothstep. Each octave uses its
// own lattice so octaves do not align.
func (f *Field) value(x, z float64, octave int) float64 {
	x0 := int(math.Floor(x))
	z0 := int(math.Floor(z))
	sx := smoothstep(x - float64(x0))
	sz := smoothstep(z - float64(z0))
	salt := int(f.cfg.Seed) + octave*7919

	top := lerp(lattice(x0, z0, salt), lattice(x0+1, z0, salt), sx)
	bottom := lerp(lattice(x0, z0+1, salt), lattice(x0+1, z0+1, salt), sx)
	return lerp(top, bottom, sz)
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// lattice returns a value in [-1, 1) for an integer lattice point.
func lattice(x, z, salt int) float64 {
	return float64(hash3(x, z, salt)&0xFFFF)/0x8000 - 1.0
}

func hash3(x, y, z int) uint32 {
	h := uint32(x*374761393 + y*668265263 + z*2147483647)
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}
