package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 11
	a, err := NewField(cfg)
	require.NoError(t, err)
	b, err := NewField(cfg)
	require.NoError(t, err)

	for _, p := range [][2]float64{{0, 0}, {3.5, -2.25}, {100, 40}} {
		ya, sa := a.HeightAt(p[0], p[1])
		yb, sb := b.HeightAt(p[0], p[1])
		assert.Equal(t, ya, yb)
		assert.Equal(t, sa, sb)
	}
}

func TestFieldStaysWithinAmplitude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Amplitude = 3
	f, err := NewField(cfg)
	require.NoError(t, err)

	for x := -20.0; x < 20; x += 1.7 {
		for z := -20.0; z < 20; z += 2.3 {
			y, slope := f.HeightAt(x, z)
			assert.LessOrEqual(t, y, 3.0)
			assert.GreaterOrEqual(t, y, -3.0)
			assert.GreaterOrEqual(t, slope, 0.0)
			assert.Less(t, slope, 90.0)
		}
	}
}

func TestFieldSeedsDiffer(t *testing.T) {
	cfg := DefaultConfig()
	a, _ := NewField(cfg)
	cfg.Seed = 99
	b, _ := NewField(cfg)

	differs := false
	for x := 0.0; x < 50; x += 5 {
		ya, _ := a.HeightAt(x, x/2)
		yb, _ := b.HeightAt(x, x/2)
		if ya != yb {
			differs = true
		}
	}
	assert.True(t, differs)
}

func TestZeroAmplitudeIsFlat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Amplitude = 0
	f, err := NewField(cfg)
	require.NoError(t, err)

	y, slope := f.HeightAt(12, 7)
	assert.Zero(t, y)
	assert.Zero(t, slope)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "frequency", mutate: func(c *Config) { c.Frequency = 0 }, want: "terrain.frequency must be positive"},
		{name: "amplitude", mutate: func(c *Config) { c.Amplitude = -1 }, want: "terrain.amplitude cannot be negative"},
		{name: "octaves", mutate: func(c *Config) { c.Octaves = 0 }, want: "terrain.octaves must be >= 1"},
		{name: "persistence", mutate: func(c *Config) { c.Persistence = 1.5 }, want: "terrain.persistence must be within (0,1]"},
		{name: "lacunarity", mutate: func(c *Config) { c.Lacunarity = 0.5 }, want: "terrain.lacunarity must be >= 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			_, err := NewField(cfg)
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}
