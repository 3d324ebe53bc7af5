package species

import (
	"arborgen/internal/geometry"
	"arborgen/internal/lsystem"
	"arborgen/internal/turtle"
)

type preset struct {
	name       string
	axiom      string
	rules      map[rune]string
	angle      float32
	iterations int
	policy     turtle.LeafPolicy
	leafEvery  int
	leafSize   float32
	scale      float64
}

var presets = []preset{
	{
		name:       "pine",
		axiom:      "F",
		rules:      map[rune]string{'F': "FF[+F][-F][+++F][---F]F", 'X': "F[-FX]+FX"},
		angle:      20,
		iterations: 4,
		policy:     turtle.LeafSegments,
		leafEvery:  2,
		leafSize:   0.15,
		scale:      1,
	},
	{
		name:       "oak",
		axiom:      "F",
		rules:      map[rune]string{'F': "FF[++F][-F][--F]F", 'X': "F-[[X]+X]+F[+FX]-X"},
		angle:      25,
		iterations: 3,
		policy:     turtle.LeafSegments,
		leafEvery:  3,
		leafSize:   0.3,
		scale:      1,
	},
	{
		name:       "bush",
		axiom:      "FFFFF",
		rules:      map[rune]string{'F': "F[+F]F[-F][+++F][---F]F"},
		angle:      35,
		iterations: 2,
		policy:     turtle.LeafSegments,
		leafEvery:  3,
		leafSize:   0.25,
		scale:      0.6,
	},
	{
		name:       "willow",
		axiom:      "F",
		rules:      map[rune]string{'F': "FF[-F][-F][-F][-F]"},
		angle:      15,
		iterations: 3,
		policy:     turtle.LeafSegments,
		leafEvery:  3,
		leafSize:   0.3,
		scale:      1,
	},
	{
		name:       "palm",
		axiom:      "FFFFF[X]",
		rules:      map[rune]string{'F': "FF", 'X': "[-FX][+FX][--FX][++FX]"},
		angle:      25,
		iterations: 3,
		policy:     turtle.LeafMarkers,
		leafSize:   0.6,
		scale:      1,
	},
	{
		name:       "default",
		axiom:      "F",
		rules:      map[rune]string{'F': "FF[+F]F[-F]F"},
		angle:      25,
		iterations: 3,
		policy:     turtle.LeafTermini,
		leafSize:   0.3,
		scale:      1,
	},
}

// Presets returns the built-in species in catalogue order. Every call
// returns fresh values.
func Presets() []Template {
	out := make([]Template, 0, len(presets))
	for _, p := range presets {
		out = append(out, p.template())
	}
	return out
}

// Preset returns the built-in species called name.
func Preset(name string) (Template, bool) {
	for _, p := range presets {
		if p.name == name {
			return p.template(), true
		}
	}
	return Template{}, false
}

func (p preset) template() Template {
	cfg := turtle.DefaultConfig()
	cfg.Angle = p.angle
	cfg.LengthScale = 0.8
	cfg.BranchRoll = 137.5
	cfg.Jitter = p.angle / 5
	cfg.Alphabet = turtle.DefaultAlphabet().With('X', turtle.CommandLeaf)
	cfg.LeafPolicy = p.policy
	cfg.LeafDepth = 1
	cfg.LeafEvery = p.leafEvery

	geo := geometry.DefaultOptions()
	geo.LeafSize = p.leafSize
	geo.LeafShrink = p.leafSize / 6

	return Template{
		Name: p.name,
		Grammar: lsystem.Grammar{
			Axiom:      p.axiom,
			Rules:      lsystem.Deterministic(p.rules),
			Iterations: p.iterations,
		},
		Turtle:   cfg,
		Geometry: geo,
		ScaleMin: 0.8 * p.scale,
		ScaleMax: 1.2 * p.scale,
	}
}
