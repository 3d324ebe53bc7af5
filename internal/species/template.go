// Package species bundles a grammar, turtle parameters and tessellation
// options into a reusable tree template.
package species

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"arborgen/internal/domain"
	"arborgen/internal/geometry"
	"arborgen/internal/lsystem"
	"arborgen/internal/rng"
	"arborgen/internal/turtle"
)

// Seed salts keep the grammar, turtle and variation streams independent.
const (
	saltGrammar int64 = iota + 1
	saltTurtle
	saltVariation
)

// Template is an immutable species definition. Copies share the rule table;
// callers must not mutate Grammar.Rules after construction.
type Template struct {
	Name      string
	Grammar   lsystem.Grammar
	Turtle    turtle.Config
	Geometry  geometry.Options
	Variation float64
	ScaleMin  float64
	ScaleMax  float64
}

// Validate checks every part of the template.
func (t Template) Validate() error {
	if t.Name == "" {
		return domain.Invalid("name", "must be set")
	}
	if err := t.Grammar.Validate(); err != nil {
		return fmt.Errorf("species %s: %w", t.Name, err)
	}
	if err := t.Turtle.Validate(); err != nil {
		return fmt.Errorf("species %s: %w", t.Name, err)
	}
	if err := t.Geometry.Validate(); err != nil {
		return fmt.Errorf("species %s: %w", t.Name, err)
	}
	if t.Variation < 0 || t.Variation > 1 {
		return domain.Invalid(t.Name+".variation", "must be within [0,1]")
	}
	if t.ScaleMin <= 0 {
		return domain.Invalid(t.Name+".scale_min", "must be positive")
	}
	if t.ScaleMax < t.ScaleMin {
		return domain.Invalid(t.Name+".scale_max", "must be >= scale_min")
	}
	return nil
}

// GenerationError records which species and seed failed.
type GenerationError struct {
	Species string
	Seed    int64
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s (seed %d): %v", e.Species, e.Seed, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Tree is one grown instance with its intermediate products.
type Tree struct {
	Species  string
	Seed     int64
	Symbols  int
	Segments []turtle.Segment
	Leaves   []turtle.Leaf
	Turtle   turtle.Stats
	Mesh     geometry.Mesh
}

// Stats is the summary shown for a single tree.
type Stats struct {
	Species   string  `json:"species" yaml:"species"`
	Seed      int64   `json:"seed" yaml:"seed"`
	Symbols   int     `json:"symbols" yaml:"symbols"`
	Segments  int     `json:"segments" yaml:"segments"`
	Branches  int     `json:"branches" yaml:"branches"`
	MaxDepth  int     `json:"max_depth" yaml:"max_depth"`
	Leaves    int     `json:"leaves" yaml:"leaves"`
	Vertices  int     `json:"vertices" yaml:"vertices"`
	Triangles int     `json:"triangles" yaml:"triangles"`
	Height    float32 `json:"height" yaml:"height"`
}

// Stats summarises the tree.
func (t Tree) Stats() Stats {
	return Stats{
		Species:   t.Species,
		Seed:      t.Seed,
		Symbols:   t.Symbols,
		Segments:  len(t.Segments),
		Branches:  t.Turtle.Pushes,
		MaxDepth:  t.Turtle.MaxDepth,
		Leaves:    len(t.Leaves),
		Vertices:  t.Mesh.VertexCount(),
		Triangles: t.Mesh.TriangleCount(),
		Height:    t.Turtle.Height,
	}
}

// Grow expands, interprets and tessellates one tree. opts bound the
// expansion. Identical templates and seeds produce identical trees.
func (t Template) Grow(seed int64, opts ...lsystem.Option) (Tree, error) {
	g := t.Grammar
	g.Seed = rng.Mix(seed, t.Grammar.Seed, saltGrammar)
	if t.Variation > 0 {
		g = lsystem.Vary(g, t.Variation, rng.Mix(seed, saltVariation))
	}

	symbols, err := lsystem.Expand(g, opts...)
	if err != nil {
		return Tree{}, &GenerationError{Species: t.Name, Seed: seed, Err: err}
	}
	res, err := turtle.Interpret(symbols, t.Turtle, rng.Mix(seed, saltTurtle))
	if err != nil {
		return Tree{}, &GenerationError{Species: t.Name, Seed: seed, Err: err}
	}

	return Tree{
		Species:  t.Name,
		Seed:     seed,
		Symbols:  len(symbols),
		Segments: res.Segments,
		Leaves:   res.Leaves,
		Turtle:   res.Stats,
		Mesh:     geometry.Build(res.Segments, res.Leaves, t.Geometry),
	}, nil
}

// Generate returns only the mesh of Grow.
func (t Template) Generate(seed int64, opts ...lsystem.Option) (geometry.Mesh, error) {
	tree, err := t.Grow(seed, opts...)
	if err != nil {
		return geometry.Mesh{}, err
	}
	return tree.Mesh, nil
}

// Fingerprint hashes every generation parameter. Two templates with equal
// fingerprints grow identical trees from identical seeds.
func (t Template) Fingerprint() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%+v", t)))
}
