package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"arborgen/internal/forest"
)

// LayoutDoc is the serialised form of a forest layout.
type LayoutDoc struct {
	ID            string         `json:"id,omitempty" yaml:"id,omitempty"`
	Seed          int64          `json:"seed" yaml:"seed"`
	Bounds        forest.Bounds  `json:"bounds" yaml:"bounds"`
	TargetDensity float64        `json:"target_density" yaml:"target_density"`
	MinSpacing    float64        `json:"min_spacing" yaml:"min_spacing"`
	Requested     int            `json:"requested" yaml:"requested"`
	Placed        int            `json:"placed" yaml:"placed"`
	Counts        map[string]int `json:"counts" yaml:"counts"`
	Stats         forest.Stats   `json:"stats" yaml:"stats"`
	Placements    []PlacementDoc `json:"placements" yaml:"placements"`
}

// PlacementDoc is one serialised placement.
type PlacementDoc struct {
	ID       int        `json:"id" yaml:"id"`
	Species  string     `json:"species" yaml:"species"`
	Position [3]float32 `json:"position" yaml:"position,flow"`
	Yaw      float32    `json:"yaw" yaml:"yaw"`
	Scale    float32    `json:"scale" yaml:"scale"`
	TreeSeed int64      `json:"tree_seed" yaml:"tree_seed"`
}

// NewLayoutDoc converts layout for serialisation.
func NewLayoutDoc(id string, layout forest.Layout) LayoutDoc {
	doc := LayoutDoc{
		ID:            id,
		Seed:          layout.Seed,
		Bounds:        layout.Bounds,
		TargetDensity: layout.TargetDensity,
		MinSpacing:    layout.MinSpacing,
		Requested:     layout.Requested,
		Placed:        len(layout.Placements),
		Counts:        layout.Counts(),
		Stats:         layout.Stats,
		Placements:    make([]PlacementDoc, 0, len(layout.Placements)),
	}
	for _, p := range layout.Placements {
		doc.Placements = append(doc.Placements, PlacementDoc{
			ID:       p.ID,
			Species:  p.Species,
			Position: [3]float32{p.Position.X, p.Position.Y, p.Position.Z},
			Yaw:      p.Yaw,
			Scale:    p.Scale.X,
			TreeSeed: p.TreeSeed,
		})
	}
	return doc
}

// WriteLayout writes doc as "json" or "yaml".
func WriteLayout(w io.Writer, format string, doc LayoutDoc) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode layout json: %w", err)
		}
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode layout yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown layout format %q", format)
	}
}
