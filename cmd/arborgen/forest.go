package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"arborgen/internal/domain"
	"arborgen/internal/export"
	"arborgen/internal/forest"
)

func newForestCmd(a *app) *cobra.Command {
	var (
		seed      int64
		width     float64
		depth     float64
		density   float64
		spacing   float64
		layoutOut string
		format    string
		scenePath string
		flat      bool
		at        string
		radius    float64
	)
	cmd := &cobra.Command{
		Use:   "forest",
		Short: "Compose a forest layout and optionally grow its scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("seed") {
				a.cfg.Forest.Seed = seed
			}
			if flags.Changed("width") {
				a.cfg.Forest.Width = width
			}
			if flags.Changed("depth") {
				a.cfg.Forest.Depth = depth
			}
			if flags.Changed("density") {
				a.cfg.Forest.TargetDensity = density
			}
			if flags.Changed("spacing") {
				a.cfg.Forest.MinSpacing = spacing
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			var query []float64
			if at != "" {
				q, err := parseAt(at)
				if err != nil {
					return err
				}
				query = q
				if radius <= 0 {
					return domain.Invalid("radius", "must be positive")
				}
			}

			height, err := a.height(flat)
			if err != nil {
				return err
			}
			gen, err := a.generator(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			req := a.cfg.ForestRequest(height)
			var layout forest.Layout
			var composeErr error
			if scenePath != "" {
				f, err := gen.Forest(cmd.Context(), req)
				if err != nil && !errors.Is(err, domain.ErrDensityUnmet) {
					return err
				}
				layout, composeErr = f.Layout, err
				scene := f.Scene()
				if err := writeFile(scenePath, func(out *os.File) error { return export.WriteOBJ(out, "forest", scene) }); err != nil {
					return err
				}
			} else {
				layout, composeErr = gen.Compose(req)
				if composeErr != nil && !errors.Is(composeErr, domain.ErrDensityUnmet) {
					return composeErr
				}
			}

			doc := export.NewLayoutDoc(uuid.NewString(), layout)
			if layoutOut != "" {
				fileFormat := format
				if fileFormat == "text" {
					fileFormat = formatFromExt(layoutOut)
				}
				if err := writeFile(layoutOut, func(out *os.File) error { return export.WriteLayout(out, fileFormat, doc) }); err != nil {
					return err
				}
			} else if format != "" && format != "text" {
				return export.WriteLayout(cmd.OutOrStdout(), format, doc)
			}

			p := newPrinter(cmd.OutOrStdout())
			p.title(fmt.Sprintf("forest %s", doc.ID))
			p.field("area", fmt.Sprintf("%.0f x %.0f", layout.Bounds.Width(), layout.Bounds.Depth()))
			p.field("placed", fmt.Sprintf("%d / %d", doc.Placed, doc.Requested))
			p.field("density", fmt.Sprintf("%.4f", layout.Density()))
			names := make([]string, 0, len(doc.Counts))
			for name := range doc.Counts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				p.field(name, doc.Counts[name])
			}
			p.field("rejected", fmt.Sprintf("spacing %d, slope %d", layout.Stats.RejectedSpacing, layout.Stats.RejectedSlope))
			if query != nil {
				if tree, ok := layout.TreeAt(query[0], query[1], radius); ok {
					p.field("nearest", fmt.Sprintf("#%d %s at (%.2f, %.2f)", tree.ID, tree.Species, tree.Position.X, tree.Position.Z))
				} else {
					p.field("nearest", fmt.Sprintf("none within %g", radius))
				}
			}
			if composeErr != nil {
				p.warn(composeErr.Error())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64VarP(&seed, "seed", "s", 0, "override forest.seed")
	f.Float64Var(&width, "width", 0, "override forest.width")
	f.Float64Var(&depth, "depth", 0, "override forest.depth")
	f.Float64Var(&density, "density", 0, "override forest.target_density (trees per square unit)")
	f.Float64Var(&spacing, "spacing", 0, "override forest.min_spacing")
	f.StringVarP(&layoutOut, "out", "o", "", "write the layout to this file")
	f.StringVarP(&format, "format", "f", "text", "layout format: text, json or yaml")
	f.StringVar(&scenePath, "scene", "", "grow every placed tree and write the merged scene as OBJ")
	f.BoolVar(&flat, "flat", false, "ignore terrain and place on flat ground")
	f.StringVar(&at, "at", "", "report the tree nearest to this x,z point")
	f.Float64Var(&radius, "radius", 1, "search radius for --at")
	return cmd
}

// parseAt reads an "x,z" ground position.
func parseAt(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, domain.Invalid("at", "must be x,z")
	}
	out := make([]float64, 2)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, domain.Invalid("at", fmt.Sprintf("bad coordinate %q", part))
		}
		out[i] = v
	}
	return out, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
