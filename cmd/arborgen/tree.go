package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"arborgen/internal/export"
)

func newTreeCmd(a *app) *cobra.Command {
	var (
		seed    int64
		objPath string
		binPath string
		asYAML  bool
	)
	cmd := &cobra.Command{
		Use:   "tree <species>",
		Short: "Grow one tree and report its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			gen, err := a.generator(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			res, err := gen.Generate(cmd.Context(), args[0], seed)
			if err != nil {
				return err
			}

			if objPath != "" {
				name := fmt.Sprintf("%s_%d", res.Species, res.Seed)
				if err := writeFile(objPath, func(f *os.File) error { return export.WriteOBJ(f, name, res.Mesh) }); err != nil {
					return err
				}
			}
			if binPath != "" {
				if err := writeFile(binPath, func(f *os.File) error { return export.WriteBinary(f, res.Mesh) }); err != nil {
					return err
				}
			}

			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				if err := enc.Encode(res.Stats); err != nil {
					return err
				}
				return enc.Close()
			}
			p := newPrinter(cmd.OutOrStdout())
			p.title(fmt.Sprintf("%s (seed %d)", res.Species, res.Seed))
			p.field("symbols", res.Stats.Symbols)
			p.field("segments", res.Stats.Segments)
			p.field("branches", res.Stats.Branches)
			p.field("max depth", res.Stats.MaxDepth)
			p.field("leaves", res.Stats.Leaves)
			p.field("vertices", res.Stats.Vertices)
			p.field("triangles", res.Stats.Triangles)
			p.field("height", fmt.Sprintf("%.2f", res.Stats.Height))
			p.field("cached", res.Cached)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&seed, "seed", "s", 0, "tree seed")
	cmd.Flags().StringVar(&objPath, "obj", "", "write the mesh as Wavefront OBJ")
	cmd.Flags().StringVar(&binPath, "tmsh", "", "write the mesh as a TMSH binary buffer")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print statistics as YAML")
	return cmd
}

// writeFile creates path and its directory and hands the file to write.
func writeFile(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
