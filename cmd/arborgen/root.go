package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"arborgen/internal/config"
	"arborgen/internal/forest"
	"arborgen/internal/generator"
	"arborgen/internal/logging"
	"arborgen/internal/meshstore"
	"arborgen/internal/metrics"
)

// app carries the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	store    meshstore.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "arborgen",
		Short:         "Grow L-system trees and compose forests",
		Long:          `arborgen expands L-system grammars into branching skeletons, tessellates them into meshes and scatters them over terrain with minimum spacing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML or TOML configuration file (defaults when empty)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "override log.format (text, json)")

	root.AddCommand(
		newTreeCmd(a),
		newForestCmd(a),
		newServeCmd(a),
		newSpeciesCmd(a),
		newConfigCmd(a),
	)
	return root
}

// load reads the configuration and builds the logger. A missing config file
// is created from the defaults.
func (a *app) load(cmd *cobra.Command) error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		if werr := config.WriteDefault(a.configPath); werr != nil {
			return fmt.Errorf("write default config: %w", werr)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "no configuration found, default configuration written to %s\n", a.configPath)
		cfg, err = config.Load(a.configPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(level, cfg.Log.Format, cmd.ErrOrStderr())
	return nil
}

// generator wires the catalog, mesh store and metrics from the config.
func (a *app) generator(ctx context.Context) (*generator.Generator, error) {
	catalog, err := a.cfg.Catalog()
	if err != nil {
		return nil, err
	}
	store, err := meshstore.Open(ctx, a.cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open mesh store: %w", err)
	}
	a.store = store
	a.registry = prometheus.NewRegistry()

	opts := append(a.cfg.GeneratorOptions(),
		generator.WithStore(store),
		generator.WithMetrics(metrics.New(a.registry)),
		generator.WithLogger(a.log),
	)
	a.log.Debug("generator ready",
		"species", catalog.Len(),
		"cache", a.cfg.Cache.Backend,
		"workers", a.cfg.Generation.Workers,
	)
	return generator.New(catalog, opts...), nil
}

// height returns the terrain height function, or nil for flat ground.
func (a *app) height(flat bool) (forest.HeightFunc, error) {
	if flat {
		return nil, nil
	}
	field, err := a.cfg.TerrainField()
	if err != nil || field == nil {
		return nil, err
	}
	return field.HeightAt, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
