// Package generator grows trees in parallel, consulting a mesh cache, and
// assembles forests from species layouts.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"arborgen/internal/domain"
	"arborgen/internal/geometry"
	"arborgen/internal/logging"
	"arborgen/internal/lsystem"
	"arborgen/internal/meshstore"
	"arborgen/internal/metrics"
	"arborgen/internal/species"
)

// Task names one tree to grow.
type Task struct {
	Species string
	Seed    int64
}

// Result is one grown or cached tree.
type Result struct {
	Task
	Mesh   geometry.Mesh
	Stats  species.Stats
	Cached bool
}

// Generator is safe for concurrent use.
type Generator struct {
	catalog *species.Catalog
	store   meshstore.Store
	metrics *metrics.Metrics
	log     *slog.Logger
	workers int
	limits  []lsystem.Option
}

type Option func(*Generator)

// WithStore caches meshes in store.
func WithStore(store meshstore.Store) Option {
	return func(g *Generator) {
		g.store = store
	}
}

// WithMetrics records generation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithLogger sets the logger. nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.log = logging.OrNop(l)
	}
}

// WithWorkers bounds concurrent generations. n <= 0 selects the default.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithLimits bounds grammar expansion. Zero values keep the defaults.
func WithLimits(maxIterations, maxSymbols int) Option {
	return func(g *Generator) {
		g.limits = g.limits[:0]
		if maxIterations > 0 {
			g.limits = append(g.limits, lsystem.WithMaxIterations(maxIterations))
		}
		if maxSymbols > 0 {
			g.limits = append(g.limits, lsystem.WithMaxLength(maxSymbols))
		}
	}
}

// DefaultWorkers returns two workers per available CPU. Growth is CPU bound
// but cache loads and saves block on the store.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0) * 2
}

// New returns a Generator over catalog.
func New(catalog *species.Catalog, opts ...Option) *Generator {
	g := &Generator{
		catalog: catalog,
		log:     logging.NewNop(),
		workers: DefaultWorkers(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Catalog returns the species catalog.
func (g *Generator) Catalog() *species.Catalog {
	return g.catalog
}

// Generate grows one tree, or loads it from the cache.
func (g *Generator) Generate(ctx context.Context, name string, seed int64) (Result, error) {
	tmpl, err := g.catalog.Lookup(name)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	task := Task{Species: name, Seed: seed}
	key := meshstore.Key(name, seed, tmpl.Fingerprint())
	if g.store != nil {
		entry, err := g.store.Load(ctx, key)
		switch {
		case err == nil:
			g.metrics.ObserveCache(true)
			return Result{Task: task, Mesh: entry.Mesh, Stats: entry.Stats, Cached: true}, nil
		case errors.Is(err, domain.ErrMeshNotFound):
			g.metrics.ObserveCache(false)
		default:
			g.log.Warn("mesh cache load failed", "key", key, "error", err)
		}
	}

	start := time.Now()
	tree, err := tmpl.Grow(seed, g.limits...)
	if err != nil {
		g.metrics.ObserveError(name)
		return Result{}, err
	}
	elapsed := time.Since(start)
	stats := tree.Stats()
	g.metrics.ObserveTree(name, stats.Vertices, elapsed)
	g.log.Debug("tree grown",
		"species", name,
		"seed", seed,
		"symbols", stats.Symbols,
		"segments", stats.Segments,
		"vertices", stats.Vertices,
		"elapsed", elapsed,
	)

	if g.store != nil {
		if err := g.store.Save(ctx, key, meshstore.Entry{Mesh: tree.Mesh, Stats: stats}); err != nil {
			g.log.Warn("mesh cache save failed", "key", key, "error", err)
		}
	}
	return Result{Task: task, Mesh: tree.Mesh, Stats: stats}, nil
}

// GenerateAll grows every task on a bounded worker pool. Results are in
// task order. The first failure cancels the remaining work.
func (g *Generator) GenerateAll(ctx context.Context, tasks []Task) ([]Result, error) {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	workers := g.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	var mu sync.Mutex
	done := 0
	nextLogPercent := 10
	g.log.Debug("generation started", "trees", len(tasks), "workers", workers)

	for i, task := range tasks {
		eg.Go(func() error {
			res, err := g.Generate(egCtx, task.Species, task.Seed)
			if err != nil {
				return err
			}
			results[i] = res

			mu.Lock()
			done++
			progress := done * 100 / len(tasks)
			if progress >= nextLogPercent {
				g.log.Debug("generation progress", "percent", progress, "done", done, "trees", len(tasks))
				nextLogPercent = (progress/10 + 1) * 10
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("generate trees: %w", err)
	}
	return results, nil
}
