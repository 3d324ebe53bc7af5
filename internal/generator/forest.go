package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"arborgen/internal/domain"
	"arborgen/internal/forest"
	"arborgen/internal/geometry"
)

// ForestRequest is a forest.Request whose mix is given by species name.
type ForestRequest struct {
	Bounds          forest.Bounds
	TargetDensity   float64
	MinSpacing      float64
	Mix             map[string]float64
	Seed            int64
	MaxSlope        float64
	CandidateRounds int
	Variants        int
	Height          forest.HeightFunc
}

// Forest is a composed layout together with the meshes it references.
type Forest struct {
	Layout forest.Layout
	Trees  map[Task]Result
}

// Scene merges every placed tree into one world-space mesh.
func (f Forest) Scene() geometry.Mesh {
	meshes := make([]geometry.Mesh, 0, len(f.Layout.Placements))
	for _, p := range f.Layout.Placements {
		res, ok := f.Trees[Task{Species: p.Species, Seed: p.TreeSeed}]
		if !ok {
			continue
		}
		meshes = append(meshes, res.Mesh.Transformed(p.Position, p.Rotation, p.Scale))
	}
	return geometry.Merge(meshes...)
}

// Mix resolves species weights against the catalog into a composer mix
// sorted by name.
func (g *Generator) Mix(weights map[string]float64) ([]forest.Share, error) {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	shares := make([]forest.Share, 0, len(names))
	for _, name := range names {
		tmpl, err := g.catalog.Lookup(name)
		if err != nil {
			return nil, err
		}
		shares = append(shares, forest.Share{
			Species:  name,
			Weight:   weights[name],
			ScaleMin: tmpl.ScaleMin,
			ScaleMax: tmpl.ScaleMax,
		})
	}
	return shares, nil
}

// Compose lays out the forest only.
func (g *Generator) Compose(req ForestRequest) (forest.Layout, error) {
	mix, err := g.Mix(req.Mix)
	if err != nil {
		return forest.Layout{}, err
	}
	layout, err := forest.Compose(forest.Request{
		Bounds:          req.Bounds,
		TargetDensity:   req.TargetDensity,
		MinSpacing:      req.MinSpacing,
		Mix:             mix,
		Seed:            req.Seed,
		MaxSlope:        req.MaxSlope,
		CandidateRounds: req.CandidateRounds,
		Variants:        req.Variants,
		Height:          req.Height,
	})
	unmet := errors.Is(err, domain.ErrDensityUnmet)
	if err != nil && !unmet {
		return forest.Layout{}, err
	}

	g.metrics.ObserveForest(len(layout.Placements), unmet)
	g.log.Info("forest composed",
		"placed", len(layout.Placements),
		"requested", layout.Requested,
		"candidates", layout.Stats.Candidates,
		"seed", req.Seed,
	)
	if unmet {
		g.log.Warn("forest density unmet", "placed", len(layout.Placements), "requested", layout.Requested)
	}
	return layout, err
}

// Forest composes a layout and grows each distinct (species, seed) pair it
// uses once. A density shortfall is returned alongside a usable Forest.
func (g *Generator) Forest(ctx context.Context, req ForestRequest) (Forest, error) {
	layout, composeErr := g.Compose(req)
	if composeErr != nil && !errors.Is(composeErr, domain.ErrDensityUnmet) {
		return Forest{}, composeErr
	}

	seen := make(map[Task]struct{}, len(layout.Placements))
	tasks := make([]Task, 0, len(layout.Placements))
	for _, p := range layout.Placements {
		task := Task{Species: p.Species, Seed: p.TreeSeed}
		if _, ok := seen[task]; ok {
			continue
		}
		seen[task] = struct{}{}
		tasks = append(tasks, task)
	}

	results, err := g.GenerateAll(ctx, tasks)
	if err != nil {
		return Forest{}, fmt.Errorf("grow forest: %w", err)
	}
	trees := make(map[Task]Result, len(results))
	for _, res := range results {
		trees[res.Task] = res
	}
	return Forest{Layout: layout, Trees: trees}, composeErr
}
