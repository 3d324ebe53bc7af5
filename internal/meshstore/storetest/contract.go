// Package storetest holds the behaviour every meshstore.Store must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arborgen/internal/domain"
	"arborgen/internal/geometry"
	"arborgen/internal/meshstore"
	"arborgen/internal/species"
	"arborgen/internal/turtle"
)

// SampleMesh returns a small tree-like mesh with a leaf.
func SampleMesh() geometry.Mesh {
	return geometry.Build(
		[]turtle.Segment{{
			Start:       math32.Vec3(0, 0, 0),
			End:         math32.Vec3(0, 1, 0),
			StartRadius: 0.1,
			EndRadius:   0.08,
		}},
		[]turtle.Leaf{{Position: math32.Vec3(0, 1, 0), Orientation: math32.NewQuat(0, 0, 0, 1)}},
		geometry.DefaultOptions(),
	)
}

// SampleEntry wraps SampleMesh with the stats a grown tree would carry.
func SampleEntry() meshstore.Entry {
	mesh := SampleMesh()
	return meshstore.Entry{
		Mesh: mesh,
		Stats: species.Stats{
			Species:   "oak",
			Seed:      1,
			Symbols:   5,
			Segments:  1,
			Branches:  1,
			MaxDepth:  1,
			Leaves:    1,
			Vertices:  mesh.VertexCount(),
			Triangles: mesh.TriangleCount(),
			Height:    1,
		},
	}
}

// RunStoreContract exercises save, load, overwrite, delete and listing.
func RunStoreContract(t *testing.T, store meshstore.Store) {
	t.Helper()
	ctx := context.Background()
	entry := SampleEntry()

	_, err := store.Load(ctx, "missing")
	require.True(t, errors.Is(err, domain.ErrMeshNotFound), "load missing: %v", err)

	require.NoError(t, store.Save(ctx, "oak:1", entry))
	require.NoError(t, store.Save(ctx, "bush:2", entry))

	got, err := store.Load(ctx, "oak:1")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	// Returned meshes must not alias stored data.
	got.Mesh.Positions[0] = 42
	again, err := store.Load(ctx, "oak:1")
	require.NoError(t, err)
	assert.Equal(t, entry.Mesh.Positions[0], again.Mesh.Positions[0])

	smaller := entry
	smaller.Mesh.Indices = entry.Mesh.Indices[:entry.Mesh.LeafStart]
	smaller.Stats.Leaves = 0
	require.NoError(t, store.Save(ctx, "oak:1", smaller))
	got, err = store.Load(ctx, "oak:1")
	require.NoError(t, err)
	assert.Len(t, got.Mesh.Indices, entry.Mesh.LeafStart)
	assert.Zero(t, got.Stats.Leaves)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bush:2", "oak:1"}, keys)

	require.NoError(t, store.Delete(ctx, "bush:2"))
	require.NoError(t, store.Delete(ctx, "never-saved"))
	_, err = store.Load(ctx, "bush:2")
	assert.True(t, errors.Is(err, domain.ErrMeshNotFound))

	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"oak:1"}, keys)
}
