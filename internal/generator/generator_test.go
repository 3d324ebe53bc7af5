package generator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arborgen/internal/domain"
	"arborgen/internal/meshstore"
	"arborgen/internal/metrics"
	"arborgen/internal/species"
)

func testCatalog(t *testing.T) *species.Catalog {
	t.Helper()
	small, _ := species.Preset("default")
	small.Grammar.Iterations = 2
	bush, _ := species.Preset("bush")
	bush.Grammar.Iterations = 1

	c, err := species.NewCatalog(small, bush)
	require.NoError(t, err)
	return c
}

func TestGenerateUsesCache(t *testing.T) {
	store := meshstore.NewMemory()
	g := New(testCatalog(t), WithStore(store), WithMetrics(metrics.New(prometheus.NewRegistry())))
	ctx := context.Background()

	first, err := g.Generate(ctx, "default", 4)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Positive(t, first.Stats.Segments)
	assert.Equal(t, 1, store.Len())

	second, err := g.Generate(ctx, "default", 4)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Mesh, second.Mesh)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestGenerateCachedStatsSurviveDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshes.log")
	ctx := context.Background()

	store, err := meshstore.OpenDisk(path)
	require.NoError(t, err)
	fresh, err := New(testCatalog(t), WithStore(store)).Generate(ctx, "bush", 3)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Positive(t, fresh.Stats.Symbols)
	require.Positive(t, fresh.Stats.Branches)

	reopened, err := meshstore.OpenDisk(path)
	require.NoError(t, err)
	defer reopened.Close()
	cached, err := New(testCatalog(t), WithStore(reopened)).Generate(ctx, "bush", 3)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, fresh.Stats, cached.Stats)
}

func TestGenerateWithoutStoreIsDeterministic(t *testing.T) {
	g := New(testCatalog(t))
	a, err := g.Generate(context.Background(), "bush", 9)
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), "bush", 9)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateUnknownSpecies(t *testing.T) {
	g := New(testCatalog(t))
	_, err := g.Generate(context.Background(), "baobab", 1)
	assert.True(t, errors.Is(err, domain.ErrSpeciesNotFound))
}

func TestGenerateAllKeepsOrder(t *testing.T) {
	g := New(testCatalog(t), WithWorkers(3))
	tasks := []Task{
		{Species: "default", Seed: 1},
		{Species: "bush", Seed: 2},
		{Species: "default", Seed: 3},
		{Species: "bush", Seed: 4},
		{Species: "default", Seed: 5},
	}

	results, err := g.GenerateAll(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, len(tasks))
	for i, res := range results {
		assert.Equal(t, tasks[i], res.Task)
		single, err := g.Generate(context.Background(), tasks[i].Species, tasks[i].Seed)
		require.NoError(t, err)
		assert.Equal(t, single.Mesh, res.Mesh)
	}
}

func TestGenerateAllStopsOnError(t *testing.T) {
	g := New(testCatalog(t), WithLimits(0, 20))
	_, err := g.GenerateAll(context.Background(), []Task{{Species: "default", Seed: 1}, {Species: "bush", Seed: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLengthExceeded))

	var genErr *species.GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestGenerateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New(testCatalog(t))
	_, err := g.GenerateAll(ctx, []Task{{Species: "default", Seed: 1}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerateAllEmpty(t *testing.T) {
	results, err := New(testCatalog(t)).GenerateAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
