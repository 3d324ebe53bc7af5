package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 64; i++ {
		require.Equal(t, a.Uint64(), b.Uint64(), "draw %d", i)
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 32; i++ {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	assert.Less(t, same, 32)
}

func TestZeroSeedProducesValues(t *testing.T) {
	r := New(0)
	assert.NotZero(t, r.Uint64())
}

func TestRangesStayInBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		f := r.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)

		s := r.Symmetric(2.5)
		require.GreaterOrEqual(t, s, -2.5)
		require.Less(t, s, 2.5)

		n := r.Intn(5)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 5)
	}
	assert.Equal(t, 0, r.Intn(0))
	assert.Equal(t, 0.0, r.Symmetric(0))
	assert.Equal(t, 3.0, r.Range(3, 3))
}

func TestWeightedSkipsNonPositive(t *testing.T) {
	r := New(9)
	for i := 0; i < 200; i++ {
		idx := r.Weighted([]float64{0, -1, 2, 0})
		require.Equal(t, 2, idx)
	}
	assert.Equal(t, -1, r.Weighted([]float64{0, 0}))
	assert.Equal(t, -1, r.Weighted(nil))
}

func TestWeightedFollowsProportions(t *testing.T) {
	r := New(11)
	counts := make([]int, 2)
	for i := 0; i < 10000; i++ {
		counts[r.Weighted([]float64{3, 1})]++
	}
	ratio := float64(counts[0]) / float64(counts[1])
	assert.InDelta(t, 3.0, ratio, 0.5)
}

func TestShuffleIsPermutation(t *testing.T) {
	r := New(5)
	values := []int{0, 1, 2, 3, 4, 5, 6, 7}
	r.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	seen := make(map[int]bool)
	for _, v := range values {
		seen[v] = true
	}
	assert.Len(t, seen, 8)
}

func TestMixSaltsAreIndependent(t *testing.T) {
	assert.Equal(t, Mix(10, 1), Mix(10, 1))
	assert.NotEqual(t, Mix(10, 1), Mix(10, 2))
	assert.NotEqual(t, Mix(10, 1), Mix(11, 1))
	assert.NotEqual(t, Mix(10), Mix(10, 0))
}
