package isoforest

import (
	"errors"
	"testing"

	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEqualsConcatenatedTrees(t *testing.T) {
	d := mixed(t, 51, 400, 0.1)
	a, err := Build(d, Config{Trees: 7, Seed: 1})
	require.NoError(t, err)
	b, err := Build(d, Config{Trees: 4, Seed: 2, MaxDepth: 10})
	require.NoError(t, err)

	ab, err := Merge(a, b)
	require.NoError(t, err)
	require.NoError(t, ab.Validate())
	assert.Equal(t, 11, ab.Config.Trees)
	assert.Equal(t, 10, ab.Config.MaxDepth)
	assert.Equal(t, a.Trees, ab.Trees[:7])
	assert.Equal(t, b.Trees, ab.Trees[7:])

	depths, err := ab.Depths(d)
	require.NoError(t, err)
	rules := ab.Config.Rules()
	for i := 0; i < d.Len(); i += 23 {
		var sum float64
		for _, f := range []*Forest{a, b} {
			for _, tr := range f.Trees {
				sum += tr.PathEstimate(d.Row(i), rules)
			}
		}
		assert.InDelta(t, sum/11, depths[i], 1e-12)
	}

	ba, err := Merge(b, a)
	require.NoError(t, err)
	s1, err := ab.Score(d)
	require.NoError(t, err)
	s2, err := ba.Score(d)
	require.NoError(t, err)
	assert.InDeltaSlice(t, s1, s2, 1e-12)

	c, err := Build(d, Config{Trees: 3, Seed: 3})
	require.NoError(t, err)
	left, err := Merge(ab, c)
	require.NoError(t, err)
	bc, err := Merge(b, c)
	require.NoError(t, err)
	right, err := Merge(a, bc)
	require.NoError(t, err)
	s1, err = left.Score(d)
	require.NoError(t, err)
	s2, err = right.Score(d)
	require.NoError(t, err)
	assert.InDeltaSlice(t, s1, s2, 1e-12)
}

func TestMergeDoesNotShareTrees(t *testing.T) {
	d := mixed(t, 52, 100, 0)
	a, err := Build(d, Config{Trees: 2})
	require.NoError(t, err)
	merged, err := Merge(a)
	require.NoError(t, err)
	before := a.Trees[0].Nodes[0].Count
	merged.Trees[0].Nodes[0].Count = -1
	merged.Fallback[0].Observed = -1
	assert.Equal(t, before, a.Trees[0].Nodes[0].Count)
	assert.NotEqual(t, -1, a.Fallback[0].Observed)
}

func TestMergePoolsFallbackStatistics(t *testing.T) {
	a := &Forest{Fallback: []tree.FeatureStats{{Observed: 1, Mean: 2}}}
	b := &Forest{Fallback: []tree.FeatureStats{{Observed: 3, Mean: 6}}}
	var pooled tree.FeatureStats
	poolStats(&pooled, a.Fallback[0])
	poolStats(&pooled, b.Fallback[0])
	assert.Equal(t, tree.FeatureStats{Observed: 4, Mean: 5}, pooled)

	var counts tree.FeatureStats
	poolStats(&counts, tree.FeatureStats{Observed: 2, Counts: []int{1, 1}})
	poolStats(&counts, tree.FeatureStats{Observed: 1, Counts: []int{0, 1}})
	assert.Equal(t, []int{1, 2}, counts.Counts)
}

func TestMergeRejectsIncompatibleForests(t *testing.T) {
	d := mixed(t, 53, 100, 0)
	a, err := Build(d, Config{Trees: 2})
	require.NoError(t, err)

	other := uniform(t, 1, 100, 3)
	b, err := Build(other, Config{Trees: 2})
	require.NoError(t, err)
	_, err = Merge(a, b)
	assert.True(t, errors.Is(err, failure.InvalidInput))

	c, err := Build(d, Config{Trees: 2, MissingAction: tree.Majority})
	require.NoError(t, err)
	_, err = Merge(a, c)
	assert.True(t, errors.Is(err, failure.InvalidInput))

	levels := feature.Schema{mixedSchema[0], mixedSchema[1], feature.NewCategoricalFeature("group", []string{"a", "b", "c", "e"})}
	renamed := *a
	renamed.Schema = levels
	_, err = Merge(a, &renamed)
	assert.True(t, errors.Is(err, failure.InvalidInput))

	_, err = Merge()
	assert.True(t, errors.Is(err, failure.InvalidInput))
	_, err = Merge(a, nil)
	assert.True(t, errors.Is(err, failure.InvalidInput))
}

func TestClone(t *testing.T) {
	d := mixed(t, 53, 100, 0.1)
	f, err := Build(d, Config{Trees: 3, FeatureWeights: []float64{1, 1, 2}})
	require.NoError(t, err)
	c := f.Clone()
	assert.Equal(t, f, c)

	c.Trees[1].Nodes[0].Count = -1
	c.Fallback[2].Counts[0] = -1
	c.Config.FeatureWeights[0] = 5
	assert.NotEqual(t, -1, f.Trees[1].Nodes[0].Count)
	assert.NotEqual(t, -1, f.Fallback[2].Counts[0])
	assert.Equal(t, 1.0, f.Config.FeatureWeights[0])
}
