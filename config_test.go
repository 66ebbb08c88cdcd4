package isoforest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYAML = `
trees: 50
sample_size: 128
criterion: pooled-gain
candidates: 4
ndim: 2
missing_action: majority
unseen_action: smallest
impute_weighting: uniform
feature_weights: [1, 2, 0.5]
seed: 99
`

func TestReadConfig(t *testing.T) {
	c, err := ReadConfig([]byte(configYAML))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Trees:           50,
		SampleSize:      128,
		Criterion:       PooledGain,
		Candidates:      4,
		NDim:            2,
		MissingAction:   tree.Majority,
		UnseenAction:    tree.UnseenToSmallest,
		ImputeWeighting: Uniform,
		FeatureWeights:  []float64{1, 2, 0.5},
		Seed:            99,
	}, c)
	assert.Equal(t, tree.Rules{Missing: tree.Majority, Unseen: tree.UnseenToSmallest}, c.Rules())

	_, err = ReadConfig([]byte("tress: 10\n"))
	assert.True(t, errors.Is(err, failure.InvalidInput))
}

func TestReadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forest.yml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))
	c, err := ReadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50, c.Trees)

	_, err = ReadConfigFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestConfigDefaultsKeepExplicitValues(t *testing.T) {
	c := Config{Trees: 3, SampleSize: 10, MaxDepth: 2, Criterion: AveragedGain}.withDefaults(1000)
	assert.Equal(t, 3, c.Trees)
	assert.Equal(t, 10, c.SampleSize)
	assert.Equal(t, 2, c.MaxDepth)
	assert.Equal(t, AveragedGain, c.Criterion)
	assert.Equal(t, 1.0, c.FeatureFraction)
	assert.Equal(t, 1, c.NDim)
	assert.Equal(t, SubsetSplit, c.CategorySplit)
}
