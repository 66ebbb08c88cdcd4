package isoforest

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestScoresAreDeterministicAndInRange(t *testing.T) {
	d := mixed(t, 11, 600, 0.1)
	f, err := Build(d, Config{Trees: 30, Seed: 3})
	require.NoError(t, err)
	s1, err := f.Score(d)
	require.NoError(t, err)
	s2, err := f.Score(d, WithThreads(1))
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
	require.Len(t, s1, d.Len())
	for _, s := range s1 {
		assert.True(t, s >= 0 && s <= 1, "score %v out of range", s)
	}
}

func TestScoresOnTrainingDistributionAverageOneHalf(t *testing.T) {
	d := uniform(t, 21, 2000, 3)
	f, err := Build(d, Config{Seed: 9})
	require.NoError(t, err)
	fresh := uniform(t, 22, 500, 3)
	scores, err := f.Score(fresh)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, stat.Mean(scores, nil), 0.08)
}

func TestOutlierScoresAboveNinetyNinthPercentile(t *testing.T) {
	if testing.Short() {
		t.Skip("grows a full size forest")
	}
	train := gaussian(t, 100, 10000, 5, 10, 2)
	f, err := Build(train, Config{Trees: 100, SampleSize: 256, Seed: 2024})
	require.NoError(t, err)

	outlier := make([]interface{}, 5)
	for j := range outlier {
		outlier[j] = []float64{100 * stat.Mean(train.Numeric(j), nil)}
	}
	od, err := dataset.New(train.Schema(), outlier...)
	require.NoError(t, err)
	outlierScores, err := f.Score(od)
	require.NoError(t, err)

	normal, err := f.Score(gaussian(t, 101, 1000, 5, 10, 2))
	require.NoError(t, err)
	sort.Float64s(normal)
	p99 := stat.Quantile(0.99, stat.Empirical, normal, nil)
	assert.Greater(t, outlierScores[0], p99)
}

func TestDepthsMatchTreeAverages(t *testing.T) {
	d := mixed(t, 12, 300, 0.2)
	f, err := Build(d, Config{Trees: 8, Seed: 5})
	require.NoError(t, err)
	depths, err := f.Depths(d)
	require.NoError(t, err)
	for i := 0; i < d.Len(); i += 37 {
		var sum float64
		for _, tr := range f.Trees {
			sum += tr.PathEstimate(d.Row(i), f.Config.Rules())
		}
		assert.InDelta(t, sum/8, depths[i], 1e-12)
	}
}

func TestMissingActions(t *testing.T) {
	d := mixed(t, 13, 300, 0.2)
	for _, action := range []tree.MissingAction{tree.Divide, tree.Majority} {
		f, err := Build(d, Config{Trees: 10, MissingAction: action})
		require.NoError(t, err)
		scores, err := f.Score(d)
		require.NoError(t, err)
		for _, s := range scores {
			assert.False(t, math.IsNaN(s))
		}
	}

	f, err := Build(d, Config{Trees: 10, MissingAction: tree.Fail})
	require.NoError(t, err)
	_, err = f.Score(d)
	assert.True(t, errors.Is(err, failure.InvalidInput))
	_, err = f.Distances(d)
	assert.True(t, errors.Is(err, failure.InvalidInput))
	complete := mixed(t, 14, 50, 0)
	_, err = f.Score(complete)
	assert.NoError(t, err)
}

func TestScoreRejectsSchemaMismatch(t *testing.T) {
	f, err := Build(uniform(t, 1, 100, 3), Config{Trees: 2})
	require.NoError(t, err)
	_, err = f.Score(uniform(t, 1, 10, 2))
	assert.True(t, errors.Is(err, failure.InvalidInput))
	_, err = f.Score(nil)
	assert.True(t, errors.Is(err, failure.InvalidInput))
}

func TestScoreOverflowsWithSingleRowTrees(t *testing.T) {
	d := uniform(t, 1, 10, 2)
	f, err := Build(d, Config{Trees: 3, SampleSize: 1})
	require.NoError(t, err)
	_, err = f.Score(d)
	assert.True(t, errors.Is(err, failure.NumericOverflow))
}
