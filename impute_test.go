package isoforest

import (
	"errors"
	"math"
	"testing"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImputeLeavesCompleteRowsUnchanged(t *testing.T) {
	train := mixed(t, 40, 500, 0.1)
	f, err := Build(train, Config{Trees: 20, Seed: 1})
	require.NoError(t, err)
	complete := mixed(t, 41, 200, 0)
	imputed, err := f.Impute(complete)
	require.NoError(t, err)
	assert.Equal(t, complete, imputed)
	assert.NotSame(t, complete, imputed)
}

func TestImputeFollowsClusters(t *testing.T) {
	train := mixed(t, 42, 1000, 0)
	for _, weighting := range []ImputeWeighting{InverseDepth, Uniform} {
		t.Run(string(weighting), func(t *testing.T) {
			f, err := Build(train, Config{Seed: 6, ImputeWeighting: weighting})
			require.NoError(t, err)
			q, err := dataset.FromRows(mixedSchema, [][]interface{}{
				{10.0, nil, "b"},
				{0.0, nil, "a"},
				{10.0, 10.0, nil},
				{nil, -0.5, "a"},
			})
			require.NoError(t, err)
			imputed, err := f.Impute(q)
			require.NoError(t, err)
			assert.False(t, imputed.HasMissing())
			assert.Greater(t, imputed.Numeric(1)[0], 5.0)
			assert.Less(t, imputed.Numeric(1)[1], 5.0)
			assert.Equal(t, "b", imputed.Value(2, 2))
			assert.Less(t, imputed.Numeric(0)[3], 5.0)
			assert.Equal(t, 10.0, imputed.Numeric(0)[0])
			assert.True(t, q.Missing(0, 1), "source dataset must not change")
		})
	}
}

func TestImputeIsIdempotent(t *testing.T) {
	train := mixed(t, 43, 400, 0.1)
	f, err := Build(train, Config{Trees: 25, Seed: 2})
	require.NoError(t, err)
	once, err := f.Impute(train)
	require.NoError(t, err)
	twice, err := f.Impute(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestImputeLeavesNeverObservedFeaturesMissing(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	train, err := dataset.New(numericSchema(2), x, y)
	require.NoError(t, err)
	f, err := Build(train, Config{Trees: 5})
	require.NoError(t, err)
	imputed, err := f.Impute(train)
	require.NoError(t, err)
	assert.Equal(t, x, imputed.Numeric(0))
	for i := range y {
		assert.True(t, imputed.Missing(i, 1))
	}
}

func TestImputeWorksWhenScoringFailsOnMissing(t *testing.T) {
	train := mixed(t, 44, 200, 0)
	f, err := Build(train, Config{Trees: 5, MissingAction: "fail"})
	require.NoError(t, err)
	q := mixed(t, 45, 20, 0.3)
	imputed, err := f.Impute(q)
	require.NoError(t, err)
	assert.False(t, imputed.HasMissing())

	_, err = f.Impute(uniform(t, 1, 5, 3))
	assert.True(t, errors.Is(err, failure.InvalidInput))
}
