package sqldataset_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/dataset/sqldataset"
	"github.com/pbanos/isoforest/dataset/sqldataset/sqlite3adapter"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schema = feature.Schema{
	feature.NewCategoricalFeature("shape", []string{"round", "square", "it's odd"}),
	feature.NewNumericFeature("size"),
}

func adapter(t *testing.T) sqldataset.Adapter {
	t.Helper()
	a, err := sqlite3adapter.New(filepath.Join(t.TempDir(), "samples.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestStoreAndLoad(t *testing.T) {
	ctx := context.Background()
	a := adapter(t)
	size := make([]float64, 120)
	shape := make([]string, 120)
	levels := []string{"round", "square", "it's odd", ""}
	for i := range size {
		size[i] = float64(i) / 7
		if i%11 == 0 {
			size[i] = math.NaN()
		}
		shape[i] = levels[i%4]
	}
	d, err := dataset.New(schema, shape, size)
	require.NoError(t, err)

	n, err := sqldataset.Store(ctx, a, d)
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	loaded, err := sqldataset.Load(ctx, a, schema)
	require.NoError(t, err)
	require.Equal(t, d.Len(), loaded.Len())
	assert.Equal(t, d.Categorical(0), loaded.Categorical(0))
	for i, x := range d.Numeric(1) {
		if math.IsNaN(x) {
			assert.True(t, loaded.Missing(i, 1), "row %d", i)
			continue
		}
		assert.Equal(t, x, loaded.Numeric(1)[i], "row %d", i)
	}

	// storing again appends rows to the existing table
	_, err = sqldataset.Store(ctx, a, d)
	require.NoError(t, err)
	loaded, err = sqldataset.Load(ctx, a, schema)
	require.NoError(t, err)
	assert.Equal(t, 240, loaded.Len())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	ctx := context.Background()
	a := adapter(t)
	require.NoError(t, a.CreateSampleTable(ctx, []string{"size"}, []string{"shape"}))
	_, err := a.AddSamples(ctx, []string{"shape", "size"}, [][]interface{}{{"triangle", 1.0}})
	require.NoError(t, err)
	_, err = sqldataset.Load(ctx, a, schema)
	assert.True(t, errors.Is(err, failure.InvalidInput), "got %v", err)
}

func TestReservedColumn(t *testing.T) {
	d, err := dataset.New(feature.Schema{feature.NewNumericFeature("id")}, []float64{1})
	require.NoError(t, err)
	_, err = sqldataset.Store(context.Background(), adapter(t), d)
	assert.True(t, errors.Is(err, failure.InvalidInput))
}
