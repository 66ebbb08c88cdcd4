package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forest(t *testing.T, seed uint64) *isoforest.Forest {
	t.Helper()
	schema := feature.Schema{feature.NewNumericFeature("x"), feature.NewCategoricalFeature("c", []string{"u", "v"})}
	x := make([]float64, 50)
	c := make([]int, 50)
	for i := range x {
		x[i] = float64(i * i % 17)
		c[i] = i % 2
	}
	d, err := dataset.New(schema, x, c)
	require.NoError(t, err)
	f, err := isoforest.Build(d, isoforest.Config{Trees: 3, Seed: seed})
	require.NoError(t, err)
	return f
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close(ctx)

	f, g := forest(t, 1), forest(t, 2)
	idF, err := ms.Save(ctx, f)
	require.NoError(t, err)
	idG, err := ms.Save(ctx, g)
	require.NoError(t, err)
	assert.NotEqual(t, idF, idG)
	assert.Len(t, idF, 36)

	ids, err := ms.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{idF, idG}, ids)
	assert.IsIncreasing(t, ids)

	loaded, err := ms.Load(ctx, idF)
	require.NoError(t, err)
	assert.Equal(t, f, loaded)

	loaded.Trees[0].Nodes[0].Count = -1
	again, err := ms.Load(ctx, idF)
	require.NoError(t, err)
	assert.Equal(t, f, again)

	f.Trees[0].Nodes[0].Count = -2
	again, err = ms.Load(ctx, idF)
	require.NoError(t, err)
	assert.NotEqual(t, -2, again.Trees[0].Nodes[0].Count)

	require.NoError(t, ms.Delete(ctx, idF))
	require.NoError(t, ms.Delete(ctx, idF))
	missing, err := ms.Load(ctx, idF)
	require.NoError(t, err)
	assert.Nil(t, missing)
	ids, err = ms.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{idG}, ids)
}

func TestMemoryStoreRejectsNilForest(t *testing.T) {
	_, err := NewMemoryStore().Save(context.Background(), nil)
	assert.True(t, errors.Is(err, failure.InvalidInput))
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ms := NewMemoryStore()
	_, err := ms.Save(ctx, forest(t, 3))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = ms.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// a held lock makes waiting operations give up when the context expires
	impl := ms.(*memoryStore)
	impl.lock.Lock()
	defer impl.lock.Unlock()
	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = ms.Load(ctx, "anything")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
