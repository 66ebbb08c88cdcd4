package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/redis.v5"
)

func TestKeys(t *testing.T) {
	rs := &redisStore{prefix: "models"}
	assert.Equal(t, "models:abc", rs.keyFor("abc"))
	assert.Equal(t, "abc", rs.idFor(rs.keyFor("abc")))
	assert.Equal(t, "models:*", rs.keyFor("*"))
}

// TestRedisStore runs against the redis server at REDIS_ADDR, if any
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rc := redis.NewClient(&redis.Options{Addr: addr})
	defer rc.Close()
	require.NoError(t, rc.Ping().Err())

	ctx := context.Background()
	prefix := "isoforest-test-" + t.Name()
	rs := New(rc, prefix, serialize.New())
	defer rs.Close(ctx)

	schema := feature.Schema{feature.NewNumericFeature("x")}
	x := make([]float64, 64)
	for i := range x {
		x[i] = float64(i % 9)
	}
	d, err := dataset.New(schema, x)
	require.NoError(t, err)
	f, err := isoforest.Build(d, isoforest.Config{Trees: 4, Seed: 1})
	require.NoError(t, err)

	id, err := rs.Save(ctx, f)
	require.NoError(t, err)
	defer rs.Delete(ctx, id)

	ids, err := rs.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	loaded, err := rs.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f, loaded)

	require.NoError(t, rs.Delete(ctx, id))
	loaded, err = rs.Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
