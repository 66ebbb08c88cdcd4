package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)
	c.TreeGrown(time.Millisecond)
	c.TreeGrown(2 * time.Millisecond)
	c.RowsProcessed("score", 10)
	c.RowsProcessed("score", 5)
	c.RowsProcessed("impute", 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.treesGrown))
	assert.Equal(t, 15.0, testutil.ToFloat64(c.rows.WithLabelValues("score")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rows.WithLabelValues("impute")))

	_, err = New(reg)
	assert.Error(t, err, "registering twice must fail")

	path := filepath.Join(t.TempDir(), "isoforest.prom")
	require.NoError(t, WriteTextfile(reg, path))
	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "isoforest_trees_grown_total 2")
}

func TestNilCollectorRecordsNothing(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.TreeGrown(time.Second)
		c.RowsProcessed("score", 1)
	})
}
