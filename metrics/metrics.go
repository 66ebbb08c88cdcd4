/*
Package metrics exposes prometheus instrumentation for growing forests and
applying them to datasets.
*/
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

/*
Collector gathers the counters and histograms updated while growing and
applying forests. A nil *Collector is valid and records nothing.
*/
type Collector struct {
	treesGrown  prometheus.Counter
	growSeconds prometheus.Histogram
	rows        *prometheus.CounterVec
}

/*
New builds a Collector and registers its metrics on the given registerer,
returning an error if any of them cannot be registered.
*/
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		treesGrown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "isoforest",
			Name:      "trees_grown_total",
			Help:      "Number of isolation trees grown.",
		}),
		growSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "isoforest",
			Name:      "tree_grow_seconds",
			Help:      "Time spent growing a single isolation tree.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isoforest",
			Name:      "rows_processed_total",
			Help:      "Number of rows a forest was applied to, by operation.",
		}, []string{"operation"}),
	}
	for _, m := range []prometheus.Collector{c.treesGrown, c.growSeconds, c.rows} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// TreeGrown records a tree grown in the given time
func (c *Collector) TreeGrown(d time.Duration) {
	if c == nil {
		return
	}
	c.treesGrown.Inc()
	c.growSeconds.Observe(d.Seconds())
}

// RowsProcessed records n rows processed by the given operation
func (c *Collector) RowsProcessed(operation string, n int) {
	if c == nil {
		return
	}
	c.rows.WithLabelValues(operation).Add(float64(n))
}

/*
WriteTextfile writes the metrics gathered by g to the file at path in the
text format read by node exporter's textfile collector.
*/
func WriteTextfile(g prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, g)
}
