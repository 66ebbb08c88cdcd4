package isoforest

import (
	"math"
	"sort"
	"time"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

/*
Build grows a forest from the given dataset with the given configuration.

Every tree is grown from its own subsample of the rows, by recursively
splitting them until a node holds a single row, none of the features the tree
may use can split its rows, or the maximum depth is reached. Trees are grown
in parallel and each one draws from a random stream derived from the master
seed and its position, so the same dataset, configuration and seed always
produce the same forest.

Build returns an InvalidInput error if the dataset is empty or the
configuration is not valid for it.
*/
func Build(d *dataset.Dataset, cfg Config, opts ...Option) (*Forest, error) {
	if d == nil || d.Len() == 0 || d.Width() == 0 {
		return nil, failure.Errorf(failure.InvalidInput, "cannot grow a forest from an empty dataset")
	}
	cfg = cfg.withDefaults(d.Len())
	if err := cfg.Validate(d.Schema(), d.Len()); err != nil {
		return nil, err
	}
	s := newSettings(cfg.Threads, opts)
	s.logger.Info("growing forest",
		zap.Int("trees", cfg.Trees),
		zap.Int("rows", d.Len()),
		zap.Int("features", d.Width()),
		zap.Int("sample_size", cfg.SampleSize),
		zap.Int("max_depth", cfg.MaxDepth),
		zap.String("criterion", string(cfg.Criterion)),
		zap.Int("threads", s.threads),
	)
	start := time.Now()
	trees := make([]tree.Tree, cfg.Trees)
	err := parallel(cfg.Trees, s.threads, 1, func(i int) error {
		began := time.Now()
		trees[i] = newGrower(d, cfg, treeRand(cfg.Seed, i)).grow()
		s.metrics.TreeGrown(time.Since(began))
		s.logger.Debug("tree grown",
			zap.Int("tree", i),
			zap.Int("nodes", len(trees[i].Nodes)),
			zap.Int("depth", trees[i].Depth()),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	f := &Forest{
		Schema:   d.Schema(),
		Config:   cfg,
		Trees:    trees,
		Fallback: columnStats(d, nil),
	}
	s.logger.Info("forest grown", zap.Duration("elapsed", time.Since(start)))
	return f, nil
}

type grower struct {
	d        *dataset.Dataset
	cfg      Config
	rng      *rand.Rand
	features []int
	nodes    []tree.Node
	values   []float64
}

func newGrower(d *dataset.Dataset, cfg Config, rng *rand.Rand) *grower {
	g := &grower{d: d, cfg: cfg, rng: rng}
	g.features = g.eligibleFeatures()
	return g
}

/*
eligibleFeatures returns the ids of the features the tree may split on, a
FeatureFraction share of them, drawn with the configured weights.
*/
func (g *grower) eligibleFeatures() []int {
	width := g.d.Width()
	all := make([]int, width)
	for j := range all {
		all[j] = j
	}
	k := int(math.Round(g.cfg.FeatureFraction * float64(width)))
	if k < 1 {
		k = 1
	}
	if k >= width {
		return all
	}
	chosen := make([]int, 0, k)
	for len(chosen) < k && len(all) > 0 {
		p := g.pick(all)
		chosen = append(chosen, all[p])
		all = append(all[:p], all[p+1:]...)
	}
	sort.Ints(chosen)
	return chosen
}

/*
pick returns the position in features of a feature drawn with the configured
weights, or uniformly when there are none or they are all zero.
*/
func (g *grower) pick(features []int) int {
	if g.cfg.FeatureWeights != nil {
		var total float64
		for _, j := range features {
			total += g.cfg.FeatureWeights[j]
		}
		if total > 0 {
			u := g.rng.Float64() * total
			for p, j := range features {
				u -= g.cfg.FeatureWeights[j]
				if u < 0 {
					return p
				}
			}
			for p := len(features) - 1; p >= 0; p-- {
				if g.cfg.FeatureWeights[features[p]] > 0 {
					return p
				}
			}
		}
	}
	return g.rng.Intn(len(features))
}

func (g *grower) subsample() []int {
	n := g.d.Len()
	rows := make([]int, g.cfg.SampleSize)
	if g.cfg.WithReplacement {
		for i := range rows {
			rows[i] = g.rng.Intn(n)
		}
		return rows
	}
	copy(rows, g.rng.Perm(n))
	return rows
}

func (g *grower) grow() tree.Tree {
	rows := g.subsample()
	g.split(rows, 0)
	return tree.Tree{Nodes: g.nodes, SampleSize: len(rows)}
}

/*
split appends the node for the given rows, and recursively its descendants,
and returns its index. Rows are rearranged in place so that the rows of the
left child precede the rows of the right one.
*/
func (g *grower) split(rows []int, depth int) int {
	i := len(g.nodes)
	g.nodes = append(g.nodes, tree.Node{Depth: depth, Count: len(rows)})
	if len(rows) <= 1 || depth >= g.cfg.MaxDepth {
		g.terminal(i, rows)
		return i
	}
	candidates := g.splittable(rows)
	if len(candidates) == 0 {
		g.terminal(i, rows)
		return i
	}
	sp := g.choose(rows, candidates)
	nLeft, missingLeft := g.partition(rows, sp)
	n := &g.nodes[i]
	n.Kind = sp.kind
	n.Feature = sp.feature
	n.Threshold = sp.threshold
	n.Branches = sp.branches
	n.Terms = sp.terms
	n.MissingLeft = missingLeft
	left := g.split(rows[:nLeft], depth+1)
	right := g.split(rows[nLeft:], depth+1)
	g.nodes[i].Left, g.nodes[i].Right = left, right
	return i
}

func (g *grower) terminal(i int, rows []int) {
	n := &g.nodes[i]
	n.Kind = tree.Terminal
	n.Correction = tree.ExpectedPathLength(len(rows))
	n.Stats = columnStats(g.d, rows)
}

/*
partition moves the rows the split sends left to the front and returns how
many they are together with the share of rows holding a value that went left.
Rows missing the value go left with that probability.
*/
func (g *grower) partition(rows []int, sp *split) (int, float64) {
	var nLeft, nRight int
	for _, r := range rows {
		left, missing := sp.route(g.d, r)
		switch {
		case missing:
		case left:
			nLeft++
		default:
			nRight++
		}
	}
	missingLeft := float64(nLeft) / float64(nLeft+nRight)
	k := 0
	for idx := 0; idx < len(rows); idx++ {
		left, missing := sp.route(g.d, rows[idx])
		if missing {
			left = g.rng.Float64() < missingLeft
		}
		if left {
			rows[k], rows[idx] = rows[idx], rows[k]
			k++
		}
	}
	return k, missingLeft
}

/*
columnStats aggregates the values of every feature over the given rows, or
over all rows of the dataset when rows is nil.
*/
func columnStats(d *dataset.Dataset, rows []int) []tree.FeatureStats {
	if rows == nil {
		rows = make([]int, d.Len())
		for i := range rows {
			rows[i] = i
		}
	}
	stats := make([]tree.FeatureStats, d.Width())
	for j, f := range d.Schema() {
		s := &stats[j]
		if f.Kind() == feature.Numeric {
			column := d.Numeric(j)
			var sum float64
			for _, r := range rows {
				if x := column[r]; !math.IsNaN(x) {
					sum += x
					s.Observed++
				}
			}
			if s.Observed > 0 {
				s.Mean = sum / float64(s.Observed)
			}
			continue
		}
		column := d.Categorical(j)
		s.Counts = make([]int, len(feature.Levels(f)))
		for _, r := range rows {
			if c := column[r]; c >= 0 {
				s.Counts[c]++
				s.Observed++
			}
		}
	}
	return stats
}
