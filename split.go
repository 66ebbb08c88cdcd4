package isoforest

import (
	"math"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// split is a candidate rule for a node
type split struct {
	kind      tree.Kind
	feature   int
	threshold float64
	branches  []tree.Branch
	terms     []tree.Term
}

/*
route tells whether the split sends row r of d left, or that the row lacks
the value the split needs.
*/
func (sp *split) route(d *dataset.Dataset, r int) (left, missing bool) {
	switch sp.kind {
	case tree.NumericSplit:
		x := d.Numeric(sp.feature)[r]
		if math.IsNaN(x) {
			return false, true
		}
		return x <= sp.threshold, false
	case tree.CategoricalSplit:
		c := d.Categorical(sp.feature)[r]
		if c < 0 {
			return false, true
		}
		return sp.branches[c] == tree.GoLeft, false
	}
	return tree.Project(sp.terms, d.Row(r)) <= sp.threshold, false
}

/*
splittable returns the features of the tree that take at least two different
values on the given rows.
*/
func (g *grower) splittable(rows []int) []int {
	var result []int
	for _, j := range g.features {
		if g.d.Schema()[j].Kind() == feature.Numeric {
			column := g.d.Numeric(j)
			first := math.NaN()
			for _, r := range rows {
				x := column[r]
				if math.IsNaN(x) {
					continue
				}
				if math.IsNaN(first) {
					first = x
				} else if x != first {
					result = append(result, j)
					break
				}
			}
			continue
		}
		column := g.d.Categorical(j)
		first := feature.MissingCategory
		for _, r := range rows {
			c := column[r]
			if c < 0 {
				continue
			}
			if first < 0 {
				first = c
			} else if c != first {
				result = append(result, j)
				break
			}
		}
	}
	return result
}

/*
choose returns the split for a node. The random criterion takes the first
candidate drawn; gain criteria draw Candidates of them and keep the one with
the largest gain, the earliest on ties.
*/
func (g *grower) choose(rows []int, candidates []int) *split {
	gain := g.cfg.Criterion.gain()
	if gain == nil {
		return g.candidate(rows, candidates)
	}
	var best *split
	bestGain := math.Inf(-1)
	for t := 0; t < g.cfg.Candidates; t++ {
		sp := g.candidate(rows, candidates)
		gn := g.gain(rows, sp, gain)
		if best == nil || gn > bestGain {
			best, bestGain = sp, gn
		}
	}
	return best
}

func (g *grower) candidate(rows []int, candidates []int) *split {
	if g.cfg.NDim > 1 {
		var numeric []int
		for _, j := range candidates {
			if g.d.Schema()[j].Kind() == feature.Numeric {
				numeric = append(numeric, j)
			}
		}
		if len(numeric) > 0 {
			return g.linear(rows, numeric)
		}
	}
	j := candidates[g.pick(candidates)]
	if g.d.Schema()[j].Kind() == feature.Numeric {
		return g.numeric(rows, j)
	}
	return g.categorical(rows, j)
}

// observed gathers the values of numeric feature j on the rows that have one
func (g *grower) observed(rows []int, j int) []float64 {
	g.values = g.values[:0]
	column := g.d.Numeric(j)
	for _, r := range rows {
		if x := column[r]; !math.IsNaN(x) {
			g.values = append(g.values, x)
		}
	}
	return g.values
}

/*
threshold draws a value uniformly from [lo,hi), so that lo goes left and hi
goes right.
*/
func (g *grower) threshold(lo, hi float64) float64 {
	t := lo + g.rng.Float64()*(hi-lo)
	if t >= hi {
		t = lo
	}
	return t
}

func (g *grower) numeric(rows []int, j int) *split {
	values := g.observed(rows, j)
	return &split{
		kind:      tree.NumericSplit,
		feature:   j,
		threshold: g.threshold(floats.Min(values), floats.Max(values)),
	}
}

/*
categorical sends a random subset of the levels observed on the rows left,
or a single one with SingleSplit, and the rest of them right. Levels not
observed are left Unseen.
*/
func (g *grower) categorical(rows []int, j int) *split {
	column := g.d.Categorical(j)
	branches := make([]tree.Branch, len(feature.Levels(g.d.Schema()[j])))
	var observed []int
	for _, r := range rows {
		if c := column[r]; c >= 0 && branches[c] == tree.Unseen {
			branches[c] = tree.GoRight
			observed = append(observed, c)
		}
	}
	if g.cfg.CategorySplit == SingleSplit {
		branches[observed[g.rng.Intn(len(observed))]] = tree.GoLeft
		return &split{kind: tree.CategoricalSplit, feature: j, branches: branches}
	}
	var left int
	for _, c := range observed {
		if g.rng.Intn(2) == 0 {
			branches[c] = tree.GoLeft
			left++
		}
	}
	switch left {
	case 0:
		branches[observed[g.rng.Intn(len(observed))]] = tree.GoLeft
	case len(observed):
		branches[observed[g.rng.Intn(len(observed))]] = tree.GoRight
	}
	return &split{kind: tree.CategoricalSplit, feature: j, branches: branches}
}

/*
linear combines up to NDim of the given numeric features with random normal
coefficients scaled by each feature's standard deviation on the rows, and
picks a threshold within the range of the projections. Missing values count
as the feature's mean.
*/
func (g *grower) linear(rows []int, numeric []int) *split {
	k := g.cfg.NDim
	if k > len(numeric) {
		k = len(numeric)
	}
	perm := g.rng.Perm(len(numeric))
	terms := make([]tree.Term, k)
	for t := 0; t < k; t++ {
		j := numeric[perm[t]]
		mean, variance := stat.PopMeanVariance(g.observed(rows, j), nil)
		terms[t] = tree.Term{
			Feature: j,
			Coef:    g.rng.NormFloat64() / math.Sqrt(variance),
			Center:  mean,
		}
	}
	g.values = g.values[:0]
	for _, r := range rows {
		g.values = append(g.values, tree.Project(terms, g.d.Row(r)))
	}
	lo, hi := floats.Min(g.values), floats.Max(g.values)
	if !(lo < hi) || !finite(lo) || !finite(hi) {
		return g.numeric(rows, terms[0].Feature)
	}
	return &split{kind: tree.LinearSplit, feature: terms[0].Feature, threshold: g.threshold(lo, hi), terms: terms}
}
