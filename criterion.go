package isoforest

import (
	"math"

	"github.com/pbanos/isoforest/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

/*
gainFunc scores a split from the dispersion of the values at a node and at
each of its children and the number of rows in each child. Larger is better.
*/
type gainFunc func(total, left, right float64, nLeft, nRight int) float64

func (c Criterion) gain() gainFunc {
	switch c {
	case AveragedGain:
		return averagedGain
	case PooledGain:
		return pooledGain
	}
	return nil
}

func averagedGain(total, left, right float64, nLeft, nRight int) float64 {
	return (total - (left+right)/2) / total
}

func pooledGain(total, left, right float64, nLeft, nRight int) float64 {
	n := float64(nLeft + nRight)
	return (total - (float64(nLeft)*left+float64(nRight)*right)/n) / total
}

/*
gain evaluates a split on the rows holding a value for it. Numeric and linear
splits are measured by the standard deviation of the values, categorical
splits by the entropy of the level distribution.
*/
func (g *grower) gain(rows []int, sp *split, fn gainFunc) float64 {
	var result float64
	if sp.kind == tree.CategoricalSplit {
		result = g.categoricalGain(rows, sp, fn)
	} else {
		result = g.numericGain(rows, sp, fn)
	}
	if math.IsNaN(result) {
		return math.Inf(-1)
	}
	return result
}

func (g *grower) numericGain(rows []int, sp *split, fn gainFunc) float64 {
	var all, left, right []float64
	for _, r := range rows {
		var x float64
		if sp.kind == tree.LinearSplit {
			x = tree.Project(sp.terms, g.d.Row(r))
		} else {
			x = g.d.Numeric(sp.feature)[r]
			if math.IsNaN(x) {
				continue
			}
		}
		all = append(all, x)
		if x <= sp.threshold {
			left = append(left, x)
		} else {
			right = append(right, x)
		}
	}
	return fn(stdDev(all), stdDev(left), stdDev(right), len(left), len(right))
}

func stdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(x, nil)
	return math.Sqrt(variance)
}

func (g *grower) categoricalGain(rows []int, sp *split, fn gainFunc) float64 {
	levels := len(sp.branches)
	all, left, right := make([]float64, levels), make([]float64, levels), make([]float64, levels)
	var nLeft, nRight int
	column := g.d.Categorical(sp.feature)
	for _, r := range rows {
		c := column[r]
		if c < 0 {
			continue
		}
		all[c]++
		if sp.branches[c] == tree.GoLeft {
			left[c]++
			nLeft++
		} else {
			right[c]++
			nRight++
		}
	}
	return fn(entropy(all), entropy(left), entropy(right), nLeft, nRight)
}

// entropy returns the entropy of the distribution given by counts
func entropy(counts []float64) float64 {
	total := floats.Sum(counts)
	if total == 0 {
		return 0
	}
	p := make([]float64, len(counts))
	floats.ScaleTo(p, 1/total, counts)
	return stat.Entropy(p)
}
