package isoforest

import (
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/tree"
)

/*
Merge returns a new forest holding deep copies of the trees of all the given
forests, in argument order. The forests are not modified.

All forests must share the same schema and the same rules to route missing
values and unseen levels, otherwise Merge returns an InvalidInput error. The
configuration of the result is the one of the first forest with the tree count
updated and the largest of their maximum depths, and its fallback statistics
pool those of every forest.
*/
func Merge(forests ...*Forest) (*Forest, error) {
	if len(forests) == 0 {
		return nil, failure.Errorf(failure.InvalidInput, "no forests to merge")
	}
	for i, f := range forests {
		if f == nil || len(f.Trees) == 0 {
			return nil, failure.Errorf(failure.InvalidInput, "forest %d is empty", i)
		}
	}
	first := forests[0]
	rules := first.Config.Rules()
	var count int
	maxDepth := first.Config.MaxDepth
	for i, f := range forests {
		if !first.Schema.Equal(f.Schema) {
			return nil, failure.Errorf(failure.InvalidInput, "forest %d has schema [%s], expected [%s]", i, f.Schema.Describe(), first.Schema.Describe())
		}
		if f.Config.Rules() != rules {
			return nil, failure.Errorf(failure.InvalidInput, "forest %d routes with %v, expected %v", i, f.Config.Rules(), rules)
		}
		if f.Config.MaxDepth > maxDepth {
			maxDepth = f.Config.MaxDepth
		}
		count += len(f.Trees)
	}
	merged := &Forest{
		Schema:   first.Schema,
		Config:   first.Config,
		Trees:    make([]tree.Tree, 0, count),
		Fallback: make([]tree.FeatureStats, len(first.Schema)),
	}
	if first.Config.FeatureWeights != nil {
		merged.Config.FeatureWeights = append([]float64(nil), first.Config.FeatureWeights...)
	}
	merged.Config.Trees = count
	merged.Config.MaxDepth = maxDepth
	for _, f := range forests {
		for t := range f.Trees {
			merged.Trees = append(merged.Trees, f.Trees[t].Clone())
		}
		for j, st := range f.Fallback {
			poolStats(&merged.Fallback[j], st)
		}
	}
	return merged, nil
}

func poolStats(dst *tree.FeatureStats, src tree.FeatureStats) {
	observed := dst.Observed + src.Observed
	if observed > 0 {
		dst.Mean = (dst.Mean*float64(dst.Observed) + src.Mean*float64(src.Observed)) / float64(observed)
	}
	dst.Observed = observed
	if src.Counts == nil {
		return
	}
	if dst.Counts == nil {
		dst.Counts = make([]int, len(src.Counts))
	}
	for c, n := range src.Counts {
		dst.Counts[c] += n
	}
}
