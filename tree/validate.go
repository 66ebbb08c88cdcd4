package tree

import (
	"fmt"
	"math"

	"github.com/pbanos/isoforest/feature"
)

/*
Validate checks the tree is well formed for the given schema and maximum
depth and returns an error describing the first problem found:
  - every node but the root is the child of exactly one node, at a larger
    index, and one level deeper
  - non-terminal nodes have two children whose counts add up to their own
  - feature ids exist in the schema and match the kind of the split
  - categorical splits send at least one level each way
  - no node is deeper than maxDepth
  - terminal nodes carry statistics matching the schema
*/
func (t *Tree) Validate(schema feature.Schema, maxDepth int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if t.SampleSize < 1 {
		return fmt.Errorf("tree has sample size %d", t.SampleSize)
	}
	if t.Nodes[0].Depth != 0 {
		return fmt.Errorf("root has depth %d", t.Nodes[0].Depth)
	}
	parents := make([]int, len(t.Nodes))
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.Depth > maxDepth {
			return fmt.Errorf("node %d has depth %d beyond maximum %d", i, n.Depth, maxDepth)
		}
		if n.Count < 1 {
			return fmt.Errorf("node %d has count %d", i, n.Count)
		}
		if n.Kind == Terminal {
			if err := validateStats(n.Stats, schema); err != nil {
				return fmt.Errorf("node %d: %v", i, err)
			}
			if math.IsNaN(n.Correction) || math.IsInf(n.Correction, 0) || n.Correction < 0 {
				return fmt.Errorf("node %d has correction %v", i, n.Correction)
			}
			continue
		}
		for _, c := range []int{n.Left, n.Right} {
			if c <= i || c >= len(t.Nodes) {
				return fmt.Errorf("node %d references child %d out of range (%d,%d)", i, c, i, len(t.Nodes))
			}
			parents[c]++
			if t.Nodes[c].Depth != n.Depth+1 {
				return fmt.Errorf("node %d at depth %d has child %d at depth %d", i, n.Depth, c, t.Nodes[c].Depth)
			}
		}
		if n.Left == n.Right {
			return fmt.Errorf("node %d has both children at %d", i, n.Left)
		}
		if t.Nodes[n.Left].Count+t.Nodes[n.Right].Count != n.Count {
			return fmt.Errorf("node %d has count %d but its children add up to %d", i, n.Count, t.Nodes[n.Left].Count+t.Nodes[n.Right].Count)
		}
		if !(n.MissingLeft >= 0 && n.MissingLeft <= 1) {
			return fmt.Errorf("node %d has missing ratio %v", i, n.MissingLeft)
		}
		if err := validateSplit(n, schema); err != nil {
			return fmt.Errorf("node %d: %v", i, err)
		}
	}
	for i := 1; i < len(parents); i++ {
		if parents[i] != 1 {
			return fmt.Errorf("node %d is referenced by %d parents", i, parents[i])
		}
	}
	return nil
}

func validateSplit(n *Node, schema feature.Schema) error {
	switch n.Kind {
	case NumericSplit:
		if n.Feature < 0 || n.Feature >= len(schema) || schema[n.Feature].Kind() != feature.Numeric {
			return fmt.Errorf("numeric split on invalid feature %d", n.Feature)
		}
		if math.IsNaN(n.Threshold) || math.IsInf(n.Threshold, 0) {
			return fmt.Errorf("numeric split with threshold %v", n.Threshold)
		}
	case CategoricalSplit:
		if n.Feature < 0 || n.Feature >= len(schema) || schema[n.Feature].Kind() != feature.Categorical {
			return fmt.Errorf("categorical split on invalid feature %d", n.Feature)
		}
		levels := feature.Levels(schema[n.Feature])
		if len(n.Branches) != len(levels) {
			return fmt.Errorf("categorical split has %d branches for %d levels", len(n.Branches), len(levels))
		}
		var left, right int
		for _, b := range n.Branches {
			switch b {
			case GoLeft:
				left++
			case GoRight:
				right++
			case Unseen:
			default:
				return fmt.Errorf("categorical split has unknown branch %d", b)
			}
		}
		if left == 0 || right == 0 {
			return fmt.Errorf("categorical split sends %d levels left and %d right", left, right)
		}
	case LinearSplit:
		if len(n.Terms) == 0 {
			return fmt.Errorf("linear split has no terms")
		}
		for _, term := range n.Terms {
			if term.Feature < 0 || term.Feature >= len(schema) || schema[term.Feature].Kind() != feature.Numeric {
				return fmt.Errorf("linear split on invalid feature %d", term.Feature)
			}
			if !finite(term.Coef) || !finite(term.Center) {
				return fmt.Errorf("linear split with non-finite term %+v", term)
			}
		}
		if !finite(n.Threshold) {
			return fmt.Errorf("linear split with threshold %v", n.Threshold)
		}
	default:
		return fmt.Errorf("unknown node kind %d", n.Kind)
	}
	return nil
}

func validateStats(stats []FeatureStats, schema feature.Schema) error {
	if len(stats) != len(schema) {
		return fmt.Errorf("terminal has %d feature statistics for %d features", len(stats), len(schema))
	}
	for j, s := range stats {
		if s.Observed < 0 {
			return fmt.Errorf("feature %d statistics observed %d values", j, s.Observed)
		}
		if schema[j].Kind() == feature.Categorical {
			if len(s.Counts) != len(feature.Levels(schema[j])) {
				return fmt.Errorf("feature %d statistics have %d level counts", j, len(s.Counts))
			}
		} else if s.Counts != nil {
			return fmt.Errorf("numeric feature %d statistics have level counts", j)
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
