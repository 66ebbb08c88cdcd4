package tree

import (
	"fmt"
	"math"
)

// Kind tags the variant a Node holds
type Kind uint8

const (
	// Terminal nodes have no children and hold training statistics
	Terminal Kind = iota
	// NumericSplit nodes send samples with value <= Threshold left
	NumericSplit
	// CategoricalSplit nodes route samples by their level through Branches
	CategoricalSplit
	// LinearSplit nodes send samples whose projection on Terms is <= Threshold left
	LinearSplit
)

func (k Kind) String() string {
	switch k {
	case Terminal:
		return "terminal"
	case NumericSplit:
		return "numeric"
	case CategoricalSplit:
		return "categorical"
	case LinearSplit:
		return "linear"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Branch tells where a categorical split sends one level
type Branch uint8

const (
	// Unseen levels were not observed at the node while training
	Unseen Branch = iota
	// GoLeft levels are sent to the left child
	GoLeft
	// GoRight levels are sent to the right child
	GoRight
)

/*
Term is one component of a linear split: the projection of a sample adds
Coef * (x - Center) for the value x of Feature, or nothing when x is missing.
*/
type Term struct {
	Feature int
	Coef    float64
	Center  float64
}

/*
FeatureStats aggregates the training values of one feature for the rows that
reached a terminal node. Observed counts the rows with a value. Mean is only
meaningful for numeric features and Counts, holding one count per level, only
for categorical ones.
*/
type FeatureStats struct {
	Observed int
	Mean     float64
	Counts   []int
}

/*
Node is one entry of a tree's node array. Which fields are meaningful depends
on Kind:
  - all nodes: Depth (edges from the root) and Count (training rows reaching it)
  - NumericSplit: Feature and Threshold
  - CategoricalSplit: Feature and Branches, one per level of the feature
  - LinearSplit: Terms and Threshold
  - non-terminal nodes: Left, Right and MissingLeft, the share of training rows
    with a value that went left, used to route samples missing the value
  - Terminal: Correction, the expected path length still needed to isolate
    Count rows, and Stats, one per feature of the schema
*/
type Node struct {
	Kind        Kind
	Depth       int
	Count       int
	Feature     int
	Threshold   float64
	Branches    []Branch
	Terms       []Term
	Left        int
	Right       int
	MissingLeft float64
	Correction  float64
	Stats       []FeatureStats
}

// Direction is the outcome of evaluating a split on a sample
type Direction uint8

const (
	// Left means the sample goes to the left child
	Left Direction = iota
	// Right means the sample goes to the right child
	Right
	// Undecided means the sample lacks the value the split needs
	Undecided
)

/*
Project returns the linear combination of a sample's values for the terms of
a linear split. Missing values contribute nothing.
*/
func Project(terms []Term, s Sample) float64 {
	var p float64
	for _, t := range terms {
		x := s.Numeric(t.Feature)
		if math.IsNaN(x) {
			continue
		}
		// the explicit conversion keeps the product from being fused
		// into the addition, so projections are bit-identical everywhere
		p += float64(t.Coef * (x - t.Center))
	}
	return p
}

func (n *Node) String() string {
	switch n.Kind {
	case Terminal:
		return fmt.Sprintf("terminal{count: %d, correction: %.4g}", n.Count, n.Correction)
	case NumericSplit:
		return fmt.Sprintf("f%d <= %.6g", n.Feature, n.Threshold)
	case CategoricalSplit:
		return fmt.Sprintf("f%d in %v", n.Feature, n.levelsGoing(GoLeft))
	case LinearSplit:
		return fmt.Sprintf("%v <= %.6g", n.Terms, n.Threshold)
	}
	return n.Kind.String()
}

func (n *Node) levelsGoing(b Branch) []int {
	var levels []int
	for l, lb := range n.Branches {
		if lb == b {
			levels = append(levels, l)
		}
	}
	return levels
}

/*
LevelsGoing returns the level indexes a categorical split sends to the given
branch.
*/
func (n *Node) LevelsGoing(b Branch) []int {
	return n.levelsGoing(b)
}

func (n *Node) clone() Node {
	c := *n
	if n.Branches != nil {
		c.Branches = append([]Branch(nil), n.Branches...)
	}
	if n.Terms != nil {
		c.Terms = append([]Term(nil), n.Terms...)
	}
	if n.Stats != nil {
		c.Stats = make([]FeatureStats, len(n.Stats))
		for i, s := range n.Stats {
			c.Stats[i] = s
			if s.Counts != nil {
				c.Stats[i].Counts = append([]int(nil), s.Counts...)
			}
		}
	}
	return c
}
