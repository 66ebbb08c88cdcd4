/*
Package tree holds the isolation trees a forest is made of, stored as flat
arrays of nodes addressed by index, and the traversals the forest builds its
scores, distances and imputations on.
*/
package tree

import (
	"fmt"
	"math"
	"strings"

	"github.com/pbanos/isoforest/feature"
)

/*
Sample gives traversals access to the values of a row. Numeric values are NaN
when missing; categorical values are level indexes, negative when missing.
*/
type Sample interface {
	Numeric(j int) float64
	Category(j int) int
}

/*
Tree is an isolation tree. Its nodes are stored in preorder, the root at index
0, and children always sit at larger indexes than their parent. SampleSize is
the number of training rows the tree was grown from.
*/
type Tree struct {
	Nodes      []Node
	SampleSize int
}

// Clone returns a deep copy of the tree
func (t *Tree) Clone() Tree {
	c := Tree{Nodes: make([]Node, len(t.Nodes)), SampleSize: t.SampleSize}
	for i := range t.Nodes {
		c.Nodes[i] = t.Nodes[i].clone()
	}
	return c
}

// Depth returns the largest depth among the tree's nodes
func (t *Tree) Depth() int {
	var d int
	for i := range t.Nodes {
		if t.Nodes[i].Depth > d {
			d = t.Nodes[i].Depth
		}
	}
	return d
}

// Terminals returns the number of terminal nodes in the tree
func (t *Tree) Terminals() int {
	var c int
	for i := range t.Nodes {
		if t.Nodes[i].Kind == Terminal {
			c++
		}
	}
	return c
}

/*
Route evaluates the split of node i on a sample and returns where it sends
it. Unseen levels are resolved with the given action, which may leave them
Undecided just like missing values.
*/
func (t *Tree) Route(i int, s Sample, unseen UnseenAction) Direction {
	n := &t.Nodes[i]
	switch n.Kind {
	case NumericSplit:
		x := s.Numeric(n.Feature)
		if math.IsNaN(x) {
			return Undecided
		}
		if x <= n.Threshold {
			return Left
		}
		return Right
	case CategoricalSplit:
		c := s.Category(n.Feature)
		if c < 0 || c >= len(n.Branches) {
			return Undecided
		}
		switch n.Branches[c] {
		case GoLeft:
			return Left
		case GoRight:
			return Right
		}
		if unseen == UnseenToSmallest {
			return t.Smallest(i)
		}
		return Undecided
	case LinearSplit:
		if Project(n.Terms, s) <= n.Threshold {
			return Left
		}
		return Right
	}
	return Undecided
}

/*
Smallest returns the child of node i that received fewer training rows, Left
on ties.
*/
func (t *Tree) Smallest(i int) Direction {
	n := &t.Nodes[i]
	if t.Nodes[n.Right].Count < t.Nodes[n.Left].Count {
		return Right
	}
	return Left
}

/*
Majority returns the child of node i that received most training rows with a
value for its split feature, Left on ties.
*/
func (t *Tree) Majority(i int) Direction {
	if t.Nodes[i].MissingLeft >= 0.5 {
		return Left
	}
	return Right
}

func (t *Tree) leftProbability(i int, s Sample, r Rules) float64 {
	switch t.Route(i, s, r.Unseen) {
	case Left:
		return 1
	case Right:
		return 0
	}
	if r.Missing == Majority {
		if t.Majority(i) == Left {
			return 1
		}
		return 0
	}
	return t.Nodes[i].MissingLeft
}

/*
PathEstimate returns the number of edges from the root to the terminal node
the sample reaches plus that node's correction. Samples lacking a value a
split needs are routed according to the given rules: with Majority they follow
one child, otherwise the estimates of both children are averaged weighting
them by the node's MissingLeft ratio.
*/
func (t *Tree) PathEstimate(s Sample, r Rules) float64 {
	return t.pathEstimate(0, s, r)
}

func (t *Tree) pathEstimate(i int, s Sample, r Rules) float64 {
	for {
		n := &t.Nodes[i]
		if n.Kind == Terminal {
			return float64(n.Depth) + n.Correction
		}
		switch p := t.leftProbability(i, s, r); p {
		case 1:
			i = n.Left
		case 0:
			i = n.Right
		default:
			return p*t.pathEstimate(n.Left, s, r) + (1-p)*t.pathEstimate(n.Right, s, r)
		}
	}
}

/*
Separation returns the expected depth at which the tree's splits separate two
samples. When both samples reach the same terminal node the expected number of
splits needed to separate two of its training rows is added. Routing follows
the same rules as PathEstimate, and the result does not depend on the order of
the samples.
*/
func (t *Tree) Separation(a, b Sample, r Rules) float64 {
	return t.separation(0, a, b, r)
}

func (t *Tree) separation(i int, a, b Sample, r Rules) float64 {
	n := &t.Nodes[i]
	if n.Kind == Terminal {
		count := n.Count
		if count < 2 {
			count = 2
		}
		return float64(n.Depth) + ExpectedSeparation(count)
	}
	pa, pb := t.leftProbability(i, a, r), t.leftProbability(i, b, r)
	ll := pa * pb
	rr := (1 - pa) * (1 - pb)
	d := (1 - ll - rr) * float64(n.Depth+1)
	if ll > 0 {
		d += ll * t.separation(n.Left, a, b, r)
	}
	if rr > 0 {
		d += rr * t.separation(n.Right, a, b, r)
	}
	return d
}

/*
VisitTerminals calls visit with every terminal node the sample may reach and
the probability of reaching it. Samples lacking a value a split needs go down
both children with the probabilities given by the node's MissingLeft ratio.
*/
func (t *Tree) VisitTerminals(s Sample, unseen UnseenAction, visit func(n *Node, p float64)) {
	t.visitTerminals(0, s, unseen, 1, visit)
}

func (t *Tree) visitTerminals(i int, s Sample, unseen UnseenAction, p float64, visit func(*Node, float64)) {
	for {
		n := &t.Nodes[i]
		if n.Kind == Terminal {
			visit(n, p)
			return
		}
		switch t.Route(i, s, unseen) {
		case Left:
			i = n.Left
		case Right:
			i = n.Right
		default:
			if n.MissingLeft > 0 {
				t.visitTerminals(n.Left, s, unseen, p*n.MissingLeft, visit)
			}
			if n.MissingLeft < 1 {
				t.visitTerminals(n.Right, s, unseen, p*(1-n.MissingLeft), visit)
			}
			return
		}
	}
}

/*
Format returns a multiline drawing of the tree using the names of the given
schema for features and levels.
*/
func (t *Tree) Format(schema feature.Schema) string {
	if len(t.Nodes) == 0 {
		return "[empty]\n"
	}
	return t.subtreeString(0, schema)
}

func (t *Tree) subtreeString(i int, schema feature.Schema) string {
	n := &t.Nodes[i]
	result := fmt.Sprintf("[%d] { %s } (%d)\n", i, describe(n, schema), n.Count)
	if n.Kind == Terminal {
		return result
	}
	result = fmt.Sprintf("%s|\n", result)
	children := []int{n.Left, n.Right}
	for c, child := range children {
		for j, line := range strings.Split(t.subtreeString(child, schema), "\n") {
			if len(line) == 0 {
				continue
			}
			switch {
			case j == 0:
				result = fmt.Sprintf("%s|__%s\n", result, line)
			case c == len(children)-1:
				result = fmt.Sprintf("%s   %s\n", result, line)
			default:
				result = fmt.Sprintf("%s|  %s\n", result, line)
			}
		}
	}
	return result
}

func describe(n *Node, schema feature.Schema) string {
	name := func(j int) string {
		if j >= 0 && j < len(schema) {
			return schema[j].Name()
		}
		return fmt.Sprintf("f%d", j)
	}
	switch n.Kind {
	case NumericSplit:
		return fmt.Sprintf("%s <= %.6g", name(n.Feature), n.Threshold)
	case CategoricalSplit:
		var levels []string
		var names []string
		if n.Feature >= 0 && n.Feature < len(schema) {
			names = feature.Levels(schema[n.Feature])
		}
		for _, l := range n.LevelsGoing(GoLeft) {
			if l < len(names) {
				levels = append(levels, names[l])
			} else {
				levels = append(levels, fmt.Sprintf("%d", l))
			}
		}
		return fmt.Sprintf("%s in {%s}", name(n.Feature), strings.Join(levels, ", "))
	case LinearSplit:
		terms := make([]string, len(n.Terms))
		for k, term := range n.Terms {
			terms[k] = fmt.Sprintf("%.4g*(%s-%.4g)", term.Coef, name(term.Feature), term.Center)
		}
		return fmt.Sprintf("%s <= %.6g", strings.Join(terms, " + "), n.Threshold)
	}
	return n.String()
}
