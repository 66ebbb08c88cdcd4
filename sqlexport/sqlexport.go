/*
Package sqlexport translates forests into SQL expressions, so anomaly scores
can be computed by a database over the table holding the samples.

Each tree becomes a nested CASE expression evaluating to the path estimate of
a row. SQL has no way to average both branches of a split, so rows missing a
value a split needs follow its majority branch, the child that received most
training rows with a value. Unseen levels follow the same branch unless the
forest sends them to the smallest child. Scores computed in SQL are therefore
those the forest gives with the majority missing action.
*/
package sqlexport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
)

/*
Trees returns one SQL expression per tree of the forest evaluating to the
path estimate of a row. Columns holds the column name for each feature of the
forest's schema; when nil the feature names are used. Numeric columns must
hold numbers and categorical ones the level names, NULL when missing.
*/
func Trees(f *isoforest.Forest, columns []string) ([]string, error) {
	if f == nil {
		return nil, failure.Errorf(failure.InvalidInput, "exporting forest: no forest given")
	}
	if err := f.Validate(); err != nil {
		return nil, failure.Wrap(failure.InvalidInput, err, "exporting forest")
	}
	if columns == nil {
		columns = f.Schema.Names()
	}
	if len(columns) != len(f.Schema) {
		return nil, failure.Errorf(failure.InvalidInput, "exporting forest: %d columns given for %d features", len(columns), len(f.Schema))
	}
	e := &exporter{schema: f.Schema, unseen: f.Config.Rules().Unseen, columns: make([]string, len(columns))}
	for j, c := range columns {
		if c == "" {
			return nil, failure.Errorf(failure.InvalidInput, "exporting forest: empty column name for feature %s", f.Schema[j].Name())
		}
		e.columns[j] = Identifier(c)
	}
	expressions := make([]string, len(f.Trees))
	for i := range f.Trees {
		b := &strings.Builder{}
		e.node(b, &f.Trees[i], 0)
		expressions[i] = b.String()
	}
	return expressions, nil
}

/*
Select returns a query listing every row of table with an additional score
column holding its anomaly score. The query relies on a POWER function,
available in PostgreSQL and in SQLite builds with math functions.
*/
func Select(f *isoforest.Forest, table string, columns []string) (string, error) {
	if table == "" {
		return "", failure.Errorf(failure.InvalidInput, "exporting forest: no table given")
	}
	expressions, err := Trees(f, columns)
	if err != nil {
		return "", err
	}
	var c float64
	for i := range f.Trees {
		c += tree.ExpectedPathLength(f.Trees[i].SampleSize)
	}
	c /= float64(len(f.Trees))
	if c <= 0 {
		return "", failure.Errorf(failure.InvalidInput, "exporting forest: trees grown from single rows cannot score")
	}
	return fmt.Sprintf("SELECT *, POWER(2.0, -((%s) / %s) / %s) AS score FROM %s",
		strings.Join(expressions, " + "), Number(float64(len(f.Trees))), Number(c), Identifier(table)), nil
}

// Identifier quotes a name for use as an SQL identifier
func Identifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Literal quotes a string for use as an SQL string literal
func Literal(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

// Number formats a float so it reads back as the same value
func Number(x float64) string {
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	if x < 0 {
		return "(" + s + ")"
	}
	return s
}

type exporter struct {
	schema  feature.Schema
	unseen  tree.UnseenAction
	columns []string
}

func (e *exporter) node(b *strings.Builder, t *tree.Tree, i int) {
	n := &t.Nodes[i]
	if n.Kind == tree.Terminal {
		b.WriteString(Number(float64(n.Depth) + n.Correction))
		return
	}
	b.WriteString("CASE WHEN ")
	e.condition(b, t, i)
	b.WriteString(" THEN ")
	e.node(b, t, n.Left)
	b.WriteString(" ELSE ")
	e.node(b, t, n.Right)
	b.WriteString(" END")
}

// condition writes a predicate holding for the rows node i sends left
func (e *exporter) condition(b *strings.Builder, t *tree.Tree, i int) {
	n := &t.Nodes[i]
	majorityLeft := t.Majority(i) == tree.Left
	switch n.Kind {
	case tree.NumericSplit:
		column := e.columns[n.Feature]
		if majorityLeft {
			fmt.Fprintf(b, "(%s IS NULL OR %s <= %s)", column, column, Number(n.Threshold))
			return
		}
		fmt.Fprintf(b, "%s <= %s", column, Number(n.Threshold))
	case tree.CategoricalSplit:
		column := e.columns[n.Feature]
		levels := feature.Levels(e.schema[n.Feature])
		var left, seen []string
		for l, br := range n.Branches {
			switch br {
			case tree.GoLeft:
				left = append(left, Literal(levels[l]))
				seen = append(seen, Literal(levels[l]))
			case tree.GoRight:
				seen = append(seen, Literal(levels[l]))
			}
		}
		unseenLeft := majorityLeft
		if e.unseen == tree.UnseenToSmallest {
			unseenLeft = t.Smallest(i) == tree.Left
		}
		clauses := []string{fmt.Sprintf("%s IN (%s)", column, strings.Join(left, ", "))}
		if majorityLeft {
			clauses = append(clauses, fmt.Sprintf("%s IS NULL", column))
		}
		if unseenLeft {
			clauses = append(clauses, fmt.Sprintf("%s NOT IN (%s)", column, strings.Join(seen, ", ")))
		}
		if len(clauses) == 1 {
			b.WriteString(clauses[0])
			return
		}
		fmt.Fprintf(b, "(%s)", strings.Join(clauses, " OR "))
	case tree.LinearSplit:
		b.WriteString("(")
		for k, term := range n.Terms {
			if k > 0 {
				b.WriteString(" + ")
			}
			center := Number(term.Center)
			fmt.Fprintf(b, "%s * (COALESCE(%s, %s) - %s)", Number(term.Coef), e.columns[term.Feature], center, center)
		}
		fmt.Fprintf(b, ") <= %s", Number(n.Threshold))
	}
}
