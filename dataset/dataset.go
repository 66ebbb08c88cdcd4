/*
Package dataset provides the in-memory, column oriented representation of the
tabular data forests are grown from and applied to.
*/
package dataset

import (
	"fmt"
	"math"

	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
)

/*
Dataset is a table of N rows by D typed columns, one column per feature of
its schema. Numeric columns hold float64 values with NaN marking missing
values; categorical columns hold level indexes with feature.MissingCategory
marking missing values.
*/
type Dataset struct {
	schema      feature.Schema
	n           int
	numeric     [][]float64
	categorical [][]int
}

/*
New takes a schema and one column per feature and returns a Dataset holding
a copy of the columns or an InvalidInput error. Numeric features expect a
[]float64 column. Categorical features expect either a []int column of level
indexes or a []string column of level names where "" marks a missing value.
All columns must have the same, non-zero, length.
*/
func New(schema feature.Schema, columns ...interface{}) (*Dataset, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if len(columns) != len(schema) {
		return nil, failure.Errorf(failure.InvalidInput, "got %d columns for %d features", len(columns), len(schema))
	}
	d := &Dataset{
		schema:      schema,
		n:           -1,
		numeric:     make([][]float64, len(schema)),
		categorical: make([][]int, len(schema)),
	}
	for j, f := range schema {
		var l int
		var err error
		switch f.Kind() {
		case feature.Numeric:
			l, err = d.setNumericColumn(j, columns[j])
		case feature.Categorical:
			l, err = d.setCategoricalColumn(j, columns[j])
		}
		if err != nil {
			return nil, err
		}
		if d.n >= 0 && l != d.n {
			return nil, failure.Errorf(failure.InvalidInput, "column %s has %d rows, expected %d", f.Name(), l, d.n)
		}
		d.n = l
	}
	if d.n == 0 {
		return nil, failure.Errorf(failure.InvalidInput, "dataset has no rows")
	}
	return d, nil
}

/*
FromRows takes a schema and a slice of rows, each holding one value per
feature, and returns a Dataset or an InvalidInput error. Values may be nil to
mark them as missing, float64 for numeric features, and level strings or level
indexes for categorical features.
*/
func FromRows(schema feature.Schema, rows [][]interface{}) (*Dataset, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, failure.Errorf(failure.InvalidInput, "dataset has no rows")
	}
	columns := make([]interface{}, len(schema))
	for j, f := range schema {
		if f.Kind() == feature.Numeric {
			columns[j] = make([]float64, len(rows))
		} else {
			columns[j] = make([]int, len(rows))
		}
	}
	for i, row := range rows {
		if len(row) != len(schema) {
			return nil, failure.Errorf(failure.InvalidInput, "row %d has %d values for %d features", i, len(row), len(schema))
		}
		for j, f := range schema {
			if ok, err := f.Valid(row[j]); !ok {
				return nil, failure.Wrap(failure.InvalidInput, err, "row %d", i)
			}
			if f.Kind() == feature.Numeric {
				v := math.NaN()
				if row[j] != nil {
					v = row[j].(float64)
				}
				columns[j].([]float64)[i] = v
				continue
			}
			c := feature.MissingCategory
			switch v := row[j].(type) {
			case string:
				c, _ = f.(*feature.CategoricalFeature).Index(v)
			case int:
				c = v
			}
			columns[j].([]int)[i] = c
		}
	}
	return New(schema, columns...)
}

func (d *Dataset) setNumericColumn(j int, column interface{}) (int, error) {
	f := d.schema[j]
	values, ok := column.([]float64)
	if !ok {
		return 0, failure.Errorf(failure.InvalidInput, "numeric feature %s expects a []float64 column, got %T", f.Name(), column)
	}
	for i, v := range values {
		if math.IsInf(v, 0) {
			return 0, failure.Errorf(failure.InvalidInput, "numeric feature %s has an infinite value at row %d", f.Name(), i)
		}
	}
	d.numeric[j] = append([]float64(nil), values...)
	return len(values), nil
}

func (d *Dataset) setCategoricalColumn(j int, column interface{}) (int, error) {
	f := d.schema[j].(*feature.CategoricalFeature)
	switch values := column.(type) {
	case []int:
		for i, c := range values {
			if c != feature.MissingCategory && (c < 0 || c >= len(f.Levels())) {
				return 0, failure.Errorf(failure.InvalidInput, "categorical feature %s has level index %d out of range at row %d", f.Name(), c, i)
			}
		}
		d.categorical[j] = append([]int(nil), values...)
		return len(values), nil
	case []string:
		indexes := make([]int, len(values))
		for i, v := range values {
			if v == "" {
				indexes[i] = feature.MissingCategory
				continue
			}
			c, ok := f.Index(v)
			if !ok {
				return 0, failure.Errorf(failure.InvalidInput, "categorical feature %s has unknown level %q at row %d", f.Name(), v, i)
			}
			indexes[i] = c
		}
		d.categorical[j] = indexes
		return len(values), nil
	}
	return 0, failure.Errorf(failure.InvalidInput, "categorical feature %s expects a []int or []string column, got %T", f.Name(), column)
}

// Schema returns the schema of the dataset
func (d *Dataset) Schema() feature.Schema {
	return d.schema
}

// Len returns the number of rows in the dataset
func (d *Dataset) Len() int {
	return d.n
}

// Width returns the number of features in the dataset
func (d *Dataset) Width() int {
	return len(d.schema)
}

/*
Numeric returns the column for numeric feature j, or nil if j is categorical.
The returned slice must not be modified.
*/
func (d *Dataset) Numeric(j int) []float64 {
	return d.numeric[j]
}

/*
Categorical returns the column for categorical feature j, or nil if j is
numeric. The returned slice must not be modified.
*/
func (d *Dataset) Categorical(j int) []int {
	return d.categorical[j]
}

// Row returns a view on row i
func (d *Dataset) Row(i int) Row {
	return Row{d, i}
}

// Missing returns whether the value of feature j on row i is missing
func (d *Dataset) Missing(i, j int) bool {
	if d.schema[j].Kind() == feature.Numeric {
		return math.IsNaN(d.numeric[j][i])
	}
	return d.categorical[j][i] == feature.MissingCategory
}

// RowHasMissing returns whether row i has any missing value
func (d *Dataset) RowHasMissing(i int) bool {
	for j := range d.schema {
		if d.Missing(i, j) {
			return true
		}
	}
	return false
}

// HasMissing returns whether any value in the dataset is missing
func (d *Dataset) HasMissing() bool {
	for i := 0; i < d.n; i++ {
		if d.RowHasMissing(i) {
			return true
		}
	}
	return false
}

/*
Value returns the value of feature j on row i as a float64 for numeric
features, as the level string for categorical features, or nil if missing.
*/
func (d *Dataset) Value(i, j int) interface{} {
	if d.Missing(i, j) {
		return nil
	}
	if d.schema[j].Kind() == feature.Numeric {
		return d.numeric[j][i]
	}
	return feature.Levels(d.schema[j])[d.categorical[j][i]]
}

/*
SetNumeric sets the value of numeric feature j on row i. It panics if j is not
a numeric feature.
*/
func (d *Dataset) SetNumeric(i, j int, v float64) {
	d.numeric[j][i] = v
}

/*
SetCategory sets the level index of categorical feature j on row i. It panics
if j is not a categorical feature.
*/
func (d *Dataset) SetCategory(i, j int, c int) {
	d.categorical[j][i] = c
}

// Clone returns a deep copy of the dataset
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		schema:      d.schema,
		n:           d.n,
		numeric:     make([][]float64, len(d.schema)),
		categorical: make([][]int, len(d.schema)),
	}
	for j := range d.schema {
		if d.numeric[j] != nil {
			c.numeric[j] = append([]float64(nil), d.numeric[j]...)
		}
		if d.categorical[j] != nil {
			c.categorical[j] = append([]int(nil), d.categorical[j]...)
		}
	}
	return c
}

/*
Select returns a new dataset with the given rows, in the given order, or an
InvalidInput error if no rows are given or any is out of range.
*/
func (d *Dataset) Select(rows []int) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, failure.Errorf(failure.InvalidInput, "dataset has no rows")
	}
	c := &Dataset{
		schema:      d.schema,
		n:           len(rows),
		numeric:     make([][]float64, len(d.schema)),
		categorical: make([][]int, len(d.schema)),
	}
	for _, i := range rows {
		if i < 0 || i >= d.n {
			return nil, failure.Errorf(failure.InvalidInput, "row %d out of range [0,%d)", i, d.n)
		}
	}
	for j := range d.schema {
		if d.numeric[j] != nil {
			c.numeric[j] = make([]float64, len(rows))
			for k, i := range rows {
				c.numeric[j][k] = d.numeric[j][i]
			}
		}
		if d.categorical[j] != nil {
			c.categorical[j] = make([]int, len(rows))
			for k, i := range rows {
				c.categorical[j][k] = d.categorical[j][i]
			}
		}
	}
	return c, nil
}

func (d *Dataset) String() string {
	return fmt.Sprintf("dataset{%d rows: %s}", d.n, d.schema.Describe())
}
