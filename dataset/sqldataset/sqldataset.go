/*
Package sqldataset loads datasets from SQL databases and stores them back.

Samples live in a samples table with one column per feature: numeric features
as nullable floating point columns and categorical ones as nullable text
columns holding level names, NULL marking missing values. The table has an
additional "id" column that keeps rows in insertion order, so "id" cannot be
used as a feature name. Tables in this layout can be scored directly with the
queries package sqlexport generates.
*/
package sqldataset

import (
	"context"
	"fmt"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
)

/*
Adapter is an interface providing the methods
needed to keep datasets in a database backend.
*/
type Adapter interface {
	// ColumnName returns the column name for a feature
	// or an error if the feature name is not acceptable
	ColumnName(string) (string, error)

	// CreateSampleTable ensures the samples table exists
	// with the given columns
	CreateSampleTable(ctx context.Context, numericColumns, categoricalColumns []string) error
	// AddSamples inserts rows holding one value per column,
	// nil for missing values, and returns the number of rows
	// inserted
	AddSamples(ctx context.Context, columns []string, rows [][]interface{}) (int, error)
	// IterateOnSamples calls lambda with the index and the
	// values of the given columns of every row in insertion
	// order, until lambda returns false or an error
	IterateOnSamples(ctx context.Context, columns []string, lambda func(int, []interface{}) (bool, error)) error

	// Close releases the database connection
	Close() error
}

/*
Load reads all samples from the adapter's samples table and returns a
dataset with the given schema or an error. Values not valid for their
feature produce an InvalidInput error.
*/
func Load(ctx context.Context, a Adapter, schema feature.Schema) (*dataset.Dataset, error) {
	columns, err := columnNames(a, schema)
	if err != nil {
		return nil, err
	}
	var rows [][]interface{}
	err = a.IterateOnSamples(ctx, columns, func(i int, values []interface{}) (bool, error) {
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j], err = normalize(schema[j], v)
			if err != nil {
				return false, failure.Wrap(failure.InvalidInput, err, "reading sample %d", i)
			}
		}
		rows = append(rows, row)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading samples: %w", err)
	}
	return dataset.FromRows(schema, rows)
}

/*
Store creates the adapter's samples table for the dataset's schema if it
does not exist and inserts every row of the dataset in it. It returns the
number of rows inserted and an error if not all could be.
*/
func Store(ctx context.Context, a Adapter, d *dataset.Dataset) (int, error) {
	schema := d.Schema()
	columns, err := columnNames(a, schema)
	if err != nil {
		return 0, err
	}
	var numeric, categorical []string
	for j, f := range schema {
		if f.Kind() == feature.Numeric {
			numeric = append(numeric, columns[j])
		} else {
			categorical = append(categorical, columns[j])
		}
	}
	if err = a.CreateSampleTable(ctx, numeric, categorical); err != nil {
		return 0, fmt.Errorf("creating samples table: %w", err)
	}
	rows := make([][]interface{}, d.Len())
	for i := range rows {
		rows[i] = make([]interface{}, len(schema))
		for j := range schema {
			rows[i][j] = d.Value(i, j)
		}
	}
	n, err := a.AddSamples(ctx, columns, rows)
	if err != nil {
		return n, fmt.Errorf("storing samples: %w", err)
	}
	return n, nil
}

func columnNames(a Adapter, schema feature.Schema) ([]string, error) {
	columns := make([]string, len(schema))
	for j, f := range schema {
		c, err := a.ColumnName(f.Name())
		if err != nil {
			return nil, failure.Wrap(failure.InvalidInput, err, "mapping feature %s to a column", f.Name())
		}
		columns[j] = c
	}
	return columns, nil
}

// normalize converts a value scanned from a database into the Go type the
// feature expects
func normalize(f feature.Feature, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if f.Kind() == feature.Categorical {
		switch v := v.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
		return nil, fmt.Errorf("value %v of type %T for categorical feature %s", v, v, f.Name())
	}
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("value %v of type %T for numeric feature %s", v, v, f.Name())
}
