/*
Package csv reads datasets from CSV streams and writes them back.

The header or first row of the CSV content holds column names. Every feature
of the schema must name one of the columns; columns not in the schema are
ignored. Values of numeric features are parsed as floats and those of
categorical ones must be one of their levels. The '?' string and empty cells
mark missing values.
*/
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
)

// Missing is the value written for missing values
const Missing = "?"

/*
Writer writes datasets as CSV rows, optionally followed by extra numeric
columns such as scores.
*/
type Writer interface {
	// Write writes every row of the dataset followed by the
	// values of the extra columns for that row, and returns
	// the number of rows written and an error if not all
	// could be written
	Write(d *dataset.Dataset, extra ...[]float64) (int, error)
	// Count returns the total number of rows written
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

type csvWriter struct {
	count  int
	schema feature.Schema
	extra  int
	w      *csv.Writer
}

/*
ReadDataset takes an io.Reader for a CSV stream and a schema and returns the
dataset parsed from it or an error, an InvalidInput one when the content does
not match the schema.
*/
func ReadDataset(reader io.Reader, schema feature.Schema) (*dataset.Dataset, error) {
	r := csv.NewReader(reader)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	positions, err := parseHeader(header, schema)
	if err != nil {
		return nil, err
	}
	p := newParser(schema)
	for l := 2; ; l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		if err = p.parse(row, positions); err != nil {
			return nil, failure.Wrap(failure.InvalidInput, err, "parsing line %d", l)
		}
	}
	return p.dataset()
}

/*
ReadDatasetFromFilePath takes a filepath string and a schema, opens the file
to which the filepath points to and uses ReadDataset to return the dataset
in it or an error. When filepath is "" os.Stdin is read instead.
*/
func ReadDatasetFromFilePath(filepath string, schema feature.Schema) (*dataset.Dataset, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %w", err)
		}
		defer f.Close()
	}
	d, err := ReadDataset(f, schema)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %w", filepath, err)
	}
	return d, err
}

/*
NewWriter takes an io.Writer, a schema and the names of any extra columns
and returns a Writer that will write datasets on the io.Writer after a header
with the feature names and the extra column names.
*/
func NewWriter(writer io.Writer, schema feature.Schema, extra ...string) (Writer, error) {
	w := csv.NewWriter(writer)
	record := append(schema.Names(), extra...)
	err := w.Write(record)
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	return &csvWriter{schema: schema, extra: len(extra), w: w}, nil
}

/*
WriteDataset takes a writer and a dataset and dumps the dataset to the
writer in CSV format.
*/
func WriteDataset(writer io.Writer, d *dataset.Dataset) error {
	cw, err := NewWriter(writer, d.Schema())
	if err != nil {
		return err
	}
	if _, err = cw.Write(d); err != nil {
		return err
	}
	return cw.Flush()
}

func parseHeader(header []string, schema feature.Schema) ([]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := columns[name]; ok {
			return nil, failure.Errorf(failure.InvalidInput, "parsing header: repeated column %s", name)
		}
		columns[name] = i
	}
	positions := make([]int, len(schema))
	for j, f := range schema {
		i, ok := columns[f.Name()]
		if !ok {
			return nil, failure.Errorf(failure.InvalidInput, "parsing header: no column for feature %s", f.Name())
		}
		positions[j] = i
	}
	return positions, nil
}

type parser struct {
	schema      feature.Schema
	numeric     [][]float64
	categorical [][]int
}

func newParser(schema feature.Schema) *parser {
	return &parser{
		schema:      schema,
		numeric:     make([][]float64, len(schema)),
		categorical: make([][]int, len(schema)),
	}
}

func (p *parser) parse(row []string, positions []int) error {
	for j, f := range p.schema {
		v := row[positions[j]]
		missing := v == Missing || v == ""
		switch f := f.(type) {
		case *feature.NumericFeature:
			x := math.NaN()
			if !missing {
				var err error
				x, err = strconv.ParseFloat(v, 64)
				if err != nil {
					return fmt.Errorf("converting %s to float64 for feature %s: %w", v, f.Name(), err)
				}
			}
			p.numeric[j] = append(p.numeric[j], x)
		case *feature.CategoricalFeature:
			c := feature.MissingCategory
			if !missing {
				var ok bool
				if c, ok = f.Index(v); !ok {
					return fmt.Errorf("invalid value %s for feature %s", v, f.Name())
				}
			}
			p.categorical[j] = append(p.categorical[j], c)
		}
	}
	return nil
}

func (p *parser) dataset() (*dataset.Dataset, error) {
	columns := make([]interface{}, len(p.schema))
	for j, f := range p.schema {
		if f.Kind() == feature.Numeric {
			columns[j] = p.numeric[j]
		} else {
			columns[j] = p.categorical[j]
		}
	}
	return dataset.New(p.schema, columns...)
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Write(d *dataset.Dataset, extra ...[]float64) (int, error) {
	if !d.Schema().Equal(cw.schema) {
		return 0, failure.Errorf(failure.InvalidInput, "writing CSV rows: dataset has schema [%s], expected [%s]", d.Schema().Describe(), cw.schema.Describe())
	}
	if len(extra) != cw.extra {
		return 0, failure.Errorf(failure.InvalidInput, "writing CSV rows: %d extra columns given, expected %d", len(extra), cw.extra)
	}
	for k, column := range extra {
		if len(column) != d.Len() {
			return 0, failure.Errorf(failure.InvalidInput, "writing CSV rows: extra column %d has %d values for %d rows", k, len(column), d.Len())
		}
	}
	record := make([]string, len(cw.schema)+len(extra))
	for i := 0; i < d.Len(); i++ {
		for j := range cw.schema {
			record[j] = format(d.Value(i, j))
		}
		for k, column := range extra {
			record[len(cw.schema)+k] = strconv.FormatFloat(column[i], 'g', -1, 64)
		}
		if err := cw.w.Write(record); err != nil {
			return i, fmt.Errorf("writing CSV row for sample %d: %w", cw.count+1, err)
		}
		cw.count++
	}
	return d.Len(), nil
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

func format(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return Missing
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	}
	return fmt.Sprintf("%v", v)
}
