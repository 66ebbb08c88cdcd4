package isoforest

import (
	"math"
	"testing"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/feature"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func numericSchema(width int) feature.Schema {
	s := make(feature.Schema, width)
	for j := range s {
		s[j] = feature.NewNumericFeature(string(rune('a' + j)))
	}
	return s
}

// gaussian returns rows x width values drawn from N(mean, sd)
func gaussian(t *testing.T, seed uint64, rows, width int, mean, sd float64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	columns := make([]interface{}, width)
	for j := range columns {
		column := make([]float64, rows)
		for i := range column {
			column[i] = mean + sd*rng.NormFloat64()
		}
		columns[j] = column
	}
	d, err := dataset.New(numericSchema(width), columns...)
	require.NoError(t, err)
	return d
}

func uniform(t *testing.T, seed uint64, rows, width int) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	columns := make([]interface{}, width)
	for j := range columns {
		column := make([]float64, rows)
		for i := range column {
			column[i] = rng.Float64()
		}
		columns[j] = column
	}
	d, err := dataset.New(numericSchema(width), columns...)
	require.NoError(t, err)
	return d
}

var mixedSchema = feature.Schema{
	feature.NewNumericFeature("x"),
	feature.NewNumericFeature("y"),
	feature.NewCategoricalFeature("group", []string{"a", "b", "c", "d"}),
}

/*
mixed returns two clusters of rows: group "a" around (0,0) and group "b"
around (10,10), with the given share of values removed at random. Levels "c"
and "d" appear in a few rows each.
*/
func mixed(t *testing.T, seed uint64, rows int, missing float64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	x, y, g := make([]float64, rows), make([]float64, rows), make([]int, rows)
	for i := 0; i < rows; i++ {
		center := 0.0
		if i%2 == 1 {
			center = 10
			g[i] = 1
		}
		if i%50 == 0 {
			g[i] = 2 + rng.Intn(2)
		}
		x[i] = center + rng.NormFloat64()
		y[i] = center + rng.NormFloat64()
		if rng.Float64() < missing {
			x[i] = math.NaN()
		}
		if rng.Float64() < missing {
			y[i] = math.NaN()
		}
		if rng.Float64() < missing {
			g[i] = feature.MissingCategory
		}
	}
	d, err := dataset.New(mixedSchema, x, y, g)
	require.NoError(t, err)
	return d
}
