package csv

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schema = feature.Schema{
	feature.NewNumericFeature("temperature"),
	feature.NewCategoricalFeature("weather", []string{"sunny", "rainy", "cloudy"}),
}

func TestReadDataset(t *testing.T) {
	input := "id,weather,temperature\n" +
		"1,sunny,21.5\n" +
		"2,?,18\n" +
		"3,cloudy,\n" +
		"4,rainy,-3e2\n"
	d, err := ReadDataset(strings.NewReader(input), schema)
	require.NoError(t, err)
	require.Equal(t, 4, d.Len())

	temperature := d.Numeric(0)
	assert.Equal(t, 21.5, temperature[0])
	assert.Equal(t, 18.0, temperature[1])
	assert.True(t, math.IsNaN(temperature[2]))
	assert.Equal(t, -300.0, temperature[3])
	assert.Equal(t, []int{0, feature.MissingCategory, 2, 1}, d.Categorical(1))
}

func TestReadDatasetRejectsInvalidContent(t *testing.T) {
	cases := map[string]string{
		"missing column":  "temperature\n1\n",
		"repeated column": "temperature,weather,weather\n1,sunny,sunny\n",
		"bad number":      "temperature,weather\nwarm,sunny\n",
		"unknown level":   "temperature,weather\n1,snowy\n",
		"no rows":         "temperature,weather\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadDataset(strings.NewReader(input), schema)
			require.Error(t, err)
			assert.True(t, errors.Is(err, failure.InvalidInput), "got %v", err)
		})
	}
	_, err := ReadDataset(strings.NewReader(""), schema)
	assert.Error(t, err)
}

func TestWriteAndReadBack(t *testing.T) {
	d, err := dataset.New(schema, []float64{0.1, math.NaN(), 1e21}, []string{"rainy", "", "sunny"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteDataset(buf, d))
	assert.Equal(t, "temperature,weather\n0.1,rainy\n?,?\n1e+21,sunny\n", buf.String())

	read, err := ReadDataset(buf, schema)
	require.NoError(t, err)
	assert.Equal(t, d.Categorical(1), read.Categorical(1))
	assert.Equal(t, d.Numeric(0)[0], read.Numeric(0)[0])
	assert.True(t, math.IsNaN(read.Numeric(0)[1]))
	assert.Equal(t, d.Numeric(0)[2], read.Numeric(0)[2])
}

func TestWriterExtraColumns(t *testing.T) {
	d, err := dataset.New(schema, []float64{1, 2}, []string{"sunny", "cloudy"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, schema, "score")
	require.NoError(t, err)

	_, err = w.Write(d)
	assert.True(t, errors.Is(err, failure.InvalidInput))
	_, err = w.Write(d, []float64{0.5})
	assert.True(t, errors.Is(err, failure.InvalidInput))

	n, err := w.Write(d, []float64{0.5, 0.75})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Flush())
	assert.Equal(t, "temperature,weather,score\n1,sunny,0.5\n2,cloudy,0.75\n", buf.String())
}
