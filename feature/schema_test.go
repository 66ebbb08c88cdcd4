package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/pbanos/isoforest/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidate(t *testing.T) {
	good := Schema{NewNumericFeature("x"), NewCategoricalFeature("color", []string{"red", "blue"})}
	require.NoError(t, good.Validate())

	cases := map[string]Schema{
		"empty":          {},
		"repeated name":  {NewNumericFeature("x"), NewNumericFeature("x")},
		"no levels":      {NewCategoricalFeature("c", nil)},
		"repeated level": {NewCategoricalFeature("c", []string{"a", "a"})},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, failure.InvalidInput))
		})
	}
}

func TestSchemaEqual(t *testing.T) {
	a := Schema{NewNumericFeature("x"), NewCategoricalFeature("c", []string{"a", "b"})}
	b := Schema{NewNumericFeature("x"), NewCategoricalFeature("c", []string{"a", "b"})}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(b[:1]))
	assert.False(t, a.Equal(Schema{NewNumericFeature("x"), NewNumericFeature("c")}))
	assert.False(t, a.Equal(Schema{NewNumericFeature("x"), NewCategoricalFeature("c", []string{"b", "a"})}))
}

func TestFeatureValid(t *testing.T) {
	c := NewCategoricalFeature("c", []string{"a", "b"})
	for _, v := range []interface{}{nil, "a", 1, MissingCategory} {
		ok, err := c.Valid(v)
		assert.True(t, ok, "%v", v)
		assert.NoError(t, err)
	}
	for _, v := range []interface{}{"z", 2, 1.5} {
		ok, err := c.Valid(v)
		assert.False(t, ok, "%v", v)
		assert.Error(t, err)
	}
	n := NewNumericFeature("x")
	ok, _ := n.Valid(math.NaN())
	assert.True(t, ok)
	ok, _ = n.Valid(math.Inf(1))
	assert.False(t, ok)
	ok, _ = n.Valid("1")
	assert.False(t, ok)
}
