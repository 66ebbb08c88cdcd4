package feature

import (
	"fmt"
	"math"
)

// Kind tells numeric features from categorical ones
type Kind uint8

const (
	// Numeric features take float64 values
	Numeric Kind = iota
	// Categorical features take one of a declared list of levels
	Categorical
)

/*
MissingCategory is the level index used to mark a missing value for a
categorical feature.
*/
const MissingCategory = -1

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

/*
Feature represents a property that can be observed on a sample
*/
type Feature interface {
	Name() string
	Kind() Kind
	Valid(interface{}) (bool, error)
}

/*
CategoricalFeature represents a property that can be observed and that can only
take a value among a finite, ordered set of levels. Values are handled as
indexes into that set.
*/
type CategoricalFeature struct {
	name   string
	levels []string
}

/*
NumericFeature represents a property that can be observed and that can take
a numeric value. NaN marks a missing value.
*/
type NumericFeature struct {
	name string
}

/*
NewCategoricalFeature takes a name string and a slice of level strings
and returns a categorical feature with the given name and levels.
*/
func NewCategoricalFeature(name string, levels []string) *CategoricalFeature {
	return &CategoricalFeature{name, levels}
}

/*
NewNumericFeature takes a name string and returns a numeric feature with
the given name.
*/
func NewNumericFeature(name string) *NumericFeature {
	return &NumericFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (cf *CategoricalFeature) Name() string {
	return cf.name
}

// Kind returns Categorical
func (cf *CategoricalFeature) Kind() Kind {
	return Categorical
}

/*
Valid receives an interface value and returns a boolean and an error. Nil,
one of the feature's levels as a string, or a level index as an int (including
MissingCategory) are valid. Anything else makes the method return false and an
error describing the reason.
*/
func (cf *CategoricalFeature) Valid(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return true, nil
	case string:
		if _, ok := cf.Index(v); ok {
			return true, nil
		}
		return false, fmt.Errorf("categorical feature %s got unknown level %q", cf.name, v)
	case int:
		if v == MissingCategory || (v >= 0 && v < len(cf.levels)) {
			return true, nil
		}
		return false, fmt.Errorf("categorical feature %s got level index %d out of range [0,%d)", cf.name, v, len(cf.levels))
	}
	return false, fmt.Errorf("categorical feature %s expects string or int value, got %T value", cf.name, value)
}

/*
Levels returns a string slice with the levels available for the feature
*/
func (cf *CategoricalFeature) Levels() []string {
	return cf.levels
}

// Index returns the index of the given level and whether it was found
func (cf *CategoricalFeature) Index(level string) (int, bool) {
	for i, l := range cf.levels {
		if l == level {
			return i, true
		}
	}
	return MissingCategory, false
}

func (cf *CategoricalFeature) String() string {
	return cf.name
}

/*
Name returns a string with the name of the feature
*/
func (nf *NumericFeature) Name() string {
	return nf.name
}

// Kind returns Numeric
func (nf *NumericFeature) Kind() Kind {
	return Numeric
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value is nil or a non-infinite float64 it returns true and nil, otherwise it
returns false and an error describing the reason.
*/
func (nf *NumericFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return true, nil
	}
	v, ok := value.(float64)
	if !ok {
		return false, fmt.Errorf("numeric feature %s expects float64 value, got %T value", nf.Name(), value)
	}
	if math.IsInf(v, 0) {
		return false, fmt.Errorf("numeric feature %s got infinite value", nf.Name())
	}
	return true, nil
}

func (nf *NumericFeature) String() string {
	return nf.name
}
