package feature

import (
	"fmt"

	"github.com/pbanos/isoforest/failure"
)

/*
Schema is the ordered list of features a dataset or a forest works with.
Feature ids are indexes into it.
*/
type Schema []Feature

/*
Validate returns an InvalidInput error if the schema has no features, repeats
a feature name, or declares a categorical feature without levels or with
repeated levels.
*/
func (s Schema) Validate() error {
	if len(s) == 0 {
		return failure.Errorf(failure.InvalidInput, "schema has no features")
	}
	seen := make(map[string]bool, len(s))
	for i, f := range s {
		if f == nil {
			return failure.Errorf(failure.InvalidInput, "feature %d is nil", i)
		}
		if seen[f.Name()] {
			return failure.Errorf(failure.InvalidInput, "feature name %q is repeated", f.Name())
		}
		seen[f.Name()] = true
		cf, ok := f.(*CategoricalFeature)
		if !ok {
			continue
		}
		if len(cf.Levels()) == 0 {
			return failure.Errorf(failure.InvalidInput, "categorical feature %q has no levels", cf.Name())
		}
		levels := make(map[string]bool, len(cf.Levels()))
		for _, l := range cf.Levels() {
			if levels[l] {
				return failure.Errorf(failure.InvalidInput, "categorical feature %q repeats level %q", cf.Name(), l)
			}
			levels[l] = true
		}
	}
	return nil
}

/*
Equal returns whether both schemas declare the same features in the same
order: same names, same kinds and, for categorical features, the same levels.
*/
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i].Name() != o[i].Name() || s[i].Kind() != o[i].Kind() {
			return false
		}
		if s[i].Kind() != Categorical {
			continue
		}
		l1, l2 := Levels(s[i]), Levels(o[i])
		if len(l1) != len(l2) {
			return false
		}
		for j := range l1 {
			if l1[j] != l2[j] {
				return false
			}
		}
	}
	return true
}

// Index returns the id of the feature with the given name, or -1
func (s Schema) Index(name string) int {
	for i, f := range s {
		if f.Name() == name {
			return i
		}
	}
	return -1
}

// Names returns the feature names in schema order
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name()
	}
	return names
}

/*
Levels returns the levels of a categorical feature, or nil for any other
feature.
*/
func Levels(f Feature) []string {
	if cf, ok := f.(*CategoricalFeature); ok {
		return cf.Levels()
	}
	return nil
}

/*
Describe returns a short human readable description of the schema such as
"x:numeric, color:categorical(3)".
*/
func (s Schema) Describe() string {
	var result string
	for i, f := range s {
		if i > 0 {
			result += ", "
		}
		if f.Kind() == Categorical {
			result += fmt.Sprintf("%s:%v(%d)", f.Name(), f.Kind(), len(Levels(f)))
		} else {
			result += fmt.Sprintf("%s:%v", f.Name(), f.Kind())
		}
	}
	return result
}
