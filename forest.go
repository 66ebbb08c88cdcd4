/*
Package isoforest grows isolation forests from tabular numeric and
categorical data and applies them to score anomalies, estimate distances
between samples and impute missing values.
*/
package isoforest

import (
	"fmt"
	"math"

	"github.com/pbanos/isoforest/dataset"
	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
)

/*
Forest is an ordered set of isolation trees together with the schema of the
data they were grown from, the configuration used to grow them, with defaults
resolved, and per-feature statistics of the whole training data used when
imputation finds nothing better.

Forests are not modified after being built: Merge and decoding produce new
ones. Its fields are exported for codecs and must be treated as read only.
*/
type Forest struct {
	Schema   feature.Schema
	Config   Config
	Trees    []tree.Tree
	Fallback []tree.FeatureStats
}

/*
Validate checks that the forest is consistent: a valid schema, as many trees
as its configuration says, every tree valid for the schema and maximum depth,
and fallback statistics for every feature. It returns an error describing the
first problem found.
*/
func (f *Forest) Validate() error {
	if err := f.Schema.Validate(); err != nil {
		return err
	}
	if err := f.Config.Rules().Validate(); err != nil {
		return err
	}
	if len(f.Trees) == 0 || len(f.Trees) != f.Config.Trees {
		return fmt.Errorf("forest has %d trees, configuration says %d", len(f.Trees), f.Config.Trees)
	}
	for i := range f.Trees {
		if err := f.Trees[i].Validate(f.Schema, f.Config.MaxDepth); err != nil {
			return fmt.Errorf("tree %d: %v", i, err)
		}
	}
	if len(f.Fallback) != len(f.Schema) {
		return fmt.Errorf("forest has %d fallback statistics for %d features", len(f.Fallback), len(f.Schema))
	}
	for j, s := range f.Fallback {
		if f.Schema[j].Kind() == feature.Categorical && len(s.Counts) != len(feature.Levels(f.Schema[j])) {
			return fmt.Errorf("fallback statistics for feature %d have %d level counts", j, len(s.Counts))
		}
	}
	return nil
}

/*
checkSamples returns an InvalidInput error if the dataset cannot be applied
the forest: a schema differing from the forest's, or missing values when the
forest is configured to fail on them.
*/
func (f *Forest) checkSamples(d *dataset.Dataset) error {
	if err := f.checkSchema(d); err != nil {
		return err
	}
	if f.Config.Rules().Missing == tree.Fail {
		for i := 0; i < d.Len(); i++ {
			if d.RowHasMissing(i) {
				return failure.Errorf(failure.InvalidInput, "row %d has missing values", i)
			}
		}
	}
	return nil
}

func (f *Forest) checkSchema(d *dataset.Dataset) error {
	if d == nil {
		return failure.Errorf(failure.InvalidInput, "no dataset given")
	}
	if !f.Schema.Equal(d.Schema()) {
		return failure.Errorf(failure.InvalidInput, "dataset schema [%s] does not match forest schema [%s]", d.Schema().Describe(), f.Schema.Describe())
	}
	return nil
}

/*
expectedPathLength returns the average over trees of the expected path
length of their subsample size, the value path lengths are normalised with.
*/
func (f *Forest) expectedPathLength() float64 {
	var c float64
	for i := range f.Trees {
		c += tree.ExpectedPathLength(f.Trees[i].SampleSize)
	}
	return c / float64(len(f.Trees))
}

/*
expectedSeparation returns the average over trees of the expected separation
depth of their subsample size, the value separation depths are normalised
with.
*/
func (f *Forest) expectedSeparation() float64 {
	var s float64
	for i := range f.Trees {
		s += tree.ExpectedSeparation(f.Trees[i].SampleSize)
	}
	return s / float64(len(f.Trees))
}

// Clone returns a deep copy of the forest
func (f *Forest) Clone() *Forest {
	c := &Forest{
		Schema:   append(feature.Schema(nil), f.Schema...),
		Config:   f.Config,
		Trees:    make([]tree.Tree, len(f.Trees)),
		Fallback: make([]tree.FeatureStats, len(f.Fallback)),
	}
	if f.Config.FeatureWeights != nil {
		c.Config.FeatureWeights = append([]float64(nil), f.Config.FeatureWeights...)
	}
	for i := range f.Trees {
		c.Trees[i] = f.Trees[i].Clone()
	}
	for j, s := range f.Fallback {
		c.Fallback[j] = s
		if s.Counts != nil {
			c.Fallback[j].Counts = append([]int(nil), s.Counts...)
		}
	}
	return c
}

func (f *Forest) String() string {
	var nodes int
	for i := range f.Trees {
		nodes += len(f.Trees[i].Nodes)
	}
	return fmt.Sprintf("forest{%d trees, %d nodes, sample size %d, max depth %d, features: %s}", len(f.Trees), nodes, f.Config.SampleSize, f.Config.MaxDepth, f.Schema.Describe())
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
