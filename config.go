package isoforest

import (
	"fmt"
	"math"
	"os"

	"github.com/pbanos/isoforest/failure"
	"github.com/pbanos/isoforest/feature"
	"github.com/pbanos/isoforest/tree"
	yaml "gopkg.in/yaml.v2"
)

// Criterion names the rule used to choose the split of each node
type Criterion string

const (
	// RandomSplit picks a feature and a threshold or subset at random
	RandomSplit = Criterion("random")
	// AveragedGain keeps, out of several random candidates, the split that
	// maximises the average of the dispersion reductions of both children
	AveragedGain = Criterion("averaged-gain")
	// PooledGain keeps, out of several random candidates, the split that
	// maximises the dispersion reduction of both children weighted by size
	PooledGain = Criterion("pooled-gain")
)

// CategorySplit names how the levels of a categorical feature are divided
type CategorySplit string

const (
	// SubsetSplit sends a random subset of the observed levels left
	SubsetSplit = CategorySplit("subset")
	// SingleSplit sends a single observed level left
	SingleSplit = CategorySplit("single")
)

// ImputeWeighting names how the terminal nodes of each tree weigh imputations
type ImputeWeighting string

const (
	// InverseDepth weighs a terminal node by 1/(1+depth)
	InverseDepth = ImputeWeighting("inverse-depth")
	// Uniform weighs every terminal node the same
	Uniform = ImputeWeighting("uniform")
)

const (
	defaultTrees      = 100
	defaultSampleSize = 256
	defaultCandidates = 10
)

/*
Config holds the parameters to grow a forest. Zero values stand for defaults,
which Build resolves and records on the forest it returns.
*/
type Config struct {
	// Trees is the number of trees to grow, 100 by default.
	Trees int `yaml:"trees"`
	// SampleSize is the number of rows each tree is grown from, the smallest
	// of 256 and the number of rows of the dataset by default.
	SampleSize int `yaml:"sample_size"`
	// MaxDepth limits the depth of the trees, ceil(log2(SampleSize)) by default.
	MaxDepth int `yaml:"max_depth"`
	// WithReplacement makes subsamples draw rows with replacement.
	WithReplacement bool `yaml:"with_replacement"`
	// FeatureFraction is the fraction of the features each tree may split on.
	FeatureFraction float64 `yaml:"feature_fraction"`
	// FeatureWeights are relative probabilities of picking each feature.
	FeatureWeights []float64 `yaml:"feature_weights,omitempty"`
	// Criterion is the split criterion, random by default.
	Criterion Criterion `yaml:"criterion"`
	// Candidates is the number of random splits gain criteria choose from.
	Candidates int `yaml:"candidates"`
	// NDim is the number of numeric features combined by each split. With 1,
	// the default, splits use a single feature.
	NDim int `yaml:"ndim"`
	// CategorySplit decides how categorical levels are divided, subset by default.
	CategorySplit CategorySplit `yaml:"category_split"`
	// MissingAction decides how scoring routes missing values, divide by default.
	MissingAction tree.MissingAction `yaml:"missing_action"`
	// UnseenAction decides how scoring routes unseen levels, missing by default.
	UnseenAction tree.UnseenAction `yaml:"unseen_action"`
	// ImputeWeighting decides how trees weigh imputations, inverse-depth by default.
	ImputeWeighting ImputeWeighting `yaml:"impute_weighting"`
	// Seed is the master seed every tree derives its random stream from.
	Seed uint64 `yaml:"seed"`
	// Threads limits the goroutines working at once, GOMAXPROCS by default.
	Threads int `yaml:"threads"`
}

/*
ReadConfig takes a slice of bytes with a configuration in YAML and returns
the Config parsed from it or an InvalidInput error.
*/
func ReadConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, failure.Wrap(failure.InvalidInput, err, "parsing yml config")
	}
	return c, nil
}

/*
ReadConfigFromFile takes a filepath string, reads its contents and uses
ReadConfig to parse it.
*/
func ReadConfigFromFile(filepath string) (Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return Config{}, fmt.Errorf("reading config yml file %s: %w", filepath, err)
	}
	c, err := ReadConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config yml file %s: %w", filepath, err)
	}
	return c, nil
}

// Rules returns the routing rules of the configuration
func (c Config) Rules() tree.Rules {
	return tree.Rules{Missing: c.MissingAction, Unseen: c.UnseenAction}.WithDefaults()
}

/*
withDefaults returns a copy of the configuration with zero values replaced by
the defaults for a dataset of n rows.
*/
func (c Config) withDefaults(n int) Config {
	if c.Trees == 0 {
		c.Trees = defaultTrees
	}
	if c.SampleSize == 0 {
		c.SampleSize = defaultSampleSize
		if n < c.SampleSize {
			c.SampleSize = n
		}
	}
	if c.MaxDepth == 0 && c.SampleSize > 1 {
		c.MaxDepth = int(math.Ceil(math.Log2(float64(c.SampleSize))))
	}
	if c.FeatureFraction == 0 {
		c.FeatureFraction = 1
	}
	if c.Criterion == "" {
		c.Criterion = RandomSplit
	}
	if c.Candidates == 0 {
		c.Candidates = defaultCandidates
	}
	if c.NDim == 0 {
		c.NDim = 1
	}
	if c.CategorySplit == "" {
		c.CategorySplit = SubsetSplit
	}
	if c.ImputeWeighting == "" {
		c.ImputeWeighting = InverseDepth
	}
	r := c.Rules()
	c.MissingAction, c.UnseenAction = r.Missing, r.Unseen
	return c
}

/*
Validate returns an InvalidInput error if the configuration cannot be used to
grow a forest from n rows with the given schema.
*/
func (c Config) Validate(schema feature.Schema, n int) error {
	if c.Trees < 1 {
		return failure.Errorf(failure.InvalidInput, "trees must be positive, got %d", c.Trees)
	}
	if c.SampleSize < 1 {
		return failure.Errorf(failure.InvalidInput, "sample size must be positive, got %d", c.SampleSize)
	}
	if c.SampleSize > n && !c.WithReplacement {
		return failure.Errorf(failure.InvalidInput, "sample size %d exceeds the %d rows available without replacement", c.SampleSize, n)
	}
	if c.MaxDepth < 0 {
		return failure.Errorf(failure.InvalidInput, "max depth must not be negative, got %d", c.MaxDepth)
	}
	if !(c.FeatureFraction > 0 && c.FeatureFraction <= 1) {
		return failure.Errorf(failure.InvalidInput, "feature fraction must be in (0,1], got %v", c.FeatureFraction)
	}
	if c.FeatureWeights != nil {
		if len(c.FeatureWeights) != len(schema) {
			return failure.Errorf(failure.InvalidInput, "got %d feature weights for %d features", len(c.FeatureWeights), len(schema))
		}
		var total float64
		for i, w := range c.FeatureWeights {
			if !(w >= 0) || math.IsInf(w, 0) {
				return failure.Errorf(failure.InvalidInput, "feature weight %d is %v", i, w)
			}
			total += w
		}
		if total == 0 {
			return failure.Errorf(failure.InvalidInput, "feature weights add up to zero")
		}
	}
	switch c.Criterion {
	case RandomSplit, AveragedGain, PooledGain:
	default:
		return failure.Errorf(failure.InvalidInput, "unknown split criterion %q", c.Criterion)
	}
	if c.Candidates < 1 {
		return failure.Errorf(failure.InvalidInput, "candidates must be positive, got %d", c.Candidates)
	}
	if c.NDim < 1 {
		return failure.Errorf(failure.InvalidInput, "ndim must be positive, got %d", c.NDim)
	}
	if c.NDim > 1 {
		var numeric int
		for _, f := range schema {
			if f.Kind() == feature.Numeric {
				numeric++
			}
		}
		if numeric == 0 {
			return failure.Errorf(failure.InvalidInput, "ndim %d requires numeric features", c.NDim)
		}
	}
	switch c.CategorySplit {
	case SubsetSplit, SingleSplit:
	default:
		return failure.Errorf(failure.InvalidInput, "unknown category split %q", c.CategorySplit)
	}
	switch c.ImputeWeighting {
	case InverseDepth, Uniform:
	default:
		return failure.Errorf(failure.InvalidInput, "unknown impute weighting %q", c.ImputeWeighting)
	}
	if c.Threads < 0 {
		return failure.Errorf(failure.InvalidInput, "threads must not be negative, got %d", c.Threads)
	}
	return tree.Rules{Missing: c.MissingAction, Unseen: c.UnseenAction}.Validate()
}
