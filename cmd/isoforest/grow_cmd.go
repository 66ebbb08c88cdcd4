package main

import (
	"fmt"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/feature/yaml"
	"github.com/pbanos/isoforest/tree"
	"github.com/spf13/cobra"
)

type growCmdConfig struct {
	*rootCmdConfig
	dataInput     string
	metadataInput string
	configInput   string
	output        string
	forest        isoforest.Config
	criterion     string
	categorySplit string
	missing       string
	unseen        string
	weighting     string
}

func growCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &growCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow an isolation forest from a set of data",
		Long:  `Grow an isolation forest from a set of data and write it to a file or to redis.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(1, err)
			}
			cfg, err := config.forestConfig(cmd.Flags().Changed)
			if err != nil {
				fail(2, err)
			}
			config.Logf("Reading features from metadata at %s...", config.metadataInput)
			schema, err := yaml.ReadSchemaFromFile(config.metadataInput)
			if err != nil {
				fail(3, err)
			}
			d, err := config.readDataset(config.Context(), config.dataInput, schema)
			if err != nil {
				fail(4, fmt.Errorf("reading training set: %w", err))
			}
			config.Logf("Growing forest from a set with %d samples and %d features...", d.Len(), d.Width())
			f, err := isoforest.Build(d, cfg, config.options()...)
			if err != nil {
				fail(5, fmt.Errorf("growing the forest: %w", err))
			}
			config.Logf("Done: %v", f)
			if err = config.saveForest(config.Context(), f, config.output); err != nil {
				fail(6, err)
			}
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&(config.dataInput), "input", "i", "", inputHelp)
	flags.StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	flags.StringVarP(&(config.configInput), "config", "c", "", "path to a YML file with the forest configuration; flags override its values")
	flags.StringVarP(&(config.output), "output", "o", "", "path to a file to which the forest will be written (required unless using redis)")
	flags.IntVarP(&(config.forest.Trees), "trees", "t", 0, "number of trees (defaults to 100)")
	flags.IntVarP(&(config.forest.SampleSize), "sample-size", "s", 0, "rows each tree is grown from (defaults to the smallest of 256 and the rows available)")
	flags.IntVar(&(config.forest.MaxDepth), "max-depth", 0, "maximum depth of the trees (defaults to ceil(log2(sample-size)))")
	flags.BoolVar(&(config.forest.WithReplacement), "with-replacement", false, "draw the rows of each tree with replacement")
	flags.Float64Var(&(config.forest.FeatureFraction), "feature-fraction", 0, "fraction of the features each tree may split on (defaults to 1)")
	flags.StringVar(&(config.criterion), "criterion", "", "split criterion: random (default), averaged-gain or pooled-gain")
	flags.IntVar(&(config.forest.Candidates), "candidates", 0, "random splits the gain criteria choose from (defaults to 10)")
	flags.IntVar(&(config.forest.NDim), "ndim", 0, "numeric features combined by each split (defaults to 1)")
	flags.StringVar(&(config.categorySplit), "category-split", "", "how categorical levels are split: subset (default) or single")
	flags.StringVar(&(config.missing), "missing-action", "", "how missing values are routed when scoring: divide (default), majority or fail")
	flags.StringVar(&(config.unseen), "unseen-action", "", "how unseen levels are routed when scoring: missing (default) or smallest")
	flags.StringVar(&(config.weighting), "impute-weighting", "", "how trees weigh imputations: inverse-depth (default) or uniform")
	flags.Uint64Var(&(config.forest.Seed), "seed", 0, "master seed the trees derive their random streams from")
	return cmd
}

func (gcc *growCmdConfig) Validate() error {
	if gcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if gcc.output == "" && !gcc.usesStore() {
		return fmt.Errorf("required output flag was not set")
	}
	return nil
}

/*
forestConfig returns the configuration in the config file, if any, with the
values of the flags set on the command line taking precedence.
*/
func (gcc *growCmdConfig) forestConfig(changed func(flag string) bool) (isoforest.Config, error) {
	var cfg isoforest.Config
	if gcc.configInput != "" {
		gcc.Logf("Reading forest configuration from %s...", gcc.configInput)
		var err error
		cfg, err = isoforest.ReadConfigFromFile(gcc.configInput)
		if err != nil {
			return cfg, err
		}
	}
	set := func(name string, apply func()) {
		if changed(name) {
			apply()
		}
	}
	set("trees", func() { cfg.Trees = gcc.forest.Trees })
	set("sample-size", func() { cfg.SampleSize = gcc.forest.SampleSize })
	set("max-depth", func() { cfg.MaxDepth = gcc.forest.MaxDepth })
	set("with-replacement", func() { cfg.WithReplacement = gcc.forest.WithReplacement })
	set("feature-fraction", func() { cfg.FeatureFraction = gcc.forest.FeatureFraction })
	set("criterion", func() { cfg.Criterion = isoforest.Criterion(gcc.criterion) })
	set("candidates", func() { cfg.Candidates = gcc.forest.Candidates })
	set("ndim", func() { cfg.NDim = gcc.forest.NDim })
	set("category-split", func() { cfg.CategorySplit = isoforest.CategorySplit(gcc.categorySplit) })
	set("missing-action", func() { cfg.MissingAction = tree.MissingAction(gcc.missing) })
	set("unseen-action", func() { cfg.UnseenAction = tree.UnseenAction(gcc.unseen) })
	set("impute-weighting", func() { cfg.ImputeWeighting = isoforest.ImputeWeighting(gcc.weighting) })
	set("seed", func() { cfg.Seed = gcc.forest.Seed })
	if changed("threads") {
		cfg.Threads = gcc.threads
	}
	return cfg, nil
}

