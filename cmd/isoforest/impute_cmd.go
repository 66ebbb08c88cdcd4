package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type imputeCmdConfig struct {
	*rootCmdConfig
	modelInput string
	dataInput  string
	output     string
}

func imputeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &imputeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "impute",
		Short: "Fill in missing values",
		Long:  `Fill in the missing values of a set of data with the values a forest deems most likely.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(1, err)
			}
			ctx := config.Context()
			f, err := config.loadForest(ctx, config.modelInput)
			if err != nil {
				fail(2, err)
			}
			d, err := config.readDataset(ctx, config.dataInput, f.Schema)
			if err != nil {
				fail(3, fmt.Errorf("reading samples: %w", err))
			}
			config.Logf("Imputing missing values of %d samples...", d.Len())
			imputed, err := f.Impute(d, config.options()...)
			if err != nil {
				fail(4, fmt.Errorf("imputing missing values: %w", err))
			}
			if err = config.writeDataset(ctx, config.output, imputed); err != nil {
				fail(5, fmt.Errorf("writing imputed samples: %w", err))
			}
			config.Logf("Done")
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "f", "", "path to a file with the forest, or its id when using redis (required)")
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", inputHelp)
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL, to which the imputed samples will be written (defaults to STDOUT, as CSV)")
	return cmd
}

func (icc *imputeCmdConfig) Validate() error {
	if icc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	return nil
}
