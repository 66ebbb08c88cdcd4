package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type scoreCmdConfig struct {
	*rootCmdConfig
	modelInput string
	dataInput  string
	output     string
	depths     bool
}

func scoreCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &scoreCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score the anomaly of samples",
		Long:  `Score the anomaly of every sample in a set of data with a forest, writing the samples in CSV format with an additional score column.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(1, err)
			}
			f, err := config.loadForest(config.Context(), config.modelInput)
			if err != nil {
				fail(2, err)
			}
			d, err := config.readDataset(config.Context(), config.dataInput, f.Schema)
			if err != nil {
				fail(3, fmt.Errorf("reading samples: %w", err))
			}
			config.Logf("Scoring %d samples with %d trees...", d.Len(), len(f.Trees))
			names := []string{"score"}
			scores, err := f.Score(d, config.options()...)
			if err != nil {
				fail(4, fmt.Errorf("scoring samples: %w", err))
			}
			extra := [][]float64{scores}
			if config.depths {
				depths, err := f.Depths(d, config.options()...)
				if err != nil {
					fail(4, fmt.Errorf("computing depths: %w", err))
				}
				names = append(names, "depth")
				extra = append(extra, depths)
			}
			if err = config.writeCSV(config.output, d, names, extra); err != nil {
				fail(5, err)
			}
			config.Logf("Done")
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "f", "", "path to a file with the forest, or its id when using redis (required)")
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", inputHelp)
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the scored samples will be written in CSV format (defaults to STDOUT)")
	cmd.PersistentFlags().BoolVar(&(config.depths), "depths", false, "also write the average path estimate of every sample in a depth column")
	return cmd
}

func (scc *scoreCmdConfig) Validate() error {
	if scc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	return nil
}
