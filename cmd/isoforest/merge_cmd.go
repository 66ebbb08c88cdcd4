package main

import (
	"fmt"

	"github.com/pbanos/isoforest"
	"github.com/spf13/cobra"
)

type mergeCmdConfig struct {
	*rootCmdConfig
	output string
}

func mergeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &mergeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "merge MODEL MODEL...",
		Short: "Merge forests into one",
		Long:  `Merge forests grown from data with the same features into a single forest holding all their trees.`,
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(1, err)
			}
			ctx := config.Context()
			forests := make([]*isoforest.Forest, len(args))
			for i, ref := range args {
				forests[i], err = config.loadForest(ctx, ref)
				if err != nil {
					fail(2, err)
				}
			}
			config.Logf("Merging %d forests...", len(forests))
			merged, err := isoforest.Merge(forests...)
			if err != nil {
				fail(3, fmt.Errorf("merging forests: %w", err))
			}
			config.Logf("Done: %v", merged)
			if err = config.saveForest(ctx, merged, config.output); err != nil {
				fail(4, err)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the merged forest will be written (required unless using redis)")
	return cmd
}

func (mcc *mergeCmdConfig) Validate() error {
	if mcc.output == "" && !mcc.usesStore() {
		return fmt.Errorf("required output flag was not set")
	}
	return nil
}
