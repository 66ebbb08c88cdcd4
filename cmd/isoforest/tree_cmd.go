package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type treeCmdConfig struct {
	*rootCmdConfig
	modelInput string
	index      int
}

func treeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &treeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the trees of a forest",
		Long:  `Show a summary of a forest and a drawing of one of its trees`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(1, err)
			}
			f, err := config.loadForest(config.Context(), config.modelInput)
			if err != nil {
				fail(2, err)
			}
			if config.index >= len(f.Trees) {
				fail(3, fmt.Errorf("forest has %d trees, no tree at index %d", len(f.Trees), config.index))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, f)
			t := &f.Trees[config.index]
			fmt.Fprintf(out, "tree %d: %d nodes, %d terminal, depth %d\n", config.index, len(t.Nodes), t.Terminals(), t.Depth())
			fmt.Fprint(out, t.Format(f.Schema))
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "f", "", "path to a file with the forest, or its id when using redis (required)")
	cmd.PersistentFlags().IntVarP(&(config.index), "index", "n", 0, "index of the tree to draw")
	return cmd
}

func (tcc *treeCmdConfig) Validate() error {
	if tcc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	if tcc.index < 0 {
		return fmt.Errorf("tree index must not be negative")
	}
	return nil
}
