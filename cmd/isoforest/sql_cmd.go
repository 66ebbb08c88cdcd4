package main

import (
	"fmt"
	"strings"

	"github.com/pbanos/isoforest/sqlexport"
	"github.com/spf13/cobra"
)

type sqlCmdConfig struct {
	*rootCmdConfig
	modelInput string
	table      string
	columns    []string
	perTree    bool
}

func sqlCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &sqlCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Translate a forest into SQL",
		Long: `Translate a forest into an SQL query scoring the rows of a table, or into one expression per tree.

SQL cannot average both branches of a split, so samples missing a value follow
the branch most training samples took.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fail(1, err)
			}
			f, err := config.loadForest(config.Context(), config.modelInput)
			if err != nil {
				fail(2, err)
			}
			var columns []string
			if len(config.columns) > 0 {
				columns = config.columns
			}
			if config.perTree {
				expressions, err := sqlexport.Trees(f, columns)
				if err != nil {
					fail(3, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(expressions, ";\n"))
				return
			}
			query, err := sqlexport.Select(f, config.table, columns)
			if err != nil {
				fail(3, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), query)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.modelInput), "model", "f", "", "path to a file with the forest, or its id when using redis (required)")
	cmd.PersistentFlags().StringVar(&(config.table), "table", "samples", "table holding the samples to score")
	cmd.PersistentFlags().StringSliceVar(&(config.columns), "columns", nil, "comma separated column names for the features of the forest, in order (defaults to the feature names)")
	cmd.PersistentFlags().BoolVar(&(config.perTree), "trees", false, "print one expression per tree instead of a query")
	return cmd
}

func (scc *sqlCmdConfig) Validate() error {
	if scc.modelInput == "" {
		return fmt.Errorf("required model flag was not set")
	}
	return nil
}
