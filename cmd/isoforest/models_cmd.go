package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func modelsCmd(rootConfig *rootCmdConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the forests kept in redis",
		Long:  `List and delete the forests kept in the redis server given with the redis flag`,
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List the ids of the forests kept in redis",
		Run: func(cmd *cobra.Command, args []string) {
			ms, closeStore, err := rootConfig.requireStore()
			if err != nil {
				fail(1, err)
			}
			defer closeStore()
			ids, err := ms.List(rootConfig.Context())
			if err != nil {
				fail(2, err)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
		},
	}
	del := &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete forests kept in redis",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ms, closeStore, err := rootConfig.requireStore()
			if err != nil {
				fail(1, err)
			}
			defer closeStore()
			for _, id := range args {
				if err = ms.Delete(rootConfig.Context(), id); err != nil {
					fail(2, err)
				}
				rootConfig.Logf("Forest %s deleted", id)
			}
		},
	}
	cmd.AddCommand(list, del)
	return cmd
}
