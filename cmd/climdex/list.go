package main

import (
	"github.com/spf13/cobra"
)

func newListCmd(definitionsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the indices the engine can compute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(*definitionsPath)
			if err != nil {
				return err
			}
			for _, name := range catalog.Names() {
				cmd.Println(name)
			}
			return nil
		},
	}
}
