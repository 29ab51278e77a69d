/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ensureCollectionCmd represents the ensure-collection command
var ensureCollectionCmd = &cobra.Command{
	Use:   "ensure-collection",
	Short: "Create the vector collection if it does not exist",
	Long: `Creates the configured collection, sizing it from a probe embedding. With
--reinit the collection is deleted first, dropping every indexed chunk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reinit, _ := cmd.Flags().GetBool("reinit")

		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if err := prepareCollection(ctx, a, reinit); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Collection %s is ready\n", a.index.Collection())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ensureCollectionCmd)
	ensureCollectionCmd.Flags().Bool("reinit", false, "Delete and recreate the collection")
}
