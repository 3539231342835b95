package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts for the knowledge-base tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		t, err := loadTables(ctx, store)
		if err != nil {
			return err
		}

		unresolved := 0
		for _, p := range t.Papers {
			if !p.Resolved() {
				unresolved++
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "papers:    %d (%d without URL)\n", len(t.Papers), unresolved)
		fmt.Fprintf(out, "objects:   %d\n", len(t.Objects))
		fmt.Fprintf(out, "morphisms: %d\n", len(t.Morphisms))
		fmt.Fprintf(out, "evidence:  %d\n", len(t.Evidence))
		return nil
	},
}

func init() {
	addTableFlags(statsCmd)
	rootCmd.AddCommand(statsCmd)
}
