package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trondarild/ConCart/internal/export"
	"github.com/trondarild/ConCart/internal/kb"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge base to an XLSX workbook",
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

		if err := export.WriteXLSX(t, exportOut); err != nil {
			return err
		}
		zap.L().Info("knowledge base exported",
			zap.String("path", exportOut),
			zap.Int("papers", len(t.Papers)),
			zap.Int("objects", len(t.Objects)),
			zap.Int("evidence", len(t.Evidence)),
		)
		return nil
	},
}

// loadTables reads all four tables; shared by export, stats, and serve.
func loadTables(ctx context.Context, store kb.Store) (export.Tables, error) {
	var t export.Tables
	var err error
	if t.Papers, err = store.LoadPapers(ctx); err != nil {
		return t, err
	}
	if t.Objects, err = store.LoadObjects(ctx); err != nil {
		return t, err
	}
	if t.Morphisms, err = store.LoadMorphisms(ctx); err != nil {
		return t, err
	}
	if t.Evidence, err = store.LoadEvidence(ctx); err != nil {
		return t, err
	}
	return t, nil
}

func init() {
	addTableFlags(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "concart.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
