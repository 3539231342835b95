package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/trondarild/ConCart/internal/kb"
)

// Table path flags shared by the commands that operate on the full
// knowledge base. They override the configured CSV paths; for the sqlite
// and postgres drivers they are ignored.
var (
	flagPapers    string
	flagObjects   string
	flagMorphisms string
	flagEvidence  string
)

func addTableFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPapers, "papers", "", "papers table path (csv driver)")
	cmd.Flags().StringVar(&flagObjects, "objects", "", "objects table path (csv driver)")
	cmd.Flags().StringVar(&flagMorphisms, "morphisms", "", "morphisms table path (csv driver)")
	cmd.Flags().StringVar(&flagEvidence, "evidence", "", "evidence table path (csv driver)")
}

// openStore builds the configured store backend.
func openStore(ctx context.Context) (kb.Store, error) {
	switch cfg.Store.Driver {
	case "csv", "":
		paths := cfg.Store.CSV
		if flagPapers != "" {
			paths.Papers = flagPapers
		}
		if flagObjects != "" {
			paths.Objects = flagObjects
		}
		if flagMorphisms != "" {
			paths.Morphisms = flagMorphisms
		}
		if flagEvidence != "" {
			paths.Evidence = flagEvidence
		}
		return kb.NewCSV(paths), nil
	case "sqlite":
		return kb.NewSQLite(cfg.Store.DSN)
	case "postgres":
		return kb.NewPostgres(ctx, cfg.Store.DSN)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
