package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trondarild/ConCart/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "concart",
	Short: "Categorical knowledge base of a scientific field",
	Long:  "Builds a relational map of a research field: ingests paper PDFs through Claude to extract concepts and evidential links, and resolves direct PDF URLs for known papers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
