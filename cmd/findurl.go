package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/trondarild/ConCart/internal/analyzer"
	"github.com/trondarild/ConCart/internal/kb"
	"github.com/trondarild/ConCart/internal/resilience"
	"github.com/trondarild/ConCart/internal/resolver"
	"github.com/trondarild/ConCart/pkg/anthropic"
)

var (
	findurlInput  string
	findurlOutput string
)

var findurlCmd = &cobra.Command{
	Use:   "findurl",
	Short: "Resolve direct PDF URLs for papers missing one",
	Long: `Walks the papers table and asks Claude for a direct PDF link for every
row without a URL, validating and persisting each hit immediately.

The run is resumable: rows that already have a URL are never re-queried, and
failed rows keep an empty URL and are retried on the next invocation. With
the csv driver the input/output file convention applies (a present output
file is picked up where the last run stopped); with the sqlite and postgres
drivers the papers table is updated in place.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("CONCART_ANTHROPIC_KEY is not set")
		}

		var papers resolver.PaperStore
		if cfg.Store.Driver == "csv" || cfg.Store.Driver == "" {
			input := cfg.Resolver.Input
			if findurlInput != "" {
				input = findurlInput
			}
			output := cfg.Resolver.Output
			if findurlOutput != "" {
				output = findurlOutput
			}
			papers = kb.NewPaperFile(input, output)
		} else {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			papers = kb.NewStorePapers(store)
		}

		az := analyzer.NewClaude(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
		r := resolver.New(papers, az, resolver.Config{
			Pacing: time.Duration(cfg.Resolver.PacingMS) * time.Millisecond,
			Retry: resilience.Policy{
				MaxAttempts: cfg.Resolver.MaxAttempts,
			},
		})

		_, err := r.Run(ctx)
		return err
	},
}

func init() {
	findurlCmd.Flags().StringVar(&findurlInput, "input", "", "input papers table (fresh start)")
	findurlCmd.Flags().StringVar(&findurlOutput, "output", "", "output papers table (resumption state)")
	rootCmd.AddCommand(findurlCmd)
}
