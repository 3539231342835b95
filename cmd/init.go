package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/trondarild/ConCart/internal/model"
)

var initVocab string

// vocabFile is the YAML shape of a morphism vocabulary seed file:
//
//	morphisms:
//	  - id: supports
//	    source_type: Phenomenon
//	    target_type: Theory
//	    label: provides evidence for
type vocabFile struct {
	Morphisms []model.Morphism `yaml:"morphisms"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create empty knowledge-base tables and optionally seed the morphism vocabulary",
	Long: `Creates the papers, objects, morphisms, and evidence tables with their
required schemas. Existing tables and rows are never touched. With --vocab,
morphisms from the YAML file are appended to an empty morphisms table; the
vocabulary is read-only afterward, so seed it before the first ingest.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Init(ctx); err != nil {
			return err
		}
		zap.L().Info("tables initialized", zap.String("driver", cfg.Store.Driver))

		if initVocab == "" {
			return nil
		}

		existing, err := store.LoadMorphisms(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			zap.L().Info("morphism vocabulary already seeded, skipping",
				zap.Int("morphisms", len(existing)))
			return nil
		}

		data, err := os.ReadFile(initVocab)
		if err != nil {
			return eris.Wrapf(err, "read vocabulary %s", initVocab)
		}
		var vf vocabFile
		if err := yaml.Unmarshal(data, &vf); err != nil {
			return eris.Wrapf(err, "parse vocabulary %s", initVocab)
		}
		if len(vf.Morphisms) == 0 {
			return eris.Errorf("vocabulary %s defines no morphisms", initVocab)
		}

		if err := store.AppendMorphisms(ctx, vf.Morphisms); err != nil {
			return err
		}
		zap.L().Info("morphism vocabulary seeded", zap.Int("morphisms", len(vf.Morphisms)))
		return nil
	},
}

func init() {
	addTableFlags(initCmd)
	initCmd.Flags().StringVar(&initVocab, "vocab", "", "YAML vocabulary file to seed the morphisms table")
	rootCmd.AddCommand(initCmd)
}
