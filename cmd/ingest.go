package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/trondarild/ConCart/internal/analyzer"
	"github.com/trondarild/ConCart/internal/ingest"
	"github.com/trondarild/ConCart/internal/resilience"
	"github.com/trondarild/ConCart/pkg/anthropic"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Analyze paper PDFs and merge the extractions into the knowledge base",
	Long: `Reads newline-delimited PDF paths from standard input, sends each
document to Claude together with the current object and morphism
vocabularies, and merges the extracted paper, concepts, and evidence edges
into the tables. Re-ingesting a known paper is a no-op, so interrupted runs
can simply be repeated.

  ls papers/*.pdf | concart ingest`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("CONCART_ANTHROPIC_KEY is not set")
		}

		paths := readPDFPaths(cmd.InOrStdin())
		if len(paths) == 0 {
			return eris.New("no PDF paths provided on stdin")
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		merger, err := ingest.NewMerger(ctx, store)
		if err != nil {
			return err
		}

		// The vocabulary is embedded in every analysis request. It is
		// snapshotted once per run, like the tables it comes from.
		objects, err := store.LoadObjects(ctx)
		if err != nil {
			return err
		}
		morphisms, err := store.LoadMorphisms(ctx)
		if err != nil {
			return err
		}
		vocab := analyzer.Vocabulary{Objects: objects, Morphisms: morphisms}

		az := analyzer.NewClaude(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
		retry := resilience.Policy{
			MaxAttempts: cfg.Ingest.MaxAttempts,
			OnRetry:     resilience.RetryLogger("analyze_document"),
		}
		limiter := rate.NewLimiter(rate.Every(time.Duration(cfg.Ingest.PacingMS)*time.Millisecond), 1)
		timeout := time.Duration(cfg.Anthropic.AnalyzeTimeoutSecs) * time.Second

		log := zap.L().With(zap.String("run_id", uuid.New().String()))
		added, skipped, failed := 0, 0, 0

		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "ingest: cancelled")
			}
			log := log.With(zap.String("pdf", path))

			pdf, err := os.ReadFile(path)
			if err != nil {
				log.Warn("skipping unreadable pdf", zap.Error(err))
				failed++
				continue
			}

			if err := limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "ingest: pacing wait")
			}

			ex, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*analyzer.Extraction, error) {
				callCtx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				return az.AnalyzeDocument(callCtx, pdf, vocab)
			})
			if err != nil {
				// Per-item isolation: analysis failures (transport,
				// protocol, parse) skip the document and move on.
				log.Warn("analysis failed", zap.Error(err))
				failed++
				continue
			}

			res, err := merger.Merge(ctx, ex)
			switch {
			case errors.Is(err, ingest.ErrNoKey):
				log.Warn("skipping unkeyable document", zap.Error(err))
				failed++
			case err != nil:
				// Persistence failure. Not rolled back; see Merge docs.
				log.Error("merge failed", zap.Error(err))
				failed++
			case res.AlreadyKnown:
				skipped++
			default:
				added++
				log.Info("document ingested",
					zap.String("citation_key", res.CitationKey),
					zap.Int("new_objects", res.NewObjects),
					zap.Int("new_evidence", res.NewEvidence),
					zap.Int("quarantined", res.Quarantined),
				)
			}
		}

		log.Info("ingest run complete",
			zap.Int("documents", len(paths)),
			zap.Int("added", added),
			zap.Int("already_known", skipped),
			zap.Int("failed", failed),
		)
		return nil
	},
}

// readPDFPaths collects newline-delimited paths, keeping only those ending
// in .pdf (case-insensitive).
func readPDFPaths(r io.Reader) []string {
	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasSuffix(strings.ToLower(line), ".pdf") {
			continue
		}
		paths = append(paths, line)
	}
	return paths
}

func init() {
	addTableFlags(ingestCmd)
	rootCmd.AddCommand(ingestCmd)
}
