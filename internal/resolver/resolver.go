// Package resolver fills in missing PDF URLs on a papers table. Each row
// moves through missing, resolving, and resolved or failed states, but
// only "resolved" is ever written back: a failed row simply keeps its
// empty URL and is retried on the next run. The table's own content is
// the resumption checkpoint; there is no separate progress file.
package resolver

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/trondarild/ConCart/internal/analyzer"
	"github.com/trondarild/ConCart/internal/model"
	"github.com/trondarild/ConCart/internal/resilience"
)

// PaperStore is the resolver's view of the papers table.
type PaperStore interface {
	// Load returns all rows and whether they came from a previous run's
	// output (resumed) or the fresh input.
	Load(ctx context.Context) ([]model.Paper, bool, error)
	// Save atomically rewrites the whole table.
	Save(ctx context.Context, rows []model.Paper) error
}

// Config tunes pacing and retries.
type Config struct {
	// Pacing is the minimum delay between consecutive analyzer calls,
	// applied regardless of outcome.
	Pacing time.Duration
	// Retry bounds the rate-limit retries per row.
	Retry resilience.Policy
}

// Summary counts per-row outcomes of one run.
type Summary struct {
	Total    int // rows in the table
	Pending  int // rows that were missing a URL at start
	Resolved int // rows that gained a URL this run
	NotFound int // analyzer answered, but with nothing usable
	Failed   int // analyzer call failed terminally
}

// Resolver drives the findurl pipeline.
type Resolver struct {
	store   PaperStore
	az      analyzer.Analyzer
	limiter *rate.Limiter
	retry   resilience.Policy
	log     *zap.Logger
}

// New creates a resolver. Pacing must be positive.
func New(store PaperStore, az analyzer.Analyzer, cfg Config) *Resolver {
	pacing := cfg.Pacing
	if pacing <= 0 {
		pacing = 1500 * time.Millisecond
	}
	return &Resolver{
		store:   store,
		az:      az,
		limiter: rate.NewLimiter(rate.Every(pacing), 1),
		retry:   cfg.Retry,
		log:     zap.L(),
	}
}

// Run processes every row missing a URL, strictly sequentially, persisting
// the whole table after each successful resolution. Per-row failures are
// logged and skipped; only context cancellation and persistence failures
// abort the run (an unpersisted resolution would silently vanish, so a
// save failure is not survivable).
func (r *Resolver) Run(ctx context.Context) (Summary, error) {
	papers, resumed, err := r.store.Load(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Total: len(papers)}
	for _, p := range papers {
		if !p.Resolved() {
			sum.Pending++
		}
	}
	r.log.Info("resolving missing pdf urls",
		zap.Int("rows", sum.Total),
		zap.Int("pending", sum.Pending),
		zap.Bool("resumed", resumed),
	)

	for i := range papers {
		if papers[i].Resolved() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "resolver: cancelled")
		}

		if err := r.resolveRow(ctx, papers, i, &sum); err != nil {
			return sum, err
		}
	}

	r.log.Info("resolution pass complete",
		zap.Int("resolved", sum.Resolved),
		zap.Int("not_found", sum.NotFound),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

func (r *Resolver) resolveRow(ctx context.Context, papers []model.Paper, i int, sum *Summary) error {
	p := papers[i]
	log := r.log.With(zap.String("citation_key", p.CitationKey), zap.String("title", p.Title))

	// Inter-request pacing, independent of outcome.
	if err := r.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "resolver: pacing wait")
	}

	retry := r.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("lookup_url")
	}
	candidate, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
		return r.az.LookupURL(ctx, p.Title, p.Authors, p.Year)
	})
	if err != nil {
		// Terminal for this row. The URL stays empty, so the next run
		// picks the row up again.
		log.Warn("lookup failed", zap.Error(err))
		sum.Failed++
		return nil
	}

	if !ValidPDFURL(candidate) {
		log.Info("no pdf url found", zap.String("reply", candidate))
		sum.NotFound++
		return nil
	}

	papers[i].URL = candidate
	if err := r.store.Save(ctx, papers); err != nil {
		return eris.Wrapf(err, "resolver: persist after %s", p.CitationKey)
	}
	log.Info("pdf url resolved", zap.String("url", candidate))
	sum.Resolved++
	return nil
}
