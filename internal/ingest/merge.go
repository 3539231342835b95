// Package ingest turns analyzer extractions into durable table rows. The
// merge is idempotent under reruns: the citation key decides whether a
// document has been seen, objects and evidence dedup against the persisted
// tables, and evidence IDs are recomputed from storage on every merge.
package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/trondarild/ConCart/internal/analyzer"
	"github.com/trondarild/ConCart/internal/kb"
	"github.com/trondarild/ConCart/internal/model"
)

// Merger reconciles extractions against the knowledge base. It owns an
// in-memory snapshot of the citation keys taken at construction and
// extended with each accepted paper, so duplicates within one run are
// caught without re-reading storage per document. Not safe for concurrent
// use; the pipelines are strictly sequential.
type Merger struct {
	store     kb.Store
	morphisms map[string]model.Morphism
	seen      map[string]struct{}
	log       *zap.Logger
}

// NewMerger snapshots the existing citation keys and the morphism
// vocabulary. Both tables must exist (run `concart init` first).
func NewMerger(ctx context.Context, store kb.Store) (*Merger, error) {
	papers, err := store.LoadPapers(ctx)
	if err != nil {
		return nil, err
	}
	morphisms, err := store.LoadMorphisms(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(papers))
	for _, p := range papers {
		seen[p.CitationKey] = struct{}{}
	}
	vocab := make(map[string]model.Morphism, len(morphisms))
	for _, m := range morphisms {
		vocab[m.MorphismID] = m
	}

	return &Merger{
		store:     store,
		morphisms: vocab,
		seen:      seen,
		log:       zap.L(),
	}, nil
}

// Result reports what one merge changed.
type Result struct {
	CitationKey  string
	AlreadyKnown bool // paper existed; nothing was written
	NewObjects   int
	NewEvidence  int
	Quarantined  int // malformed sub-records dropped at the boundary
}

// Merge applies one extraction. Returns ErrNoKey (wrapped) when the
// bibliographic block cannot be keyed. Persistence order is papers, then
// objects, then evidence; a failure partway through is returned but not
// rolled back. Each table's own dedup key keeps a rerun from duplicating
// the rows that did land. (Known gap: once the paper row exists, a rerun
// of the same document is a no-op, so evidence lost to a partial failure
// is not re-derived.)
func (m *Merger) Merge(ctx context.Context, ex *analyzer.Extraction) (*Result, error) {
	bib := ex.Bibliographic
	key, err := DeriveKey(bib.Authors, bib.Year)
	if err != nil {
		return nil, err
	}
	res := &Result{CitationKey: key}
	log := m.log.With(zap.String("citation_key", key))

	if _, ok := m.seen[key]; ok {
		log.Info("paper already in knowledge base, skipping")
		res.AlreadyKnown = true
		return res, nil
	}

	paper := model.Paper{
		CitationKey: key,
		Authors:     bib.Authors,
		Year:        bib.Year,
		Title:       bib.Title,
		Publication: bib.Publication,
		// URL starts empty; the findurl pipeline fills it in later.
	}
	if err := m.store.AppendPapers(ctx, []model.Paper{paper}); err != nil {
		return res, err
	}
	m.seen[key] = struct{}{}
	log.Info("paper added")

	objects, quarantined, err := m.newObjects(ctx, ex.NewObjects, log)
	if err != nil {
		return res, err
	}
	res.Quarantined += quarantined
	if len(objects) > 0 {
		if err := m.store.AppendObjects(ctx, objects); err != nil {
			return res, err
		}
		res.NewObjects = len(objects)
		for _, o := range objects {
			log.Info("object added", zap.String("object_id", o.ObjectID))
		}
	}

	evidence, quarantined, err := m.newEvidence(ctx, key, ex.NewEvidence, log)
	if err != nil {
		return res, err
	}
	res.Quarantined += quarantined
	if len(evidence) > 0 {
		if err := m.store.AppendEvidence(ctx, evidence); err != nil {
			return res, err
		}
		res.NewEvidence = len(evidence)
		log.Info("evidence added", zap.Int("edges", len(evidence)))
	}

	return res, nil
}

// newObjects filters candidate objects down to the insertable ones:
// well-formed, not persisted yet, and not repeated within this document.
// Existing objects are never overwritten, even when the new description
// differs.
func (m *Merger) newObjects(ctx context.Context, candidates []model.Object, log *zap.Logger) ([]model.Object, int, error) {
	var out []model.Object
	quarantined := 0
	queued := make(map[string]struct{})

	for _, o := range candidates {
		if o.ObjectID == "" || !o.Type.Valid() {
			log.Warn("quarantined malformed object",
				zap.String("object_id", o.ObjectID),
				zap.String("type", string(o.Type)),
			)
			quarantined++
			continue
		}
		if _, ok := queued[o.ObjectID]; ok {
			continue
		}
		exists, err := m.store.HasObject(ctx, o.ObjectID)
		if err != nil {
			return nil, quarantined, err
		}
		if exists {
			continue
		}
		queued[o.ObjectID] = struct{}{}
		out = append(out, o)
	}
	return out, quarantined, nil
}

// newEvidence validates candidate edges against the morphism vocabulary,
// attaches the citation key, drops duplicates of persisted or same-batch
// edges, and assigns sequential IDs starting at one past the persisted
// maximum, preserving encounter order.
func (m *Merger) newEvidence(ctx context.Context, citationKey string, candidates []analyzer.EvidenceCandidate, log *zap.Logger) ([]model.Evidence, int, error) {
	if len(candidates) == 0 {
		return nil, 0, nil
	}

	existing, err := m.store.LoadEvidence(ctx)
	if err != nil {
		return nil, 0, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		known[e.EdgeKey()] = struct{}{}
	}

	nextID, err := m.store.NextEvidenceID(ctx)
	if err != nil {
		return nil, 0, err
	}

	var out []model.Evidence
	quarantined := 0
	for _, c := range candidates {
		if c.SourceID == "" || c.TargetID == "" || c.MorphismID == "" {
			log.Warn("quarantined incomplete evidence",
				zap.String("source_id", c.SourceID),
				zap.String("morphism_id", c.MorphismID),
				zap.String("target_id", c.TargetID),
			)
			quarantined++
			continue
		}
		if _, ok := m.morphisms[c.MorphismID]; !ok && len(m.morphisms) > 0 {
			log.Warn("quarantined evidence with unknown morphism",
				zap.String("morphism_id", c.MorphismID))
			quarantined++
			continue
		}

		e := model.Evidence{
			EvidenceID:  nextID,
			CitationKey: citationKey,
			SourceID:    c.SourceID,
			MorphismID:  c.MorphismID,
			TargetID:    c.TargetID,
			Notes:       c.Notes,
		}
		if _, ok := known[e.EdgeKey()]; ok {
			continue
		}
		known[e.EdgeKey()] = struct{}{}
		out = append(out, e)
		nextID++
	}
	return out, quarantined, nil
}
