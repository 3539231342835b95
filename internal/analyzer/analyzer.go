// Package analyzer is the boundary to the generative text service. The
// pipelines see two operations: a short-text PDF-link lookup and a full
// document analysis constrained to the existing vocabulary. Everything
// about prompts, attachments, and reply parsing stays behind this line.
package analyzer

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/trondarild/ConCart/internal/model"
)

// ErrParse marks analyzer output that could not be decoded into the
// expected structure. Non-retryable; the item is skipped.
var ErrParse = eris.New("analyzer: unparseable response")

// Vocabulary is the context payload embedded in every analysis request so
// the service reuses known identifiers instead of minting duplicates.
type Vocabulary struct {
	Objects   []model.Object
	Morphisms []model.Morphism
}

// Bibliographic is the citation block of an analysis result.
type Bibliographic struct {
	Authors     string `json:"authors"`
	Year        int    `json:"year"`
	Title       string `json:"title"`
	Publication string `json:"publication"`
}

// EvidenceCandidate is one asserted relation from an analysis result. The
// CitationKey is attached later by the merge engine.
type EvidenceCandidate struct {
	SourceID   string `json:"SourceID"`
	MorphismID string `json:"MorphismID"`
	TargetID   string `json:"TargetID"`
	Notes      string `json:"Notes"`
}

// Extraction is the structured record returned by AnalyzeDocument.
type Extraction struct {
	Bibliographic Bibliographic       `json:"bibliographic"`
	NewObjects    []model.Object      `json:"new_objects"`
	NewEvidence   []EvidenceCandidate `json:"new_evidence"`
}

// Analyzer is the external collaborator both pipelines call.
type Analyzer interface {
	// LookupURL asks for a direct PDF link for the given paper. The reply
	// is a single line of raw text: either a URL or a not-found sentinel.
	// Validation is the caller's job. Rate limiting surfaces as a
	// resilience.RateLimitError; other failures are non-retryable.
	LookupURL(ctx context.Context, title, authors string, year int) (string, error)

	// AnalyzeDocument sends the document bytes plus the vocabulary and
	// returns the extracted record. Fails with ErrParse (wrapped) when the
	// reply does not decode.
	AnalyzeDocument(ctx context.Context, pdf []byte, vocab Vocabulary) (*Extraction, error)
}
