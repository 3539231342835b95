// Package kb persists the four knowledge-base tables. Three backends share
// one interface: CSV files (the canonical interchange format), SQLite, and
// Postgres. All backends are append-only for rows; the only in-place
// mutation is filling in a paper's URL.
//
// The store assumes a single writer. Two concurrent runs against the same
// tables can both decide a key is new and double-insert; do not do that.
package kb

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/trondarild/ConCart/internal/model"
)

// ErrNotFound marks a backing table that does not exist at all. An empty
// table with the right columns is valid and is not this error; total
// absence is an initialization problem the caller handles (usually by
// telling the user to run `concart init`).
var ErrNotFound = eris.New("kb: table not found")

// Store is the durable holder of the four tables.
type Store interface {
	// Load returns all rows in append order. Returns ErrNotFound if the
	// backing table is absent.
	LoadPapers(ctx context.Context) ([]model.Paper, error)
	LoadObjects(ctx context.Context) ([]model.Object, error)
	LoadMorphisms(ctx context.Context) ([]model.Morphism, error)
	LoadEvidence(ctx context.Context) ([]model.Evidence, error)

	// Append adds rows, preserving existing rows and their order. A reader
	// after the call sees either the old table or the fully updated one.
	AppendPapers(ctx context.Context, rows []model.Paper) error
	AppendObjects(ctx context.Context, rows []model.Object) error
	AppendMorphisms(ctx context.Context, rows []model.Morphism) error
	AppendEvidence(ctx context.Context, rows []model.Evidence) error

	// SetPaperURL fills in the URL of an existing paper row. This is the
	// only row mutation the store supports.
	SetPaperURL(ctx context.Context, citationKey, url string) error

	// Point lookups used for dedup checks.
	HasPaper(ctx context.Context, citationKey string) (bool, error)
	HasObject(ctx context.Context, objectID string) (bool, error)

	// NextEvidenceID returns one greater than the current maximum
	// EvidenceID, or 1 for an empty table. It is computed from the
	// persisted data on every call so it stays correct across restarts.
	NextEvidenceID(ctx context.Context) (int, error)

	// Init creates empty tables with the required schema. Existing tables
	// and their rows are left untouched.
	Init(ctx context.Context) error

	Close() error
}
