package kb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/trondarild/ConCart/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Row order is
// preserved via rowid; uniqueness invariants are enforced by the schema as
// well as by the merge logic.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. Run Init before first use.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS papers (
	citation_key TEXT PRIMARY KEY,
	authors      TEXT NOT NULL,
	year         INTEGER NOT NULL,
	title        TEXT NOT NULL,
	publication  TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS objects (
	object_id   TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS morphisms (
	morphism_id TEXT PRIMARY KEY,
	source_type TEXT NOT NULL,
	target_type TEXT NOT NULL,
	label       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence (
	evidence_id  INTEGER PRIMARY KEY,
	citation_key TEXT NOT NULL REFERENCES papers(citation_key),
	source_id    TEXT NOT NULL,
	morphism_id  TEXT NOT NULL,
	target_id    TEXT NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	UNIQUE (citation_key, source_id, morphism_id, target_id)
);
`

func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: init")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// wrapLoadErr maps "no such table" onto ErrNotFound so callers see the
// same error a missing CSV file produces.
func wrapLoadErr(err error, table string) error {
	if strings.Contains(err.Error(), "no such table") {
		return eris.Wrapf(ErrNotFound, "%s", table)
	}
	return eris.Wrapf(err, "sqlite: load %s", table)
}

func (s *SQLiteStore) LoadPapers(ctx context.Context) ([]model.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT citation_key, authors, year, title, publication, url FROM papers ORDER BY rowid`)
	if err != nil {
		return nil, wrapLoadErr(err, "papers")
	}
	defer rows.Close()

	out := []model.Paper{}
	for rows.Next() {
		var p model.Paper
		if err := rows.Scan(&p.CitationKey, &p.Authors, &p.Year, &p.Title, &p.Publication, &p.URL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan paper")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: load papers iterate")
}

func (s *SQLiteStore) LoadObjects(ctx context.Context) ([]model.Object, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT object_id, name, type, description FROM objects ORDER BY rowid`)
	if err != nil {
		return nil, wrapLoadErr(err, "objects")
	}
	defer rows.Close()

	out := []model.Object{}
	for rows.Next() {
		var o model.Object
		if err := rows.Scan(&o.ObjectID, &o.Name, &o.Type, &o.Description); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan object")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: load objects iterate")
}

func (s *SQLiteStore) LoadMorphisms(ctx context.Context) ([]model.Morphism, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT morphism_id, source_type, target_type, label FROM morphisms ORDER BY rowid`)
	if err != nil {
		return nil, wrapLoadErr(err, "morphisms")
	}
	defer rows.Close()

	out := []model.Morphism{}
	for rows.Next() {
		var m model.Morphism
		if err := rows.Scan(&m.MorphismID, &m.SourceType, &m.TargetType, &m.Label); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan morphism")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: load morphisms iterate")
}

func (s *SQLiteStore) LoadEvidence(ctx context.Context) ([]model.Evidence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT evidence_id, citation_key, source_id, morphism_id, target_id, notes FROM evidence ORDER BY rowid`)
	if err != nil {
		return nil, wrapLoadErr(err, "evidence")
	}
	defer rows.Close()

	out := []model.Evidence{}
	for rows.Next() {
		var e model.Evidence
		if err := rows.Scan(&e.EvidenceID, &e.CitationKey, &e.SourceID, &e.MorphismID, &e.TargetID, &e.Notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evidence")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: load evidence iterate")
}

func (s *SQLiteStore) AppendPapers(ctx context.Context, rows []model.Paper) error {
	return s.appendRows(ctx, "papers",
		`INSERT INTO papers (citation_key, authors, year, title, publication, url) VALUES (?, ?, ?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			p := rows[i]
			return []any{p.CitationKey, p.Authors, p.Year, p.Title, p.Publication, p.URL}
		})
}

func (s *SQLiteStore) AppendObjects(ctx context.Context, rows []model.Object) error {
	return s.appendRows(ctx, "objects",
		`INSERT INTO objects (object_id, name, type, description) VALUES (?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			o := rows[i]
			return []any{o.ObjectID, o.Name, string(o.Type), o.Description}
		})
}

func (s *SQLiteStore) AppendMorphisms(ctx context.Context, rows []model.Morphism) error {
	return s.appendRows(ctx, "morphisms",
		`INSERT INTO morphisms (morphism_id, source_type, target_type, label) VALUES (?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			m := rows[i]
			return []any{m.MorphismID, m.SourceType, m.TargetType, m.Label}
		})
}

func (s *SQLiteStore) AppendEvidence(ctx context.Context, rows []model.Evidence) error {
	return s.appendRows(ctx, "evidence",
		`INSERT INTO evidence (evidence_id, citation_key, source_id, morphism_id, target_id, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			e := rows[i]
			return []any{e.EvidenceID, e.CitationKey, e.SourceID, e.MorphismID, e.TargetID, e.Notes}
		})
}

// appendRows inserts all rows inside one transaction so partially applied
// appends are never visible.
func (s *SQLiteStore) appendRows(ctx context.Context, table, query string, n int, args func(int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin append %s", table)
	}
	for i := 0; i < n; i++ {
		if _, err := tx.ExecContext(ctx, query, args(i)...); err != nil {
			tx.Rollback()
			return eris.Wrapf(err, "sqlite: append %s", table)
		}
	}
	return eris.Wrapf(tx.Commit(), "sqlite: commit append %s", table)
}

func (s *SQLiteStore) SetPaperURL(ctx context.Context, citationKey, url string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE papers SET url = ? WHERE citation_key = ?`, url, citationKey)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set url %s", citationKey)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("kb: paper not found: %s", citationKey)
	}
	return nil
}

func (s *SQLiteStore) HasPaper(ctx context.Context, citationKey string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM papers WHERE citation_key = ?`, citationKey)
}

func (s *SQLiteStore) HasObject(ctx context.Context, objectID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM objects WHERE object_id = ?`, objectID)
}

func (s *SQLiteStore) exists(ctx context.Context, query, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: exists")
	}
	return true, nil
}

func (s *SQLiteStore) NextEvidenceID(ctx context.Context) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(evidence_id), 0) + 1 FROM evidence`).Scan(&next)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: next evidence id")
	}
	return next, nil
}
