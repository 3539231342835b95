package kb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/trondarild/ConCart/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which is how the postgres backend is unit-tested without a server.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store over a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS papers (
	seq          BIGSERIAL,
	citation_key TEXT PRIMARY KEY,
	authors      TEXT NOT NULL,
	year         INTEGER NOT NULL,
	title        TEXT NOT NULL,
	publication  TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS objects (
	seq         BIGSERIAL,
	object_id   TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS morphisms (
	seq         BIGSERIAL,
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

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: init")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// undefinedTable is the Postgres error code for a missing relation.
const undefinedTable = "42P01"

func pgLoadErr(err error, table string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return eris.Wrapf(ErrNotFound, "%s", table)
	}
	return eris.Wrapf(err, "postgres: load %s", table)
}

func (s *PostgresStore) LoadPapers(ctx context.Context) ([]model.Paper, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT citation_key, authors, year, title, publication, url FROM papers ORDER BY seq`)
	if err != nil {
		return nil, pgLoadErr(err, "papers")
	}
	defer rows.Close()

	out := []model.Paper{}
	for rows.Next() {
		var p model.Paper
		if err := rows.Scan(&p.CitationKey, &p.Authors, &p.Year, &p.Title, &p.Publication, &p.URL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan paper")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: load papers iterate")
}

func (s *PostgresStore) LoadObjects(ctx context.Context) ([]model.Object, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT object_id, name, type, description FROM objects ORDER BY seq`)
	if err != nil {
		return nil, pgLoadErr(err, "objects")
	}
	defer rows.Close()

	out := []model.Object{}
	for rows.Next() {
		var o model.Object
		if err := rows.Scan(&o.ObjectID, &o.Name, &o.Type, &o.Description); err != nil {
			return nil, eris.Wrap(err, "postgres: scan object")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: load objects iterate")
}

func (s *PostgresStore) LoadMorphisms(ctx context.Context) ([]model.Morphism, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT morphism_id, source_type, target_type, label FROM morphisms ORDER BY seq`)
	if err != nil {
		return nil, pgLoadErr(err, "morphisms")
	}
	defer rows.Close()

	out := []model.Morphism{}
	for rows.Next() {
		var m model.Morphism
		if err := rows.Scan(&m.MorphismID, &m.SourceType, &m.TargetType, &m.Label); err != nil {
			return nil, eris.Wrap(err, "postgres: scan morphism")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: load morphisms iterate")
}

func (s *PostgresStore) LoadEvidence(ctx context.Context) ([]model.Evidence, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT evidence_id, citation_key, source_id, morphism_id, target_id, notes FROM evidence ORDER BY evidence_id`)
	if err != nil {
		return nil, pgLoadErr(err, "evidence")
	}
	defer rows.Close()

	out := []model.Evidence{}
	for rows.Next() {
		var e model.Evidence
		if err := rows.Scan(&e.EvidenceID, &e.CitationKey, &e.SourceID, &e.MorphismID, &e.TargetID, &e.Notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan evidence")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: load evidence iterate")
}

func (s *PostgresStore) AppendPapers(ctx context.Context, rows []model.Paper) error {
	return s.appendRows(ctx, "papers",
		`INSERT INTO papers (citation_key, authors, year, title, publication, url) VALUES ($1, $2, $3, $4, $5, $6)`,
		len(rows), func(i int) []any {
			p := rows[i]
			return []any{p.CitationKey, p.Authors, p.Year, p.Title, p.Publication, p.URL}
		})
}

func (s *PostgresStore) AppendObjects(ctx context.Context, rows []model.Object) error {
	return s.appendRows(ctx, "objects",
		`INSERT INTO objects (object_id, name, type, description) VALUES ($1, $2, $3, $4)`,
		len(rows), func(i int) []any {
			o := rows[i]
			return []any{o.ObjectID, o.Name, string(o.Type), o.Description}
		})
}

func (s *PostgresStore) AppendMorphisms(ctx context.Context, rows []model.Morphism) error {
	return s.appendRows(ctx, "morphisms",
		`INSERT INTO morphisms (morphism_id, source_type, target_type, label) VALUES ($1, $2, $3, $4)`,
		len(rows), func(i int) []any {
			m := rows[i]
			return []any{m.MorphismID, m.SourceType, m.TargetType, m.Label}
		})
}

func (s *PostgresStore) AppendEvidence(ctx context.Context, rows []model.Evidence) error {
	return s.appendRows(ctx, "evidence",
		`INSERT INTO evidence (evidence_id, citation_key, source_id, morphism_id, target_id, notes) VALUES ($1, $2, $3, $4, $5, $6)`,
		len(rows), func(i int) []any {
			e := rows[i]
			return []any{e.EvidenceID, e.CitationKey, e.SourceID, e.MorphismID, e.TargetID, e.Notes}
		})
}

func (s *PostgresStore) appendRows(ctx context.Context, table, query string, n int, args func(int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "postgres: begin append %s", table)
	}
	for i := 0; i < n; i++ {
		if _, err := tx.Exec(ctx, query, args(i)...); err != nil {
			tx.Rollback(ctx)
			return eris.Wrapf(err, "postgres: append %s", table)
		}
	}
	return eris.Wrapf(tx.Commit(ctx), "postgres: commit append %s", table)
}

func (s *PostgresStore) SetPaperURL(ctx context.Context, citationKey, url string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE papers SET url = $1 WHERE citation_key = $2`, url, citationKey)
	if err != nil {
		return eris.Wrapf(err, "postgres: set url %s", citationKey)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("kb: paper not found: %s", citationKey)
	}
	return nil
}

func (s *PostgresStore) HasPaper(ctx context.Context, citationKey string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM papers WHERE citation_key = $1`, citationKey)
}

func (s *PostgresStore) HasObject(ctx context.Context, objectID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM objects WHERE object_id = $1`, objectID)
}

func (s *PostgresStore) exists(ctx context.Context, query, key string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, query, key).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: exists")
	}
	return true, nil
}

func (s *PostgresStore) NextEvidenceID(ctx context.Context) (int, error) {
	var next int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(evidence_id), 0) + 1 FROM evidence`).Scan(&next)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: next evidence id")
	}
	return next, nil
}
