package kb

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trondarild/ConCart/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresLoadPapers(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT citation_key, authors, year, title, publication, url FROM papers").
		WillReturnRows(pgxmock.NewRows([]string{"citation_key", "authors", "year", "title", "publication", "url"}).
			AddRow("Smith2023", "John Smith", 2023, "T", "J", "").
			AddRow("Doe2021", "Jane Doe", 2021, "U", "", "https://example.org/u.pdf"))

	papers, err := store.LoadPapers(context.Background())
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, "Smith2023", papers[0].CitationKey)
	assert.True(t, papers[1].Resolved())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadMissingTable(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT .+ FROM evidence").
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "evidence" does not exist`})

	_, err := store.LoadEvidence(context.Background())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendEvidence(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	rows := []model.Evidence{
		{EvidenceID: 1, CitationKey: "Smith2023", SourceID: "s", MorphismID: "m", TargetID: "t", Notes: "n"},
		{EvidenceID: 2, CitationKey: "Smith2023", SourceID: "s", MorphismID: "m", TargetID: "u"},
	}

	mock.ExpectBegin()
	for _, e := range rows {
		mock.ExpectExec("INSERT INTO evidence").
			WithArgs(e.EvidenceID, e.CitationKey, e.SourceID, e.MorphismID, e.TargetID, e.Notes).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.AppendEvidence(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendRollsBackOnError(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO papers").
		WithArgs("Smith2023", "John Smith", 2023, "T", "", "").
		WillReturnError(eris.New("duplicate key"))
	mock.ExpectRollback()

	err := store.AppendPapers(context.Background(), []model.Paper{
		{CitationKey: "Smith2023", Authors: "John Smith", Year: 2023, Title: "T"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendEmpty(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	require.NoError(t, store.AppendPapers(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetPaperURL(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("UPDATE papers SET url").
		WithArgs("https://example.org/p.pdf", "Smith2023").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SetPaperURL(context.Background(), "Smith2023", "https://example.org/p.pdf"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetPaperURLNotFound(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("UPDATE papers SET url").
		WithArgs("https://example.org/p.pdf", "Nobody1999").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.Error(t, store.SetPaperURL(context.Background(), "Nobody1999", "https://example.org/p.pdf"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHasObject(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT 1 FROM objects").
		WithArgs("theory:x").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := store.HasObject(context.Background(), "theory:x")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery("SELECT 1 FROM objects").
		WithArgs("theory:y").
		WillReturnError(pgx.ErrNoRows)

	ok, err = store.HasObject(context.Background(), "theory:y")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNextEvidenceID(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(evidence_id\), 0\) \+ 1 FROM evidence`).
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(4))

	next, err := store.NextEvidenceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInit(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS papers").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
