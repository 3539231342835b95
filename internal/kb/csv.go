package kb

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/trondarild/ConCart/internal/model"
)

// CSVPaths names the backing file of each table.
type CSVPaths struct {
	Papers    string `yaml:"papers" mapstructure:"papers"`
	Objects   string `yaml:"objects" mapstructure:"objects"`
	Morphisms string `yaml:"morphisms" mapstructure:"morphisms"`
	Evidence  string `yaml:"evidence" mapstructure:"evidence"`
}

// CSVStore implements Store over one UTF-8 CSV file per table, header row
// first, standard quoting. Every write rewrites the whole table to a temp
// file and renames it into place, so readers never observe a partial table.
type CSVStore struct {
	paths CSVPaths
}

// NewCSV creates a CSV-backed store. The files need not exist yet; Init
// creates them.
func NewCSV(paths CSVPaths) *CSVStore {
	return &CSVStore{paths: paths}
}

func (s *CSVStore) LoadPapers(ctx context.Context) ([]model.Paper, error) {
	return readTable[model.Paper](ctx, s.paths.Papers)
}

func (s *CSVStore) LoadObjects(ctx context.Context) ([]model.Object, error) {
	return readTable[model.Object](ctx, s.paths.Objects)
}

func (s *CSVStore) LoadMorphisms(ctx context.Context) ([]model.Morphism, error) {
	return readTable[model.Morphism](ctx, s.paths.Morphisms)
}

func (s *CSVStore) LoadEvidence(ctx context.Context) ([]model.Evidence, error) {
	return readTable[model.Evidence](ctx, s.paths.Evidence)
}

func (s *CSVStore) AppendPapers(ctx context.Context, rows []model.Paper) error {
	return appendTable(ctx, s.paths.Papers, rows)
}

func (s *CSVStore) AppendObjects(ctx context.Context, rows []model.Object) error {
	return appendTable(ctx, s.paths.Objects, rows)
}

func (s *CSVStore) AppendMorphisms(ctx context.Context, rows []model.Morphism) error {
	return appendTable(ctx, s.paths.Morphisms, rows)
}

func (s *CSVStore) AppendEvidence(ctx context.Context, rows []model.Evidence) error {
	return appendTable(ctx, s.paths.Evidence, rows)
}

func (s *CSVStore) SetPaperURL(ctx context.Context, citationKey, url string) error {
	papers, err := s.LoadPapers(ctx)
	if err != nil {
		return err
	}
	for i := range papers {
		if papers[i].CitationKey == citationKey {
			papers[i].URL = url
			return writeTable(s.paths.Papers, papers)
		}
	}
	return eris.Errorf("kb: paper not found: %s", citationKey)
}

func (s *CSVStore) HasPaper(ctx context.Context, citationKey string) (bool, error) {
	papers, err := s.LoadPapers(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range papers {
		if p.CitationKey == citationKey {
			return true, nil
		}
	}
	return false, nil
}

func (s *CSVStore) HasObject(ctx context.Context, objectID string) (bool, error) {
	objects, err := s.LoadObjects(ctx)
	if err != nil {
		return false, err
	}
	for _, o := range objects {
		if o.ObjectID == objectID {
			return true, nil
		}
	}
	return false, nil
}

func (s *CSVStore) NextEvidenceID(ctx context.Context) (int, error) {
	evidence, err := s.LoadEvidence(ctx)
	if err != nil {
		return 0, err
	}
	maxID := 0
	for _, e := range evidence {
		if e.EvidenceID > maxID {
			maxID = e.EvidenceID
		}
	}
	return maxID + 1, nil
}

// Init creates any missing table file as a bare header row. Existing files
// are left alone.
func (s *CSVStore) Init(ctx context.Context) error {
	if err := initTable[model.Paper](s.paths.Papers); err != nil {
		return err
	}
	if err := initTable[model.Object](s.paths.Objects); err != nil {
		return err
	}
	if err := initTable[model.Morphism](s.paths.Morphisms); err != nil {
		return err
	}
	return initTable[model.Evidence](s.paths.Evidence)
}

func (s *CSVStore) Close() error { return nil }

// --- file helpers ---

func readTable[T any](ctx context.Context, path string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "kb: context cancelled")
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, eris.Wrapf(ErrNotFound, "%s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "kb: read %s", path)
	}

	var rows []T
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "kb: parse %s", path)
	}
	return rows, nil
}

func appendTable[T any](ctx context.Context, path string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	existing, err := readTable[T](ctx, path)
	if err != nil {
		return err
	}
	return writeTable(path, append(existing, rows...))
}

func initTable[T any](path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return eris.Wrapf(err, "kb: stat %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "kb: mkdir %s", dir)
		}
	}
	return writeTable(path, []T{})
}

// writeTable rewrites the whole table. The header is always emitted, even
// for zero rows, so an initialized-but-empty table stays distinguishable
// from a missing one. The temp-file-plus-rename makes the rewrite atomic
// from a reader's perspective.
func writeTable[T any](path string, rows []T) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return eris.Wrapf(err, "kb: encode header %s", path)
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "kb: encode row %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "kb: flush %s", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "kb: temp file for %s", path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrapf(err, "kb: write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "kb: close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "kb: rename %s", path)
	}
	return nil
}
