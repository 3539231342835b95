package kb

import (
	"context"

	"github.com/trondarild/ConCart/internal/model"
)

// StorePapers adapts a Store's papers table to the resolver's load/save
// view. Load always reports resumed, since a database table carries its own
// progress. Save persists per row through SetPaperURL instead of rewriting
// the table, diffing against the URLs seen at the last Load.
type StorePapers struct {
	store Store
	urls  map[string]string
}

// NewStorePapers wraps the papers table of store.
func NewStorePapers(store Store) *StorePapers {
	return &StorePapers{store: store}
}

func (s *StorePapers) Load(ctx context.Context) ([]model.Paper, bool, error) {
	rows, err := s.store.LoadPapers(ctx)
	if err != nil {
		return nil, false, err
	}
	s.urls = make(map[string]string, len(rows))
	for _, p := range rows {
		s.urls[p.CitationKey] = p.URL
	}
	return rows, true, nil
}

func (s *StorePapers) Save(ctx context.Context, rows []model.Paper) error {
	for _, p := range rows {
		if s.urls[p.CitationKey] == p.URL {
			continue
		}
		if err := s.store.SetPaperURL(ctx, p.CitationKey, p.URL); err != nil {
			return err
		}
		s.urls[p.CitationKey] = p.URL
	}
	return nil
}
