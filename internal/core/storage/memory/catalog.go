package memory

import (
	"context"
	"sort"
	"sync"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
)

// CatalogStore is an in-memory storage.CatalogStore.
// Useful for testing and development.
type CatalogStore struct {
	mu      sync.RWMutex
	records map[string]*v1.BookRecord
}

func NewCatalogStore() *CatalogStore {
	return &CatalogStore{records: make(map[string]*v1.BookRecord)}
}

func (s *CatalogStore) Get(_ context.Context, id string) (*v1.BookRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *CatalogStore) Put(_ context.Context, record *v1.BookRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record.Clone()
	return nil
}

func (s *CatalogStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *CatalogStore) Scan(_ context.Context) ([]*v1.BookRecord, error) {
	s.mu.RLock()
	out := make([]*v1.BookRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
