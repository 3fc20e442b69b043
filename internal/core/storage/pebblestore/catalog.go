package pebblestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
)

// Keys are "book/<id>". The upper bound is the next byte after '/'.
var (
	bookPrefix     = []byte("book/")
	bookUpperBound = []byte("book0")
)

// CatalogStore implements storage.CatalogStore on an embedded Pebble database.
// Values are JSON-encoded BookRecords. Writes are synced to the WAL.
type CatalogStore struct {
	db *pebble.DB

	// Serializes the existence check in Delete against concurrent writers.
	mu sync.Mutex
}

// NewCatalogStore opens (or creates) a Pebble database in dir.
func NewCatalogStore(dir string) (*CatalogStore, error) {
	opts := &pebble.Options{
		MemTableSize:          64 << 20,
		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 12,
	}
	db, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	slog.Info("[Pebble] Catalog store opened", "dir", dir)
	return &CatalogStore{db: db}, nil
}

func bookKey(id string) []byte {
	k := make([]byte, 0, len(bookPrefix)+len(id))
	k = append(k, bookPrefix...)
	return append(k, id...)
}

func decodeRecord(val []byte) (*v1.BookRecord, error) {
	var rec v1.BookRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

func (s *CatalogStore) Get(_ context.Context, id string) (*v1.BookRecord, error) {
	val, closer, err := s.db.Get(bookKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get %q: %w", id, err)
	}
	defer closer.Close()
	return decodeRecord(val)
}

func (s *CatalogStore) Put(_ context.Context, record *v1.BookRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Set(bookKey(record.ID), b, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %q: %w", record.ID, err)
	}
	return nil
}

func (s *CatalogStore) Delete(_ context.Context, id string) error {
	key := bookKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("pebble get %q: %w", id, err)
	}
	closer.Close()

	if err := s.db.Delete(key, pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete %q: %w", id, err)
	}
	return nil
}

// Scan iterates the book keyspace. Pebble keys are byte-ordered, so the
// result is already sorted by id.
func (s *CatalogStore) Scan(ctx context.Context) ([]*v1.BookRecord, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: bookPrefix,
		UpperBound: bookUpperBound,
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()

	var out []*v1.BookRecord
	for it.First(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(it.Value())
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", it.Key(), err)
		}
		out = append(out, rec)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	return out, nil
}

// Close flushes and closes the database.
func (s *CatalogStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("pebble close: %w", err)
	}
	slog.Info("[Pebble] Catalog store closed")
	return nil
}
