package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
)

// ActivityLog is an in-memory storage.ActivityLog.
// Entries are kept in append order; Seq starts at 1.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []v1.ActivityEntry
	byKey   map[string]int
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{byKey: make(map[string]int)}
}

func (l *ActivityLog) Append(_ context.Context, entry v1.ActivityEntry) (v1.ActivityEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.IdempotencyKey != "" {
		if _, exists := l.byKey[entry.IdempotencyKey]; exists {
			return v1.ActivityEntry{}, storage.ErrDuplicate
		}
	}

	if entry.ID == "" {
		entry.ID = storage.NewEntryID()
	}
	entry.Seq = int64(len(l.entries) + 1)
	l.entries = append(l.entries, entry)
	if entry.IdempotencyKey != "" {
		l.byKey[entry.IdempotencyKey] = len(l.entries) - 1
	}
	return entry, nil
}

func (l *ActivityLog) Scan(_ context.Context, from, to time.Time) ([]v1.ActivityEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []v1.ActivityEntry
	for _, e := range l.entries {
		if storage.InWindow(e.Timestamp, from, to) {
			out = append(out, e)
		}
	}
	// Append order is Seq order; a stable sort keeps it for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (l *ActivityLog) FindByIdempotencyKey(_ context.Context, key string) (v1.ActivityEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.byKey[key]
	if !ok || key == "" {
		return v1.ActivityEntry{}, storage.ErrNotFound
	}
	return l.entries[i], nil
}

// Len returns the number of appended entries.
func (l *ActivityLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
