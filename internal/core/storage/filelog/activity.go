package filelog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
)

// ActivityLog is a storage.ActivityLog backed by a JSON-lines file.
// Every Append writes one line and fsyncs. The file is replayed into an
// in-memory index on open; a torn last line (crash mid-write) is truncated away.
type ActivityLog struct {
	mu      sync.RWMutex
	path    string
	f       *os.File
	enc     *json.Encoder
	entries []v1.ActivityEntry
	byKey   map[string]int
	noSync  bool
}

// Option configures an ActivityLog.
type Option func(*ActivityLog)

// WithoutSync skips fsync after each append. Tests only.
func WithoutSync() Option {
	return func(l *ActivityLog) { l.noSync = true }
}

// Open opens or creates dir/filename and replays existing entries.
func Open(dir, filename string, opts ...Option) (*ActivityLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	l := &ActivityLog{
		path:  filepath.Join(dir, filename),
		byKey: make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.replay(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	l.f = f
	l.enc = json.NewEncoder(f)

	slog.Info("[ActivityLog] Opened", "path", l.path, "entries", len(l.entries))
	return l, nil
}

func (l *ActivityLog) replay() error {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read for replay: %w", err)
	}

	line := 0
	for off := 0; off < len(data); {
		line++
		end := bytes.IndexByte(data[off:], '\n')
		terminated := end >= 0
		next := len(data)
		if terminated {
			end += off
			next = end + 1
		} else {
			end = len(data)
		}

		raw := data[off:end]
		if len(bytes.TrimSpace(raw)) == 0 {
			off = next
			continue
		}

		var e v1.ActivityEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			if terminated {
				return fmt.Errorf("%s line %d: %w", l.path, line, err)
			}
			slog.Warn("[ActivityLog] Dropping torn trailing line", "path", l.path, "line", line, "error", err)
			if err := os.Truncate(l.path, int64(off)); err != nil {
				return fmt.Errorf("truncate torn tail: %w", err)
			}
			return nil
		}
		l.index(e)

		if !terminated {
			// Complete entry whose newline never made it to disk.
			if err := appendNewline(l.path); err != nil {
				return err
			}
		}
		off = next
	}
	return nil
}

func appendNewline(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	if _, err := f.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("repair newline: %w", err)
	}
	return nil
}

func (l *ActivityLog) index(e v1.ActivityEntry) {
	l.entries = append(l.entries, e)
	if e.IdempotencyKey != "" {
		l.byKey[e.IdempotencyKey] = len(l.entries) - 1
	}
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
	if n := len(l.entries); n > 0 && l.entries[n-1].Seq >= entry.Seq {
		entry.Seq = l.entries[n-1].Seq + 1
	}

	if err := l.enc.Encode(&entry); err != nil {
		return v1.ActivityEntry{}, fmt.Errorf("encode: %w", err)
	}
	if !l.noSync {
		if err := l.f.Sync(); err != nil {
			return v1.ActivityEntry{}, fmt.Errorf("sync: %w", err)
		}
	}

	l.index(entry)
	return entry, nil
}

func (l *ActivityLog) Scan(_ context.Context, from, to time.Time) ([]v1.ActivityEntry, error) {
	l.mu.RLock()
	var out []v1.ActivityEntry
	for _, e := range l.entries {
		if storage.InWindow(e.Timestamp, from, to) {
			out = append(out, e)
		}
	}
	l.mu.RUnlock()

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

// Path returns the backing file path.
func (l *ActivityLog) Path() string { return l.path }

func (l *ActivityLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
