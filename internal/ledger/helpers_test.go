package ledger

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage/memory"
)

var errLogDown = errors.New("log unavailable")

// failingLog wraps a memory log and fails Append while failAppend is set.
type failingLog struct {
	*memory.ActivityLog
	mu         sync.Mutex
	failAppend bool
}

func (l *failingLog) setFail(v bool) {
	l.mu.Lock()
	l.failAppend = v
	l.mu.Unlock()
}

func (l *failingLog) Append(ctx context.Context, e v1.ActivityEntry) (v1.ActivityEntry, error) {
	l.mu.Lock()
	fail := l.failAppend
	l.mu.Unlock()
	if fail {
		return v1.ActivityEntry{}, errLogDown
	}
	return l.ActivityLog.Append(ctx, e)
}

// fakeCommitter runs CommitPurchase against memory stores under one mutex.
type fakeCommitter struct {
	mu      sync.Mutex
	catalog *memory.CatalogStore
	log     *memory.ActivityLog
	calls   int
}

func (c *fakeCommitter) CommitPurchase(ctx context.Context, entry v1.ActivityEntry, check func(*v1.BookRecord) error) (*v1.BookRecord, v1.ActivityEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	rec, err := c.catalog.Get(ctx, entry.BookID)
	if err != nil {
		return nil, v1.ActivityEntry{}, err
	}
	if err := check(rec); err != nil {
		return nil, v1.ActivityEntry{}, err
	}
	if entry.IdempotencyKey != "" {
		if _, err := c.log.FindByIdempotencyKey(ctx, entry.IdempotencyKey); err == nil {
			return nil, v1.ActivityEntry{}, storage.ErrDuplicate
		}
	}
	rec.QuantityOnHand -= entry.Quantity
	if err := c.catalog.Put(ctx, rec); err != nil {
		return nil, v1.ActivityEntry{}, err
	}
	appended, err := c.log.Append(ctx, entry)
	if err != nil {
		return nil, v1.ActivityEntry{}, err
	}
	return rec, appended, nil
}

// gatedLog parks Append until release is closed and counts idempotency lookups.
type gatedLog struct {
	*memory.ActivityLog
	entered chan struct{}
	release chan struct{}
	finds   atomic.Int32
}

func newGatedLog() *gatedLog {
	return &gatedLog{
		ActivityLog: memory.NewActivityLog(),
		entered:     make(chan struct{}, 8),
		release:     make(chan struct{}),
	}
}

func (l *gatedLog) Append(ctx context.Context, e v1.ActivityEntry) (v1.ActivityEntry, error) {
	l.entered <- struct{}{}
	<-l.release
	return l.ActivityLog.Append(ctx, e)
}

func (l *gatedLog) FindByIdempotencyKey(ctx context.Context, key string) (v1.ActivityEntry, error) {
	l.finds.Add(1)
	return l.ActivityLog.FindByIdempotencyKey(ctx, key)
}

// blockingPublisher parks Publish until release is closed.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (p *blockingPublisher) Publish(_ context.Context, _ v1.ActivityEntry) error {
	p.entered <- struct{}{}
	<-p.release
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []v1.ActivityEntry
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, e v1.ActivityEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, e)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.CatalogStore, *memory.ActivityLog) {
	t.Helper()
	catalog := memory.NewCatalogStore()
	log := memory.NewActivityLog()
	return NewService(catalog, log, opts...), catalog, log
}

func book(id, category string, qty string) BookInput {
	return BookInput{
		ID:              id,
		Title:           "Title " + id,
		Category:        category,
		Author:          "Author " + id,
		PublicationYear: "2024",
		Quantity:        qty,
	}
}

func formatInt(n int64) string { return strconv.FormatInt(n, 10) }
