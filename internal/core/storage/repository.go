package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
)

var (
	// ErrNotFound is returned when a key or idempotency key is absent.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an activity entry reuses an idempotency key.
	ErrDuplicate = errors.New("entry already exists")
)

// CatalogStore is the keyed record store: book id -> BookRecord.
// Each Put and Delete is indivisible with respect to other operations on the same key.
type CatalogStore interface {
	// Get returns ErrNotFound when id is absent.
	Get(ctx context.Context, id string) (*v1.BookRecord, error)

	// Put unconditionally overwrites the record stored under record.ID.
	Put(ctx context.Context, record *v1.BookRecord) error

	// Delete returns ErrNotFound when id is absent.
	Delete(ctx context.Context, id string) error

	// Scan returns every record ordered by id. Each call is an independent pass.
	Scan(ctx context.Context) ([]*v1.BookRecord, error)
}

// ActivityLog is the append-only purchase history.
// Entries are never updated or removed.
type ActivityLog interface {
	// Append assigns ID and Seq and persists the entry.
	// Returns ErrDuplicate if entry.IdempotencyKey is already present.
	Append(ctx context.Context, entry v1.ActivityEntry) (v1.ActivityEntry, error)

	// Scan returns entries with from <= Timestamp < to, ordered by Timestamp then Seq.
	// A zero from or to leaves that side unbounded.
	Scan(ctx context.Context, from, to time.Time) ([]v1.ActivityEntry, error)

	// FindByIdempotencyKey returns ErrNotFound if no entry carries key.
	FindByIdempotencyKey(ctx context.Context, key string) (v1.ActivityEntry, error)
}

// PurchaseCommitter is implemented by backends that can run the
// read-check-decrement-append sequence in one native transaction.
type PurchaseCommitter interface {
	// CommitPurchase decrements stock and appends entry atomically.
	// check is called with the locked record and must return an error to abort.
	CommitPurchase(
		ctx context.Context,
		entry v1.ActivityEntry,
		check func(current *v1.BookRecord) error,
	) (*v1.BookRecord, v1.ActivityEntry, error)
}

// InWindow reports whether ts falls inside [from, to) with zero bounds open.
func InWindow(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && !ts.Before(to) {
		return false
	}
	return true
}
