// Package storagetest holds the behavioural contract every storage backend must meet.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
	"github.com/stretchr/testify/require"
)

// RunCatalogStore exercises a fresh CatalogStore returned by newStore.
func RunCatalogStore(t *testing.T, newStore func(t *testing.T) storage.CatalogStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "nope")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		s := newStore(t)
		rec := &v1.BookRecord{ID: "S001", Title: "Lap Trinh Blockchain", Category: "CNTT", Author: "Nguyen Van A", PublicationYear: "2023", QuantityOnHand: 100}
		require.NoError(t, s.Put(ctx, rec))

		got, err := s.Get(ctx, "S001")
		require.NoError(t, err)
		require.Equal(t, *rec, *got)
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, &v1.BookRecord{ID: "S001", QuantityOnHand: 1}))
		require.NoError(t, s.Put(ctx, &v1.BookRecord{ID: "S001", Title: "new", QuantityOnHand: 2}))

		got, err := s.Get(ctx, "S001")
		require.NoError(t, err)
		require.Equal(t, "new", got.Title)
		require.Equal(t, int64(2), got.QuantityOnHand)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		s := newStore(t)
		rec := &v1.BookRecord{ID: "S001", QuantityOnHand: 5}
		require.NoError(t, s.Put(ctx, rec))
		rec.QuantityOnHand = 99

		got, err := s.Get(ctx, "S001")
		require.NoError(t, err)
		require.Equal(t, int64(5), got.QuantityOnHand)
		got.QuantityOnHand = 42

		again, err := s.Get(ctx, "S001")
		require.NoError(t, err)
		require.Equal(t, int64(5), again.QuantityOnHand)
	})

	t.Run("delete removes and second delete is ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, &v1.BookRecord{ID: "S001"}))
		require.NoError(t, s.Delete(ctx, "S001"))
		_, err := s.Get(ctx, "S001")
		require.ErrorIs(t, err, storage.ErrNotFound)
		require.ErrorIs(t, s.Delete(ctx, "S001"), storage.ErrNotFound)
	})

	t.Run("scan is id ordered and restartable", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"S003", "S001", "S002"} {
			require.NoError(t, s.Put(ctx, &v1.BookRecord{ID: id}))
		}

		first, err := s.Scan(ctx)
		require.NoError(t, err)
		second, err := s.Scan(ctx)
		require.NoError(t, err)

		require.Equal(t, []string{"S001", "S002", "S003"}, ids(first))
		require.Equal(t, ids(first), ids(second))
	})

	t.Run("scan of empty store", func(t *testing.T) {
		s := newStore(t)
		recs, err := s.Scan(ctx)
		require.NoError(t, err)
		require.Empty(t, recs)
	})
}

// RunActivityLog exercises a fresh ActivityLog returned by newLog.
func RunActivityLog(t *testing.T, newLog func(t *testing.T) storage.ActivityLog) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("append assigns id and increasing seq", func(t *testing.T) {
		l := newLog(t)
		a, err := l.Append(ctx, v1.ActivityEntry{BookID: "B1", Quantity: 5, Actor: "alice", Timestamp: base})
		require.NoError(t, err)
		b, err := l.Append(ctx, v1.ActivityEntry{BookID: "B2", Quantity: 3, Actor: "bob", Timestamp: base})
		require.NoError(t, err)

		require.NotEmpty(t, a.ID)
		require.NotEqual(t, a.ID, b.ID)
		require.Greater(t, b.Seq, a.Seq)
	})

	t.Run("scan filters by half-open window in timestamp order", func(t *testing.T) {
		l := newLog(t)
		for i := 0; i < 5; i++ {
			_, err := l.Append(ctx, v1.ActivityEntry{
				BookID:    fmt.Sprintf("B%d", i),
				Quantity:  1,
				Actor:     "alice",
				Timestamp: base.Add(time.Duration(i) * time.Hour),
			})
			require.NoError(t, err)
		}

		got, err := l.Scan(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "B1", got[0].BookID)
		require.Equal(t, "B2", got[1].BookID)

		all, err := l.Scan(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i := 1; i < len(all); i++ {
			require.False(t, all[i].Timestamp.Before(all[i-1].Timestamp))
		}
	})

	t.Run("equal timestamps keep append order", func(t *testing.T) {
		l := newLog(t)
		for _, id := range []string{"B9", "B1", "B5"} {
			_, err := l.Append(ctx, v1.ActivityEntry{BookID: id, Quantity: 1, Actor: "a", Timestamp: base})
			require.NoError(t, err)
		}
		got, err := l.Scan(ctx, time.Time{}, time.Time{})
		require.NoError(t, err)
		require.Equal(t, []string{"B9", "B1", "B5"}, bookIDs(got))
	})

	t.Run("idempotency key is unique and findable", func(t *testing.T) {
		l := newLog(t)
		first, err := l.Append(ctx, v1.ActivityEntry{BookID: "B1", Quantity: 1, Actor: "a", Timestamp: base, IdempotencyKey: "k-1"})
		require.NoError(t, err)

		_, err = l.Append(ctx, v1.ActivityEntry{BookID: "B1", Quantity: 1, Actor: "a", Timestamp: base, IdempotencyKey: "k-1"})
		require.ErrorIs(t, err, storage.ErrDuplicate)

		found, err := l.FindByIdempotencyKey(ctx, "k-1")
		require.NoError(t, err)
		require.Equal(t, first.ID, found.ID)

		_, err = l.FindByIdempotencyKey(ctx, "missing")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("concurrent appends get distinct seqs", func(t *testing.T) {
		l := newLog(t)
		var wg sync.WaitGroup
		seqs := make(chan int64, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				e, err := l.Append(ctx, v1.ActivityEntry{BookID: "B1", Quantity: 1, Actor: "a", Timestamp: base})
				if err == nil {
					seqs <- e.Seq
				}
			}()
		}
		wg.Wait()
		close(seqs)

		seen := make(map[int64]bool)
		for s := range seqs {
			require.False(t, seen[s], "seq %d assigned twice", s)
			seen[s] = true
		}
		require.Len(t, seen, 20)
	})
}

func ids(recs []*v1.BookRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func bookIDs(entries []v1.ActivityEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.BookID
	}
	return out
}
