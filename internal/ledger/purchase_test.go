package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	coreerrors "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage/memory"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchase_DecrementAndRecord(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _, log := newTestService(t, WithClock(fixedClock{at}))

	_, err := svc.Create(ctx, book("S001", "CNTT", "100"))
	require.NoError(t, err)

	res, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 3, Actor: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(97), res.Record.QuantityOnHand)
	assert.NotEmpty(t, res.ActivityID)
	assert.False(t, res.Replayed)

	got, err := svc.Get(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, int64(97), got.QuantityOnHand)

	entries, err := log.Scan(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.ActivityID, entries[0].ID)
	assert.Equal(t, "S001", entries[0].BookID)
	assert.Equal(t, int64(3), entries[0].Quantity)
	assert.Equal(t, "alice", entries[0].Actor)
	assert.Equal(t, at, entries[0].Timestamp)
}

func TestPurchase_InsufficientStockSequence(t *testing.T) {
	ctx := context.Background()
	svc, _, log := newTestService(t)

	_, err := svc.Create(ctx, book("B1", "CNTT", "100"))
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "B1", Quantity: 30, Actor: "a"})
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "B1", Quantity: 80, Actor: "a"})
	require.ErrorIs(t, err, coreerrors.ErrInsufficientStock)

	got, err := svc.Get(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, int64(70), got.QuantityOnHand)
	assert.Equal(t, 1, log.Len())

	res, err := svc.Purchase(ctx, PurchaseRequest{BookID: "B1", Quantity: 70, Actor: "a"})
	require.NoError(t, err)
	assert.Zero(t, res.Record.QuantityOnHand)
}

func TestPurchase_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, log := newTestService(t)
	_, err := svc.Create(ctx, book("S001", "CNTT", "5"))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  PurchaseRequest
		want error
	}{
		{name: "zero quantity", req: PurchaseRequest{BookID: "S001", Quantity: 0, Actor: "a"}, want: coreerrors.ErrInvalidArgument},
		{name: "negative quantity", req: PurchaseRequest{BookID: "S001", Quantity: -2, Actor: "a"}, want: coreerrors.ErrInvalidArgument},
		{name: "missing actor", req: PurchaseRequest{BookID: "S001", Quantity: 1}, want: coreerrors.ErrInvalidArgument},
		{name: "missing book id", req: PurchaseRequest{Quantity: 1, Actor: "a"}, want: coreerrors.ErrInvalidArgument},
		{name: "unknown book", req: PurchaseRequest{BookID: "nope", Quantity: 1, Actor: "a"}, want: coreerrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Purchase(ctx, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, log.Len())
}

func TestPurchase_ConcurrentNeverOversells(t *testing.T) {
	ctx := context.Background()
	svc, _, log := newTestService(t)
	_, err := svc.Create(ctx, book("B1", "CNTT", "50"))
	require.NoError(t, err)

	const workers = 40
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int64
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(ctx, PurchaseRequest{BookID: "B1", Quantity: 3, Actor: "w"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, coreerrors.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, "B1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.QuantityOnHand, int64(0))
	assert.Equal(t, int64(16), succeeded)
	assert.Equal(t, workers-16, rejected)
	assert.Equal(t, int64(50)-3*succeeded, got.QuantityOnHand)
	assert.Equal(t, int(succeeded), log.Len())
	assert.Zero(t, svc.locks.held(), "key locks released")
}

func TestPurchase_PartialFailure(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	log := &failingLog{ActivityLog: memory.NewActivityLog()}
	reg := metrics.NewRegistry()
	pub := &recordingPublisher{}
	svc := NewService(catalog, log, WithMetrics(reg), WithPublisher(pub))

	_, err := svc.Create(ctx, book("S001", "CNTT", "10"))
	require.NoError(t, err)

	log.setFail(true)
	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 4, Actor: "a"})
	require.ErrorIs(t, err, coreerrors.ErrPartialFailure)
	require.ErrorIs(t, err, errLogDown)

	var lerr *coreerrors.Error
	require.True(t, errors.As(err, &lerr))
	require.NotNil(t, lerr.Record)
	assert.Equal(t, int64(6), lerr.Record.QuantityOnHand)

	stored, err := catalog.Get(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, int64(6), stored.QuantityOnHand, "stock write is not rolled back")
	assert.Zero(t, log.Len())
	assert.Zero(t, pub.count(), "nothing published without an entry")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.PartialFailures))

	log.setFail(false)
	res, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 1, Actor: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Record.QuantityOnHand)
}

func TestPurchase_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	svc, _, log := newTestService(t)
	_, err := svc.Create(ctx, book("S001", "CNTT", "10"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, book("S002", "CNTT", "10"))
	require.NoError(t, err)

	req := PurchaseRequest{BookID: "S001", Quantity: 2, Actor: "a", IdempotencyKey: "order-1"}
	first, err := svc.Purchase(ctx, req)
	require.NoError(t, err)

	again, err := svc.Purchase(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.ActivityID, again.ActivityID)
	assert.Equal(t, int64(8), again.Record.QuantityOnHand)
	assert.Equal(t, 1, log.Len())

	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "S002", Quantity: 2, Actor: "a", IdempotencyKey: "order-1"})
	require.ErrorIs(t, err, coreerrors.ErrInvalidArgument)

	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 5, Actor: "a", IdempotencyKey: "order-1"})
	require.ErrorIs(t, err, coreerrors.ErrInvalidArgument)

	_, err = svc.Delete(ctx, "S001")
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, req)
	require.ErrorIs(t, err, coreerrors.ErrNotFound)
	assert.Equal(t, 1, log.Len())
}

func TestPurchase_AtomicCommitter(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	log := memory.NewActivityLog()
	committer := &fakeCommitter{catalog: catalog, log: log}
	svc := NewService(catalog, log, WithCommitter(committer))

	_, err := svc.Create(ctx, book("S001", "CNTT", "5"))
	require.NoError(t, err)

	res, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 2, Actor: "a", IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Record.QuantityOnHand)
	assert.Equal(t, 1, committer.calls)

	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 4, Actor: "a"})
	require.ErrorIs(t, err, coreerrors.ErrInsufficientStock)

	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "missing", Quantity: 1, Actor: "a"})
	require.ErrorIs(t, err, coreerrors.ErrNotFound)

	replayed, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 2, Actor: "a", IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.True(t, replayed.Replayed)
	assert.Equal(t, res.ActivityID, replayed.ActivityID)
	assert.Equal(t, 1, log.Len())
}

func TestPurchase_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _, log := newTestService(t, WithPublisher(pub))
	_, err := svc.Create(ctx, book("S001", "CNTT", "5"))
	require.NoError(t, err)

	res, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 1, Actor: "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Record.QuantityOnHand)
	assert.Equal(t, 1, pub.count())
	assert.Equal(t, 1, log.Len())
}

func TestPurchase_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := metrics.NewRegistry()
	svc, _, _ := newTestService(t, WithMetrics(reg))
	_, err := svc.Create(ctx, book("S001", "CNTT", "5"))
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 2, Actor: "a"})
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 9, Actor: "a"})
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.UnitsSold))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.OpsTotal.WithLabelValues("ledger.purchase", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.OpsTotal.WithLabelValues("ledger.purchase", "insufficient_stock")))
}

func TestPurchase_TimestampsNonDecreasing(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{base.Add(2 * time.Second), base, base.Add(time.Second), base.Add(3 * time.Second)}
	var i int
	clock := NewMonotonicClock(func() time.Time { ts := ticks[i]; i++; return ts })
	svc, _, log := newTestService(t, WithClock(clock))

	_, err := svc.Create(ctx, book("S001", "CNTT", "10"))
	require.NoError(t, err)
	for range ticks {
		_, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 1, Actor: "a"})
		require.NoError(t, err)
	}

	entries, err := log.Scan(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 4)
	var prev v1.ActivityEntry
	for _, e := range entries {
		assert.False(t, e.Timestamp.Before(prev.Timestamp))
		assert.Greater(t, e.Seq, prev.Seq)
		prev = e
	}
}

func TestPurchase_IdempotencyKeyReusedAcrossBooksConcurrently(t *testing.T) {
	ctx := context.Background()
	catalog := memory.NewCatalogStore()
	log := newGatedLog()
	svc := NewService(catalog, log)
	_, err := svc.Create(ctx, book("S001", "CNTT", "10"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, book("S002", "CNTT", "10"))
	require.NoError(t, err)

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 2, Actor: "a", IdempotencyKey: "k"})
		firstErr <- err
	}()
	<-log.entered
	require.Equal(t, int32(1), log.finds.Load())

	secondErr := make(chan error, 1)
	go func() {
		_, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S002", Quantity: 3, Actor: "b", IdempotencyKey: "k"})
		secondErr <- err
	}()

	// The second purchase waits on the key before it looks anything up.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), log.finds.Load())
	s2, err := catalog.Get(ctx, "S002")
	require.NoError(t, err)
	assert.Equal(t, int64(10), s2.QuantityOnHand)

	close(log.release)
	require.NoError(t, <-firstErr)

	err = <-secondErr
	require.ErrorIs(t, err, coreerrors.ErrInvalidArgument)
	assert.NotErrorIs(t, err, coreerrors.ErrPartialFailure)

	s2, err = catalog.Get(ctx, "S002")
	require.NoError(t, err)
	assert.Equal(t, int64(10), s2.QuantityOnHand)
	assert.Equal(t, 1, log.Len())
}

func TestPurchase_BlockedPublisherDoesNotHoldKey(t *testing.T) {
	ctx := context.Background()
	pub := newBlockingPublisher()
	svc, _, log := newTestService(t, WithPublisher(pub))
	_, err := svc.Create(ctx, book("S001", "CNTT", "10"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Purchase(ctx, PurchaseRequest{BookID: "S001", Quantity: 2, Actor: "a"})
		done <- err
	}()
	<-pub.entered
	defer close(pub.release)

	wctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	rec, err := svc.SetQuantity(wctx, "S001", "20")
	require.NoError(t, err)
	assert.Equal(t, int64(20), rec.QuantityOnHand)

	got, err := svc.Get(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.QuantityOnHand)
	assert.Equal(t, 1, log.Len())
	select {
	case err := <-done:
		t.Fatalf("first purchase returned before publish was released: %v", err)
	default:
	}
}
