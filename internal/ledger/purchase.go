package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	coreerrors "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const opPurchase = "purchase"

// PurchaseRequest decrements stock for one book and records who bought it.
type PurchaseRequest struct {
	BookID   string
	Quantity int64
	Actor    string

	// IdempotencyKey makes the purchase safe to retry. Optional.
	IdempotencyKey string
}

func (r PurchaseRequest) validate() error {
	if strings.TrimSpace(r.BookID) == "" {
		return coreerrors.InvalidArgumentf(opPurchase, "bookId is required")
	}
	if r.Quantity <= 0 {
		return coreerrors.InvalidArgumentf(opPurchase, "quantity must be > 0, got %d", r.Quantity)
	}
	if strings.TrimSpace(r.Actor) == "" {
		return coreerrors.InvalidArgumentf(opPurchase, "actor is required")
	}
	return nil
}

// Purchase runs read, check, decrement and append for one book under its key lock,
// then publishes the entry and notifies change hooks after the lock is released.
//
// When the stock write succeeds but the activity append fails, the returned
// error has KindPartialFailure and carries the committed record.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (res v1.PurchaseResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.purchase", trace.WithAttributes(
		attribute.String("book.id", req.BookID),
		attribute.Int64("purchase.quantity", req.Quantity),
		attribute.Bool("purchase.idempotent", req.IdempotencyKey != ""),
	))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(coreerrors.KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.Bool("purchase.replayed", res.Replayed))
		span.End()
		s.metrics.ObserveOp("ledger."+opPurchase, outcome, time.Since(start))
	}()

	if err := req.validate(); err != nil {
		return v1.PurchaseResult{}, err
	}

	res, entry, err := s.purchaseLocked(ctx, req)
	if err != nil || res.Replayed {
		return res, err
	}

	// Post-commit work runs with no key lock held.
	s.metrics.ObserveSale(req.Quantity)
	s.changed(opPurchase, res.Record.ID)
	s.publish(ctx, entry)

	slog.Debug("[Ledger] Purchase committed",
		"book_id", res.Record.ID,
		"quantity", req.Quantity,
		"remaining", res.Record.QuantityOnHand,
		"activity_id", entry.ID)

	return res, nil
}

// idempotencyLockKey namespaces idempotency keys away from book ids in keyLocks.
func idempotencyLockKey(key string) string {
	return "\x00idem\x00" + key
}

// purchaseLocked holds the idempotency key (when set) and then the book key
// while it checks for a replay and commits. Lock order is always key, then book.
func (s *Service) purchaseLocked(ctx context.Context, req PurchaseRequest) (v1.PurchaseResult, v1.ActivityEntry, error) {
	if req.IdempotencyKey != "" {
		unlockKey, err := s.locks.lock(ctx, idempotencyLockKey(req.IdempotencyKey))
		if err != nil {
			return v1.PurchaseResult{}, v1.ActivityEntry{}, coreerrors.Wrap(coreerrors.KindInternal, opPurchase, err, "lock wait aborted")
		}
		defer unlockKey()
	}

	unlock, err := s.locks.lock(ctx, req.BookID)
	if err != nil {
		return v1.PurchaseResult{}, v1.ActivityEntry{}, coreerrors.Wrap(coreerrors.KindInternal, opPurchase, err, "lock wait aborted")
	}
	defer unlock()

	if req.IdempotencyKey != "" {
		prior, err := s.log.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		switch {
		case err == nil:
			res, err := s.replay(ctx, req, prior)
			return res, v1.ActivityEntry{}, err
		case !errors.Is(err, storage.ErrNotFound):
			return v1.PurchaseResult{}, v1.ActivityEntry{}, storageFailure(opPurchase, err)
		}
	}

	entry := v1.ActivityEntry{
		BookID:         req.BookID,
		Quantity:       req.Quantity,
		Actor:          req.Actor,
		Timestamp:      s.clock.Now(),
		IdempotencyKey: req.IdempotencyKey,
	}

	var rec *v1.BookRecord
	if s.committer != nil {
		rec, entry, err = s.commitAtomic(ctx, req, entry)
		if errors.Is(err, storage.ErrDuplicate) {
			// Same key committed by another process.
			prior, ferr := s.log.FindByIdempotencyKey(ctx, req.IdempotencyKey)
			if ferr != nil {
				return v1.PurchaseResult{}, v1.ActivityEntry{}, storageFailure(opPurchase, ferr)
			}
			res, err := s.replay(ctx, req, prior)
			return res, v1.ActivityEntry{}, err
		}
	} else {
		rec, entry, err = s.commitSequential(ctx, req, entry)
	}
	if err != nil {
		return v1.PurchaseResult{}, v1.ActivityEntry{}, err
	}
	return v1.PurchaseResult{Record: *rec, ActivityID: entry.ID}, entry, nil
}

func stockCheck(quantity int64) func(*v1.BookRecord) error {
	return func(cur *v1.BookRecord) error {
		if cur.QuantityOnHand-quantity < 0 {
			return coreerrors.New(coreerrors.KindInsufficientStock, opPurchase,
				"book %q has %d on hand, requested %d", cur.ID, cur.QuantityOnHand, quantity)
		}
		return nil
	}
}

func (s *Service) commitSequential(ctx context.Context, req PurchaseRequest, entry v1.ActivityEntry) (*v1.BookRecord, v1.ActivityEntry, error) {
	rec, err := s.catalog.Get(ctx, req.BookID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, entry, coreerrors.NotFound(opPurchase, req.BookID)
	}
	if err != nil {
		return nil, entry, storageFailure(opPurchase, err)
	}

	if err := stockCheck(req.Quantity)(rec); err != nil {
		return nil, entry, err
	}

	rec.QuantityOnHand -= req.Quantity
	if err := s.catalog.Put(ctx, rec); err != nil {
		return nil, entry, storageFailure(opPurchase, err)
	}

	appended, err := s.log.Append(ctx, entry)
	if err != nil {
		slog.Error("[Ledger] Activity append failed after stock update",
			"book_id", rec.ID,
			"quantity", req.Quantity,
			"remaining", rec.QuantityOnHand,
			"error", err)
		s.metrics.IncPartialFailure()
		return nil, entry, coreerrors.PartialFailure(opPurchase, *rec, err)
	}
	return rec, appended, nil
}

func (s *Service) commitAtomic(ctx context.Context, req PurchaseRequest, entry v1.ActivityEntry) (*v1.BookRecord, v1.ActivityEntry, error) {
	rec, committed, err := s.committer.CommitPurchase(ctx, entry, stockCheck(req.Quantity))
	switch {
	case err == nil:
		return rec, committed, nil
	case errors.Is(err, storage.ErrNotFound):
		return nil, entry, coreerrors.NotFound(opPurchase, req.BookID)
	case errors.Is(err, coreerrors.ErrInsufficientStock):
		return nil, entry, err
	case errors.Is(err, storage.ErrDuplicate):
		return nil, entry, err
	default:
		return nil, entry, storageFailure(opPurchase, err)
	}
}

// replay answers a retried purchase from the entry recorded under its key.
func (s *Service) replay(ctx context.Context, req PurchaseRequest, prior v1.ActivityEntry) (v1.PurchaseResult, error) {
	if prior.BookID != req.BookID || prior.Quantity != req.Quantity {
		return v1.PurchaseResult{}, coreerrors.InvalidArgumentf(opPurchase,
			"idempotency key %q was used for %d x %q", req.IdempotencyKey, prior.Quantity, prior.BookID)
	}

	rec, err := s.catalog.Get(ctx, req.BookID)
	if errors.Is(err, storage.ErrNotFound) {
		return v1.PurchaseResult{}, coreerrors.NotFound(opPurchase, req.BookID)
	}
	if err != nil {
		return v1.PurchaseResult{}, storageFailure(opPurchase, err)
	}

	slog.Debug("[Ledger] Purchase replayed", "book_id", req.BookID, "activity_id", prior.ID)
	return v1.PurchaseResult{Record: *rec, ActivityID: prior.ID, Replayed: true}, nil
}

func (s *Service) publish(ctx context.Context, entry v1.ActivityEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, entry); err != nil {
		slog.Warn("[Ledger] Activity publish failed",
			"activity_id", entry.ID,
			"book_id", entry.BookID,
			"error", err)
	}
}
