package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	coreerrors "github.com/qlsach-lab/catalog-ledger/internal/core/errors"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Publisher receives committed activity entries. Failures never undo a purchase.
type Publisher interface {
	Publish(ctx context.Context, entry v1.ActivityEntry) error
}

// ChangeHook is called after a successful write with the operation name and book id.
type ChangeHook func(op, bookID string)

// Service implements the catalog transaction handlers and the purchase engine
// over a CatalogStore and an ActivityLog.
type Service struct {
	catalog   storage.CatalogStore
	log       storage.ActivityLog
	committer storage.PurchaseCommitter
	locks     *keyLocks
	clock     Clock
	publisher Publisher
	metrics   *metrics.Registry
	hooks     []ChangeHook
	tracer    trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

func WithMetrics(m *metrics.Registry) Option { return func(s *Service) { s.metrics = m } }

func WithChangeHook(h ChangeHook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, h) }
}

// WithCommitter routes purchases through a backend transaction. Only valid
// when the committer writes to the same activity log the Service reads.
func WithCommitter(c storage.PurchaseCommitter) Option {
	return func(s *Service) { s.committer = c }
}

func NewService(catalog storage.CatalogStore, log storage.ActivityLog, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		log:     log,
		locks:   newKeyLocks(),
		clock:   NewMonotonicClock(nil),
		tracer:  otel.Tracer("qlsach/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BookInput carries string-encoded record fields as received at the boundary.
type BookInput struct {
	ID              string
	Title           string
	Category        string
	Author          string
	PublicationYear string
	Quantity        string
}

func (in BookInput) record(op string) (*v1.BookRecord, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, coreerrors.InvalidArgumentf(op, "id is required")
	}
	qty, err := ParseQuantity(op, in.Quantity)
	if err != nil {
		return nil, err
	}
	return &v1.BookRecord{
		ID:              in.ID,
		Title:           in.Title,
		Category:        in.Category,
		Author:          in.Author,
		PublicationYear: in.PublicationYear,
		QuantityOnHand:  qty,
	}, nil
}

// ParseQuantity decodes a base-10, non-negative integer.
func ParseQuantity(op, raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, coreerrors.InvalidArgumentf(op, "quantity %q is not an integer", raw)
	}
	if n < 0 {
		return 0, coreerrors.InvalidArgumentf(op, "quantity must be >= 0, got %d", n)
	}
	return n, nil
}

func storageFailure(op string, err error) error {
	return coreerrors.Wrap(coreerrors.KindInternal, op, err, "storage failure")
}

// withKey runs fn while holding the key lock for id.
func (s *Service) withKey(ctx context.Context, op, id string, fn func() error) error {
	unlock, err := s.locks.lock(ctx, id)
	if err != nil {
		return coreerrors.Wrap(coreerrors.KindInternal, op, err, "lock wait aborted")
	}
	defer unlock()
	return fn()
}

// changed notifies hooks. Callers must not hold a key lock.
func (s *Service) changed(op, id string) {
	for _, h := range s.hooks {
		h(op, id)
	}
}

// Create stores a new record. AlreadyExists if the id is taken.
func (s *Service) Create(ctx context.Context, in BookInput) (*v1.BookRecord, error) {
	const op = "createBook"
	rec, err := in.record(op)
	if err != nil {
		return nil, err
	}

	err = s.withKey(ctx, op, rec.ID, func() error {
		_, err := s.catalog.Get(ctx, rec.ID)
		switch {
		case err == nil:
			return coreerrors.AlreadyExists(op, rec.ID)
		case !errors.Is(err, storage.ErrNotFound):
			return storageFailure(op, err)
		}
		if err := s.catalog.Put(ctx, rec); err != nil {
			return storageFailure(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(op, rec.ID)

	slog.Info("[Ledger] Book created", "book_id", rec.ID, "quantity", rec.QuantityOnHand)
	return rec, nil
}

// Get returns the record or NotFound.
func (s *Service) Get(ctx context.Context, id string) (*v1.BookRecord, error) {
	const op = "getBook"
	rec, err := s.catalog.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, coreerrors.NotFound(op, id)
	}
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return rec, nil
}

// Update replaces every mutable field of an existing record.
func (s *Service) Update(ctx context.Context, in BookInput) (*v1.BookRecord, error) {
	const op = "updateBook"
	rec, err := in.record(op)
	if err != nil {
		return nil, err
	}

	err = s.withKey(ctx, op, rec.ID, func() error {
		if _, err := s.catalog.Get(ctx, rec.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return coreerrors.NotFound(op, rec.ID)
			}
			return storageFailure(op, err)
		}
		if err := s.catalog.Put(ctx, rec); err != nil {
			return storageFailure(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(op, rec.ID)

	slog.Info("[Ledger] Book updated", "book_id", rec.ID, "quantity", rec.QuantityOnHand)
	return rec, nil
}

// Delete removes a record. Activity history is untouched.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	const op = "deleteBook"

	err := s.withKey(ctx, op, id, func() error {
		if err := s.catalog.Delete(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return coreerrors.NotFound(op, id)
			}
			return storageFailure(op, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.changed(op, id)

	slog.Info("[Ledger] Book deleted", "book_id", id)
	return fmt.Sprintf("deleted book %s", id), nil
}

// List returns every record ordered by id.
func (s *Service) List(ctx context.Context) ([]*v1.BookRecord, error) {
	recs, err := s.catalog.Scan(ctx)
	if err != nil {
		return nil, storageFailure("listBooks", err)
	}
	if recs == nil {
		recs = []*v1.BookRecord{}
	}
	return recs, nil
}

// ListByCategory filters List by exact, case-sensitive category.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*v1.BookRecord, error) {
	recs, err := s.catalog.Scan(ctx)
	if err != nil {
		return nil, storageFailure("listByCategory", err)
	}
	out := make([]*v1.BookRecord, 0, len(recs))
	for _, r := range recs {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out, nil
}

// SetQuantity overwrites quantityOnHand. Administrative; not recorded as activity.
func (s *Service) SetQuantity(ctx context.Context, id, newQuantity string) (*v1.BookRecord, error) {
	const op = "setQuantity"
	qty, err := ParseQuantity(op, newQuantity)
	if err != nil {
		return nil, err
	}

	var (
		rec  *v1.BookRecord
		prev int64
	)
	err = s.withKey(ctx, op, id, func() error {
		cur, err := s.catalog.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return coreerrors.NotFound(op, id)
		}
		if err != nil {
			return storageFailure(op, err)
		}
		prev = cur.QuantityOnHand
		cur.QuantityOnHand = qty
		if err := s.catalog.Put(ctx, cur); err != nil {
			return storageFailure(op, err)
		}
		rec = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.changed(op, id)

	slog.Info("[Ledger] Quantity set", "book_id", id, "from", prev, "to", qty)
	return rec, nil
}

// InitLedger creates each seed record whose id is not already present and
// returns how many were created.
func (s *Service) InitLedger(ctx context.Context, books []v1.BookRecord) (int, error) {
	const op = "initLedger"
	created := 0
	for i := range books {
		b := books[i]
		if err := b.Validate(); err != nil {
			return created, coreerrors.Wrap(coreerrors.KindInvalidArgument, op, err, fmt.Sprintf("seed record %d", i))
		}

		ok, err := s.createIfAbsent(ctx, &b)
		if err != nil {
			return created, coreerrors.Wrap(coreerrors.KindInternal, op, err, fmt.Sprintf("seed %q", b.ID))
		}
		if ok {
			created++
			s.changed(op, b.ID)
		}
	}

	slog.Info("[Ledger] Seed applied", "created", created, "skipped", len(books)-created)
	return created, nil
}

func (s *Service) createIfAbsent(ctx context.Context, rec *v1.BookRecord) (bool, error) {
	unlock, err := s.locks.lock(ctx, rec.ID)
	if err != nil {
		return false, err
	}
	defer unlock()

	_, err = s.catalog.Get(ctx, rec.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	return true, s.catalog.Put(ctx, rec)
}
