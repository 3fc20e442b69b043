package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
)

// CatalogAdapter implements storage.CatalogStore and storage.PurchaseCommitter
// on the books table.
type CatalogAdapter struct {
	db         *sql.DB
	stmtGet    *sql.Stmt
	stmtUpsert *sql.Stmt
	stmtDelete *sql.Stmt
	stmtScan   *sql.Stmt
}

// NewCatalogAdapter verifies the schema and prepares statements on db.
// The caller owns db.
func NewCatalogAdapter(db *sql.DB) (*CatalogAdapter, error) {
	if err := validateTable(db, "books"); err != nil {
		return nil, fmt.Errorf("schema validation failed - did you run migrations?: %w", err)
	}

	stmts, err := prepareAll(db, queryGetBook, queryUpsertBook, queryDeleteBook, queryScanBooks)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare catalog statements: %w", err)
	}

	slog.Info("[Postgres] Catalog adapter initialized with prepared statements")

	return &CatalogAdapter{
		db:         db,
		stmtGet:    stmts[0],
		stmtUpsert: stmts[1],
		stmtDelete: stmts[2],
		stmtScan:   stmts[3],
	}, nil
}

func (a *CatalogAdapter) Get(ctx context.Context, id string) (*v1.BookRecord, error) {
	rec, err := scanBookRow(a.stmtGet.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (a *CatalogAdapter) Put(ctx context.Context, record *v1.BookRecord) error {
	_, err := a.stmtUpsert.ExecContext(ctx,
		record.ID,
		record.Title,
		record.Category,
		record.Author,
		record.PublicationYear,
		record.QuantityOnHand,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert book: %w", err)
	}
	return nil
}

func (a *CatalogAdapter) Delete(ctx context.Context, id string) error {
	res, err := a.stmtDelete.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (a *CatalogAdapter) Scan(ctx context.Context) ([]*v1.BookRecord, error) {
	rows, err := a.stmtScan.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var out []*v1.BookRecord
	for rows.Next() {
		rec, err := scanBookRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}
	return out, nil
}

// CommitPurchase locks the book row, runs check, decrements stock by
// entry.Quantity and appends entry, all in one transaction.
// Returns storage.ErrNotFound for an unknown book and storage.ErrDuplicate
// for a reused idempotency key; check's error is returned unchanged.
func (a *CatalogAdapter) CommitPurchase(
	ctx context.Context,
	entry v1.ActivityEntry,
	check func(current *v1.BookRecord) error,
) (*v1.BookRecord, v1.ActivityEntry, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, v1.ActivityEntry{}, fmt.Errorf("failed to begin purchase tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rec, err := scanBookRow(tx.QueryRowContext(ctx, querySelectBookForUpdate, entry.BookID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, v1.ActivityEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return nil, v1.ActivityEntry{}, err
	}

	if err := check(rec); err != nil {
		return nil, v1.ActivityEntry{}, err
	}

	rec.QuantityOnHand -= entry.Quantity
	if _, err := tx.ExecContext(ctx, queryUpdateQuantity, rec.QuantityOnHand, rec.ID); err != nil {
		return nil, v1.ActivityEntry{}, fmt.Errorf("failed to update quantity: %w", err)
	}

	if entry.ID == "" {
		entry.ID = storage.NewEntryID()
	}
	err = tx.QueryRowContext(ctx, queryAppendEntry,
		entry.ID,
		entry.BookID,
		entry.Quantity,
		entry.Actor,
		entry.Timestamp.UTC(),
		nullableKey(entry.IdempotencyKey),
	).Scan(&entry.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, v1.ActivityEntry{}, storage.ErrDuplicate
	}
	if err != nil {
		return nil, v1.ActivityEntry{}, fmt.Errorf("failed to append activity entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, v1.ActivityEntry{}, fmt.Errorf("failed to commit purchase tx: %w", err)
	}

	slog.Debug("[Postgres] Purchase committed",
		"book_id", rec.ID,
		"quantity", entry.Quantity,
		"remaining", rec.QuantityOnHand,
		"seq", entry.Seq)
	return rec, entry, nil
}

// Ping reports database reachability for health checks.
func (a *CatalogAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes prepared statements. The shared *sql.DB is closed by its owner.
func (a *CatalogAdapter) Close() error {
	return closeStmts(a.stmtGet, a.stmtUpsert, a.stmtDelete, a.stmtScan)
}
