package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/core/storage"
)

// ActivityAdapter implements storage.ActivityLog on the activity_entries table.
// The table rejects UPDATE and DELETE via trigger (see migrations).
type ActivityAdapter struct {
	stmtAppend    *sql.Stmt
	stmtScan      *sql.Stmt
	stmtFindByKey *sql.Stmt
}

// NewActivityAdapter verifies the schema and prepares statements on db.
func NewActivityAdapter(db *sql.DB) (*ActivityAdapter, error) {
	if err := validateTable(db, "activity_entries"); err != nil {
		return nil, fmt.Errorf("schema validation failed - did you run migrations?: %w", err)
	}

	stmts, err := prepareAll(db, queryAppendEntry, queryScanEntries, queryFindEntryByKey)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare activity statements: %w", err)
	}

	slog.Info("[Postgres] Activity adapter initialized with prepared statements")

	return &ActivityAdapter{
		stmtAppend:    stmts[0],
		stmtScan:      stmts[1],
		stmtFindByKey: stmts[2],
	}, nil
}

// Append persists entry and populates Seq from the BIGSERIAL column.
func (a *ActivityAdapter) Append(ctx context.Context, entry v1.ActivityEntry) (v1.ActivityEntry, error) {
	if entry.ID == "" {
		entry.ID = storage.NewEntryID()
	}

	err := a.stmtAppend.QueryRowContext(ctx,
		entry.ID,
		entry.BookID,
		entry.Quantity,
		entry.Actor,
		entry.Timestamp.UTC(),
		nullableKey(entry.IdempotencyKey),
	).Scan(&entry.Seq)
	if err == sql.ErrNoRows {
		// ON CONFLICT DO NOTHING - idempotency key already used
		return v1.ActivityEntry{}, storage.ErrDuplicate
	}
	if err != nil {
		return v1.ActivityEntry{}, fmt.Errorf("failed to append activity entry: %w", err)
	}

	slog.Debug("[Postgres] Appended activity entry",
		"entry_id", entry.ID,
		"book_id", entry.BookID,
		"seq", entry.Seq)
	return entry, nil
}

func (a *ActivityAdapter) Scan(ctx context.Context, from, to time.Time) ([]v1.ActivityEntry, error) {
	rows, err := a.stmtScan.QueryContext(ctx, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query activity entries: %w", err)
	}
	defer rows.Close()

	var out []v1.ActivityEntry
	for rows.Next() {
		e, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity entries: %w", err)
	}
	return out, nil
}

func (a *ActivityAdapter) FindByIdempotencyKey(ctx context.Context, key string) (v1.ActivityEntry, error) {
	if key == "" {
		return v1.ActivityEntry{}, storage.ErrNotFound
	}
	e, err := scanEntryRow(a.stmtFindByKey.QueryRowContext(ctx, key))
	if errors.Is(err, sql.ErrNoRows) {
		return v1.ActivityEntry{}, storage.ErrNotFound
	}
	return e, err
}

func (a *ActivityAdapter) Close() error {
	return closeStmts(a.stmtAppend, a.stmtScan, a.stmtFindByKey)
}
