package postgres

import (
	"database/sql"
	"fmt"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanBookRow scans one books row. Compatible with both sql.Row and sql.Rows.
// sql.ErrNoRows stays reachable through errors.Is.
func scanBookRow(row scanner) (*v1.BookRecord, error) {
	var rec v1.BookRecord
	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.Category,
		&rec.Author,
		&rec.PublicationYear,
		&rec.QuantityOnHand,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan book row: %w", err)
	}
	return &rec, nil
}

func scanEntryRow(row scanner) (v1.ActivityEntry, error) {
	var e v1.ActivityEntry
	var key sql.NullString
	err := row.Scan(
		&e.ID,
		&e.Seq,
		&e.BookID,
		&e.Quantity,
		&e.Actor,
		&e.Timestamp,
		&key,
	)
	if err != nil {
		return v1.ActivityEntry{}, fmt.Errorf("failed to scan activity row: %w", err)
	}
	e.Timestamp = e.Timestamp.UTC()
	e.IdempotencyKey = key.String
	return e, nil
}

// nullableKey maps an empty idempotency key to SQL NULL so the partial
// unique index ignores it.
func nullableKey(key string) sql.NullString {
	return sql.NullString{String: key, Valid: key != ""}
}

// nullableTime maps a zero bound to SQL NULL (open interval).
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
