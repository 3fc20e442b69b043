package postgres

// SQL for the catalog (books) and the activity log (activity_entries).

const (
	queryGetBook = `
		SELECT id, title, category, author, publication_year, quantity_on_hand
		FROM books
		WHERE id = $1
	`

	// queryUpsertBook is an unconditional overwrite keyed by id.
	queryUpsertBook = `
		INSERT INTO books (id, title, category, author, publication_year, quantity_on_hand, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			title            = EXCLUDED.title,
			category         = EXCLUDED.category,
			author           = EXCLUDED.author,
			publication_year = EXCLUDED.publication_year,
			quantity_on_hand = EXCLUDED.quantity_on_hand,
			updated_at       = EXCLUDED.updated_at
	`

	queryDeleteBook = `DELETE FROM books WHERE id = $1`

	queryScanBooks = `
		SELECT id, title, category, author, publication_year, quantity_on_hand
		FROM books
		ORDER BY id ASC
	`

	// querySelectBookForUpdate locks the row for the purchase transaction.
	querySelectBookForUpdate = `
		SELECT id, title, category, author, publication_year, quantity_on_hand
		FROM books
		WHERE id = $1
		FOR UPDATE
	`

	queryUpdateQuantity = `
		UPDATE books
		SET quantity_on_hand = $1, updated_at = now()
		WHERE id = $2
	`

	// queryAppendEntry returns the generated seq.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for a reused idempotency key.
	queryAppendEntry = `
		INSERT INTO activity_entries (id, book_id, quantity, actor, occurred_at, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING seq
	`

	// queryScanEntries treats a NULL bound as open.
	queryScanEntries = `
		SELECT id, seq, book_id, quantity, actor, occurred_at, idempotency_key
		FROM activity_entries
		WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
		  AND ($2::timestamptz IS NULL OR occurred_at < $2)
		ORDER BY occurred_at ASC, seq ASC
	`

	queryFindEntryByKey = `
		SELECT id, seq, book_id, quantity, actor, occurred_at, idempotency_key
		FROM activity_entries
		WHERE idempotency_key = $1
	`
)
