package v1

import (
	"fmt"
	"strings"
	"time"
)

// ActivityEntry is one purchase recorded in the activity log.
// Entries are written once and never modified.
type ActivityEntry struct {
	// ID is a time-ordered UUID assigned by the log on append.
	ID string `json:"id"`

	// Seq is the append position within the log (strictly increasing).
	Seq int64 `json:"seq"`

	// BookID is a weak reference: the book may be deleted later, the entry stays.
	BookID   string `json:"bookId"`
	Quantity int64  `json:"quantity"`
	Actor    string `json:"actor"`

	// Timestamp is non-decreasing across entries in submission order.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey is optional. When set, at most one entry carries it.
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// Validate ensures the entry can be appended.
func (e *ActivityEntry) Validate() error {
	if strings.TrimSpace(e.BookID) == "" {
		return fmt.Errorf("bookId is required")
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0, got %d", e.Quantity)
	}
	if strings.TrimSpace(e.Actor) == "" {
		return fmt.Errorf("actor is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// PurchaseResult is returned by a successful purchase.
type PurchaseResult struct {
	Record     BookRecord `json:"record"`
	ActivityID string     `json:"activityId"`

	// Replayed is true when the idempotency key matched an earlier purchase
	// and nothing was written.
	Replayed bool `json:"replayed,omitempty"`
}
