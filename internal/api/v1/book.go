package v1

import (
	"fmt"
	"strings"
)

// BookRecord is one title in the catalog.
// ID is the primary key and never changes after creation.
type BookRecord struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	Author          string `json:"author"`
	PublicationYear string `json:"publicationYear"`

	// QuantityOnHand is the stock counter. Never negative.
	QuantityOnHand int64 `json:"quantityOnHand"`
}

// Validate checks the record-level invariants.
func (b *BookRecord) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if b.QuantityOnHand < 0 {
		return fmt.Errorf("quantityOnHand must be >= 0, got %d", b.QuantityOnHand)
	}
	return nil
}

// Clone returns an independent copy.
func (b BookRecord) Clone() *BookRecord {
	return &b
}
