package storage

import "github.com/google/uuid"

// NewEntryID returns a time-ordered activity entry id (UUIDv7).
func NewEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
