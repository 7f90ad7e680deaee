package indexer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is one committed state change. Sequence numbers are assigned in
// emission order and never reused.
type Event struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Sequence   uint64      `gorm:"uniqueIndex;not null"`
	Type       string      `gorm:"size:64;index"`
	Digest     string      `gorm:"size:64;uniqueIndex"`
	Attributes []Attribute `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
}

// Attribute stores one key/value pair of an event so queries can filter on
// issuer, member or asset addresses.
type Attribute struct {
	ID      uint      `gorm:"primaryKey"`
	EventID uuid.UUID `gorm:"type:uuid;index"`
	Key     string    `gorm:"size:64;index:idx_attribute_kv"`
	Value   string    `gorm:"size:256;index:idx_attribute_kv"`
}

// AutoMigrate performs all schema migrations for the index.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Event{},
		&Attribute{},
	)
}

// Map flattens the stored attributes.
func (e *Event) Map() map[string]string {
	out := make(map[string]string, len(e.Attributes))
	for _, attr := range e.Attributes {
		out[attr.Key] = attr.Value
	}
	return out
}
