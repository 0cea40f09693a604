// Package models contains the shared document shape and the application error taxonomy.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseDoc is embedded by every persisted document.
type BaseDoc struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	CreatedAt time.Time `json:"dateCreated"`
	UpdatedAt time.Time `json:"dateUpdated"`
}

// BeforeCreate assigns a time-ordered identifier when none was set.
func (d *BaseDoc) BeforeCreate(_ *gorm.DB) error {
	if d.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate document id: %w", err)
	}
	d.ID = id
	return nil
}

// DocID returns the document identifier.
func (d *BaseDoc) DocID() uuid.UUID {
	return d.ID
}

// ParseID coerces an external identifier into a document id.
// Malformed input is a BadRequest, distinct from NotFound.
func ParseID(raw, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, NewBadRequestError(fmt.Sprintf("Invalid %s: %q", label, raw))
	}
	return id, nil
}
