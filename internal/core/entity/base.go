package entity

import (
	"context"
	"time"

	"backoffice/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Base contains common fields for all persisted entities.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Soft-delete markers. A row with DeletedAt set is excluded from all
	// reads; DeletedBy records the acting principal.
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	DeletedBy *string    `db:"deleted_by" json:"deletedBy,omitempty"`
}

// NewBase creates a Base with generated ID and timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}

// IsDeleted reports whether the soft-delete marker is set.
func (b *Base) IsDeleted() bool {
	return b.DeletedAt != nil
}

// MarkDeleted sets the soft-delete markers.
func (b *Base) MarkDeleted(by string) {
	now := time.Now().UTC()
	b.DeletedAt = &now
	if by != "" {
		b.DeletedBy = &by
	}
}
