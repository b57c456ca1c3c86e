// Package client provides the Client entity: a tenant boundary below the
// organization and the parent of companies.
package client

import (
	"context"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
)

// Client belongs to exactly one organization and has a unique code.
// CLIENT-scoped principals resolve their organization through this record.
type Client struct {
	entity.Base

	OrganizationID id.ID  `db:"organization_id" json:"organizationId"`
	Code           string `db:"code" json:"code"`
	Name           string `db:"name" json:"name"`
}

// Repository defines Client persistence. The back office never mutates
// clients; they exist here for scope resolution and company validation.
type Repository interface {
	// GetByID retrieves a client (soft-deleted rows excluded).
	GetByID(ctx context.Context, clientID id.ID) (*Client, error)

	// NamesByIDs returns display names keyed by id for live clients.
	// Ids absent from the result (e.g. deleted after a groupBy) are
	// rendered as "Unknown" by callers.
	NamesByIDs(ctx context.Context, ids []id.ID) (map[id.ID]string, error)
}
