// Package scope resolves the tenant boundary for an authenticated principal.
//
// Every tenant-filtered query must be bounded by the organization id this
// package derives. Callers must not trust a principal-supplied organization
// id from any other path: an unresolved scope is how cross-tenant query
// injection happens.
package scope

import (
	"context"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
	"backoffice/internal/domain/client"
)

// Resolver derives the organization id bounding all of a principal's queries.
type Resolver struct {
	clients client.Repository
}

// NewResolver creates a scope resolver.
func NewResolver(clients client.Repository) *Resolver {
	return &Resolver{clients: clients}
}

// ResolveOrganizationID returns the organization that bounds the principal.
//
// A directly-carried organization id wins. CLIENT-scoped principals without
// one are resolved through their client record. Anything else is Forbidden.
func (r *Resolver) ResolveOrganizationID(ctx context.Context, p *principal.Principal) (id.ID, error) {
	if p == nil {
		return id.Nil(), apperror.NewForbidden("unable to determine organization")
	}

	if p.OrganizationID != nil && !id.IsNil(*p.OrganizationID) {
		return *p.OrganizationID, nil
	}

	if p.Scope == principal.ScopeClient && p.ClientID != nil && !id.IsNil(*p.ClientID) {
		cl, err := r.clients.GetByID(ctx, *p.ClientID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return id.Nil(), apperror.NewForbidden("unable to determine organization")
			}
			return id.Nil(), err
		}
		return cl.OrganizationID, nil
	}

	return id.Nil(), apperror.NewForbidden("unable to determine organization")
}
