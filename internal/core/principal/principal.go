// Package principal defines the authenticated actor and its tenant scope.
//
// A principal is decided once, at the authentication boundary, as a closed
// set of scope variants. Services never re-derive scope from raw claims;
// they consume the Principal as-is.
package principal

import (
	"context"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
)

// Scope is the tenant-boundary level at which a principal operates.
type Scope string

const (
	ScopeOrganization Scope = "ORGANIZATION"
	ScopeClient       Scope = "CLIENT"
	ScopeCompany      Scope = "COMPANY"
	ScopeDepartment   Scope = "DEPARTMENT"
)

// Valid reports whether s is one of the four known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeOrganization, ScopeClient, ScopeCompany, ScopeDepartment:
		return true
	}
	return false
}

// Principal is the authenticated actor for the current request.
//
// Exactly one of the scope-specific identifiers is authoritative for the
// tenant boundary, selected by Scope. OrganizationID may be absent for
// CLIENT scope; the scope resolver derives it through the Client record.
type Principal struct {
	UserID string

	Scope   Scope
	ScopeID id.ID

	OrganizationID *id.ID
	ClientID       *id.ID
	CompanyID      *id.ID
	DepartmentID   *id.ID
}

// New constructs a principal and normalizes the scope-specific reference:
// the identifier matching the scope is always populated from ScopeID.
func New(userID string, scope Scope, scopeID id.ID) (*Principal, error) {
	if !scope.Valid() {
		return nil, apperror.NewForbidden("unknown scope type").WithDetail("scope", string(scope))
	}
	p := &Principal{UserID: userID, Scope: scope, ScopeID: scopeID}
	switch scope {
	case ScopeOrganization:
		p.OrganizationID = &scopeID
	case ScopeClient:
		p.ClientID = &scopeID
	case ScopeCompany:
		p.CompanyID = &scopeID
	case ScopeDepartment:
		p.DepartmentID = &scopeID
	}
	return p, nil
}

// IsAdminScope reports whether the principal operates above company level.
// ORGANIZATION and CLIENT scopes are the only ones allowed to manage
// companies and to query across companies.
func (p *Principal) IsAdminScope() bool {
	return p.Scope == ScopeOrganization || p.Scope == ScopeClient
}

type principalKey struct{}

// WithPrincipal adds the principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal from context, or nil when unauthenticated.
func FromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}

// MustFromContext returns the principal or a Forbidden error.
// Handlers behind the auth middleware use this; a missing principal there
// means the middleware chain is miswired.
func MustFromContext(ctx context.Context) (*Principal, error) {
	p := FromContext(ctx)
	if p == nil {
		return nil, apperror.NewUnauthorized("authentication required")
	}
	return p, nil
}

// UserIDFromContext returns the authenticated user id or empty string.
func UserIDFromContext(ctx context.Context) string {
	if p := FromContext(ctx); p != nil {
		return p.UserID
	}
	return ""
}
