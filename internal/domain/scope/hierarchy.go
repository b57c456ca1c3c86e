package scope

import (
	"context"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
)

// Ownership is a company's position in the tenant hierarchy.
type Ownership struct {
	CompanyID      id.ID
	ClientID       id.ID
	OrganizationID id.ID
}

// CompanyDirectory looks up company ownership without pulling in the full
// company service (avoids a dependency cycle; the postgres company repo
// implements it).
type CompanyDirectory interface {
	OwnershipByID(ctx context.Context, companyID id.ID) (Ownership, error)
}

// Hierarchy answers cross-level access questions: may this principal touch
// that company? Used by the refund read path when an ORGANIZATION/CLIENT
// admin passes an explicit company filter.
type Hierarchy struct {
	resolver  *Resolver
	companies CompanyDirectory
}

// NewHierarchy creates the hierarchy access checker.
func NewHierarchy(resolver *Resolver, companies CompanyDirectory) *Hierarchy {
	return &Hierarchy{resolver: resolver, companies: companies}
}

// CanAccessCompany reports whether the principal's resolved scope contains
// the company. Unknown companies and resolution failures report false.
func (h *Hierarchy) CanAccessCompany(ctx context.Context, p *principal.Principal, companyID id.ID) bool {
	return h.ValidateCompanyAccess(ctx, p, companyID, "read") == nil
}

// ValidateCompanyAccess fails closed with Forbidden unless the company is
// inside the principal's boundary:
//   - COMPANY/DEPARTMENT scope: only the principal's own company.
//   - CLIENT scope: the company's client must be the principal's client.
//   - ORGANIZATION scope: the company's organization must match.
func (h *Hierarchy) ValidateCompanyAccess(ctx context.Context, p *principal.Principal, companyID id.ID, action string) error {
	if p == nil {
		return apperror.NewForbidden("company access denied").WithDetail("action", action)
	}

	if p.Scope == principal.ScopeCompany || p.Scope == principal.ScopeDepartment {
		if p.CompanyID != nil && *p.CompanyID == companyID {
			return nil
		}
		return apperror.NewForbidden("company access denied").
			WithDetail("companyId", companyID.String()).
			WithDetail("action", action)
	}

	own, err := h.companies.OwnershipByID(ctx, companyID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewForbidden("company access denied").
				WithDetail("companyId", companyID.String()).
				WithDetail("action", action)
		}
		return err
	}

	if p.Scope == principal.ScopeClient {
		if p.ClientID != nil && *p.ClientID == own.ClientID {
			return nil
		}
		return apperror.NewForbidden("company access denied").
			WithDetail("companyId", companyID.String()).
			WithDetail("action", action)
	}

	orgID, err := h.resolver.ResolveOrganizationID(ctx, p)
	if err != nil {
		return err
	}
	if own.OrganizationID == orgID {
		return nil
	}
	return apperror.NewForbidden("company access denied").
		WithDetail("companyId", companyID.String()).
		WithDetail("action", action)
}
