package company

import (
	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
	"backoffice/internal/domain"
)

// Query is the fully resolved listing query handed to the repository.
// OrganizationID is always set; ClientID narrows the listing when present.
type Query struct {
	OrganizationID id.ID
	ClientID       *id.ID
	Filter         domain.ListFilter
}

// BuildListQuery resolves the principal's scope into a repository query.
// Only ORGANIZATION and CLIENT principals may list companies. A CLIENT
// principal is always pinned to its own client regardless of the requested
// filter. An ORGANIZATION principal may pass a client filter through; the
// returned verifyClient flag tells the caller the client still has to be
// checked against the organization before the query runs.
func BuildListQuery(p *principal.Principal, orgID id.ID, clientID *id.ID, filter domain.ListFilter) (Query, bool, error) {
	q := Query{OrganizationID: orgID, Filter: filter}

	switch p.Scope {
	case principal.ScopeClient:
		if p.ClientID == nil {
			return Query{}, false, apperror.NewForbidden("principal has no client")
		}
		own := *p.ClientID
		q.ClientID = &own
		return q, false, nil
	case principal.ScopeOrganization:
		if clientID != nil && !id.IsNil(*clientID) {
			cid := *clientID
			q.ClientID = &cid
			return q, true, nil
		}
		return q, false, nil
	default:
		return Query{}, false, apperror.NewForbidden("scope not permitted for company management")
	}
}
