package company

import (
	"context"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
	"backoffice/internal/core/tx"
	"backoffice/internal/domain"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/client"
	"backoffice/internal/domain/scope"
	"backoffice/pkg/logger"
	"backoffice/pkg/slug"
)

const (
	defaultTimezone = "UTC"
	defaultCurrency = "USD"

	defaultListLimit = 20
	maxListLimit     = 100
)

// Service implements company management for ORGANIZATION and CLIENT
// principals. COMPANY and DEPARTMENT principals are rejected outright.
type Service struct {
	repo     Repository
	sites    SiteRepository
	clients  client.Repository
	resolver *scope.Resolver
	codes    CodeGenerator
	txm      tx.Manager
	auditor  audit.Emitter
}

// NewService wires the company service.
func NewService(
	repo Repository,
	sites SiteRepository,
	clients client.Repository,
	resolver *scope.Resolver,
	codes CodeGenerator,
	txm tx.Manager,
	auditor audit.Emitter,
) *Service {
	return &Service{
		repo:     repo,
		sites:    sites,
		clients:  clients,
		resolver: resolver,
		codes:    codes,
		txm:      txm,
		auditor:  auditor,
	}
}

// gate admits only admin scopes and resolves the bounding organization.
func (s *Service) gate(ctx context.Context) (*principal.Principal, id.ID, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, id.Nil(), err
	}
	if !p.IsAdminScope() {
		return nil, id.Nil(), apperror.NewForbidden("scope not permitted for company management")
	}
	orgID, err := s.resolver.ResolveOrganizationID(ctx, p)
	if err != nil {
		return nil, id.Nil(), err
	}
	return p, orgID, nil
}

// CreateInput carries the fields accepted on company creation.
type CreateInput struct {
	ClientID *id.ID
	Name     string
	Domain   string
	Timezone string
	Currency string
}

// Create creates a company together with its default site in one
// transaction. CLIENT principals may only create under their own client;
// ORGANIZATION principals must name a client belonging to the organization.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Company, error) {
	p, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}

	clientID, err := s.resolveTargetClient(ctx, p, orgID, in.ClientID)
	if err != nil {
		return nil, err
	}

	c := &Company{
		Base:     entity.NewBase(),
		ClientID: clientID,
		Name:     in.Name,
		Domain:   in.Domain,
		Timezone: in.Timezone,
		Currency: in.Currency,
		Status:   StatusActive,
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	c.Slug = slug.Make(c.Name)

	code, err := s.codes.CompanyCode(ctx)
	if err != nil {
		return nil, err
	}
	c.Code = code

	siteCode, err := s.codes.SiteCode(ctx)
	if err != nil {
		return nil, err
	}
	site := DefaultSiteFor(c, siteCode)

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		return s.sites.Create(ctx, site)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: "company",
		EntityID:   c.ID,
		Metadata:   map[string]any{"name": c.Name, "clientId": c.ClientID.String()},
	})
	s.emit(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: "site",
		EntityID:   site.ID,
		Metadata:   map[string]any{"companyId": c.ID.String(), "autoCreated": true},
	})

	return c, nil
}

func (s *Service) resolveTargetClient(ctx context.Context, p *principal.Principal, orgID id.ID, requested *id.ID) (id.ID, error) {
	if p.Scope == principal.ScopeClient {
		if p.ClientID == nil {
			return id.Nil(), apperror.NewForbidden("principal has no client")
		}
		if requested != nil && !id.IsNil(*requested) && *requested != *p.ClientID {
			return id.Nil(), apperror.NewForbidden("cannot create a company for another client")
		}
		return *p.ClientID, nil
	}

	if requested == nil || id.IsNil(*requested) {
		return id.Nil(), apperror.NewValidation("clientId is required").WithDetail("field", "clientId")
	}
	cl, err := s.clients.GetByID(ctx, *requested)
	if err != nil {
		if apperror.IsNotFound(err) {
			return id.Nil(), apperror.NewValidation("client not found").WithDetail("clientId", requested.String())
		}
		return id.Nil(), err
	}
	if cl.OrganizationID != orgID {
		return id.Nil(), apperror.NewValidation("client not found").WithDetail("clientId", requested.String())
	}
	return cl.ID, nil
}

// Get returns a company visible within the principal's scope.
func (s *Service) Get(ctx context.Context, companyID id.ID) (*Company, error) {
	p, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, orgID, companyID)
	if err != nil {
		return nil, err
	}
	if p.Scope == principal.ScopeClient && (p.ClientID == nil || c.ClientID != *p.ClientID) {
		return nil, apperror.NewNotFound("company", companyID.String())
	}
	return c, nil
}

// List returns companies within the principal's scope. CLIENT principals
// are pinned to their own client; ORGANIZATION principals may filter by a
// client belonging to the organization.
func (s *Service) List(ctx context.Context, clientID *id.ID, filter domain.ListFilter) (domain.ListResult[*Company], error) {
	p, orgID, err := s.gate(ctx)
	if err != nil {
		return domain.ListResult[*Company]{}, err
	}

	filter.Normalize(defaultListLimit, maxListLimit)
	q, verifyClient, err := BuildListQuery(p, orgID, clientID, filter)
	if err != nil {
		return domain.ListResult[*Company]{}, err
	}
	if verifyClient {
		cl, err := s.clients.GetByID(ctx, *q.ClientID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return domain.ListResult[*Company]{}, apperror.NewForbidden("client does not belong to organization")
			}
			return domain.ListResult[*Company]{}, err
		}
		if cl.OrganizationID != orgID {
			return domain.ListResult[*Company]{}, apperror.NewForbidden("client does not belong to organization")
		}
	}

	return s.repo.List(ctx, q)
}

// ListSites returns the sites of a company visible within the principal's
// scope, default site first.
func (s *Service) ListSites(ctx context.Context, companyID id.ID) ([]*Site, error) {
	if _, err := s.Get(ctx, companyID); err != nil {
		return nil, err
	}
	return s.sites.ListByCompany(ctx, companyID)
}

// UpdateInput carries the mutable company fields. Nil means unchanged.
type UpdateInput struct {
	Name     *string
	Domain   *string
	Timezone *string
	Currency *string
	Status   *Status
}

// Update applies a partial update. The slug is regenerated only when the
// name changes.
func (s *Service) Update(ctx context.Context, companyID id.ID, in UpdateInput) (*Company, error) {
	_, _, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	before := snapshot(c)

	if in.Name != nil && *in.Name != c.Name {
		c.Name = *in.Name
		c.Slug = slug.Make(c.Name)
	}
	if in.Domain != nil {
		c.Domain = *in.Domain
	}
	if in.Timezone != nil {
		c.Timezone = *in.Timezone
	}
	if in.Currency != nil {
		c.Currency = *in.Currency
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	c.Touch()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	changes := audit.Diff(before, snapshot(c))
	if len(changes) > 0 {
		s.emit(ctx, audit.Entry{
			Action:     audit.ActionUpdate,
			EntityType: "company",
			EntityID:   c.ID,
			Changes:    changes,
		})
	}
	return c, nil
}

// Delete soft-deletes a company, recording who deleted it.
func (s *Service) Delete(ctx context.Context, companyID id.ID) error {
	p, orgID, err := s.gate(ctx)
	if err != nil {
		return err
	}

	// Visibility check first so CLIENT principals get NotFound, not a
	// silent no-op, for foreign companies.
	if _, err := s.Get(ctx, companyID); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, orgID, companyID, p.UserID); err != nil {
		return err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionDelete,
		EntityType: "company",
		EntityID:   companyID,
	})
	return nil
}

// GetStats aggregates company counts for the principal's scope. Clients
// deleted after the breakdown was grouped render as "Unknown".
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	p, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}

	q, _, err := BuildListQuery(p, orgID, nil, domain.ListFilter{})
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]id.ID, 0, len(stats.ByClient))
	for _, row := range stats.ByClient {
		ids = append(ids, row.ClientID)
	}
	if len(ids) > 0 {
		names, err := s.clients.NamesByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range stats.ByClient {
			name, ok := names[stats.ByClient[i].ClientID]
			if !ok {
				name = "Unknown"
			}
			stats.ByClient[i].ClientName = name
		}
	}
	return stats, nil
}

func (s *Service) emit(ctx context.Context, entry audit.Entry) {
	audit.Enrich(ctx, &entry)
	if err := s.auditor.Log(ctx, entry); err != nil {
		logger.Warn(ctx, "audit emit failed",
			"action", string(entry.Action),
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID.String(),
			"error", err,
		)
	}
}

func snapshot(c *Company) map[string]any {
	return map[string]any{
		"name":     c.Name,
		"slug":     c.Slug,
		"domain":   c.Domain,
		"timezone": c.Timezone,
		"currency": c.Currency,
		"status":   string(c.Status),
	}
}
