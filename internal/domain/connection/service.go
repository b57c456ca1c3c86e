package connection

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
	"backoffice/internal/domain"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/scope"
	"backoffice/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// Repository is the persistence port for connections.
type Repository interface {
	GetByID(ctx context.Context, connectionID id.ID) (*Connection, error)
	GetByPair(ctx context.Context, vendorCompanyID, companyID id.ID) (*Connection, error)
	List(ctx context.Context, filter Filter) (domain.ListResult[*Connection], error)
	Create(ctx context.Context, c *Connection) error
	Update(ctx context.Context, c *Connection) error
}

// Filter narrows connection listings. OrganizationID is set by the
// service from the resolved scope; the repository must bound every
// listing by it.
type Filter struct {
	OrganizationID  id.ID
	VendorCompanyID *id.ID
	CompanyID       *id.ID
	Status          Status
	List            domain.ListFilter
}

// VendorCompanyDirectory checks that a vendor company lies within the
// caller's organization.
type VendorCompanyDirectory interface {
	ExistsInOrganization(ctx context.Context, orgID, vendorCompanyID id.ID) (bool, error)
}

// Service manages connection requests and their one-shot approval.
type Service struct {
	repo      Repository
	vendors   VendorCompanyDirectory
	hierarchy *scope.Hierarchy
	resolver  *scope.Resolver
	auditor   audit.Emitter
}

// NewService wires the connection service.
func NewService(
	repo Repository,
	vendors VendorCompanyDirectory,
	hierarchy *scope.Hierarchy,
	resolver *scope.Resolver,
	auditor audit.Emitter,
) *Service {
	return &Service{
		repo:      repo,
		vendors:   vendors,
		hierarchy: hierarchy,
		resolver:  resolver,
		auditor:   auditor,
	}
}

func (s *Service) gate(ctx context.Context) (*principal.Principal, id.ID, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, id.Nil(), err
	}
	if !p.IsAdminScope() {
		return nil, id.Nil(), apperror.NewForbidden("scope not permitted for connection management")
	}
	orgID, err := s.resolver.ResolveOrganizationID(ctx, p)
	if err != nil {
		return nil, id.Nil(), err
	}
	return p, orgID, nil
}

// load fetches a connection and pins it to the organization through its
// vendor company. A foreign connection reads as NotFound, never Forbidden.
func (s *Service) load(ctx context.Context, orgID, connectionID id.ID) (*Connection, error) {
	c, err := s.repo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	ok, err := s.vendors.ExistsInOrganization(ctx, orgID, c.VendorCompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("connection", connectionID.String())
	}
	return c, nil
}

// Create registers a PENDING connection request between a vendor company
// and a buying company. The pair must be unique.
func (s *Service) Create(ctx context.Context, vendorCompanyID, companyID id.ID) (*Connection, error) {
	p, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.vendors.ExistsInOrganization(ctx, orgID, vendorCompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("vendor company", vendorCompanyID.String())
	}
	if err := s.hierarchy.ValidateCompanyAccess(ctx, p, companyID, "connect"); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByPair(ctx, vendorCompanyID, companyID); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("connection", "pair", vendorCompanyID.String()+"/"+companyID.String())
	} else if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}

	c := &Connection{
		Base:            entity.NewBase(),
		VendorCompanyID: vendorCompanyID,
		CompanyID:       companyID,
		Status:          StatusPending,
	}
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: "connection",
		EntityID:   c.ID,
		Metadata: map[string]any{
			"vendorCompanyId": vendorCompanyID.String(),
			"companyId":       companyID.String(),
		},
	})
	return c, nil
}

// Get returns a single connection.
func (s *Service) Get(ctx context.Context, connectionID id.ID) (*Connection, error) {
	_, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, orgID, connectionID)
}

// List returns connections matching the filter, bounded to the caller's
// organization.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Connection], error) {
	_, orgID, err := s.gate(ctx)
	if err != nil {
		return domain.ListResult[*Connection]{}, err
	}
	filter.OrganizationID = orgID
	filter.List.Normalize(defaultListLimit, maxListLimit)
	return s.repo.List(ctx, filter)
}

// Approve activates a PENDING connection, stamping the approver. One-shot.
func (s *Service) Approve(ctx context.Context, connectionID id.ID) (*Connection, error) {
	return s.decide(ctx, connectionID, StatusActive, audit.ActionApprove)
}

// Reject terminates a PENDING connection, stamping the decider. One-shot.
func (s *Service) Reject(ctx context.Context, connectionID id.ID) (*Connection, error) {
	return s.decide(ctx, connectionID, StatusTerminated, audit.ActionReject)
}

func (s *Service) decide(ctx context.Context, connectionID id.ID, to Status, action audit.Action) (*Connection, error) {
	p, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, orgID, connectionID)
	if err != nil {
		return nil, err
	}
	if err := c.decide(to, p.UserID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     action,
		EntityType: "connection",
		EntityID:   c.ID,
		Metadata:   map[string]any{"status": string(c.Status)},
	})
	return c, nil
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
