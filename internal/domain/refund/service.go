package refund

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

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
	defaultListLimit = 20
	maxListLimit     = 100
)

// Service drives the refund workflow. Reads span whatever the principal's
// scope can see; writes always require an unambiguous company context.
type Service struct {
	repo      Repository
	settings  SettingsRepository
	orders    OrderDirectory
	evaluator *Evaluator
	hierarchy *scope.Hierarchy
	resolver  *scope.Resolver
	settler   Settler
	auditor   audit.Emitter
}

// NewService wires the refund service.
func NewService(
	repo Repository,
	settings SettingsRepository,
	orders OrderDirectory,
	evaluator *Evaluator,
	hierarchy *scope.Hierarchy,
	resolver *scope.Resolver,
	settler Settler,
	auditor audit.Emitter,
) *Service {
	return &Service{
		repo:      repo,
		settings:  settings,
		orders:    orders,
		evaluator: evaluator,
		hierarchy: hierarchy,
		resolver:  resolver,
		settler:   settler,
		auditor:   auditor,
	}
}

// deriveWriteCompany resolves the company a mutating call acts on.
// COMPANY and DEPARTMENT principals are pinned to their own company;
// admin scopes must name one explicitly and pass the hierarchy check.
// No derivable company fails closed.
func (s *Service) deriveWriteCompany(ctx context.Context, p *principal.Principal, requested *id.ID) (id.ID, error) {
	switch p.Scope {
	case principal.ScopeCompany, principal.ScopeDepartment:
		if p.CompanyID == nil || id.IsNil(*p.CompanyID) {
			return id.Nil(), apperror.NewForbidden("company context required")
		}
		if requested != nil && !id.IsNil(*requested) && *requested != *p.CompanyID {
			return id.Nil(), apperror.NewForbidden("cannot act on another company")
		}
		return *p.CompanyID, nil
	case principal.ScopeOrganization, principal.ScopeClient:
		if requested == nil || id.IsNil(*requested) {
			return id.Nil(), apperror.NewForbidden("company context required")
		}
		if err := s.hierarchy.ValidateCompanyAccess(ctx, p, *requested, "write"); err != nil {
			return id.Nil(), err
		}
		return *requested, nil
	default:
		return id.Nil(), apperror.NewForbidden("scope not permitted for refunds")
	}
}

// CreateInput carries the fields accepted on refund creation.
type CreateInput struct {
	CompanyID  *id.ID
	CustomerID id.ID
	OrderID    id.ID

	Amount   decimal.Decimal
	Currency string
	Method   string
	Reason   string
}

// Create validates the request against the order, computes the approval
// tier and applies the company's auto-approval rules. The refund comes back
// PENDING or, when the rules match, already APPROVED by the system.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Refund, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}

	companyID, err := s.deriveWriteCompany(ctx, p, in.CompanyID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CompanyID != companyID {
		return nil, apperror.NewValidation("order does not belong to company").
			WithDetail("orderId", in.OrderID.String())
	}
	if order.CustomerID != in.CustomerID {
		return nil, apperror.NewValidation("customer does not match order").
			WithDetail("orderId", in.OrderID.String())
	}
	if in.Amount.GreaterThan(order.Total) {
		return nil, apperror.NewValidation("requestedAmount exceeds order total").
			WithDetail("orderTotal", order.Total.String())
	}

	settings, err := s.settingsFor(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if settings.RequireReason && in.Reason == "" {
		return nil, apperror.NewValidation("reason is required").WithDetail("field", "reason")
	}

	r := &Refund{
		Base:            entity.NewBase(),
		CompanyID:       companyID,
		CustomerID:      in.CustomerID,
		OrderID:         in.OrderID,
		RequestedAmount: in.Amount,
		Currency:        in.Currency,
		Method:          in.Method,
		Reason:          in.Reason,
		Tier:            TierFor(in.Amount),
		Status:          StatusPending,
	}
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	decision, err := s.evaluator.Evaluate(settings, RuleInput{
		Amount:         in.Amount,
		DaysSinceOrder: DaysSinceOrder(order.OrderDate, now),
		Method:         in.Method,
		Currency:       in.Currency,
		OrderTotal:     order.Total,
	})
	if err != nil {
		return nil, err
	}
	if decision.Approved {
		if err := r.Approve(SystemAutoApprover, nil, now); err != nil {
			return nil, err
		}
		r.AutoApprovalRule = &decision.Rule
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: "refund",
		EntityID:   r.ID,
		Metadata: map[string]any{
			"orderId":      r.OrderID.String(),
			"amount":       r.RequestedAmount.String(),
			"tier":         string(r.Tier),
			"autoApproved": decision.Approved,
		},
	})
	return r, nil
}

// Get returns a refund visible to the principal.
func (s *Service) Get(ctx context.Context, refundID id.ID) (*Refund, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	orgID, err := s.resolver.ResolveOrganizationID(ctx, p)
	if err != nil {
		return nil, err
	}

	r, err := s.repo.GetByID(ctx, orgID, refundID)
	if err != nil {
		return nil, err
	}
	if err := s.hierarchy.ValidateCompanyAccess(ctx, p, r.CompanyID, "read"); err != nil {
		if apperror.IsForbidden(err) {
			return nil, apperror.NewNotFound("refund", refundID.String())
		}
		return nil, err
	}
	return r, nil
}

// ListInput narrows a refund listing.
type ListInput struct {
	CompanyID *id.ID
	Status    Status
	Cursor    string
	Filter    domain.ListFilter
}

// List returns refunds within the principal's scope. An absent company
// filter spans the whole resolved scope; CLIENT principals stay inside
// their own client's companies either way.
func (s *Service) List(ctx context.Context, in ListInput) (domain.CursorResult[*Refund], error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return domain.CursorResult[*Refund]{}, err
	}
	orgID, err := s.resolver.ResolveOrganizationID(ctx, p)
	if err != nil {
		return domain.CursorResult[*Refund]{}, err
	}

	q := ListQuery{
		OrganizationID: orgID,
		Status:         in.Status,
		Cursor:         in.Cursor,
		Filter:         in.Filter,
	}
	q.Filter.Normalize(defaultListLimit, maxListLimit)

	switch p.Scope {
	case principal.ScopeCompany, principal.ScopeDepartment:
		if p.CompanyID == nil || id.IsNil(*p.CompanyID) {
			return domain.CursorResult[*Refund]{}, apperror.NewForbidden("company context required")
		}
		own := *p.CompanyID
		q.CompanyID = &own
	case principal.ScopeOrganization, principal.ScopeClient:
		if p.Scope == principal.ScopeClient && p.ClientID != nil {
			cid := *p.ClientID
			q.ClientID = &cid
		}
		if in.CompanyID != nil && !id.IsNil(*in.CompanyID) {
			if err := s.hierarchy.ValidateCompanyAccess(ctx, p, *in.CompanyID, "read"); err != nil {
				return domain.CursorResult[*Refund]{}, err
			}
			cid := *in.CompanyID
			q.CompanyID = &cid
		}
	default:
		return domain.CursorResult[*Refund]{}, apperror.NewForbidden("scope not permitted for refunds")
	}

	return s.repo.List(ctx, q)
}

// Approve approves a PENDING refund. A nil amount approves the requested
// amount in full; a differing amount requires the company to allow partial
// refunds.
func (s *Service) Approve(ctx context.Context, refundID id.ID, amount *decimal.Decimal) (*Refund, error) {
	p, r, err := s.getForWrite(ctx, refundID, "approve")
	if err != nil {
		return nil, err
	}

	if amount != nil && !amount.Equal(r.RequestedAmount) {
		settings, err := s.settingsFor(ctx, r.CompanyID)
		if err != nil {
			return nil, err
		}
		if !settings.AllowPartial {
			return nil, apperror.NewValidation("partial approval is not allowed").
				WithDetail("requestedAmount", r.RequestedAmount.String())
		}
		if amount.GreaterThan(r.RequestedAmount) || !amount.IsPositive() {
			return nil, apperror.NewValidation("approvedAmount must be positive and not exceed requestedAmount")
		}
	}

	if err := r.Approve(p.UserID, amount, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionApprove,
		EntityType: "refund",
		EntityID:   r.ID,
		Metadata:   map[string]any{"approvedAmount": r.ApprovedAmount.String()},
	})
	return r, nil
}

// Reject rejects a PENDING refund.
func (s *Service) Reject(ctx context.Context, refundID id.ID) (*Refund, error) {
	p, r, err := s.getForWrite(ctx, refundID, "reject")
	if err != nil {
		return nil, err
	}

	if err := r.Reject(p.UserID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionReject,
		EntityType: "refund",
		EntityID:   r.ID,
	})
	return r, nil
}

// Process hands an APPROVED refund to settlement. The settler either
// completes synchronously (stub mode) or the refund stays PROCESSING until
// CompleteSettlement is called back.
func (s *Service) Process(ctx context.Context, refundID id.ID) (*Refund, error) {
	_, r, err := s.getForWrite(ctx, refundID, "process")
	if err != nil {
		return nil, err
	}

	if err := r.StartProcessing(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	completed, err := s.settler.Submit(ctx, r)
	if err != nil {
		return nil, err
	}
	if completed {
		if err := r.Complete(time.Now().UTC()); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, r); err != nil {
			return nil, err
		}
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionProcess,
		EntityType: "refund",
		EntityID:   r.ID,
		Metadata:   map[string]any{"status": string(r.Status)},
	})
	return r, nil
}

// CompleteSettlement finishes a PROCESSING refund. This is the settlement
// callback path and carries no principal.
func (s *Service) CompleteSettlement(ctx context.Context, refundID id.ID) (*Refund, error) {
	r, err := s.repo.GetForSettlement(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if err := r.Complete(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: "refund",
		EntityID:   r.ID,
		UserID:     "SYSTEM_SETTLEMENT",
		Metadata:   map[string]any{"status": string(r.Status)},
	})
	return r, nil
}

// Cancel cancels a PENDING or APPROVED refund.
func (s *Service) Cancel(ctx context.Context, refundID id.ID) (*Refund, error) {
	p, r, err := s.getForWrite(ctx, refundID, "cancel")
	if err != nil {
		return nil, err
	}

	if err := r.Cancel(p.UserID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionCancel,
		EntityType: "refund",
		EntityID:   r.ID,
	})
	return r, nil
}

// GetStats aggregates refund figures for the principal's scope, optionally
// narrowed to one company.
func (s *Service) GetStats(ctx context.Context, companyID *id.ID) (*Stats, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	orgID, err := s.resolver.ResolveOrganizationID(ctx, p)
	if err != nil {
		return nil, err
	}

	q := ListQuery{OrganizationID: orgID}
	switch p.Scope {
	case principal.ScopeCompany, principal.ScopeDepartment:
		if p.CompanyID == nil {
			return nil, apperror.NewForbidden("company context required")
		}
		q.CompanyID = p.CompanyID
	case principal.ScopeClient:
		q.ClientID = p.ClientID
	}
	if companyID != nil && !id.IsNil(*companyID) {
		if err := s.hierarchy.ValidateCompanyAccess(ctx, p, *companyID, "read"); err != nil {
			return nil, err
		}
		q.CompanyID = companyID
	}

	return s.repo.Stats(ctx, q)
}

// GetSettings returns the company's refund settings, creating the row with
// defaults on first read.
func (s *Service) GetSettings(ctx context.Context, companyID *id.ID) (*Settings, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.deriveWriteCompany(ctx, p, companyID)
	if err != nil {
		return nil, err
	}
	return s.settingsFor(ctx, target)
}

// UpdateSettingsInput carries the mutable settings fields. Nil means
// unchanged.
type UpdateSettingsInput struct {
	AutoApprovalEnabled   *bool
	AutoApprovalMaxAmount *decimal.Decimal
	AutoApprovalMaxDays   *int
	RequireReason         *bool
	AllowPartial          *bool
	Expression            *string
}

// UpdateSettings applies a partial settings update. A new CEL expression is
// compiled before it is accepted.
func (s *Service) UpdateSettings(ctx context.Context, companyID *id.ID, in UpdateSettingsInput) (*Settings, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.deriveWriteCompany(ctx, p, companyID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsFor(ctx, target)
	if err != nil {
		return nil, err
	}

	if in.AutoApprovalEnabled != nil {
		settings.AutoApprovalEnabled = *in.AutoApprovalEnabled
	}
	if in.AutoApprovalMaxAmount != nil {
		if in.AutoApprovalMaxAmount.IsNegative() {
			return nil, apperror.NewValidation("autoApprovalMaxAmount must not be negative")
		}
		settings.AutoApprovalMaxAmount = *in.AutoApprovalMaxAmount
	}
	if in.AutoApprovalMaxDays != nil {
		if *in.AutoApprovalMaxDays < 0 {
			return nil, apperror.NewValidation("autoApprovalMaxDays must not be negative")
		}
		settings.AutoApprovalMaxDays = *in.AutoApprovalMaxDays
	}
	if in.RequireReason != nil {
		settings.RequireReason = *in.RequireReason
	}
	if in.AllowPartial != nil {
		settings.AllowPartial = *in.AllowPartial
	}
	if in.Expression != nil {
		if err := s.evaluator.ValidateExpression(*in.Expression); err != nil {
			return nil, err
		}
		settings.Expression = *in.Expression
	}
	settings.Touch()

	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: "refund_settings",
		EntityID:   settings.ID,
		Metadata:   map[string]any{"companyId": target.String()},
	})
	return settings, nil
}

func (s *Service) getForWrite(ctx context.Context, refundID id.ID, action string) (*principal.Principal, *Refund, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}
	orgID, err := s.resolver.ResolveOrganizationID(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	r, err := s.repo.GetByID(ctx, orgID, refundID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.hierarchy.ValidateCompanyAccess(ctx, p, r.CompanyID, action); err != nil {
		return nil, nil, err
	}
	return p, r, nil
}

func (s *Service) settingsFor(ctx context.Context, companyID id.ID) (*Settings, error) {
	settings, err := s.settings.GetByCompany(ctx, companyID)
	if err == nil {
		return settings, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	settings = DefaultSettings(companyID)
	if err := s.settings.Create(ctx, settings); err != nil {
		// Lost a create race; the winner's row is authoritative.
		if apperror.IsConflict(err) {
			return s.settings.GetByCompany(ctx, companyID)
		}
		return nil, err
	}
	return settings, nil
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
