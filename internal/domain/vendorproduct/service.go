package vendorproduct

import (
	"context"

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
	defaultListLimit  = 50
	maxListLimit      = 100
	defaultLowStockAt = 10
)

// Filter narrows product listings. OrganizationID is set by the service
// from the resolved scope; the repository must bound every listing by it.
type Filter struct {
	OrganizationID  id.ID
	VendorCompanyID *id.ID
	Categories      []string
	ActiveOnly      bool
	LowStockOnly    bool
	List            domain.ListFilter
}

// Repository is the persistence port for vendor products.
type Repository interface {
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	List(ctx context.Context, filter Filter) (domain.ListResult[*Product], error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	HardDelete(ctx context.Context, productID id.ID) error
	SKUExists(ctx context.Context, vendorCompanyID id.ID, sku string, excludeID id.ID) (bool, error)
}

// VendorCompanyDirectory checks that a vendor company lies within the
// caller's organization.
type VendorCompanyDirectory interface {
	ExistsInOrganization(ctx context.Context, orgID, vendorCompanyID id.ID) (bool, error)
}

// Service manages the product catalog of vendor companies.
type Service struct {
	repo     Repository
	vendors  VendorCompanyDirectory
	resolver *scope.Resolver
	auditor  audit.Emitter
}

// NewService wires the vendor product service.
func NewService(repo Repository, vendors VendorCompanyDirectory, resolver *scope.Resolver, auditor audit.Emitter) *Service {
	return &Service{repo: repo, vendors: vendors, resolver: resolver, auditor: auditor}
}

func (s *Service) gate(ctx context.Context) (*principal.Principal, id.ID, error) {
	p, err := principal.MustFromContext(ctx)
	if err != nil {
		return nil, id.Nil(), err
	}
	if !p.IsAdminScope() {
		return nil, id.Nil(), apperror.NewForbidden("scope not permitted for product management")
	}
	orgID, err := s.resolver.ResolveOrganizationID(ctx, p)
	if err != nil {
		return nil, id.Nil(), err
	}
	return p, orgID, nil
}

// load fetches a product and pins it to the organization through its
// vendor company. A foreign product reads as NotFound, never Forbidden.
func (s *Service) load(ctx context.Context, orgID, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	ok, err := s.vendors.ExistsInOrganization(ctx, orgID, p.VendorCompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("vendor product", productID.String())
	}
	return p, nil
}

// CreateInput carries the fields accepted on product creation.
type CreateInput struct {
	VendorCompanyID   id.ID
	SKU               string
	Name              string
	Categories        []string
	Price             decimal.Decimal
	Currency          string
	StockQuantity     int
	LowStockThreshold int
}

// Create adds a product under a vendor company. The SKU must be unique
// within that vendor company.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	_, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := s.vendors.ExistsInOrganization(ctx, orgID, in.VendorCompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("vendor company", in.VendorCompanyID.String())
	}

	p := &Product{
		Base:              entity.NewBase(),
		VendorCompanyID:   in.VendorCompanyID,
		SKU:               in.SKU,
		Name:              in.Name,
		Categories:        in.Categories,
		Price:             in.Price,
		Currency:          in.Currency,
		StockQuantity:     in.StockQuantity,
		LowStockThreshold: in.LowStockThreshold,
		IsActive:          true,
	}
	if p.LowStockThreshold == 0 {
		p.LowStockThreshold = defaultLowStockAt
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.repo.SKUExists(ctx, p.VendorCompanyID, p.SKU, id.Nil())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewDuplicate("product", "sku", p.SKU)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: "vendor_product",
		EntityID:   p.ID,
		Metadata:   map[string]any{"sku": p.SKU, "vendorCompanyId": p.VendorCompanyID.String()},
	})
	return p, nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	_, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, orgID, productID)
}

// List returns products matching the filter, bounded to the caller's
// organization.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Product], error) {
	_, orgID, err := s.gate(ctx)
	if err != nil {
		return domain.ListResult[*Product]{}, err
	}
	if filter.VendorCompanyID != nil {
		ok, err := s.vendors.ExistsInOrganization(ctx, orgID, *filter.VendorCompanyID)
		if err != nil {
			return domain.ListResult[*Product]{}, err
		}
		if !ok {
			return domain.ListResult[*Product]{}, apperror.NewNotFound("vendor company", filter.VendorCompanyID.String())
		}
	}
	filter.OrganizationID = orgID
	filter.List.Normalize(defaultListLimit, maxListLimit)
	return s.repo.List(ctx, filter)
}

// ListLowStock returns products whose quantity has fallen to their
// low-stock threshold.
func (s *Service) ListLowStock(ctx context.Context, vendorCompanyID *id.ID, list domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.List(ctx, Filter{
		VendorCompanyID: vendorCompanyID,
		LowStockOnly:    true,
		ActiveOnly:      true,
		List:            list,
	})
}

// UpdateInput carries the mutable product fields. Nil means unchanged.
// The SKU is immutable.
type UpdateInput struct {
	Name              *string
	Categories        []string
	Price             *decimal.Decimal
	StockQuantity     *int
	LowStockThreshold *int
	IsActive          *bool
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, productID id.ID, in UpdateInput) (*Product, error) {
	_, orgID, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.load(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}

	before := productSnapshot(p)

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Categories != nil {
		p.Categories = in.Categories
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	p.Touch()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	changes := audit.Diff(before, productSnapshot(p))
	if len(changes) > 0 {
		s.emit(ctx, audit.Entry{
			Action:     audit.ActionUpdate,
			EntityType: "vendor_product",
			EntityID:   p.ID,
			Changes:    changes,
		})
	}
	return p, nil
}

// StockUpdate is one item of a bulk stock change.
type StockUpdate struct {
	ProductID id.ID
	Quantity  int
}

// BulkUpdateStock applies stock changes sequentially, collecting per-item
// failures instead of aborting the batch. Partial success is the contract.
func (s *Service) BulkUpdateStock(ctx context.Context, updates []StockUpdate) (domain.BulkResult, error) {
	_, orgID, err := s.gate(ctx)
	if err != nil {
		return domain.BulkResult{}, err
	}

	var result domain.BulkResult
	for _, u := range updates {
		if err := s.applyStock(ctx, orgID, u); err != nil {
			result.Failed = append(result.Failed, u.ProductID.String())
			logger.Warn(ctx, "bulk stock update item failed",
				"product_id", u.ProductID.String(),
				"error", err,
			)
			continue
		}
		result.Updated++
	}
	return result, nil
}

func (s *Service) applyStock(ctx context.Context, orgID id.ID, u StockUpdate) error {
	if u.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative").WithDetail("productId", u.ProductID.String())
	}
	p, err := s.load(ctx, orgID, u.ProductID)
	if err != nil {
		return err
	}
	p.StockQuantity = u.Quantity
	p.Touch()
	return s.repo.Update(ctx, p)
}

// Delete removes a product. A product synced to any connection is only
// deactivated; an unsynced one is removed for good.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	_, orgID, err := s.gate(ctx)
	if err != nil {
		return err
	}

	p, err := s.load(ctx, orgID, productID)
	if err != nil {
		return err
	}

	if p.SyncedConnections > 0 {
		p.IsActive = false
		p.Touch()
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		s.emit(ctx, audit.Entry{
			Action:     audit.ActionDelete,
			EntityType: "vendor_product",
			EntityID:   p.ID,
			Metadata:   map[string]any{"deactivated": true, "syncedConnections": p.SyncedConnections},
		})
		return nil
	}

	if err := s.repo.HardDelete(ctx, productID); err != nil {
		return err
	}
	s.emit(ctx, audit.Entry{
		Action:     audit.ActionDelete,
		EntityType: "vendor_product",
		EntityID:   productID,
	})
	return nil
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

func productSnapshot(p *Product) map[string]any {
	return map[string]any{
		"name":              p.Name,
		"price":             p.Price.String(),
		"stockQuantity":     p.StockQuantity,
		"lowStockThreshold": p.LowStockThreshold,
		"isActive":          p.IsActive,
	}
}
