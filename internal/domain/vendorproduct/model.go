// Package vendorproduct provides the VendorProduct catalog under a vendor
// company.
package vendorproduct

import (
	"context"

	"github.com/shopspring/decimal"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
)

// Product is a sellable item under a vendor company. SKUs are unique per
// vendor company. A product synced to at least one connection can only be
// deactivated, never hard-deleted.
type Product struct {
	entity.Base

	VendorCompanyID id.ID           `db:"vendor_company_id" json:"vendorCompanyId"`
	SKU             string          `db:"sku" json:"sku"`
	Name            string          `db:"name" json:"name"`
	Categories      []string        `db:"categories" json:"categories,omitempty"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Currency        string          `db:"currency" json:"currency"`

	StockQuantity     int  `db:"stock_quantity" json:"stockQuantity"`
	LowStockThreshold int  `db:"low_stock_threshold" json:"lowStockThreshold"`
	IsActive          bool `db:"is_active" json:"isActive"`

	// SyncedConnections counts the connections this product is published
	// through; nonzero blocks hard deletion.
	SyncedConnections int `db:"synced_connections" json:"syncedConnections"`

	CascadeID *id.ID `db:"cascade_id" json:"cascadeId,omitempty"`
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if id.IsNil(p.VendorCompanyID) {
		return apperror.NewValidation("vendorCompanyId is required").WithDetail("field", "vendorCompanyId")
	}
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").WithDetail("field", "price")
	}
	if p.StockQuantity < 0 {
		return apperror.NewValidation("stockQuantity must not be negative").WithDetail("field", "stockQuantity")
	}
	return nil
}

// IsLowStock reports whether the quantity has fallen to the threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}
