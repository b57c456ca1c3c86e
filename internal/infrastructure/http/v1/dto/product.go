package dto

import (
	"github.com/shopspring/decimal"

	"backoffice/internal/domain/vendorproduct"
)

// CreateProductRequest for adding vendor products.
type CreateProductRequest struct {
	VendorCompanyID   string          `json:"vendorCompanyId" binding:"required"`
	SKU               string          `json:"sku" binding:"required"`
	Name              string          `json:"name" binding:"required"`
	Categories        []string        `json:"categories"`
	Price             decimal.Decimal `json:"price"`
	Currency          string          `json:"currency"`
	StockQuantity     int             `json:"stockQuantity"`
	LowStockThreshold int             `json:"lowStockThreshold"`
}

// ToInput converts the request to the service input.
func (r CreateProductRequest) ToInput() (vendorproduct.CreateInput, error) {
	vendorCompanyID, err := ParseID("vendorCompanyId", r.VendorCompanyID)
	if err != nil {
		return vendorproduct.CreateInput{}, err
	}
	return vendorproduct.CreateInput{
		VendorCompanyID:   vendorCompanyID,
		SKU:               r.SKU,
		Name:              r.Name,
		Categories:        r.Categories,
		Price:             r.Price,
		Currency:          r.Currency,
		StockQuantity:     r.StockQuantity,
		LowStockThreshold: r.LowStockThreshold,
	}, nil
}

// UpdateProductRequest for partial product updates. The SKU is immutable.
type UpdateProductRequest struct {
	Name              *string          `json:"name"`
	Categories        []string         `json:"categories"`
	Price             *decimal.Decimal `json:"price"`
	StockQuantity     *int             `json:"stockQuantity"`
	LowStockThreshold *int             `json:"lowStockThreshold"`
	IsActive          *bool            `json:"isActive"`
}

// ToInput converts the request to the service input.
func (r UpdateProductRequest) ToInput() vendorproduct.UpdateInput {
	return vendorproduct.UpdateInput{
		Name:              r.Name,
		Categories:        r.Categories,
		Price:             r.Price,
		StockQuantity:     r.StockQuantity,
		LowStockThreshold: r.LowStockThreshold,
		IsActive:          r.IsActive,
	}
}

// BulkStockRequest applies stock levels across products.
type BulkStockRequest struct {
	Updates []BulkStockItem `json:"updates" binding:"required"`
}

// BulkStockItem is one line of a bulk stock update.
type BulkStockItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// ToUpdates converts the request lines, passing malformed ids through so
// the service reports them in the failed list.
func (r BulkStockRequest) ToUpdates() []vendorproduct.StockUpdate {
	updates := make([]vendorproduct.StockUpdate, 0, len(r.Updates))
	for _, item := range r.Updates {
		u := vendorproduct.StockUpdate{Quantity: item.Quantity}
		if parsed, err := ParseID("productId", item.ProductID); err == nil {
			u.ProductID = parsed
		}
		updates = append(updates, u)
	}
	return updates
}

// ProductResponse is a vendor product as the API returns it.
type ProductResponse struct {
	ID                string          `json:"id"`
	VendorCompanyID   string          `json:"vendorCompanyId"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Categories        []string        `json:"categories,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Currency          string          `json:"currency"`
	StockQuantity     int             `json:"stockQuantity"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	LowStock          bool            `json:"lowStock"`
	IsActive          bool            `json:"isActive"`
	SyncedConnections int             `json:"syncedConnections"`
	Version           int             `json:"version"`
	CreatedAt         string          `json:"createdAt"`
	UpdatedAt         string          `json:"updatedAt"`
}

// FromProduct maps the entity to the response.
func FromProduct(p *vendorproduct.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID.String(),
		VendorCompanyID:   p.VendorCompanyID.String(),
		SKU:               p.SKU,
		Name:              p.Name,
		Categories:        p.Categories,
		Price:             p.Price,
		Currency:          p.Currency,
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
		IsActive:          p.IsActive,
		SyncedConnections: p.SyncedConnections,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt.Format(timeLayout),
		UpdatedAt:         p.UpdatedAt.Format(timeLayout),
	}
}

// FromProducts maps a list of entities.
func FromProducts(products []*vendorproduct.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}
