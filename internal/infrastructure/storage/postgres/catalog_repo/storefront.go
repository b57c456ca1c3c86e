package catalog_repo

import (
	"context"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/cart"
)

// StorefrontCatalog adapts the vendor product repository to the cart's
// view of the catalog. Inactive products behave as if they do not exist.
type StorefrontCatalog struct {
	products *VendorProductRepo
}

var _ cart.ProductCatalog = (*StorefrontCatalog)(nil)

// NewStorefrontCatalog creates the storefront catalog adapter.
func NewStorefrontCatalog(products *VendorProductRepo) *StorefrontCatalog {
	return &StorefrontCatalog{products: products}
}

// ActiveProduct resolves a live, active product for a cart line.
func (c *StorefrontCatalog) ActiveProduct(ctx context.Context, productID id.ID) (*cart.CatalogProduct, error) {
	p, err := c.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperror.NewNotFound("vendor_products", productID.String())
	}

	return &cart.CatalogProduct{
		ID:       p.ID,
		SKU:      p.SKU,
		Name:     p.Name,
		Price:    p.Price,
		Currency: p.Currency,
		InStock:  p.StockQuantity,
	}, nil
}
