// Package cart provides the storefront cart: session-keyed, Redis-backed
// state with server-computed totals.
package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
)

// DefaultTTL is how long an idle cart survives. Every mutation refreshes it.
const DefaultTTL = 24 * time.Hour

// Item is one line of a cart.
type Item struct {
	ProductID id.ID           `json:"productId"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`

	// Upsell marks lines added through an upsell widget so conversion
	// can be attributed.
	Upsell bool `json:"upsell,omitempty"`
}

// Cart is the full session cart state.
type Cart struct {
	SessionID string          `json:"sessionId"`
	SiteID    id.ID           `json:"siteId"`
	Items     []Item          `json:"items"`
	Currency  string          `json:"currency"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// recompute refreshes the subtotal from the lines.
func (c *Cart) recompute(now time.Time) {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.Subtotal = total
	c.UpdatedAt = now
}

// Store is the persistence port for carts.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, c *Cart, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// ProductCatalog resolves products for cart lines. Inactive products are
// not addable.
type ProductCatalog interface {
	ActiveProduct(ctx context.Context, productID id.ID) (*CatalogProduct, error)
}

// CatalogProduct is the product slice the cart needs.
type CatalogProduct struct {
	ID       id.ID
	SKU      string
	Name     string
	Price    decimal.Decimal
	Currency string
	InStock  int
}

// Service manages session carts.
type Service struct {
	store   Store
	catalog ProductCatalog
	ttl     time.Duration
}

// NewService wires the cart service.
func NewService(store Store, catalog ProductCatalog, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, catalog: catalog, ttl: ttl}
}

// Get returns the session cart, or an empty one if none exists yet.
func (s *Service) Get(ctx context.Context, sessionID string, siteID id.ID) (*Cart, error) {
	if sessionID == "" {
		return nil, apperror.NewValidation("sessionId is required")
	}
	c, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return &Cart{SessionID: sessionID, SiteID: siteID, Items: []Item{}, Subtotal: decimal.Zero}, nil
		}
		return nil, err
	}
	return c, nil
}

// AddItem adds a product line, merging quantity into an existing line for
// the same product.
func (s *Service) AddItem(ctx context.Context, sessionID string, siteID, productID id.ID, quantity int) (*Cart, error) {
	return s.addLine(ctx, sessionID, siteID, productID, quantity, false)
}

// ApplyUpsell adds a product line attributed to an upsell widget.
func (s *Service) ApplyUpsell(ctx context.Context, sessionID string, siteID, productID id.ID) (*Cart, error) {
	return s.addLine(ctx, sessionID, siteID, productID, 1, true)
}

func (s *Service) addLine(ctx context.Context, sessionID string, siteID, productID id.ID, quantity int, upsell bool) (*Cart, error) {
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive")
	}

	c, err := s.Get(ctx, sessionID, siteID)
	if err != nil {
		return nil, err
	}

	p, err := s.catalog.ActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  quantity,
			Upsell:    upsell,
		})
		if c.Currency == "" {
			c.Currency = p.Currency
		}
	}

	return c, s.persist(ctx, c)
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, siteID, productID id.ID, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, apperror.NewValidation("quantity must not be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, sessionID, siteID, productID)
	}

	c, err := s.Get(ctx, sessionID, siteID)
	if err != nil {
		return nil, err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return c, s.persist(ctx, c)
		}
	}
	return nil, apperror.NewNotFound("cart item", productID.String())
}

// RemoveItem drops a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, sessionID string, siteID, productID id.ID) (*Cart, error) {
	c, err := s.Get(ctx, sessionID, siteID)
	if err != nil {
		return nil, err
	}

	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return c, s.persist(ctx, c)
}

// Clear drops the whole session cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperror.NewValidation("sessionId is required")
	}
	return s.store.Delete(ctx, sessionID)
}

func (s *Service) persist(ctx context.Context, c *Cart) error {
	c.recompute(time.Now().UTC())
	return s.store.Save(ctx, c, s.ttl)
}
