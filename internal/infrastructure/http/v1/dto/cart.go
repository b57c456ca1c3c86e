package dto

import (
	"github.com/shopspring/decimal"

	"backoffice/internal/domain/cart"
)

// AddCartItemRequest adds a product line to the session cart.
type AddCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest sets the quantity of an existing line. Zero removes
// the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpsellRequest adds one unit of a product through an upsell widget.
type UpsellRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// CartItemResponse is one cart line.
type CartItemResponse struct {
	ProductID string          `json:"productId"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Upsell    bool            `json:"upsell,omitempty"`
}

// CartResponse is the full session cart.
type CartResponse struct {
	SessionID string             `json:"sessionId"`
	SiteID    string             `json:"siteId"`
	Items     []CartItemResponse `json:"items"`
	Currency  string             `json:"currency,omitempty"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	UpdatedAt string             `json:"updatedAt"`
}

// FromCart maps the cart to the response.
func FromCart(c *cart.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartItemResponse{
			ProductID: it.ProductID.String(),
			SKU:       it.SKU,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Upsell:    it.Upsell,
		})
	}
	return CartResponse{
		SessionID: c.SessionID,
		SiteID:    c.SiteID.String(),
		Items:     items,
		Currency:  c.Currency,
		Subtotal:  c.Subtotal,
		UpdatedAt: c.UpdatedAt.Format(timeLayout),
	}
}

// WidgetConfigRequest upserts one widget configuration for a site.
type WidgetConfigRequest struct {
	Kind    string         `json:"kind" binding:"required"`
	Enabled bool           `json:"enabled"`
	Params  map[string]any `json:"params"`
}

// WidgetEventRequest records a storefront activity event.
type WidgetEventRequest struct {
	Event string `json:"event" binding:"required"`
}

// WidgetConfigResponse is one widget configuration as served to the
// storefront.
type WidgetConfigResponse struct {
	Kind    string         `json:"kind"`
	Enabled bool           `json:"enabled"`
	Params  map[string]any `json:"params,omitempty"`
}

// FromWidgetConfigs maps widget configurations.
func FromWidgetConfigs(configs []cart.WidgetConfig) []WidgetConfigResponse {
	out := make([]WidgetConfigResponse, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, WidgetConfigResponse{
			Kind:    string(cfg.Kind),
			Enabled: cfg.Enabled,
			Params:  cfg.Params,
		})
	}
	return out
}

// CounterResponse returns a social-proof counter value.
type CounterResponse struct {
	Event string `json:"event"`
	Count int64  `json:"count"`
}
