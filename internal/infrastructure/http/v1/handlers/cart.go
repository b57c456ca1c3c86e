package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/domain/cart"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// sessionHeader carries the storefront session identifier.
const sessionHeader = "X-Session-ID"

// CartHandler handles storefront cart requests. These endpoints are keyed
// by session, not by an authenticated principal.
type CartHandler struct {
	*BaseHandler
	service *cart.Service
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(base *BaseHandler, service *cart.Service) *CartHandler {
	return &CartHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *CartHandler) session(c *gin.Context) (string, bool) {
	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		h.Error(c, apperror.NewValidation("missing session header").WithDetail("header", sessionHeader))
		return "", false
	}
	return sessionID, true
}

func (h *CartHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.session(c)
	if !ok {
		return
	}
	siteID, err := dto.ParseID("siteId", c.Param("siteId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	found, err := h.service.Get(ctx, sessionID, siteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCart(found))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.session(c)
	if !ok {
		return
	}
	siteID, err := dto.ParseID("siteId", c.Param("siteId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.AddCartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, err := dto.ParseID("productId", req.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.AddItem(ctx, sessionID, siteID, productID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCart(updated))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.session(c)
	if !ok {
		return
	}
	siteID, err := dto.ParseID("siteId", c.Param("siteId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.UpdateCartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.UpdateQuantity(ctx, sessionID, siteID, productID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCart(updated))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.session(c)
	if !ok {
		return
	}
	siteID, err := dto.ParseID("siteId", c.Param("siteId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.RemoveItem(ctx, sessionID, siteID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCart(updated))
}

// Upsell adds one unit of a product attributed to an upsell widget.
func (h *CartHandler) Upsell(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.session(c)
	if !ok {
		return
	}
	siteID, err := dto.ParseID("siteId", c.Param("siteId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.UpsellRequest
	if !h.BindJSON(c, &req) {
		return
	}
	productID, err := dto.ParseID("productId", req.ProductID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.ApplyUpsell(ctx, sessionID, siteID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCart(updated))
}

func (h *CartHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()

	sessionID, ok := h.session(c)
	if !ok {
		return
	}

	if err := h.service.Clear(ctx, sessionID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
