package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/cart"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// WidgetHandler serves checkout-conversion widget configuration to the
// storefront and accepts admin upserts.
type WidgetHandler struct {
	*BaseHandler
	service *cart.WidgetService
}

// NewWidgetHandler creates a new widget handler.
func NewWidgetHandler(base *BaseHandler, service *cart.WidgetService) *WidgetHandler {
	return &WidgetHandler{
		BaseHandler: base,
		service:     service,
	}
}

// SiteWidgets returns the enabled widgets for a site.
func (h *WidgetHandler) SiteWidgets(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := dto.ParseID("siteId", c.Param("siteId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	configs, err := h.service.SiteWidgets(ctx, siteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromWidgetConfigs(configs))
}

// Configure upserts a widget configuration for a site.
func (h *WidgetHandler) Configure(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := dto.ParseID("siteId", c.Param("siteId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.WidgetConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg := cart.WidgetConfig{
		SiteID:  siteID,
		Kind:    cart.WidgetKind(req.Kind),
		Enabled: req.Enabled,
		Params:  req.Params,
	}
	if err := h.service.Configure(ctx, cfg); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "widget configured")
}

// RecordEvent bumps a social-proof counter for a site.
func (h *WidgetHandler) RecordEvent(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := dto.ParseID("siteId", c.Param("siteId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.WidgetEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	count, err := h.service.RecordEvent(ctx, siteID, req.Event)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CounterResponse{Event: req.Event, Count: count})
}
