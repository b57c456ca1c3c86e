package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/vendorproduct"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for vendor products.
type ProductHandler struct {
	*BaseHandler
	service *vendorproduct.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *vendorproduct.Service) *ProductHandler {
	return &ProductHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *ProductHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	vendorCompanyID, err := dto.ParseOptionalID("vendorCompanyId", c.Query("vendorCompanyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	filter := vendorproduct.Filter{
		VendorCompanyID: vendorCompanyID,
		ActiveOnly:      c.Query("activeOnly") == "true",
		LowStockOnly:    c.Query("lowStockOnly") == "true",
		List:            req.ToFilter(),
	}
	if categories := c.Query("categories"); categories != "" {
		filter.Categories = strings.Split(categories, ",")
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromProducts(result.Items),
		Total: result.Total,
	})
}

// LowStock lists products at or below their restock threshold.
func (h *ProductHandler) LowStock(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	vendorCompanyID, err := dto.ParseOptionalID("vendorCompanyId", c.Query("vendorCompanyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.ListLowStock(ctx, vendorCompanyID, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromProducts(result.Items),
		Total: result.Total,
	})
}

func (h *ProductHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	found, err := h.service.Get(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(found))
}

func (h *ProductHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.Create(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromProduct(created))
}

func (h *ProductHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(ctx, productID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(updated))
}

// BulkStock applies stock levels across products; partial success comes
// back with the per-item failure list.
func (h *ProductHandler) BulkStock(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.BulkStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.BulkUpdateStock(ctx, req.ToUpdates())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Delete(ctx, productID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
