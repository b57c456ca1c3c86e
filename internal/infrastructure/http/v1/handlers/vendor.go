package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/vendor"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// VendorHandler handles HTTP requests for vendors and vendor companies.
type VendorHandler struct {
	*BaseHandler
	service *vendor.Service
}

// NewVendorHandler creates a new vendor handler.
func NewVendorHandler(base *BaseHandler, service *vendor.Service) *VendorHandler {
	return &VendorHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *VendorHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.service.List(ctx, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromVendors(result.Items),
		Total: result.Total,
	})
}

func (h *VendorHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	found, err := h.service.Get(ctx, vendorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromVendor(found))
}

func (h *VendorHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateVendorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Create(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromVendor(created))
}

func (h *VendorHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.UpdateVendorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(ctx, vendorID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromVendor(updated))
}

// Verify moves a vendor out of PENDING_VERIFICATION.
func (h *VendorHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	verified, err := h.service.Verify(ctx, vendorID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromVendor(verified))
}

func (h *VendorHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Delete(ctx, vendorID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

func (h *VendorHandler) ListCompanies(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.service.ListCompanies(ctx, vendorID, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromVendorCompanies(result.Items),
		Total: result.Total,
	})
}

func (h *VendorHandler) CreateCompany(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.VendorCompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.service.CreateCompany(ctx, vendorID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromVendorCompany(created))
}

func (h *VendorHandler) GetCompany(c *gin.Context) {
	ctx := c.Request.Context()

	vendorCompanyID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	found, err := h.service.GetCompany(ctx, vendorCompanyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromVendorCompany(found))
}

func (h *VendorHandler) UpdateCompany(c *gin.Context) {
	ctx := c.Request.Context()

	vendorCompanyID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.VendorCompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.UpdateCompany(ctx, vendorCompanyID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromVendorCompany(updated))
}

func (h *VendorHandler) DeleteCompany(c *gin.Context) {
	ctx := c.Request.Context()

	vendorCompanyID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.DeleteCompany(ctx, vendorCompanyID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
