package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/company"
	"backoffice/internal/infrastructure/http/v1/dto"
	"backoffice/internal/infrastructure/report"
)

// CompanyHandler handles HTTP requests for companies and their sites.
type CompanyHandler struct {
	*BaseHandler
	service *company.Service
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(base *BaseHandler, service *company.Service) *CompanyHandler {
	return &CompanyHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *CompanyHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	clientID, err := dto.ParseOptionalID("clientId", c.Query("clientId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(ctx, clientID, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromCompanies(result.Items),
		Total: result.Total,
	})
}

func (h *CompanyHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	found, err := h.service.Get(ctx, companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCompany(found))
}

func (h *CompanyHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateCompanyRequest
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

	h.Created(c, dto.FromCompany(created))
}

func (h *CompanyHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.UpdateCompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.Update(ctx, companyID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCompany(updated))
}

func (h *CompanyHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Delete(ctx, companyID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

func (h *CompanyHandler) ListSites(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	sites, err := h.service.ListSites(ctx, companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.SiteResponse, 0, len(sites))
	for _, s := range sites {
		items = append(items, dto.FromSite(s))
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: items, Total: int64(len(items))})
}

func (h *CompanyHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.service.GetStats(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, stats)
}

// Export streams the company statistics as an Excel workbook.
func (h *CompanyHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.service.GetStats(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	data, err := report.CompanyStats(stats)
	if err != nil {
		h.Error(c, err)
		return
	}

	filename := "companies-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	h.Excel(c, filename, data)
}
