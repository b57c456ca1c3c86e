package handlers

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/domain/connection"
	"backoffice/internal/infrastructure/http/v1/dto"
)

// ConnectionHandler handles HTTP requests for vendor-client connections.
type ConnectionHandler struct {
	*BaseHandler
	service *connection.Service
}

// NewConnectionHandler creates a new connection handler.
func NewConnectionHandler(base *BaseHandler, service *connection.Service) *ConnectionHandler {
	return &ConnectionHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *ConnectionHandler) List(c *gin.Context) {
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
	companyID, err := dto.ParseOptionalID("companyId", c.Query("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	filter := connection.Filter{
		VendorCompanyID: vendorCompanyID,
		CompanyID:       companyID,
		Status:          connection.Status(req.Status),
		List:            req.ToFilter(),
	}
	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items: dto.FromConnections(result.Items),
		Total: result.Total,
	})
}

func (h *ConnectionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	connectionID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	found, err := h.service.Get(ctx, connectionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromConnection(found))
}

func (h *ConnectionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateConnectionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	vendorCompanyID, err := dto.ParseID("vendorCompanyId", req.VendorCompanyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	companyID, err := dto.ParseID("companyId", req.CompanyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.Create(ctx, vendorCompanyID, companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromConnection(created))
}

func (h *ConnectionHandler) Approve(c *gin.Context) {
	ctx := c.Request.Context()

	connectionID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	approved, err := h.service.Approve(ctx, connectionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromConnection(approved))
}

func (h *ConnectionHandler) Reject(c *gin.Context) {
	ctx := c.Request.Context()

	connectionID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	rejected, err := h.service.Reject(ctx, connectionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromConnection(rejected))
}
