package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/domain/refund"
	"backoffice/internal/infrastructure/http/v1/dto"
	"backoffice/internal/infrastructure/report"
)

// RefundHandler handles HTTP requests for the refund workflow.
type RefundHandler struct {
	*BaseHandler
	service *refund.Service
}

// NewRefundHandler creates a new refund handler.
func NewRefundHandler(base *BaseHandler, service *refund.Service) *RefundHandler {
	return &RefundHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *RefundHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RefundListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CursorListResponse{
		Items:      dto.FromRefunds(result.Items),
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	})
}

func (h *RefundHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	refundID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	found, err := h.service.Get(ctx, refundID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefund(found))
}

func (h *RefundHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateRefundRequest
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

	h.Created(c, dto.FromRefund(created))
}

func (h *RefundHandler) Approve(c *gin.Context) {
	ctx := c.Request.Context()

	refundID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.ApproveRefundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	approved, err := h.service.Approve(ctx, refundID, req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefund(approved))
}

func (h *RefundHandler) Reject(c *gin.Context) {
	ctx := c.Request.Context()

	refundID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	rejected, err := h.service.Reject(ctx, refundID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefund(rejected))
}

// Process hands an APPROVED refund to settlement.
func (h *RefundHandler) Process(c *gin.Context) {
	ctx := c.Request.Context()

	refundID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	processing, err := h.service.Process(ctx, refundID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefund(processing))
}

func (h *RefundHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	refundID, err := dto.ParseID("id", c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	cancelled, err := h.service.Cancel(ctx, refundID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefund(cancelled))
}

func (h *RefundHandler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseOptionalID("companyId", c.Query("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	settings, err := h.service.GetSettings(ctx, companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefundSettings(settings))
}

func (h *RefundHandler) UpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseOptionalID("companyId", c.Query("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	var req dto.UpdateRefundSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	settings, err := h.service.UpdateSettings(ctx, companyID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefundSettings(settings))
}

func (h *RefundHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseOptionalID("companyId", c.Query("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	stats, err := h.service.GetStats(ctx, companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefundStats(stats))
}

// Export streams the refund statistics as an Excel workbook.
func (h *RefundHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	companyID, err := dto.ParseOptionalID("companyId", c.Query("companyId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	stats, err := h.service.GetStats(ctx, companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	data, err := report.RefundStats(stats)
	if err != nil {
		h.Error(c, err)
		return
	}

	filename := "refunds-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	h.Excel(c, filename, data)
}

// SettlementCallback finishes a PROCESSING refund when the settlement
// provider reports the payout outcome.
func (h *RefundHandler) SettlementCallback(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SettlementCallbackRequest
	if !h.BindJSON(c, &req) {
		return
	}
	refundID, err := req.ParsedRefundID()
	if err != nil {
		h.Error(c, err)
		return
	}
	if req.Status != "COMPLETED" {
		h.Error(c, apperror.NewValidation("unsupported settlement status").
			WithDetail("status", req.Status))
		return
	}

	completed, err := h.service.CompleteSettlement(ctx, refundID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRefund(completed))
}
