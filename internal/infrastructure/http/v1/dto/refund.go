package dto

import (
	"github.com/shopspring/decimal"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/refund"
)

// CreateRefundRequest opens a refund against an order. CompanyID is
// required for admin scopes and ignored for company-scoped callers.
type CreateRefundRequest struct {
	CompanyID  string          `json:"companyId"`
	CustomerID string          `json:"customerId" binding:"required"`
	OrderID    string          `json:"orderId" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency" binding:"required"`
	Method     string          `json:"method" binding:"required"`
	Reason     string          `json:"reason"`
}

// ToInput converts the request to the service input.
func (r CreateRefundRequest) ToInput() (refund.CreateInput, error) {
	companyID, err := ParseOptionalID("companyId", r.CompanyID)
	if err != nil {
		return refund.CreateInput{}, err
	}
	customerID, err := ParseID("customerId", r.CustomerID)
	if err != nil {
		return refund.CreateInput{}, err
	}
	orderID, err := ParseID("orderId", r.OrderID)
	if err != nil {
		return refund.CreateInput{}, err
	}
	return refund.CreateInput{
		CompanyID:  companyID,
		CustomerID: customerID,
		OrderID:    orderID,
		Amount:     r.Amount,
		Currency:   r.Currency,
		Method:     r.Method,
		Reason:     r.Reason,
	}, nil
}

// ApproveRefundRequest optionally overrides the approved amount.
type ApproveRefundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// RefundListRequest narrows a refund listing.
type RefundListRequest struct {
	CompanyID string `form:"companyId"`
	Status    string `form:"status"`
	Cursor    string `form:"cursor"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// ToInput converts the request to the service input.
func (r RefundListRequest) ToInput() (refund.ListInput, error) {
	companyID, err := ParseOptionalID("companyId", r.CompanyID)
	if err != nil {
		return refund.ListInput{}, err
	}
	in := refund.ListInput{
		CompanyID: companyID,
		Status:    refund.Status(r.Status),
		Cursor:    r.Cursor,
	}
	in.Filter.Limit = r.Limit
	in.Filter.Offset = r.Offset
	return in, nil
}

// RefundResponse is a refund as the API returns it.
type RefundResponse struct {
	ID         string `json:"id"`
	CompanyID  string `json:"companyId"`
	CustomerID string `json:"customerId"`
	OrderID    string `json:"orderId"`

	RequestedAmount decimal.Decimal  `json:"requestedAmount"`
	ApprovedAmount  *decimal.Decimal `json:"approvedAmount,omitempty"`
	Currency        string           `json:"currency"`
	Method          string           `json:"method"`
	Reason          string           `json:"reason,omitempty"`

	Tier   string `json:"tier"`
	Status string `json:"status"`

	AutoApprovalRule *string `json:"autoApprovalRule,omitempty"`

	ApprovedBy  *string `json:"approvedBy,omitempty"`
	ApprovedAt  *string `json:"approvedAt,omitempty"`
	RejectedBy  *string `json:"rejectedBy,omitempty"`
	RejectedAt  *string `json:"rejectedAt,omitempty"`
	CancelledBy *string `json:"cancelledBy,omitempty"`
	CancelledAt *string `json:"cancelledAt,omitempty"`
	CompletedAt *string `json:"completedAt,omitempty"`

	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// FromRefund maps the entity to the response.
func FromRefund(r *refund.Refund) RefundResponse {
	return RefundResponse{
		ID:               r.ID.String(),
		CompanyID:        r.CompanyID.String(),
		CustomerID:       r.CustomerID.String(),
		OrderID:          r.OrderID.String(),
		RequestedAmount:  r.RequestedAmount,
		ApprovedAmount:   r.ApprovedAmount,
		Currency:         r.Currency,
		Method:           r.Method,
		Reason:           r.Reason,
		Tier:             string(r.Tier),
		Status:           string(r.Status),
		AutoApprovalRule: r.AutoApprovalRule,
		ApprovedBy:       r.ApprovedBy,
		ApprovedAt:       formatTime(r.ApprovedAt),
		RejectedBy:       r.RejectedBy,
		RejectedAt:       formatTime(r.RejectedAt),
		CancelledBy:      r.CancelledBy,
		CancelledAt:      formatTime(r.CancelledAt),
		CompletedAt:      formatTime(r.CompletedAt),
		Version:          r.Version,
		CreatedAt:        r.CreatedAt.Format(timeLayout),
		UpdatedAt:        r.UpdatedAt.Format(timeLayout),
	}
}

// FromRefunds maps a list of entities.
func FromRefunds(refunds []*refund.Refund) []RefundResponse {
	out := make([]RefundResponse, 0, len(refunds))
	for _, r := range refunds {
		out = append(out, FromRefund(r))
	}
	return out
}

// RefundSettingsResponse is the per-company refund configuration.
type RefundSettingsResponse struct {
	CompanyID             string          `json:"companyId"`
	AutoApprovalEnabled   bool            `json:"autoApprovalEnabled"`
	AutoApprovalMaxAmount decimal.Decimal `json:"autoApprovalMaxAmount"`
	AutoApprovalMaxDays   int             `json:"autoApprovalMaxDays"`
	RequireReason         bool            `json:"requireReason"`
	AllowPartial          bool            `json:"allowPartial"`
	Expression            string          `json:"expression,omitempty"`
	Version               int             `json:"version"`
	UpdatedAt             string          `json:"updatedAt"`
}

// FromRefundSettings maps the entity to the response.
func FromRefundSettings(s *refund.Settings) RefundSettingsResponse {
	return RefundSettingsResponse{
		CompanyID:             s.CompanyID.String(),
		AutoApprovalEnabled:   s.AutoApprovalEnabled,
		AutoApprovalMaxAmount: s.AutoApprovalMaxAmount,
		AutoApprovalMaxDays:   s.AutoApprovalMaxDays,
		RequireReason:         s.RequireReason,
		AllowPartial:          s.AllowPartial,
		Expression:            s.Expression,
		Version:               s.Version,
		UpdatedAt:             s.UpdatedAt.Format(timeLayout),
	}
}

// UpdateRefundSettingsRequest partially updates the company's refund
// configuration. Nil fields stay unchanged.
type UpdateRefundSettingsRequest struct {
	AutoApprovalEnabled   *bool            `json:"autoApprovalEnabled"`
	AutoApprovalMaxAmount *decimal.Decimal `json:"autoApprovalMaxAmount"`
	AutoApprovalMaxDays   *int             `json:"autoApprovalMaxDays"`
	RequireReason         *bool            `json:"requireReason"`
	AllowPartial          *bool            `json:"allowPartial"`
	Expression            *string          `json:"expression"`
}

// ToInput converts the request to the service input.
func (r UpdateRefundSettingsRequest) ToInput() refund.UpdateSettingsInput {
	return refund.UpdateSettingsInput{
		AutoApprovalEnabled:   r.AutoApprovalEnabled,
		AutoApprovalMaxAmount: r.AutoApprovalMaxAmount,
		AutoApprovalMaxDays:   r.AutoApprovalMaxDays,
		RequireReason:         r.RequireReason,
		AllowPartial:          r.AllowPartial,
		Expression:            r.Expression,
	}
}

// RefundStatsResponse aggregates refund figures for a scope.
type RefundStatsResponse struct {
	ByStatus           map[string]int64 `json:"byStatus"`
	CompletedCount     int64            `json:"completedCount"`
	CompletedTotal     decimal.Decimal  `json:"completedTotal"`
	AvgProcessingHours *float64         `json:"avgProcessingHours,omitempty"`
}

// FromRefundStats maps the aggregate to the response.
func FromRefundStats(s *refund.Stats) RefundStatsResponse {
	byStatus := make(map[string]int64, len(s.ByStatus))
	for status, n := range s.ByStatus {
		byStatus[string(status)] = n
	}
	return RefundStatsResponse{
		ByStatus:           byStatus,
		CompletedCount:     s.CompletedCount,
		CompletedTotal:     s.CompletedTotal,
		AvgProcessingHours: s.AvgProcessingHours,
	}
}

// SettlementCallbackRequest is the payload the settlement provider posts
// back when a payout finishes.
type SettlementCallbackRequest struct {
	RefundID  string `json:"refundId" binding:"required"`
	Reference string `json:"reference"`
	Status    string `json:"status" binding:"required"`
}

// ParsedRefundID parses the refund identifier.
func (r SettlementCallbackRequest) ParsedRefundID() (id.ID, error) {
	return ParseID("refundId", r.RefundID)
}
