// Package refund implements the refund approval workflow: request intake,
// tiering, auto-approval, the status state machine and settlement handoff.
package refund

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
)

// Status is the refund workflow status.
//
// PENDING → APPROVED (manual or automatic) → PROCESSING → COMPLETED
// PENDING → REJECTED
// {PENDING, APPROVED} → CANCELLED
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Tier is the approval tier computed from the requested amount at creation
// time, independent of the auto-approval outcome.
type Tier string

const (
	Tier1 Tier = "TIER_1"
	Tier2 Tier = "TIER_2"
	Tier3 Tier = "TIER_3"
)

var (
	tier2At = decimal.NewFromInt(100)
	tier3At = decimal.NewFromInt(500)
)

// TierFor computes the approval tier for a requested amount.
func TierFor(amount decimal.Decimal) Tier {
	switch {
	case amount.GreaterThanOrEqual(tier3At):
		return Tier3
	case amount.GreaterThanOrEqual(tier2At):
		return Tier2
	default:
		return Tier1
	}
}

// SystemAutoApprover is the synthetic approver recorded on auto-approved
// refunds.
const SystemAutoApprover = "SYSTEM_AUTO_APPROVAL"

// Refund is a single refund request against an order.
type Refund struct {
	entity.Base

	CompanyID  id.ID `db:"company_id" json:"companyId"`
	CustomerID id.ID `db:"customer_id" json:"customerId"`
	OrderID    id.ID `db:"order_id" json:"orderId"`

	RequestedAmount decimal.Decimal  `db:"requested_amount" json:"requestedAmount"`
	ApprovedAmount  *decimal.Decimal `db:"approved_amount" json:"approvedAmount,omitempty"`
	Currency        string           `db:"currency" json:"currency"`
	Method          string           `db:"method" json:"method"`
	Reason          string           `db:"reason" json:"reason,omitempty"`

	Tier   Tier   `db:"tier" json:"tier"`
	Status Status `db:"status" json:"status"`

	// AutoApprovalRule is a human-readable explanation recorded when the
	// refund was approved automatically.
	AutoApprovalRule *string `db:"auto_approval_rule" json:"autoApprovalRule,omitempty"`

	ApprovedBy  *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	RejectedBy  *string    `db:"rejected_by" json:"rejectedBy,omitempty"`
	RejectedAt  *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	CancelledBy *string    `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// Validate implements entity.Validatable.
func (r *Refund) Validate(ctx context.Context) error {
	if id.IsNil(r.CompanyID) {
		return apperror.NewValidation("companyId is required").WithDetail("field", "companyId")
	}
	if id.IsNil(r.OrderID) {
		return apperror.NewValidation("orderId is required").WithDetail("field", "orderId")
	}
	if id.IsNil(r.CustomerID) {
		return apperror.NewValidation("customerId is required").WithDetail("field", "customerId")
	}
	if !r.RequestedAmount.IsPositive() {
		return apperror.NewValidation("requestedAmount must be positive").WithDetail("field", "requestedAmount")
	}
	if r.Currency == "" {
		return apperror.NewValidation("currency is required").WithDetail("field", "currency")
	}
	return nil
}

// Approve moves a PENDING refund to APPROVED. A nil amount approves the
// requested amount in full.
func (r *Refund) Approve(by string, amount *decimal.Decimal, at time.Time) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidTransition("refund", string(r.Status), "approve")
	}
	approved := r.RequestedAmount
	if amount != nil {
		approved = *amount
	}
	r.Status = StatusApproved
	r.ApprovedAmount = &approved
	r.ApprovedBy = &by
	r.ApprovedAt = &at
	r.Touch()
	return nil
}

// Reject moves a PENDING refund to REJECTED.
func (r *Refund) Reject(by string, at time.Time) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidTransition("refund", string(r.Status), "reject")
	}
	r.Status = StatusRejected
	r.RejectedBy = &by
	r.RejectedAt = &at
	r.Touch()
	return nil
}

// StartProcessing moves an APPROVED refund to PROCESSING.
func (r *Refund) StartProcessing() error {
	if r.Status != StatusApproved {
		return apperror.NewInvalidTransition("refund", string(r.Status), "process")
	}
	r.Status = StatusProcessing
	r.Touch()
	return nil
}

// Complete moves a PROCESSING refund to COMPLETED.
func (r *Refund) Complete(at time.Time) error {
	if r.Status != StatusProcessing {
		return apperror.NewInvalidTransition("refund", string(r.Status), "complete")
	}
	r.Status = StatusCompleted
	r.CompletedAt = &at
	r.Touch()
	return nil
}

// Cancel moves a PENDING or APPROVED refund to CANCELLED.
func (r *Refund) Cancel(by string, at time.Time) error {
	if r.Status != StatusPending && r.Status != StatusApproved {
		return apperror.NewInvalidTransition("refund", string(r.Status), "cancel")
	}
	r.Status = StatusCancelled
	r.CancelledBy = &by
	r.CancelledAt = &at
	r.Touch()
	return nil
}

// DaysSinceOrder computes whole days elapsed between the order date and now,
// truncated toward zero.
func DaysSinceOrder(orderDate, now time.Time) int {
	return int(now.Sub(orderDate) / (24 * time.Hour))
}

// Stats aggregates refund counts and settlement figures for a scope.
type Stats struct {
	ByStatus       map[Status]int64 `json:"byStatus"`
	CompletedCount int64            `json:"completedCount"`
	CompletedTotal decimal.Decimal  `json:"completedTotal"`

	// AvgProcessingHours is the mean COMPLETED turnaround; nil when no
	// refund has completed yet.
	AvgProcessingHours *float64 `json:"avgProcessingHours,omitempty"`
}
