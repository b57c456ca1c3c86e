package refund

import (
	"github.com/shopspring/decimal"

	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
)

// Settings holds the per-company refund configuration, one-to-one with the
// company. Rows are created lazily with defaults on first read.
type Settings struct {
	entity.Base

	CompanyID id.ID `db:"company_id" json:"companyId"`

	AutoApprovalEnabled   bool            `db:"auto_approval_enabled" json:"autoApprovalEnabled"`
	AutoApprovalMaxAmount decimal.Decimal `db:"auto_approval_max_amount" json:"autoApprovalMaxAmount"`
	AutoApprovalMaxDays   int             `db:"auto_approval_max_days" json:"autoApprovalMaxDays"`

	RequireReason bool `db:"require_reason" json:"requireReason"`
	AllowPartial  bool `db:"allow_partial" json:"allowPartial"`

	// Expression is an optional CEL predicate evaluated on top of the
	// threshold checks; empty means thresholds alone decide.
	Expression string `db:"expression" json:"expression,omitempty"`
}

// DefaultSettings builds the lazily-created settings row for a company.
func DefaultSettings(companyID id.ID) *Settings {
	return &Settings{
		Base:                  entity.NewBase(),
		CompanyID:             companyID,
		AutoApprovalEnabled:   false,
		AutoApprovalMaxAmount: decimal.NewFromInt(100),
		AutoApprovalMaxDays:   30,
		RequireReason:         true,
		AllowPartial:          true,
	}
}
