// Package company provides the Company entity and its tenant-scoped service.
package company

import (
	"context"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
)

// Status is the company lifecycle status.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

func isValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Company belongs to exactly one Client. The slug is derived from the name
// and regenerated whenever the name changes; the code comes from the code
// generator collaborator and never changes.
type Company struct {
	entity.Base

	ClientID id.ID  `db:"client_id" json:"clientId"`
	Name     string `db:"name" json:"name"`
	Slug     string `db:"slug" json:"slug"`
	Code     string `db:"code" json:"code"`
	Domain   string `db:"domain" json:"domain,omitempty"`
	Timezone string `db:"timezone" json:"timezone"`
	Currency string `db:"currency" json:"currency"`
	Status   Status `db:"status" json:"status"`
}

// Validate implements entity.Validatable.
func (c *Company) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if id.IsNil(c.ClientID) {
		return apperror.NewValidation("clientId is required").WithDetail("field", "clientId")
	}
	if !isValidStatus(c.Status) {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}
	return nil
}

// Site belongs to exactly one Company. Exactly one site per company is the
// default; it is created automatically with the company and inherits the
// company's timezone and currency.
type Site struct {
	entity.Base

	CompanyID id.ID  `db:"company_id" json:"companyId"`
	Name      string `db:"name" json:"name"`
	Code      string `db:"code" json:"code"`
	Timezone  string `db:"timezone" json:"timezone"`
	Currency  string `db:"currency" json:"currency"`
	IsDefault bool   `db:"is_default" json:"isDefault"`
}

// DefaultSiteFor builds the auto-created default site for a new company.
func DefaultSiteFor(c *Company, code string) *Site {
	return &Site{
		Base:      entity.NewBase(),
		CompanyID: c.ID,
		Name:      c.Name + " - Main Site",
		Code:      code,
		Timezone:  c.Timezone,
		Currency:  c.Currency,
		IsDefault: true,
	}
}

// Stats aggregates company counts for the resolved scope.
type Stats struct {
	TotalCompanies  int64         `json:"totalCompanies"`
	ActiveCompanies int64         `json:"activeCompanies"`
	ByClient        []ClientCount `json:"companiesByClient"`
}

// ClientCount is one row of the per-client breakdown.
type ClientCount struct {
	ClientID   id.ID  `json:"clientId"`
	ClientName string `json:"clientName"`
	Count      int64  `json:"count"`
}
