// Package connection provides the vendor-to-buyer connection entity: the
// join between a VendorCompany (seller) and a Company (buyer).
package connection

import (
	"context"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
)

// Status is the connection lifecycle status. The approve/reject decision
// is one-shot: once a connection leaves PENDING it never returns.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusActive     Status = "ACTIVE"
	StatusTerminated Status = "TERMINATED"
)

// Connection links a vendor company to a buying company. At most one
// connection exists per (vendorCompany, company) pair.
type Connection struct {
	entity.Base

	VendorCompanyID id.ID  `db:"vendor_company_id" json:"vendorCompanyId"`
	CompanyID       id.ID  `db:"company_id" json:"companyId"`
	Status          Status `db:"status" json:"status"`

	DecidedBy *string    `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt *time.Time `db:"decided_at" json:"decidedAt,omitempty"`

	// CascadeID is stamped when the row is soft-deleted as part of a
	// parent vendor deletion.
	CascadeID *id.ID `db:"cascade_id" json:"cascadeId,omitempty"`
}

// Validate implements entity.Validatable.
func (c *Connection) Validate(ctx context.Context) error {
	if id.IsNil(c.VendorCompanyID) {
		return apperror.NewValidation("vendorCompanyId is required").WithDetail("field", "vendorCompanyId")
	}
	if id.IsNil(c.CompanyID) {
		return apperror.NewValidation("companyId is required").WithDetail("field", "companyId")
	}
	return nil
}

// decide applies the one-shot transition out of PENDING.
func (c *Connection) decide(to Status, by string, at time.Time) error {
	if c.Status != StatusPending {
		return apperror.NewInvalidTransition("connection", string(c.Status), string(to))
	}
	c.Status = to
	c.DecidedBy = &by
	c.DecidedAt = &at
	c.Touch()
	return nil
}
