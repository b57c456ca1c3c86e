package dto

import (
	"backoffice/internal/domain/connection"
)

// CreateConnectionRequest requests a vendor-to-buyer connection.
type CreateConnectionRequest struct {
	VendorCompanyID string `json:"vendorCompanyId" binding:"required"`
	CompanyID       string `json:"companyId" binding:"required"`
}

// ConnectionResponse is a connection as the API returns it.
type ConnectionResponse struct {
	ID              string  `json:"id"`
	VendorCompanyID string  `json:"vendorCompanyId"`
	CompanyID       string  `json:"companyId"`
	Status          string  `json:"status"`
	DecidedBy       *string `json:"decidedBy,omitempty"`
	DecidedAt       *string `json:"decidedAt,omitempty"`
	Version         int     `json:"version"`
	CreatedAt       string  `json:"createdAt"`
}

// FromConnection maps the entity to the response.
func FromConnection(c *connection.Connection) ConnectionResponse {
	resp := ConnectionResponse{
		ID:              c.ID.String(),
		VendorCompanyID: c.VendorCompanyID.String(),
		CompanyID:       c.CompanyID.String(),
		Status:          string(c.Status),
		DecidedBy:       c.DecidedBy,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt.Format(timeLayout),
	}
	if c.DecidedAt != nil {
		at := c.DecidedAt.Format(timeLayout)
		resp.DecidedAt = &at
	}
	return resp
}

// FromConnections maps a list of entities.
func FromConnections(connections []*connection.Connection) []ConnectionResponse {
	out := make([]ConnectionResponse, 0, len(connections))
	for _, c := range connections {
		out = append(out, FromConnection(c))
	}
	return out
}
