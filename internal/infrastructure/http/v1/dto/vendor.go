package dto

import (
	"backoffice/internal/domain/vendor"
)

// CreateVendorRequest for registering vendors.
type CreateVendorRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contactEmail"`
}

// ToInput converts the request to the service input.
func (r CreateVendorRequest) ToInput() vendor.CreateInput {
	return vendor.CreateInput{Name: r.Name, ContactEmail: r.ContactEmail}
}

// UpdateVendorRequest for partial vendor updates.
type UpdateVendorRequest struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contactEmail"`
	Status       *string `json:"status"`
}

// ToInput converts the request to the service input.
func (r UpdateVendorRequest) ToInput() vendor.UpdateInput {
	in := vendor.UpdateInput{Name: r.Name, ContactEmail: r.ContactEmail}
	if r.Status != nil {
		status := vendor.Status(*r.Status)
		in.Status = &status
	}
	return in
}

// VendorResponse is a vendor as the API returns it.
type VendorResponse struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organizationId"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	Code           string  `json:"code"`
	ContactEmail   string  `json:"contactEmail,omitempty"`
	Status         string  `json:"status"`
	VerifiedAt     *string `json:"verifiedAt,omitempty"`
	VerifiedBy     *string `json:"verifiedBy,omitempty"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// FromVendor maps the entity to the response.
func FromVendor(v *vendor.Vendor) VendorResponse {
	resp := VendorResponse{
		ID:             v.ID.String(),
		OrganizationID: v.OrganizationID.String(),
		Name:           v.Name,
		Slug:           v.Slug,
		Code:           v.Code,
		ContactEmail:   v.ContactEmail,
		Status:         string(v.Status),
		VerifiedBy:     v.VerifiedBy,
		Version:        v.Version,
		CreatedAt:      v.CreatedAt.Format(timeLayout),
		UpdatedAt:      v.UpdatedAt.Format(timeLayout),
	}
	if v.VerifiedAt != nil {
		at := v.VerifiedAt.Format(timeLayout)
		resp.VerifiedAt = &at
	}
	return resp
}

// FromVendors maps a list of entities.
func FromVendors(vendors []*vendor.Vendor) []VendorResponse {
	out := make([]VendorResponse, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, FromVendor(v))
	}
	return out
}

// VendorCompanyRequest covers create and update of vendor companies.
type VendorCompanyRequest struct {
	Name string `json:"name" binding:"required"`
}

// ToInput converts the request to the service input.
func (r VendorCompanyRequest) ToInput() vendor.CompanyInput {
	return vendor.CompanyInput{Name: r.Name}
}

// VendorCompanyResponse is a vendor company as the API returns it.
type VendorCompanyResponse struct {
	ID        string  `json:"id"`
	VendorID  string  `json:"vendorId"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	Code      string  `json:"code"`
	IsActive  bool    `json:"isActive"`
	CascadeID *string `json:"cascadeId,omitempty"`
	Version   int     `json:"version"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// FromVendorCompany maps the entity to the response.
func FromVendorCompany(vc *vendor.VendorCompany) VendorCompanyResponse {
	resp := VendorCompanyResponse{
		ID:        vc.ID.String(),
		VendorID:  vc.VendorID.String(),
		Name:      vc.Name,
		Slug:      vc.Slug,
		Code:      vc.Code,
		IsActive:  vc.IsActive,
		Version:   vc.Version,
		CreatedAt: vc.CreatedAt.Format(timeLayout),
		UpdatedAt: vc.UpdatedAt.Format(timeLayout),
	}
	if vc.CascadeID != nil {
		cascade := vc.CascadeID.String()
		resp.CascadeID = &cascade
	}
	return resp
}

// FromVendorCompanies maps a list of entities.
func FromVendorCompanies(companies []*vendor.VendorCompany) []VendorCompanyResponse {
	out := make([]VendorCompanyResponse, 0, len(companies))
	for _, vc := range companies {
		out = append(out, FromVendorCompany(vc))
	}
	return out
}
