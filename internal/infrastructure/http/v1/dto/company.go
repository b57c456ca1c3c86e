package dto

import (
	"backoffice/internal/domain/company"
)

// CreateCompanyRequest for creating companies.
type CreateCompanyRequest struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name" binding:"required"`
	Domain   string `json:"domain"`
	Timezone string `json:"timezone"`
	Currency string `json:"currency"`
}

// ToInput converts the request to the service input.
func (r CreateCompanyRequest) ToInput() (company.CreateInput, error) {
	clientID, err := ParseOptionalID("clientId", r.ClientID)
	if err != nil {
		return company.CreateInput{}, err
	}
	return company.CreateInput{
		ClientID: clientID,
		Name:     r.Name,
		Domain:   r.Domain,
		Timezone: r.Timezone,
		Currency: r.Currency,
	}, nil
}

// UpdateCompanyRequest for partial company updates.
type UpdateCompanyRequest struct {
	Name     *string `json:"name"`
	Domain   *string `json:"domain"`
	Timezone *string `json:"timezone"`
	Currency *string `json:"currency"`
	Status   *string `json:"status"`
}

// ToInput converts the request to the service input.
func (r UpdateCompanyRequest) ToInput() company.UpdateInput {
	in := company.UpdateInput{
		Name:     r.Name,
		Domain:   r.Domain,
		Timezone: r.Timezone,
		Currency: r.Currency,
	}
	if r.Status != nil {
		status := company.Status(*r.Status)
		in.Status = &status
	}
	return in
}

// CompanyResponse is a company as the API returns it.
type CompanyResponse struct {
	ID        string `json:"id"`
	ClientID  string `json:"clientId"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Code      string `json:"code"`
	Domain    string `json:"domain,omitempty"`
	Timezone  string `json:"timezone"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// FromCompany maps the entity to the response.
func FromCompany(c *company.Company) CompanyResponse {
	return CompanyResponse{
		ID:        c.ID.String(),
		ClientID:  c.ClientID.String(),
		Name:      c.Name,
		Slug:      c.Slug,
		Code:      c.Code,
		Domain:    c.Domain,
		Timezone:  c.Timezone,
		Currency:  c.Currency,
		Status:    string(c.Status),
		Version:   c.Version,
		CreatedAt: c.CreatedAt.Format(timeLayout),
		UpdatedAt: c.UpdatedAt.Format(timeLayout),
	}
}

// FromCompanies maps a list of entities.
func FromCompanies(companies []*company.Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, FromCompany(c))
	}
	return out
}

// SiteResponse is a storefront site as the API returns it.
type SiteResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Timezone  string `json:"timezone"`
	Currency  string `json:"currency"`
	IsDefault bool   `json:"isDefault"`
}

// FromSite maps the entity to the response.
func FromSite(s *company.Site) SiteResponse {
	return SiteResponse{
		ID:        s.ID.String(),
		CompanyID: s.CompanyID.String(),
		Name:      s.Name,
		Code:      s.Code,
		Timezone:  s.Timezone,
		Currency:  s.Currency,
		IsDefault: s.IsDefault,
	}
}
