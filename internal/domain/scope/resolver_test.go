package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/entity"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
	"backoffice/internal/domain/client"
)

type mockClientRepo struct {
	clients map[id.ID]*client.Client
}

func (m *mockClientRepo) GetByID(ctx context.Context, clientID id.ID) (*client.Client, error) {
	if c, ok := m.clients[clientID]; ok {
		return c, nil
	}
	return nil, apperror.NewNotFound("client", clientID.String())
}

func (m *mockClientRepo) NamesByIDs(ctx context.Context, ids []id.ID) (map[id.ID]string, error) {
	names := make(map[id.ID]string)
	for _, cid := range ids {
		if c, ok := m.clients[cid]; ok {
			names[cid] = c.Name
		}
	}
	return names, nil
}

func TestResolveOrganizationID_Direct(t *testing.T) {
	orgID := id.New()
	r := NewResolver(&mockClientRepo{})

	p, err := principal.New("u1", principal.ScopeOrganization, orgID)
	require.NoError(t, err)

	got, err := r.ResolveOrganizationID(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, orgID, got)
}

func TestResolveOrganizationID_ViaClient(t *testing.T) {
	orgID := id.New()
	clientID := id.New()
	repo := &mockClientRepo{clients: map[id.ID]*client.Client{
		clientID: {Base: entity.Base{ID: clientID}, OrganizationID: orgID, Code: "CL01", Name: "Client One"},
	}}
	r := NewResolver(repo)

	p, err := principal.New("u1", principal.ScopeClient, clientID)
	require.NoError(t, err)

	got, err := r.ResolveOrganizationID(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, orgID, got)
}

func TestResolveOrganizationID_ClientNotFound(t *testing.T) {
	r := NewResolver(&mockClientRepo{})

	p, err := principal.New("u1", principal.ScopeClient, id.New())
	require.NoError(t, err)

	_, err = r.ResolveOrganizationID(context.Background(), p)
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestResolveOrganizationID_UnresolvableScopes(t *testing.T) {
	r := NewResolver(&mockClientRepo{})

	for _, s := range []principal.Scope{principal.ScopeCompany, principal.ScopeDepartment} {
		p, err := principal.New("u1", s, id.New())
		require.NoError(t, err)

		_, err = r.ResolveOrganizationID(context.Background(), p)
		require.Error(t, err, "scope %s", s)
		assert.True(t, apperror.IsForbidden(err), "scope %s", s)
	}
}

func TestResolveOrganizationID_NilPrincipal(t *testing.T) {
	r := NewResolver(&mockClientRepo{})
	_, err := r.ResolveOrganizationID(context.Background(), nil)
	assert.True(t, apperror.IsForbidden(err))
}

// --- Hierarchy ---

type mockDirectory struct {
	ownership map[id.ID]Ownership
}

func (m *mockDirectory) OwnershipByID(ctx context.Context, companyID id.ID) (Ownership, error) {
	if o, ok := m.ownership[companyID]; ok {
		return o, nil
	}
	return Ownership{}, apperror.NewNotFound("company", companyID.String())
}

func TestValidateCompanyAccess(t *testing.T) {
	orgID := id.New()
	otherOrgID := id.New()
	clientID := id.New()
	companyID := id.New()
	foreignCompanyID := id.New()

	dir := &mockDirectory{ownership: map[id.ID]Ownership{
		companyID:        {CompanyID: companyID, ClientID: clientID, OrganizationID: orgID},
		foreignCompanyID: {CompanyID: foreignCompanyID, ClientID: id.New(), OrganizationID: otherOrgID},
	}}
	h := NewHierarchy(NewResolver(&mockClientRepo{}), dir)
	ctx := context.Background()

	orgPrincipal, _ := principal.New("u1", principal.ScopeOrganization, orgID)
	clientPrincipal, _ := principal.New("u2", principal.ScopeClient, clientID)
	clientPrincipal.OrganizationID = &orgID
	companyPrincipal, _ := principal.New("u3", principal.ScopeCompany, companyID)

	assert.NoError(t, h.ValidateCompanyAccess(ctx, orgPrincipal, companyID, "read"))
	assert.Error(t, h.ValidateCompanyAccess(ctx, orgPrincipal, foreignCompanyID, "read"))

	assert.NoError(t, h.ValidateCompanyAccess(ctx, clientPrincipal, companyID, "read"))
	assert.Error(t, h.ValidateCompanyAccess(ctx, clientPrincipal, foreignCompanyID, "read"))

	assert.NoError(t, h.ValidateCompanyAccess(ctx, companyPrincipal, companyID, "approve"))
	assert.Error(t, h.ValidateCompanyAccess(ctx, companyPrincipal, foreignCompanyID, "approve"))

	// Unknown companies fail closed.
	err := h.ValidateCompanyAccess(ctx, orgPrincipal, id.New(), "read")
	assert.True(t, apperror.IsForbidden(err))

	assert.True(t, h.CanAccessCompany(ctx, orgPrincipal, companyID))
	assert.False(t, h.CanAccessCompany(ctx, orgPrincipal, foreignCompanyID))
}
