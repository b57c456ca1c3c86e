package company

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
	"backoffice/internal/domain"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/client"
	"backoffice/internal/domain/scope"
)

type mockRepo struct {
	companies map[id.ID]*Company
	created   []*Company
	updated   []*Company
	deleted   []id.ID
	failOn    string
	stats     *Stats
	lastQuery Query
}

func newMockRepo() *mockRepo {
	return &mockRepo{companies: make(map[id.ID]*Company)}
}

func (m *mockRepo) GetByID(ctx context.Context, orgID, companyID id.ID) (*Company, error) {
	c, ok := m.companies[companyID]
	if !ok || c.IsDeleted() {
		return nil, apperror.NewNotFound("company", companyID.String())
	}
	return c, nil
}

func (m *mockRepo) List(ctx context.Context, q Query) (domain.ListResult[*Company], error) {
	m.lastQuery = q
	var items []*Company
	for _, c := range m.companies {
		if q.ClientID != nil && c.ClientID != *q.ClientID {
			continue
		}
		items = append(items, c)
	}
	return domain.ListResult[*Company]{Items: items, Total: int64(len(items))}, nil
}

func (m *mockRepo) Create(ctx context.Context, c *Company) error {
	if m.failOn == "create" {
		return apperror.NewInternal(errors.New("insert failed"))
	}
	m.created = append(m.created, c)
	m.companies[c.ID] = c
	return nil
}

func (m *mockRepo) Update(ctx context.Context, c *Company) error {
	m.updated = append(m.updated, c)
	m.companies[c.ID] = c
	return nil
}

func (m *mockRepo) SoftDelete(ctx context.Context, orgID, companyID id.ID, by string) error {
	m.deleted = append(m.deleted, companyID)
	if c, ok := m.companies[companyID]; ok {
		c.MarkDeleted(by)
	}
	return nil
}

func (m *mockRepo) Stats(ctx context.Context, q Query) (*Stats, error) {
	m.lastQuery = q
	return m.stats, nil
}

type mockSiteRepo struct {
	created []*Site
	failOn  string
}

func (m *mockSiteRepo) Create(ctx context.Context, s *Site) error {
	if m.failOn == "create" {
		return apperror.NewInternal(errors.New("insert failed"))
	}
	m.created = append(m.created, s)
	return nil
}

func (m *mockSiteRepo) ListByCompany(ctx context.Context, companyID id.ID) ([]*Site, error) {
	return m.created, nil
}

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
	out := make(map[id.ID]string)
	for _, cid := range ids {
		if c, ok := m.clients[cid]; ok {
			out[cid] = c.Name
		}
	}
	return out, nil
}

type mockCodes struct {
	nextCompany string
	nextSite    string
}

func (m *mockCodes) CompanyCode(ctx context.Context) (string, error) { return m.nextCompany, nil }
func (m *mockCodes) SiteCode(ctx context.Context) (string, error)    { return m.nextSite, nil }

// inlineTx runs the function directly; a failure inside means nothing was
// committed, which the tests assert through the site repo.
type inlineTx struct{ rolledBack bool }

func (m *inlineTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		m.rolledBack = true
		return err
	}
	return nil
}

type recordingEmitter struct{ entries []audit.Entry }

func (r *recordingEmitter) Log(ctx context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	sites   *mockSiteRepo
	clients *mockClientRepo
	txm     *inlineTx
	emitter *recordingEmitter

	orgID    id.ID
	clientID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orgID := id.New()
	clientID := id.New()

	clients := &mockClientRepo{clients: map[id.ID]*client.Client{
		clientID: {OrganizationID: orgID, Code: "CL-001", Name: "Acme Client"},
	}}
	clients.clients[clientID].ID = clientID

	repo := newMockRepo()
	sites := &mockSiteRepo{}
	txm := &inlineTx{}
	emitter := &recordingEmitter{}

	svc := NewService(
		repo,
		sites,
		clients,
		scope.NewResolver(clients),
		&mockCodes{nextCompany: "CMP-2026-00001", nextSite: "SITE-2026-00001"},
		txm,
		emitter,
	)

	return &fixture{
		svc:      svc,
		repo:     repo,
		sites:    sites,
		clients:  clients,
		txm:      txm,
		emitter:  emitter,
		orgID:    orgID,
		clientID: clientID,
	}
}

func newPrincipal(userID string, scope principal.Scope, scopeID id.ID) *principal.Principal {
	p, _ := principal.New(userID, scope, scopeID)
	return p
}

func orgCtx(orgID id.ID) context.Context {
	return principal.WithPrincipal(context.Background(), newPrincipal("user-1", principal.ScopeOrganization, orgID))
}

func clientCtx(clientID id.ID) context.Context {
	return principal.WithPrincipal(context.Background(), newPrincipal("user-2", principal.ScopeClient, clientID))
}

func companyCtx(companyID id.ID) context.Context {
	return principal.WithPrincipal(context.Background(), newPrincipal("user-3", principal.ScopeCompany, companyID))
}

func TestCreateCompany_OrganizationScope(t *testing.T) {
	f := newFixture(t)
	ctx := orgCtx(f.orgID)

	c, err := f.svc.Create(ctx, CreateInput{
		ClientID: &f.clientID,
		Name:     "Acme & Sons, Inc.",
	})
	require.NoError(t, err)

	assert.Equal(t, "acme-sons-inc", c.Slug)
	assert.Equal(t, "CMP-2026-00001", c.Code)
	assert.Equal(t, StatusActive, c.Status)
	assert.Equal(t, defaultTimezone, c.Timezone)
	assert.Equal(t, defaultCurrency, c.Currency)
}

func TestCreateCompany_DefaultSiteInherits(t *testing.T) {
	f := newFixture(t)
	ctx := orgCtx(f.orgID)

	c, err := f.svc.Create(ctx, CreateInput{
		ClientID: &f.clientID,
		Name:     "North Shop",
		Timezone: "Europe/Berlin",
		Currency: "EUR",
	})
	require.NoError(t, err)
	require.Len(t, f.sites.created, 1)

	site := f.sites.created[0]
	assert.Equal(t, c.ID, site.CompanyID)
	assert.Equal(t, "North Shop - Main Site", site.Name)
	assert.Equal(t, "Europe/Berlin", site.Timezone)
	assert.Equal(t, "EUR", site.Currency)
	assert.True(t, site.IsDefault)
}

func TestCreateCompany_AuditsCompanyAndSite(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(orgCtx(f.orgID), CreateInput{ClientID: &f.clientID, Name: "Audited"})
	require.NoError(t, err)

	require.Len(t, f.emitter.entries, 2)
	assert.Equal(t, "company", f.emitter.entries[0].EntityType)
	assert.Equal(t, "site", f.emitter.entries[1].EntityType)
	assert.Equal(t, true, f.emitter.entries[1].Metadata["autoCreated"])
	assert.Equal(t, "user-1", f.emitter.entries[0].UserID)
}

func TestCreateCompany_SiteFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.sites.failOn = "create"

	_, err := f.svc.Create(orgCtx(f.orgID), CreateInput{ClientID: &f.clientID, Name: "Doomed"})
	require.Error(t, err)
	assert.True(t, f.txm.rolledBack)
	assert.Empty(t, f.emitter.entries)
}

func TestCreateCompany_ClientScopePinsClient(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Create(clientCtx(f.clientID), CreateInput{Name: "Own Shop"})
	require.NoError(t, err)
	assert.Equal(t, f.clientID, c.ClientID)
}

func TestCreateCompany_ClientScopeForeignClientForbidden(t *testing.T) {
	f := newFixture(t)
	foreign := id.New()

	_, err := f.svc.Create(clientCtx(f.clientID), CreateInput{ClientID: &foreign, Name: "Sneaky"})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestCreateCompany_OrgScopeRequiresClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(orgCtx(f.orgID), CreateInput{Name: "No Client"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateCompany_OrgScopeForeignClientRejected(t *testing.T) {
	f := newFixture(t)

	foreignClient := id.New()
	f.clients.clients[foreignClient] = &client.Client{OrganizationID: id.New(), Name: "Other Org Client"}
	f.clients.clients[foreignClient].ID = foreignClient

	_, err := f.svc.Create(orgCtx(f.orgID), CreateInput{ClientID: &foreignClient, Name: "Cross"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateCompany_CompanyScopeForbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(companyCtx(id.New()), CreateInput{ClientID: &f.clientID, Name: "Nope"})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestGetCompany_ClientScopeMasksForeign(t *testing.T) {
	f := newFixture(t)

	foreign := &Company{ClientID: id.New(), Name: "Foreign", Status: StatusActive}
	foreign.ID = id.New()
	f.repo.companies[foreign.ID] = foreign

	_, err := f.svc.Get(clientCtx(f.clientID), foreign.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListCompanies_ClientScopeIgnoresFilter(t *testing.T) {
	f := newFixture(t)

	other := id.New()
	_, err := f.svc.List(clientCtx(f.clientID), &other, domain.ListFilter{})
	require.NoError(t, err)

	require.NotNil(t, f.repo.lastQuery.ClientID)
	assert.Equal(t, f.clientID, *f.repo.lastQuery.ClientID)
}

func TestListCompanies_OrgScopeVerifiesClientFilter(t *testing.T) {
	f := newFixture(t)

	foreignClient := id.New()
	f.clients.clients[foreignClient] = &client.Client{OrganizationID: id.New()}
	f.clients.clients[foreignClient].ID = foreignClient

	_, err := f.svc.List(orgCtx(f.orgID), &foreignClient, domain.ListFilter{})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestUpdateCompany_NameChangeRegeneratesSlug(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Create(orgCtx(f.orgID), CreateInput{ClientID: &f.clientID, Name: "Old Name"})
	require.NoError(t, err)
	f.emitter.entries = nil

	newName := "New Name"
	updated, err := f.svc.Update(orgCtx(f.orgID), c.ID, UpdateInput{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "new-name", updated.Slug)
	require.Len(t, f.emitter.entries, 1)
	assert.Equal(t, audit.ActionUpdate, f.emitter.entries[0].Action)
	assert.Contains(t, f.emitter.entries[0].Changes, "name")
	assert.Contains(t, f.emitter.entries[0].Changes, "slug")
}

func TestUpdateCompany_StatusOnlyKeepsSlug(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Create(orgCtx(f.orgID), CreateInput{ClientID: &f.clientID, Name: "Stable Name"})
	require.NoError(t, err)
	f.emitter.entries = nil

	suspended := StatusSuspended
	updated, err := f.svc.Update(orgCtx(f.orgID), c.ID, UpdateInput{Status: &suspended})
	require.NoError(t, err)

	assert.Equal(t, "stable-name", updated.Slug)
	require.Len(t, f.emitter.entries, 1)
	assert.NotContains(t, f.emitter.entries[0].Changes, "slug")
	assert.Contains(t, f.emitter.entries[0].Changes, "status")
}

func TestUpdateCompany_NoChangesNoAudit(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Create(orgCtx(f.orgID), CreateInput{ClientID: &f.clientID, Name: "Same"})
	require.NoError(t, err)
	f.emitter.entries = nil

	_, err = f.svc.Update(orgCtx(f.orgID), c.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Empty(t, f.emitter.entries)
}

func TestDeleteCompany_SoftDeletesAndAudits(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Create(orgCtx(f.orgID), CreateInput{ClientID: &f.clientID, Name: "Gone"})
	require.NoError(t, err)
	f.emitter.entries = nil

	require.NoError(t, f.svc.Delete(orgCtx(f.orgID), c.ID))
	assert.Equal(t, []id.ID{c.ID}, f.repo.deleted)

	require.Len(t, f.emitter.entries, 1)
	assert.Equal(t, audit.ActionDelete, f.emitter.entries[0].Action)

	_, err = f.svc.Get(orgCtx(f.orgID), c.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetStats_UnknownClientName(t *testing.T) {
	f := newFixture(t)
	deleted := id.New()

	f.repo.stats = &Stats{
		TotalCompanies:  3,
		ActiveCompanies: 2,
		ByClient: []ClientCount{
			{ClientID: f.clientID, Count: 2},
			{ClientID: deleted, Count: 1},
		},
	}

	stats, err := f.svc.GetStats(orgCtx(f.orgID))
	require.NoError(t, err)

	assert.Equal(t, "Acme Client", stats.ByClient[0].ClientName)
	assert.Equal(t, "Unknown", stats.ByClient[1].ClientName)
}

func TestGetStats_ClientScopePinned(t *testing.T) {
	f := newFixture(t)
	f.repo.stats = &Stats{}

	_, err := f.svc.GetStats(clientCtx(f.clientID))
	require.NoError(t, err)

	require.NotNil(t, f.repo.lastQuery.ClientID)
	assert.Equal(t, f.clientID, *f.repo.lastQuery.ClientID)
}

func TestBuildListQuery_ScopeMatrix(t *testing.T) {
	orgID := id.New()
	clientID := id.New()

	tests := []struct {
		name    string
		p       *principal.Principal
		wantErr bool
	}{
		{"organization allowed", newPrincipal("u", principal.ScopeOrganization, orgID), false},
		{"client allowed", newPrincipal("u", principal.ScopeClient, clientID), false},
		{"company forbidden", newPrincipal("u", principal.ScopeCompany, id.New()), true},
		{"department forbidden", newPrincipal("u", principal.ScopeDepartment, id.New()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildListQuery(tt.p, orgID, nil, domain.ListFilter{})
			if tt.wantErr {
				var appErr *apperror.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, apperror.CodeForbidden, appErr.Code)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
