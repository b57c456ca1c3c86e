package connection

import (
	"context"
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
	connections map[id.ID]*Connection
	lastFilter  Filter
}

func newMockRepo() *mockRepo {
	return &mockRepo{connections: make(map[id.ID]*Connection)}
}

func (m *mockRepo) GetByID(ctx context.Context, connectionID id.ID) (*Connection, error) {
	if c, ok := m.connections[connectionID]; ok {
		return c, nil
	}
	return nil, apperror.NewNotFound("connection", connectionID.String())
}

func (m *mockRepo) GetByPair(ctx context.Context, vendorCompanyID, companyID id.ID) (*Connection, error) {
	for _, c := range m.connections {
		if c.VendorCompanyID == vendorCompanyID && c.CompanyID == companyID {
			return c, nil
		}
	}
	return nil, apperror.NewNotFound("connection", "pair")
}

func (m *mockRepo) List(ctx context.Context, filter Filter) (domain.ListResult[*Connection], error) {
	m.lastFilter = filter
	var items []*Connection
	for _, c := range m.connections {
		items = append(items, c)
	}
	return domain.ListResult[*Connection]{Items: items, Total: int64(len(items))}, nil
}

func (m *mockRepo) Create(ctx context.Context, c *Connection) error {
	m.connections[c.ID] = c
	return nil
}

func (m *mockRepo) Update(ctx context.Context, c *Connection) error {
	m.connections[c.ID] = c
	return nil
}

type mockVendorDirectory struct {
	known map[id.ID]id.ID // vendorCompanyID -> orgID
}

func (m *mockVendorDirectory) ExistsInOrganization(ctx context.Context, orgID, vendorCompanyID id.ID) (bool, error) {
	own, ok := m.known[vendorCompanyID]
	return ok && own == orgID, nil
}

type mockCompanyDirectory struct {
	ownership map[id.ID]scope.Ownership
}

func (m *mockCompanyDirectory) OwnershipByID(ctx context.Context, companyID id.ID) (scope.Ownership, error) {
	if o, ok := m.ownership[companyID]; ok {
		return o, nil
	}
	return scope.Ownership{}, apperror.NewNotFound("company", companyID.String())
}

type mockClientRepo struct{}

func (mockClientRepo) GetByID(ctx context.Context, clientID id.ID) (*client.Client, error) {
	return nil, apperror.NewNotFound("client", clientID.String())
}

func (mockClientRepo) NamesByIDs(ctx context.Context, ids []id.ID) (map[id.ID]string, error) {
	return map[id.ID]string{}, nil
}

type recordingEmitter struct{ entries []audit.Entry }

func (r *recordingEmitter) Log(ctx context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	emitter *recordingEmitter

	orgID           id.ID
	companyID       id.ID
	vendorCompanyID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orgID := id.New()
	companyID := id.New()
	vendorCompanyID := id.New()

	repo := newMockRepo()
	emitter := &recordingEmitter{}
	resolver := scope.NewResolver(mockClientRepo{})
	companies := &mockCompanyDirectory{ownership: map[id.ID]scope.Ownership{
		companyID: {CompanyID: companyID, ClientID: id.New(), OrganizationID: orgID},
	}}

	svc := NewService(
		repo,
		&mockVendorDirectory{known: map[id.ID]id.ID{vendorCompanyID: orgID}},
		scope.NewHierarchy(resolver, companies),
		resolver,
		emitter,
	)
	return &fixture{
		svc:             svc,
		repo:            repo,
		emitter:         emitter,
		orgID:           orgID,
		companyID:       companyID,
		vendorCompanyID: vendorCompanyID,
	}
}

func orgCtx(orgID id.ID) context.Context {
	p, _ := principal.New("approver-1", principal.ScopeOrganization, orgID)
	return principal.WithPrincipal(context.Background(), p)
}

func TestCreateConnection(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Create(orgCtx(f.orgID), f.vendorCompanyID, f.companyID)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, c.Status)
	assert.Nil(t, c.DecidedBy)
	require.Len(t, f.emitter.entries, 1)
	assert.Equal(t, audit.ActionCreate, f.emitter.entries[0].Action)
}

func TestCreateConnection_DuplicatePair(t *testing.T) {
	f := newFixture(t)
	ctx := orgCtx(f.orgID)

	_, err := f.svc.Create(ctx, f.vendorCompanyID, f.companyID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.vendorCompanyID, f.companyID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreateConnection_ForeignVendorCompany(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(orgCtx(id.New()), f.vendorCompanyID, f.companyID)
	require.Error(t, err)
}

func TestConnection_ForeignOrganizationHidden(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Create(orgCtx(f.orgID), f.vendorCompanyID, f.companyID)
	require.NoError(t, err)
	foreign := orgCtx(id.New())

	_, err = f.svc.Get(foreign, c.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Approve(foreign, c.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Reject(foreign, c.ID)
	assert.True(t, apperror.IsNotFound(err))

	assert.Equal(t, StatusPending, f.repo.connections[c.ID].Status)
}

func TestListConnections_OrganizationPinned(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(orgCtx(f.orgID), Filter{})
	require.NoError(t, err)
	assert.Equal(t, f.orgID, f.repo.lastFilter.OrganizationID)
}

func TestApproveConnection(t *testing.T) {
	f := newFixture(t)
	ctx := orgCtx(f.orgID)

	c, err := f.svc.Create(ctx, f.vendorCompanyID, f.companyID)
	require.NoError(t, err)
	f.emitter.entries = nil

	approved, err := f.svc.Approve(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, approved.Status)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, "approver-1", *approved.DecidedBy)
	assert.NotNil(t, approved.DecidedAt)

	require.Len(t, f.emitter.entries, 1)
	assert.Equal(t, audit.ActionApprove, f.emitter.entries[0].Action)
}

func TestRejectConnection(t *testing.T) {
	f := newFixture(t)
	ctx := orgCtx(f.orgID)

	c, err := f.svc.Create(ctx, f.vendorCompanyID, f.companyID)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusTerminated, rejected.Status)
}

func TestDecide_OneShot(t *testing.T) {
	f := newFixture(t)
	ctx := orgCtx(f.orgID)

	tests := []struct {
		name   string
		first  func(context.Context, id.ID) (*Connection, error)
		second func(context.Context, id.ID) (*Connection, error)
	}{
		{"approve then approve", f.svc.Approve, f.svc.Approve},
		{"approve then reject", f.svc.Approve, f.svc.Reject},
		{"reject then approve", f.svc.Reject, f.svc.Approve},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Connection{VendorCompanyID: f.vendorCompanyID, CompanyID: f.companyID, Status: StatusPending}
			c.ID = id.New()
			f.repo.connections[c.ID] = c

			_, err := tt.first(ctx, c.ID)
			require.NoError(t, err)

			_, err = tt.second(ctx, c.ID)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
		})
	}
}
