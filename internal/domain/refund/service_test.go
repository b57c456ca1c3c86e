package refund

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
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
	refunds   map[id.ID]*Refund
	lastQuery ListQuery
	stats     *Stats
}

func newMockRepo() *mockRepo {
	return &mockRepo{refunds: make(map[id.ID]*Refund)}
}

func (m *mockRepo) GetByID(ctx context.Context, orgID, refundID id.ID) (*Refund, error) {
	if r, ok := m.refunds[refundID]; ok {
		return r, nil
	}
	return nil, apperror.NewNotFound("refund", refundID.String())
}

func (m *mockRepo) GetForSettlement(ctx context.Context, refundID id.ID) (*Refund, error) {
	if r, ok := m.refunds[refundID]; ok {
		return r, nil
	}
	return nil, apperror.NewNotFound("refund", refundID.String())
}

func (m *mockRepo) List(ctx context.Context, q ListQuery) (domain.CursorResult[*Refund], error) {
	m.lastQuery = q
	var items []*Refund
	for _, r := range m.refunds {
		if q.CompanyID != nil && r.CompanyID != *q.CompanyID {
			continue
		}
		items = append(items, r)
	}
	return domain.CursorResult[*Refund]{Items: items}, nil
}

func (m *mockRepo) Create(ctx context.Context, r *Refund) error {
	m.refunds[r.ID] = r
	return nil
}

func (m *mockRepo) Update(ctx context.Context, r *Refund) error {
	m.refunds[r.ID] = r
	return nil
}

func (m *mockRepo) Stats(ctx context.Context, q ListQuery) (*Stats, error) {
	m.lastQuery = q
	return m.stats, nil
}

type mockSettingsRepo struct {
	byCompany map[id.ID]*Settings
	creates   int
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{byCompany: make(map[id.ID]*Settings)}
}

func (m *mockSettingsRepo) GetByCompany(ctx context.Context, companyID id.ID) (*Settings, error) {
	if s, ok := m.byCompany[companyID]; ok {
		return s, nil
	}
	return nil, apperror.NewNotFound("refund settings", companyID.String())
}

func (m *mockSettingsRepo) Create(ctx context.Context, s *Settings) error {
	m.creates++
	m.byCompany[s.CompanyID] = s
	return nil
}

func (m *mockSettingsRepo) Update(ctx context.Context, s *Settings) error {
	m.byCompany[s.CompanyID] = s
	return nil
}

type mockOrders struct {
	orders map[id.ID]*Order
}

func (m *mockOrders) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	if o, ok := m.orders[orderID]; ok {
		return o, nil
	}
	return nil, apperror.NewNotFound("order", orderID.String())
}

type mockSettler struct {
	submitted []id.ID
	sync      bool
}

func (m *mockSettler) Submit(ctx context.Context, r *Refund) (bool, error) {
	m.submitted = append(m.submitted, r.ID)
	return m.sync, nil
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
	svc      *Service
	repo     *mockRepo
	settings *mockSettingsRepo
	orders   *mockOrders
	settler  *mockSettler
	emitter  *recordingEmitter

	orgID      id.ID
	clientID   id.ID
	companyID  id.ID
	customerID id.ID
	orderID    id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orgID := id.New()
	clientID := id.New()
	companyID := id.New()
	customerID := id.New()
	orderID := id.New()

	repo := newMockRepo()
	settings := newMockSettingsRepo()
	orders := &mockOrders{orders: map[id.ID]*Order{
		orderID: {
			ID:         orderID,
			CompanyID:  companyID,
			CustomerID: customerID,
			Total:      decimal.NewFromInt(1000),
			Currency:   "USD",
			OrderDate:  time.Now().UTC().Add(-5 * 24 * time.Hour),
		},
	}}
	settler := &mockSettler{}
	emitter := &recordingEmitter{}

	resolver := scope.NewResolver(mockClientRepo{})
	directory := &mockCompanyDirectory{ownership: map[id.ID]scope.Ownership{
		companyID: {CompanyID: companyID, ClientID: clientID, OrganizationID: orgID},
	}}

	evaluator, err := NewEvaluator()
	require.NoError(t, err)

	svc := NewService(
		repo,
		settings,
		orders,
		evaluator,
		scope.NewHierarchy(resolver, directory),
		resolver,
		settler,
		emitter,
	)
	return &fixture{
		svc:        svc,
		repo:       repo,
		settings:   settings,
		orders:     orders,
		settler:    settler,
		emitter:    emitter,
		orgID:      orgID,
		clientID:   clientID,
		companyID:  companyID,
		customerID: customerID,
		orderID:    orderID,
	}
}

func (f *fixture) companyCtx() context.Context {
	p, _ := principal.New("agent-1", principal.ScopeCompany, f.companyID)
	p.OrganizationID = &f.orgID
	return principal.WithPrincipal(context.Background(), p)
}

func (f *fixture) orgCtx() context.Context {
	p, _ := principal.New("admin-1", principal.ScopeOrganization, f.orgID)
	return principal.WithPrincipal(context.Background(), p)
}

func (f *fixture) clientCtx() context.Context {
	p, _ := principal.New("client-admin", principal.ScopeClient, f.clientID)
	p.OrganizationID = &f.orgID
	return principal.WithPrincipal(context.Background(), p)
}

func (f *fixture) createInput(amount string) CreateInput {
	return CreateInput{
		CustomerID: f.customerID,
		OrderID:    f.orderID,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "USD",
		Method:     "ORIGINAL_PAYMENT",
		Reason:     "damaged item",
	}
}

func (f *fixture) enableAutoApproval(t *testing.T) {
	t.Helper()
	s := DefaultSettings(f.companyID)
	s.AutoApprovalEnabled = true
	f.settings.byCompany[f.companyID] = s
}

func TestCreateRefund_Pending(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Create(f.companyCtx(), f.createInput("250"))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, Tier2, r.Tier)
	assert.Nil(t, r.ApprovedBy)
	assert.Nil(t, r.AutoApprovalRule)

	require.Len(t, f.emitter.entries, 1)
	assert.Equal(t, audit.ActionCreate, f.emitter.entries[0].Action)
	assert.Equal(t, false, f.emitter.entries[0].Metadata["autoApproved"])
}

func TestCreateRefund_AutoApproved(t *testing.T) {
	f := newFixture(t)
	f.enableAutoApproval(t)

	r, err := f.svc.Create(f.companyCtx(), f.createInput("99.50"))
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, r.Status)
	require.NotNil(t, r.ApprovedBy)
	assert.Equal(t, SystemAutoApprover, *r.ApprovedBy)
	require.NotNil(t, r.ApprovedAmount)
	assert.True(t, r.ApprovedAmount.Equal(r.RequestedAmount))
	require.NotNil(t, r.AutoApprovalRule)
	assert.Contains(t, *r.AutoApprovalRule, "99.5")
}

func TestCreateRefund_OverThresholdStaysPending(t *testing.T) {
	f := newFixture(t)
	f.enableAutoApproval(t)

	r, err := f.svc.Create(f.companyCtx(), f.createInput("100.01"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)
}

func TestCreateRefund_CustomerMismatch(t *testing.T) {
	f := newFixture(t)

	in := f.createInput("50")
	in.CustomerID = id.New()

	_, err := f.svc.Create(f.companyCtx(), in)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Message, "customer does not match order")
}

func TestCreateRefund_OrderOutsideCompany(t *testing.T) {
	f := newFixture(t)

	f.orders.orders[f.orderID].CompanyID = id.New()

	_, err := f.svc.Create(f.companyCtx(), f.createInput("50"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateRefund_ReasonRequiredByDefault(t *testing.T) {
	f := newFixture(t)

	in := f.createInput("50")
	in.Reason = ""

	_, err := f.svc.Create(f.companyCtx(), in)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateRefund_AdminWithoutCompanyForbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.orgCtx(), f.createInput("50"))
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestCreateRefund_AdminWithCompany(t *testing.T) {
	f := newFixture(t)

	in := f.createInput("50")
	in.CompanyID = &f.companyID

	r, err := f.svc.Create(f.orgCtx(), in)
	require.NoError(t, err)
	assert.Equal(t, f.companyID, r.CompanyID)
}

func TestCreateRefund_LazySettingsDefaults(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.companyCtx(), f.createInput("50"))
	require.NoError(t, err)

	assert.Equal(t, 1, f.settings.creates)
	s := f.settings.byCompany[f.companyID]
	require.NotNil(t, s)
	assert.False(t, s.AutoApprovalEnabled)
	assert.True(t, s.AutoApprovalMaxAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 30, s.AutoApprovalMaxDays)
	assert.True(t, s.RequireReason)
	assert.True(t, s.AllowPartial)
}

func TestApprove_DefaultsToRequestedAmount(t *testing.T) {
	f := newFixture(t)
	ctx := f.companyCtx()

	r, err := f.svc.Create(ctx, f.createInput("75"))
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, r.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAmount)
	assert.True(t, approved.ApprovedAmount.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, "agent-1", *approved.ApprovedBy)
}

func TestApprove_PartialDisallowed(t *testing.T) {
	f := newFixture(t)
	ctx := f.companyCtx()

	r, err := f.svc.Create(ctx, f.createInput("75"))
	require.NoError(t, err)

	f.settings.byCompany[f.companyID].AllowPartial = false

	partial := decimal.NewFromInt(50)
	_, err = f.svc.Approve(ctx, r.ID, &partial)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestStateMachineGuards(t *testing.T) {
	f := newFixture(t)
	ctx := f.companyCtx()

	newRefund := func(status Status) id.ID {
		r := &Refund{
			CompanyID:       f.companyID,
			CustomerID:      f.customerID,
			OrderID:         f.orderID,
			RequestedAmount: decimal.NewFromInt(50),
			Currency:        "USD",
			Status:          status,
		}
		r.ID = id.New()
		f.repo.refunds[r.ID] = r
		return r.ID
	}

	t.Run("approve non-pending", func(t *testing.T) {
		_, err := f.svc.Approve(ctx, newRefund(StatusApproved), nil)
		requireInvalidTransition(t, err)
	})
	t.Run("reject non-pending", func(t *testing.T) {
		_, err := f.svc.Reject(ctx, newRefund(StatusCompleted))
		requireInvalidTransition(t, err)
	})
	t.Run("process non-approved", func(t *testing.T) {
		_, err := f.svc.Process(ctx, newRefund(StatusPending))
		requireInvalidTransition(t, err)
	})
	t.Run("cancel completed", func(t *testing.T) {
		_, err := f.svc.Cancel(ctx, newRefund(StatusCompleted))
		requireInvalidTransition(t, err)
	})
	t.Run("cancel pending", func(t *testing.T) {
		_, err := f.svc.Cancel(ctx, newRefund(StatusPending))
		require.NoError(t, err)
	})
	t.Run("cancel approved", func(t *testing.T) {
		_, err := f.svc.Cancel(ctx, newRefund(StatusApproved))
		require.NoError(t, err)
	})
}

func requireInvalidTransition(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestProcess_AsyncStaysProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := f.companyCtx()

	r, err := f.svc.Create(ctx, f.createInput("75"))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, r.ID, nil)
	require.NoError(t, err)

	processed, err := f.svc.Process(ctx, r.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusProcessing, processed.Status)
	assert.Equal(t, []id.ID{r.ID}, f.settler.submitted)
	assert.Nil(t, processed.CompletedAt)
}

func TestProcess_SyncCompletesImmediately(t *testing.T) {
	f := newFixture(t)
	f.settler.sync = true
	ctx := f.companyCtx()

	r, err := f.svc.Create(ctx, f.createInput("75"))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, r.ID, nil)
	require.NoError(t, err)

	processed, err := f.svc.Process(ctx, r.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, processed.Status)
	assert.NotNil(t, processed.CompletedAt)
}

func TestCompleteSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := f.companyCtx()

	r, err := f.svc.Create(ctx, f.createInput("75"))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, r.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.Process(ctx, r.ID)
	require.NoError(t, err)

	completed, err := f.svc.CompleteSettlement(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	_, err = f.svc.CompleteSettlement(context.Background(), r.ID)
	requireInvalidTransition(t, err)
}

func TestList_ClientScopePinnedToOwnClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(f.clientCtx(), ListInput{})
	require.NoError(t, err)

	require.NotNil(t, f.repo.lastQuery.ClientID)
	assert.Equal(t, f.clientID, *f.repo.lastQuery.ClientID)
	assert.Nil(t, f.repo.lastQuery.CompanyID)
}

func TestList_CompanyScopePinned(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(f.companyCtx(), ListInput{})
	require.NoError(t, err)

	require.NotNil(t, f.repo.lastQuery.CompanyID)
	assert.Equal(t, f.companyID, *f.repo.lastQuery.CompanyID)
}

func TestList_OrgScopeForeignCompanyForbidden(t *testing.T) {
	f := newFixture(t)

	foreign := id.New()
	_, err := f.svc.List(f.orgCtx(), ListInput{CompanyID: &foreign})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestUpdateSettings_RejectsBrokenExpression(t *testing.T) {
	f := newFixture(t)

	bad := "amount <="
	_, err := f.svc.UpdateSettings(f.companyCtx(), nil, UpdateSettingsInput{Expression: &bad})
	require.Error(t, err)

	good := `amount <= 25.0`
	s, err := f.svc.UpdateSettings(f.companyCtx(), nil, UpdateSettingsInput{Expression: &good})
	require.NoError(t, err)
	assert.Equal(t, good, s.Expression)
}

func TestDaysSinceOrder(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, DaysSinceOrder(now.Add(-30*24*time.Hour), now))
	assert.Equal(t, 30, DaysSinceOrder(now.Add(-30*24*time.Hour-23*time.Hour), now))
	assert.Equal(t, 31, DaysSinceOrder(now.Add(-31*24*time.Hour), now))
	assert.Equal(t, 0, DaysSinceOrder(now.Add(-6*time.Hour), now))
}
