package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/primary"
)

// mockOperationService implements primary.OperationService for testing
type mockOperationService struct {
	createFn   func(ctx context.Context, req primary.CreateOperationRequest) (*primary.CreateOperationResponse, error)
	endFn      func(ctx context.Context, operationID string) (*primary.Operation, error)
	cloneFn    func(ctx context.Context, sourceID string) (*primary.CloneOperationResponse, error)
	activeFn   func(ctx context.Context) ([]*primary.OperationListing, error)
	previousFn func(ctx context.Context) ([]*primary.Operation, error)

	lastCreateReq primary.CreateOperationRequest
	lastUpdateReq primary.UpdateOperationRequest
}

func (m *mockOperationService) CreateOperation(ctx context.Context, req primary.CreateOperationRequest) (*primary.CreateOperationResponse, error) {
	m.lastCreateReq = req
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	state := "active"
	if req.Draft {
		state = "draft"
	}
	return &primary.CreateOperationResponse{
		OperationID: "op-001",
		Operation:   &primary.Operation{ID: "op-001", Name: req.Name, State: state},
	}, nil
}

func (m *mockOperationService) GetOperation(ctx context.Context, operationID string) (*primary.Operation, error) {
	return &primary.Operation{ID: operationID, Name: "Harbor Watch", State: "active", IncidentNumber: "24-001873", TeamID: "team-north", CaseAgentUserID: "user-reyes"}, nil
}

func (m *mockOperationService) UpdateOperation(ctx context.Context, req primary.UpdateOperationRequest) error {
	m.lastUpdateReq = req
	return nil
}

func (m *mockOperationService) StartOperation(ctx context.Context, operationID string) (*primary.Operation, error) {
	return &primary.Operation{ID: operationID, State: "active"}, nil
}

func (m *mockOperationService) EndOperation(ctx context.Context, operationID string) (*primary.Operation, error) {
	if m.endFn != nil {
		return m.endFn(ctx, operationID)
	}
	return &primary.Operation{ID: operationID, State: "ended"}, nil
}

func (m *mockOperationService) CloneOperation(ctx context.Context, sourceID string) (*primary.CloneOperationResponse, error) {
	if m.cloneFn != nil {
		return m.cloneFn(ctx, sourceID)
	}
	return nil, errors.New("not configured")
}

func (m *mockOperationService) ListActiveOperations(ctx context.Context) ([]*primary.OperationListing, error) {
	if m.activeFn != nil {
		return m.activeFn(ctx)
	}
	return nil, nil
}

func (m *mockOperationService) ListPreviousOperations(ctx context.Context) ([]*primary.Operation, error) {
	if m.previousFn != nil {
		return m.previousFn(ctx)
	}
	return nil, nil
}

func newTestOperationAdapter() (*OperationAdapter, *mockOperationService, *bytes.Buffer) {
	mock := &mockOperationService{}
	out := &bytes.Buffer{}
	return NewOperationAdapter(mock, out), mock, out
}

func TestOperationAdapter_Create(t *testing.T) {
	adapter, mock, out := newTestOperationAdapter()

	err := adapter.Create(context.Background(), primary.CreateOperationRequest{Name: "Night Shift", Draft: true})
	require.NoError(t, err)
	assert.True(t, mock.lastCreateReq.Draft)
	assert.Equal(t, "✓ Created operation op-001: Night Shift [draft]\n", out.String())
}

func TestOperationAdapter_CreateError(t *testing.T) {
	adapter, mock, out := newTestOperationAdapter()
	mock.createFn = func(context.Context, primary.CreateOperationRequest) (*primary.CreateOperationResponse, error) {
		return nil, guard.ErrMissingPrecondition
	}

	err := adapter.Create(context.Background(), primary.CreateOperationRequest{})
	assert.ErrorIs(t, err, guard.ErrMissingPrecondition)
	assert.Empty(t, out.String())
}

func TestOperationAdapter_ListActive(t *testing.T) {
	adapter, mock, out := newTestOperationAdapter()
	started := time.Now().Add(-2 * time.Hour)
	mock.activeFn = func(context.Context) ([]*primary.OperationListing, error) {
		return []*primary.OperationListing{
			{Operation: &primary.Operation{ID: "op-1", Name: "Harbor Watch", State: "active", StartsAt: &started}, IsMember: true},
			{Operation: &primary.Operation{ID: "op-2", Name: "Night Shift", State: "draft"}},
		}, nil
	}

	require.NoError(t, adapter.List(context.Background(), false))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "MEMBER")
	assert.Contains(t, lines[1], "2 hours ago")
	assert.Contains(t, lines[1], "✓")
	assert.NotContains(t, lines[2], "✓")
}

func TestOperationAdapter_ListEmpty(t *testing.T) {
	adapter, _, out := newTestOperationAdapter()

	require.NoError(t, adapter.List(context.Background(), false))
	assert.Equal(t, "No active operations\n", out.String())

	out.Reset()
	require.NoError(t, adapter.List(context.Background(), true))
	assert.Equal(t, "No previous operations\n", out.String())
}

func TestOperationAdapter_UpdateRequiresAField(t *testing.T) {
	adapter, mock, _ := newTestOperationAdapter()

	assert.Error(t, adapter.Update(context.Background(), "op-1", "", ""))
	require.NoError(t, adapter.Update(context.Background(), "op-1", "", "24-009999"))
	assert.Equal(t, "24-009999", mock.lastUpdateReq.IncidentNumber)
}

func TestOperationAdapter_ShowAndEnd(t *testing.T) {
	adapter, _, out := newTestOperationAdapter()

	require.NoError(t, adapter.Show(context.Background(), "op-1"))
	assert.Contains(t, out.String(), "Incident:  24-001873")
	assert.Contains(t, out.String(), "Case agent: user-reyes")

	out.Reset()
	require.NoError(t, adapter.End(context.Background(), "op-1"))
	assert.Equal(t, "✓ Operation op-1 ended\n", out.String())
}

func TestOperationAdapter_CloneReportsCopy(t *testing.T) {
	adapter, mock, out := newTestOperationAdapter()
	mock.cloneFn = func(_ context.Context, sourceID string) (*primary.CloneOperationResponse, error) {
		return &primary.CloneOperationResponse{
			OperationID: "op-2",
			Operation:   &primary.Operation{ID: "op-2", Name: "Harbor Watch"},
			Copy: &primary.ReconcileResult{Outcomes: []primary.ItemOutcome{
				{Entity: primary.EntityTarget, EntityID: "t-9", Action: primary.ActionCreate, Status: primary.OutcomeSucceeded},
			}},
		}, nil
	}

	require.NoError(t, adapter.Clone(context.Background(), "op-1"))
	assert.Contains(t, out.String(), "✓ Cloned op-1 into op-2: Harbor Watch")
	assert.Contains(t, out.String(), "1 succeeded, 0 failed")
}
