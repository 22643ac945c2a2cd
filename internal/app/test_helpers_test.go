package app

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/adapters/sqlite"
	"github.com/example/stakeout/internal/ctxutil"
	"github.com/example/stakeout/internal/db"
	"github.com/example/stakeout/internal/ports/primary"
	"github.com/example/stakeout/internal/ports/secondary"
)

// Seeded squad from db.SeedFixtures.
const (
	reyes     = "user-reyes"
	okafor    = "user-okafor"
	lindqvist = "user-lindqvist"
	park      = "user-park"
)

var testEpoch = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyTargets wraps a target repository with per-id failures and a hook
// that runs before every call.
type flakyTargets struct {
	secondary.TargetRepository
	mu         sync.Mutex
	failCreate map[string]error
	failDelete map[string]error
	before     func(ctx context.Context, id string)
	calls      []string
}

func (f *flakyTargets) Create(ctx context.Context, target *secondary.TargetRecord) error {
	if err := f.track(ctx, "create", target.ID, f.failCreate); err != nil {
		return err
	}
	return f.TargetRepository.Create(ctx, target)
}

func (f *flakyTargets) Delete(ctx context.Context, id string) error {
	if err := f.track(ctx, "delete", id, f.failDelete); err != nil {
		return err
	}
	return f.TargetRepository.Delete(ctx, id)
}

func (f *flakyTargets) track(ctx context.Context, action, id string, failures map[string]error) error {
	f.mu.Lock()
	f.calls = append(f.calls, action+" "+id)
	err := failures[id]
	before := f.before
	f.mu.Unlock()
	if before != nil {
		before(ctx, id)
	}
	return err
}

func (f *flakyTargets) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// flakyStaging wraps a staging repository with per-id create failures.
type flakyStaging struct {
	secondary.StagingRepository
	mu         sync.Mutex
	failCreate map[string]error
	calls      []string
}

func (f *flakyStaging) Create(ctx context.Context, point *secondary.StagingRecord) error {
	f.mu.Lock()
	f.calls = append(f.calls, "create "+point.ID)
	err := f.failCreate[point.ID]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.StagingRepository.Create(ctx, point)
}

func (f *flakyStaging) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	f.calls = append(f.calls, "delete "+id)
	f.mu.Unlock()
	return f.StagingRepository.Delete(ctx, id)
}

func (f *flakyStaging) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// harness wires every service over one in-memory store seeded with the
// fixture squad.
type harness struct {
	t     *testing.T
	db    *sql.DB
	clock *fakeClock

	identityRepo   *sqlite.IdentityRepository
	operationRepo  *sqlite.OperationRepository
	memberRepo     *sqlite.MemberRepository
	inviteRepo     *sqlite.InviteRepository
	joinRepo       *sqlite.JoinRequestRepository
	assignmentRepo *sqlite.AssignmentRepository
	targets        *flakyTargets
	staging        *flakyStaging

	identity    *IdentityServiceImpl
	operations  *OperationServiceImpl
	memberships *MembershipServiceImpl
	edits       *EditServiceImpl
	assignments *AssignmentServiceImpl
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithConcurrency(t, DefaultReconcileConcurrency)
}

func newHarnessWithConcurrency(t *testing.T, concurrency int) *harness {
	t.Helper()

	database, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.SeedFixtures(database))

	h := &harness{
		t:              t,
		db:             database,
		clock:          newFakeClock(),
		identityRepo:   sqlite.NewIdentityRepository(database),
		operationRepo:  sqlite.NewOperationRepository(database),
		memberRepo:     sqlite.NewMemberRepository(database),
		inviteRepo:     sqlite.NewInviteRepository(database),
		joinRepo:       sqlite.NewJoinRequestRepository(database),
		assignmentRepo: sqlite.NewAssignmentRepository(database),
		targets: &flakyTargets{
			TargetRepository: sqlite.NewTargetRepository(database),
			failCreate:       map[string]error{},
			failDelete:       map[string]error{},
		},
		staging: &flakyStaging{
			StagingRepository: sqlite.NewStagingRepository(database),
			failCreate:        map[string]error{},
		},
	}

	h.identity = NewIdentityService(h.identityRepo, h.clock.Now)
	h.edits = NewEditService(h.operationRepo, h.memberRepo, h.targets, h.staging, concurrency, h.clock.Now, nil)
	h.operations = NewOperationService(h.identityRepo, h.operationRepo, h.memberRepo, h.targets, h.staging, h.edits, h.clock.Now, nil)
	h.memberships = NewMembershipService(h.identityRepo, h.operationRepo, h.memberRepo, h.inviteRepo, h.joinRepo, 0, 0, h.clock.Now, nil)
	h.assignments = NewAssignmentService(h.operationRepo, h.memberRepo, h.assignmentRepo, nil, h.clock.Now, nil)
	return h
}

// as returns a context acting as userID.
func as(userID string) context.Context {
	return ctxutil.WithActorID(context.Background(), userID)
}

// createOperation creates an active operation with caseAgent as case agent
// and adds members directly.
func (h *harness) createOperation(caseAgent string, members ...string) string {
	h.t.Helper()
	resp, err := h.operations.CreateOperation(as(caseAgent), primary.CreateOperationRequest{
		Name:           "Harbor Watch",
		IncidentNumber: "24-001873",
	})
	require.NoError(h.t, err)
	if len(members) > 0 {
		_, err := h.memberships.AddMembers(as(caseAgent), resp.OperationID, members)
		require.NoError(h.t, err)
	}
	return resp.OperationID
}

func floatPtr(v float64) *float64 {
	return &v
}
