package primary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/core/guard"
)

// recordingReconcile succeeds every item except the target ids in fail and
// the staging ids in failStaging.
type recordingReconcile struct {
	fail        map[string]bool
	failStaging map[string]bool
	requests    []ReconcileRequest
}

func (r *recordingReconcile) reconcile(_ context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	r.requests = append(r.requests, req)
	result := &ReconcileResult{OperationID: req.OperationID}
	outcome := func(entity EntityKind, id string, action ItemAction) {
		o := ItemOutcome{Entity: entity, EntityID: id, Action: action, Status: OutcomeSucceeded}
		if (entity == EntityTarget && r.fail[id]) || (entity == EntityStaging && r.failStaging[id]) {
			o.Status = OutcomeFailed
			o.Err = errors.New("boom")
		}
		result.Outcomes = append(result.Outcomes, o)
	}
	inOriginal := map[string]bool{}
	for _, t := range req.Original.Targets {
		inOriginal[t.ID] = true
	}
	inCurrent := map[string]bool{}
	for _, t := range req.Current.Targets {
		inCurrent[t.ID] = true
		if !inOriginal[t.ID] {
			outcome(EntityTarget, t.ID, ActionCreate)
		}
	}
	for _, t := range req.Original.Targets {
		if !inCurrent[t.ID] {
			outcome(EntityTarget, t.ID, ActionDelete)
		}
	}
	stagedBefore := map[string]bool{}
	for _, p := range req.Original.Staging {
		stagedBefore[p.ID] = true
	}
	for _, p := range req.Current.Staging {
		if !stagedBefore[p.ID] {
			outcome(EntityStaging, p.ID, ActionCreate)
		}
	}
	return result, nil
}

func TestEditSession_IsolatedFromLoadedSnapshot(t *testing.T) {
	loaded := Snapshot{Targets: []*Target{{ID: "t-1", Fields: map[string]string{"plate": "A"}}}}
	rec := &recordingReconcile{}
	session := NewEditSession("op-1", loaded, rec.reconcile)

	session.EditTargetInPlace("t-1", func(t *Target) { t.Fields["plate"] = "B" })

	assert.Equal(t, "A", loaded.Targets[0].Fields["plate"])
	assert.Equal(t, "A", session.Original().Targets[0].Fields["plate"])
	assert.Equal(t, "B", session.Current().Targets[0].Fields["plate"])
}

func TestEditSession_AddRemoveReplace(t *testing.T) {
	rec := &recordingReconcile{}
	session := NewEditSession("op-1", Snapshot{}, rec.reconcile)

	id, err := session.AddTarget(&Target{Kind: "person"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = session.AddTarget(&Target{ID: id})
	assert.ErrorIs(t, err, guard.ErrMissingPrecondition)

	_, err = session.ReplaceTarget("missing", func(*Target) {})
	assert.ErrorIs(t, err, guard.ErrNotFound)

	replaced, err := session.ReplaceTarget(id, func(t *Target) { t.Status = "active" })
	require.NoError(t, err)
	assert.NotEqual(t, id, replaced)
	require.Len(t, session.Current().Targets, 1)
	assert.Equal(t, "active", session.Current().Targets[0].Status)

	assert.True(t, session.RemoveTarget(replaced))
	assert.False(t, session.RemoveTarget(replaced))

	sid, err := session.AddStaging(&StagingPoint{Label: "Lot B"})
	require.NoError(t, err)
	assert.True(t, session.EditStagingInPlace(sid, func(p *StagingPoint) { p.Address = "500 Main St" }))
	newSID, err := session.ReplaceStaging(sid, func(p *StagingPoint) {
		lat, lng := 37.77, -122.41
		p.Lat, p.Lng = &lat, &lng
	})
	require.NoError(t, err)
	staging := session.Current().Staging
	require.Len(t, staging, 1)
	assert.Equal(t, newSID, staging[0].ID)
	assert.True(t, staging[0].Geocoded())
	assert.Equal(t, "500 Main St", staging[0].Address)
	assert.True(t, session.RemoveStaging(newSID))
}

func TestEditSession_CommitRebasesOriginal(t *testing.T) {
	loaded := Snapshot{Targets: []*Target{{ID: "t-1"}, {ID: "t-2"}}}
	rec := &recordingReconcile{fail: map[string]bool{"t-2": true, "t-4": true}}
	session := NewEditSession("op-1", loaded, rec.reconcile)

	session.RemoveTarget("t-1")
	session.RemoveTarget("t-2")
	_, err := session.AddTarget(&Target{ID: "t-3"})
	require.NoError(t, err)
	_, err = session.AddTarget(&Target{ID: "t-4"})
	require.NoError(t, err)

	result, err := session.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count(OutcomeFailed))

	ids := func(s Snapshot) []string {
		var out []string
		for _, t := range s.Targets {
			out = append(out, t.ID)
		}
		return out
	}
	// t-1 deleted and t-3 created; the failed delete of t-2 and create of t-4 stay pending.
	assert.ElementsMatch(t, []string{"t-2", "t-3"}, ids(session.Original()))

	rec.fail = nil
	result, err = session.Commit(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 2, result.Count(OutcomeSucceeded))
	assert.ElementsMatch(t, []string{"t-3", "t-4"}, ids(session.Original()))
	assert.Equal(t, "op-1", rec.requests[1].OperationID)
}

func TestEditSession_RebaseKeepsKindsApart(t *testing.T) {
	rec := &recordingReconcile{failStaging: map[string]bool{"x-1": true}}
	session := NewEditSession("op-1", Snapshot{}, rec.reconcile)

	_, err := session.AddTarget(&Target{ID: "x-1"})
	require.NoError(t, err)
	lat, lng := 37.77, -122.41
	_, err = session.AddStaging(&StagingPoint{ID: "x-1", Label: "Lot B", Lat: &lat, Lng: &lng})
	require.NoError(t, err)

	result, err := session.Commit(context.Background())
	require.NoError(t, err)
	target, ok := result.Find(EntityTarget, "x-1", ActionCreate)
	require.True(t, ok)
	assert.Equal(t, OutcomeSucceeded, target.Status)
	staging, ok := result.Find(EntityStaging, "x-1", ActionCreate)
	require.True(t, ok)
	assert.Equal(t, OutcomeFailed, staging.Status)

	assert.Len(t, session.Original().Targets, 1)
	assert.Empty(t, session.Original().Staging, "the failed staging create stays pending")

	rec.failStaging = nil
	result, err = session.Commit(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, EntityStaging, result.Outcomes[0].Entity)
}

func TestReconcileResult_Err(t *testing.T) {
	cause := errors.New("store timeout")
	result := &ReconcileResult{Outcomes: []ItemOutcome{
		{Entity: EntityTarget, EntityID: "t-1", Action: ActionCreate, Status: OutcomeSucceeded},
		{Entity: EntityStaging, EntityID: "s-1", Action: ActionCreate, Status: OutcomeSkipped},
		{Entity: EntityTarget, EntityID: "t-2", Action: ActionDelete, Status: OutcomeFailed, Err: cause},
		{Entity: EntityTarget, EntityID: "t-3", Action: ActionCreate, Status: OutcomeAbandoned},
	}}

	err := result.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, guard.ErrPartialFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "2 item(s) not applied")
	assert.Contains(t, err.Error(), "delete target t-2")
	assert.Contains(t, err.Error(), "create target t-3")

	ok := &ReconcileResult{Outcomes: result.Outcomes[:2]}
	assert.NoError(t, ok.Err())
}
