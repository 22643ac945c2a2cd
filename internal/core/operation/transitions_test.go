package operation

import (
	"testing"
	"time"
)

func TestInitialTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	active := InitialTransition(false, now)
	if active.State != StateActive {
		t.Errorf("State = %s, want %s", active.State, StateActive)
	}
	if active.StartsAt == nil || !active.StartsAt.Equal(now) {
		t.Errorf("expected StartsAt = %v, got %v", now, active.StartsAt)
	}

	draft := InitialTransition(true, now)
	if draft.State != StateDraft {
		t.Errorf("State = %s, want %s", draft.State, StateDraft)
	}
	if draft.StartsAt != nil {
		t.Errorf("expected draft to have no StartsAt, got %v", draft.StartsAt)
	}
}

func TestApplyStart(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("draft becomes active with start time", func(t *testing.T) {
		tr := ApplyStart(StateDraft, now)
		if !tr.Changed || tr.State != StateActive {
			t.Fatalf("got %+v", tr)
		}
		if tr.StartsAt == nil || !tr.StartsAt.Equal(now) {
			t.Errorf("StartsAt = %v, want %v", tr.StartsAt, now)
		}
	})

	t.Run("active is a no-op", func(t *testing.T) {
		tr := ApplyStart(StateActive, now)
		if tr.Changed {
			t.Error("expected no change")
		}
		if tr.StartsAt != nil {
			t.Errorf("expected StartsAt untouched, got %v", tr.StartsAt)
		}
	})
}

func TestApplyEnd(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	tr := ApplyEnd(now)
	if tr.State != StateEnded || !tr.Changed {
		t.Fatalf("got %+v", tr)
	}
	if tr.EndsAt == nil || !tr.EndsAt.Equal(now) {
		t.Errorf("EndsAt = %v, want %v", tr.EndsAt, now)
	}
}

func TestState_Valid(t *testing.T) {
	for _, s := range []State{StateDraft, StateActive, StateEnded} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if State("paused").Valid() {
		t.Error("expected paused to be invalid")
	}
}
