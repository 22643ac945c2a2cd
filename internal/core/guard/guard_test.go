package guard

import (
	"errors"
	"testing"
)

func TestResult_Error(t *testing.T) {
	t.Run("allowed result returns nil error", func(t *testing.T) {
		if err := Allow().Error(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("denied result returns error with reason and kind", func(t *testing.T) {
		err := Deny(ErrExpired, "invite INV-1 expired").Error()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if err.Error() != "invite INV-1 expired" {
			t.Errorf("error = %q, want %q", err.Error(), "invite INV-1 expired")
		}
		if !errors.Is(err, ErrExpired) {
			t.Errorf("expected errors.Is(err, ErrExpired)")
		}
		if errors.Is(err, ErrNotAuthorized) {
			t.Errorf("did not expect errors.Is(err, ErrNotAuthorized)")
		}
	})
}

func TestFirst(t *testing.T) {
	tests := []struct {
		name        string
		results     []Result
		wantAllowed bool
		wantReason  string
	}{
		{name: "no results", wantAllowed: true},
		{name: "all allowed", results: []Result{Allow(), Allow()}, wantAllowed: true},
		{
			name:        "first denial wins",
			results:     []Result{Allow(), Deny(ErrNotAMember, "a"), Deny(ErrExpired, "b")},
			wantAllowed: false,
			wantReason:  "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := First(tt.results...)
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}
