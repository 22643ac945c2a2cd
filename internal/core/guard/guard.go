// Package guard holds the guard result shared by the functional core packages
// and the error kinds a failed guard maps onto.
package guard

import "errors"

// Error kinds. Guard failures and service errors wrap exactly one of these so
// callers can branch with errors.Is.
var (
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrAlreadyMember       = errors.New("already a member")
	ErrDuplicatePending    = errors.New("duplicate pending request")
	ErrExpired             = errors.New("expired")
	ErrNotAMember          = errors.New("not a member")
	ErrNotCaseAgent        = errors.New("not the case agent")
	ErrIsCaseAgent         = errors.New("is the case agent")
	ErrMissingPrecondition = errors.New("missing precondition")
	ErrPartialFailure      = errors.New("partial failure")
	ErrTransport           = errors.New("transport error")
	ErrNotFound            = errors.New("not found")
)

// Result represents the outcome of a guard evaluation.
type Result struct {
	Allowed bool
	Reason  string
	Kind    error
}

// Allow is the passing result.
func Allow() Result {
	return Result{Allowed: true}
}

// Deny builds a failing result of the given kind.
func Deny(kind error, reason string) Result {
	return Result{Allowed: false, Reason: reason, Kind: kind}
}

// Error converts the guard result to an error if not allowed.
// The message is the reason; errors.Is matches the kind.
func (r Result) Error() error {
	if r.Allowed {
		return nil
	}
	return &Violation{Kind: r.Kind, Reason: r.Reason}
}

// Violation is the error form of a denied guard.
type Violation struct {
	Kind   error
	Reason string
}

func (v *Violation) Error() string {
	return v.Reason
}

func (v *Violation) Unwrap() error {
	return v.Kind
}

// First returns the first denied result, or Allow if every result passed.
func First(results ...Result) Result {
	for _, r := range results {
		if !r.Allowed {
			return r
		}
	}
	return Allow()
}
