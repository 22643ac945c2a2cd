package membership

import "time"

// Role is an operation member's role.
type Role string

const (
	RoleCaseAgent Role = "case_agent"
	RoleMember    Role = "member"
)

// InviteStatus is the lifecycle status of an operation invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
	InviteExpired  InviteStatus = "expired"
)

// JoinStatus is the lifecycle status of a join request.
type JoinStatus string

const (
	JoinPending  JoinStatus = "pending"
	JoinApproved JoinStatus = "approved"
	JoinDenied   JoinStatus = "denied"
	JoinExpired  JoinStatus = "expired"
)

// DefaultTTL is how long invites and join requests stay answerable.
const DefaultTTL = time.Hour

// ExpiresAt returns the expiry for a request created at createdAt.
// A non-positive ttl falls back to DefaultTTL.
func ExpiresAt(createdAt time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return createdAt.Add(ttl)
}

// IsPastExpiry reports whether now is strictly after expiresAt.
func IsPastExpiry(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}

// EffectiveInviteStatus is the status every consumer must act on.
// Expiry is evaluated at read time: once now is past expiresAt the invite
// reads as expired whatever was persisted.
func EffectiveInviteStatus(stored InviteStatus, expiresAt, now time.Time) InviteStatus {
	if IsPastExpiry(expiresAt, now) {
		return InviteExpired
	}
	return stored
}

// EffectiveJoinStatus is the read-time status of a join request.
func EffectiveJoinStatus(stored JoinStatus, expiresAt, now time.Time) JoinStatus {
	if IsPastExpiry(expiresAt, now) {
		return JoinExpired
	}
	return stored
}
