package model

import "time"

// UserState is the derived badge state for a user row.
type UserState string

// User badge states. Disabled wins over everything; a user disabled by the
// operator shows as disabled even when its expiry is already in the past.
const (
	UserDisabled UserState = "disabled"
	UserExpired  UserState = "expired"
	UserLimited  UserState = "limited"
	UserActive   UserState = "active"
)

// Status derives the badge state for u at time now.
func (u *User) Status(now time.Time) UserState {
	if !u.Enabled {
		return UserDisabled
	}
	if u.ExpiresAt != nil && u.ExpiresAt.Before(now) {
		return UserExpired
	}
	if u.DataLimit > 0 && u.DataUsed >= u.DataLimit {
		return UserLimited
	}
	return UserActive
}

// Expired reports whether the user's expiry timestamp has passed. It ignores
// the enabled flag; use Status for badge logic.
func (u *User) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.Before(now)
}

// NodeState is the derived liveness state for a node row.
type NodeState string

// Node liveness states. Unknown means the node has not been probed yet.
const (
	NodeOnline  NodeState = "online"
	NodeOffline NodeState = "offline"
	NodeUnknown NodeState = "unknown"
)
