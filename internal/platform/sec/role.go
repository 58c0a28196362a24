// Copyright (c) 2026 SafraReport. All rights reserved.

package sec

// # Principal Roles

// Role represents the authorization level granted to a principal.
type Role string

const (
	// Unrestricted system access
	RoleAdmin Role = "admin"

	// Can moderate classifieds, reviews, and community content
	RoleModerator Role = "moderator"

	// Can write and manage news articles
	RoleEditor Role = "editor"

	// Default role for standard registered accounts
	RoleUser Role = "user"
)

// IsValid reports whether the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleEditor, RoleUser:
		return true
	}
	return false
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale (10-40) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 40
	case RoleModerator:
		return 30
	case RoleEditor:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}

// # Session Pools

// SessionPool distinguishes the two independent session stores. A session
// created in one pool must never validate against the other.
type SessionPool string

const (
	// PoolUser is the reader-facing session pool (sr_session cookie).
	PoolUser SessionPool = "user"

	// PoolAdmin is the back-office session pool (sr_admin_session cookie).
	PoolAdmin SessionPool = "admin"
)

// # Request Identity

// Identity is the request-scoped snapshot of a validated session.
//
// It is attached to the request context by the authentication middleware and
// carries only what downstream handlers need: who the principal is, which
// role they hold, and which session (and pool) authorized them.
type Identity struct {
	PrincipalID string
	Email       string
	DisplayName string
	Role        Role
	SessionID   string
	Pool        SessionPool
}
