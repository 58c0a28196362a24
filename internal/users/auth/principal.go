// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package auth implements the principal identity and session management layer.

It defines the core domain entities (Principal, Session) and logic for
authentication, authorization, and account lifecycle — including the
brute-force lockout policy and the one-time password recovery flow.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to principal identity.
*/
package auth

import (
	"time"

	"github.com/safrareport/safrareport/internal/platform/sec"
)

// # Domain Entities

// Principal represents a registered account on the SafraReport platform.
// Readers, editors, moderators and administrators are all principals; the
// Role field decides what they can do, never which table they live in.
type Principal struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string     `json:"display_name"`
	Role         sec.Role   `json:"role"`
	IsActive     bool       `json:"is_active"`

	// Lockout bookkeeping. FailedAttempts counts consecutive failed logins;
	// a non-nil LockedUntil in the future rejects ALL logins, even with the
	// correct password.
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Locked reports whether the principal is currently inside a lockout window.
func (p *Principal) Locked(now time.Time) bool {
	return p.LockedUntil != nil && now.Before(*p.LockedUntil)
}

// Session represents an active opaque-token session.
//
// The Pool field pins the session to exactly one of the two session stores
// (reader or back-office); validation always filters on it so a token from
// one pool can never authorize the other.
type Session struct {
	ID          string          `json:"id"`
	PrincipalID string          `json:"principal_id"`
	TokenHash   string          `json:"-"` // SHA-256 of the opaque token. Omitted for security.
	Pool        sec.SessionPool `json:"pool"`
	IPAddress   string          `json:"ip_address"`
	UserAgent   string          `json:"user_agent"`
	ExpiresAt   time.Time       `json:"expires_at"`
	RevokedAt   *time.Time      `json:"revoked_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldPrincipal       = "principal"
	FieldExpiresAt       = "expires_at"
	FieldMessage         = "message"
)
