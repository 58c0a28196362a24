// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package account handles principal profile management and security settings.

It provides functionalities for principals to view and update their private
identity data and manage their active device sessions, plus the back-office
surface for staff to administer accounts (role grants, deactivation).

# Architecture

  - Entities: SessionInfo (DTO).
  - Domain: This package depends on the auth package for the Principal entity.
  - Security: Provides session transparency and revocation mechanisms; every
    staff mutation lands in the audit trail.
*/
package account

import (
	"context"
	"time"

	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/users/auth"
)

// # Domain Entities

// SessionInfo provides a safety-mapped view of an active session.
// It omits sensitive token hashes for transport.
type SessionInfo struct {
	ID        string          `json:"id"`
	Pool      sec.SessionPool `json:"pool"`
	UserAgent string          `json:"user_agent"`
	IPAddress string          `json:"ip_address"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	IsCurrent bool            `json:"is_current"` // True if this session belongs to the current request
}

// # Repository Contracts

// AccountRepository defines the persistence contract for principal accounts.
type AccountRepository interface {
	/*
		FindByID retrieves a principal record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.Principal: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.Principal, error)

	/*
		Update modifies the mutable profile fields of an existing principal.

		Parameters:
		  - context: context.Context
		  - principal: *auth.Principal (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	Update(context context.Context, principal *auth.Principal) error

	/*
		List returns principals newest-first with pagination.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*auth.Principal: Page of accounts
		  - int: Total account count
		  - error: Retrieval failures
	*/
	List(context context.Context, limit, offset int) ([]*auth.Principal, int, error)

	/*
		SetRole replaces the principal's role.

		Parameters:
		  - context: context.Context
		  - id: string
		  - role: sec.Role

		Returns:
		  - error: Execution failures
	*/
	SetRole(context context.Context, id string, role sec.Role) error

	/*
		SetActive flips the principal's active flag.

		Parameters:
		  - context: context.Context
		  - id: string
		  - active: bool

		Returns:
		  - error: Execution failures
	*/
	SetActive(context context.Context, id string, active bool) error

	/*
		SoftDelete flags an account as logically deleted.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Execution failures
	*/
	SoftDelete(context context.Context, id string) error
}

// SessionRepository defines the visibility and revocation contract for sessions.
type SessionRepository interface {
	/*
		FindActiveByPrincipalID lists all valid, non-expired sessions for a principal.

		Parameters:
		  - context: context.Context
		  - principalID: string

		Returns:
		  - []SessionInfo: List of active devices
		  - error: Retrieval errors
	*/
	FindActiveByPrincipalID(context context.Context, principalID string) ([]SessionInfo, error)

	/*
		Revoke marks a specific session as revoked. The principalID predicate
		is part of the statement so a principal can only ever revoke their own.

		Parameters:
		  - context: context.Context
		  - principalID: string (Security constraint: owner validation)
		  - sessionID: string

		Returns:
		  - error: Revocation failures
	*/
	Revoke(context context.Context, principalID, sessionID string) error

	/*
		RevokeAll terminates every session for a principal.

		Parameters:
		  - context: context.Context
		  - principalID: string

		Returns:
		  - error: Revocation failures
	*/
	RevokeAll(context context.Context, principalID string) error
}
