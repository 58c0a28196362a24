// Copyright (c) 2026 SafraReport. All rights reserved.

package auth

import (
	"context"
	"time"

	"github.com/safrareport/safrareport/internal/platform/sec"
)

// # Principal Data Access

// PrincipalRepository defines the data access contract for principal accounts.
type PrincipalRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Principal: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Principal, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *Principal: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*Principal, error)

	/*
		Create persists a brand-new principal account to the storage.

		Parameters:
		  - context: context.Context
		  - principal: *Principal

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, principal *Principal) error

	/*
		UpdatePassword replaces only the principal's password hash.

		Parameters:
		  - context: context.Context
		  - principalID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, principalID, newHash string) error

	/*
		RecordFailure atomically increments the failed-login counter and, when
		the counter reaches the threshold, sets the lockout deadline in the
		SAME statement. Callers must treat an error here as a failed login.

		Parameters:
		  - context: context.Context
		  - principalID: string
		  - threshold: int (attempts that trigger a lock)
		  - lockout: time.Duration (length of the lockout window)

		Returns:
		  - int: Counter value after the increment
		  - *time.Time: Lockout deadline, nil if not locked
		  - error: Persistence failures
	*/
	RecordFailure(context context.Context, principalID string, threshold int, lockout time.Duration) (int, *time.Time, error)

	/*
		ResetFailures clears the failed-login counter and the lockout deadline
		and stamps the last successful login time.

		Parameters:
		  - context: context.Context
		  - principalID: string

		Returns:
		  - error: Persistence failures
	*/
	ResetFailures(context context.Context, principalID string) error

	/*
		ClearLockout clears the counter and lockout deadline without touching
		the last-login stamp. Used after a completed password reset.

		Parameters:
		  - context: context.Context
		  - principalID: string

		Returns:
		  - error: Persistence failures
	*/
	ClearLockout(context context.Context, principalID string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for opaque-token sessions.
type SessionRepository interface {

	/*
		Create persists a new tracking session for an authenticated login.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindActiveByTokenHash returns the live session matching the token hash
		WITHIN the given pool. Expired or revoked sessions are never returned,
		and neither are sessions belonging to the other pool.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - pool: sec.SessionPool

		Returns:
		  - *Session: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindActiveByTokenHash(context context.Context, tokenHash string, pool sec.SessionPool) (*Session, error)

	/*
		ListByPrincipal returns all live sessions for a principal, newest first.

		Parameters:
		  - context: context.Context
		  - principalID: string

		Returns:
		  - []*Session: Active sessions
		  - error: Database retrieval failures
	*/
	ListByPrincipal(context context.Context, principalID string) ([]*Session, error)

	/*
		Revoke marks a specific session as permanently invalidated.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Revoke(context context.Context, sessionID string) error

	/*
		RevokeAll revokes every active session belonging to the principal,
		across BOTH pools.

		Parameters:
		  - context: context.Context
		  - principalID: string

		Returns:
		  - error: Persistence failures
	*/
	RevokeAll(context context.Context, principalID string) error

	/*
		RevokeOthers revokes all sessions belonging to the principal except for
		the current session.

		Parameters:
		  - context: context.Context
		  - principalID: string
		  - currentSessionID: string

		Returns:
		  - error: Persistence failures
	*/
	RevokeOthers(context context.Context, principalID, currentSessionID string) error

	/*
		DeleteExpired physically removes sessions whose ExpiresAt is in the past.

		Parameters:
		  - context: context.Context

		Returns:
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context) error
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing volatile password
// reset tokens. Implementations must guarantee single use: a consumed token
// can never resolve again, and issuing a new token for a principal must
// invalidate any earlier one still outstanding.
type ResetTokenRepository interface {

	/*
		Set stores a reset token hash for a principal with a limited duration,
		invalidating any prior token issued to the same principal.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - principalID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, tokenHash string, principalID string, ttl time.Duration) error

	/*
		Consume atomically resolves AND deletes the token hash, so the same
		token can never be redeemed twice.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - string: PrincipalID
		  - error: apperr.InvalidOrExpiredToken or retrieval failures
	*/
	Consume(context context.Context, tokenHash string) (string, error)
}
