// Copyright (c) 2026 SafraReport. All rights reserved.

// This file implements the auth storage contracts on PostgreSQL.
//
// # Architecture
//
// Repositories are strictly separated from domain logic. They implement the
// domain-defined interfaces (e.g., [PrincipalRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/database/schema"
	"github.com/safrareport/safrareport/internal/platform/dberr"
	"github.com/safrareport/safrareport/internal/platform/sec"
)

// # Principal Repository

// PostgresPrincipalRepository implements the PrincipalRepository interface using pgx.
type PostgresPrincipalRepository struct {
	pool *pgxpool.Pool
}

// NewPrincipalRepository creates a new PostgreSQL implementation of the PrincipalRepository.
func NewPrincipalRepository(pool *pgxpool.Pool) *PostgresPrincipalRepository {
	return &PostgresPrincipalRepository{pool: pool}
}

var principalColumns = strings.Join(schema.UsersPrincipal.Columns(), ", ")

// scanPrincipal hydrates a Principal from a row holding principalColumns.
func scanPrincipal(row pgx.Row) (*Principal, error) {
	principal := &Principal{}
	err := row.Scan(
		&principal.ID,
		&principal.Email,
		&principal.PasswordHash,
		&principal.DisplayName,
		&principal.Role,
		&principal.IsActive,
		&principal.FailedAttempts,
		&principal.LockedUntil,
		&principal.LastLoginAt,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

/*
Create persists a new principal record into the users.principal table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided.

Parameters:
  - context: context.Context
  - principal: *Principal (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresPrincipalRepository) Create(context context.Context, principal *Principal) error {
	const query = `
		INSERT INTO users.principal (
			id, email, passwordhash, displayname, role, isactive, failedattempts, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = now
	}
	principal.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		principal.ID,
		principal.Email,
		principal.PasswordHash,
		principal.DisplayName,
		principal.Role,
		principal.IsActive,
		principal.FailedAttempts,
		principal.CreatedAt,
		principal.UpdatedAt,
	)

	if err != nil {
		// A concurrent registration can slip past the service-level email
		// pre-check; the partial unique index on LOWER(email) is the backstop
		// and must still surface as a Conflict.
		return dberr.Wrap(err, "postgres_principal_repo_create")
	}

	return nil
}

/*
FindByEmail retrieves a principal record by their unique email address.

Description: Performs a lookup on the principal table, filtering out
soft-deleted accounts.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Principal: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresPrincipalRepository) FindByEmail(context context.Context, email string) (*Principal, error) {
	query := `
		SELECT ` + principalColumns + `
		FROM users.principal
		WHERE LOWER(email) = LOWER($1) AND deletedat IS NULL`

	principal, err := scanPrincipal(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_principal_repo_find_by_email_failed: %w", err)
	}

	return principal, nil
}

/*
FindByID retrieves a principal record by their unique ID.

Description: Primary key resolution for accounts.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Principal: Hydrated account entity
  - error: Not found or execution errors
*/
func (repository *PostgresPrincipalRepository) FindByID(context context.Context, id string) (*Principal, error) {
	query := `
		SELECT ` + principalColumns + `
		FROM users.principal
		WHERE id = $1 AND deletedat IS NULL`

	principal, err := scanPrincipal(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_principal_repo_find_by_id_failed: %w", err)
	}

	return principal, nil
}

/*
UpdatePassword updates only the password hash for a specific principal.

Parameters:
  - context: context.Context
  - principalID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) UpdatePassword(context context.Context, principalID, newHash string) error {
	const query = `
		UPDATE users.principal
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, principalID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
RecordFailure increments the failed-login counter and sets the lockout
deadline in one atomic UPDATE.

Description: The increment and the threshold comparison happen inside a single
statement so concurrent failed logins can never lose a count or race past the
threshold. The CASE arms the lock exactly when the post-increment counter
reaches the threshold.

Parameters:
  - context: context.Context
  - principalID: string
  - threshold: int
  - lockout: time.Duration

Returns:
  - int: Counter value after the increment
  - *time.Time: Lockout deadline, nil while below threshold
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) RecordFailure(context context.Context, principalID string, threshold int, lockout time.Duration) (int, *time.Time, error) {
	const query = `
		UPDATE users.principal
		SET failedattempts = failedattempts + 1,
		    lockeduntil = CASE
		        WHEN failedattempts + 1 >= $2 THEN NOW() + make_interval(secs => $3)
		        ELSE lockeduntil
		    END,
		    updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
		RETURNING failedattempts, lockeduntil`

	var attempts int
	var lockedUntil *time.Time
	err := repository.pool.QueryRow(context, query, principalID, threshold, lockout.Seconds()).
		Scan(&attempts, &lockedUntil)
	if err != nil {
		return 0, nil, fmt.Errorf("postgres_principal_repo_record_failure_failed: %w", err)
	}

	return attempts, lockedUntil, nil
}

/*
ResetFailures clears the lockout bookkeeping after a successful login.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) ResetFailures(context context.Context, principalID string) error {
	const query = `
		UPDATE users.principal
		SET failedattempts = 0, lockeduntil = NULL, lastloginat = NOW(), updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, principalID)
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_reset_failures_failed: %w", err)
	}

	return nil
}

/*
ClearLockout clears the counter and deadline without stamping a login.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) ClearLockout(context context.Context, principalID string) error {
	const query = `
		UPDATE users.principal
		SET failedattempts = 0, lockeduntil = NULL, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, principalID)
	if err != nil {
		return fmt.Errorf("postgres_principal_repo_clear_lockout_failed: %w", err)
	}

	return nil
}

// # Session Repository

// sessionColumns is the scan order shared by every session SELECT below.
var sessionColumns = strings.Join(schema.UsersSession.Columns(), ", ")

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new session record into the users.session table.

Description: Records a successful authentication session in persistent storage.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Storage failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (
			id, principalid, tokenhash, pool, ipaddress, useragent, expiresat, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.PrincipalID,
		session.TokenHash,
		session.Pool,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindActiveByTokenHash retrieves a live session by token hash within one pool.

Description: The pool predicate is part of the WHERE clause, not a post-filter,
so a token minted for one pool can never resolve a session from the other.

Parameters:
  - context: context.Context
  - tokenHash: string
  - pool: sec.SessionPool

Returns:
  - *Session: Hydrated session metadata
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresSessionRepository) FindActiveByTokenHash(context context.Context, tokenHash string, pool sec.SessionPool) (*Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM users.session
		WHERE tokenhash = $1 AND pool = $2 AND revokedat IS NULL AND expiresat > NOW()`

	session := &Session{}
	err := repository.pool.QueryRow(context, query, tokenHash, pool).Scan(
		&session.ID,
		&session.PrincipalID,
		&session.TokenHash,
		&session.Pool,
		&session.IPAddress,
		&session.UserAgent,
		&session.ExpiresAt,
		&session.RevokedAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	return session, nil
}

/*
ListByPrincipal returns all live sessions for a principal, newest first.

Description: Powers the account "active devices" view.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - []*Session: Active sessions
  - error: Retrieval failures
*/
func (repository *PostgresSessionRepository) ListByPrincipal(context context.Context, principalID string) ([]*Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM users.session
		WHERE principalid = $1 AND revokedat IS NULL AND expiresat > NOW()
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(context, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session := &Session{}
		err := rows.Scan(
			&session.ID,
			&session.PrincipalID,
			&session.TokenHash,
			&session.Pool,
			&session.IPAddress,
			&session.UserAgent,
			&session.ExpiresAt,
			&session.RevokedAt,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_session_repo_scan_failed: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_repo_rows_failed: %w", err)
	}

	return sessions, nil
}

/*
Revoke marks a specific session as revoked.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Revocation failures
*/
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	const query = "UPDATE users.session SET revokedat = NOW() WHERE id = $1 AND revokedat IS NULL"
	_, err := repository.pool.Exec(context, query, sessionID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return nil
}

/*
RevokeAll marks all active sessions for a principal as revoked.

Description: Security nuking of all active sessions, across both pools.
Used after a password change or a completed password reset.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - error: Batch revocation failures
*/
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, principalID string) error {
	const query = "UPDATE users.session SET revokedat = NOW() WHERE principalid = $1 AND revokedat IS NULL"
	_, err := repository.pool.Exec(context, query, principalID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	return nil
}

/*
RevokeOthers marks all active sessions for a principal as revoked, except for one.

Parameters:
  - context: context.Context
  - principalID: string
  - currentSessionID: string

Returns:
  - error: Filtered revocation failures
*/
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, principalID, currentSessionID string) error {
	const query = "UPDATE users.session SET revokedat = NOW() WHERE principalid = $1 AND id != $2 AND revokedat IS NULL"
	_, err := repository.pool.Exec(context, query, principalID, currentSessionID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_others_failed: %w", err)
	}
	return nil
}

/*
DeleteExpired permanently removes all sessions that have passed their expiration.

Description: Cleanup task to reclaim storage from stale sessions.

Parameters:
  - context: context.Context

Returns:
  - error: Cleanup failures
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) error {
	const query = "DELETE FROM users.session WHERE expiresat <= NOW()"
	_, err := repository.pool.Exec(context, query)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}
	return nil
}
