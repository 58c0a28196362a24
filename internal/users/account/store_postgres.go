// Copyright (c) 2026 SafraReport. All rights reserved.

package account

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
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/users/auth"
)

// # Account Repository

// PostgresAccountRepository implements the AccountRepository interface using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

var principalColumns = strings.Join(schema.UsersPrincipal.Columns(), ", ")

func scanPrincipal(row pgx.Row) (*auth.Principal, error) {
	principal := &auth.Principal{}
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
FindByID retrieves a principal record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *auth.Principal: Loaded account entity
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.Principal, error) {
	query := `
		SELECT ` + principalColumns + `
		FROM users.principal
		WHERE id = $1 AND deletedat IS NULL`

	principal, err := scanPrincipal(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return principal, nil
}

/*
Update persists changes to a principal's mutable profile fields.

Parameters:
  - context: context.Context
  - principal: *auth.Principal

Returns:
  - error: Update failures
*/
func (repository *PostgresAccountRepository) Update(context context.Context, principal *auth.Principal) error {
	const query = `
		UPDATE users.principal
		SET displayname = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	principal.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		principal.ID,
		principal.DisplayName,
		principal.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_failed: %w", err)
	}

	return nil
}

/*
List returns a page of principal accounts, newest first.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*auth.Principal: Page of accounts
  - int: Total account count
  - error: Retrieval failures
*/
func (repository *PostgresAccountRepository) List(context context.Context, limit, offset int) ([]*auth.Principal, int, error) {
	const countQuery = "SELECT COUNT(*) FROM users.principal WHERE deletedat IS NULL"

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	query := `
		SELECT ` + principalColumns + `
		FROM users.principal
		WHERE deletedat IS NULL
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var principals []*auth.Principal
	for rows.Next() {
		principal, err := scanPrincipal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		principals = append(principals, principal)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_rows_failed: %w", err)
	}

	return principals, total, nil
}

/*
SetRole replaces the principal's role.

Parameters:
  - context: context.Context
  - id: string
  - role: sec.Role

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) SetRole(context context.Context, id string, role sec.Role) error {
	const query = `
		UPDATE users.principal
		SET role = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, id, role)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_set_role_failed: %w", err)
	}
	return nil
}

/*
SetActive flips the principal's active flag.

Parameters:
  - context: context.Context
  - id: string
  - active: bool

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) SetActive(context context.Context, id string, active bool) error {
	const query = `
		UPDATE users.principal
		SET isactive = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, id, active)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_set_active_failed: %w", err)
	}
	return nil
}

/*
SoftDelete marks a principal account as deleted using their ID.

Description: Retention-friendly deletion by setting deletedat.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Side-effect failures
*/
func (repository *PostgresAccountRepository) SoftDelete(context context.Context, id string) error {
	const query = "UPDATE users.principal SET deletedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_soft_delete_failed: %w", err)
	}
	return nil
}

// # Session Repository

// PostgresSessionRepository implements the account SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
FindActiveByPrincipalID lists all valid, non-expired sessions for a principal.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - []SessionInfo: List of active devices
  - error: Retrieval errors
*/
func (repository *PostgresSessionRepository) FindActiveByPrincipalID(context context.Context, principalID string) ([]SessionInfo, error) {
	const query = `
		SELECT id, pool, useragent, ipaddress, createdat, expiresat
		FROM users.session
		WHERE principalid = $1 AND revokedat IS NULL AND expiresat > NOW()
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(context, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("postgres_account_session_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var pool sec.SessionPool
		err := rows.Scan(&info.ID, &pool, &info.UserAgent, &info.IPAddress, &info.CreatedAt, &info.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("postgres_account_session_repo_scan_failed: %w", err)
		}
		info.Pool = pool
		sessions = append(sessions, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_account_session_repo_rows_failed: %w", err)
	}

	return sessions, nil
}

/*
Revoke marks a specific session as revoked, scoped to its owner.

Parameters:
  - context: context.Context
  - principalID: string
  - sessionID: string

Returns:
  - error: Revocation failures
*/
func (repository *PostgresSessionRepository) Revoke(context context.Context, principalID, sessionID string) error {
	const query = `
		UPDATE users.session
		SET revokedat = NOW()
		WHERE id = $1 AND principalid = $2 AND revokedat IS NULL`

	_, err := repository.pool.Exec(context, query, sessionID, principalID)
	if err != nil {
		return fmt.Errorf("postgres_account_session_repo_revoke_failed: %w", err)
	}
	return nil
}

/*
RevokeAll terminates every session for a principal, across both pools.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - error: Revocation failures
*/
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, principalID string) error {
	const query = "UPDATE users.session SET revokedat = NOW() WHERE principalid = $1 AND revokedat IS NULL"
	_, err := repository.pool.Exec(context, query, principalID)
	if err != nil {
		return fmt.Errorf("postgres_account_session_repo_revoke_all_failed: %w", err)
	}
	return nil
}
