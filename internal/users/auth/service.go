// Copyright (c) 2026 SafraReport. All rights reserved.

/*
This file implements the core identity and access management (IAM) use cases.

It handles everything from account registration and secure password hashing to
the opaque-token session lifecycle, the brute-force lockout policy, and the
one-time password recovery flow.

Architecture:

  - Service: Orchestrates business logic (Register, Login, Lockout, Recovery).
  - Repository: Abstracted interfaces for Postgres (Principals, Sessions) and
    Redis (Reset tokens).
  - Security: Bcrypt hashing, SHA-256 token digests, constant-time comparisons.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/metrics"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/pkg/uuidv7"
)

// # Contracts & Types

// Policy carries the deployment-tunable authentication parameters.
type Policy struct {
	// LockoutThreshold is the number of consecutive failed logins that locks
	// the account.
	LockoutThreshold int

	// LockoutDuration is how long a locked account rejects ALL logins.
	LockoutDuration time.Duration

	// UserSessionTTL is the lifetime of reader-pool sessions.
	UserSessionTTL time.Duration

	// AdminSessionTTL is the lifetime of back-office sessions.
	AdminSessionTTL time.Duration
}

// Service implements principal authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, lockout,
// or login logic must be reviewed by the security team.
type Service struct {
	principalRepository  PrincipalRepository
	sessionRepository    SessionRepository
	resetTokenRepository ResetTokenRepository
	policy               Policy
	recorder             metrics.AuthRecorder
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	principalRepo PrincipalRepository,
	sessionRepo SessionRepository,
	resetRepo ResetTokenRepository,
	policy Policy,
	recorder metrics.AuthRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.NopAuthRecorder{}
	}
	return &Service{
		principalRepository:  principalRepo,
		sessionRepository:    sessionRepo,
		resetTokenRepository: resetRepo,
		policy:               policy,
		recorder:             recorder,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new principal account.

Description: Deep-enrollment of a new member. New accounts always start with
the reader role; elevated roles are granted only through the admin surface.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Principal: Created entity
  - err: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Principal, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.principalRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new Principal entity. Time-sortable ID to prevent PG index fragmentation.
	principal := &Principal{
		ID:           uuidv7.New(),
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleUser,
		IsActive:     true,
	}

	// Persist the principal to the database
	if err := service.principalRepository.Create(context, principal); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return principal, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established session.
type LoginSession struct {
	Token     string
	ExpiresAt time.Time
	Principal *Principal
}

/*
Login authenticates a reader-pool principal and establishes a session.

Description: Verifies identity under the lockout policy and mints an opaque
session token bound to the reader pool.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: InvalidCredentials, AccountLocked, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	principal, err := service.verifyCredentials(context, input.Email, input.Password, sec.PoolUser)
	if err != nil {
		return nil, err
	}
	return service.createSession(context, principal, sec.PoolUser, service.policy.UserSessionTTL, input)
}

/*
AdminLogin authenticates a back-office principal and establishes a session.

Description: Identical credential verification to [Login], but the resulting
session is bound to the admin pool and only staff roles may enter. A plain
reader presenting correct credentials receives the SAME generic rejection as
a wrong password, so this endpoint cannot be used to probe which accounts
hold staff roles.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: InvalidCredentials, AccountLocked, or internal failures
*/
func (service *Service) AdminLogin(context context.Context, input LoginInput) (*LoginSession, error) {
	principal, err := service.verifyCredentials(context, input.Email, input.Password, sec.PoolAdmin)
	if err != nil {
		return nil, err
	}

	if !principal.Role.AtLeast(sec.RoleEditor) {
		service.recorder.RecordLoginFailure(string(sec.PoolAdmin), "role_denied")
		return nil, apperr.InvalidCredentials()
	}

	return service.createSession(context, principal, sec.PoolAdmin, service.policy.AdminSessionTTL, input)
}

// verifyCredentials runs the shared credential check under the lockout policy.
//
// # Ordering
//
// The lockout check comes BEFORE the password comparison: a locked account
// rejects even the correct password. Unknown accounts burn a bcrypt
// comparison against a throwaway hash so the response time does not reveal
// whether the email exists.
func (service *Service) verifyCredentials(context context.Context, email, password string, pool sec.SessionPool) (*Principal, error) {

	principal, err := service.principalRepository.FindByEmail(context, email)
	if err != nil {
		// Unknown account. Burn a hash comparison to equalize timing, then
		// return the same generic rejection a wrong password would get.
		sec.BurnPasswordCheck(password)
		service.recorder.RecordLoginFailure(string(pool), "unknown_account")
		return nil, apperr.InvalidCredentials()
	}

	if principal.Locked(time.Now()) {
		service.recorder.RecordLoginFailure(string(pool), "locked")
		return nil, apperr.AccountLocked()
	}

	if !sec.CheckPasswordHash(password, principal.PasswordHash) {
		// Fail closed: if the counter cannot be advanced, the login fails
		// with an internal error rather than silently skipping the policy.
		if _, _, err := service.principalRepository.RecordFailure(context, principal.ID, service.policy.LockoutThreshold, service.policy.LockoutDuration); err != nil {
			return nil, fmt.Errorf("auth_service_record_failure_failed: %w", err)
		}
		service.recorder.RecordLoginFailure(string(pool), "bad_password")
		return nil, apperr.InvalidCredentials()
	}

	if !principal.IsActive {
		// Deactivated accounts are indistinguishable from bad credentials.
		service.recorder.RecordLoginFailure(string(pool), "inactive")
		return nil, apperr.InvalidCredentials()
	}

	// Fail closed on the counter reset as well: a login that cannot clear
	// its own failure history must not proceed.
	if err := service.principalRepository.ResetFailures(context, principal.ID); err != nil {
		return nil, fmt.Errorf("auth_service_reset_failures_failed: %w", err)
	}

	return principal, nil
}

// createSession mints an opaque token and persists the tracking session.
func (service *Service) createSession(context context.Context, principal *Principal, pool sec.SessionPool, ttl time.Duration, input LoginInput) (*LoginSession, error) {

	token, err := sec.GenerateSecureToken(SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(ttl)
	session := &Session{
		ID:          uuidv7.New(),
		PrincipalID: principal.ID,
		TokenHash:   sec.HashToken(token),
		Pool:        pool,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		ExpiresAt:   expiresAt,
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	service.recorder.RecordLoginSuccess(string(pool))

	return &LoginSession{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: principal,
	}, nil
}

// # Session Management

/*
ValidateSession resolves an opaque token into a request identity.

Description: The token is hashed and looked up strictly within the given
pool; expired, revoked, and cross-pool sessions all fail identically. The
owning principal must still be active — deactivating an account invalidates
its outstanding sessions immediately.

Parameters:
  - context: context.Context
  - token: string
  - pool: sec.SessionPool

Returns:
  - *sec.Identity: Validated identity, nil when the token does not authenticate
  - err: Storage failures only; an invalid token is (nil, nil)
*/
func (service *Service) ValidateSession(context context.Context, token string, pool sec.SessionPool) (*sec.Identity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := service.sessionRepository.FindActiveByTokenHash(context, sec.HashToken(token), pool)
	if err != nil {
		if apperr.IsAppError(err) {
			service.recorder.RecordSessionValidation(string(pool), false)
			return nil, nil
		}
		return nil, fmt.Errorf("auth_service_validate_session_failed: %w", err)
	}

	principal, err := service.principalRepository.FindByID(context, session.PrincipalID)
	if err != nil || !principal.IsActive {
		service.recorder.RecordSessionValidation(string(pool), false)
		return nil, nil
	}

	service.recorder.RecordSessionValidation(string(pool), true)

	return &sec.Identity{
		PrincipalID: principal.ID,
		Email:       principal.Email,
		DisplayName: principal.DisplayName,
		Role:        principal.Role,
		SessionID:   session.ID,
		Pool:        pool,
	}, nil
}

/*
Logout permanently revokes the presented session.

Description: Ensures that a tracked session token can never be used again.
Idempotent: a token that is already gone still logs out successfully.

Parameters:
  - context: context.Context
  - token: string
  - pool: sec.SessionPool

Returns:
  - err: Revocation failures
*/
func (service *Service) Logout(context context.Context, token string, pool sec.SessionPool) error {

	session, err := service.sessionRepository.FindActiveByTokenHash(context, sec.HashToken(token), pool)

	// If (err != nil) session is already gone or invalid, we consider logout successful (idempotent operation).
	if err != nil {
		return nil
	}

	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	return nil
}

/*
LogoutAll revokes every active session the principal holds, in both pools.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - err: Batch revocation failures
*/
func (service *Service) LogoutAll(context context.Context, principalID string) error {
	if err := service.sessionRepository.RevokeAll(context, principalID); err != nil {
		return fmt.Errorf("auth_service_logout_all_failed: %w", err)
	}
	return nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a secure one-time token and saves its hash to Redis.
A second request for the same account invalidates the first token. Unknown
emails succeed silently so the endpoint cannot confirm account existence.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Raw reset token for mail dispatch; empty when the email is unknown
  - err: Generation errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	// NOTE: We don't return NOT_FOUND if the email doesn't exist to prevent account enumeration.
	principal, err := service.principalRepository.FindByEmail(context, email)
	if err != nil {
		return "", nil
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	// Only the hash touches Redis; the raw token travels in the email link.
	if err := service.resetTokenRepository.Set(context, sec.HashToken(token), principal.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	service.recorder.RecordPasswordReset("requested")

	// TODO: hand the token to the mail dispatcher once the outbound queue lands
	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Consumes the one-time token, hashes the new password, updates the
DB, clears any lockout, and revokes all active sessions in both pools.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - err: InvalidOrExpiredToken or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {

	// Consume is atomic: the same token can never be redeemed twice.
	principalID, err := service.resetTokenRepository.Consume(context, sec.HashToken(token))
	if err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.principalRepository.UpdatePassword(context, principalID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// A completed reset proves account ownership, so the lockout clears too.
	_ = service.principalRepository.ClearLockout(context, principalID)

	// Security Cleanup: revoke EVERY active session for this principal. A reset
	// that cannot revoke must fail — the rotated password and the pre-reset
	// sessions must never coexist.
	if err := service.sessionRepository.RevokeAll(context, principalID); err != nil {
		return fmt.Errorf("auth_service_reset_password_revoke_failed: %w", err)
	}

	service.recorder.RecordPasswordReset("completed")

	return nil
}

/*
ChangePassword allows an authenticated principal to update their credentials.

Description: Verifies the current password and then revokes ALL sessions in
both pools, forcing a fresh login everywhere, including the device that made
the change.

Parameters:
  - context: context.Context
  - principalID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - err: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, principalID, currentPassword, newPassword string) error {

	principal, err := service.principalRepository.FindByID(context, principalID)
	if err != nil {
		return err
	}

	// Verify the current password before allowing change
	if !sec.CheckPasswordHash(currentPassword, principal.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.principalRepository.UpdatePassword(context, principalID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	// Security Side Effect: revoke everything, current session included.
	if err := service.sessionRepository.RevokeAll(context, principalID); err != nil {
		return fmt.Errorf("auth_service_change_password_revoke_failed: %w", err)
	}

	return nil
}
