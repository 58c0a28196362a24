// Copyright (c) 2026 SafraReport. All rights reserved.

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/users/auth"
)

// # In-Memory Fakes

type fakePrincipalRepo struct {
	byID    map[string]*auth.Principal
	byEmail map[string]*auth.Principal
}

func newFakePrincipalRepo() *fakePrincipalRepo {
	return &fakePrincipalRepo{
		byID:    map[string]*auth.Principal{},
		byEmail: map[string]*auth.Principal{},
	}
}

func (r *fakePrincipalRepo) FindByID(_ context.Context, id string) (*auth.Principal, error) {
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("Account")
}

func (r *fakePrincipalRepo) FindByEmail(_ context.Context, email string) (*auth.Principal, error) {
	if p, ok := r.byEmail[email]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("Account")
}

func (r *fakePrincipalRepo) Create(_ context.Context, p *auth.Principal) error {
	r.byID[p.ID] = p
	r.byEmail[p.Email] = p
	return nil
}

func (r *fakePrincipalRepo) UpdatePassword(_ context.Context, id, newHash string) error {
	r.byID[id].PasswordHash = newHash
	return nil
}

func (r *fakePrincipalRepo) RecordFailure(_ context.Context, id string, threshold int, lockout time.Duration) (int, *time.Time, error) {
	p := r.byID[id]
	p.FailedAttempts++
	if p.FailedAttempts >= threshold {
		deadline := time.Now().Add(lockout)
		p.LockedUntil = &deadline
	}
	return p.FailedAttempts, p.LockedUntil, nil
}

func (r *fakePrincipalRepo) ResetFailures(_ context.Context, id string) error {
	p := r.byID[id]
	p.FailedAttempts = 0
	p.LockedUntil = nil
	now := time.Now()
	p.LastLoginAt = &now
	return nil
}

func (r *fakePrincipalRepo) ClearLockout(_ context.Context, id string) error {
	p := r.byID[id]
	p.FailedAttempts = 0
	p.LockedUntil = nil
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*auth.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*auth.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *auth.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) FindActiveByTokenHash(_ context.Context, tokenHash string, pool sec.SessionPool) (*auth.Session, error) {
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash && s.Pool == pool && s.RevokedAt == nil && s.ExpiresAt.After(time.Now()) {
			return s, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (r *fakeSessionRepo) ListByPrincipal(_ context.Context, principalID string) ([]*auth.Session, error) {
	var out []*auth.Session
	for _, s := range r.sessions {
		if s.PrincipalID == principalID && s.RevokedAt == nil && s.ExpiresAt.After(time.Now()) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, sessionID string) error {
	if s, ok := r.sessions[sessionID]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAll(_ context.Context, principalID string) error {
	now := time.Now()
	for _, s := range r.sessions {
		if s.PrincipalID == principalID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeSessionRepo) RevokeOthers(_ context.Context, principalID, currentSessionID string) error {
	now := time.Now()
	for _, s := range r.sessions {
		if s.PrincipalID == principalID && s.ID != currentSessionID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) error {
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(time.Now()) {
			delete(r.sessions, id)
		}
	}
	return nil
}

type fakeResetRepo struct {
	tokens      map[string]string // tokenHash -> principalID
	byPrincipal map[string]string // principalID -> tokenHash
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]string{}, byPrincipal: map[string]string{}}
}

func (r *fakeResetRepo) Set(_ context.Context, tokenHash, principalID string, _ time.Duration) error {
	if previous, ok := r.byPrincipal[principalID]; ok {
		delete(r.tokens, previous)
	}
	r.tokens[tokenHash] = principalID
	r.byPrincipal[principalID] = tokenHash
	return nil
}

func (r *fakeResetRepo) Consume(_ context.Context, tokenHash string) (string, error) {
	principalID, ok := r.tokens[tokenHash]
	if !ok {
		return "", apperr.InvalidOrExpiredToken()
	}
	delete(r.tokens, tokenHash)
	delete(r.byPrincipal, principalID)
	return principalID, nil
}

// failingPrincipalRepo injects a storage error into RecordFailure.
type failingPrincipalRepo struct {
	*fakePrincipalRepo
	recordFailureErr error
}

func (r *failingPrincipalRepo) RecordFailure(ctx context.Context, id string, threshold int, lockout time.Duration) (int, *time.Time, error) {
	if r.recordFailureErr != nil {
		return 0, nil, r.recordFailureErr
	}
	return r.fakePrincipalRepo.RecordFailure(ctx, id, threshold, lockout)
}

// failingSessionRepo injects a storage error into RevokeAll.
type failingSessionRepo struct {
	*fakeSessionRepo
	revokeAllErr error
}

func (r *failingSessionRepo) RevokeAll(ctx context.Context, principalID string) error {
	if r.revokeAllErr != nil {
		return r.revokeAllErr
	}
	return r.fakeSessionRepo.RevokeAll(ctx, principalID)
}

// # Harness

type authFixture struct {
	service    *auth.Service
	principals *fakePrincipalRepo
	sessions   *fakeSessionRepo
	resets     *fakeResetRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	principals := newFakePrincipalRepo()
	sessions := newFakeSessionRepo()
	resets := newFakeResetRepo()

	service := auth.NewService(principals, sessions, resets, auth.Policy{
		LockoutThreshold: 5,
		LockoutDuration:  15 * time.Minute,
		UserSessionTTL:   24 * time.Hour,
		AdminSessionTTL:  8 * time.Hour,
	}, nil)

	return &authFixture{
		service:    service,
		principals: principals,
		sessions:   sessions,
		resets:     resets,
	}
}

// register enrolls an account and returns it.
func (f *authFixture) register(t *testing.T, email, password string) *auth.Principal {
	t.Helper()
	principal, err := f.service.Register(context.Background(), auth.RegisterInput{
		Email:       email,
		Password:    password,
		DisplayName: "Test Account",
	})
	require.NoError(t, err)
	return principal
}

// promote changes a principal's role directly in the fake store.
func (f *authFixture) promote(principal *auth.Principal, role sec.Role) {
	f.principals.byID[principal.ID].Role = role
}

/*
TestRegister_Defaults verifies that new accounts start as active readers.
*/
func TestRegister_Defaults(t *testing.T) {
	fixture := newAuthFixture(t)

	principal := fixture.register(t, "reader@example.com", "correct horse")

	assert.Equal(t, sec.RoleUser, principal.Role)
	assert.True(t, principal.IsActive)
	assert.NotEmpty(t, principal.ID)
	assert.NotEqual(t, "correct horse", principal.PasswordHash)
}

/*
TestRegister_DuplicateEmail verifies the Conflict rejection for a reused email.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "correct horse")

	_, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Email:    "reader@example.com",
		Password: "another pass",
	})

	assert.True(t, apperr.IsCode(err, "CONFLICT"))
}

/*
TestLogin_Success verifies a correct login mints a reader-pool session and
clears the failure counter.
*/
func TestLogin_Success(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "reader@example.com", "correct horse")

	// 1. Seed a prior failure so we can observe the reset
	fixture.principals.byID[principal.ID].FailedAttempts = 3

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, principal.ID, session.Principal.ID)

	// 2. Counter reset and login stamped
	assert.Equal(t, 0, fixture.principals.byID[principal.ID].FailedAttempts)
	assert.NotNil(t, fixture.principals.byID[principal.ID].LastLoginAt)
}

/*
TestLogin_UnknownAccount verifies unknown emails and wrong passwords return
the SAME generic rejection, so responses cannot confirm account existence.
*/
func TestLogin_UnknownAccount(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "correct horse")

	_, unknownErr := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	_, wrongErr := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "wrong pass",
	})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.True(t, apperr.IsCode(unknownErr, "INVALID_CREDENTIALS"))
	assert.True(t, apperr.IsCode(wrongErr, "INVALID_CREDENTIALS"))
}

/*
TestLogin_LockoutAtThreshold verifies that the fifth consecutive failure arms
the lockout and that the CORRECT password is then rejected until the window
passes.
*/
func TestLogin_LockoutAtThreshold(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "reader@example.com", "correct horse")

	// 1. Burn through the threshold with wrong passwords
	for i := 0; i < 5; i++ {
		_, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "reader@example.com",
			Password: "wrong pass",
		})
		assert.True(t, apperr.IsCode(err, "INVALID_CREDENTIALS"))
	}

	stored := fixture.principals.byID[principal.ID]
	assert.Equal(t, 5, stored.FailedAttempts)
	require.NotNil(t, stored.LockedUntil)

	// 2. The correct password is rejected while locked
	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	assert.True(t, apperr.IsCode(err, "ACCOUNT_LOCKED"))

	// 3. Once the window passes, the correct password works and clears the lock
	past := time.Now().Add(-time.Minute)
	stored.LockedUntil = &past

	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
}

/*
TestLogin_InactiveAccount verifies a deactivated account gets the same
generic rejection as bad credentials.
*/
func TestLogin_InactiveAccount(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "reader@example.com", "correct horse")
	fixture.principals.byID[principal.ID].IsActive = false

	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})

	assert.True(t, apperr.IsCode(err, "INVALID_CREDENTIALS"))
}

/*
TestAdminLogin_RoleGate verifies a plain reader cannot enter the admin pool,
and receives the same rejection as a wrong password.
*/
func TestAdminLogin_RoleGate(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "correct horse")

	_, err := fixture.service.AdminLogin(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})

	assert.True(t, apperr.IsCode(err, "INVALID_CREDENTIALS"))
}

/*
TestAdminLogin_StaffSucceeds verifies editors and above can open admin sessions.
*/
func TestAdminLogin_StaffSucceeds(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "editor@example.com", "correct horse")
	fixture.promote(principal, sec.RoleEditor)

	session, err := fixture.service.AdminLogin(context.Background(), auth.LoginInput{
		Email:    "editor@example.com",
		Password: "correct horse",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	// The minted session is bound to the admin pool
	identity, err := fixture.service.ValidateSession(context.Background(), session.Token, sec.PoolAdmin)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, sec.PoolAdmin, identity.Pool)
}

/*
TestValidateSession_PoolIsolation verifies a token from one pool never
validates against the other.
*/
func TestValidateSession_PoolIsolation(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "editor@example.com", "correct horse")
	fixture.promote(principal, sec.RoleAdmin)

	userSession, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "editor@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	adminSession, err := fixture.service.AdminLogin(context.Background(), auth.LoginInput{
		Email:    "editor@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	// 1. Reader token against the admin pool: rejected
	identity, err := fixture.service.ValidateSession(context.Background(), userSession.Token, sec.PoolAdmin)
	require.NoError(t, err)
	assert.Nil(t, identity)

	// 2. Admin token against the reader pool: rejected
	identity, err = fixture.service.ValidateSession(context.Background(), adminSession.Token, sec.PoolUser)
	require.NoError(t, err)
	assert.Nil(t, identity)

	// 3. Each token validates in its own pool
	identity, err = fixture.service.ValidateSession(context.Background(), userSession.Token, sec.PoolUser)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, principal.ID, identity.PrincipalID)
}

/*
TestValidateSession_Expiry verifies an expired session no longer authenticates.
*/
func TestValidateSession_Expiry(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "correct horse")

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	// Force the stored session into the past
	for _, stored := range fixture.sessions.sessions {
		stored.ExpiresAt = time.Now().Add(-time.Minute)
	}

	identity, err := fixture.service.ValidateSession(context.Background(), session.Token, sec.PoolUser)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

/*
TestValidateSession_DeactivatedPrincipal verifies deactivating an account
invalidates its live sessions immediately.
*/
func TestValidateSession_DeactivatedPrincipal(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "reader@example.com", "correct horse")

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	fixture.principals.byID[principal.ID].IsActive = false

	identity, err := fixture.service.ValidateSession(context.Background(), session.Token, sec.PoolUser)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

/*
TestLogout_InvalidatesToken verifies a logged-out token stops validating, and
that a second logout of the same token is a quiet no-op.
*/
func TestLogout_InvalidatesToken(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "correct horse")

	session, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(context.Background(), session.Token, sec.PoolUser))

	identity, err := fixture.service.ValidateSession(context.Background(), session.Token, sec.PoolUser)
	require.NoError(t, err)
	assert.Nil(t, identity)

	// Idempotent
	assert.NoError(t, fixture.service.Logout(context.Background(), session.Token, sec.PoolUser))
}

/*
TestChangePassword_RevokesEverything verifies a password change kills every
session in both pools, current device included.
*/
func TestChangePassword_RevokesEverything(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "editor@example.com", "correct horse")
	fixture.promote(principal, sec.RoleEditor)

	userSession, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "editor@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	adminSession, err := fixture.service.AdminLogin(context.Background(), auth.LoginInput{
		Email:    "editor@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	err = fixture.service.ChangePassword(context.Background(), principal.ID, "correct horse", "new password 42")
	require.NoError(t, err)

	identity, _ := fixture.service.ValidateSession(context.Background(), userSession.Token, sec.PoolUser)
	assert.Nil(t, identity)
	identity, _ = fixture.service.ValidateSession(context.Background(), adminSession.Token, sec.PoolAdmin)
	assert.Nil(t, identity)

	// The old password is gone, the new one logs in
	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "editor@example.com",
		Password: "correct horse",
	})
	assert.True(t, apperr.IsCode(err, "INVALID_CREDENTIALS"))

	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "editor@example.com",
		Password: "new password 42",
	})
	assert.NoError(t, err)
}

/*
TestChangePassword_WrongCurrent verifies the current password is required.
*/
func TestChangePassword_WrongCurrent(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "reader@example.com", "correct horse")

	err := fixture.service.ChangePassword(context.Background(), principal.ID, "not it", "new password 42")

	assert.True(t, apperr.IsCode(err, "UNAUTHORIZED"))
}

/*
TestResetPassword_SingleUse verifies the recovery token is consumed on first
use, revokes all sessions, and clears any active lockout.
*/
func TestResetPassword_SingleUse(t *testing.T) {
	fixture := newAuthFixture(t)
	principal := fixture.register(t, "reader@example.com", "correct horse")

	// 1. Lock the account first
	deadline := time.Now().Add(10 * time.Minute)
	fixture.principals.byID[principal.ID].FailedAttempts = 5
	fixture.principals.byID[principal.ID].LockedUntil = &deadline

	session, loginErr := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	assert.Nil(t, session)
	assert.True(t, apperr.IsCode(loginErr, "ACCOUNT_LOCKED"))

	// 2. Request and redeem a reset token
	token, err := fixture.service.RequestPasswordReset(context.Background(), "reader@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, fixture.service.ResetPassword(context.Background(), token, "new password 42"))

	// 3. Second redemption of the same token fails
	err = fixture.service.ResetPassword(context.Background(), token, "sneaky replay 99")
	assert.True(t, apperr.IsCode(err, "INVALID_OR_EXPIRED_TOKEN"))

	// 4. The lockout is gone and the new password logs in
	_, err = fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "new password 42",
	})
	assert.NoError(t, err)
}

/*
TestLogin_FailureCounterStorageError verifies a wrong-password login fails
closed when the failure counter cannot be advanced: the caller sees a server
error, never a credential rejection that silently skipped the lockout policy.
*/
func TestLogin_FailureCounterStorageError(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "correct horse")

	storageErr := errors.New("connection reset")
	principals := &failingPrincipalRepo{fakePrincipalRepo: fixture.principals, recordFailureErr: storageErr}
	service := auth.NewService(principals, fixture.sessions, fixture.resets, auth.Policy{
		LockoutThreshold: 5,
		LockoutDuration:  15 * time.Minute,
		UserSessionTTL:   24 * time.Hour,
		AdminSessionTTL:  8 * time.Hour,
	}, nil)

	_, err := service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "wrong pass",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, storageErr)
	assert.False(t, apperr.IsAppError(err))
}

/*
TestResetPassword_RevocationStorageError verifies a completed reset cannot
report success while pre-reset sessions stay live: a RevokeAll failure
surfaces as an error from ResetPassword.
*/
func TestResetPassword_RevocationStorageError(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "correct horse")

	// 1. Open a session that the reset is supposed to kill
	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "reader@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	token, err := fixture.service.RequestPasswordReset(context.Background(), "reader@example.com")
	require.NoError(t, err)

	// 2. Redeem against a store whose revocation fails
	storageErr := errors.New("connection reset")
	sessions := &failingSessionRepo{fakeSessionRepo: fixture.sessions, revokeAllErr: storageErr}
	service := auth.NewService(fixture.principals, sessions, fixture.resets, auth.Policy{
		LockoutThreshold: 5,
		LockoutDuration:  15 * time.Minute,
		UserSessionTTL:   24 * time.Hour,
		AdminSessionTTL:  8 * time.Hour,
	}, nil)

	err = service.ResetPassword(context.Background(), token, "new password 42")

	require.Error(t, err)
	assert.ErrorIs(t, err, storageErr)
}

/*
TestRequestPasswordReset_UnknownEmail verifies the silent success path.
*/
func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	fixture := newAuthFixture(t)

	token, err := fixture.service.RequestPasswordReset(context.Background(), "nobody@example.com")

	assert.NoError(t, err)
	assert.Empty(t, token)
}

/*
TestRequestPasswordReset_SupersedesPrior verifies a fresh request invalidates
the previously issued token.
*/
func TestRequestPasswordReset_SupersedesPrior(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "reader@example.com", "correct horse")

	first, err := fixture.service.RequestPasswordReset(context.Background(), "reader@example.com")
	require.NoError(t, err)
	second, err := fixture.service.RequestPasswordReset(context.Background(), "reader@example.com")
	require.NoError(t, err)

	// 1. The superseded token no longer redeems
	err = fixture.service.ResetPassword(context.Background(), first, "new password 42")
	assert.True(t, apperr.IsCode(err, "INVALID_OR_EXPIRED_TOKEN"))

	// 2. The latest token still works
	assert.NoError(t, fixture.service.ResetPassword(context.Background(), second, "new password 42"))
}
