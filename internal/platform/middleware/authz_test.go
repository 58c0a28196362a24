// Copyright (c) 2026 SafraReport. All rights reserved.

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safrareport/safrareport/internal/platform/constants"
	"github.com/safrareport/safrareport/internal/platform/ctxutil"
	"github.com/safrareport/safrareport/internal/platform/middleware"
	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/internal/platform/sec"
)

// # Fakes

// stubValidator resolves tokens from a fixed map, keyed per pool. A non-nil
// err simulates a storage outage during validation.
type stubValidator struct {
	identities map[string]*sec.Identity
	err        error
}

func (v *stubValidator) ValidateSession(_ context.Context, token string, pool sec.SessionPool) (*sec.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	if identity, ok := v.identities[string(pool)+":"+token]; ok {
		return identity, nil
	}
	return nil, nil
}

// captureHandler records whether the inner handler ran and what identities
// the middleware injected into its context.
type captureHandler struct {
	called        bool
	identity      *sec.Identity
	adminIdentity *sec.Identity
}

func (h *captureHandler) ServeHTTP(_ http.ResponseWriter, request *http.Request) {
	h.called = true
	h.identity = ctxutil.GetIdentity(request.Context())
	h.adminIdentity = ctxutil.GetAdminIdentity(request.Context())
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

/*
TestAuthenticate_Anonymous verifies a request without any token passes through
with no identity in either slot.
*/
func TestAuthenticate_Anonymous(t *testing.T) {
	inner := &captureHandler{}
	handler := middleware.Authenticate(&stubValidator{})(inner)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil))

	assert.True(t, inner.called)
	assert.Nil(t, inner.identity)
	assert.Nil(t, inner.adminIdentity)
}

/*
TestAuthenticate_ReaderCookie verifies a valid reader token lands in the
reader slot only.
*/
func TestAuthenticate_ReaderCookie(t *testing.T) {
	validator := &stubValidator{identities: map[string]*sec.Identity{
		string(sec.PoolUser) + ":tok-1": {PrincipalID: "p-1", Role: sec.RoleUser, Pool: sec.PoolUser},
	}}
	inner := &captureHandler{}
	handler := middleware.Authenticate(validator)(inner)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "tok-1"})

	handler.ServeHTTP(httptest.NewRecorder(), request)

	require.NotNil(t, inner.identity)
	assert.Equal(t, "p-1", inner.identity.PrincipalID)
	assert.Nil(t, inner.adminIdentity)
}

/*
TestAuthenticate_StorageFailure verifies an infrastructure error during
validation answers 500 INTERNAL_ERROR and never reaches the inner handler. A
database outage must not masquerade as an expired session.
*/
func TestAuthenticate_StorageFailure(t *testing.T) {
	validator := &stubValidator{err: errors.New("pool exhausted")}
	inner := &captureHandler{}
	handler := middleware.Authenticate(validator)(inner)

	// 1. Reader-pool token hits the failing store
	request := httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "tok-1"})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, recorder).Code)

	// 2. Admin-pool token hits the failing store
	request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/articles", nil)
	request.Header.Set(constants.AdminSessionHeader, "tok-2")

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, recorder).Code)
}

/*
TestRequireSession verifies the reader gate answers 401 for anonymous
requests and passes authenticated ones through.
*/
func TestRequireSession(t *testing.T) {
	inner := &captureHandler{}
	handler := middleware.RequireSession(inner)

	// 1. Anonymous: blocked
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/account", nil))

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "SESSION_EXPIRED_OR_INVALID", decodeError(t, recorder).Code)

	// 2. Authenticated: passes
	request := httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
	ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{PrincipalID: "p-1", Pool: sec.PoolUser})
	handler.ServeHTTP(httptest.NewRecorder(), request.WithContext(ctx))

	assert.True(t, inner.called)
}

/*
TestRequireRole verifies the admin gate distinguishes missing sessions (401)
from insufficient roles (403), and that a reader-pool identity never satisfies
the admin gate.
*/
func TestRequireRole(t *testing.T) {
	inner := &captureHandler{}
	handler := middleware.RequireRole(sec.RoleModerator)(inner)

	// 1. Anonymous: 401 before any role comparison
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/admin/directory", nil))

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// 2. Reader-pool identity in the reader slot: still 401 for the admin gate
	request := httptest.NewRequest(http.MethodGet, "/api/v1/admin/directory", nil)
	ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{PrincipalID: "p-1", Role: sec.RoleAdmin, Pool: sec.PoolUser})
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request.WithContext(ctx))

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// 3. Admin-pool identity below the bar: 403
	request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/directory", nil)
	ctx = ctxutil.WithAdminIdentity(request.Context(), &sec.Identity{PrincipalID: "p-2", Role: sec.RoleEditor, Pool: sec.PoolAdmin})
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request.WithContext(ctx))

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", decodeError(t, recorder).Code)

	// 4. Admin-pool identity at the bar: passes
	request = httptest.NewRequest(http.MethodGet, "/api/v1/admin/directory", nil)
	ctx = ctxutil.WithAdminIdentity(request.Context(), &sec.Identity{PrincipalID: "p-3", Role: sec.RoleModerator, Pool: sec.PoolAdmin})
	handler.ServeHTTP(httptest.NewRecorder(), request.WithContext(ctx))

	assert.True(t, inner.called)
}
