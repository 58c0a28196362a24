// Copyright (c) 2026 SafraReport. All rights reserved.

// Package middleware provides the HTTP middleware chain for the SafraReport API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/constants"
	"github.com/safrareport/safrareport/internal/platform/ctxutil"
	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/internal/platform/sec"
)

// SessionValidator defines the interface needed to validate opaque session
// tokens in middleware.
//
// # Why an interface?
//
// Defining SessionValidator here decouples the middleware from the users/auth
// service implementation, allowing us to easily inject fakes during unit testing.
type SessionValidator interface {
	// ValidateSession resolves a presented token against ONE session pool.
	// It returns (nil, nil) for absent, expired, revoked, or malformed
	// tokens — an unauthenticated request is not an error condition.
	ValidateSession(ctx context.Context, token string, pool sec.SessionPool) (*sec.Identity, error)
}

// Authenticate resolves both session pools for every request.
//
// # Flow
//  1. Extract the reader-pool token (sr_session cookie or 'Authorization: Bearer').
//  2. Extract the admin-pool token (sr_admin_session cookie or X-Admin-Token header).
//  3. Validate each against its OWN pool only. A reader token can never
//     produce an admin identity, and vice versa.
//  4. Inject validated identities into the request context under separate keys.
//
// Requests with no valid token in either pool proceed as anonymous; route
// groups enforce authentication via [RequireSession] / [RequireRole].
func Authenticate(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			if token := userToken(request); token != "" {
				identity, err := validator.ValidateSession(ctx, token, sec.PoolUser)
				if err != nil {
					// Storage failure, not an invalid token. Surfacing it as
					// "unauthenticated" would let the gates answer 401 for an
					// outage; fail closed with a server error instead.
					respond.Error(writer, request, apperr.Internal(err))
					return
				}
				if identity != nil {
					ctx = ctxutil.WithIdentity(ctx, identity)
				}
			}

			if token := adminToken(request); token != "" {
				identity, err := validator.ValidateSession(ctx, token, sec.PoolAdmin)
				if err != nil {
					respond.Error(writer, request, apperr.Internal(err))
					return
				}
				if identity != nil {
					ctx = ctxutil.WithAdminIdentity(ctx, identity)
				}
			}

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireSession blocks requests without a valid reader-pool session.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.SessionInvalid())
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests without a valid admin-pool session whose role
// meets or exceeds the required role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. The role gate runs
// strictly after session validation and fails closed: no identity means 401
// before any role comparison happens.
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetAdminIdentity(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if identity == nil {
				respond.Error(writer, request, apperr.SessionInvalid())
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !identity.Role.AtLeast(role) {
				respond.Error(writer, request, apperr.InsufficientPermissions())
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// userToken extracts the reader-pool session token from the request.
func userToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// adminToken extracts the admin-pool session token from the request.
// The admin pool is keyed by its own cookie and header name so that the two
// pools never share a transport channel.
func adminToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.AdminSessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return request.Header.Get(constants.AdminSessionHeader)
}
