// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Session cookie and header configuration.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "safrareport-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// LoginRateLimitRPS throttles credential endpoints (login, forgot-password)
	// harder than the rest of the API. This IP throttle is best-effort and
	// in-process only; the account lockout in users/auth is the durable control.
	LoginRateLimitRPS = 1.0

	// LoginRateLimitBurst is the burst for credential endpoints.
	LoginRateLimitBurst = 5

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// SessionCookieName is the cookie that carries the opaque reader session token.
	SessionCookieName = "sr_session"

	// AdminSessionCookieName is the cookie that carries the opaque back-office
	// session token. It is a separate pool from reader sessions and the two
	// must never cross-authorize.
	AdminSessionCookieName = "sr_admin_session"

	// AdminSessionHeader is the bearer alternative for non-browser back-office clients.
	AdminSessionHeader = "X-Admin-Token"

	// SessionCookiePath scopes both session cookies.
	SessionCookiePath = "/"

	// PreviewTokenIssuer is the 'iss' claim on draft preview tokens.
	PreviewTokenIssuer = "safrareport.com"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
)

// # Database Schemas

const (
	SchemaUsers     = "users"
	SchemaNews      = "news"
	SchemaMarket    = "market"
	SchemaDirectory = "directory"
	SchemaAds       = "ads"
	SchemaSystem    = "system"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixResetToken     = "auth:reset_token:"
	RedisPrefixResetPrincipal = "auth:reset_principal:"
)
