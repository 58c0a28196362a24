// Copyright (c) 2026 SafraReport. All rights reserved.

package auth

import "time"

// # Authentication Constraints

const (
	// SessionTokenLength is the byte length of the random opaque session token.
	SessionTokenLength = 32

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32
)
