// Copyright (c) 2026 SafraReport. All rights reserved.

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safrareport/safrareport/internal/platform/sec"
)

/*
TestPasswordHash_RoundTrip verifies hashing and verification of a password.
*/
func TestPasswordHash_RoundTrip(t *testing.T) {
	password := "c0rrect-horse-battery"

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	// 1. The stored hash never contains the plaintext
	assert.NotContains(t, hash, password)

	// 2. The right password verifies, a wrong one does not
	assert.True(t, sec.CheckPasswordHash(password, hash))
	assert.False(t, sec.CheckPasswordHash("wrong-password", hash))
}

/*
TestPasswordHash_Salted verifies two hashes of the same password differ.
*/
func TestPasswordHash_Salted(t *testing.T) {
	first, err := sec.HashPassword("same-password")
	require.NoError(t, err)

	second, err := sec.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestGenerateSecureToken verifies token length and uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

/*
TestHashToken verifies token hashing is deterministic and one-way.
*/
func TestHashToken(t *testing.T) {
	token := "opaque-session-token"

	first := sec.HashToken(token)
	second := sec.HashToken(token)

	// 1. Deterministic: the store can look sessions up by hash
	assert.Equal(t, first, second)

	// 2. Distinct inputs produce distinct digests
	assert.NotEqual(t, first, sec.HashToken("other-token"))

	// 3. The digest never contains the raw token
	assert.NotContains(t, first, token)
}

/*
TestRole_AtLeast exercises the role hierarchy comparisons.
*/
func TestRole_AtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     sec.Role
		target   sec.Role
		expected bool
	}{
		{"admin_over_editor", sec.RoleAdmin, sec.RoleEditor, true},
		{"moderator_over_user", sec.RoleModerator, sec.RoleUser, true},
		{"editor_exact", sec.RoleEditor, sec.RoleEditor, true},
		{"user_below_moderator", sec.RoleUser, sec.RoleModerator, false},
		{"unknown_below_user", sec.Role("ghost"), sec.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.AtLeast(tt.target))
		})
	}
}

/*
TestRole_IsValid checks the known-role guard used by the admin roster.
*/
func TestRole_IsValid(t *testing.T) {
	assert.True(t, sec.RoleAdmin.IsValid())
	assert.True(t, sec.RoleUser.IsValid())
	assert.False(t, sec.Role("superuser").IsValid())
	assert.False(t, sec.Role("").IsValid())
}
