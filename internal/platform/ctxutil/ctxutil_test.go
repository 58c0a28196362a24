// Copyright (c) 2026 SafraReport. All rights reserved.

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safrareport/safrareport/internal/platform/ctxutil"
	"github.com/safrareport/safrareport/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Identity verifies that a reader identity can be stored in context.
*/
func TestContext_Identity(t *testing.T) {
	ctx := context.Background()
	identity := &sec.Identity{
		PrincipalID: "principal-123",
		Role:        sec.RoleUser,
		Pool:        sec.PoolUser,
	}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetIdentity(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithIdentity(ctx, identity)
	retrieved := ctxutil.GetIdentity(ctx)

	assert.NotNil(t, retrieved)
	assert.Equal(t, "principal-123", retrieved.PrincipalID)
	assert.Equal(t, sec.RoleUser, retrieved.Role)
}

/*
TestContext_AdminIdentity verifies the two identity slots are independent.
*/
func TestContext_AdminIdentity(t *testing.T) {
	ctx := context.Background()
	admin := &sec.Identity{
		PrincipalID: "staff-456",
		Role:        sec.RoleEditor,
		Pool:        sec.PoolAdmin,
	}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetAdminIdentity(ctx))

	// 2. Storing an admin identity must not leak into the reader slot
	ctx = ctxutil.WithAdminIdentity(ctx, admin)
	assert.Nil(t, ctxutil.GetIdentity(ctx))

	retrieved := ctxutil.GetAdminIdentity(ctx)
	assert.NotNil(t, retrieved)
	assert.Equal(t, "staff-456", retrieved.PrincipalID)
	assert.Equal(t, sec.PoolAdmin, retrieved.Pool)
}
