// Copyright (c) 2026 SafraReport. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/constants"
)

// RedisResetTokenRepository implements ResetTokenRepository using Redis.
//
// # Key Layout
//
//	auth:reset_token:<hash>    -> principalID   (TTL-bound)
//	auth:reset_principal:<id>  -> <hash>        (pointer to the outstanding token)
//
// The pointer key lets Set invalidate a principal's previous token before
// storing the new one, so at most ONE reset token per principal is live.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

/*
Set stores a reset token hash with its associated principalID and TTL.

Description: Any previously outstanding token for the same principal is
deleted first, so requesting a new reset link always invalidates the old one.

Parameters:
  - context: context.Context
  - tokenHash: string
  - principalID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisResetTokenRepository) Set(context context.Context, tokenHash string, principalID string, ttl time.Duration) error {

	pointerKey := constants.RedisPrefixResetPrincipal + principalID

	// Invalidate the previous outstanding token, if any
	previous, err := repository.client.Get(context, pointerKey).Result()
	if err == nil && previous != "" {
		_ = repository.client.Del(context, constants.RedisPrefixResetToken+previous).Err()
	} else if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis_reset_token_pointer_get_failed: %w", err)
	}

	// Store the new token with TTL
	if err := repository.client.Set(context, constants.RedisPrefixResetToken+tokenHash, principalID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}

	// Point the principal at the new token, on the same TTL
	if err := repository.client.Set(context, pointerKey, tokenHash, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_pointer_set_failed: %w", err)
	}

	return nil
}

/*
Consume atomically resolves and deletes a reset token hash.

Description: GETDEL guarantees the token can be redeemed exactly once even
under concurrent reset submissions. The pointer key is cleaned up afterwards.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - string: PrincipalID
  - error: apperr.InvalidOrExpiredToken or connectivity errors
*/
func (repository *RedisResetTokenRepository) Consume(context context.Context, tokenHash string) (string, error) {

	principalID, err := repository.client.GetDel(context, constants.RedisPrefixResetToken+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.InvalidOrExpiredToken()
		}
		return "", fmt.Errorf("redis_reset_token_consume_failed: %w", err)
	}

	// Best-effort pointer cleanup; an orphaned pointer expires on its own TTL
	_ = repository.client.Del(context, constants.RedisPrefixResetPrincipal+principalID).Err()

	return principalID, nil
}
