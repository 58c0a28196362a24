// Copyright (c) 2026 SafraReport. All rights reserved.

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/internal/users/auth"
	"github.com/safrareport/safrareport/pkg/pagination"
)

// # Service Layer

// Service orchestrates business logic for principal accounts.
//
// It ensures that profile updates and session security cleanup follow
// established business constraints, and that every staff-side mutation
// reaches the audit trail.
type Service struct {
	accountRepository AccountRepository
	sessionRepository SessionRepository
	auditRecorder     audit.Recorder
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	accountRepo AccountRepository,
	sessionRepo SessionRepository,
	auditRecorder audit.Recorder,
	logger *slog.Logger,
) *Service {
	if auditRecorder == nil {
		auditRecorder = audit.NopRecorder{}
	}
	return &Service{
		accountRepository: accountRepo,
		sessionRepository: sessionRepo,
		auditRecorder:     auditRecorder,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a principal.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - *auth.Principal: The hydrated profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, principalID string) (*auth.Principal, error) {
	principal, err := service.accountRepository.FindByID(context, principalID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return principal, nil
}

// UpdateProfileInput defines the mutable subset of profile fields.
type UpdateProfileInput struct {
	DisplayName *string
}

/*
UpdateProfile applies a partial set of changes to a principal's metadata.

Description: Fetches the existing state, overrides provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - principalID: string
  - input: UpdateProfileInput

Returns:
  - *auth.Principal: The updated profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, principalID string, input UpdateProfileInput) (*auth.Principal, error) {

	principal, err := service.accountRepository.FindByID(context, principalID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates
	if input.DisplayName != nil {
		principal.DisplayName = *input.DisplayName
	}

	if err := service.accountRepository.Update(context, principal); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("principal_profile_updated", slog.String("principal_id", principalID))

	return principal, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a principal account.

Description: Flags the account as deleted and immediately terminates all
active sessions to force a global sign-out.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, principalID string) error {

	if err := service.accountRepository.SoftDelete(context, principalID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	// Force global revocation of sessions for the deleted account
	_ = service.sessionRepository.RevokeAll(context, principalID)

	service.logger.Warn("principal_account_deleted", slog.String("principal_id", principalID))

	return nil
}

// # Session Security

/*
ListSessions provides a list of all active device sessions for the principal.

Description: The session that made the request is flagged IsCurrent so the
client can render "this device".

Parameters:
  - context: context.Context
  - principalID: string
  - currentSessionID: string

Returns:
  - []SessionInfo: List of active devices
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context context.Context, principalID, currentSessionID string) ([]SessionInfo, error) {

	sessions, err := service.sessionRepository.FindActiveByPrincipalID(context, principalID)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_sessions_failed: %w", err)
	}

	for i := range sessions {
		sessions[i].IsCurrent = sessions[i].ID == currentSessionID
	}

	return sessions, nil
}

/*
RevokeSession terminates a specific session by its ID.

Description: The repository scopes the revocation to the owning principal,
so one account can never revoke another's session.

Parameters:
  - context: context.Context
  - principalID: string
  - sessionID: string

Returns:
  - error: Revocation failures
*/
func (service *Service) RevokeSession(context context.Context, principalID, sessionID string) error {
	if err := service.sessionRepository.Revoke(context, principalID, sessionID); err != nil {
		return fmt.Errorf("account_service_revoke_session_failed: %w", err)
	}

	service.logger.Info("principal_session_revoked",
		slog.String("principal_id", principalID),
		slog.String("session_id", sessionID),
	)

	return nil
}

// # Staff Administration

/*
ListPrincipals returns a page of accounts for the back-office roster.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []*auth.Principal: Page of accounts
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) ListPrincipals(context context.Context, params pagination.Params) ([]*auth.Principal, pagination.Meta, error) {
	principals, total, err := service.accountRepository.List(context, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_principals_failed: %w", err)
	}
	return principals, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
SetRole grants or revokes a role on the target principal.

Description: An administrator cannot demote themselves (the last admin must
survive), and the change is audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity (The administrator making the change)
  - targetID: string
  - role: sec.Role

Returns:
  - *auth.Principal: The updated account
  - error: Validation, execution, or permission failures
*/
func (service *Service) SetRole(context context.Context, actor *sec.Identity, targetID string, role sec.Role) (*auth.Principal, error) {
	if !role.IsValid() {
		return nil, apperr.ValidationError("Unknown role")
	}

	if actor.PrincipalID == targetID {
		return nil, apperr.Forbidden("Administrators cannot change their own role")
	}

	target, err := service.accountRepository.FindByID(context, targetID)
	if err != nil {
		return nil, err
	}

	if err := service.accountRepository.SetRole(context, targetID, role); err != nil {
		return nil, fmt.Errorf("account_service_set_role_failed: %w", err)
	}
	target.Role = role

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionRoleChanged,
		EntityType: "principal",
		EntityID:   targetID,
	})

	service.logger.Info("principal_role_changed",
		slog.String("actor_id", actor.PrincipalID),
		slog.String("principal_id", targetID),
		slog.String("role", string(role)),
	)

	return target, nil
}

/*
SetActive deactivates or reactivates the target principal.

Description: Deactivation also revokes every live session, so the account is
locked out immediately, not at next session expiry. The change is audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - targetID: string
  - active: bool

Returns:
  - error: Execution or permission failures
*/
func (service *Service) SetActive(context context.Context, actor *sec.Identity, targetID string, active bool) error {
	if actor.PrincipalID == targetID {
		return apperr.Forbidden("Administrators cannot deactivate themselves")
	}

	if err := service.accountRepository.SetActive(context, targetID, active); err != nil {
		return fmt.Errorf("account_service_set_active_failed: %w", err)
	}

	action := audit.ActionAccountReactivated
	if !active {
		action = audit.ActionAccountDeactivated
		_ = service.sessionRepository.RevokeAll(context, targetID)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     action,
		EntityType: "principal",
		EntityID:   targetID,
	})

	return nil
}
