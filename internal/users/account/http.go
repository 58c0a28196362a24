// Copyright (c) 2026 SafraReport. All rights reserved.

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/safrareport/safrareport/internal/platform/request"
	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/platform/validate"
	"github.com/safrareport/safrareport/pkg/pagination"
)

// Handler implements account management HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] for the authenticated reader surface.
// The server mounts this behind RequireSession.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.getProfile)
	router.Patch("/", handler.updateProfile)
	router.Delete("/", handler.deleteAccount)
	router.Get("/sessions", handler.listSessions)
	router.Delete("/sessions/{sessionID}", handler.revokeSession)

	return router
}

// AdminRoutes returns a [chi.Router] for the back-office account roster.
// The server mounts this behind RequireRole(RoleAdmin).
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listPrincipals)
	router.Put("/{principalID}/role", handler.setRole)
	router.Put("/{principalID}/active", handler.setActive)

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

/*
GetProfile returns the authenticated principal's private profile.

GET /api/v1/account

Response:
  - 200: Principal: Full private profile
  - 401: SESSION_EXPIRED_OR_INVALID
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.accountService.GetProfile(request.Context(), identity.PrincipalID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

/*
UpdateProfile applies partial profile changes.

PATCH /api/v1/account

Request:
  - Body: updateProfileRequest (DisplayName)

Response:
  - 200: Principal: Updated profile
  - 400: Validation failure
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.DisplayName != nil {
		v := &validate.Validator{}
		v.Required("display_name", *input.DisplayName).
			MaxLen("display_name", *input.DisplayName, 80)
		if err := v.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	principal, err := handler.accountService.UpdateProfile(request.Context(), identity.PrincipalID, UpdateProfileInput{
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

/*
DeleteAccount soft-deletes the authenticated principal and signs out everywhere.

DELETE /api/v1/account

Response:
  - 204: No Content: Account deleted
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), identity.PrincipalID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ListSessions returns the principal's active device sessions.

GET /api/v1/account/sessions

Response:
  - 200: []SessionInfo with the current session flagged
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ListSessions(request.Context(), identity.PrincipalID, identity.SessionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
RevokeSession terminates one of the principal's sessions by ID.

DELETE /api/v1/account/sessions/{sessionID}

Response:
  - 204: No Content: Session revoked (idempotent)
*/
func (handler *Handler) revokeSession(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := requestutil.Param(request, "sessionID")
	if err := handler.accountService.RevokeSession(request.Context(), identity.PrincipalID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Staff Administration

/*
ListPrincipals returns a page of all accounts for the back-office roster.

GET /api/v1/admin/principals?page=&limit=

Response:
  - 200: []Principal with pagination metadata
  - 403: INSUFFICIENT_PERMISSIONS
*/
func (handler *Handler) listPrincipals(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	principals, meta, err := handler.accountService.ListPrincipals(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, principals, meta)
}

/*
SetRole replaces the target principal's role. Audited.

PUT /api/v1/admin/principals/{principalID}/role

Request:
  - Body: setRoleRequest (Role)

Response:
  - 200: Principal: Updated account
  - 400: Unknown role
  - 403: Self-demotion attempt
*/
func (handler *Handler) setRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	targetID := requestutil.Param(request, "principalID")
	principal, err := handler.accountService.SetRole(request.Context(), actor, targetID, sec.Role(input.Role))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal)
}

/*
SetActive deactivates or reactivates the target principal. Audited.

PUT /api/v1/admin/principals/{principalID}/active

Request:
  - Body: setActiveRequest (Active)

Response:
  - 204: No Content: Flag applied
  - 403: Self-deactivation attempt
*/
func (handler *Handler) setActive(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setActiveRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	targetID := requestutil.Param(request, "principalID")
	if err := handler.accountService.SetActive(request.Context(), actor, targetID, input.Active); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
