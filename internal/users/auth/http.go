// Copyright (c) 2026 SafraReport. All rights reserved.

/*
This file provides the HTTP delivery layer for principal identity management.

It implements the gateway for the authentication lifecycle — from account
creation to session management and recovery — for both the reader surface
and the back-office surface.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Opaque session tokens carried in HttpOnly cookies (readers) or
    a cookie/header pair (back-office).
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safrareport/safrareport/internal/platform/constants"
	"github.com/safrareport/safrareport/internal/platform/middleware"
	requestutil "github.com/safrareport/safrareport/internal/platform/request"
	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the principal lifecycle entry
// points (Registration, Login, Password Reset callbacks) on both surfaces.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with reader-surface auth routes.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and sets the session cookie.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints. Credential endpoints carry the tighter IP throttle.
	router.Group(func(r chi.Router) {
		r.Use(middleware.LoginRateLimit(context.Background()))
		r.Post("/login", handler.login)
		r.Post("/forgot-password", handler.forgotPassword)
	})
	router.Post("/register", handler.register)
	router.Post("/reset-password", handler.resetPassword)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Get("/me", handler.me)
		r.Post("/logout-all", handler.logoutAll)
		r.Post("/change-password", handler.changePassword)
	})

	return router
}

// AdminRoutes returns a [chi.Router] for the back-office session surface.
//
// Admin sessions live in their own pool: the endpoints below only ever mint
// and validate sr_admin_session tokens.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.LoginRateLimit(context.Background()))
		r.Post("/login", handler.adminLogin)
	})
	router.Post("/logout", handler.adminLogout)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleEditor))
		r.Get("/me", handler.adminMe)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

/*
Register handles the creation of a new principal account.

POST /api/v1/auth/register

Description: Validates input, checks for identity conflicts, and persists
a new reader profile to the database.

Request:
  - Body: registerRequest (Email, Password, DisplayName)

Response:
  - 201: Principal: Created profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Required(FieldDisplayName, input.DisplayName).
		MaxLen(FieldDisplayName, input.DisplayName, 80)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, principal)
}

/*
Login authenticates a reader and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials under the lockout policy and injects an
HttpOnly session cookie into the response.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: Principal profile and expiry
  - 401: INVALID_CREDENTIALS or ACCOUNT_LOCKED
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.handleLogin(request, handler.authService.Login)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setSessionCookie(writer, constants.SessionCookieName, session.Token, session)

	respond.OK(writer, map[string]any{
		FieldPrincipal: session.Principal,
		FieldExpiresAt: session.ExpiresAt,
	})
}

/*
AdminLogin authenticates a staff member into the back-office pool.

POST /api/v1/admin/login

Description: Same credential verification as the reader login, but the minted
session lives in the admin pool. The token is returned in the body as well as
the cookie so non-browser clients can use the X-Admin-Token header.

Response:
  - 200: Session: Token, profile and expiry
  - 401: INVALID_CREDENTIALS or ACCOUNT_LOCKED
*/
func (handler *Handler) adminLogin(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.handleLogin(request, handler.authService.AdminLogin)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setSessionCookie(writer, constants.AdminSessionCookieName, session.Token, session)

	respond.OK(writer, map[string]any{
		FieldToken:     session.Token,
		FieldPrincipal: session.Principal,
		FieldExpiresAt: session.ExpiresAt,
	})
}

// handleLogin decodes and validates the shared login payload, then delegates
// to the pool-specific login function.
func (handler *Handler) handleLogin(request *http.Request, login func(ctx context.Context, input LoginInput) (*LoginSession, error)) (*LoginSession, error) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		return nil, validate.ErrInvalidJSON
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	return login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
}

/*
Logout terminates the current reader session.

POST /api/v1/auth/logout

Description: Invalidates the session token (if present) and clears the
security cookie from the client. Idempotent.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.SessionCookieName)

	if err == nil && cookie != nil && cookie.Value != "" {
		_ = handler.authService.Logout(request.Context(), cookie.Value, sec.PoolUser)
	}

	clearSessionCookie(writer, constants.SessionCookieName)
	respond.NoContent(writer)
}

/*
AdminLogout terminates the current back-office session.

POST /api/v1/admin/logout

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) adminLogout(writer http.ResponseWriter, request *http.Request) {
	token := ""
	if cookie, err := request.Cookie(constants.AdminSessionCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		token = request.Header.Get(constants.AdminSessionHeader)
	}

	if token != "" {
		_ = handler.authService.Logout(request.Context(), token, sec.PoolAdmin)
	}

	clearSessionCookie(writer, constants.AdminSessionCookieName)
	respond.NoContent(writer)
}

/*
LogoutAll revokes every session the authenticated principal holds.

POST /api/v1/auth/logout-all

Response:
  - 204: No Content: All sessions terminated
  - 401: SESSION_EXPIRED_OR_INVALID
*/
func (handler *Handler) logoutAll(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.LogoutAll(request.Context(), identity.PrincipalID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearSessionCookie(writer, constants.SessionCookieName)
	respond.NoContent(writer)
}

/*
Me returns the identity snapshot of the authenticated reader session.

GET /api/v1/auth/me

Response:
  - 200: Identity: Principal ID, role, session metadata
  - 401: SESSION_EXPIRED_OR_INVALID
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, identity)
}

/*
AdminMe returns the identity snapshot of the authenticated admin session.

GET /api/v1/admin/me

Response:
  - 200: Identity: Principal ID, role, session metadata
  - 401: SESSION_EXPIRED_OR_INVALID
  - 403: INSUFFICIENT_PERMISSIONS
*/
func (handler *Handler) adminMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, identity)
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Stores a one-time reset token if the account exists. The response
is identical either way so the endpoint cannot confirm account existence.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Success: Generic acknowledgement
  - 400: ErrInvalidJSON: Invalid email format
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, err := handler.authService.RequestPasswordReset(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this email is registered, a reset link has been sent.",
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Description: Consumes the one-time reset token and updates the password.
All existing sessions are revoked.

Request:
  - Body: resetPasswordRequest (Token, Password)

Response:
  - 200: Success: Password updated
  - 400: INVALID_OR_EXPIRED_TOKEN or weak password
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}

/*
ChangePassword updates the authenticated principal's password.

POST /api/v1/auth/change-password

Description: Verifies the current password before applying a new one, then
revokes every session in both pools. The client must log in again.

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 401: Session invalid or current password incorrect
  - 400: Weak password or validation failure
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, 8)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		identity.PrincipalID,
		input.CurrentPassword,
		input.NewPassword,
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearSessionCookie(writer, constants.SessionCookieName)

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}

// # Cookie Helpers

// setSessionCookie injects an HttpOnly session cookie bound to the pool's name.
func setSessionCookie(writer http.ResponseWriter, name, token string, session *LoginSession) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     constants.SessionCookiePath,
		Expires:  session.ExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the named session cookie on the client.
func clearSessionCookie(writer http.ResponseWriter, name string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
