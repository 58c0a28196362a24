// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/ctxutil"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter (UUID/Slug) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Identity extracts the reader-pool identity from the request context.

Returns nil if the request is not authenticated.
*/
func Identity(request *http.Request) *sec.Identity {
	return ctxutil.GetIdentity(request.Context())
}

/*
RequiredIdentity ensures the request carries a valid reader session.

Returns:
  - *sec.Identity: The validated identity
  - error: apperr.SessionInvalid if the request is not authenticated
*/
func RequiredIdentity(request *http.Request) (*sec.Identity, error) {
	identity := ctxutil.GetIdentity(request.Context())
	if identity == nil {
		return nil, apperr.SessionInvalid()
	}
	return identity, nil
}

/*
RequiredAdminIdentity ensures the request carries a valid back-office session.

Returns:
  - *sec.Identity: The validated admin-pool identity
  - error: apperr.SessionInvalid if the request is not authenticated in the admin pool
*/
func RequiredAdminIdentity(request *http.Request) (*sec.Identity, error) {
	identity := ctxutil.GetAdminIdentity(request.Context())
	if identity == nil {
		return nil, apperr.SessionInvalid()
	}
	return identity, nil
}

/*
RequiredPrincipalID returns the principal ID of the current reader session.

Returns:
  - string: Principal UUID
  - error: apperr.SessionInvalid if not authenticated
*/
func RequiredPrincipalID(request *http.Request) (string, error) {
	identity, err := RequiredIdentity(request)
	if err != nil {
		return "", err
	}
	return identity.PrincipalID, nil
}
