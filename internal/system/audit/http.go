// Copyright (c) 2026 SafraReport. All rights reserved.

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/pkg/pagination"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	auditService *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{auditService: service}
}

// Routes returns a [chi.Router] for the audit surface. Role enforcement is
// applied by the server when mounting; only admins reach these handlers.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	return router
}

/*
List returns a page of audit entries, newest first.

GET /api/v1/admin/audit?actor_id=&action=&entity_type=&page=&limit=

Response:
  - 200: []Entry with pagination metadata
  - 401: SESSION_EXPIRED_OR_INVALID
  - 403: INSUFFICIENT_PERMISSIONS
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := ListFilter{
		ActorID:    request.URL.Query().Get("actor_id"),
		Action:     request.URL.Query().Get("action"),
		EntityType: request.URL.Query().Get("entity_type"),
	}

	entries, meta, err := handler.auditService.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, meta)
}
