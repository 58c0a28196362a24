// Copyright (c) 2026 SafraReport. All rights reserved.

package article

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/safrareport/safrareport/internal/platform/request"
	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/internal/platform/validate"
	"github.com/safrareport/safrareport/pkg/pagination"
)

// Handler implements the article HTTP surface.
type Handler struct {
	articleService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{articleService: service}
}

// Routes returns a [chi.Router] for the public reading surface.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listPublished)
	router.Get("/preview/{token}", handler.preview)
	router.Get("/{slug}", handler.getPublished)

	return router
}

// AdminRoutes returns a [chi.Router] for the newsroom dashboard.
// The server mounts this behind RequireRole(RoleEditor).
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listAll)
	router.Post("/", handler.create)
	router.Get("/{articleID}", handler.get)
	router.Patch("/{articleID}", handler.update)
	router.Post("/{articleID}/publish", handler.publish)
	router.Post("/{articleID}/unpublish", handler.unpublish)
	router.Post("/{articleID}/preview-token", handler.issuePreviewToken)
	router.Delete("/{articleID}", handler.remove)

	return router
}

// # Request Payloads

type createArticleRequest struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

type updateArticleRequest struct {
	Title    *string `json:"title"`
	Summary  *string `json:"summary"`
	Body     *string `json:"body"`
	Category *string `json:"category"`
}

/*
ListPublished returns a page of live articles.

GET /api/v1/articles?category=&q=&page=&limit=

Response:
  - 200: []Article with pagination metadata
*/
func (handler *Handler) listPublished(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := Filter{
		Category: Category(request.URL.Query().Get("category")),
		Search:   request.URL.Query().Get("q"),
	}

	articles, meta, err := handler.articleService.ListPublished(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, articles, meta)
}

/*
GetPublished resolves a live article by slug.

GET /api/v1/articles/{slug}

Response:
  - 200: Article
  - 404: NOT_FOUND (drafts and archived pieces included)
*/
func (handler *Handler) getPublished(writer http.ResponseWriter, request *http.Request) {
	articleSlug := requestutil.Param(request, "slug")

	article, err := handler.articleService.GetPublished(request.Context(), articleSlug)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, article)
}

/*
Preview resolves a draft through a signed preview token.

GET /api/v1/articles/preview/{token}

Response:
  - 200: Article
  - 400: INVALID_OR_EXPIRED_TOKEN
*/
func (handler *Handler) preview(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, "token")

	article, err := handler.articleService.GetPreview(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, article)
}

// # Newsroom Dashboard

/*
ListAll returns a page of articles in any editorial state.

GET /api/v1/admin/articles?status=&category=&author_id=&q=&page=&limit=
*/
func (handler *Handler) listAll(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := Filter{
		Status:   Status(request.URL.Query().Get("status")),
		Category: Category(request.URL.Query().Get("category")),
		AuthorID: request.URL.Query().Get("author_id"),
		Search:   request.URL.Query().Get("q"),
	}

	articles, meta, err := handler.articleService.ListAll(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, articles, meta)
}

/*
Get returns any article by ID.

GET /api/v1/admin/articles/{articleID}
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	article, err := handler.articleService.Get(request.Context(), requestutil.Param(request, "articleID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, article)
}

/*
Create drafts a new article authored by the signed-in editor.

POST /api/v1/admin/articles

Response:
  - 201: Article: New draft
  - 400: Validation failure
  - 409: Duplicate slug
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createArticleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("title", input.Title).
		MaxLen("title", input.Title, 200).
		Required("body", input.Body).
		Required("category", input.Category).
		MaxLen("summary", input.Summary, 500)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	article, err := handler.articleService.Create(request.Context(), CreateInput{
		Title:    input.Title,
		Summary:  input.Summary,
		Body:     input.Body,
		Category: Category(input.Category),
		AuthorID: actor.PrincipalID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, article)
}

/*
Update applies partial changes to an article.

PATCH /api/v1/admin/articles/{articleID}
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input updateArticleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	updateInput := UpdateInput{
		Title:   input.Title,
		Summary: input.Summary,
		Body:    input.Body,
	}
	if input.Category != nil {
		category := Category(*input.Category)
		updateInput.Category = &category
	}

	article, err := handler.articleService.Update(request.Context(), requestutil.Param(request, "articleID"), updateInput)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, article)
}

/*
Publish puts an article on the live site. Audited.

POST /api/v1/admin/articles/{articleID}/publish
*/
func (handler *Handler) publish(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.articleService.Publish(request.Context(), actor, requestutil.Param(request, "articleID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Unpublish withdraws an article from the live site. Audited.

POST /api/v1/admin/articles/{articleID}/unpublish
*/
func (handler *Handler) unpublish(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.articleService.Unpublish(request.Context(), actor, requestutil.Param(request, "articleID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
IssuePreviewToken mints a shareable draft link token.

POST /api/v1/admin/articles/{articleID}/preview-token

Response:
  - 200: { token }
*/
func (handler *Handler) issuePreviewToken(writer http.ResponseWriter, request *http.Request) {
	token, err := handler.articleService.IssuePreviewToken(request.Context(), requestutil.Param(request, "articleID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"token": token})
}

/*
Remove soft-deletes an article. Audited.

DELETE /api/v1/admin/articles/{articleID}
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.articleService.Delete(request.Context(), actor, requestutil.Param(request, "articleID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
