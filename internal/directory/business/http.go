// Copyright (c) 2026 SafraReport. All rights reserved.

package business

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safrareport/safrareport/internal/platform/middleware"
	requestutil "github.com/safrareport/safrareport/internal/platform/request"
	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/internal/platform/validate"
	"github.com/safrareport/safrareport/pkg/pagination"
)

// Handler implements the directory HTTP surface.
type Handler struct {
	businessService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{businessService: service}
}

// Routes returns a [chi.Router] for the public directory.
//
// Browsing is public; registering a profile and reviewing require a session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.browse)
	router.Get("/{slug}", handler.get)
	router.Get("/{businessID}/reviews", handler.listReviews)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireSession)

		protected.Post("/", handler.create)
		protected.Patch("/{businessID}", handler.update)
		protected.Post("/{businessID}/reviews", handler.createReview)
		protected.Delete("/reviews/{reviewID}", handler.deleteReview)
	})

	return router
}

// AdminRoutes returns a [chi.Router] for directory moderation.
// The server mounts this behind RequireRole(RoleModerator).
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Put("/{businessID}/verified", handler.setVerified)
	router.Put("/reviews/{reviewID}/status", handler.moderateReview)

	return router
}

// # Request Payloads

type createBusinessRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	City     string `json:"city"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
}

type updateBusinessRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	City     *string `json:"city"`
	Phone    *string `json:"phone"`
	Website  *string `json:"website"`
}

type createReviewRequest struct {
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

type setVerifiedRequest struct {
	Verified bool `json:"verified"`
}

type moderateReviewRequest struct {
	Status string `json:"status"`
}

/*
Browse returns a page of businesses.

GET /api/v1/directory?category=&city=&q=&verified=&page=&limit=

Response:
  - 200: []Business with pagination metadata
*/
func (handler *Handler) browse(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	filter := Filter{
		Category:     Category(query.Get("category")),
		City:         query.Get("city"),
		Search:       query.Get("q"),
		VerifiedOnly: query.Get("verified") == "true",
	}

	businesses, meta, err := handler.businessService.Browse(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, businesses, meta)
}

/*
Get resolves a business profile by slug.

GET /api/v1/directory/{slug}

Response:
  - 200: Business
  - 404: NOT_FOUND
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	business, err := handler.businessService.Get(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, business)
}

/*
ListReviews returns the published reviews of a business.

GET /api/v1/directory/{businessID}/reviews?page=&limit=
*/
func (handler *Handler) listReviews(writer http.ResponseWriter, request *http.Request) {
	reviews, meta, err := handler.businessService.ListReviews(
		request.Context(),
		requestutil.Param(request, "businessID"),
		pagination.FromRequest(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, reviews, meta)
}

/*
Create registers a new business profile owned by the signed-in account.

POST /api/v1/directory

Response:
  - 201: Business
  - 400: Validation failure
  - 409: Duplicate slug
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createBusinessRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("name", input.Name).
		MaxLen("name", input.Name, 140).
		Required("category", input.Category).
		Required("city", input.City)
	if input.Website != "" {
		v.URL("website", input.Website)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	business, err := handler.businessService.Create(request.Context(), CreateInput{
		Name:     input.Name,
		Category: Category(input.Category),
		City:     input.City,
		Phone:    input.Phone,
		Website:  input.Website,
		OwnerID:  actor.PrincipalID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, business)
}

/*
Update applies partial changes to a business owned by the actor.

PATCH /api/v1/directory/{businessID}

Response:
  - 200: Business
  - 403: FORBIDDEN for non-owners
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateBusinessRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	updateInput := UpdateInput{
		Name:    input.Name,
		City:    input.City,
		Phone:   input.Phone,
		Website: input.Website,
	}
	if input.Category != nil {
		category := Category(*input.Category)
		updateInput.Category = &category
	}

	business, err := handler.businessService.Update(request.Context(), actor, requestutil.Param(request, "businessID"), updateInput)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, business)
}

/*
CreateReview publishes a review by the signed-in account.

POST /api/v1/directory/{businessID}/reviews

Response:
  - 201: Review
  - 403: FORBIDDEN for the business owner
  - 409: CONFLICT if the account already reviewed this business
*/
func (handler *Handler) createReview(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createReviewRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Range("rating", input.Rating, 1, 5).
		MaxLen("body", input.Body, 2000)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	review, err := handler.businessService.CreateReview(request.Context(), ReviewInput{
		BusinessID:  requestutil.Param(request, "businessID"),
		PrincipalID: actor.PrincipalID,
		Rating:      input.Rating,
		Body:        input.Body,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, review)
}

/*
DeleteReview removes the actor's own review.

DELETE /api/v1/directory/reviews/{reviewID}
*/
func (handler *Handler) deleteReview(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.businessService.DeleteReview(request.Context(), actor, requestutil.Param(request, "reviewID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Moderation

/*
SetVerified flips the verification badge. Audited.

PUT /api/v1/admin/directory/{businessID}/verified
*/
func (handler *Handler) setVerified(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setVerifiedRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.businessService.SetVerified(request.Context(), actor, requestutil.Param(request, "businessID"), input.Verified); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ModerateReview hides or republishes a review. Audited.

PUT /api/v1/admin/directory/reviews/{reviewID}/status
*/
func (handler *Handler) moderateReview(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input moderateReviewRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.businessService.ModerateReview(request.Context(), actor, requestutil.Param(request, "reviewID"), ReviewStatus(input.Status)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
