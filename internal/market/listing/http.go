// Copyright (c) 2026 SafraReport. All rights reserved.

package listing

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/safrareport/safrareport/internal/platform/middleware"
	requestutil "github.com/safrareport/safrareport/internal/platform/request"
	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/internal/platform/validate"
	"github.com/safrareport/safrareport/pkg/pagination"
)

// Handler implements the classifieds HTTP surface.
type Handler struct {
	listingService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{listingService: service}
}

// Routes returns a [chi.Router] for the marketplace.
//
// Browsing is public; creating and managing listings requires a session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.browse)
	router.Get("/{slug}", handler.get)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireSession)

		protected.Post("/", handler.create)
		protected.Get("/mine", handler.listMine)
		protected.Patch("/{listingID}", handler.update)
		protected.Post("/{listingID}/sold", handler.markSold)
		protected.Delete("/{listingID}", handler.remove)
	})

	return router
}

// # Request Payloads

type createListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

type updateListingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
}

/*
Browse returns a page of active listings.

GET /api/v1/listings?category=&location=&q=&max_price_cents=&page=&limit=

Response:
  - 200: []Listing with pagination metadata
*/
func (handler *Handler) browse(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	query := request.URL.Query()

	maxPrice, _ := strconv.ParseInt(query.Get("max_price_cents"), 10, 64)

	filter := Filter{
		Category:      Category(query.Get("category")),
		Location:      query.Get("location"),
		Search:        query.Get("q"),
		MaxPriceCents: maxPrice,
	}

	listings, meta, err := handler.listingService.Browse(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, listings, meta)
}

/*
Get resolves a listing by slug.

GET /api/v1/listings/{slug}

Response:
  - 200: Listing
  - 404: NOT_FOUND
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	listing, err := handler.listingService.Get(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, listing)
}

/*
Create publishes a new listing owned by the signed-in seller.

POST /api/v1/listings

Response:
  - 201: Listing
  - 400: Validation failure
  - 409: Duplicate slug
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createListingRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required("title", input.Title).
		MaxLen("title", input.Title, 140).
		Required("description", input.Description).
		MaxLen("description", input.Description, 4000).
		Required("currency", input.Currency).
		Custom("currency", len(input.Currency) != 3, "Currency must be a 3-letter ISO code").
		Required("category", input.Category)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	listing, err := handler.listingService.Create(request.Context(), CreateInput{
		Title:       input.Title,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Currency:    input.Currency,
		Category:    Category(input.Category),
		Location:    input.Location,
		SellerID:    actor.PrincipalID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, listing)
}

/*
ListMine returns the signed-in seller's own listings in any state.

GET /api/v1/listings/mine?page=&limit=
*/
func (handler *Handler) listMine(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	listings, meta, err := handler.listingService.ListMine(request.Context(), actor, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, listings, meta)
}

/*
Update applies partial changes to a listing owned by the actor.

PATCH /api/v1/listings/{listingID}

Response:
  - 200: Listing
  - 403: FORBIDDEN for non-owners
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateListingRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	updateInput := UpdateInput{
		Title:       input.Title,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Location:    input.Location,
	}
	if input.Category != nil {
		category := Category(*input.Category)
		updateInput.Category = &category
	}

	listing, err := handler.listingService.Update(request.Context(), actor, requestutil.Param(request, "listingID"), updateInput)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, listing)
}

/*
MarkSold transitions the actor's listing to sold.

POST /api/v1/listings/{listingID}/sold
*/
func (handler *Handler) markSold(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.listingService.MarkSold(request.Context(), actor, requestutil.Param(request, "listingID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Remove deletes a listing. Owners delete their own; moderators can delete any,
and a moderator removal is audited.

DELETE /api/v1/listings/{listingID}
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.listingService.Delete(request.Context(), actor, requestutil.Param(request, "listingID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
