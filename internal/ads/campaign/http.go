// Copyright (c) 2026 SafraReport. All rights reserved.

package campaign

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/safrareport/safrareport/internal/platform/request"
	"github.com/safrareport/safrareport/internal/platform/respond"
	"github.com/safrareport/safrareport/internal/platform/validate"
	"github.com/safrareport/safrareport/pkg/pagination"
)

// Handler implements the ad serving and management HTTP surface.
type Handler struct {
	campaignService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{campaignService: service}
}

// Routes returns a [chi.Router] for the public serving surface.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/serve", handler.serve)
	router.Post("/{campaignID}/click", handler.click)

	return router
}

// AdminRoutes returns a [chi.Router] for campaign management.
// The server mounts this behind RequireRole(RoleAdmin).
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{campaignID}", handler.get)
	router.Put("/{campaignID}", handler.update)
	router.Delete("/{campaignID}", handler.remove)

	return router
}

// # Request Payloads

type campaignRequest struct {
	Name      string     `json:"name"`
	Placement string     `json:"placement"`
	ImageURL  string     `json:"image_url"`
	TargetURL string     `json:"target_url"`
	Weight    int        `json:"weight"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	IsActive  bool       `json:"is_active"`
}

func (input campaignRequest) toInput() CampaignInput {
	return CampaignInput{
		Name:      input.Name,
		Placement: Placement(input.Placement),
		ImageURL:  input.ImageURL,
		TargetURL: input.TargetURL,
		Weight:    input.Weight,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		IsActive:  input.IsActive,
	}
}

func (input campaignRequest) validate() error {
	v := &validate.Validator{}
	v.Required("name", input.Name).
		MaxLen("name", input.Name, 140).
		Required("placement", input.Placement).
		Required("image_url", input.ImageURL).
		URL("image_url", input.ImageURL).
		Required("target_url", input.TargetURL).
		URL("target_url", input.TargetURL)
	return v.Err()
}

/*
Serve picks one live campaign for a placement.

GET /api/v1/ads/serve?placement=

Response:
  - 200: Creative
  - 404: NOT_FOUND when the placement has no live campaign
*/
func (handler *Handler) serve(writer http.ResponseWriter, request *http.Request) {
	creative, err := handler.campaignService.Serve(request.Context(), Placement(request.URL.Query().Get("placement")))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, creative)
}

/*
Click counts a click-through and redirects to the campaign target.

POST /api/v1/ads/{campaignID}/click

Response:
  - 302: Redirect to the target URL
  - 404: NOT_FOUND
*/
func (handler *Handler) click(writer http.ResponseWriter, request *http.Request) {
	targetURL, err := handler.campaignService.Click(request.Context(), requestutil.Param(request, "campaignID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.Redirect(writer, request, targetURL, http.StatusFound)
}

// # Management

/*
List returns a page of all campaigns with their counters.

GET /api/v1/admin/campaigns?page=&limit=
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	campaigns, meta, err := handler.campaignService.List(request.Context(), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, campaigns, meta)
}

/*
Get returns a campaign with its counters.

GET /api/v1/admin/campaigns/{campaignID}
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	campaign, err := handler.campaignService.Get(request.Context(), requestutil.Param(request, "campaignID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, campaign)
}

/*
Create registers a new campaign. Audited.

POST /api/v1/admin/campaigns

Response:
  - 201: Campaign
  - 400: Validation failure
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input campaignRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	if err := input.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	campaign, err := handler.campaignService.Create(request.Context(), actor, input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, campaign)
}

/*
Update replaces a campaign's settings. Audited.

PUT /api/v1/admin/campaigns/{campaignID}
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input campaignRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	if err := input.validate(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	campaign, err := handler.campaignService.Update(request.Context(), actor, requestutil.Param(request, "campaignID"), input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, campaign)
}

/*
Remove deletes a campaign. Audited.

DELETE /api/v1/admin/campaigns/{campaignID}
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredAdminIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.campaignService.Delete(request.Context(), actor, requestutil.Param(request, "campaignID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
