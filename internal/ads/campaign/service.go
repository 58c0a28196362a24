// Copyright (c) 2026 SafraReport. All rights reserved.

package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/metrics"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/pkg/pagination"
	"github.com/safrareport/safrareport/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates campaign serving and management.
//
// Serving is the hot path: one indexed query, one weighted draw, one atomic
// counter increment. Management is admin-gated and audited.
type Service struct {
	campaignRepository Repository
	auditRecorder      audit.Recorder
	adMetrics          metrics.AdRecorder
	logger             *slog.Logger

	// randIntN is swapped in tests for a deterministic draw.
	randIntN func(n int) int
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	campaignRepo Repository,
	auditRecorder audit.Recorder,
	adMetrics metrics.AdRecorder,
	logger *slog.Logger,
) *Service {
	if auditRecorder == nil {
		auditRecorder = audit.NopRecorder{}
	}
	if adMetrics == nil {
		adMetrics = metrics.NopAdRecorder{}
	}
	return &Service{
		campaignRepository: campaignRepo,
		auditRecorder:      auditRecorder,
		adMetrics:          adMetrics,
		logger:             logger,
		randIntN:           rand.IntN,
	}
}

// WithRandIntN overrides the random draw. Intended for tests.
func (service *Service) WithRandIntN(randIntN func(n int) int) *Service {
	service.randIntN = randIntN
	return service
}

// # Serving

/*
Serve picks one live campaign for a placement by weighted random draw and
counts the impression.

Description: Each candidate's probability is its weight over the placement's
total weight. A placement with no live campaigns returns NotFound so clients
can simply hide the slot. The impression increment is atomic in SQL; a lost
increment never fails the serve.

Parameters:
  - context: context.Context
  - placement: Placement

Returns:
  - *Creative: The winning campaign's public payload
  - error: Validation, apperr.NotFound, or retrieval failures
*/
func (service *Service) Serve(context context.Context, placement Placement) (*Creative, error) {
	if !placement.IsValid() {
		return nil, apperr.ValidationError("Unknown placement")
	}

	candidates, err := service.campaignRepository.ListByPlacement(context, placement, time.Now())
	if err != nil {
		return nil, fmt.Errorf("campaign_service_serve_failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, apperr.NotFound("Campaign")
	}

	winner := service.draw(candidates)

	if err := service.campaignRepository.AddImpression(context, winner.ID); err != nil {
		service.logger.Warn("impression_count_lost",
			slog.String("campaign_id", winner.ID),
			slog.Any("error", err),
		)
	}
	service.adMetrics.RecordAdImpression(string(placement))

	return &Creative{
		CampaignID: winner.ID,
		Placement:  winner.Placement,
		ImageURL:   winner.ImageURL,
		TargetURL:  winner.TargetURL,
	}, nil
}

// draw picks a candidate with probability proportional to its weight.
func (service *Service) draw(candidates []*Campaign) *Campaign {
	totalWeight := 0
	for _, candidate := range candidates {
		totalWeight += candidate.Weight
	}

	roll := service.randIntN(totalWeight)
	for _, candidate := range candidates {
		roll -= candidate.Weight
		if roll < 0 {
			return candidate
		}
	}

	// Unreachable with positive weights; keep the last as a safe fallback.
	return candidates[len(candidates)-1]
}

/*
Click counts a click and returns the target URL for the redirect.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - string: Target URL to redirect to
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Click(context context.Context, id string) (string, error) {
	targetURL, err := service.campaignRepository.AddClick(context, id)
	if err != nil {
		return "", err
	}

	service.adMetrics.RecordAdClick()

	return targetURL, nil
}

// # Management Surface

// CampaignInput carries the admin-provided fields of a campaign.
type CampaignInput struct {
	Name      string
	Placement Placement
	ImageURL  string
	TargetURL string
	Weight    int
	StartsAt  *time.Time
	EndsAt    *time.Time
	IsActive  bool
}

func (input CampaignInput) validate() error {
	if !input.Placement.IsValid() {
		return apperr.ValidationError("Unknown placement")
	}
	if input.Weight < 1 {
		return apperr.ValidationError("Weight must be at least 1")
	}
	if input.StartsAt != nil && input.EndsAt != nil && !input.StartsAt.Before(*input.EndsAt) {
		return apperr.ValidationError("Campaign must start before it ends")
	}
	return nil
}

/*
List returns a page of all campaigns for the admin dashboard.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []*Campaign: Page of campaigns
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, params pagination.Params) ([]*Campaign, pagination.Meta, error) {
	campaigns, total, err := service.campaignRepository.List(context, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("campaign_service_list_failed: %w", err)
	}

	return campaigns, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
Get returns a campaign with its counters.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Campaign: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, id string) (*Campaign, error) {
	return service.campaignRepository.FindByID(context, id)
}

/*
Create registers a new campaign. Audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - input: CampaignInput

Returns:
  - *Campaign: Created campaign
  - error: Validation or storage errors
*/
func (service *Service) Create(context context.Context, actor *sec.Identity, input CampaignInput) (*Campaign, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	campaign := &Campaign{
		ID:        uuidv7.New(),
		Name:      input.Name,
		Placement: input.Placement,
		ImageURL:  input.ImageURL,
		TargetURL: input.TargetURL,
		Weight:    input.Weight,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		IsActive:  input.IsActive,
	}

	if err := service.campaignRepository.Create(context, campaign); err != nil {
		return nil, fmt.Errorf("campaign_service_create_failed: %w", err)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionCampaignCreated,
		EntityType: "campaign",
		EntityID:   campaign.ID,
	})

	return campaign, nil
}

/*
Update replaces the mutable fields of a campaign. Audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string
  - input: CampaignInput

Returns:
  - *Campaign: Updated entity
  - error: Validation, apperr.NotFound, or storage errors
*/
func (service *Service) Update(context context.Context, actor *sec.Identity, id string, input CampaignInput) (*Campaign, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	campaign, err := service.campaignRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	campaign.Name = input.Name
	campaign.Placement = input.Placement
	campaign.ImageURL = input.ImageURL
	campaign.TargetURL = input.TargetURL
	campaign.Weight = input.Weight
	campaign.StartsAt = input.StartsAt
	campaign.EndsAt = input.EndsAt
	campaign.IsActive = input.IsActive

	if err := service.campaignRepository.Update(context, campaign); err != nil {
		return nil, fmt.Errorf("campaign_service_update_failed: %w", err)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionCampaignUpdated,
		EntityType: "campaign",
		EntityID:   id,
	})

	return campaign, nil
}

/*
Delete removes a campaign. Audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string

Returns:
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Delete(context context.Context, actor *sec.Identity, id string) error {
	if err := service.campaignRepository.Delete(context, id); err != nil {
		return fmt.Errorf("campaign_service_delete_failed: %w", err)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionCampaignDeleted,
		EntityType: "campaign",
		EntityID:   id,
	})

	return nil
}
