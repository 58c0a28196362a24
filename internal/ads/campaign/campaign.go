// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package campaign defines the core domain entities for SafraReport's
self-hosted ad serving.

It manages display campaigns per page placement, picks one by weighted
random draw at serve time, and tracks impressions and clicks.

Core Responsibility:

  - Serving: Weighted random selection among campaigns live for a placement.
  - Counting: Atomic impression and click increments, no read-modify-write.
  - Scheduling: Active flag plus an optional start/end window.

This package acts as the source of truth for all advertising data models.
*/
package campaign

import (
	"context"
	"time"
)

// # Placements

// Placement names a page slot that can host a campaign.
type Placement string

const (
	PlacementHomeBanner     Placement = "home_banner"
	PlacementArticleSidebar Placement = "article_sidebar"
	PlacementArticleFooter  Placement = "article_footer"
	PlacementListingsTop    Placement = "listings_top"
)

// IsValid reports whether p is a recognised [Placement] value.
func (p Placement) IsValid() bool {
	switch p {
	case PlacementHomeBanner, PlacementArticleSidebar,
		PlacementArticleFooter, PlacementListingsTop:
		return true
	}
	return false
}

// # Core Entities

// Campaign is a paid creative scheduled into a placement.
//
// Weight skews the random draw: a weight-3 campaign is served three times as
// often as a weight-1 campaign sharing the placement.
type Campaign struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Placement   Placement  `json:"placement"`
	ImageURL    string     `json:"image_url"`
	TargetURL   string     `json:"target_url"`
	Weight      int        `json:"weight"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	Impressions int64      `json:"impressions"`
	Clicks      int64      `json:"clicks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Live reports whether the campaign may be served at the given instant.
func (c *Campaign) Live(now time.Time) bool {
	if !c.IsActive || c.Weight <= 0 {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && !now.Before(*c.EndsAt) {
		return false
	}
	return true
}

// Creative is the public serve payload. It deliberately omits weight,
// scheduling, and counters.
type Creative struct {
	CampaignID string    `json:"campaign_id"`
	Placement  Placement `json:"placement"`
	ImageURL   string    `json:"image_url"`
	TargetURL  string    `json:"target_url"`
}

// # Repository Contract

// Repository defines the persistence contract for campaigns.
type Repository interface {

	/*
		ListByPlacement returns every active campaign for a placement whose
		schedule window contains now.

		Parameters:
		  - context: context.Context
		  - placement: Placement
		  - now: time.Time

		Returns:
		  - []*Campaign: Live candidates, possibly empty
		  - error: Retrieval failures
	*/
	ListByPlacement(context context.Context, placement Placement, now time.Time) ([]*Campaign, error)

	/*
		List returns all campaigns newest-first with pagination.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*Campaign: Page of campaigns
		  - int: Total count
		  - error: Retrieval failures
	*/
	List(context context.Context, limit, offset int) ([]*Campaign, int, error)

	/*
		FindByID returns the campaign with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Campaign: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Campaign, error)

	/*
		Create persists a new campaign.

		Parameters:
		  - context: context.Context
		  - campaign: *Campaign

		Returns:
		  - error: Storage failures
	*/
	Create(context context.Context, campaign *Campaign) error

	/*
		Update persists the mutable fields of a campaign.

		Parameters:
		  - context: context.Context
		  - campaign: *Campaign

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	Update(context context.Context, campaign *Campaign) error

	/*
		Delete removes a campaign row.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	Delete(context context.Context, id string) error

	/*
		AddImpression atomically increments the impression counter.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Storage failures
	*/
	AddImpression(context context.Context, id string) error

	/*
		AddClick atomically increments the click counter and returns the
		target URL for the redirect.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - string: Target URL
		  - error: apperr.NotFound or storage failures
	*/
	AddClick(context context.Context, id string) (string, error)
}
