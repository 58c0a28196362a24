// Copyright (c) 2026 SafraReport. All rights reserved.

package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sanitize"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/pkg/pagination"
	"github.com/safrareport/safrareport/pkg/slug"
	"github.com/safrareport/safrareport/pkg/uuidv7"
)

// DefaultLifetime is how long a new listing stays active before expiry.
const DefaultLifetime = 30 * 24 * time.Hour

// # Service Layer

// Service orchestrates the marketplace lifecycle of listings.
//
// Sellers manage only their own listings; moderators can remove any listing
// and every removal is audited.
type Service struct {
	listingRepository Repository
	sanitizer         *sanitize.Sanitizer
	auditRecorder     audit.Recorder
	logger            *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	listingRepo Repository,
	sanitizer *sanitize.Sanitizer,
	auditRecorder audit.Recorder,
	logger *slog.Logger,
) *Service {
	if auditRecorder == nil {
		auditRecorder = audit.NopRecorder{}
	}
	return &Service{
		listingRepository: listingRepo,
		sanitizer:         sanitizer,
		auditRecorder:     auditRecorder,
		logger:            logger,
	}
}

// # Public Browsing

/*
Browse returns a page of active listings for the public marketplace.

Parameters:
  - context: context.Context
  - filter: Filter (Status is forced to active)
  - params: pagination.Params

Returns:
  - []*Listing: Page of active listings
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) Browse(context context.Context, filter Filter, params pagination.Params) ([]*Listing, pagination.Meta, error) {
	filter.Status = StatusActive

	listings, total, err := service.listingRepository.List(context, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("listing_service_browse_failed: %w", err)
	}

	return listings, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
Get resolves a listing by slug for the public detail page.

Description: Sold listings stay resolvable so buyers can see the outcome;
only deleted listings 404.

Parameters:
  - context: context.Context
  - listingSlug: string

Returns:
  - *Listing: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, listingSlug string) (*Listing, error) {
	return service.listingRepository.FindBySlug(context, listingSlug)
}

// # Seller Surface

// CreateInput carries the seller-provided fields of a new listing.
type CreateInput struct {
	Title       string
	Description string
	PriceCents  int64
	Currency    string
	Category    Category
	Location    string
	SellerID    string
}

/*
Create publishes a new listing owned by the signed-in seller.

Description: The description is stripped to plain inline text and the
listing starts active with the default lifetime.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Listing: Created listing
  - error: Validation, conflict, or storage errors
*/
func (service *Service) Create(context context.Context, input CreateInput) (*Listing, error) {
	if !input.Category.IsValid() {
		return nil, apperr.ValidationError("Unknown category")
	}
	if input.PriceCents < 0 {
		return nil, apperr.ValidationError("Price cannot be negative")
	}

	listing := &Listing{
		ID:          uuidv7.New(),
		Slug:        slug.From(input.Title),
		Title:       input.Title,
		Description: service.sanitizer.Text(input.Description),
		PriceCents:  input.PriceCents,
		Currency:    input.Currency,
		Category:    input.Category,
		Location:    input.Location,
		SellerID:    input.SellerID,
		Status:      StatusActive,
		ExpiresAt:   time.Now().Add(DefaultLifetime),
	}

	if err := service.listingRepository.Create(context, listing); err != nil {
		return nil, fmt.Errorf("listing_service_create_failed: %w", err)
	}

	service.logger.Info("listing_created",
		slog.String("listing_id", listing.ID),
		slog.String("seller_id", listing.SellerID),
	)

	return listing, nil
}

// UpdateInput defines the mutable subset of listing fields.
type UpdateInput struct {
	Title       *string
	Description *string
	PriceCents  *int64
	Location    *string
	Category    *Category
}

/*
Update applies a partial set of changes to a listing owned by the actor.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string
  - input: UpdateInput

Returns:
  - *Listing: Updated entity
  - error: apperr.Forbidden for non-owners, validation, or storage errors
*/
func (service *Service) Update(context context.Context, actor *sec.Identity, id string, input UpdateInput) (*Listing, error) {
	listing, err := service.ownedListing(context, actor, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		listing.Title = *input.Title
		listing.Slug = slug.From(*input.Title)
	}
	if input.Description != nil {
		listing.Description = service.sanitizer.Text(*input.Description)
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, apperr.ValidationError("Price cannot be negative")
		}
		listing.PriceCents = *input.PriceCents
	}
	if input.Location != nil {
		listing.Location = *input.Location
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, apperr.ValidationError("Unknown category")
		}
		listing.Category = *input.Category
	}

	if err := service.listingRepository.Update(context, listing); err != nil {
		return nil, fmt.Errorf("listing_service_update_failed: %w", err)
	}

	return listing, nil
}

/*
MarkSold transitions a listing owned by the actor to sold.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string

Returns:
  - error: apperr.Forbidden for non-owners, or storage errors
*/
func (service *Service) MarkSold(context context.Context, actor *sec.Identity, id string) error {
	if _, err := service.ownedListing(context, actor, id); err != nil {
		return err
	}

	if err := service.listingRepository.SetStatus(context, id, StatusSold); err != nil {
		return fmt.Errorf("listing_service_mark_sold_failed: %w", err)
	}

	return nil
}

/*
Delete removes a listing.

Description: Sellers can delete their own listings. Moderators can delete
any listing, and a moderator removal of someone else's listing is audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string

Returns:
  - error: apperr.Forbidden for non-owner non-moderators, or storage errors
*/
func (service *Service) Delete(context context.Context, actor *sec.Identity, id string) error {
	listing, err := service.listingRepository.FindByID(context, id)
	if err != nil {
		return err
	}

	isOwner := listing.SellerID == actor.PrincipalID
	if !isOwner && !actor.Role.AtLeast(sec.RoleModerator) {
		return apperr.Forbidden("You can only delete your own listings")
	}

	if err := service.listingRepository.SoftDelete(context, id); err != nil {
		return fmt.Errorf("listing_service_delete_failed: %w", err)
	}

	if !isOwner {
		service.auditRecorder.Record(context, audit.Entry{
			ActorID:    actor.PrincipalID,
			Action:     audit.ActionListingRemoved,
			EntityType: "listing",
			EntityID:   id,
		})
	}

	return nil
}

/*
ListMine returns a page of the actor's own listings in any state.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - params: pagination.Params

Returns:
  - []*Listing: Page of listings
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) ListMine(context context.Context, actor *sec.Identity, params pagination.Params) ([]*Listing, pagination.Meta, error) {
	listings, total, err := service.listingRepository.List(context,
		Filter{SellerID: actor.PrincipalID},
		params.Limit, params.Offset(),
	)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("listing_service_list_mine_failed: %w", err)
	}

	return listings, pagination.NewMeta(params.Page, params.Limit, total), nil
}

// # Maintenance

/*
ExpireOverdue flips overdue active listings to expired.

Description: Called periodically by the server; a run that expires nothing
is normal.

Parameters:
  - context: context.Context

Returns:
  - error: Storage failures
*/
func (service *Service) ExpireOverdue(context context.Context) error {
	expired, err := service.listingRepository.ExpireOverdue(context)
	if err != nil {
		return fmt.Errorf("listing_service_expire_failed: %w", err)
	}

	if expired > 0 {
		service.logger.Info("listings_expired", slog.Int("count", expired))
	}

	return nil
}

// ownedListing loads a listing and verifies the actor is its seller.
func (service *Service) ownedListing(context context.Context, actor *sec.Identity, id string) (*Listing, error) {
	listing, err := service.listingRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if listing.SellerID != actor.PrincipalID {
		return nil, apperr.Forbidden("You can only manage your own listings")
	}

	return listing, nil
}
