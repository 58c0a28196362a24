// Copyright (c) 2026 SafraReport. All rights reserved.

package business

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sanitize"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/pkg/pagination"
	"github.com/safrareport/safrareport/pkg/slug"
	"github.com/safrareport/safrareport/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates business profiles and their reviews.
//
// Review writes keep the business rating aggregate consistent, and both
// verification and moderation are audited.
type Service struct {
	businessRepository Repository
	reviewRepository   ReviewRepository
	sanitizer          *sanitize.Sanitizer
	auditRecorder      audit.Recorder
	logger             *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	businessRepo Repository,
	reviewRepo ReviewRepository,
	sanitizer *sanitize.Sanitizer,
	auditRecorder audit.Recorder,
	logger *slog.Logger,
) *Service {
	if auditRecorder == nil {
		auditRecorder = audit.NopRecorder{}
	}
	return &Service{
		businessRepository: businessRepo,
		reviewRepository:   reviewRepo,
		sanitizer:          sanitizer,
		auditRecorder:      auditRecorder,
		logger:             logger,
	}
}

// # Public Directory

/*
Browse returns a page of businesses for the public directory.

Parameters:
  - context: context.Context
  - filter: Filter
  - params: pagination.Params

Returns:
  - []*Business: Page of businesses
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) Browse(context context.Context, filter Filter, params pagination.Params) ([]*Business, pagination.Meta, error) {
	businesses, total, err := service.businessRepository.List(context, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("business_service_browse_failed: %w", err)
	}

	return businesses, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
Get resolves a business by slug for the public profile page.

Parameters:
  - context: context.Context
  - businessSlug: string

Returns:
  - *Business: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, businessSlug string) (*Business, error) {
	return service.businessRepository.FindBySlug(context, businessSlug)
}

/*
ListReviews returns a page of published reviews for a business.

Parameters:
  - context: context.Context
  - businessID: string
  - params: pagination.Params

Returns:
  - []*Review: Page of published reviews
  - pagination.Meta: Paging metadata
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) ListReviews(context context.Context, businessID string, params pagination.Params) ([]*Review, pagination.Meta, error) {
	if _, err := service.businessRepository.FindByID(context, businessID); err != nil {
		return nil, pagination.Meta{}, err
	}

	reviews, total, err := service.reviewRepository.ListPublished(context, businessID, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("business_service_list_reviews_failed: %w", err)
	}

	return reviews, pagination.NewMeta(params.Page, params.Limit, total), nil
}

// # Owner Surface

// CreateInput carries the owner-provided fields of a new business profile.
type CreateInput struct {
	Name     string
	Category Category
	City     string
	Phone    string
	Website  string
	OwnerID  string
}

/*
Create registers a new business profile owned by the signed-in account.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Business: Created profile, unverified with no reviews
  - error: Validation, conflict, or storage errors
*/
func (service *Service) Create(context context.Context, input CreateInput) (*Business, error) {
	if !input.Category.IsValid() {
		return nil, apperr.ValidationError("Unknown category")
	}

	business := &Business{
		ID:       uuidv7.New(),
		Slug:     slug.From(input.Name),
		Name:     input.Name,
		Category: input.Category,
		City:     input.City,
		Phone:    input.Phone,
		Website:  input.Website,
		OwnerID:  input.OwnerID,
	}

	if err := service.businessRepository.Create(context, business); err != nil {
		return nil, fmt.Errorf("business_service_create_failed: %w", err)
	}

	service.logger.Info("business_registered",
		slog.String("business_id", business.ID),
		slog.String("owner_id", business.OwnerID),
	)

	return business, nil
}

// UpdateInput defines the mutable subset of business profile fields.
type UpdateInput struct {
	Name     *string
	Category *Category
	City     *string
	Phone    *string
	Website  *string
}

/*
Update applies a partial set of changes to a business owned by the actor.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string
  - input: UpdateInput

Returns:
  - *Business: Updated entity
  - error: apperr.Forbidden for non-owners, validation, or storage errors
*/
func (service *Service) Update(context context.Context, actor *sec.Identity, id string, input UpdateInput) (*Business, error) {
	business, err := service.businessRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if business.OwnerID != actor.PrincipalID && !actor.Role.AtLeast(sec.RoleModerator) {
		return nil, apperr.Forbidden("You can only manage your own business profile")
	}

	if input.Name != nil {
		business.Name = *input.Name
		business.Slug = slug.From(*input.Name)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, apperr.ValidationError("Unknown category")
		}
		business.Category = *input.Category
	}
	if input.City != nil {
		business.City = *input.City
	}
	if input.Phone != nil {
		business.Phone = *input.Phone
	}
	if input.Website != nil {
		business.Website = *input.Website
	}

	if err := service.businessRepository.Update(context, business); err != nil {
		return nil, fmt.Errorf("business_service_update_failed: %w", err)
	}

	return business, nil
}

// # Reviews

// ReviewInput carries the reviewer-provided fields of a new review.
type ReviewInput struct {
	BusinessID  string
	PrincipalID string
	Rating      int
	Body        string
}

/*
CreateReview publishes a review and folds its rating into the aggregate.

Description: One review per account per business, and owners cannot review
their own business. The review counts immediately; moderation happens after
the fact.

Parameters:
  - context: context.Context
  - input: ReviewInput

Returns:
  - *Review: Published review
  - error: Validation, conflict, or storage errors
*/
func (service *Service) CreateReview(context context.Context, input ReviewInput) (*Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperr.ValidationError("Rating must be between 1 and 5")
	}

	business, err := service.businessRepository.FindByID(context, input.BusinessID)
	if err != nil {
		return nil, err
	}

	if business.OwnerID == input.PrincipalID {
		return nil, apperr.Forbidden("You cannot review your own business")
	}

	review := &Review{
		ID:          uuidv7.New(),
		BusinessID:  input.BusinessID,
		PrincipalID: input.PrincipalID,
		Rating:      input.Rating,
		Body:        service.sanitizer.Text(input.Body),
		Status:      ReviewPublished,
	}

	if err := service.reviewRepository.Create(context, review); err != nil {
		return nil, fmt.Errorf("business_service_create_review_failed: %w", err)
	}

	return review, nil
}

/*
DeleteReview removes the actor's own review and rolls its rating back out
of the aggregate.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - reviewID: string

Returns:
  - error: apperr.Forbidden for non-authors, or storage errors
*/
func (service *Service) DeleteReview(context context.Context, actor *sec.Identity, reviewID string) error {
	review, err := service.reviewRepository.FindByID(context, reviewID)
	if err != nil {
		return err
	}

	if review.PrincipalID != actor.PrincipalID {
		return apperr.Forbidden("You can only delete your own reviews")
	}

	if err := service.reviewRepository.Delete(context, reviewID); err != nil {
		return fmt.Errorf("business_service_delete_review_failed: %w", err)
	}

	return nil
}

// # Moderation Surface

/*
SetVerified flips the staff verification badge. Audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string
  - verified: bool

Returns:
  - error: apperr.NotFound or storage failures
*/
func (service *Service) SetVerified(context context.Context, actor *sec.Identity, id string, verified bool) error {
	if err := service.businessRepository.SetVerified(context, id, verified); err != nil {
		return fmt.Errorf("business_service_verify_failed: %w", err)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionBusinessVerified,
		EntityType: "business",
		EntityID:   id,
	})

	return nil
}

/*
ModerateReview transitions a review between published and hidden. Audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - reviewID: string
  - status: ReviewStatus

Returns:
  - error: Validation, apperr.NotFound, or storage failures
*/
func (service *Service) ModerateReview(context context.Context, actor *sec.Identity, reviewID string, status ReviewStatus) error {
	if !status.IsValid() {
		return apperr.ValidationError("Unknown review status")
	}

	if err := service.reviewRepository.SetStatus(context, reviewID, status); err != nil {
		return fmt.Errorf("business_service_moderate_review_failed: %w", err)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionReviewModerated,
		EntityType: "review",
		EntityID:   reviewID,
	})

	return nil
}
