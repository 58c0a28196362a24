// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package business defines the core domain entities for the SafraReport local
business directory.

It manages business profiles and their customer reviews, including the
verification flag and the rating aggregate that powers directory ranking.

Core Responsibility:

  - Directory: Business profiles with category, city, and contact details.
  - Reviews: One review per account per business, rated 1-5.
  - Trust: Staff verification flag and review moderation.

The rating aggregate (sum and count) is stored on the business row and kept
in step with review writes inside a single transaction.
*/
package business

import (
	"context"
	"time"
)

// # Domain Enums

// Category names a directory section.
type Category string

const (
	CategoryRestaurant   Category = "restaurant"
	CategoryRetail       Category = "retail"
	CategoryHealth       Category = "health"
	CategoryAutomotive   Category = "automotive"
	CategoryProfessional Category = "professional"
	CategoryHomeServices Category = "home_services"
	CategoryOther        Category = "other"
)

// IsValid reports whether c is a recognised [Category] value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryRestaurant, CategoryRetail, CategoryHealth,
		CategoryAutomotive, CategoryProfessional, CategoryHomeServices, CategoryOther:
		return true
	}
	return false
}

// ReviewStatus represents the moderation state of a review.
type ReviewStatus string

const (
	// ReviewPublished is visible and counted in the rating aggregate.
	ReviewPublished ReviewStatus = "published"

	// ReviewHidden was withdrawn by a moderator and does not count.
	ReviewHidden ReviewStatus = "hidden"
)

// IsValid reports whether s is a recognised [ReviewStatus] value.
func (s ReviewStatus) IsValid() bool {
	return s == ReviewPublished || s == ReviewHidden
}

// # Core Entities

// Business is the central aggregate of the directory domain.
type Business struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	City        string    `json:"city"`
	Phone       string    `json:"phone,omitempty"`
	Website     string    `json:"website,omitempty"`
	OwnerID     string    `json:"owner_id"`
	IsVerified  bool      `json:"is_verified"`
	RatingSum   int64     `json:"rating_sum"`
	RatingCount int64     `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AverageRating returns the mean published rating, or 0 with no reviews.
func (b *Business) AverageRating() float64 {
	if b.RatingCount == 0 {
		return 0
	}
	return float64(b.RatingSum) / float64(b.RatingCount)
}

// Review is a single account's rating of a business.
type Review struct {
	ID          string       `json:"id"`
	BusinessID  string       `json:"business_id"`
	PrincipalID string       `json:"principal_id"`
	Rating      int          `json:"rating"` // 1-5
	Body        string       `json:"body"`   // Sanitised plain text
	Status      ReviewStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Filter narrows business listings.
type Filter struct {
	Category     Category
	City         string
	Search       string // Name substring, case-insensitive
	VerifiedOnly bool
}

// # Repository Contracts

// Repository defines the persistence contract for businesses.
type Repository interface {

	/*
		List returns businesses best-rated-first with pagination and filters.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Business: Page of businesses
		  - int: Total matching count
		  - error: Retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Business, int, error)

	/*
		FindByID returns the business with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Business: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Business, error)

	/*
		FindBySlug returns the business with the given URL slug.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Business: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindBySlug(context context.Context, slug string) (*Business, error)

	/*
		Create persists a new business profile.

		Parameters:
		  - context: context.Context
		  - business: *Business

		Returns:
		  - error: apperr.Conflict on slug collision, or storage failures
	*/
	Create(context context.Context, business *Business) error

	/*
		Update persists the mutable profile fields of a business.

		Parameters:
		  - context: context.Context
		  - business: *Business

		Returns:
		  - error: apperr.NotFound, apperr.Conflict, or storage failures
	*/
	Update(context context.Context, business *Business) error

	/*
		SetVerified flips the staff verification flag.

		Parameters:
		  - context: context.Context
		  - id: string
		  - verified: bool

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	SetVerified(context context.Context, id string, verified bool) error
}

// ReviewRepository defines the persistence contract for reviews.
//
// Writes that change which reviews are published also adjust the owning
// business's rating aggregate in the same transaction.
type ReviewRepository interface {

	/*
		ListPublished returns the published reviews of a business, newest-first.

		Parameters:
		  - context: context.Context
		  - businessID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*Review: Page of published reviews
		  - int: Total published count
		  - error: Retrieval failures
	*/
	ListPublished(context context.Context, businessID string, limit, offset int) ([]*Review, int, error)

	/*
		FindByID returns the review with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Review: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Review, error)

	/*
		Create persists a new published review and adds its rating to the
		business aggregate atomically.

		Parameters:
		  - context: context.Context
		  - review: *Review

		Returns:
		  - error: apperr.Conflict if the principal already reviewed this
		    business, or storage failures
	*/
	Create(context context.Context, review *Review) error

	/*
		SetStatus transitions a review's moderation state and adjusts the
		business aggregate atomically.

		Parameters:
		  - context: context.Context
		  - id: string
		  - status: ReviewStatus

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	SetStatus(context context.Context, id string, status ReviewStatus) error

	/*
		Delete removes a review and subtracts its rating from the business
		aggregate atomically if it was published.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	Delete(context context.Context, id string) error
}
