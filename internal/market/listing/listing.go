// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package listing defines the core domain entities for the SafraReport
classifieds marketplace.

It manages seller-owned listings from creation through sale or expiry,
including categorisation, price handling, and moderation.

Core Responsibility:

  - Marketplace: Defines statuses (Active, Sold, Expired) and categories.
  - Ownership: Sellers manage their own listings; moderators can remove any.
  - Discovery: Slug-based public URLs with category and location filtering.

This package acts as the source of truth for all classifieds data models.
*/
package listing

import (
	"context"
	"time"
)

// # Domain Enums

// Status represents the marketplace state of a listing.
type Status string

const (
	// StatusActive is browsable and purchasable.
	StatusActive Status = "active"

	// StatusSold was marked sold by its seller.
	StatusSold Status = "sold"

	// StatusExpired passed its expiry without a sale.
	StatusExpired Status = "expired"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSold, StatusExpired:
		return true
	}
	return false
}

// Category names a classifieds section.
type Category string

const (
	CategoryVehicles    Category = "vehicles"
	CategoryRealEstate  Category = "real_estate"
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryJobs        Category = "jobs"
	CategoryServices    Category = "services"
	CategoryOther       Category = "other"
)

// IsValid reports whether c is a recognised [Category] value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryVehicles, CategoryRealEstate, CategoryElectronics,
		CategoryFurniture, CategoryJobs, CategoryServices, CategoryOther:
		return true
	}
	return false
}

// # Core Entities

// Listing is the central aggregate of the classifieds domain.
//
// Prices are stored in minor units (cents) to avoid floating point money.
type Listing struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"` // Sanitised plain text
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"` // ISO 4217, e.g. "USD"
	Category    Category  `json:"category"`
	Location    string    `json:"location"`
	SellerID    string    `json:"seller_id"`
	Status      Status    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filter narrows listing searches.
type Filter struct {
	Category      Category
	Location      string
	SellerID      string
	Status        Status
	Search        string // Title substring, case-insensitive
	MaxPriceCents int64  // 0 means no cap
}

// # Repository Contract

// Repository defines the persistence contract for listings.
type Repository interface {

	/*
		List returns listings newest-first with pagination and filters.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Listing: Page of listings
		  - int: Total matching count
		  - error: Retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Listing, int, error)

	/*
		FindByID returns the listing with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Listing: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Listing, error)

	/*
		FindBySlug returns the listing with the given URL slug.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Listing: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindBySlug(context context.Context, slug string) (*Listing, error)

	/*
		Create persists a new listing.

		Parameters:
		  - context: context.Context
		  - listing: *Listing

		Returns:
		  - error: apperr.Conflict on slug collision, or storage failures
	*/
	Create(context context.Context, listing *Listing) error

	/*
		Update persists the mutable fields of a listing.

		Parameters:
		  - context: context.Context
		  - listing: *Listing

		Returns:
		  - error: apperr.NotFound, apperr.Conflict, or storage failures
	*/
	Update(context context.Context, listing *Listing) error

	/*
		SetStatus transitions a listing to the given status.

		Parameters:
		  - context: context.Context
		  - id: string
		  - status: Status

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	SetStatus(context context.Context, id string, status Status) error

	/*
		SoftDelete marks a listing deleted without removing the row.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		ExpireOverdue flips every active listing past its expiry to expired.

		Parameters:
		  - context: context.Context

		Returns:
		  - int: Number of listings expired
		  - error: Storage failures
	*/
	ExpireOverdue(context context.Context) (int, error)
}
