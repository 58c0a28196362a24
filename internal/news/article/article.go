// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package article defines the core domain entities for the SafraReport newsroom.

It manages the lifecycle of editorial content from draft to publication,
including categorisation, HTML body sanitisation, and reading metrics.

Core Responsibility:

  - Newsroom: Defines statuses (Draft, Published, Archived) and sections.
  - Discovery: Slug-based public URLs and category filtering.
  - Analytics: Tracks view counts for ranking and editorial dashboards.

This package acts as the source of truth for all editorial data models.
*/
package article

import (
	"context"
	"time"
)

// # Domain Enums

// Status represents the editorial state of an article.
type Status string

const (
	// StatusDraft is visible only to staff and preview-token holders.
	StatusDraft Status = "draft"

	// StatusPublished is live on the public site.
	StatusPublished Status = "published"

	// StatusArchived is withdrawn from the public site but retained.
	StatusArchived Status = "archived"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Category names an editorial section of the site.
type Category string

const (
	CategoryPolitics   Category = "politics"
	CategoryEconomy    Category = "economy"
	CategoryCulture    Category = "culture"
	CategorySports     Category = "sports"
	CategoryTechnology Category = "technology"
	CategoryOpinion    Category = "opinion"
	CategoryLocal      Category = "local"
)

// IsValid reports whether c is a recognised [Category] value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPolitics, CategoryEconomy, CategoryCulture,
		CategorySports, CategoryTechnology, CategoryOpinion, CategoryLocal:
		return true
	}
	return false
}

// # Core Entities

// Article is the central aggregate of the newsroom domain.
type Article struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Body        string     `json:"body"` // Sanitised HTML
	Category    Category   `json:"category"`
	AuthorID    string     `json:"author_id"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ViewCount   int64      `json:"view_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Filter narrows article listings.
type Filter struct {
	Category Category
	Status   Status
	AuthorID string
	Search   string // Title substring, case-insensitive
}

// # Repository Contract

// Repository defines the persistence contract for articles.
type Repository interface {

	/*
		List returns articles newest-first with pagination and filters.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Article: Page of articles
		  - int: Total matching count
		  - error: Retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Article, int, error)

	/*
		FindByID returns the article with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Article: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Article, error)

	/*
		FindBySlug returns the article with the given slug.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Article: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindBySlug(context context.Context, slug string) (*Article, error)

	/*
		Create persists a new article.

		Parameters:
		  - context: context.Context
		  - article: *Article

		Returns:
		  - error: Constraint violations or persistence failures
	*/
	Create(context context.Context, article *Article) error

	/*
		Update persists changes to an existing article.

		Parameters:
		  - context: context.Context
		  - article: *Article

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, article *Article) error

	/*
		SetStatus transitions the article's editorial state, stamping
		publishedat on the first transition to published.

		Parameters:
		  - context: context.Context
		  - id: string
		  - status: Status

		Returns:
		  - error: Persistence failures
	*/
	SetStatus(context context.Context, id string, status Status) error

	/*
		SoftDelete marks the article as deleted without removing the row.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		IncrementViewCount adds delta to the article's view counter atomically.

		Parameters:
		  - context: context.Context
		  - id: string
		  - delta: int64

		Returns:
		  - error: Persistence failures
	*/
	IncrementViewCount(context context.Context, id string, delta int64) error
}
