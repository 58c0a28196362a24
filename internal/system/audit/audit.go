// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package audit records who did what on the back-office surface.

Every sensitive admin action (role grants, publishes, verifications, ad
campaign changes) appends an immutable entry. Entries are never updated or
deleted; the trail is the system's memory of staff activity.

# Architecture

  - Entry: The append-only record.
  - Recorder: The write-side contract other services depend on.
  - Service: Best-effort writer plus the admin read endpoint.
*/
package audit

import (
	"context"
	"time"
)

// # Domain Entities

// Entry represents one immutable audit record.
type Entry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// # Action Catalogue

// Audited actions. Keep these stable: dashboards and retention queries key on them.
const (
	ActionRoleChanged        = "principal.role_changed"
	ActionAccountDeactivated = "principal.deactivated"
	ActionAccountReactivated = "principal.reactivated"
	ActionArticlePublished   = "article.published"
	ActionArticleUnpublished = "article.unpublished"
	ActionArticleDeleted     = "article.deleted"
	ActionListingRemoved     = "listing.removed"
	ActionBusinessVerified   = "business.verified"
	ActionReviewModerated    = "review.moderated"
	ActionCampaignCreated    = "campaign.created"
	ActionCampaignUpdated    = "campaign.updated"
	ActionCampaignDeleted    = "campaign.deleted"
)

// # Contracts

// Recorder is the write-side contract consumed by other services.
//
// Implementations must never fail the caller's operation: a lost audit entry
// is logged and counted, not propagated.
type Recorder interface {
	// Record appends an entry. ID and CreatedAt are filled in by the recorder.
	Record(ctx context.Context, entry Entry)
}

// ListFilter narrows the admin audit listing.
type ListFilter struct {
	ActorID    string
	Action     string
	EntityType string
}

// Repository defines the persistence contract for audit entries.
type Repository interface {

	/*
		Create appends a new audit entry.

		Parameters:
		  - context: context.Context
		  - entry: *Entry

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, entry *Entry) error

	/*
		List returns entries newest-first with pagination and optional filters.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter
		  - limit: int
		  - offset: int

		Returns:
		  - []*Entry: Matching entries
		  - int: Total matching count
		  - error: Retrieval failures
	*/
	List(context context.Context, filter ListFilter, limit, offset int) ([]*Entry, int, error)
}

// NopRecorder discards every entry. Used in tests.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) {}
