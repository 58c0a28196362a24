// Copyright (c) 2026 SafraReport. All rights reserved.

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/safrareport/safrareport/pkg/pagination"
	"github.com/safrareport/safrareport/pkg/uuidv7"
)

// # Service Layer

// Service writes and reads the audit trail.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

/*
Record appends an audit entry, best-effort.

Description: Fills in the ID and timestamp and persists the entry. A storage
failure is logged and dropped — the audited operation must never fail because
the trail was unavailable.

Parameters:
  - ctx: context.Context
  - entry: Entry
*/
func (service *Service) Record(ctx context.Context, entry Entry) {
	entry.ID = uuidv7.New()
	entry.CreatedAt = time.Now()

	if err := service.repository.Create(ctx, &entry); err != nil {
		service.logger.Error("audit_record_failed",
			slog.String("action", entry.Action),
			slog.String("actor_id", entry.ActorID),
			slog.String("error", err.Error()),
		)
	}
}

/*
List returns a page of audit entries, newest first.

Parameters:
  - ctx: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []*Entry: Matching entries
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]*Entry, pagination.Meta, error) {
	entries, total, err := service.repository.List(ctx, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("audit_service_list_failed: %w", err)
	}
	return entries, pagination.NewMeta(params.Page, params.Limit, total), nil
}
