// Copyright (c) 2026 SafraReport. All rights reserved.

package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/database/schema"
)

// PostgresRepository implements the campaign Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the campaign Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var campaignColumns = strings.Join(schema.AdsCampaign.Columns(), ", ")

func scanCampaign(row pgx.Row) (*Campaign, error) {
	campaign := &Campaign{}
	err := row.Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.Placement,
		&campaign.ImageURL,
		&campaign.TargetURL,
		&campaign.Weight,
		&campaign.StartsAt,
		&campaign.EndsAt,
		&campaign.IsActive,
		&campaign.Impressions,
		&campaign.Clicks,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

/*
ListByPlacement returns every live campaign for a placement.

Description: The schedule window is evaluated in SQL against the caller's
clock so serve-time filtering and the service's Live predicate agree.

Parameters:
  - context: context.Context
  - placement: Placement
  - now: time.Time

Returns:
  - []*Campaign: Live candidates, possibly empty
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListByPlacement(context context.Context, placement Placement, now time.Time) ([]*Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM ads.campaign
		WHERE placement = $1
			AND isactive = TRUE
			AND weight > 0
			AND (startsat IS NULL OR startsat <= $2)
			AND (endsat IS NULL OR endsat > $2)`

	rows, err := repository.pool.Query(context, query, placement, now)
	if err != nil {
		return nil, fmt.Errorf("postgres_campaign_repo_list_by_placement_failed: %w", err)
	}
	defer rows.Close()

	campaigns := []*Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_campaign_repo_scan_failed: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, rows.Err()
}

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
func (repository *PostgresRepository) List(context context.Context, limit, offset int) ([]*Campaign, int, error) {
	var total int
	if err := repository.pool.QueryRow(context, "SELECT COUNT(*) FROM ads.campaign").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_campaign_repo_count_failed: %w", err)
	}

	query := `
		SELECT ` + campaignColumns + `
		FROM ads.campaign
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_campaign_repo_list_failed: %w", err)
	}
	defer rows.Close()

	campaigns := []*Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_campaign_repo_scan_failed: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, total, rows.Err()
}

/*
FindByID returns the campaign with the given ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Campaign: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM ads.campaign
		WHERE id = $1`

	campaign, err := scanCampaign(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Campaign")
		}
		return nil, fmt.Errorf("postgres_campaign_repo_find_failed: %w", err)
	}

	return campaign, nil
}

/*
Create persists a new campaign row.

Parameters:
  - context: context.Context
  - campaign: *Campaign

Returns:
  - error: Storage failures
*/
func (repository *PostgresRepository) Create(context context.Context, campaign *Campaign) error {
	query := `
		INSERT INTO ads.campaign (id, name, placement, imageurl, targeturl,
			weight, startsat, endsat, isactive)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING impressions, clicks, createdat, updatedat`

	err := repository.pool.QueryRow(context, query,
		campaign.ID,
		campaign.Name,
		campaign.Placement,
		campaign.ImageURL,
		campaign.TargetURL,
		campaign.Weight,
		campaign.StartsAt,
		campaign.EndsAt,
		campaign.IsActive,
	).Scan(
		&campaign.Impressions,
		&campaign.Clicks,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_campaign_repo_create_failed: %w", err)
	}

	return nil
}

/*
Update persists the mutable fields of a campaign.

Parameters:
  - context: context.Context
  - campaign: *Campaign

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresRepository) Update(context context.Context, campaign *Campaign) error {
	query := `
		UPDATE ads.campaign
		SET name = $2, placement = $3, imageurl = $4, targeturl = $5,
			weight = $6, startsat = $7, endsat = $8, isactive = $9,
			updatedat = NOW()
		WHERE id = $1
		RETURNING updatedat`

	err := repository.pool.QueryRow(context, query,
		campaign.ID,
		campaign.Name,
		campaign.Placement,
		campaign.ImageURL,
		campaign.TargetURL,
		campaign.Weight,
		campaign.StartsAt,
		campaign.EndsAt,
		campaign.IsActive,
	).Scan(&campaign.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Campaign")
		}
		return fmt.Errorf("postgres_campaign_repo_update_failed: %w", err)
	}

	return nil
}

/*
Delete removes a campaign row.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	tag, err := repository.pool.Exec(context, "DELETE FROM ads.campaign WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("postgres_campaign_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Campaign")
	}

	return nil
}

/*
AddImpression atomically increments the impression counter.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Storage failures
*/
func (repository *PostgresRepository) AddImpression(context context.Context, id string) error {
	query := `
		UPDATE ads.campaign
		SET impressions = impressions + 1
		WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, id); err != nil {
		return fmt.Errorf("postgres_campaign_repo_impression_failed: %w", err)
	}

	return nil
}

/*
AddClick atomically increments the click counter and returns the target URL.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - string: Target URL
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresRepository) AddClick(context context.Context, id string) (string, error) {
	query := `
		UPDATE ads.campaign
		SET clicks = clicks + 1
		WHERE id = $1
		RETURNING targeturl`

	var targetURL string
	err := repository.pool.QueryRow(context, query, id).Scan(&targetURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("Campaign")
		}
		return "", fmt.Errorf("postgres_campaign_repo_click_failed: %w", err)
	}

	return targetURL, nil
}
