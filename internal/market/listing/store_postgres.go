// Copyright (c) 2026 SafraReport. All rights reserved.

package listing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/database/schema"
	"github.com/safrareport/safrareport/internal/platform/dberr"
)

// PostgresRepository implements the listing Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the listing Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var listingColumns = strings.Join(schema.MarketListing.Columns(), ", ")

func scanListing(row pgx.Row) (*Listing, error) {
	listing := &Listing{}
	err := row.Scan(
		&listing.ID,
		&listing.Slug,
		&listing.Title,
		&listing.Description,
		&listing.PriceCents,
		&listing.Currency,
		&listing.Category,
		&listing.Location,
		&listing.SellerID,
		&listing.Status,
		&listing.ExpiresAt,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

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
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Listing, int, error) {

	conditions := []string{"deletedat IS NULL"}
	args := []any{}

	appendFilter := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, condition+" $"+strconv.Itoa(len(args)))
	}

	if filter.Status != "" {
		appendFilter("status =", filter.Status)
	}
	if filter.Category != "" {
		appendFilter("category =", filter.Category)
	}
	if filter.Location != "" {
		appendFilter("location ILIKE", filter.Location)
	}
	if filter.SellerID != "" {
		appendFilter("sellerid =", filter.SellerID)
	}
	if filter.Search != "" {
		appendFilter("title ILIKE", "%"+filter.Search+"%")
	}
	if filter.MaxPriceCents > 0 {
		appendFilter("pricecents <=", filter.MaxPriceCents)
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM market.listing WHERE " + where
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_listing_repo_count_failed: %w", err)
	}

	listQuery := `
		SELECT ` + listingColumns + `
		FROM market.listing
		WHERE ` + where + `
		ORDER BY createdat DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := repository.pool.Query(context, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_listing_repo_list_failed: %w", err)
	}
	defer rows.Close()

	listings := []*Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_listing_repo_scan_failed: %w", err)
		}
		listings = append(listings, listing)
	}

	return listings, total, rows.Err()
}

/*
FindByID returns the listing with the given ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Listing: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM market.listing
		WHERE id = $1 AND deletedat IS NULL`

	listing, err := scanListing(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Listing")
		}
		return nil, fmt.Errorf("postgres_listing_repo_find_failed: %w", err)
	}

	return listing, nil
}

/*
FindBySlug returns the listing with the given URL slug.

Parameters:
  - context: context.Context
  - listingSlug: string

Returns:
  - *Listing: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresRepository) FindBySlug(context context.Context, listingSlug string) (*Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM market.listing
		WHERE slug = $1 AND deletedat IS NULL`

	listing, err := scanListing(repository.pool.QueryRow(context, query, listingSlug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Listing")
		}
		return nil, fmt.Errorf("postgres_listing_repo_find_by_slug_failed: %w", err)
	}

	return listing, nil
}

/*
Create persists a new listing row.

Parameters:
  - context: context.Context
  - listing: *Listing

Returns:
  - error: apperr.Conflict on slug collision, or storage failures
*/
func (repository *PostgresRepository) Create(context context.Context, listing *Listing) error {
	query := `
		INSERT INTO market.listing (id, slug, title, description, pricecents,
			currency, category, location, sellerid, status, expiresat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING createdat, updatedat`

	err := repository.pool.QueryRow(context, query,
		listing.ID,
		listing.Slug,
		listing.Title,
		listing.Description,
		listing.PriceCents,
		listing.Currency,
		listing.Category,
		listing.Location,
		listing.SellerID,
		listing.Status,
		listing.ExpiresAt,
	).Scan(&listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "postgres_listing_repo_create")
	}

	return nil
}

/*
Update persists the mutable fields of a listing.

Parameters:
  - context: context.Context
  - listing: *Listing

Returns:
  - error: apperr.NotFound, apperr.Conflict, or storage failures
*/
func (repository *PostgresRepository) Update(context context.Context, listing *Listing) error {
	query := `
		UPDATE market.listing
		SET slug = $2, title = $3, description = $4, pricecents = $5,
			currency = $6, category = $7, location = $8, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
		RETURNING updatedat`

	err := repository.pool.QueryRow(context, query,
		listing.ID,
		listing.Slug,
		listing.Title,
		listing.Description,
		listing.PriceCents,
		listing.Currency,
		listing.Category,
		listing.Location,
	).Scan(&listing.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Listing")
		}
		return dberr.Wrap(err, "postgres_listing_repo_update")
	}

	return nil
}

/*
SetStatus transitions a listing to the given status.

Parameters:
  - context: context.Context
  - id: string
  - status: Status

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresRepository) SetStatus(context context.Context, id string, status Status) error {
	query := `
		UPDATE market.listing
		SET status = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, id, status)
	if err != nil {
		return fmt.Errorf("postgres_listing_repo_set_status_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Listing")
	}

	return nil
}

/*
SoftDelete marks a listing deleted without removing the row.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresRepository) SoftDelete(context context.Context, id string) error {
	query := `
		UPDATE market.listing
		SET deletedat = NOW(), updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_listing_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Listing")
	}

	return nil
}

/*
ExpireOverdue flips every active listing past its expiry to expired.

Parameters:
  - context: context.Context

Returns:
  - int: Number of listings expired
  - error: Storage failures
*/
func (repository *PostgresRepository) ExpireOverdue(context context.Context) (int, error) {
	query := `
		UPDATE market.listing
		SET status = 'expired', updatedat = NOW()
		WHERE status = 'active' AND expiresat <= NOW() AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_listing_repo_expire_failed: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
