// Copyright (c) 2026 SafraReport. All rights reserved.

package business

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

// PostgresRepository implements the business Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the business Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var businessColumns = strings.Join(schema.DirectoryBusiness.Columns(), ", ")

func scanBusiness(row pgx.Row) (*Business, error) {
	business := &Business{}
	err := row.Scan(
		&business.ID,
		&business.Slug,
		&business.Name,
		&business.Category,
		&business.City,
		&business.Phone,
		&business.Website,
		&business.OwnerID,
		&business.IsVerified,
		&business.RatingSum,
		&business.RatingCount,
		&business.CreatedAt,
		&business.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return business, nil
}

/*
List returns businesses best-rated-first with pagination and filters.

Description: Ordering is by average published rating with review volume as
the tiebreak, so a single five-star review does not outrank an established
profile.

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
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Business, int, error) {

	conditions := []string{"deletedat IS NULL"}
	args := []any{}

	appendFilter := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, condition+" $"+strconv.Itoa(len(args)))
	}

	if filter.Category != "" {
		appendFilter("category =", filter.Category)
	}
	if filter.City != "" {
		appendFilter("city ILIKE", filter.City)
	}
	if filter.Search != "" {
		appendFilter("name ILIKE", "%"+filter.Search+"%")
	}
	if filter.VerifiedOnly {
		conditions = append(conditions, "isverified = TRUE")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM directory.business WHERE " + where
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_business_repo_count_failed: %w", err)
	}

	listQuery := `
		SELECT ` + businessColumns + `
		FROM directory.business
		WHERE ` + where + `
		ORDER BY (ratingsum::float / GREATEST(ratingcount, 1)) DESC, ratingcount DESC, createdat DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := repository.pool.Query(context, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_business_repo_list_failed: %w", err)
	}
	defer rows.Close()

	businesses := []*Business{}
	for rows.Next() {
		business, err := scanBusiness(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_business_repo_scan_failed: %w", err)
		}
		businesses = append(businesses, business)
	}

	return businesses, total, rows.Err()
}

/*
FindByID returns the business with the given ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Business: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM directory.business
		WHERE id = $1 AND deletedat IS NULL`

	business, err := scanBusiness(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Business")
		}
		return nil, fmt.Errorf("postgres_business_repo_find_failed: %w", err)
	}

	return business, nil
}

/*
FindBySlug returns the business with the given URL slug.

Parameters:
  - context: context.Context
  - businessSlug: string

Returns:
  - *Business: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresRepository) FindBySlug(context context.Context, businessSlug string) (*Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM directory.business
		WHERE slug = $1 AND deletedat IS NULL`

	business, err := scanBusiness(repository.pool.QueryRow(context, query, businessSlug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Business")
		}
		return nil, fmt.Errorf("postgres_business_repo_find_by_slug_failed: %w", err)
	}

	return business, nil
}

/*
Create persists a new business profile row.

Parameters:
  - context: context.Context
  - business: *Business

Returns:
  - error: apperr.Conflict on slug collision, or storage failures
*/
func (repository *PostgresRepository) Create(context context.Context, business *Business) error {
	query := `
		INSERT INTO directory.business (id, slug, name, category, city, phone,
			website, ownerid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING isverified, ratingsum, ratingcount, createdat, updatedat`

	err := repository.pool.QueryRow(context, query,
		business.ID,
		business.Slug,
		business.Name,
		business.Category,
		business.City,
		business.Phone,
		business.Website,
		business.OwnerID,
	).Scan(
		&business.IsVerified,
		&business.RatingSum,
		&business.RatingCount,
		&business.CreatedAt,
		&business.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "postgres_business_repo_create")
	}

	return nil
}

/*
Update persists the mutable profile fields of a business.

Parameters:
  - context: context.Context
  - business: *Business

Returns:
  - error: apperr.NotFound, apperr.Conflict, or storage failures
*/
func (repository *PostgresRepository) Update(context context.Context, business *Business) error {
	query := `
		UPDATE directory.business
		SET slug = $2, name = $3, category = $4, city = $5, phone = $6,
			website = $7, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
		RETURNING updatedat`

	err := repository.pool.QueryRow(context, query,
		business.ID,
		business.Slug,
		business.Name,
		business.Category,
		business.City,
		business.Phone,
		business.Website,
	).Scan(&business.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Business")
		}
		return dberr.Wrap(err, "postgres_business_repo_update")
	}

	return nil
}

/*
SetVerified flips the staff verification flag.

Parameters:
  - context: context.Context
  - id: string
  - verified: bool

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresRepository) SetVerified(context context.Context, id string, verified bool) error {
	query := `
		UPDATE directory.business
		SET isverified = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, id, verified)
	if err != nil {
		return fmt.Errorf("postgres_business_repo_verify_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Business")
	}

	return nil
}

// # Review Store

// PostgresReviewRepository implements the ReviewRepository interface using pgx.
//
// Every write runs inside a transaction so the review row and the rating
// aggregate on directory.business never drift apart.
type PostgresReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository creates a new PostgreSQL implementation of the ReviewRepository.
func NewReviewRepository(pool *pgxpool.Pool) *PostgresReviewRepository {
	return &PostgresReviewRepository{pool: pool}
}

var reviewColumns = strings.Join(schema.DirectoryReview.Columns(), ", ")

func scanReview(row pgx.Row) (*Review, error) {
	review := &Review{}
	err := row.Scan(
		&review.ID,
		&review.BusinessID,
		&review.PrincipalID,
		&review.Rating,
		&review.Body,
		&review.Status,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return review, nil
}

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
func (repository *PostgresReviewRepository) ListPublished(context context.Context, businessID string, limit, offset int) ([]*Review, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM directory.review
		WHERE businessid = $1 AND status = 'published'`
	if err := repository.pool.QueryRow(context, countQuery, businessID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_review_repo_count_failed: %w", err)
	}

	listQuery := `
		SELECT ` + reviewColumns + `
		FROM directory.review
		WHERE businessid = $1 AND status = 'published'
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, listQuery, businessID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_review_repo_list_failed: %w", err)
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_review_repo_scan_failed: %w", err)
		}
		reviews = append(reviews, review)
	}

	return reviews, total, rows.Err()
}

/*
FindByID returns the review with the given ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Review: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (repository *PostgresReviewRepository) FindByID(context context.Context, id string) (*Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM directory.review
		WHERE id = $1`

	review, err := scanReview(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Review")
		}
		return nil, fmt.Errorf("postgres_review_repo_find_failed: %w", err)
	}

	return review, nil
}

/*
Create persists a new published review and adds its rating to the business
aggregate in the same transaction.

Parameters:
  - context: context.Context
  - review: *Review

Returns:
  - error: apperr.Conflict for a duplicate reviewer, or storage failures
*/
func (repository *PostgresReviewRepository) Create(context context.Context, review *Review) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_review_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	insertQuery := `
		INSERT INTO directory.review (id, businessid, principalid, rating, body, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING createdat, updatedat`

	err = transaction.QueryRow(context, insertQuery,
		review.ID,
		review.BusinessID,
		review.PrincipalID,
		review.Rating,
		review.Body,
		review.Status,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "postgres_review_repo_create")
	}

	aggregateQuery := `
		UPDATE directory.business
		SET ratingsum = ratingsum + $2, ratingcount = ratingcount + 1, updatedat = NOW()
		WHERE id = $1`

	if _, err := transaction.Exec(context, aggregateQuery, review.BusinessID, review.Rating); err != nil {
		return fmt.Errorf("postgres_review_repo_aggregate_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_review_repo_commit_failed: %w", err)
	}

	return nil
}

/*
SetStatus transitions a review's moderation state and adjusts the business
aggregate in the same transaction.

Description: Hiding a published review subtracts its rating; republishing a
hidden one adds it back. A no-op transition leaves the aggregate untouched.

Parameters:
  - context: context.Context
  - id: string
  - status: ReviewStatus

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresReviewRepository) SetStatus(context context.Context, id string, status ReviewStatus) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_review_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	updateQuery := `
		UPDATE directory.review
		SET status = $2, updatedat = NOW()
		WHERE id = $1 AND status <> $2
		RETURNING businessid, rating`

	var businessID string
	var rating int
	err = transaction.QueryRow(context, updateQuery, id, status).Scan(&businessID, &rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the review is missing or it is already in this state.
			return repository.noopOrNotFound(context, id)
		}
		return fmt.Errorf("postgres_review_repo_set_status_failed: %w", err)
	}

	delta := rating
	if status == ReviewHidden {
		delta = -rating
	}

	aggregateQuery := `
		UPDATE directory.business
		SET ratingsum = ratingsum + $2,
			ratingcount = ratingcount + CASE WHEN $2 > 0 THEN 1 ELSE -1 END,
			updatedat = NOW()
		WHERE id = $1`

	if _, err := transaction.Exec(context, aggregateQuery, businessID, delta); err != nil {
		return fmt.Errorf("postgres_review_repo_aggregate_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_review_repo_commit_failed: %w", err)
	}

	return nil
}

/*
Delete removes a review row and subtracts its rating from the business
aggregate in the same transaction if it was published.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresReviewRepository) Delete(context context.Context, id string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_review_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	deleteQuery := `
		DELETE FROM directory.review
		WHERE id = $1
		RETURNING businessid, rating, status`

	var businessID string
	var rating int
	var status ReviewStatus
	err = transaction.QueryRow(context, deleteQuery, id).Scan(&businessID, &rating, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("Review")
		}
		return fmt.Errorf("postgres_review_repo_delete_failed: %w", err)
	}

	if status == ReviewPublished {
		aggregateQuery := `
			UPDATE directory.business
			SET ratingsum = ratingsum - $2, ratingcount = ratingcount - 1, updatedat = NOW()
			WHERE id = $1`

		if _, err := transaction.Exec(context, aggregateQuery, businessID, rating); err != nil {
			return fmt.Errorf("postgres_review_repo_aggregate_failed: %w", err)
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_review_repo_commit_failed: %w", err)
	}

	return nil
}

// noopOrNotFound distinguishes "already in the target state" from "missing"
// after a conditional status update touched no rows.
func (repository *PostgresReviewRepository) noopOrNotFound(context context.Context, id string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM directory.review WHERE id = $1)`
	if err := repository.pool.QueryRow(context, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("postgres_review_repo_exists_failed: %w", err)
	}
	if !exists {
		return apperr.NotFound("Review")
	}
	return nil
}
