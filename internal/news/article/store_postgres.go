// Copyright (c) 2026 SafraReport. All rights reserved.

package article

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/database/schema"
	"github.com/safrareport/safrareport/internal/platform/dberr"
)

// PostgresRepository implements the article Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the article Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var articleColumns = strings.Join(schema.NewsArticle.Columns(), ", ")

func scanArticle(row pgx.Row) (*Article, error) {
	article := &Article{}
	err := row.Scan(
		&article.ID,
		&article.Slug,
		&article.Title,
		&article.Summary,
		&article.Body,
		&article.Category,
		&article.AuthorID,
		&article.Status,
		&article.PublishedAt,
		&article.ViewCount,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return article, nil
}

/*
List returns articles newest-first with pagination and filters.

Description: Published listings are ordered by publication time; everything
else falls back to creation time so drafts keep a stable order.

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
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Article, int, error) {

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
	if filter.AuthorID != "" {
		appendFilter("authorid =", filter.AuthorID)
	}
	if filter.Search != "" {
		appendFilter("title ILIKE", "%"+filter.Search+"%")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM news.article WHERE " + where
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_article_repo_count_failed: %w", err)
	}

	orderBy := "createdat DESC"
	if filter.Status == StatusPublished {
		orderBy = "publishedat DESC"
	}

	listQuery := `
		SELECT ` + articleColumns + `
		FROM news.article
		WHERE ` + where + `
		ORDER BY ` + orderBy + `
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_article_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var articles []*Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_article_repo_scan_failed: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_article_repo_rows_failed: %w", err)
	}

	return articles, total, nil
}

/*
FindByID retrieves an article by its unique ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Article: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM news.article
		WHERE id = $1 AND deletedat IS NULL`

	article, err := scanArticle(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Article")
		}
		return nil, fmt.Errorf("postgres_article_repo_find_by_id_failed: %w", err)
	}

	return article, nil
}

/*
FindBySlug retrieves an article by its public slug.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Article: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM news.article
		WHERE slug = $1 AND deletedat IS NULL`

	article, err := scanArticle(repository.pool.QueryRow(context, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Article")
		}
		return nil, fmt.Errorf("postgres_article_repo_find_by_slug_failed: %w", err)
	}

	return article, nil
}

/*
Create persists a new article record into the news.article table.

Parameters:
  - context: context.Context
  - article: *Article

Returns:
  - error: Conflict on duplicate slug, or persistence failures
*/
func (repository *PostgresRepository) Create(context context.Context, article *Article) error {
	const query = `
		INSERT INTO news.article (
			id, slug, title, summary, body, category, authorid, status, viewcount, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		article.ID,
		article.Slug,
		article.Title,
		article.Summary,
		article.Body,
		article.Category,
		article.AuthorID,
		article.Status,
		article.ViewCount,
		article.CreatedAt,
		article.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "postgres_article_repo_create")
	}

	return nil
}

/*
Update persists changes to an article's mutable fields.

Parameters:
  - context: context.Context
  - article: *Article

Returns:
  - error: Conflict on duplicate slug, or persistence failures
*/
func (repository *PostgresRepository) Update(context context.Context, article *Article) error {
	const query = `
		UPDATE news.article
		SET slug = $2, title = $3, summary = $4, body = $5, category = $6, updatedat = $7
		WHERE id = $1 AND deletedat IS NULL`

	article.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		article.ID,
		article.Slug,
		article.Title,
		article.Summary,
		article.Body,
		article.Category,
		article.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "postgres_article_repo_update")
	}

	return nil
}

/*
SetStatus transitions the article's editorial state.

Description: publishedat is stamped only on the FIRST transition to
published, so republishing after an unpublish keeps the original date.

Parameters:
  - context: context.Context
  - id: string
  - status: Status

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) SetStatus(context context.Context, id string, status Status) error {
	const query = `
		UPDATE news.article
		SET status = $2,
		    publishedat = CASE
		        WHEN $2 = 'published' AND publishedat IS NULL THEN NOW()
		        ELSE publishedat
		    END,
		    updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, id, status)
	if err != nil {
		return fmt.Errorf("postgres_article_repo_set_status_failed: %w", err)
	}
	return nil
}

/*
SoftDelete marks an article as deleted without removing the row.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) SoftDelete(context context.Context, id string) error {
	const query = "UPDATE news.article SET deletedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_article_repo_soft_delete_failed: %w", err)
	}
	return nil
}

/*
IncrementViewCount adds delta to the view counter atomically.

Parameters:
  - context: context.Context
  - id: string
  - delta: int64

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) IncrementViewCount(context context.Context, id string, delta int64) error {
	const query = "UPDATE news.article SET viewcount = viewcount + $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, id, delta)
	if err != nil {
		return fmt.Errorf("postgres_article_repo_increment_views_failed: %w", err)
	}
	return nil
}
