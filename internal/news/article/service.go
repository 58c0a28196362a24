// Copyright (c) 2026 SafraReport. All rights reserved.

package article

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sanitize"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/pkg/pagination"
	"github.com/safrareport/safrareport/pkg/slug"
	"github.com/safrareport/safrareport/pkg/uuidv7"
)

// PreviewTokenTTL bounds how long a shared draft link stays readable.
const PreviewTokenTTL = 6 * time.Hour

// # Service Layer

// Service orchestrates the editorial lifecycle of articles.
//
// Every HTML body passes through the sanitiser before persistence, and every
// publish/unpublish/delete is audited.
type Service struct {
	articleRepository Repository
	sanitizer         *sanitize.Sanitizer
	previewTokens     *sec.PreviewTokenService
	auditRecorder     audit.Recorder
	logger            *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	articleRepo Repository,
	sanitizer *sanitize.Sanitizer,
	previewTokens *sec.PreviewTokenService,
	auditRecorder audit.Recorder,
	logger *slog.Logger,
) *Service {
	if auditRecorder == nil {
		auditRecorder = audit.NopRecorder{}
	}
	return &Service{
		articleRepository: articleRepo,
		sanitizer:         sanitizer,
		previewTokens:     previewTokens,
		auditRecorder:     auditRecorder,
		logger:            logger,
	}
}

// # Public Reading

/*
ListPublished returns a page of live articles for the public site.

Parameters:
  - context: context.Context
  - filter: Filter (Status is forced to published)
  - params: pagination.Params

Returns:
  - []*Article: Page of published articles
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) ListPublished(context context.Context, filter Filter, params pagination.Params) ([]*Article, pagination.Meta, error) {
	filter.Status = StatusPublished

	articles, total, err := service.articleRepository.List(context, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("article_service_list_failed: %w", err)
	}

	return articles, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
GetPublished resolves a public article by slug and counts the read.

Description: Only published articles are visible here; drafts and archived
pieces 404 regardless of the caller. The view increment is fire-and-forget.

Parameters:
  - context: context.Context
  - articleSlug: string

Returns:
  - *Article: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) GetPublished(context context.Context, articleSlug string) (*Article, error) {
	article, err := service.articleRepository.FindBySlug(context, articleSlug)
	if err != nil {
		return nil, err
	}

	if article.Status != StatusPublished {
		return nil, apperr.NotFound("Article")
	}

	// Analytics side effect; a lost count never fails the read.
	_ = service.articleRepository.IncrementViewCount(context, article.ID, 1)
	article.ViewCount++

	return article, nil
}

/*
GetPreview resolves a draft through a signed preview token.

Description: The token carries the article ID and an expiry; anyone holding a
valid link can read the draft without a session. Published articles resolve
too, so links keep working across the publish transition.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *Article: Hydrated entity
  - error: InvalidOrExpiredToken or retrieval failures
*/
func (service *Service) GetPreview(context context.Context, token string) (*Article, error) {
	articleID, err := service.previewTokens.VerifyPreviewToken(token)
	if err != nil {
		return nil, apperr.InvalidOrExpiredToken()
	}

	article, err := service.articleRepository.FindByID(context, articleID)
	if err != nil {
		return nil, err
	}

	return article, nil
}

// # Editorial Surface

/*
ListAll returns a page of articles in any state for the newsroom dashboard.

Parameters:
  - context: context.Context
  - filter: Filter
  - params: pagination.Params

Returns:
  - []*Article: Page of articles
  - pagination.Meta: Paging metadata
  - error: Retrieval failures
*/
func (service *Service) ListAll(context context.Context, filter Filter, params pagination.Params) ([]*Article, pagination.Meta, error) {
	articles, total, err := service.articleRepository.List(context, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("article_service_list_all_failed: %w", err)
	}
	return articles, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
Get returns any article by ID for the newsroom dashboard.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Article: Hydrated entity
  - error: apperr.NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, id string) (*Article, error) {
	return service.articleRepository.FindByID(context, id)
}

// CreateInput holds the data required to draft a new article.
type CreateInput struct {
	Title    string
	Summary  string
	Body     string
	Category Category
	AuthorID string
}

/*
Create drafts a new article.

Description: The body is sanitised to the editorial HTML whitelist and the
summary is stripped to inline markup. New articles always start as drafts.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Article: Created draft
  - err: Validation, conflict, or storage errors
*/
func (service *Service) Create(context context.Context, input CreateInput) (*Article, error) {
	if !input.Category.IsValid() {
		return nil, apperr.ValidationError("Unknown category")
	}

	article := &Article{
		ID:       uuidv7.New(),
		Slug:     slug.From(input.Title),
		Title:    input.Title,
		Summary:  service.sanitizer.Text(input.Summary),
		Body:     service.sanitizer.Article(input.Body),
		Category: input.Category,
		AuthorID: input.AuthorID,
		Status:   StatusDraft,
	}

	if err := service.articleRepository.Create(context, article); err != nil {
		return nil, fmt.Errorf("article_service_create_failed: %w", err)
	}

	service.logger.Info("article_drafted",
		slog.String("article_id", article.ID),
		slog.String("author_id", article.AuthorID),
	)

	return article, nil
}

// UpdateInput defines the mutable subset of article fields.
type UpdateInput struct {
	Title    *string
	Summary  *string
	Body     *string
	Category *Category
}

/*
Update applies a partial set of changes to an article.

Description: The slug follows the title so published URLs stay readable; the
sanitiser runs on every body write, never only on create.

Parameters:
  - context: context.Context
  - id: string
  - input: UpdateInput

Returns:
  - *Article: Updated entity
  - error: Validation or storage failures
*/
func (service *Service) Update(context context.Context, id string, input UpdateInput) (*Article, error) {
	article, err := service.articleRepository.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		article.Title = *input.Title
		article.Slug = slug.From(*input.Title)
	}
	if input.Summary != nil {
		article.Summary = service.sanitizer.Text(*input.Summary)
	}
	if input.Body != nil {
		article.Body = service.sanitizer.Article(*input.Body)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, apperr.ValidationError("Unknown category")
		}
		article.Category = *input.Category
	}

	if err := service.articleRepository.Update(context, article); err != nil {
		return nil, fmt.Errorf("article_service_update_failed: %w", err)
	}

	return article, nil
}

/*
Publish transitions an article to the live site. Audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string

Returns:
  - error: Not found or storage failures
*/
func (service *Service) Publish(context context.Context, actor *sec.Identity, id string) error {
	if _, err := service.articleRepository.FindByID(context, id); err != nil {
		return err
	}

	if err := service.articleRepository.SetStatus(context, id, StatusPublished); err != nil {
		return fmt.Errorf("article_service_publish_failed: %w", err)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionArticlePublished,
		EntityType: "article",
		EntityID:   id,
	})

	return nil
}

/*
Unpublish withdraws an article from the live site. Audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string

Returns:
  - error: Not found or storage failures
*/
func (service *Service) Unpublish(context context.Context, actor *sec.Identity, id string) error {
	if _, err := service.articleRepository.FindByID(context, id); err != nil {
		return err
	}

	if err := service.articleRepository.SetStatus(context, id, StatusArchived); err != nil {
		return fmt.Errorf("article_service_unpublish_failed: %w", err)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionArticleUnpublished,
		EntityType: "article",
		EntityID:   id,
	})

	return nil
}

/*
Delete soft-deletes an article. Audited.

Parameters:
  - context: context.Context
  - actor: *sec.Identity
  - id: string

Returns:
  - error: Storage failures
*/
func (service *Service) Delete(context context.Context, actor *sec.Identity, id string) error {
	if err := service.articleRepository.SoftDelete(context, id); err != nil {
		return fmt.Errorf("article_service_delete_failed: %w", err)
	}

	service.auditRecorder.Record(context, audit.Entry{
		ActorID:    actor.PrincipalID,
		Action:     audit.ActionArticleDeleted,
		EntityType: "article",
		EntityID:   id,
	})

	return nil
}

/*
IssuePreviewToken mints a signed, expiring link token for a draft.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - string: Signed preview token
  - error: Not found or signing failures
*/
func (service *Service) IssuePreviewToken(context context.Context, id string) (string, error) {
	if _, err := service.articleRepository.FindByID(context, id); err != nil {
		return "", err
	}

	token, err := service.previewTokens.GeneratePreviewToken(id, PreviewTokenTTL)
	if err != nil {
		return "", fmt.Errorf("article_service_preview_token_failed: %w", err)
	}

	return token, nil
}
