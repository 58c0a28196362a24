// Copyright (c) 2026 SafraReport. All rights reserved.

package article_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safrareport/safrareport/internal/news/article"
	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sanitize"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/pkg/pagination"
	"github.com/safrareport/safrareport/pkg/pointer"
)

// # In-Memory Fakes

type fakeArticleRepo struct {
	byID   map[string]*article.Article
	bySlug map[string]*article.Article
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{
		byID:   map[string]*article.Article{},
		bySlug: map[string]*article.Article{},
	}
}

func (r *fakeArticleRepo) List(_ context.Context, filter article.Filter, limit, offset int) ([]*article.Article, int, error) {
	var matched []*article.Article
	for _, a := range r.byID {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.AuthorID != "" && a.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, a)
	}

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *fakeArticleRepo) FindByID(_ context.Context, id string) (*article.Article, error) {
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("Article")
}

func (r *fakeArticleRepo) FindBySlug(_ context.Context, slug string) (*article.Article, error) {
	if a, ok := r.bySlug[slug]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("Article")
}

func (r *fakeArticleRepo) Create(_ context.Context, a *article.Article) error {
	if _, exists := r.bySlug[a.Slug]; exists {
		return apperr.Conflict("An article with this slug already exists")
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.byID[a.ID] = a
	r.bySlug[a.Slug] = a
	return nil
}

func (r *fakeArticleRepo) Update(_ context.Context, a *article.Article) error {
	prev, ok := r.byID[a.ID]
	if !ok {
		return apperr.NotFound("Article")
	}
	delete(r.bySlug, prev.Slug)
	a.UpdatedAt = time.Now()
	r.byID[a.ID] = a
	r.bySlug[a.Slug] = a
	return nil
}

func (r *fakeArticleRepo) SetStatus(_ context.Context, id string, status article.Status) error {
	a, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("Article")
	}
	a.Status = status
	if status == article.StatusPublished && a.PublishedAt == nil {
		now := time.Now()
		a.PublishedAt = &now
	}
	return nil
}

func (r *fakeArticleRepo) SoftDelete(_ context.Context, id string) error {
	a, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("Article")
	}
	delete(r.byID, id)
	delete(r.bySlug, a.Slug)
	return nil
}

func (r *fakeArticleRepo) IncrementViewCount(_ context.Context, id string, delta int64) error {
	if a, ok := r.byID[id]; ok {
		a.ViewCount += delta
	}
	return nil
}

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (r *fakeAuditRecorder) Record(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

// # Fixture

type articleFixture struct {
	service *article.Service
	repo    *fakeArticleRepo
	trail   *fakeAuditRecorder
}

func newArticleFixture(t *testing.T) *articleFixture {
	t.Helper()

	previewTokens, err := sec.NewPreviewTokenService("test-preview-secret-at-least-32-chars", "safrareport-test")
	require.NoError(t, err)

	repo := newFakeArticleRepo()
	trail := &fakeAuditRecorder{}

	service := article.NewService(repo, sanitize.New(), previewTokens, trail, slog.Default())

	return &articleFixture{service: service, repo: repo, trail: trail}
}

func (f *articleFixture) draft(t *testing.T, title string) *article.Article {
	t.Helper()
	a, err := f.service.Create(context.Background(), article.CreateInput{
		Title:    title,
		Summary:  "A short summary",
		Body:     "<p>Body text</p>",
		Category: article.CategoryPolitics,
		AuthorID: "editor-1",
	})
	require.NoError(t, err)
	return a
}

func editorIdentity() *sec.Identity {
	return &sec.Identity{PrincipalID: "editor-1", Role: sec.RoleEditor}
}

// # Tests

/*
TestCreate_SanitisesAndSlugs verifies that new drafts get a URL slug derived
from the title, that script tags are stripped from the body, and that the
summary is reduced to plain inline text.
*/
func TestCreate_SanitisesAndSlugs(t *testing.T) {
	fixture := newArticleFixture(t)

	// 1. Draft an article with a hostile body and an accented title.
	created, err := fixture.service.Create(context.Background(), article.CreateInput{
		Title:    "Café Économie: A Test",
		Summary:  "<b>Bold</b> <script>alert(1)</script>summary",
		Body:     "<p>Hello</p><script>alert(1)</script>",
		Category: article.CategoryEconomy,
		AuthorID: "editor-1",
	})
	require.NoError(t, err)

	// 2. The slug is ASCII, lowercase, hyphen-separated.
	assert.Equal(t, "cafe-economie-a-test", created.Slug)

	// 3. The script never survives sanitisation.
	assert.NotContains(t, created.Body, "<script>")
	assert.Contains(t, created.Body, "<p>Hello</p>")
	assert.NotContains(t, created.Summary, "<script>")

	// 4. New articles always start as drafts.
	assert.Equal(t, article.StatusDraft, created.Status)
	assert.Nil(t, created.PublishedAt)
}

/*
TestCreate_RejectsUnknownCategory verifies that a category outside the
editorial sections fails validation before anything is persisted.
*/
func TestCreate_RejectsUnknownCategory(t *testing.T) {
	fixture := newArticleFixture(t)

	_, err := fixture.service.Create(context.Background(), article.CreateInput{
		Title:    "Test",
		Body:     "<p>x</p>",
		Category: article.Category("gossip"),
		AuthorID: "editor-1",
	})

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	assert.Empty(t, fixture.repo.byID)
}

/*
TestGetPublished_HidesDrafts verifies that the public slug lookup only
resolves published articles and reports drafts as not found, and that a
successful read bumps the view counter.
*/
func TestGetPublished_HidesDrafts(t *testing.T) {
	fixture := newArticleFixture(t)
	draft := fixture.draft(t, "Hidden Draft")

	// 1. The draft is invisible to the public surface.
	_, err := fixture.service.GetPublished(context.Background(), draft.Slug)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	// 2. Publish it; the lookup now resolves and counts the read.
	require.NoError(t, fixture.service.Publish(context.Background(), editorIdentity(), draft.ID))

	got, err := fixture.service.GetPublished(context.Background(), draft.Slug)
	require.NoError(t, err)
	assert.Equal(t, article.StatusPublished, got.Status)
	assert.EqualValues(t, 1, got.ViewCount)
}

/*
TestPublish_Lifecycle verifies the draft -> published -> archived transitions,
that the first publish stamps PublishedAt exactly once, and that each
transition lands in the audit trail.
*/
func TestPublish_Lifecycle(t *testing.T) {
	fixture := newArticleFixture(t)
	draft := fixture.draft(t, "Lifecycle")

	// 1. Publish stamps the timestamp.
	require.NoError(t, fixture.service.Publish(context.Background(), editorIdentity(), draft.ID))
	published, err := fixture.service.Get(context.Background(), draft.ID)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	firstPublish := *published.PublishedAt

	// 2. Unpublish archives but keeps the original timestamp.
	require.NoError(t, fixture.service.Unpublish(context.Background(), editorIdentity(), draft.ID))
	archived, err := fixture.service.Get(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, article.StatusArchived, archived.Status)

	// 3. Re-publishing does not move PublishedAt.
	require.NoError(t, fixture.service.Publish(context.Background(), editorIdentity(), draft.ID))
	republished, err := fixture.service.Get(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, firstPublish, *republished.PublishedAt)

	// 4. All three transitions were audited.
	require.Len(t, fixture.trail.entries, 3)
	assert.Equal(t, audit.ActionArticlePublished, fixture.trail.entries[0].Action)
	assert.Equal(t, audit.ActionArticleUnpublished, fixture.trail.entries[1].Action)
	assert.Equal(t, audit.ActionArticlePublished, fixture.trail.entries[2].Action)
}

/*
TestPreviewToken_RoundTrip verifies that a minted preview token resolves the
draft it was issued for without any session, and that a token for a deleted
article fails cleanly.
*/
func TestPreviewToken_RoundTrip(t *testing.T) {
	fixture := newArticleFixture(t)
	draft := fixture.draft(t, "Preview Me")

	// 1. Mint a token and resolve the draft through it.
	token, err := fixture.service.IssuePreviewToken(context.Background(), draft.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := fixture.service.GetPreview(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
	assert.Equal(t, article.StatusDraft, got.Status)

	// 2. A garbage token maps to the token error, never a signature detail.
	_, err = fixture.service.GetPreview(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "INVALID_OR_EXPIRED_TOKEN"))

	// 3. Once the article is gone the token stops resolving.
	require.NoError(t, fixture.service.Delete(context.Background(), editorIdentity(), draft.ID))
	_, err = fixture.service.GetPreview(context.Background(), token)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestUpdate_SlugFollowsTitle verifies that retitling an article moves its slug
and that a body update passes through the sanitiser again.
*/
func TestUpdate_SlugFollowsTitle(t *testing.T) {
	fixture := newArticleFixture(t)
	created := fixture.draft(t, "Old Title")

	updated, err := fixture.service.Update(context.Background(), created.ID, article.UpdateInput{
		Title: pointer.To("Brand New Title"),
		Body:  pointer.To("<p>fine</p><iframe src=\"https://evil.example\"></iframe>"),
	})
	require.NoError(t, err)

	assert.Equal(t, "brand-new-title", updated.Slug)
	assert.NotContains(t, updated.Body, "iframe")

	// The old slug no longer resolves.
	_, err = fixture.repo.FindBySlug(context.Background(), "old-title")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestListPublished_ForcesStatus verifies that the public listing ignores any
caller-supplied status and only ever returns published articles.
*/
func TestListPublished_ForcesStatus(t *testing.T) {
	fixture := newArticleFixture(t)

	fixture.draft(t, "Draft Piece")
	live := fixture.draft(t, "Live Piece")
	require.NoError(t, fixture.service.Publish(context.Background(), editorIdentity(), live.ID))

	// Asking for drafts still yields only published articles.
	articles, meta, err := fixture.service.ListPublished(context.Background(),
		article.Filter{Status: article.StatusDraft},
		pagination.Params{Page: 1, Limit: 10},
	)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, live.ID, articles[0].ID)
	assert.Equal(t, 1, meta.Total)
}
