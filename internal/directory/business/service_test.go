// Copyright (c) 2026 SafraReport. All rights reserved.

package business_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safrareport/safrareport/internal/directory/business"
	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sanitize"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
)

// # In-Memory Fakes

// fakeDirectoryStore backs both repository contracts so review writes can
// adjust the business aggregate the way the SQL transaction does.
type fakeDirectoryStore struct {
	businesses map[string]*business.Business
	bySlug     map[string]*business.Business
	reviews    map[string]*business.Review
}

func newFakeDirectoryStore() *fakeDirectoryStore {
	return &fakeDirectoryStore{
		businesses: map[string]*business.Business{},
		bySlug:     map[string]*business.Business{},
		reviews:    map[string]*business.Review{},
	}
}

func (s *fakeDirectoryStore) List(_ context.Context, filter business.Filter, limit, offset int) ([]*business.Business, int, error) {
	var matched []*business.Business
	for _, b := range s.businesses {
		if filter.Category != "" && b.Category != filter.Category {
			continue
		}
		if filter.VerifiedOnly && !b.IsVerified {
			continue
		}
		matched = append(matched, b)
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

func (s *fakeDirectoryStore) FindByID(_ context.Context, id string) (*business.Business, error) {
	if b, ok := s.businesses[id]; ok {
		return b, nil
	}
	return nil, apperr.NotFound("Business")
}

func (s *fakeDirectoryStore) FindBySlug(_ context.Context, slug string) (*business.Business, error) {
	if b, ok := s.bySlug[slug]; ok {
		return b, nil
	}
	return nil, apperr.NotFound("Business")
}

func (s *fakeDirectoryStore) Create(_ context.Context, b *business.Business) error {
	if _, exists := s.bySlug[b.Slug]; exists {
		return apperr.Conflict("A business with this slug already exists")
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	s.businesses[b.ID] = b
	s.bySlug[b.Slug] = b
	return nil
}

func (s *fakeDirectoryStore) Update(_ context.Context, b *business.Business) error {
	prev, ok := s.businesses[b.ID]
	if !ok {
		return apperr.NotFound("Business")
	}
	delete(s.bySlug, prev.Slug)
	b.UpdatedAt = time.Now()
	s.businesses[b.ID] = b
	s.bySlug[b.Slug] = b
	return nil
}

func (s *fakeDirectoryStore) SetVerified(_ context.Context, id string, verified bool) error {
	b, ok := s.businesses[id]
	if !ok {
		return apperr.NotFound("Business")
	}
	b.IsVerified = verified
	return nil
}

func (s *fakeDirectoryStore) ListPublished(_ context.Context, businessID string, limit, offset int) ([]*business.Review, int, error) {
	var matched []*business.Review
	for _, r := range s.reviews {
		if r.BusinessID == businessID && r.Status == business.ReviewPublished {
			matched = append(matched, r)
		}
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

func (s *fakeDirectoryStore) FindReviewByID(_ context.Context, id string) (*business.Review, error) {
	if r, ok := s.reviews[id]; ok {
		return r, nil
	}
	return nil, apperr.NotFound("Review")
}

func (s *fakeDirectoryStore) CreateReview(_ context.Context, r *business.Review) error {
	for _, existing := range s.reviews {
		if existing.BusinessID == r.BusinessID && existing.PrincipalID == r.PrincipalID {
			return apperr.Conflict("You have already reviewed this business")
		}
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	s.reviews[r.ID] = r

	b := s.businesses[r.BusinessID]
	b.RatingSum += int64(r.Rating)
	b.RatingCount++
	return nil
}

func (s *fakeDirectoryStore) SetReviewStatus(_ context.Context, id string, status business.ReviewStatus) error {
	r, ok := s.reviews[id]
	if !ok {
		return apperr.NotFound("Review")
	}
	if r.Status == status {
		return nil
	}
	r.Status = status

	b := s.businesses[r.BusinessID]
	if status == business.ReviewHidden {
		b.RatingSum -= int64(r.Rating)
		b.RatingCount--
	} else {
		b.RatingSum += int64(r.Rating)
		b.RatingCount++
	}
	return nil
}

func (s *fakeDirectoryStore) DeleteReview(_ context.Context, id string) error {
	r, ok := s.reviews[id]
	if !ok {
		return apperr.NotFound("Review")
	}
	delete(s.reviews, id)

	if r.Status == business.ReviewPublished {
		b := s.businesses[r.BusinessID]
		b.RatingSum -= int64(r.Rating)
		b.RatingCount--
	}
	return nil
}

// reviewRepoAdapter maps the shared fake onto the ReviewRepository contract.
type reviewRepoAdapter struct{ store *fakeDirectoryStore }

func (a reviewRepoAdapter) ListPublished(ctx context.Context, businessID string, limit, offset int) ([]*business.Review, int, error) {
	return a.store.ListPublished(ctx, businessID, limit, offset)
}

func (a reviewRepoAdapter) FindByID(ctx context.Context, id string) (*business.Review, error) {
	return a.store.FindReviewByID(ctx, id)
}

func (a reviewRepoAdapter) Create(ctx context.Context, r *business.Review) error {
	return a.store.CreateReview(ctx, r)
}

func (a reviewRepoAdapter) SetStatus(ctx context.Context, id string, status business.ReviewStatus) error {
	return a.store.SetReviewStatus(ctx, id, status)
}

func (a reviewRepoAdapter) Delete(ctx context.Context, id string) error {
	return a.store.DeleteReview(ctx, id)
}

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (r *fakeAuditRecorder) Record(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

// # Fixture

type directoryFixture struct {
	service *business.Service
	store   *fakeDirectoryStore
	trail   *fakeAuditRecorder
}

func newDirectoryFixture() *directoryFixture {
	store := newFakeDirectoryStore()
	trail := &fakeAuditRecorder{}
	service := business.NewService(store, reviewRepoAdapter{store}, sanitize.New(), trail, slog.Default())
	return &directoryFixture{service: service, store: store, trail: trail}
}

func (f *directoryFixture) registered(t *testing.T, name, ownerID string) *business.Business {
	t.Helper()
	b, err := f.service.Create(context.Background(), business.CreateInput{
		Name:     name,
		Category: business.CategoryRestaurant,
		City:     "Springfield",
		OwnerID:  ownerID,
	})
	require.NoError(t, err)
	return b
}

func reviewer(id string) *sec.Identity {
	return &sec.Identity{PrincipalID: id, Role: sec.RoleUser}
}

func moderator() *sec.Identity {
	return &sec.Identity{PrincipalID: "mod-1", Role: sec.RoleModerator}
}

// # Tests

/*
TestCreateReview_UpdatesAggregate verifies that publishing reviews folds
each rating into the business aggregate and that the average follows.
*/
func TestCreateReview_UpdatesAggregate(t *testing.T) {
	fixture := newDirectoryFixture()
	place := fixture.registered(t, "Corner Deli", "owner-1")

	// 1. Two reviews land in the aggregate.
	_, err := fixture.service.CreateReview(context.Background(), business.ReviewInput{
		BusinessID: place.ID, PrincipalID: "alice", Rating: 5, Body: "Great",
	})
	require.NoError(t, err)

	_, err = fixture.service.CreateReview(context.Background(), business.ReviewInput{
		BusinessID: place.ID, PrincipalID: "bob", Rating: 3, Body: "Fine",
	})
	require.NoError(t, err)

	stored := fixture.store.businesses[place.ID]
	assert.EqualValues(t, 8, stored.RatingSum)
	assert.EqualValues(t, 2, stored.RatingCount)
	assert.InDelta(t, 4.0, stored.AverageRating(), 0.001)
}

/*
TestCreateReview_OnePerAccount verifies the one-review-per-account rule and
that the duplicate attempt leaves the aggregate unchanged.
*/
func TestCreateReview_OnePerAccount(t *testing.T) {
	fixture := newDirectoryFixture()
	place := fixture.registered(t, "Corner Deli", "owner-1")

	_, err := fixture.service.CreateReview(context.Background(), business.ReviewInput{
		BusinessID: place.ID, PrincipalID: "alice", Rating: 5,
	})
	require.NoError(t, err)

	_, err = fixture.service.CreateReview(context.Background(), business.ReviewInput{
		BusinessID: place.ID, PrincipalID: "alice", Rating: 1,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "CONFLICT"))

	stored := fixture.store.businesses[place.ID]
	assert.EqualValues(t, 5, stored.RatingSum)
	assert.EqualValues(t, 1, stored.RatingCount)
}

/*
TestCreateReview_OwnerBlocked verifies that a business owner cannot rate
their own listing.
*/
func TestCreateReview_OwnerBlocked(t *testing.T) {
	fixture := newDirectoryFixture()
	place := fixture.registered(t, "Corner Deli", "owner-1")

	_, err := fixture.service.CreateReview(context.Background(), business.ReviewInput{
		BusinessID: place.ID, PrincipalID: "owner-1", Rating: 5,
	})

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))
}

/*
TestCreateReview_RatingBounds verifies the 1-5 rating range.
*/
func TestCreateReview_RatingBounds(t *testing.T) {
	fixture := newDirectoryFixture()
	place := fixture.registered(t, "Corner Deli", "owner-1")

	for _, rating := range []int{0, 6, -1} {
		_, err := fixture.service.CreateReview(context.Background(), business.ReviewInput{
			BusinessID: place.ID, PrincipalID: "alice", Rating: rating,
		})
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	}
}

/*
TestModerateReview_AdjustsAggregate verifies that hiding a review pulls its
rating out of the aggregate, republishing restores it, and both moves are
audited.
*/
func TestModerateReview_AdjustsAggregate(t *testing.T) {
	fixture := newDirectoryFixture()
	place := fixture.registered(t, "Corner Deli", "owner-1")

	review, err := fixture.service.CreateReview(context.Background(), business.ReviewInput{
		BusinessID: place.ID, PrincipalID: "alice", Rating: 4,
	})
	require.NoError(t, err)

	// 1. Hide: the rating leaves the aggregate.
	require.NoError(t, fixture.service.ModerateReview(context.Background(), moderator(), review.ID, business.ReviewHidden))
	stored := fixture.store.businesses[place.ID]
	assert.EqualValues(t, 0, stored.RatingSum)
	assert.EqualValues(t, 0, stored.RatingCount)

	// 2. Republish: the rating returns.
	require.NoError(t, fixture.service.ModerateReview(context.Background(), moderator(), review.ID, business.ReviewPublished))
	assert.EqualValues(t, 4, stored.RatingSum)
	assert.EqualValues(t, 1, stored.RatingCount)

	// 3. Both moderation actions were audited.
	require.Len(t, fixture.trail.entries, 2)
	assert.Equal(t, audit.ActionReviewModerated, fixture.trail.entries[0].Action)
	assert.Equal(t, audit.ActionReviewModerated, fixture.trail.entries[1].Action)
}

/*
TestDeleteReview_AuthorOnly verifies that only the author can delete a
review and that deletion rolls the rating back out of the aggregate.
*/
func TestDeleteReview_AuthorOnly(t *testing.T) {
	fixture := newDirectoryFixture()
	place := fixture.registered(t, "Corner Deli", "owner-1")

	review, err := fixture.service.CreateReview(context.Background(), business.ReviewInput{
		BusinessID: place.ID, PrincipalID: "alice", Rating: 2,
	})
	require.NoError(t, err)

	err = fixture.service.DeleteReview(context.Background(), reviewer("bob"), review.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	require.NoError(t, fixture.service.DeleteReview(context.Background(), reviewer("alice"), review.ID))
	stored := fixture.store.businesses[place.ID]
	assert.EqualValues(t, 0, stored.RatingSum)
	assert.EqualValues(t, 0, stored.RatingCount)
}

/*
TestSetVerified_Audited verifies that flipping the verification badge
persists and lands in the audit trail.
*/
func TestSetVerified_Audited(t *testing.T) {
	fixture := newDirectoryFixture()
	place := fixture.registered(t, "Corner Deli", "owner-1")

	require.NoError(t, fixture.service.SetVerified(context.Background(), moderator(), place.ID, true))

	assert.True(t, fixture.store.businesses[place.ID].IsVerified)
	require.Len(t, fixture.trail.entries, 1)
	assert.Equal(t, audit.ActionBusinessVerified, fixture.trail.entries[0].Action)
	assert.Equal(t, place.ID, fixture.trail.entries[0].EntityID)
}

/*
TestUpdate_OwnerOrModerator verifies profile edits are limited to the owner
and moderators.
*/
func TestUpdate_OwnerOrModerator(t *testing.T) {
	fixture := newDirectoryFixture()
	place := fixture.registered(t, "Corner Deli", "owner-1")

	newName := "Hijacked Deli"
	_, err := fixture.service.Update(context.Background(), reviewer("stranger"), place.ID, business.UpdateInput{
		Name: &newName,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	ownerName := "Corner Deli & Grill"
	updated, err := fixture.service.Update(context.Background(), &sec.Identity{PrincipalID: "owner-1", Role: sec.RoleUser}, place.ID, business.UpdateInput{
		Name: &ownerName,
	})
	require.NoError(t, err)
	assert.Equal(t, "corner-deli-grill", updated.Slug)
}
