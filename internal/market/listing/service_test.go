// Copyright (c) 2026 SafraReport. All rights reserved.

package listing_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safrareport/safrareport/internal/market/listing"
	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sanitize"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/pkg/pagination"
	"github.com/safrareport/safrareport/pkg/pointer"
)

// # In-Memory Fakes

type fakeListingRepo struct {
	byID   map[string]*listing.Listing
	bySlug map[string]*listing.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{
		byID:   map[string]*listing.Listing{},
		bySlug: map[string]*listing.Listing{},
	}
}

func (r *fakeListingRepo) List(_ context.Context, filter listing.Filter, limit, offset int) ([]*listing.Listing, int, error) {
	var matched []*listing.Listing
	for _, l := range r.byID {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.SellerID != "" && l.SellerID != filter.SellerID {
			continue
		}
		matched = append(matched, l)
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

func (r *fakeListingRepo) FindByID(_ context.Context, id string) (*listing.Listing, error) {
	if l, ok := r.byID[id]; ok {
		return l, nil
	}
	return nil, apperr.NotFound("Listing")
}

func (r *fakeListingRepo) FindBySlug(_ context.Context, slug string) (*listing.Listing, error) {
	if l, ok := r.bySlug[slug]; ok {
		return l, nil
	}
	return nil, apperr.NotFound("Listing")
}

func (r *fakeListingRepo) Create(_ context.Context, l *listing.Listing) error {
	if _, exists := r.bySlug[l.Slug]; exists {
		return apperr.Conflict("A listing with this slug already exists")
	}
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	r.byID[l.ID] = l
	r.bySlug[l.Slug] = l
	return nil
}

func (r *fakeListingRepo) Update(_ context.Context, l *listing.Listing) error {
	prev, ok := r.byID[l.ID]
	if !ok {
		return apperr.NotFound("Listing")
	}
	delete(r.bySlug, prev.Slug)
	l.UpdatedAt = time.Now()
	r.byID[l.ID] = l
	r.bySlug[l.Slug] = l
	return nil
}

func (r *fakeListingRepo) SetStatus(_ context.Context, id string, status listing.Status) error {
	l, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("Listing")
	}
	l.Status = status
	return nil
}

func (r *fakeListingRepo) SoftDelete(_ context.Context, id string) error {
	l, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("Listing")
	}
	delete(r.byID, id)
	delete(r.bySlug, l.Slug)
	return nil
}

func (r *fakeListingRepo) ExpireOverdue(_ context.Context) (int, error) {
	expired := 0
	for _, l := range r.byID {
		if l.Status == listing.StatusActive && !l.ExpiresAt.After(time.Now()) {
			l.Status = listing.StatusExpired
			expired++
		}
	}
	return expired, nil
}

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (r *fakeAuditRecorder) Record(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

// # Fixture

type listingFixture struct {
	service *listing.Service
	repo    *fakeListingRepo
	trail   *fakeAuditRecorder
}

func newListingFixture() *listingFixture {
	repo := newFakeListingRepo()
	trail := &fakeAuditRecorder{}
	service := listing.NewService(repo, sanitize.New(), trail, slog.Default())
	return &listingFixture{service: service, repo: repo, trail: trail}
}

func (f *listingFixture) active(t *testing.T, title, sellerID string) *listing.Listing {
	t.Helper()
	l, err := f.service.Create(context.Background(), listing.CreateInput{
		Title:       title,
		Description: "Good condition",
		PriceCents:  125000,
		Currency:    "USD",
		Category:    listing.CategoryElectronics,
		Location:    "Springfield",
		SellerID:    sellerID,
	})
	require.NoError(t, err)
	return l
}

func seller(id string) *sec.Identity {
	return &sec.Identity{PrincipalID: id, Role: sec.RoleUser}
}

func moderator() *sec.Identity {
	return &sec.Identity{PrincipalID: "mod-1", Role: sec.RoleModerator}
}

// # Tests

/*
TestCreate_Defaults verifies that a new listing starts active, gets a slug
from its title, strips markup from the description, and carries the default
expiry window.
*/
func TestCreate_Defaults(t *testing.T) {
	fixture := newListingFixture()

	created, err := fixture.service.Create(context.Background(), listing.CreateInput{
		Title:       "Vintage Lamp, Barely Used",
		Description: "Bright <script>alert(1)</script>and warm",
		PriceCents:  4500,
		Currency:    "USD",
		Category:    listing.CategoryFurniture,
		SellerID:    "seller-1",
	})
	require.NoError(t, err)

	assert.Equal(t, listing.StatusActive, created.Status)
	assert.Equal(t, "vintage-lamp-barely-used", created.Slug)
	assert.NotContains(t, created.Description, "script")
	assert.WithinDuration(t, time.Now().Add(listing.DefaultLifetime), created.ExpiresAt, time.Minute)
}

/*
TestCreate_RejectsNegativePrice verifies the price floor before persistence.
*/
func TestCreate_RejectsNegativePrice(t *testing.T) {
	fixture := newListingFixture()

	_, err := fixture.service.Create(context.Background(), listing.CreateInput{
		Title:      "Free-ish",
		PriceCents: -1,
		Category:   listing.CategoryOther,
		SellerID:   "seller-1",
	})

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	assert.Empty(t, fixture.repo.byID)
}

/*
TestUpdate_OwnerOnly verifies that only the seller can edit a listing and
that anyone else gets a permission error without any change landing.
*/
func TestUpdate_OwnerOnly(t *testing.T) {
	fixture := newListingFixture()
	created := fixture.active(t, "Mountain Bike", "seller-1")

	// 1. A different account cannot touch the listing.
	_, err := fixture.service.Update(context.Background(), seller("intruder"), created.ID, listing.UpdateInput{
		Title: pointer.To("Stolen Goods"),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))
	assert.Equal(t, "Mountain Bike", fixture.repo.byID[created.ID].Title)

	// 2. The owner can.
	updated, err := fixture.service.Update(context.Background(), seller("seller-1"), created.ID, listing.UpdateInput{
		Title: pointer.To("Mountain Bike 29er"),
	})
	require.NoError(t, err)
	assert.Equal(t, "mountain-bike-29er", updated.Slug)
}

/*
TestMarkSold_OwnerOnly verifies the sold transition is owner-scoped.
*/
func TestMarkSold_OwnerOnly(t *testing.T) {
	fixture := newListingFixture()
	created := fixture.active(t, "Couch", "seller-1")

	err := fixture.service.MarkSold(context.Background(), seller("intruder"), created.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	require.NoError(t, fixture.service.MarkSold(context.Background(), seller("seller-1"), created.ID))
	assert.Equal(t, listing.StatusSold, fixture.repo.byID[created.ID].Status)
}

/*
TestDelete_ModeratorAudited verifies that a moderator removing someone
else's listing succeeds and lands in the audit trail, while an owner
deleting their own listing is not audited.
*/
func TestDelete_ModeratorAudited(t *testing.T) {
	fixture := newListingFixture()
	flagged := fixture.active(t, "Suspicious Item", "seller-1")
	mine := fixture.active(t, "My Old Chair", "seller-2")

	// 1. A plain user cannot delete someone else's listing.
	err := fixture.service.Delete(context.Background(), seller("seller-2"), flagged.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "FORBIDDEN"))

	// 2. A moderator can, and the removal is audited.
	require.NoError(t, fixture.service.Delete(context.Background(), moderator(), flagged.ID))
	require.Len(t, fixture.trail.entries, 1)
	assert.Equal(t, audit.ActionListingRemoved, fixture.trail.entries[0].Action)
	assert.Equal(t, "mod-1", fixture.trail.entries[0].ActorID)

	// 3. An owner deleting their own listing leaves no audit entry.
	require.NoError(t, fixture.service.Delete(context.Background(), seller("seller-2"), mine.ID))
	assert.Len(t, fixture.trail.entries, 1)
}

/*
TestBrowse_ActiveOnly verifies that public browsing never surfaces sold
listings regardless of the caller's filter.
*/
func TestBrowse_ActiveOnly(t *testing.T) {
	fixture := newListingFixture()

	sold := fixture.active(t, "Gone Already", "seller-1")
	require.NoError(t, fixture.service.MarkSold(context.Background(), seller("seller-1"), sold.ID))
	live := fixture.active(t, "Still Here", "seller-1")

	listings, meta, err := fixture.service.Browse(context.Background(),
		listing.Filter{Status: listing.StatusSold},
		pagination.Params{Page: 1, Limit: 10},
	)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, live.ID, listings[0].ID)
	assert.Equal(t, 1, meta.Total)
}

/*
TestExpireOverdue verifies the maintenance sweep flips overdue active
listings to expired and leaves future ones alone.
*/
func TestExpireOverdue(t *testing.T) {
	fixture := newListingFixture()

	overdue := fixture.active(t, "Old News", "seller-1")
	fixture.repo.byID[overdue.ID].ExpiresAt = time.Now().Add(-time.Hour)
	fresh := fixture.active(t, "Fresh Deal", "seller-1")

	require.NoError(t, fixture.service.ExpireOverdue(context.Background()))

	assert.Equal(t, listing.StatusExpired, fixture.repo.byID[overdue.ID].Status)
	assert.Equal(t, listing.StatusActive, fixture.repo.byID[fresh.ID].Status)
}
