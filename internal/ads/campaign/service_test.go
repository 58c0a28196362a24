// Copyright (c) 2026 SafraReport. All rights reserved.

package campaign_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safrareport/safrareport/internal/ads/campaign"
	"github.com/safrareport/safrareport/internal/platform/apperr"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
)

// # In-Memory Fakes

type fakeCampaignRepo struct {
	byID  map[string]*campaign.Campaign
	order []string
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{byID: map[string]*campaign.Campaign{}}
}

func (r *fakeCampaignRepo) ListByPlacement(_ context.Context, placement campaign.Placement, now time.Time) ([]*campaign.Campaign, error) {
	var live []*campaign.Campaign
	for _, id := range r.order {
		c := r.byID[id]
		if c.Placement == placement && c.Live(now) {
			live = append(live, c)
		}
	}
	return live, nil
}

func (r *fakeCampaignRepo) List(_ context.Context, limit, offset int) ([]*campaign.Campaign, int, error) {
	var all []*campaign.Campaign
	for _, id := range r.order {
		all = append(all, r.byID[id])
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *fakeCampaignRepo) FindByID(_ context.Context, id string) (*campaign.Campaign, error) {
	if c, ok := r.byID[id]; ok {
		return c, nil
	}
	return nil, apperr.NotFound("Campaign")
}

func (r *fakeCampaignRepo) Create(_ context.Context, c *campaign.Campaign) error {
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.byID[c.ID] = c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *fakeCampaignRepo) Update(_ context.Context, c *campaign.Campaign) error {
	if _, ok := r.byID[c.ID]; !ok {
		return apperr.NotFound("Campaign")
	}
	c.UpdatedAt = time.Now()
	r.byID[c.ID] = c
	return nil
}

func (r *fakeCampaignRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return apperr.NotFound("Campaign")
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeCampaignRepo) AddImpression(_ context.Context, id string) error {
	if c, ok := r.byID[id]; ok {
		c.Impressions++
	}
	return nil
}

func (r *fakeCampaignRepo) AddClick(_ context.Context, id string) (string, error) {
	c, ok := r.byID[id]
	if !ok {
		return "", apperr.NotFound("Campaign")
	}
	c.Clicks++
	return c.TargetURL, nil
}

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (r *fakeAuditRecorder) Record(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

// # Fixture

type adsFixture struct {
	service *campaign.Service
	repo    *fakeCampaignRepo
	trail   *fakeAuditRecorder
}

func newAdsFixture() *adsFixture {
	repo := newFakeCampaignRepo()
	trail := &fakeAuditRecorder{}
	service := campaign.NewService(repo, trail, nil, slog.Default())
	return &adsFixture{service: service, repo: repo, trail: trail}
}

func admin() *sec.Identity {
	return &sec.Identity{PrincipalID: "admin-1", Role: sec.RoleAdmin}
}

func (f *adsFixture) campaign(t *testing.T, name string, weight int, active bool) *campaign.Campaign {
	t.Helper()
	c, err := f.service.Create(context.Background(), admin(), campaign.CampaignInput{
		Name:      name,
		Placement: campaign.PlacementHomeBanner,
		ImageURL:  "https://cdn.example.com/" + name + ".png",
		TargetURL: "https://example.com/" + name,
		Weight:    weight,
		IsActive:  active,
	})
	require.NoError(t, err)
	return c
}

// # Tests

/*
TestServe_WeightedDraw verifies the weighted pick: with weights 1 and 3,
rolls 0 land on the first campaign and rolls 1-3 on the second, and every
serve counts an impression on the winner only.
*/
func TestServe_WeightedDraw(t *testing.T) {
	fixture := newAdsFixture()

	light := fixture.campaign(t, "light", 1, true)
	heavy := fixture.campaign(t, "heavy", 3, true)

	// 1. A fixed roll makes the draw deterministic.
	roll := 0
	fixture.service.WithRandIntN(func(n int) int {
		require.Equal(t, 4, n) // total placement weight
		return roll
	})

	creative, err := fixture.service.Serve(context.Background(), campaign.PlacementHomeBanner)
	require.NoError(t, err)
	assert.Equal(t, light.ID, creative.CampaignID)

	// 2. Every other roll lands on the heavy campaign.
	for roll = 1; roll <= 3; roll++ {
		creative, err = fixture.service.Serve(context.Background(), campaign.PlacementHomeBanner)
		require.NoError(t, err)
		assert.Equal(t, heavy.ID, creative.CampaignID)
	}

	// 3. Impressions followed the winners.
	assert.EqualValues(t, 1, fixture.repo.byID[light.ID].Impressions)
	assert.EqualValues(t, 3, fixture.repo.byID[heavy.ID].Impressions)
}

/*
TestServe_SkipsDormantCampaigns verifies that inactive campaigns and
campaigns outside their schedule window never serve.
*/
func TestServe_SkipsDormantCampaigns(t *testing.T) {
	fixture := newAdsFixture()

	fixture.campaign(t, "paused", 5, false)

	past := time.Now().Add(-48 * time.Hour)
	ended := time.Now().Add(-time.Hour)
	_, err := fixture.service.Create(context.Background(), admin(), campaign.CampaignInput{
		Name:      "finished",
		Placement: campaign.PlacementHomeBanner,
		ImageURL:  "https://cdn.example.com/finished.png",
		TargetURL: "https://example.com/finished",
		Weight:    5,
		StartsAt:  &past,
		EndsAt:    &ended,
		IsActive:  true,
	})
	require.NoError(t, err)

	only := fixture.campaign(t, "only-live", 1, true)

	fixture.service.WithRandIntN(func(n int) int {
		require.Equal(t, 1, n)
		return 0
	})

	creative, err := fixture.service.Serve(context.Background(), campaign.PlacementHomeBanner)
	require.NoError(t, err)
	assert.Equal(t, only.ID, creative.CampaignID)
}

/*
TestServe_EmptyPlacement verifies that a placement with no live campaign
returns NOT_FOUND so clients can hide the slot.
*/
func TestServe_EmptyPlacement(t *testing.T) {
	fixture := newAdsFixture()

	_, err := fixture.service.Serve(context.Background(), campaign.PlacementArticleSidebar)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	_, err = fixture.service.Serve(context.Background(), campaign.Placement("popunder"))
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
}

/*
TestClick_CountsAndReturnsTarget verifies the click path returns the
redirect target and bumps the counter.
*/
func TestClick_CountsAndReturnsTarget(t *testing.T) {
	fixture := newAdsFixture()
	created := fixture.campaign(t, "promo", 1, true)

	targetURL, err := fixture.service.Click(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.TargetURL, targetURL)
	assert.EqualValues(t, 1, fixture.repo.byID[created.ID].Clicks)

	_, err = fixture.service.Click(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestManagement_Audited verifies create, update, and delete each land in the
audit trail with the campaign as the entity.
*/
func TestManagement_Audited(t *testing.T) {
	fixture := newAdsFixture()

	created := fixture.campaign(t, "spring-sale", 2, true)

	_, err := fixture.service.Update(context.Background(), admin(), created.ID, campaign.CampaignInput{
		Name:      "spring-sale-extended",
		Placement: campaign.PlacementHomeBanner,
		ImageURL:  created.ImageURL,
		TargetURL: created.TargetURL,
		Weight:    4,
		IsActive:  true,
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Delete(context.Background(), admin(), created.ID))

	require.Len(t, fixture.trail.entries, 3)
	assert.Equal(t, audit.ActionCampaignCreated, fixture.trail.entries[0].Action)
	assert.Equal(t, audit.ActionCampaignUpdated, fixture.trail.entries[1].Action)
	assert.Equal(t, audit.ActionCampaignDeleted, fixture.trail.entries[2].Action)
	assert.Equal(t, created.ID, fixture.trail.entries[2].EntityID)
}

/*
TestCreate_ValidatesSchedule verifies weight and window validation.
*/
func TestCreate_ValidatesSchedule(t *testing.T) {
	fixture := newAdsFixture()

	start := time.Now().Add(time.Hour)
	end := time.Now()

	_, err := fixture.service.Create(context.Background(), admin(), campaign.CampaignInput{
		Name:      "backwards",
		Placement: campaign.PlacementHomeBanner,
		Weight:    1,
		StartsAt:  &start,
		EndsAt:    &end,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))

	_, err = fixture.service.Create(context.Background(), admin(), campaign.CampaignInput{
		Name:      "weightless",
		Placement: campaign.PlacementHomeBanner,
		Weight:    0,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
}
